/*
MIT License

Copyright (c) 2026 the isy authors

Permission is hereby granted, free of charge, to any person obtaining a copy
of this software and associated documentation files (the "Software"), to deal
in the Software without restriction, including without limitation the rights
to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
copies of the Software, and to permit persons to whom the Software is
furnished to do so, subject to the following conditions:

The above copyright notice and this permission notice shall be included in all
copies or substantial portions of the Software.

THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
SOFTWARE.
*/

package group_test

import (
	"fmt"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/chatfabric/isy/internal/group"
)

var _ = Describe("State", func() {
	var st *group.State

	BeforeEach(func() {
		st = group.NewState("salon1", 10*time.Second)
	})

	Describe("membership", func() {
		It("allocates a new member and reuses the slot on rejoin", func() {
			m, ok := st.FindOrAllocate("alice", nil)
			Expect(ok).To(BeTrue())
			Expect(m.User).To(Equal("alice"))

			m2, ok := st.FindOrAllocate("alice", nil)
			Expect(ok).To(BeTrue())
			Expect(m2).To(BeIdenticalTo(m))
		})

		It("refuses a new member once the group is at capacity", func() {
			for i := 0; i < group.MaxMembers; i++ {
				_, ok := st.FindOrAllocate(fmt.Sprintf("user%d", i), nil)
				Expect(ok).To(BeTrue())
			}
			_, ok := st.FindOrAllocate("overflow", nil)
			Expect(ok).To(BeFalse())
		})

		It("removes a member so a later slot can be reused", func() {
			st.FindOrAllocate("alice", nil)
			st.Remove("alice")
			Expect(st.Snapshot()).To(BeEmpty())
		})

		It("snapshots every attached member", func() {
			st.FindOrAllocate("alice", nil)
			st.FindOrAllocate("bob", nil)
			Expect(st.Snapshot()).To(HaveLen(2))
		})
	})

	Describe("bans", func() {
		It("reports a user as banned only after being added", func() {
			Expect(st.IsBanned("bob")).To(BeFalse())
			st.Banned["bob"] = struct{}{}
			Expect(st.IsBanned("bob")).To(BeTrue())
		})
	})

	Describe("admin token binding", func() {
		It("binds on first use and accepts the same token again", func() {
			Expect(st.BindToken("tok1")).To(BeTrue())
			Expect(st.BindToken("tok1")).To(BeTrue())
		})

		It("rejects a mismatched token once one is bound", func() {
			Expect(st.BindToken("tok1")).To(BeTrue())
			Expect(st.BindToken("tok2")).To(BeFalse())
		})

		It("rejects an empty token", func() {
			Expect(st.BindToken("")).To(BeFalse())
		})

		It("lets SetToken overwrite unconditionally", func() {
			st.BindToken("tok1")
			st.SetToken("tok2")
			Expect(st.BindToken("tok2")).To(BeTrue())
		})
	})

	Describe("idle state machine", func() {
		It("never warns or expires when idle timeout is disabled", func() {
			st.IdleTimeout = 0
			st.LastActivity = time.Now().Add(-time.Hour)
			Expect(st.ShouldWarn()).To(BeFalse())
			Expect(st.ShouldExpire()).To(BeFalse())
		})

		It("warns at half the idle timeout for timeouts above one second", func() {
			st.IdleTimeout = 10 * time.Second
			st.LastActivity = time.Now().Add(-6 * time.Second)
			Expect(st.ShouldWarn()).To(BeTrue())
		})

		It("uses the full timeout as the warn threshold when it is one second or less", func() {
			st.IdleTimeout = time.Second
			st.LastActivity = time.Now().Add(-900 * time.Millisecond)
			Expect(st.ShouldWarn()).To(BeFalse())
			st.LastActivity = time.Now().Add(-1100 * time.Millisecond)
			Expect(st.ShouldWarn()).To(BeTrue())
		})

		It("does not expire a group still in Active phase", func() {
			st.LastActivity = time.Now().Add(-time.Hour)
			Expect(st.ShouldExpire()).To(BeFalse())
		})

		It("expires a Warned group once the full idle timeout has elapsed", func() {
			st.Phase = group.PhaseWarned
			st.LastActivity = time.Now().Add(-11 * time.Second)
			Expect(st.ShouldExpire()).To(BeTrue())
		})

		It("clears the idle banner and returns to Active on Touch when Warned", func() {
			st.Phase = group.PhaseWarned
			st.IdleBanner = group.BannerSlot{Active: true, Text: "idle soon"}

			cleared := st.Touch()
			Expect(cleared).To(BeTrue())
			Expect(st.Phase).To(Equal(group.PhaseActive))
			Expect(st.IdleBanner.Active).To(BeFalse())
		})

		It("reports no clear when Touch is called outside Warned", func() {
			Expect(st.Touch()).To(BeFalse())
		})
	})
})
