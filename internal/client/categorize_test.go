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

package client

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Session.categorize", func() {
	var s *Session

	BeforeEach(func() {
		s = &Session{user: "alice", tokens: NewTokenStore()}
	})

	It("classifies a GROUPE[ prefixed line as chat without parsing it as a grammar line", func() {
		ev, ok := s.categorize("GROUPE[salon1]: Message de bob : salut")
		Expect(ok).To(BeTrue())
		Expect(ev.Kind).To(Equal(EventChat))
	})

	It("classifies a sticky admin banner set", func() {
		ev, ok := s.categorize("CTRL BANNER_SET bienvenue a tous")
		Expect(ok).To(BeTrue())
		Expect(ev.Kind).To(Equal(EventBanner))
		Expect(ev.BannerClear).To(BeFalse())
		Expect(ev.BannerIdle).To(BeFalse())
		Expect(ev.Text).To(Equal("bienvenue a tous"))
	})

	It("classifies a sticky idle banner clear", func() {
		ev, ok := s.categorize("CTRL IBANNER_CLR")
		Expect(ok).To(BeTrue())
		Expect(ev.Kind).To(Equal(EventBanner))
		Expect(ev.BannerIdle).To(BeTrue())
		Expect(ev.BannerClear).To(BeTrue())
	})

	It("classifies a redirect order and records it as pending", func() {
		ev, ok := s.categorize("CTRL REDIRECT salonA 4100 manual")
		Expect(ok).To(BeTrue())
		Expect(ev.Kind).To(Equal(EventRedirect))
		Expect(ev.Redirect.NewGroup).To(Equal("salonA"))
		Expect(ev.Redirect.NewPort).To(Equal(4100))
		Expect(ev.Redirect.Reason).To(Equal("manual"))

		taken := s.TakeRedirect()
		Expect(taken).ToNot(BeNil())
		Expect(taken.NewGroup).To(Equal("salonA"))
	})

	It("classifies a deletion announcement and marks the group deleted", func() {
		ev, ok := s.categorize("SYS le groupe a ete supprime pour cause d'inactivite")
		Expect(ok).To(BeTrue())
		Expect(ev.Kind).To(Equal(EventDeleted))
		Expect(s.GroupDeleted()).To(BeTrue())
	})

	It("falls back to chat for a SYS line that is not a deletion announcement", func() {
		ev, ok := s.categorize("SYS le serveur va redemarrer")
		Expect(ok).To(BeTrue())
		Expect(ev.Kind).To(Equal(EventChat))
	})

	It("reports unknown for a line matching no grammar", func() {
		_, ok := s.categorize("BOGUS nonsense")
		Expect(ok).To(BeFalse())
	})
})
