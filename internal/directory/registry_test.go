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

package directory_test

import (
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/chatfabric/isy/internal/directory"
)

func noopSpawn(slot int, name string, port int, idleTimeoutSec int64) (func(), error) {
	return func() {}, nil
}

func failingSpawn(slot int, name string, port int, idleTimeoutSec int64) (func(), error) {
	return nil, errors.New("boom")
}

var _ = Describe("Registry", func() {
	var reg *directory.Registry

	BeforeEach(func() {
		reg = directory.NewRegistry(2, 4100)
	})

	It("reserves the lowest free slot at base_port+slot", func() {
		rec, existed, err := reg.Reserve("salon1", "", 0, noopSpawn)
		Expect(err).ToNot(HaveOccurred())
		Expect(existed).To(BeFalse())
		Expect(rec.Port).To(Equal(4100))
		Expect(rec.Token).To(BeEmpty())
	})

	It("issues an admin token only when a user is supplied", func() {
		rec, _, err := reg.Reserve("salon1", "alice", 0, noopSpawn)
		Expect(err).ToNot(HaveOccurred())
		Expect(rec.Token).To(HaveLen(32))
	})

	It("is idempotent: re-creating a live group returns the same record", func() {
		first, _, err := reg.Reserve("salon1", "alice", 0, noopSpawn)
		Expect(err).ToNot(HaveOccurred())

		second, existed, err := reg.Reserve("salon1", "bob", 0, noopSpawn)
		Expect(err).ToNot(HaveOccurred())
		Expect(existed).To(BeTrue())
		Expect(second.Token).To(Equal(first.Token))
		Expect(second.Port).To(Equal(first.Port))
	})

	It("fails with no_slot once every slot is taken", func() {
		_, _, err := reg.Reserve("salon1", "", 0, noopSpawn)
		Expect(err).ToNot(HaveOccurred())
		_, _, err = reg.Reserve("salon2", "", 0, noopSpawn)
		Expect(err).ToNot(HaveOccurred())

		_, _, err = reg.Reserve("salon3", "", 0, noopSpawn)
		Expect(err).To(HaveOccurred())
	})

	It("frees a slot for reuse once its group exits", func() {
		rec, _, err := reg.Reserve("salon1", "", 0, noopSpawn)
		Expect(err).ToNot(HaveOccurred())

		reg.Free(rec.Slot)

		again, existed, err := reg.Reserve("salon2", "", 0, noopSpawn)
		Expect(err).ToNot(HaveOccurred())
		Expect(existed).To(BeFalse())
		Expect(again.Port).To(Equal(4100))
	})

	It("propagates a spawn failure without reserving a slot", func() {
		_, _, err := reg.Reserve("salon1", "", 0, failingSpawn)
		Expect(err).To(HaveOccurred())

		_, found := reg.FindByName("salon1")
		Expect(found).To(BeFalse())
	})

	It("lists only live groups as name/port pairs", func() {
		Expect(reg.List()).To(BeEmpty())

		_, _, err := reg.Reserve("salon1", "", 0, noopSpawn)
		Expect(err).ToNot(HaveOccurred())

		Expect(reg.List()).To(ConsistOf(HaveField("Name", "salon1")))
	})

	It("signals every live group to stop", func() {
		var stopped []string
		recordingSpawn := func(slot int, name string, port int, idleTimeoutSec int64) (func(), error) {
			return func() { stopped = append(stopped, name) }, nil
		}

		_, _, err := reg.Reserve("salon1", "", 0, recordingSpawn)
		Expect(err).ToNot(HaveOccurred())
		_, _, err = reg.Reserve("salon2", "", 0, recordingSpawn)
		Expect(err).ToNot(HaveOccurred())

		reg.StopAll()

		Expect(stopped).To(ConsistOf("salon1", "salon2"))
	})
})
