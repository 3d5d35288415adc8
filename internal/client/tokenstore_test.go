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

package client_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/chatfabric/isy/internal/client"
)

var _ = Describe("TokenStore", func() {
	It("has no token for a name it has never seen", func() {
		ts := client.NewTokenStore()
		_, ok := ts.Get("salon1")
		Expect(ok).To(BeFalse())
	})

	It("returns a token once set", func() {
		ts := client.NewTokenStore()
		ts.Set("salon1", "deadbeef")
		tok, ok := ts.Get("salon1")
		Expect(ok).To(BeTrue())
		Expect(tok).To(Equal("deadbeef"))
	})

	It("replaces an existing token for the same name", func() {
		ts := client.NewTokenStore()
		ts.Set("salon1", "deadbeef")
		ts.Set("salon1", "cafef00d")
		tok, _ := ts.Get("salon1")
		Expect(tok).To(Equal("cafef00d"))
	})

	It("keeps tokens for different groups independent", func() {
		ts := client.NewTokenStore()
		ts.Set("salon1", "tokA")
		ts.Set("salon2", "tokB")
		tokA, _ := ts.Get("salon1")
		tokB, _ := ts.Get("salon2")
		Expect(tokA).To(Equal("tokA"))
		Expect(tokB).To(Equal("tokB"))
	})
})
