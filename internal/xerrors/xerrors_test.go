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

package xerrors_test

import (
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/chatfabric/isy/internal/xerrors"
)

var _ = Describe("coded errors", func() {
	It("maps each code to its wire reason token", func() {
		Expect(xerrors.Reason(xerrors.New(xerrors.CodeNoSlot))).To(Equal("no_slot"))
		Expect(xerrors.Reason(xerrors.New(xerrors.CodeSpawnFailure))).To(Equal("spawn"))
		Expect(xerrors.Reason(xerrors.New(xerrors.CodeNotFound))).To(Equal("notfound"))
		Expect(xerrors.Reason(xerrors.New(xerrors.CodeMergeSyntax))).To(Equal("merge_syntax"))
		Expect(xerrors.Reason(xerrors.New(xerrors.CodeNoToken))).To(Equal("no_token"))
		Expect(xerrors.Reason(xerrors.New(xerrors.CodeBadToken))).To(Equal("bad_token"))
		Expect(xerrors.Reason(xerrors.New(xerrors.CodeUnknownCmd))).To(Equal("unknown_cmd"))
		Expect(xerrors.Reason(xerrors.New(xerrors.CodeNotAdmin))).To(Equal("not_admin"))
		Expect(xerrors.Reason(xerrors.New(xerrors.CodeBadArgs))).To(Equal("bad_args"))
	})

	It("wraps a parent error without losing its own code", func() {
		parent := errors.New("boom")
		err := xerrors.New(xerrors.CodeSpawnFailure, parent)
		Expect(xerrors.Reason(err)).To(Equal("spawn"))
		Expect(err.ContainsString("boom")).To(BeTrue())
	})

	It("returns an empty reason for a nil error", func() {
		Expect(xerrors.Reason(nil)).To(Equal(""))
	})
})
