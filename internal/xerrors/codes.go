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

// Package xerrors defines the coded error vocabulary shared by the
// directory and the group daemon, built on top of
// github.com/nabbar/golib/errors. Each CodeError maps to the exact wire
// "ERR <reason>" token names, so a single source of truth drives
// both the log line and the protocol reply.
package xerrors

import (
	liberr "github.com/nabbar/golib/errors"
)

// Code values start above the library's predefined HTTP-like range so they
// never collide with liberr's own reserved codes.
const (
	CodeNoSlot liberr.CodeError = iota + liberr.MinAvailable
	CodeSpawnFailure
	CodeNotFound
	CodeMergeSyntax
	CodeNoToken
	CodeBadToken
	CodeUnknownCmd
	CodeNotAdmin
	CodeBadArgs
)

var reasons = map[liberr.CodeError]string{
	CodeNoSlot:       "no_slot",
	CodeSpawnFailure: "spawn",
	CodeNotFound:     "notfound",
	CodeMergeSyntax:  "merge_syntax",
	CodeNoToken:      "no_token",
	CodeBadToken:     "bad_token",
	CodeUnknownCmd:   "unknown_cmd",
	CodeNotAdmin:     "not_admin",
	CodeBadArgs:      "bad_args",
}

func init() {
	liberr.RegisterIdFctMessage(CodeNoSlot, func(code liberr.CodeError) string {
		if m, ok := reasons[code]; ok {
			return m
		}
		return liberr.UnknownMessage
	})
}

// New builds a coded error, optionally wrapping a parent.
func New(code liberr.CodeError, parent ...error) liberr.Error {
	return code.Error(parent...)
}

// Reason returns the wire-protocol "ERR <reason>" token for a coded error,
// or "unknown_cmd" if err does not carry one of this package's codes.
func Reason(err liberr.Error) string {
	if err == nil {
		return ""
	}
	if m, ok := reasons[liberr.CodeError(err.Code())]; ok {
		return m
	}
	return "unknown_cmd"
}
