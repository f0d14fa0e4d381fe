/*
 * MIT License
 *
 * Copyright (c) 2020 Nicolas JUHEL
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 *
 */

package errtax

import "strconv"

// CodeError is a numeric error code, similar in spirit to an HTTP status
// code: a small closed set of kinds rather than an open string enum.
type CodeError uint16

// Kinds, exactly the twelve named by the error taxonomy: each maps to a
// distinct CodeError so a client can branch on the numeric wire value
// without string matching.
const (
	UnknownError CodeError = 0

	InvalidArgument    CodeError = 400
	Permission         CodeError = 403
	NotFound           CodeError = 404
	QuotaExceeded       CodeError = 429
	Timeout            CodeError = 504
	Compilation        CodeError = 560
	Execution          CodeError = 561
	Network            CodeError = 502
	FileIo             CodeError = 562
	UnsupportedLanguage CodeError = 563
	MemoryAllocation   CodeError = 500
	Internal           CodeError = 501
)

var codeMessage = map[CodeError]string{
	InvalidArgument:     "invalid argument",
	Permission:          "permission denied",
	NotFound:            "not found",
	QuotaExceeded:       "quota exceeded",
	Timeout:             "operation timed out",
	Compilation:         "compilation failed",
	Execution:           "execution failed",
	Network:             "network I/O failure",
	FileIo:              "local filesystem failure",
	UnsupportedLanguage: "unsupported language",
	MemoryAllocation:    "memory allocation failed",
	Internal:            "internal invariant violation",
}

// Uint16 returns the wire representation of the code.
func (c CodeError) Uint16() uint16 {
	return uint16(c)
}

// String returns the decimal representation of the code.
func (c CodeError) String() string {
	return strconv.Itoa(int(c))
}

// Message returns the canonical, human-readable message for the code, or
// the generic "unknown error" fallback for an unregistered code.
func (c CodeError) Message() string {
	if c == UnknownError {
		return "unknown error"
	}
	if m, ok := codeMessage[c]; ok {
		return m
	}
	return "unknown error"
}

// Error builds a new Error value carrying this code, its canonical
// message, and any parent errors supplied.
func (c CodeError) Error(parent ...error) Error {
	return New(c, c.Message(), parent...)
}

// Errorf builds a new Error value carrying this code and a formatted
// message, with no parent chain.
func (c CodeError) Errorf(format string, args ...interface{}) Error {
	return Newf(c, format, args...)
}
