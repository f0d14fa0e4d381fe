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

import (
	"fmt"
	"runtime"
	"strings"
)

// Error extends the standard error with a code, an optional parent chain
// and the call site where it was raised. It is safe for concurrent reads;
// Add is not safe for concurrent use on the same value.
type Error interface {
	error

	// IsCode reports whether this error's own code equals code.
	IsCode(code CodeError) bool
	// HasCode reports whether this error or any parent has code.
	HasCode(code CodeError) bool
	// GetCode returns this error's own code.
	GetCode() CodeError

	// Context returns the short "file:line" context string used in the
	// wire Error payload.
	Context() string

	// Add appends parent errors to this error's chain.
	Add(parent ...error)
	// Unwrap exposes the parent chain to errors.Is / errors.As.
	Unwrap() []error
}

type ers struct {
	code  CodeError
	msg   string
	frame runtime.Frame
	prnt  []error
}

// New builds an Error with the given code, message and optional parents.
// The call site is captured automatically.
func New(code CodeError, msg string, parent ...error) Error {
	return &ers{
		code:  code,
		msg:   msg,
		frame: caller(2),
		prnt:  filterNil(parent),
	}
}

// Newf builds an Error with the given code and a formatted message.
func Newf(code CodeError, format string, args ...interface{}) Error {
	return &ers{
		code:  code,
		msg:   fmt.Sprintf(format, args...),
		frame: caller(2),
	}
}

// Wrap attaches err as the sole parent of a new Error with the given
// code/message, or returns nil if err is nil.
func Wrap(code CodeError, msg string, err error) Error {
	if err == nil {
		return nil
	}
	return New(code, msg, err)
}

func caller(skip int) runtime.Frame {
	pc := make([]uintptr, 1)
	n := runtime.Callers(skip+1, pc)
	if n == 0 {
		return runtime.Frame{}
	}
	frames := runtime.CallersFrames(pc[:n])
	f, _ := frames.Next()
	return f
}

func filterNil(in []error) []error {
	out := make([]error, 0, len(in))
	for _, e := range in {
		if e != nil {
			out = append(out, e)
		}
	}
	return out
}

func (e *ers) Error() string {
	if e == nil {
		return ""
	}
	if e.msg == "" {
		return e.code.Message()
	}
	return e.msg
}

func (e *ers) IsCode(code CodeError) bool {
	return e != nil && e.code == code
}

func (e *ers) HasCode(code CodeError) bool {
	if e == nil {
		return false
	}
	if e.code == code {
		return true
	}
	for _, p := range e.prnt {
		if pe, ok := p.(Error); ok && pe.HasCode(code) {
			return true
		}
	}
	return false
}

func (e *ers) GetCode() CodeError {
	if e == nil {
		return UnknownError
	}
	return e.code
}

func (e *ers) Context() string {
	if e == nil || e.frame.File == "" {
		return ""
	}
	file := e.frame.File
	if idx := strings.LastIndex(file, "/"); idx >= 0 {
		file = file[idx+1:]
	}
	return fmt.Sprintf("%s:%d", file, e.frame.Line)
}

func (e *ers) Add(parent ...error) {
	if e == nil {
		return
	}
	e.prnt = append(e.prnt, filterNil(parent)...)
}

func (e *ers) Unwrap() []error {
	if e == nil {
		return nil
	}
	return e.prnt
}

// Is reports whether target is an Error carrying the same code and the
// same message; errors.Is itself walks the parent chain through Unwrap.
func (e *ers) Is(target error) bool {
	if other, ok := target.(*ers); ok {
		return e.code == other.code && e.msg == other.msg
	}
	return false
}

// IsCode is a free function so callers without a typed Error value can
// still branch on an arbitrary error's taxonomy code.
func IsCode(err error, code CodeError) bool {
	if e, ok := err.(Error); ok {
		return e.HasCode(code)
	}
	return false
}
