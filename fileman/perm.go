/*
 * MIT License
 *
 * Copyright (c) 2025 Nicolas JUHEL
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

package fileman

import (
	"fmt"
	"os"
	"strconv"
)

// Perm is an octal file permission, trimmed from the teacher's file/perm
// package down to the single format this service needs: plain octal
// strings for the two fixed directory/file modes it creates.
type Perm os.FileMode

const (
	// DirPerm is the mode every job/session working directory is created with.
	DirPerm Perm = 0755
	// FilePerm is the mode every uploaded or generated file is created with.
	FilePerm Perm = 0644
)

// ParsePerm parses an octal permission string such as "0644".
func ParsePerm(s string) (Perm, error) {
	v, err := strconv.ParseUint(s, 8, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid permission %q: %w", s, err)
	}
	return Perm(v), nil
}

// FileMode returns the os.FileMode this Perm represents.
func (p Perm) FileMode() os.FileMode {
	return os.FileMode(p)
}

// String renders the permission in canonical octal form, e.g. "0644".
func (p Perm) String() string {
	return fmt.Sprintf("%#o", uint32(p))
}
