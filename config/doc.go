/*
 * MIT License
 *
 * Copyright (c) 2023 Nicolas JUHEL
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

// Package config is the server's own runtime configuration: a small
// mutex-guarded Runtime struct loaded at startup by github.com/spf13/
// viper from flags, environment and an optional file, with the six
// tunables spec.md §4.A's Config{Get|Set|List} whitelist names exposed
// as strings so *Runtime satisfies admin.ConfigStore without admin
// importing this package. Timeout fields use a local Duration type
// (a trimmed, non-days-aware cousin of nabbar-golib/duration, since
// every tunable here is well under a day) rather than a bare
// time.Duration, so they still round-trip through viper/mapstructure's
// TextUnmarshaler hook the way the teacher's configuration layers do.
package config
