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

// Package session is the server's session manager: the TCP accept
// loop, the per-connection state machine (Connecting, Authenticated,
// Idle, Uploading, Processing, Disconnecting), the registry the admin
// plane and the queue both read, and the per-message-type dispatch
// table that turns protocol.Message traffic into fileman/queue calls.
//
// One goroutine per accepted connection blocks in protocol.ReadMessage
// with a read deadline reset on every successful read — this is the
// idiomatic Go rendition of spec.md §4.S's single-dispatcher poll loop
// with a 1s idle-scan tick: Go's netpoller already multiplexes
// blocked-on-read goroutines onto a small, bounded set of OS threads,
// so one goroutine per connection here is not the thread-per-client
// anti-pattern spec.md §9 warns against (see DESIGN.md).
package session
