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

package protocol

import (
	"io"
	"sync"
	"time"
)

// Message is one framed unit: a decoded header plus its raw payload bytes.
type Message struct {
	Header  Header
	Payload []byte
}

// Conn frames messages over an arbitrary io.ReadWriter (a TCP or Unix
// socket in practice), sharing one implementation between the session
// endpoint and the admin endpoint per spec.md §6.
//
// Writes are serialised under a mutex so a header and its payload are
// always emitted back-to-back without interleaving with another write
// on the same Conn (spec.md §5: "writes within a single session are
// atomic at message granularity").
type Conn struct {
	rw io.ReadWriter
	mu sync.Mutex
}

// NewConn wraps rw in a Conn.
func NewConn(rw io.ReadWriter) *Conn {
	return &Conn{rw: rw}
}

// WriteMessage serialises payload, fills in a fresh header (length,
// timestamp, checksum) and writes header-then-payload as one atomic
// operation with respect to other writers on this Conn.
func (c *Conn) WriteMessage(typ Type, correlation uint32, payload interface{}) error {
	var body []byte
	if payload != nil {
		b, err := Marshal(payload)
		if err != nil {
			return err
		}
		body = b
	}
	if len(body) > MaxPayload {
		return ErrPayloadTooLarge
	}

	h := Header{
		Type:        typ,
		Length:      uint32(len(body)),
		Correlation: correlation,
		TimestampMs: uint64(time.Now().UnixMilli()),
	}
	hdr := h.encode()

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := writeFull(c.rw, hdr); err != nil {
		return IoError(err)
	}
	if len(body) > 0 {
		if err := writeFull(c.rw, body); err != nil {
			return IoError(err)
		}
	}
	return nil
}

// writeFull retries partial writes until b is fully written or an error
// occurs, mirroring the read side's "complete partial reads" contract.
func writeFull(w io.Writer, b []byte) error {
	for len(b) > 0 {
		n, err := w.Write(b)
		if err != nil {
			return err
		}
		b = b[n:]
	}
	return nil
}

// ReadMessage pulls exactly one framed message off the wire, retrying
// short reads until the header and the declared payload length are both
// fully consumed.
func (c *Conn) ReadMessage() (Message, error) {
	hdrBuf := make([]byte, HeaderSize)
	if _, err := io.ReadFull(c.rw, hdrBuf); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return Message{}, ErrTruncated
		}
		return Message{}, IoError(err)
	}

	h, err := decodeHeader(hdrBuf)
	if err != nil {
		return Message{}, err
	}

	var payload []byte
	if h.Length > 0 {
		payload = make([]byte, h.Length)
		if _, err := io.ReadFull(c.rw, payload); err != nil {
			if err == io.EOF || err == io.ErrUnexpectedEOF {
				return Message{}, ErrTruncated
			}
			return Message{}, IoError(err)
		}
	}

	return Message{Header: h, Payload: payload}, nil
}

