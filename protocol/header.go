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
	"encoding/binary"

	"github.com/dchest/siphash"
)

// Magic is the fixed 32-bit marker that opens every header.
const Magic uint32 = 0x43434545

// HeaderSize is the fixed on-wire size of a Header, in bytes.
const HeaderSize = 32

// MaxPayload is the largest payload a single message may carry.
const MaxPayload = 16 * 1024 * 1024

// checksumKey0/checksumKey1 key the SipHash-2-4 header checksum. The key
// is process-fixed, not secret: the checksum guards against truncation
// and bit-rot on the wire, not against a malicious sender (spec.md §1
// Non-goals: no authentication/encryption of the wire protocol).
const (
	checksumKey0 uint64 = 0x636f6465786563ff
	checksumKey1 uint64 = 0x00ff706c616e6574
)

// Header is the fixed 32-byte envelope that precedes every payload.
type Header struct {
	Type        Type
	Flags       Flags
	Length      uint32
	Correlation uint32
	TimestampMs uint64
	checksum    uint32
}

// Checksum returns the checksum value carried in the last encode/decode.
func (h Header) Checksum() uint32 { return h.checksum }

// encode serialises the header to a fresh HeaderSize-byte slice, computing
// the checksum over the header with the checksum field zeroed.
func (h *Header) encode() []byte {
	b := make([]byte, HeaderSize)
	binary.BigEndian.PutUint32(b[0:4], Magic)
	binary.BigEndian.PutUint16(b[4:6], uint16(h.Type))
	binary.BigEndian.PutUint16(b[6:8], uint16(h.Flags))
	binary.BigEndian.PutUint32(b[8:12], h.Length)
	binary.BigEndian.PutUint32(b[12:16], h.Correlation)
	binary.BigEndian.PutUint64(b[16:24], h.TimestampMs)
	// b[24:28] checksum left zero for the computation
	// b[28:32] reserved, always zero on the wire

	h.checksum = headerChecksum(b)
	binary.BigEndian.PutUint32(b[24:28], h.checksum)
	return b
}

// decodeHeader parses a HeaderSize-byte slice into a Header, validating the
// magic and checksum. b must be exactly HeaderSize bytes.
func decodeHeader(b []byte) (Header, error) {
	if len(b) != HeaderSize {
		return Header{}, ErrTruncated
	}
	if binary.BigEndian.Uint32(b[0:4]) != Magic {
		return Header{}, ErrBadMagic
	}

	want := binary.BigEndian.Uint32(b[24:28])
	chk := make([]byte, HeaderSize)
	copy(chk, b)
	binary.BigEndian.PutUint32(chk[24:28], 0)
	if headerChecksum(chk) != want {
		return Header{}, ErrBadChecksum
	}

	h := Header{
		Type:        Type(binary.BigEndian.Uint16(b[4:6])),
		Flags:       Flags(binary.BigEndian.Uint16(b[6:8])),
		Length:      binary.BigEndian.Uint32(b[8:12]),
		Correlation: binary.BigEndian.Uint32(b[12:16]),
		TimestampMs: binary.BigEndian.Uint64(b[16:24]),
		checksum:    want,
	}

	if h.Length > MaxPayload {
		return Header{}, ErrPayloadTooLarge
	}
	if !h.Type.Known() {
		return Header{}, ErrUnknownType
	}

	return h, nil
}

func headerChecksum(b []byte) uint32 {
	return uint32(siphash.Hash(checksumKey0, checksumKey1, b))
}
