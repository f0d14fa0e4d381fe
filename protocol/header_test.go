package protocol_test

import (
	"bytes"
	"encoding/binary"

	"github.com/sabouaram/codexec/errtax"
	"github.com/sabouaram/codexec/protocol"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

// validFrame returns the wire bytes of a single well-formed Ping message.
func validFrame() []byte {
	buf := &bytes.Buffer{}
	c := protocol.NewConn(buf)
	Expect(c.WriteMessage(protocol.TypePing, 1, protocol.Ping{})).To(Succeed())
	return buf.Bytes()
}

var _ = Describe("Header corruption", func() {
	It("rejects a bad magic", func() {
		b := validFrame()
		binary.BigEndian.PutUint32(b[0:4], 0xdeadbeef)
		_, err := protocol.NewConn(bytes.NewReader(b)).ReadMessage()
		Expect(errtax.IsCode(err, errtax.InvalidArgument)).To(BeTrue())
		Expect(err).To(Equal(protocol.ErrBadMagic))
	})

	It("rejects a bad checksum", func() {
		b := validFrame()
		// Flip a header byte that isn't part of the magic, forcing a
		// checksum mismatch without touching the magic check.
		b[5] ^= 0xff
		_, err := protocol.NewConn(bytes.NewReader(b)).ReadMessage()
		Expect(err).To(Equal(protocol.ErrBadChecksum))
	})

	It("rejects a truncated header", func() {
		b := validFrame()
		_, err := protocol.NewConn(bytes.NewReader(b[:10])).ReadMessage()
		Expect(err).To(Equal(protocol.ErrTruncated))
	})

	It("rejects a truncated payload", func() {
		b := validFrame()
		buf := &bytes.Buffer{}
		c := protocol.NewConn(buf)
		Expect(c.WriteMessage(protocol.TypeCompileRequest, 1, protocol.CompileRequest{
			Filename: "a.c",
		})).To(Succeed())
		full := buf.Bytes()
		_, err := protocol.NewConn(bytes.NewReader(full[:len(full)-1])).ReadMessage()
		Expect(err).To(Equal(protocol.ErrTruncated))
		_ = b
	})

	It("round-trips a CompileRequest unchanged", func() {
		buf := &bytes.Buffer{}
		c := protocol.NewConn(buf)
		req := protocol.CompileRequest{
			Language: "c", Mode: "CompileAndRun", Filename: "a.c",
			CompilerArgs: []string{"-O2"}, ExecutionArgs: nil, Priority: 5,
		}
		Expect(c.WriteMessage(protocol.TypeCompileRequest, 7, req)).To(Succeed())

		m, err := protocol.NewConn(buf).ReadMessage()
		Expect(err).ToNot(HaveOccurred())
		Expect(m.Header.Correlation).To(Equal(uint32(7)))

		var got protocol.CompileRequest
		Expect(protocol.Unmarshal(m.Payload, &got)).To(Succeed())
		Expect(got).To(Equal(req))
	})
})
