package srvlog_test

import (
	"bytes"
	"encoding/json"

	"github.com/sabouaram/codexec/srvlog"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("srvlog", func() {
	It("falls back to info level on an unparsable level string", func() {
		var buf bytes.Buffer
		log := srvlog.New("not-a-level", &buf)

		srvlog.With(log, srvlog.NewFields().Add("session_id", uint32(7))).Info("connected")

		var decoded map[string]interface{}
		Expect(json.Unmarshal(buf.Bytes(), &decoded)).To(Succeed())
		Expect(decoded["level"]).To(Equal("info"))
		Expect(decoded["session_id"]).To(BeNumerically("==", 7))
	})

	It("Fields.Add/Merge never mutate the receiver", func() {
		base := srvlog.NewFields().Add("a", 1)
		withB := base.Add("b", 2)

		Expect(base).To(HaveLen(1))
		Expect(withB).To(HaveLen(2))

		merged := base.Merge(srvlog.Fields{"c": 3})
		Expect(merged).To(HaveLen(2))
		Expect(base).To(HaveLen(1))
	})
})
