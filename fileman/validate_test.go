package fileman_test

import (
	"strings"

	"github.com/sabouaram/codexec/fileman"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("ValidateFilename", func() {
	DescribeTable("rejects unsafe names",
		func(name string) {
			Expect(fileman.ValidateFilename(name)).ToNot(Succeed())
		},
		Entry("empty", ""),
		Entry("forward slash", "a/b.c"),
		Entry("backslash", "a\\b.c"),
		Entry("parent traversal", "../escape.c"),
		Entry("embedded traversal", "a..b.c"),
		Entry("control character", "a\x01b.c"),
		Entry("reserved device name", "CON"),
		Entry("reserved device name with extension", "con.txt"),
		Entry("reserved device name mixed case", "Lpt1.c"),
		Entry("too long", strings.Repeat("a", 256)+".c"),
	)

	DescribeTable("accepts safe names",
		func(name string) {
			Expect(fileman.ValidateFilename(name)).To(Succeed())
		},
		Entry("simple C source", "main.c"),
		Entry("hidden-looking dotted name", "a.b.c.py"),
		Entry("max length", strings.Repeat("a", 253)+".c"),
	)
})
