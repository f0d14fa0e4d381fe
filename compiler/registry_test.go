package compiler_test

import (
	"context"

	"github.com/sabouaram/codexec/compiler"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Registry", func() {
	It("probes the host without error and resolves by extension consistently", func() {
		reg := compiler.Probe(context.Background())
		Expect(reg).ToNot(BeNil())

		d, ok := reg.Resolve(compiler.LangC)
		if !ok {
			Skip("no C toolchain on this host")
		}
		Expect(d.CompilerPath).ToNot(BeEmpty())
		Expect(d.CompilerVersion).ToNot(BeEmpty())

		byExt, ok := reg.ResolveByExtension(".c")
		Expect(ok).To(BeTrue())
		Expect(byExt).To(Equal(d))
	})

	It("returns ok=false for an unregistered language", func() {
		reg := compiler.Probe(context.Background())
		_, ok := reg.Resolve(compiler.Language("cobol"))
		Expect(ok).To(BeFalse())
	})
})
