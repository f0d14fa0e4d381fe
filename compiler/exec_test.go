package compiler_test

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/sabouaram/codexec/compiler"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Execute", func() {
	var sandbox string

	BeforeEach(func() {
		var err error
		sandbox, err = os.MkdirTemp("", "sandbox-")
		Expect(err).ToNot(HaveOccurred())
	})

	AfterEach(func() {
		_ = os.RemoveAll(sandbox)
	})

	It("compiles and runs a trivial C program", func() {
		reg := compiler.Probe(context.Background())
		d, ok := reg.Resolve(compiler.LangC)
		if !ok {
			Skip("no C toolchain on this host")
		}

		src := filepath.Join(sandbox, "main.c")
		Expect(os.WriteFile(src, []byte(`
#include <stdio.h>
int main(void) { printf("hi\n"); return 0; }
`), 0644)).To(Succeed())

		res, err := compiler.Execute(context.Background(), d, sandbox, "main.c", compiler.ModeCompileAndRun, nil, nil, 0, 0, nil)
		Expect(err).ToNot(HaveOccurred())
		Expect(res.Compile.ExitCode).To(Equal(0))
		Expect(res.Run.ExitCode).To(Equal(0))
		Expect(string(res.Run.Stdout)).To(Equal("hi\n"))
	})

	It("runs a Python script with no compile step", func() {
		reg := compiler.Probe(context.Background())
		d, ok := reg.Resolve(compiler.LangPython)
		if !ok {
			Skip("no Python toolchain on this host")
		}

		src := filepath.Join(sandbox, "main.py")
		Expect(os.WriteFile(src, []byte("print('hi')\n"), 0644)).To(Succeed())

		res, err := compiler.Execute(context.Background(), d, sandbox, "main.py", compiler.ModeCompileAndRun, nil, nil, 0, 0, nil)
		Expect(err).ToNot(HaveOccurred())
		Expect(res.Compile.Ran).To(BeFalse())
		Expect(res.Run.ExitCode).To(Equal(0))
		Expect(string(res.Run.Stdout)).To(Equal("hi\n"))
	})

	It("kills a hanging process and reports exit code 124", func() {
		reg := compiler.Probe(context.Background())
		d, ok := reg.Resolve(compiler.LangC)
		if !ok {
			Skip("no C toolchain on this host")
		}

		src := filepath.Join(sandbox, "main.c")
		Expect(os.WriteFile(src, []byte(`
int main(void) { for (;;) {} }
`), 0644)).To(Succeed())

		res, err := compiler.Execute(context.Background(), d, sandbox, "main.c", compiler.ModeCompileAndRun, nil, nil, 0, 200*time.Millisecond, nil)
		Expect(err).ToNot(HaveOccurred())
		Expect(res.Run.TimedOut).To(BeTrue())
		Expect(res.Run.ExitCode).To(Equal(124))
	})

	It("reports a non-zero compile exit code as a Compilation error", func() {
		reg := compiler.Probe(context.Background())
		d, ok := reg.Resolve(compiler.LangC)
		if !ok {
			Skip("no C toolchain on this host")
		}

		src := filepath.Join(sandbox, "main.c")
		Expect(os.WriteFile(src, []byte("not valid c"), 0644)).To(Succeed())

		_, err := compiler.Execute(context.Background(), d, sandbox, "main.c", compiler.ModeCompileAndRun, nil, nil, 0, 0, nil)
		Expect(err).To(HaveOccurred())
	})
})
