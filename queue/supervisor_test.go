package queue_test

import (
	"context"
	"os"
	"time"

	"github.com/sabouaram/codexec/compiler"
	"github.com/sabouaram/codexec/fileman"
	"github.com/sabouaram/codexec/queue"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

type nullRecorder struct{}

func (nullRecorder) RecordCompile(bool, int64)    {}
func (nullRecorder) RecordExecution(bool, int64)  {}
func (nullRecorder) JobFinished(string, int64)    {}

var _ = Describe("Supervisor", func() {
	var (
		processingRoot string
		files          *fileman.Manager
		reg            *compiler.Registry
	)

	BeforeEach(func() {
		var err error
		processingRoot, err = os.MkdirTemp("", "processing-")
		Expect(err).ToNot(HaveOccurred())
		files, err = fileman.NewManager(processingRoot, 0)
		Expect(err).ToNot(HaveOccurred())
		reg = compiler.Probe(context.Background())
	})

	AfterEach(func() {
		_ = os.RemoveAll(processingRoot)
	})

	It("runs a C hello-world job to completion (E1)", func() {
		if _, ok := reg.Resolve(compiler.LangC); !ok {
			Skip("no C toolchain on this host")
		}

		src, err := files.SaveUploaded(1, 1, "hello.c", []byte(
			"#include <stdio.h>\nint main(){puts(\"hi\");return 0;}\n"))
		Expect(err).ToNot(HaveOccurred())

		job := &queue.Job{ID: queue.NextJobID(), OwnerSessionID: 1, Language: "c",
			Mode: queue.ModeCompileAndRun, SourcePath: src}

		q := queue.New(10)
		Expect(q.Submit(job)).To(Succeed())

		sup := queue.NewSupervisor(q, reg, files, files, processingRoot, nullRecorder{}, 0, 0)
		ctx, cancel := context.WithCancel(context.Background())
		go func() { _ = sup.Run(ctx) }()
		defer cancel()

		Eventually(func() queue.State { return job.State() }, 5*time.Second, 10*time.Millisecond).
			Should(Equal(queue.StateCompleted))
		Expect(job.Snapshot().ExitCode).To(Equal(0))
	})

	It("fails a job whose source does not compile (E2)", func() {
		if _, ok := reg.Resolve(compiler.LangC); !ok {
			Skip("no C toolchain on this host")
		}

		src, err := files.SaveUploaded(2, 1, "bad.c", []byte("int main(){ undeclared = 1; }\n"))
		Expect(err).ToNot(HaveOccurred())

		job := &queue.Job{ID: queue.NextJobID(), OwnerSessionID: 1, Language: "c",
			Mode: queue.ModeCompileOnly, SourcePath: src}

		q := queue.New(10)
		Expect(q.Submit(job)).To(Succeed())

		sup := queue.NewSupervisor(q, reg, files, files, processingRoot, nullRecorder{}, 0, 0)
		ctx, cancel := context.WithCancel(context.Background())
		go func() { _ = sup.Run(ctx) }()
		defer cancel()

		Eventually(func() queue.State { return job.State() }, 5*time.Second, 10*time.Millisecond).
			Should(Equal(queue.StateFailed))
	})

	It("does not run a CompileOnly job whose source compiles cleanly", func() {
		if _, ok := reg.Resolve(compiler.LangC); !ok {
			Skip("no C toolchain on this host")
		}

		src, err := files.SaveUploaded(5, 1, "spin.c", []byte(
			"int main(){ while(1) ; return 0; }\n"))
		Expect(err).ToNot(HaveOccurred())

		job := &queue.Job{ID: queue.NextJobID(), OwnerSessionID: 1, Language: "c",
			Mode: queue.ModeCompileOnly, SourcePath: src}

		q := queue.New(10)
		Expect(q.Submit(job)).To(Succeed())

		// If Execute ran this anyway it would hang until execTimeout and
		// end up Timeout/Failed instead of Completed — this is the
		// regression a CompileOnly mode that's actually honored prevents.
		sup := queue.NewSupervisor(q, reg, files, files, processingRoot, nullRecorder{}, 0, 500*time.Millisecond)
		ctx, cancel := context.WithCancel(context.Background())
		go func() { _ = sup.Run(ctx) }()
		defer cancel()

		Eventually(func() queue.State { return job.State() }, 5*time.Second, 10*time.Millisecond).
			Should(Equal(queue.StateCompleted))
		Expect(job.Snapshot().ExitCode).To(Equal(0))
	})

	It("times out a spinning job (E3, shortened budget)", func() {
		if _, ok := reg.Resolve(compiler.LangPython); !ok {
			Skip("no Python toolchain on this host")
		}

		src, err := files.SaveUploaded(3, 1, "spin.py", []byte("while True: pass\n"))
		Expect(err).ToNot(HaveOccurred())

		job := &queue.Job{ID: queue.NextJobID(), OwnerSessionID: 1, Language: "python",
			Mode: queue.ModeInterpretOnly, SourcePath: src}

		q := queue.New(10)
		Expect(q.Submit(job)).To(Succeed())

		sup := queue.NewSupervisor(q, reg, files, files, processingRoot, nullRecorder{}, 0, 200*time.Millisecond)
		ctx, cancel := context.WithCancel(context.Background())
		go func() { _ = sup.Run(ctx) }()
		defer cancel()

		Eventually(func() queue.State { return job.State() }, 5*time.Second, 10*time.Millisecond).
			Should(Equal(queue.StateTimeout))
		Expect(job.Snapshot().ExitCode).To(Equal(124))
	})

	It("cancels a running job mid-flight (E4)", func() {
		if _, ok := reg.Resolve(compiler.LangPython); !ok {
			Skip("no Python toolchain on this host")
		}

		src, err := files.SaveUploaded(4, 1, "spin.py", []byte("while True: pass\n"))
		Expect(err).ToNot(HaveOccurred())

		job := &queue.Job{ID: queue.NextJobID(), OwnerSessionID: 1, Language: "python",
			Mode: queue.ModeInterpretOnly, SourcePath: src}

		q := queue.New(10)
		Expect(q.Submit(job)).To(Succeed())

		sup := queue.NewSupervisor(q, reg, files, files, processingRoot, nullRecorder{}, 0, time.Minute)
		ctx, cancel := context.WithCancel(context.Background())
		go func() { _ = sup.Run(ctx) }()
		defer cancel()

		Eventually(func() int { return job.Pid() }, 5*time.Second, 10*time.Millisecond).ShouldNot(Equal(0))
		Expect(q.Cancel(job.ID, false)).To(Succeed())

		Eventually(func() queue.State { return job.State() }, 5*time.Second, 10*time.Millisecond).
			Should(Equal(queue.StateCancelled))
		Expect(job.Snapshot().ExitCode).To(Equal(128 + 15))
	})
})
