package queue

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/sabouaram/codexec/compiler"
	"github.com/sabouaram/codexec/errtax"
	"github.com/sabouaram/codexec/fileman"
)

func errDescriptorMissing(language string) error {
	return errtax.UnsupportedLanguage.Errorf("no toolchain registered for language %q", language)
}

// Recorder is the statistics sink a Supervisor reports each phase's
// outcome to. Defined here rather than importing package stats
// directly, so queue has no compile-time dependency on the stats
// aggregator's own shape — only on the three observations it actually
// needs to feed.
type Recorder interface {
	RecordCompile(success bool, durationMs int64)
	RecordExecution(success bool, durationMs int64)

	// JobFinished reports a job's terminal State (as a plain string —
	// State and stats.Outcome share values without either package
	// importing the other) and its submit-to-end wall time.
	JobFinished(outcome string, wallTimeMs int64)
}

// Supervisor is the single worker that drains Queue, invoking the
// compiler registry for each popped job and recording its outcome.
//
// inFlight is a golang.org/x/sync/semaphore.Weighted(1): the loop below
// is already sequential, so it can never be acquired twice concurrently,
// but naming the cap as a semaphore rather than leaving it an accident
// of the for-loop's shape documents "at most one job mid-supervision"
// as an invariant a future caller (e.g. a second supervisor goroutine)
// cannot silently violate.
type Supervisor struct {
	queue          *Queue
	registry       *compiler.Registry
	files          *fileman.Manager
	outgoing       *fileman.Manager
	processingRoot string
	recorder       Recorder
	inFlight       *semaphore.Weighted

	compileTimeout time.Duration
	execTimeout    time.Duration
}

// NewSupervisor builds a Supervisor. compileTimeout/execTimeout of 0
// fall back to compiler.DefaultCompileTimeout/DefaultExecTimeout.
// outgoing is where a finished job's captured stdout/stderr are
// persisted (spec.md §6's {outgoing_root}/, distinct from the
// processing-root sandbox files lives under); it may be the same
// *fileman.Manager as files, but production wiring gives it its own
// root so retained results outlive the scratch tree's sweep.
func NewSupervisor(q *Queue, reg *compiler.Registry, files, outgoing *fileman.Manager, processingRoot string, rec Recorder, compileTimeout, execTimeout time.Duration) *Supervisor {
	return &Supervisor{
		queue: q, registry: reg, files: files, outgoing: outgoing, processingRoot: processingRoot,
		recorder: rec, compileTimeout: compileTimeout, execTimeout: execTimeout,
		inFlight: semaphore.NewWeighted(1),
	}
}

// Run drains the queue until ctx is cancelled, at which point it calls
// Shutdown and returns once the queue is empty. This is the runtime
// shell's per-worker loop, handed to golang.org/x/sync/errgroup by the
// daemon package.
func (s *Supervisor) Run(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			s.queue.Shutdown()
		case <-done:
		}
	}()
	defer close(done)

	for {
		job, ok := s.queue.popHead()
		if !ok {
			return nil
		}
		if job.State() == StateCancelled {
			s.finish(job)
			continue
		}
		if err := s.inFlight.Acquire(ctx, 1); err != nil {
			return nil
		}
		s.runJob(ctx, job)
		s.inFlight.Release(1)
	}
}

func (s *Supervisor) runJob(ctx context.Context, job *Job) {
	job.setState(StateRunning)
	job.mu.Lock()
	job.StartedAt = time.Now()
	job.mu.Unlock()

	desc, ok := s.registry.Resolve(compiler.Language(job.Language))
	if !ok {
		s.fail(job, errDescriptorMissing(job.Language))
		return
	}

	sandbox, err := compiler.NewSandbox(s.processingRoot, job.ID)
	if err != nil {
		s.fail(job, err)
		return
	}
	defer compiler.RemoveSandbox(sandbox)

	srcName := filepath.Base(job.SourcePath)
	src, err := os.ReadFile(job.SourcePath)
	if err != nil {
		s.fail(job, err)
		return
	}
	if err := os.WriteFile(filepath.Join(sandbox, srcName), src, fileman.FilePerm.FileMode()); err != nil {
		s.fail(job, err)
		return
	}

	res, err := compiler.Execute(ctx, desc, sandbox, srcName, compiler.Mode(job.Mode), job.CompilerArgs, job.ExecutionArgs,
		s.compileTimeout, s.execTimeout, job.setPid)

	s.recordPhases(res)
	s.persistOutput(job, res)

	switch {
	case res != nil && res.Run.TimedOut:
		job.mu.Lock()
		job.ExitCode = res.Run.ExitCode
		job.mu.Unlock()
		job.setState(StateTimeout)

	case job.wasCancelRequested():
		// Cancel signalled this job's child while it was Running; the
		// run has now finished (normally with 128+signo) and the
		// supervisor is the only one allowed to make that terminal.
		job.mu.Lock()
		if res != nil {
			job.ExitCode = res.Run.ExitCode
		}
		job.mu.Unlock()
		job.setState(StateCancelled)

	case err != nil:
		job.mu.Lock()
		job.Err = err
		if res != nil {
			job.ExitCode = res.Run.ExitCode
		}
		job.mu.Unlock()
		job.setState(StateFailed)

	default:
		job.mu.Lock()
		job.ExitCode = res.Run.ExitCode
		job.mu.Unlock()
		job.setState(StateCompleted)
	}

	job.mu.Lock()
	job.EndedAt = time.Now()
	job.mu.Unlock()
	s.finish(job)
}

func (s *Supervisor) fail(job *Job, err error) {
	job.mu.Lock()
	job.Err = err
	job.mu.Unlock()
	job.setState(StateFailed)
	job.mu.Lock()
	job.EndedAt = time.Now()
	job.mu.Unlock()
	s.finish(job)
}

// finish reports a job's terminal State and submit-to-end wall time to
// the Recorder, the one place every exit path (normal completion,
// timeout, cancellation, or an early sandbox/descriptor failure in
// fail) funnels through so stats.Stats.JobFinished is called exactly
// once per job.
func (s *Supervisor) finish(job *Job) {
	if s.recorder == nil {
		return
	}
	job.mu.Lock()
	outcome := string(job.state)
	wallTimeMs := job.EndedAt.Sub(job.SubmittedAt).Milliseconds()
	job.mu.Unlock()
	s.recorder.JobFinished(outcome, wallTimeMs)
}

func (s *Supervisor) recordPhases(res *compiler.Result) {
	if s.recorder == nil || res == nil {
		return
	}
	if res.Compile.Ran {
		s.recorder.RecordCompile(res.Compile.ExitCode == 0, res.Compile.DurationMs)
	}
	if res.Run.Ran {
		s.recorder.RecordExecution(res.Run.ExitCode == 0 && !res.Run.TimedOut, res.Run.DurationMs)
	}
}

func (s *Supervisor) persistOutput(job *Job, res *compiler.Result) {
	store := s.outgoing
	if store == nil {
		store = s.files
	}
	if store == nil || res == nil || !res.Run.Ran {
		// CompileOnly/SyntaxCheck jobs never reach the run phase; leave
		// OutputPath/ErrorPath unset rather than writing empty temp files.
		return
	}
	if out, err := store.WriteTemp(job.ID, "out", res.Run.Stdout); err == nil {
		job.mu.Lock()
		job.OutputPath = out
		job.OutputSize = uint64(len(res.Run.Stdout))
		job.mu.Unlock()
	}
	if errOut, err := store.WriteTemp(job.ID, "err", res.Run.Stderr); err == nil {
		job.mu.Lock()
		job.ErrorPath = errOut
		job.ErrorSize = uint64(len(res.Run.Stderr))
		job.mu.Unlock()
	}
}
