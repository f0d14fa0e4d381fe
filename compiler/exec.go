package compiler

import (
	"context"
	"errors"
	"os/exec"
	"path/filepath"
	"syscall"
	"time"

	"github.com/sabouaram/codexec/errtax"
)

// Default wall-clock budgets per spec.md §4.C.
const (
	DefaultCompileTimeout = 5 * time.Minute
	DefaultExecTimeout    = time.Minute
)

// timeoutExitCode is returned in place of a real exit code when a child
// is killed for exceeding its wall-clock budget, matching the `timeout`
// coreutil's own convention (spec.md §4.C).
const timeoutExitCode = 124

// Phase is one leg of a job: compiling or running.
type Phase struct {
	ExitCode    int
	Stdout      []byte
	Stderr      []byte
	DurationMs  int64
	TimedOut    bool
	Ran         bool
}

// Result is the outcome of one full compile-then-run cycle.
type Result struct {
	Compile Phase
	Run     Phase
}

// Execute shapes and runs the phases mode calls for inside sandboxDir,
// honoring compileTimeout/execTimeout. src is a filename relative to
// sandboxDir; all argv is built from d's shaping rules plus the
// caller-supplied, unshielded user arguments (spec.md §4.C: "the design
// does not attempt shell-quoting safety").
//
//   - ModeCompileAndRun: compile (if the language has a compile step)
//     then run — the only mode prior to spec.md §4.C's mode split, and
//     still the default a bare Job.Mode should resolve to.
//   - ModeCompileOnly: compile and stop; never runs the result. A
//     language with no compile step at all cannot satisfy this mode.
//   - ModeInterpretOnly: skip compilation and run src directly. Only
//     languages without a compile step (Python, JavaScript) accept this
//     mode; anything else must be compiled first.
//   - ModeSyntaxCheck: run the toolchain's own syntax-only check (e.g.
//     `gcc -fsyntax-only`, `python3 -m py_compile`) into Result.Compile
//     and never runs the program; Result.Run stays the zero Phase.
//
// onStart, if non-nil, is called with the child's pid immediately after
// it starts, for whichever phase is currently executing — this is the
// hook the job queue's cancellation path uses to SIGTERM a Running
// job's child without waiting for it to finish.
func Execute(ctx context.Context, d *Descriptor, sandboxDir, src string, mode Mode, compilerArgs, executionArgs []string, compileTimeout, execTimeout time.Duration, onStart func(pid int)) (*Result, error) {
	if compileTimeout <= 0 {
		compileTimeout = DefaultCompileTimeout
	}
	if execTimeout <= 0 {
		execTimeout = DefaultExecTimeout
	}

	res := &Result{}
	exe := filepath.Join(sandboxDir, "a.out")

	if mode == ModeSyntaxCheck {
		bin, args, ok := syntaxCommand(d, src, exe, compilerArgs)
		if !ok {
			return res, errtax.InvalidArgument.Errorf("no syntax check available for language %q", d.Language)
		}
		phase, err := runChild(ctx, sandboxDir, bin, args, compileTimeout, onStart)
		res.Compile = phase
		return res, err
	}

	if mode == ModeInterpretOnly {
		if d.HasCompileStep() {
			return res, errtax.InvalidArgument.Errorf("language %q requires compilation, cannot interpret-only", d.Language)
		}
	} else {
		if bin, args, ok := compileCommand(d, src, exe, compilerArgs); ok {
			phase, err := runChild(ctx, sandboxDir, bin, args, compileTimeout, onStart)
			res.Compile = phase
			if err != nil {
				return res, err
			}
			if phase.ExitCode != 0 {
				return res, errtax.Compilation.Errorf("compile failed with exit code %d", phase.ExitCode)
			}
		} else if mode == ModeCompileOnly {
			return res, errtax.InvalidArgument.Errorf("language %q has no compile step, cannot compile-only", d.Language)
		}

		if mode == ModeCompileOnly {
			return res, nil
		}
	}

	bin, args := runCommand(d, src, exe, executionArgs)
	if bin == "" {
		return res, errtax.Internal.Errorf("no run command for language %q", d.Language)
	}
	phase, err := runChild(ctx, sandboxDir, bin, args, execTimeout, onStart)
	res.Run = phase
	if err != nil {
		return res, err
	}
	return res, nil
}

// runChild runs one child process to completion or timeout, capturing
// up to captureLimit bytes of each stream. This replaces spec.md
// §4.C's manual fork/exec-via-/bin/sh/select(1 s tick)/SIGKILL dance
// with the idiomatic Go equivalent: exec.CommandContext plus a deadline
// context, argv passed directly (no shell interpolation) and
// cmd.Process.Kill() (SIGKILL) on deadline.
func runChild(ctx context.Context, dir, bin string, args []string, timeout time.Duration, onStart func(pid int)) (Phase, error) {
	cctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(cctx, bin, args...)
	cmd.Dir = dir

	var out, errOut boundedBuffer
	cmd.Stdout = &out
	cmd.Stderr = &errOut

	start := time.Now()
	if err := cmd.Start(); err != nil {
		return Phase{Ran: false}, errtax.Execution.Errorf("start %q: %v", bin, err)
	}
	if onStart != nil {
		onStart(cmd.Process.Pid)
	}
	err := cmd.Wait()
	elapsed := time.Since(start)

	phase := Phase{
		Stdout:     out.Bytes(),
		Stderr:     errOut.Bytes(),
		DurationMs: elapsed.Milliseconds(),
		Ran:        true,
	}

	if cctx.Err() == context.DeadlineExceeded {
		phase.TimedOut = true
		phase.ExitCode = timeoutExitCode
		return phase, nil
	}

	phase.ExitCode = exitCode(cmd, err)
	return phase, nil
}

// exitCode translates a finished command's result per spec.md §4.C:
// normal exit yields its code, death by signal yields 128+signo,
// anything else yields -1.
func exitCode(cmd *exec.Cmd, err error) int {
	if err == nil {
		return 0
	}

	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) {
		return -1
	}

	if ws, ok := exitErr.Sys().(syscall.WaitStatus); ok {
		if ws.Signaled() {
			return 128 + int(ws.Signal())
		}
		if ws.Exited() {
			return ws.ExitStatus()
		}
	}
	return -1
}
