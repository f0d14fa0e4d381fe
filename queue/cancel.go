package queue

import (
	"os"
	"syscall"
	"time"

	"github.com/sabouaram/codexec/errtax"
)

// Cancel marks a Queued job Cancelled in place (the supervisor skips it
// without ever invoking the compiler) or, for a Running job, signals
// its tracked child: SIGTERM normally, SIGKILL if force is true. The
// supervisor observes the resulting exit and moves the job to
// Cancelled itself — Cancel never sets Cancelled on a Running job
// directly, preserving spec.md §5's "only the worker mutates a job
// while its state is Running".
func (q *Queue) Cancel(jobID uint32, force bool) error {
	job, ok := q.Find(jobID)
	if !ok {
		return errtax.NotFound.Errorf("unknown job: %d", jobID)
	}

	switch job.State() {
	case StateQueued:
		job.setState(StateCancelled)
		job.mu.Lock()
		job.EndedAt = time.Now()
		job.mu.Unlock()
		return nil

	case StateRunning:
		pid := job.Pid()
		if pid == 0 {
			return nil
		}
		proc, err := os.FindProcess(pid)
		if err != nil {
			return errtax.Internal.Errorf("find pid %d: %v", pid, err)
		}
		sig := syscall.SIGTERM
		if force {
			sig = syscall.SIGKILL
		}
		if err := proc.Signal(sig); err != nil {
			return errtax.Internal.Errorf("signal pid %d: %v", pid, err)
		}
		job.markCancelRequested()
		return nil

	default:
		// Already terminal: nothing to do.
		return nil
	}
}

// CancelAllForSession applies Cancel to every job owned by sessionID
// and returns how many were touched.
func (q *Queue) CancelAllForSession(sessionID uint32, force bool) int {
	count := 0
	for _, job := range q.ListFor(sessionID) {
		if job.State().Terminal() {
			continue
		}
		if err := q.Cancel(job.ID, force); err == nil {
			count++
		}
	}
	return count
}
