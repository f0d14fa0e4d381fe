package stats

import (
	"sync"
	"time"
)

// Outcome documents the terminal buckets JobFinished groups outcomes
// into; it mirrors queue.State's terminal values by name. The constants
// below are deliberately untyped so they convert freely to the plain
// string JobFinished and queue.Recorder both take, keeping this package
// and package queue free of a compile-time dependency on each other.
type Outcome = string

const (
	OutcomeCompleted = "Completed"
	OutcomeFailed    = "Failed"
	OutcomeCancelled = "Cancelled"
	OutcomeTimeout   = "Timeout"
)

// emaAlpha is the smoothing factor for every exponential moving
// average tracked here. Higher weights recent samples more; 0.2 mirrors
// the teacher's own EMA uses elsewhere in the pack (monitor health
// scoring) and matches spec.md's "exponential moving average" without
// naming a constant of its own.
const emaAlpha = 0.2

// Stats is the server's single aggregate. All fields below the mutex
// line are only ever touched under mu.
type Stats struct {
	mu sync.Mutex

	startTime time.Time

	sessionsTotal  uint64
	sessionsActive uint64

	jobsTotal     uint64
	jobsActive    uint64
	jobsCompleted uint64
	jobsFailed    uint64
	jobsCancelled uint64
	jobsTimeout   uint64

	bytesIn  uint64
	bytesOut uint64

	successfulCompiles   uint64
	failedCompiles       uint64
	successfulExecutions uint64
	failedExecutions     uint64

	compileEmaMs   float64
	executionEmaMs float64
	jobWallEmaMs   float64
	jobWallSeen    bool
	compileSeen    bool
	executionSeen  bool
}

// New returns a Stats aggregate with start_time set to now.
func New() *Stats {
	return &Stats{startTime: time.Now()}
}

// Snapshot is an immutable copy of the aggregate, safe to hand to
// admin/session callers without sharing the live mutex.
type Snapshot struct {
	StartTime time.Time

	SessionsTotal  uint64
	SessionsActive uint64

	JobsTotal     uint64
	JobsActive    uint64
	JobsCompleted uint64
	JobsFailed    uint64
	JobsCancelled uint64
	JobsTimeout   uint64

	BytesIn  uint64
	BytesOut uint64

	AvgJobWallTimeMs float64

	SuccessfulCompiles   uint64
	FailedCompiles       uint64
	SuccessfulExecutions uint64
	FailedExecutions     uint64

	// HostLoad1/HostMemUsedP are left zero unless populated by
	// SnapshotDetailed.
	HostLoad1    float64
	HostMemUsedP float64
}

// Snapshot returns a copy of the aggregate without host metrics.
func (s *Stats) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Stats) snapshotLocked() Snapshot {
	return Snapshot{
		StartTime:            s.startTime,
		SessionsTotal:        s.sessionsTotal,
		SessionsActive:       s.sessionsActive,
		JobsTotal:            s.jobsTotal,
		JobsActive:           s.jobsActive,
		JobsCompleted:        s.jobsCompleted,
		JobsFailed:           s.jobsFailed,
		JobsCancelled:        s.jobsCancelled,
		JobsTimeout:          s.jobsTimeout,
		BytesIn:              s.bytesIn,
		BytesOut:             s.bytesOut,
		AvgJobWallTimeMs:     s.jobWallEmaMs,
		SuccessfulCompiles:   s.successfulCompiles,
		FailedCompiles:       s.failedCompiles,
		SuccessfulExecutions: s.successfulExecutions,
		FailedExecutions:     s.failedExecutions,
	}
}

// SessionOpened increments the total and active session counts.
func (s *Stats) SessionOpened() {
	s.mu.Lock()
	s.sessionsTotal++
	s.sessionsActive++
	s.mu.Unlock()
}

// SessionClosed decrements the active session count.
func (s *Stats) SessionClosed() {
	s.mu.Lock()
	if s.sessionsActive > 0 {
		s.sessionsActive--
	}
	s.mu.Unlock()
}

// AddBytesIn/AddBytesOut accumulate the byte counters.
func (s *Stats) AddBytesIn(n uint64) {
	s.mu.Lock()
	s.bytesIn += n
	s.mu.Unlock()
}

func (s *Stats) AddBytesOut(n uint64) {
	s.mu.Lock()
	s.bytesOut += n
	s.mu.Unlock()
}

// JobSubmitted increments the total and active job counts.
func (s *Stats) JobSubmitted() {
	s.mu.Lock()
	s.jobsTotal++
	s.jobsActive++
	s.mu.Unlock()
}

// JobFinished records a job's terminal outcome and wall time (submit
// to end, in milliseconds), decrementing the active count and folding
// wallTimeMs into the per-job wall-time EMA that queue.WaitEstimate's
// caller uses for meanWallTime.
//
// outcome is declared as a plain string (Outcome is only an alias of
// string) so this method satisfies queue.Recorder's JobFinished without
// queue importing this package; the Outcome* constants above are
// untyped strings with the same values as queue's terminal State names.
func (s *Stats) JobFinished(outcome string, wallTimeMs int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.jobsActive > 0 {
		s.jobsActive--
	}
	switch outcome {
	case OutcomeCompleted:
		s.jobsCompleted++
	case OutcomeFailed:
		s.jobsFailed++
	case OutcomeCancelled:
		s.jobsCancelled++
	case OutcomeTimeout:
		s.jobsTimeout++
	}

	s.jobWallEmaMs = observe(s.jobWallEmaMs, float64(wallTimeMs), &s.jobWallSeen)
}

// RecordCompile satisfies queue.Recorder: it updates the
// successful/failed compile counters and the compile-time EMA.
func (s *Stats) RecordCompile(success bool, durationMs int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if success {
		s.successfulCompiles++
	} else {
		s.failedCompiles++
	}
	s.compileEmaMs = observe(s.compileEmaMs, float64(durationMs), &s.compileSeen)
}

// RecordExecution satisfies queue.Recorder: it updates the
// successful/failed execution counters and the execute-time EMA.
func (s *Stats) RecordExecution(success bool, durationMs int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if success {
		s.successfulExecutions++
	} else {
		s.failedExecutions++
	}
	s.executionEmaMs = observe(s.executionEmaMs, float64(durationMs), &s.executionSeen)
}

// MeanJobWallTime is the current per-job wall-time EMA, ready to pass
// as queue.WaitEstimate's meanWallTime argument.
func (s *Stats) MeanJobWallTime() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return time.Duration(s.jobWallEmaMs * float64(time.Millisecond))
}

// observe folds x into an exponential moving average, taking the first
// sample as-is rather than averaging it against a phantom zero.
func observe(ema, x float64, seen *bool) float64 {
	if !*seen {
		*seen = true
		return x
	}
	return emaAlpha*x + (1-emaAlpha)*ema
}
