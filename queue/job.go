package queue

import (
	"sync"
	"sync/atomic"
	"time"
)

// Mode is how a job's source should be treated.
type Mode string

const (
	ModeCompileOnly   Mode = "CompileOnly"
	ModeCompileAndRun Mode = "CompileAndRun"
	ModeInterpretOnly Mode = "InterpretOnly"
	ModeSyntaxCheck   Mode = "SyntaxCheck"
)

// State is a job's position in its lifecycle.
type State string

const (
	StateQueued    State = "Queued"
	StateRunning   State = "Running"
	StateCompleted State = "Completed"
	StateFailed    State = "Failed"
	StateCancelled State = "Cancelled"
	StateTimeout   State = "Timeout"
)

// Terminal reports whether a job in this state will never transition
// again.
func (s State) Terminal() bool {
	switch s {
	case StateCompleted, StateFailed, StateCancelled, StateTimeout:
		return true
	default:
		return false
	}
}

var nextID uint32

// NextJobID returns a process-unique id, never 0.
func NextJobID() uint32 {
	return atomic.AddUint32(&nextID, 1)
}

// Job is one compile/execute request and everything learned about it
// over its lifetime. Only the supervisor goroutine mutates a Running
// job's fields, except the cancel-requested flag, which Cancel sets
// under mu — per spec.md §5's "only the worker mutates a job while its state
// is Running", cancellation is the one documented exception.
type Job struct {
	mu sync.Mutex

	ID              uint32
	OwnerSessionID  uint32
	Language        string
	LanguageVersion string
	Mode            Mode
	Priority        uint8

	state State

	SubmittedAt time.Time
	StartedAt   time.Time
	EndedAt     time.Time

	SourcePath    string
	CompilerArgs  []string
	ExecutionArgs []string

	pid             int
	cancelRequested bool

	ExitCode   int
	OutputPath string
	ErrorPath  string
	OutputSize uint64
	ErrorSize  uint64
	Err        error
}

// State returns the job's current state.
func (j *Job) State() State {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.state
}

func (j *Job) setState(s State) {
	j.mu.Lock()
	j.state = s
	j.mu.Unlock()
}

// Pid returns the tracked child pid: 0 until a child has started, then
// the pid of the most recent child (it is not reset when that child exits).
func (j *Job) Pid() int {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.pid
}

func (j *Job) setPid(pid int) {
	j.mu.Lock()
	j.pid = pid
	j.mu.Unlock()
}

// markCancelRequested records that Cancel signalled this job's child
// while it was Running, so the supervisor can tell an operator-requested
// cancellation apart from an ordinary nonzero exit once the run
// finishes.
func (j *Job) markCancelRequested() {
	j.mu.Lock()
	j.cancelRequested = true
	j.mu.Unlock()
}

func (j *Job) wasCancelRequested() bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.cancelRequested
}

// Snapshot is an immutable copy of a Job's fields, safe to hand to
// callers outside the queue (admin, session) without sharing the live
// mutex.
type Snapshot struct {
	ID              uint32
	OwnerSessionID  uint32
	Language        string
	LanguageVersion string
	Mode            Mode
	Priority        uint8
	State           State
	SubmittedAt    time.Time
	StartedAt      time.Time
	EndedAt        time.Time
	Pid            int
	ExitCode       int
	OutputPath     string
	ErrorPath      string
	OutputSize     uint64
	ErrorSize      uint64
	Err            error
}

// Snapshot copies out the fields safe for a caller outside the queue to
// read.
func (j *Job) Snapshot() Snapshot {
	j.mu.Lock()
	defer j.mu.Unlock()
	return Snapshot{
		ID: j.ID, OwnerSessionID: j.OwnerSessionID,
		Language: j.Language, LanguageVersion: j.LanguageVersion,
		Mode: j.Mode, Priority: j.Priority,
		State: j.state, SubmittedAt: j.SubmittedAt, StartedAt: j.StartedAt,
		EndedAt: j.EndedAt, Pid: j.pid, ExitCode: j.ExitCode,
		OutputPath: j.OutputPath, ErrorPath: j.ErrorPath,
		OutputSize: j.OutputSize, ErrorSize: j.ErrorSize, Err: j.Err,
	}
}
