package session

import (
	"net"
	"sync"
	"sync/atomic"
	"time"
)

// State is a session's position in the connection-level state machine
// (spec.md §3 "Session").
type State string

const (
	StateConnecting    State = "Connecting"
	StateAuthenticated State = "Authenticated"
	StateIdle          State = "Idle"
	StateUploading     State = "Uploading"
	StateProcessing    State = "Processing"
	StateDisconnecting State = "Disconnecting"
)

var nextID uint32

// NextSessionID returns a process-unique session id, never 0.
func NextSessionID() uint32 {
	return atomic.AddUint32(&nextID, 1)
}

// pendingUpload buffers an in-progress FileUploadStart/Chunk/End
// sequence. Only one upload is in flight per session at a time, per
// spec.md's Uploading state.
type pendingUpload struct {
	filename string
	expected uint64
	received uint64
	data     []byte
}

// Session is one live transport-level client connection and its
// protocol state. Only the owning connection goroutine and Manager
// (under mu) mutate it.
type Session struct {
	mu sync.Mutex

	ID         uint32
	Conn       net.Conn
	RemoteAddr string

	state State

	ConnectTime  time.Time
	LastActivity time.Time

	Name          string
	Platform      string
	ClientVersion string

	activeJobCount int32
	bytesIn        uint64
	bytesOut       uint64

	upload *pendingUpload
}

// newSession builds a Session in StateConnecting for a freshly accepted
// connection.
func newSession(id uint32, conn net.Conn) *Session {
	now := time.Now()
	return &Session{
		ID:           id,
		Conn:         conn,
		RemoteAddr:   conn.RemoteAddr().String(),
		state:        StateConnecting,
		ConnectTime:  now,
		LastActivity: now,
	}
}

// State returns the session's current state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) setState(st State) {
	s.mu.Lock()
	s.state = st
	s.mu.Unlock()
}

// touch records traffic, resetting the idle clock.
func (s *Session) touch() {
	s.mu.Lock()
	s.LastActivity = time.Now()
	s.mu.Unlock()
}

func (s *Session) idleFor(now time.Time) time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return now.Sub(s.LastActivity)
}

func (s *Session) addBytesIn(n uint64) {
	s.mu.Lock()
	s.bytesIn += n
	s.mu.Unlock()
}

func (s *Session) addBytesOut(n uint64) {
	s.mu.Lock()
	s.bytesOut += n
	s.mu.Unlock()
}

func (s *Session) incActiveJobs(delta int32) {
	atomic.AddInt32(&s.activeJobCount, delta)
}

func (s *Session) startUpload(filename string, expected uint64) {
	s.mu.Lock()
	s.upload = &pendingUpload{filename: filename, expected: expected}
	s.mu.Unlock()
}

func (s *Session) appendUpload(chunk []byte) (ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.upload == nil {
		return false
	}
	s.upload.data = append(s.upload.data, chunk...)
	s.upload.received += uint64(len(chunk))
	return true
}

// finishUpload clears and returns the buffered upload, if any.
func (s *Session) finishUpload() *pendingUpload {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.upload
	s.upload = nil
	return u
}

// Snapshot is an immutable copy of a Session's fields, safe for the
// admin plane to read without sharing the live mutex.
type Snapshot struct {
	ID             uint32
	RemoteAddr     string
	State          State
	ConnectTime    time.Time
	LastActivity   time.Time
	Name           string
	Platform       string
	ClientVersion  string
	ActiveJobCount int32
	BytesIn        uint64
	BytesOut       uint64
}

// Snapshot copies out the fields safe for a caller outside session to
// read.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		ID: s.ID, RemoteAddr: s.RemoteAddr, State: s.state,
		ConnectTime: s.ConnectTime, LastActivity: s.LastActivity,
		Name: s.Name, Platform: s.Platform, ClientVersion: s.ClientVersion,
		ActiveJobCount: atomic.LoadInt32(&s.activeJobCount),
		BytesIn:        s.bytesIn, BytesOut: s.bytesOut,
	}
}
