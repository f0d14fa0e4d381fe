package session

import (
	"sync"

	"github.com/sabouaram/codexec/queue"
	"github.com/sabouaram/codexec/stats"
)

// Manager is the session manager's registry: the one source of truth
// for "the set of sessions" spec.md §3's ownership summary assigns it.
// A sync.Map keyed by session id lets the admin plane and the accept
// loop read/iterate concurrently without a dedicated lock for the
// common case; mutation of an individual Session's own fields is still
// serialised through that Session's own mutex.
type Manager struct {
	sessions sync.Map // uint32 -> *Session

	queue *queue.Queue
	stats *stats.Stats
}

// NewManager builds a Manager. q/st may be nil in tests that don't
// exercise cancellation or statistics.
func NewManager(q *queue.Queue, st *stats.Stats) *Manager {
	return &Manager{queue: q, stats: st}
}

// Register adds sess to the registry and records it in statistics.
func (m *Manager) Register(sess *Session) {
	m.sessions.Store(sess.ID, sess)
	if m.stats != nil {
		m.stats.SessionOpened()
	}
}

// Find looks up a session by id.
func (m *Manager) Find(id uint32) (*Session, bool) {
	v, ok := m.sessions.Load(id)
	if !ok {
		return nil, false
	}
	return v.(*Session), true
}

// List returns a snapshot of every registered session.
func (m *Manager) List() []Snapshot {
	var out []Snapshot
	m.sessions.Range(func(_, v interface{}) bool {
		out = append(out, v.(*Session).Snapshot())
		return true
	})
	return out
}

// Remove cancels sess's active jobs, removes it from the registry and
// updates statistics. It does not close the connection — the caller's
// accept-loop goroutine owns that (closing unblocks its own pending
// read, per spec.md's "session manager ... owns its socket
// exclusively").
func (m *Manager) Remove(id uint32) {
	if _, ok := m.sessions.LoadAndDelete(id); !ok {
		return
	}
	if m.queue != nil {
		m.queue.CancelAllForSession(id, false)
	}
	if m.stats != nil {
		m.stats.SessionClosed()
	}
}

// Count returns the number of registered sessions.
func (m *Manager) Count() int {
	n := 0
	m.sessions.Range(func(_, _ interface{}) bool { n++; return true })
	return n
}
