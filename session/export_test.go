package session

import "net"

// NewForTest builds a Session in the given state for use by this
// module's own tests, bypassing the normal Connecting-only newSession
// entry point. Not part of the package's operational surface.
func NewForTest(id uint32, conn net.Conn, state State) *Session {
	sess := newSession(id, conn)
	sess.state = state
	return sess
}
