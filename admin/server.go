package admin

import (
	"context"
	"net"
	"os"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/sabouaram/codexec/errtax"
	"github.com/sabouaram/codexec/protocol"
	"github.com/sabouaram/codexec/srvlog"
)

// DefaultIdleTimeout is the admin session's own idle timeout, longer
// than a client's per spec.md §4.A/§5 (1800s vs 300s).
const DefaultIdleTimeout = 1800 * time.Second

// SocketPerm is the permission mode the rendezvous point is created
// with: owner-only, since spec.md §6 is explicit that authentication is
// "deliberately absent" and protection comes entirely from this mode.
const SocketPerm = 0600

// Server accepts admin connections on a Unix domain socket, honouring
// "at most one admin session at a time" by rejecting (closing) any
// connection arriving while one is already active.
type Server struct {
	Listener    *net.UnixListener
	SocketPath  string
	Handler     *Handler
	IdleTimeout time.Duration
	Log         *logrus.Logger

	// Shutdown is invoked once a ServerShutdown command's Ack has been
	// written: graceful/delay come straight off the wire request, and
	// the daemon decides what "set the global shutdown event" and
	// "exit immediately" actually do (cancel a context vs os.Exit).
	Shutdown func(graceful bool, delay time.Duration)

	active int32 // 0 or 1, CAS-gated single-session admission
}

// Listen binds a Unix domain socket at path with SocketPerm, removing
// any stale socket file left behind by a previous, uncleanly-stopped
// run first.
func Listen(path string) (*net.UnixListener, error) {
	_ = os.Remove(path)
	ln, err := net.ListenUnix("unix", &net.UnixAddr{Name: path, Net: "unix"})
	if err != nil {
		return nil, errtax.Internal.Errorf("admin listen on %s: %v", path, err)
	}
	if err := os.Chmod(path, SocketPerm); err != nil {
		_ = ln.Close()
		return nil, errtax.Internal.Errorf("chmod admin socket %s: %v", path, err)
	}
	return ln, nil
}

// Serve accepts connections until ctx is cancelled or the listener
// errors, enforcing the single-admin-session rule and removing the
// socket file on the way out.
func (s *Server) Serve(ctx context.Context) error {
	idle := s.IdleTimeout
	if idle <= 0 {
		idle = DefaultIdleTimeout
	}

	go func() {
		<-ctx.Done()
		_ = s.Listener.Close()
	}()
	defer func() {
		if s.SocketPath != "" {
			_ = os.Remove(s.SocketPath)
		}
	}()

	for {
		conn, err := s.Listener.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return nil
			default:
				return err
			}
		}
		if !atomic.CompareAndSwapInt32(&s.active, 0, 1) {
			// Another admin session is already live: refuse silently by
			// closing immediately, per spec.md's "at most one admin
			// session at a time".
			_ = conn.Close()
			continue
		}
		go s.serveConn(ctx, conn, idle)
	}
}

func (s *Server) serveConn(ctx context.Context, netConn net.Conn, idle time.Duration) {
	defer func() {
		atomic.StoreInt32(&s.active, 0)
		_ = netConn.Close()
	}()

	go func() {
		<-ctx.Done()
		_ = netConn.Close()
	}()

	conn := protocol.NewConn(netConn)
	log := s.log().WithFields(srvlog.NewFields().Add("endpoint", "admin").Logrus())
	log.Info("admin session connected")

	authenticated := false
	for {
		_ = netConn.SetReadDeadline(time.Now().Add(idle))

		msg, err := conn.ReadMessage()
		if err != nil {
			log.WithError(err).Debug("admin read failed, closing")
			return
		}

		typ, payload, herr := s.dispatchGated(&authenticated, msg)
		if herr != nil {
			typ = protocol.TypeError
			payload = errorPayload(herr)
		}
		if err := conn.WriteMessage(typ, msg.Header.Correlation, payload); err != nil {
			log.WithError(err).Debug("admin write failed, closing")
			return
		}

		if req := s.Handler.TakePendingShutdown(); req != nil {
			// Non-graceful exits immediately after the ack just written
			// above; only a graceful shutdown honours Delay before
			// setting the global shutdown event, per spec.md §4.A.
			if req.Graceful && req.Delay > 0 {
				time.Sleep(req.Delay)
			}
			if s.Shutdown != nil {
				s.Shutdown(req.Graceful, req.Delay)
			}
			return
		}
	}
}

// dispatchGated enforces spec.md §4.A's handshake: every message before
// a successful AdminConnect returns Error(Permission) and has no other
// effect; AdminConnect itself is idempotent once authenticated.
func (s *Server) dispatchGated(authenticated *bool, msg protocol.Message) (protocol.Type, interface{}, error) {
	if msg.Header.Type == protocol.TypeAdminConnect {
		*authenticated = true
		return protocol.TypeAdminAck, protocol.Ack{}, nil
	}
	if !*authenticated {
		return protocol.TypeError, nil, errtax.Permission.Errorf("admin commands require AdminConnect first")
	}
	return s.Handler.Dispatch(msg)
}

func (s *Server) log() *logrus.Logger {
	if s.Log != nil {
		return s.Log
	}
	return srvlog.New("info", nil)
}

// errorPayload projects any error into protocol.ErrorPayload, defaulting
// to Internal for errors this package didn't originate as errtax.Error
// itself.
func errorPayload(err error) protocol.ErrorPayload {
	if e, ok := err.(errtax.Error); ok {
		return protocol.ErrorPayload{Code: e.GetCode().Uint16(), Message: e.Error(), Context: e.Context()}
	}
	return protocol.ErrorPayload{Code: errtax.Internal.Uint16(), Message: err.Error()}
}
