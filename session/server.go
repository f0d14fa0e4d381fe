package session

import (
	"context"
	"net"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/sabouaram/codexec/errtax"
	"github.com/sabouaram/codexec/protocol"
	"github.com/sabouaram/codexec/srvlog"
)

// DefaultIdleTimeout is the client idle timeout spec.md §5 names (300s).
const DefaultIdleTimeout = 300 * time.Second

// Server accepts connections on a net.Listener and runs one goroutine
// per connection; see doc.go for why that is the idiomatic equivalent
// of spec.md's single-dispatcher poll loop here.
type Server struct {
	Listener    net.Listener
	Handler     *Handler
	Manager     *Manager
	IdleTimeout time.Duration
	Log         *logrus.Logger
}

// Serve accepts connections until ctx is cancelled or the listener
// errors. It always returns once the listener is closed.
func (s *Server) Serve(ctx context.Context) error {
	idle := s.IdleTimeout
	if idle <= 0 {
		idle = DefaultIdleTimeout
	}

	go func() {
		<-ctx.Done()
		_ = s.Listener.Close()
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
		go s.serveConn(ctx, conn, idle)
	}
}

func (s *Server) serveConn(ctx context.Context, netConn net.Conn, idle time.Duration) {
	if tcp, ok := netConn.(*net.TCPConn); ok {
		_ = tcp.SetNoDelay(true)
	}

	sess := newSession(NextSessionID(), netConn)
	s.Manager.Register(sess)
	defer func() {
		s.Manager.Remove(sess.ID)
		_ = netConn.Close()
	}()

	go func() {
		<-ctx.Done()
		_ = netConn.Close()
	}()

	conn := protocol.NewConn(netConn)
	log := s.log().WithFields(srvlog.NewFields().Add("session_id", sess.ID).Add("remote", sess.RemoteAddr).Logrus())
	log.Info("session connected")

	for {
		_ = netConn.SetReadDeadline(time.Now().Add(idle))

		msg, err := conn.ReadMessage()
		if err != nil {
			log.WithError(err).Debug("session read failed, closing")
			return
		}

		typ, payload, herr := s.Handler.Dispatch(sess, msg)
		if herr != nil {
			typ = protocol.TypeError
			payload = errorPayload(herr)
		}
		if err := conn.WriteMessage(typ, msg.Header.Correlation, payload); err != nil {
			log.WithError(err).Debug("session write failed, closing")
			return
		}
	}
}

func (s *Server) log() *logrus.Logger {
	if s.Log != nil {
		return s.Log
	}
	return srvlog.New("info", nil)
}

// errorPayload projects any error into protocol.ErrorPayload, defaulting
// to Internal for errors this package didn't originate as errtax.Error
// itself (spec.md §7: every recoverable failure surfaces as MSG_ERROR).
func errorPayload(err error) protocol.ErrorPayload {
	if e, ok := err.(errtax.Error); ok {
		return protocol.ErrorPayload{Code: e.GetCode().Uint16(), Message: e.Error(), Context: e.Context()}
	}
	return protocol.ErrorPayload{Code: errtax.Internal.Uint16(), Message: err.Error()}
}
