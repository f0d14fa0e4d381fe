package session_test

import (
	"context"
	"net"
	"os"
	"time"

	"github.com/sabouaram/codexec/fileman"
	"github.com/sabouaram/codexec/protocol"
	"github.com/sabouaram/codexec/queue"
	"github.com/sabouaram/codexec/session"
	"github.com/sabouaram/codexec/stats"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Server", func() {
	var (
		root string
		ln   net.Listener
		srv  *session.Server
		ctx  context.Context
		stop context.CancelFunc
	)

	BeforeEach(func() {
		var err error
		root, err = os.MkdirTemp("", "session-server-")
		Expect(err).ToNot(HaveOccurred())

		files, err := fileman.NewManager(root, 0)
		Expect(err).ToNot(HaveOccurred())
		q := queue.New(10)
		st := stats.New()
		mgr := session.NewManager(q, st)

		ln, err = net.Listen("tcp", "127.0.0.1:0")
		Expect(err).ToNot(HaveOccurred())

		srv = &session.Server{
			Listener:    ln,
			Manager:     mgr,
			IdleTimeout: 2 * time.Second,
			Handler:     &session.Handler{Manager: mgr, Files: files, Queue: q, Stats: st},
		}

		ctx, stop = context.WithCancel(context.Background())
		go func() { _ = srv.Serve(ctx) }()
	})

	AfterEach(func() {
		stop()
		_ = os.RemoveAll(root)
	})

	It("completes the minimum Hello/Ping exchange over a real TCP connection", func() {
		conn, err := net.Dial("tcp", ln.Addr().String())
		Expect(err).ToNot(HaveOccurred())
		defer func() { _ = conn.Close() }()

		c := protocol.NewConn(conn)

		Expect(c.WriteMessage(protocol.TypeHello, 1, protocol.Hello{Name: "x", Platform: "linux", Version: "1.0.0"})).To(Succeed())
		reply, err := c.ReadMessage()
		Expect(err).ToNot(HaveOccurred())
		Expect(reply.Header.Type).To(Equal(protocol.TypeHelloAck))
		Expect(reply.Header.Correlation).To(Equal(uint32(1)))

		Expect(c.WriteMessage(protocol.TypePing, 2, protocol.Ping{})).To(Succeed())
		pong, err := c.ReadMessage()
		Expect(err).ToNot(HaveOccurred())
		Expect(pong.Header.Type).To(Equal(protocol.TypePong))
		Expect(pong.Header.Correlation).To(Equal(uint32(2)))
	})

	It("closes the connection once the idle timeout elapses with no traffic", func() {
		conn, err := net.Dial("tcp", ln.Addr().String())
		Expect(err).ToNot(HaveOccurred())
		defer func() { _ = conn.Close() }()

		buf := make([]byte, 1)
		_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
		_, err = conn.Read(buf)
		Expect(err).To(HaveOccurred())
	})
})
