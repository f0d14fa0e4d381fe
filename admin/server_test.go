package admin_test

import (
	"context"
	"net"
	"os"
	"path/filepath"
	"time"

	"github.com/sabouaram/codexec/admin"
	"github.com/sabouaram/codexec/protocol"
	"github.com/sabouaram/codexec/queue"
	"github.com/sabouaram/codexec/session"
	"github.com/sabouaram/codexec/stats"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Server", func() {
	var (
		sockPath string
		srv      *admin.Server
		ctx      context.Context
		stop     context.CancelFunc
	)

	BeforeEach(func() {
		dir, err := os.MkdirTemp("", "admin-sock-")
		Expect(err).ToNot(HaveOccurred())
		DeferCleanup(func() { _ = os.RemoveAll(dir) })
		sockPath = filepath.Join(dir, "admin.sock")

		ln, err := admin.Listen(sockPath)
		Expect(err).ToNot(HaveOccurred())

		info, err := os.Stat(sockPath)
		Expect(err).ToNot(HaveOccurred())
		Expect(info.Mode().Perm()).To(Equal(os.FileMode(admin.SocketPerm)))

		q := queue.New(10)
		st := stats.New()
		mgr := session.NewManager(q, st)
		srv = &admin.Server{
			Listener: ln, SocketPath: sockPath, IdleTimeout: 2 * time.Second,
			Handler: &admin.Handler{Sessions: mgr, Queue: q, Stats: st, Config: admin.NewMemoryStore()},
		}

		ctx, stop = context.WithCancel(context.Background())
		go func() { _ = srv.Serve(ctx) }()
	})

	AfterEach(func() { stop() })

	It("returns Error(Permission) for any command before AdminConnect", func() {
		conn, err := net.Dial("unix", sockPath)
		Expect(err).ToNot(HaveOccurred())
		defer func() { _ = conn.Close() }()

		c := protocol.NewConn(conn)
		body, _ := protocol.Marshal(protocol.AdminServerStats{})
		Expect(c.WriteMessage(protocol.TypeAdminServerStats, 1, body)).To(Succeed())

		reply, err := c.ReadMessage()
		Expect(err).ToNot(HaveOccurred())
		Expect(reply.Header.Type).To(Equal(protocol.TypeError))
	})

	It("accepts commands once AdminConnect has completed", func() {
		conn, err := net.Dial("unix", sockPath)
		Expect(err).ToNot(HaveOccurred())
		defer func() { _ = conn.Close() }()

		c := protocol.NewConn(conn)
		Expect(c.WriteMessage(protocol.TypeAdminConnect, 1, protocol.AdminConnect{})).To(Succeed())
		ack, err := c.ReadMessage()
		Expect(err).ToNot(HaveOccurred())
		Expect(ack.Header.Type).To(Equal(protocol.TypeAdminAck))

		body, _ := protocol.Marshal(protocol.AdminServerStats{})
		Expect(c.WriteMessage(protocol.TypeAdminServerStats, 2, body)).To(Succeed())
		reply, err := c.ReadMessage()
		Expect(err).ToNot(HaveOccurred())
		Expect(reply.Header.Type).To(Equal(protocol.TypeAdminStatsPayload))
	})

	It("refuses a second concurrent admin connection", func() {
		first, err := net.Dial("unix", sockPath)
		Expect(err).ToNot(HaveOccurred())
		defer func() { _ = first.Close() }()

		c := protocol.NewConn(first)
		Expect(c.WriteMessage(protocol.TypeAdminConnect, 1, protocol.AdminConnect{})).To(Succeed())
		_, err = c.ReadMessage()
		Expect(err).ToNot(HaveOccurred())

		second, err := net.Dial("unix", sockPath)
		Expect(err).ToNot(HaveOccurred())
		defer func() { _ = second.Close() }()

		buf := make([]byte, 1)
		_ = second.SetReadDeadline(time.Now().Add(2 * time.Second))
		_, err = second.Read(buf)
		Expect(err).To(HaveOccurred())
	})
})
