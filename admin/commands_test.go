package admin_test

import (
	"context"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/sabouaram/codexec/admin"
	"github.com/sabouaram/codexec/fileman"
	"github.com/sabouaram/codexec/protocol"
	"github.com/sabouaram/codexec/queue"
	"github.com/sabouaram/codexec/session"
	"github.com/sabouaram/codexec/stats"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

// connectedSession dials a running session.Server and completes Hello,
// registering a real *session.Session in the shared Manager. Handler
// tests need that live session, and session's export_test.go test
// helper isn't reachable from this package, so this goes through the
// actual wire handshake instead.
func connectedSession(addr string) net.Conn {
	conn, err := net.Dial("tcp", addr)
	Expect(err).ToNot(HaveOccurred())

	c := protocol.NewConn(conn)
	Expect(c.WriteMessage(protocol.TypeHello, 1, protocol.Hello{Name: "x", Platform: "linux", Version: "1.0.0"})).To(Succeed())
	_, err = c.ReadMessage()
	Expect(err).ToNot(HaveOccurred())

	return conn
}

var _ = Describe("Handler.Dispatch", func() {
	var (
		q   *queue.Queue
		st  *stats.Stats
		mgr *session.Manager
		h   *admin.Handler
	)

	BeforeEach(func() {
		q = queue.New(10)
		st = stats.New()
		mgr = session.NewManager(q, st)
		h = &admin.Handler{Sessions: mgr, Queue: q, Stats: st, Config: admin.NewMemoryStore()}
	})

	It("lists jobs by scope", func() {
		active := &queue.Job{ID: queue.NextJobID(), Language: "c"}
		Expect(q.Submit(active)).To(Succeed())
		done := &queue.Job{ID: queue.NextJobID(), Language: "python"}
		Expect(q.Submit(done)).To(Succeed())
		Expect(q.Cancel(done.ID, false)).To(Succeed())

		activeBody, _ := protocol.Marshal(protocol.AdminListJobs{Scope: "active"})
		typ, payload, err := h.Dispatch(protocol.Message{
			Header: protocol.Header{Type: protocol.TypeAdminListJobs}, Payload: activeBody,
		})
		Expect(err).ToNot(HaveOccurred())
		Expect(typ).To(Equal(protocol.TypeAdminTextTable))
		table := payload.(protocol.AdminTextTable)
		Expect(table.Rows).To(HaveLen(2)) // header + one active job

		body, _ := protocol.Marshal(protocol.AdminListJobs{Scope: "all"})
		_, payload, err = h.Dispatch(protocol.Message{Header: protocol.Header{Type: protocol.TypeAdminListJobs}, Payload: body})
		Expect(err).ToNot(HaveOccurred())
		Expect(payload.(protocol.AdminTextTable).Rows).To(HaveLen(3)) // header + both jobs
	})

	It("kills a job", func() {
		job := &queue.Job{ID: queue.NextJobID()}
		Expect(q.Submit(job)).To(Succeed())

		body, _ := protocol.Marshal(protocol.AdminKillJob{JobID: job.ID})
		typ, _, err := h.Dispatch(protocol.Message{Header: protocol.Header{Type: protocol.TypeAdminKillJob}, Payload: body})
		Expect(err).ToNot(HaveOccurred())
		Expect(typ).To(Equal(protocol.TypeAdminAck))
		Expect(job.State()).To(Equal(queue.StateCancelled))
	})

	It("returns NotFound for an unknown job on KillJob", func() {
		body, _ := protocol.Marshal(protocol.AdminKillJob{JobID: 999999})
		_, _, err := h.Dispatch(protocol.Message{Header: protocol.Header{Type: protocol.TypeAdminKillJob}, Payload: body})
		Expect(err).To(HaveOccurred())
	})

	It("reports server stats as a binary payload", func() {
		st.SessionOpened()
		st.JobSubmitted()

		body, _ := protocol.Marshal(protocol.AdminServerStats{})
		typ, payload, err := h.Dispatch(protocol.Message{Header: protocol.Header{Type: protocol.TypeAdminServerStats}, Payload: body})
		Expect(err).ToNot(HaveOccurred())
		Expect(typ).To(Equal(protocol.TypeAdminStatsPayload))
		stPayload := payload.(protocol.AdminStatsPayload)
		Expect(stPayload.SessionsTotal).To(Equal(uint64(1)))
		Expect(stPayload.JobsTotal).To(Equal(uint64(1)))
	})

	It("rejects Config Set on an unknown key", func() {
		body, _ := protocol.Marshal(protocol.AdminConfigCmd{Op: "set", Key: "bogus", Value: "1"})
		_, _, err := h.Dispatch(protocol.Message{Header: protocol.Header{Type: protocol.TypeAdminConfig}, Payload: body})
		Expect(err).To(HaveOccurred())
	})

	It("round-trips Config Set then Get", func() {
		setBody, _ := protocol.Marshal(protocol.AdminConfigCmd{Op: "set", Key: "queue_max_size", Value: "42"})
		_, _, err := h.Dispatch(protocol.Message{Header: protocol.Header{Type: protocol.TypeAdminConfig}, Payload: setBody})
		Expect(err).ToNot(HaveOccurred())

		getBody, _ := protocol.Marshal(protocol.AdminConfigCmd{Op: "get", Key: "queue_max_size"})
		_, payload, err := h.Dispatch(protocol.Message{Header: protocol.Header{Type: protocol.TypeAdminConfig}, Payload: getBody})
		Expect(err).ToNot(HaveOccurred())
		table := payload.(protocol.AdminTextTable)
		Expect(table.Rows[1]).To(ContainSubstring("42"))
	})

	It("disconnects a live session and force-closes its socket", func() {
		root, err := os.MkdirTemp("", "admin-")
		Expect(err).ToNot(HaveOccurred())
		defer func() { _ = os.RemoveAll(root) }()

		files, err := fileman.NewManager(root, 0)
		Expect(err).ToNot(HaveOccurred())

		ln, err := net.Listen("tcp", "127.0.0.1:0")
		Expect(err).ToNot(HaveOccurred())
		srv := &session.Server{Listener: ln, Manager: mgr, Handler: &session.Handler{Manager: mgr, Files: files, Queue: q, Stats: st}}
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go func() { _ = srv.Serve(ctx) }()

		conn := connectedSession(ln.Addr().String())
		defer func() { _ = conn.Close() }()

		Eventually(func() int { return mgr.Count() }, time.Second).Should(Equal(1))
		var id uint32
		for _, snap := range mgr.List() {
			id = snap.ID
		}

		body, _ := protocol.Marshal(protocol.AdminDisconnectClient{SessionID: id, Force: true})
		typ, _, err := h.Dispatch(protocol.Message{Header: protocol.Header{Type: protocol.TypeAdminDisconnect}, Payload: body})
		Expect(err).ToNot(HaveOccurred())
		Expect(typ).To(Equal(protocol.TypeAdminAck))

		_, ok := mgr.Find(id)
		Expect(ok).To(BeFalse())

		buf := make([]byte, 1)
		_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		_, err = conn.Read(buf)
		Expect(err).To(HaveOccurred())
	})

	It("bulk-disconnects every session except the one named all-except", func() {
		root, err := os.MkdirTemp("", "admin-")
		Expect(err).ToNot(HaveOccurred())
		defer func() { _ = os.RemoveAll(root) }()

		files, err := fileman.NewManager(root, 0)
		Expect(err).ToNot(HaveOccurred())

		ln, err := net.Listen("tcp", "127.0.0.1:0")
		Expect(err).ToNot(HaveOccurred())
		srv := &session.Server{Listener: ln, Manager: mgr, Handler: &session.Handler{Manager: mgr, Files: files, Queue: q, Stats: st}}
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go func() { _ = srv.Serve(ctx) }()

		kept := connectedSession(ln.Addr().String())
		defer func() { _ = kept.Close() }()
		dropped := connectedSession(ln.Addr().String())
		defer func() { _ = dropped.Close() }()

		Eventually(func() int { return mgr.Count() }, time.Second).Should(Equal(2))

		// Identify the session behind `kept` by its remote address, as
		// seen from the server side.
		var keepID uint32
		localAddr := kept.LocalAddr().String()
		for _, snap := range mgr.List() {
			if snap.RemoteAddr == localAddr {
				keepID = snap.ID
			}
		}
		Expect(keepID).ToNot(BeZero())

		body, _ := protocol.Marshal(protocol.AdminBulkDisconnect{Mode: "all-except", Value: strconv.FormatUint(uint64(keepID), 10)})
		typ, _, err := h.Dispatch(protocol.Message{Header: protocol.Header{Type: protocol.TypeAdminBulkDisconnect}, Payload: body})
		Expect(err).ToNot(HaveOccurred())
		Expect(typ).To(Equal(protocol.TypeAdminAck))

		Eventually(func() int { return mgr.Count() }, time.Second).Should(Equal(1))
		_, ok := mgr.Find(keepID)
		Expect(ok).To(BeTrue())
	})
})
