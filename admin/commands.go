package admin

import (
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/sabouaram/codexec/errtax"
	"github.com/sabouaram/codexec/protocol"
	"github.com/sabouaram/codexec/queue"
	"github.com/sabouaram/codexec/session"
	"github.com/sabouaram/codexec/stats"
)

// ShutdownRequest is what a successful ServerShutdown command leaves
// for the server loop to act on once the Ack has actually been written
// to the wire — spec.md §4.A: "acknowledges first ... then sets the
// global shutdown event".
type ShutdownRequest struct {
	Graceful bool
	Delay    time.Duration
}

// Handler turns admin protocol.Message traffic into session/queue/stats
// calls, per spec.md §4.A's command table. One Handler is shared by
// every admin connection the Server ever accepts, but the protocol only
// ever allows one such connection to be live at a time.
type Handler struct {
	Sessions *session.Manager
	Queue    *queue.Queue
	Stats    *stats.Stats
	Config   ConfigStore

	mu       sync.Mutex
	shutdown *ShutdownRequest
}

// TakePendingShutdown returns and clears any ShutdownRequest a just-
// dispatched ServerShutdown command left behind. The caller (Server)
// must only act on it after the Ack for that command has been written.
func (h *Handler) TakePendingShutdown() *ShutdownRequest {
	h.mu.Lock()
	defer h.mu.Unlock()
	req := h.shutdown
	h.shutdown = nil
	return req
}

// Dispatch handles one decoded admin message and returns the reply's
// wire type and payload, or an error to be surfaced as an Error payload
// on the same correlation id. Callers must reject everything but
// AdminConnect before the admin session has completed its handshake;
// Dispatch itself assumes that gate has already been applied.
func (h *Handler) Dispatch(msg protocol.Message) (protocol.Type, interface{}, error) {
	switch msg.Header.Type {
	case protocol.TypeAdminListClients:
		return h.listClients(msg)
	case protocol.TypeAdminListJobs:
		return h.listJobs(msg)
	case protocol.TypeAdminServerStats:
		return h.serverStats(msg)
	case protocol.TypeAdminDisconnect:
		return h.disconnectClient(msg)
	case protocol.TypeAdminKillJob:
		return h.killJob(msg)
	case protocol.TypeAdminServerShutdown:
		return h.serverShutdown(msg)
	case protocol.TypeAdminConfig:
		return h.config(msg)
	case protocol.TypeAdminBulkDisconnect:
		return h.bulkDisconnect(msg)
	default:
		return protocol.TypeError, nil, errtax.InvalidArgument.Errorf("unhandled admin message type %d", msg.Header.Type)
	}
}

func (h *Handler) listClients(msg protocol.Message) (protocol.Type, interface{}, error) {
	var req protocol.AdminListClients
	if err := protocol.Unmarshal(msg.Payload, &req); err != nil {
		return protocol.TypeError, nil, errtax.InvalidArgument.Errorf("malformed list clients: %v", err)
	}
	all := h.Sessions.List()
	var filtered []session.Snapshot
	for _, s := range all {
		if req.Filter != "" && s.Name != req.Filter && s.RemoteAddr != req.Filter {
			continue
		}
		filtered = append(filtered, s)
	}
	return protocol.TypeAdminTextTable, protocol.AdminTextTable{Rows: renderClients(filtered, time.Now().Unix(), req.Detailed)}, nil
}

func (h *Handler) listJobs(msg protocol.Message) (protocol.Type, interface{}, error) {
	var req protocol.AdminListJobs
	if err := protocol.Unmarshal(msg.Payload, &req); err != nil {
		return protocol.TypeError, nil, errtax.InvalidArgument.Errorf("malformed list jobs: %v", err)
	}

	var jobs []*queue.Job
	switch req.Scope {
	case "", "active":
		for _, j := range h.Queue.All() {
			if !j.State().Terminal() {
				jobs = append(jobs, j)
			}
		}
	case "all":
		jobs = h.Queue.All()
	case "completed":
		for _, j := range h.Queue.All() {
			if j.State().Terminal() {
				jobs = append(jobs, j)
			}
		}
	case "client":
		jobs = h.Queue.ListFor(req.ClientID)
	default:
		return protocol.TypeError, nil, errtax.InvalidArgument.Errorf("unknown list jobs scope %q", req.Scope)
	}

	snaps := make([]queue.Snapshot, 0, len(jobs))
	for _, j := range jobs {
		snaps = append(snaps, j.Snapshot())
	}
	return protocol.TypeAdminTextTable, protocol.AdminTextTable{Rows: renderJobs(snaps)}, nil
}

func (h *Handler) serverStats(msg protocol.Message) (protocol.Type, interface{}, error) {
	var req protocol.AdminServerStats
	if err := protocol.Unmarshal(msg.Payload, &req); err != nil {
		return protocol.TypeError, nil, errtax.InvalidArgument.Errorf("malformed server stats: %v", err)
	}

	var snap stats.Snapshot
	if req.Detailed {
		snap = h.Stats.SnapshotDetailed()
	} else {
		snap = h.Stats.Snapshot()
	}

	return protocol.TypeAdminStatsPayload, protocol.AdminStatsPayload{
		StartUnixMs:          snap.StartTime.UnixMilli(),
		SessionsTotal:        snap.SessionsTotal,
		SessionsActive:       snap.SessionsActive,
		JobsTotal:            snap.JobsTotal,
		JobsActive:           snap.JobsActive,
		JobsCompleted:        snap.JobsCompleted,
		JobsFailed:           snap.JobsFailed,
		JobsCancelled:        snap.JobsCancelled,
		JobsTimeout:          snap.JobsTimeout,
		BytesIn:              snap.BytesIn,
		BytesOut:             snap.BytesOut,
		AvgJobWallTimeMs:     snap.AvgJobWallTimeMs,
		SuccessfulCompiles:   snap.SuccessfulCompiles,
		FailedCompiles:       snap.FailedCompiles,
		SuccessfulExecutions: snap.SuccessfulExecutions,
		FailedExecutions:     snap.FailedExecutions,
		HostLoad1:            snap.HostLoad1,
		HostMemUsedP:         snap.HostMemUsedP,
	}, nil
}

func (h *Handler) disconnectClient(msg protocol.Message) (protocol.Type, interface{}, error) {
	var req protocol.AdminDisconnectClient
	if err := protocol.Unmarshal(msg.Payload, &req); err != nil {
		return protocol.TypeError, nil, errtax.InvalidArgument.Errorf("malformed disconnect client: %v", err)
	}
	if err := h.disconnect(req.SessionID, req.Force); err != nil {
		return protocol.TypeError, nil, err
	}
	return protocol.TypeAdminAck, protocol.Ack{}, nil
}

// disconnect hands session id off to the session manager for removal
// (which cancels its jobs and drops it from the registry); force also
// closes the underlying socket immediately, per spec.md §4.A, rather
// than leaving that to the accept loop's own deferred close once its
// blocked read eventually errors out.
func (h *Handler) disconnect(id uint32, force bool) error {
	sess, ok := h.Sessions.Find(id)
	if !ok {
		return errtax.NotFound.Errorf("unknown session %d", id)
	}
	h.Sessions.Remove(id)
	if force {
		_ = sess.Conn.Close()
	}
	return nil
}

func (h *Handler) killJob(msg protocol.Message) (protocol.Type, interface{}, error) {
	var req protocol.AdminKillJob
	if err := protocol.Unmarshal(msg.Payload, &req); err != nil {
		return protocol.TypeError, nil, errtax.InvalidArgument.Errorf("malformed kill job: %v", err)
	}
	if err := h.Queue.Cancel(req.JobID, req.Force); err != nil {
		return protocol.TypeError, nil, err
	}
	return protocol.TypeAdminAck, protocol.Ack{}, nil
}

func (h *Handler) serverShutdown(msg protocol.Message) (protocol.Type, interface{}, error) {
	var req protocol.AdminServerShutdown
	if err := protocol.Unmarshal(msg.Payload, &req); err != nil {
		return protocol.TypeError, nil, errtax.InvalidArgument.Errorf("malformed server shutdown: %v", err)
	}
	h.mu.Lock()
	h.shutdown = &ShutdownRequest{Graceful: req.Graceful, Delay: time.Duration(req.DelaySeconds) * time.Second}
	h.mu.Unlock()
	return protocol.TypeAdminAck, protocol.Ack{}, nil
}

func (h *Handler) config(msg protocol.Message) (protocol.Type, interface{}, error) {
	var req protocol.AdminConfigCmd
	if err := protocol.Unmarshal(msg.Payload, &req); err != nil {
		return protocol.TypeError, nil, errtax.InvalidArgument.Errorf("malformed config command: %v", err)
	}

	switch req.Op {
	case "get":
		if !isKnownKey(req.Key) {
			return protocol.TypeError, nil, errtax.InvalidArgument.Errorf("unknown config key %q", req.Key)
		}
		v, _ := h.Config.Get(req.Key)
		return protocol.TypeAdminTextTable, protocol.AdminTextTable{Rows: renderConfig([]string{req.Key}, map[string]string{req.Key: v})}, nil

	case "set":
		if err := h.Config.Set(req.Key, req.Value); err != nil {
			return protocol.TypeError, nil, err
		}
		return protocol.TypeAdminAck, protocol.Ack{}, nil

	case "list":
		values := h.Config.List()
		return protocol.TypeAdminTextTable, protocol.AdminTextTable{Rows: renderConfig(sortedConfigKeys(), values)}, nil

	default:
		return protocol.TypeError, nil, errtax.InvalidArgument.Errorf("unknown config op %q", req.Op)
	}
}

func (h *Handler) bulkDisconnect(msg protocol.Message) (protocol.Type, interface{}, error) {
	var req protocol.AdminBulkDisconnect
	if err := protocol.Unmarshal(msg.Payload, &req); err != nil {
		return protocol.TypeError, nil, errtax.InvalidArgument.Errorf("malformed bulk disconnect: %v", err)
	}

	all := h.Sessions.List()
	var targets []uint32
	switch req.Mode {
	case "idle":
		threshold, err := time.ParseDuration(req.Value + "s")
		if err != nil {
			return protocol.TypeError, nil, errtax.InvalidArgument.Errorf("malformed idle threshold %q: %v", req.Value, err)
		}
		for _, s := range all {
			if time.Since(s.LastActivity) >= threshold {
				targets = append(targets, s.ID)
			}
		}
	case "ip":
		for _, s := range all {
			if ok, _ := filepath.Match(req.Value, s.RemoteAddr); ok {
				targets = append(targets, s.ID)
			}
		}
	case "all-except":
		except, err := strconv.ParseUint(req.Value, 10, 32)
		if err != nil {
			return protocol.TypeError, nil, errtax.InvalidArgument.Errorf("malformed session id %q: %v", req.Value, err)
		}
		for _, s := range all {
			if s.ID != uint32(except) {
				targets = append(targets, s.ID)
			}
		}
	default:
		return protocol.TypeError, nil, errtax.InvalidArgument.Errorf("unknown bulk disconnect mode %q", req.Mode)
	}

	for _, id := range targets {
		_ = h.disconnect(id, false)
	}
	return protocol.TypeAdminAck, protocol.Ack{}, nil
}
