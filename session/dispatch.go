package session

import (
	"time"

	"github.com/sabouaram/codexec/compiler"
	"github.com/sabouaram/codexec/errtax"
	"github.com/sabouaram/codexec/fileman"
	"github.com/sabouaram/codexec/protocol"
	"github.com/sabouaram/codexec/queue"
	"github.com/sabouaram/codexec/stats"
)

// Handler turns protocol.Message traffic into fileman/queue calls, per
// the per-type table in spec.md §4.S.
type Handler struct {
	Manager *Manager
	Files   *fileman.Manager
	// Outgoing is where a finished job's retained stdout/stderr live
	// (spec.md §6's {outgoing_root}/); falls back to Files if nil, so
	// tests that only wire one manager keep working.
	Outgoing  *fileman.Manager
	Queue     *queue.Queue
	Stats     *stats.Stats
	Registry  *compiler.Registry
	MaxUpload uint64
}

func (h *Handler) resultStore() *fileman.Manager {
	if h.Outgoing != nil {
		return h.Outgoing
	}
	return h.Files
}

// Dispatch handles one decoded message for sess and returns the typed
// reply payload plus its wire Type, or an error to be surfaced as an
// Error payload on the same correlation id.
func (h *Handler) Dispatch(sess *Session, msg protocol.Message) (protocol.Type, interface{}, error) {
	sess.touch()

	switch msg.Header.Type {
	case protocol.TypeHello:
		return h.handleHello(sess, msg)
	case protocol.TypeFileUploadStart:
		return h.handleUploadStart(sess, msg)
	case protocol.TypeFileUploadChunk:
		return h.handleUploadChunk(sess, msg)
	case protocol.TypeFileUploadEnd:
		return h.handleUploadEnd(sess, msg)
	case protocol.TypeCompileRequest:
		return h.handleCompileRequest(sess, msg)
	case protocol.TypeStatusRequest:
		return h.handleStatusRequest(sess, msg)
	case protocol.TypeResultRequest:
		return h.handleResultRequest(sess, msg)
	case protocol.TypePing:
		return protocol.TypePong, protocol.Pong{}, nil
	default:
		return protocol.TypeError, nil, errtax.InvalidArgument.Errorf("unhandled message type %d", msg.Header.Type)
	}
}

func (h *Handler) handleHello(sess *Session, msg protocol.Message) (protocol.Type, interface{}, error) {
	if sess.State() != StateConnecting {
		return protocol.TypeError, nil, errtax.Permission.Errorf("hello only valid while connecting")
	}
	var hello protocol.Hello
	if err := protocol.Unmarshal(msg.Payload, &hello); err != nil {
		return protocol.TypeError, nil, errtax.InvalidArgument.Errorf("malformed hello: %v", err)
	}

	sess.mu.Lock()
	sess.Name = hello.Name
	sess.Platform = hello.Platform
	sess.ClientVersion = hello.Version
	sess.mu.Unlock()
	sess.setState(StateAuthenticated)

	return protocol.TypeHelloAck, protocol.Hello{Name: "server", Platform: "linux", Version: "1.0.0"}, nil
}

func (h *Handler) handleUploadStart(sess *Session, msg protocol.Message) (protocol.Type, interface{}, error) {
	if st := sess.State(); st != StateAuthenticated && st != StateIdle {
		return protocol.TypeError, nil, errtax.Permission.Errorf("upload start requires Authenticated/Idle, got %s", st)
	}
	var start protocol.FileUploadStart
	if err := protocol.Unmarshal(msg.Payload, &start); err != nil {
		return protocol.TypeError, nil, errtax.InvalidArgument.Errorf("malformed upload start: %v", err)
	}
	if err := fileman.ValidateFilename(start.Filename); err != nil {
		return protocol.TypeError, nil, err
	}
	if h.MaxUpload > 0 && start.Size > h.MaxUpload {
		return protocol.TypeError, nil, errtax.QuotaExceeded.Errorf("upload of %d bytes exceeds max %d", start.Size, h.MaxUpload)
	}

	sess.startUpload(start.Filename, start.Size)
	sess.setState(StateUploading)
	return protocol.TypeAck, protocol.Ack{}, nil
}

func (h *Handler) handleUploadChunk(sess *Session, msg protocol.Message) (protocol.Type, interface{}, error) {
	if sess.State() != StateUploading {
		return protocol.TypeError, nil, errtax.Permission.Errorf("upload chunk outside an active upload")
	}
	var chunk protocol.FileUploadChunk
	if err := protocol.Unmarshal(msg.Payload, &chunk); err != nil {
		return protocol.TypeError, nil, errtax.InvalidArgument.Errorf("malformed upload chunk: %v", err)
	}
	if !sess.appendUpload(chunk.Data) {
		return protocol.TypeError, nil, errtax.Internal.Errorf("no upload in progress")
	}
	sess.addBytesIn(uint64(len(chunk.Data)))
	if h.Stats != nil {
		h.Stats.AddBytesIn(uint64(len(chunk.Data)))
	}
	return protocol.TypeAck, protocol.Ack{}, nil
}

func (h *Handler) handleUploadEnd(sess *Session, msg protocol.Message) (protocol.Type, interface{}, error) {
	if sess.State() != StateUploading {
		return protocol.TypeError, nil, errtax.Permission.Errorf("upload end outside an active upload")
	}
	sess.setState(StateIdle)
	return protocol.TypeAck, protocol.Ack{}, nil
}

func (h *Handler) handleCompileRequest(sess *Session, msg protocol.Message) (protocol.Type, interface{}, error) {
	if sess.State() != StateIdle && sess.State() != StateAuthenticated {
		return protocol.TypeError, nil, errtax.Permission.Errorf("compile request requires Idle, got %s", sess.State())
	}
	var req protocol.CompileRequest
	if err := protocol.Unmarshal(msg.Payload, &req); err != nil {
		return protocol.TypeError, nil, errtax.InvalidArgument.Errorf("malformed compile request: %v", err)
	}
	if req.Language == "" {
		return protocol.TypeError, nil, errtax.InvalidArgument.Errorf("language is required")
	}

	sess.mu.Lock()
	upload := sess.upload
	sess.upload = nil
	sess.mu.Unlock()
	if upload == nil || upload.filename != req.Filename {
		return protocol.TypeError, nil, errtax.NotFound.Errorf("no uploaded source named %q", req.Filename)
	}

	jobID := queue.NextJobID()
	srcPath, err := h.Files.SaveUploaded(jobID, sess.ID, req.Filename, upload.data)
	if err != nil {
		return protocol.TypeError, nil, err
	}

	priority := req.Priority
	if priority == 0 {
		priority = 5
	}

	var langVersion string
	if h.Registry != nil {
		if desc, ok := h.Registry.Resolve(compiler.Language(req.Language)); ok {
			langVersion = desc.CompilerVersion
			if langVersion == "" {
				langVersion = desc.RuntimeVersion
			}
		}
	}

	job := &queue.Job{
		ID:              jobID,
		OwnerSessionID:  sess.ID,
		Language:        req.Language,
		LanguageVersion: langVersion,
		Mode:            queue.Mode(req.Mode),
		Priority:        priority,
		SourcePath:      srcPath,
		CompilerArgs:    req.CompilerArgs,
		ExecutionArgs:   req.ExecutionArgs,
	}
	if err := h.Queue.Submit(job); err != nil {
		return protocol.TypeError, nil, err
	}

	sess.incActiveJobs(1)
	sess.setState(StateProcessing)
	if h.Stats != nil {
		h.Stats.JobSubmitted()
	}

	return protocol.TypeCompileResponse, protocol.CompileResponse{JobID: jobID, Status: string(queue.StateQueued)}, nil
}

func (h *Handler) handleStatusRequest(sess *Session, msg protocol.Message) (protocol.Type, interface{}, error) {
	var req protocol.StatusRequest
	if err := protocol.Unmarshal(msg.Payload, &req); err != nil {
		return protocol.TypeError, nil, errtax.InvalidArgument.Errorf("malformed status request: %v", err)
	}
	job, ok := h.Queue.Find(req.JobID)
	if !ok {
		return protocol.TypeError, nil, errtax.NotFound.Errorf("no such job %d", req.JobID)
	}
	snap := job.Snapshot()
	if snap.OwnerSessionID != sess.ID {
		return protocol.TypeError, nil, errtax.Permission.Errorf("job %d is not owned by this session", req.JobID)
	}

	if snap.State.Terminal() {
		sess.incActiveJobs(-1)
		sess.setState(StateIdle)
	}

	return protocol.TypeJobStatus, protocol.JobStatus{
		JobID:    snap.ID,
		Status:   string(snap.State),
		Progress: progressFor(snap.State),
		Pid:      int32(snap.Pid),
	}, nil
}

func (h *Handler) handleResultRequest(sess *Session, msg protocol.Message) (protocol.Type, interface{}, error) {
	var req protocol.ResultRequest
	if err := protocol.Unmarshal(msg.Payload, &req); err != nil {
		return protocol.TypeError, nil, errtax.InvalidArgument.Errorf("malformed result request: %v", err)
	}
	job, ok := h.Queue.Find(req.JobID)
	if !ok {
		return protocol.TypeError, nil, errtax.NotFound.Errorf("no such job %d", req.JobID)
	}
	snap := job.Snapshot()
	if snap.OwnerSessionID != sess.ID {
		return protocol.TypeError, nil, errtax.Permission.Errorf("job %d is not owned by this session", req.JobID)
	}
	if !snap.State.Terminal() {
		return protocol.TypeError, nil, errtax.InvalidArgument.Errorf("job %d has not finished (%s)", req.JobID, snap.State)
	}

	var stdout, stderr []byte
	store := h.resultStore()
	if snap.OutputPath != "" {
		stdout, _ = store.Load(snap.OutputPath)
	}
	if snap.ErrorPath != "" {
		stderr, _ = store.Load(snap.ErrorPath)
	}

	timeMs := uint64(0)
	if !snap.StartedAt.IsZero() && !snap.EndedAt.IsZero() {
		timeMs = uint64(snap.EndedAt.Sub(snap.StartedAt) / time.Millisecond)
	}

	return protocol.TypeCompileResponse, protocol.CompileResponse{
		JobID:    snap.ID,
		Status:   string(snap.State),
		ExitCode: int32(snap.ExitCode),
		OutSize:  snap.OutputSize,
		ErrSize:  snap.ErrorSize,
		TimeMs:   timeMs,
		Stdout:   stdout,
		Stderr:   stderr,
	}, nil
}

// progressFor is a coarse, three-point progress indicator: JobStatus
// carries no finer granularity than state in this revision.
func progressFor(st queue.State) uint8 {
	switch {
	case st == queue.StateQueued:
		return 0
	case st == queue.StateRunning:
		return 50
	case st.Terminal():
		return 100
	default:
		return 0
	}
}
