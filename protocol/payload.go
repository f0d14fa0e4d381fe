package protocol

// Hello is sent by a client on connect and echoed back (as HelloAck) by
// the server, each carrying self-reported identity.
type Hello struct {
	Name     string `cbor:"name"`
	Platform string `cbor:"platform"`
	Version  string `cbor:"version"`
}

// Ack is an empty acknowledgement payload.
type Ack struct{}

// FileUploadStart opens an upload; Size is the total expected byte count.
type FileUploadStart struct {
	Filename string `cbor:"filename"`
	Size     uint64 `cbor:"size"`
}

// FileUploadChunk carries one chunk of an in-progress upload.
type FileUploadChunk struct {
	Data []byte `cbor:"data"`
}

// FileUploadEnd closes an upload.
type FileUploadEnd struct{}

// CompileRequest asks the server to compile and/or run an uploaded file.
type CompileRequest struct {
	Language      string   `cbor:"language"`
	Mode          string   `cbor:"mode"`
	Filename      string   `cbor:"filename"`
	CompilerArgs  []string `cbor:"compiler_args"`
	ExecutionArgs []string `cbor:"execution_args"`
	Priority      uint8    `cbor:"priority"`
}

// CompileResponse reports a job's queued state, or its terminal result.
type CompileResponse struct {
	JobID    uint32 `cbor:"job_id"`
	Status   string `cbor:"status"`
	ExitCode int32  `cbor:"exit_code"`
	OutSize  uint64 `cbor:"out_size"`
	ErrSize  uint64 `cbor:"err_size"`
	TimeMs   uint64 `cbor:"time_ms"`
	Stdout   []byte `cbor:"stdout,omitempty"`
	Stderr   []byte `cbor:"stderr,omitempty"`
}

// StatusRequest polls for a job's current state.
type StatusRequest struct {
	JobID uint32 `cbor:"job_id"`
}

// JobStatus is the reply to a StatusRequest.
type JobStatus struct {
	JobID    uint32 `cbor:"job_id"`
	Status   string `cbor:"status"`
	Progress uint8  `cbor:"progress"`
	Pid      int32  `cbor:"pid"`
}

// ResultRequest asks for a terminal job's captured output.
type ResultRequest struct {
	JobID uint32 `cbor:"job_id"`
}

// Ping/Pong are liveness probes.
type Ping struct{}
type Pong struct{}

// ErrorPayload is the MSG_ERROR projection of an errtax.Error.
type ErrorPayload struct {
	Code    uint16 `cbor:"code"`
	Message string `cbor:"message"`
	Context string `cbor:"context"`
}

// Admin payloads, §4.A.

type AdminConnect struct{}

type AdminListClients struct {
	Filter   string `cbor:"filter"`
	Detailed bool   `cbor:"detailed"`
}

type AdminListJobs struct {
	// Scope is one of "active", "all", "completed", "client".
	Scope    string `cbor:"scope"`
	ClientID uint32 `cbor:"client_id"`
}

type AdminServerStats struct {
	Detailed bool `cbor:"detailed"`
	JSON     bool `cbor:"json"`
}

type AdminDisconnectClient struct {
	SessionID uint32 `cbor:"session_id"`
	Force     bool   `cbor:"force"`
}

type AdminKillJob struct {
	JobID uint32 `cbor:"job_id"`
	Force bool   `cbor:"force"`
}

type AdminServerShutdown struct {
	Graceful     bool   `cbor:"graceful"`
	DelaySeconds uint32 `cbor:"delay_seconds"`
}

// AdminConfigCmd implements Config{Get|Set|List}. Op is one of
// "get", "set", "list".
type AdminConfigCmd struct {
	Op    string `cbor:"op"`
	Key   string `cbor:"key"`
	Value string `cbor:"value"`
}

// AdminBulkDisconnect implements BulkDisconnect{idle=T | ip=pattern | all-except=id}.
type AdminBulkDisconnect struct {
	Mode  string `cbor:"mode"` // "idle", "ip", "all-except"
	Value string `cbor:"value"`
}

// AdminTextTable carries a pre-formatted text table (ListClients, ListJobs,
// Config List).
type AdminTextTable struct {
	Rows []string `cbor:"rows"`
}

// AdminStatsPayload is the binary server-statistics snapshot.
type AdminStatsPayload struct {
	StartUnixMs          int64   `cbor:"start_unix_ms"`
	SessionsTotal        uint64  `cbor:"sessions_total"`
	SessionsActive       uint64  `cbor:"sessions_active"`
	JobsTotal            uint64  `cbor:"jobs_total"`
	JobsActive           uint64  `cbor:"jobs_active"`
	JobsCompleted        uint64  `cbor:"jobs_completed"`
	JobsFailed           uint64  `cbor:"jobs_failed"`
	JobsCancelled        uint64  `cbor:"jobs_cancelled"`
	JobsTimeout          uint64  `cbor:"jobs_timeout"`
	BytesIn              uint64  `cbor:"bytes_in"`
	BytesOut             uint64  `cbor:"bytes_out"`
	AvgJobWallTimeMs     float64 `cbor:"avg_job_wall_time_ms"`
	SuccessfulCompiles   uint64  `cbor:"successful_compilations"`
	FailedCompiles       uint64  `cbor:"failed_compilations"`
	SuccessfulExecutions uint64  `cbor:"successful_executions"`
	FailedExecutions     uint64  `cbor:"failed_executions"`
	// Detailed-only host metrics (gopsutil), zero when not requested.
	HostLoad1    float64 `cbor:"host_load1,omitempty"`
	HostMemUsedP float64 `cbor:"host_mem_used_pct,omitempty"`
}
