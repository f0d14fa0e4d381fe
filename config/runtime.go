package config

import (
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/sabouaram/codexec/admin"
	"github.com/sabouaram/codexec/errtax"
)

// Duration is a small, string-encodable wrapper over time.Duration,
// trimmed from the teacher's days-aware nabbar-golib/duration type down
// to what this service's tunables actually need: every timeout here is
// sub-day, so the "5d23h15m13s" day notation has no call site and is
// left out, but the UnmarshalText/MarshalText shape viper's mapstructure
// decode hook (mapstructure.TextUnmarshallerHookFunc) looks for is kept.
type Duration time.Duration

func (d Duration) Time() time.Duration { return time.Duration(d) }
func (d Duration) String() string      { return time.Duration(d).String() }

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Duration) UnmarshalText(b []byte) error {
	parsed, err := time.ParseDuration(string(b))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", string(b), err)
	}
	*d = Duration(parsed)
	return nil
}

// Defaults per spec.md §5's "Timeouts" table and §4.Q's queue/retention
// defaults.
const (
	DefaultMaxUploadBytes      = 64 << 20
	DefaultCompileTimeout      = 300 * time.Second
	DefaultExecTimeout         = 60 * time.Second
	DefaultClientIdleTimeout   = 300 * time.Second
	DefaultQueueMaxSize        = 10000
	DefaultRetentionGraceTime  = time.Hour
)

// Runtime is the server's live, mutex-guarded view of the six tunables
// admin.ConfigKeys whitelists. Startup-only settings (listen addresses,
// working directories) are not here: those are cobra flags read once at
// boot, not values a running server's Config{Get|Set} can touch.
type Runtime struct {
	mu sync.Mutex

	MaxUploadBytes    uint64
	CompileTimeout    Duration
	ExecTimeout       Duration
	ClientIdleTimeout Duration
	QueueMaxSize      int
	RetentionGrace    Duration
}

// NewRuntime returns a Runtime seeded with this service's defaults.
func NewRuntime() *Runtime {
	return &Runtime{
		MaxUploadBytes:    DefaultMaxUploadBytes,
		CompileTimeout:    Duration(DefaultCompileTimeout),
		ExecTimeout:       Duration(DefaultExecTimeout),
		ClientIdleTimeout: Duration(DefaultClientIdleTimeout),
		QueueMaxSize:      DefaultQueueMaxSize,
		RetentionGrace:    Duration(DefaultRetentionGraceTime),
	}
}

var _ admin.ConfigStore = (*Runtime)(nil)

// Get implements admin.ConfigStore.
func (r *Runtime) Get(key string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch key {
	case "max_upload_bytes":
		return strconv.FormatUint(r.MaxUploadBytes, 10), true
	case "compile_timeout_seconds":
		return strconv.FormatFloat(r.CompileTimeout.Time().Seconds(), 'f', -1, 64), true
	case "exec_timeout_seconds":
		return strconv.FormatFloat(r.ExecTimeout.Time().Seconds(), 'f', -1, 64), true
	case "client_idle_timeout_seconds":
		return strconv.FormatFloat(r.ClientIdleTimeout.Time().Seconds(), 'f', -1, 64), true
	case "queue_max_size":
		return strconv.Itoa(r.QueueMaxSize), true
	case "retention_grace_seconds":
		return strconv.FormatFloat(r.RetentionGrace.Time().Seconds(), 'f', -1, 64), true
	default:
		return "", false
	}
}

// Set implements admin.ConfigStore, validating key against the closed
// whitelist and value against each field's own type before applying it.
func (r *Runtime) Set(key, value string) error {
	switch key {
	case "max_upload_bytes":
		v, err := strconv.ParseUint(value, 10, 64)
		if err != nil {
			return errtax.InvalidArgument.Errorf("max_upload_bytes must be a non-negative integer: %v", err)
		}
		r.mu.Lock()
		r.MaxUploadBytes = v
		r.mu.Unlock()

	case "compile_timeout_seconds":
		return r.setSeconds(&r.CompileTimeout, value)
	case "exec_timeout_seconds":
		return r.setSeconds(&r.ExecTimeout, value)
	case "client_idle_timeout_seconds":
		return r.setSeconds(&r.ClientIdleTimeout, value)
	case "retention_grace_seconds":
		return r.setSeconds(&r.RetentionGrace, value)

	case "queue_max_size":
		v, err := strconv.Atoi(value)
		if err != nil || v <= 0 {
			return errtax.InvalidArgument.Errorf("queue_max_size must be a positive integer")
		}
		r.mu.Lock()
		r.QueueMaxSize = v
		r.mu.Unlock()

	default:
		return errtax.InvalidArgument.Errorf("unknown config key %q", key)
	}
	return nil
}

func (r *Runtime) setSeconds(field *Duration, value string) error {
	secs, err := strconv.ParseFloat(value, 64)
	if err != nil || secs < 0 {
		return errtax.InvalidArgument.Errorf("expected a non-negative number of seconds, got %q", value)
	}
	r.mu.Lock()
	*field = Duration(time.Duration(secs * float64(time.Second)))
	r.mu.Unlock()
	return nil
}

// List implements admin.ConfigStore.
func (r *Runtime) List() map[string]string {
	out := make(map[string]string, len(admin.ConfigKeys))
	for _, k := range admin.ConfigKeys {
		v, _ := r.Get(k)
		out[k] = v
	}
	return out
}
