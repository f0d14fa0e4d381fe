package admin

import (
	"sort"
	"sync"

	"github.com/sabouaram/codexec/errtax"
)

// ConfigStore is the small whitelist of runtime tunables Config{Get|Set|
// List} reads and writes. admin defines the interface rather than
// importing package config directly, the same pattern queue.Recorder
// uses for stats: the concrete store (config.Runtime, wired by daemon)
// never needs to know admin exists.
type ConfigStore interface {
	Get(key string) (string, bool)
	Set(key, value string) error
	List() map[string]string
}

// ConfigKeys is the closed set of keys Config{Get|Set|List} accepts;
// anything else is InvalidArgument. ListConfig renders them sorted by
// name, not in the order listed here.
var ConfigKeys = []string{
	"max_upload_bytes",
	"compile_timeout_seconds",
	"exec_timeout_seconds",
	"client_idle_timeout_seconds",
	"queue_max_size",
	"retention_grace_seconds",
}

func isKnownKey(key string) bool {
	for _, k := range ConfigKeys {
		if k == key {
			return true
		}
	}
	return false
}

func sortedConfigKeys() []string {
	out := append([]string(nil), ConfigKeys...)
	sort.Strings(out)
	return out
}

// MemoryStore is a mutex-guarded ConfigStore seeded with ConfigKeys,
// used by tests and as a minimal standalone default; production wiring
// hands the daemon's own config.Runtime (whatever backs the running
// server's actual tunables) in its place.
type MemoryStore struct {
	mu     sync.Mutex
	values map[string]string
}

// NewMemoryStore returns a MemoryStore with every known key present but
// set to the empty string.
func NewMemoryStore() *MemoryStore {
	m := &MemoryStore{values: make(map[string]string, len(ConfigKeys))}
	for _, k := range ConfigKeys {
		m.values[k] = ""
	}
	return m
}

func (m *MemoryStore) Get(key string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.values[key]
	return v, ok
}

func (m *MemoryStore) Set(key, value string) error {
	if !isKnownKey(key) {
		return errtax.InvalidArgument.Errorf("unknown config key %q", key)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}

func (m *MemoryStore) List() map[string]string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]string, len(m.values))
	for k, v := range m.values {
		out[k] = v
	}
	return out
}
