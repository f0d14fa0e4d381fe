package fileman

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/sabouaram/codexec/errtax"
)

// Manager owns a root directory tree, one subdirectory per job, and the
// in-memory index of every file it has written under that tree. All of
// its exported methods are safe for concurrent use.
type Manager struct {
	mu    sync.Mutex
	root  string
	index map[string]*Entry

	maxFileSize int64
}

// NewManager creates (if needed) root with DirPerm and returns a Manager
// rooted there.
func NewManager(root string, maxFileSize int64) (*Manager, error) {
	if err := os.MkdirAll(root, DirPerm.FileMode()); err != nil {
		return nil, errtax.FileIo.Errorf("create root %q: %v", root, err)
	}
	return &Manager{
		root:        root,
		index:       make(map[string]*Entry),
		maxFileSize: maxFileSize,
	}, nil
}

func (m *Manager) jobDir(jobID uint32) string {
	return filepath.Join(m.root, fmt.Sprintf("job_%d", jobID))
}

// resolve returns the absolute path of a name previously handed out by
// SaveUploaded or CreateTemp, refusing anything that would resolve
// outside m.root.
func (m *Manager) resolve(fullPath string) (string, error) {
	clean := filepath.Clean(fullPath)
	rel, err := filepath.Rel(m.root, clean)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", errtax.Permission.Errorf("path escapes managed root: %q", fullPath)
	}
	return clean, nil
}

// SaveUploaded validates filename, enforces the size cap, and writes data
// with an exclusive create so two uploads can never silently clobber one
// another: the second one fails instead of overwriting the first.
func (m *Manager) SaveUploaded(jobID, sessionID uint32, filename string, data []byte) (string, error) {
	if err := ValidateFilename(filename); err != nil {
		return "", err
	}
	if m.maxFileSize > 0 && int64(len(data)) > m.maxFileSize {
		return "", errtax.QuotaExceeded.Errorf("upload %q exceeds max file size %d bytes", filename, m.maxFileSize)
	}

	dir := m.jobDir(jobID)
	if err := os.MkdirAll(dir, DirPerm.FileMode()); err != nil {
		return "", errtax.FileIo.Errorf("create job dir: %v", err)
	}
	full := filepath.Join(dir, filename)

	f, err := os.OpenFile(full, os.O_CREATE|os.O_EXCL|os.O_WRONLY, FilePerm.FileMode())
	if err != nil {
		return "", errtax.FileIo.Errorf("create %q: %v", full, err)
	}
	if _, err = f.Write(data); err != nil {
		_ = f.Close()
		_ = os.Remove(full)
		return "", errtax.FileIo.Errorf("write %q: %v", full, err)
	}
	if err = f.Close(); err != nil {
		_ = os.Remove(full)
		return "", errtax.FileIo.Errorf("close %q: %v", full, err)
	}

	now := time.Now()
	m.mu.Lock()
	m.index[full] = &Entry{
		Filename: filename, FullPath: full,
		JobID: jobID, SessionID: sessionID,
		Size: int64(len(data)), IsTemporary: false,
		CreatedAt: now, LastAccessed: now,
	}
	m.mu.Unlock()
	return full, nil
}

// Load reads back a tracked file and refreshes its last-accessed time.
func (m *Manager) Load(fullPath string) ([]byte, error) {
	clean, err := m.resolve(fullPath)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	entry, ok := m.index[clean]
	m.mu.Unlock()
	if !ok {
		return nil, errtax.NotFound.Errorf("unknown file: %q", fullPath)
	}

	data, err := os.ReadFile(clean)
	if err != nil {
		return nil, errtax.FileIo.Errorf("read %q: %v", clean, err)
	}

	m.mu.Lock()
	entry.LastAccessed = time.Now()
	m.mu.Unlock()
	return data, nil
}

// CreateTemp mints a collision-free scratch file under the job's
// directory, named temp_{epoch}_{pid}_{seq}.{suffix}. The seq component
// is a uuid fragment rather than a hand-rolled counter, so two
// supervisors racing to create temp files for the same job never
// collide even across process restarts.
func (m *Manager) CreateTemp(jobID uint32, suffix string) (string, error) {
	dir := m.jobDir(jobID)
	if err := os.MkdirAll(dir, DirPerm.FileMode()); err != nil {
		return "", errtax.FileIo.Errorf("create job dir: %v", err)
	}

	seq := uuid.New().String()[:8]
	name := fmt.Sprintf("temp_%d_%d_%s.%s", time.Now().Unix(), os.Getpid(), seq, suffix)
	full := filepath.Join(dir, name)

	f, err := os.OpenFile(full, os.O_CREATE|os.O_EXCL|os.O_WRONLY, FilePerm.FileMode())
	if err != nil {
		return "", errtax.FileIo.Errorf("create temp %q: %v", full, err)
	}
	if err = f.Close(); err != nil {
		_ = os.Remove(full)
		return "", errtax.FileIo.Errorf("close temp %q: %v", full, err)
	}

	now := time.Now()
	m.mu.Lock()
	m.index[full] = &Entry{
		Filename: name, FullPath: full,
		JobID: jobID, IsTemporary: true,
		CreatedAt: now, LastAccessed: now,
	}
	m.mu.Unlock()
	return full, nil
}

// CleanupJob unlinks every tracked file belonging to jobID and returns
// how many were removed.
func (m *Manager) CleanupJob(jobID uint32) (int, error) {
	m.mu.Lock()
	var toRemove []string
	for path, e := range m.index {
		if e.JobID == jobID {
			toRemove = append(toRemove, path)
		}
	}
	m.mu.Unlock()

	count := 0
	for _, path := range toRemove {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return count, errtax.FileIo.Errorf("remove %q: %v", path, err)
		}
		m.mu.Lock()
		delete(m.index, path)
		m.mu.Unlock()
		count++
	}
	_ = os.Remove(m.jobDir(jobID))
	return count, nil
}

// ListJob returns a snapshot of every entry tracked for jobID.
func (m *Manager) ListJob(jobID uint32) []Entry {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]Entry, 0)
	for _, e := range m.index {
		if e.JobID == jobID {
			out = append(out, *e)
		}
	}
	return out
}

// WriteTemp mints a temp file exactly like CreateTemp and immediately
// writes data into it, updating the tracked size. Used to persist a
// job's captured stdout/stderr once its sandbox directory is gone.
func (m *Manager) WriteTemp(jobID uint32, suffix string, data []byte) (string, error) {
	full, err := m.CreateTemp(jobID, suffix)
	if err != nil {
		return "", err
	}
	if len(data) == 0 {
		return full, nil
	}
	if err := os.WriteFile(full, data, FilePerm.FileMode()); err != nil {
		return "", errtax.FileIo.Errorf("write temp %q: %v", full, err)
	}
	m.mu.Lock()
	if e, ok := m.index[full]; ok {
		e.Size = int64(len(data))
	}
	m.mu.Unlock()
	return full, nil
}

// Info returns the tracked entry for fullPath.
func (m *Manager) Info(fullPath string) (Entry, error) {
	clean, err := m.resolve(fullPath)
	if err != nil {
		return Entry{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.index[clean]
	if !ok {
		return Entry{}, errtax.NotFound.Errorf("unknown file: %q", fullPath)
	}
	return *e, nil
}
