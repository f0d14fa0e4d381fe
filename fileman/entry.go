package fileman

import "time"

// Entry is everything the manager tracks about one file under its roots.
type Entry struct {
	Filename     string
	FullPath     string
	JobID        uint32
	SessionID    uint32
	Size         int64
	IsTemporary  bool
	CreatedAt    time.Time
	LastAccessed time.Time
}
