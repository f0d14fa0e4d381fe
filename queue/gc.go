package queue

import "time"

// DefaultRetentionGrace is how long a terminal job is kept around after
// EndedAt so a ResultRequest can still reach it, per spec.md §4.Q's
// "grace period (default one hour)".
const DefaultRetentionGrace = time.Hour

// GC removes every terminal job whose EndedAt is older than grace,
// invoking cleanup(jobID) for each (wired by the caller to the file
// manager's CleanupJob) before dropping it from the index. Returns how
// many jobs were collected. A grace <= 0 selects DefaultRetentionGrace.
func (q *Queue) GC(grace time.Duration, cleanup func(jobID uint32)) int {
	if grace <= 0 {
		grace = DefaultRetentionGrace
	}
	cutoff := time.Now().Add(-grace)

	q.mu.Lock()
	var stale []uint32
	for id, j := range q.byID {
		j.mu.Lock()
		terminal := j.state.Terminal()
		ended := j.EndedAt
		j.mu.Unlock()
		if terminal && !ended.IsZero() && ended.Before(cutoff) {
			stale = append(stale, id)
		}
	}
	q.mu.Unlock()

	for _, id := range stale {
		if cleanup != nil {
			cleanup(id)
		}
		q.remove(id)
	}
	return len(stale)
}
