package queue

import "time"

// WaitEstimate returns how long a queued job can expect to wait: the
// number of active (Queued or Running) entries ahead of it, times
// meanWallTime. ok is false if jobID is unknown or no longer Queued.
func (q *Queue) WaitEstimate(jobID uint32, meanWallTime time.Duration) (time.Duration, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	var ahead int
	found := false
	for el := q.items.Front(); el != nil; el = el.Next() {
		j := el.Value.(*Job)
		if j.ID == jobID {
			found = j.State() == StateQueued
			break
		}
		if j.State() == StateQueued || j.State() == StateRunning {
			ahead++
		}
	}
	if !found {
		return 0, false
	}
	return time.Duration(ahead) * meanWallTime, true
}
