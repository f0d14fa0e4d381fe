package queue

import (
	"container/list"
	"sync"
	"time"

	"github.com/sabouaram/codexec/errtax"
)

// DefaultMaxSize is the queue's capacity per spec.md §4.Q.
const DefaultMaxSize = 10000

// Queue is a linked FIFO of jobs guarded by a mutex and condition
// variable: submission appends to the tail and signals the condition,
// the supervisor waits on it when empty. It is not a sorted structure —
// priority is applied by the separate, rarely-called Reorder.
type Queue struct {
	mu      sync.Mutex
	cond    *sync.Cond
	items   *list.List
	byID    map[uint32]*Job
	maxSize int
	closed  bool
}

// New returns an empty Queue capped at maxSize entries (DefaultMaxSize
// if maxSize <= 0).
func New(maxSize int) *Queue {
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}
	q := &Queue{
		items:   list.New(),
		byID:    make(map[uint32]*Job),
		maxSize: maxSize,
	}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// Submit appends job to the tail and wakes the supervisor.
func (q *Queue) Submit(job *Job) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.items.Len() >= q.maxSize {
		return errtax.QuotaExceeded.Errorf("job queue full (max %d)", q.maxSize)
	}
	job.setState(StateQueued)
	job.mu.Lock()
	job.SubmittedAt = time.Now()
	job.mu.Unlock()
	q.items.PushBack(job)
	q.byID[job.ID] = job
	q.cond.Signal()
	return nil
}

// popHead blocks until a job is available or the queue is shut down,
// returning ok=false only once the queue is closed and drained.
func (q *Queue) popHead() (*Job, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for q.items.Len() == 0 && !q.closed {
		q.cond.Wait()
	}
	if q.items.Len() == 0 {
		return nil, false
	}
	el := q.items.Front()
	q.items.Remove(el)
	return el.Value.(*Job), true
}

// Shutdown wakes the supervisor so it can observe no more jobs are
// coming; jobs already in the list are still drained before popHead
// starts returning ok=false.
func (q *Queue) Shutdown() {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()
	q.cond.Broadcast()
}

// Count returns the number of jobs currently queued (not including
// Running or terminal jobs already popped).
func (q *Queue) Count() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.items.Len()
}

// Find returns the job tracked under jobID, whatever its state.
func (q *Queue) Find(jobID uint32) (*Job, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	j, ok := q.byID[jobID]
	return j, ok
}

// ListFor returns every job owned by sessionID: the ones still in the
// queue first, in queue order, then the ones already popped (Running or
// terminal) in no particular order.
func (q *Queue) ListFor(sessionID uint32) []*Job {
	q.mu.Lock()
	defer q.mu.Unlock()

	out := make([]*Job, 0)
	for el := q.items.Front(); el != nil; el = el.Next() {
		if j := el.Value.(*Job); j.OwnerSessionID == sessionID {
			out = append(out, j)
		}
	}
	// Running/terminal jobs have already left the list but are still
	// tracked in byID; include them too so list_for covers a job's
	// whole lifetime, not just its time in the queue proper.
	for _, j := range q.byID {
		if j.OwnerSessionID == sessionID && !inList(q.items, j) {
			out = append(out, j)
		}
	}
	return out
}

// All returns every job the queue still tracks, queued or terminal,
// in no particular order. Used by the admin plane's ListJobs "all" and
// "completed" scopes.
func (q *Queue) All() []*Job {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]*Job, 0, len(q.byID))
	for _, j := range q.byID {
		out = append(out, j)
	}
	return out
}

func inList(l *list.List, job *Job) bool {
	for el := l.Front(); el != nil; el = el.Next() {
		if el.Value.(*Job) == job {
			return true
		}
	}
	return false
}

// remove drops jobID from both the list (if still present) and the
// lookup index. Used by GC.
func (q *Queue) remove(jobID uint32) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for el := q.items.Front(); el != nil; el = el.Next() {
		if el.Value.(*Job).ID == jobID {
			q.items.Remove(el)
			break
		}
	}
	delete(q.byID, jobID)
}
