package queue_test

import (
	"time"

	"github.com/sabouaram/codexec/queue"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Queue", func() {
	It("queues submissions in FIFO order", func() {
		q := queue.New(10)
		ids := []uint32{queue.NextJobID(), queue.NextJobID(), queue.NextJobID()}
		for _, id := range ids {
			Expect(q.Submit(&queue.Job{ID: id})).To(Succeed())
		}
		Expect(q.Count()).To(Equal(3))

		list := q.ListFor(0)
		Expect(list).To(HaveLen(3))
		for i, want := range ids {
			Expect(list[i].ID).To(Equal(want))
		}

		for _, want := range ids {
			j, ok := q.Find(want)
			Expect(ok).To(BeTrue())
			Expect(j.State()).To(Equal(queue.StateQueued))
		}
	})

	It("rejects submission past max_size", func() {
		q := queue.New(1)
		Expect(q.Submit(&queue.Job{ID: queue.NextJobID()})).To(Succeed())
		err := q.Submit(&queue.Job{ID: queue.NextJobID()})
		Expect(err).To(HaveOccurred())
	})

	It("cancels a Queued job in place", func() {
		q := queue.New(10)
		id := queue.NextJobID()
		Expect(q.Submit(&queue.Job{ID: id})).To(Succeed())

		Expect(q.Cancel(id, false)).To(Succeed())

		j, _ := q.Find(id)
		Expect(j.State()).To(Equal(queue.StateCancelled))
	})

	It("lists every tracked job via All regardless of state", func() {
		q := queue.New(10)
		a := &queue.Job{ID: queue.NextJobID()}
		b := &queue.Job{ID: queue.NextJobID()}
		Expect(q.Submit(a)).To(Succeed())
		Expect(q.Submit(b)).To(Succeed())
		Expect(q.Cancel(b.ID, false)).To(Succeed())

		all := q.All()
		Expect(all).To(HaveLen(2))
	})

	It("reorders contiguous Queued entries by priority", func() {
		q := queue.New(10)
		low := &queue.Job{ID: queue.NextJobID(), Priority: 1}
		high := &queue.Job{ID: queue.NextJobID(), Priority: 9}
		Expect(q.Submit(low)).To(Succeed())
		Expect(q.Submit(high)).To(Succeed())

		q.Reorder()

		list := q.ListFor(0)
		Expect(list).To(HaveLen(2))
		Expect(list[0].ID).To(Equal(high.ID))
		firstHigher, _ := q.Find(high.ID)
		Expect(firstHigher.Priority).To(Equal(uint8(9)))
	})

	It("estimates wait as preceding active entries times mean wall time", func() {
		q := queue.New(10)
		a := &queue.Job{ID: queue.NextJobID()}
		b := &queue.Job{ID: queue.NextJobID()}
		Expect(q.Submit(a)).To(Succeed())
		Expect(q.Submit(b)).To(Succeed())

		est, ok := q.WaitEstimate(b.ID, 5*time.Second)
		Expect(ok).To(BeTrue())
		Expect(est).To(Equal(5 * time.Second))
	})

	It("garbage collects terminal jobs past the retention grace", func() {
		q := queue.New(10)
		id := queue.NextJobID()
		Expect(q.Submit(&queue.Job{ID: id})).To(Succeed())
		Expect(q.Cancel(id, false)).To(Succeed())

		time.Sleep(2 * time.Millisecond)

		var cleaned []uint32
		n := q.GC(time.Millisecond, func(jobID uint32) { cleaned = append(cleaned, jobID) })
		Expect(n).To(Equal(1))
		Expect(cleaned).To(ConsistOf(id))

		_, ok := q.Find(id)
		Expect(ok).To(BeFalse())
	})
})
