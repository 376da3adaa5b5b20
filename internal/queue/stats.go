package queue

import (
	"sync/atomic"
	"time"
)

type counters struct {
	enqueued  atomic.Uint64
	dequeued  atomic.Uint64
	rejected  atomic.Uint64
	discarded atomic.Uint64
	blocked   atomic.Uint64
	blockedNs atomic.Uint64
	maxDepth  atomic.Uint64
}

func (c *counters) observeDepth(depth int) {
	d := uint64(depth)
	for {
		old := c.maxDepth.Load()
		if d <= old {
			return
		}
		if c.maxDepth.CompareAndSwap(old, d) {
			return
		}
	}
}

// Stats is a point-in-time view of queue activity.
type Stats struct {
	Depth       int
	Capacity    int
	MaxDepth    uint64
	Enqueued    uint64
	Dequeued    uint64
	Rejected    uint64
	Discarded   uint64
	Blocked     uint64
	BlockedTime time.Duration
}

// Stats returns a snapshot of the queue counters.
func (q *Queue) Stats() Stats {
	return Stats{
		Depth:       q.Len(),
		Capacity:    q.capacity,
		MaxDepth:    q.stats.maxDepth.Load(),
		Enqueued:    q.stats.enqueued.Load(),
		Dequeued:    q.stats.dequeued.Load(),
		Rejected:    q.stats.rejected.Load(),
		Discarded:   q.stats.discarded.Load(),
		Blocked:     q.stats.blocked.Load(),
		BlockedTime: time.Duration(q.stats.blockedNs.Load()),
	}
}
