package queue

import (
	"context"
	"errors"
	"sync"
	"time"

	"finedb/internal/common"
)

// Queue is a bounded multi-producer single-consumer FIFO of mutation
// messages. Enqueue blocks while the queue is full; Dequeue blocks while it
// is empty and open. After Close no message is admitted, but messages
// already admitted are still handed out until the queue is empty.
type Queue struct {
	mu       sync.Mutex
	items    []common.Message
	head     int
	capacity int
	closed   bool

	// Broadcast channels: closed and replaced to wake every waiter, which
	// lets waits compose with context cancellation.
	notEmpty chan struct{}
	notFull  chan struct{}

	stats counters
}

// New creates a queue holding at most capacity messages. A capacity <= 0
// leaves the queue effectively unbounded.
func New(capacity int) *Queue {
	if capacity < 0 {
		capacity = 0
	}
	return &Queue{
		capacity: capacity,
		notEmpty: make(chan struct{}),
		notFull:  make(chan struct{}),
	}
}

// Enqueue admits msg at the tail of the queue, waiting for space if needed.
// It returns common.ErrQueueClosed once Close has been called, and
// common.ErrEnqueueTimeout if ctx's deadline passes first. A message that is
// not admitted remains owned by the caller.
func (q *Queue) Enqueue(ctx context.Context, msg common.Message) error {
	var start time.Time

	q.mu.Lock()
	for {
		if q.closed {
			q.mu.Unlock()
			q.stats.rejected.Add(1)
			return common.ErrQueueClosed
		}
		if q.capacity == 0 || q.lenLocked() < q.capacity {
			break
		}

		if start.IsZero() {
			start = time.Now()
		}
		wait := q.notFull
		q.mu.Unlock()

		select {
		case <-wait:
		case <-ctx.Done():
			q.stats.rejected.Add(1)
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return common.ErrEnqueueTimeout
			}
			return ctx.Err()
		}
		q.mu.Lock()
	}

	q.items = append(q.items, msg)
	depth := q.lenLocked()
	broadcast(&q.notEmpty)
	q.mu.Unlock()

	q.stats.enqueued.Add(1)
	q.stats.observeDepth(depth)
	if !start.IsZero() {
		q.stats.blocked.Add(1)
		q.stats.blockedNs.Add(uint64(time.Since(start)))
	}
	return nil
}

// Dequeue removes and returns the message at the head of the queue, waiting
// until one is available. It returns common.ErrQueueDrained once the queue
// is closed and empty.
func (q *Queue) Dequeue(ctx context.Context) (common.Message, error) {
	q.mu.Lock()
	for q.lenLocked() == 0 {
		if q.closed {
			q.mu.Unlock()
			return nil, common.ErrQueueDrained
		}
		wait := q.notEmpty
		q.mu.Unlock()

		select {
		case <-wait:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		q.mu.Lock()
	}

	msg := q.items[q.head]
	q.items[q.head] = nil
	q.head++
	if q.head == len(q.items) {
		q.items = q.items[:0]
		q.head = 0
	} else if q.head > len(q.items)/2 && q.head >= 64 {
		n := copy(q.items, q.items[q.head:])
		clear(q.items[n:])
		q.items = q.items[:n]
		q.head = 0
	}
	broadcast(&q.notFull)
	q.mu.Unlock()

	q.stats.dequeued.Add(1)
	return msg, nil
}

// Close stops admission and wakes all blocked producers and the consumer.
// Calling Close more than once is harmless.
func (q *Queue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.closed = true
	broadcast(&q.notEmpty)
	broadcast(&q.notFull)
}

// Discard closes the queue and removes every message still in it. The
// messages are counted as discarded rather than dequeued, and the caller
// becomes their owner.
func (q *Queue) Discard() []common.Message {
	q.mu.Lock()
	if !q.closed {
		q.closed = true
		broadcast(&q.notEmpty)
		broadcast(&q.notFull)
	}
	out := append([]common.Message(nil), q.items[q.head:]...)
	clear(q.items)
	q.items = q.items[:0]
	q.head = 0
	q.mu.Unlock()

	q.stats.discarded.Add(uint64(len(out)))
	return out
}

// Closed reports whether Close has been called.
func (q *Queue) Closed() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.closed
}

// Len returns the number of admitted messages not yet dequeued.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.lenLocked()
}

// Cap returns the configured capacity, 0 meaning unbounded.
func (q *Queue) Cap() int {
	return q.capacity
}

func (q *Queue) lenLocked() int {
	return len(q.items) - q.head
}

// broadcast wakes every goroutine waiting on *ch. Must be called with q.mu held.
func broadcast(ch *chan struct{}) {
	close(*ch)
	*ch = make(chan struct{})
}
