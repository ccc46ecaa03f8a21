package queue

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sync/semaphore"
)

// ErrInvalidCapacity is returned by New when the requested capacity is not positive.
var ErrInvalidCapacity = errors.New("queue: capacity must be positive")

// Queue is a bounded blocking FIFO queue of opaque items.
//
// Two counting semaphores coordinate callers: slots counts free positions and
// items counts queued entries. The ring buffer itself is guarded by mu and is
// only touched after the matching semaphore has been acquired.
type Queue struct {
	slots *semaphore.Weighted
	items *semaphore.Weighted

	mu   sync.Mutex
	buf  []any
	head int
	n    int
}

// New creates an empty queue holding at most capacity items.
func New(capacity int) (*Queue, error) {
	if capacity < 1 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidCapacity, capacity)
	}

	items := semaphore.NewWeighted(int64(capacity))
	// Start with zero items available.
	items.TryAcquire(int64(capacity))

	return &Queue{
		slots: semaphore.NewWeighted(int64(capacity)),
		items: items,
		buf:   make([]any, capacity),
	}, nil
}

// Put appends item at the tail, blocking while the queue is full.
func (q *Queue) Put(item any) {
	// Acquire with a background context never fails.
	_ = q.slots.Acquire(context.Background(), 1)

	q.mu.Lock()
	q.buf[(q.head+q.n)%len(q.buf)] = item
	q.n++
	q.mu.Unlock()

	q.items.Release(1)
}

// Get removes and returns the oldest item, blocking while the queue is empty.
func (q *Queue) Get() any {
	_ = q.items.Acquire(context.Background(), 1)

	q.mu.Lock()
	item := q.buf[q.head]
	q.buf[q.head] = nil
	q.head = (q.head + 1) % len(q.buf)
	q.n--
	q.mu.Unlock()

	q.slots.Release(1)
	return item
}

// Len returns the number of items currently queued.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.n
}

// Cap returns the fixed capacity of the queue.
func (q *Queue) Cap() int {
	return len(q.buf)
}
