package metrics

import (
	"fmt"
	"sync"
)

// Queue is a count-bounded FIFO of events. When a Push would exceed the
// limit the oldest entry is dropped, so a stalled collector costs old
// metrics rather than memory.
//
// The notify channel (capacity 1) wakes the drain loop when an event is
// pushed. Safe for concurrent use.
type Queue struct {
	mu      sync.Mutex
	entries []Event
	max     int
	dropped uint64
	notify  chan struct{}
}

// NewQueue creates a queue holding at most max events. max must be
// positive.
func NewQueue(max int) *Queue {
	if max <= 0 {
		panic(fmt.Sprintf("metrics queue: max must be positive, got %d", max))
	}
	return &Queue{
		max:    max,
		notify: make(chan struct{}, 1),
	}
}

// Push appends ev, evicting the oldest entry if the queue is full.
func (q *Queue) Push(ev Event) {
	q.mu.Lock()
	if len(q.entries) >= q.max {
		q.entries[0] = nil
		q.entries = q.entries[1:]
		q.dropped++
	}
	q.entries = append(q.entries, ev)
	q.mu.Unlock()

	select {
	case q.notify <- struct{}{}:
	default:
	}
}

// Pop removes and returns the oldest event.
func (q *Queue) Pop() (Event, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.entries) == 0 {
		return nil, false
	}
	ev := q.entries[0]
	q.entries[0] = nil
	q.entries = q.entries[1:]
	return ev, true
}

// Len returns the number of queued events.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.entries)
}

// Dropped returns how many events were evicted by overflow.
func (q *Queue) Dropped() uint64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.dropped
}

// Notify receives a signal after Push. Signals coalesce.
func (q *Queue) Notify() <-chan struct{} {
	return q.notify
}
