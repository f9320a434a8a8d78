// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package bus

import "sync"

type pushResult int

const (
	pushOK pushResult = iota
	pushFull
	pushTooLarge
	pushClosed
)

// queue is a bounded FIFO of preallocated event records. Any number of
// goroutines may push; only the dispatcher pops.
type queue struct {
	mu         sync.Mutex
	records    []Event
	head       int
	size       int
	closed     bool
	maxPayload int

	// ready holds at most one pending wake-up for the consumer.
	ready chan struct{}

	// observe receives the depth after every accepted push and every pop,
	// under mu, so the last report always matches the ring.
	observe func(depth int)
}

func newQueue(capacity, maxPayload int) *queue {
	q := &queue{
		records:    make([]Event, capacity),
		maxPayload: maxPayload,
		ready:      make(chan struct{}, 1),
		observe:    func(int) {},
	}
	for i := range q.records {
		q.records[i] = newEvent(maxPayload)
	}
	return q
}

// push copies payload into the next free record and returns the resulting
// depth. It never blocks and never evicts queued records.
func (q *queue) push(id EventID, payload []byte) (pushResult, int) {
	if len(payload) > q.maxPayload {
		return pushTooLarge, 0
	}

	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return pushClosed, 0
	}
	if q.size == len(q.records) {
		depth := q.size
		q.mu.Unlock()
		return pushFull, depth
	}
	tail := (q.head + q.size) % len(q.records)
	q.records[tail].set(id, payload)
	q.size++
	depth := q.size
	q.observe(depth)
	q.mu.Unlock()

	select {
	case q.ready <- struct{}{}:
	default:
	}
	return pushOK, depth
}

// pop moves the oldest record into dst and returns the remaining depth. The
// ring slot is reusable as soon as pop returns.
func (q *queue) pop(dst *Event) (int, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.size == 0 {
		return 0, false
	}
	dst.copyFrom(&q.records[q.head])
	q.head = (q.head + 1) % len(q.records)
	q.size--
	q.observe(q.size)
	return q.size, true
}

// close rejects further pushes. Records already queued stay poppable.
func (q *queue) close() {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()
}

func (q *queue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.size
}

func (q *queue) capacity() int {
	return len(q.records)
}
