/*
 * Copyright 2022 Holoinsight Project Authors. Licensed under Apache-2.0.
 */

// Package generation implements C7: the bounded unmatched-line queue and the
// background pipeline that batches unmatched lines, dispatches them to an
// external template generator, validates the replies, and installs
// accepted templates into the live snapshot.
package generation

import (
	"sync"

	"github.com/traas-stack/logmatcher/pkg/metrics"
)

// UnmatchedQueue is the bounded, multi-producer single-consumer queue of
// §4.6. Enqueue never blocks: when full, the oldest buffered line is
// dropped to make room, and the drop counter is incremented — "drop oldest
// sample, keep ingest throughput".
//
// No example repo in the pack ships a bounded drop-oldest MPSC queue, so
// this is built directly on sync.Mutex/sync.Cond rather than borrowed from
// elsewhere; see DESIGN.md for the standard-library justification.
type UnmatchedQueue struct {
	mu       sync.Mutex
	cond     *sync.Cond
	items    []string
	capacity int
	closed   bool
}

// NewUnmatchedQueue returns a queue bounded at capacity lines.
func NewUnmatchedQueue(capacity int) *UnmatchedQueue {
	q := &UnmatchedQueue{capacity: capacity}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// Enqueue adds line, dropping the oldest buffered line first if the queue is
// already at capacity.
func (q *UnmatchedQueue) Enqueue(line string) {
	q.mu.Lock()
	if len(q.items) >= q.capacity {
		q.items = q.items[1:]
		metrics.UnmatchedQueueDropped.Inc()
	}
	q.items = append(q.items, line)
	q.mu.Unlock()
	q.cond.Signal()
}

// Dequeue blocks until a line is available or the queue is closed, in which
// case ok is false once drained.
func (q *UnmatchedQueue) Dequeue() (line string, ok bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for len(q.items) == 0 && !q.closed {
		q.cond.Wait()
	}
	if len(q.items) == 0 {
		return "", false
	}
	line = q.items[0]
	q.items = q.items[1:]
	return line, true
}

// Len reports the number of lines currently buffered.
func (q *UnmatchedQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Close unblocks any goroutine parked in Dequeue once the queue drains.
func (q *UnmatchedQueue) Close() {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()
	q.cond.Broadcast()
}
