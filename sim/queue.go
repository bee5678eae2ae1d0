package sim

import (
	"sync/atomic"

	"github.com/pthm-cable/protocell/cell"
)

// AdditionQueue is the bounded append buffer every new cell enters the
// simulation through. Producers - host spawn calls and device division
// lanes - claim slots with an atomic cursor; the orchestrator drains the
// queue exactly once per frame, before the physics pass reads the buffer.
// Saturated pushes are dropped and counted, never fatal.
type AdditionQueue struct {
	slots   []cell.Record
	cursor  atomic.Uint32
	dropped atomic.Uint64
}

// NewAdditionQueue creates a queue with the given capacity.
func NewAdditionQueue(capacity int) *AdditionQueue {
	return &AdditionQueue{slots: make([]cell.Record, capacity)}
}

// Push appends rec and reports whether it was accepted. Safe to call from
// parallel pass lanes and from the host within the same frame.
func (q *AdditionQueue) Push(rec cell.Record) bool {
	idx := q.cursor.Add(1) - 1
	if int(idx) >= len(q.slots) {
		q.dropped.Add(1)
		return false
	}
	q.slots[idx] = rec
	return true
}

// Pending returns the queued record count, clamped to capacity.
func (q *AdditionQueue) Pending() int {
	n := int(q.cursor.Load())
	if n > len(q.slots) {
		n = len(q.slots)
	}
	return n
}

// Capacity returns the queue's slot count.
func (q *AdditionQueue) Capacity() int {
	return len(q.slots)
}

// Dropped returns the cumulative count of records refused for saturation.
func (q *AdditionQueue) Dropped() uint64 {
	return q.dropped.Load()
}

// Reset discards all pending records. Used by simulation reset with no
// producer running.
func (q *AdditionQueue) Reset() {
	q.cursor.Store(0)
}

// Drain invokes fn for each queued record in insertion order, then resets
// the cursor. fn reports whether the record was admitted; refusals (store
// full, id pool empty) count toward the rejected total. Host drain path
// only, with no producer running concurrently.
func (q *AdditionQueue) Drain(fn func(cell.Record) bool) (accepted, rejected int) {
	n := q.Pending()
	for i := 0; i < n; i++ {
		if fn(q.slots[i]) {
			accepted++
		} else {
			rejected++
		}
	}
	q.cursor.Store(0)
	return accepted, rejected
}
