// Package sim holds the device-resident simulation core: the cell store and
// its mutation protocol, the identity allocator, the spatial grid, and the
// pass kernels the orchestrator dispatches each frame.
package sim

import (
	"errors"
	"sync/atomic"
)

// Allocation errors. Capacity exhaustion is degraded-but-running: the caller
// drops the triggering addition and counts it. Double-free is a logic error
// surfaced loudly so it gets fixed, never silently absorbed into the pool.
var (
	ErrPoolExhausted = errors.New("sim: id pool exhausted")
	ErrDoubleFree    = errors.New("sim: id not live (double recycle or never issued)")
)

// Allocator issues and recycles 31-bit cell ids from a bounded pool.
//
// Allocate and Recycle run only on the host drain path (one goroutine, once
// per frame). RecycleDeferred is the concurrent-safe entry point: callers
// claim slots in a bounded ring with an atomic cursor, and DrainDeferred
// folds the ring back into the pool at the next drain.
type Allocator struct {
	capacity uint32
	next     uint32   // low-water mark of never-issued ids; ids start at 1
	free     []uint32 // recycled ids ready for reuse
	live     []uint64 // bitmap of currently-issued ids

	deferred      []uint32
	deferredCount atomic.Uint32
	doubleFrees   atomic.Uint64
}

// NewAllocator creates a pool of ids 1..capacity. Id 0 is never issued so a
// root cell's zero parent field cannot collide with a real cell id.
func NewAllocator(capacity uint32) *Allocator {
	return &Allocator{
		capacity: capacity,
		next:     1,
		free:     make([]uint32, 0, 256),
		live:     make([]uint64, capacity/64+2),
		deferred: make([]uint32, capacity),
	}
}

// Allocate returns a cell id unique among live ids, preferring recycled ids
// over fresh ones. Returns ErrPoolExhausted when no id is available.
func (a *Allocator) Allocate() (uint32, error) {
	if n := len(a.free); n > 0 {
		id := a.free[n-1]
		a.free = a.free[:n-1]
		a.markLive(id)
		return id, nil
	}
	if a.next > a.capacity {
		return 0, ErrPoolExhausted
	}
	id := a.next
	a.next++
	a.markLive(id)
	return id, nil
}

// Recycle returns id to the pool. Recycling an id that is not live fails
// with ErrDoubleFree and leaves the pool untouched.
func (a *Allocator) Recycle(id uint32) error {
	if !a.clearLive(id) {
		a.doubleFrees.Add(1)
		return ErrDoubleFree
	}
	a.free = append(a.free, id)
	return nil
}

// RecycleDeferred queues id for recycling at the next drain. Safe to call
// from parallel pass lanes.
func (a *Allocator) RecycleDeferred(id uint32) {
	slot := a.deferredCount.Add(1) - 1
	if int(slot) < len(a.deferred) {
		a.deferred[slot] = id
	}
}

// DrainDeferred recycles everything queued by RecycleDeferred. Host drain
// path only. Returns the number of ids recycled; double-frees are counted,
// not returned as errors.
func (a *Allocator) DrainDeferred() int {
	n := int(a.deferredCount.Load())
	if n > len(a.deferred) {
		n = len(a.deferred)
	}
	recycled := 0
	for i := 0; i < n; i++ {
		if a.Recycle(a.deferred[i]) == nil {
			recycled++
		}
	}
	a.deferredCount.Store(0)
	return recycled
}

// IsLive reports whether id is currently issued.
func (a *Allocator) IsLive(id uint32) bool {
	if id == 0 || id > a.capacity {
		return false
	}
	return a.live[id/64]&(1<<(id%64)) != 0
}

// LiveCount returns the number of currently-issued ids.
func (a *Allocator) LiveCount() int {
	count := 0
	for _, w := range a.live {
		for ; w != 0; w &= w - 1 {
			count++
		}
	}
	return count
}

// DoubleFrees returns the number of rejected recycle attempts.
func (a *Allocator) DoubleFrees() uint64 {
	return a.doubleFrees.Load()
}

func (a *Allocator) markLive(id uint32) {
	a.live[id/64] |= 1 << (id % 64)
}

// clearLive clears the live bit and reports whether it was set.
func (a *Allocator) clearLive(id uint32) bool {
	if id == 0 || id > a.capacity {
		return false
	}
	mask := uint64(1) << (id % 64)
	if a.live[id/64]&mask == 0 {
		return false
	}
	a.live[id/64] &^= mask
	return true
}
