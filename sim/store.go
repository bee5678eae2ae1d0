package sim

import (
	"errors"
	"sort"
	"sync/atomic"

	"github.com/pthm-cable/protocell/cell"
	"github.com/pthm-cable/protocell/device"
)

// ErrIndexOutOfRange is returned by bridge operations addressing a slot
// outside the live range.
var ErrIndexOutOfRange = errors.New("sim: index outside live cell range")

// Store owns the triple-buffered record array and the live range within it.
// Records are never erased mid-frame: the update pass marks indices dead
// through a claim-a-slot list, and the next drain compacts them out of the
// live range and recycles their ids.
type Store struct {
	buffers  *device.TripleBuffer
	capacity int

	liveCount atomic.Int32 // device truth, mutated only on the drain path
	hostCount atomic.Int32 // stale mirror published at rotation

	deadSlots []uint32
	deadCount atomic.Uint32
	dropped   atomic.Uint64 // additions refused because the store was full
}

// NewStore allocates the triple buffer and staging mirror at capacity.
func NewStore(capacity int) *Store {
	return &Store{
		buffers:   device.NewTripleBuffer(capacity),
		capacity:  capacity,
		deadSlots: make([]uint32, capacity),
	}
}

// Read returns the current read buffer.
func (s *Store) Read() []cell.Record { return s.buffers.Read() }

// Write returns the write target of the active frame.
func (s *Store) Write() []cell.Record { return s.buffers.Write() }

// Staging returns the host-visible mirror, one frame stale.
func (s *Store) Staging() []cell.Record { return s.buffers.Staging() }

// Capacity returns the configured maximum live-cell count.
func (s *Store) Capacity() int { return s.capacity }

// LiveCount returns the device-truth live count. Valid on the host only
// between a barrier flush and the next dispatch.
func (s *Store) LiveCount() int { return int(s.liveCount.Load()) }

// CellCount returns the host-visible approximation of the live count. It is
// always at least one frame behind device truth; treat it as a hint for
// UI and diagnostics, never as a correctness input.
func (s *Store) CellCount() int { return int(s.hostCount.Load()) }

// Dropped returns the number of additions refused at the capacity ceiling.
func (s *Store) Dropped() uint64 { return s.dropped.Load() }

// Rotation returns the buffer rotation counter.
func (s *Store) Rotation() int { return s.buffers.Rotation() }

// Rotate advances the buffer rotation, refreshes the staging mirror, and
// publishes the host-visible count. Orchestrator only, once per frame, after
// the final barrier flush.
func (s *Store) Rotate() {
	s.buffers.Rotate()
	s.buffers.SyncStaging(s.capacity)
	s.hostCount.Store(s.liveCount.Load())
}

// MarkDead queues a live index for removal at the next drain. Safe to call
// from parallel pass lanes; marking the same index twice within one frame is
// tolerated (deduplicated during compaction).
func (s *Store) MarkDead(index uint32) {
	slot := s.deadCount.Add(1) - 1
	if int(slot) < len(s.deadSlots) {
		s.deadSlots[slot] = index
	}
}

// Append admits one record into the live range of the read buffer. Host
// drain path only. Reports false at the capacity ceiling.
func (s *Store) Append(rec cell.Record) bool {
	n := int(s.liveCount.Load())
	if n >= s.capacity {
		s.dropped.Add(1)
		return false
	}
	s.buffers.Read()[n] = rec
	s.liveCount.Store(int32(n + 1))
	return true
}

// Compact removes every index queued by MarkDead from the live range of the
// read buffer, invoking recycle for each removed record's id. Host drain
// path only. Returns the number of cells removed.
//
// Removal swaps the last live record into the vacated slot, so spatial-grid
// indices built last frame may briefly point past the live range; consumers
// bound their reads by the live count.
func (s *Store) Compact(recycle func(cell.ID)) int {
	n := int(s.deadCount.Load())
	if n > len(s.deadSlots) {
		n = len(s.deadSlots)
	}
	if n == 0 {
		return 0
	}

	// Descending order makes swap-from-end safe: the largest remaining dead
	// index is always at or before the current tail.
	dead := s.deadSlots[:n]
	sort.Slice(dead, func(i, j int) bool { return dead[i] > dead[j] })

	buf := s.buffers.Read()
	live := int(s.liveCount.Load())
	removed := 0
	prev := uint32(0)
	for i, idx := range dead {
		if i > 0 && idx == prev {
			continue // duplicate mark
		}
		prev = idx
		if int(idx) >= live {
			continue
		}
		if recycle != nil {
			recycle(buf[idx].UniqueID)
		}
		live--
		if int(idx) != live {
			buf[idx] = buf[live]
		}
		removed++
	}

	s.liveCount.Store(int32(live))
	s.deadCount.Store(0)
	return removed
}

// Snapshot copies one record out of the current read buffer. The caller must
// have flushed the device first.
func (s *Store) Snapshot(index int) (cell.Record, error) {
	if index < 0 || index >= s.LiveCount() {
		return cell.Record{}, ErrIndexOutOfRange
	}
	return s.buffers.Read()[index], nil
}

// ApplyEdit overwrites one record in the current read buffer. The caller
// must have flushed the device first.
func (s *Store) ApplyEdit(index int, rec cell.Record) error {
	if index < 0 || index >= s.LiveCount() {
		return ErrIndexOutOfRange
	}
	s.buffers.Read()[index] = rec
	return nil
}

// Reset clears the live range, dead list, and counters. Used by simulation
// reset with the device idle.
func (s *Store) Reset() {
	s.liveCount.Store(0)
	s.hostCount.Store(0)
	s.deadCount.Store(0)
}
