package device

import "github.com/pthm-cable/protocell/cell"

// TripleBuffer owns the three device cell buffers plus the host-visible
// staging mirror. Exactly one buffer is readable at a time; the next in
// rotation is the write target of the in-flight frame; the third is last
// frame's read buffer, copied into staging so host reads never touch a
// buffer the device may be writing. Reading the write buffer before rotation
// is a programming error, not a recoverable condition.
type TripleBuffer struct {
	bufs     [3][]cell.Record
	staging  []cell.Record
	rotation int
}

// NewTripleBuffer allocates all four buffers at the given capacity. Capacity
// is fixed for the lifetime of the simulation.
func NewTripleBuffer(capacity int) *TripleBuffer {
	t := &TripleBuffer{}
	for i := range t.bufs {
		t.bufs[i] = make([]cell.Record, capacity)
	}
	t.staging = make([]cell.Record, capacity)
	return t
}

func (t *TripleBuffer) rotatedIndex(i int) int {
	return (i + t.rotation) % 3
}

// Read returns the current read buffer: the one consumers may see.
func (t *TripleBuffer) Read() []cell.Record {
	return t.bufs[t.rotatedIndex(0)]
}

// Write returns the write target of the active frame.
func (t *TripleBuffer) Write() []cell.Record {
	return t.bufs[t.rotatedIndex(1)]
}

// Staging returns the host-visible mirror. Its contents are always one frame
// stale.
func (t *TripleBuffer) Staging() []cell.Record {
	return t.staging
}

// Rotate advances the rotation counter by one. Only the orchestrator calls
// this, exactly once per completed frame, after the final barrier flush.
func (t *TripleBuffer) Rotate() {
	t.rotation = (t.rotation + 1) % 3
}

// Rotation returns the current rotation counter mod 3.
func (t *TripleBuffer) Rotation() int {
	return t.rotation
}

// SyncStaging copies the first n records of the previous read buffer into
// staging. Called right after Rotate, so staging trails the new current
// buffer by exactly one frame.
func (t *TripleBuffer) SyncStaging(n int) {
	if n > len(t.staging) {
		n = len(t.staging)
	}
	copy(t.staging[:n], t.bufs[t.rotatedIndex(2)][:n])
}
