package device

// Kind is a bitmask of memory-visibility conditions produced by passes.
// A producer requests the kinds matching the buffers it wrote; the
// orchestrator flushes the accumulated mask before dispatching a consumer.
type Kind uint32

const (
	// KindStorage covers writes to the cell-record buffers.
	KindStorage Kind = 1 << iota
	// KindQueue covers addition-queue slots and cursor.
	KindQueue
	// KindCounter covers atomic counters: grid counts, visible count,
	// per-bucket cursors.
	KindCounter
	// KindInstance covers render instance lists.
	KindInstance
	// KindStaging covers staging mirror copies.
	KindStaging
)

// Stats tracks barrier batching efficiency. A request that lands on an
// already-pending mask is a batched hit: it cost nothing extra at flush time.
type Stats struct {
	Total   int
	Batched int
	Flushes int
}

// Efficiency returns batched/total, or 0 before any request.
func (s *Stats) Efficiency() float64 {
	if s.Total == 0 {
		return 0
	}
	return float64(s.Batched) / float64(s.Total)
}

// Reset zeroes all counters.
func (s *Stats) Reset() {
	*s = Stats{}
}

// Batch accumulates requested barrier kinds and flushes them as one
// synchronization point against the dispatcher queue. It cannot detect a
// missing request; ordering discipline is the orchestrator's fixed pass
// sequence, the batch only makes it cheap.
type Batch struct {
	disp    *Dispatcher
	pending Kind
	stats   Stats
}

// NewBatch creates a barrier batch bound to a dispatcher.
func NewBatch(d *Dispatcher) *Batch {
	return &Batch{disp: d}
}

// Request ORs kind into the pending mask and records whether the request was
// merged with one already pending.
func (b *Batch) Request(kind Kind) {
	b.stats.Total++
	b.pending |= kind
	if b.pending != kind {
		b.stats.Batched++
	}
}

// Flush issues one combined barrier covering the whole pending mask: it
// waits for the dispatcher queue to drain, making every producer's writes
// visible, then clears the mask. A flush with nothing pending is free.
func (b *Batch) Flush() {
	if b.pending == 0 {
		return
	}
	b.disp.Sync()
	b.pending = 0
	b.stats.Flushes++
}

// Clear drops the pending mask without synchronizing. Only valid when the
// orchestrator knows no consumer will read the produced data (reset paths).
func (b *Batch) Clear() {
	b.pending = 0
}

// Pending returns the accumulated mask.
func (b *Batch) Pending() Kind {
	return b.pending
}

// Stats returns a copy of the batching counters.
func (b *Batch) Stats() Stats {
	return b.stats
}

// ResetStats zeroes the batching counters.
func (b *Batch) ResetStats() {
	b.stats.Reset()
}
