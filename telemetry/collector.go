package telemetry

import (
	"github.com/pthm-cable/protocell/cell"
	"github.com/pthm-cable/protocell/device"
)

// Collector accumulates events within fixed-duration windows and produces
// WindowStats. All methods run on the orchestrator goroutine.
type Collector struct {
	windowDurationSec    float64
	windowDurationFrames int64
	dt                   float32

	windowStartFrame int64

	// Event counters for the current window
	births     int
	deaths     int
	queueDrops int
	storeDrops int
	idFailures int

	// Barrier counters at the previous window boundary, for deltas
	lastBarrier device.Stats
}

// NewCollector creates a new stats collector.
// windowDurationSec: how long each stats window lasts in simulation seconds
// dt: seconds per frame (used for frame-to-time conversion)
func NewCollector(windowDurationSec float64, dt float32) *Collector {
	framesPerWindow := int64(windowDurationSec / float64(dt))
	if framesPerWindow < 1 {
		framesPerWindow = 1
	}

	return &Collector{
		windowDurationSec:    windowDurationSec,
		windowDurationFrames: framesPerWindow,
		dt:                   dt,
	}
}

// RecordBirths records newly admitted cells.
func (c *Collector) RecordBirths(n int) {
	c.births += n
}

// RecordDeaths records cells compacted out of the live range.
func (c *Collector) RecordDeaths(n int) {
	c.deaths += n
}

// RecordQueueDrops records additions refused at the queue ceiling.
func (c *Collector) RecordQueueDrops(n int) {
	c.queueDrops += n
}

// RecordStoreDrops records additions refused at the store capacity ceiling.
func (c *Collector) RecordStoreDrops(n int) {
	c.storeDrops += n
}

// RecordIDFailures records additions refused because the id pool ran dry.
func (c *Collector) RecordIDFailures(n int) {
	c.idFailures += n
}

// WindowComplete reports whether the current window has elapsed at frame.
func (c *Collector) WindowComplete(frame int64) bool {
	return frame-c.windowStartFrame >= c.windowDurationFrames
}

// Sample is the population snapshot the collector aggregates at a window
// boundary. The record slice is the staging mirror, one frame stale.
type Sample struct {
	Records      []cell.Record
	CellCount    int
	VisibleCount int
	LODCounts    [4]int
	Barrier      device.Stats
}

// EndWindow closes the current window, producing its stats and resetting the
// event counters for the next one.
func (c *Collector) EndWindow(frame int64, s Sample) WindowStats {
	w := WindowStats{
		WindowStartFrame: c.windowStartFrame,
		WindowEndFrame:   frame,
		SimTimeSec:       float64(frame) * float64(c.dt),

		CellCount:    s.CellCount,
		VisibleCount: s.VisibleCount,

		Births:     c.births,
		Deaths:     c.deaths,
		QueueDrops: c.queueDrops,
		StoreDrops: c.storeDrops,
		IDFailures: c.idFailures,

		LOD0: s.LODCounts[0],
		LOD1: s.LODCounts[1],
		LOD2: s.LODCounts[2],
		LOD3: s.LODCounts[3],
	}

	// Barrier counters are cumulative; report per-window deltas.
	w.BarriersRequested = int(s.Barrier.Total - c.lastBarrier.Total)
	w.BarriersBatched = int(s.Barrier.Batched - c.lastBarrier.Batched)
	w.BarrierFlushes = int(s.Barrier.Flushes - c.lastBarrier.Flushes)
	if w.BarriersRequested > 0 {
		w.BarrierEfficiency = float64(w.BarriersBatched) / float64(w.BarriersRequested)
	}
	c.lastBarrier = s.Barrier

	n := s.CellCount
	if n > len(s.Records) {
		n = len(s.Records)
	}
	if n > 0 {
		masses := make([]float64, n)
		ages := make([]float64, n)
		for i := 0; i < n; i++ {
			masses[i] = float64(s.Records[i].Mass())
			ages[i] = float64(s.Records[i].Age)
		}
		mass := ComputeDistribution(masses)
		age := ComputeDistribution(ages)
		w.MassMean, w.MassStd = mass.Mean, mass.Std
		w.MassP10, w.MassP50, w.MassP90 = mass.P10, mass.P50, mass.P90
		w.AgeMean = age.Mean
		w.AgeP10, w.AgeP50, w.AgeP90 = age.P10, age.P50, age.P90
	}

	c.windowStartFrame = frame
	c.births = 0
	c.deaths = 0
	c.queueDrops = 0
	c.storeDrops = 0
	c.idFailures = 0

	return w
}

// Reset clears all window state. Used by simulation reset.
func (c *Collector) Reset() {
	c.windowStartFrame = 0
	c.births = 0
	c.deaths = 0
	c.queueDrops = 0
	c.storeDrops = 0
	c.idFailures = 0
	c.lastBarrier = device.Stats{}
}
