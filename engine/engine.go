// Package engine wires the device model, the cell store, and the pass kernels
// into the per-frame orchestration loop, and exposes the host-side bridge the
// renderer and UI talk to.
package engine

import (
	"log/slog"
	"math/rand"
	"time"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/pthm-cable/protocell/camera"
	"github.com/pthm-cable/protocell/cell"
	"github.com/pthm-cable/protocell/config"
	"github.com/pthm-cable/protocell/device"
	"github.com/pthm-cable/protocell/sim"
	"github.com/pthm-cable/protocell/telemetry"
)

// Engine owns the whole simulation: device queue, triple-buffered store,
// identity pool, addition queue, spatial grid, and the LOD pipeline. All
// exported methods run on the host goroutine; parallelism lives inside the
// dispatched passes.
type Engine struct {
	cfg *config.Config

	disp    *device.Dispatcher
	barrier *device.Batch

	store *sim.Store
	alloc *sim.Allocator
	queue *sim.AdditionQueue
	grid  *sim.Grid
	lod   *sim.LODPipeline
	modes []cell.Mode

	perf      *telemetry.PerfCollector
	collector *telemetry.Collector
	output    *telemetry.OutputManager
	logStats  bool

	frame int64

	// Cumulative counters at the last drain, for per-window deltas.
	lastQueueDrops uint64
	lastStoreDrops uint64

	selection Selection
	pinned    int
	rng       *rand.Rand
}

// Options are the startup knobs not covered by the config file.
type Options struct {
	Workers   int
	OutputDir string
	LogStats  bool
	Seed      int64 // 0 derives a seed from the clock
}

// New builds an engine from the loaded config.
func New(cfg *config.Config, opts Options) (*Engine, error) {
	disp := device.NewDispatcher(opts.Workers)

	output, err := telemetry.NewOutputManager(opts.OutputDir)
	if err != nil {
		disp.Close()
		return nil, err
	}
	if err := output.WriteConfig(cfg); err != nil {
		disp.Close()
		return nil, err
	}

	e := &Engine{
		cfg:     cfg,
		disp:    disp,
		barrier: device.NewBatch(disp),

		store: sim.NewStore(cfg.Capacity.MaxCells),
		alloc: sim.NewAllocator(uint32(cfg.Capacity.IDPoolSize)),
		queue: sim.NewAdditionQueue(cfg.Queue.Capacity),
		grid:  sim.NewGrid(float32(cfg.Grid.CellSize), cfg.Grid.BucketCount, cfg.Capacity.MaxCells),
		lod:   sim.NewLODPipeline(cfg.Derived.LODDistances32, cfg.Capacity.MaxCells),
		modes: modesFromConfig(cfg),

		perf:      telemetry.NewPerfCollector(cfg.Telemetry.PerfWindow),
		collector: telemetry.NewCollector(cfg.Telemetry.StatsWindow, cfg.Derived.DT32),
		output:    output,
		logStats:  opts.LogStats,

		pinned: -1,
	}
	seed := opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	e.rng = rand.New(rand.NewSource(seed))
	e.selection.Index = -1
	e.lod.SetLODEnabled(cfg.LOD.Enabled)
	e.lod.SetCullingEnabled(cfg.LOD.FrustumCulling)

	return e, nil
}

// modesFromConfig builds the genome mode table, falling back to the built-in
// table when the config defines none.
func modesFromConfig(cfg *config.Config) []cell.Mode {
	if len(cfg.Modes) == 0 {
		return cell.DefaultModes()
	}
	modes := make([]cell.Mode, len(cfg.Modes))
	for i, mc := range cfg.Modes {
		m := cell.Mode{
			SplitInterval: float32(mc.SplitInterval),
			SplitCost:     float32(mc.SplitCost),
			ToxinRate:     float32(mc.ToxinRate),
			NitrateRate:   float32(mc.NitrateRate),
			SignalDecay:   float32(mc.SignalDecay),
			Color:         mgl32.Vec4{1, 1, 1, 1},
		}
		for j := 0; j < len(mc.Color) && j < 4; j++ {
			m.Color[j] = float32(mc.Color[j])
		}
		modes[i] = m
	}
	return modes
}

// Step advances the simulation one frame. The frustum and camera position
// drive culling and detail classification; pass nil to skip the render-side
// passes (offline stepping).
//
// The pass order is fixed: host drain, physics (read to write buffer),
// internal update (in place on the write buffer), grid rebuild, cull and
// classify, flag clear, rotation. Barriers batch between producer and
// consumer; the rotation happens only after the final flush.
func (e *Engine) Step(fr *camera.Frustum, camPos mgl32.Vec3) {
	e.perf.StartStep()

	e.perf.StartPhase(telemetry.PhaseDrain)
	e.drainAdditions()

	live := e.store.LiveCount()
	in := e.store.Read()
	out := e.store.Write()

	e.perf.StartPhase(telemetry.PhasePhysics)
	e.disp.Dispatch("physics", live, sim.PhysicsKernel(in, out, live, e.grid, sim.PhysicsParams{
		DT:        e.cfg.Derived.DT32,
		Drag:      float32(e.cfg.Physics.Drag),
		Stiffness: float32(e.cfg.Physics.CollisionStiffness),
		Pinned:    e.pinned,
	}))
	e.barrier.Request(device.KindStorage)
	e.barrier.Flush()

	e.perf.StartPhase(telemetry.PhaseUpdate)
	e.disp.Dispatch("update", live, sim.UpdateKernel(out, e.modes, sim.UpdateParams{
		DT:                 e.cfg.Derived.DT32,
		MaxAge:             float32(e.cfg.Lifecycle.MaxAge),
		ToxinKillThreshold: float32(e.cfg.Lifecycle.ToxinKillThreshold),
	}, e.queue, e.store.MarkDead))
	e.barrier.Request(device.KindStorage)
	e.barrier.Request(device.KindQueue)
	e.barrier.Request(device.KindCounter)
	e.barrier.Flush()

	e.perf.StartPhase(telemetry.PhaseGrid)
	e.rebuildGrid(out, live)

	if fr != nil {
		e.perf.StartPhase(telemetry.PhaseCull)
		e.lod.Reset()
		e.disp.Dispatch("cull", live, e.lod.CullKernel(out, fr))
		e.barrier.Request(device.KindCounter)
		e.barrier.Flush()

		e.perf.StartPhase(telemetry.PhaseClassify)
		e.disp.Dispatch("classify", e.lod.VisibleCount(), e.lod.ClassifyKernel(out, e.modes, camPos))
		e.barrier.Request(device.KindInstance)
		e.barrier.Request(device.KindCounter)
		e.barrier.Flush()
	}

	// Division flags were readable for exactly one frame; clear before the
	// buffer rotates back into view.
	e.disp.Dispatch("clear_split", live, sim.ClearJustSplitKernel(out))
	e.barrier.Request(device.KindStorage)
	e.barrier.Flush()

	e.perf.StartPhase(telemetry.PhaseRotate)
	e.store.Rotate()
	e.barrier.Request(device.KindStaging)
	e.barrier.Flush()

	e.perf.StartPhase(telemetry.PhaseTelemetry)
	e.frame++
	e.flushTelemetry()

	e.perf.EndStep()
}

// rebuildGrid runs the four-phase spatial index rebuild over the freshly
// written buffer. Each phase consumes the previous one's counters, so every
// boundary is a barrier.
func (e *Engine) rebuildGrid(recs []cell.Record, live int) {
	e.disp.Dispatch("grid_clear", e.grid.Buckets(), e.grid.ClearKernel())
	e.barrier.Request(device.KindCounter)
	e.barrier.Flush()

	e.disp.Dispatch("grid_assign", live, e.grid.AssignKernel(recs))
	e.barrier.Request(device.KindCounter)
	e.barrier.Flush()

	e.grid.PrefixSum()

	e.disp.Dispatch("grid_insert", live, e.grid.InsertKernel(recs))
	e.barrier.Request(device.KindCounter)
	e.barrier.Flush()
}

// drainAdditions is the once-per-frame host mutation point: compact out last
// frame's deaths, fold their ids through the recycle ring, then admit queued
// additions with fresh ids. The device is idle here, so plain reads and
// writes are safe.
func (e *Engine) drainAdditions() {
	deaths := e.store.Compact(func(id cell.ID) {
		e.alloc.RecycleDeferred(id.Cell())
	})
	e.collector.RecordDeaths(deaths)
	if recycled := e.alloc.DrainDeferred(); recycled != deaths {
		slog.Warn("id recycle mismatch", "deaths", deaths, "recycled", recycled)
	}
	e.revalidateSelection()

	idFailures := 0
	accepted, _ := e.queue.Drain(func(rec cell.Record) bool {
		id, err := e.alloc.Allocate()
		if err != nil {
			idFailures++
			return false
		}
		rec.UniqueID = rec.UniqueID.WithCell(id)
		if !e.store.Append(rec) {
			// Give the id straight back; it was never visible.
			e.alloc.Recycle(id)
			return false
		}
		return true
	})
	e.collector.RecordBirths(accepted)
	e.collector.RecordIDFailures(idFailures)

	if d := e.queue.Dropped(); d != e.lastQueueDrops {
		e.collector.RecordQueueDrops(int(d - e.lastQueueDrops))
		e.lastQueueDrops = d
	}
	if d := e.store.Dropped(); d != e.lastStoreDrops {
		e.collector.RecordStoreDrops(int(d - e.lastStoreDrops))
		e.lastStoreDrops = d
	}
}

// flushTelemetry closes a stats window when due and writes CSV output.
func (e *Engine) flushTelemetry() {
	if !e.collector.WindowComplete(e.frame) {
		return
	}

	w := e.collector.EndWindow(e.frame, telemetry.Sample{
		Records:      e.store.Staging(),
		CellCount:    e.store.CellCount(),
		VisibleCount: e.lod.VisibleCount(),
		LODCounts:    e.lod.Counts(),
		Barrier:      e.barrier.Stats(),
	})
	if e.logStats {
		w.LogWindow()
		e.perf.Stats().LogStats()
	}
	if err := e.output.WriteWindow(w); err != nil {
		slog.Error("telemetry write failed", "err", err)
	}
	if err := e.output.WritePerf(e.perf.Stats(), e.frame); err != nil {
		slog.Error("perf write failed", "err", err)
	}
}

// Reset empties the population and all transient state, then respawns the
// configured default count. The device queue is drained first.
func (e *Engine) Reset() {
	e.disp.Sync()
	e.barrier.Clear()

	e.store.Reset()
	e.queue.Reset()
	e.alloc = sim.NewAllocator(uint32(e.cfg.Capacity.IDPoolSize))
	e.lod.Reset()
	e.collector.Reset()
	e.selection.Index = -1
	e.pinned = -1
	e.frame = 0

	e.SpawnCells(e.cfg.Capacity.DefaultCellCount)
	slog.Info("simulation reset", "spawned", e.cfg.Capacity.DefaultCellCount)
}

// Close releases the device and output files.
func (e *Engine) Close() {
	e.disp.Close()
	if err := e.output.Close(); err != nil {
		slog.Error("output close failed", "err", err)
	}
}

// Frame returns the number of completed steps.
func (e *Engine) Frame() int64 { return e.frame }

// CellCount returns the host-visible population count, one frame stale.
func (e *Engine) CellCount() int { return e.store.CellCount() }

// VisibleCount returns the cells that passed the last frustum pass.
func (e *Engine) VisibleCount() int { return e.lod.VisibleCount() }

// LODCounts returns the per-detail-level instance counts.
func (e *Engine) LODCounts() [sim.NumLOD]int { return e.lod.Counts() }

// Instances returns one detail level's render instances.
func (e *Engine) Instances(level int) []sim.Instance { return e.lod.Instances(level) }

// Dropped returns the cumulative additions refused by queue saturation and
// by the store capacity ceiling.
func (e *Engine) Dropped() uint64 { return e.queue.Dropped() + e.store.Dropped() }

// BarrierStats returns the barrier coordinator's batching counters.
func (e *Engine) BarrierStats() device.Stats { return e.barrier.Stats() }

// PerfStats returns the rolling performance window.
func (e *Engine) PerfStats() telemetry.PerfStats { return e.perf.Stats() }

// RecordFrame forwards render-frame timing to the perf collector.
func (e *Engine) RecordFrame() { e.perf.RecordFrame() }

// LOD returns the detail pipeline for UI toggles.
func (e *Engine) LOD() *sim.LODPipeline { return e.lod }

// Config returns the loaded configuration.
func (e *Engine) Config() *config.Config { return e.cfg }

// Modes returns the genome mode table.
func (e *Engine) Modes() []cell.Mode { return e.modes }
