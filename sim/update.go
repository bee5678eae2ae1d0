package sim

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/pthm-cable/protocell/cell"
	"github.com/pthm-cable/protocell/device"
)

// UpdateParams are the per-frame uniforms of the internal update pass.
type UpdateParams struct {
	DT                 float32
	MaxAge             float32
	ToxinKillThreshold float32
}

// UpdateKernel folds one cell's internal state per lane, in place on the
// buffer physics just wrote: age, signal decay, resource flow, then the
// division and death checks. Divisions enqueue both daughters on the
// addition queue; deaths mark the slot for the next drain. Ids are resolved
// later, at drain time, so daughter records carry only parent and sibling.
func UpdateKernel(buf []cell.Record, modes []cell.Mode, p UpdateParams, queue *AdditionQueue, markDead func(uint32)) device.Kernel {
	return func(lane int) {
		rec := &buf[lane]
		mode := cell.ModeFor(modes, rec.ModeIndex)

		rec.Age += p.DT
		rec.Toxins += mode.ToxinRate * p.DT
		rec.Nitrates -= mode.NitrateRate * p.DT

		decay := float32(math.Exp(float64(-mode.SignalDecay * p.DT)))
		rec.Signals = rec.Signals.Mul(decay)

		// Division: split timer elapsed and the nitrate budget covers it.
		if rec.Age >= mode.SplitInterval && rec.Nitrates >= mode.SplitCost {
			if divide(rec, mode, queue) {
				markDead(uint32(lane))
			}
			return
		}

		// Death policy: starvation, toxin overload, or old age.
		if rec.Nitrates <= 0 || rec.Toxins >= p.ToxinKillThreshold || rec.Age >= p.MaxAge {
			markDead(uint32(lane))
		}
	}
}

// divide enqueues two daughter records sharing a fresh parent lineage and
// reports whether the parent should die. If the queue saturates before
// either daughter is accepted, the parent survives and retries next frame;
// a lone accepted daughter still spawns - saturation drops are bounded,
// not rolled back.
func divide(parent *cell.Record, mode *cell.Mode, queue *AdditionQueue) bool {
	axis := parent.Orientation.Rotate(mgl32.Vec3{1, 0, 0})
	offset := axis.Mul(parent.Radius() * 0.5)

	nitrates := (parent.Nitrates - mode.SplitCost) / 2
	mass := parent.Mass() / 2
	pos := parent.Position()

	accepted := false
	for sibling := uint8(0); sibling < 2; sibling++ {
		d := *parent
		d.PositionAndMass[3] = mass
		d.Age = 0
		d.Nitrates = nitrates
		d.JustSplit = 1
		// Cell field filled in by the allocator at drain.
		d.UniqueID = cell.NewID(parent.UniqueID.Cell(), 0, sibling)

		if sibling == 0 {
			d.SetPosition(pos.Add(offset))
		} else {
			d.SetPosition(pos.Sub(offset))
		}

		if queue.Push(d) {
			accepted = true
		}
	}
	return accepted
}

// ClearJustSplitKernel zeroes the just-split flag. Dispatched at the end of
// the frame after the one that set it, once consumers have seen it.
func ClearJustSplitKernel(buf []cell.Record) device.Kernel {
	return func(lane int) {
		buf[lane].JustSplit = 0
	}
}
