package sim

import (
	"sync/atomic"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/pthm-cable/protocell/camera"
	"github.com/pthm-cable/protocell/cell"
	"github.com/pthm-cable/protocell/device"
)

// NumLOD is the number of detail levels. Cells beyond the last distance
// threshold are distance-culled and land in no bucket.
const NumLOD = 4

// Instance is one render record, grouped per LOD bucket for the renderer.
type Instance struct {
	PositionAndRadius mgl32.Vec4
	Orientation       mgl32.Quat
	Color             mgl32.Vec4
}

// LODPipeline classifies live cells into per-detail-level instance lists:
// a frustum pass compacts survivors into a visible list, then a classify
// pass appends each visible cell's render record to its distance bucket.
// Both stages compact through atomic counters, so ordering within a bucket
// is nondeterministic; rendering order carries no meaning here.
type LODPipeline struct {
	distances   [NumLOD]float32
	lodEnabled  bool
	cullEnabled bool

	visible      []uint32
	visibleCount atomic.Uint32

	instances [NumLOD][]Instance
	counts    [NumLOD]atomic.Uint32
}

// NewLODPipeline sizes every list for the store capacity so atomic claims
// can never overflow.
func NewLODPipeline(distances [NumLOD]float32, capacity int) *LODPipeline {
	p := &LODPipeline{
		distances:   distances,
		lodEnabled:  true,
		cullEnabled: true,
		visible:     make([]uint32, capacity),
	}
	for i := range p.instances {
		p.instances[i] = make([]Instance, capacity)
	}
	return p
}

// SetLODEnabled toggles distance classification. When disabled, every
// visible cell lands in the full-detail bucket.
func (p *LODPipeline) SetLODEnabled(on bool) { p.lodEnabled = on }

// LODEnabled reports whether distance classification is active.
func (p *LODPipeline) LODEnabled() bool { return p.lodEnabled }

// SetCullingEnabled toggles the frustum test. When disabled, every live cell
// is visible.
func (p *LODPipeline) SetCullingEnabled(on bool) { p.cullEnabled = on }

// CullingEnabled reports whether the frustum test is active.
func (p *LODPipeline) CullingEnabled() bool { return p.cullEnabled }

// SetDistances replaces the ordered threshold list.
func (p *LODPipeline) SetDistances(d [NumLOD]float32) { p.distances = d }

// Reset clears the per-frame counters. Called by the orchestrator before the
// cull dispatch.
func (p *LODPipeline) Reset() {
	p.visibleCount.Store(0)
	for i := range p.counts {
		p.counts[i].Store(0)
	}
}

// CullKernel tests one cell's bounding sphere per lane against the frustum
// and appends survivors to the compact visible list.
func (p *LODPipeline) CullKernel(recs []cell.Record, fr *camera.Frustum) device.Kernel {
	return func(lane int) {
		rec := &recs[lane]
		if p.cullEnabled && !fr.ContainsSphere(rec.Position(), rec.Radius()) {
			return
		}
		slot := p.visibleCount.Add(1) - 1
		p.visible[slot] = uint32(lane)
	}
}

// ClassifyKernel buckets one visible cell per lane by camera distance and
// appends its render record to that bucket's instance list. Lane count is
// the visible count, so the cull pass must be flushed first.
func (p *LODPipeline) ClassifyKernel(recs []cell.Record, modes []cell.Mode, camPos mgl32.Vec3) device.Kernel {
	return func(lane int) {
		idx := p.visible[lane]
		rec := &recs[idx]
		pos := rec.Position()

		level := 0
		if p.lodEnabled {
			dist := pos.Sub(camPos).Len()
			for level < NumLOD && dist > p.distances[level] {
				level++
			}
			if level == NumLOD {
				return // beyond the far threshold: distance-culled
			}
		}

		slot := p.counts[level].Add(1) - 1
		p.instances[level][slot] = Instance{
			PositionAndRadius: mgl32.Vec4{pos[0], pos[1], pos[2], rec.Radius()},
			Orientation:       rec.Orientation,
			Color:             cell.ModeFor(modes, rec.ModeIndex).Color,
		}
	}
}

// VisibleCount returns the number of cells that passed the frustum test.
// Valid after the cull pass has been flushed.
func (p *LODPipeline) VisibleCount() int {
	return int(p.visibleCount.Load())
}

// Count returns the instance count of one LOD bucket.
func (p *LODPipeline) Count(level int) int {
	return int(p.counts[level].Load())
}

// Counts returns all bucket counts.
func (p *LODPipeline) Counts() [NumLOD]int {
	var out [NumLOD]int
	for i := range out {
		out[i] = int(p.counts[i].Load())
	}
	return out
}

// Instances returns one bucket's instance list, bounded by its count.
func (p *LODPipeline) Instances(level int) []Instance {
	return p.instances[level][:p.counts[level].Load()]
}
