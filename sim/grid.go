package sim

import (
	"math"
	"sync/atomic"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/pthm-cable/protocell/cell"
	"github.com/pthm-cable/protocell/device"
)

// Grid is the uniform spatial index rebuilt every frame from the freshly
// written cell buffer. Buckets are keyed by a spatial hash of the floored
// grid coordinate; the rebuild is four passes ordered by data dependency:
//
//	clear   - zero bucket counters
//	assign  - count occupancy per bucket (atomic increments, no index lists)
//	prefix  - exclusive prefix sum of counts into flat-array offsets
//	insert  - each cell claims a slot in its bucket's range and writes its index
//
// Counting before placing keeps contention on one counter per bucket instead
// of a shared list. The active-bucket list is a throughput optimization for
// sparse populations, not a correctness requirement.
type Grid struct {
	cellSize float32
	buckets  int

	counts  []atomic.Uint32
	offsets []uint32
	cursors []atomic.Uint32
	indices []uint32

	active      []uint32
	activeCount atomic.Uint32
}

// NewGrid creates a grid with the given bucket-edge length, hash table size,
// and index capacity (the store capacity).
func NewGrid(cellSize float32, buckets, capacity int) *Grid {
	return &Grid{
		cellSize: cellSize,
		buckets:  buckets,
		counts:   make([]atomic.Uint32, buckets),
		offsets:  make([]uint32, buckets+1),
		cursors:  make([]atomic.Uint32, buckets),
		indices:  make([]uint32, capacity),
		active:   make([]uint32, buckets),
	}
}

// Buckets returns the hash table size (the lane count of the clear pass).
func (g *Grid) Buckets() int { return g.buckets }

// BucketFor hashes a world position to its bucket. Cells exactly on a bucket
// boundary land by floor division; no special-casing.
func (g *Grid) BucketFor(p mgl32.Vec3) uint32 {
	x := int32(math.Floor(float64(p[0] / g.cellSize)))
	y := int32(math.Floor(float64(p[1] / g.cellSize)))
	z := int32(math.Floor(float64(p[2] / g.cellSize)))
	return g.hash(x, y, z)
}

func (g *Grid) hash(x, y, z int32) uint32 {
	h := uint32(x)*73856093 ^ uint32(y)*19349663 ^ uint32(z)*83492791
	return h % uint32(g.buckets)
}

// ClearKernel zeroes one bucket's counters per lane. The active list resets
// with the counters.
func (g *Grid) ClearKernel() device.Kernel {
	g.activeCount.Store(0)
	return func(lane int) {
		g.counts[lane].Store(0)
		g.cursors[lane].Store(0)
	}
}

// AssignKernel counts one cell per lane into its bucket. The first cell to
// land in a bucket also registers it on the active list.
func (g *Grid) AssignKernel(recs []cell.Record) device.Kernel {
	return func(lane int) {
		b := g.BucketFor(recs[lane].Position())
		if g.counts[b].Add(1) == 1 {
			slot := g.activeCount.Add(1) - 1
			g.active[slot] = b
		}
	}
}

// PrefixSum converts bucket counts into starting offsets in the flat index
// array and seeds the per-bucket insert cursors. Runs as a single-lane pass;
// the scan is sequential by nature.
func (g *Grid) PrefixSum() {
	var sum uint32
	for i := 0; i < g.buckets; i++ {
		g.offsets[i] = sum
		sum += g.counts[i].Load()
		g.cursors[i].Store(g.offsets[i])
	}
	g.offsets[g.buckets] = sum
}

// InsertKernel places one cell index per lane into its bucket's slot range,
// claiming a slot with the bucket's cursor.
func (g *Grid) InsertKernel(recs []cell.Record) device.Kernel {
	return func(lane int) {
		b := g.BucketFor(recs[lane].Position())
		slot := g.cursors[b].Add(1) - 1
		g.indices[slot] = uint32(lane)
	}
}

// Bucket returns the index slice of one bucket. Valid only after the insert
// pass has been barrier-flushed.
func (g *Grid) Bucket(b uint32) []uint32 {
	start := g.offsets[b]
	return g.indices[start : start+g.counts[b].Load()]
}

// ActiveBuckets returns the buckets with at least one cell, in discovery
// order.
func (g *Grid) ActiveBuckets() []uint32 {
	return g.active[:g.activeCount.Load()]
}

// ForEachNeighbor visits the index of every cell whose bucket falls within
// radius of p. Hash collisions can alias distinct grid coordinates onto one
// bucket, so each bucket is visited at most once and callers must distance-
// check the candidates they receive.
func (g *Grid) ForEachNeighbor(p mgl32.Vec3, radius float32, fn func(index uint32)) {
	r := int32(radius/g.cellSize) + 1
	cx := int32(math.Floor(float64(p[0] / g.cellSize)))
	cy := int32(math.Floor(float64(p[1] / g.cellSize)))
	cz := int32(math.Floor(float64(p[2] / g.cellSize)))

	// Buckets already visited this query. The backing array covers a
	// reach-2 query (5x5x5 coordinates); wider reaches spill to the heap.
	var seenBuf [128]uint32
	seen := seenBuf[:0]

	for dz := -r; dz <= r; dz++ {
		for dy := -r; dy <= r; dy++ {
			for dx := -r; dx <= r; dx++ {
				b := g.hash(cx+dx, cy+dy, cz+dz)

				dup := false
				for _, s := range seen {
					if s == b {
						dup = true
						break
					}
				}
				if dup {
					continue
				}
				seen = append(seen, b)

				for _, idx := range g.Bucket(b) {
					fn(idx)
				}
			}
		}
	}
}
