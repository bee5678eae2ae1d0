package engine

import (
	"log/slog"
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/pthm-cable/protocell/cell"
)

// SpawnCells pushes n root cells onto the addition queue, uniformly placed in
// the configured spawn sphere. They enter the live range at the next drain;
// pushes past the queue capacity are dropped and counted like any other
// saturated producer.
func (e *Engine) SpawnCells(n int) int {
	radius := float32(e.cfg.Capacity.SpawnRadius)
	nitrates := float32(e.cfg.Lifecycle.InitialNitrates)

	accepted := 0
	for i := 0; i < n; i++ {
		var rec cell.Record
		pos := e.randomInSphere(radius)
		mass := 0.5 + e.rng.Float32()
		rec.PositionAndMass = mgl32.Vec4{pos[0], pos[1], pos[2], mass}
		rec.Orientation = e.randomOrientation()
		rec.AngularVelocity = mgl32.QuatIdent()
		rec.AngularAccel = mgl32.QuatIdent()
		rec.ModeIndex = int32(e.rng.Intn(len(e.modes)))
		rec.Nitrates = nitrates
		rec.UniqueID = cell.NewID(cell.RootParent, 0, 0)

		if e.queue.Push(rec) {
			accepted++
		}
	}

	if accepted < n {
		slog.Warn("spawn truncated by queue capacity", "requested", n, "queued", accepted)
	}
	return accepted
}

// randomInSphere returns a uniform point inside a sphere of the given radius.
func (e *Engine) randomInSphere(radius float32) mgl32.Vec3 {
	for {
		v := mgl32.Vec3{
			e.rng.Float32()*2 - 1,
			e.rng.Float32()*2 - 1,
			e.rng.Float32()*2 - 1,
		}
		if v.Dot(v) <= 1 {
			return v.Mul(radius)
		}
	}
}

// randomOrientation returns a uniformly distributed unit quaternion
// (Shoemake's subgroup method).
func (e *Engine) randomOrientation() mgl32.Quat {
	u1 := e.rng.Float64()
	u2 := e.rng.Float64() * 2 * math.Pi
	u3 := e.rng.Float64() * 2 * math.Pi

	a := math.Sqrt(1 - u1)
	b := math.Sqrt(u1)
	return mgl32.Quat{
		W: float32(a * math.Sin(u2)),
		V: mgl32.Vec3{
			float32(a * math.Cos(u2)),
			float32(b * math.Sin(u3)),
			float32(b * math.Cos(u3)),
		},
	}
}
