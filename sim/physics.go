package sim

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/pthm-cable/protocell/cell"
	"github.com/pthm-cable/protocell/device"
)

// PhysicsParams are the per-frame uniforms of the physics pass.
type PhysicsParams struct {
	DT        float32
	Drag      float32 // velocity damping per second
	Stiffness float32 // separation spring constant
	Pinned    int     // index under interactive drag; -1 when none
}

// neighborReach is the query radius in multiples of a cell's own radius.
const neighborReach = 4.0

// PhysicsKernel integrates one cell per lane: collision response against
// grid neighbors, then linear and angular integration. Reads in, writes out;
// the grid indexes in, built from it at the end of last frame, so neighbor
// indices past the live range (compacted this drain) are skipped.
//
// A pinned cell is copied through untouched so interactive edits don't race
// the integrator on the position field.
func PhysicsKernel(in, out []cell.Record, live int, grid *Grid, p PhysicsParams) device.Kernel {
	return func(lane int) {
		rec := in[lane]

		if lane == p.Pinned {
			out[lane] = rec
			return
		}

		pos := rec.Position()
		radius := rec.Radius()
		mass := rec.Mass()

		// Separation forces from overlapping neighbors.
		var force mgl32.Vec3
		grid.ForEachNeighbor(pos, radius*neighborReach, func(idx uint32) {
			if int(idx) == lane || int(idx) >= live {
				return
			}
			other := &in[idx]
			delta := pos.Sub(other.Position())
			distSq := delta.Dot(delta)
			minDist := radius + other.Radius()
			if distSq >= minDist*minDist || distSq == 0 {
				return
			}
			dist := float32(math.Sqrt(float64(distSq)))
			overlap := minDist - dist
			force = force.Add(delta.Mul(p.Stiffness * overlap / dist))
		})

		accel := force.Mul(1 / mass)
		rec.Acceleration = mgl32.Vec4{accel[0], accel[1], accel[2], 0}

		damp := float32(math.Exp(float64(-p.Drag * p.DT)))
		vel := mgl32.Vec3{rec.Velocity[0], rec.Velocity[1], rec.Velocity[2]}
		vel = vel.Add(accel.Mul(p.DT)).Mul(damp)
		rec.Velocity = mgl32.Vec4{vel[0], vel[1], vel[2], 0}

		rec.SetPosition(pos.Add(vel.Mul(p.DT)))

		// Angular integration: blend toward the angular-velocity rotation by
		// dt and damp it the same way as linear velocity.
		step := mgl32.QuatNlerp(mgl32.QuatIdent(), rec.AngularVelocity, p.DT)
		rec.Orientation = step.Mul(rec.Orientation).Normalize()
		rec.AngularVelocity = mgl32.QuatNlerp(mgl32.QuatIdent(), rec.AngularVelocity, damp)

		out[lane] = rec
	}
}
