// Package renderer draws the cell population with raylib: an orbit camera,
// per-detail-level sphere meshes, and the stats HUD.
package renderer

import (
	"math"

	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/pthm-cable/protocell/camera"
	"github.com/pthm-cable/protocell/config"
)

// OrbitCamera orbits a target point: right-drag rotates, wheel zooms, middle
// drag pans the target in the view plane.
type OrbitCamera struct {
	Target   mgl32.Vec3
	Distance float32
	Yaw      float32 // radians around the world up axis
	Pitch    float32

	fovY float32 // radians
	near float32
	far  float32

	minDistance float32
	maxDistance float32
}

// NewOrbitCamera creates a camera from the configured projection, looking at
// the origin.
func NewOrbitCamera(cfg *config.Config) *OrbitCamera {
	return &OrbitCamera{
		Distance:    float32(cfg.Capacity.SpawnRadius) * 3,
		Pitch:       0.4,
		fovY:        mgl32.DegToRad(float32(cfg.Camera.FOV)),
		near:        float32(cfg.Camera.Near),
		far:         float32(cfg.Camera.Far),
		minDistance: 2,
		maxDistance: float32(cfg.Camera.Far) * 0.8,
	}
}

// Update applies this frame's mouse input. zoomEnabled is false while the
// wheel is claimed by a drag interaction.
func (c *OrbitCamera) Update(zoomEnabled bool) {
	if rl.IsMouseButtonDown(rl.MouseRightButton) {
		delta := rl.GetMouseDelta()
		c.Yaw -= delta.X * 0.005
		c.Pitch += delta.Y * 0.005

		limit := float32(math.Pi/2 - 0.05)
		if c.Pitch > limit {
			c.Pitch = limit
		}
		if c.Pitch < -limit {
			c.Pitch = -limit
		}
	}

	if rl.IsMouseButtonDown(rl.MouseMiddleButton) {
		delta := rl.GetMouseDelta()
		right, up := c.viewPlane()
		scale := c.Distance * 0.002
		c.Target = c.Target.Sub(right.Mul(delta.X * scale)).Add(up.Mul(delta.Y * scale))
	}

	if zoomEnabled {
		if wheel := rl.GetMouseWheelMove(); wheel != 0 {
			c.Distance *= 1 - wheel*0.1
			if c.Distance < c.minDistance {
				c.Distance = c.minDistance
			}
			if c.Distance > c.maxDistance {
				c.Distance = c.maxDistance
			}
		}
	}
}

// Position returns the camera's world position.
func (c *OrbitCamera) Position() mgl32.Vec3 {
	cp := float32(math.Cos(float64(c.Pitch)))
	offset := mgl32.Vec3{
		cp * float32(math.Sin(float64(c.Yaw))),
		float32(math.Sin(float64(c.Pitch))),
		cp * float32(math.Cos(float64(c.Yaw))),
	}
	return c.Target.Add(offset.Mul(c.Distance))
}

// viewPlane returns the camera's right and up vectors.
func (c *OrbitCamera) viewPlane() (right, up mgl32.Vec3) {
	forward := c.Target.Sub(c.Position()).Normalize()
	right = forward.Cross(mgl32.Vec3{0, 1, 0}).Normalize()
	up = right.Cross(forward)
	return right, up
}

// Frustum builds the culling frustum for the current view.
func (c *OrbitCamera) Frustum(aspect float32) camera.Frustum {
	return camera.New(c.Position(), c.Target, mgl32.Vec3{0, 1, 0}, c.fovY, aspect, c.near, c.far)
}

// ScreenRay converts a screen position into a world-space picking ray.
func (c *OrbitCamera) ScreenRay(mouseX, mouseY, screenW, screenH float32) camera.Ray {
	return camera.ScreenRay(mouseX, mouseY, screenW, screenH,
		c.Position(), c.Target, mgl32.Vec3{0, 1, 0},
		c.fovY, screenW/screenH, c.near, c.far)
}

// Raylib returns the equivalent raylib 3D camera for BeginMode3D.
func (c *OrbitCamera) Raylib() rl.Camera3D {
	pos := c.Position()
	return rl.Camera3D{
		Position:   rl.Vector3{X: pos[0], Y: pos[1], Z: pos[2]},
		Target:     rl.Vector3{X: c.Target[0], Y: c.Target[1], Z: c.Target[2]},
		Up:         rl.Vector3{X: 0, Y: 1, Z: 0},
		Fovy:       mgl32.RadToDeg(c.fovY),
		Projection: rl.CameraPerspective,
	}
}
