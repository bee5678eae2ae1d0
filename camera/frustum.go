// Package camera provides the view frustum and picking math consumed by the
// culling pipeline and the selection bridge. The orchestrator recomputes the
// frustum from camera pose and projection parameters once per frame and
// passes it into the cull pass by value.
package camera

import "github.com/go-gl/mathgl/mgl32"

// Frustum is six world-space planes in xyz=normal, w=distance form, normals
// pointing inward. A point p is inside when dot(n, p) + w >= 0 for all six.
type Frustum struct {
	planes [6]mgl32.Vec4
}

// New builds the frustum for a perspective camera.
// fovY is the vertical field of view in radians.
func New(pos, target, up mgl32.Vec3, fovY, aspect, near, far float32) Frustum {
	proj := mgl32.Perspective(fovY, aspect, near, far)
	view := mgl32.LookAtV(pos, target, up)
	return FromMatrix(proj.Mul4(view))
}

// FromMatrix extracts the six planes from a combined projection*view matrix
// (Gribb/Hartmann).
func FromMatrix(m mgl32.Mat4) Frustum {
	r0 := m.Row(0)
	r1 := m.Row(1)
	r2 := m.Row(2)
	r3 := m.Row(3)

	var f Frustum
	f.planes[0] = normalizePlane(r3.Add(r0)) // left
	f.planes[1] = normalizePlane(r3.Sub(r0)) // right
	f.planes[2] = normalizePlane(r3.Add(r1)) // bottom
	f.planes[3] = normalizePlane(r3.Sub(r1)) // top
	f.planes[4] = normalizePlane(r3.Add(r2)) // near
	f.planes[5] = normalizePlane(r3.Sub(r2)) // far
	return f
}

func normalizePlane(p mgl32.Vec4) mgl32.Vec4 {
	n := mgl32.Vec3{p[0], p[1], p[2]}
	l := n.Len()
	if l == 0 {
		return p
	}
	return p.Mul(1 / l)
}

// ContainsSphere reports whether the sphere intersects the frustum. Spheres
// wholly behind any single plane are rejected; straddling spheres are kept.
func (f *Frustum) ContainsSphere(center mgl32.Vec3, radius float32) bool {
	for _, p := range f.planes {
		d := p[0]*center[0] + p[1]*center[1] + p[2]*center[2] + p[3]
		if d < -radius {
			return false
		}
	}
	return true
}

// ContainsPoint reports whether a point lies inside the frustum.
func (f *Frustum) ContainsPoint(p mgl32.Vec3) bool {
	return f.ContainsSphere(p, 0)
}
