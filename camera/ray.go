package camera

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Ray is a world-space picking ray with a normalized direction.
type Ray struct {
	Origin    mgl32.Vec3
	Direction mgl32.Vec3
}

// ScreenRay converts a screen position in pixels into a world-space picking
// ray by unprojecting through the inverse of the combined view-projection
// matrix.
func ScreenRay(mouseX, mouseY, screenW, screenH float32, pos, target, up mgl32.Vec3, fovY, aspect, near, far float32) Ray {
	proj := mgl32.Perspective(fovY, aspect, near, far)
	view := mgl32.LookAtV(pos, target, up)
	inv := proj.Mul4(view).Inv()

	// NDC with y flipped: screen y grows downward.
	nx := 2*mouseX/screenW - 1
	ny := 1 - 2*mouseY/screenH

	nearPt := unproject(inv, mgl32.Vec4{nx, ny, -1, 1})
	farPt := unproject(inv, mgl32.Vec4{nx, ny, 1, 1})

	return Ray{Origin: nearPt, Direction: farPt.Sub(nearPt).Normalize()}
}

func unproject(inv mgl32.Mat4, ndc mgl32.Vec4) mgl32.Vec3 {
	w := inv.Mul4x1(ndc)
	if w[3] != 0 {
		w = w.Mul(1 / w[3])
	}
	return mgl32.Vec3{w[0], w[1], w[2]}
}

// IntersectSphere returns the distance along the ray to the nearest
// intersection with the sphere, and whether the ray hits it at all.
// Intersections behind the origin do not count.
func (r Ray) IntersectSphere(center mgl32.Vec3, radius float32) (float32, bool) {
	oc := r.Origin.Sub(center)
	b := oc.Dot(r.Direction)
	c := oc.Dot(oc) - radius*radius

	disc := b*b - c
	if disc < 0 {
		return 0, false
	}

	sq := float32(math.Sqrt(float64(disc)))
	t := -b - sq
	if t < 0 {
		t = -b + sq // origin inside the sphere
	}
	if t < 0 {
		return 0, false
	}
	return t, true
}
