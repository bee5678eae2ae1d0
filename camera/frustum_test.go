package camera

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func testFrustum() Frustum {
	return New(
		mgl32.Vec3{0, 0, 10}, mgl32.Vec3{0, 0, 0}, mgl32.Vec3{0, 1, 0},
		mgl32.DegToRad(60), 1.0, 0.1, 100,
	)
}

func TestFrustum_ContainsPoint(t *testing.T) {
	f := testFrustum()

	if !f.ContainsPoint(mgl32.Vec3{0, 0, 0}) {
		t.Error("expected look-at target inside")
	}
	if f.ContainsPoint(mgl32.Vec3{0, 0, 20}) {
		t.Error("expected point behind camera outside")
	}
	if f.ContainsPoint(mgl32.Vec3{0, 0, -100}) {
		t.Error("expected point past far plane outside")
	}
	if f.ContainsPoint(mgl32.Vec3{50, 0, 0}) {
		t.Error("expected point far off to the side outside")
	}
}

func TestFrustum_SphereStraddlingPlaneKept(t *testing.T) {
	f := testFrustum()

	// Center past the far plane but the sphere reaches back across it.
	if !f.ContainsSphere(mgl32.Vec3{0, 0, -91}, 5) {
		t.Error("expected straddling sphere kept")
	}
	// Wholly past the far plane.
	if f.ContainsSphere(mgl32.Vec3{0, 0, -100}, 5) {
		t.Error("expected sphere wholly beyond far plane rejected")
	}
}

func TestRay_IntersectSphere(t *testing.T) {
	ray := Ray{Origin: mgl32.Vec3{0, 0, 10}, Direction: mgl32.Vec3{0, 0, -1}}

	tHit, ok := ray.IntersectSphere(mgl32.Vec3{0, 0, 0}, 2)
	if !ok {
		t.Fatal("expected hit")
	}
	if d := tHit - 8; d > 1e-4 || d < -1e-4 {
		t.Errorf("expected near intersection at t=8, got %f", tHit)
	}

	if _, ok := ray.IntersectSphere(mgl32.Vec3{10, 0, 0}, 2); ok {
		t.Error("expected miss on offset sphere")
	}

	// Sphere behind the origin does not count.
	if _, ok := ray.IntersectSphere(mgl32.Vec3{0, 0, 20}, 2); ok {
		t.Error("expected sphere behind the ray ignored")
	}
}

func TestRay_IntersectSphereFromInside(t *testing.T) {
	ray := Ray{Origin: mgl32.Vec3{0, 0, 0}, Direction: mgl32.Vec3{0, 0, -1}}

	tHit, ok := ray.IntersectSphere(mgl32.Vec3{0, 0, 0}, 2)
	if !ok {
		t.Fatal("expected hit from inside the sphere")
	}
	if d := tHit - 2; d > 1e-4 || d < -1e-4 {
		t.Errorf("expected exit intersection at t=2, got %f", tHit)
	}
}

func TestScreenRay_CenterOfScreen(t *testing.T) {
	pos := mgl32.Vec3{0, 0, 10}
	target := mgl32.Vec3{0, 0, 0}

	ray := ScreenRay(400, 300, 800, 600, pos, target, mgl32.Vec3{0, 1, 0},
		mgl32.DegToRad(60), 800.0/600.0, 0.1, 100)

	// A ray through the screen center points straight at the target.
	want := target.Sub(pos).Normalize()
	if ray.Direction.Sub(want).Len() > 1e-3 {
		t.Errorf("expected center ray toward target, got %v", ray.Direction)
	}
}
