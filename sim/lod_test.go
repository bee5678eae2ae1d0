package sim

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/pthm-cable/protocell/camera"
	"github.com/pthm-cable/protocell/cell"
)

var testDistances = [NumLOD]float32{20, 60, 150, 250}

func runLOD(p *LODPipeline, recs []cell.Record, fr *camera.Frustum, camPos mgl32.Vec3) {
	p.Reset()
	cull := p.CullKernel(recs, fr)
	for i := range recs {
		cull(i)
	}
	classify := p.ClassifyKernel(recs, cell.DefaultModes(), camPos)
	for i := 0; i < p.VisibleCount(); i++ {
		classify(i)
	}
}

func recordAt(x, y, z float32) cell.Record {
	var r cell.Record
	r.PositionAndMass = mgl32.Vec4{x, y, z, 1}
	r.Orientation = mgl32.QuatIdent()
	return r
}

func lookDownZ() camera.Frustum {
	return camera.New(
		mgl32.Vec3{0, 0, 0}, mgl32.Vec3{0, 0, -1}, mgl32.Vec3{0, 1, 0},
		mgl32.DegToRad(60), 1.0, 0.1, 1000,
	)
}

func TestLODPipeline_DistanceBuckets(t *testing.T) {
	fr := lookDownZ()
	camPos := mgl32.Vec3{0, 0, 0}

	cases := []struct {
		dist   float32
		bucket int
	}{
		{10, 0},
		{20, 0}, // threshold is inclusive
		{30, 1},
		{60, 1},
		{100, 2},
		{200, 3},
		{250, 3},
	}

	for _, tc := range cases {
		p := NewLODPipeline(testDistances, 8)
		recs := []cell.Record{recordAt(0, 0, -tc.dist)}
		runLOD(p, recs, &fr, camPos)

		counts := p.Counts()
		for level, n := range counts {
			want := 0
			if level == tc.bucket {
				want = 1
			}
			if n != want {
				t.Errorf("distance %.0f: bucket %d has %d instances, expected %d", tc.dist, level, n, want)
			}
		}
	}
}

func TestLODPipeline_BeyondFarThresholdCulled(t *testing.T) {
	fr := lookDownZ()
	p := NewLODPipeline(testDistances, 8)
	recs := []cell.Record{recordAt(0, 0, -300)}

	runLOD(p, recs, &fr, mgl32.Vec3{0, 0, 0})

	if p.VisibleCount() != 1 {
		t.Fatalf("expected cell inside frustum, visible %d", p.VisibleCount())
	}
	for level, n := range p.Counts() {
		if n != 0 {
			t.Errorf("expected no instances beyond far threshold, bucket %d has %d", level, n)
		}
	}
}

func TestLODPipeline_FrustumCullsBehindCamera(t *testing.T) {
	fr := lookDownZ()
	p := NewLODPipeline(testDistances, 8)
	recs := []cell.Record{
		recordAt(0, 0, -50), // in front
		recordAt(0, 0, 50),  // behind
	}

	runLOD(p, recs, &fr, mgl32.Vec3{0, 0, 0})

	if p.VisibleCount() != 1 {
		t.Errorf("expected 1 visible cell, got %d", p.VisibleCount())
	}
}

func TestLODPipeline_CullingDisabled(t *testing.T) {
	fr := lookDownZ()
	p := NewLODPipeline(testDistances, 8)
	p.SetCullingEnabled(false)
	recs := []cell.Record{
		recordAt(0, 0, -50),
		recordAt(0, 0, 50),
	}

	runLOD(p, recs, &fr, mgl32.Vec3{0, 0, 0})

	if p.VisibleCount() != 2 {
		t.Errorf("expected every live cell visible with culling off, got %d", p.VisibleCount())
	}
}

func TestLODPipeline_LODDisabled(t *testing.T) {
	fr := lookDownZ()
	p := NewLODPipeline(testDistances, 8)
	p.SetLODEnabled(false)
	recs := []cell.Record{
		recordAt(0, 0, -10),
		recordAt(0, 0, -100),
		recordAt(0, 0, -400), // beyond far threshold, still full detail
	}

	runLOD(p, recs, &fr, mgl32.Vec3{0, 0, 0})

	if got := p.Count(0); got != 3 {
		t.Errorf("expected all visible cells in bucket 0 with lod off, got %d", got)
	}
	for level := 1; level < NumLOD; level++ {
		if p.Count(level) != 0 {
			t.Errorf("expected bucket %d empty with lod off, got %d", level, p.Count(level))
		}
	}
}

func TestLODPipeline_InstanceCarriesRenderState(t *testing.T) {
	fr := lookDownZ()
	p := NewLODPipeline(testDistances, 8)

	rec := recordAt(1, 2, -10)
	rec.PositionAndMass[3] = 8 // radius 2
	runLOD(p, []cell.Record{rec}, &fr, mgl32.Vec3{0, 0, 0})

	list := p.Instances(0)
	if len(list) != 1 {
		t.Fatalf("expected one instance, got %d", len(list))
	}
	inst := list[0]
	if inst.PositionAndRadius[0] != 1 || inst.PositionAndRadius[1] != 2 || inst.PositionAndRadius[2] != -10 {
		t.Errorf("unexpected position %v", inst.PositionAndRadius)
	}
	if d := inst.PositionAndRadius[3] - 2; d > 1e-5 || d < -1e-5 {
		t.Errorf("expected radius 2, got %f", inst.PositionAndRadius[3])
	}
}
