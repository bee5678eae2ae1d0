package cell

import (
	"math"
	"testing"
	"unsafe"
)

func TestRecord_Layout(t *testing.T) {
	if RecordSize != 160 {
		t.Errorf("expected 160-byte record, got %d", RecordSize)
	}
	if off := unsafe.Offsetof(Record{}.UniqueID); off != 128 {
		t.Errorf("expected UniqueID at offset 128, got %d", off)
	}
	if RecordSize%16 != 0 {
		t.Errorf("record size %d not a 16-byte multiple", RecordSize)
	}
}

func TestRecord_Position(t *testing.T) {
	var r Record
	r.PositionAndMass = [4]float32{1, 2, 3, 8}

	p := r.Position()
	if p[0] != 1 || p[1] != 2 || p[2] != 3 {
		t.Errorf("unexpected position %v", p)
	}

	r.SetPosition([3]float32{4, 5, 6})
	if r.PositionAndMass[3] != 8 {
		t.Error("SetPosition clobbered mass")
	}
	if r.Position() != [3]float32{4, 5, 6} {
		t.Errorf("unexpected position after set: %v", r.Position())
	}
}

func TestRecord_Radius(t *testing.T) {
	var r Record
	r.PositionAndMass[3] = 8

	if got := r.Radius(); math.Abs(float64(got)-2) > 1e-6 {
		t.Errorf("expected radius 2 for mass 8, got %f", got)
	}

	r.PositionAndMass[3] = 1
	if got := r.Radius(); math.Abs(float64(got)-1) > 1e-6 {
		t.Errorf("expected radius 1 for mass 1, got %f", got)
	}
}
