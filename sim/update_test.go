package sim

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/pthm-cable/protocell/cell"
)

func testModes() []cell.Mode {
	return []cell.Mode{
		{SplitInterval: 10, SplitCost: 0.4, ToxinRate: 0.01, NitrateRate: 0.02, SignalDecay: 0.5},
	}
}

func baseRecord(id cell.ID) cell.Record {
	var r cell.Record
	r.PositionAndMass = mgl32.Vec4{0, 0, 0, 1}
	r.Orientation = mgl32.QuatIdent()
	r.Nitrates = 1
	r.UniqueID = id
	return r
}

func runUpdate(buf []cell.Record, p UpdateParams, queue *AdditionQueue) map[uint32]bool {
	dead := map[uint32]bool{}
	kernel := UpdateKernel(buf, testModes(), p, queue, func(idx uint32) { dead[idx] = true })
	for i := range buf {
		kernel(i)
	}
	return dead
}

func TestUpdateKernel_Accumulation(t *testing.T) {
	buf := []cell.Record{baseRecord(cell.NewID(0, 1, 0))}
	buf[0].Signals = mgl32.Vec4{1, 1, 1, 1}

	p := UpdateParams{DT: 1, MaxAge: 100, ToxinKillThreshold: 10}
	dead := runUpdate(buf, p, NewAdditionQueue(4))

	if len(dead) != 0 {
		t.Fatalf("healthy cell died: %v", dead)
	}
	r := &buf[0]
	if r.Age != 1 {
		t.Errorf("expected age 1, got %f", r.Age)
	}
	if r.Toxins != 0.01 {
		t.Errorf("expected toxins 0.01, got %f", r.Toxins)
	}
	if d := r.Nitrates - 0.98; d > 1e-6 || d < -1e-6 {
		t.Errorf("expected nitrates 0.98, got %f", r.Nitrates)
	}
	if r.Signals[0] >= 1 {
		t.Errorf("expected signal decay, got %f", r.Signals[0])
	}
}

func TestUpdateKernel_DeathPolicies(t *testing.T) {
	p := UpdateParams{DT: 0.1, MaxAge: 50, ToxinKillThreshold: 3}

	starved := baseRecord(cell.NewID(0, 1, 0))
	starved.Nitrates = 0.001

	poisoned := baseRecord(cell.NewID(0, 2, 0))
	poisoned.Toxins = 3.5

	aged := baseRecord(cell.NewID(0, 3, 0))
	aged.Age = 49.95    // crosses MaxAge this step
	aged.Nitrates = 0.3 // below the split cost, so division cannot preempt

	buf := []cell.Record{starved, poisoned, aged}
	dead := runUpdate(buf, p, NewAdditionQueue(8))

	for idx := uint32(0); idx < 3; idx++ {
		if !dead[idx] {
			t.Errorf("expected cell %d dead", idx)
		}
	}
}

func TestUpdateKernel_DivisionEnqueuesDaughters(t *testing.T) {
	parent := baseRecord(cell.NewID(5, 77, 1))
	parent.Age = 11 // past the split interval
	parent.Nitrates = 1
	parent.PositionAndMass = mgl32.Vec4{1, 2, 3, 8}

	buf := []cell.Record{parent}
	queue := NewAdditionQueue(8)
	p := UpdateParams{DT: 0.1, MaxAge: 100, ToxinKillThreshold: 10}
	dead := runUpdate(buf, p, queue)

	if !dead[0] {
		t.Fatal("expected dividing parent marked dead")
	}
	if queue.Pending() != 2 {
		t.Fatalf("expected 2 daughters queued, got %d", queue.Pending())
	}

	var daughters []cell.Record
	queue.Drain(func(rec cell.Record) bool {
		daughters = append(daughters, rec)
		return true
	})

	siblings := map[uint8]bool{}
	for _, d := range daughters {
		if d.UniqueID.Parent() != 77 {
			t.Errorf("expected daughter parent field 77 (the parent's cell id), got %d", d.UniqueID.Parent())
		}
		if d.UniqueID.Cell() != 0 {
			t.Errorf("expected cell field unassigned until drain, got %d", d.UniqueID.Cell())
		}
		siblings[d.UniqueID.Sibling()] = true

		if d.Age != 0 {
			t.Errorf("expected daughter age reset, got %f", d.Age)
		}
		if d.JustSplit != 1 {
			t.Error("expected just-split flag set")
		}
		if d.Mass() != 4 {
			t.Errorf("expected half the parent mass, got %f", d.Mass())
		}
		if d.Nitrates >= parent.Nitrates {
			t.Errorf("expected split cost deducted, daughter has %f", d.Nitrates)
		}
	}
	if !siblings[0] || !siblings[1] {
		t.Errorf("expected sibling bits 0 and 1, got %v", siblings)
	}

	if daughters[0].Position() == daughters[1].Position() {
		t.Error("expected daughters offset to opposite sides")
	}
}

func TestUpdateKernel_DivisionRequiresNitrates(t *testing.T) {
	parent := baseRecord(cell.NewID(0, 1, 0))
	parent.Age = 11
	parent.Nitrates = 0.1 // below the split cost

	buf := []cell.Record{parent}
	queue := NewAdditionQueue(8)
	dead := runUpdate(buf, UpdateParams{DT: 0.1, MaxAge: 100, ToxinKillThreshold: 10}, queue)

	if queue.Pending() != 0 {
		t.Errorf("expected no division without nitrate budget, %d queued", queue.Pending())
	}
	if len(dead) != 0 {
		t.Errorf("expected parent alive, dead set %v", dead)
	}
}

func TestUpdateKernel_SaturatedDivision(t *testing.T) {
	// Queue of one: a single daughter is admitted, the other drops, and the
	// parent still dies.
	parent := baseRecord(cell.NewID(0, 1, 0))
	parent.Age = 11
	parent.Nitrates = 1

	buf := []cell.Record{parent}
	queue := NewAdditionQueue(1)
	dead := runUpdate(buf, UpdateParams{DT: 0.1, MaxAge: 100, ToxinKillThreshold: 10}, queue)

	if queue.Pending() != 1 {
		t.Errorf("expected 1 daughter queued, got %d", queue.Pending())
	}
	if queue.Dropped() != 1 {
		t.Errorf("expected 1 daughter dropped, got %d", queue.Dropped())
	}
	if !dead[0] {
		t.Error("expected parent dead after partial division")
	}
}

func TestClearJustSplitKernel(t *testing.T) {
	buf := make([]cell.Record, 3)
	for i := range buf {
		buf[i].JustSplit = 1
	}

	kernel := ClearJustSplitKernel(buf)
	for i := range buf {
		kernel(i)
	}

	for i := range buf {
		if buf[i].JustSplit != 0 {
			t.Errorf("cell %d flag not cleared", i)
		}
	}
}
