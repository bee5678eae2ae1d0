package engine

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/pthm-cable/protocell/camera"
	"github.com/pthm-cable/protocell/cell"
	"github.com/pthm-cable/protocell/config"
)

func testEngine(t *testing.T) *Engine {
	t.Helper()
	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	e, err := New(cfg, Options{Workers: 2, Seed: 42})
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	t.Cleanup(e.Close)
	return e
}

func step(e *Engine) {
	e.Step(nil, mgl32.Vec3{})
}

func TestEngine_SpawnAssignsUniqueRootIDs(t *testing.T) {
	e := testEngine(t)

	if got := e.SpawnCells(100); got != 100 {
		t.Fatalf("expected 100 queued, got %d", got)
	}
	step(e)

	if e.CellCount() != 100 {
		t.Fatalf("expected 100 live cells, got %d", e.CellCount())
	}

	seen := make(map[uint32]bool)
	for i := 0; i < 100; i++ {
		rec, err := e.Snapshot(i)
		if err != nil {
			t.Fatalf("snapshot %d: %v", i, err)
		}
		id := rec.UniqueID
		if id.Parent() != cell.RootParent {
			t.Errorf("cell %d: expected root parent, got %d", i, id.Parent())
		}
		if id.Cell() == 0 {
			t.Errorf("cell %d: id never assigned", i)
		}
		if seen[id.Cell()] {
			t.Errorf("cell id %d issued twice", id.Cell())
		}
		seen[id.Cell()] = true
	}
}

func TestEngine_HostCountLagsOneFrame(t *testing.T) {
	e := testEngine(t)

	e.SpawnCells(10)

	// The spawn sits in the queue until the next drain; the host count takes
	// one further rotation to surface it.
	if e.CellCount() != 0 {
		t.Fatalf("expected count 0 before stepping, got %d", e.CellCount())
	}
	step(e)
	if e.CellCount() != 10 {
		t.Errorf("expected count 10 after one step, got %d", e.CellCount())
	}
}

func TestEngine_StepsAreStable(t *testing.T) {
	e := testEngine(t)
	e.SpawnCells(200)

	for i := 0; i < 30; i++ {
		step(e)
	}

	if e.Frame() != 30 {
		t.Errorf("expected 30 frames, got %d", e.Frame())
	}
	if e.CellCount() <= 0 {
		t.Errorf("population died out in 30 frames: %d", e.CellCount())
	}
	if e.CellCount() > e.Config().Capacity.MaxCells {
		t.Errorf("population exceeded capacity: %d", e.CellCount())
	}
}

func TestEngine_CullPipelineRuns(t *testing.T) {
	e := testEngine(t)
	e.SpawnCells(50)
	step(e)

	// Aim at the spawn sphere from well outside it.
	pos := mgl32.Vec3{0, 0, 100}
	fr := camera.New(pos, mgl32.Vec3{}, mgl32.Vec3{0, 1, 0},
		mgl32.DegToRad(60), 1.0, 0.1, 1000)
	e.Step(&fr, pos)

	if e.VisibleCount() == 0 {
		t.Error("expected visible cells looking at the population")
	}
	total := 0
	for _, n := range e.LODCounts() {
		total += n
	}
	if total != e.VisibleCount() {
		t.Errorf("expected every visible cell classified, %d visible vs %d bucketed", e.VisibleCount(), total)
	}
}

func TestEngine_DivisionReplacesParentWithTwoDaughters(t *testing.T) {
	e := testEngine(t)
	e.SpawnCells(1)
	step(e)

	parent, err := e.Snapshot(0)
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	mode := e.Modes()[parent.ModeIndex]

	// Push the cell past its split timer with the nitrate budget covered.
	parent.Age = mode.SplitInterval
	parent.Nitrates = mode.SplitCost + 1
	if err := e.ApplyEdit(0, parent); err != nil {
		t.Fatalf("edit: %v", err)
	}
	parentID := parent.UniqueID

	// The division step enqueues the daughters; the next drain retires the
	// parent and admits them.
	step(e)
	step(e)

	if e.CellCount() != 2 {
		t.Fatalf("expected 2 cells after division drain, got %d", e.CellCount())
	}

	// The parent's recycled id may be reissued to a daughter; only
	// distinctness among the living matters.
	siblings := make(map[uint8]bool)
	cells := make(map[uint32]bool)
	for i := 0; i < 2; i++ {
		rec, err := e.Snapshot(i)
		if err != nil {
			t.Fatalf("snapshot daughter %d: %v", i, err)
		}
		id := rec.UniqueID
		if id.Parent() != parentID.Cell() {
			t.Errorf("daughter %d: expected parent %d, got %d", i, parentID.Cell(), id.Parent())
		}
		if id.Cell() == 0 {
			t.Errorf("daughter %d: id never assigned", i)
		}
		siblings[id.Sibling()] = true
		cells[id.Cell()] = true
	}
	if !siblings[0] || !siblings[1] {
		t.Errorf("expected siblings 0 and 1, got %v", siblings)
	}
	if len(cells) != 2 {
		t.Errorf("daughters share a cell id: %v", cells)
	}
}

func TestEngine_SelectionSurvivesEdit(t *testing.T) {
	e := testEngine(t)
	e.SpawnCells(20)
	step(e)

	target, err := e.Snapshot(0)
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	pos := target.Position()
	ray := camera.Ray{
		Origin:    pos.Add(mgl32.Vec3{0, 0, 50}),
		Direction: mgl32.Vec3{0, 0, -1},
	}

	idx := e.SelectAt(ray)
	if idx < 0 {
		t.Fatal("expected ray through a cell to select it")
	}

	// An edit cannot forge the identity field.
	rec, _ := e.Snapshot(idx)
	original := rec.UniqueID
	rec.UniqueID = cell.NewID(9, 9, 1)
	rec.Nitrates = 42
	if err := e.ApplyEdit(idx, rec); err != nil {
		t.Fatalf("edit: %v", err)
	}

	got, _ := e.Snapshot(idx)
	if got.UniqueID != original {
		t.Errorf("edit overwrote the id: %s -> %s", original, got.UniqueID)
	}
	if got.Nitrates != 42 {
		t.Errorf("edit payload lost, nitrates %f", got.Nitrates)
	}
}

func TestEngine_DragPinsCell(t *testing.T) {
	e := testEngine(t)
	e.SpawnCells(5)
	step(e)

	target, _ := e.Snapshot(0)
	ray := camera.Ray{
		Origin:    target.Position().Add(mgl32.Vec3{0, 0, 50}),
		Direction: mgl32.Vec3{0, 0, -1},
	}
	idx := e.SelectAt(ray)
	if idx < 0 {
		t.Fatal("selection missed")
	}

	dest := camera.Ray{Origin: mgl32.Vec3{200, 0, 0}, Direction: mgl32.Vec3{0, 0, -1}}
	e.DragTo(dest)

	sel := e.Selected()
	rec, _ := e.Snapshot(sel.Index)
	if rec.Position()[0] != 200 {
		t.Errorf("expected dragged cell at x=200, got %v", rec.Position())
	}

	// While pinned, a step leaves the dragged cell where the host put it.
	step(e)
	rec, err := e.Snapshot(e.Selected().Index)
	if err != nil {
		t.Fatalf("snapshot after step: %v", err)
	}
	if rec.Position()[0] != 200 {
		t.Errorf("expected pinned cell to hold position, got %v", rec.Position())
	}

	e.EndDrag()
}

func TestEngine_DeathRecyclesIDs(t *testing.T) {
	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	cfg.Capacity.IDPoolSize = 3
	e, err := New(cfg, Options{Workers: 2, Seed: 7})
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	t.Cleanup(e.Close)

	e.SpawnCells(3)
	step(e)
	if e.CellCount() != 3 {
		t.Fatalf("expected 3 live cells, got %d", e.CellCount())
	}

	// Starve everything; the next update pass marks all three dead.
	for i := 0; i < 3; i++ {
		rec, err := e.Snapshot(i)
		if err != nil {
			t.Fatalf("snapshot %d: %v", i, err)
		}
		rec.Nitrates = -1
		if err := e.ApplyEdit(i, rec); err != nil {
			t.Fatalf("edit %d: %v", i, err)
		}
	}
	step(e)
	step(e)
	if e.CellCount() != 0 {
		t.Fatalf("expected extinction, got %d cells", e.CellCount())
	}

	// The pool holds exactly 3 ids, so this respawn only succeeds if the
	// drain recycled the dead cells' ids.
	e.SpawnCells(3)
	step(e)
	if e.CellCount() != 3 {
		t.Errorf("expected 3 cells after respawn from recycled ids, got %d", e.CellCount())
	}
}

func TestEngine_ResetRestoresDefaults(t *testing.T) {
	e := testEngine(t)
	e.SpawnCells(50)
	step(e)
	step(e)

	e.Reset()
	if e.Frame() != 0 {
		t.Errorf("expected frame counter reset, got %d", e.Frame())
	}

	step(e)
	if e.CellCount() != e.Config().Capacity.DefaultCellCount {
		t.Errorf("expected default population %d after reset, got %d",
			e.Config().Capacity.DefaultCellCount, e.CellCount())
	}
}
