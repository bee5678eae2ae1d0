package engine

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/pthm-cable/protocell/camera"
	"github.com/pthm-cable/protocell/cell"
)

// Selection is the host-side handle on one live cell. The index is a slot in
// the read buffer and can move when compaction shuffles the live range, so it
// is revalidated against the stored id at every drain.
type Selection struct {
	Index        int
	ID           cell.ID
	DragDistance float32
}

// Selected returns the current selection. Index is -1 when nothing is
// selected.
func (e *Engine) Selected() Selection {
	return e.selection
}

// SelectAt ray-picks the nearest live cell along the ray and selects it.
// Returns the selected index, or -1 on a miss (which clears the selection).
// Blocks until in-flight passes finish, then scans the device-truth buffer.
func (e *Engine) SelectAt(ray camera.Ray) int {
	e.disp.Sync()
	buf := e.store.Read()
	live := e.store.LiveCount()

	best := -1
	bestT := float32(mgl32.InfPos)
	for i := 0; i < live; i++ {
		rec := &buf[i]
		t, ok := ray.IntersectSphere(rec.Position(), rec.Radius())
		if ok && t < bestT {
			best = i
			bestT = t
		}
	}

	if best < 0 {
		e.ClearSelection()
		return -1
	}
	e.selection = Selection{Index: best, ID: buf[best].UniqueID, DragDistance: bestT}
	return best
}

// ClearSelection drops the selection and any active drag.
func (e *Engine) ClearSelection() {
	e.selection.Index = -1
	e.pinned = -1
}

// Snapshot copies the record of one live slot, blocking until in-flight
// passes finish.
func (e *Engine) Snapshot(index int) (cell.Record, error) {
	e.disp.Sync()
	return e.store.Snapshot(index)
}

// ApplyEdit overwrites one live slot. The record's id field is preserved from
// the stored record; edits cannot forge identities.
func (e *Engine) ApplyEdit(index int, rec cell.Record) error {
	e.disp.Sync()
	current, err := e.store.Snapshot(index)
	if err != nil {
		return err
	}
	rec.UniqueID = current.UniqueID
	return e.store.ApplyEdit(index, rec)
}

// DragTo moves the selected cell to the point at its drag distance along the
// ray and pins it, excluding it from physics integration until EndDrag.
// No-op without a selection.
func (e *Engine) DragTo(ray camera.Ray) {
	if e.selection.Index < 0 {
		return
	}
	rec, err := e.store.Snapshot(e.selection.Index)
	if err != nil {
		e.ClearSelection()
		return
	}

	rec.SetPosition(ray.Origin.Add(ray.Direction.Mul(e.selection.DragDistance)))
	rec.Velocity = mgl32.Vec4{}
	rec.Acceleration = mgl32.Vec4{}
	if err := e.store.ApplyEdit(e.selection.Index, rec); err != nil {
		e.ClearSelection()
		return
	}
	e.pinned = e.selection.Index
}

// AdjustDragDistance scales the drag distance, moving a dragged cell toward
// or away from the camera.
func (e *Engine) AdjustDragDistance(delta float32) {
	if e.selection.Index < 0 {
		return
	}
	d := e.selection.DragDistance + delta
	if d < 1 {
		d = 1
	}
	e.selection.DragDistance = d
}

// EndDrag releases the pin; the cell rejoins physics next frame.
func (e *Engine) EndDrag() {
	e.pinned = -1
}

// revalidateSelection re-resolves the selected index after compaction moved
// records. The id is the durable handle; if its cell died the selection
// clears.
func (e *Engine) revalidateSelection() {
	if e.selection.Index < 0 {
		return
	}

	buf := e.store.Read()
	live := e.store.LiveCount()

	if e.selection.Index < live && buf[e.selection.Index].UniqueID == e.selection.ID {
		return
	}
	for i := 0; i < live; i++ {
		if buf[i].UniqueID == e.selection.ID {
			e.selection.Index = i
			if e.pinned >= 0 {
				e.pinned = i
			}
			return
		}
	}
	e.ClearSelection()
}
