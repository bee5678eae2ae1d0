package main

import (
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/protocell/config"
	"github.com/pthm-cable/protocell/engine"
	"github.com/pthm-cable/protocell/renderer"
	"github.com/pthm-cable/protocell/ui"
)

// app ties the engine to the interactive shell: camera, picking, HUD, and the
// control panel.
type app struct {
	cfg *config.Config
	eng *engine.Engine

	cam   *renderer.OrbitCamera
	cells *renderer.CellRenderer
	hud   *renderer.HUD
	panel *ui.Panel

	stepsPerUpdate int
	paused         bool
	dragging       bool
	spawnCount     float32
}

func newApp(cfg *config.Config, eng *engine.Engine, stepsPerUpdate int) *app {
	if stepsPerUpdate < 1 {
		stepsPerUpdate = 1
	}
	return &app{
		cfg:            cfg,
		eng:            eng,
		cam:            renderer.NewOrbitCamera(cfg),
		cells:          renderer.NewCellRenderer(),
		hud:            renderer.NewHUD(),
		panel:          ui.NewPanel(int32(cfg.Screen.Width)),
		stepsPerUpdate: stepsPerUpdate,
		spawnCount:     float32(cfg.Capacity.DefaultCellCount),
	}
}

func (a *app) update() {
	a.handleInput()

	if !a.paused {
		w := float32(rl.GetScreenWidth())
		h := float32(rl.GetScreenHeight())
		fr := a.cam.Frustum(w / h)
		for i := 0; i < a.stepsPerUpdate; i++ {
			a.eng.Step(&fr, a.cam.Position())
		}
	}
	a.eng.RecordFrame()
}

func (a *app) handleInput() {
	if rl.IsKeyPressed(rl.KeySpace) {
		a.paused = !a.paused
	}
	if rl.IsKeyPressed(rl.KeyN) {
		a.eng.SpawnCells(int(a.spawnCount))
	}
	if rl.IsKeyPressed(rl.KeyR) {
		a.eng.Reset()
	}

	mouse := rl.GetMousePosition()
	overPanel := a.panel.Contains(mouse.X, mouse.Y)
	w := float32(rl.GetScreenWidth())
	h := float32(rl.GetScreenHeight())

	// Left button: pick on press, drag while held.
	if rl.IsMouseButtonPressed(rl.MouseLeftButton) && !overPanel {
		ray := a.cam.ScreenRay(mouse.X, mouse.Y, w, h)
		if a.eng.SelectAt(ray) >= 0 {
			a.dragging = true
		}
	}
	if a.dragging && rl.IsMouseButtonDown(rl.MouseLeftButton) {
		if wheel := rl.GetMouseWheelMove(); wheel != 0 {
			a.eng.AdjustDragDistance(wheel * 2)
		}
		a.eng.DragTo(a.cam.ScreenRay(mouse.X, mouse.Y, w, h))
	}
	if a.dragging && rl.IsMouseButtonReleased(rl.MouseLeftButton) {
		a.eng.EndDrag()
		a.dragging = false
	}

	a.cam.Update(!a.dragging)
}

func (a *app) draw() {
	rl.BeginDrawing()
	rl.ClearBackground(rl.Color{R: 8, G: 10, B: 18, A: 255})

	rl.BeginMode3D(a.cam.Raylib())
	a.cells.Draw(a.eng.Instances)
	a.drawSelection()
	rl.EndMode3D()

	a.hud.Draw(renderer.HUDData{
		Title:        "Protocell",
		CellCount:    a.eng.CellCount(),
		VisibleCount: a.eng.VisibleCount(),
		LODCounts:    a.eng.LODCounts(),
		Triangles:    a.cells.Triangles(),
		Vertices:     a.cells.Vertices(),
		Frame:        a.eng.Frame(),
		FPS:          rl.GetFPS(),
		StepsPerSec:  a.eng.PerfStats().StepsPerSecond,
		Paused:       a.paused,
		Barrier:      a.eng.BarrierStats(),
		ScreenHeight: int32(rl.GetScreenHeight()),
	})
	a.hud.DrawControls(int32(rl.GetScreenHeight()))

	state := a.panel.Draw(ui.PanelState{
		LODEnabled:     a.eng.LOD().LODEnabled(),
		CullingEnabled: a.eng.LOD().CullingEnabled(),
		SpawnCount:     a.spawnCount,
	})
	a.eng.LOD().SetLODEnabled(state.LODEnabled)
	a.eng.LOD().SetCullingEnabled(state.CullingEnabled)
	a.spawnCount = state.SpawnCount
	if state.SpawnRequested {
		a.eng.SpawnCells(int(a.spawnCount))
	}
	if state.ResetRequested {
		a.eng.Reset()
	}

	rl.EndDrawing()
}

// drawSelection outlines the selected cell using its latest snapshot.
func (a *app) drawSelection() {
	sel := a.eng.Selected()
	if sel.Index < 0 {
		return
	}
	rec, err := a.eng.Snapshot(sel.Index)
	if err != nil {
		return
	}
	pos := rec.Position()
	a.cells.DrawHighlight(pos[0], pos[1], pos[2], rec.Radius())
}
