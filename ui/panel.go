// Package ui renders the interactive control panel with raygui widgets.
package ui

import (
	"fmt"

	gui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"
)

// PanelState mirrors the engine toggles the panel edits. The caller applies
// changed fields back to the engine after Draw.
type PanelState struct {
	LODEnabled     bool
	CullingEnabled bool
	SpawnCount     float32
	SpawnRequested bool
	ResetRequested bool
}

// Panel is the right-edge control panel.
type Panel struct {
	x, y  float32
	width float32
}

// NewPanel creates a panel anchored at the top-right of the screen.
func NewPanel(screenWidth int32) *Panel {
	width := float32(220)
	return &Panel{
		x:     float32(screenWidth) - width - 10,
		y:     10,
		width: width,
	}
}

// Draw renders the panel and returns the edited state.
func (p *Panel) Draw(state PanelState) PanelState {
	x, y := p.x, p.y

	rl.DrawRectangle(int32(x-10), int32(y-10), int32(p.width+20), 190, rl.Color{R: 20, G: 20, B: 30, A: 200})
	rl.DrawText("Controls", int32(x), int32(y), 18, rl.White)
	y += 30

	state.LODEnabled = gui.CheckBox(
		rl.Rectangle{X: x, Y: y, Width: 18, Height: 18},
		"Level of detail", state.LODEnabled,
	)
	y += 28

	state.CullingEnabled = gui.CheckBox(
		rl.Rectangle{X: x, Y: y, Width: 18, Height: 18},
		"Frustum culling", state.CullingEnabled,
	)
	y += 32

	rl.DrawText(fmt.Sprintf("Spawn count: %.0f", state.SpawnCount), int32(x), int32(y), 14, rl.Gray)
	y += 18
	state.SpawnCount = gui.SliderBar(
		rl.Rectangle{X: x, Y: y, Width: p.width, Height: 20},
		"1", "1000",
		state.SpawnCount, 1, 1000,
	)
	y += 30

	if gui.Button(rl.Rectangle{X: x, Y: y, Width: 100, Height: 26}, "Spawn") {
		state.SpawnRequested = true
	}
	if gui.Button(rl.Rectangle{X: x + 110, Y: y, Width: 100, Height: 26}, "Reset") {
		state.ResetRequested = true
	}

	return state
}

// Contains reports whether a screen point lies inside the panel, so clicks on
// widgets don't fall through to world picking.
func (p *Panel) Contains(x, y float32) bool {
	return x >= p.x-10 && x <= p.x+p.width+10 && y >= p.y-10 && y <= p.y+180
}
