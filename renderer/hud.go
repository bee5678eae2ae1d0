package renderer

import (
	"fmt"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/protocell/device"
	"github.com/pthm-cable/protocell/sim"
)

// HUDData holds everything the HUD renders. Counts are host-visible values,
// one frame behind the device.
type HUDData struct {
	Title        string
	CellCount    int
	VisibleCount int
	LODCounts    [sim.NumLOD]int
	Triangles    int
	Vertices     int
	Frame        int64
	FPS          int32
	StepsPerSec  float64
	Paused       bool
	Barrier      device.Stats
	ScreenHeight int32
}

// HUD renders the stats overlay.
type HUD struct{}

// NewHUD creates a HUD renderer.
func NewHUD() *HUD {
	return &HUD{}
}

// Draw renders the HUD.
func (h *HUD) Draw(data HUDData) {
	rl.DrawText(data.Title, 10, 10, 20, rl.White)

	rl.DrawText(
		fmt.Sprintf("Cells: %d | Visible: %d | Tris: %d | Verts: %d", data.CellCount, data.VisibleCount, data.Triangles, data.Vertices),
		10, 35, 16, rl.LightGray,
	)

	rl.DrawText(
		fmt.Sprintf("LOD: %d / %d / %d / %d", data.LODCounts[0], data.LODCounts[1], data.LODCounts[2], data.LODCounts[3]),
		10, 55, 16, rl.LightGray,
	)

	rl.DrawText(
		fmt.Sprintf("Frame: %d | FPS: %d | Steps/s: %.0f", data.Frame, data.FPS, data.StepsPerSec),
		10, 75, 16, rl.LightGray,
	)

	rl.DrawText(
		fmt.Sprintf("Barriers: %d requested, %d batched (%.0f%%), %d flushes",
			data.Barrier.Total, data.Barrier.Batched, data.Barrier.Efficiency()*100, data.Barrier.Flushes),
		10, 95, 16, rl.LightGray,
	)

	statusText := "Running"
	statusColor := rl.Green
	if data.Paused {
		statusText = "PAUSED"
		statusColor = rl.Yellow
	}
	rl.DrawText(statusText, 10, 115, 16, statusColor)
}

// DrawControls renders the control legend at the bottom of the screen.
func (h *HUD) DrawControls(screenHeight int32) {
	rl.DrawText(
		"LMB pick/drag | wheel while dragging: distance | RMB orbit | MMB pan | Space pause | N spawn | R reset",
		10, screenHeight-25, 14, rl.Gray,
	)
}
