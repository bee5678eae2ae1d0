package renderer

import (
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/protocell/sim"
)

// lodMesh is the sphere tessellation of one detail level. Ring and slice
// counts fall off with distance; the last level is a coarse blob.
type lodMesh struct {
	rings  int32
	slices int32
}

var lodMeshes = [sim.NumLOD]lodMesh{
	{rings: 16, slices: 24},
	{rings: 10, slices: 14},
	{rings: 6, slices: 8},
	{rings: 3, slices: 4},
}

// CellRenderer draws the classified instance lists.
type CellRenderer struct {
	triangles int
	vertices  int
}

// NewCellRenderer creates a cell renderer.
func NewCellRenderer() *CellRenderer {
	return &CellRenderer{}
}

// Draw renders every detail bucket inside an active 3D mode. The selected
// instance, matched by store index through the highlight callback, gets a
// wireframe overlay.
func (r *CellRenderer) Draw(instances func(level int) []sim.Instance) {
	r.triangles = 0
	r.vertices = 0
	for level := 0; level < sim.NumLOD; level++ {
		mesh := lodMeshes[level]
		list := instances(level)
		for i := range list {
			inst := &list[i]
			center := rl.Vector3{
				X: inst.PositionAndRadius[0],
				Y: inst.PositionAndRadius[1],
				Z: inst.PositionAndRadius[2],
			}
			rl.DrawSphereEx(center, inst.PositionAndRadius[3], mesh.rings, mesh.slices, vec4Color(inst.Color))
		}
		r.triangles += len(list) * int(mesh.rings) * int(mesh.slices) * 2
		r.vertices += len(list) * (int(mesh.rings)*int(mesh.slices) + 2)
	}
}

// DrawHighlight outlines one sphere, used for the current selection.
func (r *CellRenderer) DrawHighlight(x, y, z, radius float32) {
	center := rl.Vector3{X: x, Y: y, Z: z}
	rl.DrawSphereWires(center, radius*1.15, 12, 16, rl.Yellow)
}

// Triangles returns the triangle count of the last Draw call.
func (r *CellRenderer) Triangles() int {
	return r.triangles
}

// Vertices returns the vertex count of the last Draw call.
func (r *CellRenderer) Vertices() int {
	return r.vertices
}

func vec4Color(c [4]float32) rl.Color {
	return rl.Color{
		R: uint8(clamp01(c[0]) * 255),
		G: uint8(clamp01(c[1]) * 255),
		B: uint8(clamp01(c[2]) * 255),
		A: uint8(clamp01(c[3]) * 255),
	}
}

func clamp01(v float32) float32 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
