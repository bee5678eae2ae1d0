// Package cell defines the fixed-layout compute record and its identity
// encoding. The in-memory layout of Record is the wire format shared with the
// device passes; there is no serialization step.
package cell

import (
	"math"
	"unsafe"

	"github.com/go-gl/mathgl/mgl32"
)

// Record is one device-resident cell. It is exactly 160 bytes and a multiple
// of 16; field order and widths must not change, since passes index buffers
// of these records by byte offset.
type Record struct {
	// Physics
	PositionAndMass mgl32.Vec4 // x, y, z, mass
	Velocity        mgl32.Vec4
	Acceleration    mgl32.Vec4
	Orientation     mgl32.Quat // angular state as quaternions, no gimbal lock
	AngularVelocity mgl32.Quat
	AngularAccel    mgl32.Quat

	// Internal
	Signals   mgl32.Vec4 // four signalling substance channels
	ModeIndex int32      // index into the genome mode table
	Age       float32    // also used as the split timer
	Toxins    float32
	Nitrates  float32

	UniqueID  ID
	JustSplit uint64

	_ [4]uint32 // pad to a 16-byte multiple
}

// Layout guards. A non-zero remainder changes the array length and fails to
// compile.
var (
	_ [0]byte = [unsafe.Sizeof(Record{}) % 16]byte{}
	_ [0]byte = [unsafe.Offsetof(Record{}.UniqueID) % 8]byte{}
)

// RecordSize is the byte size of one cell record.
const RecordSize = unsafe.Sizeof(Record{})

// Position returns the cell's world position.
func (r *Record) Position() mgl32.Vec3 {
	return mgl32.Vec3{r.PositionAndMass[0], r.PositionAndMass[1], r.PositionAndMass[2]}
}

// SetPosition overwrites the position components, leaving mass untouched.
func (r *Record) SetPosition(p mgl32.Vec3) {
	r.PositionAndMass[0] = p[0]
	r.PositionAndMass[1] = p[1]
	r.PositionAndMass[2] = p[2]
}

// Mass returns the cell's mass.
func (r *Record) Mass() float32 {
	return r.PositionAndMass[3]
}

// Radius returns the bounding-sphere radius derived from mass.
func (r *Record) Radius() float32 {
	return float32(math.Cbrt(float64(r.PositionAndMass[3])))
}
