package cell

import "fmt"

// ID packs a cell identity into 64 bits: parent(32) | cell(31) | sibling(1).
// The cell field is unique among live cells; the sibling bit distinguishes
// the two daughters of one division.
type ID uint64

const (
	// RootParent is the parent field of cells spawned by the host rather
	// than by division.
	RootParent uint32 = 0

	// MaxCellID is the largest value the 31-bit cell field can hold.
	MaxCellID uint32 = 1<<31 - 1
)

// NewID packs the three fields. cellID is masked to 31 bits and sibling to
// one, matching the on-device encoding exactly.
func NewID(parent, cellID uint32, sibling uint8) ID {
	return ID(uint64(parent)<<32 | uint64(cellID&MaxCellID)<<1 | uint64(sibling&1))
}

// Parent returns the 32-bit parent field.
func (id ID) Parent() uint32 { return uint32(id >> 32) }

// Cell returns the 31-bit cell field.
func (id ID) Cell() uint32 { return uint32(id>>1) & MaxCellID }

// Sibling returns the daughter flag (0 = A, 1 = B).
func (id ID) Sibling() uint8 { return uint8(id & 1) }

// WithCell returns id with the cell field replaced. Queued records carry only
// parent and sibling; the allocator fills the cell field in at drain time.
func (id ID) WithCell(cellID uint32) ID {
	return NewID(id.Parent(), cellID, id.Sibling())
}

// String renders the id in parent.cell.sibling form.
func (id ID) String() string {
	return fmt.Sprintf("%d.%d.%d", id.Parent(), id.Cell(), id.Sibling())
}
