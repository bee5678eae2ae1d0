package cell

import "testing"

func TestID_PackUnpack(t *testing.T) {
	id := NewID(42, 1234567, 1)

	if id.Parent() != 42 {
		t.Errorf("expected parent 42, got %d", id.Parent())
	}
	if id.Cell() != 1234567 {
		t.Errorf("expected cell 1234567, got %d", id.Cell())
	}
	if id.Sibling() != 1 {
		t.Errorf("expected sibling 1, got %d", id.Sibling())
	}
}

func TestID_FieldMasking(t *testing.T) {
	// The cell field is 31 bits; bit 31 must not leak into the parent field.
	id := NewID(0, 1<<31, 0)
	if id.Cell() != 0 {
		t.Errorf("expected overflowing cell field masked to 0, got %d", id.Cell())
	}
	if id.Parent() != 0 {
		t.Errorf("expected parent untouched by cell overflow, got %d", id.Parent())
	}

	// Sibling is one bit.
	id = NewID(0, 0, 3)
	if id.Sibling() != 1 {
		t.Errorf("expected sibling masked to 1, got %d", id.Sibling())
	}
}

func TestID_MaxValues(t *testing.T) {
	id := NewID(^uint32(0), MaxCellID, 1)
	if id.Parent() != ^uint32(0) {
		t.Errorf("expected max parent, got %d", id.Parent())
	}
	if id.Cell() != MaxCellID {
		t.Errorf("expected max cell, got %d", id.Cell())
	}
	if id.Sibling() != 1 {
		t.Errorf("expected sibling 1, got %d", id.Sibling())
	}
}

func TestID_WithCell(t *testing.T) {
	queued := NewID(7, 0, 1)
	final := queued.WithCell(99)

	if final.Parent() != 7 {
		t.Errorf("expected parent preserved, got %d", final.Parent())
	}
	if final.Cell() != 99 {
		t.Errorf("expected cell 99, got %d", final.Cell())
	}
	if final.Sibling() != 1 {
		t.Errorf("expected sibling preserved, got %d", final.Sibling())
	}
}

func TestID_String(t *testing.T) {
	id := NewID(3, 14, 1)
	if got := id.String(); got != "3.14.1" {
		t.Errorf("expected 3.14.1, got %s", got)
	}
}
