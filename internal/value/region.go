package value

import (
	"fmt"

	"github.com/google/uuid"
)

// Region is an identity-bearing, growable sequence of values that share one
// element type. Regions are the only unit of aliasing: two Index pointers
// with the same region and index observe the same cell.
type Region struct {
	ID    uuid.UUID
	Elem  Type
	cells []*Value
}

// NewRegion creates a region of n uninitialized cells.
func NewRegion(elem Type, n int) *Region {
	r := &Region{ID: uuid.New(), Elem: elem, cells: make([]*Value, 0, n)}
	for i := 0; i < n; i++ {
		r.cells = append(r.cells, &Value{State: Uninit})
	}
	for i, c := range r.cells {
		c.Holder = Slot{Region: r, Index: i}
	}
	return r
}

// RegionOf creates a region initialized from the payloads of items.
func RegionOf(elem Type, items []*Variable) (*Region, error) {
	r := NewRegion(elem, 0)
	for _, it := range items {
		raw, err := it.Get()
		if err != nil {
			return nil, err
		}
		r.Append(raw)
	}
	return r, nil
}

func (r *Region) String() string {
	return fmt.Sprintf("region %s[%d] (%s)", r.Elem, len(r.cells), r.ID.String()[:8])
}

func (r *Region) Len() int { return len(r.cells) }

// Append grows the region by one initialized cell and returns its index.
func (r *Region) Append(raw Raw) int {
	idx := len(r.cells)
	r.cells = append(r.cells, &Value{State: Init, Raw: raw, Holder: Slot{Region: r, Index: idx}})
	return idx
}

// At returns a Variable aliasing cell i. An index outside the region yields
// an Unbound variable; the fault is raised when it is read.
func (r *Region) At(i int) *Variable {
	if i < 0 || i >= len(r.cells) {
		return &Variable{Type: r.Elem, v: &Value{State: Unbound, Holder: Slot{Region: r, Index: i}}}
	}
	return &Variable{Type: r.Elem, v: r.cells[i]}
}

// NewArray creates an lvalue fixed array backed by a fresh region.
func NewArray(elem Type, n int) *Variable {
	r := NewRegion(elem, n)
	return NewLocal(ArrayOf(elem, n), Ptr{Kind: Index, Region: r})
}
