package value

import (
	"math/big"

	"github.com/emirpasic/gods/maps/treemap"
	"github.com/funvibe/cppi/internal/diagnostics"
)

// Object is a class value: member name to Variable. Members are kept in a
// tree map so iteration order does not depend on insertion order.
type Object struct {
	Members *treemap.Map
}

func (Object) raw() {}

// NewObject builds a class value. Each member becomes a self-owned slot
// of the new object.
func NewObject(t *Class, members map[string]*Variable) *Variable {
	m := treemap.NewWithStringComparator()
	for name, mv := range members {
		m.Put(name, AsLocal(mv))
	}
	return Temp(t, Object{Members: m})
}

// Member returns the named member of a class value.
func Member(v *Variable, name string) (*Variable, error) {
	raw, err := v.Get()
	if err != nil {
		return nil, err
	}
	obj, ok := raw.(Object)
	if !ok {
		return nil, diagnostics.New(diagnostics.ErrTypeMismatch, "%s is not a class value", v.Type)
	}
	mv, found := obj.Members.Get(name)
	if !found {
		return nil, diagnostics.New(diagnostics.ErrTypeMismatch, "%s has no member %q", v.Type, name)
	}
	member := mv.(*Variable)
	if v.Const && !member.Const {
		return &Variable{Type: member.Type, Const: true, v: member.v}, nil
	}
	return member, nil
}

// MemberNames lists the members of a class value in order.
func MemberNames(v *Variable) []string {
	raw, err := v.Get()
	if err != nil {
		return nil
	}
	obj, ok := raw.(Object)
	if !ok {
		return nil
	}
	names := make([]string, 0, obj.Members.Size())
	for _, k := range obj.Members.Keys() {
		names = append(names, k.(string))
	}
	return names
}

// Clone copies v into a fresh self-owned slot. Class values are cloned
// member by member; pointers are copied, not followed.
func Clone(v *Variable) (*Variable, error) {
	raw, err := v.Get()
	if err != nil {
		return nil, err
	}
	return NewLocal(v.Type, cloneRaw(v.Type, raw)), nil
}

func cloneRaw(t Type, raw Raw) Raw {
	switch r := raw.(type) {
	case Int:
		return Int{V: new(big.Int).Set(r.V)}
	case Object:
		m := treemap.NewWithStringComparator()
		it := r.Members.Iterator()
		for it.Next() {
			m.Put(it.Key(), cloneMember(it.Value().(*Variable)))
		}
		return Object{Members: m}
	case Elems:
		items := make([]*Variable, len(r.Items))
		for i, item := range r.Items {
			items[i] = cloneMember(item)
		}
		return Elems{Items: items}
	case Ptr:
		// A fixed array owns its region; copying the array copies the cells.
		if pt, ok := t.(*Pointer); ok && pt.Fixed && r.Kind == Index && r.Region != nil {
			region := NewRegion(pt.Elem, 0)
			for i := 0; i < r.Region.Len(); i++ {
				cell := r.Region.cells[i]
				idx := region.Append(nil)
				region.cells[idx].State = cell.State
				if cell.State == Init {
					region.cells[idx].Raw = cloneRaw(pt.Elem, cell.Raw)
				}
			}
			return Ptr{Kind: Index, Region: region, Index: r.Index}
		}
	}
	return raw
}

// cloneMember keeps the member's state so that a struct with an
// uninitialized field can still be copied.
func cloneMember(v *Variable) *Variable {
	c := &Variable{Type: v.Type, Const: v.Const, v: &Value{State: v.v.State, Holder: Self{}}}
	if v.v.State == Init {
		c.v.Raw = cloneRaw(v.Type, v.v.Raw)
	}
	return c
}
