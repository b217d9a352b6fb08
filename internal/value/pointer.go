package value

import (
	"github.com/funvibe/cppi/internal/diagnostics"
)

// AddressOf implements &v. Region cells yield Index pointers so that
// pointer arithmetic keeps working; everything else yields a Direct pointer.
func AddressOf(v *Variable) (*Variable, error) {
	switch h := v.v.Holder.(type) {
	case nil:
		return nil, diagnostics.New(diagnostics.ErrNotAnLvalue, "cannot take the address of a temporary %s", v.Type)
	case Slot:
		return Temp(PointerTo(v.Type), Ptr{Kind: Index, Region: h.Region, Index: h.Index}), nil
	}
	return Temp(PointerTo(v.Type), Ptr{Kind: Direct, Target: v}), nil
}

// IndexPointer creates a pointer to cell i of r. Any index may be held;
// only dereferencing checks bounds.
func IndexPointer(r *Region, i int) *Variable {
	return Temp(PointerTo(r.Elem), Ptr{Kind: Index, Region: r, Index: i})
}

func pointerOf(p *Variable) (Ptr, error) {
	raw, err := p.Get()
	if err != nil {
		return Ptr{}, err
	}
	ptr, ok := raw.(Ptr)
	if !ok {
		return Ptr{}, diagnostics.New(diagnostics.ErrTypeMismatch, "%s is not a pointer", p.Type)
	}
	return ptr, nil
}

func pointee(p *Variable) Type {
	if pt, ok := p.Type.(*Pointer); ok {
		return pt.Elem
	}
	return p.Type
}

// Deref implements *p. Dereferencing an Index pointer never fails by
// itself: an index outside the region produces an Unbound variable.
func Deref(p *Variable) (*Variable, error) {
	ptr, err := pointerOf(p)
	if err != nil {
		return nil, err
	}
	switch ptr.Kind {
	case Direct:
		if ptr.Target == nil {
			return nil, diagnostics.New(diagnostics.ErrNullPointer, "dereference of a null %s", p.Type)
		}
		return ptr.Target, nil
	case Index:
		v := ptr.Region.At(ptr.Index)
		v.Type = pointee(p)
		return v, nil
	}
	return nil, diagnostics.New(diagnostics.ErrTypeMismatch, "unknown pointer kind")
}

// Offset implements p + n for Index pointers.
func Offset(p *Variable, n int) (*Variable, error) {
	ptr, err := pointerOf(p)
	if err != nil {
		return nil, err
	}
	if ptr.Kind != Index {
		if n == 0 {
			return Temp(p.Type, ptr), nil
		}
		return nil, diagnostics.New(diagnostics.ErrPointerArith, "arithmetic on a pointer that does not point into an array")
	}
	t := p.Type
	if pt, ok := t.(*Pointer); ok && pt.Fixed {
		t = PointerTo(pt.Elem)
	}
	return Temp(t, Ptr{Kind: Index, Region: ptr.Region, Index: ptr.Index + n}), nil
}

// Distance implements p - q for Index pointers into the same region.
func Distance(p, q *Variable) (int, error) {
	a, err := pointerOf(p)
	if err != nil {
		return 0, err
	}
	b, err := pointerOf(q)
	if err != nil {
		return 0, err
	}
	if a.Kind != Index || b.Kind != Index || a.Region != b.Region {
		return 0, diagnostics.New(diagnostics.ErrPointerArith, "pointers do not point into the same array")
	}
	return a.Index - b.Index, nil
}

// PointerEqual compares Direct pointers by target identity and Index
// pointers by region identity and index.
func PointerEqual(p, q *Variable) (bool, error) {
	a, err := pointerOf(p)
	if err != nil {
		return false, err
	}
	b, err := pointerOf(q)
	if err != nil {
		return false, err
	}
	if a.Kind != b.Kind {
		return false, nil
	}
	if a.Kind == Direct {
		if a.Target == nil || b.Target == nil {
			return a.Target == nil && b.Target == nil, nil
		}
		return a.Target.v == b.Target.v, nil
	}
	return a.Region == b.Region && a.Index == b.Index, nil
}

// Decay converts a function designator to a function pointer and a fixed
// array to a pointer to its first element.
func Decay(v *Variable) (*Variable, error) {
	switch t := v.Type.(type) {
	case *Function:
		return Temp(PointerTo(t), Ptr{Kind: Direct, Target: v}), nil
	case *Pointer:
		if !t.Fixed {
			return v, nil
		}
		ptr, err := pointerOf(v)
		if err != nil {
			return nil, err
		}
		return Temp(PointerTo(t.Elem), Ptr{Kind: Index, Region: ptr.Region, Index: ptr.Index}), nil
	}
	return nil, diagnostics.New(diagnostics.ErrTypeMismatch, "%s does not decay to a pointer", v.Type)
}
