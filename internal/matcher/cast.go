package matcher

import (
	"github.com/funvibe/cppi/internal/config"
	"github.com/funvibe/cppi/internal/signature"
	"github.com/funvibe/cppi/internal/value"
)

// Convert plans how a value of type src reaches dst: a clone when the
// types are equal, otherwise the first cast strategy that applies. A nil
// action means no conversion exists.
func (m *Matcher) Convert(src value.Type, ref signature.Ref, dst value.Type) (*Action, error) {
	if src.Equal(dst) {
		return &Action{Kind: Clone}, nil
	}
	return m.cast(src, ref, dst)
}

func (m *Matcher) cast(src value.Type, ref signature.Ref, dst value.Type) (*Action, error) {
	for _, s := range m.order {
		var act *Action
		var err error
		switch s {
		case Decay:
			act = decay(src, dst)
		case Numeric:
			act = numeric(src, dst)
		case Constructor:
			if m.allowUser {
				act, err = m.construct(src, ref, dst)
			}
		case BraceList:
			act, err = m.braceList(src, dst)
		}
		if err != nil || act != nil {
			return act, err
		}
	}
	return nil, nil
}

func decay(src, dst value.Type) *Action {
	p, ok := dst.(*value.Pointer)
	if !ok || p.Fixed {
		return nil
	}
	switch s := src.(type) {
	case *value.Function:
		if !p.Elem.Equal(s) {
			return nil
		}
	case *value.Pointer:
		if !s.Fixed || !p.Elem.Equal(s.Elem) {
			return nil
		}
	default:
		return nil
	}
	return &Action{Kind: Cast, Strategy: Decay, Target: dst}
}

func numeric(src, dst value.Type) *Action {
	_, ok1 := src.(*value.Arithmetic)
	_, ok2 := dst.(*value.Arithmetic)
	if !ok1 || !ok2 {
		return nil
	}
	return &Action{Kind: Cast, Strategy: Numeric, Target: dst}
}

// construct looks for a one-argument constructor of dst. The call is
// compiled with dst as its result, so the candidate's return binds its
// wildcards (template arguments, enclosing class) before the argument is
// matched.
func (m *Matcher) construct(src value.Type, ref signature.Ref, dst value.Type) (*Action, error) {
	cls, ok := dst.(*value.Class)
	if !ok || m.env == nil {
		return nil, nil
	}
	call, err := m.g.Compile(signature.ReturningCallTokens(cls, []signature.Arg{{Type: src, Ref: ref}}), signature.Function, false)
	if err != nil {
		return nil, err
	}
	want := tokensKey(signature.TypeTokens(cls))
	inner := m.withoutUser()
	for _, cand := range m.env.Constructors(cls) {
		res, err := inner.Admits(call, cand.Signature())
		if err != nil {
			return nil, err
		}
		if res == nil || tokensKey(res.Return) != want {
			continue
		}
		return &Action{Kind: Cast, Strategy: Constructor, Target: dst, Constructor: cand, Nested: res}, nil
	}
	return nil, nil
}

func (m *Matcher) braceList(src, dst value.Type) (*Action, error) {
	list, ok := src.(*value.List)
	if !ok {
		return nil, nil
	}
	cls, ok := dst.(*value.Class)
	if !ok {
		return nil, nil
	}
	if cls.Name == config.InitializerListName && cls.Outer == nil && len(cls.Args) == 1 {
		fields := make([]value.Type, len(list.Elems))
		for i := range fields {
			fields[i] = cls.Args[0]
		}
		elems, err := m.elements(list, fields)
		if err != nil || elems == nil {
			return nil, err
		}
		return &Action{Kind: Cast, Strategy: BraceList, Target: dst, Elements: elems}, nil
	}
	if m.env == nil {
		return nil, nil
	}
	for _, shape := range m.env.Shapes(cls) {
		fields, ok := shape.Fields(cls)
		if !ok || len(fields) != len(list.Elems) {
			continue
		}
		elems, err := m.elements(list, fields)
		if err != nil {
			return nil, err
		}
		if elems != nil {
			return &Action{Kind: Cast, Strategy: BraceList, Target: dst, Shape: shape, Elements: elems}, nil
		}
	}
	return nil, nil
}

// elements converts every list element to its field type; nil means some
// element has no conversion.
func (m *Matcher) elements(list *value.List, fields []value.Type) ([]Action, error) {
	out := make([]Action, len(fields))
	for i, f := range fields {
		act, err := m.Convert(list.Elems[i], signature.RefNone, f)
		if err != nil || act == nil {
			return nil, err
		}
		out[i] = *act
	}
	return out, nil
}
