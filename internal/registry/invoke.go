package registry

import (
	"github.com/funvibe/cppi/internal/config"
	"github.com/funvibe/cppi/internal/diagnostics"
	"github.com/funvibe/cppi/internal/matcher"
	"github.com/funvibe/cppi/internal/resume"
	"github.com/funvibe/cppi/internal/signature"
	"github.com/funvibe/cppi/internal/value"
)

type step = resume.Step[*value.Variable]

func fail(err error) step { return resume.Fail[*value.Variable](err) }

// Invoke prepares every argument as the resolution planned and runs the
// overload's target.
func (r *Registry) Invoke(res *Resolution, args []*value.Variable) step {
	o := res.Overload
	if len(args) != len(res.Match.Actions) {
		return fail(diagnostics.New(diagnostics.ErrArgumentCount, "%s takes %d arguments, got %d", o, len(res.Match.Actions), len(args)))
	}
	if o.Target == nil {
		return fail(diagnostics.New(diagnostics.ErrNotImplemented, "%s is declared but not implemented", o))
	}
	prepared := resume.Each(res.Match.Actions, func(i int, a matcher.Action) step {
		return r.apply(a, args[i])
	})
	return resume.Then(prepared, func(vals []*value.Variable) step {
		call, err := r.newCall(res)
		if err != nil {
			return fail(err)
		}
		return o.Target(call, vals)
	})
}

// Dispatch resolves name against the argument values and invokes it.
func (r *Registry) Dispatch(domain, name string, explicit []value.Type, args ...*value.Variable) step {
	res, err := r.Resolve(domain, name, signature.ArgsOf(args), explicit...)
	if err != nil {
		return fail(err)
	}
	return r.Invoke(res, args)
}

func (r *Registry) apply(a matcher.Action, v *value.Variable) step {
	switch a.Kind {
	case matcher.Borrow:
		return resume.Done(v)
	case matcher.Clone:
		return resume.From(value.Clone(v))
	}
	switch a.Strategy {
	case matcher.Decay:
		return resume.From(value.Decay(v))
	case matcher.Numeric:
		k, ok := a.Target.(*value.Arithmetic)
		if !ok {
			return fail(diagnostics.New(diagnostics.ErrTypeMismatch, "numeric cast to %s", a.Target))
		}
		return resume.From(value.Convert(v, k.Kind))
	case matcher.Constructor:
		ctor, ok := a.Constructor.(*Overload)
		if !ok {
			return fail(diagnostics.New(diagnostics.ErrNoConversion, "constructor for %s is not registered here", a.Target))
		}
		return r.Invoke(&Resolution{Overload: ctor, Match: a.Nested}, []*value.Variable{v})
	case matcher.BraceList:
		return r.buildFromList(a, v)
	}
	return fail(diagnostics.New(diagnostics.ErrNoConversion, "no conversion of %s to %s", v.Type, a.Target))
}

func (r *Registry) buildFromList(a matcher.Action, v *value.Variable) step {
	raw, err := v.Get()
	if err != nil {
		return fail(err)
	}
	elems, ok := raw.(value.Elems)
	if !ok || len(elems.Items) != len(a.Elements) {
		return fail(diagnostics.New(diagnostics.ErrTypeMismatch, "%s is not a brace list of %d elements", v.Type, len(a.Elements)))
	}
	cls, ok := a.Target.(*value.Class)
	if !ok {
		return fail(diagnostics.New(diagnostics.ErrTypeMismatch, "brace list into %s", a.Target))
	}
	converted := resume.Each(a.Elements, func(i int, ea matcher.Action) step {
		return r.apply(ea, elems.Items[i])
	})
	return resume.Then(converted, func(vals []*value.Variable) step {
		if a.Shape == nil {
			return resume.From(newInitializerList(cls, vals))
		}
		shape, ok := a.Shape.(*ListShape)
		if !ok {
			return fail(diagnostics.New(diagnostics.ErrNoConversion, "list shape for %s is not registered here", cls))
		}
		fields := shape.Layout(cls)
		members := make(map[string]*value.Variable, len(fields))
		for i, f := range fields {
			members[f.Name] = vals[i]
		}
		return resume.Done(value.NewObject(cls, members))
	})
}

// newInitializerList copies vals into a fresh region and points data at
// its first cell.
func newInitializerList(cls *value.Class, vals []*value.Variable) (*value.Variable, error) {
	region, err := value.RegionOf(cls.Args[0], vals)
	if err != nil {
		return nil, err
	}
	return value.NewObject(cls, map[string]*value.Variable{
		config.InitializerListData: value.IndexPointer(region, 0),
		config.InitializerListSize: value.NewUint(value.U64, uint64(len(vals))),
	}), nil
}

// CastValue converts v to t with the implicit conversions the matcher
// knows, running any constructor involved.
func (r *Registry) CastValue(v *value.Variable, t value.Type) step {
	arg := signature.ArgOf(v)
	act, err := r.matcher.Convert(arg.Type, arg.Ref, t)
	if err != nil {
		return fail(err)
	}
	if act == nil {
		return fail(diagnostics.New(diagnostics.ErrNoConversion, "cannot convert %s to %s", v.Type, t))
	}
	return r.apply(*act, v)
}
