package registry

import (
	"strings"

	"github.com/funvibe/cppi/internal/diagnostics"
	"github.com/funvibe/cppi/internal/matcher"
	"github.com/funvibe/cppi/internal/signature"
	"github.com/funvibe/cppi/internal/value"
)

// Resolution is an overload together with the plan for calling it.
type Resolution struct {
	Overload *Overload
	Match    *matcher.Result
}

// Call is what a Callable receives about the overload being run.
type Call struct {
	Registry *Registry
	Overload *Overload
	// TemplateArgs holds the type bound to each declared wildcard, or nil
	// where the binding is not a type.
	TemplateArgs []value.Type
	// Return is the instantiated return type, nil if unresolved.
	Return value.Type
}

func explicitTokens(explicit []value.Type) [][]string {
	out := make([][]string, len(explicit))
	for i, t := range explicit {
		out[i] = signature.TypeTokens(t)
	}
	return out
}

func describeArgs(args []signature.Arg) string {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = strings.Join(signature.ArgTokens(a), " ")
	}
	return strings.Join(parts, ", ")
}

// Lookup returns the first overload of name, in registration order, that
// admits the arguments. No match is nil, nil.
func (r *Registry) Lookup(domain, name string, args []signature.Arg, explicit ...value.Type) (*Resolution, error) {
	return r.lookup(domain, name, signature.CallTokens(args), explicitTokens(explicit))
}

// LookupReturning is Lookup for a call whose result must have type ret.
// Wildcards in an overload's return are bound from ret.
func (r *Registry) LookupReturning(domain, name string, ret value.Type, args []signature.Arg) (*Resolution, error) {
	return r.lookup(domain, name, signature.ReturningCallTokens(ret, args), nil)
}

func (r *Registry) lookup(domain, name string, tokens []string, explicit [][]string) (*Resolution, error) {
	call, err := r.grammar.Compile(tokens, signature.Function, false)
	if err != nil {
		return nil, err
	}
	for _, o := range r.domains[domain][name] {
		res, err := r.matcher.Admits(call, o.sig, explicit...)
		if err != nil {
			return nil, err
		}
		if res != nil {
			r.logger.Debug("overload resolved", "domain", domain, "name", name, "signature", o.sig.String(), "casts", res.Casts())
			return &Resolution{Overload: o, Match: res}, nil
		}
	}
	return nil, nil
}

// Resolve is Lookup that reports a missing match as an error listing every
// candidate.
func (r *Registry) Resolve(domain, name string, args []signature.Arg, explicit ...value.Type) (*Resolution, error) {
	res, err := r.Lookup(domain, name, args, explicit...)
	if err != nil || res != nil {
		return res, err
	}
	e := diagnostics.New(diagnostics.ErrNoMatchingOverload, "no overload of %s::%s admits (%s)", domain, name, describeArgs(args))
	candidates := r.domains[domain][name]
	if len(candidates) == 0 {
		e = e.WithNote("no overloads named %s are registered in %s", name, domain)
	}
	for _, o := range candidates {
		e = e.WithNote("candidate: %s", o.sig)
	}
	return nil, e
}

func (r *Registry) newCall(res *Resolution) (*Call, error) {
	sig := res.Overload.sig
	call := &Call{Registry: r, Overload: res.Overload, TemplateArgs: make([]value.Type, len(sig.Declared))}
	for id, kind := range sig.Declared {
		toks, ok := res.Match.Bindings[id]
		if !ok {
			continue
		}
		if n, ok := r.grammar.Parse(toks, nil, kind); ok {
			if t, err := signature.BuildType(n); err == nil {
				call.TemplateArgs[id] = t
			}
		}
	}
	if res.Match.Return != nil {
		t, err := res.Match.ReturnType(r.grammar)
		if err != nil {
			return nil, err
		}
		call.Return = t
	}
	return call, nil
}
