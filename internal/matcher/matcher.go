// Package matcher decides whether a call site or signature is admitted by a
// declared signature and, for function calls, how every argument is passed.
package matcher

import (
	"strconv"
	"strings"

	"github.com/funvibe/cppi/internal/diagnostics"
	"github.com/funvibe/cppi/internal/signature"
	"github.com/funvibe/cppi/internal/value"
)

// Options configures a Matcher.
type Options struct {
	// Order is the cast precedence; nil means DefaultOrder.
	Order []Strategy
}

// Matcher checks signatures against declarations. It is stateless between
// calls and safe for concurrent use if its Env is.
type Matcher struct {
	g         *signature.Grammar
	env       Env
	order     []Strategy
	allowUser bool
}

// New creates a matcher over a grammar. env may be nil when no user
// conversions exist.
func New(g *signature.Grammar, env Env, opts Options) *Matcher {
	order := opts.Order
	if order == nil {
		order = DefaultOrder()
	}
	return &Matcher{g: g, env: env, order: order, allowUser: true}
}

// withoutUser is the matcher used inside a constructor conversion: at most
// one user-defined conversion per argument.
func (m *Matcher) withoutUser() *Matcher {
	cp := *m
	cp.allowUser = false
	return &cp
}

type binding struct {
	key        string
	tokens     []string
	unresolved bool
}

type bindings map[int]binding

func (b bindings) clone() bindings {
	out := make(bindings, len(b))
	for k, v := range b {
		out[k] = v
	}
	return out
}

func (b bindings) commit(from bindings) {
	for k, v := range from {
		b[k] = v
	}
}

// nodeKey identifies a subtree; heads carry their wildcard id so two
// unresolved bindings only agree when they name the same wildcard.
func nodeKey(n *signature.Node) string {
	var sb strings.Builder
	var walk func(*signature.Node)
	walk = func(x *signature.Node) {
		switch {
		case x.Head:
			sb.WriteString(x.Children[0].Token)
			sb.WriteByte('#')
			sb.WriteString(strconv.Itoa(x.Wildcard))
			sb.WriteByte(' ')
		case x.IsLeaf():
			sb.WriteString(x.Token)
			sb.WriteByte(' ')
		default:
			for _, c := range x.Children {
				walk(c)
			}
		}
	}
	walk(n)
	return sb.String()
}

func tokensKey(toks []string) string {
	if len(toks) == 0 {
		return ""
	}
	return strings.Join(toks, " ") + " "
}

// Admits reports whether sup admits sub. explicit binds sup's declared
// wildcards 0..len(explicit)-1 before matching. A nil Result with a nil
// error is a plain mismatch.
func (m *Matcher) Admits(sub, sup *signature.Signature, explicit ...[]string) (*Result, error) {
	if len(explicit) > len(sup.Declared) {
		return nil, nil
	}
	b := make(bindings)
	for i, toks := range explicit {
		if !m.g.Recognize(toks, sup.Declared[i]) {
			return nil, nil
		}
		b[i] = binding{key: tokensKey(toks), tokens: toks}
	}

	if !sub.IsFunction() || !sup.IsFunction() {
		ok, err := m.unify(sub.Root, sup.Root, b)
		if err != nil || !ok {
			return nil, err
		}
		return &Result{Bindings: b.export()}, nil
	}
	return m.admitCall(sub, sup, b)
}

func (b bindings) export() map[int][]string {
	out := make(map[int][]string, len(b))
	for k, v := range b {
		out[k] = v.tokens
	}
	return out
}

// unify matches actual a against formal f structurally, binding heads of f.
func (m *Matcher) unify(a, f *signature.Node, b bindings) (bool, error) {
	if f.Head {
		return m.bind(f, a, b), nil
	}
	if a.Head {
		return false, nil
	}
	if a.Symbol != f.Symbol {
		ua, uf := a.Unwrap(), f.Unwrap()
		if ua == a && uf == f {
			return false, nil
		}
		return m.unify(ua, uf, b)
	}
	if a.IsLeaf() {
		return a.Token == f.Token, nil
	}
	if a.Alt != f.Alt || len(a.Children) != len(f.Children) {
		return false, nil
	}
	for i := range a.Children {
		ok, err := m.unify(a.Children[i], f.Children[i], b)
		if err != nil || !ok {
			return false, err
		}
	}
	return true, nil
}

func (m *Matcher) bind(f, a *signature.Node, b bindings) bool {
	if !m.g.Derives(f.Symbol, a.Unwrap().Symbol) {
		return false
	}
	key := nodeKey(a)
	if prev, ok := b[f.Wildcard]; ok {
		return prev.key == key
	}
	b[f.Wildcard] = binding{key: key, tokens: a.Tokens(), unresolved: len(a.Heads()) > 0}
	return true
}

// paramRef splits a ParamObject into its reference marker and object.
func paramRef(p *signature.Node) (signature.Ref, *signature.Node) {
	if p.Symbol == signature.ParamObject && !p.Head && len(p.Children) == 2 {
		switch p.Children[0].Token {
		case signature.TokLRef:
			return signature.RefMutable, p.Children[1]
		case signature.TokCLRef:
			return signature.RefConst, p.Children[1]
		}
	}
	return signature.RefNone, p
}

// arithWildcard returns the wildcard id of a bare Arithmetic head.
func arithWildcard(n *signature.Node) (int, bool) {
	u := n.Unwrap()
	if u.Head && u.Symbol == signature.Arithmetic {
		return u.Wildcard, true
	}
	return 0, false
}

func concreteArith(n *signature.Node) (value.ArithKind, bool) {
	u := n.Unwrap()
	if u.Head || u.Symbol != signature.Arithmetic {
		return 0, false
	}
	return signature.ArithKindOf(u.Children[0].Token)
}

type promotion struct {
	index int
	ref   signature.Ref
	kind  value.ArithKind
}

func (m *Matcher) admitCall(sub, sup *signature.Signature, b bindings) (*Result, error) {
	actuals, formals := sub.Params(), sup.Params()
	if len(actuals) != len(formals) {
		return nil, nil
	}

	if r := sub.ReturnNode(); !(r.Head && r.Symbol == signature.Return) {
		ok, err := m.unify(r, sup.ReturnNode(), b)
		if err != nil || !ok {
			return nil, err
		}
	}

	actions := make([]Action, len(formals))
	var deferred []int
	groups := make(map[int][]promotion)
	var groupOrder []int

	for i, f := range formals {
		a := actuals[i]
		aRef, aObj := paramRef(a)
		fRef, fObj := paramRef(f)

		if f.Head {
			if !m.bind(f, a, b) {
				return nil, nil
			}
			actions[i] = Action{Kind: Borrow}
			continue
		}

		if fRef == signature.RefMutable {
			if aRef != signature.RefMutable {
				return nil, nil
			}
			trial := b.clone()
			ok, err := m.unify(aObj, fObj, trial)
			if err != nil || !ok {
				return nil, err
			}
			b.commit(trial)
			actions[i] = Action{Kind: Borrow}
			continue
		}

		if id, ok := arithWildcard(fObj); ok {
			if k, ok := concreteArith(aObj); ok {
				if _, seen := groups[id]; !seen {
					groupOrder = append(groupOrder, id)
				}
				groups[id] = append(groups[id], promotion{index: i, ref: fRef, kind: k})
				continue
			}
		}

		trial := b.clone()
		ok, err := m.unify(aObj, fObj, trial)
		if err != nil {
			return nil, err
		}
		if ok {
			b.commit(trial)
			switch {
			case fRef == signature.RefConst:
				actions[i] = Action{Kind: Borrow}
			case fObj.Unwrap().Symbol == signature.Function:
				actions[i] = Action{Kind: Borrow}
			default:
				actions[i] = Action{Kind: Clone}
			}
			continue
		}
		deferred = append(deferred, i)
	}

	for _, id := range groupOrder {
		ok, err := m.promote(id, groups[id], actions, b)
		if err != nil || !ok {
			return nil, err
		}
	}

	for _, i := range deferred {
		_, fObj := paramRef(formals[i])
		aRef, aObj := paramRef(actuals[i])
		dst, ok, err := m.concrete(fObj, b)
		if err != nil || !ok {
			return nil, err
		}
		if len(aObj.Heads()) > 0 {
			return nil, nil
		}
		src, err := signature.BuildType(aObj)
		if err != nil {
			return nil, err
		}
		act, err := m.cast(src, aRef, dst)
		if err != nil || act == nil {
			return nil, err
		}
		actions[i] = *act
	}

	res := &Result{Actions: actions, Bindings: b.export()}
	res.Return = m.instantiate(sup.ReturnNode(), b)
	return res, nil
}

// promote handles the parameters whose formal is the same bare Arithmetic
// wildcard. The wildcard binds the common kind after integer promotion, so
// operands narrower than int are cast even when they agree. A binding made
// by another position is kept as is.
func (m *Matcher) promote(id int, group []promotion, actions []Action, b bindings) (bool, error) {
	var target value.ArithKind
	if prev, ok := b[id]; ok {
		if prev.unresolved {
			return false, diagnostics.New(diagnostics.ErrUnresolvedWildcard, "arithmetic wildcard #%d is bound to a wildcard of the caller", id)
		}
		k, ok := arithOfTokens(prev.tokens)
		if !ok {
			return false, nil
		}
		target = k
	} else {
		target = group[0].kind
		for _, p := range group {
			target = value.Promote(target, p.kind)
		}
		toks := []string{signature.ArithToken(target)}
		b[id] = binding{key: tokensKey(toks), tokens: toks}
	}
	for _, p := range group {
		switch {
		case p.kind != target:
			actions[p.index] = Action{Kind: Cast, Strategy: Numeric, Target: value.Arith(target)}
		case p.ref == signature.RefConst:
			actions[p.index] = Action{Kind: Borrow}
		default:
			actions[p.index] = Action{Kind: Clone}
		}
	}
	return true, nil
}

func arithOfTokens(toks []string) (value.ArithKind, bool) {
	if len(toks) != 1 {
		return 0, false
	}
	return signature.ArithKindOf(toks[0])
}

// concrete instantiates a formal with the current bindings. An unbound
// wildcard is a mismatch; one bound to a caller wildcard is an internal
// error because a conversion target must be concrete.
func (m *Matcher) concrete(f *signature.Node, b bindings) (value.Type, bool, error) {
	var unresolved bool
	toks, ok := f.Substitute(func(id int) ([]string, bool) {
		bd, found := b[id]
		if bd.unresolved {
			unresolved = true
		}
		return bd.tokens, found
	})
	if !ok {
		return nil, false, nil
	}
	if unresolved {
		return nil, false, diagnostics.New(diagnostics.ErrUnresolvedWildcard, "conversion target %s depends on a wildcard of the caller", f)
	}
	n, ok := m.g.Parse(toks, nil, f.Symbol)
	if !ok {
		return nil, false, nil
	}
	t, err := signature.BuildType(n)
	if err != nil {
		return nil, false, err
	}
	return t, true, nil
}

func (m *Matcher) instantiate(ret *signature.Node, b bindings) []string {
	resolved := true
	toks, ok := ret.Substitute(func(id int) ([]string, bool) {
		bd, found := b[id]
		if bd.unresolved {
			resolved = false
		}
		return bd.tokens, found
	})
	if !ok || !resolved {
		return nil
	}
	if toks == nil {
		toks = []string{}
	}
	return toks
}
