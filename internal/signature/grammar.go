// Package signature implements the grammar of type and function signatures.
//
// A signature is a flat token sequence such as
//
//	!Arithmetic FUNCTION ?0 ( ?0 ?0 )
//
// The grammar below is compiled once into an LL(1) parser table. Every
// wildcardable nonterminal X also accepts the single token "X" (a head),
// which stands for any derivation of X and is how template parameters are
// written.
package signature

import (
	"fmt"
	"sort"
	"sync"

	"github.com/funvibe/cppi/internal/diagnostics"
)

// maxFixedPointPasses caps every fixed-point computation of the builder.
// A well-formed grammar converges in a handful of passes.
const maxFixedPointPasses = 64

// Rule lists the alternatives of one nonterminal. An empty alternative is ε.
type Rule struct {
	Head string
	Alts [][]string
}

// Production is one alternative of a rule.
type Production struct {
	Head     string
	Body     []string
	Alt      int
	wildcard bool
}

type set map[string]bool

func (s set) addAll(o set) bool {
	changed := false
	for k := range o {
		if !s[k] {
			s[k] = true
			changed = true
		}
	}
	return changed
}

// Grammar is a compiled signature grammar.
type Grammar struct {
	productions  []Production
	byHead       map[string][]int
	wildcardable map[string]bool
	keywords     set
	nullable     map[string]bool
	first        map[string]set
	follow       map[string]set
	table        map[string]map[string]int
	units        map[string]set
}

var defaultRules = []Rule{
	{Type, [][]string{{Object}, {Function}, {TokVoid}}},
	{Object, [][]string{{Arithmetic}, {Pointer}, {Array}, {Class}, {List}}},
	{Arithmetic, [][]string{{"BOOL"}, {"I8"}, {"U8"}, {"I16"}, {"U16"}, {"I32"}, {"U32"}, {"I64"}, {"U64"}, {"F32"}, {"F64"}}},
	{Pointer, [][]string{{TokPtr, Type}}},
	{Array, [][]string{{TokArray, ClassNum, Object}}},
	{Class, [][]string{{TokClass, ClassIdent, TokLAngle, TypeList, TokRAngle, Enclosing}}},
	{Enclosing, [][]string{{TokIn, Class}, {}}},
	{TypeList, [][]string{{Type, TypeList}, {}}},
	{List, [][]string{{TokList, TokLAngle, TypeList, TokRAngle}}},
	{Function, [][]string{{TokFunction, Return, TokLParen, ParamList, TokRParen}}},
	{Return, [][]string{{Type}, {TokLRef, Object}, {TokCLRef, Object}}},
	{ParamList, [][]string{{ParamObject, ParamList}, {}}},
	{ParamObject, [][]string{{Object}, {Function}, {TokLRef, Object}, {TokCLRef, Object}}},
}

var defaultWildcardable = []string{Type, Object, Arithmetic, Pointer, Array, Class, List, Function, Return, ParamObject}

var defaultGrammar = sync.OnceValue(func() *Grammar {
	g, err := NewGrammar(defaultRules, defaultWildcardable)
	if err != nil {
		panic(err)
	}
	return g
})

// Default returns the signature grammar, building it on first use.
func Default() *Grammar { return defaultGrammar() }

// NewGrammar compiles rules into an LL(1) table. Wildcardable nonterminals
// get an extra head production. Unproductive nonterminals, table conflicts
// and non-converging fixed points are reported as grammar errors.
func NewGrammar(rules []Rule, wildcardable []string) (*Grammar, error) {
	g := &Grammar{
		byHead:       make(map[string][]int),
		wildcardable: make(map[string]bool),
		keywords:     make(set),
		nullable:     make(map[string]bool),
		first:        make(map[string]set),
		follow:       make(map[string]set),
		table:        make(map[string]map[string]int),
		units:        make(map[string]set),
	}
	for _, w := range wildcardable {
		g.wildcardable[w] = true
	}
	for _, r := range rules {
		if _, dup := g.byHead[r.Head]; dup {
			return nil, diagnostics.New(diagnostics.ErrGrammar, "nonterminal %s defined twice", r.Head)
		}
		g.byHead[r.Head] = nil
	}
	for _, r := range rules {
		for i, body := range r.Alts {
			g.addProduction(Production{Head: r.Head, Body: body, Alt: i})
		}
		if g.wildcardable[r.Head] {
			g.addProduction(Production{Head: r.Head, Body: []string{headTerminal(r.Head)}, Alt: len(r.Alts), wildcard: true})
		}
	}
	for w := range g.wildcardable {
		if !g.IsNonterminal(w) {
			return nil, diagnostics.New(diagnostics.ErrGrammar, "wildcardable symbol %s has no rule", w)
		}
	}
	for _, p := range g.productions {
		for _, s := range p.Body {
			if !g.IsNonterminal(s) && s != ClassIdent && s != ClassNum && !isHeadTerminal(s) {
				g.keywords[s] = true
			}
		}
	}

	steps := []func() error{g.checkProductive, g.computeFirst, g.computeFollow, g.buildTable}
	for _, step := range steps {
		if err := step(); err != nil {
			return nil, err
		}
	}
	g.computeUnits()
	return g, nil
}

func (g *Grammar) addProduction(p Production) {
	g.byHead[p.Head] = append(g.byHead[p.Head], len(g.productions))
	g.productions = append(g.productions, p)
}

func isHeadTerminal(s string) bool { return len(s) > 1 && s[:1] == headPrefix }

// IsNonterminal reports whether sym has a rule.
func (g *Grammar) IsNonterminal(sym string) bool {
	_, ok := g.byHead[sym]
	return ok
}

// IsWildcardable reports whether sym may be used as a wildcard kind.
func (g *Grammar) IsWildcardable(sym string) bool { return g.wildcardable[sym] }

func (g *Grammar) sortedNonterminals() []string {
	names := make([]string, 0, len(g.byHead))
	for n := range g.byHead {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func (g *Grammar) checkProductive() error {
	productive := make(map[string]bool)
	for pass := 0; ; pass++ {
		if pass > maxFixedPointPasses {
			return diagnostics.New(diagnostics.ErrGrammar, "productivity did not converge after %d passes", maxFixedPointPasses)
		}
		changed := false
		for _, p := range g.productions {
			if productive[p.Head] {
				continue
			}
			ok := true
			for _, s := range p.Body {
				if g.IsNonterminal(s) && !productive[s] {
					ok = false
					break
				}
			}
			if ok {
				productive[p.Head] = true
				changed = true
			}
		}
		if !changed {
			break
		}
	}
	for _, n := range g.sortedNonterminals() {
		if !productive[n] {
			return diagnostics.New(diagnostics.ErrGrammar, "nonterminal %s derives no token sequence", n)
		}
	}
	return nil
}

// firstOf returns FIRST of a symbol sequence and whether it is nullable.
func (g *Grammar) firstOf(seq []string) (set, bool) {
	out := make(set)
	for _, s := range seq {
		if !g.IsNonterminal(s) {
			out[s] = true
			return out, false
		}
		out.addAll(g.first[s])
		if !g.nullable[s] {
			return out, false
		}
	}
	return out, true
}

func (g *Grammar) computeFirst() error {
	for n := range g.byHead {
		g.first[n] = make(set)
	}
	for pass := 0; ; pass++ {
		if pass > maxFixedPointPasses {
			return diagnostics.New(diagnostics.ErrGrammar, "FIRST sets did not converge after %d passes", maxFixedPointPasses)
		}
		changed := false
		for _, p := range g.productions {
			f, nullable := g.firstOf(p.Body)
			if g.first[p.Head].addAll(f) {
				changed = true
			}
			if nullable && !g.nullable[p.Head] {
				g.nullable[p.Head] = true
				changed = true
			}
		}
		if !changed {
			return nil
		}
	}
}

func (g *Grammar) computeFollow() error {
	for n := range g.byHead {
		g.follow[n] = make(set)
	}
	// Any wildcardable nonterminal may start a parse.
	for w := range g.wildcardable {
		g.follow[w][classEnd] = true
	}
	for pass := 0; ; pass++ {
		if pass > maxFixedPointPasses {
			return diagnostics.New(diagnostics.ErrGrammar, "FOLLOW sets did not converge after %d passes", maxFixedPointPasses)
		}
		changed := false
		for _, p := range g.productions {
			for i, s := range p.Body {
				if !g.IsNonterminal(s) {
					continue
				}
				rest, nullable := g.firstOf(p.Body[i+1:])
				if g.follow[s].addAll(rest) {
					changed = true
				}
				if nullable && g.follow[s].addAll(g.follow[p.Head]) {
					changed = true
				}
			}
		}
		if !changed {
			return nil
		}
	}
}

func (g *Grammar) buildTable() error {
	for idx, p := range g.productions {
		row := g.table[p.Head]
		if row == nil {
			row = make(map[string]int)
			g.table[p.Head] = row
		}
		f, nullable := g.firstOf(p.Body)
		if nullable {
			f.addAll(g.follow[p.Head])
		}
		for t := range f {
			if prev, ok := row[t]; ok && prev != idx {
				return diagnostics.New(diagnostics.ErrGrammar, "LL(1) conflict in %s on %q between alternatives %d and %d",
					p.Head, t, g.productions[prev].Alt, p.Alt)
			}
			row[t] = idx
		}
	}
	return nil
}

// computeUnits records X ⇒* Y through single-nonterminal alternatives.
func (g *Grammar) computeUnits() {
	for n := range g.byHead {
		g.units[n] = set{n: true}
	}
	for changed := true; changed; {
		changed = false
		for _, p := range g.productions {
			if len(p.Body) != 1 || !g.IsNonterminal(p.Body[0]) {
				continue
			}
			if g.units[p.Head].addAll(g.units[p.Body[0]]) {
				changed = true
			}
		}
	}
}

// Derives reports whether nonterminal x derives y through unit alternatives
// (Object derives Arithmetic, Type derives Object, every X derives X).
func (g *Grammar) Derives(x, y string) bool { return g.units[x][y] }

// First returns a copy of FIRST(sym), mainly for diagnostics and tests.
func (g *Grammar) First(sym string) []string {
	out := make([]string, 0, len(g.first[sym]))
	for t := range g.first[sym] {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

func (g *Grammar) String() string {
	return fmt.Sprintf("grammar(%d nonterminals, %d productions)", len(g.byHead), len(g.productions))
}
