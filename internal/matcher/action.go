package matcher

import (
	"fmt"
	"strings"

	"github.com/funvibe/cppi/internal/config"
	"github.com/funvibe/cppi/internal/diagnostics"
	"github.com/funvibe/cppi/internal/signature"
	"github.com/funvibe/cppi/internal/value"
)

// Kind says how an actual argument reaches its parameter.
type Kind int

const (
	Borrow Kind = iota
	Clone
	Cast
)

func (k Kind) String() string {
	switch k {
	case Borrow:
		return "borrow"
	case Clone:
		return "clone"
	case Cast:
		return "cast"
	}
	return "unknown"
}

// Strategy is an implicit conversion rule.
type Strategy int

const (
	Decay Strategy = iota + 1
	Numeric
	Constructor
	BraceList
)

var strategyNames = map[Strategy]string{
	Decay:       config.CastDecay,
	Numeric:     config.CastNumeric,
	Constructor: config.CastConstructor,
	BraceList:   config.CastBraceList,
}

func (s Strategy) String() string {
	if n, ok := strategyNames[s]; ok {
		return n
	}
	return "none"
}

// ParseCastOrder maps configured strategy names to strategies.
func ParseCastOrder(names []string) ([]Strategy, error) {
	out := make([]Strategy, 0, len(names))
	for _, n := range names {
		found := false
		for s, name := range strategyNames {
			if name == n {
				out = append(out, s)
				found = true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("unknown cast strategy %q", n)
		}
	}
	return out, nil
}

// DefaultOrder is decay, numeric, constructor, brace-list.
func DefaultOrder() []Strategy {
	order, err := ParseCastOrder(config.DefaultCastOrder)
	if err != nil {
		panic(err)
	}
	return order
}

// Candidate is a registered overload the matcher may try as a converting
// constructor.
type Candidate interface {
	Signature() *signature.Signature
}

// Shape lays out a brace list as the members of a class.
type Shape interface {
	// Fields returns the member types for the given instantiation.
	Fields(dst *value.Class) ([]value.Type, bool)
}

// Env supplies the user-defined conversions known to a registry.
type Env interface {
	Constructors(dst *value.Class) []Candidate
	Shapes(dst *value.Class) []Shape
}

// Action is the plan for one argument.
type Action struct {
	Kind     Kind
	Strategy Strategy
	Target   value.Type

	// Constructor casts
	Constructor Candidate
	Nested      *Result

	// Brace-list casts; Shape is nil for initializer_list targets.
	Shape    Shape
	Elements []Action
}

func (a Action) String() string {
	if a.Kind != Cast {
		return a.Kind.String()
	}
	s := fmt.Sprintf("cast(%s -> %s)", a.Strategy, a.Target)
	if len(a.Elements) > 0 {
		parts := make([]string, len(a.Elements))
		for i, e := range a.Elements {
			parts[i] = e.String()
		}
		s += "{" + strings.Join(parts, ", ") + "}"
	}
	return s
}

// Result is a successful match.
type Result struct {
	Actions  []Action
	Bindings map[int][]string
	Return   []string
}

// Casts counts the conversions a match needs, nested ones included.
func (r *Result) Casts() int {
	n := 0
	var count func([]Action)
	count = func(as []Action) {
		for _, a := range as {
			if a.Kind == Cast {
				n++
			}
			count(a.Elements)
			if a.Nested != nil {
				count(a.Nested.Actions)
			}
		}
	}
	count(r.Actions)
	return n
}

// ReturnType builds the instantiated return type, dropping any reference
// marker.
func (r *Result) ReturnType(g *signature.Grammar) (value.Type, error) {
	if r.Return == nil {
		return nil, diagnostics.New(diagnostics.ErrUnresolvedWildcard, "return type is not resolved")
	}
	toks := r.Return
	if len(toks) > 0 && (toks[0] == signature.TokLRef || toks[0] == signature.TokCLRef) {
		toks = toks[1:]
	}
	return g.ParseType(toks)
}
