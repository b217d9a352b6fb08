package signature

import (
	"strconv"

	"github.com/funvibe/cppi/internal/diagnostics"
	"github.com/funvibe/cppi/internal/value"
)

// Ref is how an argument is passed at a call site.
type Ref int

const (
	RefNone Ref = iota
	RefMutable
	RefConst
)

// Arg describes one actual argument for matching.
type Arg struct {
	Type value.Type
	Ref  Ref
}

// ArgOf projects a variable: non-const lvalues are mutable references,
// const lvalues are const references, everything else is passed by value.
func ArgOf(v *value.Variable) Arg {
	switch {
	case !v.IsLvalue():
		return Arg{Type: v.Type}
	case v.Const:
		return Arg{Type: v.Type, Ref: RefConst}
	default:
		return Arg{Type: v.Type, Ref: RefMutable}
	}
}

// ArgsOf projects every variable.
func ArgsOf(vs []*value.Variable) []Arg {
	out := make([]Arg, len(vs))
	for i, v := range vs {
		out[i] = ArgOf(v)
	}
	return out
}

// TypeTokens renders a type as signature tokens.
func TypeTokens(t value.Type) []string {
	var out []string
	appendType(&out, t)
	return out
}

func appendType(out *[]string, t value.Type) {
	switch tt := t.(type) {
	case *value.Arithmetic:
		*out = append(*out, ArithToken(tt.Kind))
	case *value.Pointer:
		if tt.Fixed {
			*out = append(*out, TokArray, strconv.Itoa(tt.Size))
		} else {
			*out = append(*out, TokPtr)
		}
		appendType(out, tt.Elem)
	case *value.Class:
		appendClass(out, tt)
	case *value.Function:
		*out = append(*out, tt.Signature...)
	case *value.Void:
		*out = append(*out, TokVoid)
	case *value.List:
		*out = append(*out, TokList, TokLAngle)
		for _, e := range tt.Elems {
			appendType(out, e)
		}
		*out = append(*out, TokRAngle)
	}
}

func appendClass(out *[]string, c *value.Class) {
	*out = append(*out, TokClass, c.Name, TokLAngle)
	for _, a := range c.Args {
		appendType(out, a)
	}
	*out = append(*out, TokRAngle)
	if c.Outer != nil {
		*out = append(*out, TokIn)
		appendClass(out, c.Outer)
	}
}

// ArgTokens renders an argument as a ParamObject.
func ArgTokens(a Arg) []string {
	if _, fn := a.Type.(*value.Function); fn {
		return TypeTokens(a.Type)
	}
	switch a.Ref {
	case RefMutable:
		return append([]string{TokLRef}, TypeTokens(a.Type)...)
	case RefConst:
		return append([]string{TokCLRef}, TypeTokens(a.Type)...)
	}
	return TypeTokens(a.Type)
}

// CallTokens renders a call site as a function signature whose return is
// left open as a synthetic Return head.
func CallTokens(args []Arg) []string {
	return callTokens([]string{Return}, args)
}

// ReturningCallTokens renders a call site whose result must have type ret.
// Matching it binds the declaration's return wildcards from ret.
func ReturningCallTokens(ret value.Type, args []Arg) []string {
	return callTokens(TypeTokens(ret), args)
}

func callTokens(ret []string, args []Arg) []string {
	out := append([]string{TokFunction}, ret...)
	out = append(out, TokLParen)
	for _, a := range args {
		out = append(out, ArgTokens(a)...)
	}
	return append(out, TokRParen)
}

// BuildType converts a concrete parse tree back into a type. Reference
// markers are dropped; heads are an unresolved wildcard error.
func BuildType(n *Node) (value.Type, error) {
	if n.Head {
		return nil, diagnostics.New(diagnostics.ErrUnresolvedWildcard, "wildcard %s (#%d) has no concrete type", n.Symbol, n.Wildcard)
	}
	switch n.Symbol {
	case Type, Object, Return, ParamObject:
		last := n.Children[len(n.Children)-1]
		if last.IsLeaf() {
			return &value.Void{}, nil
		}
		return BuildType(last)
	case Arithmetic:
		k, _ := ArithKindOf(n.Children[0].Token)
		return value.Arith(k), nil
	case Pointer:
		elem, err := BuildType(n.Children[1])
		if err != nil {
			return nil, err
		}
		return value.PointerTo(elem), nil
	case Array:
		size, err := strconv.Atoi(n.Children[1].Token)
		if err != nil {
			return nil, diagnostics.New(diagnostics.ErrMalformedSignature, "array size %q", n.Children[1].Token)
		}
		elem, err := BuildType(n.Children[2])
		if err != nil {
			return nil, err
		}
		return value.ArrayOf(elem, size), nil
	case Class:
		return buildClass(n)
	case List:
		elems, err := buildTypeList(n.Children[2])
		if err != nil {
			return nil, err
		}
		return &value.List{Elems: elems}, nil
	case Function:
		return &value.Function{Signature: n.Tokens()}, nil
	}
	return nil, diagnostics.New(diagnostics.ErrMalformedSignature, "%s does not denote a type", n.Symbol)
}

func buildClass(n *Node) (*value.Class, error) {
	args, err := buildTypeList(n.Children[3])
	if err != nil {
		return nil, err
	}
	c := &value.Class{Name: n.Children[1].Token, Args: args}
	if enc := n.Children[5]; len(enc.Children) == 2 {
		outer := enc.Children[1]
		if outer.Head {
			return nil, diagnostics.New(diagnostics.ErrUnresolvedWildcard, "enclosing class of %s is a wildcard", c.Name)
		}
		if c.Outer, err = buildClass(outer); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func buildTypeList(tl *Node) ([]value.Type, error) {
	var out []value.Type
	for _, item := range TypeListNodes(tl) {
		t, err := BuildType(item)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

// ParseType parses concrete tokens as a Type and builds it.
func (g *Grammar) ParseType(tokens []string) (value.Type, error) {
	n, ok := g.Parse(tokens, nil, Type)
	if !ok {
		return nil, diagnostics.New(diagnostics.ErrMalformedSignature, "%v is not a type", tokens)
	}
	return BuildType(n)
}
