package signature

import (
	"strings"

	"github.com/funvibe/cppi/internal/diagnostics"
	"github.com/funvibe/cppi/internal/pipeline"
)

// Signature is a compiled signature: the preprocessed token sequence and
// its parse tree.
type Signature struct {
	Source    []string
	Tokens    []string
	Wildcards []int
	Declared  []string
	Start     string
	Root      *Node
}

// compileContext is threaded through the compile stages.
type compileContext struct {
	g      *Grammar
	src    []string
	start  string
	strict bool

	pre  *Preprocessed
	root *Node
	err  error
}

type preprocessStage struct{}

func (preprocessStage) Process(ctx *compileContext) *compileContext {
	if ctx.err != nil {
		return ctx
	}
	ctx.pre, ctx.err = ctx.g.Preprocess(ctx.src, ctx.strict)
	return ctx
}

type parseStage struct{}

func (parseStage) Process(ctx *compileContext) *compileContext {
	if ctx.err != nil {
		return ctx
	}
	root, ok := ctx.g.Parse(ctx.pre.Tokens, ctx.pre.Wildcards, ctx.start)
	if !ok {
		ctx.err = diagnostics.New(diagnostics.ErrMalformedSignature, "%q is not a valid %s", strings.Join(ctx.src, " "), ctx.start)
		return ctx
	}
	ctx.root = root
	return ctx
}

var compileStages = pipeline.New[*compileContext](preprocessStage{}, parseStage{})

// Compile preprocesses and parses a signature starting at the given
// nonterminal.
func (g *Grammar) Compile(src []string, start string, strict bool) (*Signature, error) {
	ctx := compileStages.Run(&compileContext{g: g, src: src, start: start, strict: strict})
	if ctx.err != nil {
		return nil, ctx.err
	}
	return &Signature{
		Source:    append([]string(nil), src...),
		Tokens:    ctx.pre.Tokens,
		Wildcards: ctx.pre.Wildcards,
		Declared:  ctx.pre.Declared,
		Start:     start,
		Root:      ctx.root,
	}, nil
}

// CompileString splits s on whitespace and compiles it.
func (g *Grammar) CompileString(s, start string, strict bool) (*Signature, error) {
	return g.Compile(strings.Fields(s), start, strict)
}

// MustCompile compiles a function signature against the default grammar
// and panics on error. It is meant for built-in tables.
func MustCompile(s string) *Signature {
	sig, err := Default().CompileString(s, Function, true)
	if err != nil {
		panic(err)
	}
	return sig
}

func (s *Signature) String() string { return strings.Join(s.Source, " ") }

// Key identifies the signature up to whitespace; two signatures with the
// same key are the same overload.
func (s *Signature) Key() string { return strings.Join(s.Source, " ") }

// Arity is the number of wildcard ids in use, declared and synthetic.
func (s *Signature) Arity() int {
	n := len(s.Declared)
	for _, id := range s.Wildcards {
		if id >= n {
			n = id + 1
		}
	}
	return n
}

// IsFunction reports whether the signature is a concrete FUNCTION form
// rather than a bare @Function head.
func (s *Signature) IsFunction() bool {
	r := s.Root.Unwrap()
	return r.Symbol == Function && !r.Head
}

// ReturnNode is the Return child of a function signature.
func (s *Signature) ReturnNode() *Node {
	if !s.IsFunction() {
		return nil
	}
	return s.Root.Unwrap().Children[1]
}

// Params returns the ParamObject nodes of a function signature.
func (s *Signature) Params() []*Node {
	if !s.IsFunction() {
		return nil
	}
	return ParamNodes(s.Root.Unwrap())
}

// ParamNodes flattens the ParamList of a concrete Function node.
func ParamNodes(fn *Node) []*Node {
	var out []*Node
	for pl := fn.Children[3]; len(pl.Children) == 2; pl = pl.Children[1] {
		out = append(out, pl.Children[0])
	}
	return out
}

// TypeListNodes flattens a TypeList node.
func TypeListNodes(tl *Node) []*Node {
	var out []*Node
	for ; len(tl.Children) == 2; tl = tl.Children[1] {
		out = append(out, tl.Children[0])
	}
	return out
}
