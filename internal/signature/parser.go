package signature

import (
	"strings"
	"unicode"
)

const leafAlt = -1

// Node is a parse-tree node. Leaves carry the matched token; interior
// nodes record which alternative of Symbol they expanded. A Head node is
// the single-token production X → @X and carries the wildcard id of its
// token.
type Node struct {
	Symbol   string
	Alt      int
	Token    string
	Children []*Node
	Head     bool
	Wildcard int
}

// IsLeaf reports whether n is a terminal.
func (n *Node) IsLeaf() bool { return n.Alt == leafAlt }

// Tokens returns the token sequence n was parsed from.
func (n *Node) Tokens() []string {
	var out []string
	n.walkTokens(func(tok string) { out = append(out, tok) })
	return out
}

func (n *Node) walkTokens(emit func(string)) {
	if n.IsLeaf() {
		emit(n.Token)
		return
	}
	for _, c := range n.Children {
		c.walkTokens(emit)
	}
}

func (n *Node) String() string { return strings.Join(n.Tokens(), " ") }

// Heads returns every head node under n in source order.
func (n *Node) Heads() []*Node {
	var out []*Node
	var walk func(*Node)
	walk = func(x *Node) {
		if x.Head {
			out = append(out, x)
			return
		}
		for _, c := range x.Children {
			walk(c)
		}
	}
	walk(n)
	return out
}

// Substitute rewrites n with each head replaced by the tokens lookup
// returns for its wildcard id. It fails if any head is unbound.
func (n *Node) Substitute(lookup func(id int) ([]string, bool)) ([]string, bool) {
	var out []string
	ok := true
	var walk func(*Node)
	walk = func(x *Node) {
		if !ok {
			return
		}
		switch {
		case x.Head:
			toks, found := lookup(x.Wildcard)
			if !found {
				ok = false
				return
			}
			out = append(out, toks...)
		case x.IsLeaf():
			out = append(out, x.Token)
		default:
			for _, c := range x.Children {
				walk(c)
			}
		}
	}
	walk(n)
	return out, ok
}

// Unwrap strips unit wrappers (Type → Object, Return → Type and the like)
// until a node whose alternative is not a single nonterminal remains.
// Reference wrappers and heads are kept.
func (n *Node) Unwrap() *Node {
	for !n.Head && !n.IsLeaf() && len(n.Children) == 1 && !n.Children[0].IsLeaf() {
		n = n.Children[0]
	}
	return n
}

func isNumber(tok string) bool {
	if tok == "" {
		return false
	}
	for _, r := range tok {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func isIdent(tok string) bool {
	if tok == "" {
		return false
	}
	for i, r := range tok {
		if r == '_' || unicode.IsLetter(r) || (i > 0 && unicode.IsDigit(r)) {
			continue
		}
		return false
	}
	return true
}

// classify maps a token to the terminal the table is indexed by. The
// empty string means the token is not part of the vocabulary.
func (g *Grammar) classify(tok string) string {
	switch {
	case g.wildcardable[tok]:
		return headTerminal(tok)
	case g.keywords[tok]:
		return tok
	case isNumber(tok):
		return ClassNum
	case isIdent(tok) && !g.IsNonterminal(tok):
		return ClassIdent
	}
	return ""
}

type parser struct {
	g    *Grammar
	toks []string
	ids  []int
	pos  int
}

func (p *parser) lookahead() string {
	if p.pos >= len(p.toks) {
		return classEnd
	}
	return p.g.classify(p.toks[p.pos])
}

func (p *parser) wildcard(i int) int {
	if i < len(p.ids) {
		return p.ids[i]
	}
	return NoWildcard
}

func (p *parser) parse(sym string) *Node {
	if !p.g.IsNonterminal(sym) {
		if p.lookahead() != sym {
			return nil
		}
		leaf := &Node{Symbol: sym, Alt: leafAlt, Token: p.toks[p.pos], Wildcard: p.wildcard(p.pos)}
		p.pos++
		return leaf
	}
	idx, ok := p.g.table[sym][p.lookahead()]
	if !ok {
		return nil
	}
	prod := p.g.productions[idx]
	n := &Node{Symbol: sym, Alt: prod.Alt, Wildcard: NoWildcard, Children: make([]*Node, 0, len(prod.Body))}
	for _, s := range prod.Body {
		c := p.parse(s)
		if c == nil {
			return nil
		}
		n.Children = append(n.Children, c)
	}
	if prod.wildcard {
		n.Head = true
		n.Wildcard = n.Children[0].Wildcard
	}
	return n
}

// Parse derives tokens from start. wildcards, when non-nil, gives the
// wildcard id of every token position and is copied onto head nodes.
func (g *Grammar) Parse(tokens []string, wildcards []int, start string) (*Node, bool) {
	if !g.IsNonterminal(start) {
		return nil, false
	}
	p := &parser{g: g, toks: tokens, ids: wildcards}
	root := p.parse(start)
	if root == nil || p.pos != len(tokens) {
		return nil, false
	}
	return root, true
}

// Recognize reports whether tokens is a sentence of start.
func (g *Grammar) Recognize(tokens []string, start string) bool {
	_, ok := g.Parse(tokens, nil, start)
	return ok
}
