package signature

import (
	"strconv"
	"strings"

	"github.com/funvibe/cppi/internal/diagnostics"
)

// Preprocessed is a signature with its declarators removed and every
// wildcard reference replaced by the head token of its declared kind.
type Preprocessed struct {
	Declared  []string
	Tokens    []string
	Wildcards []int
}

// Preprocess strips leading !Kind declarators and rewrites ?N references.
// Heads written directly in the body get fresh ids numbered after the
// declared ones. With strict set, wildcards must be first referenced in
// ascending id order.
func (g *Grammar) Preprocess(src []string, strict bool) (*Preprocessed, error) {
	pre := &Preprocessed{}
	i := 0
	for ; i < len(src) && strings.HasPrefix(src[i], DeclaratorPrefix); i++ {
		kind := strings.TrimPrefix(src[i], DeclaratorPrefix)
		if !g.wildcardable[kind] {
			return nil, diagnostics.New(diagnostics.ErrBadDeclarator, "%q does not name a wildcard kind", src[i])
		}
		pre.Declared = append(pre.Declared, kind)
	}

	pre.Tokens = make([]string, 0, len(src)-i)
	pre.Wildcards = make([]int, 0, len(src)-i)
	synthetic := len(pre.Declared)
	seen := make(map[int]bool)
	last := -1
	for ; i < len(src); i++ {
		tok := src[i]
		switch {
		case strings.HasPrefix(tok, DeclaratorPrefix):
			return nil, diagnostics.New(diagnostics.ErrBadDeclarator, "declarator %q follows the signature body", tok)
		case strings.HasPrefix(tok, ReferencePrefix):
			id, err := strconv.Atoi(strings.TrimPrefix(tok, ReferencePrefix))
			if err != nil || id < 0 {
				return nil, diagnostics.New(diagnostics.ErrUndeclaredWildcard, "malformed wildcard reference %q", tok)
			}
			if id >= len(pre.Declared) {
				return nil, diagnostics.New(diagnostics.ErrUndeclaredWildcard, "wildcard %q is not declared (%d declared)", tok, len(pre.Declared))
			}
			if !seen[id] {
				if strict && id < last {
					return nil, diagnostics.New(diagnostics.ErrWildcardOrder, "wildcard ?%d first referenced after ?%d", id, last)
				}
				seen[id] = true
				if id > last {
					last = id
				}
			}
			pre.Tokens = append(pre.Tokens, pre.Declared[id])
			pre.Wildcards = append(pre.Wildcards, id)
		case g.wildcardable[tok]:
			pre.Tokens = append(pre.Tokens, tok)
			pre.Wildcards = append(pre.Wildcards, synthetic)
			synthetic++
		default:
			pre.Tokens = append(pre.Tokens, tok)
			pre.Wildcards = append(pre.Wildcards, NoWildcard)
		}
	}
	return pre, nil
}
