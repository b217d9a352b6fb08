package signature

import "github.com/funvibe/cppi/internal/value"

// Keyword tokens
const (
	TokVoid     = "VOID"
	TokPtr      = "PTR"
	TokArray    = "ARRAY"
	TokClass    = "CLASS"
	TokIn       = "IN"
	TokList     = "LIST"
	TokFunction = "FUNCTION"
	TokLRef     = "LREF"
	TokCLRef    = "CLREF"
	TokLAngle   = "<"
	TokRAngle   = ">"
	TokLParen   = "("
	TokRParen   = ")"
)

// Terminal classes for tokens that are not keywords.
const (
	ClassIdent = "IDENT"
	ClassNum   = "NUM"
	classEnd   = "$"
)

// Nonterminals
const (
	Type        = "Type"
	Object      = "Object"
	Arithmetic  = "Arithmetic"
	Pointer     = "Pointer"
	Array       = "Array"
	Class       = "Class"
	Enclosing   = "Enclosing"
	TypeList    = "TypeList"
	List        = "List"
	Function    = "Function"
	Return      = "Return"
	ParamList   = "ParamList"
	ParamObject = "ParamObject"
)

// Wildcard syntax
const (
	DeclaratorPrefix = "!"
	ReferencePrefix  = "?"
	headPrefix       = "@"
)

// NoWildcard marks a token position that did not come from a wildcard.
const NoWildcard = -1

var arithTokens = map[string]value.ArithKind{
	"BOOL": value.Bool,
	"I8":   value.I8,
	"U8":   value.U8,
	"I16":  value.I16,
	"U16":  value.U16,
	"I32":  value.I32,
	"U32":  value.U32,
	"I64":  value.I64,
	"U64":  value.U64,
	"F32":  value.F32,
	"F64":  value.F64,
}

var arithNames = func() map[value.ArithKind]string {
	m := make(map[value.ArithKind]string, len(arithTokens))
	for tok, k := range arithTokens {
		m[k] = tok
	}
	return m
}()

// ArithKindOf maps an arithmetic token to its kind.
func ArithKindOf(tok string) (value.ArithKind, bool) {
	k, ok := arithTokens[tok]
	return k, ok
}

// ArithToken maps a kind to its token.
func ArithToken(k value.ArithKind) string { return arithNames[k] }

func headTerminal(nonterminal string) string { return headPrefix + nonterminal }
