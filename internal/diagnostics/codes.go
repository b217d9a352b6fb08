package diagnostics

// Code identifies one kind of fault.
type Code struct {
	Code        string
	Name        string
	Description string
}

// =============================================================================
// SIGNATURE ERRORS (E1xxx) - raised once, when a declaration is registered
// =============================================================================
var (
	ErrMalformedSignature      = Code{"E1001", "malformed-signature", "signature is not accepted by the signature grammar"}
	ErrUndeclaredWildcard      = Code{"E1002", "undeclared-wildcard", "wildcard reference has no declarator"}
	ErrWildcardOrder           = Code{"E1003", "wildcard-order", "wildcard first referenced out of ascending order"}
	ErrBadDeclarator           = Code{"E1004", "bad-declarator", "wildcard declarator is malformed"}
	ErrDuplicateImplementation = Code{"E1005", "duplicate-implementation", "an implementation already exists for this signature"}
	ErrGrammar                 = Code{"E1006", "grammar", "signature grammar is ill-formed"}
)

// =============================================================================
// RESOLUTION ERRORS (E2xxx) - raised at call sites
// =============================================================================
var (
	ErrNoMatchingOverload = Code{"E2001", "no-matching-overload", "no overload admits the call"}
	ErrNotImplemented     = Code{"E2002", "not-implemented", "overload is declared but has no implementation"}
	ErrNoConversion       = Code{"E2003", "no-conversion", "value cannot be converted to the requested type"}
	ErrNoDefault          = Code{"E2004", "no-default", "type has no default value"}
	ErrTemplateArity      = Code{"E2005", "template-arity", "wrong number of template arguments"}
	ErrArgumentCount      = Code{"E2006", "argument-count", "argument count does not match the resolved overload"}
)

// =============================================================================
// RUNTIME VALUE FAULTS (E3xxx)
// =============================================================================
var (
	ErrUninitialized    = Code{"E3001", "uninitialized", "read of an uninitialized value"}
	ErrOutOfBounds      = Code{"E3002", "out-of-bounds", "access outside of a memory region"}
	ErrDivisionByZero   = Code{"E3003", "division-by-zero", "integer division or modulo by zero"}
	ErrSignedOverflow   = Code{"E3004", "signed-overflow", "signed integer overflow"}
	ErrUnsignedOverflow = Code{"E3005", "unsigned-overflow", "unsigned integer overflow"}
	ErrNullPointer      = Code{"E3006", "null-pointer", "dereference of a null pointer"}
	ErrConstAssign      = Code{"E3007", "const-assign", "assignment to a const value"}
	ErrNotAnLvalue      = Code{"E3008", "not-an-lvalue", "operation requires an lvalue"}
	ErrPointerArith     = Code{"E3009", "pointer-arithmetic", "invalid pointer arithmetic"}
	ErrTypeMismatch     = Code{"E3010", "type-mismatch", "value does not have the expected type"}
)

// =============================================================================
// INTERNAL ERRORS (E9xxx)
// =============================================================================
var (
	ErrUnresolvedWildcard = Code{"E9001", "unresolved-wildcard", "wildcard bound to an unresolved wildcard was needed concretely"}
	ErrIterationLimit     = Code{"E9002", "iteration-limit", "resumable computation exceeded its iteration limit"}
	ErrNoInput            = Code{"E9003", "no-input", "computation awaits input the host cannot supply"}
)
