package config

// GlobalDomain owns every overload that is not a class member.
const GlobalDomain = "{global}"

// DomainSeparator joins enclosing class identifiers into a domain name.
const DomainSeparator = "."

// Reserved member names
const (
	ConstructorName        = "#ctor"
	DefaultConstructorName = "#default"
)

// Built-in type names
const (
	InitializerListName = "initializer_list"
	InitializerListData = "data"
	InitializerListSize = "size"
)

// OperatorName returns the overload name used for an operator symbol.
func OperatorName(op string) string {
	return "o(" + op + ")"
}

// Cast strategy names, as written in cast_order.
const (
	CastDecay       = "decay"
	CastNumeric     = "numeric"
	CastConstructor = "constructor"
	CastBraceList   = "brace_list"
)

// DefaultCastOrder is the precedence used when a parameter needs a conversion.
var DefaultCastOrder = []string{CastDecay, CastNumeric, CastConstructor, CastBraceList}

// DefaultMaxYields bounds consecutive deferred steps a driver will trampoline
// before it reports a runaway computation.
const DefaultMaxYields = 1 << 16
