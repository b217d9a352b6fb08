package value

import (
	"strconv"
	"strings"

	"github.com/funvibe/cppi/internal/config"
)

// Type is the interface for all types of the interpreted language.
// The set of implementations is closed: Arithmetic, Pointer, Class,
// Function, Void and List.
type Type interface {
	String() string
	Equal(Type) bool
	isType()
}

// ArithKind enumerates the fixed-width arithmetic types.
type ArithKind int

const (
	Bool ArithKind = iota
	I8
	U8
	I16
	U16
	I32
	U32
	I64
	U64
	F32
	F64
)

var arithInfo = [...]struct {
	name   string
	size   int
	signed bool
	float  bool
}{
	Bool: {"bool", 1, false, false},
	I8:   {"int8_t", 1, true, false},
	U8:   {"uint8_t", 1, false, false},
	I16:  {"int16_t", 2, true, false},
	U16:  {"uint16_t", 2, false, false},
	I32:  {"int32_t", 4, true, false},
	U32:  {"uint32_t", 4, false, false},
	I64:  {"int64_t", 8, true, false},
	U64:  {"uint64_t", 8, false, false},
	F32:  {"float", 4, true, true},
	F64:  {"double", 8, true, true},
}

func (k ArithKind) String() string { return arithInfo[k].name }

// Size is the width in bytes.
func (k ArithKind) Size() int { return arithInfo[k].size }

func (k ArithKind) Signed() bool { return arithInfo[k].signed }

func (k ArithKind) Float() bool { return arithInfo[k].float }

// Integral reports whether the kind is an integer kind (bool included).
func (k ArithKind) Integral() bool { return !arithInfo[k].float }

// Bits is the width in bits; bool occupies one bit of value.
func (k ArithKind) Bits() uint {
	if k == Bool {
		return 1
	}
	return uint(arithInfo[k].size * 8)
}

// Arithmetic is an integer, floating-point or boolean type.
type Arithmetic struct {
	Kind ArithKind
}

func (t *Arithmetic) String() string { return t.Kind.String() }

func (t *Arithmetic) Equal(o Type) bool {
	other, ok := o.(*Arithmetic)
	return ok && other.Kind == t.Kind
}

func (*Arithmetic) isType() {}

// Pointer is a raw pointer, or a fixed array when Fixed is set.
type Pointer struct {
	Elem  Type
	Size  int
	Fixed bool
}

func (t *Pointer) String() string {
	if t.Fixed {
		return t.Elem.String() + "[" + strconv.Itoa(t.Size) + "]"
	}
	return t.Elem.String() + "*"
}

func (t *Pointer) Equal(o Type) bool {
	other, ok := o.(*Pointer)
	if !ok || other.Fixed != t.Fixed {
		return false
	}
	if t.Fixed && other.Size != t.Size {
		return false
	}
	return t.Elem.Equal(other.Elem)
}

func (*Pointer) isType() {}

// Class is a struct or a template instantiation. vector<int> and
// vector<double> are distinct Class values sharing one Domain.
type Class struct {
	Name  string
	Args  []Type
	Outer *Class
}

func (t *Class) String() string {
	var b strings.Builder
	if t.Outer != nil {
		b.WriteString(t.Outer.String())
		b.WriteString("::")
	}
	b.WriteString(t.Name)
	if len(t.Args) > 0 {
		b.WriteByte('<')
		for i, a := range t.Args {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(a.String())
		}
		b.WriteByte('>')
	}
	return b.String()
}

func (t *Class) Equal(o Type) bool {
	other, ok := o.(*Class)
	if !ok || other.Name != t.Name || len(other.Args) != len(t.Args) {
		return false
	}
	for i := range t.Args {
		if !t.Args[i].Equal(other.Args[i]) {
			return false
		}
	}
	if (t.Outer == nil) != (other.Outer == nil) {
		return false
	}
	return t.Outer == nil || t.Outer.Equal(other.Outer)
}

func (*Class) isType() {}

// Domain is the overload domain owning this class's members: the
// dot-joined chain of enclosing identifiers.
func (t *Class) Domain() string {
	if t.Outer == nil {
		return t.Name
	}
	return t.Outer.Domain() + config.DomainSeparator + t.Name
}

// Function is a function type described by its signature tokens.
type Function struct {
	Signature []string
}

func (t *Function) String() string { return strings.Join(t.Signature, " ") }

func (t *Function) Equal(o Type) bool {
	other, ok := o.(*Function)
	if !ok || len(other.Signature) != len(t.Signature) {
		return false
	}
	for i := range t.Signature {
		if t.Signature[i] != other.Signature[i] {
			return false
		}
	}
	return true
}

func (*Function) isType() {}

type Void struct{}

func (*Void) String() string { return "void" }

func (*Void) Equal(o Type) bool {
	_, ok := o.(*Void)
	return ok
}

func (*Void) isType() {}

// List is the anonymous prototype of a brace-enclosed initializer list.
type List struct {
	Elems []Type
}

func (t *List) String() string {
	parts := make([]string, len(t.Elems))
	for i, e := range t.Elems {
		parts[i] = e.String()
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

func (t *List) Equal(o Type) bool {
	other, ok := o.(*List)
	if !ok || len(other.Elems) != len(t.Elems) {
		return false
	}
	for i := range t.Elems {
		if !t.Elems[i].Equal(other.Elems[i]) {
			return false
		}
	}
	return true
}

func (*List) isType() {}

// Convenience constructors.

func Arith(k ArithKind) *Arithmetic { return &Arithmetic{Kind: k} }

func PointerTo(elem Type) *Pointer { return &Pointer{Elem: elem} }

func ArrayOf(elem Type, size int) *Pointer { return &Pointer{Elem: elem, Size: size, Fixed: true} }

func ClassOf(name string, args ...Type) *Class { return &Class{Name: name, Args: args} }
