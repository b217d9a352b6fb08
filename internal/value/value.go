package value

import (
	"math/big"

	"github.com/funvibe/cppi/internal/diagnostics"
)

// State is the initialization state of a Value.
type State int

const (
	Uninit State = iota
	Init
	// Unbound marks a reference past the end of its region. It is created
	// lazily by pointer arithmetic and faults on first access.
	Unbound
)

func (s State) String() string {
	switch s {
	case Uninit:
		return "UNINIT"
	case Init:
		return "INIT"
	case Unbound:
		return "UNBOUND"
	}
	return "?"
}

// Holder records who owns a Value's storage. A nil Holder is a temporary.
type Holder interface {
	holder()
}

// Self is an anonymous self-owned slot (a local variable, a parameter).
type Self struct{}

func (Self) holder() {}

// Slot is a position inside a memory region.
type Slot struct {
	Region *Region
	Index  int
}

func (Slot) holder() {}

// Raw is the payload of an initialized Value.
type Raw interface {
	raw()
}

// Int holds integral and boolean values.
type Int struct {
	V *big.Int
}

func (Int) raw() {}

type Float struct {
	V float64
}

func (Float) raw() {}

// PointerKind distinguishes the two ways a pointer can alias storage.
type PointerKind int

const (
	// Direct aliases exactly one Variable by identity (&x, function pointers).
	Direct PointerKind = iota
	// Index aliases a (region, index) pair (array decay, pointer arithmetic).
	Index
)

// Ptr is a pointer payload. A Direct pointer with a nil Target is null.
type Ptr struct {
	Kind   PointerKind
	Target *Variable
	Region *Region
	Index  int
}

func (Ptr) raw() {}

// Func designates a callable. Ref is owned by the registry.
type Func struct {
	Name   string
	Domain string
	Ref    interface{}
}

func (Func) raw() {}

// Elems is the payload of a brace-list prototype.
type Elems struct {
	Items []*Variable
}

func (Elems) raw() {}

// Value is the storage behind a Variable.
type Value struct {
	State  State
	Raw    Raw
	Holder Holder
}

// Variable pairs a Type with a Value. Two Variables alias when they share
// the same *Value.
type Variable struct {
	Type  Type
	Const bool
	v     *Value
}

// Value exposes the underlying storage; identity of the result is the
// identity used by Direct pointers.
func (v *Variable) Value() *Value { return v.v }

func (v *Variable) State() State { return v.v.State }

func (v *Variable) Holder() Holder { return v.v.Holder }

// IsLvalue reports whether the variable designates storage.
func (v *Variable) IsLvalue() bool { return v.v.Holder != nil }

// Get reads the value, faulting on uninitialized or out-of-bounds storage.
func (v *Variable) Get() (Raw, error) {
	switch v.v.State {
	case Uninit:
		return nil, diagnostics.New(diagnostics.ErrUninitialized, "read of an uninitialized %s", v.Type)
	case Unbound:
		return nil, boundsError(v.v.Holder)
	}
	return v.v.Raw, nil
}

// Init stores a value regardless of constness. It is used to initialize
// fresh storage.
func (v *Variable) Init(r Raw) error {
	if v.v.State == Unbound {
		return boundsError(v.v.Holder)
	}
	v.v.Raw = r
	v.v.State = Init
	return nil
}

// Assign stores through an lvalue.
func (v *Variable) Assign(r Raw) error {
	if v.v.Holder == nil {
		return diagnostics.New(diagnostics.ErrNotAnLvalue, "cannot assign to a temporary %s", v.Type)
	}
	if v.Const {
		return diagnostics.New(diagnostics.ErrConstAssign, "cannot assign to a const %s", v.Type)
	}
	return v.Init(r)
}

func boundsError(h Holder) error {
	if slot, ok := h.(Slot); ok {
		return diagnostics.New(diagnostics.ErrOutOfBounds, "index %d is outside %s", slot.Index, slot.Region)
	}
	return diagnostics.New(diagnostics.ErrOutOfBounds, "access outside of a memory region")
}

func newVariable(t Type, st State, r Raw, h Holder) *Variable {
	return &Variable{Type: t, v: &Value{State: st, Raw: r, Holder: h}}
}

// Temp creates an initialized temporary.
func Temp(t Type, r Raw) *Variable { return newVariable(t, Init, r, nil) }

// Declare creates a self-owned, uninitialized variable.
func Declare(t Type) *Variable { return newVariable(t, Uninit, nil, Self{}) }

// NewLocal creates a self-owned, initialized variable.
func NewLocal(t Type, r Raw) *Variable { return newVariable(t, Init, r, Self{}) }

// AsLocal rebinds a temporary's storage as a self-owned slot.
func AsLocal(v *Variable) *Variable {
	if v.v.Holder == nil {
		v.v.Holder = Self{}
	}
	return v
}

func NewInt(k ArithKind, n int64) *Variable {
	return Temp(Arith(k), Int{V: Normalize(k, big.NewInt(n))})
}

func NewUint(k ArithKind, n uint64) *Variable {
	return Temp(Arith(k), Int{V: Normalize(k, new(big.Int).SetUint64(n))})
}

// NewBig wraps n into k's range.
func NewBig(k ArithKind, n *big.Int) *Variable {
	return Temp(Arith(k), Int{V: Normalize(k, n)})
}

func NewBool(b bool) *Variable {
	if b {
		return NewInt(Bool, 1)
	}
	return NewInt(Bool, 0)
}

func NewFloat(k ArithKind, f float64) *Variable {
	if k == F32 {
		f = float64(float32(f))
	}
	return Temp(Arith(k), Float{V: f})
}

// NewNull creates a null pointer of the given pointee type.
func NewNull(elem Type) *Variable {
	return Temp(PointerTo(elem), Ptr{Kind: Direct})
}

// NewFunction creates a function designator.
func NewFunction(t *Function, name, domain string, ref interface{}) *Variable {
	return Temp(t, Func{Name: name, Domain: domain, Ref: ref})
}

// NewList creates a brace-list prototype from its element values.
func NewList(items ...*Variable) *Variable {
	elems := make([]Type, len(items))
	for i, it := range items {
		elems[i] = it.Type
	}
	return Temp(&List{Elems: elems}, Elems{Items: items})
}

// Zero returns the zero payload for arithmetic and pointer types.
func Zero(t Type) (Raw, bool) {
	switch tt := t.(type) {
	case *Arithmetic:
		if tt.Kind.Float() {
			return Float{V: 0}, true
		}
		return Int{V: new(big.Int)}, true
	case *Pointer:
		if !tt.Fixed {
			return Ptr{Kind: Direct}, true
		}
	}
	return nil, false
}

// IntValue reads an integral variable.
func IntValue(v *Variable) (*big.Int, error) {
	r, err := v.Get()
	if err != nil {
		return nil, err
	}
	i, ok := r.(Int)
	if !ok {
		return nil, diagnostics.New(diagnostics.ErrTypeMismatch, "%s is not an integer", v.Type)
	}
	return i.V, nil
}

// FloatValue reads any arithmetic variable as a float64.
func FloatValue(v *Variable) (float64, error) {
	r, err := v.Get()
	if err != nil {
		return 0, err
	}
	switch x := r.(type) {
	case Float:
		return x.V, nil
	case Int:
		f, _ := new(big.Float).SetInt(x.V).Float64()
		return f, nil
	}
	return 0, diagnostics.New(diagnostics.ErrTypeMismatch, "%s is not arithmetic", v.Type)
}
