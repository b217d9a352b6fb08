package value

import (
	"log/slog"
	"math"
	"math/big"

	"github.com/funvibe/cppi/internal/config"
	"github.com/funvibe/cppi/internal/diagnostics"
)

// Normalize wraps n into the range of kind k using two's complement.
// Bool normalizes to 0 or 1. Normalizing an in-range value is a no-op.
func Normalize(k ArithKind, n *big.Int) *big.Int {
	if k == Bool {
		if n.Sign() != 0 {
			return big.NewInt(1)
		}
		return new(big.Int)
	}
	if InRange(k, n) {
		return new(big.Int).Set(n)
	}
	bits := k.Bits()
	modulus := new(big.Int).Lsh(big.NewInt(1), bits)
	r := new(big.Int).Mod(n, modulus)
	if k.Signed() {
		half := new(big.Int).Rsh(modulus, 1)
		if r.Cmp(half) >= 0 {
			r.Sub(r, modulus)
		}
	}
	return r
}

// Limits returns the smallest and largest value of an integral kind.
func Limits(k ArithKind) (min, max *big.Int) {
	if k == Bool {
		return new(big.Int), big.NewInt(1)
	}
	bits := k.Bits()
	if k.Signed() {
		max = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), bits-1), big.NewInt(1))
		min = new(big.Int).Neg(new(big.Int).Lsh(big.NewInt(1), bits-1))
		return min, max
	}
	return new(big.Int), new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), bits), big.NewInt(1))
}

func InRange(k ArithKind, n *big.Int) bool {
	min, max := Limits(k)
	return n.Cmp(min) >= 0 && n.Cmp(max) <= 0
}

// Promote returns the common kind of a binary arithmetic operation,
// following the usual arithmetic conversions.
func Promote(a, b ArithKind) ArithKind {
	if a.Float() || b.Float() {
		if a == F64 || b == F64 {
			return F64
		}
		return F32
	}
	a, b = promoteIntegral(a), promoteIntegral(b)
	if a == b {
		return a
	}
	if a.Signed() == b.Signed() {
		if a.Size() >= b.Size() {
			return a
		}
		return b
	}
	s, u := a, b
	if u.Signed() {
		s, u = b, a
	}
	if u.Size() >= s.Size() {
		return u
	}
	// The signed kind is wider and represents every unsigned value.
	return s
}

// promoteIntegral applies integer promotion: anything narrower than int
// becomes int.
func promoteIntegral(k ArithKind) ArithKind {
	if k.Size() < I32.Size() {
		return I32
	}
	return k
}

// Op is a binary arithmetic operator.
type Op int

const (
	OpAdd Op = iota
	OpSub
	OpMul
	OpDiv
	OpMod
)

func (op Op) String() string {
	return [...]string{"+", "-", "*", "/", "%"}[op]
}

// Calculator performs arithmetic under an overflow policy.
type Calculator struct {
	Policy config.OverflowPolicy
	Logger *slog.Logger
}

func (a *Calculator) logger() *slog.Logger {
	if a.Logger != nil {
		return a.Logger
	}
	return slog.Default()
}

// Fit brings an exact integer result into kind k. Signed overflow is always
// an error; unsigned overflow follows the policy.
func (a *Calculator) Fit(k ArithKind, n *big.Int) (*big.Int, error) {
	if InRange(k, n) {
		return n, nil
	}
	if k.Signed() {
		return nil, diagnostics.New(diagnostics.ErrSignedOverflow, "%s overflows %s", n, k)
	}
	switch a.Policy {
	case config.OverflowWarn:
		wrapped := Normalize(k, n)
		a.logger().Warn("unsigned overflow wrapped",
			slog.String("type", k.String()),
			slog.String("value", n.String()),
			slog.String("wrapped", wrapped.String()))
		return wrapped, nil
	case config.OverflowIgnore:
		return Normalize(k, n), nil
	}
	return nil, diagnostics.New(diagnostics.ErrUnsignedOverflow, "%s overflows %s", n, k)
}

// Binary applies op to operands of the same arithmetic kind. Callers are
// expected to have converted the operands already.
func (a *Calculator) Binary(op Op, x, y *Variable) (*Variable, error) {
	xt, ok := x.Type.(*Arithmetic)
	if !ok {
		return nil, diagnostics.New(diagnostics.ErrTypeMismatch, "%s is not arithmetic", x.Type)
	}
	if yt, ok := y.Type.(*Arithmetic); !ok || yt.Kind != xt.Kind {
		return nil, diagnostics.New(diagnostics.ErrTypeMismatch, "operands of %s differ: %s and %s", op, x.Type, y.Type)
	}
	k := xt.Kind

	if k.Float() {
		l, err := FloatValue(x)
		if err != nil {
			return nil, err
		}
		r, err := FloatValue(y)
		if err != nil {
			return nil, err
		}
		var res float64
		switch op {
		case OpAdd:
			res = l + r
		case OpSub:
			res = l - r
		case OpMul:
			res = l * r
		case OpDiv:
			res = l / r
		case OpMod:
			res = math.Mod(l, r)
		}
		return NewFloat(k, res), nil
	}

	l, err := IntValue(x)
	if err != nil {
		return nil, err
	}
	r, err := IntValue(y)
	if err != nil {
		return nil, err
	}
	// bool operands take part as int
	if k == Bool {
		k = I32
	}
	res := new(big.Int)
	switch op {
	case OpAdd:
		res.Add(l, r)
	case OpSub:
		res.Sub(l, r)
	case OpMul:
		res.Mul(l, r)
	case OpDiv, OpMod:
		if r.Sign() == 0 {
			return nil, diagnostics.New(diagnostics.ErrDivisionByZero, "%s %s 0", l, op)
		}
		// truncated division, as in C
		if op == OpDiv {
			res.Quo(l, r)
		} else {
			res.Rem(l, r)
		}
	}
	fitted, err := a.Fit(k, res)
	if err != nil {
		return nil, err
	}
	return Temp(Arith(k), Int{V: fitted}), nil
}

// Negate implements unary minus.
func (a *Calculator) Negate(x *Variable) (*Variable, error) {
	xt, ok := x.Type.(*Arithmetic)
	if !ok {
		return nil, diagnostics.New(diagnostics.ErrTypeMismatch, "%s is not arithmetic", x.Type)
	}
	if xt.Kind.Float() {
		f, err := FloatValue(x)
		if err != nil {
			return nil, err
		}
		return NewFloat(xt.Kind, -f), nil
	}
	n, err := IntValue(x)
	if err != nil {
		return nil, err
	}
	k := xt.Kind
	if k == Bool {
		k = I32
	}
	fitted, err := a.Fit(k, new(big.Int).Neg(n))
	if err != nil {
		return nil, err
	}
	return Temp(Arith(k), Int{V: fitted}), nil
}

// Convert performs a numeric conversion to kind k. Integer conversions are
// modular, float to integer truncates toward zero.
func Convert(v *Variable, k ArithKind) (*Variable, error) {
	raw, err := v.Get()
	if err != nil {
		return nil, err
	}
	switch r := raw.(type) {
	case Int:
		if k.Float() {
			f, _ := new(big.Float).SetInt(r.V).Float64()
			return NewFloat(k, f), nil
		}
		return NewBig(k, r.V), nil
	case Float:
		if k.Float() {
			return NewFloat(k, r.V), nil
		}
		if k == Bool {
			return NewBool(r.V != 0), nil
		}
		if math.IsNaN(r.V) || math.IsInf(r.V, 0) {
			return NewBig(k, new(big.Int)), nil
		}
		n, _ := big.NewFloat(math.Trunc(r.V)).Int(nil)
		return NewBig(k, n), nil
	}
	return nil, diagnostics.New(diagnostics.ErrTypeMismatch, "%s is not arithmetic", v.Type)
}
