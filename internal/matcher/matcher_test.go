package matcher

import (
	"reflect"
	"strings"
	"testing"

	"github.com/funvibe/cppi/internal/diagnostics"
	"github.com/funvibe/cppi/internal/signature"
	"github.com/funvibe/cppi/internal/value"
)

type fakeCtor struct{ sig *signature.Signature }

func (c fakeCtor) Signature() *signature.Signature { return c.sig }

type fakeShape []value.Type

func (s fakeShape) Fields(*value.Class) ([]value.Type, bool) { return s, true }

type fakeEnv struct {
	ctors  map[string][]Candidate
	shapes map[string][]Shape
}

func (e *fakeEnv) Constructors(dst *value.Class) []Candidate { return e.ctors[dst.Domain()] }
func (e *fakeEnv) Shapes(dst *value.Class) []Shape         { return e.shapes[dst.Domain()] }

func decl(t *testing.T, src string) *signature.Signature {
	t.Helper()
	sig, err := signature.Default().CompileString(src, signature.Function, true)
	if err != nil {
		t.Fatalf("compile %q: %v", src, err)
	}
	return sig
}

func call(t *testing.T, args ...signature.Arg) *signature.Signature {
	t.Helper()
	sig, err := signature.Default().Compile(signature.CallTokens(args), signature.Function, false)
	if err != nil {
		t.Fatalf("compile call: %v", err)
	}
	return sig
}

func val(t value.Type) signature.Arg { return signature.Arg{Type: t} }
func mut(t value.Type) signature.Arg { return signature.Arg{Type: t, Ref: signature.RefMutable} }
func cst(t value.Type) signature.Arg { return signature.Arg{Type: t, Ref: signature.RefConst} }

var (
	i32 = value.Arith(value.I32)
	i64 = value.Arith(value.I64)
	f64 = value.Arith(value.F64)
	u8  = value.Arith(value.U8)
)

func kinds(res *Result) []Kind {
	out := make([]Kind, len(res.Actions))
	for i, a := range res.Actions {
		out[i] = a.Kind
	}
	return out
}

func newMatcher(env Env, order ...Strategy) *Matcher {
	if env == nil {
		return New(signature.Default(), nil, Options{Order: order})
	}
	return New(signature.Default(), env, Options{Order: order})
}

func TestArithmeticWildcardPromotes(t *testing.T) {
	m := newMatcher(nil)
	add := decl(t, "!Arithmetic FUNCTION ?0 ( ?0 ?0 )")

	res, err := m.Admits(call(t, val(i32), val(f64)), add)
	if err != nil || res == nil {
		t.Fatalf("add(int, double) rejected: %v", err)
	}
	if got := res.Actions[0]; got.Kind != Cast || got.Strategy != Numeric || !got.Target.Equal(f64) {
		t.Errorf("first argument: %s, want numeric cast to double", got)
	}
	if res.Actions[1].Kind != Clone {
		t.Errorf("second argument: %s, want clone", res.Actions[1])
	}
	if strings.Join(res.Return, " ") != "F64" {
		t.Errorf("Return = %v", res.Return)
	}

	b := value.Arith(value.Bool)
	i8, i16 := value.Arith(value.I8), value.Arith(value.I16)
	tests := []struct {
		name  string
		args  []signature.Arg
		want  string
		casts int
	}{
		{"int, int", []signature.Arg{val(i32), val(i32)}, "I32", 0},
		{"long, long", []signature.Arg{val(i64), val(i64)}, "I64", 0},
		{"u8, u8", []signature.Arg{val(u8), val(u8)}, "I32", 2},
		{"i8, i8", []signature.Arg{val(i8), val(i8)}, "I32", 2},
		{"i8, i16", []signature.Arg{val(i8), val(i16)}, "I32", 2},
		{"bool, bool", []signature.Arg{val(b), val(b)}, "I32", 2},
		{"u8, long", []signature.Arg{val(u8), val(i64)}, "I64", 1},
	}
	for _, tt := range tests {
		res, err := m.Admits(call(t, tt.args...), add)
		if err != nil || res == nil {
			t.Errorf("%s: rejected: %v", tt.name, err)
			continue
		}
		if got := strings.Join(res.Bindings[0], " "); got != tt.want || res.Casts() != tt.casts {
			t.Errorf("%s: bound %s with %d casts, want %s with %d", tt.name, got, res.Casts(), tt.want, tt.casts)
		}
		if got := strings.Join(res.Return, " "); got != tt.want {
			t.Errorf("%s: Return = %s, want %s", tt.name, got, tt.want)
		}
	}

	neg := decl(t, "!Arithmetic FUNCTION ?0 ( ?0 )")
	res, err = m.Admits(call(t, val(u8)), neg)
	if err != nil || res == nil {
		t.Fatalf("neg(u8) rejected: %v", err)
	}
	if a := res.Actions[0]; a.Kind != Cast || !a.Target.Equal(i32) {
		t.Errorf("single operand: %s, want cast to int", a)
	}
}

func TestPromotionKeepsStrictBinding(t *testing.T) {
	m := newMatcher(nil)
	res, err := m.Admits(call(t, mut(i32), val(f64)), decl(t, "!Arithmetic FUNCTION VOID ( LREF ?0 ?0 )"))
	if err != nil || res == nil {
		t.Fatalf("rejected: %v", err)
	}
	if res.Actions[0].Kind != Borrow {
		t.Errorf("reference argument: %s", res.Actions[0])
	}
	if a := res.Actions[1]; a.Kind != Cast || !a.Target.Equal(i32) {
		t.Errorf("value argument: %s, want cast to int32_t", a)
	}
}

func TestMutableReference(t *testing.T) {
	m := newMatcher(nil)
	sup := decl(t, "FUNCTION VOID ( LREF I32 )")
	tests := []struct {
		name string
		arg  signature.Arg
		want bool
	}{
		{"mutable lvalue", mut(i32), true},
		{"temporary", val(i32), false},
		{"const lvalue", cst(i32), false},
		{"other kind", mut(i64), false},
	}
	for _, tt := range tests {
		res, err := m.Admits(call(t, tt.arg), sup)
		if err != nil {
			t.Fatal(err)
		}
		if (res != nil) != tt.want {
			t.Errorf("%s: admitted = %v, want %v", tt.name, res != nil, tt.want)
		}
		if res != nil && res.Actions[0].Kind != Borrow {
			t.Errorf("%s: action %s", tt.name, res.Actions[0])
		}
	}
}

func TestConstReference(t *testing.T) {
	m := newMatcher(nil)
	sup := decl(t, "FUNCTION VOID ( CLREF I32 )")
	for _, arg := range []signature.Arg{val(i32), mut(i32), cst(i32)} {
		res, _ := m.Admits(call(t, arg), sup)
		if res == nil || res.Actions[0].Kind != Borrow {
			t.Errorf("ref %d: want borrow, got %+v", arg.Ref, res)
		}
	}
	res, _ := m.Admits(call(t, val(f64)), sup)
	if res == nil || res.Actions[0].Strategy != Numeric {
		t.Errorf("double into const int&: got %+v", res)
	}
}

func TestValueParameterClones(t *testing.T) {
	m := newMatcher(nil)
	res, _ := m.Admits(call(t, mut(value.ArrayOf(i32, 3)), cst(i32)), decl(t, "FUNCTION VOID ( ARRAY 3 I32 I32 )"))
	if res == nil || !reflect.DeepEqual(kinds(res), []Kind{Clone, Clone}) {
		t.Errorf("got %+v", res)
	}
}

func TestWildcardConsistency(t *testing.T) {
	m := newMatcher(nil)
	sup := decl(t, "!Object FUNCTION VOID ( PTR ?0 PTR ?0 )")
	if res, _ := m.Admits(call(t, val(value.PointerTo(i32)), val(value.PointerTo(f64))), sup); res != nil {
		t.Errorf("int* and double* must not bind the same wildcard: %+v", res)
	}
	res, _ := m.Admits(call(t, val(value.PointerTo(i32)), mut(value.PointerTo(i32))), sup)
	if res == nil || strings.Join(res.Bindings[0], " ") != "I32" {
		t.Errorf("got %+v", res)
	}

	pair := decl(t, "!Type FUNCTION VOID ( CLASS pair < ?0 ?0 > )")
	if res, _ := m.Admits(call(t, val(value.ClassOf("pair", i32, u8))), pair); res != nil {
		t.Errorf("pair<int, uint8_t> admitted by pair<T, T>")
	}
}

func TestArgumentCount(t *testing.T) {
	m := newMatcher(nil)
	if res, _ := m.Admits(call(t, val(i32)), decl(t, "FUNCTION VOID ( I32 I32 )")); res != nil {
		t.Errorf("argument count mismatch admitted")
	}
}

func TestDeterminism(t *testing.T) {
	m := newMatcher(nil)
	sup := decl(t, "!Arithmetic !Object FUNCTION ?0 ( ?0 PTR ?1 ?0 ?1 )")
	c := call(t, val(i32), val(value.PointerTo(u8)), mut(i64), val(u8))
	first, err := m.Admits(c, sup)
	if err != nil || first == nil {
		t.Fatalf("rejected: %v", err)
	}
	for i := 0; i < 10; i++ {
		again, _ := m.Admits(c, sup)
		if !reflect.DeepEqual(first, again) {
			t.Fatalf("run %d differs: %+v vs %+v", i, first, again)
		}
	}
}

func TestDecay(t *testing.T) {
	m := newMatcher(nil)
	fn := &value.Function{Signature: strings.Fields("FUNCTION VOID ( )")}
	res, _ := m.Admits(call(t, val(fn)), decl(t, "FUNCTION VOID ( PTR FUNCTION VOID ( ) )"))
	if res == nil || res.Actions[0].Strategy != Decay {
		t.Errorf("function to pointer: %+v", res)
	}
	res, _ = m.Admits(call(t, val(fn)), decl(t, "FUNCTION VOID ( FUNCTION VOID ( ) )"))
	if res == nil || res.Actions[0].Kind != Borrow {
		t.Errorf("function designator into function parameter: %+v", res)
	}
	res, _ = m.Admits(call(t, mut(value.ArrayOf(i32, 4))), decl(t, "FUNCTION VOID ( PTR I32 )"))
	if res == nil || res.Actions[0].Strategy != Decay {
		t.Errorf("array to pointer: %+v", res)
	}
}

func TestConstructorConversion(t *testing.T) {
	big := value.ClassOf("big")
	env := &fakeEnv{ctors: map[string][]Candidate{
		"big":     {fakeCtor{decl(t, "FUNCTION CLASS big < > ( I64 )")}},
		"wrapper": {fakeCtor{decl(t, "FUNCTION CLASS wrapper < > ( CLASS big < > )")}},
	}}
	m := newMatcher(env)

	res, err := m.Admits(call(t, val(i32)), decl(t, "FUNCTION VOID ( CLASS big < > )"))
	if err != nil || res == nil {
		t.Fatalf("int into big rejected: %v", err)
	}
	a := res.Actions[0]
	if a.Kind != Cast || a.Strategy != Constructor || !a.Target.Equal(big) {
		t.Fatalf("action %s", a)
	}
	if a.Nested == nil || a.Nested.Actions[0].Strategy != Numeric {
		t.Errorf("nested constructor call must widen int to int64_t: %+v", a.Nested)
	}

	if res, _ := m.Admits(call(t, val(i32)), decl(t, "FUNCTION VOID ( CLASS wrapper < > )")); res != nil {
		t.Errorf("two user conversions chained: %+v", res)
	}
	if res, _ := m.Admits(call(t, val(big)), decl(t, "FUNCTION VOID ( CLASS wrapper < > )")); res == nil {
		t.Errorf("big into wrapper rejected")
	}
}

func TestConstructorFromArithmetic(t *testing.T) {
	big := value.ClassOf("big")
	env := &fakeEnv{ctors: map[string][]Candidate{
		"big": {fakeCtor{decl(t, "!Arithmetic FUNCTION CLASS big < > ( ?0 )")}},
	}}
	m := newMatcher(env)
	sup := decl(t, "FUNCTION VOID ( CLASS big < > )")
	tests := []struct {
		name string
		arg  signature.Arg
		want value.Type
		cast bool
	}{
		{"int", val(i32), i32, false},
		{"int64_t", cst(i64), i64, false},
		{"double", val(f64), f64, false},
		{"uint8_t", val(u8), i32, true},
	}
	for _, tt := range tests {
		res, err := m.Admits(call(t, tt.arg), sup)
		if err != nil || res == nil {
			t.Errorf("%s into big rejected: %v", tt.name, err)
			continue
		}
		a := res.Actions[0]
		if a.Strategy != Constructor || !a.Target.Equal(big) {
			t.Errorf("%s: action %s", tt.name, a)
			continue
		}
		bound := strings.Join(a.Nested.Bindings[0], " ")
		if bound != signature.TypeTokens(tt.want)[0] || (a.Nested.Casts() > 0) != tt.cast {
			t.Errorf("%s: constructor bound %s with %d casts", tt.name, bound, a.Nested.Casts())
		}
	}
	if res, _ := m.Admits(call(t, val(value.PointerTo(i32))), sup); res != nil {
		t.Errorf("pointer into big admitted: %+v", res)
	}
}

func TestNestedClassConstructor(t *testing.T) {
	env := &fakeEnv{ctors: map[string][]Candidate{
		"Outer.Inner": {fakeCtor{decl(t, "FUNCTION CLASS Inner < > IN CLASS Outer < > ( I64 )")}},
		"box.iter":    {fakeCtor{decl(t, "!Object FUNCTION CLASS iter < > IN CLASS box < ?0 > ( ?0 )")}},
	}}
	m := newMatcher(env)
	res, err := m.Admits(call(t, val(i64)), decl(t, "FUNCTION VOID ( CLASS Inner < > IN CLASS Outer < > )"))
	if err != nil || res == nil || res.Actions[0].Strategy != Constructor {
		t.Fatalf("concrete nested constructor unused: %+v %v", res, err)
	}
	res, err = m.Admits(call(t, val(i32)), decl(t, "FUNCTION VOID ( CLASS iter < > IN CLASS box < F64 > )"))
	if err != nil || res == nil {
		t.Fatalf("generic nested constructor unused: %v", err)
	}
	if n := res.Actions[0].Nested; n.Actions[0].Strategy != Numeric || !n.Actions[0].Target.Equal(f64) {
		t.Errorf("nested action %s, want a cast to double", n.Actions[0])
	}
}

func TestTemplateConstructorBindsFromDestination(t *testing.T) {
	env := &fakeEnv{ctors: map[string][]Candidate{
		"box": {fakeCtor{decl(t, "!Object FUNCTION CLASS box < ?0 > ( ?0 )")}},
	}}
	m := newMatcher(env)
	res, _ := m.Admits(call(t, val(u8)), decl(t, "FUNCTION VOID ( CLASS box < F64 > )"))
	if res == nil || res.Actions[0].Strategy != Constructor {
		t.Fatalf("uint8_t into box<double>: %+v", res)
	}
	if n := res.Actions[0].Nested; n.Actions[0].Strategy != Numeric || !n.Actions[0].Target.Equal(f64) {
		t.Errorf("nested action %s", n.Actions[0])
	}
}

func TestBraceListIntoInitializerList(t *testing.T) {
	m := newMatcher(nil)
	list := &value.List{Elems: []value.Type{i32, f64}}
	res, _ := m.Admits(call(t, val(list)), decl(t, "FUNCTION VOID ( CLASS initializer_list < I32 > )"))
	if res == nil {
		t.Fatal("rejected")
	}
	a := res.Actions[0]
	if a.Strategy != BraceList || len(a.Elements) != 2 {
		t.Fatalf("action %s", a)
	}
	if a.Elements[0].Kind != Clone || a.Elements[1].Strategy != Numeric {
		t.Errorf("elements %v", a.Elements)
	}
	bad := &value.List{Elems: []value.Type{value.PointerTo(i32)}}
	if res, _ := m.Admits(call(t, val(bad)), decl(t, "FUNCTION VOID ( CLASS initializer_list < I32 > )")); res != nil {
		t.Errorf("pointer element admitted into initializer_list<int>")
	}
}

func TestCastOrderIsPolicy(t *testing.T) {
	env := &fakeEnv{
		ctors:  map[string][]Candidate{"bag": {fakeCtor{decl(t, "FUNCTION CLASS bag < > ( CLASS initializer_list < I32 > )")}}},
		shapes: map[string][]Shape{"bag": {fakeShape{i32, i32}}},
	}
	c := call(t, val(&value.List{Elems: []value.Type{i32, i32}}))
	sup := decl(t, "FUNCTION VOID ( CLASS bag < > )")

	res, _ := newMatcher(env).Admits(c, sup)
	if res == nil || res.Actions[0].Strategy != Constructor {
		t.Errorf("default order: %+v", res)
	}
	res, _ = newMatcher(env, BraceList, Constructor, Numeric, Decay).Admits(c, sup)
	if res == nil || res.Actions[0].Strategy != BraceList || res.Actions[0].Shape == nil {
		t.Errorf("brace_list first: %+v", res)
	}
}

func TestExplicitArguments(t *testing.T) {
	m := newMatcher(nil)
	sup := decl(t, "!Type FUNCTION CLASS vec < ?0 > ( )")
	res, _ := m.Admits(call(t), sup, []string{"I32"})
	if res == nil || strings.Join(res.Return, " ") != "CLASS vec < I32 >" {
		t.Errorf("got %+v", res)
	}
	if res, _ := m.Admits(call(t), decl(t, "!Arithmetic FUNCTION ?0 ( )"), []string{"PTR", "I32"}); res != nil {
		t.Errorf("explicit argument of the wrong kind admitted")
	}
	if res, _ := m.Admits(call(t), sup, []string{"I32"}, []string{"I8"}); res != nil {
		t.Errorf("too many explicit arguments admitted")
	}
}

func TestStructuralMatch(t *testing.T) {
	m := newMatcher(nil)
	g := signature.Default()
	sup, err := g.CompileString("!Type !Type CLASS pair < ?0 ?1 >", signature.Type, true)
	if err != nil {
		t.Fatal(err)
	}
	sub, err := g.CompileString("CLASS pair < I32 PTR F64 >", signature.Type, true)
	if err != nil {
		t.Fatal(err)
	}
	res, err := m.Admits(sub, sup)
	if err != nil || res == nil {
		t.Fatalf("rejected: %v", err)
	}
	if strings.Join(res.Bindings[1], " ") != "PTR F64" {
		t.Errorf("Bindings = %v", res.Bindings)
	}
}

func TestGenericCaller(t *testing.T) {
	m := newMatcher(nil)
	narrow := decl(t, "!Arithmetic FUNCTION VOID ( ?0 )")
	wide := decl(t, "!Object FUNCTION VOID ( ?0 )")
	if res, err := m.Admits(narrow, wide); err != nil || res == nil {
		t.Errorf("Object admits Arithmetic: %v", err)
	}
	if res, err := m.Admits(wide, narrow); err != nil || res != nil {
		t.Errorf("Arithmetic must not admit Object: %+v %v", res, err)
	}

	sub := decl(t, "!Arithmetic FUNCTION VOID ( ?0 ?0 )")
	sup := decl(t, "!Object FUNCTION VOID ( ?0 CLASS box < ?0 > )")
	if _, err := m.Admits(sub, sup); !diagnostics.IsCode(err, diagnostics.ErrUnresolvedWildcard) {
		t.Errorf("got %v, want %s", err, diagnostics.ErrUnresolvedWildcard.Code)
	}
}

func TestParseCastOrder(t *testing.T) {
	got, err := ParseCastOrder([]string{"brace_list", "decay", "numeric", "constructor"})
	if err != nil {
		t.Fatal(err)
	}
	if want := []Strategy{BraceList, Decay, Numeric, Constructor}; !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
	if _, err := ParseCastOrder([]string{"magic"}); err == nil {
		t.Errorf("unknown strategy accepted")
	}
	if d := DefaultOrder(); d[0] != Decay || d[3] != BraceList {
		t.Errorf("DefaultOrder = %v", d)
	}
}
