package value

import (
	"math/big"
	"testing"

	"github.com/funvibe/cppi/internal/diagnostics"
)

func fillRegion(n int) *Region {
	r := NewRegion(Arith(I32), 0)
	for i := 0; i < n; i++ {
		r.Append(Int{V: big.NewInt(int64(i * 10))})
	}
	return r
}

func TestRegionCellsStartUninitialized(t *testing.T) {
	r := NewRegion(Arith(I32), 3)
	for i := 0; i < r.Len(); i++ {
		v := r.At(i)
		if v.State() != Uninit {
			t.Errorf("cell %d state = %s, want UNINIT", i, v.State())
		}
		if _, err := v.Get(); !diagnostics.IsCode(err, diagnostics.ErrUninitialized) {
			t.Errorf("cell %d read: got %v", i, err)
		}
	}
}

func TestOnePastTheEndPointer(t *testing.T) {
	r := fillRegion(3)

	p := IndexPointer(r, r.Len())
	end, err := Deref(p)
	if err != nil {
		t.Fatalf("dereferencing one-past-the-end must not fail eagerly: %v", err)
	}
	if end.State() != Unbound {
		t.Errorf("state = %s, want UNBOUND", end.State())
	}
	if _, err := end.Get(); !diagnostics.IsCode(err, diagnostics.ErrOutOfBounds) {
		t.Errorf("read through one-past-the-end: got %v", err)
	}
	if err := end.Assign(Int{V: big.NewInt(1)}); !diagnostics.IsCode(err, diagnostics.ErrOutOfBounds) {
		t.Errorf("write through one-past-the-end: got %v", err)
	}
}

func TestPointerArithmeticWalksOffTheEnd(t *testing.T) {
	arr := NewArray(Arith(I32), 2)
	p, err := Decay(arr)
	if err != nil {
		t.Fatal(err)
	}
	q, err := Offset(p, 5)
	if err != nil {
		t.Fatalf("Offset must not check bounds: %v", err)
	}
	back, err := Offset(q, -4)
	if err != nil {
		t.Fatal(err)
	}
	cell, err := Deref(back)
	if err != nil {
		t.Fatal(err)
	}
	if cell.State() == Unbound {
		t.Errorf("walking back into the region should give a bound cell")
	}
	d, err := Distance(q, p)
	if err != nil || d != 5 {
		t.Errorf("Distance = %d, %v; want 5", d, err)
	}
}

func TestIndexPointersAlias(t *testing.T) {
	r := fillRegion(3)
	a, _ := Deref(IndexPointer(r, 1))
	b, _ := Deref(IndexPointer(r, 1))

	if err := a.Assign(Int{V: big.NewInt(99)}); err != nil {
		t.Fatal(err)
	}
	n, err := IntValue(b)
	if err != nil {
		t.Fatal(err)
	}
	if n.Int64() != 99 {
		t.Errorf("aliased read = %s, want 99", n)
	}

	eq, _ := PointerEqual(IndexPointer(r, 1), IndexPointer(r, 1))
	if !eq {
		t.Errorf("pointers with the same region and index must be equal")
	}
	eq, _ = PointerEqual(IndexPointer(r, 1), IndexPointer(fillRegion(3), 1))
	if eq {
		t.Errorf("pointers into different regions must differ")
	}
}

func TestAddressOf(t *testing.T) {
	x := NewLocal(Arith(I32), Int{V: big.NewInt(1)})
	p, err := AddressOf(x)
	if err != nil {
		t.Fatal(err)
	}
	if p.Type.String() != "int32_t*" {
		t.Errorf("type = %s", p.Type)
	}
	q, _ := AddressOf(x)
	eq, _ := PointerEqual(p, q)
	if !eq {
		t.Errorf("&x == &x must hold")
	}
	y := NewLocal(Arith(I32), Int{V: big.NewInt(1)})
	r, _ := AddressOf(y)
	if eq, _ := PointerEqual(p, r); eq {
		t.Errorf("&x == &y must not hold")
	}

	target, err := Deref(p)
	if err != nil {
		t.Fatal(err)
	}
	if err := target.Assign(Int{V: big.NewInt(7)}); err != nil {
		t.Fatal(err)
	}
	if n, _ := IntValue(x); n.Int64() != 7 {
		t.Errorf("write through &x not visible in x: %s", n)
	}

	if _, err := AddressOf(NewInt(I32, 1)); !diagnostics.IsCode(err, diagnostics.ErrNotAnLvalue) {
		t.Errorf("&temporary: got %v", err)
	}

	cell := fillRegion(2).At(1)
	cp, _ := AddressOf(cell)
	if raw, _ := cp.Get(); raw.(Ptr).Kind != Index {
		t.Errorf("address of a region cell must be an index pointer")
	}
}

func TestNullPointer(t *testing.T) {
	null := NewNull(Arith(I32))
	if _, err := Deref(null); !diagnostics.IsCode(err, diagnostics.ErrNullPointer) {
		t.Errorf("deref null: got %v", err)
	}
	eq, _ := PointerEqual(null, NewNull(Arith(I32)))
	if !eq {
		t.Errorf("null pointers must compare equal")
	}
	if _, err := Offset(null, 1); !diagnostics.IsCode(err, diagnostics.ErrPointerArith) {
		t.Errorf("null + 1: got %v", err)
	}
}

func TestAssignRules(t *testing.T) {
	if err := NewInt(I32, 1).Assign(Int{V: big.NewInt(2)}); !diagnostics.IsCode(err, diagnostics.ErrNotAnLvalue) {
		t.Errorf("assign to temporary: got %v", err)
	}
	c := NewLocal(Arith(I32), Int{V: big.NewInt(1)})
	c.Const = true
	if err := c.Assign(Int{V: big.NewInt(2)}); !diagnostics.IsCode(err, diagnostics.ErrConstAssign) {
		t.Errorf("assign to const: got %v", err)
	}
	d := Declare(Arith(I32))
	if err := d.Assign(Int{V: big.NewInt(2)}); err != nil {
		t.Fatal(err)
	}
	if d.State() != Init {
		t.Errorf("state after assign = %s", d.State())
	}
}
