package field

import "testing"

func TestEqualTreatsNaNAsUnequal(t *testing.T) {
	nan := NewFloat(float32(nanValue()))
	if nan.Equal(nan) {
		t.Fatal("expected NaN != NaN under Equal")
	}
	if !nan.SortEqual(nan) {
		t.Fatal("expected NaN == NaN under SortEqual")
	}
}

func TestCompareOrdersKindsThenValues(t *testing.T) {
	if !NewNull().Less(NewBool(false)) {
		t.Fatal("expected Null < Boolean")
	}
	if !NewBool(true).Less(NewInt(0)) {
		t.Fatal("expected Boolean < Integer")
	}
	if !NewInt(5).Less(NewFloat(0)) {
		t.Fatal("expected Integer < Float")
	}
	if !NewFloat(0).Less(NewString("")) {
		t.Fatal("expected Float < String")
	}
	if !NewInt(1).Less(NewInt(2)) {
		t.Fatal("expected 1 < 2")
	}
}

func TestCompareNaNSortsAsGreatestFloat(t *testing.T) {
	nan := NewFloat(float32(nanValue()))
	if !NewFloat(100).Less(nan) {
		t.Fatal("expected any ordinary float to sort before NaN")
	}
}

func TestAddPromotesIntAndFloatToFloat(t *testing.T) {
	v, err := NewInt(2).Add(NewFloat(1.5))
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if v.Kind != Float || v.F != 3.5 {
		t.Fatalf("got %v, want Float(3.5)", v)
	}
}

func TestAddNullPropagates(t *testing.T) {
	v, err := NewNull().Add(NewInt(2))
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if !v.IsNull() {
		t.Fatalf("got %v, want Null", v)
	}
}

func TestAddIntOverflowErrors(t *testing.T) {
	_, err := NewInt(2147483647).Add(NewInt(1))
	if err == nil {
		t.Fatal("expected overflow error")
	}
}

func TestDivByZeroErrors(t *testing.T) {
	if _, err := NewInt(1).Div(NewInt(0)); err == nil {
		t.Fatal("expected division-by-zero error for int")
	}
	if _, err := NewFloat(1).Div(NewFloat(0)); err == nil {
		t.Fatal("expected division-by-zero error for float")
	}
}

func TestDivExactIntegerStaysInteger(t *testing.T) {
	v, err := NewInt(10).Div(NewInt(2))
	if err != nil {
		t.Fatalf("Div: %v", err)
	}
	if v.Kind != Integer || v.I != 5 {
		t.Fatalf("got %v, want Integer(5)", v)
	}
}

func TestDivInexactIntegerPromotesToFloat(t *testing.T) {
	v, err := NewInt(7).Div(NewInt(2))
	if err != nil {
		t.Fatalf("Div: %v", err)
	}
	if v.Kind != Float {
		t.Fatalf("got %v, want Float", v)
	}
}

func TestMismatchedKindArithmeticErrors(t *testing.T) {
	if _, err := NewBool(true).Add(NewInt(1)); err == nil {
		t.Fatal("expected error adding Boolean and Integer")
	}
}

func nanValue() float64 {
	var zero float64
	return zero / zero
}
