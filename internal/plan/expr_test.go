package plan

import (
	"testing"

	"github.com/sjwhitworth/goheap/internal/field"
	"github.com/sjwhitworth/goheap/internal/row"
)

func TestCompareNullIsNullNotFalse(t *testing.T) {
	e := Compare{Op: Eq, Left: Constant{field.NewNull()}, Right: Constant{field.NewInt(1)}}
	v, err := e.Eval(nil)
	if err != nil {
		t.Fatalf("Eval: %v", err)
	}
	if !v.IsNull() {
		t.Fatalf("expected Null, got %v", v)
	}
}

func TestAndShortCircuitsOnFalse(t *testing.T) {
	e := And{Left: Constant{field.NewBool(false)}, Right: Constant{field.NewInt(1)}}
	v, err := e.Eval(nil)
	if err != nil {
		t.Fatalf("Eval: %v", err)
	}
	if v.B {
		t.Fatal("expected false")
	}
}

func TestColumnRefOutOfRange(t *testing.T) {
	e := ColumnRef{Index: 5}
	if _, err := e.Eval(row.Row{field.NewInt(1)}); err == nil {
		t.Fatal("expected out-of-range error")
	}
}

func TestArithDivByZeroErrors(t *testing.T) {
	e := Arith{Op: OpDiv, Left: Constant{field.NewInt(1)}, Right: Constant{field.NewInt(0)}}
	if _, err := e.Eval(nil); err == nil {
		t.Fatal("expected division-by-zero error")
	}
}

func TestAndOnNonBooleanOperandErrors(t *testing.T) {
	e := And{Left: Constant{field.NewInt(1)}, Right: Constant{field.NewBool(true)}}
	if _, err := e.Eval(nil); err == nil {
		t.Fatal("expected type error for non-boolean operand")
	}
}

func TestRemapColumnsUsesHighestTarget(t *testing.T) {
	r := Remap{Targets: []int{2, -1, 0}}
	if got := r.Columns(); got != 3 {
		t.Fatalf("got %d, want 3", got)
	}
}

func TestNestedLoopJoinColumnsSumsBothSides(t *testing.T) {
	j := NestedLoopJoin{Left: Scan{Arity: 2}, Right: Scan{Arity: 3}}
	if got := j.Columns(); got != 5 {
		t.Fatalf("got %d, want 5", got)
	}
}

func TestValuesColumnsMatchesRowWidth(t *testing.T) {
	v := Values{Rows: [][]Expr{{Constant{field.NewInt(1)}, Constant{field.NewInt(2)}}}}
	if got := v.Columns(); got != 2 {
		t.Fatalf("got %d, want 2", got)
	}
}
