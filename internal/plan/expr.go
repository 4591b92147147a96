// Package plan implements the expression tree and plan node variants of
// spec §4.H: expressions evaluate against an optional current row and
// return a Field, and a tree of Node variants describes a query; execution
// lives in internal/exec.
//
// Grounded on original_source/src/sql/planner/node.rs for the Node variant
// set and its columns()/column_label() contracts, and on the teacher's
// Expr interface + evalExpr type switch
// (_examples/SimonWaldherr-tinySQL/internal/engine/exec.go) for the
// interface-plus-type-switch shape of expression evaluation, adapted down
// to the operator set spec §4.H actually calls for.
package plan

import (
	"fmt"

	"github.com/sjwhitworth/goheap/internal/dberr"
	"github.com/sjwhitworth/goheap/internal/field"
	"github.com/sjwhitworth/goheap/internal/row"
)

// Expr evaluates against an optional current row and returns a Field. r may
// be nil for expressions with no column references (e.g. a Values row).
type Expr interface {
	Eval(r row.Row) (field.Field, error)
}

// Constant is a literal Field value.
type Constant struct {
	Value field.Field
}

func (c Constant) Eval(row.Row) (field.Field, error) { return c.Value, nil }

// ColumnRef references the i-th column of the current row.
type ColumnRef struct {
	Index int
}

func (c ColumnRef) Eval(r row.Row) (field.Field, error) {
	if r == nil || c.Index < 0 || c.Index >= len(r) {
		return field.Field{}, fmt.Errorf("plan: column reference %d out of range: %w", c.Index, dberr.OutOfBounds)
	}
	return r[c.Index], nil
}

// boolOperand evaluates e and requires a Boolean or Null result, treating
// Null as false per spec §4.H's Scan/Filter predicate semantics.
func boolOperand(e Expr, r row.Row) (bool, error) {
	v, err := e.Eval(r)
	if err != nil {
		return false, err
	}
	if v.IsNull() {
		return false, nil
	}
	if v.Kind != field.Boolean {
		return false, fmt.Errorf("plan: expected boolean expression, got %s: %w", v.Kind, dberr.InvalidInput)
	}
	return v.B, nil
}

// And is true iff both operands are true.
type And struct{ Left, Right Expr }

func (e And) Eval(r row.Row) (field.Field, error) {
	l, err := boolOperand(e.Left, r)
	if err != nil {
		return field.Field{}, err
	}
	if !l {
		return field.NewBool(false), nil
	}
	rv, err := boolOperand(e.Right, r)
	if err != nil {
		return field.Field{}, err
	}
	return field.NewBool(rv), nil
}

// Or is true iff either operand is true.
type Or struct{ Left, Right Expr }

func (e Or) Eval(r row.Row) (field.Field, error) {
	l, err := boolOperand(e.Left, r)
	if err != nil {
		return field.Field{}, err
	}
	if l {
		return field.NewBool(true), nil
	}
	rv, err := boolOperand(e.Right, r)
	if err != nil {
		return field.Field{}, err
	}
	return field.NewBool(rv), nil
}

// Not negates its operand.
type Not struct{ Operand Expr }

func (e Not) Eval(r row.Row) (field.Field, error) {
	v, err := boolOperand(e.Operand, r)
	if err != nil {
		return field.Field{}, err
	}
	return field.NewBool(!v), nil
}

// IsNull tests whether Operand evaluates to Null.
type IsNull struct{ Operand Expr }

func (e IsNull) Eval(r row.Row) (field.Field, error) {
	v, err := e.Operand.Eval(r)
	if err != nil {
		return field.Field{}, err
	}
	return field.NewBool(v.IsNull()), nil
}

// CompareOp is a comparison operator kind.
type CompareOp int

const (
	Eq CompareOp = iota
	Ne
	Lt
	Le
	Gt
	Ge
)

// Compare evaluates Left Op Right using Field's total order. A Null operand
// on either side makes the comparison Null (three-valued logic) for every
// operator, Eq and Ne included; non-Null operands are ordered by
// Field.Compare.
type Compare struct {
	Op          CompareOp
	Left, Right Expr
}

func (e Compare) Eval(r row.Row) (field.Field, error) {
	l, err := e.Left.Eval(r)
	if err != nil {
		return field.Field{}, err
	}
	rv, err := e.Right.Eval(r)
	if err != nil {
		return field.Field{}, err
	}
	if l.IsNull() || rv.IsNull() {
		return field.NewNull(), nil
	}
	c := l.Compare(rv)
	var result bool
	switch e.Op {
	case Eq:
		result = c == 0
	case Ne:
		result = c != 0
	case Lt:
		result = c < 0
	case Le:
		result = c <= 0
	case Gt:
		result = c > 0
	case Ge:
		result = c >= 0
	default:
		return field.Field{}, fmt.Errorf("plan: unknown comparison operator %d: %w", e.Op, dberr.InvalidInput)
	}
	return field.NewBool(result), nil
}

// ArithOp is an arithmetic operator kind.
type ArithOp int

const (
	OpAdd ArithOp = iota
	OpSub
	OpMul
	OpDiv
)

// Arith evaluates Left Op Right using Field's checked arithmetic.
type Arith struct {
	Op          ArithOp
	Left, Right Expr
}

func (e Arith) Eval(r row.Row) (field.Field, error) {
	l, err := e.Left.Eval(r)
	if err != nil {
		return field.Field{}, err
	}
	rv, err := e.Right.Eval(r)
	if err != nil {
		return field.Field{}, err
	}
	switch e.Op {
	case OpAdd:
		return l.Add(rv)
	case OpSub:
		return l.Sub(rv)
	case OpMul:
		return l.Mul(rv)
	case OpDiv:
		return l.Div(rv)
	default:
		return field.Field{}, fmt.Errorf("plan: unknown arithmetic operator %d: %w", e.Op, dberr.InvalidInput)
	}
}
