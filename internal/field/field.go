// Package field implements the tagged Field value of spec §3: Null,
// Boolean, Integer (32-bit), Float (32-bit), and String, with total
// ordering, equality, and checked arithmetic.
//
// Grounded on original_source/src/types/field.rs for the ordering and
// checked-arithmetic semantics, and on the teacher's tagged binary row
// encoding in
// _examples/SimonWaldherr-tinySQL/internal/storage/pager/row_codec.go for
// the wire-format idiom (a one-byte type tag followed by a fixed or
// length-prefixed payload).
package field

import (
	"fmt"
	"math"

	"golang.org/x/text/collate"

	"github.com/sjwhitworth/goheap/internal/dberr"
)

// Kind identifies which variant a Field holds.
type Kind uint8

const (
	Null Kind = iota
	Boolean
	Integer
	Float
	String
)

func (k Kind) String() string {
	switch k {
	case Null:
		return "NULL"
	case Boolean:
		return "BOOLEAN"
	case Integer:
		return "INTEGER"
	case Float:
		return "FLOAT"
	case String:
		return "STRING"
	default:
		return "UNKNOWN"
	}
}

// Field is a single typed, nullable value.
type Field struct {
	Kind Kind
	B    bool
	I    int32
	F    float32
	S    string
}

// stringCollator orders String fields: a deterministic, locale-stable
// comparator rather than a raw byte compare, matching the pack's posture
// that string ordering in a relational engine is a pluggable concern (see
// SPEC_FULL.md's DOMAIN STACK entry for golang.org/x/text/collate).
var stringCollator = collate.New(collateLanguage())

func NewNull() Field            { return Field{Kind: Null} }
func NewBool(b bool) Field      { return Field{Kind: Boolean, B: b} }
func NewInt(i int32) Field      { return Field{Kind: Integer, I: i} }
func NewFloat(f float32) Field  { return Field{Kind: Float, F: f} }
func NewString(s string) Field  { return Field{Kind: String, S: s} }

// IsNull reports whether f is the Null variant.
func (f Field) IsNull() bool { return f.Kind == Null }

// IsUndefined reports whether f is Null or a NaN Float; hash join drops
// join keys for which this is true.
func (f Field) IsUndefined() bool {
	return f.Kind == Null || (f.Kind == Float && math.IsNaN(float64(f.F)))
}

// String renders a human-readable form of f.
func (f Field) String() string {
	switch f.Kind {
	case Null:
		return "NULL"
	case Boolean:
		if f.B {
			return "true"
		}
		return "false"
	case Integer:
		return fmt.Sprintf("%d", f.I)
	case Float:
		return fmt.Sprintf("%v", f.F)
	case String:
		return f.S
	default:
		return "?"
	}
}

// Equal implements the spec's equality rule: NaN != NaN by value (IEEE
// semantics), Null == Null, otherwise same-kind same-value.
func (f Field) Equal(o Field) bool {
	if f.Kind != o.Kind {
		return false
	}
	switch f.Kind {
	case Null:
		return true
	case Boolean:
		return f.B == o.B
	case Integer:
		return f.I == o.I
	case Float:
		return f.F == o.F // NaN != NaN here, matching Rust's PartialEq derive... see SortEqual
	case String:
		return f.S == o.S
	default:
		return false
	}
}

// SortEqual treats NaN == NaN, matching the spec's "equal for sorting and
// hashing convenience" carve-out.
func (f Field) SortEqual(o Field) bool {
	if f.Kind == Float && o.Kind == Float {
		if math.IsNaN(float64(f.F)) && math.IsNaN(float64(o.F)) {
			return true
		}
	}
	return f.Equal(o)
}

func kindRank(k Kind) int {
	switch k {
	case Null:
		return 0
	case Boolean:
		return 1
	case Integer:
		return 2
	case Float:
		return 3
	case String:
		return 4
	default:
		return 5
	}
}

// Compare implements the spec's total order: Null < Bool < Int < Float <
// String, with NaN sorting as the greatest Float.
func (f Field) Compare(o Field) int {
	if f.Kind != o.Kind {
		return kindRank(f.Kind) - kindRank(o.Kind)
	}
	switch f.Kind {
	case Null:
		return 0
	case Boolean:
		if f.B == o.B {
			return 0
		}
		if !f.B {
			return -1
		}
		return 1
	case Integer:
		switch {
		case f.I < o.I:
			return -1
		case f.I > o.I:
			return 1
		default:
			return 0
		}
	case Float:
		fNaN, oNaN := math.IsNaN(float64(f.F)), math.IsNaN(float64(o.F))
		switch {
		case fNaN && oNaN:
			return 0
		case fNaN:
			return 1
		case oNaN:
			return -1
		case f.F < o.F:
			return -1
		case f.F > o.F:
			return 1
		default:
			return 0
		}
	case String:
		return stringCollator.CompareString(f.S, o.S)
	default:
		return 0
	}
}

// Less reports whether f sorts strictly before o under Compare.
func (f Field) Less(o Field) bool { return f.Compare(o) < 0 }

// checkedKindError builds the "Cannot <op> A and B" style error the
// original engine raises for an unsupported type combination.
func checkedKindError(op string, a, b Field) error {
	return fmt.Errorf("field: cannot %s %s and %s: %w", op, a.Kind, b.Kind, dberr.InvalidInput)
}

// Add performs checked addition; Null propagates, int32 overflow errors,
// int/float mixes promote to Float.
func (f Field) Add(o Field) (Field, error) { return arith("add", f, o, addInt, addFloat) }

// Sub performs checked subtraction.
func (f Field) Sub(o Field) (Field, error) { return arith("subtract", f, o, subInt, subFloat) }

// Mul performs checked multiplication.
func (f Field) Mul(o Field) (Field, error) { return arith("multiply", f, o, mulInt, mulFloat) }

func addInt(a, b int32) (int32, bool) {
	r := int64(a) + int64(b)
	return int32(r), r >= math.MinInt32 && r <= math.MaxInt32
}
func subInt(a, b int32) (int32, bool) {
	r := int64(a) - int64(b)
	return int32(r), r >= math.MinInt32 && r <= math.MaxInt32
}
func mulInt(a, b int32) (int32, bool) {
	r := int64(a) * int64(b)
	return int32(r), r >= math.MinInt32 && r <= math.MaxInt32
}
func addFloat(a, b float32) float32 { return a + b }
func subFloat(a, b float32) float32 { return a - b }
func mulFloat(a, b float32) float32 { return a * b }

func arith(op string, a, b Field, intOp func(int32, int32) (int32, bool), floatOp func(float32, float32) float32) (Field, error) {
	switch {
	case a.Kind == Null && (b.Kind == Integer || b.Kind == Float || b.Kind == Null):
		return NewNull(), nil
	case b.Kind == Null && (a.Kind == Integer || a.Kind == Float):
		return NewNull(), nil
	case a.Kind == Integer && b.Kind == Integer:
		v, ok := intOp(a.I, b.I)
		if !ok {
			return Field{}, fmt.Errorf("field: %s overflow: %w", op, dberr.Overflow)
		}
		return NewInt(v), nil
	case a.Kind == Integer && b.Kind == Float:
		return NewFloat(floatOp(float32(a.I), b.F)), nil
	case a.Kind == Float && b.Kind == Integer:
		return NewFloat(floatOp(a.F, float32(b.I))), nil
	case a.Kind == Float && b.Kind == Float:
		return NewFloat(floatOp(a.F, b.F)), nil
	default:
		return Field{}, checkedKindError(op, a, b)
	}
}

// Div performs checked division; division by a literal zero (int or float)
// is an error, not an inf/NaN result. An exact integer division stays
// Integer; otherwise it promotes to Float.
func (f Field) Div(o Field) (Field, error) {
	if (o.Kind == Integer && o.I == 0) || (o.Kind == Float && o.F == 0) {
		return Field{}, fmt.Errorf("field: division by zero: %w", dberr.InvalidInput)
	}
	switch {
	case f.Kind == Null && (o.Kind == Integer || o.Kind == Float || o.Kind == Null):
		return NewNull(), nil
	case o.Kind == Null && (f.Kind == Integer || f.Kind == Float):
		return NewNull(), nil
	case f.Kind == Integer && o.Kind == Integer:
		if f.I%o.I == 0 {
			return NewInt(f.I / o.I), nil
		}
		return NewFloat(float32(f.I) / float32(o.I)), nil
	case f.Kind == Integer && o.Kind == Float:
		return NewFloat(float32(f.I) / o.F), nil
	case f.Kind == Float && o.Kind == Integer:
		return NewFloat(f.F / float32(o.I)), nil
	case f.Kind == Float && o.Kind == Float:
		return NewFloat(f.F / o.F), nil
	default:
		return Field{}, checkedKindError("divide", f, o)
	}
}
