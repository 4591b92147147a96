package exec

import (
	"fmt"

	"github.com/sjwhitworth/goheap/internal/dberr"
	"github.com/sjwhitworth/goheap/internal/field"
	"github.com/sjwhitworth/goheap/internal/plan"
	"github.com/sjwhitworth/goheap/internal/rid"
	"github.com/sjwhitworth/goheap/internal/row"
)

// accumulator holds one aggregate's running state, per spec §4.I's table.
// Grounded directly on original_source/handin/aggregate.rs's Accumulator
// enum; Go represents the variant as a struct with only the fields its
// Kind uses, rather than a Rust-style enum, since every accumulator needs
// the same two update/finalize operations.
type accumulator struct {
	kind       plan.AggregateKind
	count      int32
	sum        field.Field
	sumSet     bool
	extreme    field.Field
	extremeSet bool
}

func newAccumulator(kind plan.AggregateKind) *accumulator {
	a := &accumulator{kind: kind}
	if kind == plan.AggAverage {
		a.sum = field.NewInt(0)
		a.sumSet = true
	}
	return a
}

func (a *accumulator) add(v field.Field) error {
	switch a.kind {
	case plan.AggCount:
		if !v.IsNull() {
			a.count++
		}
	case plan.AggSum:
		if !a.sumSet {
			a.sum = field.NewInt(0)
			a.sumSet = true
		}
		next, err := a.sum.Add(v)
		if err != nil {
			return err
		}
		a.sum = next
	case plan.AggAverage:
		a.count++
		next, err := a.sum.Add(v)
		if err != nil {
			return err
		}
		a.sum = next
	case plan.AggMax:
		if !a.extremeSet || v.Compare(a.extreme) > 0 {
			a.extreme = v
			a.extremeSet = true
		}
	case plan.AggMin:
		if !a.extremeSet || v.Compare(a.extreme) < 0 {
			a.extreme = v
			a.extremeSet = true
		}
	default:
		return fmt.Errorf("exec: unknown aggregate kind %d: %w", a.kind, dberr.InvalidInput)
	}
	return nil
}

func (a *accumulator) value() (field.Field, error) {
	switch a.kind {
	case plan.AggCount:
		return field.NewInt(a.count), nil
	case plan.AggSum:
		if !a.sumSet {
			return field.NewNull(), nil
		}
		return a.sum, nil
	case plan.AggAverage:
		if a.count == 0 {
			return field.NewNull(), nil
		}
		return a.sum.Div(field.NewInt(a.count))
	case plan.AggMax, plan.AggMin:
		if !a.extremeSet {
			return field.NewNull(), nil
		}
		return a.extreme, nil
	default:
		return field.Field{}, fmt.Errorf("exec: unknown aggregate kind %d: %w", a.kind, dberr.InvalidInput)
	}
}

// bucket holds one group_by tuple and its accumulators. Buckets are keyed by
// encodeBucketKey's string encoding of the tuple and kept in first-seen
// insertion order —
// the ordering requirement spec §4.I names ("so output is deterministic").
type bucket struct {
	key          string
	values       []field.Field
	accumulators []*accumulator
}

// buildAggregate drains source, bucketing rows by the group_by tuple and
// updating one accumulator per aggregate per bucket. If there are no
// input rows and no group_by columns, it emits a single row of finalized
// empty accumulators (spec's "SELECT COUNT(*) FROM t WHERE FALSE" case).
func buildAggregate(source Rows, groupBy []plan.Expr, aggregates []plan.AggregateExpr) (Rows, error) {
	order := make([]*bucket, 0)
	index := make(map[string]*bucket)

	newAccumulators := func() []*accumulator {
		accs := make([]*accumulator, len(aggregates))
		for i, a := range aggregates {
			accs[i] = newAccumulator(a.Kind)
		}
		return accs
	}

	sawRow := false
	for {
		_, rw, ok, err := source.Next()
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		sawRow = true

		keyValues := make([]field.Field, len(groupBy))
		for i, e := range groupBy {
			v, err := e.Eval(rw)
			if err != nil {
				return nil, err
			}
			keyValues[i] = v
		}
		key := encodeBucketKey(keyValues)

		b, ok := index[key]
		if !ok {
			b = &bucket{key: key, values: keyValues, accumulators: newAccumulators()}
			index[key] = b
			order = append(order, b)
		}

		for i, a := range aggregates {
			v, err := a.Expr.Eval(rw)
			if err != nil {
				return nil, err
			}
			if err := b.accumulators[i].add(v); err != nil {
				return nil, err
			}
		}
	}

	if !sawRow && len(groupBy) == 0 {
		accs := newAccumulators()
		values := make(row.Row, len(aggregates))
		for i, a := range accs {
			v, err := a.value()
			if err != nil {
				return nil, err
			}
			values[i] = v
		}
		return &sliceRows{entries: []orderEntry{{rid: rid.Invalid, row: values}}}, nil
	}

	entries := make([]orderEntry, 0, len(order))
	for _, b := range order {
		out := make(row.Row, len(b.values)+len(b.accumulators))
		copy(out, b.values)
		for i, a := range b.accumulators {
			v, err := a.value()
			if err != nil {
				return nil, err
			}
			out[len(b.values)+i] = v
		}
		entries = append(entries, orderEntry{rid: rid.Invalid, row: out})
	}
	return &sliceRows{entries: entries}, nil
}

// encodeBucketKey renders a group_by tuple into a map key. Field.String
// does not disambiguate kind from value representation across types for
// degenerate cases (e.g. the string "1" and the integer 1), so each value
// is tagged with its Kind.
func encodeBucketKey(values []field.Field) string {
	out := make([]byte, 0, 16*len(values))
	for _, v := range values {
		out = append(out, byte(v.Kind), 0)
		out = append(out, v.String()...)
		out = append(out, 0)
	}
	return string(out)
}
