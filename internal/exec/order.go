package exec

import (
	"sort"

	"github.com/sjwhitworth/goheap/internal/field"
	"github.com/sjwhitworth/goheap/internal/plan"
	"github.com/sjwhitworth/goheap/internal/rid"
	"github.com/sjwhitworth/goheap/internal/row"
)

type orderEntry struct {
	rid    rid.RID
	row    row.Row
	values []field.Field
}

// buildOrder drains source, evaluates the sort key for every row once, and
// stably sorts by the resulting tuples, per key direction. Grounded on
// original_source/handin/transform.rs's order(), which likewise
// precomputes sort values rather than re-evaluating the key expressions on
// every comparison.
func buildOrder(source Rows, key []plan.OrderKey) (Rows, error) {
	var entries []orderEntry
	for {
		r, rw, ok, err := source.Next()
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		values := make([]field.Field, len(key))
		for i, k := range key {
			v, err := k.Expr.Eval(rw)
			if err != nil {
				return nil, err
			}
			values[i] = v
		}
		entries = append(entries, orderEntry{rid: r, row: rw, values: values})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		for k := range key {
			c := entries[i].values[k].Compare(entries[j].values[k])
			if c == 0 {
				continue
			}
			if key[k].Dir == plan.Descending {
				return c > 0
			}
			return c < 0
		}
		return false
	})

	return &sliceRows{entries: entries}, nil
}

// sliceRows replays a precomputed slice of (RID, Row) pairs, used by Order
// (and reused by Aggregate) once their source has been fully buffered.
type sliceRows struct {
	entries []orderEntry
	pos     int
}

func (s *sliceRows) Next() (rid.RID, row.Row, bool, error) {
	if s.pos >= len(s.entries) {
		return rid.Invalid, nil, false, nil
	}
	e := s.entries[s.pos]
	s.pos++
	return e.rid, e.row, true, nil
}
