package exec

import (
	"fmt"

	"github.com/sjwhitworth/goheap/internal/dberr"
	"github.com/sjwhitworth/goheap/internal/field"
	"github.com/sjwhitworth/goheap/internal/plan"
	"github.com/sjwhitworth/goheap/internal/rid"
	"github.com/sjwhitworth/goheap/internal/row"
)

// concatRows concatenates a left row with a right row (or, if right is nil,
// pads the right side with Null to rightWidth columns), producing the
// combined row a join emits.
func concatRows(left row.Row, right row.Row, rightWidth int) row.Row {
	out := make(row.Row, len(left)+rightWidth)
	copy(out, left)
	if right != nil {
		copy(out[len(left):], right)
	} else {
		for i := len(left); i < len(out); i++ {
			out[i] = field.NewNull()
		}
	}
	return out
}

// nestedLoopJoin joins left against a fresh rescan of right per left row,
// per spec §4.I / original_source/handin/join.rs's nested-loop strategy.
// right must implement Rescanner so each left row can restart it from the
// beginning.
type nestedLoopJoin struct {
	left       Rows
	right      Rows
	rightWidth int
	predicate  plan.Expr
	outer      bool

	curLeftRID  rid.RID
	curLeft     row.Row
	haveLeft    bool
	leftMatched bool
	exhausted   bool
}

func newNestedLoopJoin(left, right Rows, rightWidth int, predicate plan.Expr, outer bool) (Rows, error) {
	if _, ok := right.(Rescanner); !ok {
		return nil, fmt.Errorf("exec: nested-loop join's right side is not rescannable: %w", dberr.InvalidInput)
	}
	return &nestedLoopJoin{left: left, right: right, rightWidth: rightWidth, predicate: predicate, outer: outer}, nil
}

func (j *nestedLoopJoin) advanceLeft() error {
	r, rw, ok, err := j.left.Next()
	if err != nil {
		return err
	}
	if !ok {
		j.exhausted = true
		j.haveLeft = false
		return nil
	}
	rs, err := j.right.(Rescanner).Rescan()
	if err != nil {
		return err
	}
	j.right = rs
	j.curLeftRID, j.curLeft = r, rw
	j.haveLeft = true
	j.leftMatched = false
	return nil
}

func (j *nestedLoopJoin) Next() (rid.RID, row.Row, bool, error) {
	if j.exhausted {
		return rid.Invalid, nil, false, nil
	}
	if !j.haveLeft {
		if err := j.advanceLeft(); err != nil {
			return rid.Invalid, nil, false, err
		}
		if j.exhausted {
			return rid.Invalid, nil, false, nil
		}
	}

	for {
		_, rightRow, ok, err := j.right.Next()
		if err != nil {
			return rid.Invalid, nil, false, err
		}
		if !ok {
			// Right side exhausted for this left row.
			emitMiss := j.outer && !j.leftMatched
			missRID, missRow := j.curLeftRID, j.curLeft
			if err := j.advanceLeft(); err != nil {
				return rid.Invalid, nil, false, err
			}
			if emitMiss {
				return missRID, concatRows(missRow, nil, j.rightWidth), true, nil
			}
			if j.exhausted {
				return rid.Invalid, nil, false, nil
			}
			continue
		}

		combined := concatRows(j.curLeft, rightRow, j.rightWidth)
		if j.predicate != nil {
			keep, err := evalPredicate(j.predicate, combined)
			if err != nil {
				return rid.Invalid, nil, false, err
			}
			if !keep {
				continue
			}
		}
		j.leftMatched = true
		return j.curLeftRID, combined, true, nil
	}
}

// buildHashJoin builds a multimap from right keyed by RightColumn, dropping
// undefined (Null or NaN) keys, then probes it once per left row. Grounded
// on original_source/handin/join.rs's hash-join strategy.
func buildHashJoin(left Rows, leftColumn int, right Rows, rightColumn int, rightWidth int, outer bool) (Rows, error) {
	buckets := make(map[field.Field][]row.Row)
	for {
		_, rw, ok, err := right.Next()
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		if rightColumn >= len(rw) {
			return nil, fmt.Errorf("exec: hash join right column %d out of range: %w", rightColumn, dberr.InvalidInput)
		}
		key := rw[rightColumn]
		if key.IsUndefined() {
			continue
		}
		buckets[key] = append(buckets[key], rw)
	}
	return &hashJoin{left: left, leftColumn: leftColumn, rightWidth: rightWidth, buckets: buckets, outer: outer}, nil
}

type hashJoin struct {
	left       Rows
	leftColumn int
	rightWidth int
	buckets    map[field.Field][]row.Row
	outer      bool

	pending    []row.Row
	pendingPos int
	curLeftRID rid.RID
	curLeft    row.Row
}

func (h *hashJoin) Next() (rid.RID, row.Row, bool, error) {
	for {
		if h.pendingPos < len(h.pending) {
			rightRow := h.pending[h.pendingPos]
			h.pendingPos++
			return h.curLeftRID, concatRows(h.curLeft, rightRow, h.rightWidth), true, nil
		}

		r, rw, ok, err := h.left.Next()
		if err != nil {
			return rid.Invalid, nil, false, err
		}
		if !ok {
			return rid.Invalid, nil, false, nil
		}
		if h.leftColumn >= len(rw) {
			return rid.Invalid, nil, false, fmt.Errorf("exec: hash join left column %d out of range: %w", h.leftColumn, dberr.InvalidInput)
		}
		key := rw[h.leftColumn]
		h.curLeftRID, h.curLeft = r, rw

		if key.IsUndefined() {
			if h.outer {
				return r, concatRows(rw, nil, h.rightWidth), true, nil
			}
			continue
		}
		matches := h.buckets[key]
		if len(matches) == 0 {
			if h.outer {
				return r, concatRows(rw, nil, h.rightWidth), true, nil
			}
			continue
		}
		h.pending = matches
		h.pendingPos = 0
	}
}
