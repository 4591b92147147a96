package exec

import (
	"testing"

	"github.com/sjwhitworth/goheap/internal/field"
	"github.com/sjwhitworth/goheap/internal/plan"
	"github.com/sjwhitworth/goheap/internal/rid"
	"github.com/sjwhitworth/goheap/internal/row"
)

// fixedRows is a test-only Rows/Rescanner backed by an in-memory slice, used
// to exercise operators without a live transaction.
type fixedRows struct {
	rows []row.Row
	pos  int
}

func newFixedRows(rows ...row.Row) *fixedRows { return &fixedRows{rows: rows} }

func (f *fixedRows) Next() (rid.RID, row.Row, bool, error) {
	if f.pos >= len(f.rows) {
		return rid.Invalid, nil, false, nil
	}
	r := f.rows[f.pos]
	f.pos++
	return rid.Invalid, r, true, nil
}

func (f *fixedRows) Rescan() (Rows, error) {
	return &fixedRows{rows: f.rows}, nil
}

func drain(t *testing.T, r Rows) []row.Row {
	t.Helper()
	var out []row.Row
	for {
		_, rw, ok, err := r.Next()
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		if !ok {
			return out
		}
		out = append(out, rw)
	}
}

func TestLimitRowsStopsAtN(t *testing.T) {
	src := newFixedRows(row.Row{field.NewInt(1)}, row.Row{field.NewInt(2)}, row.Row{field.NewInt(3)})
	l := &limitRows{source: src, remaining: 2}
	got := drain(t, l)
	if len(got) != 2 {
		t.Fatalf("got %d rows, want 2", len(got))
	}
}

func TestOffsetRowsSkipsK(t *testing.T) {
	src := newFixedRows(row.Row{field.NewInt(1)}, row.Row{field.NewInt(2)}, row.Row{field.NewInt(3)})
	o := &offsetRows{source: src, remaining: 1}
	got := drain(t, o)
	if len(got) != 2 || got[0][0].I != 2 {
		t.Fatalf("got %v, want rows starting at 2", got)
	}
}

func TestBuildOrderSortsDescending(t *testing.T) {
	src := newFixedRows(row.Row{field.NewInt(1)}, row.Row{field.NewInt(3)}, row.Row{field.NewInt(2)})
	out, err := buildOrder(src, []plan.OrderKey{{Expr: plan.ColumnRef{Index: 0}, Dir: plan.Descending}})
	if err != nil {
		t.Fatalf("buildOrder: %v", err)
	}
	got := drain(t, out)
	want := []int32{3, 2, 1}
	for i, w := range want {
		if got[i][0].I != w {
			t.Fatalf("row %d: got %d, want %d", i, got[i][0].I, w)
		}
	}
}

func TestBuildAggregateEmptyInputNoGroupByEmitsOneRow(t *testing.T) {
	src := newFixedRows()
	out, err := buildAggregate(src, nil, []plan.AggregateExpr{
		{Kind: plan.AggCount, Expr: plan.ColumnRef{Index: 0}},
		{Kind: plan.AggSum, Expr: plan.ColumnRef{Index: 0}},
	})
	if err != nil {
		t.Fatalf("buildAggregate: %v", err)
	}
	got := drain(t, out)
	if len(got) != 1 {
		t.Fatalf("got %d rows, want 1", len(got))
	}
	if got[0][0].Kind != field.Integer || got[0][0].I != 0 {
		t.Fatalf("count: got %v, want Integer(0)", got[0][0])
	}
	if !got[0][1].IsNull() {
		t.Fatalf("sum: got %v, want Null", got[0][1])
	}
}

func TestBuildAggregateGroupsAndComputesAverage(t *testing.T) {
	rows := []row.Row{
		{field.NewString("a"), field.NewInt(10)},
		{field.NewString("a"), field.NewInt(20)},
		{field.NewString("b"), field.NewInt(5)},
	}
	src := newFixedRows(rows...)
	out, err := buildAggregate(src,
		[]plan.Expr{plan.ColumnRef{Index: 0}},
		[]plan.AggregateExpr{{Kind: plan.AggAverage, Expr: plan.ColumnRef{Index: 1}}},
	)
	if err != nil {
		t.Fatalf("buildAggregate: %v", err)
	}
	got := drain(t, out)
	if len(got) != 2 {
		t.Fatalf("got %d buckets, want 2", len(got))
	}
	if got[0][0].S != "a" || got[0][1].I != 15 {
		t.Fatalf("bucket a: got %v", got[0])
	}
	if got[1][0].S != "b" || got[1][1].I != 5 {
		t.Fatalf("bucket b: got %v", got[1])
	}
}

func TestBuildAggregateMaxMin(t *testing.T) {
	rows := []row.Row{
		{field.NewInt(3)},
		{field.NewInt(7)},
		{field.NewInt(1)},
	}
	src := newFixedRows(rows...)
	out, err := buildAggregate(src, nil, []plan.AggregateExpr{
		{Kind: plan.AggMax, Expr: plan.ColumnRef{Index: 0}},
		{Kind: plan.AggMin, Expr: plan.ColumnRef{Index: 0}},
	})
	if err != nil {
		t.Fatalf("buildAggregate: %v", err)
	}
	got := drain(t, out)
	if got[0][0].I != 7 || got[0][1].I != 1 {
		t.Fatalf("got %v, want max=7 min=1", got[0])
	}
}

func TestNestedLoopJoinOuterPadsUnmatchedLeft(t *testing.T) {
	left := newFixedRows(row.Row{field.NewInt(1)}, row.Row{field.NewInt(2)})
	right := newFixedRows(row.Row{field.NewInt(1)})

	predicate := plan.Compare{Op: plan.Eq, Left: plan.ColumnRef{Index: 0}, Right: plan.ColumnRef{Index: 1}}
	j, err := newNestedLoopJoin(left, right, 1, predicate, true)
	if err != nil {
		t.Fatalf("newNestedLoopJoin: %v", err)
	}
	got := drain(t, j)
	if len(got) != 2 {
		t.Fatalf("got %d rows, want 2", len(got))
	}
	if got[0][0].I != 1 || got[0][1].I != 1 {
		t.Fatalf("matched row: got %v", got[0])
	}
	if got[1][0].I != 2 || !got[1][1].IsNull() {
		t.Fatalf("unmatched row should be Null-padded: got %v", got[1])
	}
}

func TestNestedLoopJoinInnerDropsUnmatchedLeft(t *testing.T) {
	left := newFixedRows(row.Row{field.NewInt(1)}, row.Row{field.NewInt(2)})
	right := newFixedRows(row.Row{field.NewInt(1)})

	predicate := plan.Compare{Op: plan.Eq, Left: plan.ColumnRef{Index: 0}, Right: plan.ColumnRef{Index: 1}}
	j, err := newNestedLoopJoin(left, right, 1, predicate, false)
	if err != nil {
		t.Fatalf("newNestedLoopJoin: %v", err)
	}
	got := drain(t, j)
	if len(got) != 1 {
		t.Fatalf("got %d rows, want 1", len(got))
	}
}

func TestHashJoinDropsUndefinedKeys(t *testing.T) {
	left := newFixedRows(
		row.Row{field.NewInt(1)},
		row.Row{field.NewNull()},
		row.Row{field.NewFloat(float32(nan()))},
	)
	right := newFixedRows(row.Row{field.NewInt(1), field.NewString("x")})

	out, err := buildHashJoin(left, 0, right, 0, 2, false)
	if err != nil {
		t.Fatalf("buildHashJoin: %v", err)
	}
	got := drain(t, out)
	if len(got) != 1 {
		t.Fatalf("got %d rows, want 1 (Null/NaN keys dropped)", len(got))
	}
	if got[0][0].I != 1 || got[0][2].S != "x" {
		t.Fatalf("got %v", got[0])
	}
}

func TestHashJoinOuterPadsMiss(t *testing.T) {
	left := newFixedRows(row.Row{field.NewInt(1)}, row.Row{field.NewInt(2)})
	right := newFixedRows(row.Row{field.NewInt(1), field.NewString("x")})

	out, err := buildHashJoin(left, 0, right, 0, 2, true)
	if err != nil {
		t.Fatalf("buildHashJoin: %v", err)
	}
	got := drain(t, out)
	if len(got) != 2 {
		t.Fatalf("got %d rows, want 2", len(got))
	}
	if !got[1][1].IsNull() {
		t.Fatalf("miss row should be Null-padded: got %v", got[1])
	}
}

func nan() float64 {
	var zero float64
	return zero / zero
}
