package exec

import (
	"github.com/sjwhitworth/goheap/internal/field"
	"github.com/sjwhitworth/goheap/internal/plan"
	"github.com/sjwhitworth/goheap/internal/rid"
	"github.com/sjwhitworth/goheap/internal/row"
	"github.com/sjwhitworth/goheap/internal/txn"
)

// ColumnAssignment pairs a target column index with the expression an
// Update evaluates against the pre-update row to produce its new value.
type ColumnAssignment struct {
	Column     int
	Expression plan.Expr
}

// Write operators run lazily, on the first call to Next (unlike Order,
// Aggregate and HashJoin, which drain their input when built) — per
// original_source/handin/write.rs,
// where Delete/Insert/Update are themselves Rows over a single synthetic
// result row rather than eagerly-run statements. This lets a write operator
// nest under further operators (e.g. a future RETURNING-style re-projection)
// even though the exported Run* helpers below just drain it for its count.

// deleteRows deletes every source row from table on first Next, then emits
// one row holding the deleted count.
type deleteRows struct {
	source Rows
	tx     *txn.Transaction
	table  string
	done   bool
}

func (d *deleteRows) Next() (rid.RID, row.Row, bool, error) {
	if d.done {
		return rid.Invalid, nil, false, nil
	}
	d.done = true
	count := 0
	for {
		r, _, ok, err := d.source.Next()
		if err != nil {
			return rid.Invalid, nil, false, err
		}
		if !ok {
			break
		}
		if err := d.tx.Delete(txn.Key{Table: d.table, RID: r}); err != nil {
			return rid.Invalid, nil, false, err
		}
		count++
	}
	return rid.Invalid, row.Row{field.NewInt(int32(count))}, true, nil
}

// insertRows inserts every source row into table on first Next, then emits
// one row per generated RID.
type insertRows struct {
	source Rows
	tx     *txn.Transaction
	table  string
	rids   []rid.RID
	pos    int
	ran    bool
}

func (i *insertRows) Next() (rid.RID, row.Row, bool, error) {
	if !i.ran {
		i.ran = true
		for {
			_, rw, ok, err := i.source.Next()
			if err != nil {
				return rid.Invalid, nil, false, err
			}
			if !ok {
				break
			}
			r, err := i.tx.Insert(i.table, rw)
			if err != nil {
				return rid.Invalid, nil, false, err
			}
			i.rids = append(i.rids, r)
		}
	}
	if i.pos >= len(i.rids) {
		return rid.Invalid, nil, false, nil
	}
	r := i.rids[i.pos]
	i.pos++
	return r, row.Row{field.NewInt(int32(r.SlotID))}, true, nil
}

// updateRows applies assignments to every source row on first Next, then
// emits one row holding the updated count.
type updateRows struct {
	source      Rows
	tx          *txn.Transaction
	table       string
	assignments []ColumnAssignment
	done        bool
}

func (u *updateRows) Next() (rid.RID, row.Row, bool, error) {
	if u.done {
		return rid.Invalid, nil, false, nil
	}
	u.done = true
	count := 0
	for {
		r, rw, ok, err := u.source.Next()
		if err != nil {
			return rid.Invalid, nil, false, err
		}
		if !ok {
			break
		}

		updated := make(row.Row, len(rw))
		copy(updated, rw)
		for _, a := range u.assignments {
			v, err := a.Expression.Eval(rw)
			if err != nil {
				return rid.Invalid, nil, false, err
			}
			updated[a.Column] = v
		}

		if _, err := u.tx.Update(txn.Key{Table: u.table, RID: r}, updated); err != nil {
			return rid.Invalid, nil, false, err
		}
		count++
	}
	return rid.Invalid, row.Row{field.NewInt(int32(count))}, true, nil
}

// RunDelete deletes every row source produces from table, returning the
// count removed. Grounded on original_source/handin/write.rs's delete().
func RunDelete(source Rows, tx *txn.Transaction, table string) (int, error) {
	d := &deleteRows{source: source, tx: tx, table: table}
	_, rw, _, err := d.Next()
	if err != nil {
		return 0, err
	}
	return int(rw[0].I), nil
}

// RunInsert inserts every row source produces into table, returning the
// RIDs assigned. Grounded on original_source/handin/write.rs's insert().
func RunInsert(source Rows, tx *txn.Transaction, table string) ([]rid.RID, error) {
	i := &insertRows{source: source, tx: tx, table: table}
	for {
		_, _, ok, err := i.Next()
		if err != nil {
			return i.rids, err
		}
		if !ok {
			return i.rids, nil
		}
	}
}

// RunUpdate applies assignments to every row source produces, evaluating
// each assignment's expression against the row's pre-update values, then
// writes the modified row back via tx.Update. Returns the count updated.
// Grounded on original_source/handin/write.rs's update().
func RunUpdate(source Rows, tx *txn.Transaction, table string, assignments []ColumnAssignment) (int, error) {
	u := &updateRows{source: source, tx: tx, table: table, assignments: assignments}
	_, rw, _, err := u.Next()
	if err != nil {
		return 0, err
	}
	return int(rw[0].I), nil
}
