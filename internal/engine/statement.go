// Package engine implements the embedded API surface of spec §6: Open an
// engine over a data directory, begin transactions against it, and execute
// statements expressed directly as plan.Node trees (SQL text parsing is an
// external collaborator's concern, not this package's — see SPEC_FULL.md).
//
// Grounded on the teacher's top-level database constructor
// (_examples/SimonWaldherr-tinySQL/internal/storage/db.go's NewDB) for the
// open/close lifecycle shape, and on its internal/engine/exec.go
// StatementResult-style dispatch for mapping a typed statement to a typed
// result.
package engine

import (
	"github.com/sjwhitworth/goheap/internal/exec"
	"github.com/sjwhitworth/goheap/internal/plan"
	"github.com/sjwhitworth/goheap/internal/rid"
	"github.com/sjwhitworth/goheap/internal/row"
	"github.com/sjwhitworth/goheap/internal/schema"
)

// Statement is a closed variant set mirroring spec §6's StatementResult
// shape one level up: one variant per kind of thing a transaction can be
// asked to do. Like plan.Node, it is a Go interface with a private marker
// method rather than a tagged union, so external packages cannot extend it.
type Statement interface {
	isStatement()
}

// CreateTableStatement registers a new table with Schema.
type CreateTableStatement struct {
	Name   string
	Schema *schema.Schema
}

func (CreateTableStatement) isStatement() {}

// DropTableStatement removes a table; dropping an absent table is not an
// error (see DropTableResult.Existed).
type DropTableStatement struct {
	Name string
}

func (DropTableStatement) isStatement() {}

// SelectStatement runs Plan to completion and collects every row.
// Columns labels the output for display; its length should match
// Plan.Columns().
type SelectStatement struct {
	Plan    plan.Node
	Columns []string
}

func (SelectStatement) isStatement() {}

// DeleteStatement deletes every row Source produces from Table.
type DeleteStatement struct {
	Table  string
	Source plan.Node
}

func (DeleteStatement) isStatement() {}

// InsertStatement inserts every row Source produces into Table.
type InsertStatement struct {
	Table  string
	Source plan.Node
}

func (InsertStatement) isStatement() {}

// UpdateStatement applies Assignments to every row Source produces in
// Table.
type UpdateStatement struct {
	Table       string
	Source      plan.Node
	Assignments []exec.ColumnAssignment
}

func (UpdateStatement) isStatement() {}

// Result is the StatementResult variant set of spec §6:
// CreateTable{name}, DropTable{name, existed}, Delete{count},
// Insert{count, rids}, Update{count}, Select{columns, rows}.
type Result interface {
	isResult()
}

type CreateTableResult struct{ Name string }

func (CreateTableResult) isResult() {}

type DropTableResult struct {
	Name    string
	Existed bool
}

func (DropTableResult) isResult() {}

type DeleteResult struct{ Count int }

func (DeleteResult) isResult() {}

type InsertResult struct {
	Count int
	RIDs  []rid.RID
}

func (InsertResult) isResult() {}

type UpdateResult struct{ Count int }

func (UpdateResult) isResult() {}

type SelectResult struct {
	Columns []string
	Rows    []row.Row
}

func (SelectResult) isResult() {}
