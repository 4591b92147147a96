package engine

import (
	"testing"

	"github.com/sjwhitworth/goheap/internal/config"
	"github.com/sjwhitworth/goheap/internal/exec"
	"github.com/sjwhitworth/goheap/internal/field"
	"github.com/sjwhitworth/goheap/internal/plan"
	"github.com/sjwhitworth/goheap/internal/schema"
)

func openTestEngine(t *testing.T) *Engine {
	t.Helper()
	cfg := config.Config{DataDir: t.TempDir(), PoolSize: 8, ReplacerK: 2}
	e, err := Open(cfg)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { e.Close() })
	return e
}

func usersSchema(t *testing.T) *schema.Schema {
	t.Helper()
	s, err := schema.New("users", []schema.Column{
		{Name: "id", Type: schema.TypeInteger},
		{Name: "name", Type: schema.TypeString},
	})
	if err != nil {
		t.Fatalf("schema.New: %v", err)
	}
	return s
}

func TestEngineCreateTableThenSelect(t *testing.T) {
	e := openTestEngine(t)
	tx := e.BeginTransaction()

	res, err := tx.Execute(CreateTableStatement{Name: "users", Schema: usersSchema(t)})
	if err != nil {
		t.Fatalf("create table: %v", err)
	}
	if _, ok := res.(CreateTableResult); !ok {
		t.Fatalf("got %T, want CreateTableResult", res)
	}

	insertRes, err := tx.Execute(InsertStatement{
		Table: "users",
		Source: plan.Values{Rows: [][]plan.Expr{
			{plan.Constant{Value: field.NewInt(1)}, plan.Constant{Value: field.NewString("ada")}},
			{plan.Constant{Value: field.NewInt(2)}, plan.Constant{Value: field.NewString("bob")}},
		}},
	})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	ins, ok := insertRes.(InsertResult)
	if !ok || ins.Count != 2 {
		t.Fatalf("got %+v, want InsertResult{Count: 2}", insertRes)
	}

	selectRes, err := tx.Execute(SelectStatement{
		Plan:    plan.Scan{Table: "users", Arity: 2},
		Columns: []string{"id", "name"},
	})
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	sel, ok := selectRes.(SelectResult)
	if !ok || len(sel.Rows) != 2 {
		t.Fatalf("got %+v, want 2 rows", selectRes)
	}
}

func TestEngineDropTableReportsExistence(t *testing.T) {
	e := openTestEngine(t)
	tx := e.BeginTransaction()

	res, err := tx.Execute(DropTableStatement{Name: "ghost"})
	if err != nil {
		t.Fatalf("drop: %v", err)
	}
	if res.(DropTableResult).Existed {
		t.Fatal("expected Existed=false for a table never created")
	}

	if _, err := tx.Execute(CreateTableStatement{Name: "users", Schema: usersSchema(t)}); err != nil {
		t.Fatalf("create: %v", err)
	}
	res2, err := tx.Execute(DropTableStatement{Name: "users"})
	if err != nil {
		t.Fatalf("drop: %v", err)
	}
	if !res2.(DropTableResult).Existed {
		t.Fatal("expected Existed=true")
	}
}

func TestEngineDeleteAndUpdate(t *testing.T) {
	e := openTestEngine(t)
	tx := e.BeginTransaction()
	if _, err := tx.Execute(CreateTableStatement{Name: "users", Schema: usersSchema(t)}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := tx.Execute(InsertStatement{
		Table: "users",
		Source: plan.Values{Rows: [][]plan.Expr{
			{plan.Constant{Value: field.NewInt(1)}, plan.Constant{Value: field.NewString("ada")}},
			{plan.Constant{Value: field.NewInt(2)}, plan.Constant{Value: field.NewString("bob")}},
		}},
	}); err != nil {
		t.Fatalf("insert: %v", err)
	}

	updRes, err := tx.Execute(UpdateStatement{
		Table:  "users",
		Source: plan.Scan{Table: "users", Arity: 2},
		Assignments: []exec.ColumnAssignment{
			{Column: 1, Expression: plan.Constant{Value: field.NewString("renamed")}},
		},
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updRes.(UpdateResult).Count != 2 {
		t.Fatalf("got %+v, want Count: 2", updRes)
	}

	delRes, err := tx.Execute(DeleteStatement{
		Table: "users",
		Source: plan.Scan{Table: "users", Arity: 2, Filter: plan.Compare{
			Op: plan.Eq, Left: plan.ColumnRef{Index: 0}, Right: plan.Constant{Value: field.NewInt(1)},
		}},
	})
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if delRes.(DeleteResult).Count != 1 {
		t.Fatalf("got %+v, want Count: 1", delRes)
	}
}

func TestEngineCloseIsIdempotent(t *testing.T) {
	e := openTestEngine(t)
	if err := e.Close(); err != nil {
		t.Fatalf("first Close: %v", err)
	}
	if err := e.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
}
