// Command goheapdemo exercises the embedded engine API of spec §6 against a
// scratch data directory: create a table, insert a few rows, run a filtered
// scan, and print the result. It is not a SQL REPL — that remains an
// external collaborator (spec.md §1's non-goals) — only a demonstration of
// the Go API a host process links against.
//
// Grounded on the teacher's cmd/server/main.go flag parsing and
// open-then-serve structure (_examples/SimonWaldherr-tinySQL/cmd/server),
// trimmed to the embedded path only: no HTTP, no gRPC, no peers.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/sjwhitworth/goheap/internal/config"
	"github.com/sjwhitworth/goheap/internal/engine"
	"github.com/sjwhitworth/goheap/internal/field"
	"github.com/sjwhitworth/goheap/internal/plan"
	"github.com/sjwhitworth/goheap/internal/schema"
)

var (
	flagDataDir  = flag.String("data-dir", "", "data directory (defaults to a temp dir if empty)")
	flagPoolSize = flag.Int("pool-size", 16, "buffer pool frame count")
	flagK        = flag.Int("k", 2, "LRU-K distance")
)

func main() {
	flag.Parse()

	dataDir := *flagDataDir
	if dataDir == "" {
		dir, err := os.MkdirTemp("", "goheapdemo")
		if err != nil {
			log.Fatalf("creating scratch data dir: %v", err)
		}
		defer os.RemoveAll(dir)
		dataDir = dir
	}

	e, err := engine.Open(config.Config{
		DataDir:            dataDir,
		PoolSize:           *flagPoolSize,
		ReplacerK:          *flagK,
		CheckpointInterval: 30 * time.Second,
	})
	if err != nil {
		log.Fatalf("opening engine: %v", err)
	}
	defer e.Close()

	if err := run(e); err != nil {
		log.Fatalf("demo run: %v", err)
	}
}

func run(e *engine.Engine) error {
	tx := e.BeginTransaction()

	s, err := schema.New("pets", []schema.Column{
		{Name: "id", Type: schema.TypeInteger},
		{Name: "name", Type: schema.TypeString},
		{Name: "weight_kg", Type: schema.TypeFloat, Nullable: true},
	})
	if err != nil {
		return err
	}

	if _, err := tx.Execute(engine.CreateTableStatement{Name: "pets", Schema: s}); err != nil {
		return err
	}

	rows := [][]plan.Expr{
		{plan.Constant{Value: field.NewInt(1)}, plan.Constant{Value: field.NewString("fig")}, plan.Constant{Value: field.NewFloat(6.4)}},
		{plan.Constant{Value: field.NewInt(2)}, plan.Constant{Value: field.NewString("clementine")}, plan.Constant{Value: field.NewFloat(22.1)}},
		{plan.Constant{Value: field.NewInt(3)}, plan.Constant{Value: field.NewString("olive")}, plan.Constant{Value: field.NewNull()}},
	}
	insertRes, err := tx.Execute(engine.InsertStatement{Table: "pets", Source: plan.Values{Rows: rows}})
	if err != nil {
		return err
	}
	fmt.Printf("inserted %d rows\n", insertRes.(engine.InsertResult).Count)

	selectRes, err := tx.Execute(engine.SelectStatement{
		Plan: plan.Scan{
			Table: "pets",
			Arity: 3,
			Filter: plan.Compare{
				Op:    plan.Gt,
				Left:  plan.ColumnRef{Index: 2},
				Right: plan.Constant{Value: field.NewFloat(10)},
			},
		},
		Columns: []string{"id", "name", "weight_kg"},
	})
	if err != nil {
		return err
	}

	res := selectRes.(engine.SelectResult)
	fmt.Printf("pets heavier than 10kg (columns: %v):\n", res.Columns)
	for _, r := range res.Rows {
		fmt.Printf("  %v\n", r)
	}
	return nil
}
