// Package txn implements the table manager and the single serialized
// transaction of spec §4.G: a mutex-guarded catalog of heap files. Rows are
// addressed directly by (table, RID) Key; there is no separate key
// directory, so a RID changed by Update is known only to Update's caller.
//
// Grounded on original_source/src/storage/tables.rs (HeapTableManager) for
// the catalog shape and original_source/src/storage/simple.rs (Simple,
// Transaction, ScanIterator) for the mutex-serialized transaction and its
// buffered, mutex-releasing scan, adapted to the teacher's mutex-guarded
// catalog wiring in
// _examples/SimonWaldherr-tinySQL/internal/storage/db.go.
package txn

import (
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/sjwhitworth/goheap/internal/buffer"
	"github.com/sjwhitworth/goheap/internal/dberr"
	"github.com/sjwhitworth/goheap/internal/heap"
	"github.com/sjwhitworth/goheap/internal/rid"
	"github.com/sjwhitworth/goheap/internal/row"
	"github.com/sjwhitworth/goheap/internal/schema"
)

// Key addresses a single row: the table it lives in and its RID.
type Key struct {
	Table string
	RID   rid.RID
}

// table bundles a heap file with the schema it was created against.
type table struct {
	schema *schema.Schema
	heap   *heap.Heap
}

// Manager is the process-wide catalog of tables, each backed by its own
// heap file over a shared buffer pool.
type Manager struct {
	mu     sync.Mutex
	pool   *buffer.Pool
	tables map[string]*table
}

// NewManager creates an empty catalog over pool.
func NewManager(pool *buffer.Pool) *Manager {
	return &Manager{pool: pool, tables: make(map[string]*table)}
}

// CreateTable registers a new table named name with the given schema,
// allocating its first heap page. It is an error to create a table that
// already exists.
func (m *Manager) CreateTable(name string, s *schema.Schema) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.tables[name]; ok {
		return fmt.Errorf("txn: table %q already exists: %w", name, dberr.AlreadyExists)
	}
	h, err := heap.New(m.pool)
	if err != nil {
		return fmt.Errorf("txn: create table %q: %w", name, err)
	}
	m.tables[name] = &table{schema: s, heap: h}
	return nil
}

// DeleteTable removes a table from the catalog. It is idempotent: deleting
// a table that does not exist reports false, not an error.
func (m *Manager) DeleteTable(name string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.tables[name]; !ok {
		return false
	}
	delete(m.tables, name)
	return true
}

// GetSchema returns the schema of the named table, or nil if it does not
// exist.
func (m *Manager) GetSchema(name string) *schema.Schema {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tables[name]
	if !ok {
		return nil
	}
	return t.schema
}

func (m *Manager) lookup(name string) (*table, error) {
	t, ok := m.tables[name]
	if !ok {
		return nil, fmt.Errorf("txn: no such table %q: %w", name, dberr.NotFound)
	}
	return t, nil
}

// Insert serializes r against the table's schema and inserts it, returning
// the new row's RID.
func (m *Manager) Insert(table string, r row.Row) (rid.RID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, err := m.lookup(table)
	if err != nil {
		return rid.RID{}, err
	}
	tup, err := row.Serialize(r, t.schema)
	if err != nil {
		return rid.RID{}, err
	}
	return t.heap.InsertTuple(tup)
}

// Get returns the deserialized row at key.
func (m *Manager) Get(key Key) (row.Row, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, err := m.lookup(key.Table)
	if err != nil {
		return nil, err
	}
	tup, err := t.heap.GetTuple(key.RID)
	if err != nil {
		return nil, err
	}
	return row.Deserialize(tup, t.schema)
}

// Delete tombstones the row at key.
func (m *Manager) Delete(key Key) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, err := m.lookup(key.Table)
	if err != nil {
		return err
	}
	return t.heap.DeleteTuple(key.RID)
}

// Update replaces the row at key with r, returning its (possibly new) RID.
// Per internal/heap.Heap.UpdateTuple, a size change churns the RID; callers
// holding onto key.RID elsewhere must pick up the returned value.
func (m *Manager) Update(key Key, r row.Row) (rid.RID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, err := m.lookup(key.Table)
	if err != nil {
		return rid.RID{}, err
	}
	tup, err := row.Serialize(r, t.schema)
	if err != nil {
		return rid.RID{}, err
	}
	return t.heap.UpdateTuple(key.RID, tup)
}

// scanBatch pulls up to n (RID, Row) pairs from table starting at the heap
// iterator's current position, or reports that the table does not exist.
func (m *Manager) scanBatch(table string, hi *heap.Iterator, n int) ([]rid.RID, []row.Row, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, err := m.lookup(table)
	if err != nil {
		return nil, nil, err
	}

	rids := make([]rid.RID, 0, n)
	rows := make([]row.Row, 0, n)
	for i := 0; i < n; i++ {
		r, tup, ok, err := hi.Next()
		if err != nil {
			return nil, nil, err
		}
		if !ok {
			break
		}
		decoded, err := row.Deserialize(tup, t.schema)
		if err != nil {
			return nil, nil, err
		}
		rids = append(rids, r)
		rows = append(rows, decoded)
	}
	return rids, rows, nil
}

// newHeapIterator opens a fresh heap.Iterator for table, under the catalog
// lock.
func (m *Manager) newHeapIterator(table string) (*heap.Iterator, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, err := m.lookup(table)
	if err != nil {
		return nil, err
	}
	return t.heap.Iter()
}

// Transaction is a handle onto a Manager, whose single mutex serializes all
// access, mirroring original_source/src/storage/simple.rs's "Simple" engine: this
// database runs one transaction at a time, with no MVCC or concurrency
// control.
type Transaction struct {
	id uuid.UUID
	m  *Manager
}

// Begin starts a new transaction over m. Manager itself serializes all
// access behind its own mutex, so every Transaction sharing a Manager is
// already mutually exclusive with every other — there is no independent
// transaction-level locking to coordinate.
func Begin(m *Manager) *Transaction {
	return &Transaction{id: uuid.New(), m: m}
}

// ID returns the transaction's identity.
func (tx *Transaction) ID() uuid.UUID { return tx.id }

func (tx *Transaction) CreateTable(name string, s *schema.Schema) error {
	return tx.m.CreateTable(name, s)
}

func (tx *Transaction) DeleteTable(name string) bool {
	return tx.m.DeleteTable(name)
}

func (tx *Transaction) GetSchema(name string) *schema.Schema {
	return tx.m.GetSchema(name)
}

func (tx *Transaction) Insert(table string, r row.Row) (rid.RID, error) {
	return tx.m.Insert(table, r)
}

func (tx *Transaction) Get(key Key) (row.Row, error) {
	return tx.m.Get(key)
}

func (tx *Transaction) Delete(key Key) error {
	return tx.m.Delete(key)
}

func (tx *Transaction) Update(key Key, r row.Row) (rid.RID, error) {
	return tx.m.Update(key, r)
}

// Scan returns a fresh ScanIterator over table.
func (tx *Transaction) Scan(table string) (*ScanIterator, error) {
	hi, err := tx.m.newHeapIterator(table)
	if err != nil {
		return nil, err
	}
	return &ScanIterator{shared: &scanState{tx: tx, table: table, heapIter: hi}}, nil
}

// scanBatchSize bounds how many rows a scan pulls per lock acquisition,
// mirroring simple.rs's ScanIterator::BUFFER_SIZE.
const scanBatchSize = 256

// scanState is the buffered state behind one or more ScanIterators over the
// same table within the same transaction. It grows an append-only buffer of
// every row read so far and owns the single heap.Iterator driving further
// reads; clones of a ScanIterator share a *scanState so rescanning the table
// (as nested-loop join does for every left row) never re-walks heap pages
// a prior pass already buffered.
type scanState struct {
	tx       *Transaction
	table    string
	heapIter *heap.Iterator
	buf      []scanRow
	done     bool
}

type scanRow struct {
	rid rid.RID
	row row.Row
}

// fill extends buf until it has at least pos+1 rows or the table is
// exhausted.
func (s *scanState) fill(pos int) error {
	for pos >= len(s.buf) && !s.done {
		rids, rows, err := s.tx.m.scanBatch(s.table, s.heapIter, scanBatchSize)
		if err != nil {
			return err
		}
		for i := range rids {
			s.buf = append(s.buf, scanRow{rid: rids[i], row: rows[i]})
		}
		if len(rids) < scanBatchSize {
			s.done = true
		}
	}
	return nil
}

// ScanIterator walks every live row of a table. It buffers rows in batches
// so the transaction's mutex is not held for the whole scan — a join
// pulling from two tables at once would otherwise deadlock against itself.
// Each ScanIterator carries its own cursor (pos) into the shared scanState.
type ScanIterator struct {
	shared *scanState
	pos    int
}

// Next returns the next (RID, Row) pair, or ok=false once the table is
// exhausted.
func (it *ScanIterator) Next() (rid.RID, row.Row, bool, error) {
	if err := it.shared.fill(it.pos); err != nil {
		return rid.RID{}, nil, false, err
	}
	if it.pos >= len(it.shared.buf) {
		return rid.RID{}, nil, false, nil
	}
	sr := it.shared.buf[it.pos]
	it.pos++
	return sr.rid, sr.row, true, nil
}

// Clone returns a new ScanIterator rewound to the start of the logical scan
// but sharing this iterator's underlying buffered state, so rows already
// read from disk are replayed from memory rather than re-fetched — the
// capability a nested-loop join's right side needs to be rescanned once per
// left row without holding the full relation in memory up front.
func (it *ScanIterator) Clone() (*ScanIterator, error) {
	return &ScanIterator{shared: it.shared}, nil
}
