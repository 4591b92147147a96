package txn

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sjwhitworth/goheap/internal/buffer"
	"github.com/sjwhitworth/goheap/internal/disk"
	"github.com/sjwhitworth/goheap/internal/field"
	"github.com/sjwhitworth/goheap/internal/row"
	"github.com/sjwhitworth/goheap/internal/schema"
)

func newManager(t *testing.T) *Manager {
	t.Helper()
	path := filepath.Join(t.TempDir(), "txn.db")
	dm, err := disk.Open(path, disk.DefaultPageSize)
	require.NoError(t, err)
	t.Cleanup(func() { dm.Close() })
	pool := buffer.New(dm, 8, 2)
	return NewManager(pool)
}

func usersSchema(t *testing.T) *schema.Schema {
	t.Helper()
	s, err := schema.New("users", []schema.Column{
		{Name: "id", Type: schema.TypeInteger},
		{Name: "name", Type: schema.TypeString},
	})
	require.NoError(t, err)
	return s
}

func TestManagerCreateTableRejectsDuplicate(t *testing.T) {
	m := newManager(t)
	s := usersSchema(t)
	require.NoError(t, m.CreateTable("users", s))
	assert.Error(t, m.CreateTable("users", s))
}

func TestManagerDeleteTableIsIdempotent(t *testing.T) {
	m := newManager(t)
	require.NoError(t, m.CreateTable("users", usersSchema(t)))
	assert.True(t, m.DeleteTable("users"))
	assert.False(t, m.DeleteTable("users"))
}

func TestTransactionInsertGetDelete(t *testing.T) {
	m := newManager(t)
	require.NoError(t, m.CreateTable("users", usersSchema(t)))

	tx := Begin(m)
	r, err := tx.Insert("users", row.Row{field.NewInt(1), field.NewString("ada")})
	require.NoError(t, err)

	got, err := tx.Get(Key{Table: "users", RID: r})
	require.NoError(t, err)
	assert.Equal(t, int32(1), got[0].I)
	assert.Equal(t, "ada", got[1].S)

	require.NoError(t, tx.Delete(Key{Table: "users", RID: r}))
	_, err = tx.Get(Key{Table: "users", RID: r})
	assert.Error(t, err)
}

func TestTransactionScanReturnsAllInsertedRows(t *testing.T) {
	m := newManager(t)
	require.NoError(t, m.CreateTable("users", usersSchema(t)))

	tx := Begin(m)
	const n = 600 // exceeds scanBatchSize to exercise the refill path
	for i := 0; i < n; i++ {
		_, err := tx.Insert("users", row.Row{field.NewInt(int32(i)), field.NewString("name")})
		require.NoError(t, err)
	}

	it, err := tx.Scan("users")
	require.NoError(t, err)

	count := 0
	for {
		_, _, ok, err := it.Next()
		require.NoError(t, err)
		if !ok {
			break
		}
		count++
	}
	assert.Equal(t, n, count)
}

func TestScanIteratorCloneRewindsButSharesBufferedState(t *testing.T) {
	m := newManager(t)
	require.NoError(t, m.CreateTable("users", usersSchema(t)))
	tx := Begin(m)
	_, err := tx.Insert("users", row.Row{field.NewInt(1), field.NewString("a")})
	require.NoError(t, err)
	_, err = tx.Insert("users", row.Row{field.NewInt(2), field.NewString("b")})
	require.NoError(t, err)

	it, err := tx.Scan("users")
	require.NoError(t, err)
	_, _, ok, err := it.Next()
	require.NoError(t, err)
	require.True(t, ok)

	clone, err := it.Clone()
	require.NoError(t, err)
	assert.Same(t, it.shared, clone.shared, "clone must share the original's buffered state")

	// The clone's own cursor restarts the logical scan, so it sees every
	// row again starting from the first.
	_, first, ok, err := clone.Next()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, int32(1), first[0].I)

	// The original's cursor is unaffected by the clone advancing.
	_, second, ok, err := it.Next()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, int32(2), second[0].I)
}

func TestUpdateResizeChangesRID(t *testing.T) {
	m := newManager(t)
	require.NoError(t, m.CreateTable("users", usersSchema(t)))
	tx := Begin(m)
	r, err := tx.Insert("users", row.Row{field.NewInt(1), field.NewString("a")})
	require.NoError(t, err)

	r2, err := tx.Update(Key{Table: "users", RID: r}, row.Row{field.NewInt(1), field.NewString("a much longer name than before")})
	require.NoError(t, err)
	assert.NotEqual(t, r, r2)

	got, err := tx.Get(Key{Table: "users", RID: r2})
	require.NoError(t, err)
	assert.Equal(t, "a much longer name than before", got[1].S)
}

