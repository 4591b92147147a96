// Package disk implements the page-addressed random I/O layer described in
// spec §4.A: a disk manager turns a flat file into a sequence of fixed-size,
// page-id-addressed blocks.
//
// Grounded on the teacher's Pager file handling
// (_examples/SimonWaldherr-tinySQL/internal/storage/pager/pager.go,
// OpenPager/file) and its zero-initialized page buffers
// (internal/storage/pager/page.go, NewPage). Unlike the teacher, this
// package carries no WAL, CRC, or superblock machinery — those belong to
// the teacher's crash-recovery story, which spec §1 places out of scope
// ("multi-version concurrency, crash recovery logs").
package disk

import (
	"fmt"
	"os"
	"sync"

	"github.com/sjwhitworth/goheap/internal/dberr"
)

// PageID identifies a page within a file. Ids are 1-based; 0 is reserved.
type PageID uint32

// InvalidPageID is the sentinel meaning "no page".
const InvalidPageID PageID = 1<<32 - 1

// DefaultPageSize is the default page size in bytes (4 KiB), per spec §3.
const DefaultPageSize = 4096

// Manager performs page-granular random I/O over a single flat file.
type Manager struct {
	mu       sync.Mutex
	file     *os.File
	pageSize int
	nextID   PageID
}

// Open opens (creating if necessary) the file at path and wraps it in a
// Manager that serves pages of pageSize bytes. If pageSize is 0,
// DefaultPageSize is used.
func Open(path string, pageSize int) (*Manager, error) {
	if pageSize == 0 {
		pageSize = DefaultPageSize
	}
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0644)
	if err != nil {
		return nil, fmt.Errorf("disk: open %s: %w", path, dberr.IO)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("disk: stat %s: %w", path, dberr.IO)
	}
	m := &Manager{
		file:     f,
		pageSize: pageSize,
		nextID:   PageID(info.Size()/int64(pageSize)) + 1,
	}
	return m, nil
}

// PageSize returns the fixed page size this manager serves.
func (m *Manager) PageSize() int { return m.pageSize }

// AllocateNewPage atomically reserves the next page id, zero-initializes a
// page at that offset on disk, and returns the id.
func (m *Manager) AllocateNewPage() (PageID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := m.nextID
	m.nextID++

	zero := make([]byte, m.pageSize)
	if err := m.writeAt(id, zero); err != nil {
		return 0, err
	}
	return id, nil
}

// ReadPage reads exactly PageSize() bytes for id and returns them.
func (m *Manager) ReadPage(id PageID) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	buf := make([]byte, m.pageSize)
	off := int64(id) * int64(m.pageSize)
	n, err := m.file.ReadAt(buf, off)
	if err != nil && n != m.pageSize {
		return nil, fmt.Errorf("disk: read page %d: %w", id, dberr.IO)
	}
	return buf, nil
}

// WritePage serializes exactly PageSize() bytes for id, seeks, writes, and
// flushes the write to stable storage.
func (m *Manager) WritePage(id PageID, buf []byte) error {
	if len(buf) != m.pageSize {
		return fmt.Errorf("disk: write page %d: buffer is %d bytes, want %d: %w", id, len(buf), m.pageSize, dberr.InvalidInput)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.writeAt(id, buf); err != nil {
		return err
	}
	return m.file.Sync()
}

func (m *Manager) writeAt(id PageID, buf []byte) error {
	off := int64(id) * int64(m.pageSize)
	if _, err := m.file.WriteAt(buf, off); err != nil {
		return fmt.Errorf("disk: write page %d: %w", id, dberr.IO)
	}
	return nil
}

// DeallocatePage is a placeholder; space reclamation is not required by
// spec §4.A.
func (m *Manager) DeallocatePage(id PageID) error { return nil }

// Close closes the underlying file.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.file.Close(); err != nil {
		return fmt.Errorf("disk: close: %w", dberr.IO)
	}
	return nil
}
