// Package buffer implements the buffer pool of spec §4.D: a fixed-size
// frame table shared by every heap file in the process, backed by a free
// list and an LRU-K replacement policy for eviction.
//
// Grounded on the teacher's Pager/PageBufferPool wiring in
// _examples/SimonWaldherr-tinySQL/internal/storage/pager/pager.go (frame
// table, dirty tracking, capacity-triggered eviction) and on
// original_source/handin/buffer_pool_manager.rs for the exact pin/unpin/
// evict/flush contract spec §4.D names.
package buffer

import (
	"fmt"
	"sync"

	"github.com/sjwhitworth/goheap/internal/dberr"
	"github.com/sjwhitworth/goheap/internal/disk"
	"github.com/sjwhitworth/goheap/internal/page"
	"github.com/sjwhitworth/goheap/internal/replacer"
)

// frame is one cell of the pool: at most one resident page plus its pin
// count and dirty flag. contentMu guards the page's bytes/slots
// specifically, separate from mu which guards frame metadata — per spec
// §5's lock-order requirement (disk → pool → replacer) a page must stay
// pinned for the lifetime of any lock held on its content.
type frame struct {
	contentMu sync.RWMutex
	pg        *page.Page
	pageID    disk.PageID
	pinCount  int
	dirty     bool
	valid     bool
}

// Pool is a fixed-size buffer pool shared across heap files.
type Pool struct {
	mu        sync.Mutex
	replMu    sync.Mutex
	dm        *disk.Manager
	repl      *replacer.Replacer
	frames    []*frame
	pageTable map[disk.PageID]int // pageID -> frame index
	freeList  []int
}

// New creates a pool of size frames over dm, using k as the LRU-K
// replacement parameter.
func New(dm *disk.Manager, size, k int) *Pool {
	frames := make([]*frame, size)
	free := make([]int, size)
	for i := range frames {
		frames[i] = &frame{}
		free[i] = i
	}
	return &Pool{
		dm:        dm,
		repl:      replacer.New(size, k),
		frames:    frames,
		pageTable: make(map[disk.PageID]int),
		freeList:  free,
	}
}

// Size returns the pool's frame capacity.
func (p *Pool) Size() int { return len(p.frames) }

// getFreeFrame returns an unused frame index, evicting via the replacer if
// the free list is empty. Must be called with mu held.
func (p *Pool) getFreeFrame() (int, error) {
	if n := len(p.freeList); n > 0 {
		idx := p.freeList[n-1]
		p.freeList = p.freeList[:n-1]
		return idx, nil
	}

	p.replMu.Lock()
	victim, ok := p.repl.Evict()
	p.replMu.Unlock()
	if !ok {
		return 0, fmt.Errorf("buffer: no frame available, all pinned: %w", dberr.Creation)
	}

	f := p.frames[victim]
	if f.valid && f.dirty {
		if err := p.dm.WritePage(f.pageID, f.pg.Serialize()); err != nil {
			return 0, err
		}
	}
	if f.valid {
		delete(p.pageTable, f.pageID)
	}
	f.pg = nil
	f.pageID = 0
	f.pinCount = 0
	f.dirty = false
	f.valid = false
	return int(victim), nil
}

// NewPage allocates a fresh page on disk, loads it into a frame, pins it,
// and returns its id and contents.
func (p *Pool) NewPage() (disk.PageID, *page.Page, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	idx, err := p.getFreeFrame()
	if err != nil {
		return 0, nil, err
	}

	pageID, err := p.dm.AllocateNewPage()
	if err != nil {
		return 0, nil, err
	}
	pg := page.New(pageID, p.dm.PageSize())

	f := p.frames[idx]
	f.pg = pg
	f.pageID = pageID
	f.pinCount = 1
	f.dirty = false
	f.valid = true
	p.pageTable[pageID] = idx

	p.replMu.Lock()
	p.repl.RecordAccess(replacer.FrameID(idx))
	p.repl.SetEvictable(replacer.FrameID(idx), false)
	p.replMu.Unlock()

	return pageID, pg, nil
}

// FetchPage pins and returns the page for id, reading it from disk if it is
// not already resident.
func (p *Pool) FetchPage(id disk.PageID) (*page.Page, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if idx, ok := p.pageTable[id]; ok {
		f := p.frames[idx]
		f.pinCount++
		p.replMu.Lock()
		p.repl.RecordAccess(replacer.FrameID(idx))
		p.repl.SetEvictable(replacer.FrameID(idx), false)
		p.replMu.Unlock()
		return f.pg, nil
	}

	idx, err := p.getFreeFrame()
	if err != nil {
		return nil, err
	}
	buf, err := p.dm.ReadPage(id)
	if err != nil {
		return nil, err
	}
	pg, err := page.Deserialize(buf)
	if err != nil {
		return nil, err
	}

	f := p.frames[idx]
	f.pg = pg
	f.pageID = id
	f.pinCount = 1
	f.dirty = false
	f.valid = true
	p.pageTable[id] = idx

	p.replMu.Lock()
	p.repl.RecordAccess(replacer.FrameID(idx))
	p.repl.SetEvictable(replacer.FrameID(idx), false)
	p.replMu.Unlock()

	return pg, nil
}

// UnpinPage decrements id's pin count, ORing in isDirty, and makes the
// frame evictable once the count reaches zero. Aborts if id is not
// resident; returns false if the pin count was already zero.
func (p *Pool) UnpinPage(id disk.PageID, isDirty bool) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	idx, ok := p.pageTable[id]
	if !ok {
		panic(fmt.Sprintf("buffer: unpin of non-resident page %d", id))
	}
	f := p.frames[idx]
	if f.pinCount == 0 {
		return false
	}
	f.pinCount--
	f.dirty = f.dirty || isDirty
	if f.pinCount == 0 {
		p.replMu.Lock()
		p.repl.SetEvictable(replacer.FrameID(idx), true)
		p.replMu.Unlock()
	}
	return true
}

// FlushPage writes id's current contents to disk regardless of its dirty
// flag, then clears the flag. Aborts if id is not resident.
func (p *Pool) FlushPage(id disk.PageID) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	idx, ok := p.pageTable[id]
	if !ok {
		panic(fmt.Sprintf("buffer: flush of non-resident page %d", id))
	}
	f := p.frames[idx]
	if err := p.dm.WritePage(id, f.pg.Serialize()); err != nil {
		return err
	}
	f.dirty = false
	return nil
}

// FlushAllPages flushes every resident page.
func (p *Pool) FlushAllPages() error {
	p.mu.Lock()
	ids := make([]disk.PageID, 0, len(p.pageTable))
	for id := range p.pageTable {
		ids = append(ids, id)
	}
	p.mu.Unlock()

	for _, id := range ids {
		if err := p.FlushPage(id); err != nil {
			return err
		}
	}
	return nil
}

// DeletePage removes id from the pool and deallocates it on disk. Aborts if
// id is not resident; returns false if it is currently pinned.
func (p *Pool) DeletePage(id disk.PageID) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	idx, ok := p.pageTable[id]
	if !ok {
		panic(fmt.Sprintf("buffer: delete of non-resident page %d", id))
	}
	f := p.frames[idx]
	if f.pinCount > 0 {
		return false, nil
	}

	p.replMu.Lock()
	p.repl.Remove(replacer.FrameID(idx))
	p.replMu.Unlock()

	delete(p.pageTable, id)
	f.pg = nil
	f.pageID = 0
	f.pinCount = 0
	f.dirty = false
	f.valid = false
	p.freeList = append(p.freeList, idx)

	if err := p.dm.DeallocatePage(id); err != nil {
		return false, err
	}
	return true, nil
}
