// Package heap implements the per-table heap file of spec §4.E: a linked
// list of slotted pages reachable through a shared buffer pool.
//
// Grounded on original_source/src/storage/heap/heap.rs for the
// insert/get/update/delete/iterate contract (including the RID-churning
// update_tuple behavior spec §9 calls out as a latent bug to preserve),
// adapted to Go's explicit pin/unpin discipline in place of Rust's
// RwLockGuard-drop-based unpinning — every FetchPage here is paired with an
// UnpinPage on every return path.
package heap

import (
	"fmt"

	"github.com/sjwhitworth/goheap/internal/buffer"
	"github.com/sjwhitworth/goheap/internal/dberr"
	"github.com/sjwhitworth/goheap/internal/disk"
	"github.com/sjwhitworth/goheap/internal/page"
	"github.com/sjwhitworth/goheap/internal/rid"
)

// Heap is a table's on-disk representation: a linked list of pages backed
// by a shared buffer pool.
type Heap struct {
	pool         *buffer.Pool
	firstPageID  disk.PageID
	lastPageID   disk.PageID
	pageCount    uint32
}

// New creates a fresh, single-page heap file backed by pool.
func New(pool *buffer.Pool) (*Heap, error) {
	id, _, err := pool.NewPage()
	if err != nil {
		return nil, fmt.Errorf("heap: allocate first page: %w", err)
	}
	pool.UnpinPage(id, true)
	return &Heap{pool: pool, firstPageID: id, lastPageID: id, pageCount: 1}, nil
}

// NumPages returns the number of pages in the chain.
func (h *Heap) NumPages() uint32 { return h.pageCount }

// FirstPageID returns the head of the page chain.
func (h *Heap) FirstPageID() disk.PageID { return h.firstPageID }

// createNewPage allocates a page, links it after the current last page, and
// advances LastPageID.
func (h *Heap) createNewPage() (disk.PageID, error) {
	newID, _, err := h.pool.NewPage()
	if err != nil {
		return 0, fmt.Errorf("heap: create new page: %w", dberr.Creation)
	}

	last, err := h.pool.FetchPage(h.lastPageID)
	if err != nil {
		h.pool.UnpinPage(newID, true)
		return 0, fmt.Errorf("heap: fetch last page to link: %w", err)
	}
	last.SetNextPageID(newID)
	h.pool.UnpinPage(h.lastPageID, true)

	h.lastPageID = newID
	h.pageCount++
	h.pool.UnpinPage(newID, true)
	return newID, nil
}

// InsertTuple inserts tuple into the last page, allocating a new page if it
// does not fit, and returns the tuple's RID.
func (h *Heap) InsertTuple(tuple []byte) (rid.RID, error) {
	last, err := h.pool.FetchPage(h.lastPageID)
	if err != nil {
		return rid.RID{}, fmt.Errorf("heap: fetch last page: %w", err)
	}
	slotID, ok := last.InsertTuple(page.TupleMetadata{}, tuple)
	if !ok {
		h.pool.UnpinPage(h.lastPageID, false)
		if _, err := h.createNewPage(); err != nil {
			return rid.RID{}, err
		}
		last, err = h.pool.FetchPage(h.lastPageID)
		if err != nil {
			return rid.RID{}, fmt.Errorf("heap: fetch new last page: %w", err)
		}
		slotID, ok = last.InsertTuple(page.TupleMetadata{}, tuple)
		if !ok {
			h.pool.UnpinPage(h.lastPageID, false)
			return rid.RID{}, fmt.Errorf("heap: tuple of %d bytes does not fit on a fresh page: %w", len(tuple), dberr.InvalidInput)
		}
	}
	h.pool.UnpinPage(h.lastPageID, true)
	return rid.RID{PageID: h.lastPageID, SlotID: slotID}, nil
}

// GetTuple returns the tuple at r.
func (h *Heap) GetTuple(r rid.RID) ([]byte, error) {
	pg, err := h.pool.FetchPage(r.PageID)
	if err != nil {
		return nil, fmt.Errorf("heap: fetch page %d: %w", r.PageID, err)
	}
	defer h.pool.UnpinPage(r.PageID, false)
	return pg.GetTuple(r.PageID, r.SlotID)
}

// DeleteTuple tombstones the tuple at r.
func (h *Heap) DeleteTuple(r rid.RID) error {
	pg, err := h.pool.FetchPage(r.PageID)
	if err != nil {
		return fmt.Errorf("heap: fetch page %d: %w", r.PageID, err)
	}
	defer h.pool.UnpinPage(r.PageID, true)
	return pg.DeleteTuple(r.PageID, r.SlotID)
}

// UpdateTuple replaces the tuple at r with tuple. If the new tuple is the
// same size as the old one, it is updated in place and r is unchanged.
// Otherwise the old slot is tombstoned and a new tuple inserted — possibly
// on a different page — and the returned RID differs from r. Per spec §9
// this size churn is preserved: callers that cache RIDs must re-key
// themselves (internal/txn.Manager.Update returns the new RID to its caller
// and keeps no directory of its own).
func (h *Heap) UpdateTuple(r rid.RID, tuple []byte) (rid.RID, error) {
	pg, err := h.pool.FetchPage(r.PageID)
	if err != nil {
		return rid.RID{}, fmt.Errorf("heap: fetch page %d: %w", r.PageID, err)
	}
	meta, err := pg.GetTupleMetadata(r.PageID, r.SlotID)
	if err != nil {
		h.pool.UnpinPage(r.PageID, false)
		return rid.RID{}, err
	}
	existing, err := pg.GetTuple(r.PageID, r.SlotID)
	if err != nil {
		h.pool.UnpinPage(r.PageID, false)
		return rid.RID{}, err
	}

	if len(existing) == len(tuple) {
		err := pg.UpdateTupleInPlaceUnchecked(r.PageID, r.SlotID, meta, tuple)
		h.pool.UnpinPage(r.PageID, true)
		if err != nil {
			return rid.RID{}, err
		}
		return r, nil
	}

	if err := pg.DeleteTuple(r.PageID, r.SlotID); err != nil {
		h.pool.UnpinPage(r.PageID, true)
		return rid.RID{}, err
	}
	h.pool.UnpinPage(r.PageID, true)

	return h.InsertTuple(tuple)
}

// Iterator walks every non-tombstone tuple in the heap file, page by page.
type Iterator struct {
	h        *Heap
	pageID   disk.PageID
	pageIter *page.Iterator
}

// Iter returns a fresh Iterator starting at the first page.
func (h *Heap) Iter() (*Iterator, error) {
	it := &Iterator{h: h, pageID: h.firstPageID}
	if err := it.openCurrentPage(); err != nil {
		return nil, err
	}
	return it, nil
}

func (it *Iterator) openCurrentPage() error {
	pg, err := it.h.pool.FetchPage(it.pageID)
	if err != nil {
		return fmt.Errorf("heap: fetch page %d during scan: %w", it.pageID, err)
	}
	it.pageIter = pg.Iter()
	it.h.pool.UnpinPage(it.pageID, false)
	return nil
}

// Next returns the next (RID, tuple) pair, or ok=false once the chain is
// exhausted.
func (it *Iterator) Next() (rid.RID, []byte, bool, error) {
	for {
		slotID, tuple, ok := it.pageIter.Next()
		if ok {
			return rid.RID{PageID: it.pageID, SlotID: slotID}, tuple, true, nil
		}
		pg, err := it.h.pool.FetchPage(it.pageID)
		if err != nil {
			return rid.RID{}, nil, false, err
		}
		nextID := pg.NextPageID()
		it.h.pool.UnpinPage(it.pageID, false)
		if nextID == disk.InvalidPageID {
			return rid.RID{}, nil, false, nil
		}
		it.pageID = nextID
		if err := it.openCurrentPage(); err != nil {
			return rid.RID{}, nil, false, err
		}
	}
}
