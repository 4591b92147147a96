// Package page implements the slotted page binary format of spec §4.B and
// §3: a fixed-size page holding variable-length tuples, growing the slot
// array forward from the header and tuple bodies backward from the tail.
//
// Grounded on the teacher's
// _examples/SimonWaldherr-tinySQL/internal/storage/pager/slotted_page.go
// for the "slots grow forward, records grow backward" layout, and on
// original_source/handin/table_page.rs for the exact tombstone-on-serialize
// semantics (a deleted slot's {offset,size} is wiped to zero only when the
// page is serialized, not the instant TupleMetadata flips).
package page

import (
	"encoding/binary"
	"fmt"

	"github.com/sjwhitworth/goheap/internal/dberr"
	"github.com/sjwhitworth/goheap/internal/disk"
)

// headerSize is the fixed page header: page_id(4) + next_page_id(4) +
// live_count(2) + deleted_count(2).
const headerSize = 12

// slotEntrySize is the persisted size of one slot directory entry:
// offset(2) + size(2).
const slotEntrySize = 4

// TupleMetadata carries per-slot bookkeeping. Currently just a tombstone
// flag, per spec §3.
type TupleMetadata struct {
	IsDeleted bool
}

// slot is the in-memory counterpart of a persisted slot entry. offset/size
// are retained even after IsDeleted flips true; they are only lost once the
// page round-trips through Serialize/Deserialize (matching the original
// Rust table_page.rs behavior this spec preserves).
type slot struct {
	offset uint16
	size   uint16
	meta   TupleMetadata
}

// Page is a slotted page: a page id, a link to the next page in its heap
// file's chain, and a slot-addressed set of tuples.
type Page struct {
	id         disk.PageID
	nextPageID disk.PageID
	slots      []slot
	liveCount  uint16
	deleted    uint16
	data       []byte // tuple payload region, length == pageSize
	pageSize   int
}

// New creates an empty page of the given id and size, with no next page.
func New(id disk.PageID, pageSize int) *Page {
	return &Page{
		id:         id,
		nextPageID: disk.InvalidPageID,
		data:       make([]byte, pageSize),
		pageSize:   pageSize,
	}
}

func (p *Page) ID() disk.PageID         { return p.id }
func (p *Page) NextPageID() disk.PageID { return p.nextPageID }
func (p *Page) SetNextPageID(id disk.PageID) {
	p.nextPageID = id
}
func (p *Page) LiveCount() uint16    { return p.liveCount }
func (p *Page) DeletedCount() uint16 { return p.deleted }
func (p *Page) SlotCount() int       { return len(p.slots) }

// totalTupleCount mirrors table_page.rs's total_tuple_count: live + deleted.
func (p *Page) totalTupleCount() int { return len(p.slots) }

// nextTupleOffset computes where a new tuple of the given size would start,
// or false if it does not fit. The fit rule is the strict
// header_bytes + 4 > next_tuple_start check named authoritative by spec §9.
func (p *Page) nextTupleOffset(size int) (int, bool) {
	tuplesEnd := p.pageSize
	if n := p.totalTupleCount(); n > 0 {
		tuplesEnd = int(p.slots[n-1].offset)
	}
	if size > tuplesEnd {
		return 0, false
	}
	tuplesStart := tuplesEnd - size
	headerBytes := headerSize + (p.totalTupleCount()+1)*slotEntrySize
	if headerBytes+4 > tuplesStart {
		return 0, false
	}
	return tuplesStart, true
}

// InsertTuple appends a new slot at index live+deleted, copies tuple into
// the computed offset, and returns its slot id. Returns false if the tuple
// does not fit.
func (p *Page) InsertTuple(meta TupleMetadata, tuple []byte) (uint16, bool) {
	offset, ok := p.nextTupleOffset(len(tuple))
	if !ok {
		return 0, false
	}
	copy(p.data[offset:offset+len(tuple)], tuple)
	slotID := uint16(len(p.slots))
	p.slots = append(p.slots, slot{offset: uint16(offset), size: uint16(len(tuple)), meta: meta})
	if meta.IsDeleted {
		p.deleted++
	} else {
		p.liveCount++
	}
	return slotID, true
}

func (p *Page) checkRID(pageID disk.PageID, slotID uint16) error {
	if pageID != p.id {
		return fmt.Errorf("page: rid page %d does not match page %d: %w", pageID, p.id, dberr.InvalidInput)
	}
	if int(slotID) >= p.totalTupleCount() {
		return fmt.Errorf("page: slot %d out of range [0,%d): %w", slotID, p.totalTupleCount(), dberr.OutOfBounds)
	}
	return nil
}

// GetTuple returns the tuple bytes at (pageID, slotID).
func (p *Page) GetTuple(pageID disk.PageID, slotID uint16) ([]byte, error) {
	if err := p.checkRID(pageID, slotID); err != nil {
		return nil, err
	}
	s := p.slots[slotID]
	if s.meta.IsDeleted {
		return nil, fmt.Errorf("page: slot %d is deleted: %w", slotID, dberr.InvalidInput)
	}
	out := make([]byte, s.size)
	copy(out, p.data[s.offset:s.offset+s.size])
	return out, nil
}

// GetTupleMetadata returns the metadata at (pageID, slotID).
func (p *Page) GetTupleMetadata(pageID disk.PageID, slotID uint16) (TupleMetadata, error) {
	if err := p.checkRID(pageID, slotID); err != nil {
		return TupleMetadata{}, err
	}
	return p.slots[slotID].meta, nil
}

// UpdateTupleMetadata replaces the metadata at (pageID, slotID), adjusting
// the live/deleted counters for any is_deleted transition. It does not
// touch the underlying bytes — only Serialize destroys a tombstoned slot's
// offset/size, matching original_source/handin/table_page.rs.
func (p *Page) UpdateTupleMetadata(pageID disk.PageID, slotID uint16, meta TupleMetadata) error {
	if err := p.checkRID(pageID, slotID); err != nil {
		return err
	}
	old := p.slots[slotID].meta
	p.adjustCounts(old.IsDeleted, meta.IsDeleted)
	p.slots[slotID].meta = meta
	return nil
}

func (p *Page) adjustCounts(wasDeleted, nowDeleted bool) {
	switch {
	case wasDeleted && !nowDeleted:
		p.liveCount++
		p.deleted--
	case !wasDeleted && nowDeleted:
		p.liveCount--
		p.deleted++
	}
}

// DeleteTuple tombstones slot (pageID, slotID).
func (p *Page) DeleteTuple(pageID disk.PageID, slotID uint16) error {
	return p.UpdateTupleMetadata(pageID, slotID, TupleMetadata{IsDeleted: true})
}

// UpdateTupleInPlaceUnchecked replaces the bytes at (pageID, slotID) and
// its metadata. tuple must be exactly the slot's current size.
func (p *Page) UpdateTupleInPlaceUnchecked(pageID disk.PageID, slotID uint16, meta TupleMetadata, tuple []byte) error {
	if err := p.checkRID(pageID, slotID); err != nil {
		return err
	}
	s := p.slots[slotID]
	if int(s.size) != len(tuple) {
		panic(fmt.Sprintf("page: update_tuple_in_place_unchecked size mismatch: slot has %d bytes, got %d", s.size, len(tuple)))
	}
	old := s.meta
	p.adjustCounts(old.IsDeleted, meta.IsDeleted)
	p.slots[slotID].meta = meta
	copy(p.data[s.offset:s.offset+s.size], tuple)
	return nil
}

// Serialize encodes the page into exactly pageSize bytes, little-endian,
// per spec §6. A tombstoned slot's offset/size are written as zero,
// destroying the payload pointer even though the in-memory slot still
// references its bytes; tombstoned space is never reclaimed.
func (p *Page) Serialize() []byte {
	out := make([]byte, p.pageSize)
	copy(out, p.data)

	binary.LittleEndian.PutUint32(out[0:4], uint32(p.id))
	binary.LittleEndian.PutUint32(out[4:8], uint32(p.nextPageID))
	binary.LittleEndian.PutUint16(out[8:10], p.liveCount)
	binary.LittleEndian.PutUint16(out[10:12], p.deleted)

	off := headerSize
	for _, s := range p.slots {
		if s.meta.IsDeleted {
			binary.LittleEndian.PutUint16(out[off:off+2], 0)
			binary.LittleEndian.PutUint16(out[off+2:off+4], 0)
		} else {
			binary.LittleEndian.PutUint16(out[off:off+2], s.offset)
			binary.LittleEndian.PutUint16(out[off+2:off+4], s.size)
		}
		off += slotEntrySize
	}
	return out
}

// Deserialize decodes a page previously produced by Serialize. A slot whose
// persisted offset and size are both zero is treated as a tombstone.
func Deserialize(buf []byte) (*Page, error) {
	if len(buf) < headerSize {
		return nil, fmt.Errorf("page: buffer too small: %w", dberr.InvalidData)
	}
	p := &Page{
		id:         disk.PageID(binary.LittleEndian.Uint32(buf[0:4])),
		nextPageID: disk.PageID(binary.LittleEndian.Uint32(buf[4:8])),
		liveCount:  binary.LittleEndian.Uint16(buf[8:10]),
		deleted:    binary.LittleEndian.Uint16(buf[10:12]),
		data:       append([]byte(nil), buf...),
		pageSize:   len(buf),
	}
	total := int(p.liveCount) + int(p.deleted)
	off := headerSize
	for i := 0; i < total; i++ {
		if off+slotEntrySize > len(buf) {
			return nil, fmt.Errorf("page: truncated slot directory: %w", dberr.InvalidData)
		}
		o := binary.LittleEndian.Uint16(buf[off : off+2])
		s := binary.LittleEndian.Uint16(buf[off+2 : off+4])
		deleted := o == 0 && s == 0
		p.slots = append(p.slots, slot{offset: o, size: s, meta: TupleMetadata{IsDeleted: deleted}})
		off += slotEntrySize
	}
	return p, nil
}

// Iterator yields (slotID, tuple) for every non-tombstone slot in slot-id
// order.
type Iterator struct {
	p   *Page
	idx int
}

// Iter returns a fresh Iterator over p starting at slot 0.
func (p *Page) Iter() *Iterator { return &Iterator{p: p} }

// Next advances to the next live slot and returns it, or ok=false once
// exhausted.
func (it *Iterator) Next() (slotID uint16, tuple []byte, ok bool) {
	for it.idx < it.p.totalTupleCount() {
		i := it.idx
		it.idx++
		s := it.p.slots[i]
		if s.meta.IsDeleted {
			continue
		}
		out := make([]byte, s.size)
		copy(out, it.p.data[s.offset:s.offset+s.size])
		return uint16(i), out, true
	}
	return 0, nil, false
}

// Nth advances the iterator by n slots (skipping tombstones within that
// span the same way repeated Next calls would) before returning the next
// live slot.
func (it *Iterator) Nth(n int) (slotID uint16, tuple []byte, ok bool) {
	for i := 0; i < n; i++ {
		if _, _, ok := it.Next(); !ok {
			return 0, nil, false
		}
	}
	return it.Next()
}
