// Package rid defines RecordId (RID), the page/slot address of a tuple
// (spec §3).
package rid

import "github.com/sjwhitworth/goheap/internal/disk"

// RID identifies a tuple's location: the page holding it and its slot
// within that page.
type RID struct {
	PageID disk.PageID
	SlotID uint16
}

// Invalid is the sentinel RID, never produced by a real insert.
var Invalid = RID{PageID: disk.InvalidPageID, SlotID: 0}

// Compare gives RID's total order: by PageID, then by SlotID.
func (r RID) Compare(o RID) int {
	if r.PageID != o.PageID {
		if r.PageID < o.PageID {
			return -1
		}
		return 1
	}
	switch {
	case r.SlotID < o.SlotID:
		return -1
	case r.SlotID > o.SlotID:
		return 1
	default:
		return 0
	}
}

// Less reports whether r sorts strictly before o.
func (r RID) Less(o RID) bool { return r.Compare(o) < 0 }
