// Package replacer implements the LRU-K eviction policy of spec §4.C: pick
// the tracked, evictable frame with the largest backward K-distance,
// breaking ties among infinite-distance frames by plain LRU on the single
// most recent access.
//
// Grounded on the teacher's doubly-linked LRU list in
// _examples/SimonWaldherr-tinySQL/internal/storage/pager/pager.go
// (PageBufferPool), generalized from "one timestamp per frame" to "last K
// timestamps per frame" per original_source/handin/lru_k_replacer.rs.
package replacer

import (
	"fmt"

	"github.com/sjwhitworth/goheap/internal/dberr"
)

// FrameID identifies a buffer pool frame.
type FrameID int

type node struct {
	history   []uint64 // oldest at front, at most k entries
	evictable bool
}

// Replacer tracks per-frame access history and selects eviction victims.
type Replacer struct {
	maxSize   int
	k         int
	currentTS uint64
	nodes     map[FrameID]*node
	curSize   int // number of evictable frames
}

// New creates a Replacer for up to maxSize frames, using the K-th most
// recent access distance for eviction ranking.
func New(maxSize, k int) *Replacer {
	return &Replacer{
		maxSize: maxSize,
		k:       k,
		nodes:   make(map[FrameID]*node),
	}
}

// CurrentSize returns the number of evictable tracked frames.
func (r *Replacer) CurrentSize() int { return r.curSize }

// RecordAccess records an access to frameID at the current logical
// timestamp, creating a tracking node for it if this is the first access
// and capacity remains.
func (r *Replacer) RecordAccess(frameID FrameID) error {
	if int(frameID) >= r.maxSize {
		return fmt.Errorf("replacer: frame %d >= max size %d: %w", frameID, r.maxSize, dberr.InvalidInput)
	}
	n, ok := r.nodes[frameID]
	if !ok {
		if len(r.nodes) >= r.maxSize {
			return fmt.Errorf("replacer: no capacity to track frame %d: %w", frameID, dberr.Creation)
		}
		n = &node{}
		r.nodes[frameID] = n
	}
	n.history = append(n.history, r.currentTS)
	if len(n.history) > r.k {
		n.history = n.history[1:]
	}
	r.currentTS++
	return nil
}

// SetEvictable flips whether frameID may be chosen by Evict, adjusting
// CurrentSize on any transition. Aborts on an unknown frame.
func (r *Replacer) SetEvictable(frameID FrameID, evictable bool) {
	n, ok := r.nodes[frameID]
	if !ok {
		panic(fmt.Sprintf("replacer: set_evictable on untracked frame %d", frameID))
	}
	if n.evictable == evictable {
		return
	}
	n.evictable = evictable
	if evictable {
		r.curSize++
	} else {
		r.curSize--
	}
}

// Remove stops tracking frameID. Aborts if the frame is tracked but not
// evictable.
func (r *Replacer) Remove(frameID FrameID) {
	n, ok := r.nodes[frameID]
	if !ok {
		return
	}
	if !n.evictable {
		panic(fmt.Sprintf("replacer: remove of non-evictable frame %d", frameID))
	}
	delete(r.nodes, frameID)
	r.curSize--
}

// Evict selects and removes the evictable frame with the largest backward
// K-distance, tie-breaking infinite-distance frames by LRU on their single
// most recent access. Returns ok=false if no evictable frame exists.
func (r *Replacer) Evict() (FrameID, bool) {
	var (
		found    bool
		victim   FrameID
		isInf    bool
		metric   uint64 // if isInf: most recent ts (want smallest); else: K-distance (want largest)
	)
	for fid, n := range r.nodes {
		if !n.evictable {
			continue
		}
		candidateInf := len(n.history) < r.k
		var candidateMetric uint64
		if candidateInf {
			candidateMetric = n.history[len(n.history)-1]
		} else {
			candidateMetric = r.currentTS - n.history[0]
		}

		if !found {
			found, victim, isInf, metric = true, fid, candidateInf, candidateMetric
			continue
		}
		switch {
		case candidateInf && !isInf:
			victim, isInf, metric = fid, candidateInf, candidateMetric
		case candidateInf == isInf && candidateInf && candidateMetric < metric:
			victim, metric = fid, candidateMetric
		case candidateInf == isInf && !candidateInf && candidateMetric > metric:
			victim, metric = fid, candidateMetric
		}
	}
	if !found {
		return 0, false
	}
	delete(r.nodes, victim)
	r.curSize--
	return victim, true
}
