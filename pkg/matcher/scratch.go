/*
 * Copyright 2022 Holoinsight Project Authors. Licensed under Apache-2.0.
 */

package matcher

import (
	"sync"

	"github.com/traas-stack/logmatcher/pkg/fragindex"
)

// inlineHits/inlineCandidates mirror the stack-first capacity the original
// matcher reserves before spilling to the heap (§4.2: "inline up to 8
// fragments and 4 candidates ... covers >95% of templates observed in the
// corpus"). Go has no stack-allocated growable vector equivalent to Rust's
// SmallVec, so this is expressed as a capacity hint on a pooled slice: as
// long as a line's hit/candidate count stays within these bounds, Put/Get
// never trigger a fresh heap allocation across calls.
const (
	inlineHits       = 8
	inlineCandidates = 4
)

// Scratch is the per-call reusable workspace (C5). It is never shared
// between concurrent calls; callers borrow one from the package pool, use it
// for exactly one match_line/match_batch call, and return it.
type Scratch struct {
	hits          []fragindex.Hit
	posByFragment map[uint32][]int
	candidateSeen map[uint64]bool
	candidates    []uint64
}

var scratchPool = sync.Pool{
	New: func() interface{} {
		return &Scratch{
			hits:          make([]fragindex.Hit, 0, inlineHits),
			posByFragment: make(map[uint32][]int, inlineHits),
			candidateSeen: make(map[uint64]bool, inlineCandidates),
			candidates:    make([]uint64, 0, inlineCandidates),
		}
	},
}

// Get borrows a Scratch from the pool. Callers must return it with Put.
func Get() *Scratch {
	return scratchPool.Get().(*Scratch)
}

// Put clears s and returns it to the pool.
func Put(s *Scratch) {
	s.reset()
	scratchPool.Put(s)
}

func (s *Scratch) reset() {
	s.hits = s.hits[:0]
	for k := range s.posByFragment {
		delete(s.posByFragment, k)
	}
	for k := range s.candidateSeen {
		delete(s.candidateSeen, k)
	}
	s.candidates = s.candidates[:0]
}
