/*
 * Copyright 2022 Holoinsight Project Authors. Licensed under Apache-2.0.
 */

// Package snapshot builds and holds the immutable {catalog, index, scoring
// tables} bundle the matcher actually reads (C3). A Snapshot never changes
// after Build returns it; the live pointer is swapped, never mutated in
// place (I5).
package snapshot

import (
	"fmt"
	"sort"

	"github.com/traas-stack/logmatcher/pkg/catalog"
	"github.com/traas-stack/logmatcher/pkg/fragindex"
)

// TemplateEntry is a template as compiled into a snapshot: its dense
// fragment-id sequence and cached total weight (I3), alongside the fields
// needed for diagnostics and persistence.
type TemplateEntry struct {
	ID          uint64
	Pattern     string
	FragmentIDs []uint32
	TotalWeight float64
	Example     string
	Variables   []string
}

// ReverseEntry is one (template_id, position) pair referencing a fragment,
// where position is the fragment's index within that template's ordered
// fragment list.
type ReverseEntry struct {
	TemplateID uint64
	Position   int
}

// Snapshot is the immutable bundle described in §3. It is safe for
// concurrent reads from any number of goroutines; nothing here is ever
// mutated after Build returns.
type Snapshot struct {
	Templates    []TemplateEntry // ordered by id
	byID         map[uint64]*TemplateEntry
	Fragments    []string // fragment_id -> literal
	Weights      []float64 // fragment_id -> weight
	ReverseIndex [][]ReverseEntry // fragment_id -> sorted, deduped (template_id, position)
	Index        *fragindex.Index
}

// TemplateByID returns the template entry for id, or nil if absent from this
// snapshot.
func (s *Snapshot) TemplateByID(id uint64) *TemplateEntry {
	return s.byID[id]
}

// Len reports how many templates this snapshot carries.
func (s *Snapshot) Len() int {
	return len(s.Templates)
}

// Build compiles a Snapshot from the catalog's current templates (§4.4).
// Templates with no fragment meeting minFragmentLength are rejected (I2) and
// reported via the rejected return value rather than failing the whole
// build: one malformed template must not block every other template from
// being served.
func Build(templates []catalog.Template, minFragmentLength int) (snap *Snapshot, rejected []catalog.Template, err error) {
	// Step 1: filter, then assign dense fragment ids over the deduplicated
	// fragment multiset, in order of first appearance.
	var kept []catalog.Template
	for _, t := range templates {
		if !satisfiesMinFragmentLength(t, minFragmentLength) {
			rejected = append(rejected, t)
			continue
		}
		kept = append(kept, t)
	}

	fragments := make([]string, 0, len(kept)*2)
	idByLiteral := make(map[string]uint32, len(kept)*2)
	for _, t := range kept {
		for _, lit := range t.Fragments {
			if _, ok := idByLiteral[lit]; !ok {
				idByLiteral[lit] = uint32(len(fragments))
				fragments = append(fragments, lit)
			}
		}
	}
	numFragments := len(fragments)

	// Step 2: document frequency per fragment (number of distinct templates
	// containing it), then weight = 1 - min(0.9, df/F).
	df := make([]int, numFragments)
	for _, t := range kept {
		seen := make(map[uint32]bool, len(t.Fragments))
		for _, lit := range t.Fragments {
			id := idByLiteral[lit]
			if !seen[id] {
				seen[id] = true
				df[id]++
			}
		}
	}
	weights := make([]float64, numFragments)
	for id, count := range df {
		ratio := 0.0
		if numFragments > 0 {
			ratio = float64(count) / float64(numFragments)
		}
		if ratio > 0.9 {
			ratio = 0.9
		}
		weights[id] = 1 - ratio
	}

	// Step 3: reverse index and per-template fragment-id lists with cached
	// total weights (I3).
	reverse := make([][]ReverseEntry, numFragments)
	entries := make([]TemplateEntry, 0, len(kept))
	byID := make(map[uint64]*TemplateEntry, len(kept))
	for _, t := range kept {
		ids := make([]uint32, len(t.Fragments))
		var total float64
		for pos, lit := range t.Fragments {
			id := idByLiteral[lit]
			ids[pos] = id
			total += weights[id]
			reverse[id] = append(reverse[id], ReverseEntry{TemplateID: t.ID, Position: pos})
		}
		entries = append(entries, TemplateEntry{
			ID:          t.ID,
			Pattern:     t.Pattern,
			FragmentIDs: ids,
			TotalWeight: total,
			Example:     t.Example,
			Variables:   t.Variables,
		})
	}
	for id := range reverse {
		sort.Slice(reverse[id], func(i, j int) bool {
			a, b := reverse[id][i], reverse[id][j]
			if a.TemplateID != b.TemplateID {
				return a.TemplateID < b.TemplateID
			}
			return a.Position < b.Position
		})
		reverse[id] = dedupReverse(reverse[id])
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].ID < entries[j].ID })
	for i := range entries {
		byID[entries[i].ID] = &entries[i]
	}

	// Step 4: compile the automaton.
	index := fragindex.Build(fragments)

	return &Snapshot{
		Templates:    entries,
		byID:         byID,
		Fragments:    fragments,
		Weights:      weights,
		ReverseIndex: reverse,
		Index:        index,
	}, rejected, nil
}

func dedupReverse(entries []ReverseEntry) []ReverseEntry {
	if len(entries) == 0 {
		return entries
	}
	out := entries[:1]
	for _, e := range entries[1:] {
		if e != out[len(out)-1] {
			out = append(out, e)
		}
	}
	return out
}

func satisfiesMinFragmentLength(t catalog.Template, minLen int) bool {
	for _, f := range t.Fragments {
		if len([]rune(f)) >= minLen {
			return true
		}
	}
	return false
}

// ValidationError names why a candidate template could not be used to build
// or extend a snapshot (TemplateValidationFailure, §7).
type ValidationError struct {
	Pattern string
	Reason  string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("snapshot: template %q rejected: %s", e.Pattern, e.Reason)
}
