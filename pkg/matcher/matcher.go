/*
 * Copyright 2022 Holoinsight Project Authors. Licensed under Apache-2.0.
 */

// Package matcher is the matcher core (C4): given a snapshot and a line,
// returns the best-matching template id or none. It is a pure function of
// its two inputs; it never blocks and never errors (§4.1 "Failure
// semantics").
package matcher

import (
	"sort"

	"github.com/traas-stack/logmatcher/pkg/snapshot"
)

// DefaultFragmentMatchThreshold is the §6 configuration default.
const DefaultFragmentMatchThreshold = 0.3

// Result is the outcome of matching one line.
type Result struct {
	TemplateID uint64
	Matched    bool
}

// MatchLine implements §4.1's six-step algorithm. threshold is the
// fragment_match_threshold from configuration; callers typically hold it
// once per snapshot generation rather than per call.
func MatchLine(snap *snapshot.Snapshot, line []byte, threshold float64) Result {
	if len(line) == 0 || snap == nil || snap.Len() == 0 {
		return Result{}
	}

	s := Get()
	defer Put(s)

	// Step 1: single left-to-right automaton pass; group occurrences by
	// fragment id. The automaton reports every occurrence of each literal,
	// overlapping ones included, so a fragment may have several positions.
	s.hits = snap.Index.Scan(line, s.hits)
	for _, h := range s.hits {
		s.posByFragment[h.FragmentID] = append(s.posByFragment[h.FragmentID], h.Pos)
	}
	for _, positions := range s.posByFragment {
		sort.Ints(positions)
	}

	// Gather every template referenced by a hit fragment as a candidate.
	for _, h := range s.hits {
		for _, re := range snap.ReverseIndex[h.FragmentID] {
			if !s.candidateSeen[re.TemplateID] {
				s.candidateSeen[re.TemplateID] = true
				s.candidates = append(s.candidates, re.TemplateID)
			}
		}
	}

	var (
		bestID        uint64
		bestScore     float64
		bestUnmatched int
		haveBest      bool
	)

	for _, tid := range s.candidates {
		t := snap.TemplateByID(tid)
		if t == nil {
			continue
		}

		// Step 2: ordered-subsequence property. Walk the template's
		// fragments in position order; for each, pick the earliest
		// occurrence strictly after the line position of the last
		// fragment accepted into the sequence. A fragment with no
		// qualifying occurrence is skipped — not counted — without
		// resetting what has already been accepted (T2).
		lastPos := -1
		var matchedWeight float64
		matchedCount := 0
		for _, fid := range t.FragmentIDs {
			positions := s.posByFragment[fid]
			if len(positions) == 0 {
				continue
			}
			idx := sort.Search(len(positions), func(i int) bool { return positions[i] > lastPos })
			if idx == len(positions) {
				continue
			}
			lastPos = positions[idx]
			matchedWeight += weightOf(snap, fid)
			matchedCount++
		}

		// Step 3: score as a fraction of the template's total weight.
		var score float64
		if t.TotalWeight > 0 {
			score = matchedWeight / t.TotalWeight
		}

		// Step 4: reject candidates below threshold.
		if score < threshold {
			continue
		}

		unmatched := len(t.FragmentIDs) - matchedCount

		// Step 5: highest score wins; ties broken by fewer unmatched
		// fragments, then lowest template id.
		if !haveBest ||
			score > bestScore ||
			(score == bestScore && unmatched < bestUnmatched) ||
			(score == bestScore && unmatched == bestUnmatched && tid < bestID) {
			haveBest = true
			bestID = tid
			bestScore = score
			bestUnmatched = unmatched
		}
	}

	if !haveBest {
		return Result{}
	}
	return Result{TemplateID: bestID, Matched: true}
}

func weightOf(snap *snapshot.Snapshot, fragmentID uint32) float64 {
	if int(fragmentID) >= len(snap.Weights) {
		return 0
	}
	return snap.Weights[fragmentID]
}
