/*
 * Copyright 2022 Holoinsight Project Authors. Licensed under Apache-2.0.
 */

package matcher

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/traas-stack/logmatcher/pkg/catalog"
	"github.com/traas-stack/logmatcher/pkg/snapshot"
)

func buildSnap(t *testing.T, templates []catalog.Template, minFragLen int) *snapshot.Snapshot {
	t.Helper()
	snap, rejected, err := snapshot.Build(templates, minFragLen)
	assert.NoError(t, err)
	assert.Empty(t, rejected)
	return snap
}

func TestMatchLineScenario1(t *testing.T) {
	snap := buildSnap(t, []catalog.Template{
		{ID: 1, Pattern: "t1", Fragments: []string{"ERROR", "failed"}},
	}, 1)

	r := MatchLine(snap, []byte("ERROR: task-42 failed"), DefaultFragmentMatchThreshold)
	assert.True(t, r.Matched)
	assert.Equal(t, uint64(1), r.TemplateID)
}

// TestMatchLineOrderViolation exercises §4.1 step 2/T2: a line containing a
// template's fragments out of order must not be scored as if they were all
// present. With four equally-weighted fragments, matching only one (because
// the rest occur before it, and are therefore skipped as not-in-order)
// yields a 0.25 score, below the 0.3 default threshold.
func TestMatchLineOrderViolation(t *testing.T) {
	snap := buildSnap(t, []catalog.Template{
		{ID: 1, Pattern: "t1", Fragments: []string{"AAAA", "BBBB", "CCCC", "DDDD"}},
	}, 1)

	// All four fragments appear, in reverse order. The walk accepts "AAAA"
	// (last in the line) and finds no occurrence of "BBBB", "CCCC" or "DDDD"
	// after it, so only one fragment is counted.
	r := MatchLine(snap, []byte("DDDD CCCC BBBB AAAA"), DefaultFragmentMatchThreshold)
	assert.False(t, r.Matched)
}

func TestMatchLineRejectsOutOfOrderOccurrence(t *testing.T) {
	snap := buildSnap(t, []catalog.Template{
		{ID: 1, Pattern: "t1", Fragments: []string{"AAAA", "BBBB", "CCCC", "DDDD"}},
	}, 1)

	// All four fragments are present, but "DDDD" occurs before "AAAA" in the
	// line, so the ordered-subsequence walk (starting its search for each
	// fragment strictly after the line position of the previous accepted
	// one) accepts AAAA, BBBB, CCCC in order but cannot also accept the
	// earlier occurrence of DDDD. Score is 3/4 = 0.75, above threshold —
	// demonstrating that an out-of-order occurrence is excluded from the
	// count without poisoning the fragments that *are* in order.
	line := []byte("DDDD AAAA BBBB CCCC")
	r := MatchLine(snap, line, DefaultFragmentMatchThreshold)
	assert.True(t, r.Matched)
	assert.Equal(t, uint64(1), r.TemplateID)
}

func TestMatchLineScenario3TieBreak(t *testing.T) {
	templates := []catalog.Template{
		{ID: 1, Pattern: "t1", Fragments: []string{"cpu_usage: ", "%"}},
		{ID: 2, Pattern: "t2", Fragments: []string{"cpu_usage: ", " load "}},
	}
	snap := buildSnap(t, templates, 1)

	r := MatchLine(snap, []byte("cpu_usage: 67.8% high load normal"), DefaultFragmentMatchThreshold)
	assert.True(t, r.Matched)
	// Both templates share "cpu_usage: "; t1 additionally matches "%" and t2
	// additionally matches " load ". Both fully match (score 1.0 each);
	// ties broken by fewer unmatched fragments (equal, both 0) then lowest
	// template id.
	assert.Equal(t, uint64(1), r.TemplateID)
}

func TestMatchLineEmptyLine(t *testing.T) {
	snap := buildSnap(t, []catalog.Template{
		{ID: 1, Pattern: "t1", Fragments: []string{"ERROR "}},
	}, 1)
	r := MatchLine(snap, []byte(""), DefaultFragmentMatchThreshold)
	assert.False(t, r.Matched)
}

func TestMatchLineEmptySnapshot(t *testing.T) {
	snap := buildSnap(t, nil, 1)
	r := MatchLine(snap, []byte("anything"), DefaultFragmentMatchThreshold)
	assert.False(t, r.Matched)
}

func TestMatchBatchPreservesOrderAndMatchesMatchLine(t *testing.T) {
	snap := buildSnap(t, []catalog.Template{
		{ID: 1, Pattern: "t1", Fragments: []string{"ERROR", "failed"}},
	}, 1)
	holder := snapshot.NewHolder()
	holder.BeginRebuild()
	holder.CommitInstall(snap)

	lines := make([][]byte, 1000)
	for i := range lines {
		lines[i] = []byte("ERROR: task-42 failed")
	}

	results := MatchBatch(holder, lines, DefaultFragmentMatchThreshold)
	assert.Len(t, results, 1000)
	for _, r := range results {
		assert.Equal(t, Result{TemplateID: 1, Matched: true}, r)
	}
}

func TestMatchBatchParallelMatchesMatchBatch(t *testing.T) {
	snap := buildSnap(t, []catalog.Template{
		{ID: 1, Pattern: "t1", Fragments: []string{"ERROR", "failed"}},
	}, 1)
	holder := snapshot.NewHolder()
	holder.BeginRebuild()
	holder.CommitInstall(snap)

	lines := make([][]byte, 1000)
	for i := range lines {
		lines[i] = []byte("ERROR: task-42 failed")
	}

	seq := MatchBatch(holder, lines, DefaultFragmentMatchThreshold)
	par := MatchBatchParallel(holder, lines, DefaultFragmentMatchThreshold)
	assert.Equal(t, seq, par)
}
