/*
 * Copyright 2022 Holoinsight Project Authors. Licensed under Apache-2.0.
 */

package histogram

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func fromCounts(counts map[uint64]uint64) *Histogram {
	h := New()
	for id, c := range counts {
		for i := uint64(0); i < c; i++ {
			h.Add(id)
		}
	}
	return h
}

func TestJSDIdenticalDistributionsIsZero(t *testing.T) {
	a := fromCounts(map[uint64]uint64{1: 90, 2: 10})
	r := CalculateJSD(a, a)
	assert.InDelta(t, 0.0, r.JSDScore, 1e-9)
}

func TestJSDIsSymmetric(t *testing.T) {
	baseline := fromCounts(map[uint64]uint64{1: 90, 2: 10})
	current := fromCounts(map[uint64]uint64{1: 50, 2: 50})

	forward := CalculateJSD(baseline, current)
	backward := CalculateJSD(current, baseline)
	assert.InDelta(t, forward.JSDScore, backward.JSDScore, 1e-9)
}

func TestJSDIsBoundedByLn2(t *testing.T) {
	baseline := fromCounts(map[uint64]uint64{1: 100})
	current := fromCounts(map[uint64]uint64{2: 100})
	r := CalculateJSD(baseline, current)
	assert.GreaterOrEqual(t, r.JSDScore, 0.0)
	assert.LessOrEqual(t, r.JSDScore, math.Ln2+1e-9)
}

// TestJSDContributionsSumToOverall asserts T7: the per-template contribution
// decomposition sums (within epsilon) to the overall JSD score, using the
// baseline/current histograms from the divergence seed scenario.
func TestJSDContributionsSumToOverall(t *testing.T) {
	baseline := fromCounts(map[uint64]uint64{1: 90, 2: 10})
	current := fromCounts(map[uint64]uint64{1: 50, 2: 50})

	r := CalculateJSD(baseline, current)

	var sum float64
	for _, c := range r.Contributions {
		sum += c.Contribution
	}
	assert.InDelta(t, r.JSDScore, sum, 1e-9)

	// both templates' probabilities moved, so both should contribute, and
	// the relative change direction should match which side moved up/down.
	assert.Len(t, r.Contributions, 2)
	var t1, t2 Contribution
	for _, c := range r.Contributions {
		switch c.TemplateID {
		case 1:
			t1 = c
		case 2:
			t2 = c
		}
	}
	assert.InDelta(t, 0.9, t1.BaselineProbability, 1e-9)
	assert.InDelta(t, 0.5, t1.CurrentProbability, 1e-9)
	assert.Less(t, t1.RelativeChange, 0.0) // share dropped 90% -> 50%
	assert.Greater(t, t2.RelativeChange, 0.0) // share rose 10% -> 50%
}

func TestJSDZeroTotalsReturnZero(t *testing.T) {
	empty := New()
	nonEmpty := fromCounts(map[uint64]uint64{1: 1})
	r := CalculateJSD(empty, nonEmpty)
	assert.Equal(t, 0.0, r.JSDScore)
	assert.Nil(t, r.Contributions)
}

func TestRelativeChangeEdgeCases(t *testing.T) {
	assert.Equal(t, 100.0, relativeChange(0, 0.5))
	assert.Equal(t, 0.0, relativeChange(0, 0))
	assert.InDelta(t, -50.0, relativeChange(0.2, 0.1), 1e-9)
}

func TestCalculateJSDBits(t *testing.T) {
	assert.InDelta(t, 1.0, CalculateJSDBits(math.Ln2), 1e-9)
}
