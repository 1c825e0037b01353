/*
 * Copyright 2022 Holoinsight Project Authors. Licensed under Apache-2.0.
 */

package histogram

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAddAndTotal(t *testing.T) {
	h := New()
	h.Add(1)
	h.Add(1)
	h.Add(2)
	assert.Equal(t, uint64(3), h.Total())
	assert.Equal(t, uint64(2), h.Count(1))
	assert.Equal(t, uint64(1), h.Count(2))
}

func TestMergeIsCommutative(t *testing.T) {
	a := New()
	a.Add(1)
	a.Add(1)
	b := New()
	b.Add(1)
	b.Add(2)

	ab := New()
	ab.Merge(a)
	ab.Merge(b)

	ba := New()
	ba.Merge(b)
	ba.Merge(a)

	assert.Equal(t, ab.Total(), ba.Total())
	assert.Equal(t, ab.Count(1), ba.Count(1))
	assert.Equal(t, ab.Count(2), ba.Count(2))
}

func TestToDistributionSumsToOne(t *testing.T) {
	h := New()
	h.Add(1)
	h.Add(1)
	h.Add(2)
	h.Add(3)
	d := h.ToDistribution()
	var sum float64
	for _, id := range h.TemplateIDs() {
		sum += d.Prob(id)
	}
	assert.InDelta(t, 1.0, sum, 1e-9)
}

func TestEmptyHistogramDistribution(t *testing.T) {
	h := New()
	d := h.ToDistribution()
	assert.Equal(t, 0.0, d.Prob(1))
}
