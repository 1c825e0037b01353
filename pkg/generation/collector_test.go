/*
 * Copyright 2022 Holoinsight Project Authors. Licensed under Apache-2.0.
 */

package generation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestCollectorSplitsOversizedBurstAcrossTwoBatches is seed scenario 5 (§8):
// 15 identical unmatched lines offered at once with gen_batch_size=10 must
// flush as one batch of 10 (size threshold) followed by a second batch of 5
// once GEN_BATCH_TIMEOUT elapses with no further lines offered.
func TestCollectorSplitsOversizedBurstAcrossTwoBatches(t *testing.T) {
	batches := make(chan []string, 4)
	c := NewCollector(10, 100*time.Millisecond, func(lines []string) {
		batches <- lines
	})
	defer c.Close()

	for i := 0; i < 15; i++ {
		c.Offer("connection refused")
	}

	var first, second []string
	select {
	case first = <-batches:
	case <-time.After(time.Second):
		t.Fatal("first batch never flushed")
	}
	assert.Len(t, first, 10)

	select {
	case second = <-batches:
	case <-time.After(time.Second):
		t.Fatal("second batch never flushed on timeout")
	}
	assert.Len(t, second, 5)

	select {
	case extra := <-batches:
		t.Fatalf("unexpected third batch: %v", extra)
	case <-time.After(200 * time.Millisecond):
	}
}

func TestCollectorFlushesOnTimeoutAlone(t *testing.T) {
	batches := make(chan []string, 1)
	c := NewCollector(10, 50*time.Millisecond, func(lines []string) {
		batches <- lines
	})
	defer c.Close()

	c.Offer("connection refused")
	c.Offer("connection refused")

	select {
	case batch := <-batches:
		require.Len(t, batch, 2)
	case <-time.After(time.Second):
		t.Fatal("batch never flushed on timeout")
	}
}
