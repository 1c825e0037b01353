/*
 * Copyright 2022 Holoinsight Project Authors. Licensed under Apache-2.0.
 */

package histogram

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRotatorAccumulatesIntoCurrentWindow(t *testing.T) {
	r := NewRotator(time.Hour)
	r.Add(1)
	r.Add(1)
	r.Add(2)
	assert.Equal(t, uint64(3), r.CurrentTotal())
	assert.Equal(t, Result{}, r.Last())
}

func TestRotatorRotateScoresAgainstPreviousWindow(t *testing.T) {
	r := NewRotator(time.Hour)
	r.Add(1)
	r.Add(1)
	r.rotate()
	assert.Equal(t, uint64(0), r.CurrentTotal())
	assert.Equal(t, Result{}, r.Last()) // first rotation has an empty baseline

	r.Add(1)
	r.Add(2)
	r.rotate()
	last := r.Last()
	assert.Greater(t, last.JSDScore, 0.0)
	assert.NotEmpty(t, last.Contributions)
}

func TestRotatorCloseStopsRunLoop(t *testing.T) {
	r := NewRotator(10 * time.Millisecond)
	done := make(chan struct{})
	go func() {
		r.Run()
		close(done)
	}()

	select {
	case <-done:
		t.Fatal("Run returned before Close")
	case <-time.After(20 * time.Millisecond):
	}

	r.Close()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not exit after Close")
	}
}
