/*
 * Copyright 2022 Holoinsight Project Authors. Licensed under Apache-2.0.
 */

package generation

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDispatcherReturnsCandidatesOnSuccess(t *testing.T) {
	client := &MockClient{Candidates: []Candidate{{Pattern: "ERROR <*>"}}}
	d := NewDispatcher(client, 2, 3, 1)

	out, err := d.Dispatch(context.Background(), []string{"ERROR: boom"})
	assert.NoError(t, err)
	assert.Equal(t, client.Candidates, out)
}

func TestDispatcherRetriesThenGivesUp(t *testing.T) {
	client := &MockClient{Err: errors.New("transport down")}
	d := NewDispatcher(client, 2, 2, 1)

	_, err := d.Dispatch(context.Background(), []string{"line"})
	assert.Error(t, err)
}

func TestDispatcherAcquiresFreeSlotWithCanceledContext(t *testing.T) {
	client := &MockClient{Candidates: []Candidate{{Pattern: "p"}}}
	d := NewDispatcher(client, 1, 0, 1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// context already canceled, but semaphore has a free slot so Acquire
	// should still succeed immediately before the dispatch call completes.
	_, err := d.Dispatch(ctx, []string{"line"})
	assert.NoError(t, err)
}
