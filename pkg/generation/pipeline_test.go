/*
 * Copyright 2022 Holoinsight Project Authors. Licensed under Apache-2.0.
 */

package generation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/traas-stack/logmatcher/pkg/catalog"
	"github.com/traas-stack/logmatcher/pkg/matcher"
	"github.com/traas-stack/logmatcher/pkg/snapshot"
)

func TestPipelineInstallsValidatedTemplate(t *testing.T) {
	cat := catalog.New()
	holder := snapshot.NewHolder()
	client := &MockClient{Candidates: []Candidate{
		{Pattern: "ERROR <*> failed", Fragments: []string{"ERROR", "failed"}, Variables: []string{"task"}},
	}}

	p := NewPipeline(Config{
		QueueSize:         16,
		GenBatchSize:      1,
		GenBatchTimeout:   50 * time.Millisecond,
		MaxConcurrentGen:  1,
		MaxRetries:        0,
		InitialBackoffMs:  1,
		MinFragmentLength: 3,
	}, cat, holder, client)
	defer p.Close()

	go p.Run()
	p.Submit("ERROR: task-42 failed")

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if holder.Load() != nil && holder.Load().Len() > 0 {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}

	snap := holder.Load()
	assert.NotNil(t, snap)
	assert.Equal(t, 1, snap.Len())
	assert.Equal(t, 1, cat.Len())

	res := matcher.MatchLine(snap, []byte("ERROR: task-99 failed"), matcher.DefaultFragmentMatchThreshold)
	assert.True(t, res.Matched)
}

func TestPipelineDiscardsInvalidCandidate(t *testing.T) {
	cat := catalog.New()
	holder := snapshot.NewHolder()
	client := &MockClient{Candidates: []Candidate{
		{Pattern: "E <*>", Fragments: []string{"E"}},
	}}

	p := NewPipeline(Config{
		QueueSize:         16,
		GenBatchSize:      1,
		GenBatchTimeout:   50 * time.Millisecond,
		MaxConcurrentGen:  1,
		MaxRetries:        0,
		InitialBackoffMs:  1,
		MinFragmentLength: 3,
	}, cat, holder, client)
	defer p.Close()

	go p.Run()
	p.Submit("E task-42")

	time.Sleep(200 * time.Millisecond)
	assert.Equal(t, 0, cat.Len())
	assert.Equal(t, snapshot.StateEmpty, holder.State())
}
