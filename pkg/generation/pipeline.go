/*
 * Copyright 2022 Holoinsight Project Authors. Licensed under Apache-2.0.
 */

package generation

import (
	"context"
	"time"

	"github.com/traas-stack/logmatcher/pkg/catalog"
	"github.com/traas-stack/logmatcher/pkg/logger"
	"github.com/traas-stack/logmatcher/pkg/metrics"
	"github.com/traas-stack/logmatcher/pkg/snapshot"
)

// Pipeline wires the full C7 flow: UnmatchedQueue -> Collector -> Dispatcher
// -> Validation -> Install -> Persistence. One Pipeline owns one catalog and
// one snapshot.Holder, so generated templates become visible to the matcher
// as soon as they are installed.
type Pipeline struct {
	queue     *UnmatchedQueue
	collector *Collector
	dispatch  *Dispatcher
	cat       *catalog.Catalog
	holder    *snapshot.Holder

	minFragmentLength int
	catalogPath       string

	stop chan struct{}
}

// Config bundles the tunables a Pipeline needs from pkg/config.
type Config struct {
	QueueSize         int
	GenBatchSize      int
	GenBatchTimeout   time.Duration
	MaxConcurrentGen  int
	MaxRetries        int
	InitialBackoffMs  int
	MinFragmentLength int
	CatalogCachePath  string
}

// NewPipeline assembles a Pipeline from its config, an already-loaded
// catalog, the matcher's live snapshot holder, and a generation Client.
func NewPipeline(cfg Config, cat *catalog.Catalog, holder *snapshot.Holder, client Client) *Pipeline {
	p := &Pipeline{
		queue:             NewUnmatchedQueue(cfg.QueueSize),
		dispatch:          NewDispatcher(client, cfg.MaxConcurrentGen, cfg.MaxRetries, cfg.InitialBackoffMs),
		cat:               cat,
		holder:            holder,
		minFragmentLength: cfg.MinFragmentLength,
		catalogPath:       cfg.CatalogCachePath,
		stop:              make(chan struct{}),
	}
	p.collector = NewCollector(cfg.GenBatchSize, cfg.GenBatchTimeout, p.handleBatch)
	return p
}

// Submit enqueues an unmatched line for eventual batching; never blocks.
func (p *Pipeline) Submit(line string) {
	p.queue.Enqueue(line)
}

// Run drains the queue into the collector until Close is called. It is meant
// to run in its own goroutine.
func (p *Pipeline) Run() {
	for {
		line, ok := p.queue.Dequeue()
		if !ok {
			return
		}
		p.collector.Offer(line)
	}
}

// Close stops the queue and flushes any partial batch still held by the
// collector.
func (p *Pipeline) Close() {
	close(p.stop)
	p.queue.Close()
	p.collector.Close()
}

// handleBatch is the Collector's flush callback: it dispatches the batch to
// the generator, validates every candidate, installs the accepted ones, and
// persists the catalog on success.
func (p *Pipeline) handleBatch(lines []string) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	candidates, err := p.dispatch.Dispatch(ctx, lines)
	if err != nil {
		logger.Warnf("generation: batch of %d lines discarded: %v", len(lines), err)
		return
	}

	accepted := 0
	for i, c := range candidates {
		source := ""
		if i < len(lines) {
			source = lines[i]
		}
		if err := Validate(c, source, p.minFragmentLength, p.cat); err != nil {
			metrics.TemplateValidationFailures.Inc()
			logger.Debugf("generation: %v", err)
			continue
		}
		if _, added := p.cat.Add(c.Pattern, c.Fragments, source, c.Variables); added {
			accepted++
		}
	}
	if accepted == 0 {
		return
	}

	p.install()
}

// install rebuilds the snapshot from the current catalog and atomically
// swaps it into the holder, persisting the catalog to disk on success
// (§4.4, §4.9 "State machine (Matcher install)").
func (p *Pipeline) install() {
	if !p.holder.BeginRebuild() {
		// another install is already in flight; the next flush will retry.
		return
	}

	snap, rejected, err := snapshot.Build(p.cat.Templates(), p.minFragmentLength)
	if err != nil {
		metrics.InstallFailures.Inc()
		_ = p.holder.AbortRebuild(err)
		return
	}
	for _, r := range rejected {
		logger.Warnf("generation: template %q dropped from snapshot: below minimum fragment length", r.Pattern)
	}

	prevLen := 0
	if prev := p.holder.Load(); prev != nil {
		prevLen = prev.Len()
	}
	p.holder.CommitInstall(snap)
	if added := snap.Len() - prevLen; added > 0 {
		metrics.TemplatesInstalled.Add(float64(added))
	}

	if p.catalogPath != "" {
		if err := p.cat.Save(p.catalogPath); err != nil {
			logger.Warnf("generation: catalog persistence failed: %v", err)
		}
	}
}
