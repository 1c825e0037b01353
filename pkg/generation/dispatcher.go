/*
 * Copyright 2022 Holoinsight Project Authors. Licensed under Apache-2.0.
 */

package generation

import (
	"context"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"github.com/traas-stack/logmatcher/pkg/logger"
	"github.com/traas-stack/logmatcher/pkg/metrics"
	"github.com/traas-stack/logmatcher/pkg/util"
	"github.com/traas-stack/logmatcher/pkg/util/strategy"
)

// Dispatcher bounds the number of in-flight generation requests at
// MAX_CONCURRENT_GEN and retries transient failures with the teacher's
// exponential backoff (proportion 0.1), discarding a batch only once retries
// are exhausted (§4.7, §7 GeneratorTransportFailure/GeneratorBatchesDiscarded).
type Dispatcher struct {
	client     Client
	sem        *semaphore.Weighted
	maxRetries int
	backoffMs  int
}

// NewDispatcher builds a Dispatcher that runs at most maxConcurrent
// generation requests at once, retrying each up to maxRetries times.
func NewDispatcher(client Client, maxConcurrent, maxRetries, initialBackoffMs int) *Dispatcher {
	return &Dispatcher{
		client:     client,
		sem:        semaphore.NewWeighted(int64(maxConcurrent)),
		maxRetries: maxRetries,
		backoffMs:  initialBackoffMs,
	}
}

// Dispatch runs one generation call for lines, blocking until a concurrency
// slot is free, retrying on error up to maxRetries times before giving up.
func (d *Dispatcher) Dispatch(ctx context.Context, lines []string) ([]Candidate, error) {
	if err := d.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer d.sem.Release(1)

	// traceId ties together the warn/discard log lines for one dispatch across
	// retries, the way the teacher's alibabacloud pipeline tags a batch of
	// records with one uuid for its whole round trip.
	traceId := uuid.NewString()
	// BackOff counts whole units and GetNext returns 1000x the current unit
	// count, so seeding it in milliseconds yields waits in microseconds and
	// keeps sub-second initial backoffs (whole seconds would truncate them to
	// zero). The cap stays at 60s.
	initMs := d.backoffMs
	if initMs < 1 {
		initMs = 1
	}
	backoff := strategy.NewBackOffStrategy(0.1,
		strategy.WithInitTime(initMs),
		strategy.WithMaxBackoffTime(60*1000))

	var lastErr error
	for attempt := 0; attempt <= d.maxRetries; attempt++ {
		candidates, err := d.client.GenerateTemplates(ctx, lines)
		if err == nil {
			return candidates, nil
		}
		lastErr = err
		metrics.GeneratorTransportFailures.Inc()
		logger.Warnf("generation[%s]: attempt %d/%d failed: %v", traceId, attempt+1, d.maxRetries+1, err)
		if attempt == d.maxRetries {
			break
		}
		// Jitter spreads out retries of concurrently-dispatched batches that
		// failed on the same upstream hiccup, instead of all waking at once.
		wait := int64(backoff.GetNext()) // microseconds
		wait += util.RandBetween64(0, wait/5+1)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(time.Duration(wait) * time.Microsecond):
		}
	}
	metrics.GeneratorBatchesDiscarded.Inc()
	logger.Warnf("generation[%s]: batch of %d lines discarded after %d attempts", traceId, len(lines), d.maxRetries+1)
	return nil, lastErr
}
