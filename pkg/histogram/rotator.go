/*
 * Copyright 2022 Holoinsight Project Authors. Licensed under Apache-2.0.
 */

package histogram

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/traas-stack/logmatcher/pkg/logger"
	"github.com/traas-stack/logmatcher/pkg/metrics"
	"github.com/traas-stack/logmatcher/pkg/util"
)

// Rotator accumulates matched template ids into a "current" histogram and,
// every BaselineWindow, swaps it into "baseline" and scores the pair with
// CalculateJSD (C9, §1/§2). Without this, CalculateJSD is only reachable from
// its own unit tests: ingestion never produces the baseline/current pair it
// needs. Rotator is what closes that loop.
type Rotator struct {
	mu       sync.Mutex
	baseline *Histogram
	current  *Histogram
	window   time.Duration
	last     Result
	stop     *util.StopSignal
}

// NewRotator returns a Rotator that rotates baseline/current every window.
func NewRotator(window time.Duration) *Rotator {
	return &Rotator{
		baseline: New(),
		current:  New(),
		window:   window,
		stop:     util.NewStopSignal(),
	}
}

// Add records one matched observation into the current window.
func (r *Rotator) Add(templateID uint64) {
	r.mu.Lock()
	r.current.Add(templateID)
	r.mu.Unlock()
}

// CurrentTotal reports how many observations the in-progress window holds.
func (r *Rotator) CurrentTotal() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current.Total()
}

// Run rotates the current histogram into baseline every window, aligned to
// window boundaries with util.NextDelay the way the teacher's periodic
// collectors schedule their next tick, until Close stops it.
func (r *Rotator) Run() {
	defer r.stop.StopDone()
	for {
		select {
		case <-r.stop.C:
			return
		case <-time.After(util.NextDelay(r.window)):
			r.rotate()
		}
	}
}

func (r *Rotator) rotate() {
	r.mu.Lock()
	baseline, current := r.baseline, r.current
	r.current = New()
	r.mu.Unlock()

	result := CalculateJSD(baseline, current)

	r.mu.Lock()
	r.baseline = current
	r.last = result
	r.mu.Unlock()

	metrics.DistributionDivergence.Set(result.JSDScore)
	logger.Infoz("[histogram] rotated baseline window",
		zap.Float64("jsdNats", result.JSDScore),
		zap.Int("contributions", len(result.Contributions)))
}

// Last returns the most recently computed JSD result; zero-valued until the
// first rotation.
func (r *Rotator) Last() Result {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.last
}

// Close stops the rotation loop and waits for it to exit.
func (r *Rotator) Close() {
	r.stop.StopAndWait()
}
