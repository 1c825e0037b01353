/*
 * Copyright 2022 Holoinsight Project Authors. Licensed under Apache-2.0.
 */

package generation

import (
	"time"

	"github.com/traas-stack/logmatcher/pkg/util/batch"
)

// Collector batches unmatched lines drained from an UnmatchedQueue, flushing
// whenever GEN_BATCH_SIZE lines have accumulated or GEN_BATCH_TIMEOUT has
// elapsed since the previous flush (or since start), whichever comes first;
// a timeout with nothing buffered flushes nothing. It is a thin adapter over
// the teacher's size/timeout batch.Processor.
type Collector struct {
	proc batch.Processor
}

// batchFunc is invoked with each flushed batch of lines.
type batchFunc func(lines []string)

type consumerFunc batchFunc

func (f consumerFunc) Consume(items []interface{}) {
	lines := make([]string, 0, len(items))
	for _, it := range items {
		if s, ok := it.(string); ok {
			lines = append(lines, s)
		}
	}
	if len(lines) > 0 {
		f(lines)
	}
}

// NewCollector builds a Collector flushing at batchSize lines or after
// timeout, whichever is first, invoking onBatch for every flush.
func NewCollector(batchSize int, timeout time.Duration, onBatch func(lines []string)) *Collector {
	proc := batch.NewBatchProcessor(
		batchSize*4,
		consumerFunc(onBatch),
		batch.WithBatchThresholdStrategy(batchSize),
		batch.WithMaxWaitStrategy(timeout),
	)
	proc.Run()
	return &Collector{proc: proc}
}

// Offer adds line to the current batch. It blocks while the processor's
// buffer is full; lines waiting upstream in the UnmatchedQueue are then
// subject to its drop-oldest policy.
func (c *Collector) Offer(line string) {
	c.proc.Put(line)
}

// Close stops the underlying processor, flushing any partial batch.
func (c *Collector) Close() {
	c.proc.Shutdown()
}
