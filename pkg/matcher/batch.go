/*
 * Copyright 2022 Holoinsight Project Authors. Licensed under Apache-2.0.
 */

package matcher

import (
	"runtime"
	"sync"

	"github.com/traas-stack/logmatcher/pkg/snapshot"
)

// ParallelThreshold is the line count above which MatchBatchParallel is
// expected to outperform MatchBatch (§4.5: "suitable for batches above
// roughly 1,000 lines"). The choice of which entry point to call remains the
// caller's; this constant exists purely as documentation/a default for
// callers who want one.
const ParallelThreshold = 1000

// MatchBatch loads the snapshot pointer exactly once and matches every line
// against that single snapshot, preserving input order (§4.5, T4).
func MatchBatch(holder *snapshot.Holder, lines [][]byte, threshold float64) []Result {
	snap := holder.Load()
	results := make([]Result, len(lines))
	for i, line := range lines {
		results[i] = MatchLine(snap, line, threshold)
	}
	return results
}

// MatchBatchParallel partitions lines across runtime.GOMAXPROCS(0) worker
// goroutines, each loading the snapshot pointer once, and returns results in
// input order (§4.5, T5) — the idiomatic Go analogue of the original's
// rayon::par_iter data-parallel split.
func MatchBatchParallel(holder *snapshot.Holder, lines [][]byte, threshold float64) []Result {
	n := len(lines)
	if n == 0 {
		return nil
	}

	workers := runtime.GOMAXPROCS(0)
	if workers > n {
		workers = n
	}
	if workers < 1 {
		workers = 1
	}

	snap := holder.Load()
	results := make([]Result, n)
	chunk := (n + workers - 1) / workers

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		start := w * chunk
		if start >= n {
			break
		}
		end := start + chunk
		if end > n {
			end = n
		}
		wg.Add(1)
		go func(start, end int) {
			defer wg.Done()
			for i := start; i < end; i++ {
				results[i] = MatchLine(snap, lines[i], threshold)
			}
		}(start, end)
	}
	wg.Wait()
	return results
}
