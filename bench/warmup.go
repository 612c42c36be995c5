// Copyright 2026 The spmvbench Authors. SPDX-License-Identifier: Apache-2.0

// Package bench runs the SpMV measurement pipeline: untimed warm-up, timed
// iterations, percentile aggregation, and the report consumed by the
// analysis tooling.
package bench

import (
	"math"

	"k8s.io/klog/v2"
)

// Warm-up tuning. The adaptive loop watches a sliding window of recent
// durations and stops once the current duration stays within warmupRelTol
// of the window mean for warmupStableTarget consecutive iterations.
const (
	warmupWindow       = 3
	warmupRelTol       = 0.03
	warmupStableTarget = 3
	warmupCap          = 20
	warmupEps          = 1e-9 // guards the division when the mean is ~0
)

// Warmup configures the untimed iterations that run before measurement, to
// keep first-touch and worker spin-up effects out of the timed phase.
type Warmup struct {
	// Iterations is the fixed warm-up count, or the upper bound when
	// Adaptive is set.
	Iterations int
	// Adaptive stops warming up as soon as durations stabilize instead of
	// always spending Iterations runs. A fixed count under- or over-shoots
	// depending on matrix size and cache behavior.
	Adaptive bool
}

// Run executes the warm-up phase. kernel runs one untimed invocation and
// returns its duration in milliseconds; instrument is true only on the
// first invocation, which doubles as the byte/FLOP calibration run.
// Returns the total warm-up time in milliseconds and the number of
// iterations performed, always at least 1.
func (w Warmup) Run(kernel func(instrument bool) float64) (totalMs float64, iters int) {
	if w.Adaptive {
		return w.runAdaptive(kernel)
	}

	n := max(w.Iterations, 1)
	for i := range n {
		totalMs += kernel(i == 0)
	}
	return totalMs, n
}

func (w Warmup) runAdaptive(kernel func(instrument bool) float64) (totalMs float64, iters int) {
	limit := min(max(w.Iterations, 1), warmupCap)

	window := make([]float64, 0, warmupWindow)
	stable := 0

	for iters < limit {
		d := kernel(iters == 0)
		iters++
		totalMs += d

		if len(window) == warmupWindow {
			mean := 0.0
			for _, v := range window {
				mean += v
			}
			mean /= warmupWindow

			variation := math.Abs(d-mean) / (mean + warmupEps)
			if variation < warmupRelTol {
				stable++
			} else {
				stable = 0
			}
			if stable >= warmupStableTarget {
				klog.V(1).Infof("warm-up stabilized after %d iterations", iters)
				return totalMs, iters
			}

			window = window[1:]
		}
		window = append(window, d)
	}

	klog.V(1).Infof("warm-up hit iteration cap (%d)", limit)
	return totalMs, iters
}
