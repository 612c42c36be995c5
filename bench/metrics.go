// Copyright 2026 The spmvbench Authors. SPDX-License-Identifier: Apache-2.0

package bench

import (
	"errors"
	"math"
	"sort"

	"github.com/ajroetker/spmvbench/spmv"
)

var (
	// ErrNoSamples is returned when aggregating an empty duration sequence;
	// there is no percentile over zero samples.
	ErrNoSamples = errors.New("bench: no iteration durations recorded")

	// ErrEmptyMatrix is returned when the matrix shape is degenerate, which
	// would make the analytic byte/FLOP estimate meaningless.
	ErrEmptyMatrix = errors.New("bench: matrix has zero rows or columns")
)

// Metrics is the terminal performance snapshot of one run, derived once
// from the full duration sequence and the byte/FLOP counters.
type Metrics struct {
	Duration90Ms        float64 // 90th-percentile iteration duration
	Flops               uint64  // total floating-point operations
	BytesMoved          uint64  // total bytes read and written
	GFLOPS              float64 // Flops / duration90
	BandwidthGBps       float64 // BytesMoved / duration90
	ArithmeticIntensity float64 // Flops per byte, a roofline-model input
}

// ComputeMetrics derives the performance snapshot from the ordered timed
// durations (milliseconds) and the counters of the calibration run. When no
// instrumented run supplied counters, they are estimated analytically from
// the matrix shape. Durations are taken as observed; outliers from system
// noise are not discarded.
func ComputeMetrics(durations []float64, rows, cols, nnz int, c spmv.Counters) (Metrics, error) {
	if rows <= 0 || cols <= 0 {
		return Metrics{}, ErrEmptyMatrix
	}
	if len(durations) == 0 {
		return Metrics{}, ErrNoSamples
	}

	if c.Zero() {
		c = estimateCounters(rows, cols, nnz)
	}

	d90 := percentile90(durations)
	seconds := d90 / 1000.0

	return Metrics{
		Duration90Ms:        d90,
		Flops:               c.Flops,
		BytesMoved:          c.Bytes,
		GFLOPS:              float64(c.Flops) / seconds / 1e9,
		BandwidthGBps:       float64(c.Bytes) / (seconds * 1e9),
		ArithmeticIntensity: float64(c.Flops) / float64(c.Bytes),
	}, nil
}

// percentile90 returns the smallest duration d such that at least 90% of
// the samples are <= d: the value at sorted index ceil(0.9*n)-1, clamped to
// the last index. For n=10 that is index 8, the 9th smallest value.
func percentile90(durations []float64) float64 {
	sorted := make([]float64, len(durations))
	copy(sorted, durations)
	sort.Float64s(sorted)

	idx := int(math.Ceil(0.9*float64(len(sorted)))) - 1
	if idx < 0 {
		idx = 0
	}
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}

// estimateCounters models the kernel's traffic from the matrix shape alone:
// 2 flops per stored nonzero, one pass over the three CSR arrays and x for
// reads, one pass over y for writes. Used only when no instrumented run
// occurred; unlike the in-kernel count it cannot account for empty rows.
func estimateCounters(rows, cols, nnz int) spmv.Counters {
	flops := uint64(2 * nnz)
	bytesRead := uint64(8*nnz) + // CSR values (float64)
		uint64(4*nnz) + // CSR column indices (int32)
		uint64(4*(rows+1)) + // CSR row pointers (int32)
		uint64(8*cols) // input vector (float64)
	bytesWritten := uint64(8 * rows) // output vector (float64)
	return spmv.Counters{Bytes: bytesRead + bytesWritten, Flops: flops}
}
