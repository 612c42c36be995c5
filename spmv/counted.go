// Copyright 2026 The spmvbench Authors. SPDX-License-Identifier: Apache-2.0

package spmv

import (
	"sync/atomic"
	"time"

	"github.com/ajroetker/spmvbench/csr"
	"github.com/ajroetker/spmvbench/workerpool"
)

// Per-element sizes of the CSR arrays and dense vectors, in bytes.
const (
	bytesPerValue = 8 // float64 matrix value
	bytesPerIndex = 4 // int32 column index
	bytesPerX     = 8 // float64 input element
	bytesPerY     = 8 // float64 output element
)

// Counters holds the memory traffic and floating-point work of one kernel
// invocation, measured inside the row loop rather than estimated from nnz.
// The in-kernel count stays correct when rows are empty, where an analytic
// estimate over nnz alone would not be.
type Counters struct {
	Bytes uint64 // read from Values, ColIndex and x, plus written to y
	Flops uint64 // one multiply and one add per stored nonzero
}

// Zero reports whether no instrumented run has populated the counters.
func (c Counters) Zero() bool { return c.Bytes == 0 || c.Flops == 0 }

// MultiplyCounted is Multiply with instrumentation: alongside y and the
// elapsed milliseconds it accumulates the bytes moved and floating-point
// operations performed. Workers count their own row ranges locally and fold
// the totals in with atomic adds, so the reduction is safe under any
// scheduling policy.
func MultiplyCounted(m *csr.Matrix, x []float64, pool *workerpool.Pool, sched Schedule) ([]float64, float64, Counters, error) {
	loop, err := loopFor(pool, sched)
	if err != nil {
		return nil, 0, Counters{}, err
	}

	y := make([]float64, m.Rows)
	var bytes, flops atomic.Uint64

	start := time.Now()
	loop(m.Rows, func(lo, hi int) {
		var b, f uint64
		for i := lo; i < hi; i++ {
			sum := 0.0
			for k := m.RowPtr[i]; k < m.RowPtr[i+1]; k++ {
				sum += m.Values[k] * x[m.ColIndex[k]]
			}
			y[i] = sum

			nk := uint64(m.RowPtr[i+1] - m.RowPtr[i])
			b += nk*(bytesPerValue+bytesPerIndex+bytesPerX) + bytesPerY
			f += 2 * nk
		}
		bytes.Add(b)
		flops.Add(f)
	})
	elapsed := float64(time.Since(start).Nanoseconds()) / 1e6

	return y, elapsed, Counters{Bytes: bytes.Load(), Flops: flops.Load()}, nil
}
