// Copyright 2026 The spmvbench Authors. SPDX-License-Identifier: Apache-2.0

package spmv

import (
	"time"

	"github.com/ajroetker/go-highway/hwy"

	"github.com/ajroetker/spmvbench/csr"
	"github.com/ajroetker/spmvbench/workerpool"
)

// MultiplyVectorized computes y = m*x with a SIMD row dot product, split
// across the pool one contiguous row range per worker. The matrix values
// load directly into vector registers; x is gathered lane by lane through
// the column indices into a small scratch buffer first, since CSR column
// accesses are not contiguous.
//
// Lane-order accumulation rounds differently from the scalar kernel, so
// results agree with Multiply only within floating-point tolerance.
func MultiplyVectorized(m *csr.Matrix, x []float64, pool *workerpool.Pool) ([]float64, float64) {
	y := make([]float64, m.Rows)

	start := time.Now()
	pool.ParallelFor(m.Rows, func(lo, hi int) {
		scratch := make([]float64, hwy.Zero[float64]().NumLanes())
		for i := lo; i < hi; i++ {
			y[i] = dotRowVec(m, x, i, scratch)
		}
	})
	elapsed := float64(time.Since(start).Nanoseconds()) / 1e6

	return y, elapsed
}

// dotRowVec computes the dot product of row i with x. scratch must have
// one slot per vector lane.
func dotRowVec(m *csr.Matrix, x []float64, i int, scratch []float64) float64 {
	lo := int(m.RowPtr[i])
	hi := int(m.RowPtr[i+1])
	lanes := len(scratch)

	sum := hwy.Zero[float64]()

	var k int
	for k = lo; k+lanes <= hi; k += lanes {
		for j := range lanes {
			scratch[j] = x[m.ColIndex[k+j]]
		}
		va := hwy.Load(m.Values[k:])
		vx := hwy.Load(scratch)
		sum = hwy.Add(sum, hwy.Mul(va, vx))
	}

	// Reduce and add scalar tail
	acc := hwy.ReduceSum(sum)
	for ; k < hi; k++ {
		acc += m.Values[k] * x[m.ColIndex[k]]
	}
	return acc
}
