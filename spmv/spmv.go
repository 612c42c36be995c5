// Copyright 2026 The spmvbench Authors. SPDX-License-Identifier: Apache-2.0

// Package spmv implements sparse matrix-vector multiplication (y = A*x)
// over CSR matrices, with a runtime-selectable loop-scheduling policy.
//
// Rows are independent: each output element y[i] is a dot product of row i
// with x, accumulated in a worker-local sum, so the row loop parallelizes
// without locks as long as the matrix and x stay read-only. The scheduling
// policy only changes how rows are distributed across workers, never the
// numeric result.
package spmv

import (
	"errors"
	"fmt"
	"time"

	"github.com/ajroetker/spmvbench/csr"
	"github.com/ajroetker/spmvbench/workerpool"
)

// ErrBadPolicy reports an unrecognized scheduling policy. It is returned
// before any output allocation or kernel work happens.
var ErrBadPolicy = errors.New("spmv: invalid scheduling policy")

// Policy selects how the row-iteration space is partitioned across workers.
type Policy string

const (
	// PolicyStatic partitions rows up front, independent of runtime load.
	PolicyStatic Policy = "static"
	// PolicyDynamic lets workers claim fixed-size row chunks on demand,
	// suited to matrices with irregular row lengths.
	PolicyDynamic Policy = "dynamic"
	// PolicyGuided claims chunks that start large and shrink geometrically
	// as rows are consumed.
	PolicyGuided Policy = "guided"
)

// ParsePolicy converts a policy name to a Policy.
func ParsePolicy(s string) (Policy, error) {
	switch Policy(s) {
	case PolicyStatic, PolicyDynamic, PolicyGuided:
		return Policy(s), nil
	}
	return "", fmt.Errorf("%w: %q (use static, dynamic, or guided)", ErrBadPolicy, s)
}

// Schedule configures one kernel invocation. Chunk is the number of rows
// per scheduling decision; 0 selects the policy's default granularity.
// The kernel never mutates a Schedule.
type Schedule struct {
	Policy Policy
	Chunk  int
}

// Multiply computes y = m*x on the pool using the given schedule and
// returns y along with the elapsed wall-clock milliseconds. Timing wraps
// only the parallel row loop; allocating y is excluded.
func Multiply(m *csr.Matrix, x []float64, pool *workerpool.Pool, sched Schedule) ([]float64, float64, error) {
	loop, err := loopFor(pool, sched)
	if err != nil {
		return nil, 0, err
	}

	y := make([]float64, m.Rows)

	start := time.Now()
	loop(m.Rows, func(lo, hi int) {
		multiplyRows(m, x, y, lo, hi)
	})
	elapsed := float64(time.Since(start).Nanoseconds()) / 1e6

	return y, elapsed, nil
}

// MultiplySequential computes y = m*x on the calling goroutine only and
// returns y with the elapsed milliseconds.
func MultiplySequential(m *csr.Matrix, x []float64) ([]float64, float64) {
	y := make([]float64, m.Rows)

	start := time.Now()
	multiplyRows(m, x, y, 0, m.Rows)
	elapsed := float64(time.Since(start).Nanoseconds()) / 1e6

	return y, elapsed
}

// multiplyRows computes y[i] for rows in [lo, hi). The running sum is a
// local so y[i] is written exactly once.
func multiplyRows(m *csr.Matrix, x []float64, y []float64, lo, hi int) {
	for i := lo; i < hi; i++ {
		sum := 0.0
		for k := m.RowPtr[i]; k < m.RowPtr[i+1]; k++ {
			sum += m.Values[k] * x[m.ColIndex[k]]
		}
		y[i] = sum
	}
}

// loopFor maps a schedule to the pool's loop primitive, failing fast on an
// unknown policy.
func loopFor(pool *workerpool.Pool, sched Schedule) (func(n int, fn func(lo, hi int)), error) {
	switch sched.Policy {
	case PolicyStatic:
		return func(n int, fn func(lo, hi int)) {
			pool.ParallelForStatic(n, sched.Chunk, fn)
		}, nil
	case PolicyDynamic:
		return func(n int, fn func(lo, hi int)) {
			pool.ParallelForDynamic(n, sched.Chunk, fn)
		}, nil
	case PolicyGuided:
		return func(n int, fn func(lo, hi int)) {
			pool.ParallelForGuided(n, sched.Chunk, fn)
		}, nil
	}
	return nil, fmt.Errorf("%w: %q (use static, dynamic, or guided)", ErrBadPolicy, sched.Policy)
}
