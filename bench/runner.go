// Copyright 2026 The spmvbench Authors. SPDX-License-Identifier: Apache-2.0

package bench

import (
	"errors"
	"fmt"
	"math/rand"
	"path/filepath"
	"runtime"

	"k8s.io/klog/v2"

	"github.com/ajroetker/spmvbench/csr"
	"github.com/ajroetker/spmvbench/mtx"
	"github.com/ajroetker/spmvbench/spmv"
	"github.com/ajroetker/spmvbench/workerpool"
)

// ErrBadConfig reports a configuration the harness refuses to run with.
var ErrBadConfig = errors.New("bench: invalid configuration")

// Input vector value range, matching the original benchmark drivers.
const (
	vectorMin = -1000.0
	vectorMax = 1000.0
)

// Config is the validated bundle the CLI hands to Run.
type Config struct {
	MatrixPath string
	Threads    int
	Schedule   spmv.Schedule
	Iterations int
	Warmup     Warmup
	// Sequential runs the single-threaded kernel and omits the scenario
	// block from the report.
	Sequential bool
	// Vectorized selects the SIMD kernel. Byte/FLOP counters fall back to
	// the analytic estimate since that kernel is not instrumented.
	Vectorized bool
	Seed       int64
}

func (cfg Config) validate() error {
	if cfg.Iterations <= 0 {
		return fmt.Errorf("%w: iterations must be > 0, got %d", ErrBadConfig, cfg.Iterations)
	}
	if cfg.Schedule.Chunk < 0 {
		return fmt.Errorf("%w: chunk size must be >= 0, got %d", ErrBadConfig, cfg.Schedule.Chunk)
	}
	if cfg.Sequential {
		return nil
	}
	if cfg.Threads <= 0 {
		return fmt.Errorf("%w: threads must be > 0, got %d", ErrBadConfig, cfg.Threads)
	}
	// Fail fast on a bad policy, before the matrix is even loaded.
	if _, err := spmv.ParsePolicy(string(cfg.Schedule.Policy)); err != nil {
		return err
	}
	return nil
}

// Run executes one benchmark run and fills rep: load the matrix, build the
// CSR form, generate the input vector, warm up, time the iterations, and
// aggregate the metrics. On error the report keeps whatever was filled so
// far; the caller appends the fatal message and still emits it.
func Run(cfg Config, rep *Report) error {
	if err := cfg.validate(); err != nil {
		return err
	}

	rep.Matrix.Name = filepath.Base(cfg.MatrixPath)

	entries, err := mtx.ReadFile(cfg.MatrixPath)
	if err != nil {
		return err
	}
	m, err := csr.FromEntries(entries)
	if err != nil {
		return err
	}
	rep.Matrix = MatrixInfo{
		Name: rep.Matrix.Name,
		Rows: m.Rows,
		Cols: m.Cols,
		NNZ:  m.NNZ(),
	}
	klog.V(1).Infof("loaded %s: %dx%d, nnz=%d", rep.Matrix.Name, m.Rows, m.Cols, m.NNZ())

	rng := rand.New(rand.NewSource(cfg.Seed))
	x := RandomVector(rng, m.Cols, vectorMin, vectorMax)

	var pool *workerpool.Pool
	threads := cfg.Threads
	if !cfg.Sequential {
		if maxThreads := runtime.NumCPU(); threads > maxThreads {
			// Degraded parallelism is still a correct run; warn and continue.
			rep.AddError(fmt.Sprintf(
				"Requested threads (%d) exceed max available (%d); running with %d.",
				threads, maxThreads, maxThreads))
			threads = maxThreads
		}
		pool = workerpool.New(threads)
		defer pool.Close()

		rep.Scenario = &Scenario{
			Threads:        threads,
			SchedulingType: string(cfg.Schedule.Policy),
			ChunkSize:      cfg.Schedule.Chunk,
		}
	}

	var counters spmv.Counters
	var runErr error
	kernel := func(instrument bool) float64 {
		switch {
		case cfg.Sequential:
			_, d := spmv.MultiplySequential(m, x)
			return d
		case cfg.Vectorized:
			_, d := spmv.MultiplyVectorized(m, x, pool)
			return d
		case instrument:
			_, d, c, err := spmv.MultiplyCounted(m, x, pool, cfg.Schedule)
			if err != nil {
				runErr = err
				return 0
			}
			counters = c
			return d
		default:
			_, d, err := spmv.Multiply(m, x, pool, cfg.Schedule)
			if err != nil {
				runErr = err
				return 0
			}
			return d
		}
	}

	warmupMs, warmupIters := cfg.Warmup.Run(kernel)
	if runErr != nil {
		return runErr
	}
	rep.WarmupTimeMs = warmupMs
	klog.V(1).Infof("warm-up: %d iterations, %.3f ms total", warmupIters, warmupMs)

	for range cfg.Iterations {
		d := kernel(false)
		if runErr != nil {
			return runErr
		}
		rep.AddIterationMs(d)
	}

	metrics, err := ComputeMetrics(rep.IterationsMs, m.Rows, m.Cols, m.NNZ(), counters)
	if err != nil {
		return err
	}
	rep.SetMetrics(metrics)

	return nil
}
