// Copyright 2026 The spmvbench Authors. SPDX-License-Identifier: Apache-2.0

// Command spmvbench benchmarks CSR sparse matrix-vector multiplication
// under the static, dynamic, and guided loop-scheduling policies, and
// prints a JSON report with percentile latency, GFLOPS, memory bandwidth,
// and arithmetic intensity.
//
// Usage:
//
//	spmvbench [flags] matrix.mtx
//
// The matrix is read in Matrix Market coordinate format. The report goes to
// stdout; diagnostics go to stderr (enable with -v=1). A fatal error still
// emits a complete report with the errors list populated and exits 1.
package main

import (
	"flag"
	"fmt"
	"os"
	"runtime"
	"strconv"
	"time"

	"github.com/tebeka/atexit"
	"golang.org/x/sys/cpu"
	"k8s.io/klog/v2"

	"github.com/ajroetker/spmvbench/bench"
	"github.com/ajroetker/spmvbench/spmv"
)

var (
	threads    = flag.Int("threads", defaultThreads(), "Worker count; clamped to the available CPUs (env SPMV_NUM_THREADS sets the default)")
	sched      = flag.String("sched", "static", "Scheduling policy: static, dynamic, or guided")
	chunk      = flag.Int("chunk", 0, "Rows per scheduling decision; 0 uses the policy default")
	iters      = flag.Int("iters", 1, "Number of timed iterations")
	warmup     = flag.Int("warmup", 1, "Warm-up iterations (the upper bound with -adaptive-warmup)")
	adaptive   = flag.Bool("adaptive-warmup", false, "Stop warming up once iteration durations stabilize")
	sequential = flag.Bool("seq", false, "Run the single-threaded kernel and omit the scenario block")
	vectorized = flag.Bool("simd", false, "Use the SIMD row dot-product kernel")
	seed       = flag.Int64("seed", 0, "Input-vector RNG seed; 0 derives one from the clock")
)

// defaultThreads mirrors the OMP_NUM_THREADS convention of the original
// OpenMP drivers.
func defaultThreads() int {
	if s := os.Getenv("SPMV_NUM_THREADS"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return n
		}
	}
	return runtime.NumCPU()
}

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: %s [flags] matrix.mtx\n\nFlags:\n", os.Args[0])
	flag.PrintDefaults()
}

func emit(rep *bench.Report) {
	out, err := rep.JSON()
	if err != nil {
		// The report structure is marshal-safe; this is unreachable short
		// of memory corruption, but stdout must not stay empty.
		fmt.Printf("{\"errors\": [%q]}\n", err.Error())
		return
	}
	fmt.Println(string(out))
}

func main() {
	klog.InitFlags(nil)
	flag.Usage = usage
	flag.Parse()
	atexit.Register(klog.Flush)

	rep := bench.NewReport()

	if flag.NArg() != 1 {
		rep.AddError(fmt.Sprintf("%s requires exactly one matrix path", os.Args[0]))
		emit(rep)
		atexit.Exit(1)
	}

	if *vectorized && !cpu.X86.HasAVX2 && !cpu.ARM64.HasASIMD {
		klog.Infof("no SIMD features detected; -simd runs on scalar fallback lanes")
	}

	s := *seed
	if s == 0 {
		s = time.Now().UnixNano()
	}

	cfg := bench.Config{
		MatrixPath: flag.Arg(0),
		Threads:    *threads,
		Schedule:   spmv.Schedule{Policy: spmv.Policy(*sched), Chunk: *chunk},
		Iterations: *iters,
		Warmup:     bench.Warmup{Iterations: *warmup, Adaptive: *adaptive},
		Sequential: *sequential,
		Vectorized: *vectorized,
		Seed:       s,
	}

	if err := bench.Run(cfg, rep); err != nil {
		rep.AddError("Fatal error: " + err.Error())
		emit(rep)
		atexit.Exit(1)
	}

	emit(rep)
	atexit.Exit(0)
}
