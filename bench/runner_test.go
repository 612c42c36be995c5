// Copyright 2026 The spmvbench Authors. SPDX-License-Identifier: Apache-2.0

package bench

import (
	"math/rand"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajroetker/spmvbench/csr"
	"github.com/ajroetker/spmvbench/mtx"
	"github.com/ajroetker/spmvbench/spmv"
)

const diagSample = `%%MatrixMarket matrix coordinate real general
3 3 3
1 1 2.0
2 2 3.0
3 3 4.0
`

func writeMatrix(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "diag3.mtx")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func baseConfig(path string) Config {
	return Config{
		MatrixPath: path,
		Threads:    2,
		Schedule:   spmv.Schedule{Policy: spmv.PolicyStatic},
		Iterations: 3,
		Warmup:     Warmup{Iterations: 1},
		Seed:       42,
	}
}

func TestRunFillsReport(t *testing.T) {
	path := writeMatrix(t, diagSample)

	for _, policy := range []spmv.Policy{spmv.PolicyStatic, spmv.PolicyDynamic, spmv.PolicyGuided} {
		cfg := baseConfig(path)
		cfg.Schedule.Policy = policy

		rep := NewReport()
		require.NoError(t, Run(cfg, rep))

		assert.Equal(t, "diag3.mtx", rep.Matrix.Name)
		assert.Equal(t, 3, rep.Matrix.Rows)
		assert.Equal(t, 3, rep.Matrix.Cols)
		assert.Equal(t, 3, rep.Matrix.NNZ)

		require.NotNil(t, rep.Scenario)
		assert.Equal(t, string(policy), rep.Scenario.SchedulingType)
		assert.Equal(t, 2, rep.Scenario.Threads)

		assert.Len(t, rep.IterationsMs, 3)
		assert.GreaterOrEqual(t, rep.WarmupTimeMs, 0.0)
		assert.Greater(t, rep.Statistics.GFLOPS, 0.0)
		assert.Greater(t, rep.Statistics.BandwidthGBps, 0.0)
		assert.Empty(t, rep.Errors)

		// The calibration run measured the counters in-kernel.
		assert.EqualValues(t, 2*3, rep.Statistics.Flops)
	}
}

func TestRunSequentialOmitsScenario(t *testing.T) {
	cfg := baseConfig(writeMatrix(t, diagSample))
	cfg.Sequential = true
	cfg.Threads = 0 // irrelevant in sequential mode

	rep := NewReport()
	require.NoError(t, Run(cfg, rep))

	assert.Nil(t, rep.Scenario)
	assert.Len(t, rep.IterationsMs, 3)
	// No instrumented run: metrics come from the analytic estimate.
	assert.EqualValues(t, 6, rep.Statistics.Flops)
}

func TestRunVectorized(t *testing.T) {
	cfg := baseConfig(writeMatrix(t, diagSample))
	cfg.Vectorized = true

	rep := NewReport()
	require.NoError(t, Run(cfg, rep))
	assert.Len(t, rep.IterationsMs, 3)
	assert.Greater(t, rep.Statistics.GFLOPS, 0.0)
}

func TestRunClampsThreads(t *testing.T) {
	cfg := baseConfig(writeMatrix(t, diagSample))
	cfg.Threads = runtime.NumCPU() * 64

	rep := NewReport()
	require.NoError(t, Run(cfg, rep), "over-large thread count degrades, never fails")

	require.NotEmpty(t, rep.Errors)
	assert.Contains(t, rep.Errors[0], "exceed max available")
	require.NotNil(t, rep.Scenario)
	assert.Equal(t, runtime.NumCPU(), rep.Scenario.Threads)
	assert.Len(t, rep.IterationsMs, 3, "the run still completes with valid metrics")
}

func TestRunAdaptiveWarmup(t *testing.T) {
	cfg := baseConfig(writeMatrix(t, diagSample))
	cfg.Warmup = Warmup{Iterations: 10, Adaptive: true}

	rep := NewReport()
	require.NoError(t, Run(cfg, rep))
	assert.Greater(t, rep.WarmupTimeMs, 0.0)
}

func TestRunMissingFile(t *testing.T) {
	cfg := baseConfig(filepath.Join(t.TempDir(), "missing.mtx"))

	rep := NewReport()
	err := Run(cfg, rep)
	require.Error(t, err)
	assert.True(t, os.IsNotExist(err))

	// Best-effort report: structure intact, matrix fields zeroed.
	assert.Equal(t, 0, rep.Matrix.Rows)
	assert.Equal(t, "missing.mtx", rep.Matrix.Name)
	assert.Empty(t, rep.IterationsMs)
}

func TestRunMalformedSource(t *testing.T) {
	cfg := baseConfig(writeMatrix(t, "% comments only\n"))

	rep := NewReport()
	err := Run(cfg, rep)
	assert.ErrorIs(t, err, mtx.ErrFormat)
}

func TestRunConfigValidation(t *testing.T) {
	path := writeMatrix(t, diagSample)

	cfg := baseConfig(path)
	cfg.Iterations = 0
	assert.ErrorIs(t, Run(cfg, NewReport()), ErrBadConfig)

	cfg = baseConfig(path)
	cfg.Threads = -1
	assert.ErrorIs(t, Run(cfg, NewReport()), ErrBadConfig)

	cfg = baseConfig(path)
	cfg.Schedule.Chunk = -5
	assert.ErrorIs(t, Run(cfg, NewReport()), ErrBadConfig)

	cfg = baseConfig(path)
	cfg.Schedule.Policy = "auto"
	assert.ErrorIs(t, Run(cfg, NewReport()), spmv.ErrBadPolicy)
}

func TestRunDeterministicVector(t *testing.T) {
	// Same seed, same vector: the explicit generator makes runs
	// reproducible.
	a := RandomVector(rand.New(rand.NewSource(9)), 16, vectorMin, vectorMax)
	b := RandomVector(rand.New(rand.NewSource(9)), 16, vectorMin, vectorMax)
	assert.Equal(t, a, b)

	for _, v := range a {
		assert.GreaterOrEqual(t, v, vectorMin)
		assert.Less(t, v, vectorMax)
	}
}

func TestRunEndToEndDiagonal(t *testing.T) {
	// 3x3 diagonal [2,3,4] against x=[1,1,1] must give y=[2,3,4] under
	// every policy. Run through the kernel directly with the harness's own
	// matrix loading to pin the whole pipeline.
	path := writeMatrix(t, diagSample)
	entries, err := mtx.ReadFile(path)
	require.NoError(t, err)

	m, err := csr.FromEntries(entries)
	require.NoError(t, err)

	x := []float64{1, 1, 1}
	y, _ := spmv.MultiplySequential(m, x)
	assert.Equal(t, []float64{2, 3, 4}, y)
}
