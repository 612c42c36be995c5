// Copyright 2026 The spmvbench Authors. SPDX-License-Identifier: Apache-2.0

package bench

import "encoding/json"

// MatrixInfo identifies the benchmarked matrix in the report.
type MatrixInfo struct {
	Name string `json:"name"`
	Rows int    `json:"rows"`
	Cols int    `json:"cols"`
	NNZ  int    `json:"nnz"`
}

// Scenario records the parallel execution parameters. It is omitted from
// the report entirely in sequential mode.
type Scenario struct {
	Threads        int    `json:"threads"`
	SchedulingType string `json:"scheduling_type"`
	ChunkSize      int    `json:"chunk_size"`
}

// Statistics90 carries the metrics derived from the 90th-percentile
// iteration duration.
type Statistics90 struct {
	DurationMs          float64 `json:"duration_ms"`
	Flops               uint64  `json:"FLOPs"`
	GFLOPS              float64 `json:"GFLOPS"`
	BandwidthGBps       float64 `json:"Bandwidth_GBps"`
	ArithmeticIntensity float64 `json:"Arithmetic_intensity"`
}

// Report is the run output. The field names and nesting are a stable
// contract with the downstream plotting and analysis scripts; do not rename
// them. Errors collects non-fatal warnings and fatal messages in the order
// they occurred, and a fatal error still yields a complete structure with
// zeroed matrix and statistics fields.
type Report struct {
	Matrix       MatrixInfo   `json:"matrix"`
	Scenario     *Scenario    `json:"scenario,omitempty"`
	Statistics   Statistics90 `json:"statistics90"`
	WarmupTimeMs float64      `json:"warmUp_time_ms"`
	IterationsMs []float64    `json:"all_iteration_times_ms"`
	Errors       []string     `json:"errors"`
}

// NewReport returns a report whose list fields marshal as [] rather than
// null, so consumers always see the full structure.
func NewReport() *Report {
	return &Report{
		IterationsMs: []float64{},
		Errors:       []string{},
	}
}

// AddError appends a warning or error message to the report.
func (r *Report) AddError(msg string) {
	r.Errors = append(r.Errors, msg)
}

// AddIterationMs appends one timed-iteration duration, in invocation order.
func (r *Report) AddIterationMs(d float64) {
	r.IterationsMs = append(r.IterationsMs, d)
}

// SetMetrics fills the statistics block from an aggregated snapshot.
func (r *Report) SetMetrics(m Metrics) {
	r.Statistics = Statistics90{
		DurationMs:          m.Duration90Ms,
		Flops:               m.Flops,
		GFLOPS:              m.GFLOPS,
		BandwidthGBps:       m.BandwidthGBps,
		ArithmeticIntensity: m.ArithmeticIntensity,
	}
}

// JSON renders the report for stdout.
func (r *Report) JSON() ([]byte, error) {
	return json.MarshalIndent(r, "", "  ")
}
