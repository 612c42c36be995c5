// Copyright 2026 The spmvbench Authors. SPDX-License-Identifier: Apache-2.0

// Package csr provides the Compressed Sparse Row matrix representation used
// by the SpMV kernels.
package csr

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ajroetker/spmvbench/mtx"
)

// ErrNoEntries is returned when building a matrix from an empty entry slice.
var ErrNoEntries = errors.New("csr: no entries to build from")

// Matrix is a sparse matrix in CSR form. It is immutable after FromEntries
// returns: the kernels share it read-only across workers without locking.
//
// RowPtr has length Rows+1, is non-decreasing, starts at 0, and ends at
// NNZ(). The nonzeros of row i live at positions [RowPtr[i], RowPtr[i+1])
// of ColIndex and Values. Indices are int32 and values float64, so memory
// traffic is 4 bytes per index and 8 bytes per value.
type Matrix struct {
	Rows     int
	Cols     int
	RowPtr   []int32
	ColIndex []int32
	Values   []float64
}

// NNZ returns the number of stored entries.
func (m *Matrix) NNZ() int { return len(m.Values) }

// FromEntries builds a CSR matrix from entries sorted by (row, col).
//
// The shape is derived from the data: Rows is one past the largest row index
// observed and Cols one past the largest column index, so a header that
// overstates the declared size is tolerated. Duplicate (row, col) pairs are
// stored as independent nonzeros; their contributions are not summed.
func FromEntries(entries []mtx.Entry) (*Matrix, error) {
	if len(entries) == 0 {
		return nil, ErrNoEntries
	}

	nnz := len(entries)
	rows := 0
	cols := 0
	for _, e := range entries {
		if int(e.Row) >= rows {
			rows = int(e.Row) + 1
		}
		if int(e.Col) >= cols {
			cols = int(e.Col) + 1
		}
	}

	m := &Matrix{
		Rows:     rows,
		Cols:     cols,
		RowPtr:   make([]int32, rows+1),
		ColIndex: make([]int32, nnz),
		Values:   make([]float64, nnz),
	}

	// Single linear scan. When the row advances, every skipped row pointer
	// is backfilled with the current position, so empty rows end up with
	// RowPtr[i] == RowPtr[i+1].
	currentRow := int32(0)
	for i, e := range entries {
		for currentRow < e.Row {
			currentRow++
			m.RowPtr[currentRow] = int32(i)
		}
		m.ColIndex[i] = e.Col
		m.Values[i] = e.Value
	}
	for int(currentRow) < rows {
		currentRow++
		m.RowPtr[currentRow] = int32(nnz)
	}

	return m, nil
}

// String renders the three CSR arrays, for debugging small matrices.
func (m *Matrix) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "csr.Matrix %dx%d nnz=%d\n", m.Rows, m.Cols, m.NNZ())
	fmt.Fprintf(&b, "RowPtr:   %v\n", m.RowPtr)
	fmt.Fprintf(&b, "ColIndex: %v\n", m.ColIndex)
	fmt.Fprintf(&b, "Values:   %v", m.Values)
	return b.String()
}
