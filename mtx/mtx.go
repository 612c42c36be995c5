// Copyright 2026 The spmvbench Authors. SPDX-License-Identifier: Apache-2.0

// Package mtx reads sparse matrices in Matrix Market coordinate format.
//
// The reader extracts the nonzero entries into a slice of Entry values,
// converting the 1-based indices of the file format to 0-based and sorting
// the result by row, then by column. Duplicate (row, col) pairs are kept as
// separate entries; merging them is the consumer's decision.
package mtx

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
)

// ErrFormat reports a malformed coordinate source: a missing or unparsable
// header line, non-positive declared dimensions, a data line that is not a
// (row, col, value) triplet, or a source with no entries at all.
var ErrFormat = errors.New("mtx: malformed coordinate source")

// Entry is a single nonzero in coordinate form, with 0-based indices.
type Entry struct {
	Row   int32
	Col   int32
	Value float64
}

// ReadFile reads a coordinate-format matrix from the file at path.
// The returned entries are sorted by (row, col). See Read.
func ReadFile(path string) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	entries, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return entries, nil
}

// Read parses a coordinate-format matrix from r.
//
// The source must contain a header line with three positive integers
// (rows, cols, nnz) after any number of '%' comment lines, followed by one
// "row col value" triplet per line with 1-based indices. The declared header
// dimensions are used only as a capacity hint: the actual matrix shape is
// derived later from the maximum observed indices.
func Read(r io.Reader) ([]Entry, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)

	// Skip comments, find the dimension header.
	var header string
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "%") {
			continue
		}
		header = line
		break
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if header == "" {
		return nil, fmt.Errorf("%w: missing dimension header", ErrFormat)
	}

	nnz, err := parseHeader(header)
	if err != nil {
		return nil, err
	}

	entries := make([]Entry, 0, nnz)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		e, err := parseEntry(line)
		if err != nil {
			return nil, fmt.Errorf("%w: data line %d: %q", ErrFormat, lineNo, line)
		}
		entries = append(entries, e)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("%w: no entries", ErrFormat)
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Row == entries[j].Row {
			return entries[i].Col < entries[j].Col
		}
		return entries[i].Row < entries[j].Row
	})

	return entries, nil
}

// parseHeader validates the dimension line and returns the declared nnz,
// which is used only to size the entry slice up front.
func parseHeader(line string) (nnz int, err error) {
	fields := strings.Fields(line)
	if len(fields) != 3 {
		return 0, fmt.Errorf("%w: header %q", ErrFormat, line)
	}
	dims := make([]int, 3)
	for i, f := range fields {
		v, err := strconv.Atoi(f)
		if err != nil {
			return 0, fmt.Errorf("%w: header %q", ErrFormat, line)
		}
		dims[i] = v
	}
	if dims[0] <= 0 || dims[1] <= 0 || dims[2] <= 0 {
		return 0, fmt.Errorf("%w: non-positive dimensions in header %q", ErrFormat, line)
	}
	return dims[2], nil
}

func parseEntry(line string) (Entry, error) {
	fields := strings.Fields(line)
	if len(fields) != 3 {
		return Entry{}, ErrFormat
	}
	row, err := strconv.ParseInt(fields[0], 10, 32)
	if err != nil || row < 1 {
		return Entry{}, ErrFormat
	}
	col, err := strconv.ParseInt(fields[1], 10, 32)
	if err != nil || col < 1 {
		return Entry{}, ErrFormat
	}
	val, err := strconv.ParseFloat(fields[2], 64)
	if err != nil {
		return Entry{}, ErrFormat
	}
	// Switch from 1-based to 0-based.
	return Entry{Row: int32(row - 1), Col: int32(col - 1), Value: val}, nil
}
