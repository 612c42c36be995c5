// Copyright 2026 The spmvbench Authors. SPDX-License-Identifier: Apache-2.0

// Package workerpool provides a persistent, reusable worker pool for
// fork-join data-parallel loops. A Pool is created once per run and reused
// across every kernel invocation, so warm-up and timed iterations pay no
// goroutine spawn or channel allocation cost.
//
// Three loop-scheduling strategies are offered, mirroring the classic
// OpenMP policies:
//
//   - ParallelForStatic: the iteration space is partitioned up front,
//     independent of runtime load.
//   - ParallelForDynamic: workers repeatedly claim the next fixed-size
//     chunk, which balances irregular per-iteration work.
//   - ParallelForGuided: claimed chunks start large and shrink
//     geometrically as the iteration space is consumed.
//
// A scheduling strategy only redistributes work across workers; it never
// changes which iterations run.
package workerpool

import (
	"runtime"
	"sync"
	"sync/atomic"
)

// Pool is a persistent worker pool. Workers are spawned once at creation
// and live until Close is called.
type Pool struct {
	numWorkers int
	workC      chan workItem
	closeOnce  sync.Once
	closed     atomic.Bool
}

// workItem is a single unit of submitted work.
type workItem struct {
	fn      func()
	barrier *sync.WaitGroup
}

// New creates a pool with the given number of workers, spawned immediately.
// If numWorkers <= 0, GOMAXPROCS workers are used.
func New(numWorkers int) *Pool {
	if numWorkers <= 0 {
		numWorkers = runtime.GOMAXPROCS(0)
	}

	p := &Pool{
		numWorkers: numWorkers,
		// Buffer enough for all workers to have pending work
		workC: make(chan workItem, numWorkers*2),
	}

	for range numWorkers {
		go p.worker()
	}

	return p
}

// worker is the main loop of each persistent worker goroutine.
func (p *Pool) worker() {
	for item := range p.workC {
		item.fn()
		item.barrier.Done()
	}
}

// NumWorkers returns the number of workers in the pool.
func (p *Pool) NumWorkers() int {
	return p.numWorkers
}

// Close shuts down the pool. Pending work completes first.
// Calling Close multiple times is safe.
func (p *Pool) Close() {
	p.closeOnce.Do(func() {
		p.closed.Store(true)
		close(p.workC)
	})
}

// ParallelFor executes fn over [0, n) split into one contiguous range per
// worker. Blocks until all work completes.
//
// fn receives (start, end) and must process indices in [start, end).
func (p *Pool) ParallelFor(n int, fn func(start, end int)) {
	if n <= 0 {
		return
	}

	if p.closed.Load() {
		// Fallback to sequential if pool is closed
		fn(0, n)
		return
	}

	workers := min(p.numWorkers, n)
	if workers == 1 {
		fn(0, n)
		return
	}

	// Ceiling division so every index is covered.
	chunkSize := (n + workers - 1) / workers

	var wg sync.WaitGroup
	wg.Add(workers)

	for i := range workers {
		start := i * chunkSize
		end := min(start+chunkSize, n)
		if start >= n {
			wg.Done()
			continue
		}

		p.workC <- workItem{
			fn: func() {
				fn(start, end)
			},
			barrier: &wg,
		}
	}

	wg.Wait()
}

// ParallelForStatic executes fn over [0, n) with a static schedule: the
// assignment of chunks to workers is decided before any work starts and
// does not react to runtime load. Chunks of chunkSize iterations are dealt
// round-robin to the workers; chunkSize <= 0 selects one contiguous range
// per worker, as ParallelFor does.
func (p *Pool) ParallelForStatic(n, chunkSize int, fn func(start, end int)) {
	if n <= 0 {
		return
	}
	if chunkSize <= 0 {
		p.ParallelFor(n, fn)
		return
	}

	if p.closed.Load() {
		fn(0, n)
		return
	}

	numChunks := (n + chunkSize - 1) / chunkSize
	workers := min(p.numWorkers, numChunks)
	if workers == 1 {
		fn(0, n)
		return
	}

	var wg sync.WaitGroup
	wg.Add(workers)

	for w := range workers {
		p.workC <- workItem{
			fn: func() {
				for c := w; c < numChunks; c += workers {
					start := c * chunkSize
					end := min(start+chunkSize, n)
					fn(start, end)
				}
			},
			barrier: &wg,
		}
	}

	wg.Wait()
}

// ParallelForDynamic executes fn over [0, n) with a dynamic schedule:
// workers repeatedly claim the next unclaimed chunk of chunkSize
// iterations. chunkSize <= 0 defaults to 1. Claiming is a single atomic
// add, so the load balancing cost stays small relative to the chunk work.
func (p *Pool) ParallelForDynamic(n, chunkSize int, fn func(start, end int)) {
	if n <= 0 {
		return
	}
	if chunkSize <= 0 {
		chunkSize = 1
	}

	if p.closed.Load() {
		fn(0, n)
		return
	}

	numChunks := (n + chunkSize - 1) / chunkSize
	workers := min(p.numWorkers, numChunks)
	if workers == 1 {
		fn(0, n)
		return
	}

	var nextChunk atomic.Int64
	var wg sync.WaitGroup
	wg.Add(workers)

	for range workers {
		p.workC <- workItem{
			fn: func() {
				for {
					c := nextChunk.Add(1) - 1
					start := int(c) * chunkSize
					if start >= n {
						return
					}
					end := min(start+chunkSize, n)
					fn(start, end)
				}
			},
			barrier: &wg,
		}
	}

	wg.Wait()
}

// ParallelForGuided executes fn over [0, n) with a guided schedule: each
// claim takes a chunk proportional to the remaining iteration count divided
// by the worker count, so chunks start large and shrink geometrically.
// minChunk bounds the chunk size from below; minChunk <= 0 defaults to 1.
func (p *Pool) ParallelForGuided(n, minChunk int, fn func(start, end int)) {
	if n <= 0 {
		return
	}
	if minChunk <= 0 {
		minChunk = 1
	}

	if p.closed.Load() {
		fn(0, n)
		return
	}

	workers := min(p.numWorkers, n)
	if workers == 1 {
		fn(0, n)
		return
	}

	var next atomic.Int64
	var wg sync.WaitGroup
	wg.Add(workers)

	for range workers {
		p.workC <- workItem{
			fn: func() {
				for {
					start := next.Load()
					if start >= int64(n) {
						return
					}
					remaining := int(int64(n) - start)
					size := max(remaining/workers, minChunk)
					end := min(int(start)+size, n)
					if !next.CompareAndSwap(start, int64(end)) {
						continue // another worker claimed first
					}
					fn(int(start), end)
				}
			},
			barrier: &wg,
		}
	}

	wg.Wait()
}
