// Copyright 2026 The spmvbench Authors. SPDX-License-Identifier: Apache-2.0

package bench

import "math/rand"

// RandomVector fills a fresh vector of length n with values uniform in
// [lo, hi). The generator is passed in rather than shared process-wide, so
// runs are reproducible from an injected seed.
func RandomVector(rng *rand.Rand, n int, lo, hi float64) []float64 {
	v := make([]float64, n)
	for i := range v {
		v[i] = lo + rng.Float64()*(hi-lo)
	}
	return v
}
