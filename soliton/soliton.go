// Package soliton implements the Robust Soliton degree distribution used by
// Luby Transform fountain codes to pick how many source blocks an encoded
// block should combine.
//
// The distribution and its sampling procedure are precomputed once per
// (k, c, delta) triple into a cumulative distribution function (CDF) over
// 1..=k, the same arrangement the ideal Soliton distribution in this
// module's reference implementation uses (a sorted slice of split points
// searched with sort.SearchFloat64s), extended with the "robust" tau term.
package soliton

import (
	"errors"
	"math"
	"sort"
)

// DefaultC and DefaultDelta are the tuning constants used when a caller does
// not supply its own.
const (
	DefaultC     = 0.03
	DefaultDelta = 0.05
)

// RobustSoliton holds the precomputed CDF for a given (k, c, delta). It is
// immutable after construction and safe for concurrent read-only use.
type RobustSoliton struct {
	k   uint64
	cdf []float64 // cdf[d-1] holds CDF(d), for d in 1..=k
}

// New builds the Robust Soliton CDF for k source blocks using the given
// tuning constants. k must be at least 1; c must be positive and delta must
// lie in (0, 1).
func New(k uint64, c, delta float64) (*RobustSoliton, error) {
	if k == 0 {
		return nil, errors.New("soliton: k must be at least 1")
	}
	if c <= 0 {
		return nil, errors.New("soliton: c must be positive")
	}
	if delta <= 0 || delta >= 1 {
		return nil, errors.New("soliton: delta must be in (0, 1)")
	}

	if k == 1 {
		return &RobustSoliton{k: 1, cdf: []float64{1.0}}, nil
	}

	rho := make([]float64, k+1) // 1-indexed; rho[0] unused
	rho[1] = 1.0 / float64(k)
	for d := uint64(2); d <= k; d++ {
		rho[d] = 1.0 / (float64(d) * float64(d-1))
	}

	r := c * math.Log(float64(k)/delta) * math.Sqrt(float64(k))
	// kr is clamped into [1, k-1] so that tau(kr) is always defined and
	// distinct from the tau(d)=0 tail; R itself can legitimately exceed k
	// for small k; the clamp is what keeps Z > 0 in that regime.
	kr := uint64(math.Floor(float64(k) / r))
	if kr < 1 {
		kr = 1
	}
	if kr > k-1 {
		kr = k - 1
	}

	tau := make([]float64, k+1) // 1-indexed; tau[0] unused
	for d := uint64(1); d < kr; d++ {
		tau[d] = r / (float64(d) * float64(k))
	}
	tau[kr] = r * math.Log(r/delta) / float64(k)
	// tau(d) for d > kr stays at its zero value.

	z := 0.0
	for d := uint64(1); d <= k; d++ {
		z += rho[d] + tau[d]
	}

	cdf := make([]float64, k)
	sum := 0.0
	for d := uint64(1); d <= k; d++ {
		sum += (rho[d] + tau[d]) / z
		cdf[d-1] = sum
	}
	// Floating-point summation may leave the final entry a hair below 1;
	// pin it exactly so that Sample(u) for any u in [0,1) always resolves.
	cdf[k-1] = 1.0

	return &RobustSoliton{k: k, cdf: cdf}, nil
}

// K returns the number of source blocks this distribution was built for.
func (s *RobustSoliton) K() uint64 {
	return s.k
}

// Sample returns the smallest degree d in [1, k] such that CDF(d) >= u, for
// u drawn uniformly from [0, 1). Ties and exact endpoints resolve to the
// smaller d, matching sort.Search's left-most-match semantics.
func (s *RobustSoliton) Sample(u float64) uint64 {
	idx := sort.Search(len(s.cdf), func(i int) bool {
		return s.cdf[i] >= u
	})
	if idx >= len(s.cdf) {
		idx = len(s.cdf) - 1
	}
	return uint64(idx) + 1
}
