package utils

import (
	"math/rand"
	"time"
)

// RandSource is a seedable random number generator. It is not safe for
// concurrent use; each campaign and each simulated episode owns its own.
type RandSource struct {
	rng *rand.Rand
}

// NewRandSource creates a new random source with the given seed.
// A zero seed draws one from the wall clock.
func NewRandSource(seed int64) *RandSource {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &RandSource{
		rng: rand.New(rand.NewSource(seed)),
	}
}

// Float64 returns a random float64 in [0.0, 1.0)
func (r *RandSource) Float64() float64 {
	return r.rng.Float64()
}

// Intn returns a random int in [0, n)
func (r *RandSource) Intn(n int) int {
	return r.rng.Intn(n)
}

// Int63 returns a non-negative random int64, used to derive child seeds.
func (r *RandSource) Int63() int64 {
	return r.rng.Int63()
}

// IntRange returns a uniformly distributed int in the closed range [lo, hi].
func (r *RandSource) IntRange(lo, hi int) int {
	if hi <= lo {
		return lo
	}
	return lo + r.rng.Intn(hi-lo+1)
}

// BernoulliBool returns true with probability p, false otherwise
func (r *RandSource) BernoulliBool(p float64) bool {
	return r.rng.Float64() < p
}

// UniformFloat64 returns a uniformly distributed random number in [min, max).
// A degenerate interval returns min.
func (r *RandSource) UniformFloat64(min, max float64) float64 {
	if max <= min {
		return min
	}
	return min + r.rng.Float64()*(max-min)
}
