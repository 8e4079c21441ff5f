// Package xrand provides seeded, worker-local random number generation.
// Each search worker owns its own generator derived deterministically from
// a shared engine seed plus the worker's index, so that otherwise
// concurrent workers never share or contend over a *rand.Rand, and runs
// with the same seed reproduce bit-for-bit (see DESIGN.md, Design Note on
// RNGs). Mirrors the role played by the teacher's pkg/eval.Random, but
// shared across every package that needs shuffling or sampling, not just
// evaluation noise.
package xrand

import "math/rand"

// Source is a worker-local random source.
type Source struct {
	r *rand.Rand
}

// New derives a Source for the given worker index from a shared seed. Two
// calls with the same (seed, worker) always produce the same sequence.
func New(seed int64, worker int) Source {
	return Source{r: rand.New(rand.NewSource(seed ^ int64(uint64(worker)*0x9E3779B97F4A7C15)))}
}

// Intn returns a pseudo-random number in [0, n).
func (s Source) Intn(n int) int {
	return s.r.Intn(n)
}

// Float64 returns a pseudo-random number in [0, 1).
func (s Source) Float64() float64 {
	return s.r.Float64()
}

// Shuffle randomizes the order of a slice of length n in place, calling
// swap(i, j) to exchange elements, mirroring rand.Rand.Shuffle's contract.
func (s Source) Shuffle(n int, swap func(i, j int)) {
	s.r.Shuffle(n, swap)
}

// Fork derives an independent, deterministically-seeded Source for
// worker from s, without needing the original engine seed. Used when a
// search that already owns one Source (e.g. an iterative-deepening pass)
// fans out into further sub-workers of its own, such as root-split
// parallel minimax.
func (s Source) Fork(worker int) Source {
	return Source{r: rand.New(rand.NewSource(s.r.Int63() ^ int64(uint64(worker)*0x9E3779B97F4A7C15)))}
}
