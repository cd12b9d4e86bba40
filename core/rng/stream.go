// Package rng owns the seeded pseudo-random stream of a simulation run.
//
// # Determinism
//
// A Stream never hands out a shared generator. Every draw is addressed by an
// (epoch, index) pair (cycle and individual for the engine, call and draw for
// the sampler) and served from a PCG generator seeded from that pair and the
// run seed. Draw order across goroutines therefore cannot change results:
// parallel and sequential execution are bit-identical.
package rng

import "math/rand/v2"

// Stream is the per-run random stream. Not safe for concurrent Next calls;
// Sub generators derived from it may be used from any goroutine.
type Stream struct {
	seed  uint64
	epoch uint64
}

// New returns a stream positioned at epoch 0.
func New(seed int64) *Stream { return &Stream{seed: uint64(seed)} }

// Seed returns the seed the stream was created with.
func (s *Stream) Seed() int64 { return int64(s.seed) }

// Position returns the next epoch Next will hand out.
func (s *Stream) Position() uint64 { return s.epoch }

// Next reserves one epoch and advances the stream position.
func (s *Stream) Next() uint64 {
	e := s.epoch
	s.epoch++
	return e
}

// Sub is a reusable generator that a worker re-keys per (epoch, index).
type Sub struct {
	seed uint64
	pcg  *rand.PCG
	r    *rand.Rand
}

// NewSub returns a generator bound to this stream's seed.
func (s *Stream) NewSub() *Sub {
	pcg := rand.NewPCG(0, 0)
	return &Sub{seed: s.seed, pcg: pcg, r: rand.New(pcg)}
}

// Reset re-keys the generator; the following draws depend only on
// (seed, epoch, index).
func (g *Sub) Reset(epoch, index uint64) *Sub {
	g.pcg.Seed(splitmix(g.seed^splitmix(epoch)), splitmix(index+0x9e3779b97f4a7c15*(epoch+1)))
	return g
}

// Float64 returns a uniform value in [0, 1).
func (g *Sub) Float64() float64 { return g.r.Float64() }

// Uniform is a convenience for a single keyed draw.
func (s *Stream) Uniform(epoch, index uint64) float64 {
	return s.NewSub().Reset(epoch, index).Float64()
}

func splitmix(z uint64) uint64 {
	z += 0x9e3779b97f4a7c15
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	return z ^ (z >> 31)
}
