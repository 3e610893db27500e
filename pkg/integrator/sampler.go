package integrator

import "math/rand"

// RandSampler adapts *rand.Rand to bounce.Sampler. Each Tile carries its
// own deterministic *rand.Rand (teacher's pkg/renderer.NewTile seeds one
// per tile from the tile ID), so wrapping it here keeps that determinism
// instead of introducing a second RNG source.
type RandSampler struct {
	Rnd *rand.Rand
}

func (s RandSampler) Get1D() float64 {
	return s.Rnd.Float64()
}

func (s RandSampler) Get2D() (float64, float64) {
	return s.Rnd.Float64(), s.Rnd.Float64()
}
