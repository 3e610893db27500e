package integrator

import (
	"math"
	"math/rand"

	"github.com/lumenray/tracer/pkg/bounce"
	"github.com/lumenray/tracer/pkg/core"
	"github.com/lumenray/tracer/pkg/renderer"
)

// pssSampler replays/mutates a primary-sample-space vector, per the
// Kelemen-style mutation strategy: a large step redraws a coordinate
// uniformly, a small step perturbs it by a uniform offset in
// [-mutateSize, mutateSize], wrapped to [0,1). Values are generated lazily and extended as bounce.PT/LT's Sampler
// calls consume more of the stream than a previous chain state needed.
type pssSampler struct {
	rnd        *rand.Rand
	values     []float64
	cursor     int
	mutateSize float64
}

func newPSSSampler(rnd *rand.Rand) *pssSampler {
	return &pssSampler{rnd: rnd, mutateSize: 1.0 / 1024.0}
}

func (s *pssSampler) next() float64 {
	if s.cursor >= len(s.values) {
		s.values = append(s.values, s.rnd.Float64())
	}
	v := s.values[s.cursor]
	s.cursor++
	return v
}

func (s *pssSampler) Get1D() float64 { return s.next() }
func (s *pssSampler) Get2D() (float64, float64) {
	return s.next(), s.next()
}

func (s *pssSampler) reset() { s.cursor = 0 }

// mutate returns a proposal sampler sharing the same stream length, with
// every coordinate perturbed (small step) or redrawn (large step).
func (s *pssSampler) mutate(rnd *rand.Rand, largeStep bool) *pssSampler {
	proposal := &pssSampler{rnd: rnd, mutateSize: s.mutateSize, values: make([]float64, len(s.values))}
	for i, v := range s.values {
		if largeStep {
			proposal.values[i] = rnd.Float64()
			continue
		}
		d := (rnd.Float64()*2 - 1) * s.mutateSize
		nv := v + d
		nv -= math.Floor(nv)
		proposal.values[i] = nv
	}
	return proposal
}

var _ bounce.Sampler = (*pssSampler)(nil)

// MMLTChain runs one multiplexed-Metropolis Markov chain over primary
// sample space, evaluating full SampleBDPT paths and accepting/rejecting
// mutations by the Kelemen acceptance ratio, per spec.md §4.G ("for each
// MMLT Markov chain, run a fixed-depth bounce loop"). Each evaluation walks
// SampleBDPT's bounce.PT/bounce.LT subpaths; bounce.MMLTCameraBounce/
// MMLTLightBounce and their VertexBuffers are not used by the chain.
type MMLTChain struct {
	driver       *Driver
	rnd          *rand.Rand
	subPathCount float64

	current             *pssSampler
	currentLum          float64
	currentContribution core.Vec3
	bootstrapAvg        float64
}

// NewMMLTChain seeds a chain from a bootstrap sample drawn with an
// independent sampler, per the standard PSSMLT initialization: draw several
// independent candidates, pick one proportional to luminance, and record
// the mean luminance (bootstrapAvg) used to normalize the final image.
func NewMMLTChain(d *Driver, rnd *rand.Rand, subPathCount float64, bootstrapSamples int, rayPos, rayDir core.Vec3) *MMLTChain {
	c := &MMLTChain{driver: d, rnd: rnd, subPathCount: subPathCount}

	var total float64
	var best *pssSampler
	var bestLum float64
	var bestContribution core.Vec3
	for i := 0; i < bootstrapSamples; i++ {
		s := newPSSSampler(rnd)
		contribution := c.evaluate(s, rayPos, rayDir, nil)
		lum := contribution.Luminance()
		total += lum
		// Weighted reservoir pick: candidate i survives with probability
		// lum_i / total over all candidates.
		if lum > 0 && rnd.Float64()*total < lum {
			bestLum = lum
			best = s
			bestContribution = contribution
		}
	}
	if bootstrapSamples > 0 {
		c.bootstrapAvg = total / float64(bootstrapSamples)
	}
	if best == nil {
		best = newPSSSampler(rnd)
	}
	c.current = best
	c.currentLum = bestLum
	c.currentContribution = bestContribution
	return c
}

// evaluate runs one full SampleBDPT path against the sampler, splatting any
// light-subpath eye connections into splats (a discarded queue when splats
// is nil) and returning the pixel contribution SampleBDPT computes.
func (c *MMLTChain) evaluate(s *pssSampler, rayPos, rayDir core.Vec3, splats *renderer.SplatQueue) core.Vec3 {
	s.reset()
	if splats == nil {
		splats = renderer.NewSplatQueue()
	}
	return c.driver.SampleBDPT(rayPos, rayDir, s, splats, c.subPathCount)
}

// Step advances the chain by one Metropolis mutation and splats the
// resulting contribution (scaled by bootstrapAvg/currentLum per the
// standard PSSMLT estimator) into splats at (px,py).
func (c *MMLTChain) Step(rayPos, rayDir core.Vec3, px, py int, splats *renderer.SplatQueue) {
	largeStep := c.rnd.Float64() < 0.3
	proposal := c.current.mutate(c.rnd, largeStep)

	proposalSplats := renderer.NewSplatQueue()
	contribution := c.evaluate(proposal, rayPos, rayDir, proposalSplats)
	proposalLum := contribution.Luminance()

	accept := 1.0
	if c.currentLum > 0 {
		accept = math.Min(1.0, proposalLum/c.currentLum)
	} else if proposalLum > 0 {
		accept = 1.0
	} else {
		accept = 0.0
	}

	if c.currentLum > 0 {
		splats.AddSplat(px, py, c.currentContribution.Multiply((1 - accept) / c.currentLum * c.bootstrapAvg))
	}
	if proposalLum > 0 {
		splats.AddSplat(px, py, contribution.Multiply(accept / proposalLum * c.bootstrapAvg))
	}
	for _, sp := range proposalSplats.ExtractAll() {
		splats.AddSplat(sp.X, sp.Y, sp.Color.Multiply(accept))
	}

	if c.rnd.Float64() < accept {
		c.current = proposal
		c.currentLum = proposalLum
		c.currentContribution = contribution
	}
}
