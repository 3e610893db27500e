package integrator

import (
	"image"
	"math/rand"
	"sync"

	"github.com/lumenray/tracer/pkg/core"
	"github.com/lumenray/tracer/pkg/engineconfig"
	"github.com/lumenray/tracer/pkg/renderer"
)

// mmltBootstrapSamples is the number of independent candidates drawn before
// a chain's first mutation, per the standard PSSMLT seeding procedure.
const mmltBootstrapSamples = 32

// RenderSession owns the state a TileRenderFunc needs across tiles and
// passes: the splat queue light tracing/IBPT write into (shared because a
// t=1 connection can land on any pixel, not just the one the camera sample
// that produced it belongs to) and, for MMLT, the per-pixel Markov chains
// the mode keeps alive between passes.
type RenderSession struct {
	driver *Driver
	splats *renderer.SplatQueue

	chainsMu sync.Mutex
	chains   map[image.Point]*MMLTChain
}

// NewRenderSession builds a session driving d for one full render.
func NewRenderSession(d *Driver) *RenderSession {
	return &RenderSession{
		driver: d,
		splats: renderer.NewSplatQueue(),
		chains: make(map[image.Point]*MMLTChain),
	}
}

// subPathCount is the per-frame normalization denominator for light-tracing
// and BDPT t=1 splats: the number of camera samples one pass contributes
// across the whole image, per the standard light-tracing density estimate.
func (rs *RenderSession) subPathCount() float64 {
	return rs.driver.Camera.Width * rs.driver.Camera.Height
}

// RenderTile implements renderer.TileRenderFunc, dispatching every pixel in
// bounds to the transport mode selected by the driver's engineconfig, then
// applying any pending splats whose target pixel falls in this tile.
func (rs *RenderSession) RenderTile(bounds image.Rectangle, pixelStats [][]renderer.PixelStats, tile *renderer.Tile, targetSamples int) renderer.RenderStats {
	d := rs.driver
	mode := d.Cfg.Mode()

	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			ps := &pixelStats[y][x]
			need := targetSamples - ps.SampleCount
			for i := 0; i < need; i++ {
				rs.samplePixel(mode, x, y, tile, ps)
			}
		}
	}

	for _, sp := range rs.splats.ExtractSplatsForTile(bounds) {
		pixelStats[sp.Y][sp.X].AddSplatColor(sp.Color)
	}

	return rs.statsForBounds(bounds, pixelStats, targetSamples)
}

func (rs *RenderSession) samplePixel(mode engineconfig.IntegratorMode, x, y int, tile *renderer.Tile, ps *renderer.PixelStats) {
	d := rs.driver
	sampler := RandSampler{Rnd: tile.Random}

	switch mode {
	case engineconfig.ModePathTracing:
		jx, jy := float64(x)+tile.Random.Float64()-0.5, float64(y)+tile.Random.Float64()-0.5
		ray := renderer.PrimaryRay(d.Camera, jx, jy)
		ps.AddSample(d.SamplePT(ray.Origin, ray.Direction, sampler))

	case engineconfig.ModeLightTracing:
		d.SampleLT(sampler, rs.splats, rs.subPathCount())
		ps.AddSample(core.Vec3{})

	case engineconfig.ModeIBPT:
		jx, jy := float64(x)+tile.Random.Float64()-0.5, float64(y)+tile.Random.Float64()-0.5
		ray := renderer.PrimaryRay(d.Camera, jx, jy)
		ps.AddSample(d.SampleBDPT(ray.Origin, ray.Direction, sampler, rs.splats, rs.subPathCount()))

	case engineconfig.ModeMMLT:
		jx, jy := float64(x), float64(y)
		ray := renderer.PrimaryRay(d.Camera, jx, jy)
		chain := rs.chainFor(x, y, ray)
		chain.Step(ray.Origin, ray.Direction, x, y, rs.splats)
		ps.AddSample(core.Vec3{})

	default:
		jx, jy := float64(x)+tile.Random.Float64()-0.5, float64(y)+tile.Random.Float64()-0.5
		ray := renderer.PrimaryRay(d.Camera, jx, jy)
		ps.AddSample(d.SamplePT(ray.Origin, ray.Direction, sampler))
	}
}

// chainFor returns the persistent MMLT chain for pixel (x,y), bootstrapping
// it on first use. Chains persist across passes so later passes continue
// mutating rather than re-bootstrapping.
func (rs *RenderSession) chainFor(x, y int, ray core.Ray) *MMLTChain {
	rs.chainsMu.Lock()
	defer rs.chainsMu.Unlock()

	p := image.Point{X: x, Y: y}
	if c, ok := rs.chains[p]; ok {
		return c
	}
	rnd := rand.New(rand.NewSource(int64(x)*73856093 ^ int64(y)*19349663))
	c := NewMMLTChain(rs.driver, rnd, rs.subPathCount(), mmltBootstrapSamples, ray.Origin, ray.Direction)
	rs.chains[p] = c
	return c
}

func (rs *RenderSession) statsForBounds(bounds image.Rectangle, pixelStats [][]renderer.PixelStats, targetSamples int) renderer.RenderStats {
	stats := renderer.RenderStats{
		MaxSamples: targetSamples,
		MinSamples: targetSamples,
	}
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			n := pixelStats[y][x].SampleCount
			stats.TotalPixels++
			stats.TotalSamples += n
			if n < stats.MinSamples {
				stats.MinSamples = n
			}
			if n > stats.MaxSamplesUsed {
				stats.MaxSamplesUsed = n
			}
		}
	}
	if stats.TotalPixels > 0 {
		stats.AverageSamples = float64(stats.TotalSamples) / float64(stats.TotalPixels)
	}
	return stats
}
