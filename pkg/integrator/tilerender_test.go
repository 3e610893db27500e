package integrator

import (
	"image"
	"testing"

	"github.com/lumenray/tracer/pkg/engineconfig"
	"github.com/lumenray/tracer/pkg/renderer"
)

func newTestDriver(mode engineconfig.IntegratorMode) *Driver {
	cfg := engineconfig.Default()
	cfg.PathTracingEnabled = mode == engineconfig.ModePathTracing
	cfg.LightTracingEnabled = mode == engineconfig.ModeLightTracing
	cfg.IBPTEnabled = mode == engineconfig.ModeIBPT
	cfg.EnableMLT = mode == engineconfig.ModeMMLT

	return &Driver{
		Collaborators: Collaborators{
			Tracer: missTracer{},
			Lights: emptyLights{},
			Camera: testCamera(),
		},
		Cfg:      cfg,
		MaxDepth: DefaultMaxDepth,
	}
}

func newTestPixelStats(width, height int) [][]renderer.PixelStats {
	ps := make([][]renderer.PixelStats, height)
	for y := range ps {
		ps[y] = make([]renderer.PixelStats, width)
	}
	return ps
}

func TestRenderTilePathTracingFillsSampleCounts(t *testing.T) {
	d := newTestDriver(engineconfig.ModePathTracing)
	rs := NewRenderSession(d)

	bounds := image.Rect(0, 0, 4, 4)
	pixelStats := newTestPixelStats(64, 64)
	tile := renderer.NewTile(0, bounds)

	stats := rs.RenderTile(bounds, pixelStats, tile, 3)

	if stats.TotalPixels != 16 {
		t.Errorf("TotalPixels = %d, want 16", stats.TotalPixels)
	}
	if stats.MinSamples != 3 || stats.MaxSamplesUsed != 3 {
		t.Errorf("stats = %+v, want Min=Max=3", stats)
	}
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			if pixelStats[y][x].SampleCount != 3 {
				t.Errorf("pixel (%d,%d) SampleCount = %d, want 3", x, y, pixelStats[y][x].SampleCount)
			}
		}
	}
}

func TestRenderTileSkipsAlreadySampledPixels(t *testing.T) {
	d := newTestDriver(engineconfig.ModePathTracing)
	rs := NewRenderSession(d)

	bounds := image.Rect(0, 0, 2, 2)
	pixelStats := newTestPixelStats(64, 64)
	pixelStats[0][0].SampleCount = 5
	tile := renderer.NewTile(0, bounds)

	rs.RenderTile(bounds, pixelStats, tile, 5)

	if pixelStats[0][0].SampleCount != 5 {
		t.Errorf("already-converged pixel SampleCount = %d, want unchanged 5", pixelStats[0][0].SampleCount)
	}
	if pixelStats[1][1].SampleCount != 5 {
		t.Errorf("pixel (1,1) SampleCount = %d, want 5", pixelStats[1][1].SampleCount)
	}
}

func TestRenderTileLightTracingAdvancesSampleCountWithoutColor(t *testing.T) {
	d := newTestDriver(engineconfig.ModeLightTracing)
	rs := NewRenderSession(d)

	bounds := image.Rect(0, 0, 2, 2)
	pixelStats := newTestPixelStats(64, 64)
	tile := renderer.NewTile(0, bounds)

	rs.RenderTile(bounds, pixelStats, tile, 2)

	if pixelStats[0][0].SampleCount != 2 {
		t.Errorf("light-tracing pixel SampleCount = %d, want 2", pixelStats[0][0].SampleCount)
	}
}

func TestChainForReturnsSamePixelChain(t *testing.T) {
	d := newTestDriver(engineconfig.ModeMMLT)
	rs := NewRenderSession(d)

	ray := renderer.PrimaryRay(d.Camera, 5, 5)
	c1 := rs.chainFor(5, 5, ray)
	c2 := rs.chainFor(5, 5, ray)
	if c1 != c2 {
		t.Errorf("chainFor(5,5) returned different chains across calls")
	}
	c3 := rs.chainFor(6, 5, ray)
	if c1 == c3 {
		t.Errorf("chainFor(6,5) returned the same chain as (5,5)")
	}
}
