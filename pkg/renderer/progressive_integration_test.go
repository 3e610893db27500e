package renderer

import (
	"image"
	"testing"

	"github.com/lumenray/tracer/pkg/core"
)

// testLogger discards all output, matching the teacher's testLogger.
type testLogger struct{}

func (tl *testLogger) Printf(format string, args ...interface{}) {}

// constColorRender is a TileRenderFunc that fills every pixel in bounds with
// a fixed color and the full targetSamples, modeling a converged scene
// without depending on any transport-mode driver.
func constColorRender(color core.Vec3) TileRenderFunc {
	return func(bounds image.Rectangle, pixelStats [][]PixelStats, tile *Tile, targetSamples int) RenderStats {
		stats := RenderStats{MaxSamples: targetSamples, MinSamples: targetSamples}
		for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
			for x := bounds.Min.X; x < bounds.Max.X; x++ {
				ps := &pixelStats[y][x]
				for ps.SampleCount < targetSamples {
					ps.AddSample(color)
				}
				stats.TotalPixels++
				stats.TotalSamples += ps.SampleCount
				if ps.SampleCount > stats.MaxSamplesUsed {
					stats.MaxSamplesUsed = ps.SampleCount
				}
			}
		}
		if stats.TotalPixels > 0 {
			stats.AverageSamples = float64(stats.TotalSamples) / float64(stats.TotalPixels)
		}
		return stats
	}
}

func TestProgressiveRaytracerRenderPassFillsImage(t *testing.T) {
	width, height := 16, 16
	config := DefaultProgressiveConfig()
	config.TileSize = 8
	config.MaxSamplesPerPixel = 4
	config.InitialSamples = 4
	config.MaxPasses = 1

	render := constColorRender(core.NewVec3(0.5, 0.25, 0.1))
	pr := NewProgressiveRaytracer(render, width, height, config, &testLogger{})
	defer pr.workerPool.Stop()

	img, stats, err := pr.RenderPass(1, nil)
	if err != nil {
		t.Fatalf("RenderPass returned error: %v", err)
	}
	if stats.TotalPixels != width*height {
		t.Errorf("TotalPixels = %d, want %d", stats.TotalPixels, width*height)
	}
	if stats.TotalSamples != width*height*config.MaxSamplesPerPixel {
		t.Errorf("TotalSamples = %d, want %d", stats.TotalSamples, width*height*config.MaxSamplesPerPixel)
	}

	bounds := img.Bounds()
	if bounds.Dx() != width || bounds.Dy() != height {
		t.Fatalf("image bounds = %v, want %dx%d", bounds, width, height)
	}

	c := img.RGBAAt(0, 0)
	if c.R == 0 && c.G == 0 && c.B == 0 {
		t.Error("expected a non-black pixel after rendering a constant-color pass")
	}
}

func TestProgressiveRaytracerRenderPassDispatchesTileCallbacks(t *testing.T) {
	width, height := 16, 8
	config := DefaultProgressiveConfig()
	config.TileSize = 8
	config.MaxSamplesPerPixel = 2
	config.InitialSamples = 2
	config.MaxPasses = 1

	render := constColorRender(core.NewVec3(1, 1, 1))
	pr := NewProgressiveRaytracer(render, width, height, config, &testLogger{})
	defer pr.workerPool.Stop()

	var completed []TileCompletionResult
	_, _, err := pr.RenderPass(1, func(result TileCompletionResult) {
		completed = append(completed, result)
	})
	if err != nil {
		t.Fatalf("RenderPass returned error: %v", err)
	}

	wantTiles := NewTileGrid(width, height, config.TileSize)
	if len(completed) != len(wantTiles) {
		t.Errorf("dispatched %d tile callbacks, want %d", len(completed), len(wantTiles))
	}
	for _, tc := range completed {
		if tc.TotalTiles != len(wantTiles) {
			t.Errorf("TotalTiles = %d, want %d", tc.TotalTiles, len(wantTiles))
		}
		if tc.TileImage == nil {
			t.Error("expected a non-nil tile image in the callback result")
		}
	}
}
