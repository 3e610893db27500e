package renderer

import (
	"image"
	"sync/atomic"
	"testing"
)

func countingRender(calls *int64) TileRenderFunc {
	return func(bounds image.Rectangle, pixelStats [][]PixelStats, tile *Tile, targetSamples int) RenderStats {
		atomic.AddInt64(calls, 1)
		return RenderStats{TotalPixels: bounds.Dx() * bounds.Dy()}
	}
}

func TestWorkerPoolRunsEveryTask(t *testing.T) {
	var calls int64
	wp := NewWorkerPool(countingRender(&calls), 16, 16, 8, 2)
	wp.Start()

	tiles := NewTileGrid(16, 16, 8)
	for i, tile := range tiles {
		wp.SubmitTask(TileTask{Tile: tile, TaskID: i, TargetSamples: 1})
	}

	results := make(map[int]bool)
	for range tiles {
		result, ok := wp.GetResult()
		if !ok {
			t.Fatal("result queue closed before all tiles completed")
		}
		if result.Error != nil {
			t.Errorf("tile %d returned error: %v", result.TaskID, result.Error)
		}
		results[result.TaskID] = true
	}
	wp.Stop()

	if len(results) != len(tiles) {
		t.Errorf("got results for %d tiles, want %d", len(results), len(tiles))
	}
	if got := atomic.LoadInt64(&calls); got != int64(len(tiles)) {
		t.Errorf("render called %d times, want %d", got, len(tiles))
	}
}

func TestWorkerPoolDefaultsNumWorkersWhenZero(t *testing.T) {
	wp := NewWorkerPool(countingRender(new(int64)), 8, 8, 8, 0)
	if wp.GetNumWorkers() <= 0 {
		t.Errorf("GetNumWorkers() = %d, want positive default", wp.GetNumWorkers())
	}
}

func TestWorkerPoolGetNumWorkersMatchesRequested(t *testing.T) {
	wp := NewWorkerPool(countingRender(new(int64)), 8, 8, 8, 3)
	if wp.GetNumWorkers() != 3 {
		t.Errorf("GetNumWorkers() = %d, want 3", wp.GetNumWorkers())
	}
}
