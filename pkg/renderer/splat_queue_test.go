package renderer

import (
	"image"
	"testing"

	"github.com/lumenray/tracer/pkg/core"
)

func TestSplatQueue(t *testing.T) {
	queue := NewSplatQueue()

	if count := queue.GetSplatCount(); count != 0 {
		t.Errorf("Expected empty queue, got %d splats", count)
	}

	queue.AddSplat(10, 20, core.Vec3{X: 0.5, Y: 0.3, Z: 0.1})
	queue.AddSplat(50, 60, core.Vec3{X: 0.8, Y: 0.2, Z: 0.4})
	queue.AddSplat(100, 150, core.Vec3{X: 0.1, Y: 0.9, Z: 0.6})

	if count := queue.GetSplatCount(); count != 3 {
		t.Errorf("Expected 3 splats, got %d", count)
	}

	bounds := image.Rect(0, 0, 100, 100)
	tileSplats := queue.ExtractSplatsForTile(bounds)

	// (100,150) falls outside bounds; only the other two extract.
	if len(tileSplats) != 2 {
		t.Errorf("Expected 2 splats in tile, got %d", len(tileSplats))
	}

	if count := queue.GetSplatCount(); count != 1 {
		t.Errorf("Expected 1 remaining splat, got %d", count)
	}

	largeBounds := image.Rect(0, 0, 200, 200)
	remainingSplats := queue.ExtractSplatsForTile(largeBounds)

	if len(remainingSplats) != 1 {
		t.Errorf("Expected 1 remaining splat, got %d", len(remainingSplats))
	}

	if count := queue.GetSplatCount(); count != 0 {
		t.Errorf("Expected empty queue after extraction, got %d", count)
	}
}

func TestSplatQueueClear(t *testing.T) {
	queue := NewSplatQueue()

	queue.AddSplat(10, 20, core.Vec3{X: 0.5, Y: 0.3, Z: 0.1})
	queue.AddSplat(50, 60, core.Vec3{X: 0.8, Y: 0.2, Z: 0.4})

	if count := queue.GetSplatCount(); count != 2 {
		t.Errorf("Expected 2 splats, got %d", count)
	}

	queue.Clear()

	if count := queue.GetSplatCount(); count != 0 {
		t.Errorf("Expected empty queue after clear, got %d", count)
	}
}

func TestSplatQueueExtractAllIgnoresLocation(t *testing.T) {
	queue := NewSplatQueue()

	queue.AddSplat(10, 20, core.Vec3{X: 0.5, Y: 0.3, Z: 0.1})
	queue.AddSplat(-5, 9000, core.Vec3{X: 0.8, Y: 0.2, Z: 0.4})

	all := queue.ExtractAll()
	if len(all) != 2 {
		t.Errorf("Expected 2 splats from ExtractAll, got %d", len(all))
	}

	if count := queue.GetSplatCount(); count != 0 {
		t.Errorf("Expected empty queue after ExtractAll, got %d", count)
	}
}

func TestSplatQueueConcurrency(t *testing.T) {
	queue := NewSplatQueue()

	done := make(chan bool, 10)

	for i := 0; i < 10; i++ {
		go func(id int) {
			for j := 0; j < 10; j++ {
				queue.AddSplat(id*10+j, id*10+j, core.Vec3{X: float64(id), Y: float64(j), Z: 0.5})
			}
			done <- true
		}(i)
	}

	for i := 0; i < 10; i++ {
		<-done
	}

	if count := queue.GetSplatCount(); count != 100 {
		t.Errorf("Expected 100 splats from concurrent adds, got %d", count)
	}
}
