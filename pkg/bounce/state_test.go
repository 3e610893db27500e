package bounce

import (
	"testing"

	"github.com/lumenray/tracer/pkg/core"
)

func TestNewBounceStateIsAlive(t *testing.T) {
	s := NewBounceState(core.NewVec3(0, 0, 0), core.NewVec3(0, 0, -1))
	if !s.Alive() {
		t.Error("NewBounceState should be alive")
	}
	if s.BounceCount() != 0 {
		t.Errorf("BounceCount() = %v, want 0", s.BounceCount())
	}
}

func TestAdvanceTracksSpecularAndDiffuseCounts(t *testing.T) {
	s := NewBounceState(core.NewVec3(0, 0, 0), core.NewVec3(0, 0, -1))
	s = s.advance(false, true) // diffuse bounce
	if s.BounceCount() != 1 || s.DiffBounceCount() != 1 {
		t.Errorf("after diffuse advance: bounce=%v diff=%v, want 1,1", s.BounceCount(), s.DiffBounceCount())
	}
	if s.SpecularPrev() {
		t.Error("SpecularPrev() should be false after a diffuse bounce")
	}

	s = s.advance(true, true) // specular bounce
	if s.BounceCount() != 2 || s.DiffBounceCount() != 1 {
		t.Errorf("after specular advance: bounce=%v diff=%v, want 2,1", s.BounceCount(), s.DiffBounceCount())
	}
	if !s.SpecularPrev() {
		t.Error("SpecularPrev() should be true after a specular bounce")
	}
}

func TestTerminatedClearsAlive(t *testing.T) {
	s := NewBounceState(core.NewVec3(0, 0, 0), core.NewVec3(0, 0, -1)).terminated()
	if s.Alive() {
		t.Error("terminated() state should not be alive")
	}
}

func TestRussianRouletteSkippedBeforeMinBounces(t *testing.T) {
	terminate, comp := RussianRoulette(1, 3, core.NewVec3(0.01, 0.01, 0.01), 0.99)
	if terminate || comp != 1.0 {
		t.Errorf("RussianRoulette before min bounces = (%v,%v), want (false,1.0)", terminate, comp)
	}
}

func TestRussianRouletteTerminatesLowThroughput(t *testing.T) {
	// Survival prob clamps to 0.5 floor; u=0.99 exceeds it and should terminate.
	terminate, comp := RussianRoulette(5, 3, core.NewVec3(0.001, 0.001, 0.001), 0.99)
	if !terminate || comp != 0 {
		t.Errorf("RussianRoulette with low throughput = (%v,%v), want (true,0)", terminate, comp)
	}
}

func TestRussianRouletteCompensationConservesEnergy(t *testing.T) {
	terminate, comp := RussianRoulette(5, 3, core.NewVec3(1, 1, 1), 0.1)
	if terminate {
		t.Fatal("high-throughput ray should survive at u=0.1")
	}
	if comp < 1.0 || comp > 2.0 {
		t.Errorf("RussianRoulette compensation = %v, want in [1.0, 2.0]", comp)
	}
}

func TestDrawSplitDepthBounds(t *testing.T) {
	for _, u := range []float64{0, 0.25, 0.5, 0.75, 0.999} {
		s := DrawSplitDepth(6, u)
		if s < 0 || s > 6 {
			t.Errorf("DrawSplitDepth(6, %v) = %v, want in [0,6]", u, s)
		}
	}
}
