package integrator

import (
	"testing"

	"github.com/lumenray/tracer/pkg/core"
	"github.com/lumenray/tracer/pkg/renderer"
	"github.com/lumenray/tracer/pkg/vertex"
)

func TestSampleBDPTEmptySceneIsBlack(t *testing.T) {
	d := &Driver{
		Collaborators: Collaborators{
			Tracer: missTracer{},
			Lights: emptyLights{},
			Camera: testCamera(),
		},
		MaxDepth: DefaultMaxDepth,
	}
	splats := renderer.NewSplatQueue()
	sampler := newRandSampler(11)
	got := d.SampleBDPT(core.NewVec3(0, 0, 0), core.NewVec3(0, 0, -1), sampler, splats, 4096)
	if !got.IsZero() {
		t.Errorf("SampleBDPT over an empty scene with no lights = %v, want zero", got)
	}
	if n := splats.GetSplatCount(); n != 0 {
		t.Errorf("SampleBDPT over an empty scene produced %d splats, want 0", n)
	}
}

func TestTraceLightSubpathNoLightsReturnsEmpty(t *testing.T) {
	d := &Driver{
		Collaborators: Collaborators{Lights: emptyLights{}},
	}
	splats := renderer.NewSplatQueue()
	sampler := newRandSampler(5)
	verts := d.traceLightSubpath(sampler, splats, 4096)
	if len(verts) != 0 {
		t.Errorf("traceLightSubpath with no lights returned %d verts, want 0", len(verts))
	}
}

func TestStochasticConnectionEmptyLightVertsReturnsZero(t *testing.T) {
	d := &Driver{Collaborators: Collaborators{Material: lambertMaterial{albedo: core.NewVec3(1, 1, 1)}}}
	cv := testVertex()
	pdfArray := vertex.NewPdfArray(8)
	sampler := newRandSampler(3)
	got := d.stochasticConnection(cv, 1, nil, pdfArray, sampler)
	if !got.IsZero() {
		t.Errorf("stochasticConnection with no light vertices = %v, want zero", got)
	}
}

func TestStochasticConnectionOccludedReturnsZero(t *testing.T) {
	d := &Driver{
		Collaborators: Collaborators{
			Tracer:   alwaysHitTracer{dist: 0.1},
			Material: lambertMaterial{albedo: core.NewVec3(1, 1, 1)},
		},
	}
	cv := vertex.PathVertex{
		Pos: core.NewVec3(0, 0, -2), Normal: core.NewVec3(1, 0, 0),
		RayDir: core.NewVec3(0, 0, -1), AccColor: core.NewVec3(1, 1, 1), Valid: true,
	}
	lv := vertex.PathVertex{
		Pos: core.NewVec3(1, 0, -2), Normal: core.NewVec3(-1, 0, 0),
		RayDir: core.NewVec3(1, 0, 0), AccColor: core.NewVec3(1, 1, 1), Valid: true,
	}
	pdfArray := vertex.NewPdfArray(8)
	sampler := newRandSampler(7)
	got := d.stochasticConnection(cv, 1, []vertex.PathVertex{lv}, pdfArray, sampler)
	if !got.IsZero() {
		t.Errorf("stochasticConnection occluded = %v, want zero", got)
	}
}
