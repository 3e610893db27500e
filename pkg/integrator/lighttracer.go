package integrator

import (
	"github.com/lumenray/tracer/pkg/bounce"
	"github.com/lumenray/tracer/pkg/connect"
	"github.com/lumenray/tracer/pkg/renderer"
	"github.com/lumenray/tracer/pkg/vertex"
)

// SampleLT traces one light-traced subpath and splats its contribution to
// the frame through connect.ConnectEye at every bounce, including the light
// source itself (direct hits of the light on the lens). subPathCount is the
// number of light subpaths traced per sample across the image (RenderSession
// passes width*height), used by ConnectEye's image-to-surface normalization. Nothing is returned
// directly: light tracing contributes only via splats (spec.md §4.F).
func (d *Driver) SampleLT(sampler bounce.Sampler, splats *renderer.SplatQueue, subPathCount float64) {
	if d.Lights == nil || d.Lights.Count() == 0 {
		return
	}

	idx := d.Lights.Pick(sampler.Get1D())
	light := d.Lights.Light(idx)
	if light == nil {
		return
	}
	u1, v1 := sampler.Get2D()
	u2, v2 := sampler.Get2D()
	seed := light.Emit([]float64{u1, v1, u2, v2})

	pickProb := d.Lights.PickProb(idx)
	state, pv := bounce.SeedFromLight(seed.Pos, seed.Dir, seed.Emission, seed.PdfA*pickProb, seed.PdfW)

	lt := bounce.LT{Tracer: d.Tracer, Surface: d.Surface, Material: d.Material, MaxDepth: d.MaxDepth}
	pdfArray := vertex.NewPdfArray(d.MaxDepth + 2)

	splatVertex(d, pv, 0, subPathCount, splats, pdfArray)

	for state.Alive() {
		res := lt.Bounce(state, sampler)
		if res.Vertex.Valid {
			splatVertex(d, res.Vertex, state.BounceCount()+1, subPathCount, splats, pdfArray)
		}
		state = res.State
	}
}

func splatVertex(d *Driver, lv vertex.PathVertex, ltDepth int, subPathCount float64, splats *renderer.SplatQueue, pdfArray []vertex.PdfVertex) {
	toCamera := d.Camera.Pos.Subtract(lv.Pos)
	dist := toCamera.Length()
	if dist <= 1e-9 {
		return
	}
	dir := toCamera.Multiply(1.0 / dist)

	shadowHit := d.Tracer.Trace(lv.Pos, dir)
	eyeConn := connect.ConnectEye(d.Camera, d.Material, lv, ltDepth, subPathCount, shadowHit, pdfArray)
	if eyeConn.Px < 0 {
		return
	}
	splats.AddSplat(eyeConn.Px, eyeConn.Py, eyeConn.Color)
}
