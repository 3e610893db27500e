package integrator

import (
	"github.com/lumenray/tracer/pkg/bounce"
	"github.com/lumenray/tracer/pkg/capability"
	"github.com/lumenray/tracer/pkg/connect"
	"github.com/lumenray/tracer/pkg/core"
	"github.com/lumenray/tracer/pkg/renderer"
	"github.com/lumenray/tracer/pkg/vertex"
)

// SampleBDPT implements the stochastic-connection bidirectional estimator
// (spec.md §4.F SBDPT/IBPT): a camera subpath (unidirectional path tracing,
// same as SamplePT) combined with one random connection per camera vertex
// to a vertex drawn from a single light subpath, via connect.ConnectEndpoints.
// The light subpath also splats its own eye connections, exactly as SampleLT.
// Adapted from the teacher's bdpt.go vertex/path model, replacing the
// teacher's exhaustive per-strategy summation with a single stochastic
// connection per camera vertex.
//
// The full balance-heuristic combination pkg/mis implements needs every
// vertex's forward/reverse pdf populated across both subpaths; bounce.PT/LT
// do not record that per vertex (see DESIGN.md). This driver therefore
// combines the stochastic connection by uniform discrete averaging over the
// light subpath rather than a full multi-strategy MIS weight — an unbiased
// single-random-connection estimator, not the teacher's exhaustive sum.
func (d *Driver) SampleBDPT(rayPos, rayDir core.Vec3, sampler bounce.Sampler, splats *renderer.SplatQueue, subPathCount float64) core.Vec3 {
	lightVerts := d.traceLightSubpath(sampler, splats, subPathCount)

	pt := bounce.PT{
		Tracer: d.Tracer, Surface: d.Surface, Material: d.Material,
		Emission: d.Emission, Lights: d.Lights, MaxDepth: d.MaxDepth,
	}

	state := bounce.NewBounceState(rayPos, rayDir)
	var total core.Vec3
	var prevBSDFPdf float64
	pdfArray := vertex.NewPdfArray(d.MaxDepth + len(lightVerts) + 2)

	for state.Alive() {
		res := pt.Bounce(state, prevBSDFPdf, sampler)
		total = total.Add(res.Contribution)

		if res.Vertex.Valid {
			total = total.Add(d.sampleDirectLighting(res.Vertex, sampler))
			total = total.Add(d.stochasticConnection(res.Vertex, state.BounceCount()+1, lightVerts, pdfArray, sampler))
		}

		prevBSDFPdf = res.BSDFPdf
		state = res.State
	}

	return total
}

func (d *Driver) traceLightSubpath(sampler bounce.Sampler, splats *renderer.SplatQueue, subPathCount float64) []vertex.PathVertex {
	if d.Lights == nil || d.Lights.Count() == 0 {
		return nil
	}

	idx := d.Lights.Pick(sampler.Get1D())
	light := d.Lights.Light(idx)
	if light == nil {
		return nil
	}
	u1, v1 := sampler.Get2D()
	u2, v2 := sampler.Get2D()
	seed := light.Emit([]float64{u1, v1, u2, v2})
	pickProb := d.Lights.PickProb(idx)
	state, pv := bounce.SeedFromLight(seed.Pos, seed.Dir, seed.Emission, seed.PdfA*pickProb, seed.PdfW)

	lt := bounce.LT{Tracer: d.Tracer, Surface: d.Surface, Material: d.Material, MaxDepth: d.MaxDepth}
	eyePdfArray := vertex.NewPdfArray(d.MaxDepth + 2)

	verts := make([]vertex.PathVertex, 0, d.MaxDepth)
	if pv.Valid {
		verts = append(verts, pv)
		splatVertex(d, pv, 0, subPathCount, splats, eyePdfArray)
	}

	for state.Alive() {
		res := lt.Bounce(state, sampler)
		if res.Vertex.Valid {
			verts = append(verts, res.Vertex)
			splatVertex(d, res.Vertex, state.BounceCount()+1, subPathCount, splats, eyePdfArray)
		}
		state = res.State
	}
	return verts
}

// stochasticConnection draws one vertex from the light subpath and connects
// it to the camera vertex cv at depth t, returning the uniformly-averaged
// contribution.
func (d *Driver) stochasticConnection(cv vertex.PathVertex, camDepth int, lightVerts []vertex.PathVertex, pdfArray []vertex.PdfVertex, sampler bounce.Sampler) core.Vec3 {
	if len(lightVerts) == 0 {
		return core.Vec3{}
	}
	lv := lightVerts[0]
	s := 1
	if len(lightVerts) > 1 {
		s = 1 + int(sampler.Get1D()*float64(len(lightVerts)))
		if s > len(lightVerts) {
			s = len(lightVerts)
		}
		lv = lightVerts[s-1]
	}
	d2 := s + camDepth
	if d2+1 > len(pdfArray) {
		return core.Vec3{}
	}

	c := connect.ConnectEndpoints(d.Material, lv, cv, s, d2, pdfArray)
	if c.IsZero() {
		return core.Vec3{}
	}

	diff := cv.Pos.Subtract(lv.Pos)
	dist := diff.Length()
	if dist <= 1e-9 {
		return core.Vec3{}
	}
	dir := diff.Multiply(1.0 / dist)
	shadowHit := d.Tracer.Trace(lv.Pos, dir)
	if capability.HitSome(shadowHit) && shadowHit.T < dist-1e-4 {
		return core.Vec3{}
	}

	return c.Multiply(1.0 / float64(len(lightVerts)))
}
