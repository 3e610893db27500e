package integrator

import (
	"github.com/lumenray/tracer/pkg/bounce"
	"github.com/lumenray/tracer/pkg/capability"
	"github.com/lumenray/tracer/pkg/core"
	"github.com/lumenray/tracer/pkg/vertex"
)

// SamplePT traces one unidirectional path tracing sample from a camera ray,
// adding next-event estimation at every diffuse vertex alongside the
// BSDF-sampled continuation bounce.PT.Bounce already MIS-weights against
// emissive hits. Adapted from the teacher's
// PathTracingIntegrator.rayColorRecursive/calculateDiffuseColor, flattened
// from recursion into a loop over bounce.BounceState.
func (d *Driver) SamplePT(rayPos, rayDir core.Vec3, sampler bounce.Sampler) core.Vec3 {
	pt := bounce.PT{
		Tracer: d.Tracer, Surface: d.Surface, Material: d.Material,
		Emission: d.Emission, Lights: d.Lights, MaxDepth: d.MaxDepth,
	}

	state := bounce.NewBounceState(rayPos, rayDir)
	var total core.Vec3
	var prevBSDFPdf float64

	for state.Alive() {
		res := pt.Bounce(state, prevBSDFPdf, sampler)
		total = total.Add(res.Contribution)
		if res.Vertex.Valid {
			total = total.Add(d.sampleDirectLighting(res.Vertex, sampler))
		}
		prevBSDFPdf = res.BSDFPdf
		state = res.State
	}

	return total
}

// sampleDirectLighting picks a light, samples a point on it, and evaluates
// the shadow-connection contribution MIS-weighted against the material's
// own pdf at that direction, mirroring the teacher's CalculateDirectLighting.
func (d *Driver) sampleDirectLighting(pv vertex.PathVertex, sampler bounce.Sampler) core.Vec3 {
	if d.Lights == nil || d.Lights.Count() == 0 {
		return core.Vec3{}
	}

	idx := d.Lights.Pick(sampler.Get1D())
	light := d.Lights.Light(idx)
	if light == nil {
		return core.Vec3{}
	}
	pickProb := d.Lights.PickProb(idx)

	u, v := sampler.Get2D()
	sample := light.Sample([]float64{u, v})
	if sample.Pdf <= 0 || sample.Color.IsZero() {
		return core.Vec3{}
	}

	toLight := sample.Pos.Subtract(pv.Pos)
	dist := toLight.Length()
	if dist <= 1e-9 {
		return core.Vec3{}
	}
	dir := toLight.Multiply(1.0 / dist)

	cosine := dir.Dot(pv.Normal)
	if cosine <= 0 {
		return core.Vec3{}
	}

	sc := capability.ShadeContext{
		WorldPos: pv.Pos, L: dir, V: pv.RayDir.Multiply(-1), N: pv.Normal,
		FlatN: pv.FlatNormal, Tangent: pv.Tangent, BiTangent: pv.BiTangent, TexCoord: pv.TexCoord,
	}
	eval := d.Material.Eval(pv.MatID, sc, true, false)
	brdf := eval.BRDF.Add(eval.BTDF)
	if brdf.IsZero() {
		return core.Vec3{}
	}

	shadowHit := d.Tracer.Trace(pv.Pos, dir)
	if capability.HitSome(shadowHit) && shadowHit.T < dist-1e-4 {
		return core.Vec3{}
	}

	lightPdfW := sample.Pdf * pickProb
	weight := misBalance(lightPdfW, eval.PdfFwd)

	return pv.AccColor.MultiplyVec(brdf).Multiply(cosine * weight / lightPdfW)
}

func misBalance(a, b float64) float64 {
	if a+b == 0 {
		return 0
	}
	return a / (a + b)
}
