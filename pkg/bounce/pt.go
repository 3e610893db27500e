package bounce

import (
	"math"

	"github.com/lumenray/tracer/pkg/capability"
	"github.com/lumenray/tracer/pkg/core"
	"github.com/lumenray/tracer/pkg/vertex"
)

// RussianRouletteMinBounces is the default bounce count after which PT/LT
// begin applying Russian roulette (spec.md §4.G default max depth is 6).
const RussianRouletteMinBounces = 3

// Result is what a single bouncer step produces: the advanced state, the
// PathVertex recorded at the hit (zero-value/invalid on a miss), and the
// unweighted contribution this bounce adds to the running estimate.
type Result struct {
	State        BounceState
	Vertex       vertex.PathVertex
	Contribution core.Vec3
	// BSDFPdf is the forward solid-angle pdf of the direction State
	// continues in, needed by the caller to MIS-weight an emissive hit at
	// the next bounce against next-event estimation at this vertex.
	BSDFPdf float64
}

// PT is the unidirectional path-tracing bouncer.
type PT struct {
	Tracer   capability.RayTracer
	Surface  capability.SurfaceEvaluator
	Material capability.MaterialEvaluator
	Emission capability.EmissionEvaluator
	Lights   capability.LightTable
	MaxDepth int
}

// Bounce advances one PT sample by a single bounce. It is responsible for:
// tracing the ray, adding environment/emitted contributions (MIS-weighted
// against the pdf the previous bounce's BSDF sample implied), sampling the
// BSDF to continue, and applying Russian roulette.
func (b PT) Bounce(state BounceState, prevBSDFPdf float64, sampler Sampler) Result {
	if state.BounceCount() >= b.MaxDepth || !state.Alive() {
		return Result{State: state.terminated()}
	}

	hit := b.Tracer.Trace(state.RayPos, state.RayDir)
	if capability.HitNone(hit) {
		env := b.environmentContribution(state, prevBSDFPdf)
		return Result{State: state.terminated(), Contribution: env}
	}

	surf := b.Surface.Eval(state.RayPos, state.RayDir, hit)
	pv := vertex.PathVertex{
		Pos: surf.Pos, Normal: surf.Normal, FlatNormal: surf.FlatNormal,
		Tangent: surf.Tangent, BiTangent: surf.BiTangent, TexCoord: surf.TexCoord,
		MatID: surf.MatID, RayDir: state.RayDir, AccColor: state.Throughput,
		Valid: true, HitFromInside: surf.HitFromInside,
	}

	sc := capability.ShadeContext{
		WorldPos: surf.Pos, V: state.RayDir.Multiply(-1), N: surf.Normal,
		FlatN: surf.FlatNormal, Tangent: surf.Tangent, BiTangent: surf.BiTangent, TexCoord: surf.TexCoord,
	}

	var contribution core.Vec3
	if b.Emission != nil {
		emitted := b.Emission.Emission(surf.MatID, sc)
		if !emitted.IsZero() {
			weight := 1.0
			if state.BounceCount() > 0 && !state.SpecularPrev() {
				lightPdf := b.lightOriginPdf(surf, state.RayDir)
				weight = balanceWeight(prevBSDFPdf, lightPdf)
			}
			contribution = state.Throughput.MultiplyVec(emitted).Multiply(weight)
		}
	}

	dir, bsdf := b.Material.Sample(surf.MatID, sc, true, false, sampleVec(sampler))
	if bsdf.PdfFwd <= 0 {
		return Result{State: state.terminated(), Vertex: pv, Contribution: contribution}
	}

	cosine := math.Abs(dir.Dot(surf.Normal))
	newThroughput := state.Throughput.MultiplyVec(bsdf.BRDF.Add(bsdf.BTDF)).Multiply(cosine / bsdf.PdfFwd)

	wasSpecular := bsdf.PdfRev == 0
	terminate, compensation := RussianRoulette(state.BounceCount(), RussianRouletteMinBounces, newThroughput, sampler.Get1D())
	if terminate {
		return Result{State: state.terminated(), Vertex: pv, Contribution: contribution}
	}
	newThroughput = newThroughput.Multiply(compensation)

	next := BounceState{
		RayPos:     surf.Pos,
		RayDir:     dir,
		Throughput: newThroughput,
		SplitDepth: state.SplitDepth,
	}.advance(wasSpecular, true)

	return Result{State: next, Vertex: pv, Contribution: contribution, BSDFPdf: bsdf.PdfFwd}
}

func (b PT) environmentContribution(state BounceState, prevBSDFPdf float64) core.Vec3 {
	if b.Lights == nil {
		return core.Vec3{}
	}
	env, lPdf := b.Lights.SampleSky()
	if env.IsZero() {
		return core.Vec3{}
	}
	weight := 1.0
	if state.BounceCount() > 0 && !state.SpecularPrev() {
		weight = balanceWeight(prevBSDFPdf, lPdf.PdfW)
	}
	return state.Throughput.MultiplyVec(env).Multiply(weight)
}

func (b PT) lightOriginPdf(surf capability.SurfaceHit, incoming core.Vec3) float64 {
	// Collaborator-provided light-selection pdf; it is 0 when no light table
	// is wired up or no light is registered at the hit's MatID.
	if b.Lights == nil {
		return 0
	}
	l := b.Lights.Light(int(surf.MatID))
	if l == nil {
		return 0
	}
	pdf := l.PdfFwd(incoming.Multiply(-1), math.Abs(surf.Normal.Dot(incoming)))
	return pdf.PdfW
}

// balanceWeight is the two-strategy balance heuristic, equivalent to
// mis.StrategyWeights for a depth-1 pdfArray but avoiding the allocation.
func balanceWeight(a, b float64) float64 {
	if a+b == 0 {
		return 0
	}
	return a / (a + b)
}

func sampleVec(s Sampler) []float64 {
	u, v := s.Get2D()
	return []float64{u, v, s.Get1D()}
}
