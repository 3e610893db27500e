package bounce

import (
	"math"

	"github.com/lumenray/tracer/pkg/capability"
	"github.com/lumenray/tracer/pkg/core"
	"github.com/lumenray/tracer/pkg/vertex"
)

// LT is the light-tracing bouncer: it advances a subpath seeded at a light
// and relies on the driver to call connect.ConnectEye after each bounce to
// splat a contribution into the frame. Because the transport direction is
// reversed, every material evaluation/sample uses the adjoint BSDF
// convention (see capability.MaterialEvaluator).
type LT struct {
	Tracer   capability.RayTracer
	Surface  capability.SurfaceEvaluator
	Material capability.MaterialEvaluator
	MaxDepth int
}

// Bounce advances one light-traced subpath by a single bounce, returning
// the new PathVertex (for the caller's ConnectEye/MIS bookkeeping) and the
// continuation state. It never itself contributes to the frame buffer —
// that is the connection kernel's job.
func (b LT) Bounce(state BounceState, sampler Sampler) Result {
	if state.BounceCount() >= b.MaxDepth || !state.Alive() {
		return Result{State: state.terminated()}
	}

	hit := b.Tracer.Trace(state.RayPos, state.RayDir)
	if capability.HitNone(hit) {
		return Result{State: state.terminated()}
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

	dir, bsdf := b.Material.Sample(surf.MatID, sc, true, true, sampleVec(sampler))
	if bsdf.PdfFwd <= 0 {
		return Result{State: state.terminated(), Vertex: pv}
	}

	cosine := math.Abs(dir.Dot(surf.Normal))
	newThroughput := state.Throughput.MultiplyVec(bsdf.BRDF.Add(bsdf.BTDF)).Multiply(cosine / bsdf.PdfFwd)

	wasSpecular := bsdf.PdfRev == 0
	terminate, compensation := RussianRoulette(state.BounceCount(), RussianRouletteMinBounces, newThroughput, sampler.Get1D())
	if terminate {
		return Result{State: state.terminated(), Vertex: pv}
	}
	newThroughput = newThroughput.Multiply(compensation)

	next := BounceState{
		RayPos:     surf.Pos,
		RayDir:     dir,
		Throughput: newThroughput,
		SplitDepth: state.SplitDepth,
	}.advance(wasSpecular, true)

	return Result{State: next, Vertex: pv}
}

// SeedFromLight initializes a light-traced subpath state and its first
// PathVertex from a sampled light point and emission direction.
func SeedFromLight(pos, dir, emission core.Vec3, pdfA, pdfW float64) (BounceState, vertex.PathVertex) {
	state := NewBounceState(pos, dir)
	if pdfA <= 0 || pdfW <= 0 {
		state = state.terminated()
	} else {
		state.Throughput = emission.Multiply(1.0 / (pdfA * pdfW))
	}
	pv := vertex.PathVertex{
		Pos: pos, RayDir: dir, AccColor: state.Throughput,
		Valid: true, LastGTerm: 1.0,
	}
	return state, pv
}
