// Package capability defines the collaborator surface the light-transport
// kernel depends on but does not implement: ray/triangle intersection,
// material evaluation, and light sampling. Scene I/O, the BVH, and concrete
// BSDF models live outside this module; callers provide an implementation.
package capability

import "github.com/lumenray/tracer/pkg/core"

// LiteHit is the minimal result of a ray/scene intersection query.
type LiteHit struct {
	T       float64
	GeomID  int32
	InstID  int32
	PrimID  int32
}

// HitSome reports whether a LiteHit represents an actual intersection.
func HitSome(h LiteHit) bool { return h.GeomID >= 0 }

// HitNone reports the absence of an intersection.
func HitNone(h LiteHit) bool { return !HitSome(h) }

// SurfaceHit is the full shading record for a resolved intersection.
type SurfaceHit struct {
	Pos         core.Vec3
	Normal      core.Vec3
	FlatNormal  core.Vec3
	Tangent     core.Vec3
	BiTangent   core.Vec3
	TexCoord    core.Vec2
	MatID       int32
	HitFromInside bool
}

// ShadeContext carries the local frame and incoming/outgoing directions for
// a single BxDF evaluation or sampling call.
type ShadeContext struct {
	WorldPos  core.Vec3
	L         core.Vec3 // direction toward the light side of the interaction
	V         core.Vec3 // direction toward the viewer/previous vertex
	N         core.Vec3
	FlatN     core.Vec3
	Tangent   core.Vec3
	BiTangent core.Vec3
	TexCoord  core.Vec2
}

// BxDFResult is the outcome of a material evaluation: split reflectance and
// transmittance terms plus the forward/reverse solid-angle pdfs at the
// evaluated direction.
type BxDFResult struct {
	BRDF    core.Vec3
	BTDF    core.Vec3
	PdfFwd  float64
	PdfRev  float64
}

// MaterialFlags describes capability bits a material exposes; used by the
// connection kernels to decide one-sided vs. two-sided handling.
type MaterialFlags uint32

const MaterialHaveBTDF MaterialFlags = 1 << 0

// LightSample is a single sampled point on an area/point/spot/env light.
type LightSample struct {
	Pos        core.Vec3
	Color      core.Vec3
	Pdf        float64
	CosAtLight float64
	IsPoint    bool
}

// LightPdfFwd is the forward pdf of a light sample, split into area and
// solid-angle measures.
type LightPdfFwd struct {
	PdfA float64
	PdfW float64
}

// RayTracer resolves a ray against the scene's acceleration structure.
// Implementations are provided by the scene/BVH collaborator; this module
// never traces visibility itself.
type RayTracer interface {
	Trace(pos, dir core.Vec3) LiteHit
}

// SurfaceEvaluator expands a LiteHit into a full shading record.
type SurfaceEvaluator interface {
	Eval(pos, dir core.Vec3, hit LiteHit) SurfaceHit
}

// MaterialEvaluator is the BxDF capability. The adjoint flag inverts the
// cosine convention at evaluation time, per the light-tracing requirement
// that the transposed scattering kernel be used without duplicating
// materials (see the MIS/adjoint design note).
type MaterialEvaluator interface {
	Eval(matID int32, sc ShadeContext, forward, adjoint bool) BxDFResult
	Sample(matID int32, sc ShadeContext, forward, adjoint bool, rnd []float64) (dir core.Vec3, result BxDFResult)
	Flags(matID int32) MaterialFlags
}

// EmissionSample is an emission seed drawn from a light for the start of a
// light-traced subpath: a point and outgoing direction independent of any
// shading point, plus its area and solid-angle pdfs and the radiance
// leaving in that direction.
type EmissionSample struct {
	Pos, Dir   core.Vec3
	Emission   core.Vec3
	PdfA, PdfW float64
}

// Light is an opaque handle into the light table; concrete light kinds
// (area, point, spot, IES, environment) are collaborator-defined. It
// exposes two distinct sampling strategies, mirroring cbidir.h's split
// between NEE-style point sampling and subpath-seeding emission sampling
// (PBRT's Sample_Li / Sample_Le):
//   - Sample is conditioned on a shading point (next-event estimation).
//   - Emit is unconditional, seeding a light-traced subpath.
type Light interface {
	PdfFwd(dir core.Vec3, cosAtLight float64) LightPdfFwd
	Sample(rnd []float64) LightSample
	Emit(rnd []float64) EmissionSample
}

// LightTable selects and samples lights by index.
type LightTable interface {
	Light(idx int) Light
	PickProb(idx int) float64
	SampleSky() (core.Vec3, LightPdfFwd)
	// Pick draws a light index for the uniform variate u in [0,1), per the
	// PickProb distribution it exposes.
	Pick(u float64) int
	Count() int
}

// EmissionEvaluator returns the emitted radiance of a hit surface, when the
// material at matID is emissive. Non-emissive materials return a zero Vec3.
type EmissionEvaluator interface {
	Emission(matID int32, sc ShadeContext) core.Vec3
}

// ScanReduce exposes prefix-sum/average primitives over device buffers.
// The gbuffer and denoise packages do not call it.
type ScanReduce interface {
	PrefixSum(values []float64) []float64
	Average(values []float64) float64
}
