package integrator

import (
	"math"
	"math/rand"

	"github.com/lumenray/tracer/pkg/camfactor"
	"github.com/lumenray/tracer/pkg/capability"
	"github.com/lumenray/tracer/pkg/core"
	"github.com/lumenray/tracer/pkg/vertex"
)

// missTracer always reports no intersection, modeling an empty scene.
type missTracer struct{}

func (missTracer) Trace(pos, dir core.Vec3) capability.LiteHit {
	return capability.LiteHit{GeomID: -1}
}

// sphereTracer reports a hit at a fixed distance for rays pointing roughly
// along the camera's forward axis, modeling a single surface filling the
// field of view while leaving rays toward an overhead light (e.g. a shadow
// ray) unoccluded.
type sphereTracer struct{ dist float64 }

func (s sphereTracer) Trace(pos, dir core.Vec3) capability.LiteHit {
	if dir.Z < -0.5 {
		return capability.LiteHit{T: s.dist, GeomID: 0, PrimID: 0}
	}
	return capability.LiteHit{GeomID: -1}
}

// alwaysHitTracer reports a hit at a fixed distance on every ray regardless
// of direction, modeling an occluder between two points under test.
type alwaysHitTracer struct{ dist float64 }

func (a alwaysHitTracer) Trace(pos, dir core.Vec3) capability.LiteHit {
	return capability.LiteHit{T: a.dist, GeomID: 0, PrimID: 0}
}

// diffuseSurface returns a fixed surface record facing back toward the ray
// origin, regardless of where the ray actually pointed.
type diffuseSurface struct{ matID int32 }

func (s diffuseSurface) Eval(pos, dir core.Vec3, hit capability.LiteHit) capability.SurfaceHit {
	return capability.SurfaceHit{
		Pos:    pos.Add(dir.Multiply(hit.T)),
		Normal: dir.Multiply(-1),
		MatID:  s.matID,
	}
}

// lambertMaterial is a pure Lambertian BRDF with no transmission.
type lambertMaterial struct{ albedo core.Vec3 }

func (m lambertMaterial) Eval(matID int32, sc capability.ShadeContext, forward, adjoint bool) capability.BxDFResult {
	cosine := math.Abs(sc.L.Dot(sc.N))
	return capability.BxDFResult{
		BRDF:   m.albedo.Multiply(1 / math.Pi),
		PdfFwd: cosine / math.Pi,
		PdfRev: cosine / math.Pi,
	}
}

func (m lambertMaterial) Sample(matID int32, sc capability.ShadeContext, forward, adjoint bool, rnd []float64) (core.Vec3, capability.BxDFResult) {
	dir := cosineHemisphere(sc.N, rnd[0], rnd[1])
	return dir, m.Eval(matID, capability.ShadeContext{L: dir, N: sc.N}, forward, adjoint)
}

func (m lambertMaterial) Flags(matID int32) capability.MaterialFlags { return 0 }

func cosineHemisphere(n core.Vec3, u, v float64) core.Vec3 {
	r := math.Sqrt(u)
	theta := 2 * math.Pi * v
	x, y := r*math.Cos(theta), r*math.Sin(theta)
	z := math.Sqrt(math.Max(0, 1-u))

	worldUp := core.NewVec3(0, 1, 0)
	if math.Abs(n.Y) > 0.99 {
		worldUp = core.NewVec3(1, 0, 0)
	}
	t := n.Cross(worldUp).Normalize()
	b := n.Cross(t)
	return t.Multiply(x).Add(b.Multiply(y)).Add(n.Multiply(z)).Normalize()
}

// noEmission never emits.
type noEmission struct{}

func (noEmission) Emission(matID int32, sc capability.ShadeContext) core.Vec3 { return core.Vec3{} }

// constSkyLights has no sampleable lights, only a constant-radiance
// environment, for convergence tests against a uniform sky.
type constSkyLights struct{ color core.Vec3 }

func (l constSkyLights) Light(idx int) capability.Light { return nil }
func (l constSkyLights) PickProb(idx int) float64       { return 0 }
func (l constSkyLights) SampleSky() (core.Vec3, capability.LightPdfFwd) {
	return l.color, capability.LightPdfFwd{}
}
func (l constSkyLights) Pick(u float64) int { return -1 }
func (l constSkyLights) Count() int         { return 0 }

// furnaceTracer models a reflective enclosure immersed in a constant
// environment: each trace either escapes to the environment with
// escapeProb or hits a surface at a fixed distance.
type furnaceTracer struct {
	rnd        *rand.Rand
	escapeProb float64
	dist       float64
}

func (t *furnaceTracer) Trace(pos, dir core.Vec3) capability.LiteHit {
	if t.rnd.Float64() < t.escapeProb {
		return capability.LiteHit{GeomID: -1}
	}
	return capability.LiteHit{T: t.dist, GeomID: 0, PrimID: 0}
}

// emptyLights has no lights and no sky.
type emptyLights struct{}

func (emptyLights) Light(idx int) capability.Light               { return nil }
func (emptyLights) PickProb(idx int) float64                     { return 0 }
func (emptyLights) SampleSky() (core.Vec3, capability.LightPdfFwd) { return core.Vec3{}, capability.LightPdfFwd{} }
func (emptyLights) Pick(u float64) int                           { return -1 }
func (emptyLights) Count() int                                   { return 0 }

// pointLight is a single light at a fixed position with constant radiance,
// always visible (no area, so CosAtLight is always 1).
type pointLight struct {
	pos   core.Vec3
	color core.Vec3
	pdfA  float64
}

func (l pointLight) PdfFwd(dir core.Vec3, cosAtLight float64) capability.LightPdfFwd {
	return capability.LightPdfFwd{PdfA: l.pdfA, PdfW: l.pdfA}
}

func (l pointLight) Sample(rnd []float64) capability.LightSample {
	return capability.LightSample{Pos: l.pos, Color: l.color, Pdf: l.pdfA, CosAtLight: 1, IsPoint: true}
}

func (l pointLight) Emit(rnd []float64) capability.EmissionSample {
	dir := core.NewVec3(0, -1, 0)
	return capability.EmissionSample{Pos: l.pos, Dir: dir, Emission: l.color, PdfA: l.pdfA, PdfW: 1}
}

type singleLightTable struct{ light capability.Light }

func (t singleLightTable) Light(idx int) capability.Light { return t.light }
func (t singleLightTable) PickProb(idx int) float64       { return 1 }
func (t singleLightTable) SampleSky() (core.Vec3, capability.LightPdfFwd) {
	return core.Vec3{}, capability.LightPdfFwd{}
}
func (t singleLightTable) Pick(u float64) int { return 0 }
func (t singleLightTable) Count() int         { return 1 }

func testCamera() camfactor.Camera {
	pos := core.NewVec3(0, 0, 0)
	forward := core.NewVec3(0, 0, -1)
	up := core.NewVec3(0, 1, 0)
	return camfactor.Camera{
		Pos:            pos,
		Forward:        forward,
		ImagePlaneDist: 1.0,
		FovX:           math.Pi / 3,
		FovY:           math.Pi / 3,
		Width:          64,
		Height:         64,
		WorldView:      core.LookAt(pos, pos.Add(forward), up),
		Proj:           core.Perspective(math.Pi/3, 1.0, 0.01, 1000),
	}
}

func newRandSampler(seed int64) RandSampler {
	return RandSampler{Rnd: rand.New(rand.NewSource(seed))}
}

func testVertex() vertex.PathVertex {
	return vertex.PathVertex{
		Pos:      core.NewVec3(0, 0, -2),
		Normal:   core.NewVec3(0, 0, 1),
		RayDir:   core.NewVec3(0, 0, -1),
		AccColor: core.NewVec3(1, 1, 1),
		MatID:    0,
		Valid:    true,
	}
}
