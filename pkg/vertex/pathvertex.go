// Package vertex implements the PathVertex/PdfVertex data model shared by
// every integrator, including the packed five-float4 wire layout used for
// device-side per-path storage (see original_source/hydra_drv/cbidir.h:
// PathVertexT/PdfVertexT/InitPathVertex).
package vertex

import (
	"math"

	"github.com/lumenray/tracer/pkg/core"
)

// Flag bits packed into the fourth (W) component of the fifth float4 record.
const (
	FlagValid         uint32 = 1
	FlagWasSpecOnly   uint32 = 2
	FlagHitFromInside uint32 = 4
)

// PathVertex is a scattering event on a path. Fields mirror
// original_source/hydra_drv/cbidir.h's PathVertexT, generalized with the
// normal/tangent/texCoord fields carried on SurfaceHit and a MatID used by
// the G-buffer matDiff term and the denoise object-class key.
type PathVertex struct {
	Pos             core.Vec3
	Normal          core.Vec3
	FlatNormal      core.Vec3
	Tangent         core.Vec3
	BiTangent       core.Vec3
	TexCoord        core.Vec2
	MatID           int32
	RayDir          core.Vec3
	AccColor        core.Vec3
	LastGTerm       float64
	Valid           bool
	WasSpecularOnly bool
	HitFromInside   bool
}

// NewPathVertex returns a PathVertex in its InitPathVertex state: invalid,
// unit throughput, unit last geometry term, no specular-only flag.
func NewPathVertex() PathVertex {
	return PathVertex{
		AccColor:  core.NewVec3(1, 1, 1),
		LastGTerm: 1.0,
	}
}

func (v PathVertex) flags() uint32 {
	var f uint32
	if v.Valid {
		f |= FlagValid
	}
	if v.WasSpecularOnly {
		f |= FlagWasSpecOnly
	}
	if v.HitFromInside {
		f |= FlagHitFromInside
	}
	return f
}

// Pack serializes the vertex into exactly five float4 records: three carry
// geometric data (position+matId, normal+texU, flat normal+texV; in this
// host layout the geometric fields are kept explicit rather than
// bit-packed), one carries ray_dir+G, one carries throughput+flags.
func (v PathVertex) Pack() [5]core.Vec4 {
	var r [5]core.Vec4
	r[0] = core.NewVec4(v.Pos.X, v.Pos.Y, v.Pos.Z, float64(v.MatID))
	r[1] = core.Vec4FromVec3(v.Normal, v.TexCoord.X)
	r[2] = core.Vec4FromVec3(v.FlatNormal, v.TexCoord.Y)
	r[3] = core.Vec4FromVec3(v.RayDir, v.LastGTerm)
	r[4] = core.NewVec4(v.AccColor.X, v.AccColor.Y, v.AccColor.Z, float64(v.flags()))
	return r
}

// Unpack reconstructs a PathVertex from its five-record wire form. Tangent
// and BiTangent are not part of the packed wire contract (§3 lists three
// geometric records for position/normal/flat-normal plus ray_dir+G and
// throughput+flags — five in total) and are left zero; callers that need
// them keep the unpacked PathVertex around instead of round-tripping.
func Unpack(r [5]core.Vec4) PathVertex {
	flags := uint32(r[4].W)
	return PathVertex{
		Pos:             r[0].XYZ(),
		MatID:           int32(r[0].W),
		Normal:          r[1].XYZ(),
		FlatNormal:      r[2].XYZ(),
		TexCoord:        core.NewVec2(r[1].W, r[2].W),
		RayDir:          r[3].XYZ(),
		LastGTerm:       r[3].W,
		AccColor:        r[4].XYZ(),
		Valid:           flags&FlagValid != 0,
		WasSpecularOnly: flags&FlagWasSpecOnly != 0,
		HitFromInside:   flags&FlagHitFromInside != 0,
	}
}

// PdfVertex is a pair of area-measure pdfs at a path vertex. A negative
// value is a sentinel: the underlying pdf-per-solid-angle was zero (a delta
// distribution), and the magnitude is the geometry term to substitute when
// forming the balance heuristic. Every consumer must check the sign first.
type PdfVertex struct {
	PdfFwd float64
	PdfRev float64
}

// NewPdfArray allocates a pdfArray of d+1 entries for a path of total depth d.
func NewPdfArray(depth int) []PdfVertex {
	return make([]PdfVertex, depth+1)
}

// GeometryTerm computes G(x,y) = |cosThetaX * cosThetaY| / ||x-y||^2.
func GeometryTerm(cosX, cosY, distSquared float64) float64 {
	if distSquared <= 0 {
		return 0
	}
	return math.Abs(cosX*cosY) / distSquared
}

// GBufferPixel is the per-pixel first-hit record produced by the G-buffer
// estimator (see original_source/hydra_drv/CPUExp_GBuffer.cpp).
type GBufferPixel struct {
	// data1
	Color    core.Vec3 // RGB
	Alpha    float64
	Normal   core.Vec3
	Depth    float64
	MatID    int32
	Coverage float64

	// data2
	TexCoord core.Vec2
	ObjID    int32
	InstID   int32
}

// ObjectClassID packs matId and instId into the 64-bit object-class key used
// by the denoise pipeline's per-object aggregation pass.
func (g GBufferPixel) ObjectClassID() uint64 {
	return (uint64(uint32(g.MatID)) << 32) | uint64(uint32(g.InstID))
}
