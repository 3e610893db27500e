// Package connect implements the three connection kernels shared by light
// tracing, shadow-ray next-event estimation, and stochastic bidirectional
// connections. None of the three trace visibility themselves — callers
// resolve the shadow ray separately and pass in its result. Grounded on
// original_source/hydra_drv/cbidir.h (ConnectEyeP, ConnectShadowP,
// ConnectEndPointsP), restructured into the teacher's evaluateConnectionStrategy/
// evaluateDirectLightingStrategy shape (pkg/integrator/bdpt.go).
package connect

import (
	"math"

	"github.com/lumenray/tracer/pkg/camfactor"
	"github.com/lumenray/tracer/pkg/capability"
	"github.com/lumenray/tracer/pkg/core"
	"github.com/lumenray/tracer/pkg/vertex"
)

const (
	depsilon  = 1e-20
	depsilon2 = 1e-40
)

// EyeConnection is the result of ConnectEye: a pixel to splat into and the
// unshadowed contribution. Px/Py are -1 when the connection is invalid.
type EyeConnection struct {
	Px, Py int
	Color  core.Vec3
}

// ConnectEye evaluates a light-tracing "connect vertex to eye" step. It
// populates pdfArray[ltDepth] and pdfArray[ltDepth+1] and returns the pixel
// the light vertex projects to along with its unshadowed contribution.
// shadowHit is the result of the caller's own visibility trace from the
// light vertex toward the camera; pass a miss (capability.HitNone) if the
// caller has not traced it yet.
func ConnectEye(cam camfactor.Camera, mat capability.MaterialEvaluator, lv vertex.PathVertex, ltDepth int, subPathCount float64, shadowHit capability.LiteHit, pdfArray []vertex.PdfVertex) EyeConnection {
	factor := cam.CameraImageToSurfaceFactor(lv.Pos, lv.Normal)

	if factor.ImageToSurfaceFactor <= 0 || (capability.HitSome(shadowHit) && shadowHit.T <= factor.ZDepth) {
		return EyeConnection{Px: -1, Py: -1}
	}

	surfaceToImageFactor := 1.0 / factor.ImageToSurfaceFactor

	sc := capability.ShadeContext{
		WorldPos:  lv.Pos,
		L:         factor.CamDir,
		V:         lv.RayDir.Multiply(-1),
		N:         lv.Normal,
		FlatN:     lv.FlatNormal,
		Tangent:   lv.Tangent,
		BiTangent: lv.BiTangent,
		TexCoord:  lv.TexCoord,
	}
	eval := mat.Eval(lv.MatID, sc, false, true)
	colorConnect := eval.BRDF.Add(eval.BTDF)
	pdfRevW := eval.PdfRev

	cosCurr := math.Abs(lv.RayDir.Dot(lv.Normal))
	pdfRevWP := pdfRevW / math.Max(cosCurr, depsilon2)
	cameraPdfA := factor.ImageToSurfaceFactor / subPathCount

	if pdfRevW == 0 {
		pdfArray[ltDepth].PdfRev = -lv.LastGTerm
	} else {
		pdfArray[ltDepth].PdfRev = pdfRevWP * lv.LastGTerm
	}
	pdfArray[ltDepth+1] = vertex.PdfVertex{PdfFwd: 1.0, PdfRev: cameraPdfA}

	sampleColor := lv.AccColor.MultiplyVec(colorConnect.Multiply(1.0 / (subPathCount * surfaceToImageFactor)))

	if sampleColor.Dot(sampleColor) <= 1e-12 {
		return EyeConnection{Px: -1, Py: -1}
	}

	screen := cam.WorldPosToScreenSpace(lv.Pos)
	return EyeConnection{
		Px:    int(screen.X + 0.5),
		Py:    int(screen.Y + 0.5),
		Color: sampleColor,
	}
}

// ConnectShadow evaluates a camera-vertex-to-light shadow connection (next
// event estimation). It populates pdfArray[0..2] and returns the unshadowed
// throughput; the caller multiplies by the shadow-ray visibility term.
func ConnectShadow(mat capability.MaterialEvaluator, cv vertex.PathVertex, camDepth int, light capability.Light, sample capability.LightSample, lightPickProb float64, pdfArray []vertex.PdfVertex) core.Vec3 {
	shadowDir := sample.Pos.Subtract(cv.Pos).Normalize()

	sc := capability.ShadeContext{
		WorldPos:  cv.Pos,
		L:         shadowDir,
		V:         cv.RayDir.Multiply(-1),
		N:         cv.Normal,
		FlatN:     cv.FlatNormal,
		Tangent:   cv.Tangent,
		BiTangent: cv.BiTangent,
		TexCoord:  cv.TexCoord,
	}
	eval := mat.Eval(cv.MatID, sc, false, false)
	pdfFwdAt1W := eval.PdfRev

	cosThetaOut1 := math.Max(shadowDir.Dot(cv.Normal), depsilon)
	cosThetaOut2 := math.Max(-shadowDir.Dot(cv.Normal), depsilon)
	inverseCos := mat.Flags(cv.MatID)&capability.MaterialHaveBTDF != 0 && shadowDir.Dot(cv.Normal) < -0.01

	cosThetaOut := cosThetaOut1
	if inverseCos {
		cosThetaOut = cosThetaOut2
	}
	cosAtLight := math.Max(sample.CosAtLight, depsilon)
	cosThetaPrev := math.Max(-cv.RayDir.Dot(cv.Normal), depsilon)

	brdfVal := eval.BRDF.Multiply(cosThetaOut1).Add(eval.BTDF.Multiply(cosThetaOut2))
	pdfRevWP := eval.PdfFwd / math.Max(cosThetaOut, depsilon)

	shadowDist := cv.Pos.Subtract(sample.Pos).Length()
	gTerm := cosThetaOut * cosAtLight / math.Max(shadowDist*shadowDist, depsilon2)

	lPdfFwd := light.PdfFwd(shadowDir, cosAtLight)

	pdfArray[0] = vertex.PdfVertex{PdfFwd: lPdfFwd.PdfA * lightPickProb, PdfRev: 1.0}

	fwd1 := (lPdfFwd.PdfW / cosAtLight) * gTerm
	var rev1 float64
	if eval.PdfFwd == 0 {
		rev1 = -gTerm
	} else {
		rev1 = pdfRevWP * gTerm
	}
	pdfArray[1] = vertex.PdfVertex{PdfFwd: fwd1, PdfRev: rev1}

	if camDepth > 1 {
		if pdfFwdAt1W == 0 {
			pdfArray[2].PdfFwd = -cv.LastGTerm
		} else {
			pdfArray[2].PdfFwd = (pdfFwdAt1W / cosThetaPrev) * cv.LastGTerm
		}
	}

	explicitPdfW := math.Max(sample.Pdf, depsilon2)
	return sample.Color.MultiplyVec(brdfVal).Multiply(1.0 / (lightPickProb * explicitPdfW))
}

// ConnectEndpoints evaluates a stochastic bidirectional connection at light
// split s between a light-subpath vertex lv and a camera-subpath vertex cv,
// out of a path of total depth d = s+t. It populates pdfArray[s],
// pdfArray[s-1].PdfRev, and (if d > 3) pdfArray[s+1].PdfFwd.
func ConnectEndpoints(mat capability.MaterialEvaluator, lv, cv vertex.PathVertex, s, d int, pdfArray []vertex.PdfVertex) core.Vec3 {
	if !lv.Valid || !cv.Valid {
		return core.Vec3{}
	}

	diff := cv.Pos.Subtract(lv.Pos)
	dist2 := math.Max(diff.LengthSquared(), depsilon2)
	dist := math.Sqrt(dist2)
	lToC := diff.Multiply(1.0 / dist)

	lsc := capability.ShadeContext{
		WorldPos:  lv.Pos,
		L:         lToC,
		V:         lv.RayDir.Multiply(-1),
		N:         lv.Normal,
		FlatN:     lv.FlatNormal,
		Tangent:   lv.Tangent,
		BiTangent: lv.BiTangent,
		TexCoord:  lv.TexCoord,
	}
	lEval := mat.Eval(lv.MatID, lsc, false, true)
	lightBRDF := lEval.BRDF.Add(lEval.BTDF)
	lightVPdfFwdW := lEval.PdfFwd
	lightVPdfRevW := lEval.PdfRev

	signOfNormalL := 1.0
	underSurfaceL := lToC.Dot(lv.Normal) < -0.01
	if mat.Flags(lv.MatID)&capability.MaterialHaveBTDF != 0 && underSurfaceL {
		signOfNormalL = -1.0
	}

	csc := capability.ShadeContext{
		WorldPos:  cv.Pos,
		L:         lToC.Multiply(-1),
		V:         cv.RayDir.Multiply(-1),
		N:         cv.Normal,
		FlatN:     cv.FlatNormal,
		Tangent:   cv.Tangent,
		BiTangent: cv.BiTangent,
		TexCoord:  cv.TexCoord,
	}
	cEval := mat.Eval(cv.MatID, csc, false, false)
	camBRDF := cEval.BRDF.Add(cEval.BTDF)
	camVPdfRevW := cEval.PdfFwd
	camVPdfFwdW := cEval.PdfRev

	signOfNormalC := 1.0
	underSurfaceC := lToC.Multiply(-1).Dot(cv.Normal) < -0.01
	if mat.Flags(cv.MatID)&capability.MaterialHaveBTDF != 0 && underSurfaceC {
		signOfNormalC = -1.0
	}

	cosAtLightVertex := signOfNormalL * lv.Normal.Dot(lToC)
	cosAtCameraVertex := -signOfNormalC * cv.Normal.Dot(lToC)

	cosAtLightVertexPrev := -lv.Normal.Dot(lv.RayDir)
	cosAtCameraVertexPrev := -cv.Normal.Dot(cv.RayDir)

	gTerm := cosAtLightVertex * cosAtCameraVertex / dist2
	if gTerm < 0 {
		return core.Vec3{}
	}

	lightPdfFwdWP := lightVPdfFwdW / math.Max(cosAtLightVertex, depsilon)
	cameraPdfRevWP := camVPdfRevW / math.Max(cosAtCameraVertex, depsilon)

	var sFwd, sRev float64
	if lightPdfFwdWP == 0 {
		sFwd = -gTerm
	} else {
		sFwd = lightPdfFwdWP * gTerm
	}
	if cameraPdfRevWP == 0 {
		sRev = -gTerm
	} else {
		sRev = cameraPdfRevWP * gTerm
	}
	pdfArray[s] = vertex.PdfVertex{PdfFwd: sFwd, PdfRev: sRev}

	if lightVPdfRevW == 0 {
		pdfArray[s-1].PdfRev = -lv.LastGTerm
	} else {
		pdfArray[s-1].PdfRev = lv.LastGTerm * (lightVPdfRevW / math.Max(cosAtLightVertexPrev, depsilon))
	}

	if d > 3 {
		if camVPdfFwdW == 0 {
			pdfArray[s+1].PdfFwd = -cv.LastGTerm
		} else {
			pdfArray[s+1].PdfFwd = cv.LastGTerm * (camVPdfFwdW / math.Max(cosAtCameraVertexPrev, depsilon))
		}
	}

	fwdCanNotBeEvaluated := lightPdfFwdWP < depsilon2 || (d > 3 && camVPdfFwdW < depsilon2)
	revCanNotBeEvaluated := cameraPdfRevWP < depsilon2 || lightVPdfRevW < depsilon2
	if fwdCanNotBeEvaluated && revCanNotBeEvaluated {
		return core.Vec3{}
	}

	return lightBRDF.MultiplyVec(camBRDF).Multiply(gTerm)
}
