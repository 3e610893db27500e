// Package gbuffer implements the multi-sample anti-aliased first-hit
// estimator: Hammersley super-sampling per pixel, medoid selection among
// the jittered samples, and the resulting coverage metric. Grounded
// field-for-field on original_source/hydra_drv/CPUExp_GBuffer.cpp
// (gbufferEval, gbuffDiff, surfaceSimilarity, projectedPixelSize).
package gbuffer

import (
	"math"

	"github.com/lumenray/tracer/pkg/capability"
	"github.com/lumenray/tracer/pkg/core"
	"github.com/lumenray/tracer/pkg/vertex"
)

// Sample is one jittered sub-pixel primary-ray hit used during medoid
// selection; Depth is the camera-space hit distance.
type Sample struct {
	Normal core.Vec3
	Depth  float64
	ObjID  int32
	MatID  int32
	Alpha  float64
	Pixel  vertex.GBufferPixel
}

// ProjectedPixelSize computes ppSize = 2*max(fovX/W, fovY/H)*depth, the
// depth-scaled pixel footprint used to normalize the depth term of
// surfaceDiff.
func ProjectedPixelSize(fovX, fovY, width, height, depth float64) float64 {
	return 2 * math.Max(fovX/width, fovY/height) * depth
}

// SurfaceSimilarity is sim(n1,d1; n2,d2): the product of a normal-distance
// term and a depth-distance term, each clamped to zero once its normalized
// difference exceeds 1. Symmetric in its two samples by construction.
func SurfaceSimilarity(n1 core.Vec3, d1 float64, n2 core.Vec3, d2 float64, ppSize float64) float64 {
	normalDiff := n1.Subtract(n2).Length() / 0.1
	if normalDiff > 1 {
		return 0
	}
	var depthDiff float64
	if ppSize > 0 {
		depthDiff = math.Abs(d1-d2) / ppSize
	}
	if depthDiff > 1 {
		return 0
	}
	return math.Sqrt(1-normalDiff) * math.Sqrt(1-depthDiff)
}

// indicatorDiff is 0 when the two ids match and 1 otherwise, used for
// objDiff/matDiff/alphaDiff.
func indicatorDiff(a, b int32) float64 {
	if a == b {
		return 0
	}
	return 1
}

func alphaDiff(a, b float64) float64 {
	if a == b {
		return 0
	}
	return 1
}

// Diff is diff(s_i, s_j) = surfaceDiff + objDiff + matDiff + alphaDiff, with
// the depth-normalizing ppSize recomputed from a's own depth on every call
// (gbuffDiff(s1, s2, fov, w, h) derives ppSize from s1.data1.depth, not a
// value shared across the whole medoid search). Asymmetric in (a, b): a and
// b are row and column of the same pairwise search, not interchangeable.
func Diff(a, b Sample, fovX, fovY, width, height float64) float64 {
	ppSize := ProjectedPixelSize(fovX, fovY, width, height, a.Depth)
	surfaceDiff := 1 - SurfaceSimilarity(a.Normal, a.Depth, b.Normal, b.Depth, ppSize)
	objD := indicatorDiff(a.ObjID, b.ObjID)
	matD := indicatorDiff(a.MatID, b.MatID)
	alphaD := alphaDiff(a.Alpha, b.Alpha)
	return surfaceDiff + objD + matD + alphaD
}

// Medoid finds the sample whose total pairwise difference to all others is
// minimum, and the coverage fraction: the number of samples whose Diff from
// the medoid is below 1 (the medoid itself included), divided by
// len(samples). Every Diff call recomputes ppSize from its own
// row sample, so the full n×n matrix is asymmetric and computed outright
// rather than mirrored across the diagonal.
func Medoid(samples []Sample, fovX, fovY, width, height float64) (idx int, coverage float64) {
	n := len(samples)
	if n == 0 {
		return -1, 0
	}

	best := 0
	bestSum := math.Inf(1)
	bestCoverage := 0.0
	for i := 0; i < n; i++ {
		var sum float64
		var clusterSize int
		for j := 0; j < n; j++ {
			d := Diff(samples[i], samples[j], fovX, fovY, width, height)
			sum += d
			if d < 1 {
				clusterSize++
			}
		}
		if sum < bestSum {
			bestSum = sum
			best = i
			bestCoverage = float64(clusterSize) / float64(n)
		}
	}
	return best, bestCoverage
}

// Evaluate casts Samples Hammersley-jittered primary rays through pixel
// (px, py), evaluates each hit via the capability collaborators, and
// returns the medoid sample's GBufferPixel with coverage replaced by the
// fraction computed by Medoid (invariant: coverage in [1/N, 1]).
func Evaluate(tracer capability.RayTracer, surf capability.SurfaceEvaluator, camPos core.Vec3, pixelToDir func(u, v float64) core.Vec3, fovX, fovY, width, height float64, px, py int) vertex.GBufferPixel {
	samples := make([]Sample, 0, Samples)
	for i := 0; i < Samples; i++ {
		ju, jv := Hammersley(i, Samples)
		dir := pixelToDir(float64(px)+ju, float64(py)+jv)
		hit := tracer.Trace(camPos, dir)
		if capability.HitNone(hit) {
			samples = append(samples, Sample{Depth: math.Inf(1), ObjID: -1, MatID: -1})
			continue
		}
		sh := surf.Eval(camPos, dir, hit)
		samples = append(samples, Sample{
			Normal: sh.Normal,
			Depth:  hit.T,
			ObjID:  hit.InstID,
			MatID:  sh.MatID,
			Alpha:  1.0,
			Pixel: vertex.GBufferPixel{
				Normal: sh.Normal, Depth: hit.T, MatID: sh.MatID,
				TexCoord: sh.TexCoord, ObjID: hit.InstID, InstID: hit.InstID,
				Alpha: 1.0,
			},
		})
	}

	idx, coverage := Medoid(samples, fovX, fovY, width, height)
	result := samples[idx].Pixel
	result.Coverage = coverage
	return result
}
