// Package denoise implements the three-pass noise-hint pipeline run over an
// in-progress HDR frame, guided by the G-buffer. Grounded line-for-line in
// formula on original_source/hydra_drv/CPUExp_GBuffer.cpp (MedianOfMaxColorInWindow,
// ExtractNoise, SpreadNoise, SpreadNoise2, objectClassId), restructured as
// idiomatic row/column-parallel Go following the teacher's
// renderer.WorkerPool row-parallel pattern (pkg/renderer/worker_pool.go).
package denoise

import (
	"math"
	"sort"
	"sync"

	"github.com/lumenray/tracer/pkg/core"
	"github.com/lumenray/tracer/pkg/vertex"
)

// medianWindow is the half-width of the 7x7 window (radius 3) used by
// MedianOfMaxColorInWindow.
const medianWindow = 3

// spreadWindow is WINDOW_SIZE in SpreadNoise: a separable Gaussian with
// this half-width radius.
const spreadWindow = 64

// gaussianSigma2 is g_GaussianSigma = 1/50 in SpreadNoise.
const gaussianSigma2 = 1.0 / 50.0

func maxComponent(c core.Vec3) float64 {
	return math.Max(c.X, math.Max(c.Y, c.Z))
}

// medianOfMaxColorInWindow returns the median of maxComponent(frame) over a
// (2*window+1)^2 box centered at (x,y), along with the box's mean.
func medianOfMaxColorInWindow(frame []core.Vec3, x, y, width, height, window int) (median, avg float64) {
	minX, maxX := clampRange(x-window, x+window, width)
	minY, maxY := clampRange(y-window, y+window, height)

	vals := make([]float64, 0, (maxX-minX+1)*(maxY-minY+1))
	var sum float64
	for yy := minY; yy <= maxY; yy++ {
		row := yy * width
		for xx := minX; xx <= maxX; xx++ {
			v := maxComponent(frame[row+xx])
			vals = append(vals, v)
			sum += v
		}
	}
	sort.Float64s(vals)
	return vals[len(vals)/2], sum / float64(len(vals))
}

func clampRange(lo, hi, size int) (int, int) {
	if lo < 0 {
		lo = 0
	}
	if hi >= size {
		hi = size - 1
	}
	return lo, hi
}

// ExtractNoise computes, for every pixel, err = |maxComponent(frame) -
// median(maxComponent over a 7x7 window)|, and a normalizing constant
// normConst = 2*userCoeff / (median(err) + max(err)).
func ExtractNoise(frame []core.Vec3, width, height int, userCoeff float64) (errArray []float64, normConst float64) {
	errArray = make([]float64, width*height)
	var maxErr float64

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			idx := y*width + x
			thisVal := maxComponent(frame[idx])
			median, _ := medianOfMaxColorInWindow(frame, x, y, width, height, medianWindow)
			err := math.Abs(thisVal - median)
			if err > maxErr {
				maxErr = err
			}
			errArray[idx] = err
		}
	}

	sorted := append([]float64(nil), errArray...)
	sort.Float64s(sorted)
	medianErr := sorted[len(sorted)/2]

	normConst = 2 * userCoeff / (medianErr + maxErr)
	return errArray, normConst
}

// gbuffDiff is the G-buffer-guided admission test used by SpreadNoise: the
// same surfaceDiff+objDiff+matDiff+alphaDiff measure the G-buffer estimator
// uses for medoid selection, evaluated between two already-resolved pixels.
func gbuffDiff(a, b vertex.GBufferPixel, ppSize float64) float64 {
	normalDiff := a.Normal.Subtract(b.Normal).Length() / 0.1
	var surfaceSim float64
	if normalDiff <= 1 {
		var depthDiff float64
		if ppSize > 0 {
			depthDiff = math.Abs(a.Depth-b.Depth) / ppSize
		}
		if depthDiff <= 1 {
			surfaceSim = math.Sqrt(1-normalDiff) * math.Sqrt(1-depthDiff)
		}
	}
	surfaceDiff := 1 - surfaceSim

	objDiff := indicator(a.ObjID != b.ObjID)
	matDiff := indicator(a.MatID != b.MatID)
	alphaDiff := indicator(a.Alpha != b.Alpha)
	return surfaceDiff + objDiff + matDiff + alphaDiff
}

func indicator(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

// SpreadNoise runs the two-pass separable Gaussian blur over noise, guided
// by the G-buffer: a neighbour admits its contribution only if its coverage
// exceeds 0.85 and either the gbuffDiff is below 1, or this pixel's own
// coverage is below 0.85 and the neighbour is immediately adjacent. Each
// pass's output at a pixel is 0.5*(avg + max) of admitted contributions,
// where avg is the Gaussian-weighted mean (normalized by the admitted
// weights) and max is the largest weighted contribution.
// Runs one goroutine per row (pass 1) / column (pass 2), mirroring the
// teacher's row-parallel worker pool.
func SpreadNoise(gbuff []vertex.GBufferPixel, noise []float64, width, height int, ppSize float64) {
	temp := make([]float64, len(noise))

	var wg sync.WaitGroup
	for y := 0; y < height; y++ {
		wg.Add(1)
		go func(y int) {
			defer wg.Done()
			for x := 0; x < width; x++ {
				minX, maxX := clampRange(x-spreadWindow, x+spreadWindow, width)
				thisPixel := gbuff[y*width+x]

				var avgVal, maxVal, wSum float64
				for x1 := minX; x1 <= maxX; x1++ {
					other := gbuff[y*width+x1]
					diff := gbuffDiff(thisPixel, other, ppSize)
					d := x - x1
					if d < 0 {
						d = -d
					}
					gaussW := math.Exp(-float64(d*d) * gaussianSigma2)

					if other.Coverage > 0.85 && (diff < 1.0 || (thisPixel.Coverage < 0.85 && d <= 1)) {
						val := noise[y*width+x1] * gaussW
						if val > maxVal {
							maxVal = val
						}
						avgVal += val
						wSum += gaussW
					}
				}
				if wSum > 0 {
					avgVal /= wSum
				}
				temp[y*width+x] = 0.5 * (avgVal + maxVal)
			}
		}(y)
	}
	wg.Wait()

	var wg2 sync.WaitGroup
	for x := 0; x < width; x++ {
		wg2.Add(1)
		go func(x int) {
			defer wg2.Done()
			for y := 0; y < height; y++ {
				minY, maxY := clampRange(y-spreadWindow, y+spreadWindow, height)
				thisPixel := gbuff[y*width+x]

				var avgVal, maxVal, wSum float64
				for y1 := minY; y1 <= maxY; y1++ {
					other := gbuff[y1*width+x]
					diff := gbuffDiff(thisPixel, other, ppSize)
					d := y - y1
					if d < 0 {
						d = -d
					}
					gaussW := math.Exp(-float64(d*d) * gaussianSigma2)

					if other.Coverage > 0.85 && (diff < 1.0 || (thisPixel.Coverage < 0.85 && d <= 1)) {
						val := temp[y1*width+x] * gaussW
						if val > maxVal {
							maxVal = val
						}
						avgVal += val
						wSum += gaussW
					}
				}
				if wSum > 0 {
					avgVal /= wSum
				}
				noise[y*width+x] = 0.5 * (avgVal + maxVal)
			}
		}(x)
	}
	wg2.Wait()
}

type objectInfo struct {
	avgNoise, maxNoise float64
	count              int
}

// SpreadNoise2 aggregates noise per object class (matId<<32 | instId),
// paints every pixel's noise back as 0.5*(objAvg + objMax), rescales by
// 1/maxNoise, and clamps to [0.1,1] for opaque pixels (alpha > 0.5) or
// zeroes pixels with alpha <= 0.5.
func SpreadNoise2(gbuff []vertex.GBufferPixel, noise []float64) {
	objects := make(map[uint64]*objectInfo, 1000)

	for i, g := range gbuff {
		level := noise[i]
		if level < 0.1 || g.Coverage < 0.85 {
			continue
		}
		id := g.ObjectClassID()
		info, ok := objects[id]
		if !ok {
			objects[id] = &objectInfo{avgNoise: level, maxNoise: level, count: 1}
			continue
		}
		info.avgNoise += level
		info.count++
		if level > info.maxNoise {
			info.maxNoise = level
		}
	}

	var maxVal float64
	for i, g := range gbuff {
		id := g.ObjectClassID()
		if info, ok := objects[id]; ok {
			noise[i] = 0.5 * (info.avgNoise/float64(info.count) + info.maxNoise)
		}
		if noise[i] > maxVal {
			maxVal = noise[i]
		}
	}

	if maxVal == 0 {
		return
	}
	scaleInv := 1.0 / maxVal
	for i, g := range gbuff {
		newVal := scaleInv * noise[i]
		if g.Alpha <= 0.5 {
			noise[i] = 0
		} else {
			noise[i] = clamp(newVal, 0.1, 1.0)
		}
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
