// Package camfactor converts between the image plane and world-space
// surface measure: the camera-to-surface geometry factor used by light
// tracing and connection strategies, and the world-to-screen projection
// used to find which pixel a light-traced vertex lands on. Grounded on
// original_source/hydra_drv/cbidir.h (CameraImageToSurfaceFactor,
// worldPosToScreenSpace, clipSpaceToScreenSpace); the teacher's own
// pkg/integrator/bdpt.go only has an ad hoc CalculateRayPDFs, so this
// component follows the original's formula rather than the teacher's.
package camfactor

import (
	"math"

	"github.com/lumenray/tracer/pkg/core"
)

// Camera holds the engine globals needed to relate a world point to the
// image plane: pose, forward vector, image-plane distance, field of view,
// aspect ratio, and the world-view/projection matrix pair.
type Camera struct {
	Pos            core.Vec3
	Forward        core.Vec3
	ImagePlaneDist float64
	FovX, FovY     float64
	Width, Height  float64
	WorldView      core.Mat4
	Proj           core.Mat4
}

// Aspect returns width/height.
func (c Camera) Aspect() float64 {
	return c.Width / c.Height
}

// SurfaceFactor is the result of CameraImageToSurfaceFactor: the pdf
// conversion factor from image-plane area to surface area, the direction
// from the hit point toward the camera, and the distance between them.
type SurfaceFactor struct {
	ImageToSurfaceFactor float64
	CamDir               core.Vec3
	ZDepth               float64
}

// CameraImageToSurfaceFactor computes the pdf conversion factor from image
// plane area to surface area at a world hit point x with shading normal n.
// Returns a zero ImageToSurfaceFactor when the point falls outside the
// camera frustum or the factor is non-finite — per spec.md §7 this is a
// numerical degeneracy, never an error.
func (c Camera) CameraImageToSurfaceFactor(hitPos, hitNormal core.Vec3) SurfaceFactor {
	zDepth := c.Pos.Subtract(hitPos).Length()
	if zDepth == 0 {
		return SurfaceFactor{}
	}
	camDir := c.Pos.Subtract(hitPos).Multiply(1.0 / zDepth)

	cosToCamera := math.Abs(hitNormal.Dot(camDir))
	cosAtCamera := c.Forward.Dot(camDir.Multiply(-1))

	fov := math.Max(c.FovX, c.FovY)
	if cosAtCamera <= math.Cos(fov) {
		return SurfaceFactor{CamDir: camDir, ZDepth: zDepth}
	}

	imagePointToCameraDist := c.ImagePlaneDist / cosAtCamera
	imageToSolidAngleFactor := (imagePointToCameraDist * imagePointToCameraDist) / cosAtCamera
	imageToSurfaceFactor := imageToSolidAngleFactor * cosToCamera / (zDepth * zDepth)

	aspect := c.Aspect()
	imageToSurfaceFactor /= aspect * aspect

	if math.IsInf(imageToSurfaceFactor, 0) || math.IsNaN(imageToSurfaceFactor) {
		return SurfaceFactor{CamDir: camDir, ZDepth: zDepth}
	}
	return SurfaceFactor{ImageToSurfaceFactor: imageToSurfaceFactor, CamDir: camDir, ZDepth: zDepth}
}

// ClipSpaceToScreenSpace maps a clip-space position (x,y in [-1,1], already
// perspective-divided) to pixel coordinates, unclamped.
func ClipSpaceToScreenSpace(clip core.Vec4, width, height float64) core.Vec2 {
	x := clip.X*0.5 + 0.5
	y := clip.Y*0.5 + 0.5
	return core.NewVec2(x*width-0.5, y*height-0.5)
}

const depsilon = 1e-20

// WorldPosToScreenSpace projects a world point through the world-view and
// projection matrices, perspective-divides, maps to pixel space, and clamps
// to [0,W-1]x[0,H-1]. Out-of-frustum projection is never an error (§7): it
// simply clamps.
func (c Camera) WorldPosToScreenSpace(worldPos core.Vec3) core.Vec2 {
	posWorld := core.Vec4FromVec3(worldPos, 1.0)
	posCam := c.WorldView.MulVec4(posWorld)
	posNDC := c.Proj.MulVec4(posCam)

	w := posNDC.W
	if w < depsilon {
		w = depsilon
	}
	posClip := posNDC.Multiply(1.0 / w)

	screen := ClipSpaceToScreenSpace(posClip, c.Width, c.Height)
	return core.NewVec2(
		math.Min(math.Max(screen.X, 0), c.Width-1),
		math.Min(math.Max(screen.Y, 0), c.Height-1),
	)
}
