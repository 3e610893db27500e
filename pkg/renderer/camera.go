package renderer

import (
	"math"

	"github.com/lumenray/tracer/pkg/camfactor"
	"github.com/lumenray/tracer/pkg/core"
)

// PrimaryRay generates a camera ray through pixel (px, py) — fractional
// pixel coordinates so jittered/Hammersley sub-pixel offsets pass straight
// through. Built from the camera's forward vector and FOV, matching the
// basis-vector ray construction of the teacher's original Camera.GetRay,
// parameterized by camfactor.Camera instead of a fixed viewport.
func PrimaryRay(cam camfactor.Camera, px, py float64) core.Ray {
	worldUp := core.NewVec3(0, 1, 0)
	forward := cam.Forward.Normalize()
	right := forward.Cross(worldUp)
	if right.LengthSquared() < 1e-12 {
		right = core.NewVec3(1, 0, 0)
	} else {
		right = right.Normalize()
	}
	up := right.Cross(forward).Normalize()

	ndcX := (px+0.5)/cam.Width*2 - 1
	ndcY := 1 - (py+0.5)/cam.Height*2
	tanX := math.Tan(cam.FovX / 2)
	tanY := math.Tan(cam.FovY / 2)

	dir := forward.Add(right.Multiply(ndcX * tanX)).Add(up.Multiply(ndcY * tanY)).Normalize()
	return core.NewRay(cam.Pos, dir)
}
