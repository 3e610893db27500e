package integrator

import (
	"github.com/lumenray/tracer/pkg/core"
	"github.com/lumenray/tracer/pkg/renderer"
)

// NewProgressiveRaytracer wires d into a renderer.ProgressiveRaytracer: the
// pass/tile/worker-pool scheduler the teacher built, driven here by a
// RenderSession instead of the teacher's concrete Raytracer.
func NewProgressiveRaytracer(d *Driver, progCfg renderer.ProgressiveConfig, logger core.Logger) *renderer.ProgressiveRaytracer {
	session := NewRenderSession(d)
	width := int(d.Camera.Width)
	height := int(d.Camera.Height)
	return renderer.NewProgressiveRaytracer(session.RenderTile, width, height, progCfg, logger)
}
