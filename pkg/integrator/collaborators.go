// Package integrator is the render driver: the per-pixel/per-sample outer
// loop that wires the capability collaborators (pkg/capability) together
// with the bounce state machines (pkg/bounce), the connection kernels
// (pkg/connect), and the MIS weight engine (pkg/mis) into the four
// transport modes spec.md §4.F names: PT, LT, stochastic-connection
// BDPT (SBDPT/IBPT), and MMLT. Adapted from the teacher's
// pkg/integrator/path_tracing.go (direct/indirect split, Russian roulette)
// and pkg/integrator/bdpt.go (per-strategy connection evaluation), and the
// teacher's pkg/renderer.ProgressiveRaytracer/WorkerPool for the outer pass
// loop and worker concurrency tier.
package integrator

import (
	"github.com/lumenray/tracer/pkg/camfactor"
	"github.com/lumenray/tracer/pkg/capability"
	"github.com/lumenray/tracer/pkg/engineconfig"
)

// DefaultMaxDepth is the default bounce budget per spec.md §4.G.
const DefaultMaxDepth = 6

// Collaborators bundles everything the driver needs that it does not
// implement itself: ray intersection, shading, materials, lights, and
// the camera. None of these are constructed by this package (see
// pkg/capability's package doc) — a caller (test harness or a concrete
// scene adapter outside this module) supplies them.
type Collaborators struct {
	Tracer   capability.RayTracer
	Surface  capability.SurfaceEvaluator
	Material capability.MaterialEvaluator
	Emission capability.EmissionEvaluator
	Lights   capability.LightTable
	Camera   camfactor.Camera
}

// Driver dispatches a single pixel/sample render to the transport mode
// selected by cfg.Mode(), per engineconfig's mutual-exclusion contract.
type Driver struct {
	Collaborators
	Cfg      engineconfig.EngineConfig
	MaxDepth int
}

// NewDriver builds a Driver with spec.md's default max depth when the
// caller doesn't override it.
func NewDriver(c Collaborators, cfg engineconfig.EngineConfig) *Driver {
	return &Driver{Collaborators: c, Cfg: cfg, MaxDepth: DefaultMaxDepth}
}
