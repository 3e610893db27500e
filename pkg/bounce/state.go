// Package bounce implements the four per-bounce state machines: PT, LT, and
// the two MMLT camera/light bouncers. Each advances one in-flight sample by
// a single bounce: trace, shade, decide emit-vs-continue, update
// throughput, Russian roulette. Grounded on the teacher's extendPath
// (pkg/integrator/bdpt.go, camera/light subpath extension with specular
// vs. diffuse throughput update) and rayColorRecursive
// (pkg/integrator/path_tracing.go, Russian roulette + MIS-weighted direct/
// indirect split), generalized into explicit state machines so MMLT's
// persisted per-bounce camera-vertex buffer has a concrete owner.
package bounce

import "github.com/lumenray/tracer/pkg/core"

// Flag bits packed into BounceState.Flags alongside the bounce counters.
const (
	flagAlive        uint32 = 1 << 16
	flagSpecularPrev uint32 = 1 << 17

	bounceCountMask     uint32 = 0xFF
	diffBounceCountMask uint32 = 0xFF
	diffBounceShift            = 8
)

// BounceState is the per-ray state threaded through successive bounces:
// flags (bounce count, diff-bounce count, alive bit, specular-prev bit),
// current ray, accumulated throughput, and the optional MMLT split depth.
type BounceState struct {
	Flags      uint32
	RayPos     core.Vec3
	RayDir     core.Vec3
	Throughput core.Vec3

	// SplitDepth is the MMLT connection split s drawn once per sample;
	// -1 when not running under MMLT.
	SplitDepth int
}

// NewBounceState returns the initial state for a freshly seeded ray.
func NewBounceState(pos, dir core.Vec3) BounceState {
	return BounceState{
		Flags:      flagAlive,
		RayPos:     pos,
		RayDir:     dir,
		Throughput: core.NewVec3(1, 1, 1),
		SplitDepth: -1,
	}
}

func (s BounceState) BounceCount() int { return int(s.Flags & bounceCountMask) }

func (s BounceState) DiffBounceCount() int {
	return int((s.Flags >> diffBounceShift) & diffBounceCountMask)
}

func (s BounceState) Alive() bool        { return s.Flags&flagAlive != 0 }
func (s BounceState) SpecularPrev() bool { return s.Flags&flagSpecularPrev != 0 }

func (s BounceState) withCounts(bounce, diffBounce int, alive, specularPrev bool) BounceState {
	next := s
	next.Flags = uint32(bounce) & bounceCountMask
	next.Flags |= (uint32(diffBounce) & diffBounceCountMask) << diffBounceShift
	if alive {
		next.Flags |= flagAlive
	}
	if specularPrev {
		next.Flags |= flagSpecularPrev
	}
	return next
}

// advance bumps the bounce counters and records whether the scattering
// event just evaluated was specular, for the next call's caustics/MIS
// gating.
func (s BounceState) advance(wasSpecular, alive bool) BounceState {
	diffBounce := s.DiffBounceCount()
	if !wasSpecular {
		diffBounce++
	}
	return s.withCounts(s.BounceCount()+1, diffBounce, alive, wasSpecular)
}

// terminated returns a dead copy of the state (used when Russian roulette
// or a miss ends the path).
func (s BounceState) terminated() BounceState {
	next := s
	next.Flags &^= flagAlive
	return next
}

// RussianRoulette applies the teacher's luminance-based survival
// probability (pkg/integrator/path_tracing.go: ApplyRussianRoulette),
// bounded to [0.5, 0.95] so compensation never exceeds 2x.
func RussianRoulette(bounceCount, minBounces int, throughput core.Vec3, u float64) (terminate bool, compensation float64) {
	if bounceCount < minBounces {
		return false, 1.0
	}
	survival := throughput.Luminance()
	if survival < 0.5 {
		survival = 0.5
	}
	if survival > 0.95 {
		survival = 0.95
	}
	if u > survival {
		return true, 0
	}
	return false, 1.0 / survival
}
