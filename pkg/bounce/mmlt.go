package bounce

import (
	"github.com/lumenray/tracer/pkg/vertex"
)

// VertexBuffer is the persisted per-path, per-bounce vertex storage MMLT
// requires: the split depth s is drawn once per sample and then every
// bounce up to max depth is recorded so any bounce can become a connection
// endpoint (see spec.md §4.F MMLT note, and the per-thread chain allocation
// original_source/hydra_drv/GPUOCLLayerAdvanced.cpp's MMLT init/bounce
// kernels guard with "you MUST enable it early").
type VertexBuffer struct {
	Vertices []vertex.PathVertex
}

func NewVertexBuffer(maxDepth int) *VertexBuffer {
	return &VertexBuffer{Vertices: make([]vertex.PathVertex, 0, maxDepth)}
}

func (vb *VertexBuffer) Append(v vertex.PathVertex) { vb.Vertices = append(vb.Vertices, v) }

// MMLTCameraBounce wraps PT's bounce logic but additionally persists every
// hit into a VertexBuffer keyed by bounce index, and stops emitting direct
// environment/emission contributions once the sample's split depth is
// reached (those bounces become SBDPT connection endpoints instead).
type MMLTCameraBounce struct {
	PT     PT
	Buffer *VertexBuffer
}

func (b MMLTCameraBounce) Bounce(state BounceState, prevBSDFPdf float64, sampler Sampler) Result {
	result := b.PT.Bounce(state, prevBSDFPdf, sampler)
	if result.Vertex.Valid {
		b.Buffer.Append(result.Vertex)
	}
	if state.SplitDepth >= 0 && state.BounceCount() < state.SplitDepth {
		// Connection endpoints contribute via ConnectEndpoints, not via the
		// emission/environment path PT would otherwise add here.
		result.Contribution = result.Contribution.Multiply(0)
	}
	return result
}

// MMLTLightBounce wraps LT's bounce logic with the same per-bounce
// persistence, for the light-side subpath of the same Markov chain sample.
type MMLTLightBounce struct {
	LT     LT
	Buffer *VertexBuffer
}

func (b MMLTLightBounce) Bounce(state BounceState, sampler Sampler) Result {
	result := b.LT.Bounce(state, sampler)
	if result.Vertex.Valid {
		b.Buffer.Append(result.Vertex)
	}
	return result
}

// DrawSplitDepth draws the stochastic connection split s in [0,d] once per
// sample, per spec.md §4.F: "the split depth s∈[0..d] is drawn once per
// sample and dictates which bounces become connection endpoints".
func DrawSplitDepth(maxDepth int, u float64) int {
	if maxDepth <= 0 {
		return 0
	}
	s := int(u * float64(maxDepth+1))
	if s > maxDepth {
		s = maxDepth
	}
	return s
}
