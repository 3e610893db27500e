package bounce

// Sampler is the RNG seam every bouncer draws from, mirroring the teacher's
// core.Sampler usage in pkg/integrator/path_tracing.go. Implementations may
// be a simple PRNG (PT/LT) or a Metropolis mutation sampler (MMLT).
type Sampler interface {
	Get1D() float64
	Get2D() (float64, float64)
}
