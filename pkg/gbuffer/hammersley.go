package gbuffer

// Samples is the per-pixel super-sample count N (GBUFFER_SAMPLES in
// original_source/hydra_drv/CPUExp_GBuffer.cpp).
const Samples = 16

// Hammersley returns the i-th 2-D point of the n-point Hammersley
// low-discrepancy sequence: (i/n, radicalInverse2(i)).
func Hammersley(i, n int) (u, v float64) {
	u = float64(i) / float64(n)
	v = radicalInverse2(uint32(i))
	return
}

// radicalInverse2 is the base-2 Van der Corput sequence, bit-reversing i
// across a 32-bit word.
func radicalInverse2(i uint32) float64 {
	i = (i << 16) | (i >> 16)
	i = ((i & 0x55555555) << 1) | ((i & 0xAAAAAAAA) >> 1)
	i = ((i & 0x33333333) << 2) | ((i & 0xCCCCCCCC) >> 2)
	i = ((i & 0x0F0F0F0F) << 4) | ((i & 0xF0F0F0F0) >> 4)
	i = ((i & 0x00FF00FF) << 8) | ((i & 0xFF00FF00) >> 8)
	return float64(i) * 2.3283064365386963e-10 // 1 / 2^32
}
