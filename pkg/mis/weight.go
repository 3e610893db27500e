// Package mis computes balance-heuristic multiple-importance-sampling
// weights over a populated PdfVertex array. It is promoted out of the
// integrator so path tracing, light tracing, and the bidirectional
// strategies all call the same weight engine instead of each inlining it
// (compare the teacher's bdpt_mis.go, where this logic lives inside the
// BDPT integrator itself).
package mis

import "github.com/lumenray/tracer/pkg/vertex"

// remapSentinel turns a PdfVertex entry into the value used by the weight
// product: a negative sentinel -G is replaced by its magnitude G (the
// delta-distribution collapse cancels the geometry term top and bottom), a
// true zero stays zero (that strategy is unsampleable and contributes
// nothing to the denominator).
func remapSentinel(pdf float64) float64 {
	if pdf < 0 {
		return -pdf
	}
	return pdf
}

// Weight computes w_{s,t} for a path of total depth d = len(pdfArray)-1,
// where s is the number of light-side vertices and t = d - s. It is one
// call of the general StrategyWeights computation restricted to index s;
// callers connecting a single (s,t) pair should prefer StrategyWeights if
// they also need the normalizing sum for other strategies.
func Weight(pdfArray []vertex.PdfVertex, s int) float64 {
	weights := StrategyWeights(pdfArray)
	return weights[s]
}

// StrategyWeights returns w_{k,d-k} for every k in 0..d in one linear pass,
// via forward/backward prefix products:
//
//	P_k = (prod_{i=0}^{k-1} pdfFwd[i]) * (prod_{j=k}^{d} pdfRev[j])
//	w_k = P_k / sum(P_0..P_d)
//
// Sentinel-negative entries are replaced by their magnitude before taking
// the product (see remapSentinel). If the full sum is zero (every strategy
// unsampleable), all weights are returned as zero and the sample must be
// discarded by the caller.
func StrategyWeights(pdfArray []vertex.PdfVertex) []float64 {
	d := len(pdfArray) - 1

	fwdPrefix := make([]float64, d+2) // fwdPrefix[k] = prod_{i<k} pdfFwd[i]
	fwdPrefix[0] = 1.0
	for i := 0; i <= d; i++ {
		fwdPrefix[i+1] = fwdPrefix[i] * remapSentinel(pdfArray[i].PdfFwd)
	}

	revSuffix := make([]float64, d+2) // revSuffix[k] = prod_{j>=k} pdfRev[j]
	revSuffix[d+1] = 1.0
	for j := d; j >= 0; j-- {
		revSuffix[j] = revSuffix[j+1] * remapSentinel(pdfArray[j].PdfRev)
	}

	p := make([]float64, d+1)
	var sum float64
	for k := 0; k <= d; k++ {
		p[k] = fwdPrefix[k] * revSuffix[k]
		sum += p[k]
	}

	weights := make([]float64, d+1)
	if sum == 0 {
		return weights
	}
	for k := 0; k <= d; k++ {
		weights[k] = p[k] / sum
	}
	return weights
}
