package freesurface

// MinSubsteps is the smallest admissible barotropic sub-step count. The
// averaging weights solve a small constrained fit; with fewer than five
// sub-steps the fit becomes ill conditioned and early weights can swing
// negative enough to destabilize the average. Empirically chosen safety
// margin, not a proven bound; revisit when changing the averaging shape.
const MinSubsteps = 5

// AveragingWeights returns the n per-sub-step weights used to accumulate the
// averaged free-surface state. Sub-steps span a window of twice the outer
// step, tau in (0, 2] in units of the outer step. The weights combine a
// smooth bump tau^2 (2-tau)^3 with a linear term so that, exactly in the
// discrete sum,
//
//	sum(w) = 1    and    sum(w * tau) = 1:
//
// the average is centered on the end of the outer step, which keeps the
// committed surface free of a first-order phase lag. For large n the linear
// correction drives the earliest few weights slightly negative.
func AveragingWeights(n int) []float64 {
	var (
		w              = make([]float64, n)
		s1, s2, t1, t2 float64
	)
	bump := make([]float64, n)
	lin := make([]float64, n)
	for m := 0; m < n; m++ {
		tau := 2 * float64(m+1) / float64(n)
		bump[m] = tau * tau * (2 - tau) * (2 - tau) * (2 - tau)
		lin[m] = tau - 1
		s1 += bump[m]
		s2 += lin[m]
		t1 += bump[m] * tau
		t2 += lin[m] * tau
	}
	var (
		det = s1*t2 - s2*t1
		a   = (t2 - s2) / det
		b   = (s1 - t1) / det
	)
	for m := 0; m < n; m++ {
		w[m] = a*bump[m] + b*lin[m]
	}
	return w
}
