package mvn

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// KL returns the Kullback-Leibler divergence KL(q ‖ p) between Gaussians
// represented by their Cholesky factors,
//
//	½·(tr(Σp⁻¹Σq) + δᵀΣp⁻¹δ − n + log|Σp| − log|Σq|),  δ = μq − μp.
//
// Both factors already exist, so nothing is factored here: the trace and
// quadratic terms reuse p's factor through triangular solves, and the log
// determinants come directly off the factor diagonals. The result is zero
// when q and p coincide and nonnegative up to floating error.
func KL(q, p *TriL) float64 {
	n := q.Dim()
	if p.Dim() != n {
		panic(badLength)
	}

	// tr(Σp⁻¹Σq) = tr(Σp⁻¹·Lq·Lqᵀ) = Σ_ij (Σp⁻¹Lq)_ij·(Lq)_ij.
	// The solve cannot fail since p holds a completed factorization; an
	// ill-conditioned factor surfaces as a large divergence.
	var s mat.Dense
	_ = p.chol.SolveTo(&s, q.lower)
	var tr float64
	for i := 0; i < n; i++ {
		for j := 0; j <= i; j++ {
			tr += s.At(i, j) * q.lower.At(i, j)
		}
	}

	delta := make([]float64, n)
	floats.SubTo(delta, q.mean, p.mean)
	dv := mat.NewVecDense(n, delta)
	var sol mat.VecDense
	_ = p.chol.SolveVecTo(&sol, dv)
	quad := mat.Dot(dv, &sol)

	return 0.5 * (tr + quad - float64(n) + p.chol.LogDet() - q.chol.LogDet())
}
