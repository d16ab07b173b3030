package gp

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/deepgp/deepgp/kern"
	"github.com/deepgp/deepgp/mvn"
)

// PosteriorGP conditions the process on observations y at the rows of
// xObs under iid Gaussian noise with variance noiseVar. The observation
// covariance K(xObs,xObs) + (noiseVar+jitter)·I is factored exactly once
// here; the returned process closes over that factor and reuses it for
// every mean and covariance query through triangular solves.
func (g *GP) PosteriorGP(y []float64, xObs mat.Matrix, noiseVar float64) (*GP, error) {
	n, _ := xObs.Dims()
	if len(y) != n {
		panic(badInOut)
	}
	if !(noiseVar >= 0) {
		panic(badNoise)
	}

	kxx := kern.SymMatrix(nil, g.kernel, xObs)
	addDiag(kxx, noiseVar+g.jitter)
	var chol mat.Cholesky
	if !chol.Factorize(kxx) {
		return nil, fmt.Errorf("gp: observation covariance: %w", mvn.ErrNotPositiveDefinite)
	}

	resid := make([]float64, n)
	g.mean(resid, xObs)
	for i := range resid {
		resid[i] = y[i] - resid[i]
	}
	// A solve against a completed factorization cannot fail; a Condition
	// error only reports poor conditioning of an otherwise valid solution.
	var alpha mat.VecDense
	_ = chol.SolveVecTo(&alpha, mat.NewVecDense(n, resid))

	post := &posterior{
		kernel: g.kernel,
		mean:   g.mean,
		x:      mat.DenseCopyOf(xObs),
		chol:   &chol,
		alpha:  &alpha,
	}
	return &GP{kernel: post, mean: post.meanBatch, jitter: g.jitter}, nil
}

var _ kern.Kernel = (*posterior)(nil)

// posterior is the covariance function of a conditioned process. It
// closes over the single observation factor; Cov solves against it and
// never refactorizes.
type posterior struct {
	kernel kern.Kernel
	mean   MeanFunc
	x      *mat.Dense    // observation locations
	chol   *mat.Cholesky // factor of K(x,x) + (noise+jitter)·I
	alpha  *mat.VecDense // solve of the factor against y − m(x)
}

// crossVec fills dst with k(pt, x_i) over the observation rows.
func (p *posterior) crossVec(dst *mat.VecDense, pt []float64) {
	n, _ := p.x.Dims()
	for i := 0; i < n; i++ {
		dst.SetVec(i, p.kernel.Cov(pt, p.x.RawRowView(i)))
	}
}

// Cov returns the posterior covariance
//
//	k(a, b) − k(a, X)·(K(X,X)+(noise+jitter)·I)⁻¹·k(X, b).
func (p *posterior) Cov(a, b []float64) float64 {
	n, _ := p.x.Dims()
	ka := mat.NewVecDense(n, nil)
	kb := mat.NewVecDense(n, nil)
	p.crossVec(ka, a)
	p.crossVec(kb, b)
	var sol mat.VecDense
	_ = p.chol.SolveVecTo(&sol, kb)
	return p.kernel.Cov(a, b) - mat.Dot(ka, &sol)
}

// meanBatch is the posterior mean m(x) + k(x, X)·alpha.
func (p *posterior) meanBatch(dst []float64, x mat.Matrix) []float64 {
	r, c := x.Dims()
	dst = p.mean(dst, x)
	kv := mat.NewVecDense(p.alpha.Len(), nil)
	row := make([]float64, c)
	for i := 0; i < r; i++ {
		mat.Row(row, i, x)
		p.crossVec(kv, row)
		dst[i] += mat.Dot(kv, p.alpha)
	}
	return dst
}

// The conditioned covariance carries no free parameters of its own;
// hyperparameters are trained on the prior before conditioning.
func (p *posterior) NumParams() int { return 0 }

func (p *posterior) Params(dst []float64) []float64 {
	if len(dst) != 0 {
		panic(badParams)
	}
	return dst
}

func (p *posterior) SetParams(q []float64) {
	if len(q) != 0 {
		panic(badParams)
	}
}
