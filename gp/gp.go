// Package gp implements Gaussian process priors over functions and exact
// posterior conditioning on noisy observations.
package gp

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/deepgp/deepgp/kern"
	"github.com/deepgp/deepgp/mvn"
)

// DefaultJitter is the value added to covariance diagonals before
// factorization when a configuration does not set one.
const DefaultJitter = 1e-4

const (
	badInOut   = "gp: inequal number of input and output samples"
	badStorage = "gp: bad storage length"
	badNoise   = "gp: negative noise variance"
	badParams  = "gp: parameter length mismatch"
)

// A MeanFunc evaluates a prior mean at each row of x, storing one value
// per row into dst. If dst is nil new memory is allocated.
type MeanFunc func(dst []float64, x mat.Matrix) []float64

// Zero returns the zero mean function.
func Zero() MeanFunc {
	return func(dst []float64, x mat.Matrix) []float64 {
		r, _ := x.Dims()
		dst = reuse(dst, r)
		for i := range dst {
			dst[i] = 0
		}
		return dst
	}
}

// FirstFeature returns the mean function reading feature 0 of each row.
// Stacked layers use it as the identity mean on single-feature inputs, so
// a deeper layer defaults to a residual on top of the previous layer.
func FirstFeature() MeanFunc {
	return func(dst []float64, x mat.Matrix) []float64 {
		r, _ := x.Dims()
		dst = reuse(dst, r)
		for i := range dst {
			dst[i] = x.At(i, 0)
		}
		return dst
	}
}

// GP is a Gaussian process prior: a kernel, a mean function, and the
// jitter added to covariance diagonals before factorization.
type GP struct {
	kernel kern.Kernel
	mean   MeanFunc
	jitter float64
}

// New returns a GP prior. A nil mean defaults to Zero.
func New(kernel kern.Kernel, mean MeanFunc, jitter float64) *GP {
	if kernel == nil {
		panic("gp: nil kernel")
	}
	if mean == nil {
		mean = Zero()
	}
	if !(jitter >= 0) {
		panic("gp: negative jitter") // also rejects NaN
	}
	return &GP{kernel: kernel, mean: mean, jitter: jitter}
}

// Kernel returns the covariance function of the process.
func (g *GP) Kernel() kern.Kernel { return g.kernel }

// Jitter returns the diagonal jitter of the process.
func (g *GP) Jitter() float64 { return g.jitter }

// Prior returns the finite-dimensional marginal N(m(x), K(x,x)+jitter·I)
// at the rows of x.
func (g *GP) Prior(x mat.Matrix) (*mvn.TriL, error) {
	k := kern.SymMatrix(nil, g.kernel, x)
	addDiag(k, g.jitter)
	var chol mat.Cholesky
	if !chol.Factorize(k) {
		return nil, fmt.Errorf("gp: prior covariance: %w", mvn.ErrNotPositiveDefinite)
	}
	return mvn.NewTriLCholesky(g.mean(nil, x), &chol), nil
}

// MeanBatch evaluates the process mean at the rows of x, stored into
// yPred. If yPred is nil new memory is allocated. For a conditioned
// process this is the posterior mean.
func (g *GP) MeanBatch(yPred []float64, x mat.Matrix) []float64 {
	return g.mean(yPred, x)
}

// Mean evaluates the process mean at a single point.
func (g *GP) Mean(x []float64) float64 {
	return g.mean(nil, mat.NewDense(1, len(x), x))[0]
}

// StdDevBatch evaluates the pointwise standard deviation at the rows of
// x, stored into std. If std is nil new memory is allocated.
func (g *GP) StdDevBatch(std []float64, x mat.Matrix) []float64 {
	r, c := x.Dims()
	std = reuse(std, r)
	row := make([]float64, c)
	for i := range std {
		mat.Row(row, i, x)
		std[i] = sqrtVar(g.kernel.Cov(row, row))
	}
	return std
}

// StdDev evaluates the pointwise standard deviation at a single point.
func (g *GP) StdDev(x []float64) float64 {
	return sqrtVar(g.kernel.Cov(x, x))
}

// sqrtVar clamps the tiny negative variances cancellation can produce.
func sqrtVar(v float64) float64 {
	if v < 0 {
		return 0
	}
	return math.Sqrt(v)
}

func reuse(dst []float64, n int) []float64 {
	if dst == nil {
		dst = make([]float64, n)
	}
	if len(dst) != n {
		panic(badStorage)
	}
	return dst
}

func addDiag(s *mat.SymDense, v float64) {
	n := s.SymmetricDim()
	for i := 0; i < n; i++ {
		s.SetSym(i, i, s.At(i, i)+v)
	}
}
