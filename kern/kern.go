// Package kern provides covariance kernels over vector index points.
package kern

import "gonum.org/v1/gonum/mat"

const (
	badFeatureDim = "kern: feature dimension mismatch"
	badStorage    = "kern: bad storage size"
	badParams     = "kern: parameter length mismatch"
)

// A Kernel is a positive semi-definite covariance function between index
// points. Trainable parameters are stored unconstrained; Params and
// SetParams expose them as a flat vector for optimizers.
type Kernel interface {
	// Cov returns the covariance between the index points x and y.
	Cov(x, y []float64) float64

	// NumParams returns the number of trainable parameters.
	NumParams() int
	// Params returns the unconstrained parameters stored into dst.
	// If dst is nil new memory is allocated.
	Params(dst []float64) []float64
	// SetParams replaces the unconstrained parameters.
	SetParams(p []float64)
}

// Matrix fills dst with the pairwise covariances between the rows of x and
// the rows of y, one row of dst per row of x. If dst is nil a new matrix is
// allocated.
func Matrix(dst *mat.Dense, k Kernel, x, y mat.Matrix) *mat.Dense {
	rx, cx := x.Dims()
	ry, cy := y.Dims()
	if cx != cy {
		panic(badFeatureDim)
	}
	if dst == nil {
		dst = mat.NewDense(rx, ry, nil)
	} else if r, c := dst.Dims(); r != rx || c != ry {
		panic(badStorage)
	}
	xi := make([]float64, cx)
	yj := make([]float64, cy)
	for i := 0; i < rx; i++ {
		mat.Row(xi, i, x)
		for j := 0; j < ry; j++ {
			mat.Row(yj, j, y)
			dst.Set(i, j, k.Cov(xi, yj))
		}
	}
	return dst
}

// SymMatrix fills dst with the covariance matrix of the rows of x. If dst
// is nil a new matrix is allocated.
func SymMatrix(dst *mat.SymDense, k Kernel, x mat.Matrix) *mat.SymDense {
	n, c := x.Dims()
	if dst == nil {
		dst = mat.NewSymDense(n, nil)
	} else if dst.SymmetricDim() != n {
		panic(badStorage)
	}
	xi := make([]float64, c)
	xj := make([]float64, c)
	for i := 0; i < n; i++ {
		mat.Row(xi, i, x)
		for j := i; j < n; j++ {
			mat.Row(xj, j, x)
			dst.SetSym(i, j, k.Cov(xi, xj))
		}
	}
	return dst
}
