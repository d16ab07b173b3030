// Package mvn provides multivariate normal distributions in three
// covariance representations: diagonal, Cholesky factor, and full matrix.
//
// The representations are interchangeable through the Dist interface but
// keep their cost profiles: Diag evaluates densities in O(n), TriL reuses
// its factor for O(n²) evaluations, Full pays one O(n³) factorization at
// construction.
package mvn

import (
	"errors"

	"gonum.org/v1/gonum/mat"

	"github.com/deepgp/deepgp/prng"
)

const (
	badLength      = "mvn: dimension mismatch"
	badStorage     = "mvn: bad storage size"
	badScale       = "mvn: non-positive scale"
	badSampleCount = "mvn: non-positive sample count"
)

// ErrNotPositiveDefinite is returned when a covariance cannot be Cholesky
// factored. The failure is surfaced and never retried internally: silently
// adjusting a covariance would corrupt any posterior built from it.
var ErrNotPositiveDefinite = errors.New("mvn: covariance not positive definite")

// Dist is a multivariate normal distribution.
type Dist interface {
	// Dim returns the dimension.
	Dim() int
	// Mean returns the mean stored into dst. If dst is nil new memory is
	// allocated.
	Mean(dst []float64) []float64
	// CovarianceMatrix returns the covariance stored into dst. If dst is
	// nil a new matrix is allocated.
	CovarianceMatrix(dst *mat.SymDense) *mat.SymDense
	// LogProb returns the log density at y.
	LogProb(y []float64) float64
	// Sample draws n values, one per row of the returned matrix. Draws
	// are an affine function of standard noise, deterministic in the key.
	Sample(key prng.Key, n int) *mat.Dense
}

// A MeanShifter can relocate its mean while keeping its covariance. Every
// distribution in this package implements it; callers that need the
// capability require this interface at compile time instead of probing for
// it at run time.
type MeanShifter interface {
	Dist
	// Shifted returns the same distribution with delta added to the mean.
	Shifted(delta []float64) Dist
}

var (
	_ MeanShifter = (*Diag)(nil)
	_ MeanShifter = (*TriL)(nil)
	_ MeanShifter = (*Full)(nil)
)

func reuse(dst []float64, n int) []float64 {
	if dst == nil {
		dst = make([]float64, n)
	}
	if len(dst) != n {
		panic(badStorage)
	}
	return dst
}

func reuseSym(dst *mat.SymDense, n int) *mat.SymDense {
	if dst == nil {
		return mat.NewSymDense(n, nil)
	}
	if dst.SymmetricDim() != n {
		panic(badStorage)
	}
	return dst
}
