package mvn

import (
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distmv"

	"github.com/deepgp/deepgp/prng"
)

// Full is a normal distribution parameterized by its full covariance. The
// covariance is factored once at construction; every later operation
// reuses that factor.
type Full struct {
	mean  []float64
	sigma *mat.SymDense
	chol  *mat.Cholesky
}

// NewFull returns N(mean, sigma). Factorization failure returns
// ErrNotPositiveDefinite; there is no retry with a larger jitter here, the
// caller decides how to respond.
func NewFull(mean []float64, sigma *mat.SymDense) (*Full, error) {
	n := len(mean)
	if sigma.SymmetricDim() != n {
		panic(badLength)
	}
	var chol mat.Cholesky
	if !chol.Factorize(sigma) {
		return nil, ErrNotPositiveDefinite
	}
	f := &Full{
		mean:  make([]float64, n),
		sigma: mat.NewSymDense(n, nil),
		chol:  &chol,
	}
	copy(f.mean, mean)
	f.sigma.CopySym(sigma)
	return f, nil
}

func (f *Full) Dim() int { return len(f.mean) }

func (f *Full) Mean(dst []float64) []float64 {
	dst = reuse(dst, len(f.mean))
	copy(dst, f.mean)
	return dst
}

func (f *Full) CovarianceMatrix(dst *mat.SymDense) *mat.SymDense {
	dst = reuseSym(dst, f.Dim())
	dst.CopySym(f.sigma)
	return dst
}

func (f *Full) LogProb(y []float64) float64 {
	if len(y) != f.Dim() {
		panic(badLength)
	}
	return distmv.NormalLogProb(y, f.mean, f.chol)
}

func (f *Full) Sample(key prng.Key, n int) *mat.Dense {
	if n <= 0 {
		panic(badSampleCount)
	}
	src := key.Source()
	out := mat.NewDense(n, f.Dim(), nil)
	for i := 0; i < n; i++ {
		distmv.NormalRand(out.RawRowView(i), f.mean, f.chol, src)
	}
	return out
}

// Shifted returns a Full with delta added to the mean. The covariance and
// its factor are shared with the receiver.
func (f *Full) Shifted(delta []float64) Dist {
	if len(delta) != f.Dim() {
		panic(badLength)
	}
	out := &Full{
		mean:  make([]float64, f.Dim()),
		sigma: f.sigma,
		chol:  f.chol,
	}
	for i := range out.mean {
		out.mean[i] = f.mean[i] + delta[i]
	}
	return out
}
