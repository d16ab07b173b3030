package mvn

import (
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distmv"

	"github.com/deepgp/deepgp/prng"
)

// TriL is a normal distribution parameterized by the lower Cholesky factor
// of its covariance. Density and sampling reuse the factor through
// triangular solves; nothing is refactorized after construction.
type TriL struct {
	mean  []float64
	lower *mat.TriDense
	chol  *mat.Cholesky
}

// NewTriL returns N(mean, L·Lᵀ) for a lower-triangular L. Column signs are
// canonicalized so the stored factor has a positive diagonal, which leaves
// L·Lᵀ unchanged. A zero diagonal entry means the covariance is rank
// deficient: NewTriL returns ErrNotPositiveDefinite.
//
// Only the lower triangle of the factor is read.
func NewTriL(mean []float64, lower *mat.TriDense) (*TriL, error) {
	n := len(mean)
	r, c := lower.Dims()
	if r != n || c != n {
		panic(badLength)
	}
	canon := mat.NewTriDense(n, mat.Lower, nil)
	upper := mat.NewTriDense(n, mat.Upper, nil)
	for j := 0; j < n; j++ {
		d := lower.At(j, j)
		if d == 0 {
			return nil, ErrNotPositiveDefinite
		}
		sign := 1.0
		if d < 0 {
			sign = -1
		}
		for i := j; i < n; i++ {
			v := sign * lower.At(i, j)
			canon.SetTri(i, j, v)
			upper.SetTri(j, i, v)
		}
	}
	var chol mat.Cholesky
	chol.SetFromU(upper)
	t := &TriL{
		mean:  make([]float64, n),
		lower: canon,
		chol:  &chol,
	}
	copy(t.mean, mean)
	return t, nil
}

// NewTriLCholesky returns N(mean, Σ) for an already factored covariance.
// The factorization is retained: the caller must not refactorize it.
func NewTriLCholesky(mean []float64, chol *mat.Cholesky) *TriL {
	n := chol.SymmetricDim()
	if len(mean) != n {
		panic(badLength)
	}
	var lower mat.TriDense
	chol.LTo(&lower)
	t := &TriL{
		mean:  make([]float64, n),
		lower: &lower,
		chol:  chol,
	}
	copy(t.mean, mean)
	return t
}

func (t *TriL) Dim() int { return len(t.mean) }

func (t *TriL) Mean(dst []float64) []float64 {
	dst = reuse(dst, len(t.mean))
	copy(dst, t.mean)
	return dst
}

// Lower returns the canonical lower factor stored into dst. If dst is nil
// a new matrix is allocated.
func (t *TriL) Lower(dst *mat.TriDense) *mat.TriDense {
	n := t.Dim()
	if dst == nil {
		dst = mat.NewTriDense(n, mat.Lower, nil)
	} else if r, c := dst.Dims(); r != n || c != n {
		panic(badStorage)
	}
	for i := 0; i < n; i++ {
		for j := 0; j <= i; j++ {
			dst.SetTri(i, j, t.lower.At(i, j))
		}
	}
	return dst
}

func (t *TriL) CovarianceMatrix(dst *mat.SymDense) *mat.SymDense {
	dst = reuseSym(dst, t.Dim())
	t.chol.ToSym(dst)
	return dst
}

func (t *TriL) LogProb(y []float64) float64 {
	if len(y) != t.Dim() {
		panic(badLength)
	}
	return distmv.NormalLogProb(y, t.mean, t.chol)
}

func (t *TriL) Sample(key prng.Key, n int) *mat.Dense {
	if n <= 0 {
		panic(badSampleCount)
	}
	src := key.Source()
	out := mat.NewDense(n, t.Dim(), nil)
	for i := 0; i < n; i++ {
		distmv.NormalRand(out.RawRowView(i), t.mean, t.chol, src)
	}
	return out
}

// Shifted returns a TriL with delta added to the mean. The factor is
// shared with the receiver.
func (t *TriL) Shifted(delta []float64) Dist {
	if len(delta) != t.Dim() {
		panic(badLength)
	}
	out := &TriL{
		mean:  make([]float64, t.Dim()),
		lower: t.lower,
		chol:  t.chol,
	}
	for i := range out.mean {
		out.mean[i] = t.mean[i] + delta[i]
	}
	return out
}
