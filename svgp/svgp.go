// Package svgp implements sparse variational Gaussian process layers.
//
// A layer keeps M inducing locations Z and a free Gaussian
// q(u) = N(qMean, qScale·qScaleᵀ) over the function values at Z. Predictive
// marginals condition on q(u) instead of on data, which costs O(M²N)
// rather than the O(N³) of exact conditioning.
package svgp

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/deepgp/deepgp/gp"
	"github.com/deepgp/deepgp/kern"
	"github.com/deepgp/deepgp/mvn"
	"github.com/deepgp/deepgp/param"
	"github.com/deepgp/deepgp/prng"
)

const badParams = "svgp: parameter length mismatch"

// Config configures an inducing-point layer.
//
// Initializer shapes: LocationsInit is called with (M, D), MeanInit with
// (M,), and ScaleInit with (M, M) row-major of which only the lower
// triangle is kept.
type Config struct {
	// NumInducing is M, the number of inducing points. M ≥ 1.
	NumInducing int
	// FixedLocations keeps the inducing locations out of the trainable
	// parameter vector.
	FixedLocations bool
	// Jitter is added to covariance diagonals before factorization. Zero
	// selects gp.DefaultJitter.
	Jitter float64
	// LocationsInit initializes Z. Nil draws unit normals.
	LocationsInit param.Initializer
	// MeanInit initializes the variational mean. Nil draws unit normals.
	MeanInit param.Initializer
	// ScaleInit initializes the variational scale factor. Nil uses the
	// identity.
	ScaleInit param.Initializer
}

// Layer is one sparse variational GP.
type Layer struct {
	kernel kern.Kernel
	mean   gp.MeanFunc
	jitter float64

	z      *mat.Dense
	fixedZ bool
	qMean  []float64
	qScale *mat.TriDense

	// factored prior over u, rebuilt lazily after parameter replacement
	cholKmm   *mat.Cholesky
	priorMean []float64
}

// New draws a layer from cfg. The kernel and mean function define the
// prior the layer approximates; inputDim is D, the feature count of the
// index points. A nil mean defaults to gp.Zero.
func New(key prng.Key, kernel kern.Kernel, mean gp.MeanFunc, inputDim int, cfg Config) (*Layer, error) {
	if kernel == nil {
		panic("svgp: nil kernel")
	}
	if mean == nil {
		mean = gp.Zero()
	}
	if inputDim < 1 {
		return nil, fmt.Errorf("svgp: non-positive input dimension %d", inputDim)
	}
	m := cfg.NumInducing
	if m < 1 {
		return nil, fmt.Errorf("svgp: need at least one inducing point, got %d", m)
	}
	jitter := cfg.Jitter
	if jitter == 0 {
		jitter = gp.DefaultJitter
	}
	if jitter < 0 {
		return nil, fmt.Errorf("svgp: negative jitter %v", jitter)
	}

	locInit := cfg.LocationsInit
	if locInit == nil {
		locInit = param.Normal(1)
	}
	meanInit := cfg.MeanInit
	if meanInit == nil {
		meanInit = param.Normal(1)
	}
	scaleInit := cfg.ScaleInit
	if scaleInit == nil {
		scaleInit = param.Identity()
	}

	keys := key.SplitN(3)
	z := mat.NewDense(m, inputDim, locInit(keys[0], m, inputDim))
	qMean := meanInit(keys[1], m)
	raw := scaleInit(keys[2], m, m)
	qScale := mat.NewTriDense(m, mat.Lower, nil)
	for i := 0; i < m; i++ {
		for j := 0; j <= i; j++ {
			qScale.SetTri(i, j, raw[i*m+j])
		}
	}

	return &Layer{
		kernel: kernel,
		mean:   mean,
		jitter: jitter,
		z:      z,
		fixedZ: cfg.FixedLocations,
		qMean:  qMean,
		qScale: qScale,
	}, nil
}

// Kernel returns the layer's covariance function.
func (l *Layer) Kernel() kern.Kernel { return l.kernel }

// NumInducing returns M.
func (l *Layer) NumInducing() int { return len(l.qMean) }

// Jitter returns the diagonal jitter of the layer.
func (l *Layer) Jitter() float64 { return l.jitter }

// Locations returns a copy of the inducing locations.
func (l *Layer) Locations() *mat.Dense {
	return mat.DenseCopyOf(l.z)
}

// prior returns the factored p(u) = N(m(Z), Kmm+jitter·I). The factor is
// computed at most once per parameter set and shared by Marginal and
// PriorKL.
func (l *Layer) prior() (*mat.Cholesky, []float64, error) {
	if l.cholKmm != nil {
		return l.cholKmm, l.priorMean, nil
	}
	kmm := kern.SymMatrix(nil, l.kernel, l.z)
	n := kmm.SymmetricDim()
	for i := 0; i < n; i++ {
		kmm.SetSym(i, i, kmm.At(i, i)+l.jitter)
	}
	var chol mat.Cholesky
	if !chol.Factorize(kmm) {
		return nil, nil, fmt.Errorf("svgp: inducing covariance: %w", mvn.ErrNotPositiveDefinite)
	}
	l.cholKmm = &chol
	l.priorMean = l.mean(nil, l.z)
	return l.cholKmm, l.priorMean, nil
}

// Marginal returns the predictive marginal q(f(x)) at the rows of x,
//
//	mean = m(x) + Aᵀ(qMean − m(Z))
//	cov  = Knn − Aᵀ(Kmm − qScale·qScaleᵀ)A + jitter·I
//
// with A = (Kmm+jitter·I)⁻¹·Kmn obtained by solving against the factored
// Kmm, never by forming an inverse.
func (l *Layer) Marginal(x mat.Matrix) (*mvn.TriL, error) {
	chol, mz, err := l.prior()
	if err != nil {
		return nil, err
	}
	n, _ := x.Dims()
	m := len(l.qMean)

	kmn := kern.Matrix(nil, l.kernel, l.z, x)
	var a mat.Dense
	_ = chol.SolveTo(&a, kmn)

	mean := l.mean(nil, x)
	diff := make([]float64, m)
	for i := range diff {
		diff[i] = l.qMean[i] - mz[i]
	}
	var proj mat.VecDense
	proj.MulVec(a.T(), mat.NewVecDense(m, diff))
	for i := range mean {
		mean[i] += proj.AtVec(i)
	}

	// AᵀKmmA collapses against A's solve, leaving Knn − KmnᵀA + BᵀB with
	// B = qScaleᵀA.
	knn := kern.SymMatrix(nil, l.kernel, x)
	var qnn mat.Dense
	qnn.Mul(kmn.T(), &a)
	var b mat.Dense
	b.Mul(l.qScale.T(), &a)
	var sqr mat.Dense
	sqr.Mul(b.T(), &b)

	cov := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			v := knn.At(i, j) - 0.5*(qnn.At(i, j)+qnn.At(j, i)) + sqr.At(i, j)
			if i == j {
				v += l.jitter
			}
			cov.SetSym(i, j, v)
		}
	}
	var cholF mat.Cholesky
	if !cholF.Factorize(cov) {
		return nil, fmt.Errorf("svgp: marginal covariance: %w", mvn.ErrNotPositiveDefinite)
	}
	return mvn.NewTriLCholesky(mean, &cholF), nil
}

// PriorKL returns KL[q(u) ‖ p(u)] with p(u) = N(m(Z), Kmm+jitter·I),
// computed in closed form from the two Cholesky factors.
func (l *Layer) PriorKL() (float64, error) {
	chol, mz, err := l.prior()
	if err != nil {
		return 0, err
	}
	q, err := mvn.NewTriL(l.qMean, l.qScale)
	if err != nil {
		return 0, fmt.Errorf("svgp: variational scale: %w", err)
	}
	return mvn.KL(q, mvn.NewTriLCholesky(mz, chol)), nil
}

// NumParams counts the raw kernel parameters, the variational mean, the
// lower triangle of the variational scale and, unless fixed, the inducing
// locations.
func (l *Layer) NumParams() int {
	m := len(l.qMean)
	n := l.kernel.NumParams() + m + m*(m+1)/2
	if !l.fixedZ {
		_, d := l.z.Dims()
		n += m * d
	}
	return n
}

// Params returns the parameter vector stored into dst: kernel parameters,
// variational mean, scale rows, then locations row-major when trainable.
// If dst is nil new memory is allocated.
func (l *Layer) Params(dst []float64) []float64 {
	if dst == nil {
		dst = make([]float64, l.NumParams())
	}
	if len(dst) != l.NumParams() {
		panic(badParams)
	}
	nk := l.kernel.NumParams()
	l.kernel.Params(dst[:nk])
	idx := nk
	idx += copy(dst[idx:], l.qMean)
	m := len(l.qMean)
	for i := 0; i < m; i++ {
		for j := 0; j <= i; j++ {
			dst[idx] = l.qScale.At(i, j)
			idx++
		}
	}
	if !l.fixedZ {
		r, _ := l.z.Dims()
		for i := 0; i < r; i++ {
			idx += copy(dst[idx:], l.z.RawRowView(i))
		}
	}
	return dst
}

// SetParams replaces the parameter vector and drops the cached inducing
// covariance factor.
func (l *Layer) SetParams(p []float64) {
	if len(p) != l.NumParams() {
		panic(badParams)
	}
	nk := l.kernel.NumParams()
	l.kernel.SetParams(p[:nk])
	idx := nk
	idx += copy(l.qMean, p[idx:])
	m := len(l.qMean)
	for i := 0; i < m; i++ {
		for j := 0; j <= i; j++ {
			l.qScale.SetTri(i, j, p[idx])
			idx++
		}
	}
	if !l.fixedZ {
		r, _ := l.z.Dims()
		for i := 0; i < r; i++ {
			row := l.z.RawRowView(i)
			idx += copy(row, p[idx:idx+len(row)])
		}
	}
	l.cholKmm = nil
	l.priorMean = nil
}
