package fit

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/deepgp/deepgp"
	"github.com/deepgp/deepgp/gp"
	"github.com/deepgp/deepgp/kern"
	"github.com/deepgp/deepgp/lik"
	"github.com/deepgp/deepgp/param"
	"github.com/deepgp/deepgp/prng"
	"github.com/deepgp/deepgp/svgp"
)

var _ LossModel = (*deepgp.Model)(nil)

// quad is the convex test objective (x₀−1)² + 4(x₁+2)².
func quad(x []float64) float64 {
	d0 := x[0] - 1
	d1 := x[1] + 2
	return d0*d0 + 4*d1*d1
}

func TestGroupRoundTrip(t *testing.T) {
	k1 := kern.InitRBF(prng.NewKey(1), kern.RBFConfig{})
	k2 := kern.InitRBF(prng.NewKey(2), kern.RBFConfig{
		AmplitudeInit:   param.Constant(2),
		LengthScaleInit: param.Constant(3),
	})
	noise := lik.NewGaussian(0.4)
	g := Group{k1, k2, noise}

	require.Equal(t, 5, g.NumParams())
	require.Equal(t, []float64{1, 1, 2, 3, 0.4}, g.Params(nil))

	mod := []float64{0.1, 0.2, 0.3, 0.4, 0.5}
	g.SetParams(mod)
	require.Equal(t, mod, g.Params(nil))
	require.Equal(t, []float64{0.1, 0.2}, k1.Params(nil))
	require.Equal(t, []float64{0.5}, noise.Params(nil))

	require.Panics(t, func() { g.Params(make([]float64, 4)) })
	require.Panics(t, func() { g.SetParams(mod[:3]) })
}

func TestGradientQuadratic(t *testing.T) {
	a := []float64{1, 2, 3}
	b := []float64{0.5, -1, 2}
	f := func(x []float64) float64 {
		var sum float64
		for i := range x {
			d := x[i] - b[i]
			sum += a[i] * d * d
		}
		return sum
	}

	x := []float64{1, 1, 1}
	grad := Gradient(nil, f, x)
	for i := range x {
		require.InDelta(t, 2*a[i]*(x[i]-b[i]), grad[i], 1e-6)
	}

	dst := make([]float64, 3)
	require.Equal(t, grad, Gradient(dst, f, x))
	require.Panics(t, func() { Gradient(make([]float64, 2), f, x) })
}

func TestAdamFirstStepIsLearningRateSized(t *testing.T) {
	opt := NewAdam(0.1)
	x := []float64{5, 5}
	grad := Gradient(nil, quad, x)
	opt.Step(x, grad)

	// With bias correction the first step is lr·sign(gradient).
	require.InDelta(t, 5-0.1, x[0], 1e-6)
	require.InDelta(t, 5-0.1, x[1], 1e-6)
}

func TestAdamQuadraticConvergence(t *testing.T) {
	opt := NewAdam(0.01)
	x := []float64{5, 5}
	grad := make([]float64, 2)
	for i := 0; i < 5000; i++ {
		Gradient(grad, quad, x)
		opt.Step(x, grad)
	}
	require.InDelta(t, 1, x[0], 0.05)
	require.InDelta(t, -2, x[1], 0.05)
	require.Less(t, quad(x), 1e-2)
}

func TestAdamLengthPanics(t *testing.T) {
	opt := NewAdam(0.1)
	require.Panics(t, func() { opt.Step([]float64{1, 2}, []float64{1}) })

	opt.Step([]float64{1, 2}, []float64{1, 1})
	require.Panics(t, func() { opt.Step([]float64{1}, []float64{1}) })
}

func TestMinimizeBFGSQuadratic(t *testing.T) {
	result, err := MinimizeBFGS(quad, []float64{5, 5})
	require.NoError(t, err)
	require.InDelta(t, 1, result.X[0], 1e-6)
	require.InDelta(t, -2, result.X[1], 1e-6)
}

func TestMarginalLikelihoodClosedForm(t *testing.T) {
	kernel := kern.InitRBF(prng.NewKey(0), kern.RBFConfig{
		AmplitudeInit:   param.Constant(param.SoftplusInv(1)),
		LengthScaleInit: param.Constant(param.SoftplusInv(1)),
	})
	noise := lik.NewGaussian(param.SoftplusInv(0.5))
	g := gp.New(kernel, nil, 0)

	x := mat.NewDense(1, 1, []float64{0})
	y := []float64{0.7}
	f := MarginalLikelihood(g, noise, x, y)

	// One observation: y ~ N(0, amplitude² + noiseScale²).
	v := 1.0 + 0.25
	want := 0.5*math.Log(2*math.Pi*v) + 0.5*0.49/v
	require.InDelta(t, want, f(Group{kernel, noise}.Params(nil)), 1e-10)
}

func TestMarginalLikelihoodInfOnSingularCovariance(t *testing.T) {
	kernel := kern.InitRBF(prng.NewKey(0), kern.RBFConfig{})
	noise := lik.NewGaussian(0)
	g := gp.New(kernel, nil, 0)

	// Duplicate index points with zero jitter make the prior covariance
	// exactly singular.
	x := mat.NewDense(2, 1, []float64{0.3, 0.3})
	f := MarginalLikelihood(g, noise, x, []float64{1, 1})
	require.True(t, math.IsInf(f(Group{kernel, noise}.Params(nil)), 1))
}

func TestELBOFixedKey(t *testing.T) {
	model, err := deepgp.New(prng.NewKey(3), 1, deepgp.Config{
		Layers: []deepgp.LayerConfig{{Inducing: svgp.Config{
			NumInducing:    4,
			FixedLocations: true,
			LocationsInit:  param.Linspace(-1.5, 1.5),
		}}},
		NumSamples: 2,
	})
	require.NoError(t, err)

	x := mat.NewDense(4, 1, []float64{-1, -0.3, 0.4, 1.1})
	y := []float64{-0.8, -0.2, 0.5, 0.9}
	f := ELBO(model, prng.NewKey(11), x, y)

	p := model.Params(nil)
	require.Equal(t, f(p), f(p))

	p2 := make([]float64, len(p))
	copy(p2, p)
	p2[0] += 0.1
	require.NotEqual(t, f(p), f(p2))
	require.Equal(t, p2, model.Params(nil))
}
