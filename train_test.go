package deepgp

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/deepgp/deepgp/fit"
	"github.com/deepgp/deepgp/param"
	"github.com/deepgp/deepgp/prng"
	"github.com/deepgp/deepgp/svgp"
)

func stepData(key prng.Key, n int, sigma float64) (*mat.Dense, []float64) {
	xs := floats.Span(make([]float64, n), -1.5, 1.5)
	std := distuv.Normal{Mu: 0, Sigma: 1, Src: key.Source()}
	y := make([]float64, n)
	for i := range y {
		v := 1.0
		if xs[i] <= 0 {
			v = -1
		}
		y[i] = v + sigma*std.Rand()
	}
	return mat.NewDense(n, 1, xs), y
}

func TestTrainStepFunction(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping training loop in short mode")
	}

	x, y := stepData(prng.NewKey(123), 25, 0.1)

	model, err := New(prng.NewKey(42), 1, Config{
		Layers: []LayerConfig{{Inducing: svgp.Config{
			NumInducing:    8,
			FixedLocations: true,
			LocationsInit:  param.Linspace(-1.5, 1.5),
		}}},
		NumSamples: 2,
	})
	require.NoError(t, err)

	const epochs = 500
	opt := fit.NewAdam(0.05)
	params := model.Params(nil)
	grad := make([]float64, len(params))
	losses := make([]float64, 0, epochs)
	key := prng.NewKey(1)
	for epoch := 0; epoch < epochs; epoch++ {
		var epochKey prng.Key
		key, epochKey = key.Split()

		objective := fit.ELBO(model, epochKey, x, y)
		losses = append(losses, objective(params))
		fit.Gradient(grad, objective, params)
		opt.Step(params, grad)
		model.SetParams(params)
	}

	// Stochastic losses wobble; averages over the first and last stretch
	// must still fall.
	first := stat.Mean(losses[:50], nil)
	last := stat.Mean(losses[len(losses)-50:], nil)
	require.Less(t, last, first)

	// Away from the jump the fit has the right sign.
	marg, err := model.Layer(0).Marginal(x)
	require.NoError(t, err)
	mean := marg.Mean(nil)
	for i := range mean {
		xi := x.At(i, 0)
		if math.Abs(xi) <= 0.3 {
			continue
		}
		require.Equal(t, math.Signbit(xi), math.Signbit(mean[i]), "x=%v mean=%v", xi, mean[i])
	}
}
