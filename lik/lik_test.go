package lik

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/deepgp/deepgp/mvn"
	"github.com/deepgp/deepgp/param"
)

func TestNoiseScale(t *testing.T) {
	g := NewGaussian(param.SoftplusInv(0.5))
	require.InDelta(t, 0.5, g.NoiseScale(), 1e-12)

	// Large negative raw values still give a strictly positive scale.
	require.Greater(t, NewGaussian(-20).NoiseScale(), 0.0)
}

func TestLogProbClosedForm(t *testing.T) {
	g := NewGaussian(param.SoftplusInv(0.3))
	f := []float64{0.5}
	y := []float64{0.9}

	sigma := 0.3
	want := -0.5*math.Log(2*math.Pi*sigma*sigma) - 0.5*(0.4*0.4)/(sigma*sigma)
	require.InDelta(t, want, g.LogProb(f, y), 1e-12)
}

func TestLogProbMatchesObservation(t *testing.T) {
	g := NewGaussian(param.SoftplusInv(0.7))
	f := []float64{-1.2, 0.4, 2.5, 0.0}
	y := []float64{-1.0, 0.0, 2.0, 0.3}

	require.InDelta(t, g.Observation(f).LogProb(y), g.LogProb(f, y), 1e-12)
}

func TestLogProbDimMismatchPanics(t *testing.T) {
	g := NewGaussian(0)
	require.Panics(t, func() { g.LogProb([]float64{1, 2}, []float64{1}) })
}

func TestMarginalAddsNoiseVariance(t *testing.T) {
	mean := []float64{0.4, -1.1}
	scale := mat.NewTriDense(2, mat.Lower, nil)
	scale.SetTri(0, 0, 1.0)
	scale.SetTri(1, 0, 0.5)
	scale.SetTri(1, 1, 0.8)
	f, err := mvn.NewTriL(mean, scale)
	require.NoError(t, err)

	g := NewGaussian(param.SoftplusInv(0.6))
	marg, err := g.Marginal(f)
	require.NoError(t, err)

	require.Equal(t, mean, marg.Mean(nil))

	latent := f.CovarianceMatrix(nil)
	got := marg.CovarianceMatrix(nil)
	for i := 0; i < 2; i++ {
		for j := 0; j < 2; j++ {
			want := latent.At(i, j)
			if i == j {
				want += 0.36
			}
			require.InDelta(t, want, got.At(i, j), 1e-12)
		}
	}
}

func TestMarginalOfDiagLatent(t *testing.T) {
	f := mvn.NewDiag([]float64{1, 2, 3}, []float64{0.3, 0.3, 0.3})
	g := NewGaussian(param.SoftplusInv(0.4))

	marg, err := g.Marginal(f)
	require.NoError(t, err)

	// Independent latents stay independent; variances add.
	y := []float64{1.1, 1.8, 3.4}
	want := mvn.NewDiag([]float64{1, 2, 3}, []float64{0.5, 0.5, 0.5}).LogProb(y)
	require.InDelta(t, want, marg.LogProb(y), 1e-10)
}

func TestParamsRoundTrip(t *testing.T) {
	g := NewGaussian(1.5)
	require.Equal(t, []float64{1.5}, g.Params(nil))

	g.SetParams([]float64{-0.25})
	require.Equal(t, []float64{-0.25}, g.Params(nil))
	require.InDelta(t, param.Softplus(-0.25), g.NoiseScale(), 1e-15)

	require.Panics(t, func() { g.Params(make([]float64, 2)) })
	require.Panics(t, func() { g.SetParams(nil) })
}
