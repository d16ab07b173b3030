package main

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/deepgp/deepgp/prng"
)

// sinDataset draws n observations of sin(x) + N(0, sigma²) at evenly
// spaced index points on [lo, hi].
func sinDataset(key prng.Key, n int, lo, hi, sigma float64) (*mat.Dense, []float64) {
	return simulate(key, n, lo, hi, sigma, math.Sin)
}

// stepDataset draws n observations of a ±1 step at zero plus
// N(0, sigma²) noise.
func stepDataset(key prng.Key, n int, lo, hi, sigma float64) (*mat.Dense, []float64) {
	return simulate(key, n, lo, hi, sigma, stepFun)
}

func stepFun(x float64) float64 {
	if x <= 0 {
		return -1
	}
	return 1
}

func simulate(key prng.Key, n int, lo, hi, sigma float64, f func(float64) float64) (*mat.Dense, []float64) {
	xs := floats.Span(make([]float64, n), lo, hi)
	std := distuv.Normal{Mu: 0, Sigma: 1, Src: key.Source()}
	y := make([]float64, n)
	for i := range y {
		y[i] = f(xs[i]) + sigma*std.Rand()
	}
	return mat.NewDense(n, 1, xs), y
}
