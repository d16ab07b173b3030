// Package param provides parameter initializers and the positivity
// transform shared by kernel, variational and likelihood parameters.
package param

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/deepgp/deepgp/prng"
)

// An Initializer draws the initial value of a parameter block. The shape is
// given row-major; the returned slice has one element per entry. An empty
// shape produces a single element.
type Initializer func(key prng.Key, shape ...int) []float64

// Constant returns an initializer filling every element with v.
func Constant(v float64) Initializer {
	return func(_ prng.Key, shape ...int) []float64 {
		out := make([]float64, numel(shape))
		for i := range out {
			out[i] = v
		}
		return out
	}
}

// Zeros initializes every element to zero.
func Zeros() Initializer {
	return Constant(0)
}

// Normal returns an initializer drawing iid N(0, sigma²) elements.
func Normal(sigma float64) Initializer {
	if !(sigma > 0) {
		panic("param: non-positive sigma")
	}
	return func(key prng.Key, shape ...int) []float64 {
		dist := distuv.Normal{Mu: 0, Sigma: sigma, Src: key.Source()}
		out := make([]float64, numel(shape))
		for i := range out {
			out[i] = dist.Rand()
		}
		return out
	}
}

// Linspace returns an initializer spacing elements evenly from lo to hi
// inclusive, the usual choice for one-dimensional inducing locations. A
// single-element shape yields lo.
func Linspace(lo, hi float64) Initializer {
	return func(_ prng.Key, shape ...int) []float64 {
		out := make([]float64, numel(shape))
		switch len(out) {
		case 0:
			return out
		case 1:
			out[0] = lo
			return out
		}
		return floats.Span(out, lo, hi)
	}
}

// Identity returns an initializer for square matrices, set to the identity.
// The shape must be two equal dimensions.
func Identity() Initializer {
	return func(_ prng.Key, shape ...int) []float64 {
		if len(shape) != 2 || shape[0] != shape[1] {
			panic("param: identity requires a square shape")
		}
		n := shape[0]
		out := make([]float64, n*n)
		for i := 0; i < n; i++ {
			out[i*n+i] = 1
		}
		return out
	}
}

func numel(shape []int) int {
	n := 1
	for _, d := range shape {
		if d < 0 {
			panic("param: negative dimension")
		}
		n *= d
	}
	return n
}

// Softplus maps an unconstrained value to a positive one, log(1+eˣ).
// Positive model parameters are stored unconstrained and pass through
// Softplus at every use, so optimizers never see a constraint.
func Softplus(x float64) float64 {
	if x > 0 {
		return x + math.Log1p(math.Exp(-x))
	}
	return math.Log1p(math.Exp(x))
}

// SoftplusInv inverts Softplus on positive v.
func SoftplusInv(v float64) float64 {
	if !(v > 0) {
		panic("param: softplus inverse of non-positive value")
	}
	// log(eᵛ−1) = v + log(1−e⁻ᵛ)
	return v + math.Log(-math.Expm1(-v))
}
