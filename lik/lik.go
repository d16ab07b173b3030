// Package lik provides observation likelihoods linking latent function
// values to data.
package lik

import (
	"fmt"
	"math"

	"github.com/deepgp/deepgp/mvn"
	"github.com/deepgp/deepgp/param"
)

const (
	badLength = "lik: dimension mismatch"
	badParams = "lik: parameter length mismatch"
)

// Gaussian is the independent observation model y = f + ε, ε ~ N(0, σ²).
// The noise scale σ is stored unconstrained and mapped through softplus,
// so it stays positive without bounds on the optimizer.
type Gaussian struct {
	rawNoiseScale float64
}

// NewGaussian returns a Gaussian likelihood with the given unconstrained
// noise scale.
func NewGaussian(raw float64) *Gaussian {
	return &Gaussian{rawNoiseScale: raw}
}

// NoiseScale returns the positive observation noise scale σ.
func (g *Gaussian) NoiseScale() float64 {
	return param.Softplus(g.rawNoiseScale)
}

// Observation returns p(y | f), a diagonal normal centered on the latent
// values f.
func (g *Gaussian) Observation(f []float64) *mvn.Diag {
	scale := make([]float64, len(f))
	sigma := g.NoiseScale()
	for i := range scale {
		scale[i] = sigma
	}
	return mvn.NewDiag(f, scale)
}

// LogProb returns the data log likelihood Σᵢ log N(yᵢ | fᵢ, σ²).
func (g *Gaussian) LogProb(f, y []float64) float64 {
	if len(f) != len(y) {
		panic(badLength)
	}
	sigma := g.NoiseScale()
	n := float64(len(f))
	sum := -n*math.Log(sigma) - 0.5*n*math.Log(2*math.Pi)
	for i := range f {
		d := (y[i] - f[i]) / sigma
		sum -= 0.5 * d * d
	}
	return sum
}

// Marginal integrates the likelihood against a Gaussian latent,
// ∫ p(y|f) q(f) df: a normal with q's mean and covariance cov(q) + σ²·I.
func (g *Gaussian) Marginal(f mvn.Dist) (*mvn.Full, error) {
	n := f.Dim()
	cov := f.CovarianceMatrix(nil)
	v := g.NoiseScale() * g.NoiseScale()
	for i := 0; i < n; i++ {
		cov.SetSym(i, i, cov.At(i, i)+v)
	}
	full, err := mvn.NewFull(f.Mean(nil), cov)
	if err != nil {
		return nil, fmt.Errorf("lik: observation covariance: %w", err)
	}
	return full, nil
}

func (g *Gaussian) NumParams() int { return 1 }

func (g *Gaussian) Params(dst []float64) []float64 {
	if dst == nil {
		dst = make([]float64, 1)
	}
	if len(dst) != 1 {
		panic(badParams)
	}
	dst[0] = g.rawNoiseScale
	return dst
}

func (g *Gaussian) SetParams(p []float64) {
	if len(p) != 1 {
		panic(badParams)
	}
	g.rawNoiseScale = p[0]
}
