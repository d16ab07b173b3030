package fit

import (
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize"

	"github.com/deepgp/deepgp/gp"
	"github.com/deepgp/deepgp/lik"
	"github.com/deepgp/deepgp/prng"
)

// LossModel is a model trained by stochastic loss evaluations driven by
// an explicit PRNG key.
type LossModel interface {
	Parameterized
	Loss(key prng.Key, x mat.Matrix, y []float64) (float64, error)
}

// MarginalLikelihood returns the negative log marginal likelihood of the
// prior g plus observation noise on (x, y), as a function of the joint
// parameter vector [kernel, noise]. Each evaluation writes the vector
// back into g's kernel and noise. A covariance that cannot be factored
// during a line search evaluates to +Inf so the optimizer retreats; the
// refit after optimization surfaces the error instead.
func MarginalLikelihood(g *gp.GP, noise *lik.Gaussian, x mat.Matrix, y []float64) func([]float64) float64 {
	params := Group{g.Kernel(), noise}
	return func(p []float64) float64 {
		params.SetParams(p)
		prior, err := g.Prior(x)
		if err != nil {
			return math.Inf(1)
		}
		marg, err := noise.Marginal(prior)
		if err != nil {
			return math.Inf(1)
		}
		return -marg.LogProb(y)
	}
}

// ELBO returns m's negative evidence lower bound on (x, y) as a function
// of the parameter vector. The key is fixed in the closure, so every
// evaluation reuses the same noise draws and finite differences see a
// smooth function of the parameters.
func ELBO(m LossModel, key prng.Key, x mat.Matrix, y []float64) func([]float64) float64 {
	return func(p []float64) float64 {
		m.SetParams(p)
		loss, err := m.Loss(key, x, y)
		if err != nil {
			return math.Inf(1)
		}
		return loss
	}
}

// MinimizeBFGS minimizes f from x0 with BFGS and finite-difference
// gradients. A non-converged status comes back alongside the result;
// callers log it and keep the best point found.
func MinimizeBFGS(f func([]float64) float64, x0 []float64) (*optimize.Result, error) {
	problem := optimize.Problem{
		Func: f,
		Grad: func(grad, x []float64) {
			Gradient(grad, f, x)
		},
	}
	return optimize.Minimize(problem, x0, nil, &optimize.BFGS{})
}
