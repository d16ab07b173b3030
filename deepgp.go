// Package deepgp composes sparse variational Gaussian process layers into
// a deep GP trained by stochastic variational inference.
//
// The first layer maps the observed index points through a zero-mean GP;
// every later layer is a single-output GP over the previous layer's
// output, with the identity on its input as the prior mean. A Gaussian
// likelihood links the last layer to observations. Loss is the negative
// evidence lower bound, estimated with Monte Carlo chains driven by
// explicit PRNG keys, so equal keys give equal losses.
package deepgp

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/deepgp/deepgp/gp"
	"github.com/deepgp/deepgp/kern"
	"github.com/deepgp/deepgp/lik"
	"github.com/deepgp/deepgp/param"
	"github.com/deepgp/deepgp/prng"
	"github.com/deepgp/deepgp/svgp"
)

const (
	badInOut  = "deepgp: inequal number of input and output samples"
	badParams = "deepgp: parameter length mismatch"
)

// DefaultNumSamples is the Monte Carlo chain count used by Loss when the
// config leaves NumSamples at zero.
const DefaultNumSamples = 17

// LayerConfig configures one sparse variational layer.
type LayerConfig struct {
	Kernel   kern.RBFConfig
	Inducing svgp.Config
}

// Config configures a deep GP model.
type Config struct {
	// Layers lists the per-layer configurations in composition order. At
	// least one layer is required. Hidden layers are single-output: every
	// layer after the first has input dimension 1.
	Layers []LayerConfig
	// NumSamples is S, the Monte Carlo chain count of Loss. Zero selects
	// DefaultNumSamples.
	NumSamples int
	// NoiseScaleInit initializes the unconstrained observation noise
	// scale. Nil defaults to the constant 1e-2.
	NoiseScaleInit param.Initializer
}

// Model is a deep Gaussian process with a Gaussian observation model.
type Model struct {
	layers     []*svgp.Layer
	noise      *lik.Gaussian
	numSamples int
	inputDim   int
}

// New draws a model from cfg. inputDim is the feature count of the index
// points fed to the first layer.
func New(key prng.Key, inputDim int, cfg Config) (*Model, error) {
	if len(cfg.Layers) == 0 {
		return nil, fmt.Errorf("deepgp: config needs at least one layer")
	}
	if inputDim < 1 {
		return nil, fmt.Errorf("deepgp: non-positive input dimension %d", inputDim)
	}
	if cfg.NumSamples < 0 {
		return nil, fmt.Errorf("deepgp: negative sample count %d", cfg.NumSamples)
	}
	numSamples := cfg.NumSamples
	if numSamples == 0 {
		numSamples = DefaultNumSamples
	}
	noiseInit := cfg.NoiseScaleInit
	if noiseInit == nil {
		noiseInit = param.Constant(1e-2)
	}

	keys := key.SplitN(len(cfg.Layers) + 1)
	layers := make([]*svgp.Layer, len(cfg.Layers))
	for i, lc := range cfg.Layers {
		dim := 1
		mean := gp.FirstFeature()
		if i == 0 {
			dim = inputDim
			mean = gp.Zero()
		}
		kk, lk := keys[i].Split()
		layer, err := svgp.New(lk, kern.InitRBF(kk, lc.Kernel), mean, dim, lc.Inducing)
		if err != nil {
			return nil, fmt.Errorf("deepgp: layer %d: %w", i, err)
		}
		layers[i] = layer
	}

	return &Model{
		layers:     layers,
		noise:      lik.NewGaussian(noiseInit(keys[len(cfg.Layers)])[0]),
		numSamples: numSamples,
		inputDim:   inputDim,
	}, nil
}

// NumLayers returns the layer count.
func (m *Model) NumLayers() int { return len(m.layers) }

// Layer returns the i-th layer.
func (m *Model) Layer(i int) *svgp.Layer { return m.layers[i] }

// Likelihood returns the observation model.
func (m *Model) Likelihood() *lik.Gaussian { return m.noise }

// InputDim returns the feature count of the first layer's index points.
func (m *Model) InputDim() int { return m.inputDim }

// NumSamples returns S, the Monte Carlo chain count of Loss.
func (m *Model) NumSamples() int { return m.numSamples }

// Loss returns the negative evidence lower bound
//
//	−(1/S)·Σₛ log p(y | fₛ) + Σₗ KL[qₗ ‖ pₗ]
//
// estimated with S Monte Carlo chains. The first layer's marginal is
// computed once; chain s draws from it with the s-th subkey and feeds the
// draw through the marginals of the remaining layers, layer l sampling
// with that subkey folded over l. Each layer's inducing covariance is
// factored at most once per call.
func (m *Model) Loss(key prng.Key, x mat.Matrix, y []float64) (float64, error) {
	n, _ := x.Dims()
	if n != len(y) {
		panic(badInOut)
	}

	var kl float64
	for i, layer := range m.layers {
		v, err := layer.PriorKL()
		if err != nil {
			return 0, fmt.Errorf("deepgp: layer %d: %w", i, err)
		}
		kl += v
	}

	marg0, err := m.layers[0].Marginal(x)
	if err != nil {
		return 0, fmt.Errorf("deepgp: layer 0: %w", err)
	}

	var sumLL float64
	for _, ck := range key.SplitN(m.numSamples) {
		vals := mat.Row(nil, 0, marg0.Sample(ck.Fold(0), 1))
		for l := 1; l < len(m.layers); l++ {
			marg, err := m.layers[l].Marginal(mat.NewDense(len(vals), 1, vals))
			if err != nil {
				return 0, fmt.Errorf("deepgp: layer %d: %w", l, err)
			}
			vals = mat.Row(nil, 0, marg.Sample(ck.Fold(uint64(l)), 1))
		}
		sumLL += m.noise.LogProb(vals, y)
	}
	return -sumLL/float64(m.numSamples) + kl, nil
}

// Sample draws one latent function realization at the rows of x by
// feeding a single chain through every layer. It uses the same per-layer
// key folding as one chain of Loss, so Sample(k, x) reproduces the chain
// Loss derives from subkey k.
func (m *Model) Sample(key prng.Key, x mat.Matrix) ([]float64, error) {
	marg, err := m.layers[0].Marginal(x)
	if err != nil {
		return nil, fmt.Errorf("deepgp: layer 0: %w", err)
	}
	vals := mat.Row(nil, 0, marg.Sample(key.Fold(0), 1))
	for l := 1; l < len(m.layers); l++ {
		marg, err = m.layers[l].Marginal(mat.NewDense(len(vals), 1, vals))
		if err != nil {
			return nil, fmt.Errorf("deepgp: layer %d: %w", l, err)
		}
		vals = mat.Row(nil, 0, marg.Sample(key.Fold(uint64(l)), 1))
	}
	return vals, nil
}

// NumParams counts every layer's parameters plus the likelihood's.
func (m *Model) NumParams() int {
	n := m.noise.NumParams()
	for _, layer := range m.layers {
		n += layer.NumParams()
	}
	return n
}

// Params returns the parameter vector stored into dst: each layer's
// parameters in order, then the unconstrained noise scale. If dst is nil
// new memory is allocated.
func (m *Model) Params(dst []float64) []float64 {
	if dst == nil {
		dst = make([]float64, m.NumParams())
	}
	if len(dst) != m.NumParams() {
		panic(badParams)
	}
	idx := 0
	for _, layer := range m.layers {
		n := layer.NumParams()
		layer.Params(dst[idx : idx+n])
		idx += n
	}
	m.noise.Params(dst[idx:])
	return dst
}

// SetParams replaces every parameter in the model.
func (m *Model) SetParams(p []float64) {
	if len(p) != m.NumParams() {
		panic(badParams)
	}
	idx := 0
	for _, layer := range m.layers {
		n := layer.NumParams()
		layer.SetParams(p[idx : idx+n])
		idx += n
	}
	m.noise.SetParams(p[idx:])
}
