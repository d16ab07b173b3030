package kern

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/deepgp/deepgp/param"
	"github.com/deepgp/deepgp/prng"
)

var _ Kernel = (*RBF)(nil)

// RBF is the squared exponential kernel
//
//	k(x, y) = amplitude² · exp(−‖x−y‖² / (2·lengthScale²))
//
// Amplitude and length scale are stored unconstrained and mapped through
// the softplus transform, so both stay positive without bounds on the
// optimizer.
type RBF struct {
	rawAmplitude   float64
	rawLengthScale float64
}

// RBFConfig sets the initializers for the unconstrained kernel parameters.
// Both parameters are scalars, so each initializer is called with an empty
// shape. Nil fields default to the constant 1.
type RBFConfig struct {
	AmplitudeInit   param.Initializer
	LengthScaleInit param.Initializer
}

// InitRBF draws a new RBF kernel from cfg.
func InitRBF(key prng.Key, cfg RBFConfig) *RBF {
	ampInit := cfg.AmplitudeInit
	if ampInit == nil {
		ampInit = param.Constant(1)
	}
	lenInit := cfg.LengthScaleInit
	if lenInit == nil {
		lenInit = param.Constant(1)
	}
	ka, kl := key.Split()
	return &RBF{
		rawAmplitude:   ampInit(ka)[0],
		rawLengthScale: lenInit(kl)[0],
	}
}

// Amplitude returns the positive amplitude.
func (k *RBF) Amplitude() float64 {
	return param.Softplus(k.rawAmplitude)
}

// LengthScale returns the positive length scale.
func (k *RBF) LengthScale() float64 {
	return param.Softplus(k.rawLengthScale)
}

func (k *RBF) Cov(x, y []float64) float64 {
	if len(x) != len(y) {
		panic(badFeatureDim)
	}
	amp := param.Softplus(k.rawAmplitude)
	ls := param.Softplus(k.rawLengthScale)
	r := floats.Distance(x, y, 2)
	return amp * amp * math.Exp(-r*r/(2*ls*ls))
}

func (k *RBF) NumParams() int { return 2 }

func (k *RBF) Params(dst []float64) []float64 {
	if dst == nil {
		dst = make([]float64, k.NumParams())
	}
	if len(dst) != k.NumParams() {
		panic(badParams)
	}
	dst[0] = k.rawAmplitude
	dst[1] = k.rawLengthScale
	return dst
}

func (k *RBF) SetParams(p []float64) {
	if len(p) != k.NumParams() {
		panic(badParams)
	}
	k.rawAmplitude = p[0]
	k.rawLengthScale = p[1]
}
