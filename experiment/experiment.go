// Package experiment loads and validates training run configuration.
//
// A Spec holds everything a training driver needs on the user-facing
// scale: positive kernel and noise values as the user would report them,
// mapped back to unconstrained initializers when the model is built.
package experiment

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/deepgp/deepgp"
	"github.com/deepgp/deepgp/kern"
	"github.com/deepgp/deepgp/param"
	"github.com/deepgp/deepgp/svgp"
)

// ErrInvalid reports a configuration that fails validation.
var ErrInvalid = errors.New("experiment: invalid config")

// KernelSpec sets one layer's initial kernel hyperparameters, on the
// constrained (positive) scale.
type KernelSpec struct {
	Amplitude   float64 `yaml:"amplitude"`
	LengthScale float64 `yaml:"length_scale"`
}

// LayerSpec configures one sparse variational layer.
type LayerSpec struct {
	Kernel         KernelSpec `yaml:"kernel"`
	NumInducing    int        `yaml:"num_inducing"`
	FixedLocations bool       `yaml:"fixed_locations"`
}

// Spec is a full training run configuration.
type Spec struct {
	Seed         uint64      `yaml:"seed"`
	LearningRate float64     `yaml:"learning_rate"`
	NumEpochs    int         `yaml:"num_epochs"`
	NumSamples   int         `yaml:"num_samples"`
	Jitter       float64     `yaml:"jitter"`
	NoiseScale   float64     `yaml:"noise_scale"`
	Layers       []LayerSpec `yaml:"layers"`
}

// Default returns the standard two-layer run. Kernel and noise values are
// the constrained images of the standard unconstrained inits (raw kernel
// parameters 1, raw noise scale 1e-2).
func Default() Spec {
	layer := LayerSpec{
		Kernel: KernelSpec{
			Amplitude:   param.Softplus(1),
			LengthScale: param.Softplus(1),
		},
		NumInducing:    10,
		FixedLocations: true,
	}
	return Spec{
		Seed:         42,
		LearningRate: 0.001,
		NumEpochs:    50000,
		NumSamples:   17,
		Jitter:       1e-4,
		NoiseScale:   param.Softplus(1e-2),
		Layers:       []LayerSpec{layer, layer},
	}
}

// Load reads a YAML spec from path. Fields absent from the file keep
// their Default values; a layers list replaces the default layers
// entirely. The result is validated before it is returned.
func Load(path string) (Spec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Spec{}, fmt.Errorf("experiment: read config: %w", err)
	}
	spec := Default()
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return Spec{}, fmt.Errorf("experiment: parse config: %w", err)
	}
	if err := spec.Validate(); err != nil {
		return Spec{}, err
	}
	return spec, nil
}

// Validate checks field ranges. Errors wrap ErrInvalid and name the
// offending field.
func (s Spec) Validate() error {
	switch {
	case s.LearningRate <= 0:
		return fmt.Errorf("%w: learning_rate %v must be positive", ErrInvalid, s.LearningRate)
	case s.NumEpochs < 1:
		return fmt.Errorf("%w: num_epochs %d must be at least 1", ErrInvalid, s.NumEpochs)
	case s.NumSamples < 1:
		return fmt.Errorf("%w: num_samples %d must be at least 1", ErrInvalid, s.NumSamples)
	case s.Jitter < 0:
		return fmt.Errorf("%w: jitter %v must not be negative", ErrInvalid, s.Jitter)
	case s.NoiseScale <= 0:
		return fmt.Errorf("%w: noise_scale %v must be positive", ErrInvalid, s.NoiseScale)
	case len(s.Layers) == 0:
		return fmt.Errorf("%w: at least one layer required", ErrInvalid)
	}
	for i, l := range s.Layers {
		switch {
		case l.NumInducing < 1:
			return fmt.Errorf("%w: layer %d num_inducing %d must be at least 1", ErrInvalid, i, l.NumInducing)
		case l.Kernel.Amplitude <= 0:
			return fmt.Errorf("%w: layer %d amplitude %v must be positive", ErrInvalid, i, l.Kernel.Amplitude)
		case l.Kernel.LengthScale <= 0:
			return fmt.Errorf("%w: layer %d length_scale %v must be positive", ErrInvalid, i, l.Kernel.LengthScale)
		}
	}
	return nil
}

// ModelConfig expands s into a model configuration with inducing
// locations spread evenly over [lo, hi]. Positive spec values map back
// through the inverse softplus to the unconstrained scale the
// initializers fill.
func (s Spec) ModelConfig(lo, hi float64) deepgp.Config {
	layers := make([]deepgp.LayerConfig, len(s.Layers))
	for i, l := range s.Layers {
		layers[i] = deepgp.LayerConfig{
			Kernel: kern.RBFConfig{
				AmplitudeInit:   param.Constant(param.SoftplusInv(l.Kernel.Amplitude)),
				LengthScaleInit: param.Constant(param.SoftplusInv(l.Kernel.LengthScale)),
			},
			Inducing: svgp.Config{
				NumInducing:    l.NumInducing,
				FixedLocations: l.FixedLocations,
				Jitter:         s.Jitter,
				LocationsInit:  param.Linspace(lo, hi),
			},
		}
	}
	return deepgp.Config{
		Layers:         layers,
		NumSamples:     s.NumSamples,
		NoiseScaleInit: param.Constant(param.SoftplusInv(s.NoiseScale)),
	}
}
