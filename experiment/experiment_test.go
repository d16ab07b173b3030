package experiment

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/deepgp/deepgp"
	"github.com/deepgp/deepgp/kern"
	"github.com/deepgp/deepgp/param"
	"github.com/deepgp/deepgp/prng"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "run.yaml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestDefault(t *testing.T) {
	spec := Default()
	require.NoError(t, spec.Validate())

	require.EqualValues(t, 42, spec.Seed)
	require.Equal(t, 0.001, spec.LearningRate)
	require.Equal(t, 50000, spec.NumEpochs)
	require.Equal(t, 17, spec.NumSamples)
	require.Len(t, spec.Layers, 2)
	for _, l := range spec.Layers {
		require.Equal(t, 10, l.NumInducing)
		require.True(t, l.FixedLocations)
	}
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Spec)
	}{
		{"zero learning rate", func(s *Spec) { s.LearningRate = 0 }},
		{"zero epochs", func(s *Spec) { s.NumEpochs = 0 }},
		{"zero samples", func(s *Spec) { s.NumSamples = 0 }},
		{"negative jitter", func(s *Spec) { s.Jitter = -1e-8 }},
		{"zero noise scale", func(s *Spec) { s.NoiseScale = 0 }},
		{"no layers", func(s *Spec) { s.Layers = nil }},
		{"zero inducing", func(s *Spec) { s.Layers[1].NumInducing = 0 }},
		{"negative amplitude", func(s *Spec) { s.Layers[0].Kernel.Amplitude = -1 }},
		{"zero length scale", func(s *Spec) { s.Layers[0].Kernel.LengthScale = 0 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			spec := Default()
			tc.mutate(&spec)
			require.ErrorIs(t, spec.Validate(), ErrInvalid)
		})
	}
}

func TestLoadRoundTrip(t *testing.T) {
	path := writeConfig(t, `
seed: 7
learning_rate: 0.01
num_epochs: 500
num_samples: 5
jitter: 1.0e-6
noise_scale: 0.25
layers:
  - kernel:
      amplitude: 1.5
      length_scale: 0.8
    num_inducing: 6
    fixed_locations: true
  - kernel:
      amplitude: 1.0
      length_scale: 1.0
    num_inducing: 4
    fixed_locations: false
`)

	spec, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, Spec{
		Seed:         7,
		LearningRate: 0.01,
		NumEpochs:    500,
		NumSamples:   5,
		Jitter:       1e-6,
		NoiseScale:   0.25,
		Layers: []LayerSpec{
			{Kernel: KernelSpec{Amplitude: 1.5, LengthScale: 0.8}, NumInducing: 6, FixedLocations: true},
			{Kernel: KernelSpec{Amplitude: 1.0, LengthScale: 1.0}, NumInducing: 4},
		},
	}, spec)
}

func TestLoadPartialKeepsDefaults(t *testing.T) {
	path := writeConfig(t, "learning_rate: 0.05\n")

	spec, err := Load(path)
	require.NoError(t, err)

	want := Default()
	want.LearningRate = 0.05
	require.Equal(t, want, spec)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)

	_, err = Load(writeConfig(t, "layers: [not, a, layer"))
	require.Error(t, err)

	_, err = Load(writeConfig(t, "learning_rate: -3\n"))
	require.ErrorIs(t, err, ErrInvalid)
}

func TestModelConfig(t *testing.T) {
	spec := Default()
	spec.NumSamples = 3
	spec.Layers[0].Kernel.Amplitude = 2
	spec.Layers[0].NumInducing = 5
	spec.Layers[1].NumInducing = 4

	model, err := deepgp.New(prng.NewKey(spec.Seed), 1, spec.ModelConfig(-1.5, 1.5))
	require.NoError(t, err)

	require.Equal(t, 2, model.NumLayers())
	require.Equal(t, 3, model.NumSamples())
	require.InDelta(t, spec.NoiseScale, model.Likelihood().NoiseScale(), 1e-12)

	k0 := model.Layer(0).Kernel().(*kern.RBF)
	require.InDelta(t, 2, k0.Amplitude(), 1e-12)
	require.InDelta(t, param.Softplus(1), k0.LengthScale(), 1e-12)

	z := model.Layer(0).Locations()
	require.Equal(t, 5, model.Layer(0).NumInducing())
	require.InDelta(t, -1.5, z.At(0, 0), 1e-12)
	require.InDelta(t, 1.5, z.At(4, 0), 1e-12)

	// Fixed locations stay out of the trainable vector: kernel raws,
	// variational mean, and scale triangle only.
	require.Equal(t, 2+5+15, model.Layer(0).NumParams())
	require.Equal(t, 2+4+10, model.Layer(1).NumParams())
}
