package main

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/spf13/cobra"

	"github.com/deepgp/deepgp"
	"github.com/deepgp/deepgp/experiment"
	"github.com/deepgp/deepgp/fit"
	"github.com/deepgp/deepgp/prng"
)

var (
	dgpLearningRate float64
	dgpNumEpochs    int
	dgpNumInducing  int
	dgpNumSamples   int
	dgpSeed         uint64
	dgpConfig       string
	dgpPlot         bool
	dgpOut          string
)

var dgpCmd = &cobra.Command{
	Use:   "dgp",
	Short: "Fit a two-layer deep GP to a noisy step function",
	RunE:  runDGP,
}

func init() {
	f := dgpCmd.Flags()
	f.Float64Var(&dgpLearningRate, "learning-rate", 0.001, "Adam learning rate")
	f.IntVar(&dgpNumEpochs, "num-epochs", 50000, "training epochs")
	f.IntVar(&dgpNumInducing, "num-inducing-points", 10, "inducing points per layer")
	f.IntVar(&dgpNumSamples, "num-samples", 17, "Monte Carlo chains per loss evaluation")
	f.Uint64Var(&dgpSeed, "seed", 42, "model initialization seed")
	f.StringVar(&dgpConfig, "config", "", "YAML config replacing the flag settings")
	f.BoolVar(&dgpPlot, "plot", false, "write the sample-path plot")
	f.StringVar(&dgpOut, "out", "dgp.png", "plot output path")
	rootCmd.AddCommand(dgpCmd)
}

func dgpSpec() (experiment.Spec, error) {
	if dgpConfig != "" {
		return experiment.Load(dgpConfig)
	}
	spec := experiment.Default()
	spec.LearningRate = dgpLearningRate
	spec.NumEpochs = dgpNumEpochs
	spec.NumSamples = dgpNumSamples
	spec.Seed = dgpSeed
	for i := range spec.Layers {
		spec.Layers[i].NumInducing = dgpNumInducing
	}
	return spec, spec.Validate()
}

func runDGP(cmd *cobra.Command, args []string) error {
	spec, err := dgpSpec()
	if err != nil {
		return err
	}

	x, y := stepDataset(prng.NewKey(123), 25, -1.5, 1.5, 0.1)

	model, err := deepgp.New(prng.NewKey(spec.Seed), 1, spec.ModelConfig(-1.5, 1.5))
	if err != nil {
		return fmt.Errorf("build model: %w", err)
	}

	opt := fit.NewAdam(spec.LearningRate)
	params := model.Params(nil)
	grad := make([]float64, len(params))
	key := prng.NewKey(1)
	for epoch := 1; epoch <= spec.NumEpochs; epoch++ {
		var epochKey prng.Key
		key, epochKey = key.Split()

		objective := fit.ELBO(model, epochKey, x, y)
		loss := objective(params)
		if math.IsInf(loss, 1) {
			_, lossErr := model.Loss(epochKey, x, y)
			return fmt.Errorf("train epoch %d: %w", epoch, lossErr)
		}
		fit.Gradient(grad, objective, params)
		opt.Step(params, grad)
		model.SetParams(params)

		slog.Info("train epoch", "epoch", epoch, "loss", loss)
	}
	slog.Info("training complete", "noise_scale", model.Likelihood().NoiseScale())

	if !dgpPlot {
		return nil
	}
	return plotDeep(dgpOut, x, y, model, prng.NewKey(123))
}
