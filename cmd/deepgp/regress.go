package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/deepgp/deepgp/fit"
	"github.com/deepgp/deepgp/gp"
	"github.com/deepgp/deepgp/kern"
	"github.com/deepgp/deepgp/lik"
	"github.com/deepgp/deepgp/prng"
)

var (
	regressSeed uint64
	regressPlot bool
	regressOut  string
)

var regressCmd = &cobra.Command{
	Use:   "regress",
	Short: "Fit an exact GP to noisy sine data",
	RunE:  runRegress,
}

func init() {
	regressCmd.Flags().Uint64Var(&regressSeed, "seed", 123, "dataset simulation seed")
	regressCmd.Flags().BoolVar(&regressPlot, "plot", false, "write the posterior plot")
	regressCmd.Flags().StringVar(&regressOut, "out", "regression.png", "plot output path")
	rootCmd.AddCommand(regressCmd)
}

func runRegress(cmd *cobra.Command, args []string) error {
	x, y := sinDataset(prng.NewKey(regressSeed), 25, -3, 3, 0.5)

	kernel := kern.InitRBF(prng.NewKey(0), kern.RBFConfig{})
	noise := lik.NewGaussian(1)
	prior := gp.New(kernel, nil, gp.DefaultJitter)

	params := fit.Group{kernel, noise}
	objective := fit.MarginalLikelihood(prior, noise, x, y)
	result, err := fit.MinimizeBFGS(objective, params.Params(nil))
	if err != nil {
		if result == nil {
			return fmt.Errorf("optimize: %w", err)
		}
		slog.Warn("optimizer stopped early", "status", result.Status, "err", err)
	}
	params.SetParams(result.X)
	slog.Info("trained",
		"nll", result.F,
		"status", result.Status,
		"amplitude", kernel.Amplitude(),
		"length_scale", kernel.LengthScale(),
		"noise_scale", noise.NoiseScale())

	sigma := noise.NoiseScale()
	post, err := prior.PosteriorGP(y, x, sigma*sigma)
	if err != nil {
		return fmt.Errorf("fit posterior: %w", err)
	}

	if !regressPlot {
		return nil
	}
	return plotRegression(regressOut, x, y, post)
}
