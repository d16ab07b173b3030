// Command deepgp trains Gaussian process models on small synthetic
// datasets.
//
// The regress command fits an exact GP to noisy sine data by maximizing
// the marginal likelihood. The dgp command fits a deep GP to a noisy step
// function by stochastic variational inference. Both write a PNG of the
// fit when --plot is set.
package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:          "deepgp",
	Short:        "Gaussian process regression demos",
	SilenceUsage: true,
}

func main() {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, nil)))
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
