package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var opts globalOptions

	rootCmd := &cobra.Command{
		Use:   "aucperm",
		Short: "Permutation tests for held-out classifier AUCs",
		Long: `aucperm reads ROC-AUC tables written by the classifier experiments, pools the
trials run on the original labels, and tests them against the runs on permuted labels
(Ojala & Garriga, 2010).

Settings come from the environment (and a .env file when present); flags override them:
  RESULTS_DIR, SEGMENTATION, METHODS, ALPHA, UNPERMUTED_ROWS, PERMUTED_ROWS,
  XLIM_MIN, XLIM_MAX, PLOT_WIDTH_IN, PLOT_HEIGHT_IN, PORT, GIN_MODE, LOG_LEVEL`,
		SilenceUsage: true,
	}
	opts.register(rootCmd)

	rootCmd.AddCommand(
		newPValuesCmd(&opts),
		newPlotCmd(&opts),
		newUnadjustedCmd(&opts),
		newExportCmd(&opts),
		newServeCmd(&opts),
	)
	return rootCmd
}
