package main

import (
	"os"

	"aucperm/internal"
	apperrors "aucperm/internal/errors"
	"aucperm/internal/config"
	"aucperm/internal/container"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// globalOptions are the flags every subcommand shares
type globalOptions struct {
	envFile      string
	resultsDir   string
	segmentation string
	methods      []string
	alpha        float64
	logLevel     string

	flags *cobra.Command
}

func (o *globalOptions) register(root *cobra.Command) {
	o.flags = root
	pf := root.PersistentFlags()
	pf.StringVar(&o.envFile, "env-file", ".env", "Environment file loaded before reading settings")
	pf.StringVar(&o.resultsDir, "results-dir", "", "Root of the experiment results tree (RESULTS_DIR)")
	pf.StringVar(&o.segmentation, "segmentation", config.DefaultSegmentation, "Segmentation the results were computed on (SEGMENTATION)")
	pf.StringSliceVar(&o.methods, "methods", config.DefaultMethods, "Comma-separated classifier names (METHODS)")
	pf.Float64Var(&o.alpha, "alpha", config.DefaultAlpha, "Significance level (ALPHA)")
	pf.StringVar(&o.logLevel, "log-level", "", "ERROR, WARN, INFO, DEBUG or TRACE (LOG_LEVEL)")
}

// load reads the environment, applies the flags that were set explicitly and wires the pipeline
func (o *globalOptions) load() (*container.Container, error) {
	if err := godotenv.Load(o.envFile); err != nil && o.changed("env-file") {
		return nil, apperrors.Wrapf(err, "loading %s", o.envFile)
	}

	cfg := config.FromEnv()
	if o.changed("results-dir") {
		cfg.Results.Dir = o.resultsDir
	}
	if o.changed("segmentation") {
		cfg.Results.Segmentation = o.segmentation
	}
	if o.changed("methods") {
		cfg.Results.Methods = o.methods
	}
	if o.changed("alpha") {
		cfg.Test.Alpha = o.alpha
	}
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}

	level := os.Getenv("LOG_LEVEL")
	if o.logLevel != "" {
		level = o.logLevel
	}
	logger := internal.NewLogger(internal.ParseLogLevel(level))

	return container.New(cfg, logger)
}

func (o *globalOptions) changed(name string) bool {
	return o.flags.PersistentFlags().Changed(name)
}
