package config

import (
	"testing"

	"aucperm/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("RESULTS_DIR", "/data/results")
	t.Setenv("METHODS", "")
	t.Setenv("ALPHA", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "/data/results", cfg.Results.Dir)
	assert.Equal(t, DefaultSegmentation, cfg.Results.Segmentation)
	assert.Equal(t, DefaultMethods, cfg.Results.Methods)
	assert.Equal(t, 150, cfg.Results.UnpermutedRows)
	assert.Equal(t, 5, cfg.Results.PermutedRows)
	assert.Equal(t, 0.05, cfg.Test.Alpha)
	assert.Equal(t, 0.425, cfg.Plot.XMin)
	assert.Equal(t, 0.575, cfg.Plot.XMax)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("RESULTS_DIR", "/tmp/r")
	t.Setenv("SEGMENTATION", "fastsurfer")
	t.Setenv("METHODS", "logistic_regression_cce, xgboost_cce,")
	t.Setenv("ALPHA", "0.01")
	t.Setenv("PERMUTED_ROWS", "0")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "fastsurfer", cfg.Results.Segmentation)
	assert.Equal(t, []string{"logistic_regression_cce", "xgboost_cce"}, cfg.Results.Methods)
	assert.Equal(t, 0.01, cfg.Test.Alpha)
	assert.Equal(t, 0, cfg.Results.PermutedRows)
}

func TestLoadRequiresResultsDir(t *testing.T) {
	t.Setenv("RESULTS_DIR", "")

	_, err := Load()
	require.Error(t, err)
	assert.Equal(t, errors.CodeConfigInvalid, errors.GetCode(err))
}

func TestValidateRejectsBadValues(t *testing.T) {
	base := func() *Config {
		return &Config{
			Results: ResultsConfig{Dir: "x", Segmentation: "freesurfer", Methods: []string{"a"}},
			Test:    TestConfig{Alpha: 0.05},
			Plot:    PlotConfig{XMin: 0.4, XMax: 0.6, WidthIn: 11, HeightIn: 14},
		}
	}
	require.NoError(t, Validate(base()))

	tests := map[string]func(*Config){
		"alpha zero":      func(c *Config) { c.Test.Alpha = 0 },
		"alpha one":       func(c *Config) { c.Test.Alpha = 1 },
		"no methods":      func(c *Config) { c.Results.Methods = nil },
		"inverted xlim":   func(c *Config) { c.Plot.XMin = 0.7 },
		"negative rows":   func(c *Config) { c.Results.PermutedRows = -1 },
		"zero plot width": func(c *Config) { c.Plot.WidthIn = 0 },
	}
	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			cfg := base()
			mutate(cfg)
			assert.Error(t, Validate(cfg))
		})
	}
}

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{"a", "b", "c"}, SplitList("a, b,,c "))
	assert.Nil(t, SplitList(" , "))
}

func TestFromEnvSkipsValidation(t *testing.T) {
	t.Setenv("RESULTS_DIR", "")

	cfg := FromEnv()
	assert.Empty(t, cfg.Results.Dir)

	cfg.Results.Dir = "/from/flag"
	assert.NoError(t, Validate(cfg))
}
