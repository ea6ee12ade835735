package config

import (
	"os"
	"strconv"
	"strings"

	"aucperm/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Results ResultsConfig
	Test    TestConfig
	Plot    PlotConfig
	Server  ServerConfig
}

// ResultsConfig locates the experiment output tree
type ResultsConfig struct {
	Dir          string
	Segmentation string
	Methods      []string
	// Expected trial rows per file; 0 disables the check
	UnpermutedRows int
	PermutedRows   int
}

// TestConfig holds permutation test settings
type TestConfig struct {
	Alpha float64
}

// PlotConfig holds violin plot settings
type PlotConfig struct {
	XMin     float64
	XMax     float64
	WidthIn  float64
	HeightIn float64
}

// ServerConfig holds report viewer settings
type ServerConfig struct {
	Port    string
	GinMode string
}

// Default values used when the environment does not override them
const (
	DefaultSegmentation   = "freesurfer"
	DefaultUnpermutedRows = 150
	DefaultPermutedRows   = 5
	DefaultAlpha          = 0.05
	DefaultXMin           = 0.425
	DefaultXMax           = 0.575
	DefaultWidthIn        = 11
	DefaultHeightIn       = 14
)

// DefaultMethods are the two classifiers compared in the published figure
var DefaultMethods = []string{"logistic_regression_ovr", "xgboost_cce"}

// FromEnv reads configuration from environment variables without validating it,
// so command-line flags can still fill in what the environment leaves out
func FromEnv() *Config {
	return &Config{
		Results: *loadResultsConfig(),
		Test:    TestConfig{Alpha: getEnvFloatOrDefault("ALPHA", DefaultAlpha)},
		Plot:    *loadPlotConfig(),
		Server:  *loadServerConfig(),
	}
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	config := FromEnv()

	if err := Validate(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}

	return config, nil
}

func loadResultsConfig() *ResultsConfig {
	return &ResultsConfig{
		Dir:            getEnvOrDefault("RESULTS_DIR", ""),
		Segmentation:   getEnvOrDefault("SEGMENTATION", DefaultSegmentation),
		Methods:        getEnvListOrDefault("METHODS", DefaultMethods),
		UnpermutedRows: getEnvIntOrDefault("UNPERMUTED_ROWS", DefaultUnpermutedRows),
		PermutedRows:   getEnvIntOrDefault("PERMUTED_ROWS", DefaultPermutedRows),
	}
}

func loadPlotConfig() *PlotConfig {
	return &PlotConfig{
		XMin:     getEnvFloatOrDefault("XLIM_MIN", DefaultXMin),
		XMax:     getEnvFloatOrDefault("XLIM_MAX", DefaultXMax),
		WidthIn:  getEnvFloatOrDefault("PLOT_WIDTH_IN", DefaultWidthIn),
		HeightIn: getEnvFloatOrDefault("PLOT_HEIGHT_IN", DefaultHeightIn),
	}
}

func loadServerConfig() *ServerConfig {
	return &ServerConfig{
		Port:    getEnvOrDefault("PORT", "8080"),
		GinMode: getEnvOrDefault("GIN_MODE", "release"),
	}
}

// Validate checks a configuration after flags have been applied
func Validate(config *Config) error {
	if config.Results.Dir == "" {
		return errors.ConfigInvalid("RESULTS_DIR is required")
	}
	if config.Results.Segmentation == "" {
		return errors.ConfigInvalid("segmentation is required")
	}
	if len(config.Results.Methods) == 0 {
		return errors.ConfigInvalid("at least one method is required")
	}
	if config.Results.UnpermutedRows < 0 || config.Results.PermutedRows < 0 {
		return errors.ConfigInvalid("expected row counts cannot be negative")
	}
	if config.Test.Alpha <= 0 || config.Test.Alpha >= 1 {
		return errors.ConfigInvalid("alpha must lie in (0, 1)")
	}
	if config.Plot.XMin >= config.Plot.XMax {
		return errors.ConfigInvalid("XLIM_MIN must be below XLIM_MAX")
	}
	if config.Plot.WidthIn <= 0 || config.Plot.HeightIn <= 0 {
		return errors.ConfigInvalid("plot dimensions must be positive")
	}
	return nil
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

// getEnvListOrDefault splits a comma-separated variable, dropping blanks
func getEnvListOrDefault(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return append([]string(nil), defaultValue...)
	}
	return SplitList(value)
}

// SplitList splits "a, b,,c" into [a b c]
func SplitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
