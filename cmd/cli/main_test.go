package main

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"aucperm/internal/testkit"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeExperiment(t *testing.T, unadjusted bool) string {
	t.Helper()
	cfg := testkit.DefaultExperimentConfig()
	cfg.PermutedRuns = 4
	cfg.WriteUnadjusted = unadjusted
	root := t.TempDir()
	_, err := testkit.NewExperimentGenerator(cfg).Generate(testkit.NewResultsTree(root))
	require.NoError(t, err)
	return root
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("LOG_LEVEL", "ERROR")
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestPValuesTable(t *testing.T) {
	root := writeExperiment(t, false)

	out, err := execute(t, "pvalues", "--results-dir", root)
	require.NoError(t, err)
	assert.Contains(t, out, "diagnosis")
	assert.Contains(t, out, "xgboost_cce")
	assert.Contains(t, out, "significant at alpha 0.050")
}

func TestPValuesCSV(t *testing.T) {
	root := writeExperiment(t, false)

	out, err := execute(t, "pvalues", "--results-dir", root, "--methods", "xgboost_cce", "--format", "csv")
	require.NoError(t, err)

	records, err := csv.NewReader(strings.NewReader(out)).ReadAll()
	require.NoError(t, err)
	assert.Len(t, records, 1+8)
	assert.Equal(t, "xgboost_cce", records[1][0])
}

func TestPValuesRequiresResultsDir(t *testing.T) {
	t.Setenv("RESULTS_DIR", "")
	_, err := execute(t, "pvalues")
	assert.ErrorContains(t, err, "RESULTS_DIR")
}

func TestPlotWritesFile(t *testing.T) {
	root := writeExperiment(t, false)
	output := filepath.Join(t.TempDir(), "violin.svg")

	out, err := execute(t, "plot", "--results-dir", root, "-o", output, "--width", "6", "--height", "8")
	require.NoError(t, err)
	assert.Contains(t, out, output)

	data, err := os.ReadFile(output)
	require.NoError(t, err)
	assert.Contains(t, string(data), "<svg")
}

func TestPlotNeedsTwoMethods(t *testing.T) {
	root := writeExperiment(t, false)
	output := filepath.Join(t.TempDir(), "violin.png")

	_, err := execute(t, "plot", "--results-dir", root, "--methods", "xgboost_cce", "-o", output)
	require.Error(t, err)
	_, statErr := os.Stat(output)
	assert.True(t, os.IsNotExist(statErr), "no file should be written on failure")
}

func TestUnadjusted(t *testing.T) {
	root := writeExperiment(t, true)

	out, err := execute(t, "unadjusted", "--results-dir", root)
	require.NoError(t, err)
	assert.Contains(t, out, "logistic_regression_ovr")
	assert.Contains(t, out, "unadjusted")
	assert.Contains(t, out, "MDD")
}

func TestExport(t *testing.T) {
	root := writeExperiment(t, true)
	dir := t.TempDir()

	for _, name := range []string{"report.csv", "report.xlsx", "report.json"} {
		output := filepath.Join(dir, name)
		_, err := execute(t, "export", "--results-dir", root, "--alpha", "0.1", "-o", output)
		require.NoError(t, err, name)

		info, err := os.Stat(output)
		require.NoError(t, err)
		assert.Greater(t, info.Size(), int64(0))
	}

	data, err := os.ReadFile(filepath.Join(dir, "report.json"))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"alpha": 0.1`)

	_, err = execute(t, "export", "--results-dir", root, "-o", filepath.Join(dir, "report.parquet"))
	assert.Error(t, err)
}
