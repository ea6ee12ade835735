package report

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"testing"
	"time"

	"aucperm/domain/auc"
	"aucperm/domain/core"
	"aucperm/domain/verdict"
	apperrors "aucperm/internal/errors"
	"aucperm/ports"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func sampleReport() *ports.Report {
	truth := auc.TrueAUCs{}
	truth.Set("logistic_regression_ovr", "MDD", 0.56)
	truth.Set("logistic_regression_ovr", "PTSD", 0.5)
	truth.Set("xgboost_cce", "MDD", 0.55)
	truth.Set("xgboost_cce", "PTSD", 0.49)

	unadjusted := auc.TrueAUCs{}
	unadjusted.Set("logistic_regression_ovr", "MDD", 0.59)

	return &ports.Report{
		RunID:        core.NewRunID(),
		GeneratedAt:  core.NewTimestamp(time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)),
		ResultsDir:   "/data/results",
		Segmentation: auc.DefaultSegmentation,
		Methods:      []auc.Method{"logistic_regression_ovr", "xgboost_cce"},
		InputHash:    core.ComputeInputHash([]string{"a.csv", "b.csv"}),
		PValues: &verdict.PValueTable{
			Alpha: 0.05,
			Entries: []verdict.PValue{
				{Method: "logistic_regression_ovr", Diagnosis: "PTSD", TrueAUC: 0.5, P: 0.6, Exceeding: 11, Permutations: 19, Status: verdict.StatusNotSignificant},
				{Method: "logistic_regression_ovr", Diagnosis: "MDD", TrueAUC: 0.56, P: 0.05, Exceeding: 0, Permutations: 19, Status: verdict.StatusSignificant,
					Null: verdict.NullDistributionSummary{Mean: 0.5, StdDev: 0.01, Median: 0.5, Percentile95: 0.52}},
				{Method: "xgboost_cce", Diagnosis: "MDD", TrueAUC: 0.55, P: 1.0 / 6.0, Exceeding: 0, Permutations: 5, Status: verdict.StatusNotSignificant},
			},
		},
		TrueAUCs:   truth,
		Unadjusted: unadjusted,
	}
}

func TestNewWriter(t *testing.T) {
	for _, format := range []string{"csv", "XLSX", ".json"} {
		w, err := NewWriter(format)
		require.NoError(t, err, format)
		assert.NotEmpty(t, w.Format())
	}

	_, err := NewWriter("parquet")
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeInvalidInput, apperrors.GetCode(err))
}

func TestCSVWriter(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, CSVWriter{}.Write(context.Background(), &buf, sampleReport()))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 4)
	assert.Equal(t, PValueHeaders, records[0])
	// rows keep test order
	assert.Equal(t, []string{"logistic_regression_ovr", "PTSD"}, records[1][:2])
	assert.Equal(t, "0.560000", records[2][2])
	assert.Equal(t, "0.050000", records[2][3])
	assert.Equal(t, "significant", records[2][6])
	assert.Equal(t, "0.166667", records[3][3])
	assert.Equal(t, "5", records[3][5])
}

func TestXLSXWriter(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, XLSXWriter{}.Write(context.Background(), &buf, sampleReport()))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{PValueSheet, TrueAUCSheet}, f.GetSheetList())

	pRows, err := f.GetRows(PValueSheet)
	require.NoError(t, err)
	require.Len(t, pRows, 4)
	assert.Equal(t, "method", pRows[0][0])
	assert.Equal(t, "MDD", pRows[2][1])

	aucRows, err := f.GetRows(TrueAUCSheet)
	require.NoError(t, err)
	require.Len(t, aucRows, 5)
	assert.Equal(t, TrueAUCHeaders, aucRows[0])
	// p-value order first: PTSD then MDD for the first method
	assert.Equal(t, []string{"logistic_regression_ovr", "PTSD"}, aucRows[1][:2])
	assert.Equal(t, "0.59", aucRows[2][3])
	// xgboost PTSD is untested and sorts after the tested MDD
	assert.Equal(t, []string{"xgboost_cce", "PTSD"}, aucRows[4][:2])
	assert.Len(t, aucRows[4], 3, "missing unadjusted mean leaves the cell empty")
}

func TestJSONWriterRoundTrip(t *testing.T) {
	original := sampleReport()
	var buf bytes.Buffer
	require.NoError(t, JSONWriter{Indent: "  "}.Write(context.Background(), &buf, original))

	var decoded ports.Report
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, original.RunID, decoded.RunID)
	assert.True(t, original.GeneratedAt.Time().Equal(decoded.GeneratedAt.Time()))
	assert.Equal(t, original.PValues.Entries, decoded.PValues.Entries)
	assert.Equal(t, original.TrueAUCs, decoded.TrueAUCs)
	assert.Contains(t, buf.String(), `"unadjusted_aucs"`)
}

func TestWritersHonourCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	for _, w := range []ports.ReportWriterPort{CSVWriter{}, XLSXWriter{}, JSONWriter{}} {
		var buf bytes.Buffer
		assert.ErrorIs(t, w.Write(ctx, &buf, sampleReport()), context.Canceled, w.Format())
		assert.Zero(t, buf.Len())
	}
}
