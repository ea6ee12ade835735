package app

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"aucperm/adapters/battery"
	"aucperm/adapters/render"
	"aucperm/adapters/results"
	"aucperm/domain/auc"
	"aucperm/domain/core"
	"aucperm/internal"
	apperrors "aucperm/internal/errors"
	"aucperm/internal/testkit"
	"aucperm/ports"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var quietLogger = internal.NewLogger(internal.LogLevelError)

type recordingRenderer struct {
	requests []ports.ViolinRequest
}

func (r *recordingRenderer) RenderViolin(_ context.Context, w io.Writer, req ports.ViolinRequest) error {
	r.requests = append(r.requests, req)
	_, err := w.Write([]byte("plot"))
	return err
}

func generate(t *testing.T, cfg testkit.ExperimentConfig) (string, *testkit.Experiment) {
	t.Helper()
	root := t.TempDir()
	exp, err := testkit.NewExperimentGenerator(cfg).Generate(testkit.NewResultsTree(root))
	require.NoError(t, err)
	return root, exp
}

func newService(root string, renderer ports.PlotRendererPort, unpermutedRows, permutedRows int) *AUCService {
	return NewAUCService(
		results.NewReader(results.DefaultReaderConfig(root), quietLogger),
		battery.NewPermutationReferee(quietLogger),
		renderer,
		ServiceConfig{ResultsDir: root, UnpermutedRows: unpermutedRows, PermutedRows: permutedRows},
		quietLogger,
	)
}

func TestLoadTestAUCMatchesGeneratedExperiment(t *testing.T) {
	cfg := testkit.DefaultExperimentConfig()
	root, exp := generate(t, cfg)
	svc := newService(root, &recordingRenderer{}, cfg.UnpermutedRows, cfg.PermutedRows)

	loaded, err := svc.LoadTestAUC(context.Background(), cfg.Methods, auc.DefaultSegmentation)
	require.NoError(t, err)

	for _, m := range cfg.Methods {
		for _, name := range cfg.Diagnoses {
			d := auc.Diagnosis(name)
			want, ok := exp.ExpectedTrue.Get(m, d)
			require.True(t, ok)
			got, ok := loaded.Truth.Get(m, d)
			require.True(t, ok, "%s/%s missing", m, d)
			assert.InDelta(t, want, got, 1e-12, "%s/%s", m, d)

			assert.Len(t, loaded.Pool.Values(m, d), cfg.UnpermutedRuns*cfg.UnpermutedRows)
			assert.InDeltaSlice(t, exp.ExpectedPermuted.Values(m, d), loaded.Permuted.Values(m, d), 1e-12)
		}
	}
	assert.Equal(t, len(cfg.Methods)*len(cfg.Diagnoses)*cfg.PermutedRuns, loaded.Permuted.Len())
	assert.Len(t, loaded.Files, len(cfg.Methods)*(cfg.UnpermutedRuns+cfg.PermutedRuns))
}

func TestLoadTestAUCRowCountCheck(t *testing.T) {
	cfg := testkit.DefaultExperimentConfig()
	cfg.PermutedRuns = 3
	root, _ := generate(t, cfg)
	ctx := context.Background()

	_, err := newService(root, nil, 100, cfg.PermutedRows).LoadTestAUC(ctx, cfg.Methods, "")
	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrRowCountMismatch))
	assert.Equal(t, apperrors.CodeValidationError, apperrors.GetCode(err))

	_, err = newService(root, nil, cfg.UnpermutedRows, 4).LoadTestAUC(ctx, cfg.Methods, "")
	assert.ErrorIs(t, err, core.ErrRowCountMismatch)

	// zero disables the check
	_, err = newService(root, nil, 0, 0).LoadTestAUC(ctx, cfg.Methods, "")
	assert.NoError(t, err)
}

func TestLoadTestAUCMissingMethod(t *testing.T) {
	cfg := testkit.DefaultExperimentConfig()
	cfg.PermutedRuns = 2
	root, _ := generate(t, cfg)

	_, err := newService(root, nil, 0, 0).LoadTestAUC(context.Background(), []auc.Method{"random_forest"}, "")
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrResultFileMissing)
	assert.Equal(t, apperrors.CodeNotFound, apperrors.GetCode(err))
}

func TestLoadUnadjustedAUC(t *testing.T) {
	cfg := testkit.DefaultExperimentConfig()
	cfg.PermutedRuns = 2
	root, exp := generate(t, cfg)
	svc := newService(root, nil, cfg.UnpermutedRows, cfg.PermutedRows)

	unadjusted, err := svc.LoadUnadjustedAUC(context.Background(), cfg.Methods, auc.DefaultSegmentation)
	require.NoError(t, err)
	assert.Len(t, unadjusted.Files, len(cfg.Methods)*cfg.UnpermutedRuns)
	for _, f := range unadjusted.Files {
		assert.Contains(t, f.RunDir, "_unadjusted")
	}

	adjusted, _ := exp.ExpectedTrue.Get(cfg.Methods[0], "MDD")
	got, ok := unadjusted.Truth.Get(cfg.Methods[0], "MDD")
	require.True(t, ok)
	assert.InDelta(t, adjusted+cfg.UnadjustedShift, got, 0.01)
}

func TestPermutationTestOnGeneratedExperiment(t *testing.T) {
	cfg := testkit.DefaultExperimentConfig()
	root, exp := generate(t, cfg)
	svc := newService(root, nil, cfg.UnpermutedRows, cfg.PermutedRows)

	table, err := svc.PermutationTest(context.Background(), exp.ExpectedPermuted, exp.ExpectedTrue)
	require.NoError(t, err)
	require.Len(t, table.Entries, len(cfg.Methods)*len(cfg.Diagnoses))

	// a strong signal beats every permutation: p = 1/(n+1)
	for _, m := range cfg.Methods {
		pv, ok := table.Lookup(m, "ADHD")
		require.True(t, ok)
		assert.InDelta(t, 1.0/float64(cfg.PermutedRuns+1), pv.P, 1e-12)
		assert.True(t, pv.Significant())
	}
	for _, e := range table.Entries {
		assert.Greater(t, e.P, 0.0)
		assert.LessOrEqual(t, e.P, 1.0)
	}
}

func TestPermutationTestMissingTruth(t *testing.T) {
	svc := newService(t.TempDir(), nil, 0, 0)
	var permuted auc.PermutedSet
	permuted.Add(auc.PermutedSample{Method: "m", Diagnosis: "MDD", MeanAUC: 0.5})

	_, err := svc.PermutationTest(context.Background(), permuted, auc.TrueAUCs{})
	assert.ErrorIs(t, err, core.ErrMissingTrueAUC)
	assert.Equal(t, apperrors.CodeValidationError, apperrors.GetCode(err))
}

func TestRenderViolinPassesPValues(t *testing.T) {
	cfg := testkit.DefaultExperimentConfig()
	cfg.Methods = append(cfg.Methods, "logistic_regression_cce")
	cfg.PermutedRuns = 4
	root, exp := generate(t, cfg)
	renderer := &recordingRenderer{}
	svc := newService(root, renderer, 0, 0)

	plotted := []auc.Method{"xgboost_cce", "logistic_regression_ovr"}
	opts := RenderOptions{XMin: 0.425, XMax: 0.575, Width: 11, Height: 14, Format: "png"}

	var buf bytes.Buffer
	require.NoError(t, svc.RenderViolin(context.Background(), &buf, exp.ExpectedPermuted, exp.ExpectedTrue, plotted, opts))
	assert.Equal(t, "plot", buf.String())

	require.Len(t, renderer.requests, 1)
	req := renderer.requests[0]
	assert.Equal(t, plotted, req.Methods)
	assert.ElementsMatch(t, plotted, req.Permuted.Methods(), "the third method is filtered out")
	require.NotNil(t, req.PValues)
	assert.Len(t, req.PValues.Entries, 2*len(cfg.Diagnoses))

	err := svc.RenderViolin(context.Background(), &buf, exp.ExpectedPermuted, exp.ExpectedTrue, plotted[:1], opts)
	assert.Equal(t, apperrors.CodeInvalidInput, apperrors.GetCode(err))
	assert.Len(t, renderer.requests, 1)
}

func TestRenderViolinEndToEnd(t *testing.T) {
	cfg := testkit.DefaultExperimentConfig()
	cfg.PermutedRuns = 6
	root, _ := generate(t, cfg)
	svc := newService(root, render.NewViolinRenderer(quietLogger), cfg.UnpermutedRows, cfg.PermutedRows)
	ctx := context.Background()

	loaded, err := svc.LoadTestAUC(ctx, cfg.Methods, auc.DefaultSegmentation)
	require.NoError(t, err)

	var buf bytes.Buffer
	opts := RenderOptions{XMin: 0.425, XMax: 0.575, Width: 11, Height: 14, Format: "png"}
	require.NoError(t, svc.RenderViolin(ctx, &buf, loaded.Permuted, loaded.Truth, cfg.Methods, opts))
	assert.Equal(t, "\x89PNG", buf.String()[:4])
}

func TestBuildReport(t *testing.T) {
	cfg := testkit.DefaultExperimentConfig()
	cfg.PermutedRuns = 5
	root, _ := generate(t, cfg)
	svc := newService(root, nil, cfg.UnpermutedRows, cfg.PermutedRows)

	report, err := svc.BuildReport(context.Background(), ReportRequest{Methods: cfg.Methods})
	require.NoError(t, err)

	assert.False(t, report.RunID == "")
	_, err = core.ParseRunID(report.RunID.String())
	assert.NoError(t, err)
	assert.Equal(t, root, report.ResultsDir)
	assert.Equal(t, auc.DefaultSegmentation, report.Segmentation)
	assert.Len(t, report.PValues.Entries, len(cfg.Methods)*len(cfg.Diagnoses))
	assert.NotNil(t, report.Unadjusted)
	// adjusted, permuted and unadjusted files
	assert.Len(t, report.Files, len(cfg.Methods)*(2*cfg.UnpermutedRuns+cfg.PermutedRuns))
	assert.False(t, report.InputHash.IsEmpty())

	again, err := svc.BuildReport(context.Background(), ReportRequest{Methods: cfg.Methods})
	require.NoError(t, err)
	assert.Equal(t, report.InputHash, again.InputHash)
	assert.NotEqual(t, report.RunID, again.RunID)
}

func TestBuildReportWithoutUnadjustedRuns(t *testing.T) {
	cfg := testkit.DefaultExperimentConfig()
	cfg.PermutedRuns = 3
	cfg.WriteUnadjusted = false
	root, _ := generate(t, cfg)

	report, err := newService(root, nil, 0, 0).BuildReport(context.Background(), ReportRequest{Methods: cfg.Methods})
	require.NoError(t, err)
	assert.Nil(t, report.Unadjusted)
}

func TestLoadUnadjustedAUCWithoutRuns(t *testing.T) {
	cfg := testkit.DefaultExperimentConfig()
	cfg.PermutedRuns = 1
	cfg.WriteUnadjusted = false
	root, _ := generate(t, cfg)

	_, err := newService(root, nil, 0, 0).LoadUnadjustedAUC(context.Background(), cfg.Methods, "")
	assert.ErrorIs(t, err, core.ErrNotFound)
	assert.Equal(t, apperrors.CodeNotFound, apperrors.GetCode(err))
}

func TestBuildReportRequiresMethods(t *testing.T) {
	_, err := newService(t.TempDir(), nil, 0, 0).BuildReport(context.Background(), ReportRequest{})
	assert.Equal(t, apperrors.CodeInvalidInput, apperrors.GetCode(err))
}
