package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"time"

	"aucperm/domain/auc"
	"aucperm/domain/core"
	"aucperm/domain/verdict"
	"aucperm/internal"
	apperrors "aucperm/internal/errors"
	"aucperm/ports"

	"github.com/montanaflynn/stats"
)

// ServiceConfig holds the settings AUCService applies to every load
type ServiceConfig struct {
	ResultsDir string
	// Expected trial rows per unpermuted and permuted file; 0 disables the check
	UnpermutedRows int
	PermutedRows   int
}

// AUCService aggregates classifier results and judges them against permuted-label runs
type AUCService struct {
	reader   ports.ResultsReaderPort
	referee  ports.PermutationTestPort
	renderer ports.PlotRendererPort
	config   ServiceConfig
	logger   *internal.Logger
}

// NewAUCService creates the service
func NewAUCService(reader ports.ResultsReaderPort, referee ports.PermutationTestPort, renderer ports.PlotRendererPort, config ServiceConfig, logger *internal.Logger) *AUCService {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &AUCService{
		reader:   reader,
		referee:  referee,
		renderer: renderer,
		config:   config,
		logger:   logger.WithComponent("AUCService"),
	}
}

// TestAUC is the aggregated held-out test performance of a set of methods
type TestAUC struct {
	// Mean over every unpermuted trial row, per method and diagnosis
	Truth auc.TrueAUCs
	// One mean per permuted file, method and diagnosis
	Permuted auc.PermutedSet
	// The pooled unpermuted trial AUCs behind Truth
	Pool  *auc.AUCPool
	Files []auc.ResultFile
}

// UnadjustedAUC is the aggregated performance of the runs without covariate adjustment
type UnadjustedAUC struct {
	Truth auc.TrueAUCs
	Pool  *auc.AUCPool
	Files []auc.ResultFile
}

// LoadTestAUC pools the adjusted unpermuted trials and takes per-file means of the
// adjusted permuted trials
func (s *AUCService) LoadTestAUC(ctx context.Context, methods []auc.Method, seg auc.Segmentation) (*TestAUC, error) {
	unpermuted, err := s.discover(ctx, methods, seg, auc.Variant{Permuted: false, Adjusted: true})
	if err != nil {
		return nil, classify(err)
	}
	pool, err := s.pool(ctx, unpermuted, s.config.UnpermutedRows)
	if err != nil {
		return nil, classify(err)
	}
	truth, err := pool.Means()
	if err != nil {
		return nil, classify(err)
	}

	permutedFiles, err := s.discover(ctx, methods, seg, auc.Variant{Permuted: true, Adjusted: true})
	if err != nil {
		return nil, classify(err)
	}
	var permuted auc.PermutedSet
	for _, file := range permutedFiles {
		table, err := s.readChecked(ctx, file, s.config.PermutedRows)
		if err != nil {
			return nil, classify(err)
		}
		for _, d := range table.Diagnoses {
			col, _ := table.Column(d)
			mean, err := stats.Mean(auc.DropNaN(col))
			if err != nil {
				// An all-missing column still counts as a permutation that never exceeds
				s.logger.Warn("%s: no AUCs for %s, recording NaN", file.Path, d)
				mean = math.NaN()
			}
			permuted.Add(auc.PermutedSample{Method: file.Method, Diagnosis: d, MeanAUC: mean, Source: file.Path})
		}
	}

	s.logger.Info("loaded %d unpermuted and %d permuted files for %d methods",
		len(unpermuted), len(permutedFiles), len(methods))
	return &TestAUC{
		Truth:    truth,
		Permuted: permuted,
		Pool:     pool,
		Files:    append(unpermuted, permutedFiles...),
	}, nil
}

// LoadUnadjustedAUC pools the unpermuted trials run without covariate adjustment.
// Row counts are not checked.
func (s *AUCService) LoadUnadjustedAUC(ctx context.Context, methods []auc.Method, seg auc.Segmentation) (*UnadjustedAUC, error) {
	files, err := s.discover(ctx, methods, seg, auc.Variant{Permuted: false, Adjusted: false})
	if err != nil {
		return nil, classify(err)
	}
	pool, err := s.pool(ctx, files, 0)
	if err != nil {
		return nil, classify(err)
	}
	truth, err := pool.Means()
	if err != nil {
		return nil, classify(err)
	}
	s.logger.Info("loaded %d unadjusted files for %d methods", len(files), len(methods))
	return &UnadjustedAUC{Truth: truth, Pool: pool, Files: files}, nil
}

// PermutationTest computes a p-value per method and diagnosis
func (s *AUCService) PermutationTest(ctx context.Context, permuted auc.PermutedSet, truth auc.TrueAUCs) (*verdict.PValueTable, error) {
	table, err := s.referee.Test(ctx, permuted, truth)
	if err != nil {
		return nil, classify(err)
	}
	return table, nil
}

// RenderOptions controls the violin plot
type RenderOptions struct {
	XMin            float64
	XMax            float64
	Width           float64
	Height          float64
	Format          string
	DiagnosisLabels []string
}

// RenderViolin tests the two methods and draws them with their p-values
func (s *AUCService) RenderViolin(ctx context.Context, w io.Writer, permuted auc.PermutedSet, truth auc.TrueAUCs, methods []auc.Method, opts RenderOptions) error {
	if len(methods) != 2 {
		return apperrors.InvalidInput(fmt.Sprintf("the violin plot compares exactly two methods, got %d", len(methods)))
	}
	permuted = permuted.Filter(methods)

	table, err := s.PermutationTest(ctx, permuted, truth)
	if err != nil {
		return err
	}
	return s.renderer.RenderViolin(ctx, w, ports.ViolinRequest{
		Permuted:        permuted,
		Truth:           truth,
		PValues:         table,
		Methods:         methods,
		XMin:            opts.XMin,
		XMax:            opts.XMax,
		Width:           opts.Width,
		Height:          opts.Height,
		Format:          opts.Format,
		DiagnosisLabels: opts.DiagnosisLabels,
	})
}

// ReportRequest selects what BuildReport loads
type ReportRequest struct {
	Methods      []auc.Method
	Segmentation auc.Segmentation
}

// BuildReport runs the whole pipeline: load, test and, when present, the unadjusted means
func (s *AUCService) BuildReport(ctx context.Context, req ReportRequest) (*ports.Report, error) {
	startTime := time.Now()
	if len(req.Methods) == 0 {
		return nil, apperrors.InvalidInput("at least one method is required")
	}
	seg := req.Segmentation
	if seg == "" {
		seg = auc.DefaultSegmentation
	}

	loaded, err := s.LoadTestAUC(ctx, req.Methods, seg)
	if err != nil {
		return nil, err
	}
	table, err := s.PermutationTest(ctx, loaded.Permuted, loaded.Truth)
	if err != nil {
		return nil, err
	}

	files := loaded.Files
	var unadjustedTruth auc.TrueAUCs
	unadjusted, err := s.LoadUnadjustedAUC(ctx, req.Methods, seg)
	switch {
	case err == nil:
		unadjustedTruth = unadjusted.Truth
		files = append(files, unadjusted.Files...)
	case errors.Is(err, core.ErrNotFound):
		s.logger.Debug("no unadjusted runs: %v", err)
	default:
		return nil, err
	}

	paths := make([]string, len(files))
	for i, f := range files {
		paths[i] = f.Path
	}

	report := &ports.Report{
		RunID:        core.NewRunID(),
		GeneratedAt:  core.Now(),
		ResultsDir:   s.config.ResultsDir,
		Segmentation: seg,
		Methods:      req.Methods,
		InputHash:    core.ComputeInputHash(paths),
		Files:        files,
		PValues:      table,
		TrueAUCs:     loaded.Truth,
		Unadjusted:   unadjustedTruth,
	}
	s.logger.Info("report %s: %d p-values, %d significant, %d files in %v",
		report.RunID, len(table.Entries), table.SignificantCount(), len(files), time.Since(startTime))
	return report, nil
}

// discover lists a variant's files; finding none is a not-found error
func (s *AUCService) discover(ctx context.Context, methods []auc.Method, seg auc.Segmentation, variant auc.Variant) ([]auc.ResultFile, error) {
	files, err := s.reader.Discover(ctx, methods, seg, variant)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%w: no %s runs under %s", core.ErrResultFileMissing, variant, s.config.ResultsDir)
	}
	return files, nil
}

// pool reads every file and concatenates its trial rows per method and diagnosis
func (s *AUCService) pool(ctx context.Context, files []auc.ResultFile, expectedRows int) (*auc.AUCPool, error) {
	methods := make([]auc.Method, 0)
	seen := make(map[auc.Method]bool)
	for _, f := range files {
		if !seen[f.Method] {
			seen[f.Method] = true
			methods = append(methods, f.Method)
		}
	}

	pool := auc.NewAUCPool(methods)
	for _, file := range files {
		table, err := s.readChecked(ctx, file, expectedRows)
		if err != nil {
			return nil, err
		}
		for _, d := range table.Diagnoses {
			col, _ := table.Column(d)
			pool.Add(file.Method, d, col...)
		}
	}
	return pool, nil
}

func (s *AUCService) readChecked(ctx context.Context, file auc.ResultFile, expectedRows int) (*auc.Table, error) {
	table, err := s.reader.ReadTable(ctx, file.Path)
	if err != nil {
		return nil, err
	}
	if expectedRows > 0 && table.RowCount() != expectedRows {
		return nil, core.NewRowCountError(file.Path, table.RowCount(), expectedRows)
	}
	s.logger.Trace("%s: %d rows x %d diagnoses", file.Path, table.RowCount(), len(table.Diagnoses))
	return table, nil
}

// classify attaches an application error code to domain errors so callers can map them
func classify(err error) error {
	if err == nil || apperrors.IsAppError(err) {
		return err
	}
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	case errors.Is(err, core.ErrNotFound):
		return apperrors.WithCode(apperrors.CodeNotFound, err)
	case errors.Is(err, core.ErrRowCountMismatch),
		errors.Is(err, core.ErrMalformedTable),
		errors.Is(err, core.ErrMissingTrueAUC),
		errors.Is(err, core.ErrInsufficientData),
		errors.Is(err, core.ErrInvalidInput):
		return apperrors.WithCode(apperrors.CodeValidationError, err)
	default:
		return apperrors.WithCode(apperrors.CodeIOError, err)
	}
}
