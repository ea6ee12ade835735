package ports

import (
	"context"
	"io"

	"aucperm/domain/auc"
	"aucperm/domain/core"
	"aucperm/domain/verdict"
)

// Report is the full output of one pipeline run
type Report struct {
	RunID        core.RunID           `json:"run_id"`
	GeneratedAt  core.Timestamp       `json:"generated_at"`
	ResultsDir   string               `json:"results_dir"`
	Segmentation auc.Segmentation     `json:"segmentation"`
	Methods      []auc.Method         `json:"methods"`
	InputHash    core.Hash            `json:"input_hash"`
	Files        []auc.ResultFile     `json:"files"`
	PValues      *verdict.PValueTable `json:"p_values"`
	TrueAUCs     auc.TrueAUCs         `json:"true_aucs"`
	// Unadjusted holds mean AUCs of the unadjusted unpermuted runs when any exist
	Unadjusted auc.TrueAUCs `json:"unadjusted_aucs,omitempty"`
}

// ReportWriterPort serializes a report in one format
type ReportWriterPort interface {
	Format() string
	Write(ctx context.Context, w io.Writer, report *Report) error
}
