package ports

import (
	"context"

	"aucperm/domain/auc"
)

// ResultsReaderPort discovers and reads experiment result tables
type ResultsReaderPort interface {
	// Discover lists the per-method result files of one variant
	Discover(ctx context.Context, methods []auc.Method, seg auc.Segmentation, variant auc.Variant) ([]auc.ResultFile, error)

	// ReadTable parses one results table
	ReadTable(ctx context.Context, path string) (*auc.Table, error)
}
