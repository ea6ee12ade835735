package ports

import (
	"context"
	"io"

	"aucperm/domain/auc"
	"aucperm/domain/verdict"
)

// ViolinRequest carries already-aggregated data for the comparison plot
type ViolinRequest struct {
	Permuted auc.PermutedSet
	Truth    auc.TrueAUCs
	PValues  *verdict.PValueTable
	// Exactly two methods; the first is drawn on the upper half of each violin
	Methods []auc.Method
	XMin    float64
	XMax    float64
	// Inches
	Width  float64
	Height float64
	// png, svg, pdf, eps, jpg or tif
	Format string
	// Positional display names for diagnoses; ignored when the count differs
	DiagnosisLabels []string
}

// PlotRendererPort renders comparison plots
type PlotRendererPort interface {
	RenderViolin(ctx context.Context, w io.Writer, req ViolinRequest) error
}
