package render

import (
	"context"
	"fmt"
	"io"
	"math"
	"strings"

	"aucperm/domain/auc"
	"aucperm/domain/core"
	"aucperm/internal"
	apperrors "aucperm/internal/errors"
	"aucperm/internal/profiling"
	"aucperm/ports"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

// SupportedFormats lists the output formats RenderViolin accepts
var SupportedFormats = []string{"png", "svg", "pdf", "eps", "jpg", "jpeg", "tif", "tiff"}

// ViolinRenderer draws permuted-label AUC distributions as split violins with
// the true AUC of each method marked and its p-value annotated.
type ViolinRenderer struct {
	analyzer    *profiling.DistributionAnalyzer
	shortLabels map[auc.Method]string
	logger      *internal.Logger
}

// NewViolinRenderer creates a renderer with the default method abbreviations
func NewViolinRenderer(logger *internal.Logger) *ViolinRenderer {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	labels := make(map[auc.Method]string, len(DefaultShortLabels))
	for k, v := range DefaultShortLabels {
		labels[k] = v
	}
	return &ViolinRenderer{
		analyzer:    profiling.NewDistributionAnalyzer(),
		shortLabels: labels,
		logger:      logger.WithComponent("ViolinRenderer"),
	}
}

// SetShortLabel overrides the legend abbreviation of a method
func (r *ViolinRenderer) SetShortLabel(m auc.Method, label string) {
	r.shortLabels[m] = label
}

// ShortLabel returns a method's legend abbreviation, or its name when none is known
func (r *ViolinRenderer) ShortLabel(m auc.Method) string {
	if label, ok := r.shortLabels[m]; ok {
		return label
	}
	return string(m)
}

// ValidateViolinRequest checks what RenderViolin needs before any drawing happens
func ValidateViolinRequest(req ports.ViolinRequest) error {
	if len(req.Methods) != 2 {
		return apperrors.WithCode(apperrors.CodeInvalidInput,
			core.NewValidationError("methods", fmt.Sprintf("exactly two methods must be plotted, got %d", len(req.Methods))))
	}
	if req.Methods[0] == req.Methods[1] {
		return apperrors.WithCode(apperrors.CodeInvalidInput,
			core.NewValidationError("methods", "the two plotted methods must differ"))
	}
	if req.XMin >= req.XMax {
		return apperrors.WithCode(apperrors.CodeInvalidInput,
			core.NewValidationError("xlims", fmt.Sprintf("min %v must be below max %v", req.XMin, req.XMax)))
	}
	if req.Width <= 0 || req.Height <= 0 {
		return apperrors.WithCode(apperrors.CodeInvalidInput,
			core.NewValidationError("size", "width and height must be positive"))
	}
	if !isSupportedFormat(req.Format) {
		return apperrors.WithCode(apperrors.CodeInvalidInput,
			core.NewValidationError("format", fmt.Sprintf("unsupported format %q", req.Format)))
	}
	if req.PValues == nil {
		return apperrors.WithCode(apperrors.CodeInvalidInput,
			core.NewValidationError("p_values", "p-values are required for annotation"))
	}
	return nil
}

func isSupportedFormat(format string) bool {
	format = strings.ToLower(format)
	for _, f := range SupportedFormats {
		if f == format {
			return true
		}
	}
	return false
}

// RenderViolin implements ports.PlotRendererPort
func (r *ViolinRenderer) RenderViolin(ctx context.Context, w io.Writer, req ports.ViolinRequest) error {
	if err := ValidateViolinRequest(req); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	permuted := req.Permuted.Filter(req.Methods)
	diagnoses := permuted.Diagnoses()
	if len(diagnoses) == 0 {
		return apperrors.WithCode(apperrors.CodeInvalidInput,
			fmt.Errorf("%w: no permuted AUCs for %s or %s", core.ErrInsufficientData, req.Methods[0], req.Methods[1]))
	}

	p, err := r.buildPlot(permuted, diagnoses, req)
	if err != nil {
		return apperrors.RenderError(req.Format, err)
	}

	writer, err := p.WriterTo(vg.Length(req.Width)*vg.Inch, vg.Length(req.Height)*vg.Inch, strings.ToLower(req.Format))
	if err != nil {
		return apperrors.RenderError(req.Format, err)
	}
	if _, err := writer.WriteTo(w); err != nil {
		return apperrors.RenderError(req.Format, err)
	}

	r.logger.Info("rendered %s violin plot: %d diagnoses, methods %s vs %s",
		req.Format, len(diagnoses), req.Methods[0], req.Methods[1])
	return nil
}

// position returns the y coordinate of the i-th diagnosis; the first is drawn on top
func position(i, n int) float64 {
	return float64(n - 1 - i)
}

// side is +1 for the first method (upper half) and -1 for the second
func side(j int) float64 {
	if j == 0 {
		return 1
	}
	return -1
}

func (r *ViolinRenderer) buildPlot(permuted auc.PermutedSet, diagnoses []auc.Diagnosis, req ports.ViolinRequest) (*plot.Plot, error) {
	n := len(diagnoses)
	span := req.XMax - req.XMin

	p := plot.New()
	p.X.Min = req.XMin
	p.X.Max = req.XMax + annotationShare*span
	p.Y.Min = -0.6
	// Headroom above the first diagnosis holds the legend
	p.Y.Max = float64(n-1) + 1.3
	p.X.Label.Text = "mean AUC"
	p.X.Label.TextStyle.Font.Size = vg.Points(20)
	p.X.Tick.Label.Font.Size = vg.Points(14)
	p.Y.Tick.Label.Font.Size = vg.Points(14)
	p.X.LineStyle.Color = axisColor
	p.Y.LineStyle.Color = axisColor
	p.X.Tick.Marker = aucTicks(req.XMin, req.XMax)
	p.Y.Tick.Marker = diagnosisTicks(diagnoses, req.DiagnosisLabels)
	p.Y.Tick.Length = 0

	grid := plotter.NewGrid()
	grid.Horizontal.Color = nil
	grid.Vertical.Color = axisColor
	grid.Vertical.Width = vg.Points(0.5)
	p.Add(grid)

	curves, globalPeak, err := r.densities(permuted, diagnoses, req.Methods)
	if err != nil {
		return nil, err
	}
	scale := maxHalfWidth / globalPeak

	for j, method := range req.Methods {
		var legendThumb plot.Thumbnailer
		for i, diagnosis := range diagnoses {
			curve, ok := curves[method][diagnosis]
			if !ok {
				continue
			}
			poly, err := halfViolin(curve, position(i, n), side(j)*scale, req.XMin, req.XMax)
			if err != nil {
				return nil, err
			}
			if poly == nil {
				continue
			}
			poly.Color = violinFill[j]
			poly.LineStyle.Color = black
			poly.LineStyle.Width = vg.Points(0.5)
			p.Add(poly)
			if legendThumb == nil {
				legendThumb = poly
			}

			inner, err := r.innerBox(permuted.Values(method, diagnosis), position(i, n)+side(j)*0.03)
			if err != nil {
				return nil, err
			}
			p.Add(inner...)
		}
		if legendThumb != nil {
			p.Legend.Add(fmt.Sprintf("Permuted (%s)", r.ShortLabel(method)), legendThumb)
		}
	}

	chance, err := plotter.NewLine(plotter.XYs{{X: chanceAUC, Y: p.Y.Min}, {X: chanceAUC, Y: float64(n-1) + 0.6}})
	if err != nil {
		return nil, err
	}
	chance.LineStyle.Color = black
	chance.LineStyle.Width = vg.Points(1)
	chance.LineStyle.Dashes = []vg.Length{vg.Points(4), vg.Points(3)}
	if chanceAUC > req.XMin && chanceAUC < req.XMax {
		p.Add(chance)
	}

	annotations := plotter.XYLabels{}
	for j, method := range req.Methods {
		markers := r.trueAUCMarkers(req, diagnoses, j)
		for i, diagnosis := range diagnoses {
			y := position(i, n) + side(j)*markerOffset
			if pv, ok := req.PValues.Lookup(method, diagnosis); ok {
				annotations.XYs = append(annotations.XYs, plotter.XY{X: req.XMax + 0.06*span, Y: y})
				annotations.Labels = append(annotations.Labels, fmt.Sprintf("p = %.3f", pv.P))
			}
		}
		if len(markers) == 0 {
			continue
		}
		scatter, err := plotter.NewScatter(markers)
		if err != nil {
			return nil, err
		}
		scatter.GlyphStyle.Shape = DiamondGlyph{Face: markerFace[j]}
		scatter.GlyphStyle.Radius = vg.Points(markerRadius)
		scatter.GlyphStyle.Color = black
		p.Add(scatter)
		p.Legend.Add(fmt.Sprintf("Original (%s)", r.ShortLabel(method)), scatter)
	}

	if len(annotations.Labels) > 0 {
		labels, err := plotter.NewLabels(annotations)
		if err != nil {
			return nil, err
		}
		for i := range labels.TextStyle {
			labels.TextStyle[i].Font.Size = vg.Points(14)
			labels.TextStyle[i].YAlign = draw.YCenter
		}
		p.Add(labels)
	}

	p.Legend.Top = true
	p.Legend.TextStyle.Font.Size = vg.Points(14)
	return p, nil
}

// densities estimates one curve per method and diagnosis and the tallest peak among them
func (r *ViolinRenderer) densities(permuted auc.PermutedSet, diagnoses []auc.Diagnosis, methods []auc.Method) (map[auc.Method]map[auc.Diagnosis]profiling.DensityCurve, float64, error) {
	curves := make(map[auc.Method]map[auc.Diagnosis]profiling.DensityCurve, len(methods))
	peak := 0.0
	for _, method := range methods {
		curves[method] = make(map[auc.Diagnosis]profiling.DensityCurve, len(diagnoses))
		for _, diagnosis := range diagnoses {
			values := auc.DropNaN(permuted.Values(method, diagnosis))
			if len(values) == 0 {
				r.logger.Warn("no permuted AUCs for %s/%s, leaving its violin half empty", method, diagnosis)
				continue
			}
			curve, err := r.analyzer.KDE(values, r.analyzer.Support(values, r.analyzer.Cut))
			if err != nil {
				return nil, 0, err
			}
			curves[method][diagnosis] = curve
			peak = math.Max(peak, curve.MaxDensity())
		}
	}
	if peak == 0 {
		return nil, 0, fmt.Errorf("%w: every density is empty", core.ErrInsufficientData)
	}
	return curves, peak, nil
}

// halfViolin outlines a density curve on one side of the centre line y.
// signedScale maps density onto category units; its sign picks the side.
// Grid points outside [xmin, xmax] are dropped.
func halfViolin(curve profiling.DensityCurve, y, signedScale, xmin, xmax float64) (*plotter.Polygon, error) {
	outline := plotter.XYs{}
	for i, x := range curve.Grid {
		if x < xmin || x > xmax {
			continue
		}
		outline = append(outline, plotter.XY{X: x, Y: y + signedScale*curve.Density[i]})
	}
	if len(outline) < 2 {
		return nil, nil
	}
	// close along the centre line
	outline = append(outline,
		plotter.XY{X: outline[len(outline)-1].X, Y: y},
		plotter.XY{X: outline[0].X, Y: y},
	)
	return plotter.NewPolygon(outline)
}

// innerBox draws the whisker span and the interquartile range of a sample at height y
func (r *ViolinRenderer) innerBox(values []float64, y float64) ([]plot.Plotter, error) {
	summary, err := r.analyzer.Summarize(auc.DropNaN(values))
	if err != nil {
		return nil, err
	}
	whisker, err := plotter.NewLine(plotter.XYs{{X: summary.LowerWhisker, Y: y}, {X: summary.UpperWhisker, Y: y}})
	if err != nil {
		return nil, err
	}
	whisker.LineStyle.Color = black
	whisker.LineStyle.Width = vg.Points(1)

	box, err := plotter.NewLine(plotter.XYs{{X: summary.Q25, Y: y}, {X: summary.Q75, Y: y}})
	if err != nil {
		return nil, err
	}
	box.LineStyle.Color = black
	box.LineStyle.Width = vg.Points(4)

	median, err := plotter.NewScatter(plotter.XYs{{X: summary.Median, Y: y}})
	if err != nil {
		return nil, err
	}
	median.GlyphStyle.Shape = draw.CircleGlyph{}
	median.GlyphStyle.Radius = vg.Points(1.5)
	median.GlyphStyle.Color = white

	return []plot.Plotter{whisker, box, median}, nil
}

// aucTicks labels the AUC axis every tickStep between min and max only,
// leaving the annotation margin unlabelled.
func aucTicks(min, max float64) plot.ConstantTicks {
	var ticks []plot.Tick
	start := math.Ceil(min/tickStep-1e-9) * tickStep
	for v := start; v <= max+1e-9; v += tickStep {
		ticks = append(ticks, plot.Tick{Value: v, Label: fmt.Sprintf("%.3f", v)})
	}
	return plot.ConstantTicks(ticks)
}

// diagnosisTicks labels each category; positional display labels are used when
// their count matches the number of diagnoses.
func diagnosisTicks(diagnoses []auc.Diagnosis, labels []string) plot.ConstantTicks {
	if labels == nil && len(diagnoses) == len(DefaultDiagnosisLabels) {
		labels = DefaultDiagnosisLabels
	}
	useLabels := len(labels) == len(diagnoses)
	ticks := make([]plot.Tick, len(diagnoses))
	for i, d := range diagnoses {
		label := string(d)
		if useLabels {
			label = labels[i]
		}
		ticks[i] = plot.Tick{Value: position(i, len(diagnoses)), Label: label}
	}
	return plot.ConstantTicks(ticks)
}

// trueAUCMarkers places the true AUC of method j per diagnosis. Values outside
// [XMin, XMax] are left off the axes; their p-value is still annotated.
func (r *ViolinRenderer) trueAUCMarkers(req ports.ViolinRequest, diagnoses []auc.Diagnosis, j int) plotter.XYs {
	method := req.Methods[j]
	markers := plotter.XYs{}
	for i, diagnosis := range diagnoses {
		trueAUC, ok := req.Truth.Get(method, diagnosis)
		if !ok {
			continue
		}
		if trueAUC < req.XMin || trueAUC > req.XMax {
			r.logger.Warn("true AUC %.3f of %s/%s is outside [%.3f, %.3f], marker not drawn",
				trueAUC, method, diagnosis, req.XMin, req.XMax)
			continue
		}
		markers = append(markers, plotter.XY{X: trueAUC, Y: position(i, len(diagnoses)) + side(j)*markerOffset})
	}
	return markers
}
