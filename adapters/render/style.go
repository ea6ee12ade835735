package render

import (
	"image/color"

	"aucperm/domain/auc"

	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

// Okabe-Ito colour-blind safe palette
var okabeIto = map[string]color.RGBA{
	"orange":         {R: 230, G: 159, B: 0, A: 255},
	"sky_blue":       {R: 86, G: 180, B: 233, A: 255},
	"bluish_green":   {R: 0, G: 158, B: 115, A: 255},
	"yellow":         {R: 240, G: 228, B: 66, A: 255},
	"blue":           {R: 0, G: 114, B: 178, A: 255},
	"vermillion":     {R: 213, G: 94, B: 0, A: 255},
	"reddish_purple": {R: 204, G: 121, B: 167, A: 255},
	"black":          {R: 0, G: 0, B: 0, A: 255},
}

var (
	darkGrey  = color.RGBA{R: 169, G: 169, B: 169, A: 255}
	lightGrey = color.RGBA{R: 211, G: 211, B: 211, A: 255}
	white     = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	black     = color.RGBA{A: 255}
	axisColor = darkGrey
)

// violinFill is indexed by method position: upper half, lower half
var violinFill = [2]color.Color{darkGrey, lightGrey}

// markerFace is the face colour of the true-AUC diamond per method position
var markerFace = [2]color.Color{okabeIto["vermillion"], white}

// DefaultShortLabels abbreviates the classifier names used in the experiments
var DefaultShortLabels = map[auc.Method]string{
	"logistic_regression_ovr": "LRC",
	"logistic_regression_cce": "LR CCE",
	"xgboost_cce":             "GBM CCE",
}

// DefaultDiagnosisLabels are the display names of the eight diagnoses, in column order
var DefaultDiagnosisLabels = []string{
	"Major depressive disorder",
	"Bipolar disorder",
	"Psychotic symptoms",
	"ADHD",
	"Oppositional defiant disorder",
	"Conduct disorder",
	"PTSD",
	"Obsessive-compulsive disorder",
}

const (
	// Vertical distance of each method's true-AUC marker from the violin centre
	markerOffset = 0.18
	// Largest half-width of a violin in category units
	maxHalfWidth = 0.4
	markerRadius = 7
	chanceAUC    = 0.5
	tickStep     = 0.025
	// Share of the x range reserved right of the axis for p-value annotations
	annotationShare = 0.4
)

// DiamondGlyph is a filled diamond with an outline in the glyph style colour
type DiamondGlyph struct {
	Face color.Color
}

// DrawGlyph implements draw.GlyphDrawer
func (g DiamondGlyph) DrawGlyph(c *draw.Canvas, sty draw.GlyphStyle, pt vg.Point) {
	r := sty.Radius
	pts := []vg.Point{
		{X: pt.X, Y: pt.Y + r},
		{X: pt.X + r*0.75, Y: pt.Y},
		{X: pt.X, Y: pt.Y - r},
		{X: pt.X - r*0.75, Y: pt.Y},
	}
	if g.Face != nil {
		c.FillPolygon(g.Face, pts)
	}
	outline := append(pts, pts[0])
	c.StrokeLines(draw.LineStyle{Color: sty.Color, Width: vg.Points(1)}, outline)
}
