package profiling

import (
	"fmt"
	"math"

	"aucperm/domain/core"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/stat/distuv"
)

// minBandwidth keeps the kernel drawable when every sample is identical
const minBandwidth = 1e-3

// DistributionSummary holds the statistics drawn inside a violin
type DistributionSummary struct {
	N      int
	Mean   float64
	StdDev float64
	Min    float64
	Max    float64
	Median float64
	Q25    float64
	Q75    float64
	// Whiskers at the most extreme samples within 1.5 IQR of the quartiles
	LowerWhisker float64
	UpperWhisker float64
}

// DensityCurve is a kernel density estimate evaluated on a grid
type DensityCurve struct {
	Grid      []float64
	Density   []float64
	Bandwidth float64
}

// MaxDensity returns the curve's peak height
func (c DensityCurve) MaxDensity() float64 {
	peak := 0.0
	for _, d := range c.Density {
		if d > peak {
			peak = d
		}
	}
	return peak
}

// DistributionAnalyzer handles distribution shape analysis
type DistributionAnalyzer struct {
	// Bandwidths the density grid extends beyond the data range
	Cut float64
	// Number of grid points per curve
	GridSize int
}

// NewDistributionAnalyzer creates an analyzer with a cut of 2 bandwidths and 100 grid points
func NewDistributionAnalyzer() *DistributionAnalyzer {
	return &DistributionAnalyzer{Cut: 2, GridSize: 100}
}

// Summarize computes summary statistics and IQR whiskers
func (da *DistributionAnalyzer) Summarize(data []float64) (DistributionSummary, error) {
	var summary DistributionSummary
	if len(data) == 0 {
		return summary, fmt.Errorf("%w: empty sample", core.ErrInsufficientData)
	}

	summary.N = len(data)
	summary.Mean, _ = stats.Mean(data)
	summary.Min, _ = stats.Min(data)
	summary.Max, _ = stats.Max(data)
	summary.Median, _ = stats.Median(data)
	if len(data) > 1 {
		summary.StdDev, _ = stats.StandardDeviationSample(data)
	}

	summary.Q25, summary.Q75 = summary.Median, summary.Median
	if quartiles, err := stats.Quartile(data); err == nil && !math.IsNaN(quartiles.Q1) && !math.IsNaN(quartiles.Q3) {
		summary.Q25, summary.Q75 = quartiles.Q1, quartiles.Q3
	}

	iqr := summary.Q75 - summary.Q25
	lowerBound := summary.Q25 - 1.5*iqr
	upperBound := summary.Q75 + 1.5*iqr
	summary.LowerWhisker, summary.UpperWhisker = summary.Max, summary.Min
	for _, x := range data {
		if x >= lowerBound && x < summary.LowerWhisker {
			summary.LowerWhisker = x
		}
		if x <= upperBound && x > summary.UpperWhisker {
			summary.UpperWhisker = x
		}
	}

	return summary, nil
}

// ScottBandwidth returns the Gaussian kernel bandwidth sigma * n^(-1/5)
func ScottBandwidth(data []float64) float64 {
	if len(data) < 2 {
		return minBandwidth
	}
	sd, err := stats.StandardDeviationSample(data)
	if err != nil || sd == 0 || math.IsNaN(sd) {
		return minBandwidth
	}
	return sd * math.Pow(float64(len(data)), -0.2)
}

// Support returns GridSize evenly spaced points from min - cut*bw to max + cut*bw,
// where bw is the Scott bandwidth of data. It returns nil for an empty sample.
func (da *DistributionAnalyzer) Support(data []float64, cut float64) []float64 {
	if len(data) == 0 {
		return nil
	}
	gridSize := da.GridSize
	if gridSize < 2 {
		gridSize = 2
	}

	bw := ScottBandwidth(data)
	lo, _ := stats.Min(data)
	hi, _ := stats.Max(data)
	lo -= cut * bw
	hi += cut * bw

	grid := make([]float64, gridSize)
	step := (hi - lo) / float64(gridSize-1)
	for i := range grid {
		grid[i] = lo + float64(i)*step
	}
	return grid
}

// KDE evaluates the Gaussian kernel density of data at every grid point
func (da *DistributionAnalyzer) KDE(data, grid []float64) (DensityCurve, error) {
	if len(data) == 0 {
		return DensityCurve{}, fmt.Errorf("%w: empty sample", core.ErrInsufficientData)
	}
	if len(grid) == 0 {
		return DensityCurve{}, fmt.Errorf("%w: empty evaluation grid", core.ErrInvalidInput)
	}

	bw := ScottBandwidth(data)
	kernels := make([]distuv.Normal, len(data))
	for i, x := range data {
		kernels[i] = distuv.Normal{Mu: x, Sigma: bw}
	}

	curve := DensityCurve{
		Grid:      append([]float64(nil), grid...),
		Density:   make([]float64, len(grid)),
		Bandwidth: bw,
	}
	n := float64(len(data))
	for i, x := range curve.Grid {
		sum := 0.0
		for _, k := range kernels {
			sum += k.Prob(x)
		}
		curve.Density[i] = sum / n
	}
	return curve, nil
}
