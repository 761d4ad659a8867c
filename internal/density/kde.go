// Package density fits a non-parametric probability density over the pooled
// population of significant coupling magnitudes and supports point
// evaluation of the fitted density.
package density

import (
	"math"
	"sort"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"

	"pacbayes/domain/core"
)

// Model is a Gaussian kernel density estimate. It is fit once per analysis
// run from the complete significance-filtered population and read-only
// thereafter.
type Model struct {
	points    []float64
	bandwidth float64
}

// Summary describes the pooled population the model was fit on.
type Summary struct {
	Count      int     `json:"count"`
	Mean       float64 `json:"mean"`
	StdDev     float64 `json:"std_dev"`
	Min        float64 `json:"min"`
	Max        float64 `json:"max"`
	Median     float64 `json:"median"`
	Bandwidth  float64 `json:"bandwidth"`
	Degenerate bool    `json:"degenerate"`
}

// Fit builds the KDE over the given magnitudes using Scott's bandwidth rule,
// h = sigma * n^(-1/5). An empty population cannot support a density and is
// a fatal data error.
func Fit(magnitudes []float64) (*Model, error) {
	if len(magnitudes) == 0 {
		return nil, core.NewInsufficientDataError("density estimation",
			"no significant observations to fit over")
	}

	points := make([]float64, len(magnitudes))
	copy(points, magnitudes)

	sigma, err := stats.StandardDeviation(points)
	if err != nil {
		return nil, err
	}

	h := sigma * math.Pow(float64(len(points)), -1.0/5.0)
	if h == 0 {
		// Every pooled magnitude is identical; keep evaluation finite.
		h = 1
	}

	return &Model{points: points, bandwidth: h}, nil
}

// Bandwidth returns the bandwidth selected at fit time.
func (m *Model) Bandwidth() float64 {
	return m.bandwidth
}

// Count returns the population size the model was fit on.
func (m *Model) Count() int {
	return len(m.points)
}

// Evaluate returns the estimated density at x: the mean Gaussian kernel
// contribution of every population point. The result is a non-negative
// continuous density, not a probability.
func (m *Model) Evaluate(x float64) float64 {
	kernel := distuv.Normal{Mu: 0, Sigma: 1}
	sum := 0.0
	for _, p := range m.points {
		sum += kernel.Prob((x - p) / m.bandwidth)
	}
	return sum / (float64(len(m.points)) * m.bandwidth)
}

// Summarize computes descriptive statistics of the fitted population for
// diagnostics and reporting.
func (m *Model) Summarize() Summary {
	mean, _ := stats.Mean(m.points)
	sd, _ := stats.StandardDeviation(m.points)
	min, _ := stats.Min(m.points)
	max, _ := stats.Max(m.points)
	median, _ := stats.Median(m.points)

	return Summary{
		Count:      len(m.points),
		Mean:       mean,
		StdDev:     sd,
		Min:        min,
		Max:        max,
		Median:     median,
		Bandwidth:  m.bandwidth,
		Degenerate: sd == 0,
	}
}

// Histogram bins the fitted population into numBins equal-width bins for
// diagnostic visualization. It has no effect on inference.
func (m *Model) Histogram(numBins int) (dividers, counts []float64) {
	if numBins < 1 {
		numBins = 1
	}

	sorted := make([]float64, len(m.points))
	copy(sorted, m.points)
	sort.Float64s(sorted)

	lo, hi := sorted[0], sorted[len(sorted)-1]
	if lo == hi {
		// Widen a degenerate range so the dividers stay strictly increasing.
		hi = lo + 1
	}

	dividers = make([]float64, numBins+1)
	width := (hi - lo) / float64(numBins)
	for i := range dividers {
		dividers[i] = lo + float64(i)*width
	}
	// The top divider must sit strictly above the maximum sample.
	dividers[numBins] = math.Nextafter(hi, math.MaxFloat64)

	counts = stat.Histogram(nil, dividers, sorted, nil)
	return dividers, counts
}
