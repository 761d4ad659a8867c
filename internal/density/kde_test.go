package density

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pacbayes/domain/core"
)

func TestFit_EmptyPopulation(t *testing.T) {
	_, err := Fit(nil)
	require.Error(t, err)
	assert.True(t, core.IsInsufficientDataError(err))

	_, err = Fit([]float64{})
	require.Error(t, err)
	assert.True(t, core.IsInsufficientDataError(err))
}

func TestFit_ScottBandwidth(t *testing.T) {
	population := []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8}
	m, err := Fit(population)
	require.NoError(t, err)

	assert.Greater(t, m.Bandwidth(), 0.0)
	assert.Equal(t, len(population), m.Count())
}

func TestEvaluate_DensityPeaksNearMass(t *testing.T) {
	population := []float64{1.0, 1.1, 0.9, 1.05, 0.95, 1.02, 0.98, 1.0}
	m, err := Fit(population)
	require.NoError(t, err)

	near := m.Evaluate(1.0)
	far := m.Evaluate(10.0)

	assert.Greater(t, near, 0.0)
	assert.Greater(t, near, far)
	assert.False(t, math.IsNaN(far))
	assert.GreaterOrEqual(t, far, 0.0)
}

func TestEvaluate_DegeneratePopulationStaysFinite(t *testing.T) {
	m, err := Fit([]float64{5, 5, 5, 5})
	require.NoError(t, err)

	v := m.Evaluate(5)
	assert.False(t, math.IsNaN(v))
	assert.False(t, math.IsInf(v, 0))
	assert.Greater(t, v, 0.0)
	assert.True(t, m.Summarize().Degenerate)
}

func TestEvaluate_IntegratesToRoughlyOne(t *testing.T) {
	population := []float64{0.5, 0.8, 1.1, 1.3, 0.9, 0.7, 1.0, 1.2, 0.6, 1.4}
	m, err := Fit(population)
	require.NoError(t, err)

	// Trapezoidal integration over a range well past the population support.
	const (
		lo, hi = -5.0, 7.0
		steps  = 4000
	)
	dx := (hi - lo) / steps
	total := 0.0
	for i := 0; i <= steps; i++ {
		w := 1.0
		if i == 0 || i == steps {
			w = 0.5
		}
		total += w * m.Evaluate(lo+float64(i)*dx) * dx
	}
	assert.InDelta(t, 1.0, total, 0.01)
}

func TestSummarize(t *testing.T) {
	m, err := Fit([]float64{1, 2, 3, 4, 5})
	require.NoError(t, err)

	s := m.Summarize()
	assert.Equal(t, 5, s.Count)
	assert.InDelta(t, 3.0, s.Mean, 1e-9)
	assert.InDelta(t, 3.0, s.Median, 1e-9)
	assert.Equal(t, 1.0, s.Min)
	assert.Equal(t, 5.0, s.Max)
	assert.False(t, s.Degenerate)
}

func TestHistogram_CountsSumToPopulation(t *testing.T) {
	population := []float64{0.1, 0.4, 0.4, 0.7, 0.9, 1.3, 2.2, 2.2, 2.3, 3.0}
	m, err := Fit(population)
	require.NoError(t, err)

	dividers, counts := m.Histogram(5)
	require.Len(t, dividers, 6)
	require.Len(t, counts, 5)

	total := 0.0
	for _, c := range counts {
		total += c
	}
	assert.Equal(t, float64(len(population)), total)
}

func TestHistogram_DegenerateRange(t *testing.T) {
	m, err := Fit([]float64{2, 2, 2})
	require.NoError(t, err)

	dividers, counts := m.Histogram(4)
	require.Len(t, dividers, 5)

	total := 0.0
	for _, c := range counts {
		total += c
	}
	assert.Equal(t, 3.0, total)
}
