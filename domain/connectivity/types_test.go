package connectivity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pacbayes/domain/core"
)

func TestSignificanceGrid_DisjointCells(t *testing.T) {
	grid := NewSignificanceGrid(3, 2)

	grid.Record(SignificanceDecision{Source: 0, Destination: 1, Fragment: 0, Significant: true, Strength: -2.5})
	grid.Record(SignificanceDecision{Source: 2, Destination: 1, Fragment: 1, Significant: true, Strength: 3.0})
	grid.Record(SignificanceDecision{Source: 1, Destination: 0, Fragment: 0, Significant: false, Strength: 0})

	assert.Equal(t, 2, grid.CountSignificant())
	assert.Equal(t, []int{0, 2, 0}, grid.DestinationCounts())

	pooled := grid.PooledMagnitudes()
	assert.ElementsMatch(t, []float64{2.5, 3.0}, pooled)
}

func TestSignificanceGrid_ZeroStrengthSignificantIsCounted(t *testing.T) {
	// The explicit flag separates "measured as zero" from "filtered out".
	grid := NewSignificanceGrid(2, 1)
	grid.Record(SignificanceDecision{Source: 0, Destination: 1, Fragment: 0, Significant: true, Strength: 0})

	assert.Equal(t, 1, grid.CountSignificant())
	assert.Equal(t, []float64{0}, grid.PooledMagnitudes())
}

func TestSettings_Validate(t *testing.T) {
	valid := Settings{NumFragments: 4, NumSurrogates: 100, Alpha: 0.05, NumBins: 20, PosteriorThreshold: 0.1}
	require.NoError(t, valid.Validate())

	cases := []struct {
		name   string
		mutate func(*Settings)
		target error
	}{
		{"zero fragments", func(s *Settings) { s.NumFragments = 0 }, core.ErrConfiguration},
		{"one surrogate", func(s *Settings) { s.NumSurrogates = 1 }, core.ErrSurrogateCount},
		{"alpha zero", func(s *Settings) { s.Alpha = 0 }, core.ErrSignificanceLevel},
		{"alpha one", func(s *Settings) { s.Alpha = 1 }, core.ErrSignificanceLevel},
		{"negative threshold", func(s *Settings) { s.PosteriorThreshold = -0.01 }, core.ErrPosteriorThreshold},
		{"threshold above one", func(s *Settings) { s.PosteriorThreshold = 1.01 }, core.ErrPosteriorThreshold},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := valid
			tc.mutate(&s)
			err := s.Validate()
			require.Error(t, err)
			assert.ErrorIs(t, err, tc.target)
		})
	}
}

func TestPriorTable_Sum(t *testing.T) {
	assert.InDelta(t, 1.0, PriorTable{0.25, 0.5, 0.25}.Sum(), 1e-12)
	assert.Equal(t, 0.0, PriorTable{0, 0}.Sum())
}
