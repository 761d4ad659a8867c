package pipeline

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pacbayes/domain/connectivity"
	"pacbayes/domain/core"
	"pacbayes/domain/signal"
	"pacbayes/internal/testkit"
)

func settings(fragments, surrogates int) connectivity.Settings {
	return connectivity.Settings{
		NumFragments:       fragments,
		NumSurrogates:      surrogates,
		Alpha:              0.05,
		NumBins:            10,
		PosteriorThreshold: 0.1,
	}
}

// alternating surrogates give an exact null mean and standard deviation.
func alternating(mean, spread float64) []float64 {
	return []float64{mean - spread, mean + spread}
}

func TestRun_AllZeroVarianceSurrogatesIsInsufficientData(t *testing.T) {
	// Every call returns std=0 surrogates, so every z-score collapses to
	// zero and nothing survives the filter.
	oracle := &testkit.StubOracle{
		Default: testkit.StubResponse{Strength: 5.0, Surrogates: []float64{1}},
	}

	p := New(oracle, settings(2, 50), 2)
	_, err := p.Run(context.Background(), testkit.MarkerBands(2, 100))
	require.Error(t, err)
	assert.True(t, core.IsInsufficientDataError(err))
}

func TestRun_SingleDirectedLink(t *testing.T) {
	// Only (0->1) carries a coupling far outside its null distribution.
	oracle := &testkit.StubOracle{
		Default: testkit.StubResponse{Strength: 1.0, Surrogates: alternating(1.0, 0.1)},
		Pairs: map[testkit.PairKey]testkit.StubResponse{
			{Source: 0, Destination: 1}: {Strength: 5.0, Surrogates: alternating(1.0, 0.1)},
		},
	}

	p := New(oracle, settings(4, 100), 4)
	outcome, err := p.Run(context.Background(), testkit.MarkerBands(3, 400))
	require.NoError(t, err)

	result := outcome.Result
	assert.Equal(t, 4, result.SignificantCount) // one per fragment

	assert.InDelta(t, 1.0, result.Prior[1], 1e-12)
	assert.InDelta(t, 0.0, result.Prior[0], 1e-12)
	assert.InDelta(t, 0.0, result.Prior[2], 1e-12)

	// Significant in every fragment, so the prevalence aggregate is 1.
	assert.InDelta(t, 1.0, result.Aggregate[1][0], 1e-12)
	for i := 0; i < 3; i++ {
		for x := 0; x < 3; x++ {
			if i == 1 && x == 0 {
				continue
			}
			assert.Equal(t, 0.0, result.Aggregate[i][x])
		}
	}
}

func TestRun_OutputMatricesAreFiniteProbabilities(t *testing.T) {
	oracle := &testkit.StubOracle{
		Default: testkit.StubResponse{Strength: 1.0, Surrogates: alternating(1.0, 0.1)},
		Pairs: map[testkit.PairKey]testkit.StubResponse{
			{Source: 0, Destination: 1}: {Strength: 4.0, Surrogates: alternating(1.0, 0.1)},
			{Source: 2, Destination: 1}: {Strength: 3.5, Surrogates: alternating(1.0, 0.1)},
			{Source: 1, Destination: 2}: {Strength: 5.5, Surrogates: alternating(1.0, 0.1)},
		},
	}

	p := New(oracle, settings(5, 60), 0)
	outcome, err := p.Run(context.Background(), testkit.MarkerBands(3, 500))
	require.NoError(t, err)

	check := func(matrix [][]float64) {
		for _, row := range matrix {
			for _, v := range row {
				assert.False(t, math.IsNaN(v))
				assert.False(t, math.IsInf(v, 0))
				assert.GreaterOrEqual(t, v, 0.0)
				assert.LessOrEqual(t, v, 1.0)
			}
		}
	}
	check(outcome.Result.Aggregate)
	check(outcome.Result.Support)
	for _, matrix := range outcome.Result.Posteriors {
		check(matrix)
	}
	assert.InDelta(t, 1.0, outcome.Result.Prior.Sum(), 1e-9)
}

func TestRun_Idempotent(t *testing.T) {
	makeOracle := func() *testkit.StubOracle {
		return &testkit.StubOracle{
			Default: testkit.StubResponse{Strength: 1.0, Surrogates: alternating(1.0, 0.1)},
			Pairs: map[testkit.PairKey]testkit.StubResponse{
				{Source: 0, Destination: 1}: {Strength: 5.0, Surrogates: alternating(1.0, 0.1)},
				{Source: 1, Destination: 0}: {Strength: 3.0, Surrogates: alternating(1.0, 0.1)},
			},
		}
	}

	bands := testkit.MarkerBands(2, 200)
	first, err := New(makeOracle(), settings(4, 80), 3).Run(context.Background(), bands)
	require.NoError(t, err)
	second, err := New(makeOracle(), settings(4, 80), 3).Run(context.Background(), bands)
	require.NoError(t, err)

	assert.Equal(t, first.Result, second.Result)
}

func TestRun_ShapeMismatchIsFatal(t *testing.T) {
	oracle := &testkit.StubOracle{
		Default: testkit.StubResponse{Strength: 1.0, Surrogates: alternating(1.0, 0.1)},
	}
	bands := testkit.MarkerBands(3, 100)
	bands.Amplitude = bands.Amplitude[:2]

	p := New(oracle, settings(2, 50), 2)
	_, err := p.Run(context.Background(), bands)
	require.Error(t, err)
	assert.True(t, core.IsShapeMismatchError(err))
}

func TestRun_UnevenFragmentsIsConfigurationError(t *testing.T) {
	oracle := &testkit.StubOracle{
		Default: testkit.StubResponse{Strength: 1.0, Surrogates: alternating(1.0, 0.1)},
	}

	p := New(oracle, settings(3, 50), 2)
	_, err := p.Run(context.Background(), testkit.MarkerBands(2, 100))
	require.Error(t, err)
	assert.True(t, core.IsConfigurationError(err))
}

func TestRun_SurrogateCountMismatchIsShapeError(t *testing.T) {
	oracle := shortSurrogateOracle{}

	p := New(oracle, settings(2, 50), 2)
	_, err := p.Run(context.Background(), testkit.MarkerBands(2, 100))
	require.Error(t, err)
	assert.True(t, core.IsShapeMismatchError(err))
}

type shortSurrogateOracle struct{}

func (shortSurrogateOracle) Evaluate(_ context.Context, _, _ []float64, _ int) (float64, []float64, error) {
	return 1.0, []float64{1, 2, 3}, nil
}

// Prevalence aggregation counts fragments, it does not average posteriors:
// a link significant in 3 of 4 fragments reports exactly 0.75.
func TestRun_AggregateIsPrevalenceNotMean(t *testing.T) {
	oracle := fragmentAwareOracle{significantFragments: 3}

	p := New(oracle, settings(4, 100), 1)
	outcome, err := p.Run(context.Background(), fragmentMarkerBands(3, 400, 4))
	require.NoError(t, err)

	assert.InDelta(t, 1.0, outcome.Result.Prior[1], 1e-12)
	assert.InDelta(t, 0.75, outcome.Result.Aggregate[1][0], 1e-12)
	assert.InDelta(t, 0.75, outcome.Result.Support[1][0], 1e-12)
}

func TestBuildManifest_AppliesThreshold(t *testing.T) {
	oracle := &testkit.StubOracle{
		Default: testkit.StubResponse{Strength: 1.0, Surrogates: alternating(1.0, 0.1)},
		Pairs: map[testkit.PairKey]testkit.StubResponse{
			{Source: 0, Destination: 1}: {Strength: 5.0, Surrogates: alternating(1.0, 0.1)},
		},
	}

	p := New(oracle, settings(4, 80), 2)
	outcome, err := p.Run(context.Background(), testkit.MarkerBands(2, 200))
	require.NoError(t, err)

	manifest, err := p.BuildManifest(outcome)
	require.NoError(t, err)

	assert.False(t, manifest.ID.String() == "")
	assert.Equal(t, outcome.Result.Aggregate[1][0], manifest.Thresholded[1][0])
	assert.Equal(t, p.settings, manifest.Settings)
}

// fragmentMarkerBands encodes the source channel in the phase band and both
// the destination channel and the fragment index in the amplitude band, so
// an oracle can script per-fragment behavior.
func fragmentMarkerBands(channels, samples, fragments int) *signal.BandPair {
	length := samples / fragments
	phase := make([][]float64, channels)
	amplitude := make([][]float64, channels)
	for ch := 0; ch < channels; ch++ {
		phase[ch] = make([]float64, samples)
		amplitude[ch] = make([]float64, samples)
		for t := 0; t < samples; t++ {
			phase[ch][t] = float64(ch)
			amplitude[ch][t] = float64(ch) + 1000*float64(t/length)
		}
	}
	return &signal.BandPair{Phase: phase, Amplitude: amplitude, SamplingRate: 1}
}

// fragmentAwareOracle reports a strong (0->1) coupling in the first
// significantFragments fragments only.
type fragmentAwareOracle struct {
	significantFragments int
}

func (o fragmentAwareOracle) Evaluate(_ context.Context, phase, amplitude []float64, numSurrogates int) (float64, []float64, error) {
	source := int(phase[0])
	destination := int(amplitude[0]) % 1000
	fragment := int(amplitude[0]) / 1000

	surrogates := make([]float64, numSurrogates)
	for i := range surrogates {
		if i%2 == 0 {
			surrogates[i] = 0.9
		} else {
			surrogates[i] = 1.1
		}
	}

	strength := 1.0
	if source == 0 && destination == 1 && fragment < o.significantFragments {
		strength = 5.0
	}
	return strength, surrogates, nil
}
