// Package significance converts raw coupling observations into significance
// decisions by normalizing each observed strength against its surrogate null
// distribution and applying a Bonferroni-corrected z-threshold.
package significance

import (
	"fmt"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/stat/distuv"

	"pacbayes/domain/connectivity"
	"pacbayes/domain/core"
)

// Filter holds the per-run z-threshold derived once from the nominal
// significance level and the fragment count.
type Filter struct {
	threshold float64
}

// NewFilter derives the corrected threshold: alpha is divided by the number
// of fragments (one test family per fragment) and the threshold is the
// standard-normal quantile at 1 - alpha_corrected, applied two-tailed.
func NewFilter(alpha float64, numFragments int) (*Filter, error) {
	if alpha <= 0 || alpha >= 1 {
		return nil, fmt.Errorf("%w: got %g", core.ErrSignificanceLevel, alpha)
	}
	if numFragments < 1 {
		return nil, fmt.Errorf("%w: num_fragments %d", core.ErrConfiguration, numFragments)
	}

	corrected := alpha / float64(numFragments)
	return &Filter{
		threshold: distuv.UnitNormal.Quantile(1 - corrected),
	}, nil
}

// Threshold returns the corrected z-threshold in use.
func (f *Filter) Threshold() float64 {
	return f.threshold
}

// Decide scores one observation. A zero surrogate standard deviation yields
// z = 0 (non-significant) rather than an error, so a degenerate null sample
// never propagates NaN downstream. Non-significant strengths are recorded
// as zero alongside the explicit flag.
func (f *Filter) Decide(obs connectivity.CouplingObservation) (connectivity.SignificanceDecision, error) {
	if len(obs.Surrogates) < 2 {
		return connectivity.SignificanceDecision{}, fmt.Errorf("%w: got %d", core.ErrSurrogateCount, len(obs.Surrogates))
	}

	mean, err := stats.Mean(obs.Surrogates)
	if err != nil {
		return connectivity.SignificanceDecision{}, err
	}
	std, err := stats.StandardDeviation(obs.Surrogates)
	if err != nil {
		return connectivity.SignificanceDecision{}, err
	}

	z := safeDiv(obs.Strength-mean, std)

	decision := connectivity.SignificanceDecision{
		Source:      obs.Source,
		Destination: obs.Destination,
		Fragment:    obs.Fragment,
		ZScore:      z,
	}

	if abs(z) > f.threshold {
		decision.Significant = true
		decision.Strength = obs.Strength
	}
	return decision, nil
}

// safeDiv is the single division primitive for the engine's degenerate
// arithmetic rule: a zero denominator yields zero, not NaN.
func safeDiv(num, den float64) float64 {
	if den == 0 {
		return 0
	}
	return num / den
}

// SafeDiv exposes the substitution rule to the other inference stages so
// every division site resolves degeneracy identically.
func SafeDiv(num, den float64) float64 {
	return safeDiv(num, den)
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
