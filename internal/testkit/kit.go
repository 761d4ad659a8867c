// Package testkit provides deterministic fixtures for the engine: marker
// signals whose channel indices are recoverable inside an oracle stub, and a
// scriptable stub oracle.
package testkit

import (
	"context"
	"math/rand"

	"pacbayes/domain/signal"
)

// StubResponse is one scripted oracle answer.
type StubResponse struct {
	Strength   float64
	Surrogates []float64
}

// PairKey addresses a scripted response by (source, destination).
type PairKey struct {
	Source      int
	Destination int
}

// StubOracle returns scripted responses keyed by channel pair. It requires
// marker bands (see MarkerBands): the source channel is encoded in the phase
// fragment and the destination channel in the amplitude fragment. Pairs
// without a script fall back to Default.
type StubOracle struct {
	Default StubResponse
	Pairs   map[PairKey]StubResponse
}

// Evaluate decodes the pair from the marker fragments and returns its
// scripted response, truncating or padding surrogates to the requested count.
func (o *StubOracle) Evaluate(_ context.Context, phaseFragment, amplitudeFragment []float64, numSurrogates int) (float64, []float64, error) {
	key := PairKey{
		Source:      int(phaseFragment[0]),
		Destination: int(amplitudeFragment[0]),
	}

	resp, ok := o.Pairs[key]
	if !ok {
		resp = o.Default
	}

	surrogates := make([]float64, numSurrogates)
	for i := range surrogates {
		if len(resp.Surrogates) > 0 {
			surrogates[i] = resp.Surrogates[i%len(resp.Surrogates)]
		}
	}
	return resp.Strength, surrogates, nil
}

// MarkerBands builds a band pair where every sample of channel ch equals
// float64(ch) in both bands, so a stub oracle can recover the pair identity
// from the fragment contents alone.
func MarkerBands(channels, samples int) *signal.BandPair {
	phase := make([][]float64, channels)
	amplitude := make([][]float64, channels)
	for ch := 0; ch < channels; ch++ {
		phase[ch] = make([]float64, samples)
		amplitude[ch] = make([]float64, samples)
		for t := 0; t < samples; t++ {
			phase[ch][t] = float64(ch)
			amplitude[ch][t] = float64(ch)
		}
	}
	return &signal.BandPair{Phase: phase, Amplitude: amplitude, SamplingRate: 1}
}

// ConstantSurrogates returns n copies of v. With all surrogates identical
// the null standard deviation is zero and every z-score collapses to zero.
func ConstantSurrogates(n int, v float64) []float64 {
	s := make([]float64, n)
	for i := range s {
		s[i] = v
	}
	return s
}

// SpreadSurrogates returns a deterministic null sample centered on mean with
// the given spread, seeded for reproducibility.
func SpreadSurrogates(n int, mean, spread float64, seed int64) []float64 {
	rng := rand.New(rand.NewSource(seed))
	s := make([]float64, n)
	for i := range s {
		s[i] = mean + spread*rng.NormFloat64()
	}
	return s
}
