// Package synth generates seeded dual-band recordings with a known coupling
// structure, for the demo CLI and end-to-end exercises.
package synth

import (
	"math"
	"math/rand"

	"pacbayes/domain/signal"
)

// CoupledBands builds a recording where the phase of channel 0 modulates the
// amplitude envelope of channel 1, with independent noise everywhere else.
func CoupledBands(channels, samples int, samplingRate float64, seed int64) *signal.BandPair {
	rng := rand.New(rand.NewSource(seed))

	phase := make([][]float64, channels)
	amplitude := make([][]float64, channels)
	for ch := 0; ch < channels; ch++ {
		phase[ch] = make([]float64, samples)
		amplitude[ch] = make([]float64, samples)

		freq := 6.0 + float64(ch) // low-frequency band, Hz
		for t := 0; t < samples; t++ {
			tt := float64(t) / samplingRate
			phase[ch][t] = math.Mod(2*math.Pi*freq*tt+0.1*rng.NormFloat64(), 2*math.Pi) - math.Pi
			amplitude[ch][t] = 1 + 0.2*rng.NormFloat64()
		}
	}

	// Couple phase(0) -> amplitude(1): the envelope of channel 1 peaks at
	// the preferred phase of channel 0.
	for t := 0; t < samples; t++ {
		amplitude[1][t] += 0.8 * (1 + math.Cos(phase[0][t]))
	}

	return &signal.BandPair{Phase: phase, Amplitude: amplitude, SamplingRate: samplingRate}
}
