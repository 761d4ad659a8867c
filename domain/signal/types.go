package signal

import (
	"fmt"

	"pacbayes/domain/core"
)

// ChannelSignal is one real-valued time series for a single recording channel.
type ChannelSignal struct {
	Channel      int       `json:"channel"`
	Samples      []float64 `json:"samples"`
	SamplingRate float64   `json:"sampling_rate"`
}

// BandPair holds the two time-aligned per-channel signals the engine consumes:
// the instantaneous phase of a low-frequency band and the instantaneous
// amplitude envelope of a high-frequency band, both shaped [channels x time].
type BandPair struct {
	Phase        [][]float64 `json:"phase"`
	Amplitude    [][]float64 `json:"amplitude"`
	SamplingRate float64     `json:"sampling_rate"`
}

// NumChannels returns the channel count of the pair.
func (bp *BandPair) NumChannels() int {
	return len(bp.Phase)
}

// NumSamples returns the per-channel sample count, or 0 for an empty pair.
func (bp *BandPair) NumSamples() int {
	if len(bp.Phase) == 0 {
		return 0
	}
	return len(bp.Phase[0])
}

// Validate checks that both bands share an identical [channels x time] shape.
func (bp *BandPair) Validate() error {
	if len(bp.Phase) == 0 || len(bp.Amplitude) == 0 {
		return core.NewShapeMismatchError("band pair", "empty phase or amplitude array")
	}
	if len(bp.Phase) != len(bp.Amplitude) {
		return core.NewShapeMismatchError("band pair",
			fmt.Sprintf("phase has %d channels, amplitude has %d", len(bp.Phase), len(bp.Amplitude)))
	}
	n := len(bp.Phase[0])
	for ch := range bp.Phase {
		if len(bp.Phase[ch]) != n {
			return core.NewShapeMismatchError("band pair",
				fmt.Sprintf("phase channel %d has %d samples, expected %d", ch, len(bp.Phase[ch]), n))
		}
		if len(bp.Amplitude[ch]) != n {
			return core.NewShapeMismatchError("band pair",
				fmt.Sprintf("amplitude channel %d has %d samples, expected %d", ch, len(bp.Amplitude[ch]), n))
		}
	}
	return nil
}

// FragmentSet is the segmented view of a BandPair: for every channel, the
// phase and amplitude series cut into NumFragments contiguous slices of
// identical length. Fragments are subslices of the source arrays and must be
// treated as read-only.
type FragmentSet struct {
	NumChannels    int
	NumFragments   int
	FragmentLength int

	// Indexed [channel][fragment].
	Phase     [][][]float64
	Amplitude [][][]float64
}

// PhaseFragment returns the phase slice for (channel, fragment).
func (fs *FragmentSet) PhaseFragment(channel, fragment int) []float64 {
	return fs.Phase[channel][fragment]
}

// AmplitudeFragment returns the amplitude slice for (channel, fragment).
func (fs *FragmentSet) AmplitudeFragment(channel, fragment int) []float64 {
	return fs.Amplitude[channel][fragment]
}
