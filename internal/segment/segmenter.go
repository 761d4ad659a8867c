// Package segment splits time-aligned dual-band signals into equal-length
// temporal fragments, the unit over which coupling and significance are
// evaluated independently.
package segment

import (
	"fmt"

	"pacbayes/domain/core"
	"pacbayes/domain/signal"
)

// Split cuts every channel of the band pair into numFragments contiguous,
// non-overlapping fragments of identical length. The fragments cover each
// signal exhaustively in temporal order; a sample count that numFragments
// does not divide evenly is a configuration error, never a silent truncation.
func Split(bands *signal.BandPair, numFragments int) (*signal.FragmentSet, error) {
	if err := bands.Validate(); err != nil {
		return nil, err
	}
	if numFragments < 1 {
		return nil, fmt.Errorf("%w: num_fragments %d", core.ErrConfiguration, numFragments)
	}

	total := bands.NumSamples()
	if total%numFragments != 0 {
		return nil, core.NewFragmentDivisionError(total, numFragments)
	}
	length := total / numFragments

	channels := bands.NumChannels()
	fs := &signal.FragmentSet{
		NumChannels:    channels,
		NumFragments:   numFragments,
		FragmentLength: length,
		Phase:          make([][][]float64, channels),
		Amplitude:      make([][][]float64, channels),
	}

	for ch := 0; ch < channels; ch++ {
		fs.Phase[ch] = make([][]float64, numFragments)
		fs.Amplitude[ch] = make([][]float64, numFragments)
		for f := 0; f < numFragments; f++ {
			start := f * length
			end := start + length
			fs.Phase[ch][f] = bands.Phase[ch][start:end:end]
			fs.Amplitude[ch][f] = bands.Amplitude[ch][start:end:end]
		}
	}

	return fs, nil
}
