package connectivity

import (
	"fmt"

	"pacbayes/domain/core"
)

// CouplingObservation is one oracle output for a (source, destination,
// fragment) triple: the observed coupling strength and its surrogate null
// sample. Consumed immediately by the significance filter, not retained.
type CouplingObservation struct {
	Source      int
	Destination int
	Fragment    int
	Strength    float64
	Surrogates  []float64
}

// SignificanceDecision records the significance verdict for one observation.
// Strength keeps the zero-encoding the downstream stages rely on (zero when
// not significant); Significant is the explicit flag the engine consults so
// a genuinely zero strength is never mistaken for a filtered one.
type SignificanceDecision struct {
	Source      int     `json:"source"`
	Destination int     `json:"destination"`
	Fragment    int     `json:"fragment"`
	Significant bool    `json:"significant"`
	Strength    float64 `json:"strength"`
	ZScore      float64 `json:"z_score"`
}

// SignificanceGrid accumulates decisions into pre-allocated per-fragment
// (destination x source) cells. Each (source, destination, fragment) triple
// owns exactly one cell, so concurrent writers never collide.
type SignificanceGrid struct {
	NumChannels  int
	NumFragments int

	// Indexed [fragment][destination][source].
	Strengths   [][][]float64
	Significant [][][]bool
}

// NewSignificanceGrid allocates a zeroed grid.
func NewSignificanceGrid(numChannels, numFragments int) *SignificanceGrid {
	g := &SignificanceGrid{
		NumChannels:  numChannels,
		NumFragments: numFragments,
		Strengths:    make([][][]float64, numFragments),
		Significant:  make([][][]bool, numFragments),
	}
	for f := 0; f < numFragments; f++ {
		g.Strengths[f] = make([][]float64, numChannels)
		g.Significant[f] = make([][]bool, numChannels)
		for i := 0; i < numChannels; i++ {
			g.Strengths[f][i] = make([]float64, numChannels)
			g.Significant[f][i] = make([]bool, numChannels)
		}
	}
	return g
}

// Record stores a decision into its owned cell.
func (g *SignificanceGrid) Record(d SignificanceDecision) {
	g.Strengths[d.Fragment][d.Destination][d.Source] = d.Strength
	g.Significant[d.Fragment][d.Destination][d.Source] = d.Significant
}

// CountSignificant returns the total number of significant cells.
func (g *SignificanceGrid) CountSignificant() int {
	count := 0
	for f := range g.Significant {
		for i := range g.Significant[f] {
			for x := range g.Significant[f][i] {
				if g.Significant[f][i][x] {
					count++
				}
			}
		}
	}
	return count
}

// DestinationCounts returns the number of significant cells per destination
// channel, summed over sources and fragments.
func (g *SignificanceGrid) DestinationCounts() []int {
	counts := make([]int, g.NumChannels)
	for f := range g.Significant {
		for i := range g.Significant[f] {
			for x := range g.Significant[f][i] {
				if g.Significant[f][i][x] {
					counts[i]++
				}
			}
		}
	}
	return counts
}

// PooledMagnitudes flattens the absolute strengths of all significant cells
// across all fragments and pairs into one population.
func (g *SignificanceGrid) PooledMagnitudes() []float64 {
	pooled := make([]float64, 0, g.NumFragments*g.NumChannels)
	for f := range g.Strengths {
		for i := range g.Strengths[f] {
			for x, v := range g.Strengths[f][i] {
				if g.Significant[f][i][x] {
					if v < 0 {
						v = -v
					}
					pooled = append(pooled, v)
				}
			}
		}
	}
	return pooled
}

// PriorTable maps destination channel -> P(destination).
type PriorTable []float64

// Sum returns the total prior mass.
func (p PriorTable) Sum() float64 {
	total := 0.0
	for _, v := range p {
		total += v
	}
	return total
}

// Settings is the inference configuration captured with every run.
type Settings struct {
	NumFragments       int     `json:"num_fragments"`
	NumSurrogates      int     `json:"num_surrogates"`
	Alpha              float64 `json:"alpha"`
	NumBins            int     `json:"num_bins"`
	PosteriorThreshold float64 `json:"posterior_threshold"`
}

// Validate applies the configuration rules that do not depend on the input
// signal (the divisibility rule needs the sample count and lives in the
// segmenter).
func (s Settings) Validate() error {
	if s.NumFragments < 1 {
		return fmt.Errorf("%w: num_fragments %d", core.ErrConfiguration, s.NumFragments)
	}
	if s.NumSurrogates < 2 {
		return fmt.Errorf("%w: got %d", core.ErrSurrogateCount, s.NumSurrogates)
	}
	if s.Alpha <= 0 || s.Alpha >= 1 {
		return fmt.Errorf("%w: got %g", core.ErrSignificanceLevel, s.Alpha)
	}
	if s.PosteriorThreshold < 0 || s.PosteriorThreshold > 1 {
		return fmt.Errorf("%w: got %g", core.ErrPosteriorThreshold, s.PosteriorThreshold)
	}
	return nil
}

// RunResult is the complete output of one inference run. All matrices are
// (destination x source); probabilities lie in [0, 1].
type RunResult struct {
	NumChannels      int     `json:"num_channels"`
	NumFragments     int     `json:"num_fragments"`
	ZThreshold       float64 `json:"z_threshold"`
	SignificantCount int     `json:"significant_count"`

	Prior PriorTable `json:"prior"`

	// Posteriors holds P(destination|source) per fragment,
	// indexed [fragment][destination][source].
	Posteriors [][][]float64 `json:"posteriors"`

	// Aggregate is the prevalence-of-significance matrix: the fraction of
	// fragments in which each (destination, source) posterior is nonzero.
	Aggregate [][]float64 `json:"aggregate"`

	// Support is the fraction of fragments with nonzero normalized
	// likelihood per (destination, source) pair.
	Support [][]float64 `json:"support"`
}

// RunManifest is the persisted record of one analysis run.
type RunManifest struct {
	ID          core.RunID     `json:"id" db:"id"`
	CreatedAt   core.Timestamp `json:"created_at" db:"created_at"`
	Settings    Settings       `json:"settings"`
	Result      RunResult      `json:"result"`
	Thresholded [][]float64    `json:"thresholded"`
}
