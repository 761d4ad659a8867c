// Package bayes propagates the fitted density model through Bayes' theorem
// to obtain per-fragment and aggregate destination-conditioned posteriors.
package bayes

import (
	"context"
	"math"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/mat"

	"pacbayes/domain/connectivity"
	"pacbayes/domain/core"
	"pacbayes/internal/density"
	"pacbayes/internal/significance"
)

// Engine computes priors, likelihoods, evidence and posteriors from a
// significance grid and the run's density model. It is purely functional:
// the model is read-only and every call allocates its own output.
type Engine struct {
	model *density.Model
}

// NewEngine wraps the fitted density model.
func NewEngine(model *density.Model) *Engine {
	return &Engine{model: model}
}

// Infer runs the full posterior computation. Fragments are independent and
// are processed concurrently; every fragment reads the shared model and
// writes only its own pre-allocated output cells.
func (e *Engine) Infer(ctx context.Context, grid *connectivity.SignificanceGrid) (*connectivity.RunResult, error) {
	if grid.NumChannels < 1 || grid.NumFragments < 1 {
		return nil, core.NewShapeMismatchError("posterior engine", "empty significance grid")
	}
	if len(grid.Strengths) != grid.NumFragments || len(grid.Significant) != grid.NumFragments {
		return nil, core.NewShapeMismatchError("posterior engine", "grid fragment dimension inconsistent")
	}

	channels := grid.NumChannels
	fragments := grid.NumFragments

	prior := e.computePrior(grid)
	priorVec := mat.NewVecDense(channels, prior)

	posteriors := make([][][]float64, fragments)
	likelihoodNonzero := make([][][]bool, fragments)

	g, gctx := errgroup.WithContext(ctx)
	for f := 0; f < fragments; f++ {
		f := f
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			post, nonzero := e.inferFragment(grid, f, priorVec)
			posteriors[f] = post
			likelihoodNonzero[f] = nonzero
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	aggregate := newMatrix(channels)
	support := newMatrix(channels)
	for f := 0; f < fragments; f++ {
		for i := 0; i < channels; i++ {
			for x := 0; x < channels; x++ {
				if posteriors[f][i][x] > 0 {
					aggregate[i][x]++
				}
				if likelihoodNonzero[f][i][x] {
					support[i][x]++
				}
			}
		}
	}
	for i := 0; i < channels; i++ {
		for x := 0; x < channels; x++ {
			aggregate[i][x] /= float64(fragments)
			support[i][x] /= float64(fragments)
		}
	}

	return &connectivity.RunResult{
		NumChannels:      channels,
		NumFragments:     fragments,
		SignificantCount: grid.CountSignificant(),
		Prior:            prior,
		Posteriors:       posteriors,
		Aggregate:        aggregate,
		Support:          support,
	}, nil
}

// computePrior counts significant observations per destination over the
// total significant count. With no significant observations anywhere the
// prior is all zeros.
func (e *Engine) computePrior(grid *connectivity.SignificanceGrid) connectivity.PriorTable {
	counts := grid.DestinationCounts()
	total := 0
	for _, c := range counts {
		total += c
	}

	prior := make(connectivity.PriorTable, grid.NumChannels)
	for i, c := range counts {
		prior[i] = significance.SafeDiv(float64(c), float64(total))
	}
	return prior
}

// inferFragment computes the normalized likelihood matrix, evidence vector
// and posterior matrix for one fragment.
func (e *Engine) inferFragment(grid *connectivity.SignificanceGrid, fragment int, priorVec *mat.VecDense) (posterior [][]float64, likelihoodNonzero [][]bool) {
	channels := grid.NumChannels

	// Likelihood P(x|i): density at the significant magnitude, else 0.
	likelihood := mat.NewDense(channels, channels, nil)
	for i := 0; i < channels; i++ {
		for x := 0; x < channels; x++ {
			if grid.Significant[fragment][i][x] {
				likelihood.Set(i, x, e.model.Evaluate(math.Abs(grid.Strengths[fragment][i][x])))
			}
		}
	}

	// Normalize each destination row over the source axis. A zero row sum
	// leaves the row at zero.
	likelihoodNonzero = make([][]bool, channels)
	for i := 0; i < channels; i++ {
		likelihoodNonzero[i] = make([]bool, channels)
		rowSum := 0.0
		for x := 0; x < channels; x++ {
			rowSum += likelihood.At(i, x)
		}
		for x := 0; x < channels; x++ {
			norm := significance.SafeDiv(likelihood.At(i, x), rowSum)
			likelihood.Set(i, x, norm)
			likelihoodNonzero[i][x] = norm > 0
		}
	}

	// Evidence P(x) = sum_i P(i) * P(x|i), the prior vector against each
	// source column.
	evidence := mat.NewVecDense(channels, nil)
	evidence.MulVec(likelihood.T(), priorVec)

	// Posterior P(i|x) = P(x|i) * P(i) / P(x); zero evidence yields a zero
	// posterior for that source.
	posterior = make([][]float64, channels)
	for i := 0; i < channels; i++ {
		posterior[i] = make([]float64, channels)
		for x := 0; x < channels; x++ {
			posterior[i][x] = significance.SafeDiv(
				likelihood.At(i, x)*priorVec.AtVec(i),
				evidence.AtVec(x),
			)
		}
	}
	return posterior, likelihoodNonzero
}

func newMatrix(n int) [][]float64 {
	m := make([][]float64, n)
	for i := range m {
		m[i] = make([]float64, n)
	}
	return m
}
