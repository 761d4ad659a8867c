// Package pipeline orchestrates one analysis run: segmentation, concurrent
// oracle evaluation and significance filtering, the density-fit barrier, the
// Bayesian posterior passes and final aggregation.
package pipeline

import (
	"context"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"

	"pacbayes/domain/connectivity"
	"pacbayes/domain/core"
	"pacbayes/domain/signal"
	"pacbayes/internal"
	"pacbayes/internal/bayes"
	"pacbayes/internal/density"
	"pacbayes/internal/segment"
	"pacbayes/internal/significance"
	"pacbayes/ports"
)

// Pipeline wires the engine stages around an external coupling oracle.
type Pipeline struct {
	oracle   ports.CouplingOracle
	settings connectivity.Settings
	workers  int
	logger   *internal.Logger
}

// Outcome bundles the run result with the density model fitted for it, so
// reporting collaborators can read diagnostics without refitting.
type Outcome struct {
	Result *connectivity.RunResult
	Model  *density.Model
}

// New builds a pipeline. workers <= 0 selects one worker per CPU.
func New(oracle ports.CouplingOracle, settings connectivity.Settings, workers int) *Pipeline {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &Pipeline{
		oracle:   oracle,
		settings: settings,
		workers:  workers,
		logger:   internal.DefaultLogger,
	}
}

// Run executes the full inference over one dual-band recording. Observation
// and significance work runs concurrently per (source, destination,
// fragment) triple into disjoint grid cells; the density fit is a hard
// barrier behind all of it. The first fatal error cancels remaining work.
func (p *Pipeline) Run(ctx context.Context, bands *signal.BandPair) (*Outcome, error) {
	if err := p.settings.Validate(); err != nil {
		return nil, err
	}

	filter, err := significance.NewFilter(p.settings.Alpha, p.settings.NumFragments)
	if err != nil {
		return nil, err
	}

	fragments, err := segment.Split(bands, p.settings.NumFragments)
	if err != nil {
		return nil, err
	}

	channels := fragments.NumChannels
	p.logger.Info("run: %d channels, %d fragments of %d samples, z-threshold %.4f",
		channels, fragments.NumFragments, fragments.FragmentLength, filter.Threshold())

	grid, err := p.observe(ctx, fragments, filter)
	if err != nil {
		return nil, err
	}

	// Barrier: the density model needs the complete pooled population.
	pooled := grid.PooledMagnitudes()
	p.logger.Debug("observation phase complete: %d significant of %d cells",
		len(pooled), channels*channels*fragments.NumFragments)

	model, err := density.Fit(pooled)
	if err != nil {
		return nil, err
	}

	engine := bayes.NewEngine(model)
	result, err := engine.Infer(ctx, grid)
	if err != nil {
		return nil, err
	}
	result.ZThreshold = filter.Threshold()

	return &Outcome{Result: result, Model: model}, nil
}

// observe evaluates the oracle and the significance filter for every
// (source, destination, fragment) triple with bounded concurrency. Each
// triple owns a unique grid cell, so no locking is needed.
func (p *Pipeline) observe(ctx context.Context, fragments *signal.FragmentSet, filter *significance.Filter) (*connectivity.SignificanceGrid, error) {
	channels := fragments.NumChannels
	grid := connectivity.NewSignificanceGrid(channels, fragments.NumFragments)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)

	for f := 0; f < fragments.NumFragments; f++ {
		for i := 0; i < channels; i++ {
			for x := 0; x < channels; x++ {
				f, i, x := f, i, x
				g.Go(func() error {
					if err := gctx.Err(); err != nil {
						return err
					}

					strength, surrogates, err := p.oracle.Evaluate(gctx,
						fragments.PhaseFragment(x, f),
						fragments.AmplitudeFragment(i, f),
						p.settings.NumSurrogates)
					if err != nil {
						return core.NewOracleError(x, i, f, err)
					}
					if len(surrogates) != p.settings.NumSurrogates {
						return core.NewShapeMismatchError("significance filter",
							fmt.Sprintf("oracle returned %d surrogates for pair (%d->%d) fragment %d, expected %d",
								len(surrogates), x, i, f, p.settings.NumSurrogates))
					}

					decision, err := filter.Decide(connectivity.CouplingObservation{
						Source:      x,
						Destination: i,
						Fragment:    f,
						Strength:    strength,
						Surrogates:  surrogates,
					})
					if err != nil {
						return err
					}

					grid.Record(decision)
					return nil
				})
			}
		}
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return grid, nil
}

// BuildManifest captures the outcome as a persisted run record, applying the
// configured posterior display threshold.
func (p *Pipeline) BuildManifest(outcome *Outcome) (*connectivity.RunManifest, error) {
	thresholded, err := bayes.ApplyThreshold(outcome.Result.Aggregate, p.settings.PosteriorThreshold)
	if err != nil {
		return nil, err
	}

	return &connectivity.RunManifest{
		ID:          core.NewRunID(),
		CreatedAt:   core.Now(),
		Settings:    p.settings,
		Result:      *outcome.Result,
		Thresholded: thresholded,
	}, nil
}
