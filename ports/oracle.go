package ports

import (
	"context"
)

// CouplingOracle is the external coupling-strength statistic the engine
// consumes as a black box. For a (source-phase, destination-amplitude)
// fragment pair it returns the observed strength and numSurrogates
// null-hypothesis strengths on the same scale. Implementations must be safe
// for concurrent use; the pipeline calls Evaluate from multiple workers.
type CouplingOracle interface {
	Evaluate(ctx context.Context, phaseFragment, amplitudeFragment []float64, numSurrogates int) (strength float64, surrogates []float64, err error)
}

// OracleFunc adapts a plain function to the CouplingOracle interface.
type OracleFunc func(ctx context.Context, phaseFragment, amplitudeFragment []float64, numSurrogates int) (float64, []float64, error)

func (f OracleFunc) Evaluate(ctx context.Context, phaseFragment, amplitudeFragment []float64, numSurrogates int) (float64, []float64, error) {
	return f(ctx, phaseFragment, amplitudeFragment, numSurrogates)
}
