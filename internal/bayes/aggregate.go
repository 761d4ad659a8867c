package bayes

import (
	"fmt"

	"pacbayes/domain/core"
)

// ApplyThreshold zeroes every entry of the aggregate posterior below tau and
// passes entries at or above tau through unchanged. tau = 0 is the identity
// filter. The input matrix is not mutated.
func ApplyThreshold(aggregate [][]float64, tau float64) ([][]float64, error) {
	if tau < 0 || tau > 1 {
		return nil, fmt.Errorf("%w: got %g", core.ErrPosteriorThreshold, tau)
	}

	out := make([][]float64, len(aggregate))
	for i, row := range aggregate {
		out[i] = make([]float64, len(row))
		for x, v := range row {
			if v >= tau {
				out[i][x] = v
			}
		}
	}
	return out, nil
}
