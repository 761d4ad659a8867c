package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Configuration errors
	ErrConfiguration      = errors.New("invalid configuration")
	ErrFragmentDivision   = fmt.Errorf("%w: fragment count must evenly divide signal length", ErrConfiguration)
	ErrSurrogateCount     = fmt.Errorf("%w: surrogate count must be at least 2", ErrConfiguration)
	ErrSignificanceLevel  = fmt.Errorf("%w: alpha must lie in (0, 1)", ErrConfiguration)
	ErrPosteriorThreshold = fmt.Errorf("%w: posterior threshold must lie in [0, 1]", ErrConfiguration)

	// Structural errors
	ErrShapeMismatch = errors.New("input shape mismatch")

	// Data errors
	ErrInsufficientData = errors.New("insufficient data for analysis")
	ErrRunNotFound      = errors.New("run not found")
)

// Error constructors with context
func NewFragmentDivisionError(totalSamples, numFragments int) error {
	return fmt.Errorf("%w: %d samples / %d fragments", ErrFragmentDivision, totalSamples, numFragments)
}

func NewShapeMismatchError(stage string, detail string) error {
	return fmt.Errorf("%w at %s: %s", ErrShapeMismatch, stage, detail)
}

func NewInsufficientDataError(stage string, reason string) error {
	return fmt.Errorf("%w at %s: %s", ErrInsufficientData, stage, reason)
}

func NewOracleError(source, destination, fragment int, err error) error {
	return fmt.Errorf("coupling oracle failed for pair (%d->%d) fragment %d: %w", source, destination, fragment, err)
}

// Error checking helpers
func IsConfigurationError(err error) bool {
	return errors.Is(err, ErrConfiguration)
}

func IsShapeMismatchError(err error) bool {
	return errors.Is(err, ErrShapeMismatch)
}

func IsInsufficientDataError(err error) bool {
	return errors.Is(err, ErrInsufficientData)
}

func IsFatal(err error) bool {
	return IsConfigurationError(err) ||
		IsShapeMismatchError(err) ||
		IsInsufficientDataError(err)
}
