package base

import "errors"

var (
	// ErrStrategyNotFound used when a strategy named in config does not exist
	ErrStrategyNotFound = errors.New("not found. Please ensure the strategies field 'name' is spelled properly in your config")
	// ErrNilSnapshot used when a strategy is asked to evaluate nothing
	ErrNilSnapshot = errors.New("nil snapshot")
)

// StopLossFraction places every stop two percent below entry
const StopLossFraction = 0.98

// Strategy is base implementation of the Handler interface
type Strategy struct{}
