package models

import "errors"

var (
	// ErrInvalidInput marks malformed contract terms or payoff parameters.
	ErrInvalidInput = errors.New("invalid input")
	// ErrNoBracketFound means no volatility in the search interval reproduces the observed price.
	ErrNoBracketFound = errors.New("no bracket found")
	// ErrMaxIterationsExceeded is returned alongside a best-estimate result with Converged=false.
	ErrMaxIterationsExceeded = errors.New("max iterations exceeded")
	// ErrSimulationConfig marks non-positive path/step counts and other bad simulation settings.
	ErrSimulationConfig = errors.New("simulation config error")
)
