package models

import (
	"fmt"
	"math"
	"strings"
)

type OptionType string

const (
	Call OptionType = "call"
	Put  OptionType = "put"
)

// ParseOptionType accepts "call"/"put" in any case, plus the "c"/"p" shorthands.
func ParseOptionType(s string) (OptionType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "call", "c":
		return Call, nil
	case "put", "p":
		return Put, nil
	}
	return "", fmt.Errorf("%w: option type must be 'call' or 'put', got %q", ErrInvalidInput, s)
}

// ContractSpec holds the terms of one pricing request. Time is in years,
// rate and volatility are annualised decimals.
type ContractSpec struct {
	Spot         float64 `json:"spot" yaml:"spot"`
	Strike       float64 `json:"strike" yaml:"strike"`
	TimeToExpiry float64 `json:"time_to_expiry" yaml:"time_to_expiry"`
	Rate         float64 `json:"rate" yaml:"rate"`
	Volatility   float64 `json:"volatility" yaml:"volatility"`
}

// Validate reports ErrInvalidInput for non-positive spot or strike, negative
// time or volatility, and any non-finite field.
func (c ContractSpec) Validate() error {
	fields := []struct {
		name  string
		value float64
	}{
		{"spot", c.Spot},
		{"strike", c.Strike},
		{"time_to_expiry", c.TimeToExpiry},
		{"rate", c.Rate},
		{"volatility", c.Volatility},
	}
	for _, f := range fields {
		if math.IsNaN(f.value) || math.IsInf(f.value, 0) {
			return fmt.Errorf("%w: %s is not finite", ErrInvalidInput, f.name)
		}
	}

	switch {
	case c.Spot <= 0:
		return fmt.Errorf("%w: spot must be positive, got %g", ErrInvalidInput, c.Spot)
	case c.Strike <= 0:
		return fmt.Errorf("%w: strike must be positive, got %g", ErrInvalidInput, c.Strike)
	case c.TimeToExpiry < 0:
		return fmt.Errorf("%w: time to expiry must not be negative, got %g", ErrInvalidInput, c.TimeToExpiry)
	case c.Volatility < 0:
		return fmt.Errorf("%w: volatility must not be negative, got %g", ErrInvalidInput, c.Volatility)
	}
	return nil
}

func (c ContractSpec) WithVolatility(sigma float64) ContractSpec {
	c.Volatility = sigma
	return c
}

// DiscountFactor returns e^(-rT).
func (c ContractSpec) DiscountFactor() float64 {
	return math.Exp(-c.Rate * c.TimeToExpiry)
}

type Greeks struct {
	Delta float64 `json:"delta"`
	Gamma float64 `json:"gamma"`
	Vega  float64 `json:"vega"`  // per 1% volatility change
	Theta float64 `json:"theta"` // per calendar day
	Rho   float64 `json:"rho"`   // per 1% rate change
}

type BSMResult struct {
	OptionType OptionType `json:"option_type"`
	Price      float64    `json:"price"`
	Greeks     Greeks     `json:"greeks"`
}

// HigherOrderGreeks are finite-difference sensitivities layered on top of
// the analytic Greeks.
type HigherOrderGreeks struct {
	ShadowUpGamma   float64 `json:"shadow_up_gamma"`
	ShadowDownGamma float64 `json:"shadow_down_gamma"`
	SkewGamma       float64 `json:"skew_gamma"`
}

type SolverMethod string

const (
	MethodBrent  SolverMethod = "BRENT"
	MethodNewton SolverMethod = "NEWTON"
)

type ImpliedVolResult struct {
	Volatility float64      `json:"volatility"`
	Iterations int          `json:"iterations"`
	Converged  bool         `json:"converged"`
	Method     SolverMethod `json:"method_used"`
}

// SimulatedPath is one trajectory sampled at num_steps+1 points, starting at spot.
type SimulatedPath []float64

type ConfidenceInterval struct {
	Low  float64 `json:"low"`
	High float64 `json:"high"`
}

func (ci ConfidenceInterval) Contains(x float64) bool {
	return x >= ci.Low && x <= ci.High
}

type SimulationResult struct {
	Price              float64            `json:"price"`
	StandardError      float64            `json:"standard_error"`
	ConfidenceInterval ConfidenceInterval `json:"confidence_interval"`
	ConfidenceLevel    float64            `json:"confidence_level"`
	NumPaths           int                `json:"num_paths"`
}
