package models

import (
	"fmt"
	"math"
	"strings"
)

type PayoffType string

const (
	PayoffEuropean PayoffType = "european"
	PayoffAsian    PayoffType = "asian"
	PayoffBarrier  PayoffType = "barrier"
	PayoffLookback PayoffType = "lookback"
)

func ParsePayoffType(s string) (PayoffType, error) {
	switch p := PayoffType(strings.ToLower(strings.TrimSpace(s))); p {
	case PayoffEuropean, PayoffAsian, PayoffBarrier, PayoffLookback:
		return p, nil
	}
	return "", fmt.Errorf("%w: unknown payoff type %q", ErrInvalidInput, s)
}

type BarrierKind string

const (
	KnockOut BarrierKind = "knock_out"
	KnockIn  BarrierKind = "knock_in"
)

func ParseBarrierKind(s string) (BarrierKind, error) {
	switch strings.ToLower(strings.ReplaceAll(strings.TrimSpace(s), "-", "_")) {
	case "knock_out", "out", "ko":
		return KnockOut, nil
	case "knock_in", "in", "ki":
		return KnockIn, nil
	}
	return "", fmt.Errorf("%w: barrier kind must be 'knock_out' or 'knock_in', got %q", ErrInvalidInput, s)
}

type BarrierDirection string

const (
	BarrierUp   BarrierDirection = "up"
	BarrierDown BarrierDirection = "down"
)

// PayoffSpec selects a payoff family and carries its variant parameters.
// Barrier fields are ignored by the other families.
type PayoffSpec struct {
	Type       PayoffType `json:"type"`
	OptionType OptionType `json:"option_type"`

	BarrierLevel     float64          `json:"barrier_level,omitempty"`
	BarrierKind      BarrierKind      `json:"barrier_kind,omitempty"`
	BarrierDirection BarrierDirection `json:"barrier_direction,omitempty"`
}

// Validate checks the payoff against the contract it will be applied to.
func (p PayoffSpec) Validate() error {
	if p.OptionType != Call && p.OptionType != Put {
		return fmt.Errorf("%w: option type must be 'call' or 'put', got %q", ErrInvalidInput, p.OptionType)
	}

	switch p.Type {
	case PayoffEuropean, PayoffAsian, PayoffLookback:
		return nil
	case PayoffBarrier:
	default:
		return fmt.Errorf("%w: unknown payoff type %q", ErrInvalidInput, p.Type)
	}

	if p.BarrierLevel <= 0 || math.IsNaN(p.BarrierLevel) || math.IsInf(p.BarrierLevel, 0) {
		return fmt.Errorf("%w: barrier level must be positive and finite, got %g", ErrInvalidInput, p.BarrierLevel)
	}
	if p.BarrierKind != KnockOut && p.BarrierKind != KnockIn {
		return fmt.Errorf("%w: barrier kind must be %q or %q, got %q", ErrInvalidInput, KnockOut, KnockIn, p.BarrierKind)
	}
	switch p.BarrierDirection {
	case "", BarrierUp, BarrierDown:
	default:
		return fmt.Errorf("%w: barrier direction must be %q or %q, got %q", ErrInvalidInput, BarrierUp, BarrierDown, p.BarrierDirection)
	}
	return nil
}

// Direction resolves an unset barrier direction from the level relative to spot.
func (p PayoffSpec) Direction(spot float64) BarrierDirection {
	if p.BarrierDirection != "" {
		return p.BarrierDirection
	}
	if p.BarrierLevel > spot {
		return BarrierUp
	}
	return BarrierDown
}

// Vanilla returns the exercise value of a plain call or put at price s.
func Vanilla(optionType OptionType, s, strike float64) float64 {
	if optionType == Put {
		return math.Max(strike-s, 0)
	}
	return math.Max(s-strike, 0)
}
