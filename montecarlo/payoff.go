package montecarlo

import (
	"math"

	"github.com/akoiralaa/options-pricer/models"
)

// pathStats is the running summary of one path that every payoff family is
// computed from. The starting spot is the first observation.
type pathStats struct {
	last float64
	sum  float64
	max  float64
	min  float64
	n    int
}

func (s *pathStats) observe(price float64) {
	if s.n == 0 {
		s.max, s.min = price, price
	} else {
		s.max = math.Max(s.max, price)
		s.min = math.Min(s.min, price)
	}
	s.last = price
	s.sum += price
	s.n++
}

func (s pathStats) mean() float64 {
	if s.n == 0 {
		return 0
	}
	return s.sum / float64(s.n)
}

// payoffFunc maps a path summary to its undiscounted payoff.
type payoffFunc func(pathStats) float64

// newPayoff validates p and resolves it against the contract.
func newPayoff(spec models.ContractSpec, p models.PayoffSpec) (payoffFunc, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	strike, optionType := spec.Strike, p.OptionType
	switch p.Type {
	case models.PayoffEuropean:
		return func(s pathStats) float64 {
			return models.Vanilla(optionType, s.last, strike)
		}, nil

	case models.PayoffAsian:
		return func(s pathStats) float64 {
			return models.Vanilla(optionType, s.mean(), strike)
		}, nil

	case models.PayoffLookback:
		if optionType == models.Put {
			return func(s pathStats) float64 {
				return math.Max(strike-s.min, 0)
			}, nil
		}
		return func(s pathStats) float64 {
			return math.Max(s.max-strike, 0)
		}, nil
	}

	// Barrier: an up barrier is touched once any sample reaches the level
	// from below, a down barrier once any sample falls to it.
	level := p.BarrierLevel
	up := p.Direction(spec.Spot) == models.BarrierUp
	knockIn := p.BarrierKind == models.KnockIn
	return func(s pathStats) float64 {
		touched := s.min <= level
		if up {
			touched = s.max >= level
		}
		if touched != knockIn {
			return 0
		}
		return models.Vanilla(optionType, s.last, strike)
	}, nil
}
