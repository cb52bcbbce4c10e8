package montecarlo

import (
	"fmt"

	"gonum.org/v1/gonum/floats"

	"github.com/akoiralaa/options-pricer/models"
)

// Evaluate prices a payoff over materialized paths. Each path must start at
// the spot and end at expiry, as produced by Simulate. A zero confidence
// level means DefaultConfidenceLevel.
func Evaluate(paths []models.SimulatedPath, spec models.ContractSpec, payoff models.PayoffSpec, confidenceLevel float64) (models.SimulationResult, error) {
	if err := spec.Validate(); err != nil {
		return models.SimulationResult{}, err
	}
	value, err := newPayoff(spec, payoff)
	if err != nil {
		return models.SimulationResult{}, err
	}
	if len(paths) == 0 {
		return models.SimulationResult{}, fmt.Errorf("%w: no paths to evaluate", models.ErrSimulationConfig)
	}
	if confidenceLevel == 0 {
		confidenceLevel = DefaultConfidenceLevel
	}
	if !(confidenceLevel > 0 && confidenceLevel < 1) {
		return models.SimulationResult{}, fmt.Errorf("%w: confidence level must be in (0, 1), got %g", models.ErrSimulationConfig, confidenceLevel)
	}

	var acc accumulator
	for i, path := range paths {
		if len(path) == 0 {
			return models.SimulationResult{}, fmt.Errorf("%w: path %d is empty", models.ErrSimulationConfig, i)
		}
		acc.add(value(summarize(path)))
	}
	return acc.result(spec.DiscountFactor(), confidenceLevel), nil
}

func summarize(path models.SimulatedPath) pathStats {
	return pathStats{
		last: path[len(path)-1],
		sum:  floats.Sum(path),
		max:  floats.Max(path),
		min:  floats.Min(path),
		n:    len(path),
	}
}

func European(paths []models.SimulatedPath, spec models.ContractSpec, optionType models.OptionType) (models.SimulationResult, error) {
	return Evaluate(paths, spec, models.PayoffSpec{Type: models.PayoffEuropean, OptionType: optionType}, 0)
}

// Asian prices an arithmetic-average-price option; the average includes the
// starting spot.
func Asian(paths []models.SimulatedPath, spec models.ContractSpec, optionType models.OptionType) (models.SimulationResult, error) {
	return Evaluate(paths, spec, models.PayoffSpec{Type: models.PayoffAsian, OptionType: optionType}, 0)
}

// Barrier prices a knock-out or knock-in option. The barrier direction is
// inferred from the level relative to spot.
func Barrier(paths []models.SimulatedPath, spec models.ContractSpec, optionType models.OptionType, level float64, kind models.BarrierKind) (models.SimulationResult, error) {
	return Evaluate(paths, spec, models.PayoffSpec{
		Type:         models.PayoffBarrier,
		OptionType:   optionType,
		BarrierLevel: level,
		BarrierKind:  kind,
	}, 0)
}

// Lookback prices a fixed-strike lookback: max(max(path)-K, 0) for a call,
// max(K-min(path), 0) for a put.
func Lookback(paths []models.SimulatedPath, spec models.ContractSpec, optionType models.OptionType) (models.SimulationResult, error) {
	return Evaluate(paths, spec, models.PayoffSpec{Type: models.PayoffLookback, OptionType: optionType}, 0)
}
