package pricing

import (
	"math"

	"github.com/akoiralaa/options-pricer/models"
)

const (
	shadowPriceChange = 0.01
	shadowVolChange   = 0.05
	skewVolStep       = 0.01
)

// ShadowGamma calculates the Shadow Up-Gamma and Shadow Down-Gamma: the
// delta change per unit of spot when spot moves by priceChange and
// volatility moves by volChange in the same direction.
func ShadowGamma(spec models.ContractSpec, optionType models.OptionType, priceChange, volChange float64) (float64, float64, error) {
	if err := validate(spec, optionType); err != nil {
		return 0, 0, err
	}

	originalDelta := calculateBSM(spec, optionType).Greeks.Delta

	up := spec
	up.Spot = spec.Spot * (1 + priceChange)
	up.Volatility = spec.Volatility * (1 + volChange)
	upDelta := calculateBSM(up, optionType).Greeks.Delta
	shadowUpGamma := (upDelta - originalDelta) / (up.Spot - spec.Spot)

	down := spec
	down.Spot = spec.Spot * (1 - priceChange)
	down.Volatility = math.Max(spec.Volatility*(1-volChange), 0)
	downDelta := calculateBSM(down, optionType).Greeks.Delta
	shadowDownGamma := (originalDelta - downDelta) / (spec.Spot - down.Spot)

	return sanitizeFloat(shadowUpGamma), sanitizeFloat(shadowDownGamma), nil
}

// SkewGamma calculates the Skew Gamma (Volga) by central difference of the
// per-1% Vega, expressed per 1% volatility move.
func SkewGamma(spec models.ContractSpec, volStep float64) (float64, error) {
	if err := spec.Validate(); err != nil {
		return 0, err
	}

	upVol := spec.Volatility + volStep
	downVol := math.Max(spec.Volatility-volStep, 0)
	if upVol == downVol {
		return 0, nil
	}
	vegaUp := calculateBSM(spec.WithVolatility(upVol), models.Call).Greeks.Vega
	vegaDown := calculateBSM(spec.WithVolatility(downVol), models.Call).Greeks.Vega

	return sanitizeFloat((vegaUp - vegaDown) / ((upVol - downVol) * percent)), nil
}

// CalculateHigherOrder evaluates the shadow and skew gammas at their
// conventional bump sizes: 1% spot, 5% relative volatility, 1 vol point.
func CalculateHigherOrder(spec models.ContractSpec, optionType models.OptionType) (models.HigherOrderGreeks, error) {
	up, down, err := ShadowGamma(spec, optionType, shadowPriceChange, shadowVolChange)
	if err != nil {
		return models.HigherOrderGreeks{}, err
	}
	skew, err := SkewGamma(spec, skewVolStep)
	if err != nil {
		return models.HigherOrderGreeks{}, err
	}
	return models.HigherOrderGreeks{
		ShadowUpGamma:   up,
		ShadowDownGamma: down,
		SkewGamma:       skew,
	}, nil
}
