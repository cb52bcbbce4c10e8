package pricing

import (
	"fmt"
	"math"

	"github.com/akoiralaa/options-pricer/models"
)

func validate(spec models.ContractSpec, optionType models.OptionType) error {
	if err := spec.Validate(); err != nil {
		return err
	}
	return validateOptionType(optionType)
}

func validateOptionType(optionType models.OptionType) error {
	if optionType != models.Call && optionType != models.Put {
		return fmt.Errorf("%w: option type must be 'call' or 'put', got %q", models.ErrInvalidInput, optionType)
	}
	return nil
}

// IntrinsicValue is the immediate exercise value, ignoring discounting.
func IntrinsicValue(spec models.ContractSpec, optionType models.OptionType) float64 {
	return models.Vanilla(optionType, spec.Spot, spec.Strike)
}

// priceBounds returns the no-arbitrage range of a European price over all
// volatilities: the discounted forward intrinsic value at sigma=0 and the
// sigma->infinity limit (spot for a call, discounted strike for a put).
func priceBounds(spec models.ContractSpec, optionType models.OptionType) (float64, float64) {
	discountedStrike := spec.Strike * spec.DiscountFactor()
	if optionType == models.Call {
		return math.Max(spec.Spot-discountedStrike, 0), spec.Spot
	}
	return math.Max(discountedStrike-spec.Spot, 0), discountedStrike
}

func sanitizeFloat(f float64) float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}
