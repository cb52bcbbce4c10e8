package pricing

import (
	"math"

	"github.com/akoiralaa/options-pricer/models"
)

const (
	daysPerYear = 365.0
	percent     = 100.0
)

// CalculateBSM returns the Black-Scholes price and Greeks of a European option.
// Vega and Rho are per 1% move, Theta is per calendar day.
func CalculateBSM(spec models.ContractSpec, optionType models.OptionType) (models.BSMResult, error) {
	if err := validate(spec, optionType); err != nil {
		return models.BSMResult{}, err
	}
	return calculateBSM(spec, optionType), nil
}

func calculateBSM(spec models.ContractSpec, optionType models.OptionType) models.BSMResult {
	if spec.TimeToExpiry <= 0 {
		return expiryResult(spec, optionType)
	}
	S, K, T, r, sigma := spec.Spot, spec.Strike, spec.TimeToExpiry, spec.Rate, spec.Volatility
	sqrtT := math.Sqrt(T)
	// sigma*sqrt(T) can underflow to zero for a positive sigma.
	if sigma <= 0 || sigma*sqrtT == 0 {
		return zeroVolResult(spec, optionType)
	}
	d1, d2 := calculateD1D2(spec)
	discount := math.Exp(-r * T)
	pdf := NormPDF(d1)

	call := math.Max(S*NormCDF(d1)-K*discount*NormCDF(d2), 0)
	gamma := pdf / (S * sigma * sqrtT)
	vega := S * pdf * sqrtT
	decay := -(S * pdf * sigma) / (2 * sqrtT)

	var price, delta, theta, rho float64
	if optionType == models.Call {
		price = call
		delta = NormCDF(d1)
		theta = decay - r*K*discount*NormCDF(d2)
		rho = K * T * discount * NormCDF(d2)
	} else {
		// put-call parity
		price = math.Max(call-S+K*discount, 0)
		delta = NormCDF(d1) - 1
		theta = decay + r*K*discount*NormCDF(-d2)
		rho = -K * T * discount * NormCDF(-d2)
	}

	return models.BSMResult{
		OptionType: optionType,
		Price:      price,
		Greeks: models.Greeks{
			Delta: delta,
			Gamma: gamma,
			Vega:  vega / percent,
			Theta: theta / daysPerYear,
			Rho:   rho / percent,
		},
	}
}

// expiryResult handles T == 0: the price is intrinsic value and Delta is the
// moneyness step function.
func expiryResult(spec models.ContractSpec, optionType models.OptionType) models.BSMResult {
	return models.BSMResult{
		OptionType: optionType,
		Price:      models.Vanilla(optionType, spec.Spot, spec.Strike),
		Greeks: models.Greeks{
			Delta: stepDelta(spec.Spot-spec.Strike, optionType),
		},
	}
}

// zeroVolResult handles sigma*sqrt(T) == 0 with T > 0. The underlying grows
// deterministically at r, so the price is the discounted intrinsic value
// against the forward and the Greeks are the sigma->0 limits of the
// closed-form expressions.
func zeroVolResult(spec models.ContractSpec, optionType models.OptionType) models.BSMResult {
	K, T, r := spec.Strike, spec.TimeToExpiry, spec.Rate
	discount := math.Exp(-r * T)
	moneyness := spec.Spot - K*discount

	w := stepDelta(moneyness, models.Call)
	result := models.BSMResult{OptionType: optionType}
	if optionType == models.Call {
		result.Price = math.Max(moneyness, 0)
		result.Greeks.Delta = w
		result.Greeks.Theta = -r * K * discount * w / daysPerYear
		result.Greeks.Rho = K * T * discount * w / percent
	} else {
		result.Price = math.Max(-moneyness, 0)
		result.Greeks.Delta = w - 1
		result.Greeks.Theta = r * K * discount * (1 - w) / daysPerYear
		result.Greeks.Rho = -K * T * discount * (1 - w) / percent
	}
	return result
}

func stepDelta(moneyness float64, optionType models.OptionType) float64 {
	var delta float64
	switch {
	case moneyness > 0:
		delta = 1
	case moneyness < 0:
		delta = 0
	default:
		delta = 0.5
	}
	if optionType == models.Put {
		delta--
	}
	return delta
}

func calculateD1D2(spec models.ContractSpec) (float64, float64) {
	S, K, T, r, sigma := spec.Spot, spec.Strike, spec.TimeToExpiry, spec.Rate, spec.Volatility
	volSqrtT := sigma * math.Sqrt(T)
	d1 := (math.Log(S/K) + (r+0.5*sigma*sigma)*T) / volSqrtT
	return d1, d1 - volSqrtT
}

func CallPrice(spec models.ContractSpec) (float64, error) {
	return Price(spec, models.Call)
}

func PutPrice(spec models.ContractSpec) (float64, error) {
	return Price(spec, models.Put)
}

func Price(spec models.ContractSpec, optionType models.OptionType) (float64, error) {
	res, err := CalculateBSM(spec, optionType)
	return res.Price, err
}

func Delta(spec models.ContractSpec, optionType models.OptionType) (float64, error) {
	res, err := CalculateBSM(spec, optionType)
	return res.Greeks.Delta, err
}

// Gamma is identical for calls and puts.
func Gamma(spec models.ContractSpec) (float64, error) {
	res, err := CalculateBSM(spec, models.Call)
	return res.Greeks.Gamma, err
}

// Vega is identical for calls and puts and is reported per 1% volatility change.
func Vega(spec models.ContractSpec) (float64, error) {
	res, err := CalculateBSM(spec, models.Call)
	return res.Greeks.Vega, err
}

func Theta(spec models.ContractSpec, optionType models.OptionType) (float64, error) {
	res, err := CalculateBSM(spec, optionType)
	return res.Greeks.Theta, err
}

func Rho(spec models.ContractSpec, optionType models.OptionType) (float64, error) {
	res, err := CalculateBSM(spec, optionType)
	return res.Greeks.Rho, err
}

// rawVega is dPrice/dSigma without the per-1% scaling, used as the Newton derivative.
func rawVega(spec models.ContractSpec) float64 {
	if spec.TimeToExpiry <= 0 || spec.Volatility*math.Sqrt(spec.TimeToExpiry) <= 0 {
		return 0
	}
	d1, _ := calculateD1D2(spec)
	return spec.Spot * NormPDF(d1) * math.Sqrt(spec.TimeToExpiry)
}
