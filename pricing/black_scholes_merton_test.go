package pricing

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akoiralaa/options-pricer/models"
)

var referenceSpec = models.ContractSpec{
	Spot:         100,
	Strike:       100,
	TimeToExpiry: 30.0 / 365,
	Rate:         0.05,
	Volatility:   0.2,
}

func TestNormCDF(t *testing.T) {
	assert.Equal(t, 0.5, NormCDF(0))
	assert.InDelta(t, 0.9750021048517795, NormCDF(1.96), 1e-12)
	assert.InDelta(t, 0.0249978951482205, NormCDF(-1.96), 1e-12)
	assert.InDelta(t, 0.3989422804014327, NormPDF(0), 1e-15)

	for _, x := range []float64{0.1, 0.5, 1, 2.5, 5, 9.5} {
		assert.InDelta(t, 1, NormCDF(x)+NormCDF(-x), 1e-15, "symmetry at %g", x)
	}
	assert.Equal(t, 1.0, NormCDF(40))
	assert.Equal(t, 0.0, NormCDF(-40))
}

func TestCalculateBSMReferenceContract(t *testing.T) {
	call, err := CalculateBSM(referenceSpec, models.Call)
	require.NoError(t, err)
	assert.Equal(t, models.Call, call.OptionType)
	assert.InDelta(t, 2.4934, call.Price, 5e-4)
	assert.InDelta(t, 2.4933768194037285, call.Price, 1e-9)

	assert.InDelta(t, 0.5399635456230846, call.Greeks.Delta, 1e-9)
	assert.InDelta(t, 0.06922764046846869, call.Greeks.Gamma, 1e-9)
	assert.InDelta(t, 0.1137988610440581, call.Greeks.Vega, 1e-9)
	assert.InDelta(t, -0.044988156111887605, call.Greeks.Theta, 1e-9)
	assert.InDelta(t, 0.04233121458320936, call.Greeks.Rho, 1e-9)

	put, err := CalculateBSM(referenceSpec, models.Put)
	require.NoError(t, err)
	assert.InDelta(t, 2.08326119582415, put.Price, 1e-9)
	assert.InDelta(t, -0.4600364543769154, put.Greeks.Delta, 1e-9)
	assert.Equal(t, call.Greeks.Gamma, put.Greeks.Gamma)
	assert.Equal(t, call.Greeks.Vega, put.Greeks.Vega)
	assert.InDelta(t, -0.03134570619730946, put.Greeks.Theta, 1e-9)
	assert.InDelta(t, -0.03952348490425949, put.Greeks.Rho, 1e-9)
}

func TestPutCallParity(t *testing.T) {
	for _, spot := range []float64{50, 90, 100, 110, 200} {
		for _, strike := range []float64{60, 100, 140} {
			for _, T := range []float64{1.0 / 365, 0.25, 1, 5} {
				for _, vol := range []float64{0.01, 0.2, 0.6, 1.5} {
					for _, rate := range []float64{-0.01, 0, 0.05} {
						spec := models.ContractSpec{Spot: spot, Strike: strike, TimeToExpiry: T, Rate: rate, Volatility: vol}
						call, err := CallPrice(spec)
						require.NoError(t, err)
						put, err := PutPrice(spec)
						require.NoError(t, err)

						assert.GreaterOrEqual(t, call, 0.0)
						assert.GreaterOrEqual(t, put, 0.0)
						parity := spot - strike*math.Exp(-rate*T)
						assert.InDelta(t, parity, call-put, 1e-8, "%+v", spec)
					}
				}
			}
		}
	}
}

func TestPriceMonotonicity(t *testing.T) {
	for _, optionType := range []models.OptionType{models.Call, models.Put} {
		prev := -1.0
		for vol := 0.05; vol <= 2.0; vol += 0.05 {
			p, err := Price(referenceSpec.WithVolatility(vol), optionType)
			require.NoError(t, err)
			assert.Greater(t, p, prev, "%s price must increase with volatility (vol=%g)", optionType, vol)
			prev = p
		}
	}

	// With r >= 0 a call gains value with time.
	prev := -1.0
	for days := 1; days <= 720; days += 7 {
		spec := referenceSpec
		spec.TimeToExpiry = float64(days) / 365
		p, err := CallPrice(spec)
		require.NoError(t, err)
		assert.Greater(t, p, prev, "call price must increase with time (days=%d)", days)
		prev = p
	}
}

func TestCalculateBSMAtExpiry(t *testing.T) {
	spec := referenceSpec
	spec.TimeToExpiry = 0

	cases := []struct {
		spot       float64
		optionType models.OptionType
		price      float64
		delta      float64
	}{
		{110, models.Call, 10, 1},
		{90, models.Call, 0, 0},
		{100, models.Call, 0, 0.5},
		{110, models.Put, 0, 0},
		{90, models.Put, 10, -1},
		{100, models.Put, 0, -0.5},
	}
	for _, c := range cases {
		s := spec
		s.Spot = c.spot
		res, err := CalculateBSM(s, c.optionType)
		require.NoError(t, err)
		assert.Equal(t, c.price, res.Price, "%s at spot %g", c.optionType, c.spot)
		assert.Equal(t, c.delta, res.Greeks.Delta, "%s at spot %g", c.optionType, c.spot)
		assert.Zero(t, res.Greeks.Gamma)
		assert.Zero(t, res.Greeks.Vega)
		assert.Zero(t, res.Greeks.Theta)
		assert.Zero(t, res.Greeks.Rho)
	}
}

func TestCalculateBSMZeroVolatility(t *testing.T) {
	spec := referenceSpec.WithVolatility(0)
	discount := math.Exp(-spec.Rate * spec.TimeToExpiry)

	// Spot 100 against a discounted strike of about 99.59: in the money for
	// the call even though spot == strike.
	call, err := CalculateBSM(spec, models.Call)
	require.NoError(t, err)
	assert.InDelta(t, 100-100*discount, call.Price, 1e-12)
	assert.Equal(t, 1.0, call.Greeks.Delta)
	assert.Zero(t, call.Greeks.Gamma)
	assert.Zero(t, call.Greeks.Vega)
	assert.InDelta(t, -spec.Rate*100*discount/365, call.Greeks.Theta, 1e-12)
	assert.InDelta(t, 100*spec.TimeToExpiry*discount/100, call.Greeks.Rho, 1e-12)

	put, err := CalculateBSM(spec, models.Put)
	require.NoError(t, err)
	assert.Zero(t, put.Price)
	assert.Equal(t, 0.0, put.Greeks.Delta)
	assert.Zero(t, put.Greeks.Theta)
	assert.Zero(t, put.Greeks.Rho)

	// The sigma->0 limit agrees with a tiny positive volatility.
	tiny, err := CalculateBSM(referenceSpec.WithVolatility(1e-6), models.Call)
	require.NoError(t, err)
	assert.InDelta(t, tiny.Price, call.Price, 1e-8)
	assert.InDelta(t, tiny.Greeks.Delta, call.Greeks.Delta, 1e-8)
	assert.InDelta(t, tiny.Greeks.Theta, call.Greeks.Theta, 1e-8)
	assert.InDelta(t, tiny.Greeks.Rho, call.Greeks.Rho, 1e-8)

	otm := spec
	otm.Strike = 120
	res, err := CalculateBSM(otm, models.Put)
	require.NoError(t, err)
	assert.InDelta(t, 120*discount-100, res.Price, 1e-12)
	assert.Equal(t, -1.0, res.Greeks.Delta)
}

func TestCalculateBSMVolatilityUnderflow(t *testing.T) {
	// 5e-324 * sqrt(1e-10) rounds to zero.
	spec := models.ContractSpec{Spot: 100, Strike: 100, TimeToExpiry: 1e-10, Rate: 0, Volatility: 5e-324}

	for _, optionType := range []models.OptionType{models.Call, models.Put} {
		res, err := CalculateBSM(spec, optionType)
		require.NoError(t, err)
		for name, v := range map[string]float64{
			"price": res.Price,
			"delta": res.Greeks.Delta,
			"gamma": res.Greeks.Gamma,
			"vega":  res.Greeks.Vega,
			"theta": res.Greeks.Theta,
			"rho":   res.Greeks.Rho,
		} {
			assert.False(t, math.IsNaN(v), "%s %s is NaN", optionType, name)
		}
		assert.Zero(t, res.Price)
	}

	delta, err := Delta(spec, models.Call)
	require.NoError(t, err)
	assert.Equal(t, 0.5, delta)
}

func TestGreekAccessorsMatchCalculateBSM(t *testing.T) {
	for _, optionType := range []models.OptionType{models.Call, models.Put} {
		res, err := CalculateBSM(referenceSpec, optionType)
		require.NoError(t, err)

		delta, err := Delta(referenceSpec, optionType)
		require.NoError(t, err)
		assert.Equal(t, res.Greeks.Delta, delta)

		theta, err := Theta(referenceSpec, optionType)
		require.NoError(t, err)
		assert.Equal(t, res.Greeks.Theta, theta)

		rho, err := Rho(referenceSpec, optionType)
		require.NoError(t, err)
		assert.Equal(t, res.Greeks.Rho, rho)

		gamma, err := Gamma(referenceSpec)
		require.NoError(t, err)
		assert.Equal(t, res.Greeks.Gamma, gamma)

		vega, err := Vega(referenceSpec)
		require.NoError(t, err)
		assert.Equal(t, res.Greeks.Vega, vega)
	}

	bad := referenceSpec
	bad.Strike = -1
	_, err := Delta(bad, models.Call)
	assert.ErrorIs(t, err, models.ErrInvalidInput)
	_, err = Theta(bad, models.Put)
	assert.ErrorIs(t, err, models.ErrInvalidInput)
	_, err = Rho(bad, models.Call)
	assert.ErrorIs(t, err, models.ErrInvalidInput)
}

func TestGreeksMatchFiniteDifferences(t *testing.T) {
	spec := models.ContractSpec{Spot: 105, Strike: 100, TimeToExpiry: 0.5, Rate: 0.03, Volatility: 0.3}
	const h = 1e-4

	for _, optionType := range []models.OptionType{models.Call, models.Put} {
		res, err := CalculateBSM(spec, optionType)
		require.NoError(t, err)

		price := func(s models.ContractSpec) float64 {
			p, err := Price(s, optionType)
			require.NoError(t, err)
			return p
		}

		up, down := spec, spec
		up.Spot += h
		down.Spot -= h
		assert.InDelta(t, (price(up)-price(down))/(2*h), res.Greeks.Delta, 1e-6, "%s delta", optionType)
		assert.InDelta(t, (price(up)-2*price(spec)+price(down))/(h*h), res.Greeks.Gamma, 1e-3, "%s gamma", optionType)

		up, down = spec, spec
		up.Volatility += h
		down.Volatility -= h
		assert.InDelta(t, (price(up)-price(down))/(2*h)/100, res.Greeks.Vega, 1e-7, "%s vega per 1%%", optionType)

		up, down = spec, spec
		up.Rate += h
		down.Rate -= h
		assert.InDelta(t, (price(up)-price(down))/(2*h)/100, res.Greeks.Rho, 1e-7, "%s rho per 1%%", optionType)

		// Theta is the decay as calendar time passes, i.e. -dV/dT per day.
		up, down = spec, spec
		up.TimeToExpiry += h
		down.TimeToExpiry -= h
		assert.InDelta(t, -(price(up)-price(down))/(2*h)/365, res.Greeks.Theta, 1e-7, "%s theta per day", optionType)
	}
}

func TestCalculateBSMInvalidInput(t *testing.T) {
	cases := map[string]models.ContractSpec{
		"zero spot":      {Spot: 0, Strike: 100, TimeToExpiry: 1, Rate: 0.05, Volatility: 0.2},
		"negative spot":  {Spot: -1, Strike: 100, TimeToExpiry: 1, Rate: 0.05, Volatility: 0.2},
		"zero strike":    {Spot: 100, Strike: 0, TimeToExpiry: 1, Rate: 0.05, Volatility: 0.2},
		"negative time":  {Spot: 100, Strike: 100, TimeToExpiry: -1, Rate: 0.05, Volatility: 0.2},
		"negative vol":   {Spot: 100, Strike: 100, TimeToExpiry: 1, Rate: 0.05, Volatility: -0.2},
		"nan volatility": {Spot: 100, Strike: 100, TimeToExpiry: 1, Rate: 0.05, Volatility: math.NaN()},
	}
	for name, spec := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := CalculateBSM(spec, models.Call)
			assert.ErrorIs(t, err, models.ErrInvalidInput)
		})
	}

	_, err := CalculateBSM(referenceSpec, models.OptionType("straddle"))
	assert.ErrorIs(t, err, models.ErrInvalidInput)
}

func TestIntrinsicValueAndBounds(t *testing.T) {
	spec := referenceSpec
	spec.Spot = 120
	assert.Equal(t, 20.0, IntrinsicValue(spec, models.Call))
	assert.Equal(t, 0.0, IntrinsicValue(spec, models.Put))

	for _, optionType := range []models.OptionType{models.Call, models.Put} {
		lo, hi := priceBounds(referenceSpec, optionType)
		p, err := Price(referenceSpec, optionType)
		require.NoError(t, err)
		assert.Less(t, lo, p)
		assert.Less(t, p, hi)
	}
}
