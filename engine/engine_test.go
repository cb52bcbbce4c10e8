package engine

import (
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akoiralaa/options-pricer/config"
	"github.com/akoiralaa/options-pricer/models"
	"github.com/akoiralaa/options-pricer/montecarlo"
)

var referenceSpec = models.ContractSpec{
	Spot:         100,
	Strike:       100,
	TimeToExpiry: 30.0 / 365,
	Rate:         0.05,
	Volatility:   0.2,
}

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	e, err := New(config.Default())
	require.NoError(t, err)
	return e
}

func TestNewRejectsBadSolverConfig(t *testing.T) {
	cfg := config.Default()
	cfg.ImpliedVol.Lower = 10
	_, err := New(cfg)
	assert.ErrorIs(t, err, models.ErrInvalidInput)

	e, err := New(nil)
	require.NoError(t, err)
	assert.Equal(t, montecarlo.DefaultNumPaths, e.SimulationDefaults().NumPaths)
}

func TestPriceEuropean(t *testing.T) {
	e := newTestEngine(t)

	res, err := e.PriceEuropean(referenceSpec, models.Call)
	require.NoError(t, err)
	assert.InDelta(t, 2.4934, res.Price, 5e-4)

	_, err = e.PriceEuropean(models.ContractSpec{Spot: -1, Strike: 100, TimeToExpiry: 1}, models.Call)
	assert.ErrorIs(t, err, models.ErrInvalidInput)
}

func TestImpliedVolatilityRoundTrip(t *testing.T) {
	e := newTestEngine(t)

	price, err := e.PriceEuropean(referenceSpec, models.Put)
	require.NoError(t, err)

	res, err := e.ImpliedVolatility(referenceSpec.WithVolatility(0), price.Price, models.Put)
	require.NoError(t, err)
	assert.True(t, res.Converged)
	assert.InDelta(t, 0.2, res.Volatility, 1e-4)

	res, err = e.ImpliedVolatility(referenceSpec, 500, models.Call)
	assert.ErrorIs(t, err, models.ErrNoBracketFound)
	assert.False(t, res.Converged)
}

func TestSimulateExotic(t *testing.T) {
	e := newTestEngine(t)
	payoff := models.PayoffSpec{Type: models.PayoffAsian, OptionType: models.Call}

	first, err := e.SimulateExotic(referenceSpec, payoff, 20000, 30, montecarlo.Seed(42))
	require.NoError(t, err)
	second, err := e.SimulateExotic(referenceSpec, payoff, 20000, 30, montecarlo.Seed(42))
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 20000, first.NumPaths)
	assert.Greater(t, first.Price, 0.0)

	_, err = e.SimulateExotic(referenceSpec, payoff, 0, 30, nil)
	assert.ErrorIs(t, err, models.ErrSimulationConfig)
}

func TestSimulateExoticUsesConfiguredSeed(t *testing.T) {
	cfg := config.Default()
	cfg.Simulation.Seed = montecarlo.Seed(99)
	e, err := New(cfg)
	require.NoError(t, err)

	payoff := models.PayoffSpec{Type: models.PayoffLookback, OptionType: models.Put}
	configured, err := e.SimulateExotic(referenceSpec, payoff, 5000, 20, nil)
	require.NoError(t, err)
	explicit, err := e.SimulateExotic(referenceSpec, payoff, 5000, 20, montecarlo.Seed(99))
	require.NoError(t, err)
	assert.Equal(t, explicit, configured)
}

func TestSimulateExoticProgress(t *testing.T) {
	e := newTestEngine(t)

	last := 0
	_, err := e.SimulateExoticWithProgress(referenceSpec, models.PayoffSpec{Type: models.PayoffEuropean, OptionType: models.Call},
		10000, 5, montecarlo.Seed(1), func(completed int) { last = completed })
	require.NoError(t, err)
	assert.Equal(t, 10000, last)
}

func TestCompareMethods(t *testing.T) {
	e := newTestEngine(t)

	for _, optionType := range []models.OptionType{models.Call, models.Put} {
		cmp, err := e.CompareMethods(referenceSpec, optionType, 100000, 10, montecarlo.Seed(42))
		require.NoError(t, err)

		assert.InDelta(t, cmp.Analytic.Price, cmp.MonteCarlo.Price, 4*cmp.MonteCarlo.StandardError)
		assert.InDelta(t, cmp.AbsoluteDifference/cmp.Analytic.Price*100, cmp.RelativeDifference, 1e-12)
		assert.Equal(t, cmp.MonteCarlo.ConfidenceInterval.Contains(cmp.Analytic.Price), cmp.WithinConfidence)
		assert.Less(t, cmp.RelativeDifference, 5.0)
	}

	_, err := e.CompareMethods(referenceSpec, models.Call, 100, 0, nil)
	assert.ErrorIs(t, err, models.ErrSimulationConfig)
}

func TestCompareMethodsWorthlessOption(t *testing.T) {
	e := newTestEngine(t)
	spec := referenceSpec
	spec.TimeToExpiry = 0

	cmp, err := e.CompareMethods(spec, models.Call, 1000, 5, montecarlo.Seed(1))
	require.NoError(t, err)
	assert.Zero(t, cmp.Analytic.Price)
	assert.Zero(t, cmp.MonteCarlo.Price)
	assert.Zero(t, cmp.RelativeDifference)
	assert.True(t, cmp.WithinConfidence)
}

func TestHigherOrderGreeks(t *testing.T) {
	e := newTestEngine(t)
	res, err := e.HigherOrderGreeks(referenceSpec, models.Call)
	require.NoError(t, err)
	assert.Greater(t, res.ShadowUpGamma, 0.0)
	assert.Greater(t, res.ShadowDownGamma, 0.0)
}

func TestPriceLadder(t *testing.T) {
	e := newTestEngine(t)
	strikes := []float64{120, 80, 100, 90, 110}

	var done int32
	rows, err := e.PriceLadder(referenceSpec, strikes, 3, func() { atomic.AddInt32(&done, 1) })
	require.NoError(t, err)
	require.Len(t, rows, len(strikes))
	assert.Equal(t, int32(len(strikes)), atomic.LoadInt32(&done))

	for i, row := range rows {
		if i > 0 {
			assert.Less(t, rows[i-1].Strike, row.Strike)
			// Calls lose and puts gain value as the strike rises.
			assert.Less(t, row.Call.Price, rows[i-1].Call.Price)
			assert.Greater(t, row.Put.Price, rows[i-1].Put.Price)
		}

		spec := referenceSpec
		spec.Strike = row.Strike
		want, err := e.PriceEuropean(spec, models.Call)
		require.NoError(t, err)
		assert.Equal(t, want, row.Call)
		assert.Nil(t, row.CallImpliedVol)
	}
}

func TestPriceQuotedLadder(t *testing.T) {
	e := newTestEngine(t)
	strikes := []float64{95, 100, 105}

	quotes := make([]float64, len(strikes))
	for i, strike := range strikes {
		spec := referenceSpec.WithVolatility(0.3)
		spec.Strike = strike
		res, err := e.PriceEuropean(spec, models.Call)
		require.NoError(t, err)
		quotes[i] = res.Price
	}

	rows, err := e.PriceQuotedLadder(referenceSpec, strikes, quotes, 0, nil)
	require.NoError(t, err)
	for _, row := range rows {
		require.NotNil(t, row.CallImpliedVol)
		assert.True(t, row.CallImpliedVol.Converged)
		assert.InDelta(t, 0.3, row.CallImpliedVol.Volatility, 1e-4)
	}

	_, err = e.PriceQuotedLadder(referenceSpec, strikes, quotes[:1], 0, nil)
	assert.ErrorIs(t, err, models.ErrInvalidInput)
}

func TestPriceQuotedLadderKeepsSolveErrors(t *testing.T) {
	e := newTestEngine(t)
	// A call quoted above spot has no implied volatility.
	rows, err := e.PriceQuotedLadder(referenceSpec, []float64{100, 105}, []float64{150, 2}, 0, nil)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	failed := rows[0]
	require.NotNil(t, failed.CallImpliedVol)
	assert.False(t, failed.CallImpliedVol.Converged)
	assert.Contains(t, failed.CallImpliedVolError, models.ErrNoBracketFound.Error())
	assert.Contains(t, FormatLadder(rows), models.ErrNoBracketFound.Error())

	ok := rows[1]
	require.NotNil(t, ok.CallImpliedVol)
	assert.True(t, ok.CallImpliedVol.Converged)
	assert.Empty(t, ok.CallImpliedVolError)
}

func TestPriceLadderErrors(t *testing.T) {
	e := newTestEngine(t)

	_, err := e.PriceLadder(referenceSpec, nil, 2, nil)
	assert.ErrorIs(t, err, models.ErrInvalidInput)

	_, err = e.PriceLadder(referenceSpec, []float64{100, -5, 110}, 2, nil)
	assert.ErrorIs(t, err, models.ErrInvalidInput)
}
