package engine

import (
	"fmt"
	"math"

	"github.com/golang/glog"

	"github.com/akoiralaa/options-pricer/config"
	"github.com/akoiralaa/options-pricer/models"
	"github.com/akoiralaa/options-pricer/montecarlo"
	"github.com/akoiralaa/options-pricer/pricing"
)

// Engine is the entry point used by the CLI and the Slack bot. It carries
// the configured solver and simulation defaults; it holds no per-call state
// and is safe for concurrent use.
type Engine struct {
	solver     *pricing.Solver
	simulation montecarlo.Config
}

func New(cfg *config.Config) (*Engine, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	solver, err := pricing.NewSolver(cfg.ImpliedVol)
	if err != nil {
		return nil, err
	}
	return &Engine{
		solver:     solver,
		simulation: cfg.Simulation.MonteCarlo(),
	}, nil
}

// SimulationDefaults returns the configured Monte Carlo settings.
func (e *Engine) SimulationDefaults() montecarlo.Config {
	return e.simulation
}

func (e *Engine) PriceEuropean(spec models.ContractSpec, optionType models.OptionType) (models.BSMResult, error) {
	res, err := pricing.CalculateBSM(spec, optionType)
	if err != nil {
		return models.BSMResult{}, err
	}
	glog.V(1).Infof("bsm %s S=%g K=%g T=%g r=%g vol=%g -> %g", optionType, spec.Spot, spec.Strike, spec.TimeToExpiry, spec.Rate, spec.Volatility, res.Price)
	return res, nil
}

func (e *Engine) HigherOrderGreeks(spec models.ContractSpec, optionType models.OptionType) (models.HigherOrderGreeks, error) {
	return pricing.CalculateHigherOrder(spec, optionType)
}

// ImpliedVolatility ignores spec.Volatility. A failed solve returns the best
// estimate with Converged=false alongside the error.
func (e *Engine) ImpliedVolatility(spec models.ContractSpec, observedPrice float64, optionType models.OptionType) (models.ImpliedVolResult, error) {
	res, err := e.solver.Solve(spec, observedPrice, optionType)
	if err == nil {
		glog.V(1).Infof("implied vol %s price=%g -> %g via %s in %d iterations", optionType, observedPrice, res.Volatility, res.Method, res.Iterations)
	}
	return res, err
}

// SimulateExotic prices a payoff by Monte Carlo with the given path and
// step counts. A nil seed uses the configured seed, if any.
func (e *Engine) SimulateExotic(spec models.ContractSpec, payoff models.PayoffSpec, numPaths, numSteps int, seed *uint64) (models.SimulationResult, error) {
	return e.SimulateExoticWithProgress(spec, payoff, numPaths, numSteps, seed, nil)
}

// SimulateExoticWithProgress is SimulateExotic reporting completed paths to
// progress after every chunk.
func (e *Engine) SimulateExoticWithProgress(spec models.ContractSpec, payoff models.PayoffSpec, numPaths, numSteps int, seed *uint64, progress func(int)) (models.SimulationResult, error) {
	cfg := e.simulation
	cfg.NumPaths = numPaths
	cfg.NumSteps = numSteps
	if seed != nil {
		cfg.Seed = seed
	}
	cfg.Progress = progress

	res, err := montecarlo.Price(spec, payoff, cfg)
	if err != nil {
		return models.SimulationResult{}, err
	}
	glog.V(1).Infof("monte carlo %s %s: %d paths x %d steps -> %g +/- %g", payoff.Type, payoff.OptionType, numPaths, numSteps, res.Price, res.StandardError)
	return res, nil
}

// Comparison sets the analytic price of a European option against its
// Monte Carlo estimate.
type Comparison struct {
	Analytic           models.BSMResult        `json:"analytic"`
	MonteCarlo         models.SimulationResult `json:"monte_carlo"`
	AbsoluteDifference float64                 `json:"absolute_difference"`
	// RelativeDifference is in percent of the analytic price; zero when the
	// analytic price is zero.
	RelativeDifference float64 `json:"relative_difference_pct"`
	WithinConfidence   bool    `json:"within_confidence_interval"`
}

func (e *Engine) CompareMethods(spec models.ContractSpec, optionType models.OptionType, numPaths, numSteps int, seed *uint64) (Comparison, error) {
	return e.CompareMethodsWithProgress(spec, optionType, numPaths, numSteps, seed, nil)
}

func (e *Engine) CompareMethodsWithProgress(spec models.ContractSpec, optionType models.OptionType, numPaths, numSteps int, seed *uint64, progress func(int)) (Comparison, error) {
	analytic, err := e.PriceEuropean(spec, optionType)
	if err != nil {
		return Comparison{}, err
	}
	mc, err := e.SimulateExoticWithProgress(spec, models.PayoffSpec{Type: models.PayoffEuropean, OptionType: optionType}, numPaths, numSteps, seed, progress)
	if err != nil {
		return Comparison{}, fmt.Errorf("monte carlo: %w", err)
	}

	diff := math.Abs(analytic.Price - mc.Price)
	cmp := Comparison{
		Analytic:           analytic,
		MonteCarlo:         mc,
		AbsoluteDifference: diff,
		WithinConfidence:   mc.ConfidenceInterval.Contains(analytic.Price),
	}
	if analytic.Price != 0 {
		cmp.RelativeDifference = diff / analytic.Price * 100
	}
	if !cmp.WithinConfidence {
		glog.Warningf("analytic %s price %g outside the %.0f%% Monte Carlo interval [%g, %g]",
			optionType, analytic.Price, mc.ConfidenceLevel*100, mc.ConfidenceInterval.Low, mc.ConfidenceInterval.High)
	}
	return cmp, nil
}
