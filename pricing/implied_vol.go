package pricing

import (
	"fmt"
	"math"

	"github.com/golang/glog"

	"github.com/akoiralaa/options-pricer/models"
)

const (
	machineEpsilon      = 2.220446049250313e-16
	minNewtonVega       = 1e-8
	maxNewtonVolatility = 100.0
)

type SolverConfig struct {
	Lower         float64 `yaml:"lower"`
	Upper         float64 `yaml:"upper"`
	// Tolerance bounds the sigma step. The price residual bound is
	// Tolerance scaled by min(1, observed price).
	Tolerance     float64 `yaml:"tolerance"`
	MaxIterations int     `yaml:"max_iterations"` // per phase
	InitialGuess  float64 `yaml:"initial_guess"`
}

func DefaultSolverConfig() SolverConfig {
	return SolverConfig{
		Lower:         1e-6,
		Upper:         5.0,
		Tolerance:     1e-6,
		MaxIterations: 100,
		InitialGuess:  0.2,
	}
}

// Solver recovers implied volatility with Brent's method on a fixed bracket,
// falling back to Newton-Raphson on vega when no bracket exists or Brent
// runs out of iterations.
type Solver struct {
	cfg SolverConfig
}

// NewSolver fills zero-valued fields of cfg from DefaultSolverConfig.
func NewSolver(cfg SolverConfig) (*Solver, error) {
	def := DefaultSolverConfig()
	if cfg.Lower == 0 {
		cfg.Lower = def.Lower
	}
	if cfg.Upper == 0 {
		cfg.Upper = def.Upper
	}
	if cfg.Tolerance == 0 {
		cfg.Tolerance = def.Tolerance
	}
	if cfg.MaxIterations == 0 {
		cfg.MaxIterations = def.MaxIterations
	}
	if cfg.InitialGuess == 0 {
		cfg.InitialGuess = def.InitialGuess
	}

	switch {
	case cfg.Lower <= 0 || cfg.Upper <= cfg.Lower:
		return nil, fmt.Errorf("%w: volatility bracket [%g, %g] must satisfy 0 < lower < upper", models.ErrInvalidInput, cfg.Lower, cfg.Upper)
	case cfg.Tolerance < 0:
		return nil, fmt.Errorf("%w: tolerance must be positive, got %g", models.ErrInvalidInput, cfg.Tolerance)
	case cfg.MaxIterations < 0:
		return nil, fmt.Errorf("%w: max iterations must be positive, got %d", models.ErrInvalidInput, cfg.MaxIterations)
	case cfg.InitialGuess < 0:
		return nil, fmt.Errorf("%w: initial guess must be positive, got %g", models.ErrInvalidInput, cfg.InitialGuess)
	}
	return &Solver{cfg: cfg}, nil
}

func (s *Solver) Config() SolverConfig {
	return s.cfg
}

// ImpliedVolatility solves with the default configuration.
func ImpliedVolatility(spec models.ContractSpec, observedPrice float64, optionType models.OptionType) (models.ImpliedVolResult, error) {
	s, _ := NewSolver(DefaultSolverConfig())
	return s.Solve(spec, observedPrice, optionType)
}

type solverState int

const (
	stateBracketing solverState = iota
	stateBrent
	stateNewton
	stateConverged
	stateFailed
)

func (s solverState) String() string {
	switch s {
	case stateBracketing:
		return "bracketing"
	case stateBrent:
		return "brent"
	case stateNewton:
		return "newton"
	case stateConverged:
		return "converged"
	case stateFailed:
		return "failed"
	}
	return "unknown"
}

// Solve finds sigma with CalculateBSM(spec with sigma).Price == observedPrice.
// spec.Volatility is ignored. When the solve fails the best estimate found is
// still returned, with Converged=false, together with ErrNoBracketFound or
// ErrMaxIterationsExceeded.
func (s *Solver) Solve(spec models.ContractSpec, observedPrice float64, optionType models.OptionType) (models.ImpliedVolResult, error) {
	spec = spec.WithVolatility(0)
	if err := validate(spec, optionType); err != nil {
		return models.ImpliedVolResult{}, err
	}
	if observedPrice < 0 || math.IsNaN(observedPrice) || math.IsInf(observedPrice, 0) {
		return models.ImpliedVolResult{}, fmt.Errorf("%w: observed price must be finite and non-negative, got %g", models.ErrInvalidInput, observedPrice)
	}

	run := &solveRun{
		spec:       spec,
		optionType: optionType,
		target:     observedPrice,
		priceTol:   s.cfg.Tolerance * math.Min(1, observedPrice),
		cfg:        s.cfg,
		sigma:      s.cfg.InitialGuess,
		best:       s.cfg.InitialGuess,
		bestAbs:    math.Inf(1),
		method:     models.MethodBrent,
	}

	state := stateBracketing
	for state != stateConverged && state != stateFailed {
		prev := state
		switch state {
		case stateBracketing:
			state = run.bracket()
		case stateBrent:
			state = run.brent()
		case stateNewton:
			state = run.newton()
		}
		glog.V(2).Infof("implied vol %s: %s -> %s (sigma=%g, iterations=%d)", optionType, prev, state, run.sigma, run.iterations)
	}

	if state == stateFailed {
		glog.Warningf("implied vol %s did not converge for price %g: %v (best sigma %g)", optionType, observedPrice, run.err, run.best)
		return models.ImpliedVolResult{
			Volatility: run.best,
			Iterations: run.iterations,
			Converged:  false,
			Method:     run.method,
		}, run.err
	}

	return models.ImpliedVolResult{
		Volatility: run.sigma,
		Iterations: run.iterations,
		Converged:  true,
		Method:     run.method,
	}, nil
}

// solveRun carries the state of one Solve call between state-machine steps.
type solveRun struct {
	spec       models.ContractSpec
	optionType models.OptionType
	target     float64
	priceTol   float64
	cfg        SolverConfig

	// lo/hi bracket a sign change of f whenever bracketed is set.
	bracketed bool
	lo, hi    float64
	fLo, fHi  float64

	sigma      float64
	best       float64
	bestAbs    float64
	iterations int
	method     models.SolverMethod
	err        error
}

// f is the pricing residual. Every evaluation also updates the best estimate.
func (r *solveRun) f(sigma float64) float64 {
	diff := calculateBSM(r.spec.WithVolatility(sigma), r.optionType).Price - r.target
	if abs := math.Abs(diff); abs < r.bestAbs {
		r.best, r.bestAbs = sigma, abs
	}
	return diff
}

// matches reports whether a residual is within tolerance of the observed
// price. The tolerance shrinks with prices below 1 so that a cheap option
// is not matched by sigma at the lower bound.
func (r *solveRun) matches(diff float64) bool {
	return diff == 0 || math.Abs(diff) < r.priceTol
}

func (r *solveRun) bracket() solverState {
	lo, hi := r.cfg.Lower, r.cfg.Upper
	fLo, fHi := r.f(lo), r.f(hi)

	switch {
	case r.matches(fLo):
		r.sigma = lo
		return stateConverged
	case r.matches(fHi):
		r.sigma = hi
		return stateConverged
	case (fLo < 0) != (fHi < 0):
		r.setBracket(lo, fLo, hi, fHi)
		return stateBrent
	}

	minPrice, maxPrice := priceBounds(r.spec, r.optionType)
	r.err = fmt.Errorf("%w: observed %s price %g is outside [%g, %g] reachable for volatility in [%g, %g] (arbitrage bounds [%g, %g))",
		models.ErrNoBracketFound, r.optionType, r.target, fLo+r.target, fHi+r.target, lo, hi, minPrice, maxPrice)
	r.sigma = r.cfg.InitialGuess
	return stateNewton
}

func (r *solveRun) setBracket(a, fa, b, fb float64) {
	if a > b {
		a, fa, b, fb = b, fb, a, fa
	}
	r.bracketed = true
	r.lo, r.fLo, r.hi, r.fHi = a, fa, b, fb
}

// narrow replaces the bracket endpoint that shares the sign of fx.
func (r *solveRun) narrow(x, fx float64) {
	if !r.bracketed || x <= r.lo || x >= r.hi {
		return
	}
	if (fx < 0) == (r.fLo < 0) {
		r.lo, r.fLo = x, fx
	} else {
		r.hi, r.fHi = x, fx
	}
}

// brent is the classic Brent-Dekker iteration: inverse quadratic
// interpolation or secant steps, falling back to bisection whenever the
// interpolated step would leave the bracket or shrink it too slowly.
func (r *solveRun) brent() solverState {
	r.method = models.MethodBrent
	tol := r.cfg.Tolerance

	a, b, c := r.lo, r.hi, r.hi
	fa, fb, fc := r.fLo, r.fHi, r.fHi
	var d, e float64

	for i := 0; i < r.cfg.MaxIterations; i++ {
		r.iterations++

		if (fb > 0 && fc > 0) || (fb < 0 && fc < 0) {
			c, fc = a, fa
			d = b - a
			e = d
		}
		if math.Abs(fc) < math.Abs(fb) {
			a, b, c = b, c, b
			fa, fb, fc = fb, fc, fb
		}

		tol1 := 2*machineEpsilon*math.Abs(b) + 0.5*tol
		xm := 0.5 * (c - b)
		if r.matches(fb) || math.Abs(xm) <= tol1 {
			r.sigma = b
			return stateConverged
		}

		if math.Abs(e) >= tol1 && math.Abs(fa) > math.Abs(fb) {
			s := fb / fa
			var p, q float64
			if a == c {
				p = 2 * xm * s
				q = 1 - s
			} else {
				q = fa / fc
				t := fb / fc
				p = s * (2*xm*q*(q-t) - (b-a)*(t-1))
				q = (q - 1) * (t - 1) * (s - 1)
			}
			if p > 0 {
				q = -q
			}
			p = math.Abs(p)
			if 2*p < math.Min(3*xm*q-math.Abs(tol1*q), math.Abs(e*q)) {
				e = d
				d = p / q
			} else {
				d = xm
				e = d
			}
		} else {
			d = xm
			e = d
		}

		a, fa = b, fb
		if math.Abs(d) > tol1 {
			b += d
		} else {
			b += math.Copysign(tol1, xm)
		}
		fb = r.f(b)
	}

	r.setBracket(b, fb, c, fc)
	r.sigma = b
	glog.V(1).Infof("brent exhausted %d iterations for %s price %g, handing over to newton at sigma=%g", r.cfg.MaxIterations, r.optionType, r.target, b)
	return stateNewton
}

// newton iterates sigma -= f/vega. A step that would divide by a vanishing
// vega or leave the known bracket is replaced by a bisection of the bracket;
// without a bracket such a step is a stall and the run fails.
func (r *solveRun) newton() solverState {
	r.method = models.MethodNewton
	tol := r.cfg.Tolerance

	sigma := r.sigma
	if sigma <= 0 {
		sigma = r.cfg.InitialGuess
	}
	prevSigma, prevDiff := math.NaN(), math.NaN()

	for i := 0; i < r.cfg.MaxIterations; i++ {
		r.iterations++

		diff := r.f(sigma)
		if r.matches(diff) {
			r.sigma = sigma
			return stateConverged
		}

		if r.bracketed {
			r.narrow(sigma, diff)
		} else if !math.IsNaN(prevDiff) && (diff < 0) != (prevDiff < 0) {
			r.setBracket(prevSigma, prevDiff, sigma, diff)
			glog.V(2).Infof("newton found a bracket [%g, %g] outside the search interval", r.lo, r.hi)
		}
		prevSigma, prevDiff = sigma, diff

		vega := rawVega(r.spec.WithVolatility(sigma))
		next := math.NaN()
		if vega > minNewtonVega {
			next = sigma - diff/vega
		}

		if !r.bracketed && next <= 0 {
			next = sigma / 2
		}
		stalled := math.IsNaN(next) || math.IsInf(next, 0) || next > maxNewtonVolatility ||
			(r.bracketed && (next <= r.lo || next >= r.hi))
		if stalled {
			if !r.bracketed {
				r.sigma = sigma
				if r.err == nil {
					r.err = fmt.Errorf("%w: newton stalled at sigma=%g with vega %g", models.ErrMaxIterationsExceeded, sigma, vega)
				}
				return stateFailed
			}
			next = 0.5 * (r.lo + r.hi)
		}

		if r.bracketed && math.Abs(next-sigma) < tol {
			r.sigma = next
			r.f(next)
			return stateConverged
		}
		sigma = next
	}

	r.sigma = sigma
	if r.err == nil {
		r.err = fmt.Errorf("%w: %d newton iterations, best sigma %g with price error %g", models.ErrMaxIterationsExceeded, r.cfg.MaxIterations, r.best, r.bestAbs)
	}
	return stateFailed
}
