package montecarlo

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/akoiralaa/options-pricer/models"
)

// accumulator is a Welford running mean/variance over payoffs.
type accumulator struct {
	n    int
	mean float64
	m2   float64
}

func (a *accumulator) add(x float64) {
	a.n++
	d := x - a.mean
	a.mean += d / float64(a.n)
	a.m2 += d * (x - a.mean)
}

// merge folds b into a using the pairwise update of Chan et al. Merging the
// same accumulators in the same order always gives the same bits.
func (a *accumulator) merge(b accumulator) {
	switch {
	case b.n == 0:
		return
	case a.n == 0:
		*a = b
		return
	}
	n := a.n + b.n
	d := b.mean - a.mean
	a.mean += d * float64(b.n) / float64(n)
	a.m2 += b.m2 + d*d*float64(a.n)*float64(b.n)/float64(n)
	a.n = n
}

// variance is the unbiased (n-1) sample variance.
func (a accumulator) variance() float64 {
	if a.n < 2 {
		return 0
	}
	return math.Max(a.m2/float64(a.n-1), 0)
}

// zScore is the two-sided standard normal critical value for level,
// e.g. 1.959964 for 0.95.
func zScore(level float64) float64 {
	return distuv.UnitNormal.Quantile(0.5 + level/2)
}

// result discounts the mean payoff and derives the standard error and
// confidence interval of the discounted estimate.
func (a accumulator) result(discount, level float64) models.SimulationResult {
	price := discount * a.mean
	stdErr := 0.0
	if a.n > 0 {
		stdErr = discount * math.Sqrt(a.variance()/float64(a.n))
	}
	half := zScore(level) * stdErr
	return models.SimulationResult{
		Price:         price,
		StandardError: stdErr,
		ConfidenceInterval: models.ConfidenceInterval{
			Low:  price - half,
			High: price + half,
		},
		ConfidenceLevel: level,
		NumPaths:        a.n,
	}
}
