package montecarlo

import (
	"math"

	"golang.org/x/exp/rand"

	"github.com/akoiralaa/options-pricer/models"
)

// gbmStep advances a price by one exact lognormal step of risk-neutral
// geometric Brownian motion:
//
//	S(t+dt) = S(t) * exp((r - sigma^2/2)*dt + sigma*sqrt(dt)*Z)
type gbmStep struct {
	drift     float64
	diffusion float64
}

func newGBMStep(spec models.ContractSpec, numSteps int) gbmStep {
	dt := spec.TimeToExpiry / float64(numSteps)
	sigma := spec.Volatility
	return gbmStep{
		drift:     (spec.Rate - 0.5*sigma*sigma) * dt,
		diffusion: sigma * math.Sqrt(dt),
	}
}

func (g gbmStep) next(price float64, rng *rand.Rand) float64 {
	return price * math.Exp(g.drift+g.diffusion*rng.NormFloat64())
}

// walk generates one path of numSteps steps from spot, reporting every
// sampled price (spot included) to visit.
func (g gbmStep) walk(spot float64, numSteps int, rng *rand.Rand, visit func(float64)) {
	price := spot
	visit(price)
	for i := 0; i < numSteps; i++ {
		price = g.next(price, rng)
		visit(price)
	}
}
