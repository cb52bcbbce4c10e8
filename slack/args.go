package pricerslack

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/akoiralaa/options-pricer/models"
	"github.com/akoiralaa/options-pricer/montecarlo"
)

const daysPerYear = 365.0

// parseContract reads "<call|put> <spot> <strike> <days> <rate> <last>" and
// returns the contract without volatility plus the last value, which is the
// volatility or, for /iv, the market price. Anything after the sixth field is
// returned as options.
func parseContract(args []string) (models.OptionType, models.ContractSpec, float64, []string, error) {
	if len(args) < 6 {
		return "", models.ContractSpec{}, 0, nil, fmt.Errorf("%w: expected 6 arguments, got %d", models.ErrInvalidInput, len(args))
	}
	optionType, err := models.ParseOptionType(args[0])
	if err != nil {
		return "", models.ContractSpec{}, 0, nil, err
	}

	var values [5]float64
	for i, arg := range args[1:6] {
		v, err := strconv.ParseFloat(arg, 64)
		if err != nil {
			return "", models.ContractSpec{}, 0, nil, fmt.Errorf("%w: %q is not a number", models.ErrInvalidInput, arg)
		}
		values[i] = v
	}

	spec := models.ContractSpec{
		Spot:         values[0],
		Strike:       values[1],
		TimeToExpiry: values[2] / daysPerYear,
		Rate:         values[3],
	}
	return optionType, spec, values[4], args[6:], nil
}

// parseOptions reads trailing key=value arguments.
func parseOptions(args []string) (map[string]string, error) {
	opts := make(map[string]string, len(args))
	for _, arg := range args {
		key, value, ok := strings.Cut(arg, "=")
		if !ok || key == "" || value == "" {
			return nil, fmt.Errorf("%w: expected key=value, got %q", models.ErrInvalidInput, arg)
		}
		opts[strings.ToLower(key)] = value
	}
	return opts, nil
}

// simulationSize is the path count, step count and seed requested through
// paths=, steps= and seed= options.
type simulationSize struct {
	numPaths int
	numSteps int
	seed     *uint64
}

func parseSimulationSize(opts map[string]string, defaults montecarlo.Config) (simulationSize, error) {
	size := simulationSize{numPaths: defaults.NumPaths, numSteps: defaults.NumSteps}
	if v, ok := opts["paths"]; ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return size, fmt.Errorf("%w: paths=%q is not an integer", models.ErrSimulationConfig, v)
		}
		size.numPaths = n
	}
	if v, ok := opts["steps"]; ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return size, fmt.Errorf("%w: steps=%q is not an integer", models.ErrSimulationConfig, v)
		}
		size.numSteps = n
	}
	if v, ok := opts["seed"]; ok {
		n, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return size, fmt.Errorf("%w: seed=%q is not a non-negative integer", models.ErrSimulationConfig, v)
		}
		size.seed = montecarlo.Seed(n)
	}
	switch {
	case size.numPaths > maxSlackPaths:
		return size, fmt.Errorf("%w: at most %d paths per request", models.ErrSimulationConfig, maxSlackPaths)
	case size.numSteps > maxSlackSteps:
		return size, fmt.Errorf("%w: at most %d steps per request", models.ErrSimulationConfig, maxSlackSteps)
	case int64(size.numPaths)*int64(size.numSteps) > maxSlackPathSteps:
		return size, fmt.Errorf("%w: at most %d paths x steps per request", models.ErrSimulationConfig, maxSlackPathSteps)
	}
	return size, nil
}

// Bounds on the work a single slash command can request.
const (
	maxSlackPaths     = 1000000
	maxSlackSteps     = 10000
	maxSlackPathSteps = 100000000
)

func codeBlock(s string) string {
	return "```\n" + strings.TrimRight(s, "\n") + "\n```"
}
