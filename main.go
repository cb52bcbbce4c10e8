package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/golang/glog"
	"github.com/joho/godotenv"
	mpb "github.com/vbauerster/mpb/v7"
	"github.com/vbauerster/mpb/v7/decor"
	"github.com/xhhuango/json"

	"github.com/akoiralaa/options-pricer/config"
	"github.com/akoiralaa/options-pricer/engine"
	"github.com/akoiralaa/options-pricer/models"
	"github.com/akoiralaa/options-pricer/montecarlo"
	pricerslack "github.com/akoiralaa/options-pricer/slack"
)

const daysPerYear = 365.0

var (
	configPath = flag.String("config", "", "optional YAML config file")
	mode       = flag.String("mode", "price", "price, iv, exotic, compare, ladder or slack")

	spot        = flag.Float64("spot", 100, "spot price of the underlying")
	strike      = flag.Float64("strike", 100, "strike price")
	days        = flag.Float64("days", 30, "calendar days to expiry")
	rate        = flag.Float64("rate", 0.05, "continuously compounded risk-free rate, decimal")
	vol         = flag.Float64("vol", 0.2, "volatility, decimal")
	optionType  = flag.String("type", "call", "call or put")
	marketPrice = flag.Float64("market-price", 0, "observed option price for -mode iv")

	payoffType       = flag.String("payoff", "asian", "european, asian, barrier or lookback")
	barrierLevel     = flag.Float64("barrier", 0, "barrier level (default 110% of spot)")
	barrierKind      = flag.String("barrier-kind", "knock_out", "knock_out or knock_in")
	barrierDirection = flag.String("barrier-direction", "", "up or down (default: inferred from spot)")
	numPaths         = flag.Int("paths", 0, "Monte Carlo paths (default from config)")
	numSteps         = flag.Int("steps", 0, "time steps per path (default from config)")
	seed             = flag.Int64("seed", -1, "Monte Carlo seed, negative for config or clock")

	strikes = flag.String("strikes", "80,90,95,100,105,110,120", "comma separated strikes for -mode ladder")
	quotes  = flag.String("quotes", "", "comma separated call quotes matching -strikes")

	jsonOutput = flag.Bool("json", false, "print results as JSON")
	noProgress = flag.Bool("no-progress", false, "hide the Monte Carlo progress bar")
	slackDebug = flag.Bool("slack-debug", false, "verbose socket mode logging")
)

func main() {
	flag.Parse()
	defer glog.Flush()

	if err := godotenv.Load(); err != nil {
		glog.V(1).Infof("no .env loaded: %v", err)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		glog.Exitf("Error loading config: %v", err)
	}
	eng, err := engine.New(cfg)
	if err != nil {
		glog.Exitf("Error creating engine: %v", err)
	}

	if err := run(eng, cfg); err != nil {
		glog.Errorf("%s failed: %v", *mode, err)
		glog.Flush()
		os.Exit(1)
	}
}

func run(eng *engine.Engine, cfg *config.Config) error {
	switch *mode {
	case "price":
		return runPrice(eng)
	case "iv":
		return runImpliedVol(eng)
	case "exotic":
		return runExotic(eng)
	case "compare":
		return runCompare(eng)
	case "ladder":
		return runLadder(eng)
	case "slack":
		return runSlack(eng, cfg)
	}
	return fmt.Errorf("unknown mode %q", *mode)
}

func contractFromFlags() (models.ContractSpec, models.OptionType, error) {
	t, err := models.ParseOptionType(*optionType)
	if err != nil {
		return models.ContractSpec{}, "", err
	}
	return models.ContractSpec{
		Spot:         *spot,
		Strike:       *strike,
		TimeToExpiry: *days / daysPerYear,
		Rate:         *rate,
		Volatility:   *vol,
	}, t, nil
}

func runPrice(eng *engine.Engine) error {
	spec, t, err := contractFromFlags()
	if err != nil {
		return err
	}
	res, err := eng.PriceEuropean(spec, t)
	if err != nil {
		return err
	}
	higher, err := eng.HigherOrderGreeks(spec, t)
	if err != nil {
		return err
	}

	if *jsonOutput {
		return printJSON(struct {
			Contract    models.ContractSpec      `json:"contract"`
			Result      models.BSMResult         `json:"result"`
			HigherOrder models.HigherOrderGreeks `json:"higher_order"`
		}{spec, res, higher})
	}
	fmt.Print(engine.FormatBSM(spec, res, &higher))
	return nil
}

func runImpliedVol(eng *engine.Engine) error {
	spec, t, err := contractFromFlags()
	if err != nil {
		return err
	}
	if *marketPrice <= 0 {
		return fmt.Errorf("%w: -market-price is required", models.ErrInvalidInput)
	}

	res, solveErr := eng.ImpliedVolatility(spec, *marketPrice, t)
	if errors.Is(solveErr, models.ErrInvalidInput) {
		return solveErr
	}

	if *jsonOutput {
		out := struct {
			Result models.ImpliedVolResult `json:"result"`
			Error  string                  `json:"error,omitempty"`
		}{Result: res}
		if solveErr != nil {
			out.Error = solveErr.Error()
		}
		if err := printJSON(out); err != nil {
			return err
		}
	} else {
		fmt.Print(engine.FormatImpliedVol(t, *marketPrice, res, solveErr))
	}
	return solveErr
}

func simulationSize(eng *engine.Engine) (int, int, *uint64) {
	defaults := eng.SimulationDefaults()
	paths, steps := defaults.NumPaths, defaults.NumSteps
	if *numPaths > 0 {
		paths = *numPaths
	}
	if *numSteps > 0 {
		steps = *numSteps
	}
	var s *uint64
	if *seed >= 0 {
		s = montecarlo.Seed(uint64(*seed))
	}
	return paths, steps, s
}

func payoffFromFlags(spec models.ContractSpec, t models.OptionType) (models.PayoffSpec, error) {
	pt, err := models.ParsePayoffType(*payoffType)
	if err != nil {
		return models.PayoffSpec{}, err
	}
	payoff := models.PayoffSpec{Type: pt, OptionType: t}
	if pt != models.PayoffBarrier {
		return payoff, nil
	}

	payoff.BarrierLevel = *barrierLevel
	if payoff.BarrierLevel == 0 {
		payoff.BarrierLevel = spec.Spot * 1.1
	}
	if payoff.BarrierKind, err = models.ParseBarrierKind(*barrierKind); err != nil {
		return models.PayoffSpec{}, err
	}
	payoff.BarrierDirection = models.BarrierDirection(strings.ToLower(*barrierDirection))
	if err := payoff.Validate(); err != nil {
		return models.PayoffSpec{}, err
	}
	payoff.BarrierDirection = payoff.Direction(spec.Spot)
	return payoff, nil
}

// progressBar returns a progress callback and a finish function that must be
// called once the run is over, successful or not.
func progressBar(total int, name string) (func(int), func(ok bool)) {
	if *noProgress || *jsonOutput {
		return nil, func(bool) {}
	}

	p := mpb.New(mpb.WithWidth(64), mpb.WithOutput(os.Stderr))
	bar := p.AddBar(int64(total),
		mpb.PrependDecorators(
			decor.Name(name),
			decor.Percentage(decor.WCSyncSpace),
		),
		mpb.AppendDecorators(
			decor.CountersNoUnit("(%d / %d)", decor.WCSyncSpace),
		),
	)

	update := func(completed int) {
		bar.SetCurrent(int64(completed))
	}
	finish := func(ok bool) {
		if ok {
			bar.SetCurrent(int64(total))
		} else {
			bar.Abort(false)
		}
		p.Wait()
	}
	return update, finish
}

func runExotic(eng *engine.Engine) error {
	spec, t, err := contractFromFlags()
	if err != nil {
		return err
	}
	payoff, err := payoffFromFlags(spec, t)
	if err != nil {
		return err
	}
	paths, steps, s := simulationSize(eng)

	update, finish := progressBar(paths, "Simulating")
	res, err := eng.SimulateExoticWithProgress(spec, payoff, paths, steps, s, update)
	finish(err == nil)
	if err != nil {
		return err
	}

	if *jsonOutput {
		return printJSON(struct {
			Contract models.ContractSpec     `json:"contract"`
			Payoff   models.PayoffSpec       `json:"payoff"`
			Steps    int                     `json:"num_steps"`
			Result   models.SimulationResult `json:"result"`
		}{spec, payoff, steps, res})
	}
	fmt.Println(engine.FormatContract(spec))
	fmt.Print(engine.FormatSimulation(payoff, res))
	return nil
}

func runCompare(eng *engine.Engine) error {
	spec, t, err := contractFromFlags()
	if err != nil {
		return err
	}
	paths, steps, s := simulationSize(eng)

	update, finish := progressBar(paths, "Simulating")
	cmp, err := eng.CompareMethodsWithProgress(spec, t, paths, steps, s, update)
	finish(err == nil)
	if err != nil {
		return err
	}

	if *jsonOutput {
		return printJSON(cmp)
	}
	fmt.Println(engine.FormatContract(spec))
	fmt.Print(engine.FormatComparison(cmp))
	return nil
}

func runLadder(eng *engine.Engine) error {
	spec, _, err := contractFromFlags()
	if err != nil {
		return err
	}
	ks, err := parseFloatList(*strikes)
	if err != nil {
		return err
	}

	var rows []engine.LadderRow
	if *quotes != "" {
		qs, err := parseFloatList(*quotes)
		if err != nil {
			return err
		}
		rows, err = eng.PriceQuotedLadder(spec, ks, qs, 0, nil)
		if err != nil {
			return err
		}
	} else if rows, err = eng.PriceLadder(spec, ks, 0, nil); err != nil {
		return err
	}

	if *jsonOutput {
		return printJSON(rows)
	}
	fmt.Println(engine.FormatContract(spec))
	fmt.Print(engine.FormatLadder(rows))
	return nil
}

func runSlack(eng *engine.Engine, cfg *config.Config) error {
	if cfg.Slack.AppToken == "" || cfg.Slack.BotToken == "" {
		return fmt.Errorf("SLACK_APP_TOKEN and SLACK_BOT_TOKEN must be set")
	}
	glog.Info("starting slack bot")
	return pricerslack.NewSlackBot(cfg.Slack.AppToken, cfg.Slack.BotToken, eng, *slackDebug).Start()
}

func parseFloatList(s string) ([]float64, error) {
	var out []float64
	for _, field := range strings.Split(s, ",") {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		v, err := strconv.ParseFloat(field, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %q is not a number", models.ErrInvalidInput, field)
		}
		out = append(out, v)
	}
	return out, nil
}

func printJSON(v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshalling result: %w", err)
	}
	fmt.Println(string(data))
	return nil
}
