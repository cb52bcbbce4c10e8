package pricerslack

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/golang/glog"
	"github.com/slack-go/slack"

	"github.com/akoiralaa/options-pricer/engine"
	"github.com/akoiralaa/options-pricer/models"
)

// defaultBarrierRatio places an unspecified barrier 10% above spot.
const defaultBarrierRatio = 1.1

type ExoticHandler struct {
	engine *engine.Engine
}

func NewExoticHandler(eng *engine.Engine) *ExoticHandler {
	return &ExoticHandler{engine: eng}
}

type exoticRequest struct {
	spec   models.ContractSpec
	payoff models.PayoffSpec
	size   simulationSize
}

// HandleCommand answers in a thread: a start message, progress at 25, 50
// and 75 percent, then the result.
func (h *ExoticHandler) HandleCommand(data slack.SlashCommand, client poster) error {
	req, err := h.parse(strings.Fields(data.Text))
	if err != nil {
		_, err = reply(client, data.ChannelID, fmt.Sprintf("%v\nUsage: %s", err, exoticUsage))
		return err
	}

	ts, err := reply(client, data.ChannelID, fmt.Sprintf("Simulating %d paths x %d steps...", req.size.numPaths, req.size.numSteps))
	if err != nil {
		return err
	}

	go h.runWithProgress(client, data.ChannelID, ts, req)
	return nil
}

func (h *ExoticHandler) runWithProgress(client poster, channelID, timestamp string, req exoticRequest) {
	progressChan := make(chan int, 3)
	resultChan := make(chan string, 1)

	go func() {
		next := 25
		resultChan <- h.run(req, func(completed int) {
			for next <= 75 && completed*100 >= next*req.size.numPaths {
				select {
				case progressChan <- next:
				default:
				}
				next += 25
			}
		})
	}()

	for {
		select {
		case progress := <-progressChan:
			if _, err := reply(client, channelID, fmt.Sprintf("Simulation %d%% complete...", progress), slack.MsgOptionTS(timestamp)); err != nil {
				glog.Warningf("posting progress: %v", err)
			}
		case result := <-resultChan:
			if _, err := reply(client, channelID, result, slack.MsgOptionTS(timestamp)); err != nil {
				glog.Errorf("posting simulation result: %v", err)
			}
			return
		}
	}
}

// Respond runs the simulation synchronously and returns the reply text.
func (h *ExoticHandler) Respond(args []string) string {
	req, err := h.parse(args)
	if err != nil {
		return fmt.Sprintf("%v\nUsage: %s", err, exoticUsage)
	}
	return h.run(req, nil)
}

func (h *ExoticHandler) run(req exoticRequest, progress func(int)) string {
	res, err := h.engine.SimulateExoticWithProgress(req.spec, req.payoff, req.size.numPaths, req.size.numSteps, req.size.seed, progress)
	if err != nil {
		return fmt.Sprintf("Simulation failed: %v", err)
	}
	return codeBlock(engine.FormatContract(req.spec) + "\n" + engine.FormatSimulation(req.payoff, res))
}

func (h *ExoticHandler) parse(args []string) (exoticRequest, error) {
	if len(args) < 1 {
		return exoticRequest{}, fmt.Errorf("%w: missing payoff type", models.ErrInvalidInput)
	}
	payoffType, err := models.ParsePayoffType(args[0])
	if err != nil {
		return exoticRequest{}, err
	}
	optionType, spec, vol, rest, err := parseContract(args[1:])
	if err != nil {
		return exoticRequest{}, err
	}
	spec.Volatility = vol

	opts, err := parseOptions(rest)
	if err != nil {
		return exoticRequest{}, err
	}
	size, err := parseSimulationSize(opts, h.engine.SimulationDefaults())
	if err != nil {
		return exoticRequest{}, err
	}

	payoff := models.PayoffSpec{Type: payoffType, OptionType: optionType}
	if payoffType == models.PayoffBarrier {
		payoff.BarrierLevel = spec.Spot * defaultBarrierRatio
		payoff.BarrierKind = models.KnockOut
		if v, ok := opts["barrier"]; ok {
			if payoff.BarrierLevel, err = strconv.ParseFloat(v, 64); err != nil {
				return exoticRequest{}, fmt.Errorf("%w: barrier=%q is not a number", models.ErrInvalidInput, v)
			}
		}
		if v, ok := opts["kind"]; ok {
			if payoff.BarrierKind, err = models.ParseBarrierKind(v); err != nil {
				return exoticRequest{}, err
			}
		}
		if v, ok := opts["direction"]; ok {
			payoff.BarrierDirection = models.BarrierDirection(strings.ToLower(v))
		}
		if err := payoff.Validate(); err != nil {
			return exoticRequest{}, err
		}
		payoff.BarrierDirection = payoff.Direction(spec.Spot)
	}

	return exoticRequest{spec: spec, payoff: payoff, size: size}, nil
}
