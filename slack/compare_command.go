package pricerslack

import (
	"fmt"
	"strings"

	"github.com/slack-go/slack"

	"github.com/akoiralaa/options-pricer/engine"
)

type CompareHandler struct {
	engine *engine.Engine
}

func NewCompareHandler(eng *engine.Engine) *CompareHandler {
	return &CompareHandler{engine: eng}
}

func (h *CompareHandler) HandleCommand(data slack.SlashCommand, client poster) error {
	_, err := reply(client, data.ChannelID, h.Respond(strings.Fields(data.Text)))
	return err
}

func (h *CompareHandler) Respond(args []string) string {
	optionType, spec, vol, rest, err := parseContract(args)
	if err != nil {
		return fmt.Sprintf("%v\nUsage: %s", err, compareUsage)
	}
	spec.Volatility = vol

	opts, err := parseOptions(rest)
	if err != nil {
		return fmt.Sprintf("%v\nUsage: %s", err, compareUsage)
	}
	size, err := parseSimulationSize(opts, h.engine.SimulationDefaults())
	if err != nil {
		return fmt.Sprintf("%v\nUsage: %s", err, compareUsage)
	}

	cmp, err := h.engine.CompareMethods(spec, optionType, size.numPaths, size.numSteps, size.seed)
	if err != nil {
		return fmt.Sprintf("%v\nUsage: %s", err, compareUsage)
	}
	return codeBlock(engine.FormatContract(spec) + "\n" + engine.FormatComparison(cmp))
}
