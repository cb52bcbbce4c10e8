package pricerslack

import (
	"errors"
	"fmt"
	"strings"

	"github.com/slack-go/slack"

	"github.com/akoiralaa/options-pricer/engine"
	"github.com/akoiralaa/options-pricer/models"
)

type PriceHandler struct {
	engine *engine.Engine
}

func NewPriceHandler(eng *engine.Engine) *PriceHandler {
	return &PriceHandler{engine: eng}
}

func (h *PriceHandler) HandleCommand(data slack.SlashCommand, client poster) error {
	_, err := reply(client, data.ChannelID, h.Respond(strings.Fields(data.Text)))
	return err
}

func (h *PriceHandler) Respond(args []string) string {
	optionType, spec, vol, _, err := parseContract(args)
	if err != nil {
		return fmt.Sprintf("%v\nUsage: %s", err, priceUsage)
	}
	spec.Volatility = vol

	res, err := h.engine.PriceEuropean(spec, optionType)
	if err != nil {
		return fmt.Sprintf("%v\nUsage: %s", err, priceUsage)
	}
	higher, err := h.engine.HigherOrderGreeks(spec, optionType)
	if err != nil {
		return codeBlock(engine.FormatBSM(spec, res, nil))
	}
	return codeBlock(engine.FormatBSM(spec, res, &higher))
}

type IVHandler struct {
	engine *engine.Engine
}

func NewIVHandler(eng *engine.Engine) *IVHandler {
	return &IVHandler{engine: eng}
}

func (h *IVHandler) HandleCommand(data slack.SlashCommand, client poster) error {
	_, err := reply(client, data.ChannelID, h.Respond(strings.Fields(data.Text)))
	return err
}

func (h *IVHandler) Respond(args []string) string {
	optionType, spec, marketPrice, _, err := parseContract(args)
	if err != nil {
		return fmt.Sprintf("%v\nUsage: %s", err, ivUsage)
	}

	res, err := h.engine.ImpliedVolatility(spec, marketPrice, optionType)
	if errors.Is(err, models.ErrInvalidInput) {
		return fmt.Sprintf("%v\nUsage: %s", err, ivUsage)
	}
	return codeBlock(engine.FormatImpliedVol(optionType, marketPrice, res, err))
}
