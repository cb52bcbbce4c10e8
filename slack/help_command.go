package pricerslack

import (
	"github.com/slack-go/slack"
)

const (
	priceUsage   = "/price <call|put> <spot> <strike> <days> <rate> <vol>"
	ivUsage      = "/iv <call|put> <spot> <strike> <days> <rate> <market_price>"
	exoticUsage  = "/exotic <european|asian|barrier|lookback> <call|put> <spot> <strike> <days> <rate> <vol> [barrier=<level>] [kind=out|in] [direction=up|down] [paths=<n>] [steps=<n>] [seed=<n>]"
	compareUsage = "/compare <call|put> <spot> <strike> <days> <rate> <vol> [paths=<n>] [steps=<n>] [seed=<n>]"
)

type HelpHandler struct{}

func NewHelpHandler() *HelpHandler {
	return &HelpHandler{}
}

func (h *HelpHandler) HandleCommand(data slack.SlashCommand, client poster) error {
	_, err := reply(client, data.ChannelID, helpText())
	return err
}

func helpText() string {
	return "Available commands:\n" +
		"/help - Show this help message\n" +
		priceUsage + " - Black-Scholes price and Greeks\n" +
		ivUsage + " - Implied volatility from a market price\n" +
		exoticUsage + " - Monte Carlo price of an exotic option\n" +
		compareUsage + " - Black-Scholes against Monte Carlo\n" +
		"Rates and volatilities are decimals (0.05 = 5%), time is in calendar days."
}
