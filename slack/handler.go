package pricerslack

import (
	"fmt"

	"github.com/slack-go/slack"
	"github.com/slack-go/slack/socketmode"

	"github.com/akoiralaa/options-pricer/engine"
)

// poster is the part of the Slack client the command handlers use.
type poster interface {
	PostMessage(channelID string, options ...slack.MsgOption) (string, string, error)
}

type Handler struct {
	helpHandler    *HelpHandler
	priceHandler   *PriceHandler
	ivHandler      *IVHandler
	exoticHandler  *ExoticHandler
	compareHandler *CompareHandler
}

func NewHandler(eng *engine.Engine) *Handler {
	return &Handler{
		helpHandler:    NewHelpHandler(),
		priceHandler:   NewPriceHandler(eng),
		ivHandler:      NewIVHandler(eng),
		exoticHandler:  NewExoticHandler(eng),
		compareHandler: NewCompareHandler(eng),
	}
}

func (h *Handler) Handle(evt *socketmode.Event, client *socketmode.Client) error {
	defer client.Ack(*evt.Request)

	data, ok := evt.Data.(slack.SlashCommand)
	if !ok {
		return fmt.Errorf("unexpected slash command payload %T", evt.Data)
	}
	return h.dispatch(data, client)
}

func (h *Handler) dispatch(data slack.SlashCommand, client poster) error {
	switch data.Command {
	case "/help":
		return h.helpHandler.HandleCommand(data, client)
	case "/price":
		return h.priceHandler.HandleCommand(data, client)
	case "/iv":
		return h.ivHandler.HandleCommand(data, client)
	case "/exotic":
		return h.exoticHandler.HandleCommand(data, client)
	case "/compare":
		return h.compareHandler.HandleCommand(data, client)
	}
	return fmt.Errorf("unknown command %s", data.Command)
}

func reply(client poster, channelID, text string, options ...slack.MsgOption) (string, error) {
	options = append([]slack.MsgOption{slack.MsgOptionText(text, false)}, options...)
	_, ts, err := client.PostMessage(channelID, options...)
	return ts, err
}
