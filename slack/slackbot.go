package pricerslack

import (
	"log"

	"github.com/golang/glog"
	"github.com/slack-go/slack"
	"github.com/slack-go/slack/socketmode"

	"github.com/akoiralaa/options-pricer/engine"
)

type SlackBot struct {
	client       *slack.Client
	socketClient *socketmode.Client
	eventHandler *Handler
}

func NewSlackBot(appToken, botToken string, eng *engine.Engine, debug bool) *SlackBot {
	client := slack.New(
		botToken,
		slack.OptionAppLevelToken(appToken),
	)

	socketClient := socketmode.New(
		client,
		socketmode.OptionDebug(debug),
		socketmode.OptionLog(log.New(log.Writer(), "socketmode: ", log.Lshortfile|log.LstdFlags)),
	)

	return &SlackBot{
		client:       client,
		socketClient: socketClient,
		eventHandler: NewHandler(eng),
	}
}

func (sb *SlackBot) Start() error {
	go func() {
		for evt := range sb.socketClient.Events {
			switch evt.Type {
			case socketmode.EventTypeConnected:
				glog.Info("slack socket mode connected")
			case socketmode.EventTypeSlashCommand:
				if err := sb.eventHandler.Handle(&evt, sb.socketClient); err != nil {
					glog.Errorf("slash command failed: %v", err)
				}
			}
		}
	}()

	return sb.socketClient.Run()
}
