package controllers

import (
	"github.com/gorilla/mux"

	"github.com/rzbill/relay/internal/runtime"
	chatsvc "github.com/rzbill/relay/internal/services/chat"
	"github.com/rzbill/relay/pkg/log"
)

// ControllerRegistry manages all HTTP controllers.
type ControllerRegistry struct {
	general  *GeneralController
	channels *ChannelsController
	messages *MessagesController
	events   *EventsController
}

// NewControllerRegistry creates every controller over rt and chat.
func NewControllerRegistry(rt *runtime.Runtime, chat *chatsvc.Service, logger log.Logger) *ControllerRegistry {
	cfg := rt.Config()
	return &ControllerRegistry{
		general:  NewGeneralController(rt, chat),
		channels: NewChannelsController(chat, logger),
		messages: NewMessagesController(chat, logger),
		events: NewEventsController(chat.Registry(), EventsOptions{
			KeepAlive:      cfg.Stream.KeepAlive.Std(),
			Buffer:         cfg.Stream.Buffer,
			Retry:          cfg.Stream.Retry.Std(),
			AllowedOrigins: cfg.CORS.AllowedOrigins,
		}, logger),
	}
}

// RegisterAllRoutes registers every route on r. Routes that create data are
// registered on limited, which callers wrap with the rate limiter.
func (reg *ControllerRegistry) RegisterAllRoutes(r, limited *mux.Router) {
	reg.general.RegisterRoutes(r)
	reg.channels.RegisterRoutes(r, limited)
	reg.messages.RegisterRoutes(r, limited)
	reg.events.RegisterRoutes(r)
}
