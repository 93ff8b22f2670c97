package controllers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/rzbill/relay/internal/hub"
	"github.com/rzbill/relay/internal/server/http/middleware"
	"github.com/rzbill/relay/internal/stream"
	"github.com/rzbill/relay/pkg/log"
)

// EventsOptions tunes live streams.
type EventsOptions struct {
	KeepAlive      time.Duration
	Buffer         int
	Retry          time.Duration
	AllowedOrigins []string
}

// EventsController serves live channel streams over SSE and WebSocket.
type EventsController struct {
	reg      stream.Subscriber
	opts     EventsOptions
	logger   log.Logger
	upgrader websocket.Upgrader
}

// NewEventsController creates a new events controller.
func NewEventsController(reg stream.Subscriber, opts EventsOptions, logger log.Logger) *EventsController {
	if opts.KeepAlive <= 0 {
		opts.KeepAlive = stream.DefaultKeepAlive
	}
	c := &EventsController{reg: reg, opts: opts, logger: logger}
	c.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			return middleware.OriginAllowed(opts.AllowedOrigins, r.Header.Get("Origin"))
		},
	}
	return c
}

// RegisterRoutes registers the stream endpoints. The bare paths carry no
// {channelId} and answer 400.
func (c *EventsController) RegisterRoutes(r *mux.Router) {
	for _, p := range []string{"/events/{channelId}", "/events/", "/events"} {
		r.HandleFunc(p, c.handleSSE).Methods(http.MethodGet)
	}
	for _, p := range []string{"/ws/{channelId}", "/ws/", "/ws"} {
		r.HandleFunc(p, c.handleWS).Methods(http.MethodGet)
	}
}

func (c *EventsController) streamOptions(r *http.Request) (stream.Options, error) {
	f, err := hub.CompileFilter(r.URL.Query().Get("filter"))
	if err != nil {
		return stream.Options{}, err
	}
	return stream.Options{
		KeepAlive: c.opts.KeepAlive,
		Buffer:    c.opts.Buffer,
		Filter:    f,
		Logger:    c.logger.With(log.Str(log.RequestIDKey, middleware.RequestIDFrom(r.Context()))),
	}, nil
}

// handleSSE opens an event stream when the client accepts text/event-stream.
// Plain GETs get a 200 {"msg":"OK"} so the route can be probed.
func (c *EventsController) handleSSE(w http.ResponseWriter, r *http.Request) {
	id, err := channelIDVar(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if !strings.Contains(r.Header.Get("Accept"), "text/event-stream") {
		writeJSON(w, http.StatusOK, msgResp{Msg: "OK"})
		return
	}
	opts, err := c.streamOptions(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	err = stream.New(c.reg, id, newSSESink(w, c.opts.Retry), opts).Serve(r.Context())
	c.logEnd(id, err)
}

// handleWS upgrades to a WebSocket and streams JSON frames.
func (c *EventsController) handleWS(w http.ResponseWriter, r *http.Request) {
	id, err := channelIDVar(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	opts, err := c.streamOptions(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	conn, err := c.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// upgrader already wrote the error response.
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	go readPump(conn, 3*c.opts.KeepAlive+wsWriteWait, cancel)

	err = stream.New(c.reg, id, &wsSink{conn: conn}, opts).Serve(ctx)
	c.logEnd(id, err)
}

func (c *EventsController) logEnd(channelID int64, err error) {
	switch {
	case err == nil,
		errors.Is(err, hub.ErrChannelDeleted),
		errors.Is(err, hub.ErrShutdown):
	case errors.Is(err, hub.ErrSlowSubscriber):
		c.logger.Warn("stream evicted", log.Int64("channel_id", channelID))
	default:
		c.logger.Debug("stream ended with error", log.Int64("channel_id", channelID), log.Err(err))
	}
}
