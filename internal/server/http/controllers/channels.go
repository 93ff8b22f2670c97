package controllers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	chatsvc "github.com/rzbill/relay/internal/services/chat"
	"github.com/rzbill/relay/pkg/log"
)

// ChannelsController handles channel management endpoints.
type ChannelsController struct {
	chat   *chatsvc.Service
	logger log.Logger
}

// NewChannelsController creates a new channels controller.
func NewChannelsController(chat *chatsvc.Service, logger log.Logger) *ChannelsController {
	return &ChannelsController{chat: chat, logger: logger}
}

// RegisterRoutes registers channel routes. Writes go on the limited router.
func (c *ChannelsController) RegisterRoutes(r, limited *mux.Router) {
	limited.HandleFunc("/channel", c.handleCreate).Methods(http.MethodPost)
	r.HandleFunc("/channels", c.handleList).Methods(http.MethodGet)
	r.HandleFunc("/channel/{channelId}", c.handleDelete).Methods(http.MethodDelete)
}

// handleCreate creates a channel from {"name": ...} and returns it.
func (c *ChannelsController) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req createChannelReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	ch, err := c.chat.CreateChannel(r.Context(), req.Name)
	if errors.Is(err, chatsvc.ErrInvalidArgument) {
		writeError(w, http.StatusBadRequest, "Channel name is required")
		return
	}
	if err != nil {
		c.logger.Error("create channel failed", log.Err(err))
		writeError(w, http.StatusInternalServerError, "Failed to create channel")
		return
	}
	writeJSON(w, http.StatusOK, ch)
}

// handleList returns {"n": count, "channels": [...]} ordered by id. Store
// failures answer 404.
func (c *ChannelsController) handleList(w http.ResponseWriter, r *http.Request) {
	list, err := c.chat.ListChannels(r.Context())
	if err != nil {
		c.logger.Error("list channels failed", log.Err(err))
		writeError(w, http.StatusNotFound, "Failed to list channels")
		return
	}
	writeJSON(w, http.StatusOK, listChannelsResp{N: len(list), Channels: list})
}

// handleDelete removes a channel, its messages, and its hub.
func (c *ChannelsController) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := channelIDVar(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := c.chat.DeleteChannel(r.Context(), id); err != nil {
		c.logger.Error("delete channel failed", log.Int64("channel_id", id), log.Err(err))
		writeError(w, http.StatusInternalServerError, "Failed to delete channel")
		return
	}
	writeNoContent(w)
}
