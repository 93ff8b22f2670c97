package controllers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	chatsvc "github.com/rzbill/relay/internal/services/chat"
	"github.com/rzbill/relay/internal/store"
	"github.com/rzbill/relay/pkg/log"
)

// MessagesController handles message history and posting.
type MessagesController struct {
	chat   *chatsvc.Service
	logger log.Logger
}

// NewMessagesController creates a new messages controller.
func NewMessagesController(chat *chatsvc.Service, logger log.Logger) *MessagesController {
	return &MessagesController{chat: chat, logger: logger}
}

// RegisterRoutes registers message routes. Posting goes on the limited router.
func (c *MessagesController) RegisterRoutes(r, limited *mux.Router) {
	r.HandleFunc("/messages/{channelId}", c.handleList).Methods(http.MethodGet)
	limited.HandleFunc("/message/{channelId}", c.handlePost).Methods(http.MethodPost)
}

// handleList returns the channel's messages newest first. Unknown channels,
// channels with no messages and store failures answer 404.
func (c *MessagesController) handleList(w http.ResponseWriter, r *http.Request) {
	id, err := channelIDVar(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	msgs, err := c.chat.ListMessages(r.Context(), id)
	if err != nil {
		if !errors.Is(err, store.ErrChannelNotFound) {
			c.logger.Error("list messages failed", log.Int64("channel_id", id), log.Err(err))
		}
		writeError(w, http.StatusNotFound, "Failed to list messages")
		return
	}
	if len(msgs) == 0 {
		writeError(w, http.StatusNotFound, "No messages")
		return
	}
	writeJSON(w, http.StatusOK, listMessagesResp{Messages: msgs})
}

// handlePost persists a message and broadcasts it. When nobody is streaming
// the channel the message stays stored and the response is 404.
func (c *MessagesController) handlePost(w http.ResponseWriter, r *http.Request) {
	id, err := channelIDVar(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	var req postMessageReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	_, err = c.chat.PostMessage(r.Context(), id, req.Content, req.Username)
	switch {
	case err == nil:
		writeJSON(w, http.StatusCreated, msgResp{Msg: "Chat message posted"})
	case errors.Is(err, chatsvc.ErrInvalidArgument):
		writeError(w, http.StatusBadRequest, "Content and username are required")
	case isNotFound(err):
		writeError(w, http.StatusNotFound, "No active channel")
	default:
		c.logger.Error("post message failed", log.Int64("channel_id", id), log.Err(err))
		writeError(w, http.StatusInternalServerError, "Failed to post message")
	}
}
