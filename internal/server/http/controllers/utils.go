package controllers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/rzbill/relay/internal/hub"
	chatsvc "github.com/rzbill/relay/internal/services/chat"
	"github.com/rzbill/relay/internal/store"
)

// Helper functions for common HTTP responses

// writeError writes an error response with the given status code and message.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// writeJSON writes a JSON response with the given status code and data.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeNoContent writes a 204 No Content response.
func writeNoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

// errInvalidChannelID is reported for a missing or non-numeric {channelId}.
var errInvalidChannelID = errors.New("invalid channel id")

// channelIDVar parses the {channelId} route variable. Ids must be positive.
func channelIDVar(r *http.Request) (int64, error) {
	raw := mux.Vars(r)["channelId"]
	if raw == "" {
		return 0, errInvalidChannelID
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, errInvalidChannelID
	}
	return id, nil
}

// closeReason names why the server ended a stream, for close frames.
func closeReason(err error) string {
	switch {
	case errors.Is(err, hub.ErrChannelDeleted):
		return "channel_deleted"
	case errors.Is(err, hub.ErrShutdown):
		return "shutdown"
	case errors.Is(err, hub.ErrSlowSubscriber):
		return "slow_subscriber"
	default:
		return "error"
	}
}

// isNotFound groups the errors list and post endpoints answer with 404.
func isNotFound(err error) bool {
	return errors.Is(err, store.ErrChannelNotFound) || errors.Is(err, chatsvc.ErrNoSubscribers)
}
