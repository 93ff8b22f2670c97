package hub

import "errors"

var (
	// ErrHubClosed is returned when subscribing to or publishing on a hub
	// that has been removed or shut down.
	ErrHubClosed = errors.New("hub closed")
	// ErrChannelDeleted ends subscribers of a removed hub.
	ErrChannelDeleted = errors.New("channel deleted")
	// ErrShutdown ends subscribers when the registry closes.
	ErrShutdown = errors.New("server shutting down")
	// ErrSlowSubscriber ends a subscriber whose buffer was full on publish.
	ErrSlowSubscriber = errors.New("subscriber too slow")
)
