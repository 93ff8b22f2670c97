package controllers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rzbill/relay/internal/hub"
)

// sseSink writes stream frames as Server-Sent Events:
//
//	event: init                     handshake
//	data: {message}\nid: <seq>      delivery
//	:                               keepalive comment
//	event: close\ndata: {reason}    server-side end of stream
type sseSink struct {
	w     http.ResponseWriter
	rc    *http.ResponseController
	retry time.Duration
}

func newSSESink(w http.ResponseWriter, retry time.Duration) *sseSink {
	return &sseSink{w: w, rc: http.NewResponseController(w), retry: retry}
}

func (s *sseSink) write(format string, args ...any) error {
	if _, err := fmt.Fprintf(s.w, format, args...); err != nil {
		return err
	}
	return s.rc.Flush()
}

// Handshake sends the stream headers and the init event.
func (s *sseSink) Handshake() error {
	h := s.w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	s.w.WriteHeader(http.StatusOK)
	if s.retry > 0 {
		if _, err := fmt.Fprintf(s.w, "retry: %d\n", s.retry.Milliseconds()); err != nil {
			return err
		}
	}
	return s.write("event: init\n\n")
}

// Deliver sends one message as a data event whose id is the hub sequence.
func (s *sseSink) Deliver(d hub.Delivery) error {
	b, err := json.Marshal(d.Message)
	if err != nil {
		return err
	}
	return s.write("data: %s\nid: %d\n\n", b, d.Seq)
}

// Keepalive sends an empty comment.
func (s *sseSink) Keepalive() error {
	return s.write(":\n\n")
}

// Close sends the close event naming why the server ended the stream.
func (s *sseSink) Close(reason error) error {
	b, err := json.Marshal(closeFrame{Reason: closeReason(reason)})
	if err != nil {
		return err
	}
	return s.write("event: close\ndata: %s\n\n", b)
}
