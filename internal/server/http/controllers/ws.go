package controllers

import (
	"context"
	"time"

	"github.com/gorilla/websocket"

	"github.com/rzbill/relay/internal/hub"
)

const (
	// wsWriteWait bounds every frame write.
	wsWriteWait = 10 * time.Second
	// wsMaxMessageSize caps inbound frames; clients have nothing to send.
	wsMaxMessageSize = 512
)

// wsSink writes stream frames as JSON text messages. Keepalives are ping
// control frames. All data writes happen on the stream goroutine.
type wsSink struct {
	conn *websocket.Conn
}

func (s *wsSink) writeJSON(f wsFrame) error {
	_ = s.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
	return s.conn.WriteJSON(f)
}

func (s *wsSink) Handshake() error {
	return s.writeJSON(wsFrame{Type: "init"})
}

func (s *wsSink) Deliver(d hub.Delivery) error {
	m := d.Message
	return s.writeJSON(wsFrame{Type: "message", Seq: d.Seq, Message: &m})
}

func (s *wsSink) Keepalive() error {
	return s.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteWait))
}

func (s *wsSink) Close(reason error) error {
	text := closeReason(reason)
	if err := s.writeJSON(wsFrame{Type: "close", Reason: text}); err != nil {
		return err
	}
	code := websocket.CloseNormalClosure
	if text == "shutdown" {
		code = websocket.CloseGoingAway
	}
	return s.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(code, text), time.Now().Add(wsWriteWait))
}

// readPump discards inbound frames, answers pings, and cancels the stream once
// the client goes away or stops answering pings within pongWait.
func readPump(conn *websocket.Conn, pongWait time.Duration, cancel context.CancelFunc) {
	defer cancel()
	conn.SetReadLimit(wsMaxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := conn.NextReader(); err != nil {
			return
		}
	}
}
