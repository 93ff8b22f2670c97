package controllers

import (
	"github.com/rzbill/relay/internal/hub"
	"github.com/rzbill/relay/internal/store"
)

// Common request/response types for HTTP controllers

// createChannelReq is the body of POST /channel.
type createChannelReq struct {
	Name string `json:"name"`
}

// postMessageReq is the body of POST /message/{channelId}.
type postMessageReq struct {
	Content  string `json:"content"`
	Username string `json:"username"`
}

// listChannelsResp is the body of GET /channels.
type listChannelsResp struct {
	N        int             `json:"n"`
	Channels []store.Channel `json:"channels"`
}

// listMessagesResp is the body of GET /messages/{channelId}.
type listMessagesResp struct {
	Messages []store.Message `json:"messages"`
}

// msgResp carries a short status message.
type msgResp struct {
	Msg string `json:"msg"`
}

// statsResp is the body of GET /stats.
type statsResp struct {
	Hubs []hub.HubStats `json:"hubs"`
}

// closeFrame is sent when the server ends a stream.
type closeFrame struct {
	Reason string `json:"reason"`
}

// wsFrame is a WebSocket text frame.
type wsFrame struct {
	Type    string         `json:"type"`
	Seq     uint64         `json:"seq,omitempty"`
	Message *store.Message `json:"message,omitempty"`
	Reason  string         `json:"reason,omitempty"`
}
