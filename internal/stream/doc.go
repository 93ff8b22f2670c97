// Package stream runs the lifecycle of one live subscription independent of
// the transport carrying it.
//
// Serve writes the handshake, subscribes to the channel's hub, then
// multiplexes hub deliveries with a fixed keepalive ticker until the client
// goes away, the hub ends the subscription, or a write fails. Transports
// implement Sink; the SSE and WebSocket handlers in the HTTP server are the
// two implementations.
package stream
