// Package client provides the `relay` command-line client.
//
// The CLI talks to the relay HTTP API to manage channels and messages and to
// follow a channel's live stream from a terminal. The gRPC health service is
// queried by the `health` command.
//
// # Address configuration
//
// The HTTP base URL is discovered by the application that embeds the
// commands via a BaseURLFunc. The standalone binary reads RELAY_HTTP and
// defaults to http://127.0.0.1:8080. The gRPC address is read from the
// RELAY_GRPC environment variable (default 127.0.0.1:50051).
//
// Usage
//
//	relay channel create --name general
//	relay channel list
//	relay channel delete 3
//
//	relay message post 3 --username ana --content "hello"
//	relay message list 3
//
//	# Print each live delivery as one JSON line
//	relay tail 3
//	relay tail 3 --filter 'username == "ana"' --limit 10
//
//	relay health
package client
