// Package httpserver exposes the relay REST and streaming API.
//
// Routes:
//
//	POST   /channel                 create channel
//	GET    /channels                list channels
//	DELETE /channel/{channelId}     delete channel, end its streams
//	GET    /messages/{channelId}    message history, newest first
//	POST   /message/{channelId}     post and broadcast
//	GET    /events/{channelId}      Server-Sent Events stream
//	GET    /ws/{channelId}          WebSocket stream
//	GET    /healthz, /stats
//
// Example:
//
//	rt, _ := runtime.Open(ctx, runtime.Options{Config: config.Default()})
//	s := httpserver.New(rt, logger)
//	_ = s.ListenAndServe(ctx, ":8080")
package httpserver
