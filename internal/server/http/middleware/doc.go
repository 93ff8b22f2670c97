// Package middleware holds the gorilla/mux middleware shared by the relay
// HTTP server: request ids, access logging, CORS, and per-IP rate limiting.
package middleware
