// Package config provides loading and environment overlay for relay's
// configuration. It exposes a Default() baseline, a JSON file loader and an
// environment overlay driven by struct tags.
//
// Example:
//
//	cfg := config.Default()
//	if fileCfg, err := config.Load("/etc/relay.json"); err == nil {
//	    cfg = fileCfg
//	}
//	if err := config.FromEnv(&cfg); err != nil { /* handle */ }
//	if err := cfg.Validate(); err != nil { /* handle */ }
//
// Environment variables use the RELAY_ prefix and the nested section prefix,
// for example RELAY_STORE_DRIVER=postgres, RELAY_STORE_PG_URL=postgres://...,
// RELAY_STREAM_KEEPALIVE=15s.
package config
