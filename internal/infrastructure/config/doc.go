// Package config loads server configuration from the environment.
//
// Every field has a default so the server starts with no environment at
// all. cmd/server applies command-line flags on top of the loaded values.
//
// Example Usage:
//
//	cfg := config.LoadOrDefault()
//	addr := cfg.Address()
package config
