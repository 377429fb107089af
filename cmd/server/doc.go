// Package main is the entry point for the Digital Twin backend server.
//
// The server hosts the simulated desktop sessions, the account and
// activity archive, the admin and staff APIs and the websocket hub that
// streams activity, alerts and chart updates.
//
// Configuration:
//   - Environment variables (PORT, DB_PATH, TOKEN_TTL, CORS_ORIGINS, ...)
//   - CLI flags (override env vars)
//   - Defaults for development
//
// Usage:
//
//	# Persistent database under the XDG data dir
//	./server -port 8000
//
//	# Throwaway database with debug logs
//	./server -db :memory: -dev
//
// Signals:
//   - SIGINT, SIGTERM: Graceful shutdown
package main
