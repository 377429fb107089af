// Package server wires the Digital Twin backend together.
//
// NewServer opens the SQLite store, seeds the demo accounts and builds the
// gin router with its middleware stack (recovery, request ids, metrics,
// CORS, rate limiting). Run starts the background workers (activity
// archiver, token sweeper, chart refresher, fixture watcher) and serves
// until its context is cancelled.
//
// Example Usage:
//
//	cfg := config.LoadOrDefault()
//	srv, err := server.NewServer(cfg, logger)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer srv.Close()
//	if err := srv.Run(ctx); err != nil {
//	    log.Fatal(err)
//	}
package server
