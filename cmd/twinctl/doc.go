// Command twinctl is a terminal client for the Digital Twin backend.
//
// Settings come from flags, TWIN_* environment variables and
// ~/.config/twinctl/config.toml, in that order of precedence:
//
//	server  = "http://localhost:8000"
//	retries = 3
//	timeout = "30s"
//
// The login token is kept in ~/.config/twinctl/credentials.toml.
//
// Usage:
//
//	twinctl login -u admin -p admin123
//	twinctl whoami
//	twinctl activity --limit 20
//	twinctl stats
//	twinctl policies
//	twinctl logout
package main
