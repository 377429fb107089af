// Package paths provides standardized filesystem paths.
//
// The server keeps its SQLite database under the XDG data directory and the
// twinctl client keeps its config and stored credentials under the user
// config directory:
//
//	~/.local/share/digitaltwin/twin.sqlite
//	~/.config/twinctl/config.toml
//	~/.config/twinctl/credentials.toml
package paths
