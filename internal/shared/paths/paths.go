// Package paths provides standardized filesystem locations for the server
// and the twinctl client.
package paths

import (
	"os"
	"path/filepath"
)

const (
	appDir          = "digitaltwin"
	cliDir          = "twinctl"
	databaseName    = "twin.sqlite"
	credentialsName = "credentials.toml"
	configName      = "config.toml"
)

// DataDir returns the server state directory (~/.local/share/digitaltwin)
func DataDir() string {
	if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
		return filepath.Join(dir, appDir)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		home = os.TempDir()
	}
	return filepath.Join(home, ".local", "share", appDir)
}

// DatabaseFile returns the default SQLite database path
func DatabaseFile() string {
	return filepath.Join(DataDir(), databaseName)
}

// CLIConfigDir returns the twinctl configuration directory (~/.config/twinctl)
func CLIConfigDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, cliDir)
	}
	return filepath.Join(os.TempDir(), cliDir)
}

// CLIConfigFile returns the twinctl config file path
func CLIConfigFile() string {
	return filepath.Join(CLIConfigDir(), configName)
}

// CredentialsFile returns the file holding the stored bearer token
func CredentialsFile() string {
	return filepath.Join(CLIConfigDir(), credentialsName)
}
