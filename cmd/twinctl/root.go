package main

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/GriffinCanCode/DigitalTwin/internal/client"
	"github.com/GriffinCanCode/DigitalTwin/internal/shared/paths"
)

const credentialsFile = "credentials.toml"

var envKeyReplacer = strings.NewReplacer("-", "_")

type app struct {
	client *client.Client
	cfg    *viper.Viper
}

func newRootCmd() *cobra.Command {
	v := viper.New()
	a := &app{cfg: v}

	rootCmd := &cobra.Command{
		Use:           "twinctl",
		Short:         "Digital Twin command line client",
		Long:          "twinctl logs in to a Digital Twin backend and reads the account, activity and desktop policy views from the terminal.",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			c, err := wireClient(cmd, v)
			if err != nil {
				return err
			}
			a.client = c
			return nil
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.String("server", client.DefaultBaseURL, "Digital Twin API base URL")
	flags.Int("retries", client.DefaultMaxRetries, "Connection-level retry attempts")
	flags.Duration("timeout", client.DefaultTimeout, "Request timeout")
	flags.String("config-dir", "", "Directory holding config.toml and credentials (default ~/.config/twinctl)")
	for _, key := range []string{"server", "retries", "timeout", "config-dir"} {
		_ = v.BindPFlag(key, flags.Lookup(key))
	}

	rootCmd.AddCommand(
		newLoginCmd(a),
		newLogoutCmd(a),
		newWhoamiCmd(a),
		newActivityCmd(a),
		newStatsCmd(a),
		newPoliciesCmd(a),
	)
	return rootCmd
}

func wireClient(cmd *cobra.Command, v *viper.Viper) (*client.Client, error) {
	v.SetEnvPrefix("TWIN")
	v.SetEnvKeyReplacer(envKeyReplacer)
	v.AutomaticEnv()
	v.SetDefault("server", client.DefaultBaseURL)
	v.SetDefault("retries", client.DefaultMaxRetries)
	v.SetDefault("timeout", client.DefaultTimeout)

	dir := v.GetString("config-dir")
	credsPath := filepath.Join(dir, credentialsFile)
	if dir == "" {
		dir = paths.CLIConfigDir()
		credsPath = paths.CredentialsFile()
	}
	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(dir)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read twinctl config: %w", err)
		}
	}

	store, err := client.NewFileStore(credsPath)
	if err != nil {
		return nil, err
	}

	retries := v.GetInt("retries")
	if retries == 0 {
		// zero means "use the default" to the client
		retries = -1
	}
	errOut := cmd.ErrOrStderr()
	return client.New(client.Config{
		BaseURL:    v.GetString("server"),
		MaxRetries: retries,
		Timeout:    v.GetDuration("timeout"),
		Store:      store,
		OnLogout: func(expired bool) {
			if expired {
				fmt.Fprintln(errOut, "Session expired; run `twinctl login` again.")
			}
		},
	}), nil
}

// loggedIn returns the stored login or a hint to log in first
func (a *app) loggedIn() (client.Credentials, error) {
	creds, ok, err := a.client.Credentials()
	if err != nil {
		return client.Credentials{}, err
	}
	if !ok {
		return client.Credentials{}, errors.New("not logged in; run `twinctl login` first")
	}
	return creds, nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04:05")
}
