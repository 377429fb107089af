package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/GriffinCanCode/DigitalTwin/internal/shared/types"
)

func newLoginCmd(a *app) *cobra.Command {
	var username, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and store the access token",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if password == "" {
				password = a.cfg.GetString("password")
			}
			if password == "" {
				return errors.New("password required: pass --password or set TWIN_PASSWORD")
			}
			creds, err := a.client.Login(cmd.Context(), username, password)
			if err != nil {
				return fmt.Errorf("login failed: %w", err)
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s (%s) at %s\n", creds.Username, creds.Role, creds.Server)
			return err
		},
	}
	cmd.Flags().StringVarP(&username, "username", "u", "", "Account username")
	cmd.Flags().StringVarP(&password, "password", "p", "", "Account password (or TWIN_PASSWORD)")
	_ = cmd.MarkFlagRequired("username")
	return cmd
}

func newLogoutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Revoke the stored token",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.client.Logout(cmd.Context()); err != nil {
				return fmt.Errorf("logout: %w", err)
			}
			_, err := fmt.Fprintln(cmd.OutOrStdout(), "Logged out")
			return err
		},
	}
}

type meResponse struct {
	User      types.User `json:"user"`
	ExpiresAt time.Time  `json:"expires_at"`
}

func newWhoamiCmd(a *app) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "whoami",
		Short: "Show the logged in account",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if _, err := a.loggedIn(); err != nil {
				return err
			}
			var me meResponse
			if err := a.client.Get(cmd.Context(), "/users/me", &me); err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd, me)
			}
			tw := newTable(cmd)
			fmt.Fprintf(tw, "username\t%s\n", me.User.Username)
			fmt.Fprintf(tw, "email\t%s\n", me.User.Email)
			fmt.Fprintf(tw, "role\t%s\n", me.User.Role)
			fmt.Fprintf(tw, "id\t%s\n", me.User.ID)
			fmt.Fprintf(tw, "expires\t%s\n", formatTime(me.ExpiresAt))
			return tw.Flush()
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON")
	return cmd
}
