package main

import (
	"encoding/json"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/GriffinCanCode/DigitalTwin/internal/shared/types"
)

func newActivityCmd(a *app) *cobra.Command {
	var (
		limit  int
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "activity",
		Short: "List your recent activity",
		RunE: func(cmd *cobra.Command, _ []string) error {
			creds, err := a.loggedIn()
			if err != nil {
				return err
			}
			if limit < 1 || limit > 200 {
				return fmt.Errorf("--limit must be between 1 and 200")
			}
			endpoint := "/activity/user/" + url.PathEscape(creds.UserID) + "?limit=" + strconv.Itoa(limit)
			var acts []types.StoredActivity
			if err := a.client.Get(cmd.Context(), endpoint, &acts); err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd, acts)
			}
			if len(acts) == 0 {
				_, err := fmt.Fprintln(cmd.OutOrStdout(), "No activity recorded")
				return err
			}
			tw := newTable(cmd)
			fmt.Fprintln(tw, "TIME\tACTION\tDETAILS")
			for _, act := range acts {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", formatTime(act.Timestamp), act.Action, act.Details)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "Number of entries (1-200)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON")
	return cmd
}

// statsEndpoints picks the summary view for a role
var statsEndpoints = map[string]string{
	string(types.RoleAdmin): "/admin/dashboard/stats",
	string(types.RoleStaff): "/staff/activity/summary",
}

func newStatsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show the dashboard summary for your role",
		RunE: func(cmd *cobra.Command, _ []string) error {
			creds, err := a.loggedIn()
			if err != nil {
				return err
			}
			endpoint, ok := statsEndpoints[creds.Role]
			if !ok {
				return fmt.Errorf("stats need a staff or admin account (logged in as %s)", creds.Role)
			}
			var stats map[string]interface{}
			if err := a.client.Get(cmd.Context(), endpoint, &stats); err != nil {
				return err
			}
			return writeJSON(cmd, stats)
		},
	}
}

func newPoliciesCmd(a *app) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "policies",
		Short: "Show the desktop policy table",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if _, err := a.loggedIn(); err != nil {
				return err
			}
			var policies map[string]interface{}
			if err := a.client.Get(cmd.Context(), "/desktop/policies", &policies); err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd, policies)
			}
			keys := make([]string, 0, len(policies))
			for k := range policies {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			tw := newTable(cmd)
			for _, k := range keys {
				fmt.Fprintf(tw, "%s\t%v\n", k, policies[k])
			}
			return tw.Flush()
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON")
	return cmd
}

func newTable(cmd *cobra.Command) *tabwriter.Writer {
	return tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
}

func writeJSON(cmd *cobra.Command, v interface{}) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
