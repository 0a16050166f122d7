package cli

import (
	"fmt"
	"net/url"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

type applicationRow struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Enabled  bool   `json:"enabled"`
	HitCount int64  `json:"hitCount"`
}

func newApplicationsCmd(opts *rootOptions) *cobra.Command {
	var showDisabled bool

	cmd := &cobra.Command{
		Use:   "applications",
		Short: "Work with tracked applications",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List applications",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "/v1/applications"
			if showDisabled {
				path += "?showDisabled=true"
			}
			var apps []applicationRow
			if err := opts.client().do(cmd.Context(), "GET", path, nil, &apps); err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tENABLED\tHITS")
			for _, a := range apps {
				fmt.Fprintf(w, "%s\t%s\t%t\t%d\n", a.ID, a.Name, a.Enabled, a.HitCount)
			}
			return w.Flush()
		},
	}
	list.Flags().BoolVar(&showDisabled, "show-disabled", false, "include disabled applications")

	cmd.AddCommand(list)
	return cmd
}

func newFindReplaceCmd(opts *rootOptions) *cobra.Command {
	var applicationID string

	cmd := &cobra.Command{
		Use:   "find-replace <find> <replace>",
		Short: "Replace an exact assignee across entries",
		Long: `Replace every assignee element exactly equal to <find> with <replace>.
Substring occurrences are left untouched. Scope with --application, or omit
it to sweep every application.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			body := map[string]string{
				"applicationId": applicationID,
				"find":          args[0],
				"replace":       args[1],
			}
			var result struct {
				Replaced int `json:"replaced"`
			}
			if err := opts.client().do(cmd.Context(), "POST", "/v1/find-replace", body, &result); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "replaced %d entries\n", result.Replaced)
			return nil
		},
	}
	cmd.Flags().StringVar(&applicationID, "application", "", "limit to one application id")
	return cmd
}

type auditRow struct {
	Timestamp  time.Time `json:"timestamp"`
	Action     string    `json:"action"`
	Target     string    `json:"target"`
	ActorName  string    `json:"actor_name"`
	TargetName string    `json:"target_name"`
}

func newAuditCmd(opts *rootOptions) *cobra.Command {
	var lastDays int

	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Show the audit trail",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var records []auditRow
			path := fmt.Sprintf("/v1/audit?lastDays=%d", lastDays)
			if err := opts.client().do(cmd.Context(), "GET", path, nil, &records); err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "TIME\tACTION\tTARGET\tNAME\tBY")
			for _, r := range records {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
					r.Timestamp.Local().Format(time.DateTime),
					r.Action, r.Target, r.TargetName, r.ActorName)
			}
			return w.Flush()
		},
	}
	cmd.Flags().IntVar(&lastDays, "last-days", 30, "window size in days")
	return cmd
}

func newCacheCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Cache administration",
	}

	clear := &cobra.Command{
		Use:   "clear <key>",
		Short: "Drop one cache key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "/v1/cache/clear?key=" + url.QueryEscape(args[0])
			if err := opts.client().do(cmd.Context(), "POST", path, nil, nil); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "cleared %s\n", args[0])
			return nil
		},
	}

	cmd.AddCommand(clear)
	return cmd
}
