// Package cli implements the laci operator command line, a small client for
// the tracker's HTTP API.
package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
)

type rootOptions struct {
	server  string
	token   string
	timeout time.Duration
}

func (o *rootOptions) client() *apiClient {
	return newAPIClient(o.server, o.token, o.timeout)
}

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:           "laci",
		Short:         "Operate a responsibility tracker server",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if opts.server == "" {
				return fmt.Errorf("server URL required (--server or LACI_SERVER)")
			}
			return nil
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&opts.server, "server", os.Getenv("LACI_SERVER"), "tracker base URL")
	flags.StringVar(&opts.token, "token", os.Getenv("LACI_TOKEN"), "bearer token")
	flags.DurationVar(&opts.timeout, "timeout", 30*time.Second, "request timeout")

	root.AddCommand(
		newApplicationsCmd(opts),
		newFindReplaceCmd(opts),
		newAuditCmd(opts),
		newCacheCmd(opts),
	)
	return root
}

// Execute runs the CLI and returns a process exit code.
func Execute() int {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "laci:", err)
		return 1
	}
	return 0
}
