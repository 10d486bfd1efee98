package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// newPauseCmd creates the "tally pause" subcommand.
func newPauseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "pause",
		Short: "Pause tracking (the open session is closed as-is)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := newAPIClient()
			if err != nil {
				return err
			}
			var st controlStatus
			if err := client.do(cmd.Context(), "POST", "/api/control/pause", nil, &st); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "tracking paused")
			return nil
		},
	}
}
