package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// newResumeCmd creates the "tally resume" subcommand.
func newResumeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "resume",
		Short: "Resume tracking after a pause",
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := newAPIClient()
			if err != nil {
				return err
			}
			var st controlStatus
			if err := client.do(cmd.Context(), "POST", "/api/control/resume", nil, &st); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "tracking resumed")
			return nil
		},
	}
}
