package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

type recentSession struct {
	StartTS          int64  `json:"start_ts"`
	EndTS            int64  `json:"end_ts"`
	App              string `json:"app"`
	Title            string `json:"title"`
	State            string `json:"state"`
	DurationSeconds  int64  `json:"duration_seconds"`
}

// newRecentCmd creates the "tally recent" subcommand.
func newRecentCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "recent",
		Short: "List the most recent sessions",
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := newAPIClient()
			if err != nil {
				return err
			}

			var resp struct {
				Sessions []recentSession `json:"sessions"`
			}
			if err := client.get(cmd.Context(), fmt.Sprintf("/api/recent?limit=%d", limit), &resp); err != nil {
				return err
			}

			for _, s := range resp.Sessions {
				start := time.Unix(s.StartTS, 0).Format("15:04:05")
				label := s.App
				if s.Title != "" {
					label = s.App + ": " + s.Title
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s  %-9s  %4dm  %s\n",
					start, s.State, s.DurationSeconds/60, label)
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "number of sessions to list")
	return cmd
}
