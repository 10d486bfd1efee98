package main

import (
	"fmt"

	"tally/pkg/config"
	"tally/pkg/report"

	"github.com/spf13/cobra"
)

// controlStatus mirrors the /api/control/status response.
type controlStatus struct {
	Running bool `json:"running"`
	Paused  bool `json:"paused"`
	Current *struct {
		App     string `json:"app"`
		Title   string `json:"title"`
		State   string `json:"state"`
		StartTS int64  `json:"start_ts"`
		EndTS   int64  `json:"end_ts"`
	} `json:"current"`
}

// newStatusCmd creates the "tally status" subcommand.
func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show daemon and tracking state",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfgPath, err := config.DefaultPath()
			if err != nil {
				return err
			}
			cfg, err := config.Load(cfgPath)
			if err != nil {
				return err
			}

			status, pid, err := DaemonStatus(cfg.PIDPath)
			if err != nil {
				return err
			}
			if status != StatusRunning {
				fmt.Fprintf(cmd.OutOrStdout(), "daemon: %s\n", status)
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "daemon: running (PID %d)\n", pid)

			client, err := newAPIClient()
			if err != nil {
				return err
			}
			var st controlStatus
			if err := client.get(cmd.Context(), "/api/control/status", &st); err != nil {
				return err
			}

			tracking := "tracking"
			if st.Paused {
				tracking = "paused"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "state:  %s\n", tracking)
			if st.Current != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "now:    %s (%s, %s so far)\n",
					st.Current.App, st.Current.State,
					report.HumanDuration(st.Current.EndTS-st.Current.StartTS))
			}
			return nil
		},
	}
}
