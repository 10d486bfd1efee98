package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/url"

	"tally/pkg/report"

	"github.com/spf13/cobra"
)

// newReportCmd creates the "tally report" subcommand.
func newReportCmd() *cobra.Command {
	var (
		mode    string
		groupBy string
		anchor  string
		from    string
		to      string
		asJSON  bool
	)

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Show an activity report for a period",
		Long:  "Shows active/AFK/sleep totals, the app leaderboard, and the\nperiod-over-period comparison for a day, week, month, custom\nrange, or the rolling last 30 days.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := newAPIClient()
			if err != nil {
				return err
			}

			q := url.Values{}
			q.Set("mode", mode)
			q.Set("group_by", groupBy)
			if anchor != "" {
				q.Set("anchor_date", anchor)
			}
			if from != "" {
				q.Set("start_date", from)
			}
			if to != "" {
				q.Set("end_date", to)
			}

			var o report.Overview
			if err := client.get(cmd.Context(), "/api/overview?"+q.Encode(), &o); err != nil {
				return err
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(o)
			}
			renderOverview(cmd.OutOrStdout(), o)
			return nil
		},
	}

	cmd.Flags().StringVarP(&mode, "mode", "m", "day", "period mode: day, week, month, custom, rolling")
	cmd.Flags().StringVarP(&groupBy, "group-by", "g", "app", "leaderboard grouping: app or category")
	cmd.Flags().StringVar(&anchor, "anchor", "", "anchor date (YYYY-MM-DD) for day/week/month modes")
	cmd.Flags().StringVar(&from, "from", "", "start date (YYYY-MM-DD) for custom mode")
	cmd.Flags().StringVar(&to, "to", "", "end date (YYYY-MM-DD) for custom mode")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the raw report JSON")
	return cmd
}

// renderOverview prints the human-readable report.
func renderOverview(w io.Writer, o report.Overview) {
	if o.RangeStartDate == o.RangeEndDateInclusive {
		fmt.Fprintf(w, "%s\n", o.RangeStartDate)
	} else {
		fmt.Fprintf(w, "%s .. %s (%d days)\n", o.RangeStartDate, o.RangeEndDateInclusive, o.DaysCount)
	}

	fmt.Fprintf(w, "active   %s  (effective %s, passive %s)\n",
		o.ActiveHuman, o.EffectiveHuman, o.PassiveHuman)
	fmt.Fprintf(w, "afk      %s\n", o.AfkHuman)
	fmt.Fprintf(w, "sleep    %s\n", o.SleepHuman)
	if o.UnattributedSeconds > 0 {
		fmt.Fprintf(w, "redacted %s\n", o.UnattributedHuman)
	}

	if len(o.TopApps) > 0 {
		fmt.Fprintf(w, "\ntop %s:\n", o.GroupBy)
		for _, e := range o.TopApps {
			fmt.Fprintf(w, "  %-30s %8s  %5.1f%%\n", e.App, e.Human, e.Percentage)
		}
	}

	if c := o.Comparison; c != nil {
		fmt.Fprintf(w, "\nvs %s .. %s: ", c.RefStartDate, c.RefEndDateInclusive)
		if c.ActiveSeconds.BaseZero {
			fmt.Fprintf(w, "%+ds active (no previous activity)\n", c.ActiveSeconds.Delta)
		} else {
			fmt.Fprintf(w, "%+ds active (%+.1f%%)\n", c.ActiveSeconds.Delta, c.ActiveSeconds.Percentage)
		}
	}
}
