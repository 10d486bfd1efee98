package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

type ruleView struct {
	ID        int64  `json:"id"`
	Scope     string `json:"scope"`
	MatchMode string `json:"match_mode"`
	Pattern   string `json:"pattern"`
	Enabled   bool   `json:"enabled"`
}

// newPrivacyCmd creates the "tally privacy" subcommand tree.
func newPrivacyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "privacy",
		Short: "Manage privacy redaction rules",
		Long:  "Privacy rules redact matching app names or window titles before\nthey are stored. Rules only affect samples observed after the\nchange; stored sessions are never rewritten.",
	}
	cmd.AddCommand(
		newPrivacyListCmd(),
		newPrivacyAddCmd(),
		newPrivacyEnableCmd(true),
		newPrivacyEnableCmd(false),
		newPrivacyRmCmd(),
	)
	return cmd
}

func newPrivacyListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List privacy rules",
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := newAPIClient()
			if err != nil {
				return err
			}
			var resp struct {
				Rules []ruleView `json:"rules"`
			}
			if err := client.get(cmd.Context(), "/api/privacy/rules", &resp); err != nil {
				return err
			}
			for _, r := range resp.Rules {
				state := "enabled"
				if !r.Enabled {
					state = "disabled"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%4d  %-5s %-8s %-8s %s\n",
					r.ID, r.Scope, r.MatchMode, state, r.Pattern)
			}
			return nil
		},
	}
}

func newPrivacyAddCmd() *cobra.Command {
	var scope, mode string

	cmd := &cobra.Command{
		Use:   "add <pattern>",
		Short: "Add a privacy rule",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newAPIClient()
			if err != nil {
				return err
			}
			body := map[string]any{
				"scope":      scope,
				"match_mode": mode,
				"pattern":    args[0],
				"enabled":    true,
			}
			var created ruleView
			if err := client.do(cmd.Context(), "POST", "/api/privacy/rules", body, &created); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "rule %d added (%s %s %q)\n",
				created.ID, created.Scope, created.MatchMode, created.Pattern)
			return nil
		},
	}

	cmd.Flags().StringVarP(&scope, "scope", "s", "title", "field to redact: app or title")
	cmd.Flags().StringVarP(&mode, "mode", "m", "contains", "match mode: contains, exact, regex")
	return cmd
}

func newPrivacyEnableCmd(enable bool) *cobra.Command {
	use, short := "enable <id>", "Enable a privacy rule"
	if !enable {
		use, short = "disable <id>", "Disable a privacy rule"
	}
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("rule id must be an integer: %q", args[0])
			}
			client, err := newAPIClient()
			if err != nil {
				return err
			}
			body := map[string]bool{"enabled": enable}
			path := fmt.Sprintf("/api/privacy/rules/%d", id)
			if err := client.do(cmd.Context(), "PATCH", path, body, nil); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "rule %d %s\n", id, map[bool]string{true: "enabled", false: "disabled"}[enable])
			return nil
		},
	}
}

func newPrivacyRmCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rm <id>",
		Short: "Delete a privacy rule",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("rule id must be an integer: %q", args[0])
			}
			client, err := newAPIClient()
			if err != nil {
				return err
			}
			path := fmt.Sprintf("/api/privacy/rules/%d", id)
			if err := client.do(cmd.Context(), "DELETE", path, nil, nil); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "rule %d deleted\n", id)
			return nil
		},
	}
}
