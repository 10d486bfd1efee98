package main

import (
	"encoding/json"
	"fmt"
	"os"

	"tally/pkg/protocol"
	"tally/pkg/store"

	"github.com/spf13/cobra"
)

// newBackupCmd creates the "tally backup" subcommand tree.
func newBackupCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Export and restore the full tracking state",
	}
	cmd.AddCommand(newBackupExportCmd(), newBackupRestoreCmd())
	return cmd
}

func newBackupExportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "export <file.json>",
		Short: "Write a full-state backup bundle to a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newAPIClient()
			if err != nil {
				return err
			}
			data, err := client.raw(cmd.Context(), "/api/backup/export")
			if err != nil {
				return err
			}
			if err := os.WriteFile(args[0], data, 0o600); err != nil {
				return fmt.Errorf("write %s: %w", args[0], err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "backup written to %s (%d bytes)\n", args[0], len(data))
			return nil
		},
	}
}

func newBackupRestoreCmd() *cobra.Command {
	var replace bool

	cmd := &cobra.Command{
		Use:   "restore <file.json>",
		Short: "Restore state from a backup bundle",
		Long:  "Restores sessions, category mappings, and privacy rules from a\nbundle produced by \"tally backup export\". By default the bundle is\nmerged into existing data; --replace wipes current state first.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0]) //nolint:gosec // user-supplied bundle path
			if err != nil {
				return fmt.Errorf("read %s: %w", args[0], err)
			}

			// Decode locally first so an unreadable file fails before the
			// daemon pauses tracking.
			var bundle protocol.Bundle
			if err := json.Unmarshal(data, &bundle); err != nil {
				return fmt.Errorf("parse %s: %w", args[0], err)
			}

			client, err := newAPIClient()
			if err != nil {
				return err
			}
			path := "/api/backup/restore"
			if replace {
				path += "?replace=true"
			}
			var stats store.RestoreStats
			if err := client.do(cmd.Context(), "POST", path, bundle, &stats); err != nil {
				return err
			}

			mode := "merge"
			if stats.Replace {
				mode = "replace"
			}
			fmt.Fprintf(cmd.OutOrStdout(),
				"restore (%s): %d sessions added, %d skipped, %d categories, %d rules\n",
				mode, stats.InsertedSessions, stats.SkippedSessions,
				stats.SavedCategories, stats.SavedRules)
			return nil
		},
	}

	cmd.Flags().BoolVar(&replace, "replace", false, "wipe existing data before restoring")
	return cmd
}
