package main

import (
	"fmt"

	"tally/internal/appversion"

	"github.com/spf13/cobra"
)

// newRootCmd creates the root tally command with all subcommands attached.
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "tally",
		Short:         "Personal activity tracker",
		Long:          "tally samples the foreground window, classifies engagement,\nand serves time-bucketed activity reports.",
		Version:       fmt.Sprintf("tally %s", appversion.String()),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.SetVersionTemplate("{{.Version}}\n")

	cmd.AddCommand(
		newStartCmd(),
		newStopCmd(),
		newStatusCmd(),
		newPauseCmd(),
		newResumeCmd(),
		newReportCmd(),
		newRecentCmd(),
		newCategoryCmd(),
		newPrivacyCmd(),
		newExportCmd(),
		newBackupCmd(),
	)

	return cmd
}
