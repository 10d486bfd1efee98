package main

import (
	"context"
	"fmt"
	"os"
	"os/exec"

	"tally/internal/logging"
	"tally/pkg/config"
	"tally/pkg/httpapi"
	"tally/pkg/privacy"
	"tally/pkg/report"
	"tally/pkg/sampler"
	"tally/pkg/stitcher"
	"tally/pkg/store"
	"tally/pkg/tracker"

	"github.com/spf13/cobra"
)

// newStartCmd creates the "tally start" subcommand.
func newStartCmd() *cobra.Command {
	var foreground, debug bool

	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start the tracking daemon",
		Long:  "Starts the sampling daemon and its local HTTP API.\nBy default the daemon is forked into the background.",
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
			switch status {
			case StatusRunning:
				fmt.Fprintf(cmd.OutOrStdout(), "tally is already running (PID %d)\n", pid)
				return nil
			case StatusStale:
				fmt.Fprintln(cmd.OutOrStdout(), "removing stale PID file (process already dead)")
				if err := RemovePIDFile(cfg.PIDPath); err != nil {
					return err
				}
			case StatusStopped:
			}

			if !foreground {
				args := []string{"start", "--foreground"}
				if debug {
					args = append(args, "--debug")
				}
				child := exec.Command(os.Args[0], args...) //nolint:gosec,noctx // intentionally re-executing self; daemon must outlive parent
				child.Stdout = os.Stdout
				child.Stderr = os.Stderr
				if err := child.Start(); err != nil {
					return fmt.Errorf("spawn daemon: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "tally started (PID %d)\n", child.Process.Pid)
				return nil
			}

			return runDaemon(cmd.Context(), cfgPath, cfg, debug)
		},
	}

	cmd.Flags().BoolVar(&foreground, "foreground", false, "run in the foreground instead of daemonizing")
	cmd.Flags().BoolVar(&debug, "debug", false, "enable debug logging")
	return cmd
}

// runDaemon wires the full pipeline and blocks until shutdown: store,
// privacy filter, sampling tracker, HTTP API, and config hot reload.
func runDaemon(parent context.Context, cfgPath string, cfg config.Config, debug bool) error {
	logger := logging.New(debug)

	if err := WritePIDFile(cfg.PIDPath, os.Getpid()); err != nil {
		return err
	}
	ctx, cleanup := SetupSignalHandler(parent, cfg.PIDPath)
	defer cleanup()

	st, db, err := store.Open(cfg.DBPath)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	rules, err := st.ListRules(ctx)
	if err != nil {
		return fmt.Errorf("load privacy rules: %w", err)
	}
	filter := privacy.New(rules)

	tr := tracker.New(tracker.Options{
		Sampler:    sampler.New(&sampler.ExecRunner{}),
		Filter:     filter,
		Stitcher:   stitcher.New(st),
		Classifier: cfg.Classifier(),
		Interval:   cfg.Interval(),
		Logger:     logger,
	})

	handler := httpapi.NewServer(st, report.New(st), tr, filter, logger)

	if err := config.Watch(ctx, cfgPath, logger, func(c config.Config) {
		tr.SetClassifierConfig(c.Classifier())
	}); err != nil {
		logger.Warn("config hot reload unavailable", "err", err)
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	errCh := make(chan error, 2)
	go func() { errCh <- tr.Run(runCtx) }()
	go func() { errCh <- httpapi.ListenAndServe(runCtx, cfg.ListenAddr, handler, logger) }()

	var firstErr error
	for i := 0; i < 2; i++ {
		if err := <-errCh; err != nil && firstErr == nil {
			firstErr = err
			cancel()
		}
	}
	return firstErr
}
