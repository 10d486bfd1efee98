// Package main implements the tally-dash interactive dashboard.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-isatty"
)

// robotSnapshot is the one-shot JSON payload emitted when stdout is not
// a terminal, so scripts can consume the dashboard data.
type robotSnapshot struct {
	Status   *daemonStatus `json:"status"`
	Overview any           `json:"overview,omitempty"`
}

// runRobotMode fetches today's overview and the daemon status once and
// writes them as a single JSON document.
func runRobotMode(w io.Writer) error {
	client, err := newDashClient()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
	defer cancel()

	snap := robotSnapshot{}
	if st, err := client.status(ctx); err == nil {
		snap.Status = st
	}
	if o, err := client.overview(ctx, "day", "app"); err == nil {
		snap.Overview = o
	}

	enc := json.NewEncoder(w)
	if err := enc.Encode(snap); err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	return nil
}

func main() {
	if !isatty.IsTerminal(os.Stdout.Fd()) && !isatty.IsCygwinTerminal(os.Stdout.Fd()) {
		if err := runRobotMode(os.Stdout); err != nil {
			fmt.Fprintf(os.Stderr, "tally-dash: %v\n", err)
			os.Exit(1)
		}
		return
	}

	client, err := newDashClient()
	if err != nil {
		fmt.Fprintf(os.Stderr, "tally-dash: %v\n", err)
		os.Exit(1)
	}

	p := tea.NewProgram(newModel(client), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running dashboard: %v\n", err)
		os.Exit(1)
	}
}
