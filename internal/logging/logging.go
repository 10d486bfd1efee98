// Package logging sets up the daemon's structured logger: JSON lines
// on stderr so stdout stays clean for CLI output.
package logging

import (
	"log/slog"
	"os"
)

// New creates the daemon logger. Debug enables debug-level records,
// which include per-tick sampler noise.
func New(debug bool) *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
