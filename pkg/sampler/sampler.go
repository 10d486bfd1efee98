// Package sampler probes the desktop for the foreground window and the
// time since last physical input. Probes shell out to the usual X11
// tools, falling back to Hyprland's IPC client on Wayland, and are all
// bounded-time. The tracking core only sees the Sampler type through
// its interface; a failed probe means no sample that tick.
package sampler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"tally/pkg/protocol"
)

// CommandRunner abstracts subprocess execution for the probes.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// ExecRunner implements CommandRunner using os/exec.
type ExecRunner struct{}

// Run executes a command and returns its stdout as bytes.
func (r *ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	out, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return nil, fmt.Errorf("%s %s: %w: %s", name, strings.Join(args, " "), err, exitErr.Stderr)
		}
		return nil, fmt.Errorf("%s %s: %w", name, strings.Join(args, " "), err)
	}
	return out, nil
}

// DefaultProbeTimeout bounds one full sampling round.
const DefaultProbeTimeout = 1500 * time.Millisecond

// Sampler probes the foreground window and idle time.
type Sampler struct {
	runner  CommandRunner
	timeout time.Duration
	now     func() time.Time
}

// New creates a Sampler using the given runner.
func New(runner CommandRunner) *Sampler {
	return &Sampler{runner: runner, timeout: DefaultProbeTimeout, now: time.Now}
}

// Sample probes the desktop once. Any probe failure fails the whole
// sample; the caller treats that as "no sample this tick".
func (s *Sampler) Sample(ctx context.Context) (protocol.RawSample, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	app, title, err := s.foreground(ctx)
	if err != nil {
		return protocol.RawSample{}, fmt.Errorf("foreground probe: %w", err)
	}
	idle, err := s.idleSeconds(ctx)
	if err != nil {
		return protocol.RawSample{}, fmt.Errorf("idle probe: %w", err)
	}

	return protocol.RawSample{
		Timestamp:   s.now().Unix(),
		AppName:     app,
		WindowTitle: title,
		IdleSeconds: idle,
	}, nil
}

// foreground resolves the focused window's app class and title, trying
// the X11 tools first and Hyprland's IPC client if those are absent.
func (s *Sampler) foreground(ctx context.Context) (app, title string, err error) {
	app, title, x11Err := s.foregroundX11(ctx)
	if x11Err == nil {
		return app, title, nil
	}
	app, title, hyprErr := s.foregroundHyprland(ctx)
	if hyprErr == nil {
		return app, title, nil
	}
	return "", "", fmt.Errorf("x11: %v; hyprland: %w", x11Err, hyprErr)
}

func (s *Sampler) foregroundX11(ctx context.Context) (app, title string, err error) {
	idOut, err := s.runner.Run(ctx, "xdotool", "getactivewindow")
	if err != nil {
		return "", "", err
	}
	windowID := strings.TrimSpace(string(idOut))
	if windowID == "" {
		return "", "", errors.New("xdotool returned no active window")
	}

	titleOut, err := s.runner.Run(ctx, "xdotool", "getwindowname", windowID)
	if err != nil {
		return "", "", err
	}

	classOut, err := s.runner.Run(ctx, "xprop", "-id", windowID, "WM_CLASS")
	if err != nil {
		return "", "", err
	}
	app, err = parseWMClass(string(classOut))
	if err != nil {
		return "", "", err
	}
	return app, strings.TrimSpace(string(titleOut)), nil
}

// hyprWindow is the subset of `hyprctl activewindow -j` output we use.
type hyprWindow struct {
	Class string `json:"class"`
	Title string `json:"title"`
}

func (s *Sampler) foregroundHyprland(ctx context.Context) (app, title string, err error) {
	out, err := s.runner.Run(ctx, "hyprctl", "activewindow", "-j")
	if err != nil {
		return "", "", err
	}
	var w hyprWindow
	if err := json.Unmarshal(out, &w); err != nil {
		return "", "", fmt.Errorf("hyprctl output: %w", err)
	}
	if w.Class == "" {
		return "", "", errors.New("hyprctl reported no active window")
	}
	return w.Class, w.Title, nil
}

// idleSeconds reads idle time from xprintidle, falling back to the
// org.freedesktop.ScreenSaver DBus interface.
func (s *Sampler) idleSeconds(ctx context.Context) (int64, error) {
	out, xErr := s.runner.Run(ctx, "xprintidle")
	if xErr == nil {
		ms, err := parseIdleMillis(string(out))
		if err != nil {
			return 0, err
		}
		return ms / 1000, nil
	}

	out, dbusErr := s.runner.Run(ctx, "dbus-send", "--print-reply",
		"--dest=org.freedesktop.ScreenSaver",
		"/org/freedesktop/ScreenSaver",
		"org.freedesktop.ScreenSaver.GetSessionIdleTime")
	if dbusErr != nil {
		return 0, fmt.Errorf("xprintidle: %v; dbus: %w", xErr, dbusErr)
	}
	secs, err := parseDBusIdle(string(out))
	if err != nil {
		return 0, err
	}
	return secs, nil
}

// parseWMClass extracts the application class from an xprop WM_CLASS
// line, e.g. `WM_CLASS(STRING) = "code", "Code"`. The second value is
// the class name; the first is the instance.
func parseWMClass(out string) (string, error) {
	_, rhs, ok := strings.Cut(out, "=")
	if !ok {
		return "", fmt.Errorf("unexpected WM_CLASS output %q", strings.TrimSpace(out))
	}
	var values []string
	for _, part := range strings.Split(rhs, ",") {
		v := strings.Trim(strings.TrimSpace(part), `"`)
		if v != "" {
			values = append(values, v)
		}
	}
	if len(values) == 0 {
		return "", fmt.Errorf("no class values in WM_CLASS output %q", strings.TrimSpace(out))
	}
	return values[len(values)-1], nil
}

// parseIdleMillis parses xprintidle output (milliseconds).
func parseIdleMillis(out string) (int64, error) {
	ms, err := strconv.ParseInt(strings.TrimSpace(out), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("xprintidle output: %w", err)
	}
	if ms < 0 {
		ms = 0
	}
	return ms, nil
}

// parseDBusIdle extracts the idle seconds from a dbus-send reply whose
// payload line looks like `   uint32 12345` (milliseconds).
func parseDBusIdle(out string) (int64, error) {
	for _, line := range strings.Split(out, "\n") {
		fields := strings.Fields(line)
		if len(fields) == 2 && fields[0] == "uint32" {
			ms, err := strconv.ParseInt(fields[1], 10, 64)
			if err != nil {
				return 0, fmt.Errorf("dbus idle value: %w", err)
			}
			return ms / 1000, nil
		}
	}
	return 0, fmt.Errorf("no uint32 value in dbus reply %q", strings.TrimSpace(out))
}
