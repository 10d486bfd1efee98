package main

import (
	"errors"
	"strings"
	"testing"

	"tally/pkg/report"
)

var errTest = errors.New("connection refused")

func TestSparkline(t *testing.T) {
	tests := []struct {
		name   string
		values []int64
		want   string
	}{
		{"empty", nil, ""},
		{"all zero", []int64{0, 0, 0}, "▁▁▁"},
		{"max gets full block", []int64{0, 100}, "▁█"},
		{"scaled", []int64{0, 50, 100}, "▁▄█"},
		{"negative clamps to baseline", []int64{-5, 100}, "▁█"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := sparkline(tt.values); got != tt.want {
				t.Errorf("sparkline(%v) = %q, want %q", tt.values, got, tt.want)
			}
		})
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		s    string
		n    int
		want string
	}{
		{"short", 10, "short"},
		{"exactly-ten", 11, "exactly-ten"},
		{"a very long application title", 10, "a very lo…"},
		{"ab", 1, "…"},
	}

	for _, tt := range tests {
		if got := truncate(tt.s, tt.n); got != tt.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.s, tt.n, got, tt.want)
		}
	}
}

func TestRenderStatusBar_Offline(t *testing.T) {
	m := newModel(&dashClient{})

	out := m.renderStatusBar()
	if !strings.Contains(out, "daemon: offline") {
		t.Errorf("status bar = %q", out)
	}
}

func TestRenderStatusBar_PausedAndCurrent(t *testing.T) {
	m := newModel(&dashClient{})
	m.status = &daemonStatus{
		Running: true,
		Paused:  true,
		Current: &sessionRow{App: "editor", Title: "main.go", StartTS: 100, EndTS: 400},
	}

	out := m.renderStatusBar()
	for _, want := range []string{"daemon: paused", "editor: main.go", "0h 05m"} {
		if !strings.Contains(out, want) {
			t.Errorf("status bar missing %q: %q", want, out)
		}
	}
}

func TestRenderStatusBar_Tracking(t *testing.T) {
	m := newModel(&dashClient{})
	m.status = &daemonStatus{Running: true}

	out := m.renderStatusBar()
	if !strings.Contains(out, "daemon: tracking") {
		t.Errorf("status bar = %q", out)
	}
	if !strings.Contains(out, "idle") {
		t.Error("status bar should show idle when no session is open")
	}
}

func testOverview() report.Overview {
	return report.Overview{
		Mode:                  "day",
		GroupBy:               "app",
		RangeStartDate:        "2024-03-15",
		RangeEndDateInclusive: "2024-03-15",
		DaysCount:             1,
		ActiveSeconds:         5400,
		ActiveHuman:           "1h 30m",
		EffectiveHuman:        "1h 10m",
		PassiveHuman:          "0h 20m",
		AfkHuman:              "0h 45m",
		SleepHuman:            "8h 00m",
		TopApps: []report.RankedEntry{
			{App: "editor", Seconds: 4000, Human: "1h 06m", Percentage: 74.1},
		},
		ByHourSeconds: make([]int64, 24),
	}
}

func TestRenderOverviewView_Loading(t *testing.T) {
	m := newModel(&dashClient{})

	out := m.renderOverviewView()
	if !strings.Contains(out, "loading report") {
		t.Errorf("loading view = %q", out)
	}
}

func TestRenderOverviewView_Error(t *testing.T) {
	m := newModel(&dashClient{})
	m, _ = updated(t, m, overviewMsg{err: errTest})

	out := m.renderOverviewView()
	if !strings.Contains(out, "cannot load report") {
		t.Errorf("error view = %q", out)
	}
}

func TestRenderOverviewView_WithData(t *testing.T) {
	m := newModel(&dashClient{})
	m, _ = updated(t, m, overviewMsg{overview: testOverview()})

	out := m.renderOverviewView()
	for _, want := range []string{
		"2024-03-15",
		"active 1h 30m",
		"effective 1h 10m",
		"afk 0h 45m",
		"top app",
		"editor",
		"74.1%",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("overview missing %q:\n%s", want, out)
		}
	}
}

func TestRenderOverviewView_Comparison(t *testing.T) {
	o := testOverview()
	o.Comparison = &report.Comparison{
		RefStartDate:        "2024-03-14",
		RefEndDateInclusive: "2024-03-14",
		ActiveSeconds:       report.Delta{Delta: 1800, Percentage: 50.0},
	}

	m := newModel(&dashClient{})
	m, _ = updated(t, m, overviewMsg{overview: o})

	out := m.renderOverviewView()
	if !strings.Contains(out, "vs 2024-03-14 .. 2024-03-14: +1800s active (+50.0%)") {
		t.Errorf("comparison line missing:\n%s", out)
	}
}

func TestRenderRecentView(t *testing.T) {
	m := newModel(&dashClient{})

	out := m.renderRecentView()
	if !strings.Contains(out, "no sessions recorded yet") {
		t.Errorf("empty view = %q", out)
	}

	m.recent = []sessionRow{
		{StartTS: 1700000000, EndTS: 1700000600, App: "browser", State: "active", DurationSeconds: 600},
	}
	out = m.renderRecentView()
	for _, want := range []string{"recent sessions", "browser", "10m"} {
		if !strings.Contains(out, want) {
			t.Errorf("recent view missing %q:\n%s", want, out)
		}
	}
}
