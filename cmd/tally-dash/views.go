package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"tally/pkg/report"
)

// sparkRunes are the eight block heights used for the hourly chart.
var sparkRunes = []rune("▁▂▃▄▅▆▇█")

// sparkline renders a sequence of values as one block character each,
// scaled to the series maximum. All-zero input renders as baseline
// blocks.
func sparkline(values []int64) string {
	var max int64
	for _, v := range values {
		if v > max {
			max = v
		}
	}

	var b strings.Builder
	for _, v := range values {
		if max == 0 || v <= 0 {
			b.WriteRune(sparkRunes[0])
			continue
		}
		idx := int(v * int64(len(sparkRunes)-1) / max)
		b.WriteRune(sparkRunes[idx])
	}
	return b.String()
}

// renderStatusBar renders the top bar with daemon health, pause state,
// and the currently open session.
func (m Model) renderStatusBar() string {
	theme := DefaultTheme()

	var daemonPart string
	switch {
	case m.status == nil:
		daemonPart = lipgloss.NewStyle().Foreground(theme.Error).Render("daemon: offline")
	case m.status.Paused:
		daemonPart = lipgloss.NewStyle().Foreground(theme.Warning).Render("daemon: paused")
	default:
		daemonPart = lipgloss.NewStyle().Foreground(theme.Success).Render("daemon: tracking")
	}

	currentPart := lipgloss.NewStyle().Foreground(theme.Muted).Render("idle")
	if m.status != nil && m.status.Current != nil {
		cur := m.status.Current
		label := cur.App
		if cur.Title != "" {
			label += ": " + cur.Title
		}
		currentPart = lipgloss.NewStyle().Foreground(theme.Secondary).
			Render(fmt.Sprintf("%s (%s)", label, report.HumanDuration(cur.EndTS-cur.StartTS)))
	}

	return lipgloss.JoinHorizontal(
		lipgloss.Left,
		daemonPart,
		lipgloss.NewStyle().Render(" | "),
		lipgloss.NewStyle().Foreground(theme.Primary).Render(m.mode+"/"+m.groupBy),
		lipgloss.NewStyle().Render(" | "),
		currentPart,
	)
}

// renderOverviewView renders the period totals, the activity chart, and
// the leaderboard.
func (m Model) renderOverviewView() string {
	theme := DefaultTheme()

	if m.err != nil {
		return lipgloss.NewStyle().Foreground(theme.Error).Padding(1, 0).
			Render("cannot load report: " + m.err.Error())
	}
	if !m.haveOverview {
		return m.spinner.View() + " loading report..."
	}

	o := m.overview
	var b strings.Builder

	header := o.RangeStartDate
	if o.RangeEndDateInclusive != o.RangeStartDate {
		header = fmt.Sprintf("%s .. %s (%d days)", o.RangeStartDate, o.RangeEndDateInclusive, o.DaysCount)
	}
	b.WriteString(lipgloss.NewStyle().Bold(true).Foreground(theme.Primary).Render(header))
	b.WriteString("\n\n")

	b.WriteString(fmt.Sprintf("active %s  (effective %s, passive %s)\n",
		o.ActiveHuman, o.EffectiveHuman, o.PassiveHuman))
	b.WriteString(fmt.Sprintf("afk %s  sleep %s\n", o.AfkHuman, o.SleepHuman))
	if o.UnattributedSeconds > 0 {
		b.WriteString(lipgloss.NewStyle().Foreground(theme.Muted).
			Render(fmt.Sprintf("redacted %s", o.UnattributedHuman)))
		b.WriteString("\n")
	}

	if chart := m.renderChart(o); chart != "" {
		b.WriteString("\n")
		b.WriteString(chart)
		b.WriteString("\n")
	}

	if len(o.TopApps) > 0 {
		b.WriteString("\n")
		b.WriteString(lipgloss.NewStyle().Bold(true).Render("top " + o.GroupBy))
		b.WriteString("\n")
		for _, e := range o.TopApps {
			b.WriteString(fmt.Sprintf("  %-28s %8s  %5.1f%%\n", truncate(e.App, 28), e.Human, e.Percentage))
		}
	}

	if c := o.Comparison; c != nil {
		b.WriteString("\n")
		line := fmt.Sprintf("vs %s .. %s: %+ds active", c.RefStartDate, c.RefEndDateInclusive, c.ActiveSeconds.Delta)
		if !c.ActiveSeconds.BaseZero {
			line += fmt.Sprintf(" (%+.1f%%)", c.ActiveSeconds.Percentage)
		}
		b.WriteString(lipgloss.NewStyle().Foreground(theme.Secondary).Render(line))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.renderHelp())
	return b.String()
}

// renderChart renders either the hourly sparkline (single day) or the
// per-day series.
func (m Model) renderChart(o report.Overview) string {
	theme := DefaultTheme()

	if len(o.ByHourSeconds) > 0 {
		labels := lipgloss.NewStyle().Foreground(theme.Muted).Render("00          06          12          18        23")
		return lipgloss.NewStyle().Foreground(theme.Primary).Render(sparkline(o.ByHourSeconds)) + "\n" + labels
	}
	if len(o.ByDay) > 0 {
		values := make([]int64, len(o.ByDay))
		for i, d := range o.ByDay {
			values[i] = d.Seconds
		}
		labels := lipgloss.NewStyle().Foreground(theme.Muted).
			Render(o.ByDay[0].Date + " .. " + o.ByDay[len(o.ByDay)-1].Date)
		return lipgloss.NewStyle().Foreground(theme.Primary).Render(sparkline(values)) + "\n" + labels
	}
	return ""
}

// renderRecentView renders the raw session log.
func (m Model) renderRecentView() string {
	theme := DefaultTheme()

	if len(m.recent) == 0 {
		return lipgloss.NewStyle().Foreground(theme.Muted).Padding(1, 0).
			Render("no sessions recorded yet") + "\n\n" + m.renderHelp()
	}

	var b strings.Builder
	b.WriteString(lipgloss.NewStyle().Bold(true).Render("recent sessions"))
	b.WriteString("\n")
	for _, s := range m.recent {
		start := time.Unix(s.StartTS, 0).Format("15:04:05")
		label := s.App
		if s.Title != "" {
			label = s.App + ": " + s.Title
		}
		stateStyle := lipgloss.NewStyle().Foreground(theme.Muted)
		if s.State == "active" {
			stateStyle = lipgloss.NewStyle().Foreground(theme.Success)
		}
		b.WriteString(fmt.Sprintf("  %s  %s  %4dm  %s\n",
			start, stateStyle.Render(fmt.Sprintf("%-9s", s.State)),
			s.DurationSeconds/60, truncate(label, 60)))
	}
	b.WriteString("\n")
	b.WriteString(m.renderHelp())
	return b.String()
}

// renderHelp renders the key legend.
func (m Model) renderHelp() string {
	return lipgloss.NewStyle().Foreground(DefaultTheme().Muted).
		Render("d/w/m/r period · g grouping · tab log · p pause · q quit")
}

// truncate shortens s to at most n runes, with an ellipsis.
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	if n <= 1 {
		return "…"
	}
	return string(runes[:n-1]) + "…"
}
