package main

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"tally/pkg/report"
)

// tickMsg is sent by Bubble Tea on every tick interval and triggers a
// periodic data refresh from the daemon API.
type tickMsg time.Time

// overviewMsg carries a fetched report. A non-nil err means the daemon
// could not be reached or rejected the query.
type overviewMsg struct {
	overview report.Overview
	err      error
}

// statusMsg carries the daemon control status. nil means offline.
type statusMsg *daemonStatus

// recentMsg carries the fetched recent session log.
type recentMsg []sessionRow

// recentLimit is how many sessions the log view shows.
const recentLimit = 30

// tickCmd returns a command that sends a tickMsg after 2 seconds.
func tickCmd() tea.Cmd {
	return tea.Tick(2*time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func fetchOverviewCmd(client *dashClient, mode, groupBy string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
		defer cancel()
		o, err := client.overview(ctx, mode, groupBy)
		return overviewMsg{overview: o, err: err}
	}
}

func fetchStatusCmd(client *dashClient) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
		defer cancel()
		st, _ := client.status(ctx)
		return statusMsg(st)
	}
}

func fetchRecentCmd(client *dashClient) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
		defer cancel()
		rows, _ := client.recent(ctx, recentLimit)
		return recentMsg(rows)
	}
}

func togglePauseCmd(client *dashClient, paused bool) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
		defer cancel()
		st, _ := client.togglePause(ctx, paused)
		return statusMsg(st)
	}
}

// ViewType represents different views in the dashboard.
type ViewType int

const (
	// OverviewView shows the period report with totals and leaderboard.
	OverviewView ViewType = iota
	// RecentView shows the raw session log.
	RecentView
)

// Model is the Bubble Tea model for the tally dashboard.
type Model struct {
	client *dashClient

	activeView ViewType
	mode       string // day, week, month, rolling
	groupBy    string // app or category

	// Data fetched from the daemon
	overview     report.Overview
	haveOverview bool
	status       *daemonStatus
	recent       []sessionRow

	// UI state
	spinner spinner.Model
	width   int
	height  int
	err     error
}

// newModel creates a new Model showing today's overview.
func newModel(client *dashClient) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(DefaultTheme().Primary)

	return Model{
		client:  client,
		mode:    "day",
		groupBy: "app",
		spinner: sp,
	}
}

// refreshCmds returns the fetch batch for the current view settings.
func (m Model) refreshCmds() tea.Cmd {
	return tea.Batch(
		fetchOverviewCmd(m.client, m.mode, m.groupBy),
		fetchStatusCmd(m.client),
		fetchRecentCmd(m.client),
	)
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.refreshCmds(), tickCmd())
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyPress(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case overviewMsg:
		if msg.err != nil {
			m.err = msg.err
		} else {
			m.err = nil
			m.overview = msg.overview
			m.haveOverview = true
		}

	case statusMsg:
		m.status = (*daemonStatus)(msg)

	case recentMsg:
		m.recent = []sessionRow(msg)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tickMsg:
		return m, tea.Batch(m.refreshCmds(), tickCmd())
	}

	return m, nil
}

// handleKeyPress processes keyboard input.
func (m Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q":
		return m, tea.Quit

	case "tab":
		if m.activeView == OverviewView {
			m.activeView = RecentView
		} else {
			m.activeView = OverviewView
		}

	case "d":
		return m.withMode("day")
	case "w":
		return m.withMode("week")
	case "m":
		return m.withMode("month")
	case "r":
		return m.withMode("rolling")

	case "g":
		if m.groupBy == "app" {
			m.groupBy = "category"
		} else {
			m.groupBy = "app"
		}
		m.haveOverview = false
		return m, fetchOverviewCmd(m.client, m.mode, m.groupBy)

	case "p":
		if m.status != nil {
			return m, togglePauseCmd(m.client, m.status.Paused)
		}
	}

	return m, nil
}

// withMode switches the report period and refetches.
func (m Model) withMode(mode string) (tea.Model, tea.Cmd) {
	if m.mode == mode {
		return m, nil
	}
	m.mode = mode
	m.haveOverview = false
	return m, fetchOverviewCmd(m.client, m.mode, m.groupBy)
}

// View implements tea.Model.
func (m Model) View() string {
	statusBar := m.renderStatusBar()

	switch m.activeView {
	case RecentView:
		return statusBar + "\n" + m.renderRecentView()
	default:
		return statusBar + "\n" + m.renderOverviewView()
	}
}
