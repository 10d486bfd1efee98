package main

import (
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"tally/pkg/report"
)

func keyMsg(s string) tea.KeyMsg {
	switch s {
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "ctrl+c":
		return tea.KeyMsg{Type: tea.KeyCtrlC}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func updated(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	nm, ok := next.(Model)
	if !ok {
		t.Fatalf("Update returned %T, want Model", next)
	}
	return nm, cmd
}

func TestNewModel_Defaults(t *testing.T) {
	m := newModel(&dashClient{})

	if m.mode != "day" {
		t.Errorf("mode = %q, want day", m.mode)
	}
	if m.groupBy != "app" {
		t.Errorf("groupBy = %q, want app", m.groupBy)
	}
	if m.activeView != OverviewView {
		t.Errorf("activeView = %d, want OverviewView", m.activeView)
	}
}

func TestUpdate_OverviewMsgStoresReport(t *testing.T) {
	m := newModel(&dashClient{})
	m.err = errors.New("stale")

	m, _ = updated(t, m, overviewMsg{overview: report.Overview{ActiveSeconds: 3600}})

	if !m.haveOverview {
		t.Error("haveOverview should be set")
	}
	if m.err != nil {
		t.Errorf("err should be cleared, got %v", m.err)
	}
	if m.overview.ActiveSeconds != 3600 {
		t.Errorf("overview not stored: %+v", m.overview)
	}
}

func TestUpdate_OverviewMsgErrorKeepsLastReport(t *testing.T) {
	m := newModel(&dashClient{})
	m, _ = updated(t, m, overviewMsg{overview: report.Overview{ActiveSeconds: 3600}})

	m, _ = updated(t, m, overviewMsg{err: errors.New("daemon offline")})

	if m.err == nil {
		t.Error("err should be set")
	}
	if m.overview.ActiveSeconds != 3600 {
		t.Error("last good overview should be kept")
	}
}

func TestUpdate_NilStatusMeansOffline(t *testing.T) {
	m := newModel(&dashClient{})
	m.status = &daemonStatus{Running: true}

	m, _ = updated(t, m, statusMsg(nil))

	if m.status != nil {
		t.Error("status should be nil when the daemon is offline")
	}
}

func TestUpdate_TabTogglesView(t *testing.T) {
	m := newModel(&dashClient{})

	m, _ = updated(t, m, keyMsg("tab"))
	if m.activeView != RecentView {
		t.Errorf("after tab, view = %d, want RecentView", m.activeView)
	}
	m, _ = updated(t, m, keyMsg("tab"))
	if m.activeView != OverviewView {
		t.Errorf("after second tab, view = %d, want OverviewView", m.activeView)
	}
}

func TestUpdate_ModeKeySwitchesAndRefetches(t *testing.T) {
	m := newModel(&dashClient{})
	m.haveOverview = true

	m, cmd := updated(t, m, keyMsg("w"))

	if m.mode != "week" {
		t.Errorf("mode = %q, want week", m.mode)
	}
	if m.haveOverview {
		t.Error("haveOverview should reset on mode switch")
	}
	if cmd == nil {
		t.Error("mode switch should trigger a fetch command")
	}
}

func TestUpdate_SameModeKeyIsNoop(t *testing.T) {
	m := newModel(&dashClient{})
	m.haveOverview = true

	m, cmd := updated(t, m, keyMsg("d"))

	if !m.haveOverview {
		t.Error("repeated mode key should not reset the report")
	}
	if cmd != nil {
		t.Error("repeated mode key should not refetch")
	}
}

func TestUpdate_GroupKeyToggles(t *testing.T) {
	m := newModel(&dashClient{})

	m, cmd := updated(t, m, keyMsg("g"))
	if m.groupBy != "category" {
		t.Errorf("groupBy = %q, want category", m.groupBy)
	}
	if cmd == nil {
		t.Error("group toggle should trigger a fetch command")
	}

	m, _ = updated(t, m, keyMsg("g"))
	if m.groupBy != "app" {
		t.Errorf("groupBy = %q, want app", m.groupBy)
	}
}

func TestUpdate_QuitKeys(t *testing.T) {
	for _, key := range []string{"q", "ctrl+c"} {
		m := newModel(&dashClient{})
		_, cmd := updated(t, m, keyMsg(key))
		if cmd == nil {
			t.Fatalf("%s: expected quit command", key)
		}
		if _, ok := cmd().(tea.QuitMsg); !ok {
			t.Errorf("%s: command is not quit", key)
		}
	}
}

func TestUpdate_PauseKeyWithoutStatusIsNoop(t *testing.T) {
	m := newModel(&dashClient{})

	_, cmd := updated(t, m, keyMsg("p"))
	if cmd != nil {
		t.Error("pause key should be ignored while the daemon is offline")
	}
}

func TestUpdate_WindowSize(t *testing.T) {
	m := newModel(&dashClient{})

	m, _ = updated(t, m, tea.WindowSizeMsg{Width: 120, Height: 40})
	if m.width != 120 || m.height != 40 {
		t.Errorf("size = %dx%d, want 120x40", m.width, m.height)
	}
}

func TestUpdate_TickSchedulesRefresh(t *testing.T) {
	m := newModel(&dashClient{})

	_, cmd := updated(t, m, tickMsg{})
	if cmd == nil {
		t.Error("tick should schedule a refresh batch")
	}
}
