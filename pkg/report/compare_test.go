package report

import (
	"context"
	"testing"
	"time"

	"tally/pkg/protocol"
)

// Seven-day period starting 2024-03-08 with 36000 active seconds against
// a reference week totalling 30000 reports a +6000 (+20.0%) delta.
func TestComparison_WeekOverWeek(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 3, 20, 0, 0, 0, 0, time.UTC)
	p, err := Resolve(ModeCustom, "", "2024-03-08", "2024-03-14", now)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}

	src := &fakeSource{sessions: []protocol.Session{
		// Current period: 10h active.
		{StartTS: ts(t, "2024-03-09", 8, 0), EndTS: ts(t, "2024-03-09", 18, 0),
			App: "editor", State: protocol.StateActive, EffectiveSeconds: 36000},
		// Reference period 2024-03-01..2024-03-07: 8h20m active.
		{StartTS: ts(t, "2024-03-03", 8, 0), EndTS: ts(t, "2024-03-03", 16, 20),
			App: "editor", State: protocol.StateActive, EffectiveSeconds: 30000},
		// Outside both windows, must not leak in.
		{StartTS: ts(t, "2024-02-20", 8, 0), EndTS: ts(t, "2024-02-20", 9, 0),
			App: "editor", State: protocol.StateActive, EffectiveSeconds: 3600},
	}}

	o, err := New(src).Overview(context.Background(), p, GroupByApp, true)
	if err != nil {
		t.Fatalf("overview: %v", err)
	}
	c := o.Comparison
	if c == nil {
		t.Fatal("comparison missing")
	}

	if c.RefStartDate != "2024-03-01" || c.RefEndDateInclusive != "2024-03-07" {
		t.Errorf("reference window = %s..%s", c.RefStartDate, c.RefEndDateInclusive)
	}
	if c.ActiveSeconds.Previous != 30000 || c.ActiveSeconds.Current != 36000 {
		t.Errorf("active = %+v", c.ActiveSeconds)
	}
	if c.ActiveSeconds.Delta != 6000 {
		t.Errorf("delta = %d, want 6000", c.ActiveSeconds.Delta)
	}
	if c.ActiveSeconds.Percentage != 20.0 || c.ActiveSeconds.BaseZero {
		t.Errorf("percentage = %v base_zero = %v", c.ActiveSeconds.Percentage, c.ActiveSeconds.BaseZero)
	}
}

func TestComparison_BaseZero(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 3, 20, 0, 0, 0, 0, time.UTC)
	p, err := Resolve(ModeCustom, "", "2024-03-08", "2024-03-14", now)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}

	src := &fakeSource{sessions: []protocol.Session{
		{StartTS: ts(t, "2024-03-09", 8, 0), EndTS: ts(t, "2024-03-09", 9, 0),
			App: "editor", State: protocol.StateActive, EffectiveSeconds: 3600},
	}}

	o, err := New(src).Overview(context.Background(), p, GroupByApp, true)
	if err != nil {
		t.Fatalf("overview: %v", err)
	}
	c := o.Comparison
	if !c.ActiveSeconds.BaseZero {
		t.Error("empty reference window must flag base zero")
	}
	if c.ActiveSeconds.Percentage != 0 {
		t.Errorf("base-zero percentage = %v, want 0", c.ActiveSeconds.Percentage)
	}
	if c.ActiveSeconds.Delta != 3600 {
		t.Errorf("delta = %d", c.ActiveSeconds.Delta)
	}
}

func TestComparison_AvgAndDistinctAndAfk(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 3, 20, 0, 0, 0, 0, time.UTC)
	p, err := Resolve(ModeCustom, "", "2024-03-08", "2024-03-14", now)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}

	src := &fakeSource{sessions: []protocol.Session{
		// Current: two apps, 5400s active, 600s AFK.
		{StartTS: ts(t, "2024-03-09", 8, 0), EndTS: ts(t, "2024-03-09", 9, 0),
			App: "editor", State: protocol.StateActive, EffectiveSeconds: 3600},
		{StartTS: ts(t, "2024-03-10", 8, 0), EndTS: ts(t, "2024-03-10", 8, 30),
			App: "chat", State: protocol.StateActive, EffectiveSeconds: 1800},
		{StartTS: ts(t, "2024-03-10", 9, 0), EndTS: ts(t, "2024-03-10", 9, 10),
			App: "chat", State: protocol.StateAfk},
		// Reference: one app, 1380s active, no AFK.
		{StartTS: ts(t, "2024-03-02", 8, 0), EndTS: ts(t, "2024-03-02", 8, 23),
			App: "editor", State: protocol.StateActive, EffectiveSeconds: 1380},
	}}

	o, err := New(src).Overview(context.Background(), p, GroupByApp, true)
	if err != nil {
		t.Fatalf("overview: %v", err)
	}
	c := o.Comparison

	if c.DistinctApps.Previous != 1 || c.DistinctApps.Current != 2 || c.DistinctApps.Delta != 1 {
		t.Errorf("distinct = %+v", c.DistinctApps)
	}
	// avg/day = round(total / 7).
	if c.AvgPerDaySeconds.Current != 771 {
		t.Errorf("avg/day current = %d, want 771", c.AvgPerDaySeconds.Current)
	}
	if c.AvgPerDaySeconds.Previous != 197 {
		t.Errorf("avg/day previous = %d, want 197", c.AvgPerDaySeconds.Previous)
	}
	if c.AfkSeconds.Current != 600 || !c.AfkSeconds.BaseZero {
		t.Errorf("afk = %+v", c.AfkSeconds)
	}
}

func TestAvgPerDay_Rounding(t *testing.T) {
	t.Parallel()

	cases := []struct {
		total int64
		days  int
		want  int64
	}{
		{0, 7, 0},
		{100, 0, 100}, // degenerate day count clamps to 1
		{10, 3, 3},
		{11, 3, 4},
		{36000, 7, 5143},
	}
	for _, tc := range cases {
		if got := avgPerDay(tc.total, tc.days); got != tc.want {
			t.Errorf("avgPerDay(%d, %d) = %d, want %d", tc.total, tc.days, got, tc.want)
		}
	}
}
