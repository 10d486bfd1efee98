package main

import (
	"strings"
	"testing"

	"tally/pkg/report"
)

func sampleOverview() report.Overview {
	return report.Overview{
		Mode:                  "week",
		GroupBy:               "app",
		RangeStartDate:        "2024-03-11",
		RangeEndDateInclusive: "2024-03-17",
		DaysCount:             7,

		ActiveSeconds:    36000,
		EffectiveSeconds: 30600,
		PassiveSeconds:   5400,
		AfkSeconds:       7200,
		SleepSeconds:     28800,

		ActiveHuman:    report.HumanDuration(36000),
		EffectiveHuman: report.HumanDuration(30600),
		PassiveHuman:   report.HumanDuration(5400),
		AfkHuman:       report.HumanDuration(7200),
		SleepHuman:     report.HumanDuration(28800),

		TopApps: []report.RankedEntry{
			{App: "editor", Seconds: 27000, Human: report.HumanDuration(27000), Percentage: 75.0},
			{App: "browser", Seconds: 9000, Human: report.HumanDuration(9000), Percentage: 25.0},
		},
	}
}

func TestRenderOverview_MultiDayRange(t *testing.T) {
	t.Parallel()

	var b strings.Builder
	renderOverview(&b, sampleOverview())
	out := b.String()

	for _, want := range []string{
		"2024-03-11 .. 2024-03-17 (7 days)",
		"active   10h 00m",
		"effective 8h 30m",
		"afk      2h 00m",
		"sleep    8h 00m",
		"editor",
		"75.0%",
		"browser",
		"25.0%",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "redacted") {
		t.Error("redacted line should be omitted when nothing was redacted")
	}
	if strings.Contains(out, "vs ") {
		t.Error("comparison line should be omitted without comparison data")
	}
}

func TestRenderOverview_SingleDayHeader(t *testing.T) {
	t.Parallel()

	o := sampleOverview()
	o.RangeStartDate = "2024-03-15"
	o.RangeEndDateInclusive = "2024-03-15"
	o.DaysCount = 1

	var b strings.Builder
	renderOverview(&b, o)

	if !strings.HasPrefix(b.String(), "2024-03-15\n") {
		t.Errorf("single-day header wrong:\n%s", b.String())
	}
}

func TestRenderOverview_RedactedAndComparison(t *testing.T) {
	t.Parallel()

	o := sampleOverview()
	o.UnattributedSeconds = 1800
	o.UnattributedHuman = report.HumanDuration(1800)
	o.Comparison = &report.Comparison{
		RefStartDate:        "2024-03-04",
		RefEndDateInclusive: "2024-03-10",
		ActiveSeconds:       report.Delta{Previous: 30000, Current: 36000, Delta: 6000, Percentage: 20.0},
	}

	var b strings.Builder
	renderOverview(&b, o)
	out := b.String()

	for _, want := range []string{
		"redacted 0h 30m",
		"vs 2024-03-04 .. 2024-03-10",
		"+6000s active (+20.0%)",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestRenderOverview_ComparisonBaseZero(t *testing.T) {
	t.Parallel()

	o := sampleOverview()
	o.Comparison = &report.Comparison{
		RefStartDate:        "2024-03-04",
		RefEndDateInclusive: "2024-03-10",
		ActiveSeconds:       report.Delta{Current: 36000, Delta: 36000, BaseZero: true},
	}

	var b strings.Builder
	renderOverview(&b, o)

	if !strings.Contains(b.String(), "+36000s active (no previous activity)") {
		t.Errorf("base-zero comparison wrong:\n%s", b.String())
	}
}
