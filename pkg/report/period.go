// Package report turns the session log into time-bucketed overview
// reports: period resolution, category grouping, leaderboards, hourly
// and daily series, and period-over-period comparison.
package report

import (
	"fmt"
	"time"

	"tally/pkg/protocol"
)

// Mode selects how a reporting period is anchored.
type Mode string

const (
	ModeDay    Mode = "day"
	ModeWeek   Mode = "week"
	ModeMonth  Mode = "month"
	ModeCustom Mode = "custom"
)

// ParseMode validates a mode string.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeDay, ModeWeek, ModeMonth, ModeCustom:
		return Mode(s), nil
	case "":
		return ModeDay, nil
	}
	return "", &protocol.RangeError{Param: "mode", Reason: fmt.Sprintf("unknown mode %q", s)}
}

// maxCustomDays bounds custom ranges so a typo'd year cannot turn one
// query into a multi-decade scan.
const maxCustomDays = 365

const dateLayout = "2006-01-02"

// Period is a resolved, half-open reporting window aligned to local
// midnights. Days is the number of calendar days it covers.
type Period struct {
	Mode  Mode
	Start time.Time
	End   time.Time
	Days  int
}

// StartTS returns the inclusive lower bound in unix seconds.
func (p Period) StartTS() int64 { return p.Start.Unix() }

// EndTS returns the exclusive upper bound in unix seconds.
func (p Period) EndTS() int64 { return p.End.Unix() }

// StartDate returns the first covered day as YYYY-MM-DD.
func (p Period) StartDate() string { return p.Start.Format(dateLayout) }

// EndDateInclusive returns the last covered day as YYYY-MM-DD.
func (p Period) EndDateInclusive() string {
	return p.End.AddDate(0, 0, -1).Format(dateLayout)
}

// Previous returns the reference window for comparison: the same number
// of days immediately before this period.
func (p Period) Previous() Period {
	return Period{
		Mode:  ModeCustom,
		Start: p.Start.AddDate(0, 0, -p.Days),
		End:   p.Start,
		Days:  p.Days,
	}
}

// Resolve turns query parameters into a concrete period. Day, week, and
// month modes take an anchor date (defaulting to today); custom mode
// takes an inclusive start and end date. The local timezone of now is
// used for all midnight boundaries.
func Resolve(mode Mode, anchor, startDate, endDate string, now time.Time) (Period, error) {
	loc := now.Location()
	today := midnight(now)

	switch mode {
	case ModeDay:
		day, err := anchorOrToday(anchor, today, loc)
		if err != nil {
			return Period{}, err
		}
		return Period{Mode: mode, Start: day, End: day.AddDate(0, 0, 1), Days: 1}, nil

	case ModeWeek:
		day, err := anchorOrToday(anchor, today, loc)
		if err != nil {
			return Period{}, err
		}
		// Monday-start week containing the anchor.
		offset := (int(day.Weekday()) + 6) % 7
		start := day.AddDate(0, 0, -offset)
		return Period{Mode: mode, Start: start, End: start.AddDate(0, 0, 7), Days: 7}, nil

	case ModeMonth:
		day, err := anchorOrToday(anchor, today, loc)
		if err != nil {
			return Period{}, err
		}
		start := time.Date(day.Year(), day.Month(), 1, 0, 0, 0, 0, loc)
		end := start.AddDate(0, 1, 0)
		return Period{Mode: mode, Start: start, End: end, Days: daysBetween(start, end)}, nil

	case ModeCustom:
		if startDate == "" || endDate == "" {
			return Period{}, &protocol.RangeError{
				Param: "start_date", Reason: "custom mode requires start_date and end_date",
			}
		}
		start, err := parseDate("start_date", startDate, loc)
		if err != nil {
			return Period{}, err
		}
		endDay, err := parseDate("end_date", endDate, loc)
		if err != nil {
			return Period{}, err
		}
		if endDay.Before(start) {
			return Period{}, &protocol.RangeError{
				Param: "end_date", Reason: "end_date must not precede start_date",
			}
		}
		end := endDay.AddDate(0, 0, 1)
		days := daysBetween(start, end)
		if days > maxCustomDays {
			return Period{}, &protocol.RangeError{
				Param: "end_date", Reason: fmt.Sprintf("range exceeds %d days", maxCustomDays),
			}
		}
		return Period{Mode: mode, Start: start, End: end, Days: days}, nil
	}

	return Period{}, &protocol.RangeError{Param: "mode", Reason: fmt.Sprintf("unknown mode %q", mode)}
}

// Rolling30 returns the last 30 days ending today as a custom period.
func Rolling30(now time.Time) Period {
	today := midnight(now)
	start := today.AddDate(0, 0, -29)
	return Period{Mode: ModeCustom, Start: start, End: today.AddDate(0, 0, 1), Days: 30}
}

func anchorOrToday(anchor string, today time.Time, loc *time.Location) (time.Time, error) {
	if anchor == "" {
		return today, nil
	}
	return parseDate("anchor_date", anchor, loc)
}

func parseDate(param, s string, loc *time.Location) (time.Time, error) {
	t, err := time.ParseInLocation(dateLayout, s, loc)
	if err != nil {
		return time.Time{}, &protocol.RangeError{
			Param: param, Reason: fmt.Sprintf("invalid date %q, want YYYY-MM-DD", s),
		}
	}
	return t, nil
}

func midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// daysBetween counts calendar days in the half-open window [start, end).
// Midnight-to-midnight arithmetic keeps DST transitions from skewing the
// count.
func daysBetween(start, end time.Time) int {
	days := 0
	for d := start; d.Before(end); d = d.AddDate(0, 0, 1) {
		days++
	}
	return days
}
