package report

import "math"

// Delta holds one compared metric: previous and current values, the
// absolute change, and the change as a percentage of the previous value.
// BaseZero is set when the previous value is zero, in which case the
// percentage is meaningless and reported as zero.
type Delta struct {
	Previous   int64   `json:"previous"`
	Current    int64   `json:"current"`
	Delta      int64   `json:"delta"`
	Percentage float64 `json:"percentage"`
	BaseZero   bool    `json:"base_zero"`
}

// Comparison relates a period to the equally long window immediately
// preceding it.
type Comparison struct {
	RefStartDate        string `json:"ref_start_date"`
	RefEndDateInclusive string `json:"ref_end_date_inclusive"`

	ActiveSeconds    Delta `json:"active_seconds"`
	AvgPerDaySeconds Delta `json:"avg_per_day_seconds"`
	DistinctApps     Delta `json:"distinct_apps"`
	AfkSeconds       Delta `json:"afk_seconds"`
}

func compare(p Period, cur, ref totals) Comparison {
	prev := p.Previous()
	return Comparison{
		RefStartDate:        prev.StartDate(),
		RefEndDateInclusive: prev.EndDateInclusive(),

		ActiveSeconds:    delta(ref.active, cur.active),
		AvgPerDaySeconds: delta(avgPerDay(ref.active, prev.Days), avgPerDay(cur.active, p.Days)),
		DistinctApps:     delta(int64(len(ref.groups)), int64(len(cur.groups))),
		AfkSeconds:       delta(ref.afk, cur.afk),
	}
}

func delta(previous, current int64) Delta {
	d := Delta{Previous: previous, Current: current, Delta: current - previous}
	if previous == 0 {
		d.BaseZero = true
		return d
	}
	d.Percentage = round1(float64(current-previous) / float64(previous) * 100)
	return d
}

// avgPerDay rounds total seconds over the day count, never dividing by
// zero for degenerate periods.
func avgPerDay(total int64, days int) int64 {
	if days < 1 {
		days = 1
	}
	return int64(math.Round(float64(total) / float64(days)))
}
