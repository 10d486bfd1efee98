package report

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"tally/pkg/protocol"
)

// GroupBy selects the leaderboard grouping key.
type GroupBy string

const (
	GroupByApp      GroupBy = "app"
	GroupByCategory GroupBy = "category"
)

// ParseGroupBy validates a group_by string, defaulting to app.
func ParseGroupBy(s string) (GroupBy, error) {
	switch GroupBy(s) {
	case GroupByApp, GroupByCategory:
		return GroupBy(s), nil
	case "":
		return GroupByApp, nil
	}
	return "", &protocol.RangeError{Param: "group_by", Reason: fmt.Sprintf("unknown group_by %q", s)}
}

// SessionSource is the slice of the store the aggregator reads.
type SessionSource interface {
	Overlapping(ctx context.Context, startTS, endTS int64) ([]protocol.Session, error)
	CategoryMap(ctx context.Context) (map[string]string, error)
}

// RankedEntry is one leaderboard row.
type RankedEntry struct {
	App        string  `json:"app"`
	Seconds    int64   `json:"seconds"`
	Human      string  `json:"human"`
	Percentage float64 `json:"percentage"`
}

// DayBucket is one entry of the daily sub-series.
type DayBucket struct {
	Date    string `json:"date"`
	Seconds int64  `json:"seconds"`
}

// Overview is the full report payload for one period.
type Overview struct {
	Mode                  string `json:"mode"`
	AnchorDate            string `json:"anchor_date,omitempty"`
	GroupBy               string `json:"group_by"`
	RangeStartDate        string `json:"range_start_date"`
	RangeEndDateInclusive string `json:"range_end_date_inclusive"`
	DaysCount             int    `json:"days_count"`

	ActiveSeconds       int64 `json:"active_seconds"`
	EffectiveSeconds    int64 `json:"effective_seconds"`
	PassiveSeconds      int64 `json:"passive_seconds"`
	AfkSeconds          int64 `json:"afk_seconds"`
	SleepSeconds        int64 `json:"sleep_seconds"`
	UnattributedSeconds int64 `json:"unattributed_seconds"`

	ActiveHuman       string `json:"active_human"`
	EffectiveHuman    string `json:"effective_human"`
	PassiveHuman      string `json:"passive_human"`
	AfkHuman          string `json:"afk_human"`
	SleepHuman        string `json:"sleep_human"`
	UnattributedHuman string `json:"unattributed_human"`

	DistinctApps     int           `json:"distinct_apps"`
	TopApps          []RankedEntry `json:"top_apps"`
	RemainderSeconds int64         `json:"remainder_seconds"`

	ByHourSeconds []int64     `json:"by_hour_seconds,omitempty"`
	ByDay         []DayBucket `json:"by_day,omitempty"`

	Comparison *Comparison `json:"comparison,omitempty"`
}

// Aggregator computes overview reports from the session log. It is
// stateless between queries; the category map is snapshotted once per
// query so concurrent mapping edits cannot produce mixed groupings.
type Aggregator struct {
	src  SessionSource
	topN int
}

// New creates an aggregator over src with the default leaderboard size.
func New(src SessionSource) *Aggregator {
	return &Aggregator{src: src, topN: protocol.DefaultTopN}
}

// totals are the clipped per-state duration sums for one period.
type totals struct {
	active       int64
	effective    int64
	passive      int64
	afk          int64
	sleep        int64
	unattributed int64
	groups       map[string]int64
}

// Overview computes the report for a period. When withComparison is set
// the reference window immediately preceding the period is aggregated as
// well and attached.
func (a *Aggregator) Overview(ctx context.Context, p Period, groupBy GroupBy, withComparison bool) (Overview, error) {
	cur, sessions, err := a.collect(ctx, p, groupBy)
	if err != nil {
		return Overview{}, err
	}

	o := Overview{
		Mode:                  string(p.Mode),
		GroupBy:               string(groupBy),
		RangeStartDate:        p.StartDate(),
		RangeEndDateInclusive: p.EndDateInclusive(),
		DaysCount:             p.Days,

		ActiveSeconds:       cur.active,
		EffectiveSeconds:    cur.effective,
		PassiveSeconds:      cur.passive,
		AfkSeconds:          cur.afk,
		SleepSeconds:        cur.sleep,
		UnattributedSeconds: cur.unattributed,

		ActiveHuman:       HumanDuration(cur.active),
		EffectiveHuman:    HumanDuration(cur.effective),
		PassiveHuman:      HumanDuration(cur.passive),
		AfkHuman:          HumanDuration(cur.afk),
		SleepHuman:        HumanDuration(cur.sleep),
		UnattributedHuman: HumanDuration(cur.unattributed),

		DistinctApps: len(cur.groups),
	}

	ranked := rank(cur.groups, cur.active)
	if len(ranked) > a.topN {
		for _, e := range ranked[a.topN:] {
			o.RemainderSeconds += e.Seconds
		}
		ranked = ranked[:a.topN]
	}
	o.TopApps = ranked

	if p.Days == 1 {
		o.ByHourSeconds = hourlySeries(p, sessions)
	} else {
		o.ByDay = dailySeries(p, sessions)
	}

	if withComparison {
		ref, _, err := a.collect(ctx, p.Previous(), groupBy)
		if err != nil {
			return Overview{}, err
		}
		c := compare(p, cur, ref)
		o.Comparison = &c
	}
	return o, nil
}

// Ranking returns the full grouped leaderboard for a period without
// top-N truncation.
func (a *Aggregator) Ranking(ctx context.Context, p Period, groupBy GroupBy) ([]RankedEntry, error) {
	cur, _, err := a.collect(ctx, p, groupBy)
	if err != nil {
		return nil, err
	}
	return rank(cur.groups, cur.active), nil
}

// collect sums clipped session durations for the period and groups
// active time by the resolved key. The returned session slice holds
// every session intersecting the period, for bucket distribution.
func (a *Aggregator) collect(ctx context.Context, p Period, groupBy GroupBy) (totals, []protocol.Session, error) {
	sessions, err := a.src.Overlapping(ctx, p.StartTS(), p.EndTS())
	if err != nil {
		return totals{}, nil, fmt.Errorf("overview sessions: %w", err)
	}

	var categories map[string]string
	if groupBy == GroupByCategory {
		categories, err = a.src.CategoryMap(ctx)
		if err != nil {
			return totals{}, nil, fmt.Errorf("overview categories: %w", err)
		}
	}

	t := totals{groups: make(map[string]int64)}
	var inPeriod []protocol.Session

	for _, s := range sessions {
		dur := clip(s.StartTS, s.EndTS, p.StartTS(), p.EndTS())
		if dur < 0 {
			continue
		}
		inPeriod = append(inPeriod, s)

		switch s.State {
		case protocol.StateActive:
			t.active += dur
			eff, pass := splitActive(s, dur)
			t.effective += eff
			t.passive += pass
			if s.App == protocol.RedactedPlaceholder || s.Title == protocol.RedactedPlaceholder {
				t.unattributed += dur
			}
			t.groups[groupKey(s.App, groupBy, categories)] += dur
		case protocol.StateAfk:
			t.afk += dur
		case protocol.StateSuspended:
			t.sleep += dur
		}
	}
	return t, inPeriod, nil
}

// groupKey resolves the leaderboard key for an app. Redacted apps keep
// the placeholder as their own bucket in both grouping modes.
func groupKey(app string, groupBy GroupBy, categories map[string]string) string {
	if app == protocol.RedactedPlaceholder {
		return protocol.RedactedPlaceholder
	}
	if groupBy == GroupByCategory {
		if c, ok := categories[app]; ok {
			return c
		}
		return protocol.UncategorizedLabel
	}
	return app
}

// splitActive scales a session's effective/passive counters to a clipped
// duration, keeping their sum exactly equal to the clipped duration.
func splitActive(s protocol.Session, clipped int64) (effective, passive int64) {
	full := s.Duration()
	if full <= 0 || clipped >= full {
		return s.EffectiveSeconds, s.PassiveSeconds
	}
	effective = s.EffectiveSeconds * clipped / full
	passive = clipped - effective
	return effective, passive
}

// hourlySeries distributes every session's clipped seconds across 24
// hour buckets by interval overlap, regardless of state.
func hourlySeries(p Period, sessions []protocol.Session) []int64 {
	buckets := make([]int64, 24)
	edges := make([]int64, 25)
	for i := 0; i <= 24; i++ {
		edges[i] = p.Start.Add(time.Duration(i) * time.Hour).Unix()
	}
	for _, s := range sessions {
		for h := 0; h < 24; h++ {
			buckets[h] += positive(clip(s.StartTS, s.EndTS, edges[h], edges[h+1]))
		}
	}
	return buckets
}

// dailySeries distributes every session's clipped seconds across one
// bucket per calendar day in the period.
func dailySeries(p Period, sessions []protocol.Session) []DayBucket {
	out := make([]DayBucket, 0, p.Days)
	for d := p.Start; d.Before(p.End); d = d.AddDate(0, 0, 1) {
		next := d.AddDate(0, 0, 1)
		var sum int64
		for _, s := range sessions {
			sum += positive(clip(s.StartTS, s.EndTS, d.Unix(), next.Unix()))
		}
		out = append(out, DayBucket{Date: d.Format(dateLayout), Seconds: sum})
	}
	return out
}

func rank(groups map[string]int64, activeTotal int64) []RankedEntry {
	out := make([]RankedEntry, 0, len(groups))
	for name, secs := range groups {
		e := RankedEntry{App: name, Seconds: secs, Human: HumanDuration(secs)}
		if activeTotal > 0 {
			e.Percentage = round1(float64(secs) / float64(activeTotal) * 100)
		}
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Seconds != out[j].Seconds {
			return out[i].Seconds > out[j].Seconds
		}
		return out[i].App < out[j].App
	})
	return out
}

// clip returns the length of the intersection of [aStart, aEnd) and
// [bStart, bEnd). Zero-length intervals inside the window clip to zero;
// disjoint intervals clip negative.
func clip(aStart, aEnd, bStart, bEnd int64) int64 {
	start := aStart
	if bStart > start {
		start = bStart
	}
	end := aEnd
	if bEnd < end {
		end = bEnd
	}
	return end - start
}

func positive(v int64) int64 {
	if v < 0 {
		return 0
	}
	return v
}

// HumanDuration renders seconds as "3h 05m".
func HumanDuration(seconds int64) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%dh %02dm", seconds/3600, (seconds%3600)/60)
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
