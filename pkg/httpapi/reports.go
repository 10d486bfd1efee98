package httpapi

import (
	"encoding/csv"
	"net/http"
	"strconv"

	"tally/pkg/protocol"
	"tally/pkg/report"
)

// resolvePeriod turns the shared query parameters into a period. The
// extra "rolling" mode maps to the fixed last-30-days window.
func (s *Server) resolvePeriod(r *http.Request) (report.Period, report.GroupBy, error) {
	q := r.URL.Query()

	groupBy, err := report.ParseGroupBy(q.Get("group_by"))
	if err != nil {
		return report.Period{}, "", err
	}

	if q.Get("mode") == "rolling" {
		return report.Rolling30(s.now()), groupBy, nil
	}

	mode, err := report.ParseMode(q.Get("mode"))
	if err != nil {
		return report.Period{}, "", err
	}
	p, err := report.Resolve(mode, q.Get("anchor_date"), q.Get("start_date"), q.Get("end_date"), s.now())
	if err != nil {
		return report.Period{}, "", err
	}
	return p, groupBy, nil
}

func (s *Server) handleOverview(w http.ResponseWriter, r *http.Request) {
	p, groupBy, err := s.resolvePeriod(r)
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	withComparison := r.URL.Query().Get("compare") != "0"

	o, err := s.agg.Overview(r.Context(), p, groupBy, withComparison)
	if err != nil {
		s.internalError(w, "overview", err)
		return
	}
	o.AnchorDate = r.URL.Query().Get("anchor_date")
	writeJSON(w, http.StatusOK, o)
}

func (s *Server) handleRanking(w http.ResponseWriter, r *http.Request) {
	p, groupBy, err := s.resolvePeriod(r)
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	entries, err := s.agg.Ranking(r.Context(), p, groupBy)
	if err != nil {
		s.internalError(w, "ranking", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"range_start_date":         p.StartDate(),
		"range_end_date_inclusive": p.EndDateInclusive(),
		"group_by":                 string(groupBy),
		"entries":                  entries,
	})
}

type sessionResponse struct {
	ID               int64  `json:"id"`
	StartTS          int64  `json:"start_ts"`
	EndTS            int64  `json:"end_ts"`
	App              string `json:"app"`
	Title            string `json:"title,omitempty"`
	State            string `json:"state"`
	EffectiveSeconds int64  `json:"effective_seconds"`
	PassiveSeconds   int64  `json:"passive_seconds"`
	DurationSeconds  int64  `json:"duration_seconds"`
}

func toSessionResponse(sess protocol.Session) sessionResponse {
	return sessionResponse{
		ID:               sess.ID,
		StartTS:          sess.StartTS,
		EndTS:            sess.EndTS,
		App:              sess.App,
		Title:            sess.Title,
		State:            string(sess.State),
		EffectiveSeconds: sess.EffectiveSeconds,
		PassiveSeconds:   sess.PassiveSeconds,
		DurationSeconds:  sess.Duration(),
	}
}

func (s *Server) handleRecent(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			badRequest(w, "limit must be a positive integer")
			return
		}
		limit = n
	}

	sessions, err := s.store.Recent(r.Context(), limit)
	if err != nil {
		s.internalError(w, "recent", err)
		return
	}
	out := make([]sessionResponse, 0, len(sessions))
	for _, sess := range sessions {
		out = append(out, toSessionResponse(sess))
	}
	writeJSON(w, http.StatusOK, map[string]any{"sessions": out})
}

func (s *Server) handleExportSessions(w http.ResponseWriter, r *http.Request) {
	p, _, err := s.resolvePeriod(r)
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	format := r.URL.Query().Get("format")
	if format == "" {
		format = "json"
	}
	if format != "json" && format != "csv" {
		badRequest(w, "format must be json or csv")
		return
	}

	sessions, err := s.store.Overlapping(r.Context(), p.StartTS(), p.EndTS())
	if err != nil {
		s.internalError(w, "export sessions", err)
		return
	}

	if format == "json" {
		out := make([]sessionResponse, 0, len(sessions))
		for _, sess := range sessions {
			out = append(out, toSessionResponse(sess))
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"range_start_date":         p.StartDate(),
			"range_end_date_inclusive": p.EndDateInclusive(),
			"sessions":                 out,
		})
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", "attachment; filename=sessions.csv")
	cw := csv.NewWriter(w)
	_ = cw.Write([]string{"id", "start_ts", "end_ts", "app", "title", "state", "effective_seconds", "passive_seconds"})
	for _, sess := range sessions {
		_ = cw.Write([]string{
			strconv.FormatInt(sess.ID, 10),
			strconv.FormatInt(sess.StartTS, 10),
			strconv.FormatInt(sess.EndTS, 10),
			sess.App,
			sess.Title,
			string(sess.State),
			strconv.FormatInt(sess.EffectiveSeconds, 10),
			strconv.FormatInt(sess.PassiveSeconds, 10),
		})
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		s.log.Error("csv export write failed", "err", err)
	}
}
