// Package httpapi serves the local query and control surface: overview
// reports, session listings and exports, category and privacy rule
// management, backup, and pause/resume. It binds to localhost; there is
// no authentication because the API never leaves the machine.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"tally/pkg/privacy"
	"tally/pkg/report"
	"tally/pkg/store"
	"tally/pkg/tracker"
)

// Server wires the HTTP surface to the store, aggregator, and tracker.
type Server struct {
	store   *store.Store
	agg     *report.Aggregator
	tracker *tracker.Tracker
	filter  *privacy.Filter
	log     *slog.Logger
	now     func() time.Time
}

// NewServer builds the API handler.
func NewServer(st *store.Store, agg *report.Aggregator, tr *tracker.Tracker, filter *privacy.Filter, log *slog.Logger) http.Handler {
	s := &Server{store: st, agg: agg, tracker: tr, filter: filter, log: log, now: time.Now}
	return s.routes()
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/health", s.handleHealth)

	mux.HandleFunc("GET /api/overview", s.handleOverview)
	mux.HandleFunc("GET /api/ranking", s.handleRanking)
	mux.HandleFunc("GET /api/recent", s.handleRecent)
	mux.HandleFunc("GET /api/export/sessions", s.handleExportSessions)

	mux.HandleFunc("GET /api/categories", s.handleListCategories)
	mux.HandleFunc("PUT /api/categories/{app}", s.handleSetCategory)
	mux.HandleFunc("DELETE /api/categories/{app}", s.handleDeleteCategory)

	mux.HandleFunc("GET /api/privacy/rules", s.handleListRules)
	mux.HandleFunc("POST /api/privacy/rules", s.handleCreateRule)
	mux.HandleFunc("PATCH /api/privacy/rules/{id}", s.handlePatchRule)
	mux.HandleFunc("DELETE /api/privacy/rules/{id}", s.handleDeleteRule)

	mux.HandleFunc("GET /api/backup/export", s.handleBackupExport)
	mux.HandleFunc("POST /api/backup/restore", s.handleBackupRestore)

	mux.HandleFunc("POST /api/control/pause", s.handlePause)
	mux.HandleFunc("POST /api/control/resume", s.handleResume)
	mux.HandleFunc("GET /api/control/status", s.handleControlStatus)

	return mux
}

// ListenAndServe runs the API server until ctx is cancelled, then shuts
// down gracefully.
func ListenAndServe(ctx context.Context, addr string, handler http.Handler, log *slog.Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()
	log.Info("api listening", "addr", addr)

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func badRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, map[string]string{"error": msg})
}

func notFound(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusNotFound, map[string]string{"error": msg})
}

func (s *Server) internalError(w http.ResponseWriter, op string, err error) {
	s.log.Error("request failed", "op", op, "err", err)
	writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
}
