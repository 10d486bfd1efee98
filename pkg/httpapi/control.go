package httpapi

import "net/http"

type statusResponse struct {
	Running bool             `json:"running"`
	Paused  bool             `json:"paused"`
	Current *sessionResponse `json:"current,omitempty"`
}

func (s *Server) status() statusResponse {
	st := s.tracker.Status()
	resp := statusResponse{Running: st.Running, Paused: st.Paused}
	if open, ok := s.tracker.Snapshot(); ok {
		cur := toSessionResponse(open)
		resp.Current = &cur
	}
	return resp
}

// handleHealth is a cheap liveness check for scripts and service
// managers. It answers without touching the store.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	st := s.tracker.Status()
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"running": st.Running,
		"paused":  st.Paused,
	})
}

func (s *Server) handlePause(w http.ResponseWriter, _ *http.Request) {
	s.tracker.Pause()
	writeJSON(w, http.StatusOK, s.status())
}

func (s *Server) handleResume(w http.ResponseWriter, _ *http.Request) {
	s.tracker.Resume()
	writeJSON(w, http.StatusOK, s.status())
}

func (s *Server) handleControlStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.status())
}
