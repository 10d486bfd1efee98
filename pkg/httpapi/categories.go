package httpapi

import (
	"encoding/json"
	"net/http"
)

type categoryResponse struct {
	App      string `json:"app"`
	Category string `json:"category"`
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	mappings, err := s.store.ListCategories(r.Context())
	if err != nil {
		s.internalError(w, "list categories", err)
		return
	}
	out := make([]categoryResponse, 0, len(mappings))
	for _, m := range mappings {
		out = append(out, categoryResponse{App: m.App, Category: m.Category})
	}
	writeJSON(w, http.StatusOK, map[string]any{"categories": out})
}

func (s *Server) handleSetCategory(w http.ResponseWriter, r *http.Request) {
	app := r.PathValue("app")

	var req struct {
		Category string `json:"category"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid JSON body")
		return
	}
	if req.Category == "" {
		badRequest(w, "category is required")
		return
	}

	if err := s.store.SetCategory(r.Context(), app, req.Category); err != nil {
		s.internalError(w, "set category", err)
		return
	}
	writeJSON(w, http.StatusOK, categoryResponse{App: app, Category: req.Category})
}

func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	app := r.PathValue("app")

	removed, err := s.store.DeleteCategory(r.Context(), app)
	if err != nil {
		s.internalError(w, "delete category", err)
		return
	}
	if !removed {
		notFound(w, "no category mapping for "+app)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"deleted": true})
}
