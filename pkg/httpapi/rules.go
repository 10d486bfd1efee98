package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"tally/pkg/protocol"
)

type ruleResponse struct {
	ID        int64  `json:"id"`
	Scope     string `json:"scope"`
	MatchMode string `json:"match_mode"`
	Pattern   string `json:"pattern"`
	Enabled   bool   `json:"enabled"`
}

func toRuleResponse(r protocol.PrivacyRule) ruleResponse {
	return ruleResponse{
		ID:        r.ID,
		Scope:     string(r.Scope),
		MatchMode: string(r.MatchMode),
		Pattern:   r.Pattern,
		Enabled:   r.Enabled,
	}
}

// reloadRules refreshes the in-memory privacy filter after any rule
// mutation. New rules only affect samples observed from now on; stored
// sessions are never rewritten.
func (s *Server) reloadRules(r *http.Request) error {
	rules, err := s.store.ListRules(r.Context())
	if err != nil {
		return err
	}
	s.filter.Update(rules)
	return nil
}

func (s *Server) handleListRules(w http.ResponseWriter, r *http.Request) {
	rules, err := s.store.ListRules(r.Context())
	if err != nil {
		s.internalError(w, "list rules", err)
		return
	}
	out := make([]ruleResponse, 0, len(rules))
	for _, rule := range rules {
		out = append(out, toRuleResponse(rule))
	}
	writeJSON(w, http.StatusOK, map[string]any{"rules": out})
}

func (s *Server) handleCreateRule(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Scope     string `json:"scope"`
		MatchMode string `json:"match_mode"`
		Pattern   string `json:"pattern"`
		Enabled   *bool  `json:"enabled"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid JSON body")
		return
	}

	enabled := true
	if req.Enabled != nil {
		enabled = *req.Enabled
	}

	created, err := s.store.CreateRule(r.Context(), protocol.PrivacyRule{
		Scope:     protocol.RuleScope(req.Scope),
		MatchMode: protocol.MatchMode(req.MatchMode),
		Pattern:   req.Pattern,
		Enabled:   enabled,
	})
	if err != nil {
		var verr *protocol.RuleValidationError
		if errors.As(err, &verr) {
			badRequest(w, verr.Error())
			return
		}
		s.internalError(w, "create rule", err)
		return
	}

	if err := s.reloadRules(r); err != nil {
		s.internalError(w, "reload rules", err)
		return
	}
	writeJSON(w, http.StatusCreated, toRuleResponse(created))
}

func ruleID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	return id, err == nil && id > 0
}

func (s *Server) handlePatchRule(w http.ResponseWriter, r *http.Request) {
	id, ok := ruleID(r)
	if !ok {
		badRequest(w, "rule id must be a positive integer")
		return
	}

	var req struct {
		Enabled *bool `json:"enabled"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Enabled == nil {
		badRequest(w, "body must set enabled")
		return
	}

	found, err := s.store.SetRuleEnabled(r.Context(), id, *req.Enabled)
	if err != nil {
		s.internalError(w, "patch rule", err)
		return
	}
	if !found {
		notFound(w, "no such rule")
		return
	}

	if err := s.reloadRules(r); err != nil {
		s.internalError(w, "reload rules", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"id": id, "enabled": *req.Enabled})
}

func (s *Server) handleDeleteRule(w http.ResponseWriter, r *http.Request) {
	id, ok := ruleID(r)
	if !ok {
		badRequest(w, "rule id must be a positive integer")
		return
	}

	deleted, err := s.store.DeleteRule(r.Context(), id)
	if err != nil {
		s.internalError(w, "delete rule", err)
		return
	}
	if !deleted {
		notFound(w, "no such rule")
		return
	}

	if err := s.reloadRules(r); err != nil {
		s.internalError(w, "reload rules", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"deleted": true})
}
