package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"tally/pkg/protocol"
)

func (s *Server) handleBackupExport(w http.ResponseWriter, r *http.Request) {
	bundle, err := s.store.Export(r.Context())
	if err != nil {
		s.internalError(w, "backup export", err)
		return
	}
	w.Header().Set("Content-Disposition", "attachment; filename=tally-backup.json")
	writeJSON(w, http.StatusOK, bundle)
}

func (s *Server) handleBackupRestore(w http.ResponseWriter, r *http.Request) {
	replace := r.URL.Query().Get("replace") == "true"

	var bundle protocol.Bundle
	if err := json.NewDecoder(r.Body).Decode(&bundle); err != nil {
		badRequest(w, "invalid bundle JSON")
		return
	}

	// Sampling stops while the restore transaction runs so the stitcher
	// cannot extend a session the restore is about to replace. The
	// previous pause state is put back afterwards.
	wasPaused := s.tracker.Pause()
	defer func() {
		if !wasPaused {
			s.tracker.Resume()
		}
	}()

	stats, err := s.store.Restore(r.Context(), bundle, replace)
	if err != nil {
		var berr *protocol.BundleValidationError
		var verr *protocol.RuleValidationError
		if errors.As(err, &berr) || errors.As(err, &verr) {
			badRequest(w, err.Error())
			return
		}
		s.internalError(w, "backup restore", err)
		return
	}

	// Restored rules take effect for future samples.
	if err := s.reloadRules(r); err != nil {
		s.internalError(w, "reload rules", err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}
