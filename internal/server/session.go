// SPDX-License-Identifier: MPL-2.0

package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dupetable/dupetable/internal/catalog"
	"github.com/dupetable/dupetable/internal/issue"
)

func (s *Server) handleLastSession(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, s.deps.Sessions.Load())
}

// handleUpdateSession stores a snapshot without generating anything.
func (s *Server) handleUpdateSession(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)

	var data map[string]any
	if err := json.NewDecoder(r.Body).Decode(&data); err != nil || len(data) == 0 {
		s.writeFailure(w, http.StatusBadRequest, "No data provided")
		return
	}

	items, err := catalog.ValidateAny(data["items"], s.cfg.MaxNameLength)
	if err != nil {
		s.rejectSession(w, err)
		return
	}
	selected, err := catalog.ValidateAny(data["selected"], s.cfg.MaxNameLength)
	if err != nil {
		s.rejectSession(w, err)
		return
	}

	if _, err := s.deps.Sessions.Save(items, selected); err != nil {
		if errors.Is(err, issue.ErrValidation) {
			s.rejectSession(w, err)
			return
		}
		s.logger.Error("save session", "err", err)
		s.writeFailure(w, http.StatusInternalServerError, "Failed to save session")
		return
	}
	s.writeSuccess(w, "Session updated successfully")
}

func (s *Server) rejectSession(w http.ResponseWriter, err error) {
	s.logger.Error("invalid session data", "err", err)
	s.writeFailure(w, http.StatusBadRequest, "Invalid data: "+err.Error())
}
