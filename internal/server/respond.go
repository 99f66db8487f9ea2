// SPDX-License-Identifier: MPL-2.0

package server

import (
	"encoding/json"
	"errors"
	"mime"
	"net/http"
	"os"
)

// statusResponse is the envelope of every JSON endpoint that reports an
// outcome rather than data.
type statusResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Debug("write response", "err", err)
	}
}

func (s *Server) writeSuccess(w http.ResponseWriter, msg string) {
	s.writeJSON(w, http.StatusOK, statusResponse{Success: true, Message: msg})
}

func (s *Server) writeFailure(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, statusResponse{Error: msg})
}

// parseForm reads url-encoded and multipart bodies up to the upload limit.
func (s *Server) parseForm(w http.ResponseWriter, r *http.Request) error {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)
	// ParseMultipartForm hides url-encoded read errors behind ErrNotMultipart.
	if err := r.ParseForm(); err != nil {
		return err
	}
	err := r.ParseMultipartForm(s.cfg.MaxUploadBytes)
	if err != nil && !errors.Is(err, http.ErrNotMultipart) {
		return err
	}
	return nil
}

func isTooLarge(err error) bool {
	var mbe *http.MaxBytesError
	return errors.As(err, &mbe)
}

// serveArchive streams an open zip file as an attachment named name.
func serveArchive(w http.ResponseWriter, r *http.Request, f *os.File, info os.FileInfo, name string) {
	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": name}))
	http.ServeContent(w, r, name, info.ModTime(), f)
}
