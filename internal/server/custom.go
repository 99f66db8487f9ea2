// SPDX-License-Identifier: MPL-2.0

package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/dupetable/dupetable/internal/catalog"
	"github.com/dupetable/dupetable/internal/issue"
	"github.com/dupetable/dupetable/internal/pack"
)

// handleDownloadCustom builds a one-off archive in the requested format and
// streams it. The file is removed after CustomArchiveTTL whether or not the
// client finished reading it.
func (s *Server) handleDownloadCustom(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ip := clientIP(r, s.proxies)

	allowed, err := s.deps.Limiter.Allow(ctx, ip)
	if err != nil {
		// Fail open when the backend is unreachable.
		s.logger.Error("rate limiter", "client", ip, "err", err)
		allowed = true
	}
	if !allowed {
		s.tel.rateLimited.Add(ctx, 1)
		s.logger.Warn("rate limit exceeded", "client", ip, "err", issue.ErrRateLimited)
		http.Error(w, "Too many requests. Please wait before downloading again.", http.StatusTooManyRequests)
		return
	}

	if err := s.parseForm(w, r); err != nil {
		http.Error(w, "Invalid items data", http.StatusBadRequest)
		return
	}

	name := r.FormValue("format")
	if name == "" {
		name = string(pack.FormatStandard)
	}
	format, err := pack.ParseFormat(name)
	if err != nil {
		http.Error(w, "Invalid format type", http.StatusBadRequest)
		return
	}

	raw := r.FormValue("items")
	if raw == "" {
		raw = "[]"
	}
	var decoded any
	if err := json.Unmarshal([]byte(raw), &decoded); err != nil {
		s.logger.Error("invalid items JSON", "err", err)
		http.Error(w, "Invalid items data", http.StatusBadRequest)
		return
	}
	names, err := catalog.ValidateAny(decoded, s.cfg.MaxNameLength)
	if err != nil {
		s.logger.Error("invalid items", "err", err)
		http.Error(w, "Invalid items data", http.StatusBadRequest)
		return
	}

	res := s.classify(catalog.IDs(names))
	s.logger.Info("custom download requested", "format", format, "stackable", len(res.Stackable), "filtered", len(res.NonStackable))

	if len(res.Stackable) == 0 {
		http.Error(w, "No items selected", http.StatusBadRequest)
		return
	}
	if len(res.Stackable) > s.cfg.MaxItems {
		http.Error(w, fmt.Sprintf("Too many items selected. Please select fewer than %d items for performance reasons.", s.cfg.MaxItems),
			http.StatusBadRequest)
		return
	}

	renderer, err := s.deps.Templates.Renderer()
	if err != nil {
		if errors.Is(err, issue.ErrTemplateNotFound) {
			s.logger.Error("recipe template not found", "path", s.deps.Templates.Path())
			http.Error(w, s.templateMissing(s.deps.Templates.Path()), http.StatusNotFound)
			return
		}
		s.logger.Error("load recipe template", "err", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	bundle, stats, err := s.deps.Assembler.Build(ctx, res.Stackable, format, renderer, pack.BuildOptions{})
	if err != nil {
		s.logger.Error("build custom archive", "format", format, "err", err)
		http.Error(w, "Error creating download package", http.StatusInternalServerError)
		return
	}
	for _, warning := range stats.Warnings {
		s.logger.Warn("asset substituted", "format", format, "detail", warning)
	}

	path := filepath.Join(s.tempDir(), fmt.Sprintf("custom_%s_%s.zip", format, uuid.NewString()))
	if err := s.deps.Assembler.WriteArchive(ctx, bundle, path); err != nil {
		s.logger.Error("write custom archive", "path", path, "err", err)
		http.Error(w, "Error creating download package", http.StatusInternalServerError)
		return
	}
	s.deps.Janitor.ScheduleRemoval(path, s.cfg.CustomArchiveTTL)

	f, err := os.Open(path)
	if err != nil {
		s.logger.Error("open custom archive", "path", path, "err", err)
		http.Error(w, "Download package creation failed", http.StatusInternalServerError)
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil || info.Size() == 0 {
		s.logger.Error("custom archive missing or empty", "path", path, "err", err)
		http.Error(w, "Download package creation failed", http.StatusInternalServerError)
		return
	}

	s.logger.Info("custom archive created", "path", path, "bytes", info.Size())
	serveArchive(w, r, f, info, fmt.Sprintf("minecraft_recipes_%s.zip", format))
}

func (s *Server) tempDir() string {
	if s.cfg.TempDir != "" {
		return s.cfg.TempDir
	}
	return os.TempDir()
}
