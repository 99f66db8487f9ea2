// SPDX-License-Identifier: MPL-2.0

package server

import (
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/dupetable/dupetable/internal/catalog"
	"github.com/dupetable/dupetable/internal/issue"
	"github.com/dupetable/dupetable/internal/pack"
)

const unexpectedError = "An unexpected error occurred. Please try again."

// handleGenerate builds the standard archive from the selected items,
// records new items in the master list and saves the session.
func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := s.parseForm(w, r); err != nil {
		if isTooLarge(err) {
			s.writeFailure(w, http.StatusRequestEntityTooLarge, "Request is too large")
			return
		}
		s.logger.Warn("parse generate form", "err", err)
		s.writeFailure(w, http.StatusBadRequest, "Invalid input: the form could not be read")
		return
	}

	selected := r.Form["selected"]
	if len(selected) == 0 {
		s.writeFailure(w, http.StatusBadRequest, "No items selected. Please select at least one item.")
		return
	}

	names, err := catalog.ValidateNames(selected, s.cfg.MaxNameLength)
	if err != nil {
		s.logger.Warn("invalid selection", "err", err)
		s.writeFailure(w, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}
	var all []string
	if raw := r.FormValue("all_items"); raw != "" {
		if all, err = catalog.ValidateNames(strings.Split(raw, "\n"), s.cfg.MaxNameLength); err != nil {
			s.logger.Warn("invalid item list", "err", err)
			s.writeFailure(w, http.StatusBadRequest, "Invalid input: "+err.Error())
			return
		}
	}

	res := s.classify(catalog.IDs(names))
	if len(res.Stackable) == 0 {
		if n := len(res.NonStackable); n > 0 {
			s.writeFailure(w, http.StatusBadRequest, fmt.Sprintf(
				"All %d selected items are non-stackable (tools, armor, vehicles, etc.) and cannot be duplicated. Please select stackable items instead.", n))
			return
		}
		s.writeFailure(w, http.StatusBadRequest, "No stackable items selected. Please select items that can be duplicated.")
		return
	}

	renderer, err := s.deps.Templates.Renderer()
	if err != nil {
		s.writeTemplateError(w, err)
		return
	}

	stackable := catalog.Strings(res.Stackable)
	if added, err := s.deps.Master.Merge(stackable); err != nil {
		s.logger.Warn("could not update master list", "err", err)
	} else if len(added) > 0 {
		s.logger.Debug("master list extended", "added", len(added))
	}

	bundle, _, err := s.deps.Assembler.Build(ctx, res.Stackable, pack.FormatStandard, renderer, pack.BuildOptions{TableRecipe: true})
	if err != nil {
		s.logger.Error("build standard archive", "err", err)
		s.writeFailure(w, http.StatusInternalServerError, unexpectedError)
		return
	}
	if bundle.Len() == 0 {
		s.writeFailure(w, http.StatusInternalServerError, "No recipe files were generated successfully.")
		return
	}

	path := s.cfg.StandardArchive
	if err := s.deps.Assembler.WriteArchive(ctx, bundle, path); err != nil {
		s.logger.Error("write standard archive", "path", path, "err", err)
		s.writeFailure(w, http.StatusInternalServerError, "Failed to create download package.")
		return
	}
	info, err := os.Stat(path)
	if err != nil || info.Size() == 0 {
		s.logger.Error("standard archive missing or empty", "path", path, "err", err)
		s.writeFailure(w, http.StatusInternalServerError, "ZIP file creation failed or is empty.")
		return
	}

	if _, err := s.deps.Sessions.Save(all, stackable); err != nil {
		s.logger.Warn("could not save session", "err", err)
	}

	var filtered string
	if n := len(res.NonStackable); n > 0 {
		filtered = fmt.Sprintf(" (%d non-stackable items filtered out)", n)
	}
	s.logger.Info("standard archive generated", "items", len(stackable), "bytes", info.Size())
	s.writeSuccess(w, fmt.Sprintf("Successfully generated %d recipe file(s) (%s bytes)%s.",
		len(stackable), humanize.Comma(info.Size()), filtered))
}

// handleDownload serves the last generated standard archive.
func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	path := s.cfg.StandardArchive

	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		s.logger.Warn("standard archive not found", "path", path)
		http.Error(w, "ZIP file not found. Please generate recipes first.", http.StatusNotFound)
		return
	}
	if err != nil {
		s.logger.Error("open standard archive", "path", path, "err", err)
		http.Error(w, "Download failed. Please try again.", http.StatusInternalServerError)
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		s.logger.Error("stat standard archive", "path", path, "err", err)
		http.Error(w, "Download failed. Please try again.", http.StatusInternalServerError)
		return
	}
	if info.Size() == 0 {
		s.logger.Error("standard archive is empty", "path", path)
		http.Error(w, "ZIP file is empty. Please regenerate recipes.", http.StatusNotFound)
		return
	}

	s.logger.Info("serving standard archive", "bytes", info.Size())
	serveArchive(w, r, f, info, standardDownloadName)
}

func (s *Server) writeTemplateError(w http.ResponseWriter, err error) {
	if errors.Is(err, issue.ErrTemplateNotFound) {
		s.logger.Error("recipe template not found", "path", s.deps.Templates.Path())
		s.writeFailure(w, http.StatusNotFound, s.templateMissing(s.deps.Templates.Path()))
		return
	}
	s.logger.Error("load recipe template", "err", err)
	s.writeFailure(w, http.StatusInternalServerError, unexpectedError)
}
