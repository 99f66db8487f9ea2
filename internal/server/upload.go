// SPDX-License-Identifier: MPL-2.0

package server

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/dupetable/dupetable/internal/catalog"
	"github.com/dupetable/dupetable/internal/issue"
)

const uploadField = "catalog_file"

type uploadResponse struct {
	Success        bool     `json:"success"`
	Items          []string `json:"items"`
	Count          int      `json:"count"`
	TotalItems     int      `json:"total_items"`
	UniqueItems    int      `json:"unique_items"`
	FilteredItems  int      `json:"filtered_items"`
	ProcessedFiles []string `json:"processed_files"`
	FailedFiles    []string `json:"failed_files"`
	Message        string   `json:"message"`
	Warning        string   `json:"warning,omitempty"`
	FilterInfo     string   `json:"filter_info,omitempty"`
}

// handleUploadCatalog extracts item identifiers from one or more catalog
// files. A file that cannot be used is reported in failed_files and the
// rest of the batch continues.
func (s *Server) handleUploadCatalog(w http.ResponseWriter, r *http.Request) {
	if err := s.parseForm(w, r); err != nil {
		if isTooLarge(err) {
			s.writeFailure(w, http.StatusRequestEntityTooLarge, "Uploaded files are too large")
			return
		}
		s.logger.Error("parse upload", "err", err)
		s.writeFailure(w, http.StatusBadRequest, "Failed to process the uploaded files")
		return
	}

	var files []*multipart.FileHeader
	if r.MultipartForm != nil {
		for _, fh := range r.MultipartForm.File[uploadField] {
			if fh.Filename != "" {
				files = append(files, fh)
			}
		}
	}
	if len(files) == 0 {
		s.writeFailure(w, http.StatusBadRequest, "No files uploaded")
		return
	}

	processed := make([]string, 0, len(files))
	failed := make([]string, 0)
	var batches [][]catalog.ItemID
	total := 0

	for _, fh := range files {
		items, err := s.extract(fh)
		switch {
		case err != nil:
			var ve *issue.ValidationError
			if errors.As(err, &ve) {
				failed = append(failed, ve.Message)
			} else {
				s.logger.Error("process catalog file", "file", fh.Filename, "err", err)
				failed = append(failed, fh.Filename+" (processing error)")
			}
		case len(items) == 0:
			failed = append(failed, fh.Filename+" (no valid items found)")
		default:
			batches = append(batches, items)
			total += len(items)
			processed = append(processed, fmt.Sprintf("%s (%d items)", fh.Filename, len(items)))
			s.logger.Info("catalog extracted", "file", fh.Filename, "items", len(items))
		}
	}

	if total == 0 {
		s.writeFailure(w, http.StatusBadRequest, "No valid items found in any of the uploaded files")
		return
	}

	unique := catalog.ItemSet(batches...)
	res := s.classify(unique)

	parts := []string{
		fmt.Sprintf("Successfully processed %d file(s)", len(processed)),
		fmt.Sprintf("Found %d unique items", len(unique)),
	}
	if len(res.NonStackable) > 0 {
		parts = append(parts, fmt.Sprintf("Filtered out %d non-stackable items", len(res.NonStackable)))
	}
	parts = append(parts, fmt.Sprintf("Ready to use: %d stackable items", len(res.Stackable)))

	resp := uploadResponse{
		Success:        true,
		Items:          catalog.Strings(res.Stackable),
		Count:          len(res.Stackable),
		TotalItems:     total,
		UniqueItems:    len(unique),
		FilteredItems:  len(res.NonStackable),
		ProcessedFiles: processed,
		FailedFiles:    failed,
		Message:        strings.Join(parts, ". "),
	}
	if len(failed) > 0 {
		resp.Warning = "Some files could not be processed: " + strings.Join(failed, ", ")
	}
	if len(res.NonStackable) > 0 {
		resp.FilterInfo = fmt.Sprintf("Filtered out %d non-stackable items (tools, armor, vehicles, etc.)", len(res.NonStackable))
	}
	s.writeJSON(w, http.StatusOK, resp)
}

// extract parses one uploaded file. Malformed structured content counts as
// zero items.
func (s *Server) extract(fh *multipart.FileHeader) ([]catalog.ItemID, error) {
	if _, err := catalog.KindFromFilename(fh.Filename); err != nil {
		return nil, err
	}

	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()

	content, err := io.ReadAll(f)
	if err != nil {
		return nil, err
	}
	if !utf8.Valid(content) {
		return nil, fmt.Errorf("%s is not valid UTF-8", fh.Filename)
	}

	ext, err := catalog.ParseFile(fh.Filename, content)
	if err != nil {
		if errors.Is(err, issue.ErrParse) {
			s.logger.Warn("malformed catalog", "file", fh.Filename, "err", err)
			return nil, nil
		}
		return nil, err
	}
	if ext.Rejected > 0 {
		s.logger.Debug("tokens rejected", "file", fh.Filename, "candidates", ext.Candidates, "rejected", ext.Rejected)
	}
	return ext.Items, nil
}
