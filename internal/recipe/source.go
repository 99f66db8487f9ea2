// SPDX-License-Identifier: MPL-2.0

package recipe

import (
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/dupetable/dupetable/internal/issue"
)

// Source loads the recipe template from disk and caches the parsed result.
// A missing template is retried on every call until it appears; a change on
// disk is picked up through Reload.
type Source struct {
	path   string
	logger *log.Logger

	mu      sync.RWMutex
	current *Renderer
}

// NewSource returns a Source for the template at path. Nothing is read yet.
func NewSource(path string, logger *log.Logger) *Source {
	if logger == nil {
		logger = log.Default()
	}
	return &Source{path: path, logger: logger}
}

// Path returns the template path.
func (s *Source) Path() string {
	return s.path
}

// Renderer returns the cached renderer, loading it first if needed.
// A missing file yields an error wrapping issue.ErrTemplateNotFound.
func (s *Source) Renderer() (*Renderer, error) {
	s.mu.RLock()
	r := s.current
	s.mu.RUnlock()
	if r != nil {
		return r, nil
	}
	return s.load()
}

// Reload re-reads the template. When the file is gone or no longer parses
// the cached renderer is dropped so callers see the failure.
func (s *Source) Reload() error {
	_, err := s.load()
	if err != nil {
		s.logger.Warn("recipe template reload failed", "path", s.path, "err", err)
		return err
	}
	s.logger.Info("recipe template reloaded", "path", s.path)
	return nil
}

func (s *Source) load() (*Renderer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		s.current = nil
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", issue.ErrTemplateNotFound, s.path)
		}
		return nil, fmt.Errorf("reading recipe template: %w", err)
	}

	r, err := NewRenderer(s.path, data)
	if err != nil {
		s.current = nil
		return nil, err
	}
	s.current = r
	return r, nil
}
