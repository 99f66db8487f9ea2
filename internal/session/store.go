// SPDX-License-Identifier: MPL-2.0

package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/dupetable/dupetable/internal/catalog"
	"github.com/dupetable/dupetable/internal/fsutil"
	"github.com/dupetable/dupetable/internal/testutil"
)

type (
	// Snapshot is the last item list and selection a client submitted.
	// Timestamp is nil when nothing was saved yet.
	Snapshot struct {
		Items     []string   `json:"items"`
		Selected  []string   `json:"selected"`
		Timestamp *time.Time `json:"timestamp"`
	}

	// Store reads and writes the snapshot file.
	Store struct {
		path    string
		maxName int
		clock   testutil.Clock
		logger  *log.Logger

		mu sync.Mutex
	}

	// StoreOption configures a Store.
	StoreOption func(*Store)

	rawSnapshot struct {
		Items     any        `json:"items"`
		Selected  any        `json:"selected"`
		Timestamp *time.Time `json:"timestamp"`
	}
)

// WithClock sets the clock used for timestamps.
func WithClock(c testutil.Clock) StoreOption {
	return func(s *Store) {
		s.clock = c
	}
}

// WithLogger sets the logger.
func WithLogger(l *log.Logger) StoreOption {
	return func(s *Store) {
		s.logger = l
	}
}

// WithMaxNameLength overrides catalog.DefaultMaxNameLength.
func WithMaxNameLength(n int) StoreOption {
	return func(s *Store) {
		s.maxName = n
	}
}

// NewStore returns a Store backed by the file at path.
func NewStore(path string, opts ...StoreOption) *Store {
	s := &Store{
		path:    path,
		maxName: catalog.DefaultMaxNameLength,
		clock:   testutil.RealClock{},
		logger:  log.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Empty is the snapshot returned when nothing usable is stored.
func Empty() Snapshot {
	return Snapshot{Items: []string{}, Selected: []string{}}
}

// Load returns the stored snapshot. A missing, unreadable or invalid file
// yields Empty; the problem is logged, never returned.
func (s *Store) Load() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			s.logger.Warn("could not read session", "path", s.path, "err", err)
		}
		return Empty()
	}

	var raw rawSnapshot
	if err := json.Unmarshal(data, &raw); err != nil {
		s.logger.Warn("invalid session file", "path", s.path, "err", err)
		return Empty()
	}
	items, err := catalog.ValidateAny(raw.Items, s.maxName)
	if err != nil {
		s.logger.Warn("invalid session items", "path", s.path, "err", err)
		return Empty()
	}
	selected, err := catalog.ValidateAny(raw.Selected, s.maxName)
	if err != nil {
		s.logger.Warn("invalid session selection", "path", s.path, "err", err)
		return Empty()
	}
	return Snapshot{Items: items, Selected: selected, Timestamp: raw.Timestamp}
}

// Save validates both lists and replaces the stored snapshot atomically.
func (s *Store) Save(items, selected []string) (Snapshot, error) {
	items, err := catalog.ValidateNames(items, s.maxName)
	if err != nil {
		return Snapshot{}, err
	}
	selected, err = catalog.ValidateNames(selected, s.maxName)
	if err != nil {
		return Snapshot{}, err
	}

	now := s.clock.Now()
	snap := Snapshot{Items: items, Selected: selected, Timestamp: &now}
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return Snapshot{}, fmt.Errorf("encoding session: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := fsutil.WriteFile(s.path, data); err != nil {
		return Snapshot{}, fmt.Errorf("saving session: %w", err)
	}
	s.logger.Info("session saved", "items", len(items), "selected", len(selected))
	return snap, nil
}
