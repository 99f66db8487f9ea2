// SPDX-License-Identifier: MPL-2.0

package janitor

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/charmbracelet/log"

	"github.com/dupetable/dupetable/internal/testutil"
)

const (
	DefaultMaxAge   = time.Hour
	DefaultInterval = 10 * time.Minute
)

type (
	// SweepConfig describes what a Sweeper removes.
	SweepConfig struct {
		// Dir is the directory the patterns are matched in.
		Dir string
		// Patterns are doublestar globs relative to Dir, e.g. "custom_*.zip".
		Patterns []string
		// MaxAge is the modification age after which a match is removed.
		MaxAge time.Duration
		// Interval between periodic sweeps in Run.
		Interval time.Duration
	}

	// Sweeper removes stale files matching a set of patterns.
	Sweeper struct {
		cfg    SweepConfig
		clock  testutil.Clock
		logger *log.Logger
	}
)

// NewSweeper returns a Sweeper. A nil clock uses real time.
func NewSweeper(cfg SweepConfig, clock testutil.Clock, logger *log.Logger) (*Sweeper, error) {
	for _, p := range cfg.Patterns {
		if !doublestar.ValidatePattern(p) {
			return nil, errors.New("janitor: invalid pattern " + p)
		}
	}
	if cfg.MaxAge <= 0 {
		cfg.MaxAge = DefaultMaxAge
	}
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if clock == nil {
		clock = testutil.RealClock{}
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Sweeper{cfg: cfg, clock: clock, logger: logger}, nil
}

// Sweep removes every regular file under Dir that matches a pattern and was
// last modified more than MaxAge ago. It returns the removed paths.
func (s *Sweeper) Sweep() []string {
	if _, err := os.Stat(s.cfg.Dir); err != nil {
		return nil
	}

	fsys := os.DirFS(s.cfg.Dir)
	now := s.clock.Now()
	seen := make(map[string]struct{})
	var removed []string

	for _, pattern := range s.cfg.Patterns {
		matches, err := doublestar.Glob(fsys, pattern, doublestar.WithFilesOnly())
		if err != nil {
			s.logger.Warn("sweep glob failed", "pattern", pattern, "err", err)
			continue
		}
		for _, rel := range matches {
			if _, dup := seen[rel]; dup {
				continue
			}
			seen[rel] = struct{}{}

			path := filepath.Join(s.cfg.Dir, filepath.FromSlash(rel))
			info, err := os.Stat(path)
			if err != nil || now.Sub(info.ModTime()) <= s.cfg.MaxAge {
				continue
			}
			if err := os.Remove(path); err != nil {
				s.logger.Warn("could not remove stale file", "path", path, "err", err)
				continue
			}
			removed = append(removed, path)
		}
	}

	if len(removed) > 0 {
		s.logger.Info("stale files removed", "count", len(removed), "dir", s.cfg.Dir)
	}
	return removed
}

// Run sweeps once immediately and then every Interval until ctx is done.
func (s *Sweeper) Run(ctx context.Context) error {
	s.Sweep()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-s.clock.After(s.cfg.Interval):
			s.Sweep()
		}
	}
}
