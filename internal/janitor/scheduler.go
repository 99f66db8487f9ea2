// SPDX-License-Identifier: MPL-2.0

package janitor

import (
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/dupetable/dupetable/internal/fsutil"
)

// Scheduler deletes files after a delay. Pending removals are tracked so
// Stop can cancel them on shutdown.
type Scheduler struct {
	logger *log.Logger

	mu      sync.Mutex
	pending map[string]*time.Timer
	stopped bool
}

// NewScheduler returns a Scheduler.
func NewScheduler(logger *log.Logger) *Scheduler {
	if logger == nil {
		logger = log.Default()
	}
	return &Scheduler{logger: logger, pending: make(map[string]*time.Timer)}
}

// ScheduleRemoval deletes path once delay elapses. Scheduling the same path
// again restarts its timer. Calls after Stop are ignored.
func (s *Scheduler) ScheduleRemoval(path string, delay time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return
	}
	if t, ok := s.pending[path]; ok {
		t.Stop()
	}
	s.pending[path] = time.AfterFunc(delay, func() { s.remove(path) })
}

func (s *Scheduler) remove(path string) {
	s.mu.Lock()
	delete(s.pending, path)
	s.mu.Unlock()

	if err := fsutil.RemoveIfExists(path); err != nil {
		s.logger.Debug("scheduled removal failed", "path", path, "err", err)
		return
	}
	s.logger.Debug("removed expired file", "path", path)
}

// Pending returns the number of removals not yet run.
func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

// Stop cancels pending removals. Files they covered are left for the sweeper.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopped = true
	for path, t := range s.pending {
		t.Stop()
		delete(s.pending, path)
	}
}
