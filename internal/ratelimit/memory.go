// SPDX-License-Identifier: MPL-2.0

package ratelimit

import (
	"context"
	"sync"
	"time"

	"github.com/dupetable/dupetable/internal/testutil"
)

// Memory keeps request timestamps per key in process memory.
type Memory struct {
	limit  int
	window time.Duration
	clock  testutil.Clock

	mu   sync.Mutex
	hits map[string][]time.Time
}

// NewMemory returns a Memory limiter admitting limit requests per window.
func NewMemory(limit int, window time.Duration, clock testutil.Clock) *Memory {
	if clock == nil {
		clock = testutil.RealClock{}
	}
	return &Memory{
		limit:  limit,
		window: window,
		clock:  clock,
		hits:   make(map[string][]time.Time),
	}
}

// Allow implements Limiter. It never returns an error.
func (m *Memory) Allow(_ context.Context, key string) (bool, error) {
	now := m.clock.Now()
	cutoff := now.Add(-m.window)

	m.mu.Lock()
	defer m.mu.Unlock()

	kept := m.hits[key][:0]
	for _, t := range m.hits[key] {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}

	if len(kept) >= m.limit {
		m.hits[key] = kept
		return false, nil
	}
	m.hits[key] = append(kept, now)
	return true, nil
}

// Prune drops keys whose requests all fell out of the window.
func (m *Memory) Prune() {
	cutoff := m.clock.Now().Add(-m.window)

	m.mu.Lock()
	defer m.mu.Unlock()
	for key, hits := range m.hits {
		if len(hits) == 0 || !hits[len(hits)-1].After(cutoff) {
			delete(m.hits, key)
		}
	}
}

// Run prunes idle keys once per window until ctx is done. Without it the
// map keeps one entry for every client ever seen.
func (m *Memory) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-m.clock.After(m.window):
			m.Prune()
		}
	}
}

// Keys returns the number of tracked clients.
func (m *Memory) Keys() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.hits)
}
