// SPDX-License-Identifier: MPL-2.0

package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/dupetable/dupetable/internal/testutil"
)

const (
	BackendMemory = "memory"
	BackendRedis  = "redis"

	DefaultRequests = 10
	DefaultWindow   = 60 * time.Second
)

type (
	// Limiter admits or rejects a request for a client key. Allow records the
	// request only when it is admitted.
	Limiter interface {
		Allow(ctx context.Context, key string) (bool, error)
	}

	// Config selects and sizes a limiter.
	Config struct {
		Backend  string
		Requests int
		Window   time.Duration
		RedisURL string
		Clock    testutil.Clock
	}
)

func (c Config) withDefaults() Config {
	if c.Backend == "" {
		c.Backend = BackendMemory
	}
	if c.Requests <= 0 {
		c.Requests = DefaultRequests
	}
	if c.Window <= 0 {
		c.Window = DefaultWindow
	}
	if c.Clock == nil {
		c.Clock = testutil.RealClock{}
	}
	return c
}

// New builds the limiter named by cfg.Backend. The Redis backend connects
// eagerly so a bad URL fails at startup.
func New(ctx context.Context, cfg Config) (Limiter, error) {
	cfg = cfg.withDefaults()
	switch cfg.Backend {
	case BackendMemory:
		return NewMemory(cfg.Requests, cfg.Window, cfg.Clock), nil
	case BackendRedis:
		return NewRedis(ctx, RedisOptions{URL: cfg.RedisURL}, cfg.Requests, cfg.Window, cfg.Clock)
	default:
		return nil, fmt.Errorf("unknown rate limit backend %q", cfg.Backend)
	}
}
