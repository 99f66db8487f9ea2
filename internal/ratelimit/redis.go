// SPDX-License-Identifier: MPL-2.0

package ratelimit

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/dupetable/dupetable/internal/testutil"
)

const defaultKeyPrefix = "dupetable:ratelimit:"

// slidingWindow trims the key's sorted set to the window and adds the new
// request only if the remaining count is below the limit.
//
//	KEYS[1] sorted set of request times (microseconds)
//	ARGV    now, cutoff, limit, ttl ms, member
var slidingWindow = redis.NewScript(`
redis.call('ZREMRANGEBYSCORE', KEYS[1], '-inf', ARGV[2])
if redis.call('ZCARD', KEYS[1]) >= tonumber(ARGV[3]) then
	return 0
end
redis.call('ZADD', KEYS[1], ARGV[1], ARGV[5])
redis.call('PEXPIRE', KEYS[1], ARGV[4])
return 1
`)

type (
	// RedisOptions configures the Redis connection.
	RedisOptions struct {
		// URL is the Redis connection string (e.g., "redis://localhost:6379/0").
		URL string
		// KeyPrefix namespaces limiter keys. Defaults to "dupetable:ratelimit:".
		KeyPrefix string
		// ConnectTimeout bounds the initial ping.
		ConnectTimeout time.Duration
	}

	// Redis keeps one sorted set per client so that several service
	// instances share the same budget.
	Redis struct {
		client *redis.Client
		prefix string
		limit  int
		window time.Duration
		clock  testutil.Clock
	}
)

// NewRedis connects to Redis and returns a limiter.
func NewRedis(ctx context.Context, opts RedisOptions, limit int, window time.Duration, clock testutil.Clock) (*Redis, error) {
	if opts.URL == "" {
		opts.URL = "redis://localhost:6379"
	}
	if opts.KeyPrefix == "" {
		opts.KeyPrefix = defaultKeyPrefix
	}
	if opts.ConnectTimeout == 0 {
		opts.ConnectTimeout = 5 * time.Second
	}
	if clock == nil {
		clock = testutil.RealClock{}
	}

	redisOpts, err := redis.ParseURL(opts.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}
	redisOpts.DialTimeout = opts.ConnectTimeout

	client := redis.NewClient(redisOpts)

	pingCtx, cancel := context.WithTimeout(ctx, opts.ConnectTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &Redis{
		client: client,
		prefix: opts.KeyPrefix,
		limit:  limit,
		window: window,
		clock:  clock,
	}, nil
}

// Allow implements Limiter.
func (r *Redis) Allow(ctx context.Context, key string) (bool, error) {
	now := r.clock.Now()
	cutoff := now.Add(-r.window)

	res, err := slidingWindow.Run(ctx, r.client, []string{r.prefix + key},
		now.UnixMicro(),
		cutoff.UnixMicro(),
		r.limit,
		r.window.Milliseconds(),
		strconv.FormatInt(now.UnixMicro(), 10)+"-"+uuid.NewString(),
	).Int()
	if err != nil {
		return false, fmt.Errorf("rate limit check: %w", err)
	}
	return res == 1, nil
}

// Close closes the Redis connection.
func (r *Redis) Close() error {
	return r.client.Close()
}
