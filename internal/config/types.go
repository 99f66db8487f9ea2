// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"

	// RateLimitMemory keeps counters in process.
	RateLimitMemory RateLimitBackend = "memory"
	// RateLimitRedis shares counters between instances through Redis.
	RateLimitRedis RateLimitBackend = "redis"

	defaultDataDir = "data"
)

var (
	// ErrInvalidLogLevel is returned when a LogLevel value is not recognized.
	ErrInvalidLogLevel = errors.New("invalid log level")
	// ErrInvalidRateLimitBackend is returned when a RateLimitBackend value is not recognized.
	ErrInvalidRateLimitBackend = errors.New("invalid rate limit backend")
	// ErrInvalidConfig is the sentinel error wrapped by InvalidConfigError.
	ErrInvalidConfig = errors.New("invalid config")
)

type (
	// LogLevel is the minimum level written by the logger.
	LogLevel string

	// InvalidLogLevelError wraps ErrInvalidLogLevel.
	InvalidLogLevelError struct {
		Value LogLevel
	}

	// RateLimitBackend selects where rate limit counters live.
	RateLimitBackend string

	// InvalidRateLimitBackendError wraps ErrInvalidRateLimitBackend.
	InvalidRateLimitBackendError struct {
		Value RateLimitBackend
	}

	// InvalidConfigError collects every field error of a Config and wraps
	// ErrInvalidConfig.
	InvalidConfigError struct {
		FieldErrors []error
	}

	// Config holds the application configuration.
	Config struct {
		Server    ServerConfig    `json:"server" mapstructure:"server"`
		Paths     PathsConfig     `json:"paths" mapstructure:"paths"`
		Limits    LimitsConfig    `json:"limits" mapstructure:"limits"`
		RateLimit RateLimitConfig `json:"rate_limit" mapstructure:"rate_limit"`
		Cleanup   CleanupConfig   `json:"cleanup" mapstructure:"cleanup"`
		Watch     WatchConfig     `json:"watch" mapstructure:"watch"`
		LogLevel  LogLevel        `json:"log_level" mapstructure:"log_level"`
	}

	// ServerConfig configures the HTTP listener.
	ServerConfig struct {
		Host            string        `json:"host" mapstructure:"host"`
		Port            int           `json:"port" mapstructure:"port"`
		ReadTimeout     time.Duration `json:"read_timeout" mapstructure:"read_timeout"`
		WriteTimeout    time.Duration `json:"write_timeout" mapstructure:"write_timeout"`
		ShutdownTimeout time.Duration `json:"shutdown_timeout" mapstructure:"shutdown_timeout"`
		// TrustedProxies are the peers (IPs or CIDR prefixes) whose
		// X-Forwarded-For header keys rate limiting.
		TrustedProxies []string `json:"trusted_proxies" mapstructure:"trusted_proxies"`
	}

	// PathsConfig locates every file the service reads or writes. Empty
	// file paths are derived from DataDir by Resolved.
	PathsConfig struct {
		DataDir         string `json:"data_dir" mapstructure:"data_dir"`
		Template        string `json:"template" mapstructure:"template"`
		MasterList      string `json:"master_list" mapstructure:"master_list"`
		Session         string `json:"session" mapstructure:"session"`
		StandardArchive string `json:"standard_archive" mapstructure:"standard_archive"`
		PackIcon        string `json:"pack_icon" mapstructure:"pack_icon"`
		TextureDir      string `json:"texture_dir" mapstructure:"texture_dir"`
		// TempDir receives custom archives; empty means the OS temp dir.
		TempDir string `json:"temp_dir" mapstructure:"temp_dir"`
	}

	// LimitsConfig bounds request sizes.
	LimitsConfig struct {
		MaxItems       int   `json:"max_items" mapstructure:"max_items"`
		MaxNameLength  int   `json:"max_name_length" mapstructure:"max_name_length"`
		MaxUploadBytes int64 `json:"max_upload_bytes" mapstructure:"max_upload_bytes"`
	}

	// RateLimitConfig sizes the per-client custom download limiter.
	RateLimitConfig struct {
		Backend  RateLimitBackend `json:"backend" mapstructure:"backend"`
		Requests int              `json:"requests" mapstructure:"requests"`
		Window   time.Duration    `json:"window" mapstructure:"window"`
		RedisURL string           `json:"redis_url" mapstructure:"redis_url"`
	}

	// CleanupConfig controls removal of generated archives.
	CleanupConfig struct {
		// CustomArchiveTTL is the delay before a served custom archive is deleted.
		CustomArchiveTTL time.Duration `json:"custom_archive_ttl" mapstructure:"custom_archive_ttl"`
		// MaxAge is the age past which the sweeper deletes leftovers.
		MaxAge   time.Duration `json:"max_age" mapstructure:"max_age"`
		Interval time.Duration `json:"interval" mapstructure:"interval"`
	}

	// WatchConfig toggles file watching.
	WatchConfig struct {
		// Template reloads the recipe template when it changes on disk.
		Template bool `json:"template" mapstructure:"template"`
	}
)

// Resolved returns a copy with every empty file path derived from DataDir.
func (p PathsConfig) Resolved() PathsConfig {
	if p.DataDir == "" {
		p.DataDir = defaultDataDir
	}
	fill := func(v *string, name string) {
		if *v == "" {
			*v = filepath.Join(p.DataDir, name)
		}
	}
	fill(&p.Template, "recipe.json.tmpl")
	fill(&p.MasterList, "master_list.txt")
	fill(&p.Session, "last_session.json")
	fill(&p.StandardArchive, "output.zip")
	return p
}

// IsValid checks the constraints the schema cannot express, such as a
// Redis backend without a URL.
func (c Config) IsValid() (bool, []error) {
	var errs []error
	if valid, fieldErrs := c.LogLevel.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if valid, fieldErrs := c.RateLimit.Backend.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if c.RateLimit.Backend == RateLimitRedis && strings.TrimSpace(c.RateLimit.RedisURL) == "" {
		errs = append(errs, errors.New("rate_limit.redis_url is required when rate_limit.backend is \"redis\""))
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port %d out of range", c.Server.Port))
	}
	positive := []struct {
		name  string
		value int64
	}{
		{"limits.max_items", int64(c.Limits.MaxItems)},
		{"limits.max_name_length", int64(c.Limits.MaxNameLength)},
		{"limits.max_upload_bytes", c.Limits.MaxUploadBytes},
		{"rate_limit.requests", int64(c.RateLimit.Requests)},
		{"rate_limit.window", int64(c.RateLimit.Window)},
		{"cleanup.custom_archive_ttl", int64(c.Cleanup.CustomArchiveTTL)},
		{"cleanup.max_age", int64(c.Cleanup.MaxAge)},
		{"cleanup.interval", int64(c.Cleanup.Interval)},
	}
	for _, p := range positive {
		if p.value <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive", p.name))
		}
	}
	if len(errs) > 0 {
		return false, []error{&InvalidConfigError{FieldErrors: errs}}
	}
	return true, nil
}

// Error implements the error interface for InvalidConfigError.
func (e *InvalidConfigError) Error() string {
	msgs := make([]string, len(e.FieldErrors))
	for i, err := range e.FieldErrors {
		msgs[i] = err.Error()
	}
	return fmt.Sprintf("invalid config: %s", strings.Join(msgs, "; "))
}

// Unwrap returns ErrInvalidConfig for errors.Is() compatibility.
func (e *InvalidConfigError) Unwrap() error { return ErrInvalidConfig }

// String returns the string representation of the LogLevel.
func (l LogLevel) String() string { return string(l) }

// IsValid returns whether the LogLevel is one of the defined levels.
func (l LogLevel) IsValid() (bool, []error) {
	switch l {
	case LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError:
		return true, nil
	default:
		return false, []error{&InvalidLogLevelError{Value: l}}
	}
}

// Error implements the error interface for InvalidLogLevelError.
func (e *InvalidLogLevelError) Error() string {
	return fmt.Sprintf("invalid log level %q (valid: debug, info, warn, error)", e.Value)
}

// Unwrap returns the sentinel error for errors.Is() compatibility.
func (e *InvalidLogLevelError) Unwrap() error { return ErrInvalidLogLevel }

// String returns the string representation of the RateLimitBackend.
func (b RateLimitBackend) String() string { return string(b) }

// IsValid returns whether the RateLimitBackend is one of the defined backends.
func (b RateLimitBackend) IsValid() (bool, []error) {
	switch b {
	case RateLimitMemory, RateLimitRedis:
		return true, nil
	default:
		return false, []error{&InvalidRateLimitBackendError{Value: b}}
	}
}

// Error implements the error interface for InvalidRateLimitBackendError.
func (e *InvalidRateLimitBackendError) Error() string {
	return fmt.Sprintf("invalid rate limit backend %q (valid: memory, redis)", e.Value)
}

// Unwrap returns the sentinel error for errors.Is() compatibility.
func (e *InvalidRateLimitBackendError) Unwrap() error { return ErrInvalidRateLimitBackend }

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "127.0.0.1",
			Port:            5000,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    5 * time.Minute,
			ShutdownTimeout: 10 * time.Second,
		},
		Paths: PathsConfig{
			DataDir:    defaultDataDir,
			PackIcon:   "pack_icon.png",
			TextureDir: filepath.Join("textures", "blocks"),
		},
		Limits: LimitsConfig{
			MaxItems:       5000,
			MaxNameLength:  100,
			MaxUploadBytes: 16 << 20,
		},
		RateLimit: RateLimitConfig{
			Backend:  RateLimitMemory,
			Requests: 10,
			Window:   time.Minute,
		},
		Cleanup: CleanupConfig{
			CustomArchiveTTL: 5 * time.Minute,
			MaxAge:           time.Hour,
			Interval:         10 * time.Minute,
		},
		Watch:    WatchConfig{Template: true},
		LogLevel: LogLevelInfo,
	}
}
