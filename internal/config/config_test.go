// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/dupetable/dupetable/internal/issue"
)

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, ConfigFileName+"."+ConfigFileExt)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadDefaultsWithoutFile(t *testing.T) {
	t.Parallel()

	p := NewProvider()
	cfg, err := p.Load(context.Background(), LoadOptions{ConfigDirPath: t.TempDir()})
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if diff := cmp.Diff(DefaultConfig(), cfg); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}
	if p.Source() != "" {
		t.Errorf("Source() = %q, want empty", p.Source())
	}
}

func TestLoadFromConfigDir(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := writeConfig(t, dir, `
server: {
	port:         8080
	read_timeout: "45s"
}
paths: data_dir: "/srv/dupetable"
rate_limit: {
	backend:   "redis"
	redis_url: "redis://localhost:6379/0"
	window:    "2m"
}
log_level: "debug"
`)

	p := NewProvider()
	cfg, err := p.Load(context.Background(), LoadOptions{ConfigDirPath: dir})
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if p.Source() != path {
		t.Errorf("Source() = %q, want %q", p.Source(), path)
	}

	want := DefaultConfig()
	want.Server.Port = 8080
	want.Server.ReadTimeout = 45 * time.Second
	want.Paths.DataDir = "/srv/dupetable"
	want.RateLimit.Backend = RateLimitRedis
	want.RateLimit.RedisURL = "redis://localhost:6379/0"
	want.RateLimit.Window = 2 * time.Minute
	want.LogLevel = LogLevelDebug
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadRejectsSchemaViolations(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
	}{
		{"unknown field", `colour: "blue"`},
		{"port out of range", `server: port: 70000`},
		{"bad duration", `cleanup: max_age: "an hour"`},
		{"unknown backend", `rate_limit: backend: "memcached"`},
		{"bad log level", `log_level: "trace"`},
		{"syntax error", `server: {`},
		{"empty trusted proxy", `server: trusted_proxies: [""]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			dir := t.TempDir()
			writeConfig(t, dir, tt.content)

			_, err := NewProvider().Load(context.Background(), LoadOptions{ConfigDirPath: dir})
			if err == nil {
				t.Fatal("Load() succeeded")
			}
			var ae *issue.ActionableError
			if !errors.As(err, &ae) {
				t.Errorf("Load() error %T is not an ActionableError", err)
			}
		})
	}
}

func TestLoadRedisRequiresURL(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeConfig(t, dir, `rate_limit: backend: "redis"`)

	_, err := NewProvider().Load(context.Background(), LoadOptions{ConfigDirPath: dir})
	if !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("Load() error = %v, want ErrInvalidConfig", err)
	}
	if !strings.Contains(err.Error(), "redis_url") {
		t.Errorf("error %q does not name redis_url", err)
	}
}

func TestLoadExplicitFileMissing(t *testing.T) {
	t.Parallel()

	missing := filepath.Join(t.TempDir(), "nope.cue")
	_, err := NewProvider().Load(context.Background(), LoadOptions{ConfigFilePath: missing})
	if err == nil || !strings.Contains(err.Error(), "config file not found") {
		t.Errorf("Load() error = %v, want config file not found", err)
	}
}

func TestLoadEnvironmentOverrides(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, `server: port: 8080`)
	t.Setenv("DUPETABLE_SERVER_PORT", "9090")
	t.Setenv("DUPETABLE_CLEANUP_CUSTOM_ARCHIVE_TTL", "90s")

	cfg, err := NewProvider().Load(context.Background(), LoadOptions{ConfigDirPath: dir})
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("Server.Port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.Cleanup.CustomArchiveTTL != 90*time.Second {
		t.Errorf("Cleanup.CustomArchiveTTL = %s, want 1m30s", cfg.Cleanup.CustomArchiveTTL)
	}
}

func TestLoadCanceledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewProvider().Load(ctx, LoadOptions{}); !errors.Is(err, context.Canceled) {
		t.Errorf("Load() error = %v, want context.Canceled", err)
	}
}

func TestGeneratedCUELoadsBack(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "nested", ConfigFileName+"."+ConfigFileExt)
	written, err := WriteDefault(path)
	if err != nil || !written {
		t.Fatalf("WriteDefault() = %v, %v", written, err)
	}
	if written, err := WriteDefault(path); err != nil || written {
		t.Errorf("second WriteDefault() = %v, %v; want false, nil", written, err)
	}

	cfg, err := NewProvider().Load(context.Background(), LoadOptions{ConfigFilePath: path})
	if err != nil {
		t.Fatalf("Load() error: %v\n%s", err, GenerateCUE(DefaultConfig()))
	}
	if diff := cmp.Diff(DefaultConfig(), cfg); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestTrustedProxiesRoundTrip(t *testing.T) {
	t.Parallel()

	want := DefaultConfig()
	want.Server.TrustedProxies = []string{"10.0.0.0/8", "192.0.2.1"}

	dir := t.TempDir()
	writeConfig(t, dir, GenerateCUE(want))
	cfg, err := NewProvider().Load(context.Background(), LoadOptions{ConfigDirPath: dir})
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if diff := cmp.Diff(want.Server, cfg.Server); diff != "" {
		t.Errorf("server config mismatch (-want +got):\n%s", diff)
	}
}

func TestPathsResolved(t *testing.T) {
	t.Parallel()

	got := PathsConfig{DataDir: "var", Session: "/tmp/s.json"}.Resolved()
	want := PathsConfig{
		DataDir:         "var",
		Template:        filepath.Join("var", "recipe.json.tmpl"),
		MasterList:      filepath.Join("var", "master_list.txt"),
		Session:         "/tmp/s.json",
		StandardArchive: filepath.Join("var", "output.zip"),
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Resolved() mismatch (-want +got):\n%s", diff)
	}

	if got := (PathsConfig{}).Resolved(); got.DataDir != defaultDataDir {
		t.Errorf("empty DataDir resolved to %q", got.DataDir)
	}
}

func TestConfigIsValid(t *testing.T) {
	t.Parallel()

	if valid, errs := DefaultConfig().IsValid(); !valid {
		t.Fatalf("DefaultConfig().IsValid() = false: %v", errs)
	}

	cfg := DefaultConfig()
	cfg.LogLevel = "loud"
	cfg.RateLimit.Backend = "disk"
	cfg.Limits.MaxItems = 0
	valid, errs := cfg.IsValid()
	if valid || len(errs) != 1 {
		t.Fatalf("IsValid() = %v, %v", valid, errs)
	}
	var ice *InvalidConfigError
	if !errors.As(errs[0], &ice) || len(ice.FieldErrors) != 3 {
		t.Fatalf("want InvalidConfigError with 3 field errors, got %v", errs[0])
	}
	if !errors.Is(ice.FieldErrors[0], ErrInvalidLogLevel) || !errors.Is(ice.FieldErrors[1], ErrInvalidRateLimitBackend) {
		t.Errorf("field errors = %v", ice.FieldErrors)
	}
}

func TestConfigDirOverride(t *testing.T) {
	dir := t.TempDir()
	SetConfigDirOverride(dir)
	t.Cleanup(Reset)

	got, err := ConfigDir()
	if err != nil || got != dir {
		t.Errorf("ConfigDir() = %q, %v; want %q", got, err, dir)
	}
}
