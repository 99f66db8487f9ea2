// SPDX-License-Identifier: MPL-2.0

package watch

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/go-cmp/cmp"
)

type recorder struct {
	mu    sync.Mutex
	calls [][]string
	ch    chan struct{}
}

func newRecorder() *recorder {
	return &recorder{ch: make(chan struct{}, 16)}
}

func (r *recorder) onChange(_ context.Context, changed []string) error {
	r.mu.Lock()
	r.calls = append(r.calls, changed)
	r.mu.Unlock()
	r.ch <- struct{}{}
	return nil
}

func (r *recorder) snapshot() [][]string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([][]string(nil), r.calls...)
}

func (r *recorder) wait(t *testing.T) {
	t.Helper()
	select {
	case <-r.ch:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for change callback")
	}
}

func startWatcher(t *testing.T, cfg Config) context.CancelFunc {
	t.Helper()
	if cfg.Logger == nil {
		cfg.Logger = log.New(io.Discard)
	}
	w, err := New(cfg)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	t.Cleanup(func() {
		cancel()
		select {
		case err := <-done:
			if err != nil {
				t.Errorf("Run() error: %v", err)
			}
		case <-time.After(5 * time.Second):
			t.Error("Run() did not return after cancel")
		}
	})
	return cancel
}

func write(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestWatcherDebounce(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	rec := newRecorder()
	startWatcher(t, Config{Dir: dir, Debounce: 150 * time.Millisecond, OnChange: rec.onChange})

	for _, name := range []string{"a.json", "b.json", "a.json"} {
		write(t, filepath.Join(dir, name), "x")
		time.Sleep(10 * time.Millisecond)
	}
	rec.wait(t)

	calls := rec.snapshot()
	if len(calls) != 1 {
		t.Fatalf("callbacks = %d, want 1: %v", len(calls), calls)
	}
	if diff := cmp.Diff([]string{"a.json", "b.json"}, calls[0]); diff != "" {
		t.Errorf("changed mismatch (-want +got):\n%s", diff)
	}
}

func TestForFileFiltersOtherFiles(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	tmpl := filepath.Join(dir, "recipe_template.json")
	write(t, tmpl, "v1")

	rec := newRecorder()
	startWatcher(t, ForFile(tmpl, 50*time.Millisecond, rec.onChange, log.New(io.Discard)))

	write(t, filepath.Join(dir, "master_list.txt"), "stone\n")
	write(t, filepath.Join(dir, "recipe_template.json.swp"), "junk")
	time.Sleep(200 * time.Millisecond)
	if calls := rec.snapshot(); len(calls) != 0 {
		t.Fatalf("unrelated files triggered callbacks: %v", calls)
	}

	// Replace by rename, as atomic writers and editors do.
	staged := filepath.Join(dir, "staged")
	write(t, staged, "v2")
	if err := os.Rename(staged, tmpl); err != nil {
		t.Fatalf("rename: %v", err)
	}
	rec.wait(t)

	if diff := cmp.Diff([][]string{{"recipe_template.json"}}, rec.snapshot()); diff != "" {
		t.Errorf("callbacks mismatch (-want +got):\n%s", diff)
	}
}

func TestWatcherRunTwice(t *testing.T) {
	t.Parallel()

	w, err := New(Config{Dir: t.TempDir(), Logger: log.New(io.Discard)})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	time.Sleep(20 * time.Millisecond)
	if err := w.Run(ctx); err == nil {
		t.Error("second Run() succeeded, want error")
	}
	cancel()
	if err := <-done; err != nil {
		t.Errorf("first Run() error: %v", err)
	}
}

func TestNewRejectsBadConfig(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		cfg  Config
	}{
		{"missing dir", Config{}},
		{"bad pattern", Config{Dir: t.TempDir(), Patterns: []string{"[x"}}},
		{"bad ignore", Config{Dir: t.TempDir(), Ignore: []string{"{a"}}},
		{"dir does not exist", Config{Dir: filepath.Join(t.TempDir(), "nope")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if w, err := New(tt.cfg); err == nil {
				_ = w.fsw.Close()
				t.Error("New() succeeded, want error")
			}
		})
	}
}

func TestEscapeGlob(t *testing.T) {
	t.Parallel()

	for _, name := range []string{"recipe.json", "we[ir]d*.json", "a{b}.tmpl"} {
		if !(&Watcher{}).matchAny([]string{escapeGlob(name)}, name) {
			t.Errorf("escaped pattern for %q does not match itself", name)
		}
	}
	if (&Watcher{}).matchAny([]string{escapeGlob("a*.json")}, "abc.json") {
		t.Error("escaped star matched other names")
	}
}

func TestDefaultIgnores(t *testing.T) {
	t.Parallel()

	w := &Watcher{ignores: DefaultIgnores()}
	for _, name := range []string{"x.swp", "x~", ".#x", ".DS_Store", ".output.zip.tmp-123"} {
		if !w.matchAny(w.ignores, name) {
			t.Errorf("%q not ignored", name)
		}
	}
	if w.matchAny(w.ignores, "recipe_template.json") {
		t.Error("template file ignored")
	}
}
