// SPDX-License-Identifier: MPL-2.0

package watch

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is the quiet period used when Config.Debounce is unset.
const DefaultDebounce = 300 * time.Millisecond

// defaultIgnores are editor and OS droppings that never trigger a callback.
var defaultIgnores = []string{
	"*.swp",
	"*.swo",
	"*~",
	".#*",
	".DS_Store",
	".*.tmp-*",
}

type (
	// OnChangeFunc receives the sorted base names that changed.
	OnChangeFunc func(ctx context.Context, changed []string) error

	// Config holds the parameters for a Watcher.
	Config struct {
		// Dir is the directory to watch. Subdirectories are not watched.
		Dir string
		// Patterns are doublestar globs matched against base names. An
		// empty slice matches every non-ignored file.
		Patterns []string
		// Ignore are extra globs merged with the built-in ignores.
		Ignore []string
		// Debounce is the quiet period after the last event.
		Debounce time.Duration
		// OnChange runs after the debounce window closes. Invocations never
		// overlap; events arriving meanwhile are delivered on the next run.
		OnChange OnChangeFunc
		// Logger receives watcher diagnostics.
		Logger *log.Logger
	}

	// Watcher delivers debounced change notifications. Run may be called once.
	Watcher struct {
		cfg      Config
		fsw      *fsnotify.Watcher
		dir      string
		ignores  []string
		debounce time.Duration
		logger   *log.Logger
		started  atomic.Bool
	}
)

// ForFile returns a Config that watches the single file at path.
func ForFile(path string, debounce time.Duration, onChange OnChangeFunc, logger *log.Logger) Config {
	return Config{
		Dir:      filepath.Dir(path),
		Patterns: []string{escapeGlob(filepath.Base(path))},
		Debounce: debounce,
		OnChange: onChange,
		Logger:   logger,
	}
}

// New validates cfg and starts watching cfg.Dir.
func New(cfg Config) (*Watcher, error) {
	if cfg.Dir == "" {
		return nil, errors.New("watch: directory is required")
	}
	dir, err := filepath.Abs(cfg.Dir)
	if err != nil {
		return nil, fmt.Errorf("watch: resolve directory: %w", err)
	}
	if err := validatePatterns(cfg.Patterns, "watch"); err != nil {
		return nil, err
	}
	if err := validatePatterns(cfg.Ignore, "ignore"); err != nil {
		return nil, err
	}

	debounce := cfg.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watch: create fsnotify watcher: %w", err)
	}
	if err := fsw.Add(dir); err != nil {
		_ = fsw.Close()
		return nil, fmt.Errorf("watch: add directory %q: %w", dir, err)
	}

	return &Watcher{
		cfg:      cfg,
		fsw:      fsw,
		dir:      dir,
		ignores:  append(append([]string(nil), defaultIgnores...), cfg.Ignore...),
		debounce: debounce,
		logger:   logger,
	}, nil
}

// Run processes events until ctx is cancelled. It returns nil on
// cancellation and an error when the underlying watcher breaks.
func (w *Watcher) Run(ctx context.Context) error {
	if !w.started.CompareAndSwap(false, true) {
		return errors.New("watch: Run called more than once")
	}

	d := &debouncer{ctx: ctx, w: w, pending: make(map[string]struct{})}
	defer func() {
		d.stop()
		if err := w.fsw.Close(); err != nil {
			w.logger.Warn("closing fsnotify watcher", "err", err)
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case evt, ok := <-w.fsw.Events:
			if !ok {
				return errors.New("watch: event channel closed")
			}
			if filepath.Dir(evt.Name) != w.dir {
				continue
			}
			name := filepath.Base(evt.Name)
			if w.matchAny(w.ignores, name) || !w.wanted(name) {
				continue
			}
			d.add(name)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return errors.New("watch: error channel closed")
			}
			if watcherBroken(err) {
				return fmt.Errorf("watch: %w", err)
			}
			w.logger.Warn("fsnotify error", "err", err)
		}
	}
}

func (w *Watcher) wanted(name string) bool {
	return len(w.cfg.Patterns) == 0 || w.matchAny(w.cfg.Patterns, name)
}

func (w *Watcher) matchAny(patterns []string, name string) bool {
	for _, p := range patterns {
		if ok, err := doublestar.Match(p, name); err == nil && ok {
			return true
		}
	}
	return false
}

// debouncer coalesces names until the watcher has been quiet for the
// debounce period, then hands them to OnChange.
type debouncer struct {
	ctx  context.Context
	w    *Watcher
	busy atomic.Bool

	mu      sync.Mutex
	pending map[string]struct{}
	timer   *time.Timer
}

func (d *debouncer) add(name string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.pending[name] = struct{}{}
	if d.timer == nil {
		d.timer = time.AfterFunc(d.w.debounce, d.fire)
	} else {
		d.timer.Reset(d.w.debounce)
	}
}

func (d *debouncer) fire() {
	if d.ctx.Err() != nil {
		return
	}
	if !d.busy.CompareAndSwap(false, true) {
		// Retry after the current callback instead of dropping the batch.
		d.mu.Lock()
		d.timer.Reset(d.w.debounce)
		d.mu.Unlock()
		return
	}
	defer d.busy.Store(false)

	d.mu.Lock()
	changed := make([]string, 0, len(d.pending))
	for name := range d.pending {
		changed = append(changed, name)
	}
	clear(d.pending)
	d.mu.Unlock()

	if len(changed) == 0 || d.w.cfg.OnChange == nil {
		return
	}
	sort.Strings(changed)
	if err := d.w.cfg.OnChange(d.ctx, changed); err != nil {
		d.w.logger.Warn("change handler failed", "files", changed, "err", err)
	}
}

func (d *debouncer) stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
	}
}

// DefaultIgnores returns a copy of the built-in ignore patterns.
func DefaultIgnores() []string {
	return append([]string(nil), defaultIgnores...)
}

func validatePatterns(patterns []string, label string) error {
	for _, p := range patterns {
		if !doublestar.ValidatePattern(p) {
			return fmt.Errorf("watch: invalid %s pattern %q", label, p)
		}
	}
	return nil
}

// escapeGlob quotes glob metacharacters so name matches only itself.
func escapeGlob(name string) string {
	var b strings.Builder
	for _, r := range name {
		switch r {
		case '*', '?', '[', ']', '{', '}', '\\':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}
