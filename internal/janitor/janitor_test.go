// SPDX-License-Identifier: MPL-2.0

package janitor

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"go.uber.org/goleak"

	"github.com/dupetable/dupetable/internal/testutil"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func quietLogger() *log.Logger {
	return log.New(io.Discard)
}

func touch(t *testing.T, path string, mtime time.Time) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := os.Chtimes(path, mtime, mtime); err != nil {
		t.Fatalf("chtimes: %v", err)
	}
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return !errors.Is(err, os.ErrNotExist)
}

func TestScheduleRemoval(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "custom_standard_x.zip")
	touch(t, path, time.Now())

	s := NewScheduler(quietLogger())
	defer s.Stop()
	s.ScheduleRemoval(path, 20*time.Millisecond)

	deadline := time.Now().Add(2 * time.Second)
	for exists(path) {
		if time.Now().After(deadline) {
			t.Fatal("file not removed after delay")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestScheduleRemovalMissingFile(t *testing.T) {
	t.Parallel()

	s := NewScheduler(quietLogger())
	defer s.Stop()
	s.ScheduleRemoval(filepath.Join(t.TempDir(), "gone.zip"), time.Millisecond)

	deadline := time.Now().Add(2 * time.Second)
	for s.Pending() > 0 {
		if time.Now().After(deadline) {
			t.Fatal("removal of a missing file never completed")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestSchedulerStopCancels(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "keep.zip")
	touch(t, path, time.Now())

	s := NewScheduler(quietLogger())
	s.ScheduleRemoval(path, time.Hour)
	if s.Pending() != 1 {
		t.Fatalf("Pending() = %d, want 1", s.Pending())
	}

	s.Stop()
	if s.Pending() != 0 {
		t.Errorf("Pending() after Stop = %d, want 0", s.Pending())
	}
	s.ScheduleRemoval(path, time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	if !exists(path) {
		t.Error("file removed after Stop")
	}
}

func TestSweepRemovesOnlyStaleMatches(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	clock := testutil.NewFakeClock(time.Time{})
	now := clock.Now()

	staleCustom := filepath.Join(dir, "custom_datapack_1.zip")
	freshCustom := filepath.Join(dir, "custom_datapack_2.zip")
	staleOther := filepath.Join(dir, "output.zip")
	staleNested := filepath.Join(dir, "output", "stone_19.json")

	touch(t, staleCustom, now.Add(-2*time.Hour))
	touch(t, freshCustom, now.Add(-10*time.Minute))
	touch(t, staleOther, now.Add(-2*time.Hour))
	touch(t, staleNested, now.Add(-61*time.Minute))

	sw, err := NewSweeper(SweepConfig{
		Dir:      dir,
		Patterns: []string{"custom_*.zip", "output/**"},
		MaxAge:   time.Hour,
	}, clock, quietLogger())
	if err != nil {
		t.Fatalf("NewSweeper() error: %v", err)
	}

	removed := sw.Sweep()
	sort.Strings(removed)
	want := []string{staleCustom, staleNested}
	sort.Strings(want)
	if len(removed) != len(want) || removed[0] != want[0] || removed[1] != want[1] {
		t.Errorf("removed = %v, want %v", removed, want)
	}

	for _, p := range []string{freshCustom, staleOther} {
		if !exists(p) {
			t.Errorf("%s removed, want kept", p)
		}
	}
}

func TestSweepMissingDir(t *testing.T) {
	t.Parallel()

	sw, err := NewSweeper(SweepConfig{Dir: filepath.Join(t.TempDir(), "nope"), Patterns: []string{"*"}}, nil, quietLogger())
	if err != nil {
		t.Fatalf("NewSweeper() error: %v", err)
	}
	if got := sw.Sweep(); len(got) != 0 {
		t.Errorf("Sweep() = %v, want nothing", got)
	}
}

func TestNewSweeperInvalidPattern(t *testing.T) {
	t.Parallel()

	if _, err := NewSweeper(SweepConfig{Patterns: []string{"[unclosed"}}, nil, nil); err == nil {
		t.Error("NewSweeper() accepted an invalid pattern")
	}
}

func TestSweeperRun(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	clock := testutil.NewFakeClock(time.Time{})
	sw, err := NewSweeper(SweepConfig{
		Dir:      dir,
		Patterns: []string{"custom_*.zip"},
		MaxAge:   time.Hour,
		Interval: time.Minute,
	}, clock, quietLogger())
	if err != nil {
		t.Fatalf("NewSweeper() error: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- sw.Run(ctx) }()

	path := filepath.Join(dir, "custom_standard_1.zip")
	touch(t, path, clock.Now())
	clock.Advance(2 * time.Hour)

	deadline := time.Now().Add(2 * time.Second)
	for exists(path) {
		if time.Now().After(deadline) {
			cancel()
			t.Fatal("periodic sweep did not remove stale file")
		}
		// The sweeper may not have registered its timer before Advance.
		clock.Advance(time.Minute)
		time.Sleep(5 * time.Millisecond)
	}

	cancel()
	if err := <-done; err != nil {
		t.Errorf("Run() error = %v", err)
	}
}
