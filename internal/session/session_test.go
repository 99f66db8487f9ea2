// SPDX-License-Identifier: MPL-2.0

package session

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/go-cmp/cmp"

	"github.com/dupetable/dupetable/internal/issue"
	"github.com/dupetable/dupetable/internal/testutil"
)

func newTestStore(t *testing.T, path string) (*Store, *testutil.FakeClock) {
	t.Helper()
	clock := testutil.NewFakeClock(time.Date(2025, 3, 4, 5, 6, 7, 0, time.UTC))
	return NewStore(path, WithClock(clock), WithLogger(log.New(io.Discard))), clock
}

func TestStoreRoundTrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "last_session.json")
	s, clock := newTestStore(t, path)

	if got := s.Load(); len(got.Items) != 0 || got.Timestamp != nil {
		t.Fatalf("Load() on missing file = %+v, want empty", got)
	}

	if _, err := s.Save([]string{" stone ", "oak_log", ""}, []string{"stone"}); err != nil {
		t.Fatalf("Save() error: %v", err)
	}

	got := s.Load()
	if diff := cmp.Diff([]string{"stone", "oak_log"}, got.Items); diff != "" {
		t.Errorf("items mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"stone"}, got.Selected); diff != "" {
		t.Errorf("selected mismatch (-want +got):\n%s", diff)
	}
	if got.Timestamp == nil || !got.Timestamp.Equal(clock.Now()) {
		t.Errorf("timestamp = %v, want %v", got.Timestamp, clock.Now())
	}
}

func TestStoreSaveRejectsInvalid(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "last_session.json")
	s, _ := newTestStore(t, path)

	_, err := s.Save([]string{"ok"}, []string{"bad;name"})
	if !errors.Is(err, issue.ErrValidation) {
		t.Fatalf("Save() error = %v, want ErrValidation", err)
	}
	if _, statErr := os.Stat(path); !errors.Is(statErr, os.ErrNotExist) {
		t.Errorf("session file written despite validation error")
	}
}

func TestStoreLoadInvalidFile(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"not json":       `{"items": [`,
		"bad name":       `{"items": ["<script>"], "selected": []}`,
		"items not list": `{"items": "stone"}`,
		"bad timestamp":  `{"items": [], "selected": [], "timestamp": "yesterday"}`,
	}

	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			path := filepath.Join(t.TempDir(), "last_session.json")
			if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
				t.Fatalf("write: %v", err)
			}
			s, _ := newTestStore(t, path)
			if diff := cmp.Diff(Empty(), s.Load()); diff != "" {
				t.Errorf("Load() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestStoreLoadSkipsNonStrings(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "last_session.json")
	if err := os.WriteFile(path, []byte(`{"items": ["stone", 3, null], "selected": null}`), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	s, _ := newTestStore(t, path)

	got := s.Load()
	if diff := cmp.Diff([]string{"stone"}, got.Items); diff != "" {
		t.Errorf("items mismatch (-want +got):\n%s", diff)
	}
	if len(got.Selected) != 0 {
		t.Errorf("selected = %v, want empty", got.Selected)
	}
}

func TestMasterListMerge(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "master_list.txt")
	m := NewMasterList(path, 0)

	added, err := m.Merge([]string{"stone", "Oak_Log", "stone"})
	if err != nil {
		t.Fatalf("Merge() error: %v", err)
	}
	if diff := cmp.Diff([]string{"stone", "Oak_Log"}, added); diff != "" {
		t.Errorf("added mismatch (-want +got):\n%s", diff)
	}

	added, err = m.Merge([]string{"STONE", "oak_log", "apple"})
	if err != nil {
		t.Fatalf("Merge() error: %v", err)
	}
	if diff := cmp.Diff([]string{"apple"}, added); diff != "" {
		t.Errorf("second merge added mismatch (-want +got):\n%s", diff)
	}

	items, err := m.Items()
	if err != nil {
		t.Fatalf("Items() error: %v", err)
	}
	if diff := cmp.Diff([]string{"stone", "Oak_Log", "apple"}, items); diff != "" {
		t.Errorf("items mismatch (-want +got):\n%s", diff)
	}

	data, _ := os.ReadFile(path)
	if strings.Count(string(data), "\n") != 3 {
		t.Errorf("file = %q, want three lines", data)
	}
}

func TestMasterListMissingFile(t *testing.T) {
	t.Parallel()

	m := NewMasterList(filepath.Join(t.TempDir(), "none.txt"), 0)
	items, err := m.Items()
	if err != nil || len(items) != 0 {
		t.Errorf("Items() = (%v, %v), want empty", items, err)
	}
}
