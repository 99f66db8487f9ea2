// SPDX-License-Identifier: MPL-2.0

package session

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/dupetable/dupetable/internal/catalog"
	"github.com/dupetable/dupetable/internal/fsutil"
)

// MasterList is an append-only text file of every item ever generated, one
// per line. Membership is case-insensitive.
type MasterList struct {
	path    string
	maxName int

	mu sync.Mutex
}

// NewMasterList returns a MasterList backed by the file at path.
func NewMasterList(path string, maxName int) *MasterList {
	if maxName <= 0 {
		maxName = catalog.DefaultMaxNameLength
	}
	return &MasterList{path: path, maxName: maxName}
}

// Items returns the validated list contents in file order. A missing file is
// an empty list.
func (m *MasterList) Items() ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	lines, err := m.readLines()
	if err != nil {
		return nil, err
	}
	return catalog.ValidateNames(lines, m.maxName)
}

// Merge appends the items that are not yet present (case-insensitively) and
// returns them. Duplicates within items are appended once.
func (m *MasterList) Merge(items []string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	lines, err := m.readLines()
	if err != nil {
		return nil, err
	}
	known := make(map[string]struct{}, len(lines))
	for _, l := range lines {
		known[strings.ToLower(l)] = struct{}{}
	}

	var added []string
	for _, it := range items {
		key := strings.ToLower(strings.TrimSpace(it))
		if key == "" {
			continue
		}
		if _, ok := known[key]; ok {
			continue
		}
		known[key] = struct{}{}
		added = append(added, strings.TrimSpace(it))
	}

	if err := fsutil.AppendLines(m.path, added); err != nil {
		return nil, err
	}
	return added, nil
}

func (m *MasterList) readLines() ([]string, error) {
	f, err := os.Open(m.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading master list: %w", err)
	}
	defer func() { _ = f.Close() }() // read-only

	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		if l := strings.TrimSpace(scanner.Text()); l != "" {
			lines = append(lines, l)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading master list: %w", err)
	}
	return lines, nil
}
