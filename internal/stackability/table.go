// SPDX-License-Identifier: MPL-2.0

package stackability

import (
	_ "embed"
	"fmt"
	"sort"
	"strings"

	"github.com/dupetable/dupetable/internal/cueutil"
)

var (
	//go:embed nonstackable.cue
	defaultTableData []byte

	//go:embed table_schema.cue
	tableSchema []byte

	defaultTable = MustLoad(defaultTableData)
)

type (
	// Table is an immutable set of non-stackable identifiers grouped by
	// category. It is safe for concurrent use.
	Table struct {
		version    string
		category   map[string]string
		categories map[string][]string
	}

	tableDoc struct {
		Version    string              `json:"version"`
		Categories map[string][]string `json:"categories"`
	}
)

// Load decodes a table document validated against the embedded schema.
// An identifier listed under two categories is rejected.
func Load(data []byte) (*Table, error) {
	doc, err := cueutil.Decode[tableDoc](tableSchema, data, "#Table", cueutil.WithFilename("nonstackable.cue"))
	if err != nil {
		return nil, err
	}

	t := &Table{
		version:    doc.Version,
		category:   make(map[string]string),
		categories: make(map[string][]string, len(doc.Categories)),
	}
	for cat, ids := range doc.Categories {
		t.categories[cat] = append([]string(nil), ids...)
		for _, id := range ids {
			key := strings.ToLower(id)
			if prev, dup := t.category[key]; dup {
				return nil, fmt.Errorf("nonstackable.cue: %q listed in both %q and %q", id, prev, cat)
			}
			t.category[key] = cat
		}
	}
	return t, nil
}

// MustLoad is Load that panics on error. Used for the embedded table.
func MustLoad(data []byte) *Table {
	t, err := Load(data)
	if err != nil {
		panic(fmt.Sprintf("stackability: invalid table: %v", err))
	}
	return t
}

// Default returns the embedded table.
func Default() *Table {
	return defaultTable
}

// Version identifies the revision of the table data.
func (t *Table) Version() string {
	return t.version
}

// Len returns the number of non-stackable identifiers.
func (t *Table) Len() int {
	return len(t.category)
}

// Categories returns the sorted category names.
func (t *Table) Categories() []string {
	out := make([]string, 0, len(t.categories))
	for c := range t.categories {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

// Members returns a copy of the identifiers listed under category.
func (t *Table) Members(category string) []string {
	return append([]string(nil), t.categories[category]...)
}

// CategoryOf returns the deny-list category of id, if any.
func (t *Table) CategoryOf(id string) (string, bool) {
	cat, ok := t.category[strings.ToLower(id)]
	return cat, ok
}

// IsNonStackable reports whether id is on the deny list.
func (t *Table) IsNonStackable(id string) bool {
	_, ok := t.category[strings.ToLower(id)]
	return ok
}
