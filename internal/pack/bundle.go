// SPDX-License-Identifier: MPL-2.0

package pack

import "fmt"

type (
	// Entry is one file of an archive.
	Entry struct {
		Path string
		Data []byte
	}

	// Bundle is the ordered list of archive entries. Paths are unique.
	Bundle struct {
		entries []Entry
		index   map[string]int
	}
)

func newBundle() *Bundle {
	return &Bundle{index: make(map[string]int)}
}

// add appends an entry. A repeated path is an error: two items mapping to the
// same safe file name would otherwise produce a zip with duplicate names.
func (b *Bundle) add(path string, data []byte) error {
	if _, dup := b.index[path]; dup {
		return fmt.Errorf("duplicate archive entry %q", path)
	}
	b.index[path] = len(b.entries)
	b.entries = append(b.entries, Entry{Path: path, Data: data})
	return nil
}

func (b *Bundle) addJSON(path string, v any, indent bool) error {
	var (
		data []byte
		err  error
	)
	if indent {
		data, err = marshalIndent(v)
	} else {
		data, err = marshalCompact(v)
	}
	if err != nil {
		return fmt.Errorf("encoding %s: %w", path, err)
	}
	return b.add(path, data)
}

// Entries returns the entries in archive order.
func (b *Bundle) Entries() []Entry {
	return append([]Entry(nil), b.entries...)
}

// Paths returns the entry paths in archive order.
func (b *Bundle) Paths() []string {
	out := make([]string, len(b.entries))
	for i, e := range b.entries {
		out[i] = e.Path
	}
	return out
}

// Lookup returns the content stored at path.
func (b *Bundle) Lookup(path string) ([]byte, bool) {
	i, ok := b.index[path]
	if !ok {
		return nil, false
	}
	return b.entries[i].Data, true
}

// Len returns the number of entries.
func (b *Bundle) Len() int {
	return len(b.entries)
}
