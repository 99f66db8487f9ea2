// SPDX-License-Identifier: MPL-2.0

package catalog

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"path/filepath"
	"sort"
	"strings"

	"github.com/dupetable/dupetable/internal/issue"
)

const (
	// KindStructured is a JSON document with "items" lists anywhere in the tree.
	KindStructured Kind = "structured"
	// KindLines is a text file with one token per line.
	KindLines Kind = "lines"

	// itemsKey marks a list of raw tokens inside a structured catalog.
	itemsKey = "items"
)

type (
	// Kind selects the parser for a catalog file.
	Kind string

	// Extraction is the outcome of parsing one catalog file.
	Extraction struct {
		// Items are the accepted identifiers in source order, duplicates kept.
		Items []ItemID
		// Candidates counts every raw token offered to the normalizer.
		Candidates int
		// Rejected counts tokens dropped by the normalizer.
		Rejected int
	}

	// Visitor is called for every node of a decoded structured catalog.
	// key is the map key the node was found under ("" for list members and the root).
	// Returning false stops descent into the node.
	Visitor func(key string, node any) bool
)

// KindFromFilename maps a file extension to a parser kind.
// Unsupported extensions produce a ValidationError.
func KindFromFilename(name string) (Kind, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".json":
		return KindStructured, nil
	case ".txt":
		return KindLines, nil
	default:
		return "", issue.NewValidationError("%s (unsupported format)", name)
	}
}

// Parse extracts and normalizes item identifiers from catalog content.
// Structured content that is not well-formed JSON returns an empty
// Extraction together with a ParseError; callers treat it as zero items.
func Parse(content []byte, kind Kind) (Extraction, error) {
	switch kind {
	case KindStructured:
		return parseStructured(content)
	case KindLines:
		return parseLines(content), nil
	default:
		return Extraction{}, issue.NewValidationError("unknown catalog kind %q", kind)
	}
}

// ParseFile is Parse with the kind derived from the file name.
func ParseFile(name string, content []byte) (Extraction, error) {
	kind, err := KindFromFilename(name)
	if err != nil {
		return Extraction{}, err
	}
	ext, err := Parse(content, kind)
	if err != nil {
		var pe *issue.ParseError
		if errors.As(err, &pe) {
			pe.Source = name
		}
		return Extraction{}, err
	}
	return ext, nil
}

func parseStructured(content []byte) (Extraction, error) {
	var root any
	if err := json.Unmarshal(content, &root); err != nil {
		return Extraction{}, &issue.ParseError{Err: err}
	}

	var ext Extraction
	Walk(root, func(key string, node any) bool {
		if key != itemsKey {
			return true
		}
		list, ok := node.([]any)
		if !ok {
			return true
		}
		for _, elem := range list {
			if s, ok := elem.(string); ok {
				ext.offer(s)
			}
		}
		return false
	})
	return ext, nil
}

func parseLines(content []byte) Extraction {
	var ext Extraction
	scanner := bufio.NewScanner(bytes.NewReader(content))
	scanner.Buffer(make([]byte, 0, 64*1024), len(content)+1)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "//") {
			continue
		}
		ext.offer(line)
	}
	return ext
}

func (e *Extraction) offer(raw string) {
	e.Candidates++
	id, ok := Normalize(raw)
	if !ok {
		e.Rejected++
		return
	}
	e.Items = append(e.Items, id)
}

// Walk visits a decoded JSON tree depth first. Map entries are visited in
// key order so that extraction is deterministic.
func Walk(node any, visit Visitor) {
	walk("", node, visit)
}

func walk(key string, node any, visit Visitor) {
	if !visit(key, node) {
		return
	}
	switch n := node.(type) {
	case map[string]any:
		keys := make([]string, 0, len(n))
		for k := range n {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			walk(k, n[k], visit)
		}
	case []any:
		for _, child := range n {
			walk("", child, visit)
		}
	}
}

// ItemSet returns the sorted, duplicate-free union of the given identifiers.
func ItemSet(batches ...[]ItemID) []ItemID {
	seen := make(map[ItemID]struct{})
	var out []ItemID
	for _, batch := range batches {
		for _, id := range batch {
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			out = append(out, id)
		}
	}
	sort.Slice(out, func(a, b int) bool { return out[a] < out[b] })
	return out
}
