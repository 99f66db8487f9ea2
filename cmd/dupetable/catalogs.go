// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/dupetable/dupetable/internal/catalog"
	"github.com/dupetable/dupetable/internal/issue"
)

type (
	// catalogFile is the outcome of reading one catalog argument.
	catalogFile struct {
		Path  string
		Items []catalog.ItemID
		Err   error
	}

	// catalogSet merges the files named on the command line.
	catalogSet struct {
		Files []catalogFile
		// Unique is the sorted, de-duplicated union of every file's items.
		Unique []catalog.ItemID
		Total  int
	}
)

// readCatalogs parses every path. Per-file failures are recorded, not
// returned; the error is non-nil only when no file produced an item.
func readCatalogs(paths []string) (*catalogSet, error) {
	set := &catalogSet{Files: make([]catalogFile, 0, len(paths))}
	batches := make([][]catalog.ItemID, 0, len(paths))

	for _, path := range paths {
		cf := catalogFile{Path: path}
		content, err := os.ReadFile(path)
		if err == nil {
			var ext catalog.Extraction
			ext, err = catalog.ParseFile(filepath.Base(path), content)
			cf.Items = ext.Items
		}
		cf.Err = err
		if err == nil && len(cf.Items) == 0 {
			cf.Err = errors.New("no valid items found")
		}
		set.Total += len(cf.Items)
		batches = append(batches, cf.Items)
		set.Files = append(set.Files, cf)
	}

	set.Unique = catalog.ItemSet(batches...)
	if len(set.Unique) == 0 {
		ctx := issue.NewErrorContext().
			WithOperation("read catalogs").
			WithSuggestion("Supply .json or .txt files that list item identifiers").
			WithSuggestion("Run 'dupetable issue unsupported-catalog' for the accepted formats")
		for _, f := range set.Files {
			if f.Err != nil {
				ctx = ctx.Wrap(f.Err)
				break
			}
		}
		return set, ctx.Build()
	}
	return set, nil
}
