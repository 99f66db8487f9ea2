// SPDX-License-Identifier: MPL-2.0

package stackability

import "github.com/dupetable/dupetable/internal/catalog"

// Result partitions an input sequence. Every non-empty input identifier
// appears in exactly one of the two slices, in input order.
type Result struct {
	Stackable    []catalog.ItemID
	NonStackable []catalog.ItemID
}

// Classify partitions items with the table. Empty identifiers are skipped.
func (t *Table) Classify(items []catalog.ItemID) Result {
	res := Result{
		Stackable:    make([]catalog.ItemID, 0, len(items)),
		NonStackable: []catalog.ItemID{},
	}
	for _, id := range items {
		if id == "" {
			continue
		}
		if t.IsNonStackable(string(id)) {
			res.NonStackable = append(res.NonStackable, id)
		} else {
			res.Stackable = append(res.Stackable, id)
		}
	}
	return res
}

// Classify partitions items with the embedded table.
func Classify(items []catalog.ItemID) Result {
	return defaultTable.Classify(items)
}

// Total is the number of classified identifiers.
func (r Result) Total() int {
	return len(r.Stackable) + len(r.NonStackable)
}

// Preview returns at most n filtered identifiers, or none when more than n
// were filtered, so logs stay short for large batches.
func (r Result) Preview(n int) []catalog.ItemID {
	if len(r.NonStackable) == 0 || len(r.NonStackable) > n {
		return nil
	}
	return r.NonStackable
}
