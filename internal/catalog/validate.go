// SPDX-License-Identifier: MPL-2.0

package catalog

import (
	"regexp"
	"strings"

	"github.com/dupetable/dupetable/internal/issue"
)

// DefaultMaxNameLength bounds a submitted item name.
const DefaultMaxNameLength = 100

// submittedNameRegex is the character set accepted from forms and session files.
var submittedNameRegex = regexp.MustCompile(`^[a-zA-Z0-9_\-\s]+$`)

// ValidateNames checks names submitted by a client. Blank entries are
// skipped and the rest are trimmed. A single oversized or illegally
// charactered name fails the whole list with a ValidationError.
func ValidateNames(names []string, maxLen int) ([]string, error) {
	if maxLen <= 0 {
		maxLen = DefaultMaxNameLength
	}

	out := make([]string, 0, len(names))
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if len(name) > maxLen {
			return nil, issue.NewValidationError("Item name too long: %s", name)
		}
		if !submittedNameRegex.MatchString(name) {
			return nil, issue.NewValidationError("Invalid characters in item name: %s", name)
		}
		out = append(out, name)
	}
	return out, nil
}

// ValidateAny is ValidateNames for decoded JSON lists: non-string members are
// skipped. A value that is not a list is a ValidationError.
func ValidateAny(v any, maxLen int) ([]string, error) {
	if v == nil {
		return []string{}, nil
	}
	list, ok := v.([]any)
	if !ok {
		return nil, issue.NewValidationError("Items must be a list")
	}
	names := make([]string, 0, len(list))
	for _, elem := range list {
		if s, ok := elem.(string); ok {
			names = append(names, s)
		}
	}
	return ValidateNames(names, maxLen)
}

// IDs converts validated names to ItemIDs without normalization, so that
// the stackability filter sees exactly what the client submitted.
func IDs(names []string) []ItemID {
	out := make([]ItemID, len(names))
	for i, n := range names {
		out[i] = ItemID(n)
	}
	return out
}

// Strings is the inverse of IDs.
func Strings(ids []ItemID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = string(id)
	}
	return out
}
