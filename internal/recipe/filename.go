// SPDX-License-Identifier: MPL-2.0

package recipe

import (
	"regexp"
	"strings"

	"github.com/dupetable/dupetable/internal/issue"
)

const (
	// ArtifactSuffix is appended to every per-item artifact name.
	ArtifactSuffix = "_19.json"

	maxSafeNameLength = 50
)

var unsafeFilenameChars = regexp.MustCompile(`[^a-zA-Z0-9_-]`)

// SafeFilename derives a path-safe base name from an item name: surrounding
// whitespace is trimmed, every other character outside [a-zA-Z0-9_-] becomes
// "_" and the result is cut to 50 characters.
func SafeFilename(name string) (string, error) {
	safe := unsafeFilenameChars.ReplaceAllString(strings.TrimSpace(name), "_")
	if len(safe) > maxSafeNameLength {
		safe = safe[:maxSafeNameLength]
	}
	if safe == "" {
		return "", issue.NewValidationError("Invalid item name: %q", name)
	}
	return safe, nil
}

// ArtifactName is the archive file name of the artifact for name.
func ArtifactName(name string) (string, error) {
	safe, err := SafeFilename(name)
	if err != nil {
		return "", err
	}
	return safe + ArtifactSuffix, nil
}
