// SPDX-License-Identifier: MPL-2.0

package catalog

import (
	"regexp"
	"strings"
)

// NamespacePrefix is the only namespace removed from raw tokens.
const NamespacePrefix = "minecraft:"

// itemIDRegex is the complete grammar of an accepted identifier.
var itemIDRegex = regexp.MustCompile(`^[a-z0-9_]+$`)

// ItemID is a canonical item identifier: lowercase letters, digits and
// underscores, without namespace prefix or modifier suffix.
type ItemID string

// String returns the identifier text.
func (id ItemID) String() string {
	return string(id)
}

// Normalize turns a raw token into an ItemID. The second return value is
// false when the token is rejected; rejected tokens are never partially
// cleaned. Case is not folded: "minecraft:IRON_ingot" is rejected.
func Normalize(raw string) (ItemID, bool) {
	token := stripQuotes(raw)
	token = strings.TrimPrefix(token, NamespacePrefix)
	if idx := strings.IndexByte(token, ':'); idx >= 0 {
		token = token[:idx]
	}
	token = strings.TrimSpace(token)

	if !itemIDRegex.MatchString(token) {
		return "", false
	}
	return ItemID(token), true
}

// stripQuotes removes one leading and one trailing quote character.
func stripQuotes(s string) string {
	if s != "" && (s[0] == '"' || s[0] == '\'') {
		s = s[1:]
	}
	if n := len(s); n > 0 && (s[n-1] == '"' || s[n-1] == '\'') {
		s = s[:n-1]
	}
	return s
}
