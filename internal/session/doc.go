// SPDX-License-Identifier: MPL-2.0

// Package session persists the last submitted item list and selection, and
// the append-only master list of every item ever generated.
package session
