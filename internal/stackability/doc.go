// SPDX-License-Identifier: MPL-2.0

// Package stackability partitions item identifiers into items that stack
// (and can therefore be duplicated) and items that do not.
//
// The classification is an explicit deny list kept in nonstackable.cue and
// embedded at build time. The list is data: changing it means editing the
// CUE file and bumping its version, never adding matching logic. Matching is
// exact and case-insensitive; there is no prefix, substring or pattern
// matching, so stackable items that merely look like a denied category
// (spawn eggs, compasses, bowls) are never filtered.
package stackability
