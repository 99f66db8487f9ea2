// SPDX-License-Identifier: MPL-2.0

// Package catalog turns uploaded catalog files and submitted item lists into
// canonical item identifiers.
//
// Two catalog kinds are understood:
//   - structured (.json): any tree of objects and arrays; every array found
//     under an "items" key contributes its string members
//   - lines (.txt): one token per line, blank lines and lines starting with
//     "#" or "//" are skipped
//
// Every raw token is passed through Normalize; rejected tokens are dropped
// silently and only counted.
package catalog
