// SPDX-License-Identifier: MPL-2.0

// Package watch reports changes to files in a single directory after a
// debounce period. It is used to reload the recipe template while the
// service runs.
//
// The directory is watched rather than the file itself because editors and
// atomic writers replace files by rename, which ends a watch on the old inode.
package watch
