// SPDX-License-Identifier: MPL-2.0

// Package fsutil publishes files atomically: content is written to a
// temporary file in the destination directory and renamed over the public
// path, so readers see either the previous file or the complete new one.
package fsutil
