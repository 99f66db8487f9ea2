// SPDX-License-Identifier: MPL-2.0

// Package janitor removes generated files that are no longer needed:
// custom archives after a fixed delay, and anything matching the configured
// patterns once it is older than a maximum age. All removal is best effort.
package janitor
