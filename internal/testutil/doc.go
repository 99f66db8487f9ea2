// SPDX-License-Identifier: MPL-2.0

// Package testutil holds the clock abstraction shared by time-driven
// components and small helpers that keep test setup terse.
package testutil
