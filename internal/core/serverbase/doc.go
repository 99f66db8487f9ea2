// SPDX-License-Identifier: MPL-2.0

// Package serverbase is the lifecycle state machine shared by long-running
// listeners: created → starting → running → stopping → stopped, with failed
// reachable from any live state. Instances are single use.
package serverbase
