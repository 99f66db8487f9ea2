// SPDX-License-Identifier: MPL-2.0

// Package ratelimit bounds how many requests a client may make within a
// sliding time window. Two backends exist: an in-process map for a single
// instance and a Redis sorted set per client for instances sharing limits.
package ratelimit
