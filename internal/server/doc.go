// SPDX-License-Identifier: MPL-2.0

// Package server exposes the recipe pipeline over HTTP: catalog upload,
// standard archive generation and download, per-format custom downloads,
// and the last-session API used by the page served at "/".
package server
