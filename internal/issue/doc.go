// SPDX-License-Identifier: MPL-2.0

// Package issue provides the error taxonomy and actionable error handling for dupetable.
//
// Sentinel errors (ErrValidation, ErrParse, ErrAssetMissing, ErrAssembly,
// ErrRateLimited, ErrTemplateNotFound) classify failures so that the HTTP
// layer can map them to status codes and the CLI can pick a matching entry
// from the Markdown issue catalog.
package issue
