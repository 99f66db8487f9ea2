// SPDX-License-Identifier: MPL-2.0

// Package cueutil decodes CUE documents against embedded schemas.
//
// The flow is always the same: compile the schema, compile the document,
// unify the document with a schema definition, validate, decode to Go.
// Errors are rewritten to "<file>: <json.path>: <message>" so that users can
// locate problems in configuration and data files.
package cueutil
