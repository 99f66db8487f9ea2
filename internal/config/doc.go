// SPDX-License-Identifier: MPL-2.0

// Package config handles application configuration using Viper with CUE as the file format.
//
// Configuration is read from the file named by --config, otherwise from
// config.cue in the user config directory ($XDG_CONFIG_HOME/dupetable on Linux,
// ~/Library/Application Support/dupetable on macOS, %APPDATA%\dupetable on
// Windows), otherwise from ./config.cue. Files are validated against the
// embedded CUE schema (config_schema.cue) before being merged over the
// defaults. DUPETABLE_* environment variables override both, with dots in
// key names replaced by underscores (DUPETABLE_SERVER_PORT).
package config
