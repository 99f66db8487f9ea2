// SPDX-License-Identifier: MPL-2.0

// Package recipe renders one recipe artifact per item from a single text
// template. The template sees one variable, {{ .result_item }}.
package recipe
