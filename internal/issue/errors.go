// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation is the sentinel for malformed, oversized or illegally
	// charactered item names and unsupported upload types.
	ErrValidation = errors.New("validation error")
	// ErrParse is the sentinel for malformed structured catalog content.
	ErrParse = errors.New("parse error")
	// ErrAssetMissing is the sentinel for optional binary assets that could not be read.
	ErrAssetMissing = errors.New("asset missing")
	// ErrAssembly is the sentinel for archive construction failures.
	ErrAssembly = errors.New("assembly error")
	// ErrRateLimited is returned when a client exceeded its request budget.
	ErrRateLimited = errors.New("rate limited")
	// ErrTemplateNotFound is returned when the recipe template file does not exist.
	ErrTemplateNotFound = errors.New("template not found")
)

type (
	// ValidationError carries a message that is safe to show to the caller.
	// It wraps ErrValidation for errors.Is() compatibility.
	ValidationError struct {
		Message string
	}

	// ParseError reports structured content that could not be decoded.
	// It wraps ErrParse for errors.Is() compatibility.
	ParseError struct {
		Source string
		Err    error
	}

	// AssetMissingError reports an optional asset that was absent or unreadable.
	AssetMissingError struct {
		Path string
		Err  error
	}

	// AssemblyError reports an archive that could not be built or published.
	AssemblyError struct {
		Path string
		Err  error
	}
)

// NewValidationError formats a ValidationError.
func NewValidationError(format string, args ...any) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return e.Message
}

// Unwrap returns ErrValidation.
func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	if e.Source != "" {
		return fmt.Sprintf("parse %s: %v", e.Source, e.Err)
	}
	return fmt.Sprintf("parse: %v", e.Err)
}

// Unwrap exposes both ErrParse and the decoder error.
func (e *ParseError) Unwrap() []error {
	return []error{ErrParse, e.Err}
}

// Error implements the error interface.
func (e *AssetMissingError) Error() string {
	return fmt.Sprintf("asset %s unavailable: %v", e.Path, e.Err)
}

// Unwrap exposes both ErrAssetMissing and the underlying I/O error.
func (e *AssetMissingError) Unwrap() []error {
	return []error{ErrAssetMissing, e.Err}
}

// Error implements the error interface.
func (e *AssemblyError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("assemble archive %s: %v", e.Path, e.Err)
	}
	return fmt.Sprintf("assemble archive: %v", e.Err)
}

// Unwrap exposes both ErrAssembly and the underlying error.
func (e *AssemblyError) Unwrap() []error {
	return []error{ErrAssembly, e.Err}
}
