// Package manifest contains pure functions for parsing the project manifest
// and lock file. This is part of the Functional Core - no I/O, no side effects.
package manifest

import (
	"errors"
	"fmt"
)

// =============================================================================
// Error Types
// =============================================================================

var (
	// Input validation errors
	ErrEmptyInput = errors.New("input is empty")

	// YAML parsing errors
	ErrInvalidYAML = errors.New("invalid YAML syntax")

	// Manifest structure errors
	ErrMissingProgram = errors.New("manifest must name a program")
	ErrInvalidProgram = errors.New("invalid program identifier")

	// Lock structure errors
	ErrMissingPackageName = errors.New("locked package must have a name")
	ErrDuplicatePackage   = errors.New("duplicate package in lock file")
	ErrUnknownDependency  = errors.New("dependency references unknown package")
)

// ParseError wraps errors with context about where parsing failed.
type ParseError struct {
	Field   string // e.g., "packages[2].dependencies"
	Message string
	Err     error
}

func (e *ParseError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	return e.Message
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// NewParseError creates a new ParseError.
func NewParseError(field, message string, err error) *ParseError {
	return &ParseError{
		Field:   field,
		Message: message,
		Err:     err,
	}
}
