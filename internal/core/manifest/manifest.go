package manifest

import (
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// =============================================================================
// Manifest Types
// =============================================================================

// Manifest describes a program project: the file a developer edits.
type Manifest struct {
	Program     string `yaml:"program"`
	Version     string `yaml:"version"`
	Description string `yaml:"description"`
	License     string `yaml:"license"`
}

// programIDPattern matches a program identifier: a lowercase name followed by
// a domain suffix, e.g. "token.chain".
var programIDPattern = regexp.MustCompile(`^[a-z][a-z0-9_]*\.[a-z]+$`)

// =============================================================================
// Parser Functions
// =============================================================================

// Parse parses manifest YAML into a Manifest.
// This is a pure function - no I/O, no side effects.
//
// Example:
//
//	m, err := Parse([]byte("program: token.chain\nversion: 0.1.0\n"))
func Parse(content []byte) (*Manifest, error) {
	if strings.TrimSpace(string(content)) == "" {
		return nil, ErrEmptyInput
	}

	var m Manifest
	if err := yaml.Unmarshal(content, &m); err != nil {
		return nil, NewParseError("", err.Error(), ErrInvalidYAML)
	}

	if m.Program == "" {
		return nil, ErrMissingProgram
	}
	if !programIDPattern.MatchString(m.Program) {
		return nil, NewParseError("program", "must match name.suffix, e.g. token.chain", ErrInvalidProgram)
	}

	return &m, nil
}
