package manifest

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// =============================================================================
// Lock Types
// =============================================================================

// Lock is the resolved dependency graph written by the package manager.
// It pins every package the root program depends on, directly or transitively.
type Lock struct {
	Version  int             `yaml:"version"`
	Packages []LockedPackage `yaml:"packages"`
}

// LockedPackage is one pinned package in the lock file. Local packages carry
// a path relative to the project root; registry packages carry only a checksum
// and are fetched pre-built, so they are never deployed by this tool.
type LockedPackage struct {
	Name         string   `yaml:"name"`
	Network      string   `yaml:"network,omitempty"`
	Checksum     string   `yaml:"checksum,omitempty"`
	Path         string   `yaml:"path,omitempty"`
	Dependencies []string `yaml:"dependencies,omitempty"`
}

// IsLocal reports whether the package is a local workspace package.
func (p LockedPackage) IsLocal() bool {
	return p.Path != ""
}

// =============================================================================
// Parser Functions
// =============================================================================

// ParseLock parses lock-file YAML into a Lock and validates its structure:
// every package is named, names are unique, and every dependency reference
// resolves to a package in the file.
// This is a pure function - no I/O, no side effects.
func ParseLock(content []byte) (*Lock, error) {
	if strings.TrimSpace(string(content)) == "" {
		return nil, ErrEmptyInput
	}

	var lock Lock
	if err := yaml.Unmarshal(content, &lock); err != nil {
		return nil, NewParseError("", err.Error(), ErrInvalidYAML)
	}

	seen := make(map[string]bool, len(lock.Packages))
	for i, pkg := range lock.Packages {
		if pkg.Name == "" {
			return nil, NewParseError(fmt.Sprintf("packages[%d]", i), "missing name", ErrMissingPackageName)
		}
		if seen[pkg.Name] {
			return nil, NewParseError(fmt.Sprintf("packages[%d]", i), pkg.Name, ErrDuplicatePackage)
		}
		seen[pkg.Name] = true
	}

	for i, pkg := range lock.Packages {
		for _, dep := range pkg.Dependencies {
			if !seen[dep] {
				return nil, NewParseError(
					fmt.Sprintf("packages[%d].dependencies", i),
					fmt.Sprintf("%s depends on %s", pkg.Name, dep),
					ErrUnknownDependency,
				)
			}
		}
	}

	return &lock, nil
}

// Package returns the locked package with the given name, if present.
func (l *Lock) Package(name string) (LockedPackage, bool) {
	for _, pkg := range l.Packages {
		if pkg.Name == name {
			return pkg, true
		}
	}
	return LockedPackage{}, false
}
