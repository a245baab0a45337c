// Package resolver orders deployment units so that every dependency is
// deployed before any package that depends on it.
// This is part of the Functional Core - pure graph traversal, no I/O.
package resolver

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"

	"github.com/artpar/chaindeploy/internal/core/domain"
	"github.com/artpar/chaindeploy/internal/core/manifest"
)

// =============================================================================
// Errors
// =============================================================================

var (
	// ErrDependencyCycle is returned when the lock graph contains a cycle.
	ErrDependencyCycle = errors.New("dependency cycle detected")
)

// BuildDirName is the directory inside a package that holds its build artifact.
const BuildDirName = "build"

// =============================================================================
// Resolution
// =============================================================================

// Resolve produces the ordered sequence of deployment units for a run.
//
// If recursive is false, the result is exactly one unit: the root program
// with rootBuildDir as its artifact path. The lock file is not consulted.
//
// If recursive is true, the result is a post-order traversal of the local
// packages in the lock graph (dependencies strictly before dependents),
// followed by the root program last. Registry packages (no local path)
// participate in ordering but produce no unit - they are already on chain.
//
// The order is deterministic for a fixed lock file: siblings are visited in
// lexicographic name order.
//
// Example:
//
//	// lock: c depends on b depends on a, all local
//	units, _ := Resolve(lock, "p.chain", "build", true)
//	// units: [a, b, c, p.chain]
func Resolve(lock *manifest.Lock, rootName, rootBuildDir string, recursive bool) ([]domain.DeploymentUnit, error) {
	root := domain.NewDeploymentUnit(rootName, rootBuildDir)

	if !recursive {
		return []domain.DeploymentUnit{root}, nil
	}

	packages := make(map[string]manifest.LockedPackage, len(lock.Packages))
	var names []string
	for _, pkg := range lock.Packages {
		if pkg.Name == rootName {
			// The root is appended last regardless of its lock entry.
			continue
		}
		packages[pkg.Name] = pkg
		names = append(names, pkg.Name)
	}
	sort.Strings(names)

	const (
		unvisited = iota
		visiting
		visited
	)
	state := make(map[string]int, len(packages))

	var units []domain.DeploymentUnit
	var visit func(name string) error
	visit = func(name string) error {
		switch state[name] {
		case visited:
			return nil
		case visiting:
			return fmt.Errorf("at %s: %w", name, ErrDependencyCycle)
		}
		state[name] = visiting

		pkg := packages[name]
		deps := append([]string(nil), pkg.Dependencies...)
		sort.Strings(deps)
		for _, dep := range deps {
			if dep == rootName {
				continue
			}
			if err := visit(dep); err != nil {
				return err
			}
		}

		state[name] = visited
		if pkg.IsLocal() {
			units = append(units, domain.NewDeploymentUnit(name, filepath.Join(pkg.Path, BuildDirName)))
		}
		return nil
	}

	for _, name := range names {
		if err := visit(name); err != nil {
			return nil, err
		}
	}

	return append(units, root), nil
}
