// Package project reads a program project from disk: its manifest, its lock
// file, and the deployment units derived from them.
package project

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/artpar/chaindeploy/internal/core/domain"
	"github.com/artpar/chaindeploy/internal/core/manifest"
	"github.com/artpar/chaindeploy/internal/core/resolver"
)

// =============================================================================
// Errors
// =============================================================================

var (
	// ErrNoManifest is returned when the project directory has no manifest.
	ErrNoManifest = errors.New("no project manifest found")

	// ErrNoLock is returned when recursive deployment is requested but the
	// project has no lock file.
	ErrNoLock = errors.New("no lock file found; run the package manager first")

	// ErrMissingBuildDir is returned when a resolved unit's build directory
	// does not exist.
	ErrMissingBuildDir = errors.New("build directory does not exist")
)

// File names inside a project directory.
const (
	ManifestFile = "program.yaml"
	LockFile     = "program.lock"
)

// =============================================================================
// Context
// =============================================================================

// Context is a handle on one project directory.
type Context struct {
	dir string
}

// NewContext creates a project context rooted at dir.
func NewContext(dir string) *Context {
	return &Context{dir: dir}
}

// Dir returns the project root directory.
func (c *Context) Dir() string {
	return c.dir
}

// BuildDir returns the root program's build directory.
func (c *Context) BuildDir() string {
	return filepath.Join(c.dir, resolver.BuildDirName)
}

// OpenManifest reads and parses the project manifest.
func (c *Context) OpenManifest() (*manifest.Manifest, error) {
	content, err := os.ReadFile(filepath.Join(c.dir, ManifestFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%s: %w", c.dir, ErrNoManifest)
		}
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	return manifest.Parse(content)
}

// OpenLock reads and parses the lock file.
func (c *Context) OpenLock() (*manifest.Lock, error) {
	content, err := os.ReadFile(filepath.Join(c.dir, LockFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%s: %w", c.dir, ErrNoLock)
		}
		return nil, fmt.Errorf("read lock file: %w", err)
	}
	return manifest.ParseLock(content)
}

// DeploymentUnits resolves the ordered deployment sequence for the project.
// Relative artifact paths from the lock file are resolved against the project
// root, and every unit's build directory must exist on disk.
func (c *Context) DeploymentUnits(recursive bool) ([]domain.DeploymentUnit, error) {
	m, err := c.OpenManifest()
	if err != nil {
		return nil, err
	}

	lock := &manifest.Lock{}
	if recursive {
		if lock, err = c.OpenLock(); err != nil {
			return nil, err
		}
	}

	units, err := resolver.Resolve(lock, m.Program, c.BuildDir(), recursive)
	if err != nil {
		return nil, err
	}

	for i := range units {
		if !filepath.IsAbs(units[i].ArtifactPath) {
			units[i].ArtifactPath = filepath.Join(c.dir, units[i].ArtifactPath)
		}
		if info, err := os.Stat(units[i].ArtifactPath); err != nil || !info.IsDir() {
			return nil, fmt.Errorf("%s at %s: %w", units[i].Name, units[i].ArtifactPath, ErrMissingBuildDir)
		}
	}

	return units, nil
}
