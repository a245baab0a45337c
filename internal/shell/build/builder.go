// Package build is the boundary to the external build system that compiles a
// project into its deployable artifact.
package build

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
)

// =============================================================================
// Errors
// =============================================================================

var (
	// ErrNoBuildCommand is returned when a build is requested but no build
	// command is configured.
	ErrNoBuildCommand = errors.New("no build command configured")
)

// =============================================================================
// Builder Interface
// =============================================================================

// Builder compiles a project in place so its build directory holds a current
// artifact.
type Builder interface {
	Build(ctx context.Context, dir string) error
}

// =============================================================================
// Exec Builder
// =============================================================================

// ExecBuilder runs a configured compiler command in the project directory.
type ExecBuilder struct {
	command []string
	logger  *slog.Logger
}

// NewExecBuilder creates a builder that runs command (argv form) in the
// project directory.
func NewExecBuilder(command []string, logger *slog.Logger) *ExecBuilder {
	if logger == nil {
		logger = slog.Default()
	}
	return &ExecBuilder{command: command, logger: logger}
}

// Build runs the build command. The command's output goes to the process
// streams so compiler diagnostics reach the user unmodified.
func (b *ExecBuilder) Build(ctx context.Context, dir string) error {
	if len(b.command) == 0 {
		return ErrNoBuildCommand
	}

	b.logger.Info("building project", "dir", dir, "command", b.command[0])

	cmd := exec.CommandContext(ctx, b.command[0], b.command[1:]...)
	cmd.Dir = dir
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("build failed: %w", err)
	}
	return nil
}

// =============================================================================
// No-Op Builder (for --no-build and tests)
// =============================================================================

// NoOpBuilder skips the build step.
type NoOpBuilder struct{}

// NewNoOpBuilder creates a builder that does nothing.
func NewNoOpBuilder() *NoOpBuilder {
	return &NoOpBuilder{}
}

// Build does nothing.
func (b *NoOpBuilder) Build(ctx context.Context, dir string) error {
	return nil
}
