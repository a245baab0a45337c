// chaindeploy deploys a program and its local dependencies to the network,
// one correctly ordered transaction at a time.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/artpar/chaindeploy/internal/core/fee"
	"github.com/artpar/chaindeploy/internal/core/keys"
	"github.com/artpar/chaindeploy/internal/core/manifest"
	"github.com/artpar/chaindeploy/internal/core/resolver"
	"github.com/artpar/chaindeploy/internal/shell/assembler"
	"github.com/artpar/chaindeploy/internal/shell/orchestrator"
	"github.com/artpar/chaindeploy/internal/shell/project"
)

// Version information (set by build)
var (
	Version   = "dev"
	BuildTime = "unknown"
)

// =============================================================================
// Exit Codes
// =============================================================================

const (
	ExitSuccess         = 0
	ExitConfigError     = 1
	ExitResolutionError = 2
	ExitKeyError        = 3
	ExitAssemblyError   = 4
	ExitBroadcastError  = 5
)

func main() {
	os.Exit(run())
}

func run() int {
	root := &cobra.Command{
		Use:           "chaindeploy",
		Short:         "Deploy programs and their dependencies on chain",
		Version:       fmt.Sprintf("%s (built %s)", Version, BuildTime),
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newDeployCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return exitCode(err)
	}
	return ExitSuccess
}

// exitCode classifies an error into the exit code taxonomy.
func exitCode(err error) int {
	switch {
	case errors.Is(err, fee.ErrRecordWithRecursive),
		errors.Is(err, orchestrator.ErrIncompatibleOptions),
		errors.Is(err, fee.ErrMissingRecord),
		errors.Is(err, fee.ErrUnexpectedRecord):
		return ExitConfigError

	case errors.Is(err, keys.ErrNoPrivateKey),
		errors.Is(err, keys.ErrInvalidPrivateKey):
		return ExitKeyError

	case errors.Is(err, project.ErrNoManifest),
		errors.Is(err, project.ErrNoLock),
		errors.Is(err, project.ErrMissingBuildDir),
		errors.Is(err, resolver.ErrDependencyCycle),
		errors.Is(err, manifest.ErrInvalidYAML),
		errors.Is(err, manifest.ErrUnknownDependency),
		errors.Is(err, manifest.ErrDuplicatePackage),
		errors.Is(err, manifest.ErrMissingProgram),
		errors.Is(err, manifest.ErrInvalidProgram):
		return ExitResolutionError

	default:
		var stageErr *assembler.Error
		if errors.As(err, &stageErr) {
			return ExitAssemblyError
		}
		return ExitBroadcastError
	}
}
