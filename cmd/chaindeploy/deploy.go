package main

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/artpar/chaindeploy/internal/core/fee"
	"github.com/artpar/chaindeploy/internal/core/keys"
	"github.com/artpar/chaindeploy/internal/shell/assembler"
	"github.com/artpar/chaindeploy/internal/shell/broadcast"
	"github.com/artpar/chaindeploy/internal/shell/build"
	"github.com/artpar/chaindeploy/internal/shell/journal"
	"github.com/artpar/chaindeploy/internal/shell/orchestrator"
	"github.com/artpar/chaindeploy/internal/shell/project"
	"github.com/artpar/chaindeploy/internal/shell/vm"
)

// deployOptions holds the deploy command's flag values.
type deployOptions struct {
	configPath  string
	path        string
	endpoint    string
	network     string
	privateKey  string
	record      string
	priorityFee uint64
	noBuild     bool
	recursive   bool
	wait        time.Duration
}

func newDeployCmd() *cobra.Command {
	opts := &deployOptions{}

	cmd := &cobra.Command{
		Use:   "deploy",
		Short: "Deploy the project's program, optionally with its local dependencies",
		Long: `Deploy builds the project (unless --no-build), orders the program and its
local dependencies so every dependency is broadcast before anything that
depends on it, and submits one deployment transaction per package, pausing
between transactions so dependent programs do not race their dependencies
into the same block.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDeploy(cmd, opts)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.configPath, "config", "", "Path to config file")
	flags.StringVar(&opts.path, "path", ".", "Path to the project directory")
	flags.StringVar(&opts.endpoint, "endpoint", "", "Endpoint to retrieve network state from and broadcast to")
	flags.StringVar(&opts.network, "network", "", "Network identifier")
	flags.StringVar(&opts.privateKey, "private-key", "", "Deployer private key (defaults to "+keys.EnvPrivateKey+")")
	flags.StringVar(&opts.record, "record", "", "Private record to pay the fee with (forces private fee mode)")
	flags.Uint64Var(&opts.priorityFee, "priority-fee", 0, "Priority fee in microcredits")
	flags.BoolVar(&opts.noBuild, "no-build", false, "Disable building of the project before deployment")
	flags.BoolVar(&opts.recursive, "recursive", false, "Enable recursive deployment of local dependencies")
	flags.DurationVar(&opts.wait, "wait", 12*time.Second, "Time to wait between consecutive deployments")

	return cmd
}

func runDeploy(cmd *cobra.Command, opts *deployOptions) error {
	cfg, err := LoadConfig(opts.configPath)
	if err != nil {
		return err
	}

	// Flags override config where set.
	if cmd.Flags().Changed("endpoint") {
		cfg.Endpoint = opts.endpoint
	}
	if cmd.Flags().Changed("network") {
		cfg.Network = opts.network
	}
	if cmd.Flags().Changed("wait") {
		cfg.Wait = opts.wait
	}

	logger := SetupLogger(cfg)
	ctx := cmd.Context()

	// Reject incompatible options before doing any work.
	spec := fee.NewSpec(opts.priorityFee, opts.record)
	if err := spec.CheckRecursive(opts.recursive); err != nil {
		return err
	}

	key, err := keys.Resolve(opts.privateKey)
	if err != nil {
		return err
	}

	proj := project.NewContext(opts.path)

	var builder build.Builder = build.NewNoOpBuilder()
	if !opts.noBuild {
		builder = build.NewExecBuilder(cfg.Build.Command, logger)
	}
	if err := builder.Build(ctx, proj.Dir()); err != nil {
		return err
	}

	units, err := proj.DeploymentUnits(opts.recursive)
	if err != nil {
		return err
	}

	client := broadcast.NewClient(broadcast.Config{
		Endpoint: cfg.Endpoint,
		Network:  cfg.Network,
		Timeout:  cfg.Broadcast.Timeout,
	}, logger)

	// The journal is bookkeeping only; an unusable journal must not block
	// a deployment.
	var jnl journal.Journal = journal.NewNoOpJournal()
	if cfg.Journal.Path != "" {
		if opened, err := journal.Open(cfg.Journal.Path); err != nil {
			logger.Warn("journal unavailable, receipts will not be recorded",
				"path", cfg.Journal.Path,
				"error", err,
			)
		} else {
			jnl = opened
			defer jnl.Close()
		}
	}

	asm := assembler.New(vm.NewLocalVM(), client, logger)
	orch := orchestrator.New(asm, client, jnl, logger)

	return orch.Run(ctx, units, key, spec, orchestrator.Config{
		Network:   cfg.Network,
		Endpoint:  cfg.Endpoint,
		Recursive: opts.recursive,
		Wait:      cfg.Wait,
	})
}
