// Package orchestrator drives an ordered sequence of deployment units through
// assembly and broadcast, one unit at a time.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/artpar/chaindeploy/internal/core/domain"
	"github.com/artpar/chaindeploy/internal/core/fee"
	"github.com/artpar/chaindeploy/internal/core/keys"
	"github.com/artpar/chaindeploy/internal/shell/journal"
	"github.com/artpar/chaindeploy/internal/shell/vm"
)

// =============================================================================
// Errors
// =============================================================================

var (
	// ErrIncompatibleOptions is returned when a private fee record is combined
	// with a multi-unit run. It is raised before any unit is processed.
	ErrIncompatibleOptions = errors.New("incompatible options: private fee record with recursive deployment")
)

// =============================================================================
// Collaborator Interfaces
// =============================================================================

// Assembler builds one deployment transaction per unit.
type Assembler interface {
	Assemble(ctx context.Context, unit domain.DeploymentUnit, key keys.PrivateKey, spec fee.Spec) (*vm.Transaction, error)
}

// Sink delivers completed transactions to the network.
type Sink interface {
	Broadcast(ctx context.Context, tx *vm.Transaction) (string, error)
}

// =============================================================================
// Orchestrator
// =============================================================================

// Config holds the per-run orchestration settings. Read-only for the
// duration of one run.
type Config struct {
	Network   string
	Endpoint  string
	Recursive bool

	// Wait is the pause between consecutive deployments. The ledger offers no
	// same-block ordering guarantee for causally dependent transactions, so
	// each unit is given time to land before its dependents are submitted.
	// This is a best-effort mitigation, not a confirmation wait.
	Wait time.Duration
}

// Orchestrator runs the deployment sequence. Units are processed strictly
// one after another; a failure aborts the run without touching the units
// already broadcast.
type Orchestrator struct {
	assembler Assembler
	sink      Sink
	journal   journal.Journal
	logger    *slog.Logger
	sleep     func(time.Duration)
}

// New creates an orchestrator. journal may be nil to skip receipt keeping.
func New(assembler Assembler, sink Sink, jnl journal.Journal, logger *slog.Logger) *Orchestrator {
	if jnl == nil {
		jnl = journal.NewNoOpJournal()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		assembler: assembler,
		sink:      sink,
		journal:   jnl,
		logger:    logger,
		sleep:     time.Sleep,
	}
}

// Run deploys every unit in order. Per unit:
// pending → assembling → assembled → broadcasting → done, or failed.
//
// A private fee record with more than one unit is rejected up front: one
// record cannot pay for a sequence of deployments. On any unit failure the
// run aborts immediately; prior units remain valid on the network.
func (o *Orchestrator) Run(ctx context.Context, units []domain.DeploymentUnit, key keys.PrivateKey, spec fee.Spec, cfg Config) error {
	if err := spec.Validate(); err != nil {
		return err
	}
	if spec.Mode == fee.ModePrivate && (cfg.Recursive || len(units) > 1) {
		return ErrIncompatibleOptions
	}

	runID := uuid.NewString()
	o.logger.Info("starting deployment run",
		"run_id", runID,
		"units", len(units),
		"network", cfg.Network,
		"fee_mode", spec.Mode,
		"wait", cfg.Wait,
	)

	for i := range units {
		unit := &units[i]

		if err := o.deployUnit(ctx, runID, unit, key, spec, cfg); err != nil {
			o.logger.Error("deployment run aborted",
				"run_id", runID,
				"program", unit.Name,
				"completed", i,
				"remaining", len(units)-i-1,
				"error", err,
			)
			return err
		}

		if i < len(units)-1 {
			o.logger.Info("waiting before next deployment",
				"run_id", runID,
				"wait", cfg.Wait,
			)
			o.sleep(cfg.Wait)
		}
	}

	o.logger.Info("deployment run complete", "run_id", runID, "units", len(units))
	return nil
}

// deployUnit walks one unit through the state machine.
func (o *Orchestrator) deployUnit(ctx context.Context, runID string, unit *domain.DeploymentUnit, key keys.PrivateKey, spec fee.Spec, cfg Config) error {
	fail := func(stage string, err error) error {
		_ = unit.Transition(domain.StatusFailed)
		return fmt.Errorf("%s %s: %w", stage, unit.Name, err)
	}

	o.logger.Info("creating deployment transaction", "run_id", runID, "program", unit.Name)
	if err := unit.Transition(domain.StatusAssembling); err != nil {
		return fail("assemble", err)
	}

	tx, err := o.assembler.Assemble(ctx, *unit, key, spec)
	if err != nil {
		return fail("assemble", err)
	}
	if err := unit.Transition(domain.StatusAssembled); err != nil {
		return fail("assemble", err)
	}
	o.logger.Info("created deployment transaction",
		"run_id", runID,
		"program", unit.Name,
		"deployment_id", tx.Deployment.ID,
		"fee", tx.Fee.Authorization.Total(),
	)

	if err := unit.Transition(domain.StatusBroadcasting); err != nil {
		return fail("broadcast", err)
	}
	ack, err := o.sink.Broadcast(ctx, tx)
	if err != nil {
		return fail("broadcast", err)
	}
	if err := unit.Transition(domain.StatusDone); err != nil {
		return fail("broadcast", err)
	}
	o.logger.Info("broadcast deployment transaction",
		"run_id", runID,
		"program", unit.Name,
		"ack", ack,
	)

	receipt := domain.NewReceipt(runID, unit.Name, string(tx.Deployment.ID), cfg.Network, cfg.Endpoint, tx.Fee.Authorization.Total())
	if err := o.journal.Record(ctx, receipt); err != nil {
		// Bookkeeping only; the transaction is already on the network.
		o.logger.Warn("failed to record receipt", "run_id", runID, "program", unit.Name, "error", err)
	}

	return nil
}
