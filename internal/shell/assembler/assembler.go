// Package assembler builds complete deployment transactions, one unit at a
// time. It drives the VM capability through the fixed assembly sequence:
// open, deploy, cost, fee, ownership, bind.
package assembler

import (
	"context"
	"crypto/rand"
	"fmt"
	"io"
	"log/slog"

	"github.com/artpar/chaindeploy/internal/core/domain"
	"github.com/artpar/chaindeploy/internal/core/fee"
	"github.com/artpar/chaindeploy/internal/core/keys"
	"github.com/artpar/chaindeploy/internal/shell/vm"
)

// =============================================================================
// Stage Errors
// =============================================================================

// Stage identifies the assembly step that failed.
type Stage string

const (
	StageOpen      Stage = "open"
	StageDeploy    Stage = "deploy"
	StageCost      Stage = "cost"
	StageFee       Stage = "fee"
	StageOwnership Stage = "ownership"
)

// Error reports an assembly failure with the unit and stage that produced it.
type Error struct {
	Unit  string
	Stage Stage
	Err   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("assemble %s: %s: %v", e.Unit, e.Stage, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func stageError(unit string, stage Stage, err error) *Error {
	return &Error{Unit: unit, Stage: stage, Err: err}
}

// =============================================================================
// Assembler
// =============================================================================

// Assembler builds ready-to-broadcast deployment transactions.
type Assembler struct {
	machine vm.VM
	query   vm.Query
	logger  *slog.Logger
	rng     io.Reader
}

// New creates an assembler over the given VM capability and chain query.
func New(machine vm.VM, query vm.Query, logger *slog.Logger) *Assembler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Assembler{
		machine: machine,
		query:   query,
		logger:  logger,
		rng:     rand.Reader,
	}
}

// Assemble builds the deployment transaction for one unit. Failure at any
// stage aborts the unit; no partial transaction is returned and nothing is
// retried.
func (a *Assembler) Assemble(ctx context.Context, unit domain.DeploymentUnit, key keys.PrivateKey, spec fee.Spec) (*vm.Transaction, error) {
	// 1. Load the built package artifact.
	pkg, err := a.machine.OpenPackage(unit.ArtifactPath, unit.Name)
	if err != nil {
		return nil, stageError(unit.Name, StageOpen, err)
	}

	// 2. Derive the deployment and its identifier.
	deployment, err := a.machine.Deploy(pkg)
	if err != nil {
		return nil, stageError(unit.Name, StageDeploy, err)
	}

	// 3. Compute the minimum deployment cost.
	baseFee, err := a.machine.DeploymentCost(deployment)
	if err != nil {
		return nil, stageError(unit.Name, StageCost, err)
	}
	a.logger.Debug("computed deployment cost",
		"program", unit.Name,
		"deployment_id", deployment.ID,
		"base_fee", baseFee,
		"priority_fee", spec.PriorityFee,
	)

	// 4. Authorize the fee and execute the authorization against current
	// chain state. The state query is the suspension point of assembly.
	auth, err := a.authorizeFee(key, spec, baseFee, deployment.ID)
	if err != nil {
		return nil, stageError(unit.Name, StageFee, err)
	}
	executedFee, err := a.machine.ExecuteFeeAuthorization(ctx, auth, a.query, a.rng)
	if err != nil {
		return nil, stageError(unit.Name, StageFee, err)
	}

	// 5. Prove ownership of the deployment.
	owner, err := a.machine.NewOwner(key, deployment.ID, a.rng)
	if err != nil {
		return nil, stageError(unit.Name, StageOwnership, err)
	}

	// 6. Bind everything into the transaction.
	return vm.NewTransaction(owner, deployment, executedFee), nil
}

// authorizeFee obtains a fee authorization bound to the deployment ID,
// branching on the payment mode. The authorization is built fresh per unit
// and never reused.
func (a *Assembler) authorizeFee(key keys.PrivateKey, spec fee.Spec, baseFee uint64, id vm.DeploymentID) (vm.FeeAuthorization, error) {
	switch spec.Mode {
	case fee.ModePrivate:
		record, err := a.machine.ParseRecord(key, spec.Record)
		if err != nil {
			return vm.FeeAuthorization{}, err
		}
		return a.machine.AuthorizeFeePrivate(key, record, baseFee, spec.PriorityFee, id, a.rng)

	case fee.ModePublic:
		return a.machine.AuthorizeFeePublic(key, baseFee, spec.PriorityFee, id, a.rng)

	default:
		return vm.FeeAuthorization{}, fmt.Errorf("unknown fee mode %q", spec.Mode)
	}
}
