// Package domain holds the core types for deployment orchestration.
// This is part of the Functional Core - types and transitions only, no I/O.
package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// Errors
// =============================================================================

var (
	// ErrInvalidTransition is returned when a unit status transition is not allowed.
	ErrInvalidTransition = errors.New("invalid status transition")
)

// =============================================================================
// Unit Status
// =============================================================================

// UnitStatus represents the lifecycle state of a single deployment unit.
type UnitStatus string

const (
	StatusPending      UnitStatus = "pending"
	StatusAssembling   UnitStatus = "assembling"
	StatusAssembled    UnitStatus = "assembled"
	StatusBroadcasting UnitStatus = "broadcasting"
	StatusDone         UnitStatus = "done"
	StatusFailed       UnitStatus = "failed"
)

// validTransitions maps each status to the statuses it may move to.
// Any state except done may fail; done is terminal.
var validTransitions = map[UnitStatus][]UnitStatus{
	StatusPending:      {StatusAssembling, StatusFailed},
	StatusAssembling:   {StatusAssembled, StatusFailed},
	StatusAssembled:    {StatusBroadcasting, StatusFailed},
	StatusBroadcasting: {StatusDone, StatusFailed},
	StatusDone:         {},
	StatusFailed:       {},
}

// CanTransition reports whether a transition from s to next is allowed.
func (s UnitStatus) CanTransition(next UnitStatus) bool {
	for _, allowed := range validTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// =============================================================================
// Deployment Unit
// =============================================================================

// DeploymentUnit is one package to be deployed: a program name paired with
// the directory holding its build artifact. Units are produced in dependency
// order and consumed exactly once.
type DeploymentUnit struct {
	// Name is the program identifier, e.g. "token.chain".
	Name string

	// ArtifactPath is the directory containing the built package.
	ArtifactPath string

	// Status tracks the unit through the orchestration state machine.
	Status UnitStatus
}

// NewDeploymentUnit creates a pending deployment unit.
func NewDeploymentUnit(name, artifactPath string) DeploymentUnit {
	return DeploymentUnit{
		Name:         name,
		ArtifactPath: artifactPath,
		Status:       StatusPending,
	}
}

// Transition moves the unit to the next status, validating the state machine.
//
// Example:
//
//	unit := NewDeploymentUnit("token.chain", "build")
//	if err := unit.Transition(StatusAssembling); err != nil {
//	    return err
//	}
func (u *DeploymentUnit) Transition(next UnitStatus) error {
	if !u.Status.CanTransition(next) {
		return ErrInvalidTransition
	}
	u.Status = next
	return nil
}

// =============================================================================
// Broadcast Receipt
// =============================================================================

// Receipt records one successfully broadcast deployment transaction.
type Receipt struct {
	ID           string    `db:"id"`
	RunID        string    `db:"run_id"`
	Program      string    `db:"program"`
	DeploymentID string    `db:"deployment_id"`
	Network      string    `db:"network"`
	Endpoint     string    `db:"endpoint"`
	FeePaid      uint64    `db:"fee_paid"`
	BroadcastAt  time.Time `db:"broadcast_at"`
}

// NewReceipt creates a receipt for a broadcast transaction.
func NewReceipt(runID, program, deploymentID, network, endpoint string, feePaid uint64) Receipt {
	return Receipt{
		ID:           uuid.NewString(),
		RunID:        runID,
		Program:      program,
		DeploymentID: deploymentID,
		Network:      network,
		Endpoint:     endpoint,
		FeePaid:      feePaid,
		BroadcastAt:  time.Now().UTC(),
	}
}
