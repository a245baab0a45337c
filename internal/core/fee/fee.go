// Package fee models how deployment fees are paid.
// This is part of the Functional Core - pure decisions, no I/O.
package fee

import "errors"

// =============================================================================
// Errors
// =============================================================================

var (
	// ErrMissingRecord is returned when private mode is selected without a record.
	ErrMissingRecord = errors.New("private fee mode requires a spending record")

	// ErrUnexpectedRecord is returned when public mode carries a record.
	ErrUnexpectedRecord = errors.New("public fee mode must not carry a record")

	// ErrRecordWithRecursive is returned when a private spending record is
	// combined with recursive deployment. One record cannot pay for a sequence
	// of deployments: it is consumed by the first spend.
	ErrRecordWithRecursive = errors.New("a private fee record cannot be combined with recursive deployment")
)

// =============================================================================
// Payment Mode
// =============================================================================

// Mode selects the fee payment protocol. Exactly one mode is active per
// deployment; every switch over Mode must handle both and reject the rest.
type Mode string

const (
	// ModePrivate spends a private record to cover the fee.
	ModePrivate Mode = "private"

	// ModePublic draws the fee from the signer's public balance.
	ModePublic Mode = "public"
)

// =============================================================================
// Fee Spec
// =============================================================================

// Spec describes the fee policy for a run: which protocol pays, and how much
// extra the deployer offers for priority inclusion. The minimum cost itself is
// computed per deployment from its artifact, not carried here.
type Spec struct {
	Mode        Mode
	PriorityFee uint64

	// Record is the serialized spending record. Set only in private mode.
	Record string
}

// NewSpec builds a fee spec from CLI-level inputs. A non-empty record forces
// private mode; otherwise the fee is paid from the public balance.
func NewSpec(priorityFee uint64, record string) Spec {
	mode := ModePublic
	if record != "" {
		mode = ModePrivate
	}
	return Spec{
		Mode:        mode,
		PriorityFee: priorityFee,
		Record:      record,
	}
}

// Validate checks the spec's internal consistency.
func (s Spec) Validate() error {
	switch s.Mode {
	case ModePrivate:
		if s.Record == "" {
			return ErrMissingRecord
		}
	case ModePublic:
		if s.Record != "" {
			return ErrUnexpectedRecord
		}
	default:
		return errors.New("unknown fee mode: " + string(s.Mode))
	}
	return nil
}

// CheckRecursive rejects the private-record + recursive combination before any
// unit is processed.
//
// Example:
//
//	if err := spec.CheckRecursive(cfg.Recursive); err != nil {
//	    return err
//	}
func (s Spec) CheckRecursive(recursive bool) error {
	if recursive && s.Mode == ModePrivate {
		return ErrRecordWithRecursive
	}
	return nil
}
