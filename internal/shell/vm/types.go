package vm

import (
	"github.com/artpar/chaindeploy/internal/core/fee"
)

// =============================================================================
// Artifact Types
// =============================================================================

// Package is a built program artifact loaded from a build directory.
type Package struct {
	Name     string
	Dir      string
	Bytecode []byte
}

// DeploymentID is the content-derived identifier of a deployment. It is a
// deterministic function of the artifact: the same bytecode always yields the
// same ID.
type DeploymentID string

// Deployment is the on-chain representation of a program ready to publish.
type Deployment struct {
	Program  string       `json:"program"`
	Bytecode []byte       `json:"bytecode"`
	ID       DeploymentID `json:"id"`
}

// =============================================================================
// Fee Types
// =============================================================================

// Record is a decoded private spending record. A record is consumed by its
// first authorized spend and must not be reused.
type Record struct {
	Owner        string `json:"owner"`
	Microcredits uint64 `json:"microcredits"`
	Nonce        string `json:"nonce"`
}

// FeeAuthorization is a signed statement permitting baseFee + priorityFee to
// be paid from a specific source for a specific deployment. It is valid only
// for the DeploymentID it was built with.
type FeeAuthorization struct {
	Payer        string       `json:"payer"`
	Mode         fee.Mode     `json:"mode"`
	BaseFee      uint64       `json:"base_fee"`
	PriorityFee  uint64       `json:"priority_fee"`
	DeploymentID DeploymentID `json:"deployment_id"`
	Nonce        []byte       `json:"nonce"`
	Signature    []byte       `json:"signature"`
}

// Total returns the full fee amount the authorization covers.
func (a FeeAuthorization) Total() uint64 {
	return a.BaseFee + a.PriorityFee
}

// Fee is an executed fee component, anchored to the chain state root current
// at assembly time.
type Fee struct {
	Authorization FeeAuthorization `json:"authorization"`
	StateRoot     string           `json:"state_root"`
}

// =============================================================================
// Ownership and Transaction Types
// =============================================================================

// Owner is the ownership proof: a signature binding the deployer's key to the
// deployment identifier.
type Owner struct {
	Address   string `json:"address"`
	Nonce     []byte `json:"nonce"`
	Signature []byte `json:"signature"`
}

// Transaction is a complete, ready-to-broadcast deployment transaction.
// Immutable once assembled.
type Transaction struct {
	Type       string      `json:"type"`
	Owner      Owner       `json:"owner"`
	Deployment *Deployment `json:"deployment"`
	Fee        Fee         `json:"fee"`
}

// TransactionTypeDeploy is the only transaction type this tool produces.
const TransactionTypeDeploy = "deploy"

// NewTransaction binds an ownership proof, a deployment, and an executed fee
// into a deployment transaction.
func NewTransaction(owner Owner, deployment *Deployment, executedFee Fee) *Transaction {
	return &Transaction{
		Type:       TransactionTypeDeploy,
		Owner:      owner,
		Deployment: deployment,
		Fee:        executedFee,
	}
}
