// Package vm is the boundary to the proving/VM subsystem: package loading,
// deployment derivation, cost computation, fee authorization and execution,
// and ownership signatures. The orchestrator treats it as an already-correct
// cryptographic service behind the VM interface; LocalVM is the bundled
// reference implementation.
package vm

import (
	"context"
	"io"

	"github.com/artpar/chaindeploy/internal/core/keys"
)

// =============================================================================
// Capability Interfaces
// =============================================================================

// Query answers questions about current chain state. Implementations usually
// perform a network round-trip.
type Query interface {
	// StateRoot returns the latest ledger state root.
	StateRoot(ctx context.Context) (string, error)
}

// VM is the injected cryptographic capability used to assemble deployment
// transactions. Implementations must be safe for sequential reuse across
// units; nothing here is called concurrently.
type VM interface {
	// OpenPackage loads the built package artifact from dir.
	OpenPackage(dir, name string) (*Package, error)

	// Deploy derives the deployment and its content-derived identifier.
	Deploy(pkg *Package) (*Deployment, error)

	// DeploymentCost computes the minimum cost in microcredits to publish
	// the deployment.
	DeploymentCost(d *Deployment) (uint64, error)

	// ParseRecord decodes a serialized spending record and checks that the
	// key holder owns it.
	ParseRecord(key keys.PrivateKey, record string) (Record, error)

	// AuthorizeFeePrivate authorizes spending the record to cover
	// baseFee + priorityFee for the given deployment.
	AuthorizeFeePrivate(key keys.PrivateKey, record Record, baseFee, priorityFee uint64, id DeploymentID, rng io.Reader) (FeeAuthorization, error)

	// AuthorizeFeePublic authorizes paying baseFee + priorityFee from the
	// signer's public balance for the given deployment.
	AuthorizeFeePublic(key keys.PrivateKey, baseFee, priorityFee uint64, id DeploymentID, rng io.Reader) (FeeAuthorization, error)

	// ExecuteFeeAuthorization turns an authorization into an executable fee
	// component, anchored to the chain state served by query.
	ExecuteFeeAuthorization(ctx context.Context, auth FeeAuthorization, query Query, rng io.Reader) (Fee, error)

	// NewOwner produces the ownership proof entitling the key holder to
	// publish the deployment.
	NewOwner(key keys.PrivateKey, id DeploymentID, rng io.Reader) (Owner, error)
}
