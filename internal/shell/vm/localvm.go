package vm

import (
	"bytes"
	"context"
	"crypto/ed25519"
	"encoding/base64"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/crypto/blake2b"

	"github.com/artpar/chaindeploy/internal/core/fee"
	"github.com/artpar/chaindeploy/internal/core/keys"
)

// =============================================================================
// Errors
// =============================================================================

var (
	// ErrMissingArtifact is returned when the build directory has no artifact.
	ErrMissingArtifact = errors.New("package artifact not found; run the build first")

	// ErrInvalidRecord is returned when a spending record cannot be decoded.
	ErrInvalidRecord = errors.New("invalid spending record")

	// ErrRecordNotOwned is returned when the record belongs to another address.
	ErrRecordNotOwned = errors.New("spending record is not owned by the deployer key")

	// ErrInsufficientRecord is returned when the record cannot cover the fee.
	ErrInsufficientRecord = errors.New("spending record balance is insufficient")

	// ErrInvalidAuthorization is returned when a fee authorization fails
	// signature verification at execution time.
	ErrInvalidAuthorization = errors.New("fee authorization signature is invalid")
)

// =============================================================================
// Constants
// =============================================================================

const (
	// ArtifactFile is the artifact name a build produces inside the build dir.
	ArtifactFile = "main.avm"

	// deploymentIDPrefix is the human-readable prefix of deployment IDs.
	deploymentIDPrefix = "deploy1"

	// recordPrefix is the human-readable prefix of serialized records.
	recordPrefix = "record1"

	// costPerByte is the storage cost per bytecode byte, in microcredits.
	costPerByte = 1000

	// namespaceCost is the flat cost of claiming a program name, in microcredits.
	namespaceCost = 1_000_000
)

// =============================================================================
// LocalVM
// =============================================================================

// LocalVM is a deterministic reference implementation of the VM capability.
// Deployment IDs are BLAKE2b content digests and all signatures are ed25519.
// It performs no proving; production deployments swap in a prover-backed VM
// behind the same interface.
type LocalVM struct{}

// NewLocalVM creates the reference VM.
func NewLocalVM() *LocalVM {
	return &LocalVM{}
}

// OpenPackage loads the built artifact from dir.
func (v *LocalVM) OpenPackage(dir, name string) (*Package, error) {
	path := filepath.Join(dir, ArtifactFile)
	bytecode, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%s: %w", path, ErrMissingArtifact)
		}
		return nil, fmt.Errorf("read artifact %s: %w", path, err)
	}
	return &Package{Name: name, Dir: dir, Bytecode: bytecode}, nil
}

// Deploy derives the deployment and its content-derived identifier.
func (v *LocalVM) Deploy(pkg *Package) (*Deployment, error) {
	if len(pkg.Bytecode) == 0 {
		return nil, fmt.Errorf("package %s: %w", pkg.Name, ErrMissingArtifact)
	}
	digest := blake2b.Sum256(append([]byte(pkg.Name+"|"), pkg.Bytecode...))
	id := DeploymentID(deploymentIDPrefix + hex.EncodeToString(digest[:]))
	return &Deployment{Program: pkg.Name, Bytecode: pkg.Bytecode, ID: id}, nil
}

// DeploymentCost prices the deployment by artifact size plus the flat
// namespace cost.
func (v *LocalVM) DeploymentCost(d *Deployment) (uint64, error) {
	if len(d.Bytecode) == 0 {
		return 0, fmt.Errorf("deployment %s has no bytecode", d.Program)
	}
	return uint64(len(d.Bytecode))*costPerByte + namespaceCost, nil
}

// ParseRecord decodes "record1<base64 JSON>" and verifies ownership.
func (v *LocalVM) ParseRecord(key keys.PrivateKey, record string) (Record, error) {
	payload, ok := strings.CutPrefix(record, recordPrefix)
	if !ok {
		return Record{}, ErrInvalidRecord
	}
	raw, err := base64.RawURLEncoding.DecodeString(payload)
	if err != nil {
		return Record{}, fmt.Errorf("decode record: %w", ErrInvalidRecord)
	}
	var rec Record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return Record{}, fmt.Errorf("decode record: %w", ErrInvalidRecord)
	}
	if rec.Owner != key.Address() {
		return Record{}, ErrRecordNotOwned
	}
	return rec, nil
}

// EncodeRecord serializes a record into its string form. Used by wallets and
// tests to mint spendable records.
func EncodeRecord(rec Record) string {
	raw, _ := json.Marshal(rec)
	return recordPrefix + base64.RawURLEncoding.EncodeToString(raw)
}

// AuthorizeFeePrivate authorizes spending the record for the deployment fee.
func (v *LocalVM) AuthorizeFeePrivate(key keys.PrivateKey, record Record, baseFee, priorityFee uint64, id DeploymentID, rng io.Reader) (FeeAuthorization, error) {
	if record.Microcredits < baseFee+priorityFee {
		return FeeAuthorization{}, fmt.Errorf("record holds %d, fee requires %d: %w",
			record.Microcredits, baseFee+priorityFee, ErrInsufficientRecord)
	}
	return v.signAuthorization(key, fee.ModePrivate, baseFee, priorityFee, id, rng)
}

// AuthorizeFeePublic authorizes paying the deployment fee from the signer's
// public balance. Balance sufficiency is enforced by the network on broadcast.
func (v *LocalVM) AuthorizeFeePublic(key keys.PrivateKey, baseFee, priorityFee uint64, id DeploymentID, rng io.Reader) (FeeAuthorization, error) {
	return v.signAuthorization(key, fee.ModePublic, baseFee, priorityFee, id, rng)
}

// signAuthorization builds and signs an authorization bound to the deployment
// ID. The nonce makes signatures unique across otherwise identical inputs.
func (v *LocalVM) signAuthorization(key keys.PrivateKey, mode fee.Mode, baseFee, priorityFee uint64, id DeploymentID, rng io.Reader) (FeeAuthorization, error) {
	nonce := make([]byte, 32)
	if _, err := io.ReadFull(rng, nonce); err != nil {
		return FeeAuthorization{}, fmt.Errorf("read nonce: %w", err)
	}
	auth := FeeAuthorization{
		Payer:        key.Address(),
		Mode:         mode,
		BaseFee:      baseFee,
		PriorityFee:  priorityFee,
		DeploymentID: id,
		Nonce:        nonce,
	}
	auth.Signature = ed25519.Sign(key.Signer(), authorizationDigest(auth))
	return auth, nil
}

// ExecuteFeeAuthorization verifies the authorization and anchors it to the
// current chain state root. The query round-trip is the assembly step's
// suspension point.
func (v *LocalVM) ExecuteFeeAuthorization(ctx context.Context, auth FeeAuthorization, query Query, rng io.Reader) (Fee, error) {
	pub, err := payerPublicKey(auth.Payer)
	if err != nil {
		return Fee{}, err
	}
	if !ed25519.Verify(pub, authorizationDigest(auth), auth.Signature) {
		return Fee{}, ErrInvalidAuthorization
	}

	stateRoot, err := query.StateRoot(ctx)
	if err != nil {
		return Fee{}, fmt.Errorf("fetch state root: %w", err)
	}
	return Fee{Authorization: auth, StateRoot: stateRoot}, nil
}

// NewOwner signs the deployment identifier, proving the right to publish it.
func (v *LocalVM) NewOwner(key keys.PrivateKey, id DeploymentID, rng io.Reader) (Owner, error) {
	nonce := make([]byte, 32)
	if _, err := io.ReadFull(rng, nonce); err != nil {
		return Owner{}, fmt.Errorf("read nonce: %w", err)
	}
	msg := ownerDigest(id, nonce)
	return Owner{
		Address:   key.Address(),
		Nonce:     nonce,
		Signature: ed25519.Sign(key.Signer(), msg),
	}, nil
}

// =============================================================================
// Digest Helpers
// =============================================================================

func authorizationDigest(auth FeeAuthorization) []byte {
	var buf bytes.Buffer
	buf.WriteString(auth.Payer)
	buf.WriteByte('|')
	buf.WriteString(string(auth.Mode))
	buf.WriteByte('|')
	_ = binary.Write(&buf, binary.BigEndian, auth.BaseFee)
	_ = binary.Write(&buf, binary.BigEndian, auth.PriorityFee)
	buf.WriteString(string(auth.DeploymentID))
	buf.Write(auth.Nonce)
	digest := blake2b.Sum256(buf.Bytes())
	return digest[:]
}

func ownerDigest(id DeploymentID, nonce []byte) []byte {
	digest := blake2b.Sum256(append([]byte("owner|"+string(id)+"|"), nonce...))
	return digest[:]
}

func payerPublicKey(address string) (ed25519.PublicKey, error) {
	payload, ok := strings.CutPrefix(address, keys.AddressPrefix)
	if !ok {
		return nil, fmt.Errorf("invalid payer address %q", address)
	}
	pub, err := base64.RawURLEncoding.DecodeString(payload)
	if err != nil || len(pub) != ed25519.PublicKeySize {
		return nil, fmt.Errorf("invalid payer address %q", address)
	}
	return ed25519.PublicKey(pub), nil
}
