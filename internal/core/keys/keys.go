// Package keys resolves and parses the deployer's private key.
package keys

import (
	"crypto/ed25519"
	"encoding/base64"
	"errors"
	"os"
	"strings"
)

// =============================================================================
// Errors
// =============================================================================

var (
	// ErrNoPrivateKey is returned when neither an explicit key nor the
	// environment provides one.
	ErrNoPrivateKey = errors.New("no private key: pass --private-key or set " + EnvPrivateKey)

	// ErrInvalidPrivateKey is returned when the key string cannot be parsed.
	ErrInvalidPrivateKey = errors.New("invalid private key format")
)

// EnvPrivateKey is the environment variable consulted when no explicit key is given.
const EnvPrivateKey = "CHAINDEPLOY_PRIVATE_KEY"

// AddressPrefix is the human-readable prefix of public addresses.
const AddressPrefix = "addr1"

const privateKeyPrefix = "APrivateKey1"

// =============================================================================
// Private Key
// =============================================================================

// PrivateKey is the deployer's signing key. The String method never reveals
// the key material.
type PrivateKey struct {
	seed []byte
}

// Parse decodes a private key of the form "APrivateKey1<base64 seed>".
func Parse(s string) (PrivateKey, error) {
	payload, ok := strings.CutPrefix(s, privateKeyPrefix)
	if !ok {
		return PrivateKey{}, ErrInvalidPrivateKey
	}
	seed, err := base64.RawURLEncoding.DecodeString(payload)
	if err != nil || len(seed) != ed25519.SeedSize {
		return PrivateKey{}, ErrInvalidPrivateKey
	}
	return PrivateKey{seed: seed}, nil
}

// Resolve returns the key from the explicit value if given, otherwise from
// the environment.
func Resolve(explicit string) (PrivateKey, error) {
	if explicit != "" {
		return Parse(explicit)
	}
	if env := os.Getenv(EnvPrivateKey); env != "" {
		return Parse(env)
	}
	return PrivateKey{}, ErrNoPrivateKey
}

// Signer returns the ed25519 signing key derived from the seed.
func (k PrivateKey) Signer() ed25519.PrivateKey {
	return ed25519.NewKeyFromSeed(k.seed)
}

// Address returns the public address of the key holder.
func (k PrivateKey) Address() string {
	pub := k.Signer().Public().(ed25519.PublicKey)
	return AddressPrefix + base64.RawURLEncoding.EncodeToString(pub)
}

// String redacts the key material.
func (k PrivateKey) String() string {
	return privateKeyPrefix + "***"
}

// Encode serializes a seed into the private key string format. Used by tests
// and key generation tooling.
func Encode(seed []byte) string {
	return privateKeyPrefix + base64.RawURLEncoding.EncodeToString(seed)
}
