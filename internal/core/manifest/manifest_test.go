package manifest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// Manifest Parse Tests
// =============================================================================

func TestParse_ValidManifest(t *testing.T) {
	content := `
program: token.chain
version: 0.1.0
description: A fungible token
license: MIT
`
	m, err := Parse([]byte(content))
	require.NoError(t, err)

	assert.Equal(t, "token.chain", m.Program)
	assert.Equal(t, "0.1.0", m.Version)
}

func TestParse_EmptyInput(t *testing.T) {
	_, err := Parse([]byte("  \n "))
	assert.ErrorIs(t, err, ErrEmptyInput)
}

func TestParse_InvalidYAML(t *testing.T) {
	_, err := Parse([]byte("program: [unclosed"))
	assert.ErrorIs(t, err, ErrInvalidYAML)
}

func TestParse_MissingProgram(t *testing.T) {
	_, err := Parse([]byte("version: 0.1.0"))
	assert.ErrorIs(t, err, ErrMissingProgram)
}

func TestParse_InvalidProgramID(t *testing.T) {
	for _, id := range []string{"Token.chain", "token", "token.", "9token.chain", "token chain.x"} {
		_, err := Parse([]byte("program: " + id))
		assert.ErrorIs(t, err, ErrInvalidProgram, "id %q", id)
	}
}

// =============================================================================
// Lock Parse Tests
// =============================================================================

func TestParseLock_ValidLock(t *testing.T) {
	content := `
version: 1
packages:
  - name: credits.chain
    checksum: "abc123"
  - name: token.chain
    path: .deps/token
    dependencies: [credits.chain]
`
	lock, err := ParseLock([]byte(content))
	require.NoError(t, err)

	require.Len(t, lock.Packages, 2)
	assert.False(t, lock.Packages[0].IsLocal())
	assert.True(t, lock.Packages[1].IsLocal())

	pkg, ok := lock.Package("token.chain")
	require.True(t, ok)
	assert.Equal(t, []string{"credits.chain"}, pkg.Dependencies)
}

func TestParseLock_MissingName(t *testing.T) {
	content := `
packages:
  - path: .deps/token
`
	_, err := ParseLock([]byte(content))
	assert.ErrorIs(t, err, ErrMissingPackageName)
}

func TestParseLock_DuplicatePackage(t *testing.T) {
	content := `
packages:
  - name: token.chain
    path: .deps/token
  - name: token.chain
    path: .deps/token2
`
	_, err := ParseLock([]byte(content))
	assert.ErrorIs(t, err, ErrDuplicatePackage)
}

func TestParseLock_UnknownDependency(t *testing.T) {
	content := `
packages:
  - name: token.chain
    path: .deps/token
    dependencies: [ghost.chain]
`
	_, err := ParseLock([]byte(content))
	assert.ErrorIs(t, err, ErrUnknownDependency)

	var parseErr *ParseError
	require.ErrorAs(t, err, &parseErr)
	assert.Contains(t, parseErr.Error(), "ghost.chain")
}
