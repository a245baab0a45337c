package fee

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// Spec Construction Tests
// =============================================================================

func TestNewSpec_PublicByDefault(t *testing.T) {
	spec := NewSpec(500, "")

	assert.Equal(t, ModePublic, spec.Mode)
	assert.Equal(t, uint64(500), spec.PriorityFee)
	require.NoError(t, spec.Validate())
}

func TestNewSpec_RecordForcesPrivate(t *testing.T) {
	spec := NewSpec(0, "record1abc")

	assert.Equal(t, ModePrivate, spec.Mode)
	require.NoError(t, spec.Validate())
}

func TestValidate_PrivateWithoutRecord(t *testing.T) {
	spec := Spec{Mode: ModePrivate}
	assert.ErrorIs(t, spec.Validate(), ErrMissingRecord)
}

func TestValidate_PublicWithRecord(t *testing.T) {
	spec := Spec{Mode: ModePublic, Record: "record1abc"}
	assert.ErrorIs(t, spec.Validate(), ErrUnexpectedRecord)
}

func TestValidate_UnknownMode(t *testing.T) {
	spec := Spec{Mode: Mode("escrow")}
	assert.Error(t, spec.Validate())
}

// =============================================================================
// Recursive Compatibility Tests
// =============================================================================

func TestCheckRecursive_PrivateRecursiveRejected(t *testing.T) {
	spec := NewSpec(0, "record1abc")
	assert.ErrorIs(t, spec.CheckRecursive(true), ErrRecordWithRecursive)
}

func TestCheckRecursive_AllowedCombinations(t *testing.T) {
	assert.NoError(t, NewSpec(0, "record1abc").CheckRecursive(false))
	assert.NoError(t, NewSpec(0, "").CheckRecursive(true))
	assert.NoError(t, NewSpec(0, "").CheckRecursive(false))
}
