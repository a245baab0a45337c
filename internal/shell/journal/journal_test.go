package journal

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/artpar/chaindeploy/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestJournal(t *testing.T) *SQLiteJournal {
	t.Helper()
	j, err := Open(filepath.Join(t.TempDir(), "journal.db"))
	require.NoError(t, err)
	t.Cleanup(func() { j.Close() })
	return j
}

// =============================================================================
// Journal Tests
// =============================================================================

func TestOpen_RunsMigrations(t *testing.T) {
	j := openTestJournal(t)

	receipts, err := j.ListByRun(context.Background(), "run-1")
	require.NoError(t, err)
	assert.Empty(t, receipts)
}

func TestRecord_AndListByRun(t *testing.T) {
	j := openTestJournal(t)
	ctx := context.Background()

	first := domain.NewReceipt("run-1", "a.chain", "deploy1a", "testnet", "http://localhost:3030", 1_000_000)
	second := domain.NewReceipt("run-1", "b.chain", "deploy1b", "testnet", "http://localhost:3030", 2_000_000)
	other := domain.NewReceipt("run-2", "c.chain", "deploy1c", "testnet", "http://localhost:3030", 3_000_000)

	require.NoError(t, j.Record(ctx, first))
	require.NoError(t, j.Record(ctx, second))
	require.NoError(t, j.Record(ctx, other))

	receipts, err := j.ListByRun(ctx, "run-1")
	require.NoError(t, err)

	require.Len(t, receipts, 2)
	assert.Equal(t, "a.chain", receipts[0].Program)
	assert.Equal(t, "b.chain", receipts[1].Program)
	assert.Equal(t, uint64(2_000_000), receipts[1].FeePaid)
}

func TestRecord_DuplicateID(t *testing.T) {
	j := openTestJournal(t)
	ctx := context.Background()

	receipt := domain.NewReceipt("run-1", "a.chain", "deploy1a", "testnet", "http://localhost:3030", 1)
	require.NoError(t, j.Record(ctx, receipt))
	assert.Error(t, j.Record(ctx, receipt))
}

func TestNoOpJournal(t *testing.T) {
	j := NewNoOpJournal()
	assert.NoError(t, j.Record(context.Background(), domain.Receipt{}))
	assert.NoError(t, j.Close())
}
