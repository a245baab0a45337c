package orchestrator

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/artpar/chaindeploy/internal/core/domain"
	"github.com/artpar/chaindeploy/internal/core/fee"
	"github.com/artpar/chaindeploy/internal/core/keys"
	"github.com/artpar/chaindeploy/internal/shell/vm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeAssembler records assembly calls and can fail on a chosen unit.
type fakeAssembler struct {
	assembled []string
	failOn    string
}

func (f *fakeAssembler) Assemble(ctx context.Context, unit domain.DeploymentUnit, key keys.PrivateKey, spec fee.Spec) (*vm.Transaction, error) {
	if unit.Name == f.failOn {
		return nil, errors.New("assembly exploded")
	}
	f.assembled = append(f.assembled, unit.Name)
	return vm.NewTransaction(
		vm.Owner{Address: "addr1test"},
		&vm.Deployment{Program: unit.Name, Bytecode: []byte("bc"), ID: vm.DeploymentID("deploy1" + unit.Name)},
		vm.Fee{StateRoot: "sr1"},
	), nil
}

// fakeSink records broadcasts and can fail on a chosen program.
type fakeSink struct {
	broadcast []string
	failOn    string
}

func (f *fakeSink) Broadcast(ctx context.Context, tx *vm.Transaction) (string, error) {
	if tx.Deployment.Program == f.failOn {
		return "", errors.New("network rejected transaction")
	}
	f.broadcast = append(f.broadcast, tx.Deployment.Program)
	return "at1" + tx.Deployment.Program, nil
}

// fakeJournal records receipts and can fail.
type fakeJournal struct {
	receipts []domain.Receipt
	fail     bool
}

func (f *fakeJournal) Record(ctx context.Context, r domain.Receipt) error {
	if f.fail {
		return errors.New("disk full")
	}
	f.receipts = append(f.receipts, r)
	return nil
}

func (f *fakeJournal) Close() error { return nil }

func units(names ...string) []domain.DeploymentUnit {
	out := make([]domain.DeploymentUnit, len(names))
	for i, n := range names {
		out[i] = domain.NewDeploymentUnit(n, "build")
	}
	return out
}

func newTestOrchestrator(a *fakeAssembler, s *fakeSink, j *fakeJournal) (*Orchestrator, *[]time.Duration) {
	var sleeps []time.Duration
	o := New(a, s, nil, nil)
	if j != nil {
		o.journal = j
	}
	o.sleep = func(d time.Duration) { sleeps = append(sleeps, d) }
	return o, &sleeps
}

func testCfg(wait time.Duration, recursive bool) Config {
	return Config{Network: "testnet", Endpoint: "http://localhost:3030", Wait: wait, Recursive: recursive}
}

// =============================================================================
// Sequencing and Pacing Tests
// =============================================================================

func TestRun_BroadcastsInOrderWithPacing(t *testing.T) {
	a := &fakeAssembler{}
	s := &fakeSink{}
	o, sleeps := newTestOrchestrator(a, s, nil)

	err := o.Run(context.Background(), units("a.chain", "b.chain", "c.chain", "p.chain"),
		keys.PrivateKey{}, fee.NewSpec(0, ""), testCfg(time.Second, true))
	require.NoError(t, err)

	assert.Equal(t, []string{"a.chain", "b.chain", "c.chain", "p.chain"}, s.broadcast)
	// Three pauses between four units, none after the last.
	assert.Equal(t, []time.Duration{time.Second, time.Second, time.Second}, *sleeps)
}

func TestRun_SingleUnitNoWait(t *testing.T) {
	o, sleeps := newTestOrchestrator(&fakeAssembler{}, &fakeSink{}, nil)

	err := o.Run(context.Background(), units("p.chain"),
		keys.PrivateKey{}, fee.NewSpec(0, ""), testCfg(12*time.Second, false))
	require.NoError(t, err)
	assert.Empty(t, *sleeps)
}

// =============================================================================
// Mutual Exclusivity Tests
// =============================================================================

func TestRun_PrivateRecordWithRecursiveRejected(t *testing.T) {
	a := &fakeAssembler{}
	s := &fakeSink{}
	o, _ := newTestOrchestrator(a, s, nil)

	err := o.Run(context.Background(), units("a.chain", "p.chain"),
		keys.PrivateKey{}, fee.NewSpec(0, "record1abc"), testCfg(0, true))

	assert.ErrorIs(t, err, ErrIncompatibleOptions)
	assert.Empty(t, a.assembled, "no unit may be assembled")
	assert.Empty(t, s.broadcast, "no broadcast may occur")
}

func TestRun_PrivateRecordSingleUnitAllowed(t *testing.T) {
	s := &fakeSink{}
	o, _ := newTestOrchestrator(&fakeAssembler{}, s, nil)

	err := o.Run(context.Background(), units("p.chain"),
		keys.PrivateKey{}, fee.NewSpec(0, "record1abc"), testCfg(0, false))
	require.NoError(t, err)
	assert.Equal(t, []string{"p.chain"}, s.broadcast)
}

// =============================================================================
// Fail-Fast Tests
// =============================================================================

func TestRun_AssemblyFailureAbortsRun(t *testing.T) {
	a := &fakeAssembler{failOn: "b.chain"}
	s := &fakeSink{}
	o, sleeps := newTestOrchestrator(a, s, nil)

	err := o.Run(context.Background(), units("a.chain", "b.chain", "c.chain"),
		keys.PrivateKey{}, fee.NewSpec(0, ""), testCfg(time.Second, true))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "b.chain")
	// a.chain was already broadcast and stays broadcast; c.chain never starts.
	assert.Equal(t, []string{"a.chain"}, s.broadcast)
	assert.Equal(t, []string{"a.chain"}, a.assembled)
	// Only the pause after a.chain happened.
	assert.Equal(t, []time.Duration{time.Second}, *sleeps)
}

func TestRun_BroadcastFailureAbortsRun(t *testing.T) {
	s := &fakeSink{failOn: "b.chain"}
	o, _ := newTestOrchestrator(&fakeAssembler{}, s, nil)

	err := o.Run(context.Background(), units("a.chain", "b.chain", "c.chain"),
		keys.PrivateKey{}, fee.NewSpec(0, ""), testCfg(0, true))

	require.Error(t, err)
	assert.Equal(t, []string{"a.chain"}, s.broadcast)
}

// =============================================================================
// Journal Tests
// =============================================================================

func TestRun_RecordsReceipts(t *testing.T) {
	j := &fakeJournal{}
	o, _ := newTestOrchestrator(&fakeAssembler{}, &fakeSink{}, j)

	err := o.Run(context.Background(), units("a.chain", "p.chain"),
		keys.PrivateKey{}, fee.NewSpec(0, ""), testCfg(0, true))
	require.NoError(t, err)

	require.Len(t, j.receipts, 2)
	assert.Equal(t, "a.chain", j.receipts[0].Program)
	assert.Equal(t, j.receipts[0].RunID, j.receipts[1].RunID)
	assert.Equal(t, "deploy1a.chain", j.receipts[0].DeploymentID)
}

func TestRun_JournalFailureDoesNotAbort(t *testing.T) {
	j := &fakeJournal{fail: true}
	s := &fakeSink{}
	o, _ := newTestOrchestrator(&fakeAssembler{}, s, j)

	err := o.Run(context.Background(), units("a.chain", "p.chain"),
		keys.PrivateKey{}, fee.NewSpec(0, ""), testCfg(0, true))
	require.NoError(t, err)
	assert.Equal(t, []string{"a.chain", "p.chain"}, s.broadcast)
}
