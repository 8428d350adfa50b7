package attestations_test

import (
	"context"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thresholdlabs/threshbridge/bridge/attestations"
	"github.com/thresholdlabs/threshbridge/bridge/types"
	"github.com/thresholdlabs/threshbridge/db/kv"
	"github.com/thresholdlabs/threshbridge/shared/params"
)

var (
	user       = common.HexToAddress("0x00000000000000000000000000000000000000aa")
	validator1 = common.HexToAddress("0x0000000000000000000000000000000000000001")
	validator2 = common.HexToAddress("0x0000000000000000000000000000000000000002")
	validator3 = common.HexToAddress("0x0000000000000000000000000000000000000003")
)

func setupLedger(t *testing.T) (*attestations.Ledger, *kv.Store) {
	prev := params.BridgeConfig()
	t.Cleanup(func() { params.OverrideBridgeConfig(prev) })
	params.UseMinimalConfig()

	store, err := kv.NewKVStore(t.TempDir(), &kv.Config{})
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, store.Close()) })

	ledger, err := attestations.NewLedger(context.Background(), store)
	require.NoError(t, err)
	return ledger, store
}

func TestRecordAttestation(t *testing.T) {
	ledger, _ := setupLedger(t)

	require.NoError(t, ledger.RecordAttestation(1, validator1))
	require.NoError(t, ledger.RecordAttestation(1, validator2))

	assert.Equal(t, uint64(2), ledger.Count(1))
	assert.Equal(t, uint64(0), ledger.FailVoteCount(1))
	assert.True(t, ledger.HasAttested(1, validator1))
	assert.False(t, ledger.HasAttested(1, validator3))
	assert.False(t, ledger.HasAttested(2, validator1))

	attesters, err := ledger.Attesters(1)
	require.NoError(t, err)
	assert.ElementsMatch(t, []common.Address{validator1, validator2}, attesters)
}

func TestRecordAttestationDuplicate(t *testing.T) {
	ledger, _ := setupLedger(t)

	require.NoError(t, ledger.RecordAttestation(1, validator1))
	err := ledger.RecordAttestation(1, validator1)
	assert.Equal(t, types.ErrDuplicateAttestation, err)
	assert.Equal(t, uint64(1), ledger.Count(1))
}

func TestOneVotePerValidatorAcrossBitmaps(t *testing.T) {
	ledger, _ := setupLedger(t)

	require.NoError(t, ledger.RecordAttestation(1, validator1))
	err := ledger.RecordFailVote(1, validator1)
	assert.Equal(t, types.ErrDuplicateAttestation, err, "an attester cannot also fail-vote")

	require.NoError(t, ledger.RecordFailVote(1, validator2))
	err = ledger.RecordAttestation(1, validator2)
	assert.Equal(t, types.ErrDuplicateAttestation, err, "a fail voter cannot also attest")

	assert.Equal(t, uint64(1), ledger.Count(1))
	assert.Equal(t, uint64(1), ledger.FailVoteCount(1))

	failVoters, err := ledger.FailVoters(1)
	require.NoError(t, err)
	assert.ElementsMatch(t, []common.Address{validator2}, failVoters)
}

func TestVotesIsolatedPerTransaction(t *testing.T) {
	ledger, _ := setupLedger(t)

	require.NoError(t, ledger.RecordAttestation(1, validator1))
	require.NoError(t, ledger.RecordAttestation(2, validator1))
	require.NoError(t, ledger.RecordFailVote(3, validator1))

	assert.Equal(t, uint64(1), ledger.Count(1))
	assert.Equal(t, uint64(1), ledger.Count(2))
	assert.Equal(t, uint64(1), ledger.FailVoteCount(3))
}

func TestLedgerRestoresFromDatabase(t *testing.T) {
	ledger, store := setupLedger(t)

	require.NoError(t, ledger.RecordAttestation(1, validator1))
	require.NoError(t, ledger.RecordAttestation(1, validator2))

	restored, err := attestations.NewLedger(context.Background(), store)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), restored.Count(1))
	assert.True(t, restored.HasAttested(1, validator1))

	// A restarted node must still reject the duplicate.
	err = restored.RecordAttestation(1, validator1)
	assert.Equal(t, types.ErrDuplicateAttestation, err)
}

func TestRecordAttestationCapacity(t *testing.T) {
	prev := params.BridgeConfig()
	t.Cleanup(func() { params.OverrideBridgeConfig(prev) })
	cfg := *params.MinimalSpecConfig()
	cfg.MaxActiveValidators = 2
	params.OverrideBridgeConfig(&cfg)

	store, err := kv.NewKVStore(t.TempDir(), &kv.Config{})
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, store.Close()) })
	ledger, err := attestations.NewLedger(context.Background(), store)
	require.NoError(t, err)

	require.NoError(t, ledger.RecordAttestation(1, validator1))
	require.NoError(t, ledger.RecordAttestation(1, validator2))
	err = ledger.RecordAttestation(1, validator3)
	assert.Equal(t, types.ErrCapacityExceeded, err)
}
