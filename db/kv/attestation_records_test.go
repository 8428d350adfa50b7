package kv

import (
	"context"
	"testing"

	"github.com/prysmaticlabs/go-bitfield"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thresholdlabs/threshbridge/bridge/types"
)

func TestNilDBAttestationRecord(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()

	rec, err := db.AttestationRecord(ctx, 42)
	require.NoError(t, err)
	assert.Nil(t, rec)
}

func TestSaveAttestationRecord(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()

	attested := bitfield.NewBitlist(21)
	attested.SetBitAt(0, true)
	attested.SetBitAt(2, true)
	rec := &types.AttestationRecord{
		Nonce:     5,
		Attested:  attested,
		FailVotes: bitfield.NewBitlist(21),
		Slots: map[string]uint64{
			"0xA11cE00000000000000000000000000000000001": 0,
			"0xB0B0000000000000000000000000000000000002": 2,
		},
		NextSlot: 3,
	}
	require.NoError(t, db.SaveAttestationRecord(ctx, rec))

	got, err := db.AttestationRecord(ctx, 5)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, uint64(2), got.Attested.Count())
	assert.Equal(t, uint64(0), got.FailVotes.Count())
	assert.Equal(t, rec.Slots, got.Slots)
	assert.Equal(t, uint64(3), got.NextSlot)
	assert.True(t, got.Attested.BitAt(2))
	assert.False(t, got.Attested.BitAt(1))
}
