package types_test

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thresholdlabs/threshbridge/bridge/types"
)

func TestErrorKinds(t *testing.T) {
	assert.True(t, types.IsValidation(types.ErrZeroAmount))
	assert.True(t, types.IsAuthorization(types.ErrNotAuthorized))
	assert.True(t, types.IsState(types.ErrAlreadyResolved))
	assert.True(t, types.IsEconomic(types.ErrInsufficientStake))

	assert.False(t, types.IsValidation(types.ErrNotAuthorized))
	assert.False(t, types.IsEconomic(types.ErrZeroAmount))
}

func TestErrorKindSurvivesWrapping(t *testing.T) {
	wrapped := errors.Wrap(types.ErrUnknownTransaction, "could not resolve")
	kind, ok := types.ErrorKind(wrapped)
	require.True(t, ok)
	assert.Equal(t, types.State, kind)
	assert.True(t, types.IsState(wrapped))
}

func TestErrorKindOnForeignError(t *testing.T) {
	_, ok := types.ErrorKind(errors.New("disk on fire"))
	assert.False(t, ok)
	assert.False(t, types.IsValidation(errors.New("disk on fire")))
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "validation", types.Validation.String())
	assert.Equal(t, "authorization", types.Authorization.String())
	assert.Equal(t, "state", types.State.String())
	assert.Equal(t, "economic", types.Economic.String())
}

func TestStatusFinal(t *testing.T) {
	assert.False(t, types.Pending.Final())
	assert.True(t, types.Completed.Final())
	assert.True(t, types.Failed.Final())
	assert.True(t, types.Cancelled.Final())
}

func TestStatusString(t *testing.T) {
	assert.Equal(t, "pending", types.Pending.String())
	assert.Equal(t, "completed", types.Completed.String())
	assert.Equal(t, "failed", types.Failed.String())
	assert.Equal(t, "cancelled", types.Cancelled.String())
}
