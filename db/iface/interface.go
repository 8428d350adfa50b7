// Package iface defines the persistent storage interface of the bridge
// node, decoupling services from the concrete kv implementation.
package iface

import (
	"context"
	"io"

	"github.com/ethereum/go-ethereum/common"
	"github.com/thresholdlabs/threshbridge/bridge/types"
)

// Database defines the full bridge store. Every table supports point lookup
// by id and full enumeration for operator tooling.
type Database interface {
	io.Closer

	// Validators.
	Validator(ctx context.Context, addr common.Address) (*types.Validator, error)
	SaveValidator(ctx context.Context, v *types.Validator) error
	Validators(ctx context.Context) ([]*types.Validator, error)

	// Bridge transactions.
	Transaction(ctx context.Context, nonce uint64) (*types.BridgeTransaction, error)
	SaveTransaction(ctx context.Context, tx *types.BridgeTransaction) error
	Transactions(ctx context.Context) ([]*types.BridgeTransaction, error)

	// Attestation records.
	AttestationRecord(ctx context.Context, nonce uint64) (*types.AttestationRecord, error)
	SaveAttestationRecord(ctx context.Context, rec *types.AttestationRecord) error

	// Challenges.
	Challenge(ctx context.Context, id uint64) (*types.Challenge, error)
	SaveChallenge(ctx context.Context, c *types.Challenge) error
	Challenges(ctx context.Context) ([]*types.Challenge, error)

	// Bridge-wide counters.
	ChainData(ctx context.Context) (*types.ChainData, error)
	SaveNextNonce(ctx context.Context, nonce uint64) error
	SaveNextChallengeID(ctx context.Context, id uint64) error

	// Maintenance.
	DatabasePath() string
	ClearDB() error
	Backup(ctx context.Context) error
}
