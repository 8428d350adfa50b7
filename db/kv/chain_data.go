package kv

import (
	"context"

	"github.com/pkg/errors"
	"github.com/thresholdlabs/threshbridge/bridge/types"
	bolt "go.etcd.io/bbolt"
)

// ChainData returns the bridge-wide counters, or a zeroed record if none
// has been persisted yet.
func (s *Store) ChainData(ctx context.Context) (*types.ChainData, error) {
	cd := &types.ChainData{}
	err := s.view(func(tx *bolt.Tx) error {
		enc := tx.Bucket(chainDataBucket).Get(chainDataKey)
		if enc == nil {
			return nil
		}
		return decode(enc, cd)
	})
	return cd, err
}

// SaveNextNonce persists the transaction nonce counter. The read-modify-
// write runs inside one bolt transaction so concurrent counter updates
// cannot clobber each other.
func (s *Store) SaveNextNonce(ctx context.Context, nonce uint64) error {
	return s.updateChainData(func(cd *types.ChainData) {
		cd.NextNonce = nonce
	})
}

// SaveNextChallengeID persists the challenge id counter.
func (s *Store) SaveNextChallengeID(ctx context.Context, id uint64) error {
	return s.updateChainData(func(cd *types.ChainData) {
		cd.NextChallengeID = id
	})
}

func (s *Store) updateChainData(apply func(*types.ChainData)) error {
	return s.update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(chainDataBucket)
		cd := &types.ChainData{}
		if enc := bucket.Get(chainDataKey); enc != nil {
			if err := decode(enc, cd); err != nil {
				return err
			}
		}
		apply(cd)
		enc, err := encode(cd)
		if err != nil {
			return err
		}
		if err := bucket.Put(chainDataKey, enc); err != nil {
			return errors.Wrap(err, "failed to save chain data")
		}
		return nil
	})
}
