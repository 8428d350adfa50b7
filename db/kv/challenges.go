package kv

import (
	"context"

	"github.com/pkg/errors"
	"github.com/thresholdlabs/threshbridge/bridge/types"
	"github.com/thresholdlabs/threshbridge/shared/bytesutil"
	bolt "go.etcd.io/bbolt"
)

// Challenge accepts a challenge id and returns the corresponding record.
// Returns nil if the id is unknown.
func (s *Store) Challenge(ctx context.Context, id uint64) (*types.Challenge, error) {
	var challenge *types.Challenge
	err := s.view(func(tx *bolt.Tx) error {
		enc := tx.Bucket(challengesBucket).Get(bytesutil.Bytes8(id))
		if enc == nil {
			return nil
		}
		challenge = &types.Challenge{}
		return decode(enc, challenge)
	})
	return challenge, err
}

// SaveChallenge writes a challenge record to disk, keyed by id.
func (s *Store) SaveChallenge(ctx context.Context, c *types.Challenge) error {
	enc, err := encode(c)
	if err != nil {
		return err
	}
	return s.update(func(tx *bolt.Tx) error {
		if err := tx.Bucket(challengesBucket).Put(bytesutil.Bytes8(c.ID), enc); err != nil {
			return errors.Wrap(err, "failed to save challenge record")
		}
		return nil
	})
}

// Challenges returns every challenge in id order.
func (s *Store) Challenges(ctx context.Context) ([]*types.Challenge, error) {
	var challenges []*types.Challenge
	err := s.view(func(tx *bolt.Tx) error {
		return tx.Bucket(challengesBucket).ForEach(func(_, enc []byte) error {
			c := &types.Challenge{}
			if err := decode(enc, c); err != nil {
				return err
			}
			challenges = append(challenges, c)
			return nil
		})
	})
	return challenges, err
}
