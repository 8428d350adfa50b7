package kv

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"github.com/thresholdlabs/threshbridge/bridge/types"
	bolt "go.etcd.io/bbolt"
)

// Validator accepts a validator address and returns the corresponding record.
// Returns nil if the validator does not exist.
func (s *Store) Validator(ctx context.Context, addr common.Address) (*types.Validator, error) {
	var validator *types.Validator
	err := s.view(func(tx *bolt.Tx) error {
		enc := tx.Bucket(validatorsBucket).Get(addr.Bytes())
		if enc == nil {
			return nil
		}
		validator = &types.Validator{}
		return decode(enc, validator)
	})
	return validator, err
}

// SaveValidator writes a validator record to disk, keyed by address.
func (s *Store) SaveValidator(ctx context.Context, v *types.Validator) error {
	enc, err := encode(v)
	if err != nil {
		return err
	}
	return s.update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(validatorsBucket)
		if err := bucket.Put(v.Address.Bytes(), enc); err != nil {
			return errors.Wrap(err, "failed to save validator record")
		}
		return nil
	})
}

// Validators returns every validator record ever registered, active or not.
func (s *Store) Validators(ctx context.Context) ([]*types.Validator, error) {
	var validators []*types.Validator
	err := s.view(func(tx *bolt.Tx) error {
		return tx.Bucket(validatorsBucket).ForEach(func(_, enc []byte) error {
			v := &types.Validator{}
			if err := decode(enc, v); err != nil {
				return err
			}
			validators = append(validators, v)
			return nil
		})
	})
	return validators, err
}
