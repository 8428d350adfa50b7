package kv

import (
	"context"

	"github.com/pkg/errors"
	"github.com/thresholdlabs/threshbridge/bridge/types"
	"github.com/thresholdlabs/threshbridge/shared/bytesutil"
	bolt "go.etcd.io/bbolt"
)

// AttestationRecord returns the attestation bitmap record for a transaction
// nonce. Returns nil if no validator has touched the transaction yet.
func (s *Store) AttestationRecord(ctx context.Context, nonce uint64) (*types.AttestationRecord, error) {
	var rec *types.AttestationRecord
	err := s.view(func(tx *bolt.Tx) error {
		enc := tx.Bucket(attestationRecordsBucket).Get(bytesutil.Bytes8(nonce))
		if enc == nil {
			return nil
		}
		rec = &types.AttestationRecord{}
		return decode(enc, rec)
	})
	return rec, err
}

// SaveAttestationRecord writes an attestation record to disk, keyed by the
// transaction nonce.
func (s *Store) SaveAttestationRecord(ctx context.Context, rec *types.AttestationRecord) error {
	enc, err := encode(rec)
	if err != nil {
		return err
	}
	return s.update(func(tx *bolt.Tx) error {
		if err := tx.Bucket(attestationRecordsBucket).Put(bytesutil.Bytes8(rec.Nonce), enc); err != nil {
			return errors.Wrap(err, "failed to save attestation record")
		}
		return nil
	})
}
