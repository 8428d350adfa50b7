package kv

import (
	"context"

	"github.com/pkg/errors"
	"github.com/thresholdlabs/threshbridge/bridge/types"
	"github.com/thresholdlabs/threshbridge/shared/bytesutil"
	bolt "go.etcd.io/bbolt"
)

// Transaction accepts a transaction nonce and returns the corresponding
// bridge transaction. Returns nil if the nonce is unknown.
func (s *Store) Transaction(ctx context.Context, nonce uint64) (*types.BridgeTransaction, error) {
	if cached, ok := s.txCache.Get(string(bytesutil.Bytes8(nonce))); ok {
		txCacheHit.Inc()
		tx, ok := cached.(*types.BridgeTransaction)
		if !ok {
			return nil, errors.New("cached value is not of bridge transaction type")
		}
		return tx, nil
	}
	txCacheMiss.Inc()
	var bridgeTx *types.BridgeTransaction
	err := s.view(func(tx *bolt.Tx) error {
		enc := tx.Bucket(transactionsBucket).Get(bytesutil.Bytes8(nonce))
		if enc == nil {
			return nil
		}
		bridgeTx = &types.BridgeTransaction{}
		return decode(enc, bridgeTx)
	})
	return bridgeTx, err
}

// SaveTransaction writes a bridge transaction to disk, keyed by nonce.
func (s *Store) SaveTransaction(ctx context.Context, bridgeTx *types.BridgeTransaction) error {
	enc, err := encode(bridgeTx)
	if err != nil {
		return err
	}
	key := bytesutil.Bytes8(bridgeTx.Nonce)
	if err := s.update(func(tx *bolt.Tx) error {
		if err := tx.Bucket(transactionsBucket).Put(key, enc); err != nil {
			return errors.Wrap(err, "failed to save bridge transaction")
		}
		return nil
	}); err != nil {
		return err
	}
	s.txCache.Set(string(key), bridgeTx, int64(len(enc)))
	return nil
}

// Transactions returns every bridge transaction in nonce order.
func (s *Store) Transactions(ctx context.Context) ([]*types.BridgeTransaction, error) {
	var txs []*types.BridgeTransaction
	err := s.view(func(tx *bolt.Tx) error {
		return tx.Bucket(transactionsBucket).ForEach(func(_, enc []byte) error {
			bridgeTx := &types.BridgeTransaction{}
			if err := decode(enc, bridgeTx); err != nil {
				return err
			}
			txs = append(txs, bridgeTx)
			return nil
		})
	})
	return txs, err
}
