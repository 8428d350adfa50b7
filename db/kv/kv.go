// Package kv implements the bridge store on BoltDB with a bucket per
// record table.
package kv

import (
	"os"
	"path"
	"time"

	"github.com/dgraph-io/ristretto"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	bolt "go.etcd.io/bbolt"
)

var log = logrus.WithField("prefix", "db")

var databaseFileName = "bridge.db"

// Store defines an implementation of the bridge Database interface
// using BoltDB as the underlying persistent kv-store.
type Store struct {
	db           *bolt.DB
	databasePath string
	txCache      *ristretto.Cache
}

// Config options for the bridge db.
type Config struct {
	CacheItems   int64
	MaxCacheSize int64
}

// Close closes the underlying boltdb database.
func (s *Store) Close() error {
	s.txCache.Clear()
	return s.db.Close()
}

func (s *Store) update(fn func(*bolt.Tx) error) error {
	return s.db.Update(fn)
}

func (s *Store) view(fn func(*bolt.Tx) error) error {
	return s.db.View(fn)
}

// ClearDB removes any previously stored data at the configured data directory.
func (s *Store) ClearDB() error {
	if _, err := os.Stat(s.databasePath); os.IsNotExist(err) {
		return nil
	}
	s.txCache.Clear()
	return os.Remove(s.databasePath)
}

// DatabasePath at which this database writes files.
func (s *Store) DatabasePath() string {
	return s.databasePath
}

func createBuckets(tx *bolt.Tx, buckets ...[]byte) error {
	for _, bucket := range buckets {
		if _, err := tx.CreateBucketIfNotExists(bucket); err != nil {
			return err
		}
	}
	return nil
}

// NewKVStore initializes a new boltDB key-value store at the directory
// path specified, creates the kv-buckets based on the schema, and stores
// an open connection db object as a property of the Store struct.
func NewKVStore(dirPath string, cfg *Config) (*Store, error) {
	if err := os.MkdirAll(dirPath, 0700); err != nil {
		return nil, err
	}
	datafile := path.Join(dirPath, databaseFileName)
	boltDB, err := bolt.Open(datafile, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		if err == bolt.ErrTimeout {
			return nil, errors.New("cannot obtain database lock, database may be in use by another process")
		}
		return nil, err
	}
	if cfg.CacheItems == 0 {
		cfg.CacheItems = 10000
	}
	if cfg.MaxCacheSize == 0 {
		cfg.MaxCacheSize = 1 << 28 // 256MB
	}
	kv := &Store{db: boltDB, databasePath: datafile}
	txCache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: cfg.CacheItems,
		MaxCost:     cfg.MaxCacheSize,
		BufferItems: 64,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to start transaction cache")
	}
	kv.txCache = txCache

	if err := kv.db.Update(func(tx *bolt.Tx) error {
		return createBuckets(
			tx,
			validatorsBucket,
			transactionsBucket,
			attestationRecordsBucket,
			challengesBucket,
			chainDataBucket,
		)
	}); err != nil {
		return nil, err
	}
	return kv, err
}

// Size returns the db size in bytes.
func (s *Store) Size() (int64, error) {
	var size int64
	err := s.db.View(func(tx *bolt.Tx) error {
		size = tx.Size()
		return nil
	})
	return size, err
}
