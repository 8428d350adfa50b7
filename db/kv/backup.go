package kv

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	bolt "go.etcd.io/bbolt"
)

const backupsDirectoryName = "backups"

// Backup the database to the datadir backup directory.
// Example for backup: $DATADIR/backups/threshbridge_bridgedb_10291092.backup
func (s *Store) Backup(ctx context.Context) error {
	backupsDir := path.Join(filepath.Dir(s.databasePath), backupsDirectoryName)
	if err := os.MkdirAll(backupsDir, 0700); err != nil {
		return err
	}
	backupPath := path.Join(backupsDir, fmt.Sprintf("threshbridge_bridgedb_%d.backup", time.Now().Unix()))

	copyDB, err := bolt.Open(backupPath, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return err
	}
	defer func() {
		if err := copyDB.Close(); err != nil {
			log.WithError(err).Error("Failed to close backup database")
		}
	}()

	if err := s.db.View(func(tx *bolt.Tx) error {
		return tx.ForEach(func(name []byte, b *bolt.Bucket) error {
			log.Debugf("Copying bucket %s", name)
			return copyDB.Update(func(tx2 *bolt.Tx) error {
				b2, err := tx2.CreateBucketIfNotExists(name)
				if err != nil {
					return err
				}
				return b.ForEach(b2.Put)
			})
		})
	}); err != nil {
		return err
	}

	size, err := s.Size()
	if err != nil {
		return err
	}
	log.WithField("backup", backupPath).
		WithField("size", humanize.Bytes(uint64(size))).
		Info("Wrote backup database")
	return nil
}
