// Package db defines a persistent backend for the bridge node.
package db

import (
	"github.com/thresholdlabs/threshbridge/db/iface"
	"github.com/thresholdlabs/threshbridge/db/kv"
)

// Database defines the necessary methods for the bridge node backend.
type Database = iface.Database

// NewDB initializes a new database at the directory path specified.
func NewDB(dirPath string, cfg *kv.Config) (Database, error) {
	return kv.NewKVStore(dirPath, cfg)
}
