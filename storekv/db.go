// Package storekv is the bbolt-backed reference implementation of
// state.Store. It is host-side wiring, not part of the core: the core
// (consensus, state) only ever talks to the state.Store interface, and
// this package is one concrete, swappable implementation of it — one
// bucket per entity kind, a single file per chain.
package storekv

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"
	"go.uber.org/zap"

	"coinjecture.dev/consensus"
	"coinjecture.dev/state"
)

var (
	bucketAccounts  = []byte("accounts_by_address")
	bucketTimeLocks = []byte("timelocks_by_id")
	bucketEscrows   = []byte("escrows_by_id")
	bucketChannels  = []byte("channels_by_id")
)

// DB is a bbolt-backed state.Store. It satisfies state.AccountStore,
// state.AuxiliaryStore, and state.Store's ApplyWrites in one batched
// read-write transaction per block.
type DB struct {
	path string
	db   *bolt.DB
	log  *zap.Logger
}

// ChainDir returns the on-disk directory for a given chain under datadir.
func ChainDir(datadir, chainIDHex string) string {
	return filepath.Join(datadir, "chains", chainIDHex)
}

// Open opens (creating if necessary) the bbolt database for one chain and
// ensures all four buckets exist.
func Open(datadir, chainIDHex string, log *zap.Logger) (*DB, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if datadir == "" {
		return nil, fmt.Errorf("storekv: datadir required")
	}
	if chainIDHex == "" {
		return nil, fmt.Errorf("storekv: chain_id_hex required")
	}

	dir := ChainDir(datadir, chainIDHex)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("storekv: mkdir %s: %w", dir, err)
	}

	path := filepath.Join(dir, "state.db")
	bdb, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("storekv: open bbolt: %w", err)
	}

	if err := bdb.Update(func(tx *bolt.Tx) error {
		for _, b := range [][]byte{bucketAccounts, bucketTimeLocks, bucketEscrows, bucketChannels} {
			if _, err := tx.CreateBucketIfNotExists(b); err != nil {
				return fmt.Errorf("create bucket %s: %w", string(b), err)
			}
		}
		return nil
	}); err != nil {
		_ = bdb.Close()
		return nil, err
	}

	log.Info("storekv: opened chain state db", zap.String("path", path))
	return &DB{path: path, db: bdb, log: log}, nil
}

// Close releases the underlying bbolt file handle.
func (d *DB) Close() error { return d.db.Close() }

var _ state.Store = (*DB)(nil)

func accountKey(addr consensus.Address) []byte { return addr[:] }
func hashKey(h consensus.Hash) []byte          { return h[:] }
