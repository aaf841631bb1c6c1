package treekv

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.etcd.io/bbolt"
)

type BoltOptions struct {
	// Timeout bounds waiting for the file lock held by another process.
	Timeout time.Duration
	// NoSync skips fsync after commits. Only for tests.
	NoSync   bool
	MmapSize int
}

func (o BoltOptions) bolt() *bbolt.Options {
	bo := *bbolt.DefaultOptions
	bo.Timeout = 10 * time.Second
	if o.Timeout > 0 {
		bo.Timeout = o.Timeout
	}
	bo.InitialMmapSize = o.MmapSize
	bo.NoSync, bo.NoFreelistSync = o.NoSync, o.NoSync
	if !o.NoSync {
		bo.FreelistType = bbolt.FreelistMapType
	}
	return &bo
}

// boltStorage adapts a Bolt file to storage. Bolt itself provides the
// single-writer, snapshot-reader semantics.
type boltStorage struct {
	*bbolt.DB
}

func openBoltStorage(path string, opt BoltOptions) (storage, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("treekv: bolt dir: %w", err)
	}
	db, err := bbolt.Open(path, 0o600, opt.bolt())
	if err != nil {
		return nil, fmt.Errorf("treekv: open %s: %w", path, err)
	}
	return boltStorage{db}, nil
}

func (s boltStorage) BeginTx(writable bool) (storageTx, error) {
	tx, err := s.Begin(writable)
	if err != nil {
		return nil, err
	}
	return boltTx{tx}, nil
}

type boltTx struct {
	*bbolt.Tx
}

func (tx boltTx) Bucket(name string) storageBucket {
	if b := tx.Tx.Bucket([]byte(name)); b != nil {
		return boltBucket{b}
	}
	return nil
}

func (tx boltTx) CreateBucket(name string) (storageBucket, error) {
	b, err := tx.CreateBucketIfNotExists([]byte(name))
	if err != nil {
		return nil, err
	}
	return boltBucket{b}, nil
}

func (tx boltTx) Rollback() error {
	if err := tx.Tx.Rollback(); !errors.Is(err, bbolt.ErrTxClosed) {
		return err
	}
	return nil
}

type boltBucket struct {
	*bbolt.Bucket
}

func (b boltBucket) Cursor() storageCursor { return b.Bucket.Cursor() }
