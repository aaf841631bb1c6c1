package treekv

import (
	"bytes"
	"errors"
	"slices"
	"sync"

	"github.com/google/btree"
)

var (
	errStorageClosed = errors.New("storage closed")
	errReadOnlyTx    = errors.New("read-only transaction")
)

type memKV struct {
	key   []byte
	value []byte
}

type memTree = btree.BTreeG[memKV]

func newMemTree() *memTree {
	return btree.NewG(16, func(a, b memKV) bool {
		return bytes.Compare(a.key, b.key) < 0
	})
}

// memStorage keeps every bucket in a copy-on-write B-tree. A transaction
// works on clones of the committed trees; committing a writable one swaps
// its clones in. Writers are serialized by writeSem.
type memStorage struct {
	writeSem chan struct{}

	mu     sync.Mutex
	trees  map[string]*memTree
	closed bool
}

func newMemStorage() storage {
	return &memStorage{
		writeSem: make(chan struct{}, 1),
		trees:    make(map[string]*memTree),
	}
}

func (s *memStorage) snapshot() (map[string]*memTree, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, errStorageClosed
	}
	snap := make(map[string]*memTree, len(s.trees))
	for name, t := range s.trees {
		snap[name] = t.Clone()
	}
	return snap, nil
}

func (s *memStorage) BeginTx(writable bool) (storageTx, error) {
	if writable {
		s.writeSem <- struct{}{}
	}
	trees, err := s.snapshot()
	if err != nil {
		if writable {
			<-s.writeSem
		}
		return nil, err
	}
	return &memTx{s: s, trees: trees, writable: writable}, nil
}

func (s *memStorage) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.trees = nil
	return nil
}

type memTx struct {
	s        *memStorage
	trees    map[string]*memTree
	writable bool
	done     bool
}

func (tx *memTx) finish() {
	if tx.done {
		return
	}
	tx.done = true
	tx.trees = nil
	if tx.writable {
		<-tx.s.writeSem
	}
}

func (tx *memTx) mustBeOpen() {
	if tx.done {
		panic("treekv: mem transaction used after Commit or Rollback")
	}
}

func (tx *memTx) Bucket(name string) storageBucket {
	tx.mustBeOpen()
	if t := tx.trees[name]; t != nil {
		return memBucket{t: t, writable: tx.writable}
	}
	return nil
}

func (tx *memTx) CreateBucket(name string) (storageBucket, error) {
	tx.mustBeOpen()
	if !tx.writable {
		return nil, errReadOnlyTx
	}
	t := tx.trees[name]
	if t == nil {
		t = newMemTree()
		tx.trees[name] = t
	}
	return memBucket{t: t, writable: true}, nil
}

func (tx *memTx) Commit() error {
	if tx.done {
		return errors.New("transaction already finished")
	}
	if !tx.writable {
		return errReadOnlyTx
	}
	defer tx.finish()

	tx.s.mu.Lock()
	defer tx.s.mu.Unlock()
	if tx.s.closed {
		return errStorageClosed
	}
	tx.s.trees = tx.trees
	return nil
}

func (tx *memTx) Rollback() error {
	tx.finish()
	return nil
}

type memBucket struct {
	t        *memTree
	writable bool
}

func (b memBucket) Get(key []byte) []byte {
	if kv, ok := b.t.Get(memKV{key: key}); ok {
		return kv.value
	}
	return nil
}

func (b memBucket) Put(key, value []byte) error {
	switch {
	case !b.writable:
		return errReadOnlyTx
	case len(key) == 0:
		return errors.New("empty key")
	}
	b.t.ReplaceOrInsert(memKV{key: slices.Clone(key), value: slices.Clone(value)})
	return nil
}

func (b memBucket) Delete(key []byte) error {
	if !b.writable {
		return errReadOnlyTx
	}
	b.t.Delete(memKV{key: key})
	return nil
}

func (b memBucket) Cursor() storageCursor {
	return &memCursor{t: b.t}
}

// memCursor remembers the last key it returned and re-descends the tree on
// every step.
type memCursor struct {
	t    *memTree
	last []byte
}

func (c *memCursor) First() ([]byte, []byte) {
	kv, ok := c.t.Min()
	return c.land(kv, ok)
}

func (c *memCursor) Seek(seek []byte) ([]byte, []byte) {
	return c.from(seek, true)
}

func (c *memCursor) Next() ([]byte, []byte) {
	if c.last == nil {
		return nil, nil
	}
	return c.from(c.last, false)
}

func (c *memCursor) from(pivot []byte, inclusive bool) ([]byte, []byte) {
	var found memKV
	var ok bool
	c.t.AscendGreaterOrEqual(memKV{key: pivot}, func(kv memKV) bool {
		if !inclusive && bytes.Equal(kv.key, pivot) {
			return true
		}
		found, ok = kv, true
		return false
	})
	return c.land(found, ok)
}

func (c *memCursor) land(kv memKV, ok bool) ([]byte, []byte) {
	if !ok {
		c.last = nil
		return nil, nil
	}
	c.last = kv.key
	return kv.key, kv.value
}
