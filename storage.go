package treekv

// storage is what the local Client persists into: named buckets of sorted
// byte keys, changed under transactions. A storage admits one writer at a
// time; each reader observes the state as of its BeginTx.
type storage interface {
	BeginTx(writable bool) (storageTx, error)
	Close() error
}

type storageTx interface {
	Bucket(name string) storageBucket // nil when missing
	CreateBucket(name string) (storageBucket, error)
	Commit() error
	Rollback() error // no-op once committed or rolled back
}

// storageBucket hands out slices owned by the transaction; copy them before
// the transaction ends.
type storageBucket interface {
	Get(key []byte) []byte // nil when missing
	Put(key, value []byte) error
	Delete(key []byte) error
	Cursor() storageCursor
}

// storageCursor walks keys in ascending order and reports exhaustion with a
// nil key. Seek lands on the smallest key not below its argument.
type storageCursor interface {
	First() (key, value []byte)
	Seek(seek []byte) (key, value []byte)
	Next() (key, value []byte)
}
