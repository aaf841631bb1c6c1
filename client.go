package treekv

import (
	"context"
)

// Client is the key-value store the tree is persisted into. Implementations
// must apply the ops of one committed StoreTxn atomically and report a
// monotonic revision in every response header.
type Client interface {
	// Get returns the entry at key, or all entries whose key starts with key
	// when opts.Prefix is set, in ascending key order.
	Get(ctx context.Context, key []byte, opts GetOptions) (*GetResponse, error)
	// Txn starts a store transaction bound to ctx.
	Txn(ctx context.Context) StoreTxn
	Close() error
}

// StoreTxn collects ops and commits them as one atomic batch.
type StoreTxn interface {
	Then(ops ...Op) StoreTxn
	Commit() (*TxnResponse, error)
}

type GetOptions struct {
	Prefix   bool
	KeysOnly bool
	Limit    int64
}

type Header struct {
	Revision int64
}

type KeyValue struct {
	Key            []byte
	Value          []byte
	CreateRevision int64
	ModRevision    int64
	Version        int64
}

type GetResponse struct {
	Header Header
	Kvs    []KeyValue
}

type TxnResponse struct {
	Header    Header
	Succeeded bool
}

type OpType int

const (
	OpPut OpType = iota + 1
	OpDelete
)

func (t OpType) String() string {
	switch t {
	case OpPut:
		return "put"
	case OpDelete:
		return "delete"
	default:
		return "invalid"
	}
}

// Op is one write inside a StoreTxn.
type Op struct {
	Type  OpType
	Key   []byte
	Value []byte
}

func PutOp(key, value []byte) Op {
	return Op{Type: OpPut, Key: key, Value: value}
}

func DeleteOp(key []byte) Op {
	return Op{Type: OpDelete, Key: key}
}
