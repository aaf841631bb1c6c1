package treekv

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/cespare/xxhash/v2"
	"github.com/vmihailenco/msgpack/v5"
	"go.uber.org/multierr"
)

const (
	dataBucket = "kv"
	metaBucket = "meta"
)

var revisionKey = []byte("revision")

// localClient implements Client on top of an embedded storage. Every
// committed non-empty transaction advances the store revision by one.
type localClient struct {
	st storage
}

// NewMemClient returns a Client keeping everything in memory.
func NewMemClient() Client {
	return &localClient{st: newMemStorage()}
}

// OpenBoltClient returns a Client persisting into a Bolt file at path.
func OpenBoltClient(path string, opt BoltOptions) (Client, error) {
	st, err := openBoltStorage(path, opt)
	if err != nil {
		return nil, err
	}
	return &localClient{st: st}, nil
}

func (c *localClient) Close() error {
	return c.st.Close()
}

// record is the stored form of one value.
type record struct {
	Value     []byte `msgpack:"v"`
	CreateRev int64  `msgpack:"c"`
	ModRev    int64  `msgpack:"m"`
	Version   int64  `msgpack:"n"`
	Sum       uint64 `msgpack:"s"`
}

func encodeRecord(rec *record) ([]byte, error) {
	var buf bytes.Buffer
	enc := msgpack.GetEncoder()
	enc.Reset(&buf)
	enc.UseCompactInts(true)
	err := enc.Encode(rec)
	msgpack.PutEncoder(enc)
	if err != nil {
		return nil, fmt.Errorf("failed to encode record using MsgPack: %w", err)
	}
	return buf.Bytes(), nil
}

func decodeRecord(key, raw []byte) (*record, error) {
	var r bytes.Reader
	r.Reset(raw)
	dec := msgpack.GetDecoder()
	dec.Reset(&r)
	rec := new(record)
	err := dec.Decode(rec)
	msgpack.PutDecoder(dec)
	if err != nil {
		return nil, fmt.Errorf("%w at %x: %v", ErrCorrupted, key, err)
	}
	if xxhash.Sum64(rec.Value) != rec.Sum {
		return nil, fmt.Errorf("%w at %x: checksum mismatch", ErrCorrupted, key)
	}
	return rec, nil
}

func readRevision(tx storageTx) int64 {
	meta := tx.Bucket(metaBucket)
	if meta == nil {
		return 0
	}
	raw := meta.Get(revisionKey)
	if len(raw) != 8 {
		return 0
	}
	return int64(binary.BigEndian.Uint64(raw))
}

func (c *localClient) Get(ctx context.Context, key []byte, opts GetOptions) (resp *GetResponse, err error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(key) == 0 && !opts.Prefix {
		return nil, errors.New("key is not provided")
	}
	tx, err := c.st.BeginTx(false)
	if err != nil {
		return nil, err
	}
	defer func() {
		err = multierr.Append(err, tx.Rollback())
	}()

	resp = &GetResponse{Header: Header{Revision: readRevision(tx)}}
	data := tx.Bucket(dataBucket)
	if data == nil {
		return resp, nil
	}

	if !opts.Prefix {
		raw := data.Get(key)
		if raw == nil {
			return resp, nil
		}
		kv, err := toKeyValue(key, raw, opts.KeysOnly)
		if err != nil {
			return nil, err
		}
		resp.Kvs = append(resp.Kvs, kv)
		return resp, nil
	}

	cur := data.Cursor()
	var k, v []byte
	if len(key) == 0 {
		k, v = cur.First()
	} else {
		k, v = cur.Seek(key)
	}
	for ; k != nil && bytes.HasPrefix(k, key); k, v = cur.Next() {
		if opts.Limit > 0 && int64(len(resp.Kvs)) >= opts.Limit {
			break
		}
		kv, err := toKeyValue(k, v, opts.KeysOnly)
		if err != nil {
			return nil, err
		}
		resp.Kvs = append(resp.Kvs, kv)
	}
	return resp, nil
}

func toKeyValue(key, raw []byte, keysOnly bool) (KeyValue, error) {
	rec, err := decodeRecord(key, raw)
	if err != nil {
		return KeyValue{}, err
	}
	kv := KeyValue{
		Key:            bytes.Clone(key),
		CreateRevision: rec.CreateRev,
		ModRevision:    rec.ModRev,
		Version:        rec.Version,
	}
	if !keysOnly {
		kv.Value = bytes.Clone(rec.Value)
	}
	return kv, nil
}

func (c *localClient) Txn(ctx context.Context) StoreTxn {
	return &localTxn{c: c, ctx: ctx}
}

type localTxn struct {
	c   *localClient
	ctx context.Context
	ops []Op
}

func (t *localTxn) Then(ops ...Op) StoreTxn {
	t.ops = append(t.ops, ops...)
	return t
}

func (t *localTxn) Commit() (resp *TxnResponse, err error) {
	if err := t.ctx.Err(); err != nil {
		return nil, err
	}
	for _, op := range t.ops {
		if len(op.Key) == 0 {
			return nil, errors.New("key is not provided")
		}
		if op.Type != OpPut && op.Type != OpDelete {
			return nil, fmt.Errorf("invalid op type %d", op.Type)
		}
	}

	if len(t.ops) == 0 {
		tx, err := t.c.st.BeginTx(false)
		if err != nil {
			return nil, err
		}
		rev := readRevision(tx)
		return &TxnResponse{Header: Header{Revision: rev}, Succeeded: true}, tx.Rollback()
	}

	tx, err := t.c.st.BeginTx(true)
	if err != nil {
		return nil, err
	}
	defer func() {
		err = multierr.Append(err, tx.Rollback())
	}()
	// the caller may have given up while we waited for the writer lock
	if err := t.ctx.Err(); err != nil {
		return nil, err
	}

	rev := readRevision(tx) + 1
	meta, err := tx.CreateBucket(metaBucket)
	if err != nil {
		return nil, err
	}
	data, err := tx.CreateBucket(dataBucket)
	if err != nil {
		return nil, err
	}

	for _, op := range t.ops {
		switch op.Type {
		case OpPut:
			rec := &record{
				Value:     op.Value,
				CreateRev: rev,
				ModRev:    rev,
				Version:   1,
				Sum:       xxhash.Sum64(op.Value),
			}
			if old := data.Get(op.Key); old != nil {
				prev, err := decodeRecord(op.Key, old)
				if err != nil {
					return nil, err
				}
				rec.CreateRev = prev.CreateRev
				rec.Version = prev.Version + 1
			}
			raw, err := encodeRecord(rec)
			if err != nil {
				return nil, err
			}
			if err := data.Put(op.Key, raw); err != nil {
				return nil, err
			}
		case OpDelete:
			if err := data.Delete(op.Key); err != nil {
				return nil, err
			}
		}
	}

	var revBuf [8]byte
	binary.BigEndian.PutUint64(revBuf[:], uint64(rev))
	if err := meta.Put(revisionKey, revBuf[:]); err != nil {
		return nil, err
	}
	if err := t.ctx.Err(); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return &TxnResponse{Header: Header{Revision: rev}, Succeeded: true}, nil
}
