package treekv

import (
	"context"
	"fmt"
	"io"
	"time"

	clientv3 "go.etcd.io/etcd/client/v3"
)

type etcdClient struct {
	kv     clientv3.KV
	closer io.Closer
}

// DialEtcd connects to an etcd cluster. Closing the returned Client closes
// the connection.
func DialEtcd(endpoints []string, dialTimeout time.Duration) (Client, error) {
	cli, err := clientv3.New(clientv3.Config{
		Endpoints:   endpoints,
		DialTimeout: dialTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("treekv: etcd: %w", err)
	}
	return &etcdClient{kv: cli.KV, closer: cli}, nil
}

// NewEtcdClient adapts an etcd KV. The caller keeps ownership of the
// underlying connection; Close is a no-op.
func NewEtcdClient(kv clientv3.KV) Client {
	return &etcdClient{kv: kv}
}

func (c *etcdClient) Close() error {
	if c.closer != nil {
		return c.closer.Close()
	}
	return nil
}

func (c *etcdClient) Get(ctx context.Context, key []byte, opts GetOptions) (*GetResponse, error) {
	var ops []clientv3.OpOption
	if opts.Prefix {
		ops = append(ops, clientv3.WithPrefix())
	}
	if opts.KeysOnly {
		ops = append(ops, clientv3.WithKeysOnly())
	}
	if opts.Limit > 0 {
		ops = append(ops, clientv3.WithLimit(opts.Limit))
	}
	r, err := c.kv.Get(ctx, string(key), ops...)
	if err != nil {
		return nil, err
	}

	resp := &GetResponse{}
	if r.Header != nil {
		resp.Header.Revision = r.Header.Revision
	}
	if len(r.Kvs) > 0 {
		resp.Kvs = make([]KeyValue, 0, len(r.Kvs))
	}
	for _, kv := range r.Kvs {
		resp.Kvs = append(resp.Kvs, KeyValue{
			Key:            kv.Key,
			Value:          kv.Value,
			CreateRevision: kv.CreateRevision,
			ModRevision:    kv.ModRevision,
			Version:        kv.Version,
		})
	}
	return resp, nil
}

func (c *etcdClient) Txn(ctx context.Context) StoreTxn {
	return &etcdTxn{txn: c.kv.Txn(ctx)}
}

// etcdTxn defers the Then call to Commit, since clientv3.Txn accepts a single
// Then.
type etcdTxn struct {
	txn clientv3.Txn
	ops []clientv3.Op
	err error
}

func (t *etcdTxn) Then(ops ...Op) StoreTxn {
	for _, op := range ops {
		switch op.Type {
		case OpPut:
			t.ops = append(t.ops, clientv3.OpPut(string(op.Key), string(op.Value)))
		case OpDelete:
			t.ops = append(t.ops, clientv3.OpDelete(string(op.Key)))
		default:
			t.err = fmt.Errorf("invalid op type %d", op.Type)
		}
	}
	return t
}

func (t *etcdTxn) Commit() (*TxnResponse, error) {
	if t.err != nil {
		return nil, t.err
	}
	r, err := t.txn.Then(t.ops...).Commit()
	if err != nil {
		return nil, err
	}
	resp := &TxnResponse{Succeeded: r.Succeeded}
	if r.Header != nil {
		resp.Header.Revision = r.Header.Revision
	}
	return resp, nil
}
