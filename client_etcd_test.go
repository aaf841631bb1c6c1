package treekv

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"go.etcd.io/etcd/api/v3/etcdserverpb"
	"go.etcd.io/etcd/api/v3/mvccpb"
	clientv3 "go.etcd.io/etcd/client/v3"

	"github.com/andreyvit/treekv/tree"
)

// fakeEtcdKV answers Get from a fixed response and records transactions.
type fakeEtcdKV struct {
	clientv3.KV
	getResp  *clientv3.GetResponse
	gotKey   string
	gotOp    clientv3.Op
	txns     []*fakeEtcdTxn
	txnErr   error
	revision int64
}

func (kv *fakeEtcdKV) Get(ctx context.Context, key string, opts ...clientv3.OpOption) (*clientv3.GetResponse, error) {
	kv.gotKey = key
	kv.gotOp = clientv3.OpGet(key, opts...)
	return kv.getResp, nil
}

func (kv *fakeEtcdKV) Txn(ctx context.Context) clientv3.Txn {
	t := &fakeEtcdTxn{kv: kv}
	kv.txns = append(kv.txns, t)
	return t
}

type fakeEtcdTxn struct {
	kv        *fakeEtcdKV
	thenCalls int
	ops       []clientv3.Op
}

func (t *fakeEtcdTxn) If(cs ...clientv3.Cmp) clientv3.Txn { return t }

func (t *fakeEtcdTxn) Else(ops ...clientv3.Op) clientv3.Txn { return t }

func (t *fakeEtcdTxn) Then(ops ...clientv3.Op) clientv3.Txn {
	t.thenCalls++
	t.ops = append(t.ops, ops...)
	return t
}

func (t *fakeEtcdTxn) Commit() (*clientv3.TxnResponse, error) {
	if t.kv.txnErr != nil {
		return nil, t.kv.txnErr
	}
	t.kv.revision++
	return &clientv3.TxnResponse{
		Header:    &etcdserverpb.ResponseHeader{Revision: t.kv.revision},
		Succeeded: true,
	}, nil
}

func TestEtcdClient_Get(t *testing.T) {
	fake := &fakeEtcdKV{
		getResp: &clientv3.GetResponse{
			Header: &etcdserverpb.ResponseHeader{Revision: 42},
			Kvs: []*mvccpb.KeyValue{
				{Key: []byte{1, 2}, Value: []byte("v"), CreateRevision: 3, ModRevision: 5, Version: 2},
			},
		},
	}
	c := NewEtcdClient(fake)
	defer c.Close()

	resp, err := c.Get(context.Background(), []byte{1}, GetOptions{Prefix: true, KeysOnly: true, Limit: 1})
	require.NoError(t, err)
	require.Equal(t, "\x01", fake.gotKey)
	require.True(t, fake.gotOp.IsKeysOnly())
	require.Equal(t, []byte{2}, fake.gotOp.RangeBytes(), "prefix range end")

	require.Equal(t, int64(42), resp.Header.Revision)
	require.Equal(t, []KeyValue{{Key: []byte{1, 2}, Value: []byte("v"), CreateRevision: 3, ModRevision: 5, Version: 2}}, resp.Kvs)

	_, err = c.Get(context.Background(), []byte{1, 2}, GetOptions{})
	require.NoError(t, err)
	require.False(t, fake.gotOp.IsKeysOnly())
	require.Empty(t, fake.gotOp.RangeBytes())
}

func TestEtcdClient_Txn(t *testing.T) {
	fake := &fakeEtcdKV{revision: 10}
	c := NewEtcdClient(fake)

	resp, err := c.Txn(context.Background()).
		Then(PutOp([]byte("a"), []byte("1"))).
		Then(DeleteOp([]byte("b"))).
		Commit()
	require.NoError(t, err)
	require.True(t, resp.Succeeded)
	require.Equal(t, int64(11), resp.Header.Revision)

	require.Len(t, fake.txns, 1)
	txn := fake.txns[0]
	require.Equal(t, 1, txn.thenCalls, "all ops go into a single Then")
	require.Len(t, txn.ops, 2)
	require.True(t, txn.ops[0].IsPut())
	require.Equal(t, []byte("a"), txn.ops[0].KeyBytes())
	require.Equal(t, []byte("1"), txn.ops[0].ValueBytes())
	require.True(t, txn.ops[1].IsDelete())
	require.Equal(t, []byte("b"), txn.ops[1].KeyBytes())

	_, err = c.Txn(context.Background()).Then(Op{Type: 42, Key: []byte("x")}).Commit()
	require.Error(t, err)
	require.Equal(t, 0, fake.txns[1].thenCalls)

	boom := errors.New("etcdserver: request timed out")
	fake.txnErr = boom
	_, err = c.Txn(context.Background()).Then(PutOp([]byte("a"), nil)).Commit()
	require.ErrorIs(t, err, boom)
}

func TestEtcdClient_Engine(t *testing.T) {
	fake := &fakeEtcdKV{}
	kv := setupWith(t, NewEtcdClient(fake), Options{})

	txn := kv.NewTxn()
	require.NoError(t, txn.Put(rootPath, tree.NewContainer(qRoot)))
	resp, err := txn.Commit(context.Background())
	require.NoError(t, err)
	require.Equal(t, int64(1), resp.Header.Revision)

	value := fake.txns[0].ops[0].ValueBytes()
	fake.getResp = &clientv3.GetResponse{
		Header: &etcdserverpb.ResponseHeader{Revision: 1},
		Kvs:    []*mvccpb.KeyValue{{Key: fake.txns[0].ops[0].KeyBytes(), Value: value}},
	}
	n, ok, err := kv.Get(context.Background(), rootPath)
	require.NoError(t, err)
	require.True(t, ok)
	require.True(t, tree.Equal(n, tree.NewContainer(qRoot)))
}
