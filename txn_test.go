package treekv

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/andreyvit/treekv/stream"
	"github.com/andreyvit/treekv/tree"
)

func TestTxn_States(t *testing.T) {
	kv := setup(t)
	txn := kv.NewTxn()
	require.Equal(t, TxnEmpty, txn.State())
	require.NoError(t, txn.Put(rootPath, tree.NewContainer(qRoot)))
	require.Equal(t, TxnAccumulating, txn.State())
	require.NoError(t, txn.Delete(childPath))
	require.Equal(t, 2, txn.Len())

	_, err := txn.Commit(context.Background())
	require.NoError(t, err)
	require.Equal(t, TxnCommitted, txn.State())
	require.Equal(t, "committed", txn.State().String())
}

func TestTxn_AllOrNothing(t *testing.T) {
	ctx := context.Background()
	mem := NewMemClient()
	kv := setupWith(t, mem, Options{})
	put(t, kv, rootPath, tree.NewContainer(qRoot))

	a := rootPath.Append(tree.NodeID{Name: qChild})
	b := rootPath.Append(tree.NodeID{Name: qID})
	c := rootPath.Append(tree.NodeID{Name: qList})
	nodes := map[string]tree.Node{
		a.String(): tree.NewLeaf(qChild, "a"),
		b.String(): tree.NewLeaf(qID, "b"),
		c.String(): tree.NewLeaf(qList, "c"),
	}
	paths := []tree.Path{a, b, c}

	// rejected commit leaves nothing behind
	rejecting := setupWith(t, &stubClient{
		Client: mem,
		commit: func(ctx context.Context, ops []Op) (*TxnResponse, error) {
			return &TxnResponse{Succeeded: false}, nil
		},
	}, Options{})
	txn := rejecting.NewTxn()
	for _, p := range paths {
		require.NoError(t, txn.Put(p, nodes[p.String()]))
	}
	_, err := txn.Commit(ctx)
	var se *StoreError
	require.ErrorAs(t, err, &se)
	require.Equal(t, TxnFailed, txn.State())
	for _, p := range paths {
		_, ok, err := kv.Get(ctx, p)
		require.NoError(t, err)
		require.False(t, ok, "%v visible after a rejected commit", p)
	}

	// successful commit makes everything visible to point reads and replays
	txn = kv.NewTxn()
	for _, p := range paths {
		require.NoError(t, txn.Put(p, nodes[p.String()]))
	}
	resp, err := txn.Commit(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(2), resp.Header.Revision)
	for _, p := range paths {
		n, ok, err := kv.Get(ctx, p)
		require.NoError(t, err)
		require.True(t, ok)
		require.True(t, tree.Equal(n, nodes[p.String()]))
	}
	sink := &recordingSink{}
	_, err = kv.ReadAllInto(ctx, sink)
	require.NoError(t, err)
	require.Len(t, sink.writes, 4)

	// deletes are batched too
	txn = kv.NewTxn()
	require.NoError(t, txn.Delete(a))
	require.NoError(t, txn.Delete(b))
	_, err = txn.Commit(ctx)
	require.NoError(t, err)
	_, ok, err := kv.Get(ctx, a)
	require.NoError(t, err)
	require.False(t, ok)
	_, ok, err = kv.Get(ctx, c)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestTxn_StoreFailure(t *testing.T) {
	down := errors.New("connection reset")
	var submitted []Op
	kv := setupWith(t, &stubClient{
		Client: NewMemClient(),
		commit: func(ctx context.Context, ops []Op) (*TxnResponse, error) {
			submitted = ops
			return nil, down
		},
	}, Options{})
	txn := kv.NewTxn()
	require.NoError(t, txn.Put(rootPath, tree.NewContainer(qRoot)))
	require.NoError(t, txn.Delete(childPath))
	_, err := txn.Commit(context.Background())
	require.ErrorIs(t, err, down)
	var se *StoreError
	require.ErrorAs(t, err, &se)
	require.Equal(t, TxnFailed, txn.State())

	require.Len(t, submitted, 2)
	require.Equal(t, OpPut, submitted[0].Type)
	require.Equal(t, OpDelete, submitted[1].Type)
	wantKey, err := kv.Keys().StoreKey(childPath)
	require.NoError(t, err)
	require.Equal(t, wantKey, submitted[1].Key)
}

func TestTxn_Timeout(t *testing.T) {
	release := make(chan struct{})
	defer close(release)
	kv := setupWith(t, &stubClient{
		Client: NewMemClient(),
		commit: func(ctx context.Context, ops []Op) (*TxnResponse, error) {
			<-release
			return &TxnResponse{Succeeded: true}, nil
		},
	}, Options{Timeout: 20 * time.Millisecond})

	txn := kv.NewTxn()
	require.NoError(t, txn.Put(rootPath, tree.NewContainer(qRoot)))
	start := time.Now()
	_, err := txn.Commit(context.Background())
	require.Less(t, time.Since(start), 5*time.Second)
	var te *TimeoutError
	require.ErrorAs(t, err, &te)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	require.Equal(t, TxnFailed, txn.State())
}

func TestTxn_TimeoutWaitingForWriter(t *testing.T) {
	client := NewMemClient().(*localClient)
	kv := setupWith(t, client, Options{Timeout: 30 * time.Millisecond})
	sem := client.st.(*memStorage).writeSem

	sem <- struct{}{} // another writer holds the lock past the deadline
	txn := kv.NewTxn()
	require.NoError(t, txn.Put(rootPath, tree.NewContainer(qRoot)))
	_, err := txn.Commit(context.Background())
	var te *TimeoutError
	require.ErrorAs(t, err, &te)
	require.Equal(t, TxnFailed, txn.State())
	<-sem

	// the abandoned store call must not land once the lock frees up
	require.Never(t, func() bool {
		_, ok, err := kv.Get(context.Background(), rootPath)
		return err != nil || ok
	}, 200*time.Millisecond, 10*time.Millisecond)

	// and it must have released the lock
	txn = kv.NewTxn()
	require.NoError(t, txn.Put(childPath, tree.NewLeaf(qChild, "v")))
	_, err = txn.Commit(context.Background())
	require.NoError(t, err)
}

func TestTxn_TerminalRejection(t *testing.T) {
	ctx := context.Background()

	check := func(t *testing.T, kv *KV, txn *Txn, state TxnState) {
		n := txn.Len()
		require.ErrorIs(t, txn.Put(childPath, tree.NewLeaf(qChild, "late")), ErrTxnClosed)
		require.ErrorIs(t, txn.Delete(rootPath), ErrTxnClosed)
		_, err := txn.Commit(ctx)
		require.ErrorIs(t, err, ErrTxnClosed)
		require.Equal(t, n, txn.Len())
		require.Equal(t, state, txn.State())
		txn.Discard()
		require.Equal(t, state, txn.State())

		_, ok, err := kv.Get(ctx, childPath)
		require.NoError(t, err)
		require.False(t, ok)
	}

	t.Run("committed", func(t *testing.T) {
		kv := setup(t)
		txn := kv.NewTxn()
		require.NoError(t, txn.Put(rootPath, tree.NewContainer(qRoot)))
		_, err := txn.Commit(ctx)
		require.NoError(t, err)
		check(t, kv, txn, TxnCommitted)
		rev, err := kv.ServerRevision(ctx)
		require.NoError(t, err)
		require.Equal(t, int64(1), rev)
	})

	t.Run("failed", func(t *testing.T) {
		kv := setupWith(t, &stubClient{
			Client: NewMemClient(),
			commit: func(ctx context.Context, ops []Op) (*TxnResponse, error) {
				return nil, errors.New("nope")
			},
		}, Options{})
		txn := kv.NewTxn()
		require.NoError(t, txn.Put(rootPath, tree.NewContainer(qRoot)))
		_, err := txn.Commit(ctx)
		require.Error(t, err)
		check(t, kv, txn, TxnFailed)
	})

	t.Run("discarded", func(t *testing.T) {
		kv := setup(t)
		txn := kv.NewTxn()
		require.NoError(t, txn.Put(rootPath, tree.NewContainer(qRoot)))
		txn.Discard()
		check(t, kv, txn, TxnFailed)
		_, ok, err := kv.Get(ctx, rootPath)
		require.NoError(t, err)
		require.False(t, ok)
	})
}

func TestTxn_EncodeErrorKeepsOps(t *testing.T) {
	kv := setup(t)
	txn := kv.NewTxn()
	require.NoError(t, txn.Put(rootPath, tree.NewContainer(qRoot)))

	err := txn.Put(childPath, tree.NewLeaf(qChild, 3.14))
	var ee *stream.EncodeError
	require.ErrorAs(t, err, &ee)

	badPath := tree.NewPath(tree.NodeWithKeys{Name: qList, Keys: []tree.Key{{Name: qID, Value: 1}}})
	require.ErrorAs(t, txn.Delete(badPath), &ee)

	require.Equal(t, 1, txn.Len())
	require.Equal(t, TxnAccumulating, txn.State())
	_, err = txn.Commit(context.Background())
	require.NoError(t, err)
}

func TestTxn_EmptyCommit(t *testing.T) {
	kv := setup(t)
	put(t, kv, rootPath, tree.NewContainer(qRoot))

	txn := kv.NewTxn()
	resp, err := txn.Commit(context.Background())
	require.NoError(t, err)
	require.True(t, resp.Succeeded)
	require.Equal(t, int64(1), resp.Header.Revision)
	require.Equal(t, TxnCommitted, txn.State())
}

func TestTxn_PutReplaces(t *testing.T) {
	kv := setup(t)
	ctx := context.Background()
	put(t, kv, rootPath, tree.NewContainer(qRoot, tree.NewLeaf(qChild, "old"), tree.NewLeaf(qID, "kept?")))
	put(t, kv, rootPath, tree.NewContainer(qRoot, tree.NewLeaf(qChild, "new")))

	n, ok, err := kv.Get(ctx, rootPath)
	require.NoError(t, err)
	require.True(t, ok)
	require.True(t, tree.Equal(n, tree.NewContainer(qRoot, tree.NewLeaf(qChild, "new"))))
}
