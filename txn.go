package treekv

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/andreyvit/treekv/tree"
)

type TxnState int

const (
	TxnEmpty TxnState = iota
	TxnAccumulating
	TxnCommitted
	TxnFailed
)

func (s TxnState) String() string {
	switch s {
	case TxnEmpty:
		return "empty"
	case TxnAccumulating:
		return "accumulating"
	case TxnCommitted:
		return "committed"
	case TxnFailed:
		return "failed"
	default:
		return fmt.Sprintf("TxnState(%d)", int(s))
	}
}

func (s TxnState) terminal() bool {
	return s == TxnCommitted || s == TxnFailed
}

// Txn collects puts and deletes and commits them as one store transaction.
// A Txn is meant for a single goroutine. Once committed, failed or
// discarded, every method returns ErrTxnClosed.
type Txn struct {
	kv    *KV
	ops   []Op
	state TxnState
}

func (txn *Txn) State() TxnState {
	return txn.state
}

// Len returns the number of operations collected so far.
func (txn *Txn) Len() int {
	return len(txn.ops)
}

// Put replaces whatever is stored at path with node.
func (txn *Txn) Put(path tree.Path, node tree.Node) error {
	if txn.state.terminal() {
		return ErrTxnClosed
	}
	key, err := txn.kv.keys.StoreKey(path)
	if err != nil {
		return err
	}
	value, err := txn.kv.keys.StoreValue(node)
	if err != nil {
		return err
	}
	txn.ops = append(txn.ops, PutOp(key, value))
	txn.state = TxnAccumulating
	txn.kv.logger.Debug("txn put", zap.Stringer("path", path), zap.String("key", hexKey(key)), zap.Int("value_len", len(value)))
	return nil
}

func (txn *Txn) Delete(path tree.Path) error {
	if txn.state.terminal() {
		return ErrTxnClosed
	}
	key, err := txn.kv.keys.StoreKey(path)
	if err != nil {
		return err
	}
	txn.ops = append(txn.ops, DeleteOp(key))
	txn.state = TxnAccumulating
	txn.kv.logger.Debug("txn delete", zap.Stringer("path", path), zap.String("key", hexKey(key)))
	return nil
}

// Commit submits all collected operations as one store transaction. Either
// all of them become visible or none do.
func (txn *Txn) Commit(ctx context.Context) (*TxnResponse, error) {
	if txn.state.terminal() {
		return nil, ErrTxnClosed
	}
	ops := txn.ops
	resp, err := await(ctx, "commit", txn.kv.timeout, func(ctx context.Context) (*TxnResponse, error) {
		return txn.kv.client.Txn(ctx).Then(ops...).Commit()
	})
	if err != nil {
		txn.state = TxnFailed
		txn.kv.logger.Debug("txn commit failed", zap.Int("ops", len(ops)), zap.Error(err))
		var te *TimeoutError
		if errors.As(err, &te) {
			return nil, err
		}
		return nil, storeErr("commit", nil, err)
	}
	if !resp.Succeeded {
		txn.state = TxnFailed
		return nil, storeErr("commit", nil, errors.New("transaction rejected by store"))
	}
	txn.state = TxnCommitted
	txn.kv.logger.Debug("txn committed", zap.Int("ops", len(ops)), zap.Int64("revision", resp.Header.Revision))
	return resp, nil
}

// Discard abandons the transaction without touching the store.
func (txn *Txn) Discard() {
	if !txn.state.terminal() {
		txn.state = TxnFailed
	}
}
