package treekv

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// NewLoggingClient wraps c so that every store call is logged at debug level.
func NewLoggingClient(c Client, logger *zap.Logger) Client {
	return &loggingClient{Client: c, logger: logger}
}

type loggingClient struct {
	Client
	logger *zap.Logger
}

func (c *loggingClient) Get(ctx context.Context, key []byte, opts GetOptions) (*GetResponse, error) {
	start := time.Now()
	resp, err := c.Client.Get(ctx, key, opts)
	fields := []zap.Field{
		zap.String("key", hexKey(key)),
		zap.Bool("prefix", opts.Prefix),
		zap.Duration("took", time.Since(start)),
	}
	if err != nil {
		c.logger.Debug("store get failed", append(fields, zap.Error(err))...)
		return nil, err
	}
	c.logger.Debug("store get", append(fields, zap.Int("kvs", len(resp.Kvs)), zap.Int64("revision", resp.Header.Revision))...)
	return resp, nil
}

func (c *loggingClient) Txn(ctx context.Context) StoreTxn {
	return &loggingTxn{StoreTxn: c.Client.Txn(ctx), logger: c.logger}
}

type loggingTxn struct {
	StoreTxn
	logger *zap.Logger
	ops    int
}

func (t *loggingTxn) Then(ops ...Op) StoreTxn {
	for _, op := range ops {
		t.logger.Debug("store txn op",
			zap.Stringer("op", op.Type),
			zap.String("key", hexKey(op.Key)),
			zap.Int("value_len", len(op.Value)))
	}
	t.ops += len(ops)
	t.StoreTxn = t.StoreTxn.Then(ops...)
	return t
}

func (t *loggingTxn) Commit() (*TxnResponse, error) {
	start := time.Now()
	resp, err := t.StoreTxn.Commit()
	if err != nil {
		t.logger.Debug("store txn commit failed", zap.Int("ops", t.ops), zap.Duration("took", time.Since(start)), zap.Error(err))
		return nil, err
	}
	t.logger.Debug("store txn commit",
		zap.Int("ops", t.ops),
		zap.Bool("succeeded", resp.Succeeded),
		zap.Int64("revision", resp.Header.Revision),
		zap.Duration("took", time.Since(start)))
	return resp, nil
}
