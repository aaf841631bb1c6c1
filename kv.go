package treekv

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/andreyvit/treekv/tree"
)

// DefaultTimeout bounds every store call unless Options.Timeout says otherwise.
const DefaultTimeout = 300 * time.Millisecond

type Options struct {
	// Name identifies this KV in logs.
	Name string

	// Prefix is the partition byte put in front of every key.
	Prefix byte

	Timeout time.Duration

	Logger *zap.Logger

	// Verbose logs every store call at debug level.
	Verbose bool
}

// KV reads and writes a data tree kept in one partition of a store. It is
// safe for concurrent use.
type KV struct {
	client  Client
	keys    KeyCodec
	timeout time.Duration
	logger  *zap.Logger
}

// New returns a KV on top of client. Closing the KV closes the client.
func New(client Client, opt Options) *KV {
	if opt.Timeout <= 0 {
		opt.Timeout = DefaultTimeout
	}
	if opt.Logger == nil {
		opt.Logger = zap.NewNop()
	}
	logger := opt.Logger
	if opt.Name != "" {
		logger = logger.Named(opt.Name)
	}
	if opt.Verbose {
		client = NewLoggingClient(client, logger.Named("store"))
	}
	return &KV{
		client:  client,
		keys:    KeyCodec{Prefix: opt.Prefix},
		timeout: opt.Timeout,
		logger:  logger,
	}
}

func (kv *KV) Close() error {
	return kv.client.Close()
}

func (kv *KV) Keys() KeyCodec {
	return kv.keys
}

func (kv *KV) Timeout() time.Duration {
	return kv.timeout
}

func (kv *KV) get(ctx context.Context, op string, key []byte, opts GetOptions) (*GetResponse, error) {
	resp, err := await(ctx, op, kv.timeout, func(ctx context.Context) (*GetResponse, error) {
		return kv.client.Get(ctx, key, opts)
	})
	if err != nil {
		var te *TimeoutError
		if errors.As(err, &te) {
			return nil, err
		}
		return nil, storeErr(op, key, err)
	}
	return resp, nil
}

// ServerHeader reads the response header of the store, touching at most one
// key of the partition.
func (kv *KV) ServerHeader(ctx context.Context) (Header, error) {
	resp, err := kv.get(ctx, "header", kv.keys.PrefixKey(), GetOptions{Prefix: true, KeysOnly: true, Limit: 1})
	if err != nil {
		return Header{}, err
	}
	return resp.Header, nil
}

// ServerRevision returns the current revision of the store.
func (kv *KV) ServerRevision(ctx context.Context) (int64, error) {
	h, err := kv.ServerHeader(ctx)
	if err != nil {
		return 0, err
	}
	return h.Revision, nil
}

// Get returns the node stored at path. The bool result is false when nothing
// is stored there.
func (kv *KV) Get(ctx context.Context, path tree.Path) (tree.Node, bool, error) {
	key, err := kv.keys.StoreKey(path)
	if err != nil {
		return nil, false, err
	}
	resp, err := kv.get(ctx, "get", key, GetOptions{})
	if err != nil {
		return nil, false, err
	}
	switch len(resp.Kvs) {
	case 0:
		return nil, false, nil
	case 1:
		e := resp.Kvs[0]
		node, err := kv.keys.NodeFromValue(e.Value, expectedName(path))
		if err != nil {
			return nil, false, entryErr("get", e.Key, e.Value, err)
		}
		return node, true, nil
	default:
		return nil, false, &ConsistencyError{Key: key, Count: len(resp.Kvs)}
	}
}

type entry struct {
	path tree.Path
	node tree.Node
}

func (kv *KV) decodeEntry(op string, e KeyValue) (entry, error) {
	path, err := kv.keys.PathFromKey(e.Key)
	if err != nil {
		return entry{}, entryErr(op, e.Key, e.Value, err)
	}
	node, err := kv.keys.NodeFromValue(e.Value, expectedName(path))
	if err != nil {
		return entry{}, entryErr(op, e.Key, e.Value, err)
	}
	return entry{path, node}, nil
}

// ReadAllInto writes every node of the partition into sink, parents before
// children. All entries are decoded before the first write, so a bad entry
// leaves sink untouched.
func (kv *KV) ReadAllInto(ctx context.Context, sink tree.Sink) (int64, error) {
	resp, err := kv.get(ctx, "scan", kv.keys.PrefixKey(), GetOptions{Prefix: true})
	if err != nil {
		return 0, err
	}

	entries := make([]entry, 0, len(resp.Kvs))
	for _, e := range resp.Kvs {
		ent, err := kv.decodeEntry("replay", e)
		if err != nil {
			return 0, err
		}
		entries = append(entries, ent)
	}

	for i, ent := range entries {
		if err := sink.Write(ent.path, ent.node); err != nil {
			e := resp.Kvs[i]
			return 0, entryErr("replay", e.Key, e.Value, err)
		}
	}
	kv.logger.Debug("replayed", zap.Int("entries", len(entries)), zap.Int64("revision", resp.Header.Revision))
	return resp.Header.Revision, nil
}

type EventType int

const (
	EventPut EventType = iota
	EventDelete
)

func (t EventType) String() string {
	switch t {
	case EventPut:
		return "put"
	case EventDelete:
		return "delete"
	default:
		return fmt.Sprintf("EventType(%d)", int(t))
	}
}

// Event is one change observed on the store, for example by a watch.
type Event struct {
	Type EventType
	Kv   KeyValue
}

// ApplyEvents replays a change stream into sink. As with ReadAllInto, every
// event is decoded before sink sees any of them.
func (kv *KV) ApplyEvents(sink tree.Sink, events []Event) error {
	type change struct {
		del bool
		entry
	}
	changes := make([]change, 0, len(events))
	for _, ev := range events {
		switch ev.Type {
		case EventPut:
			ent, err := kv.decodeEntry("apply put", ev.Kv)
			if err != nil {
				return err
			}
			changes = append(changes, change{false, ent})
		case EventDelete:
			path, err := kv.keys.PathFromKey(ev.Kv.Key)
			if err != nil {
				return entryErr("apply delete", ev.Kv.Key, nil, err)
			}
			changes = append(changes, change{true, entry{path: path}})
		default:
			return entryErr("apply", ev.Kv.Key, ev.Kv.Value, fmt.Errorf("unknown event type %v", ev.Type))
		}
	}

	for i, c := range changes {
		var err error
		if c.del {
			err = sink.Delete(c.path)
		} else {
			err = sink.Write(c.path, c.node)
		}
		if err != nil {
			e := events[i].Kv
			return entryErr("apply "+events[i].Type.String(), e.Key, e.Value, err)
		}
	}
	return nil
}

// NewTxn starts a transaction against this KV.
func (kv *KV) NewTxn() *Txn {
	return &Txn{kv: kv}
}
