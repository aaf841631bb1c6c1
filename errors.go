package treekv

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrTxnClosed is returned by Txn methods after Commit or Discard.
var ErrTxnClosed = errors.New("treekv: transaction already committed or failed")

// ErrCorrupted is wrapped by local-store errors for records that fail their
// checksum or cannot be decoded.
var ErrCorrupted = errors.New("corrupted record")

// PrefixMismatchError is returned when a store key belongs to another
// partition.
type PrefixMismatchError struct {
	Key  []byte
	Got  byte
	Want byte
}

func (e *PrefixMismatchError) Error() string {
	if len(e.Key) == 0 {
		return fmt.Sprintf("treekv: empty key, expected prefix 0x%02x", e.Want)
	}
	return fmt.Sprintf("treekv: key prefix 0x%02x does not match expected prefix 0x%02x: %x", e.Got, e.Want, e.Key)
}

// ConsistencyError is returned when a point read yields more than one entry.
type ConsistencyError struct {
	Key   []byte
	Count int
}

func (e *ConsistencyError) Error() string {
	return fmt.Sprintf("treekv: point read of %x returned %d entries, wanted at most 1", e.Key, e.Count)
}

// TimeoutError is returned when the store does not answer in time. It
// matches context.DeadlineExceeded with errors.Is.
type TimeoutError struct {
	Op      string
	Timeout time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("treekv: %s: no response from store within %v", e.Op, e.Timeout)
}

func (e *TimeoutError) Unwrap() error {
	return context.DeadlineExceeded
}

// StoreError wraps a failure reported by the store client.
type StoreError struct {
	Op  string
	Key []byte
	Err error
}

func storeErr(op string, key []byte, err error) error {
	return &StoreError{op, key, err}
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

func (e *StoreError) Error() string {
	var buf strings.Builder
	buf.WriteString("treekv: ")
	buf.WriteString(e.Op)
	if e.Key != nil {
		fmt.Fprintf(&buf, " %x", e.Key)
	}
	if e.Err != nil {
		buf.WriteString(": ")
		buf.WriteString(e.Err.Error())
	}
	return buf.String()
}

// EntryError identifies a stored entry that could not be decoded or applied.
type EntryError struct {
	Op    string
	Key   []byte
	Value []byte
	Err   error
}

func entryErr(op string, key, value []byte, err error) error {
	return &EntryError{op, key, value, err}
}

func (e *EntryError) Unwrap() error {
	return e.Err
}

func (e *EntryError) Error() string {
	return fmt.Sprintf("treekv: %s failed: %x ➠ %x: %v", e.Op, e.Key, e.Value, e.Err)
}
