package treekv

import (
	"context"
	"encoding/hex"
	"errors"
	"time"
)

type result[T any] struct {
	v   T
	err error
}

// await runs f in its own goroutine and waits at most timeout for it. On
// timeout it returns a *TimeoutError; whatever f produces later is dropped.
func await[T any](ctx context.Context, op string, timeout time.Duration, f func(ctx context.Context) (T, error)) (T, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ch := make(chan result[T], 1)
	go func() {
		v, err := f(ctx)
		ch <- result[T]{v, err}
	}()

	select {
	case r := <-ch:
		if r.err != nil && errors.Is(r.err, context.DeadlineExceeded) && ctx.Err() != nil {
			var zero T
			return zero, &TimeoutError{Op: op, Timeout: timeout}
		}
		return r.v, r.err
	case <-ctx.Done():
		var zero T
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return zero, &TimeoutError{Op: op, Timeout: timeout}
		}
		return zero, ctx.Err()
	}
}

func hexKey(key []byte) string {
	return hex.EncodeToString(key)
}
