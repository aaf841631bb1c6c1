package treekv

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestStoreError_ErrorAndUnwrap(t *testing.T) {
	inner := errors.New("inner")
	err := storeErr("get", []byte{0xAA}, inner)
	if !errors.Is(err, inner) {
		t.Fatalf("errors.Is(err, inner) = false, wanted true")
	}
	if s := err.Error(); s != "treekv: get aa: inner" {
		t.Fatalf("err.Error() = %q", s)
	}
	if s := storeErr("commit", nil, inner).Error(); s != "treekv: commit: inner" {
		t.Fatalf("err.Error() = %q", s)
	}
}

func TestEntryError_ErrorAndUnwrap(t *testing.T) {
	inner := errors.New("inner")
	err := entryErr("replay", []byte{1, 2}, []byte{3}, inner)
	if !errors.Is(err, inner) {
		t.Fatalf("errors.Is(err, inner) = false, wanted true")
	}
	s := err.Error()
	if !strings.Contains(s, "replay") || !strings.Contains(s, "0102") || !strings.Contains(s, "03") || !strings.Contains(s, "inner") {
		t.Fatalf("err.Error() = %q, wanted op/key/value/inner", s)
	}
}

func TestTimeoutError(t *testing.T) {
	err := error(&TimeoutError{Op: "commit", Timeout: 300 * time.Millisecond})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("errors.Is(err, DeadlineExceeded) = false, wanted true")
	}
	if s := err.Error(); !strings.Contains(s, "commit") || !strings.Contains(s, "300ms") {
		t.Fatalf("err.Error() = %q", s)
	}
}

func TestPrefixAndConsistencyErrors(t *testing.T) {
	s := (&PrefixMismatchError{Key: []byte{2, 0}, Got: 2, Want: 1}).Error()
	if !strings.Contains(s, "0x02") || !strings.Contains(s, "0x01") {
		t.Fatalf("PrefixMismatchError = %q", s)
	}
	s = (&PrefixMismatchError{Want: 1}).Error()
	if !strings.Contains(s, "empty key") {
		t.Fatalf("PrefixMismatchError(empty) = %q", s)
	}
	s = (&ConsistencyError{Key: []byte{1}, Count: 3}).Error()
	if !strings.Contains(s, "3 entries") {
		t.Fatalf("ConsistencyError = %q", s)
	}
}
