package tree

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"slices"
	"strconv"

	"github.com/shopspring/decimal"
)

// Leaf values are plain Go values of the following types:
//
//	Empty, bool, int8, int16, int32, int64, uint8, uint16, uint32, uint64,
//	string, []byte, QName, Bits, decimal.Decimal, Path
//
// Anything else cannot be stored.

// Empty is the value of a leaf of type empty.
type Empty struct{}

// Bits is the value of a bits leaf: the ordered set of bits that are set.
type Bits []string

// ValuesEqual compares two leaf values.
func ValuesEqual(a, b any) bool {
	switch a := a.(type) {
	case []byte:
		b, ok := b.([]byte)
		return ok && bytes.Equal(a, b)
	case Bits:
		b, ok := b.(Bits)
		return ok && slices.Equal(a, b)
	case decimal.Decimal:
		b, ok := b.(decimal.Decimal)
		return ok && a.Equal(b)
	case Path:
		b, ok := b.(Path)
		return ok && a.Equal(b)
	case nil:
		return b == nil
	default:
		return isComparable(a) && a == b
	}
}

func isComparable(v any) bool {
	switch v.(type) {
	case Empty, bool, int8, int16, int32, int64, uint8, uint16, uint32, uint64, string, QName:
		return true
	default:
		return false
	}
}

// FormatValue renders a leaf value for logs and path strings.
func FormatValue(v any) string {
	switch v := v.(type) {
	case Empty:
		return "empty"
	case string:
		return strconv.Quote(v)
	case []byte:
		return hex.EncodeToString(v)
	case decimal.Decimal:
		return v.String()
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}
