package stream

import (
	"encoding/binary"
	"math"
)

func appendUvarintBytes(buf, v []byte) []byte {
	return append(binary.AppendUvarint(buf, uint64(len(v))), v...)
}

// byteDecoder is a read position over data. Every failure is reported as a
// *DecodeError at the offset where the bad item starts.
type byteDecoder struct {
	data []byte
	pos  int
}

func (d *byteDecoder) Off() int  { return d.pos }
func (d *byteDecoder) Left() int { return len(d.data) - d.pos }

func (d *byteDecoder) fail(format string, args ...any) error {
	return decodeErrf(d.data, d.pos, nil, format, args...)
}

func (d *byteDecoder) Byte() (byte, error) {
	if d.Left() < 1 {
		return 0, d.fail("unexpected end of data")
	}
	d.pos++
	return d.data[d.pos-1], nil
}

func (d *byteDecoder) Uint16() (uint16, error) {
	raw, err := d.Raw(2)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(raw), nil
}

func (d *byteDecoder) Uvarint() (uint64, error) {
	v, n := binary.Uvarint(d.data[d.pos:])
	if n <= 0 {
		return 0, d.fail("invalid uvarint")
	}
	d.pos += n
	return v, nil
}

func (d *byteDecoder) Varint() (int64, error) {
	v, n := binary.Varint(d.data[d.pos:])
	if n <= 0 {
		return 0, d.fail("invalid varint")
	}
	d.pos += n
	return v, nil
}

func (d *byteDecoder) length() (int, error) {
	v, err := d.Uvarint()
	switch {
	case err != nil:
		return 0, err
	case v > math.MaxInt:
		return 0, d.fail("length %d overflows int", v)
	}
	return int(v), nil
}

// Raw returns the next n bytes without copying.
func (d *byteDecoder) Raw(n int) ([]byte, error) {
	if d.Left() < n {
		return nil, d.fail("need %d bytes, have %d", n, d.Left())
	}
	start := d.pos
	d.pos += n
	return d.data[start:d.pos:d.pos], nil
}

func (d *byteDecoder) VarBytes() ([]byte, error) {
	n, err := d.length()
	if err != nil {
		return nil, err
	}
	return d.Raw(n)
}

// Count reads an element count. Every element takes at least one byte, so
// counts beyond the remaining data are rejected before anything is allocated.
func (d *byteDecoder) Count() (int, error) {
	off := d.pos
	n, err := d.length()
	if err != nil {
		return 0, err
	}
	if n > d.Left() {
		return 0, decodeErrf(d.data, off, nil, "count %d exceeds remaining %d bytes", n, d.Left())
	}
	return n, nil
}
