package stream

import (
	"bytes"
	"math"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"github.com/andreyvit/treekv/tree"
)

// Reader decodes one stream produced by Writer. It owns a string list rebuilt
// from the literals in the order they are read.
type Reader struct {
	d       byteDecoder
	strings stringList
	version uint16
	depth   int
}

// NewReader reads the stream header and returns a Reader positioned at the
// first item.
func NewReader(data []byte) (*Reader, error) {
	r := &Reader{d: byteDecoder{data: data}}
	v, err := r.d.Uint16()
	if err != nil {
		return nil, decodeErrf(data, 0, err, "missing stream version")
	}
	if !isSupportedVersion(v) {
		return nil, decodeErrf(data, 0, nil, "unsupported stream version %d", v)
	}
	r.version = v
	return r, nil
}

func isSupportedVersion(v uint16) bool {
	switch v {
	case Version1:
		return true
	default:
		return false
	}
}

func (r *Reader) Version() uint16 {
	return r.version
}

// Remaining returns the number of unread bytes.
func (r *Reader) Remaining() int {
	return r.d.Left()
}

// ReadNode decodes one node with all its descendants.
func (r *Reader) ReadNode() (tree.Node, error) {
	return r.readNode()
}

// ReadPath decodes one path.
func (r *Reader) ReadPath() (tree.Path, error) {
	return r.readPath()
}

func (r *Reader) errf(off int, err error, format string, args ...any) error {
	return decodeErrf(r.d.data, off, err, format, args...)
}

func (r *Reader) enter() error {
	r.depth++
	if r.depth > maxDepth {
		return r.errf(r.d.Off(), nil, "nesting deeper than %d", maxDepth)
	}
	return nil
}

func (r *Reader) leave() {
	r.depth--
}

func (r *Reader) readString() (string, bool, error) {
	off := r.d.Off()
	token, err := r.d.Byte()
	if err != nil {
		return "", false, err
	}
	switch token {
	case tokenLiteral:
		raw, err := r.d.VarBytes()
		if err != nil {
			return "", false, err
		}
		if !utf8.Valid(raw) {
			return "", false, r.errf(off, nil, "string literal is not valid UTF-8")
		}
		s := string(raw)
		r.strings.add(s)
		return s, true, nil
	case tokenCode:
		code, err := r.d.Uvarint()
		if err != nil {
			return "", false, err
		}
		s, ok := r.strings.lookup(code)
		if !ok {
			return "", false, r.errf(off, nil, "unresolved string code %d (%d strings known)", code, len(r.strings))
		}
		return s, true, nil
	case tokenNull:
		return "", false, nil
	default:
		return "", false, r.errf(off, nil, "invalid string token 0x%02x", token)
	}
}

func (r *Reader) readRequiredString(what string) (string, error) {
	off := r.d.Off()
	s, ok, err := r.readString()
	if err != nil {
		return "", err
	}
	if !ok {
		return "", r.errf(off, nil, "%s must not be null", what)
	}
	return s, nil
}

func (r *Reader) readQName() (tree.QName, error) {
	local, err := r.readRequiredString("local name")
	if err != nil {
		return tree.QName{}, err
	}
	ns, err := r.readRequiredString("namespace")
	if err != nil {
		return tree.QName{}, err
	}
	rev, _, err := r.readString()
	if err != nil {
		return tree.QName{}, err
	}
	return tree.QName{Local: local, Namespace: ns, Revision: rev}, nil
}

func (r *Reader) readQNames() ([]tree.QName, error) {
	n, err := r.d.Count()
	if err != nil {
		return nil, err
	}
	var names []tree.QName
	if n > 0 {
		names = make([]tree.QName, 0, n)
	}
	for i := 0; i < n; i++ {
		q, err := r.readQName()
		if err != nil {
			return nil, err
		}
		names = append(names, q)
	}
	return names, nil
}

func (r *Reader) readKeys() ([]tree.Key, error) {
	n, err := r.d.Count()
	if err != nil {
		return nil, err
	}
	var keys []tree.Key
	if n > 0 {
		keys = make([]tree.Key, 0, n)
	}
	for i := 0; i < n; i++ {
		name, err := r.readQName()
		if err != nil {
			return nil, err
		}
		v, err := r.readValue()
		if err != nil {
			return nil, err
		}
		keys = append(keys, tree.Key{Name: name, Value: v})
	}
	return keys, nil
}

func (r *Reader) readPath() (tree.Path, error) {
	if err := r.enter(); err != nil {
		return nil, err
	}
	defer r.leave()

	n, err := r.d.Count()
	if err != nil {
		return nil, err
	}
	p := make(tree.Path, 0, n)
	for i := 0; i < n; i++ {
		arg, err := r.readPathArg()
		if err != nil {
			return nil, err
		}
		p = append(p, arg)
	}
	return p, nil
}

func (r *Reader) readPathArg() (tree.PathArg, error) {
	off := r.d.Off()
	tag, err := r.d.Byte()
	if err != nil {
		return nil, err
	}
	switch tag {
	case argNodeID:
		name, err := r.readQName()
		if err != nil {
			return nil, err
		}
		return tree.NodeID{Name: name}, nil
	case argNodeWithKeys:
		name, err := r.readQName()
		if err != nil {
			return nil, err
		}
		keys, err := r.readKeys()
		if err != nil {
			return nil, err
		}
		return tree.NodeWithKeys{Name: name, Keys: keys}, nil
	case argAugmentation:
		names, err := r.readQNames()
		if err != nil {
			return nil, err
		}
		return tree.AugmentationID{Names: names}, nil
	case argIndexed:
		name, err := r.readQName()
		if err != nil {
			return nil, err
		}
		idx, err := r.d.Uvarint()
		if err != nil {
			return nil, err
		}
		return tree.Indexed{Name: name, Index: idx}, nil
	default:
		return nil, r.errf(off, nil, "invalid path argument tag 0x%02x", tag)
	}
}

func (r *Reader) readNode() (tree.Node, error) {
	if err := r.enter(); err != nil {
		return nil, err
	}
	defer r.leave()

	off := r.d.Off()
	tag, err := r.d.Byte()
	if err != nil {
		return nil, err
	}
	switch tag {
	case nodeLeaf:
		name, err := r.readQName()
		if err != nil {
			return nil, err
		}
		v, err := r.readValue()
		if err != nil {
			return nil, err
		}
		return &tree.Leaf{Name: name, Value: v}, nil

	case nodeLeafSet, nodeOrderedLeafSet:
		name, err := r.readQName()
		if err != nil {
			return nil, err
		}
		n, err := r.d.Count()
		if err != nil {
			return nil, err
		}
		ls := &tree.LeafSet{Name: name, Ordered: tag == nodeOrderedLeafSet}
		if n > 0 {
			ls.Values = make([]any, 0, n)
		}
		for i := 0; i < n; i++ {
			v, err := r.readValue()
			if err != nil {
				return nil, err
			}
			ls.Values = append(ls.Values, v)
		}
		return ls, nil

	case nodeContainer:
		name, err := r.readQName()
		if err != nil {
			return nil, err
		}
		children, err := r.readChildren()
		if err != nil {
			return nil, err
		}
		return &tree.Container{Name: name, Children: children}, nil

	case nodeChoice:
		name, err := r.readQName()
		if err != nil {
			return nil, err
		}
		children, err := r.readChildren()
		if err != nil {
			return nil, err
		}
		return &tree.Choice{Name: name, Children: children}, nil

	case nodeAugmentation:
		names, err := r.readQNames()
		if err != nil {
			return nil, err
		}
		children, err := r.readChildren()
		if err != nil {
			return nil, err
		}
		return &tree.Augmentation{Names: names, Children: children}, nil

	case nodeMap, nodeOrderedMap:
		name, err := r.readQName()
		if err != nil {
			return nil, err
		}
		n, err := r.d.Count()
		if err != nil {
			return nil, err
		}
		m := &tree.MapNode{Name: name, Ordered: tag == nodeOrderedMap}
		if n > 0 {
			m.Entries = make([]*tree.MapEntry, 0, n)
		}
		for i := 0; i < n; i++ {
			entryOff := r.d.Off()
			c, err := r.readNode()
			if err != nil {
				return nil, err
			}
			e, ok := c.(*tree.MapEntry)
			if !ok {
				return nil, r.errf(entryOff, nil, "list %v contains %T instead of an entry", name, c)
			}
			m.Entries = append(m.Entries, e)
		}
		return m, nil

	case nodeMapEntry:
		name, err := r.readQName()
		if err != nil {
			return nil, err
		}
		keys, err := r.readKeys()
		if err != nil {
			return nil, err
		}
		children, err := r.readChildren()
		if err != nil {
			return nil, err
		}
		return &tree.MapEntry{Name: name, Keys: keys, Children: children}, nil

	case nodeUnkeyedList:
		name, err := r.readQName()
		if err != nil {
			return nil, err
		}
		n, err := r.d.Count()
		if err != nil {
			return nil, err
		}
		l := &tree.UnkeyedList{Name: name}
		if n > 0 {
			l.Entries = make([]*tree.UnkeyedListEntry, 0, n)
		}
		for i := 0; i < n; i++ {
			entryOff := r.d.Off()
			c, err := r.readNode()
			if err != nil {
				return nil, err
			}
			e, ok := c.(*tree.UnkeyedListEntry)
			if !ok {
				return nil, r.errf(entryOff, nil, "unkeyed list %v contains %T instead of an entry", name, c)
			}
			l.Entries = append(l.Entries, e)
		}
		return l, nil

	case nodeUnkeyedListEntry:
		name, err := r.readQName()
		if err != nil {
			return nil, err
		}
		children, err := r.readChildren()
		if err != nil {
			return nil, err
		}
		return &tree.UnkeyedListEntry{Name: name, Children: children}, nil

	default:
		return nil, r.errf(off, nil, "invalid node tag 0x%02x", tag)
	}
}

func (r *Reader) readChildren() ([]tree.Node, error) {
	n, err := r.d.Count()
	if err != nil {
		return nil, err
	}
	var children []tree.Node
	if n > 0 {
		children = make([]tree.Node, 0, n)
	}
	for i := 0; i < n; i++ {
		c, err := r.readNode()
		if err != nil {
			return nil, err
		}
		children = append(children, c)
	}
	return children, nil
}

func (r *Reader) readValue() (any, error) {
	off := r.d.Off()
	kind, err := r.d.Byte()
	if err != nil {
		return nil, err
	}
	switch kind {
	case valEmpty:
		return tree.Empty{}, nil
	case valBool:
		b, err := r.d.Byte()
		if err != nil {
			return nil, err
		}
		switch b {
		case 0:
			return false, nil
		case 1:
			return true, nil
		default:
			return nil, r.errf(off, nil, "invalid bool 0x%02x", b)
		}
	case valInt8:
		b, err := r.d.Byte()
		return int8(b), err
	case valInt16:
		v, err := r.readVarintRange(off, math.MinInt16, math.MaxInt16)
		return int16(v), err
	case valInt32:
		v, err := r.readVarintRange(off, math.MinInt32, math.MaxInt32)
		return int32(v), err
	case valInt64:
		return r.d.Varint()
	case valUint8:
		return r.d.Byte()
	case valUint16:
		v, err := r.readUvarintMax(off, math.MaxUint16)
		return uint16(v), err
	case valUint32:
		v, err := r.readUvarintMax(off, math.MaxUint32)
		return uint32(v), err
	case valUint64:
		return r.d.Uvarint()
	case valString:
		s, err := r.readRequiredString("string value")
		return s, err
	case valBinary:
		raw, err := r.d.VarBytes()
		if err != nil {
			return nil, err
		}
		return bytes.Clone(raw), nil
	case valQName:
		return r.readQName()
	case valBits:
		n, err := r.d.Count()
		if err != nil {
			return nil, err
		}
		bits := make(tree.Bits, 0, n)
		for i := 0; i < n; i++ {
			s, err := r.readRequiredString("bit name")
			if err != nil {
				return nil, err
			}
			bits = append(bits, s)
		}
		return bits, nil
	case valDecimal:
		s, err := r.readRequiredString("decimal value")
		if err != nil {
			return nil, err
		}
		d, err := decimal.NewFromString(s)
		if err != nil {
			return nil, r.errf(off, err, "invalid decimal")
		}
		return d, nil
	case valPath:
		return r.readPath()
	default:
		return nil, r.errf(off, nil, "invalid value kind 0x%02x", kind)
	}
}

func (r *Reader) readVarintRange(off int, min, max int64) (int64, error) {
	v, err := r.d.Varint()
	if err != nil {
		return 0, err
	}
	if v < min || v > max {
		return 0, r.errf(off, nil, "value %d out of range", v)
	}
	return v, nil
}

func (r *Reader) readUvarintMax(off int, max uint64) (uint64, error) {
	v, err := r.d.Uvarint()
	if err != nil {
		return 0, err
	}
	if v > max {
		return 0, r.errf(off, nil, "value %d out of range", v)
	}
	return v, nil
}
