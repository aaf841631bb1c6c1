package stream

import (
	"encoding/binary"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"github.com/andreyvit/treekv/tree"
)

// Writer appends one encoded stream to a byte slice. The version header is
// written before the first item. A Writer owns its string table and must not
// be shared between goroutines.
type Writer struct {
	buf     []byte
	strings stringTable
	started bool
}

// NewWriter returns a Writer appending to buf, which may be nil.
func NewWriter(buf []byte) *Writer {
	return &Writer{buf: buf}
}

// Bytes returns the buffer including everything written so far.
func (w *Writer) Bytes() []byte {
	return w.buf
}

// InternedStrings returns the number of distinct strings written so far.
func (w *Writer) InternedStrings() int {
	return w.strings.Len()
}

func (w *Writer) start() {
	if !w.started {
		w.started = true
		w.buf = binary.BigEndian.AppendUint16(w.buf, CurrentVersion)
	}
}

// WriteNode appends n and all its descendants.
func (w *Writer) WriteNode(n tree.Node) error {
	w.start()
	return w.writeNode(n)
}

// WritePath appends p.
func (w *Writer) WritePath(p tree.Path) error {
	w.start()
	return w.writePath(p)
}

func (w *Writer) writeByte(v byte) {
	w.buf = append(w.buf, v)
}

func (w *Writer) writeUvarint(v uint64) {
	w.buf = binary.AppendUvarint(w.buf, v)
}

func (w *Writer) writeString(s string) error {
	if !utf8.ValidString(s) {
		return encodeErrf(nil, "string is not valid UTF-8: %q", s)
	}
	if code, seen := w.strings.intern(s); seen {
		w.writeByte(tokenCode)
		w.writeUvarint(code)
	} else {
		w.writeByte(tokenLiteral)
		w.buf = appendUvarintBytes(w.buf, []byte(s))
	}
	return nil
}

func (w *Writer) writeOptString(s string, present bool) error {
	if !present {
		w.writeByte(tokenNull)
		return nil
	}
	return w.writeString(s)
}

func (w *Writer) writeQName(q tree.QName) error {
	if err := w.writeString(q.Local); err != nil {
		return err
	}
	if err := w.writeString(q.Namespace); err != nil {
		return err
	}
	return w.writeOptString(q.Revision, q.Revision != "")
}

func (w *Writer) writeQNames(names []tree.QName) error {
	w.writeUvarint(uint64(len(names)))
	for _, q := range names {
		if err := w.writeQName(q); err != nil {
			return err
		}
	}
	return nil
}

func (w *Writer) writeKeys(keys []tree.Key) error {
	w.writeUvarint(uint64(len(keys)))
	for _, k := range keys {
		if err := w.writeQName(k.Name); err != nil {
			return err
		}
		if err := w.writeValue(k.Value); err != nil {
			return err
		}
	}
	return nil
}

func (w *Writer) writePath(p tree.Path) error {
	w.writeUvarint(uint64(len(p)))
	for i, arg := range p {
		if err := w.writePathArg(arg); err != nil {
			return encodeErrf(err, "path %v, step %d", p, i)
		}
	}
	return nil
}

func (w *Writer) writePathArg(arg tree.PathArg) error {
	switch a := arg.(type) {
	case tree.NodeID:
		w.writeByte(argNodeID)
		return w.writeQName(a.Name)
	case tree.NodeWithKeys:
		w.writeByte(argNodeWithKeys)
		if err := w.writeQName(a.Name); err != nil {
			return err
		}
		return w.writeKeys(a.Keys)
	case tree.AugmentationID:
		w.writeByte(argAugmentation)
		return w.writeQNames(a.Names)
	case tree.Indexed:
		w.writeByte(argIndexed)
		if err := w.writeQName(a.Name); err != nil {
			return err
		}
		w.writeUvarint(a.Index)
		return nil
	default:
		return encodeErrf(nil, "unsupported path argument %T", arg)
	}
}

func (w *Writer) writeNode(n tree.Node) error {
	if tree.IsNil(n) {
		return encodeErrf(nil, "nil node")
	}
	switch n := n.(type) {
	case *tree.Leaf:
		w.writeByte(nodeLeaf)
		if err := w.writeQName(n.Name); err != nil {
			return err
		}
		if err := w.writeValue(n.Value); err != nil {
			return encodeErrf(err, "leaf %v", n.Name)
		}
		return nil

	case *tree.LeafSet:
		if n.Ordered {
			w.writeByte(nodeOrderedLeafSet)
		} else {
			w.writeByte(nodeLeafSet)
		}
		if err := w.writeQName(n.Name); err != nil {
			return err
		}
		w.writeUvarint(uint64(len(n.Values)))
		for _, v := range n.Values {
			if err := w.writeValue(v); err != nil {
				return encodeErrf(err, "leaf-list %v", n.Name)
			}
		}
		return nil

	case *tree.Container:
		w.writeByte(nodeContainer)
		if err := w.writeQName(n.Name); err != nil {
			return err
		}
		return w.writeChildren(n.Children)

	case *tree.Choice:
		w.writeByte(nodeChoice)
		if err := w.writeQName(n.Name); err != nil {
			return err
		}
		return w.writeChildren(n.Children)

	case *tree.Augmentation:
		w.writeByte(nodeAugmentation)
		if err := w.writeQNames(n.Names); err != nil {
			return err
		}
		return w.writeChildren(n.Children)

	case *tree.MapNode:
		if n.Ordered {
			w.writeByte(nodeOrderedMap)
		} else {
			w.writeByte(nodeMap)
		}
		if err := w.writeQName(n.Name); err != nil {
			return err
		}
		w.writeUvarint(uint64(len(n.Entries)))
		for _, e := range n.Entries {
			if err := w.writeNode(e); err != nil {
				return err
			}
		}
		return nil

	case *tree.MapEntry:
		w.writeByte(nodeMapEntry)
		if err := w.writeQName(n.Name); err != nil {
			return err
		}
		if err := w.writeKeys(n.Keys); err != nil {
			return encodeErrf(err, "list entry %v", n.Name)
		}
		return w.writeChildren(n.Children)

	case *tree.UnkeyedList:
		w.writeByte(nodeUnkeyedList)
		if err := w.writeQName(n.Name); err != nil {
			return err
		}
		w.writeUvarint(uint64(len(n.Entries)))
		for _, e := range n.Entries {
			if err := w.writeNode(e); err != nil {
				return err
			}
		}
		return nil

	case *tree.UnkeyedListEntry:
		w.writeByte(nodeUnkeyedListEntry)
		if err := w.writeQName(n.Name); err != nil {
			return err
		}
		return w.writeChildren(n.Children)

	default:
		return encodeErrf(nil, "unsupported node type %T", n)
	}
}

func (w *Writer) writeChildren(children []tree.Node) error {
	w.writeUvarint(uint64(len(children)))
	for _, c := range children {
		if err := w.writeNode(c); err != nil {
			return err
		}
	}
	return nil
}

func (w *Writer) writeValue(v any) error {
	switch v := v.(type) {
	case tree.Empty:
		w.writeByte(valEmpty)
	case bool:
		w.writeByte(valBool)
		if v {
			w.writeByte(1)
		} else {
			w.writeByte(0)
		}
	case int8:
		w.writeByte(valInt8)
		w.writeByte(byte(v))
	case int16:
		w.writeByte(valInt16)
		w.buf = binary.AppendVarint(w.buf, int64(v))
	case int32:
		w.writeByte(valInt32)
		w.buf = binary.AppendVarint(w.buf, int64(v))
	case int64:
		w.writeByte(valInt64)
		w.buf = binary.AppendVarint(w.buf, v)
	case uint8:
		w.writeByte(valUint8)
		w.writeByte(v)
	case uint16:
		w.writeByte(valUint16)
		w.writeUvarint(uint64(v))
	case uint32:
		w.writeByte(valUint32)
		w.writeUvarint(uint64(v))
	case uint64:
		w.writeByte(valUint64)
		w.writeUvarint(v)
	case string:
		w.writeByte(valString)
		return w.writeString(v)
	case []byte:
		w.writeByte(valBinary)
		w.buf = appendUvarintBytes(w.buf, v)
	case tree.QName:
		w.writeByte(valQName)
		return w.writeQName(v)
	case tree.Bits:
		w.writeByte(valBits)
		w.writeUvarint(uint64(len(v)))
		for _, bit := range v {
			if err := w.writeString(bit); err != nil {
				return err
			}
		}
	case decimal.Decimal:
		w.writeByte(valDecimal)
		return w.writeString(v.String())
	case tree.Path:
		w.writeByte(valPath)
		return w.writePath(v)
	default:
		return encodeErrf(nil, "unsupported value type %T", v)
	}
	return nil
}
