package stream

import (
	"github.com/andreyvit/treekv/tree"
)

// EncodeNode returns a complete stream holding n.
func EncodeNode(n tree.Node) ([]byte, error) {
	return AppendNode(nil, n)
}

// AppendNode appends a complete stream holding n to buf.
func AppendNode(buf []byte, n tree.Node) ([]byte, error) {
	w := NewWriter(buf)
	if err := w.WriteNode(n); err != nil {
		return nil, err
	}
	return w.Bytes(), nil
}

// EncodePath returns a complete stream holding p.
func EncodePath(p tree.Path) ([]byte, error) {
	return AppendPath(nil, p)
}

// AppendPath appends a complete stream holding p to buf.
func AppendPath(buf []byte, p tree.Path) ([]byte, error) {
	w := NewWriter(buf)
	if err := w.WritePath(p); err != nil {
		return nil, err
	}
	return w.Bytes(), nil
}

// DecodeNode decodes a stream holding exactly one node. When expected is not
// nil, the node must carry that QName; augmentations have no QName of their
// own and are accepted as is.
func DecodeNode(data []byte, expected *tree.QName) (tree.Node, error) {
	r, err := NewReader(data)
	if err != nil {
		return nil, err
	}
	n, err := r.ReadNode()
	if err != nil {
		return nil, err
	}
	if r.Remaining() > 0 {
		return nil, decodeErrf(data, len(data)-r.Remaining(), nil, "%d trailing bytes after node", r.Remaining())
	}
	if expected != nil {
		if name, ok := tree.NodeName(n); ok && name != *expected {
			return nil, decodeErrf(data, 0, nil, "decoded node %v, expected %v", name, *expected)
		}
	}
	return n, nil
}

// DecodePath decodes a stream holding exactly one path.
func DecodePath(data []byte) (tree.Path, error) {
	r, err := NewReader(data)
	if err != nil {
		return nil, err
	}
	p, err := r.ReadPath()
	if err != nil {
		return nil, err
	}
	if r.Remaining() > 0 {
		return nil, decodeErrf(data, len(data)-r.Remaining(), nil, "%d trailing bytes after path", r.Remaining())
	}
	return p, nil
}
