package treekv

import (
	"fmt"

	"github.com/andreyvit/treekv/stream"
	"github.com/andreyvit/treekv/tree"
)

// KeyCodec maps paths and nodes to store keys and values. A key is the
// partition prefix byte followed by the encoded path; a value is the encoded
// node.
//
// Encoded paths start with their step count, so within one partition keys of
// shallower paths sort before keys of deeper ones.
type KeyCodec struct {
	Prefix byte
}

// PrefixKey returns the key prefix shared by every key of the partition.
func (c KeyCodec) PrefixKey() []byte {
	return []byte{c.Prefix}
}

func (c KeyCodec) StoreKey(path tree.Path) ([]byte, error) {
	key, err := stream.AppendPath([]byte{c.Prefix}, path)
	if err != nil {
		return nil, fmt.Errorf("treekv: key for %v: %w", path, err)
	}
	return key, nil
}

func (c KeyCodec) StoreValue(node tree.Node) ([]byte, error) {
	value, err := stream.EncodeNode(node)
	if err != nil {
		return nil, fmt.Errorf("treekv: value: %w", err)
	}
	return value, nil
}

func (c KeyCodec) PathFromKey(key []byte) (tree.Path, error) {
	if len(key) == 0 {
		return nil, &PrefixMismatchError{Key: key, Want: c.Prefix}
	}
	if key[0] != c.Prefix {
		return nil, &PrefixMismatchError{Key: key, Got: key[0], Want: c.Prefix}
	}
	return stream.DecodePath(key[1:])
}

// NodeFromValue decodes a stored node. expected, when not nil, is the QName
// the node must carry.
func (c KeyCodec) NodeFromValue(value []byte, expected *tree.QName) (tree.Node, error) {
	return stream.DecodeNode(value, expected)
}

// expectedName returns the QName of the node stored at path, when the path
// determines it. Augmentation steps and the root do not.
func expectedName(path tree.Path) *tree.QName {
	last := path.Last()
	if last == nil {
		return nil
	}
	if name, ok := last.NodeType(); ok {
		return &name
	}
	return nil
}
