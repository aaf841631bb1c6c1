// Package stream implements the binary encoding of tree nodes and paths.
//
// # Format
//
// Every stream starts with a big-endian uint16 version. Then:
//
//   - string = tokenLiteral uvarint(len) utf8-bytes | tokenCode uvarint(code) | tokenNull
//   - qname = string(local) string(namespace) string(revision or null)
//   - path = uvarint(count) pathArg*
//   - pathArg = tag fields, see arg* constants
//   - node = tag fields, see node* constants; children are prefixed by a uvarint count
//   - value = kind payload, see val* constants
//
// Strings are interned per stream: the first occurrence of a string is written
// literally and gets the next code (0, 1, 2...), later occurrences are written
// as that code. The table lives exactly as long as one Writer or Reader.
package stream

// Stream versions.
const (
	Version1 uint16 = 1

	CurrentVersion = Version1
)

// String field tokens.
const (
	tokenCode    byte = 1
	tokenLiteral byte = 2
	tokenNull    byte = 3
)

// Node tags.
const (
	nodeLeaf             byte = 1
	nodeLeafSet          byte = 2
	nodeOrderedLeafSet   byte = 3
	nodeContainer        byte = 4
	nodeMap              byte = 5
	nodeOrderedMap       byte = 6
	nodeMapEntry         byte = 7
	nodeUnkeyedList      byte = 8
	nodeUnkeyedListEntry byte = 9
	nodeChoice           byte = 10
	nodeAugmentation     byte = 11
)

// Path argument tags.
const (
	argNodeID       byte = 1
	argNodeWithKeys byte = 2
	argAugmentation byte = 3
	argIndexed      byte = 4
)

// Leaf value kinds.
const (
	valEmpty   byte = 1
	valBool    byte = 2
	valInt8    byte = 3
	valInt16   byte = 4
	valInt32   byte = 5
	valInt64   byte = 6
	valUint8   byte = 7
	valUint16  byte = 8
	valUint32  byte = 9
	valUint64  byte = 10
	valString  byte = 11
	valBinary  byte = 12
	valQName   byte = 13
	valBits    byte = 14
	valDecimal byte = 15
	valPath    byte = 16
)

// maxDepth bounds node and value nesting on decode.
const maxDepth = 256
