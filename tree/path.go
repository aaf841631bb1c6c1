package tree

import (
	"fmt"
	"slices"
	"strings"
)

// PathArg is one step of a Path. The set of implementations is closed:
// NodeID, NodeWithKeys, AugmentationID and Indexed.
type PathArg interface {
	// NodeType returns the QName of the addressed node. Augmentation steps
	// have none.
	NodeType() (QName, bool)
	String() string
	isPathArg()
}

// Key is one key predicate of a list entry.
type Key struct {
	Name  QName
	Value any
}

// NodeID addresses a child by its type name.
type NodeID struct {
	Name QName
}

// NodeWithKeys addresses a keyed list entry.
type NodeWithKeys struct {
	Name QName
	Keys []Key
}

// AugmentationID addresses an augmentation by the set of child names it may
// contribute. Names are kept sorted, see NewAugmentationID.
type AugmentationID struct {
	Names []QName
}

// Indexed addresses an entry of an unkeyed list by position.
type Indexed struct {
	Name  QName
	Index uint64
}

func NewAugmentationID(names ...QName) AugmentationID {
	names = slices.Clone(names)
	slices.SortFunc(names, compareQNames)
	names = slices.Compact(names)
	return AugmentationID{Names: names}
}

func (a NodeID) NodeType() (QName, bool)         { return a.Name, true }
func (a NodeWithKeys) NodeType() (QName, bool)   { return a.Name, true }
func (a AugmentationID) NodeType() (QName, bool) { return QName{}, false }
func (a Indexed) NodeType() (QName, bool)        { return a.Name, true }

func (NodeID) isPathArg()         {}
func (NodeWithKeys) isPathArg()   {}
func (AugmentationID) isPathArg() {}
func (Indexed) isPathArg()        {}

func (a NodeID) String() string {
	return a.Name.String()
}

func (a NodeWithKeys) String() string {
	var buf strings.Builder
	buf.WriteString(a.Name.String())
	for _, k := range a.Keys {
		fmt.Fprintf(&buf, "[%s=%s]", k.Name.Local, FormatValue(k.Value))
	}
	return buf.String()
}

func (a AugmentationID) String() string {
	var buf strings.Builder
	buf.WriteString("AugmentationIdentifier{")
	for i, n := range a.Names {
		if i > 0 {
			buf.WriteString(", ")
		}
		buf.WriteString(n.String())
	}
	buf.WriteByte('}')
	return buf.String()
}

func (a Indexed) String() string {
	return fmt.Sprintf("%s[%d]", a.Name.String(), a.Index)
}

// PathArgsEqual reports whether two steps address the same location.
func PathArgsEqual(a, b PathArg) bool {
	switch a := a.(type) {
	case NodeID:
		b, ok := b.(NodeID)
		return ok && a.Name == b.Name
	case NodeWithKeys:
		b, ok := b.(NodeWithKeys)
		return ok && a.Name == b.Name && keysEqual(a.Keys, b.Keys)
	case AugmentationID:
		b, ok := b.(AugmentationID)
		return ok && slices.Equal(a.Names, b.Names)
	case Indexed:
		b, ok := b.(Indexed)
		return ok && a.Name == b.Name && a.Index == b.Index
	default:
		return false
	}
}

func keysEqual(a, b []Key) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].Name != b[i].Name || !ValuesEqual(a[i].Value, b[i].Value) {
			return false
		}
	}
	return true
}

// Path addresses one node from the root. The empty path is the root itself.
type Path []PathArg

func NewPath(args ...PathArg) Path {
	return Path(args)
}

// Append returns a new path with args added; p is not modified.
func (p Path) Append(args ...PathArg) Path {
	r := make(Path, 0, len(p)+len(args))
	r = append(r, p...)
	return append(r, args...)
}

func (p Path) IsRoot() bool {
	return len(p) == 0
}

// Parent returns the path without its last step. The root's parent is root.
func (p Path) Parent() Path {
	if len(p) == 0 {
		return p
	}
	return p[:len(p)-1]
}

// Last returns the final step, or nil for the root.
func (p Path) Last() PathArg {
	if len(p) == 0 {
		return nil
	}
	return p[len(p)-1]
}

func (p Path) Equal(o Path) bool {
	if len(p) != len(o) {
		return false
	}
	for i := range p {
		if !PathArgsEqual(p[i], o[i]) {
			return false
		}
	}
	return true
}

func (p Path) String() string {
	if len(p) == 0 {
		return "/"
	}
	var buf strings.Builder
	for _, a := range p {
		buf.WriteByte('/')
		buf.WriteString(a.String())
	}
	return buf.String()
}
