package tree

// Node is one element of the data tree. The set of implementations is closed
// and mirrors the schema statements that produce data:
//
//	*Leaf, *LeafSet, *Container, *MapNode, *MapEntry,
//	*UnkeyedList, *UnkeyedListEntry, *Choice, *Augmentation
type Node interface {
	// Identifier is the path step that addresses this node within its parent.
	Identifier() PathArg
	isNode()
}

// IsNil reports whether n is nil or a nil pointer to one of the node types.
func IsNil(n Node) bool {
	switch n := n.(type) {
	case nil:
		return true
	case *Leaf:
		return n == nil
	case *LeafSet:
		return n == nil
	case *Container:
		return n == nil
	case *MapNode:
		return n == nil
	case *MapEntry:
		return n == nil
	case *UnkeyedList:
		return n == nil
	case *UnkeyedListEntry:
		return n == nil
	case *Choice:
		return n == nil
	case *Augmentation:
		return n == nil
	}
	return false
}

// DataContainer is a node whose children are addressed by their identifiers.
type DataContainer interface {
	Node
	ChildNodes() []Node
	setChildNodes([]Node)
}

type Leaf struct {
	Name  QName
	Value any
}

type LeafSet struct {
	Name    QName
	Ordered bool
	Values  []any
}

type Container struct {
	Name     QName
	Children []Node
}

// MapNode is a keyed list.
type MapNode struct {
	Name    QName
	Ordered bool
	Entries []*MapEntry
}

type MapEntry struct {
	Name     QName
	Keys     []Key
	Children []Node
}

type UnkeyedList struct {
	Name    QName
	Entries []*UnkeyedListEntry
}

type UnkeyedListEntry struct {
	Name     QName
	Children []Node
}

type Choice struct {
	Name     QName
	Children []Node
}

// Augmentation groups children contributed by an augmenting module. It has
// no QName of its own.
type Augmentation struct {
	Names    []QName
	Children []Node
}

func (n *Leaf) Identifier() PathArg             { return NodeID{n.Name} }
func (n *LeafSet) Identifier() PathArg          { return NodeID{n.Name} }
func (n *Container) Identifier() PathArg        { return NodeID{n.Name} }
func (n *MapNode) Identifier() PathArg          { return NodeID{n.Name} }
func (n *MapEntry) Identifier() PathArg         { return NodeWithKeys{n.Name, n.Keys} }
func (n *UnkeyedList) Identifier() PathArg      { return NodeID{n.Name} }
func (n *UnkeyedListEntry) Identifier() PathArg { return NodeID{n.Name} }
func (n *Choice) Identifier() PathArg           { return NodeID{n.Name} }
func (n *Augmentation) Identifier() PathArg     { return NewAugmentationID(n.Names...) }

func (*Leaf) isNode()             {}
func (*LeafSet) isNode()          {}
func (*Container) isNode()        {}
func (*MapNode) isNode()          {}
func (*MapEntry) isNode()         {}
func (*UnkeyedList) isNode()      {}
func (*UnkeyedListEntry) isNode() {}
func (*Choice) isNode()           {}
func (*Augmentation) isNode()     {}

func (n *Container) ChildNodes() []Node        { return n.Children }
func (n *MapEntry) ChildNodes() []Node         { return n.Children }
func (n *UnkeyedListEntry) ChildNodes() []Node { return n.Children }
func (n *Choice) ChildNodes() []Node           { return n.Children }
func (n *Augmentation) ChildNodes() []Node     { return n.Children }

func (n *Container) setChildNodes(c []Node)        { n.Children = c }
func (n *MapEntry) setChildNodes(c []Node)         { n.Children = c }
func (n *UnkeyedListEntry) setChildNodes(c []Node) { n.Children = c }
func (n *Choice) setChildNodes(c []Node)           { n.Children = c }
func (n *Augmentation) setChildNodes(c []Node)     { n.Children = c }

// NodeName returns the node's QName; false for augmentations.
func NodeName(n Node) (QName, bool) {
	return n.Identifier().NodeType()
}

// Convenience constructors used by callers building trees by hand.

func NewLeaf(name QName, value any) *Leaf {
	return &Leaf{Name: name, Value: value}
}

func NewContainer(name QName, children ...Node) *Container {
	return &Container{Name: name, Children: children}
}

func NewMapEntry(name QName, keys []Key, children ...Node) *MapEntry {
	return &MapEntry{Name: name, Keys: keys, Children: children}
}

func NewMap(name QName, entries ...*MapEntry) *MapNode {
	return &MapNode{Name: name, Entries: entries}
}
