package tree

import "slices"

// Equal reports whether two nodes are structurally equal. Ordered lists and
// ordered leaf-lists compare element by element; children of data
// containers, unordered lists and unordered leaf-lists compare as sets.
func Equal(a, b Node) bool {
	if IsNil(a) || IsNil(b) {
		return IsNil(a) && IsNil(b)
	}
	switch a := a.(type) {
	case *Leaf:
		b, ok := b.(*Leaf)
		return ok && a.Name == b.Name && ValuesEqual(a.Value, b.Value)
	case *LeafSet:
		b, ok := b.(*LeafSet)
		if !ok || a.Name != b.Name || a.Ordered != b.Ordered || len(a.Values) != len(b.Values) {
			return false
		}
		if a.Ordered {
			for i := range a.Values {
				if !ValuesEqual(a.Values[i], b.Values[i]) {
					return false
				}
			}
			return true
		}
		return sameValueSet(a.Values, b.Values)
	case *Container:
		b, ok := b.(*Container)
		return ok && a.Name == b.Name && sameChildren(a.Children, b.Children)
	case *Choice:
		b, ok := b.(*Choice)
		return ok && a.Name == b.Name && sameChildren(a.Children, b.Children)
	case *Augmentation:
		b, ok := b.(*Augmentation)
		return ok && PathArgsEqual(a.Identifier(), b.Identifier()) && sameChildren(a.Children, b.Children)
	case *MapEntry:
		b, ok := b.(*MapEntry)
		return ok && a.Name == b.Name && keysEqual(a.Keys, b.Keys) && sameChildren(a.Children, b.Children)
	case *UnkeyedListEntry:
		b, ok := b.(*UnkeyedListEntry)
		return ok && a.Name == b.Name && sameChildren(a.Children, b.Children)
	case *MapNode:
		b, ok := b.(*MapNode)
		if !ok || a.Name != b.Name || a.Ordered != b.Ordered || len(a.Entries) != len(b.Entries) {
			return false
		}
		if a.Ordered {
			for i := range a.Entries {
				if !Equal(a.Entries[i], b.Entries[i]) {
					return false
				}
			}
			return true
		}
		return sameChildren(entriesAsNodes(a.Entries), entriesAsNodes(b.Entries))
	case *UnkeyedList:
		b, ok := b.(*UnkeyedList)
		if !ok || a.Name != b.Name || len(a.Entries) != len(b.Entries) {
			return false
		}
		for i := range a.Entries {
			if !Equal(a.Entries[i], b.Entries[i]) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

func sameChildren(a, b []Node) bool {
	if len(a) != len(b) {
		return false
	}
	used := make([]bool, len(b))
	for _, ac := range a {
		i := slices.IndexFunc(b, func(bc Node) bool {
			return sameIdentifier(ac, bc)
		})
		if i < 0 || used[i] || !Equal(ac, b[i]) {
			return false
		}
		used[i] = true
	}
	return true
}

func sameIdentifier(a, b Node) bool {
	if IsNil(a) || IsNil(b) {
		return IsNil(a) && IsNil(b)
	}
	return PathArgsEqual(a.Identifier(), b.Identifier())
}

func sameValueSet(a, b []any) bool {
	used := make([]bool, len(b))
outer:
	for _, av := range a {
		for i, bv := range b {
			if !used[i] && ValuesEqual(av, bv) {
				used[i] = true
				continue outer
			}
		}
		return false
	}
	return true
}

func entriesAsNodes(entries []*MapEntry) []Node {
	nodes := make([]Node, len(entries))
	for i, e := range entries {
		nodes[i] = e
	}
	return nodes
}
