package tree

import (
	"errors"
	"fmt"
	"slices"
	"sync"
)

// Sink receives tree mutations, e.g. while a stored tree is replayed.
type Sink interface {
	Write(path Path, node Node) error
	Delete(path Path) error
}

var (
	ErrParentNotFound  = errors.New("parent node does not exist")
	ErrNotAddressable  = errors.New("path step does not address a child of this node")
	ErrIdentifierClash = errors.New("node identifier does not match path step")
)

// Tree is an in-memory data tree that implements Sink. Writes replace whole
// subtrees; the parent of a written node must already exist.
type Tree struct {
	mu   sync.RWMutex
	root Node
}

func NewTree() *Tree {
	return &Tree{root: &Container{}}
}

func (t *Tree) Root() Node {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.root
}

// Read returns the node at path.
func (t *Tree) Read(path Path) (Node, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return lookup(t.root, path)
}

func (t *Tree) Write(path Path, node Node) error {
	if IsNil(node) {
		return fmt.Errorf("write %v: nil node", path)
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if path.IsRoot() {
		t.root = node
		return nil
	}
	parent, ok := lookup(t.root, path.Parent())
	if !ok {
		return fmt.Errorf("write %v: %w", path, ErrParentNotFound)
	}
	if err := putChild(parent, path.Last(), node); err != nil {
		return fmt.Errorf("write %v: %w", path, err)
	}
	return nil
}

// Delete removes the node at path. Deleting a missing node is not an error.
func (t *Tree) Delete(path Path) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if path.IsRoot() {
		t.root = &Container{}
		return nil
	}
	parent, ok := lookup(t.root, path.Parent())
	if !ok {
		return nil
	}
	return removeChild(parent, path.Last())
}

func lookup(n Node, path Path) (Node, bool) {
	for _, arg := range path {
		var ok bool
		n, ok = lookupChild(n, arg)
		if !ok {
			return nil, false
		}
	}
	return n, true
}

func lookupChild(parent Node, arg PathArg) (Node, bool) {
	switch p := parent.(type) {
	case DataContainer:
		children := p.ChildNodes()
		if i := indexOfChild(children, arg); i >= 0 {
			return children[i], true
		}
	case *MapNode:
		for _, e := range p.Entries {
			if PathArgsEqual(e.Identifier(), arg) {
				return e, true
			}
		}
	case *UnkeyedList:
		if a, ok := arg.(Indexed); ok && a.Name == p.Name && a.Index < uint64(len(p.Entries)) {
			return p.Entries[a.Index], true
		}
	}
	return nil, false
}

func putChild(parent Node, arg PathArg, child Node) error {
	switch p := parent.(type) {
	case DataContainer:
		if !PathArgsEqual(child.Identifier(), arg) {
			return fmt.Errorf("%w: %v vs %v", ErrIdentifierClash, child.Identifier(), arg)
		}
		children := p.ChildNodes()
		if i := indexOfChild(children, arg); i >= 0 {
			children[i] = child
		} else {
			p.setChildNodes(append(children, child))
		}
		return nil
	case *MapNode:
		e, ok := child.(*MapEntry)
		if !ok || !PathArgsEqual(e.Identifier(), arg) {
			return fmt.Errorf("%w: %v vs %v", ErrIdentifierClash, child.Identifier(), arg)
		}
		for i, old := range p.Entries {
			if PathArgsEqual(old.Identifier(), arg) {
				p.Entries[i] = e
				return nil
			}
		}
		p.Entries = append(p.Entries, e)
		return nil
	case *UnkeyedList:
		a, ok := arg.(Indexed)
		if !ok || a.Name != p.Name {
			return ErrNotAddressable
		}
		e, ok := child.(*UnkeyedListEntry)
		if !ok || e.Name != p.Name {
			return fmt.Errorf("%w: %v vs %v", ErrIdentifierClash, child.Identifier(), arg)
		}
		switch {
		case a.Index < uint64(len(p.Entries)):
			p.Entries[a.Index] = e
		case a.Index == uint64(len(p.Entries)):
			p.Entries = append(p.Entries, e)
		default:
			return fmt.Errorf("index %d beyond end of %d-entry list", a.Index, len(p.Entries))
		}
		return nil
	default:
		return ErrNotAddressable
	}
}

func removeChild(parent Node, arg PathArg) error {
	switch p := parent.(type) {
	case DataContainer:
		if i := indexOfChild(p.ChildNodes(), arg); i >= 0 {
			p.setChildNodes(slices.Delete(p.ChildNodes(), i, i+1))
		}
	case *MapNode:
		p.Entries = slices.DeleteFunc(p.Entries, func(e *MapEntry) bool {
			return PathArgsEqual(e.Identifier(), arg)
		})
	case *UnkeyedList:
		if a, ok := arg.(Indexed); ok && a.Name == p.Name && a.Index < uint64(len(p.Entries)) {
			p.Entries = slices.Delete(p.Entries, int(a.Index), int(a.Index)+1)
		}
	default:
		return ErrNotAddressable
	}
	return nil
}

func indexOfChild(children []Node, arg PathArg) int {
	return slices.IndexFunc(children, func(c Node) bool {
		return PathArgsEqual(c.Identifier(), arg)
	})
}
