package treekv

import (
	"bytes"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/andreyvit/treekv/stream"
	"github.com/andreyvit/treekv/tree"
)

func TestKeyCodec_RoundTrip(t *testing.T) {
	kc := KeyCodec{Prefix: 7}
	paths := []tree.Path{
		{},
		rootPath,
		childPath,
		rootPath.Append(tree.NodeID{Name: qList}, tree.NodeWithKeys{Name: qList, Keys: []tree.Key{{Name: qID, Value: "a"}}}),
	}
	for _, p := range paths {
		key, err := kc.StoreKey(p)
		if err != nil {
			t.Fatalf("** StoreKey(%v) failed: %v", p, err)
		}
		if key[0] != 7 {
			t.Fatalf("** StoreKey(%v) = %x, wanted prefix 07", p, key)
		}
		decoded, err := kc.PathFromKey(key)
		if err != nil {
			t.Fatalf("** PathFromKey(%x) failed: %v", key, err)
		}
		if diff := cmp.Diff(p, decoded, cmpopts.EquateEmpty()); diff != "" {
			t.Errorf("** PathFromKey(StoreKey(%v)) mismatch (-want +got):\n%s", p, diff)
		}
	}
	if !bytes.Equal(kc.PrefixKey(), []byte{7}) {
		t.Fatalf("PrefixKey = %x, wanted 07", kc.PrefixKey())
	}
}

func TestKeyCodec_PrefixMismatch(t *testing.T) {
	kc := KeyCodec{Prefix: 1}
	key, err := KeyCodec{Prefix: 2}.StoreKey(rootPath)
	if err != nil {
		t.Fatal(err)
	}

	_, err = kc.PathFromKey(key)
	var pe *PrefixMismatchError
	if !errors.As(err, &pe) {
		t.Fatalf("PathFromKey(foreign) err = %v, wanted *PrefixMismatchError", err)
	}
	if pe.Got != 2 || pe.Want != 1 {
		t.Fatalf("PrefixMismatchError = %+v, wanted Got=2 Want=1", pe)
	}

	_, err = kc.PathFromKey(nil)
	if !errors.As(err, &pe) {
		t.Fatalf("PathFromKey(nil) err = %v, wanted *PrefixMismatchError", err)
	}

	_, err = kc.PathFromKey([]byte{1, 0, 1, 0x05})
	var de *stream.DecodeError
	if !errors.As(err, &de) {
		t.Fatalf("PathFromKey(garbage) err = %v, wanted *stream.DecodeError", err)
	}
}

func TestKeyCodec_Value(t *testing.T) {
	kc := KeyCodec{Prefix: 1}
	n := tree.NewContainer(qRoot, tree.NewLeaf(qChild, "v"))
	value, err := kc.StoreValue(n)
	if err != nil {
		t.Fatal(err)
	}
	if value[0] != 0 || value[1] != 1 {
		t.Fatalf("StoreValue = %x, wanted version header without prefix byte", value)
	}
	decoded, err := kc.NodeFromValue(value, &qRoot)
	if err != nil {
		t.Fatal(err)
	}
	if !tree.Equal(decoded, n) {
		t.Fatalf("NodeFromValue = %#v, wanted %#v", decoded, n)
	}
	if _, err := kc.NodeFromValue(value, &qChild); err == nil {
		t.Fatalf("NodeFromValue with wrong expected name succeeded")
	}
}

func TestKeyCodec_ParentsSortFirst(t *testing.T) {
	kc := KeyCodec{Prefix: 1}
	parent := rootPath
	child := rootPath.Append(tree.NodeID{Name: tree.NewQName("a", "", "a")})
	grandchild := child.Append(tree.NodeID{Name: tree.NewQName("a", "", "a")})
	other := tree.NewPath(tree.NodeID{Name: tree.NewQName("zzz", "", "zzz")})

	key := func(p tree.Path) []byte {
		k, err := kc.StoreKey(p)
		if err != nil {
			t.Fatal(err)
		}
		return k
	}
	less := [][2]tree.Path{
		{parent, child},
		{other, child},
		{child, grandchild},
		{other, grandchild},
	}
	for _, pair := range less {
		a, b := key(pair[0]), key(pair[1])
		if bytes.Compare(a, b) >= 0 {
			t.Errorf("** key of %v (%x) does not sort before key of %v (%x)", pair[0], a, pair[1], b)
		}
	}
}

func TestExpectedName(t *testing.T) {
	if expectedName(tree.Path{}) != nil {
		t.Fatalf("expectedName(root) != nil")
	}
	if q := expectedName(childPath); q == nil || *q != qChild {
		t.Fatalf("expectedName(%v) = %v, wanted %v", childPath, q, qChild)
	}
	if expectedName(rootPath.Append(tree.NewAugmentationID(qAug))) != nil {
		t.Fatalf("expectedName(augmentation) != nil")
	}
}
