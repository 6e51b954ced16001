package copc

import "testing"

func TestPageAddEntryRejectsUncontainedKey(t *testing.T) {
	p := &Page{Key: VoxelKey{D: 1, X: 1, Y: 1, Z: 1}}
	err := p.AddEntry(Entry{Key: VoxelKey{D: 1, X: 2, Y: 2, Z: 2}})
	if err == nil {
		t.Fatalf("expected error adding entry not contained by page root")
	}
	if _, ok := err.(*ErrKeyNotContained); !ok {
		t.Errorf("expected *ErrKeyNotContained, got %T", err)
	}
}

func TestPageAddEntryRejectsDuplicateKey(t *testing.T) {
	p := &Page{Key: RootKey()}
	key := VoxelKey{D: 1, X: 0, Y: 0, Z: 0}
	if err := p.AddEntry(Entry{Key: key, PointCount: 10}); err != nil {
		t.Fatalf("AddEntry: %v", err)
	}
	err := p.AddEntry(Entry{Key: key, PointCount: 5})
	if err == nil {
		t.Fatalf("expected error adding duplicate key")
	}
	if _, ok := err.(*ErrDuplicateKey); !ok {
		t.Errorf("expected *ErrDuplicateKey, got %T", err)
	}
}

func TestEntryRoundTrip(t *testing.T) {
	e := Entry{Key: VoxelKey{D: 2, X: 1, Y: 2, Z: 3}, ByteOffset: 123456, ByteSize: 789, PointCount: 42}
	got, err := EntryFromBytes(e.ToBytes())
	if err != nil {
		t.Fatalf("EntryFromBytes: %v", err)
	}
	if got != e {
		t.Errorf("round-tripped %+v, want %+v", got, e)
	}
}

func TestPageFromBytesRejectsMisalignedLength(t *testing.T) {
	if _, err := PageFromBytes(RootKey(), make([]byte, EntrySize+1), 0, 0); err == nil {
		t.Errorf("expected error for page bytes not a multiple of 32")
	}
}

func TestHierarchyNearestAncestorPage(t *testing.T) {
	h := NewHierarchy()
	sub := VoxelKey{D: 1, X: 0, Y: 0, Z: 0}
	h.put(&Page{Key: sub})

	leaf := VoxelKey{D: 2, X: 0, Y: 0, Z: 1}
	got := h.nearestAncestorPage(leaf)
	if !got.Key.Equal(sub) {
		t.Errorf("nearestAncestorPage(%s) = %s, want %s", leaf, got.Key, sub)
	}

	unrelated := VoxelKey{D: 1, X: 1, Y: 1, Z: 1}
	got = h.nearestAncestorPage(unrelated)
	if !got.Key.Equal(RootKey()) {
		t.Errorf("nearestAncestorPage(%s) = %s, want root", unrelated, got.Key)
	}
}

func TestHierarchyWalkVisitsInsertionOrder(t *testing.T) {
	h := NewHierarchy()
	a := VoxelKey{D: 1, X: 0, Y: 0, Z: 0}
	b := VoxelKey{D: 1, X: 1, Y: 1, Z: 1}
	h.put(&Page{Key: a})
	h.put(&Page{Key: b})

	var order []VoxelKey
	err := h.Walk(func(key VoxelKey, p *Page) error {
		order = append(order, key)
		return nil
	})
	if err != nil {
		t.Fatalf("Walk: %v", err)
	}
	want := []VoxelKey{RootKey(), a, b}
	if len(order) != len(want) {
		t.Fatalf("Walk visited %d pages, want %d", len(order), len(want))
	}
	for i := range want {
		if !order[i].Equal(want[i]) {
			t.Errorf("order[%d] = %s, want %s", i, order[i], want[i])
		}
	}
}
