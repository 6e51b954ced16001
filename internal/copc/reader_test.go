package copc

import "testing"

func TestReaderNodesIntersecting(t *testing.T) {
	recordLen, _ := PointBaseByteSize(7)
	w, sink := newTestWriter(t)

	near := VoxelKey{D: 1, X: 0, Y: 0, Z: 0}  // cube [-100,0)^3
	far := VoxelKey{D: 1, X: 1, Y: 1, Z: 1}   // cube [0,100)^3
	if err := w.AddNode(near, makePoints(4, recordLen)); err != nil {
		t.Fatalf("AddNode(near): %v", err)
	}
	if err := w.AddNode(far, makePoints(4, recordLen)); err != nil {
		t.Fatalf("AddNode(far): %v", err)
	}
	if _, err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	r := openTestReader(t, sink)
	query := Box{Min: Vector3{X: -100, Y: -100, Z: -100}, Max: Vector3{X: -1, Y: -1, Z: -1}}
	nodes, err := r.NodesIntersecting(query)
	if err != nil {
		t.Fatalf("NodesIntersecting: %v", err)
	}
	if len(nodes) != 1 {
		t.Fatalf("got %d nodes, want 1: %+v", len(nodes), nodes)
	}
	if !nodes[0].Key.Equal(near) {
		t.Errorf("matched node %s, want %s", nodes[0].Key, near)
	}
	for _, n := range nodes {
		if n.Key.Equal(far) {
			t.Errorf("query box should not have matched the far sibling node %s", far)
		}
	}
}

func TestReaderNodesIntersectingEmptyQueryMatchesNothing(t *testing.T) {
	recordLen, _ := PointBaseByteSize(7)
	w, sink := newTestWriter(t)
	if err := w.AddNode(RootKey(), makePoints(4, recordLen)); err != nil {
		t.Fatalf("AddNode: %v", err)
	}
	if _, err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	r := openTestReader(t, sink)
	// RootKey covers the whole [-100,100]^3 cube; a query far outside
	// it must match nothing.
	query := Box{Min: Vector3{X: 1000, Y: 1000, Z: 1000}, Max: Vector3{X: 2000, Y: 2000, Z: 2000}}
	nodes, err := r.NodesIntersecting(query)
	if err != nil {
		t.Fatalf("NodesIntersecting: %v", err)
	}
	if len(nodes) != 0 {
		t.Errorf("got %d nodes, want 0: %+v", len(nodes), nodes)
	}
}

func TestReaderWalkVisitsSubPages(t *testing.T) {
	recordLen, _ := PointBaseByteSize(7)
	w, sink := newTestWriter(t)

	if err := w.AddNode(RootKey(), makePoints(4, recordLen)); err != nil {
		t.Fatalf("AddNode root: %v", err)
	}
	sub := VoxelKey{D: 1, X: 1, Y: 1, Z: 1}
	if err := w.AddNodeToPage(sub, makePoints(4, recordLen), sub); err != nil {
		t.Fatalf("AddNodeToPage: %v", err)
	}
	if _, err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	r := openTestReader(t, sink)
	var visited []VoxelKey
	if err := r.Walk(func(key VoxelKey, p *Page) error {
		visited = append(visited, key)
		return nil
	}); err != nil {
		t.Fatalf("Walk: %v", err)
	}
	if len(visited) != 2 {
		t.Fatalf("Walk visited %d pages, want 2 (root + %s): %v", len(visited), sub, visited)
	}
}

func TestReaderCloseClosesUnderlyingCloser(t *testing.T) {
	recordLen, _ := PointBaseByteSize(7)
	w, sink := newTestWriter(t)
	if err := w.AddNode(RootKey(), makePoints(1, recordLen)); err != nil {
		t.Fatalf("AddNode: %v", err)
	}
	if _, err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	r := openTestReader(t, sink)
	if err := r.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}

func TestOpenRejectsBadSignature(t *testing.T) {
	recordLen, _ := PointBaseByteSize(7)
	w, sink := newTestWriter(t)
	if err := w.AddNode(RootKey(), makePoints(1, recordLen)); err != nil {
		t.Fatalf("AddNode: %v", err)
	}
	if _, err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	sink.buf[0] = 'X'
	sink.pos = 0
	_, err := Open(sink, DefaultReaderOptions())
	if err == nil {
		t.Fatalf("expected error opening a file with a corrupted signature")
	}
	if _, ok := err.(*ErrFormat); !ok {
		t.Errorf("expected *ErrFormat, got %T", err)
	}
}

func TestOpenRejectsNonCopcLegalPointFormat(t *testing.T) {
	h, err := NewLasHeader(2, pointBaseByteSize[2], DefaultScale(), DefaultOffset(), false)
	if err != nil {
		t.Fatalf("NewLasHeader: %v", err)
	}
	h.OffsetToPointData = lasHeaderSize
	headerBytes, err := h.ToBytes()
	if err != nil {
		t.Fatalf("ToBytes: %v", err)
	}

	sink := &memSink{}
	if _, err := sink.Write(headerBytes); err != nil {
		t.Fatalf("write header: %v", err)
	}
	sink.pos = 0

	_, err = Open(sink, DefaultReaderOptions())
	if err == nil {
		t.Fatalf("expected error opening a file whose point format is not COPC-legal")
	}
	if _, ok := err.(*ErrFormat); !ok {
		t.Errorf("expected *ErrFormat, got %T", err)
	}
}

func TestOpenRejectsMissingCopcInfoVlr(t *testing.T) {
	h, err := NewLasHeader(7, pointBaseByteSize[7], DefaultScale(), DefaultOffset(), false)
	if err != nil {
		t.Fatalf("NewLasHeader: %v", err)
	}
	h.NumberOfVlrs = 0
	h.OffsetToPointData = lasHeaderSize
	headerBytes, err := h.ToBytes()
	if err != nil {
		t.Fatalf("ToBytes: %v", err)
	}

	sink := &memSink{}
	if _, err := sink.Write(headerBytes); err != nil {
		t.Fatalf("write header: %v", err)
	}
	sink.pos = 0

	_, err = Open(sink, DefaultReaderOptions())
	if err == nil {
		t.Fatalf("expected error opening a file with no copc-info VLR")
	}
	if _, ok := err.(*ErrFormat); !ok {
		t.Errorf("expected *ErrFormat, got %T", err)
	}
}

func TestOpenRejectsEmptyRootHierarchy(t *testing.T) {
	cfg, err := NewCopcConfigWriter(7, DefaultScale(), DefaultOffset(), Vector3{}, 100, 1)
	if err != nil {
		t.Fatalf("NewCopcConfigWriter: %v", err)
	}
	sink := &memSink{}
	w, err := NewWriter(sink, cfg, DefaultWriterOptions())
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}
	// No AddNode calls: the root hierarchy page is empty.
	if _, err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	sink.pos = 0
	_, err = Open(sink, DefaultReaderOptions())
	if err == nil {
		t.Fatalf("expected error opening a file whose root hierarchy page is empty")
	}
	if _, ok := err.(*ErrFormat); !ok {
		t.Errorf("expected *ErrFormat, got %T", err)
	}
}
