package copc

import (
	"encoding/binary"
	"fmt"
	"io"
)

// writerState tracks the OPEN -> ADDING -> CLOSED lifecycle (spec.md
// §3 "Lifecycles"). OPEN and ADDING both accept AddNode*/Close calls;
// the writer records ADDING after the first successful add, but only
// CLOSED gates writes and Stats does not report the state. spec.md §4.F describes add_node's precondition as "writer
// is OPEN" loosely, i.e. "not yet closed", since its own scenario S2
// adds three nodes in a row with no re-opening step in between.
type writerState int

const (
	writerOpen writerState = iota
	writerAdding
	writerClosed
)

func (s writerState) String() string {
	switch s {
	case writerOpen:
		return "open"
	case writerAdding:
		return "adding"
	case writerClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// WriterOptions configures NewWriter.
type WriterOptions struct {
	// Codec compresses point chunks as they are added. Defaults to
	// PassthroughCodec when left nil.
	Codec Codec
}

// DefaultWriterOptions returns WriterOptions with PassthroughCodec.
func DefaultWriterOptions() WriterOptions {
	return WriterOptions{Codec: PassthroughCodec{}}
}

// WriterStats reports running totals, useful for progress reporting
// without re-opening a Reader (spec.md §8 module F supplement).
type WriterStats struct {
	ChunksWritten int
	BytesWritten  int64
	NodesWritten  int

	// BoundsFromCompressedOnly is set once AddNodeCompressed has been
	// called: that path never decompresses, so header min/max and the
	// points-by-return histogram are not auto-maintained for it (the
	// bounding-box accumulation open question, spec.md §9). Callers
	// who mix AddNode and AddNodeCompressed, or use AddNodeCompressed
	// exclusively, must set bounds on the config themselves before
	// Close if they need accurate extents.
	BoundsFromCompressedOnly bool
}

// Writer implements the COPC writer state machine: it owns the output
// byte sink, the in-progress chunk table, and the page tree under
// construction, producing the stream layout of spec.md §4.F.
type Writer struct {
	sink  io.WriteSeeker
	pos   int64
	codec Codec

	config *CopcConfigWriter
	hier   *Hierarchy
	state  writerState
	stats  WriterStats

	chunkTable []ChunkTableEntry

	headerOffset       int64
	copcInfoPayloadOff int64

	boundsPointCount int64
}

// NewWriter opens a writer over sink using the given COPC config and
// options, reserving space for the header and VLRs whose final
// contents are only known at Close (spec.md §4.F steps 1-3).
func NewWriter(sink io.WriteSeeker, config *CopcConfigWriter, opts WriterOptions) (*Writer, error) {
	if opts.Codec == nil {
		opts.Codec = PassthroughCodec{}
	}
	w := &Writer{
		sink:   sink,
		codec:  opts.Codec,
		config: config,
		hier:   NewHierarchy(),
		state:  writerOpen,
	}
	if err := w.writePreamble(); err != nil {
		return nil, err
	}
	return w, nil
}

func (w *Writer) write(data []byte) error {
	n, err := w.sink.Write(data)
	w.pos += int64(n)
	if err != nil {
		return fmt.Errorf("write: %w", err)
	}
	return nil
}

func (w *Writer) writePreamble() error {
	w.headerOffset = w.pos
	if err := w.write(make([]byte, lasHeaderSize)); err != nil {
		return err
	}

	numVlrs := uint32(1) // copc-info, always present
	infoHeader := VlrHeader{UserID: copcUserID, RecordID: CopcInfoRecordID, DataLength: copcInfoVlrSize}
	if err := w.write(infoHeader.ToBytes()); err != nil {
		return err
	}
	w.copcInfoPayloadOff = w.pos
	if err := w.write(make([]byte, copcInfoVlrSize)); err != nil {
		return err
	}

	if w.config.Wkt.Wkt != "" {
		wktBytes := []byte(w.config.Wkt.Wkt)
		h := VlrHeader{UserID: "LASF_Projection", RecordID: 2112, DataLength: uint64(len(wktBytes))}
		if err := w.write(h.ToBytes()); err != nil {
			return err
		}
		if err := w.write(wktBytes); err != nil {
			return err
		}
		numVlrs++
	}

	if len(w.config.ExtraBytes.Items) > 0 {
		ebBytes := w.config.ExtraBytes.ToBytes()
		h := VlrHeader{UserID: "LASF_Spec", RecordID: 4, DataLength: uint64(len(ebBytes))}
		if err := w.write(h.ToBytes()); err != nil {
			return err
		}
		if err := w.write(ebBytes); err != nil {
			return err
		}
		numVlrs++
	}

	w.config.Header.NumberOfVlrs = numVlrs
	w.config.Header.OffsetToPointData = uint32(w.pos)
	return nil
}

// AddNode compresses points (whose length must be a positive multiple
// of the header's point record length) and appends the resulting
// chunk under the root page.
func (w *Writer) AddNode(key VoxelKey, points []byte) error {
	return w.addNode(key, points, nil, false, 0)
}

// AddNodeToPage is AddNode, but the entry is recorded under the
// sub-page rooted at pageKey (created on first use).
func (w *Writer) AddNodeToPage(key VoxelKey, points []byte, pageKey VoxelKey) error {
	return w.addNode(key, points, &pageKey, false, 0)
}

// AddNodeCompressed records a pre-compressed chunk verbatim; pointCount
// is taken on faith since the writer never decompresses this path (see
// WriterStats.BoundsFromCompressedOnly).
func (w *Writer) AddNodeCompressed(key VoxelKey, compressed []byte, pointCount int) error {
	return w.addNode(key, compressed, nil, true, pointCount)
}

// AddNodeCompressedToPage is AddNodeCompressed under an explicit sub-page.
func (w *Writer) AddNodeCompressedToPage(key VoxelKey, compressed []byte, pointCount int, pageKey VoxelKey) error {
	return w.addNode(key, compressed, &pageKey, true, pointCount)
}

func (w *Writer) addNode(key VoxelKey, data []byte, pageKey *VoxelKey, precompressed bool, pointCount int) error {
	if w.state == writerClosed {
		return &ErrState{Reason: "writer is closed"}
	}
	if !key.IsValid() {
		return &ErrInvalidKey{Key: key}
	}

	recordLen := int(w.config.Header.PointRecordLength)
	var compressed []byte

	if precompressed {
		if len(data) == 0 {
			return &ErrEmptyPointBuffer{Len: 0, PointRecordLen: recordLen}
		}
		compressed = data
	} else {
		if len(data) == 0 || len(data)%recordLen != 0 {
			return &ErrEmptyPointBuffer{Len: len(data), PointRecordLen: recordLen}
		}
		pointCount = len(data) / recordLen
		schema := PointSchema{
			PointFormatID:     w.config.Header.PointFormatID,
			PointRecordLength: recordLen,
			ExtraBytes:        w.config.ExtraBytes,
		}
		var err error
		compressed, err = w.codec.Compress(data, pointCount, schema)
		if err != nil {
			return err
		}
		w.accumulateBounds(data, pointCount)
	}

	target, err := w.resolveTargetPage(key, pageKey)
	if err != nil {
		return err
	}

	offset := w.pos
	if err := w.write(compressed); err != nil {
		return err
	}

	entry := Entry{
		Key:        key,
		ByteOffset: uint64(offset),
		ByteSize:   int32(len(compressed)),
		PointCount: int32(pointCount),
	}
	if err := target.AddEntry(entry); err != nil {
		return err
	}

	cte := w.codec.ChunkTableEntry(compressed, pointCount)
	w.chunkTable = append(w.chunkTable, cte)
	w.stats.ChunksWritten++
	w.stats.BytesWritten += int64(len(compressed))
	w.stats.NodesWritten++
	if precompressed {
		w.stats.BoundsFromCompressedOnly = true
	}
	w.state = writerAdding
	return nil
}

// resolveTargetPage finds (creating if needed) the page a node belongs
// to, and — when a new sub-page is created — records the page-pointer
// entry in its nearest ancestor page (spec.md §4.E).
func (w *Writer) resolveTargetPage(key VoxelKey, pageKey *VoxelKey) (*Page, error) {
	if pageKey == nil || pageKey.Equal(RootKey()) {
		if pageKey != nil && !pageKey.Contains(key) {
			return nil, &ErrKeyNotContained{PageKey: *pageKey, NodeKey: key}
		}
		return w.hier.Root(), nil
	}

	if !pageKey.IsValid() {
		return nil, &ErrInvalidKey{Key: *pageKey}
	}
	if !pageKey.Contains(key) {
		return nil, &ErrKeyNotContained{PageKey: *pageKey, NodeKey: key}
	}

	if existing, ok := w.hier.Page(*pageKey); ok {
		return existing, nil
	}

	parent := w.hier.nearestAncestorPage(*pageKey)
	if err := parent.AddEntry(Entry{Key: *pageKey, PointCount: -1}); err != nil {
		return nil, err
	}
	return w.hier.EnsurePage(*pageKey), nil
}

func (w *Writer) accumulateBounds(points []byte, pointCount int) {
	recordLen := int(w.config.Header.PointRecordLength)
	scale := w.config.Header.Scale
	offset := w.config.Header.Offset
	h := &w.config.Header

	for i := 0; i < pointCount; i++ {
		rec := points[i*recordLen:]
		x := float64(int32(binary.LittleEndian.Uint32(rec[0:4])))*scale.X + offset.X
		y := float64(int32(binary.LittleEndian.Uint32(rec[4:8])))*scale.Y + offset.Y
		z := float64(int32(binary.LittleEndian.Uint32(rec[8:12])))*scale.Z + offset.Z

		if w.boundsPointCount == 0 {
			h.Max = Vector3{X: x, Y: y, Z: z}
			h.Min = Vector3{X: x, Y: y, Z: z}
		} else {
			h.Max.X, h.Min.X = maxf(h.Max.X, x), minf(h.Min.X, x)
			h.Max.Y, h.Min.Y = maxf(h.Max.Y, y), minf(h.Min.Y, y)
			h.Max.Z, h.Min.Z = maxf(h.Max.Z, z), minf(h.Min.Z, z)
		}
		w.boundsPointCount++

		if len(rec) > 14 {
			returnNumber := int(rec[14] & 0x0F)
			if returnNumber >= 1 && returnNumber <= 15 {
				h.NumberOfPointsByReturn[returnNumber-1]++
			}
		}
	}
}

func maxf(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

func minf(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

// Stats returns a snapshot of running writer totals.
func (w *Writer) Stats() WriterStats { return w.stats }

// Close finalizes the chunk table, serializes every hierarchy page
// depth-first, and patches the header and COPC-info VLR with their
// final offsets (spec.md §4.F steps 5-7). It is idempotent: calling
// Close on an already-closed Writer returns StateError.
func (w *Writer) Close() (CopcConfig, error) {
	if w.state == writerClosed {
		return CopcConfig{}, &ErrState{Reason: "writer already closed"}
	}

	if err := w.writeChunkTable(); err != nil {
		return CopcConfig{}, err
	}

	var order []VoxelKey
	var visit func(k VoxelKey)
	visit = func(k VoxelKey) {
		order = append(order, k)
		p, _ := w.hier.Page(k)
		for _, e := range p.Entries {
			if e.IsPagePointer() {
				visit(e.Key)
			}
		}
	}
	visit(RootKey())
	sizes := make(map[VoxelKey]int32, len(order))
	var totalHierBytes int64
	for _, k := range order {
		p, _ := w.hier.Page(k)
		sz := int32(len(p.Entries) * EntrySize)
		sizes[k] = sz
		totalHierBytes += int64(sz)
	}

	evlrOffset := w.pos
	hierHeader := VlrHeader{UserID: copcUserID, RecordID: CopcHierarchyRecordID, DataLength: uint64(totalHierBytes), EvlrFlag: true}
	if err := w.write(hierHeader.ToBytes()); err != nil {
		return CopcConfig{}, err
	}

	offsets := make(map[VoxelKey]uint64, len(order))
	cursor := uint64(w.pos)
	for _, k := range order {
		offsets[k] = cursor
		cursor += uint64(sizes[k])
	}

	for _, k := range order {
		p, _ := w.hier.Page(k)
		for i := range p.Entries {
			if p.Entries[i].IsPagePointer() {
				child := p.Entries[i].Key
				p.Entries[i].ByteOffset = offsets[child]
				p.Entries[i].ByteSize = sizes[child]
			}
		}
	}

	for _, k := range order {
		p, _ := w.hier.Page(k)
		if err := w.write(p.ToBytes()); err != nil {
			return CopcConfig{}, err
		}
	}

	rootSize := sizes[RootKey()]
	w.config.Info.RootHierOffset = offsets[RootKey()]
	w.config.Info.RootHierSize = uint64(rootSize)

	w.config.Header.StartOfFirstEvlr = uint64(evlrOffset)
	w.config.Header.NumberOfEvlrs = 1

	var totalPoints int64
	_ = w.hier.Walk(func(_ VoxelKey, p *Page) error {
		for _, e := range p.Entries {
			if !e.IsPagePointer() {
				totalPoints += int64(e.PointCount)
			}
		}
		return nil
	})
	w.config.Header.PointCount = uint64(totalPoints)

	if err := w.patchHeader(); err != nil {
		return CopcConfig{}, err
	}
	if err := w.patchCopcInfo(); err != nil {
		return CopcConfig{}, err
	}

	w.state = writerClosed
	return w.config.View(), nil
}

// writeChunkTable writes a simplified chunk table: a uint64 chunk count
// followed by one (uint32 compressed size, uint32 point count) pair per
// chunk. It is not the codec-specific LAZ chunk table encoding; the
// reader locates chunks through hierarchy entries and never reads it.
func (w *Writer) writeChunkTable() error {
	buf := make([]byte, 8, 8+len(w.chunkTable)*8)
	binary.LittleEndian.PutUint64(buf, uint64(len(w.chunkTable)))
	for _, c := range w.chunkTable {
		var entry [8]byte
		binary.LittleEndian.PutUint32(entry[0:4], uint32(c.CompressedByteSize))
		binary.LittleEndian.PutUint32(entry[4:8], uint32(c.PointCount))
		buf = append(buf, entry[:]...)
	}
	return w.write(buf)
}

func (w *Writer) patchHeader() error {
	headerBytes, err := w.config.Header.ToBytes()
	if err != nil {
		return err
	}
	if _, err := w.sink.Seek(w.headerOffset, io.SeekStart); err != nil {
		return fmt.Errorf("seek to patch header: %w", err)
	}
	if _, err := w.sink.Write(headerBytes); err != nil {
		return fmt.Errorf("patch header: %w", err)
	}
	return nil
}

func (w *Writer) patchCopcInfo() error {
	infoBytes := w.config.Info.ToBytes()
	if _, err := w.sink.Seek(w.copcInfoPayloadOff, io.SeekStart); err != nil {
		return fmt.Errorf("seek to patch copc-info: %w", err)
	}
	if _, err := w.sink.Write(infoBytes); err != nil {
		return fmt.Errorf("patch copc-info: %w", err)
	}
	return nil
}
