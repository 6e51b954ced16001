package copc

// PointSchema describes the point layout a Codec must compress against:
// the base LAS point format plus any extra-bytes fields appended to it.
type PointSchema struct {
	PointFormatID     int8
	PointRecordLength int
	ExtraBytes        EbVlr
}

// ChunkTableEntry is the per-chunk bookkeeping record a Codec reports
// back to the writer for inclusion in the LAZ chunk table (spec.md
// §4.F step 5).
type ChunkTableEntry struct {
	CompressedByteSize int64
	PointCount         int32
}

// Codec is the injected compression capability the writer and reader
// use to turn raw point bytes into compressed chunks and back. The
// codec is treated as an external collaborator: the LAZ entropy coder
// itself is out of scope for this library (spec.md §1), so production
// callers supply their own Codec implementation while tests use
// PassthroughCodec.
type Codec interface {
	// Compress encodes pointCount points (raw bytes, schema.PointRecordLength
	// each) into a compressed chunk.
	Compress(points []byte, pointCount int, schema PointSchema) ([]byte, error)

	// Decompress reverses Compress, returning exactly
	// pointCount * schema.PointRecordLength bytes.
	Decompress(data []byte, pointCount int, schema PointSchema) ([]byte, error)

	// ChunkTableEntry reports the metadata the writer must record for a
	// chunk just produced by Compress.
	ChunkTableEntry(compressed []byte, pointCount int) ChunkTableEntry
}
