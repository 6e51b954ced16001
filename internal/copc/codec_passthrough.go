package copc

import "fmt"

// PassthroughCodec is a byte-identity test double: Compress and
// Decompress are the identity function. It lets the writer/reader
// round-trip be exercised end to end (spec.md §8 properties 4/5)
// without a real LAZ entropy coder.
type PassthroughCodec struct{}

// Compress returns points unchanged, after validating the buffer
// length matches pointCount*record length.
func (PassthroughCodec) Compress(points []byte, pointCount int, schema PointSchema) ([]byte, error) {
	want := pointCount * schema.PointRecordLength
	if len(points) != want {
		return nil, &ErrCompression{Reason: fmt.Sprintf("point buffer is %d bytes, want %d (%d points × %d)", len(points), want, pointCount, schema.PointRecordLength)}
	}
	out := make([]byte, len(points))
	copy(out, points)
	return out, nil
}

// Decompress returns data unchanged, after validating its length
// matches pointCount*record length.
func (PassthroughCodec) Decompress(data []byte, pointCount int, schema PointSchema) ([]byte, error) {
	want := pointCount * schema.PointRecordLength
	if len(data) != want {
		return nil, &ErrCompression{Reason: fmt.Sprintf("compressed buffer is %d bytes, want %d (%d points × %d)", len(data), want, pointCount, schema.PointRecordLength)}
	}
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

// ChunkTableEntry reports the chunk's literal byte length, since the
// passthrough codec never shrinks the data.
func (PassthroughCodec) ChunkTableEntry(compressed []byte, pointCount int) ChunkTableEntry {
	return ChunkTableEntry{CompressedByteSize: int64(len(compressed)), PointCount: int32(pointCount)}
}
