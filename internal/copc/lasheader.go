package copc

import (
	"encoding/binary"
	"fmt"
	"math"
)

// pointBaseByteSize gives the fixed (non-extra-bytes) byte size of each
// LAS point data record format. COPC-legal formats are 6-10; 0-5 are
// included because LasHeader must round-trip headers written by other
// tools that predate COPC.
var pointBaseByteSize = map[int8]int{
	0: 20, 1: 28, 2: 26, 3: 34, 4: 57, 5: 63,
	6: 30, 7: 36, 8: 38, 9: 59, 10: 67,
}

// PointBaseByteSize returns the fixed byte size of the given LAS point
// format, or an error if the format is unrecognized.
func PointBaseByteSize(pointFormatID int8) (int, error) {
	size, ok := pointBaseByteSize[pointFormatID]
	if !ok {
		return 0, &ErrFormat{Reason: fmt.Sprintf("unknown point format id %d", pointFormatID)}
	}
	return size, nil
}

// IsCopcLegalPointFormat reports whether pointFormatID is one of the
// point formats COPC 1.0 permits (6, 7, 8, 9, 10).
func IsCopcLegalPointFormat(pointFormatID int8) bool {
	switch pointFormatID {
	case 6, 7, 8, 9, 10:
		return true
	default:
		return false
	}
}

// lasHeaderSize is the fixed size (bytes) of a LAS 1.4 public header block.
const lasHeaderSize = 375

// lasFileSignature is the required 4-byte magic at the start of every
// LAS file.
var lasFileSignature = [4]byte{'L', 'A', 'S', 'F'}

// LasHeader is an in-memory mirror of the LAS 1.4 public header block
// fields relevant to COPC.
//
// offset_to_point_data, point_count, min, max, and
// number_of_points_by_return are not authoritative until Writer.Close
// patches them in (see spec.md §4.F step 7).
type LasHeader struct {
	VersionMajor, VersionMinor uint8
	SystemIdentifier           string // max 32 bytes
	GeneratingSoftware         string // max 32 bytes
	FileCreationDayOfYear      uint16
	FileCreationYear           uint16
	HeaderSize                 uint16
	OffsetToPointData          uint32
	NumberOfVlrs               uint32
	PointFormatID              int8
	PointRecordLength          uint16
	PointCount                 uint64
	NumberOfPointsByReturn     [15]uint64
	Scale                      Vector3
	Offset                     Vector3
	Max                        Vector3
	Min                        Vector3
	StartOfWaveformDataPacket  uint64
	StartOfFirstEvlr           uint64
	NumberOfEvlrs              uint32
	GlobalEncoding             uint16
	FileSourceID               uint16
	ProjectID                  [16]byte

	// isCopc is a library-level marker, not part of the LAS wire
	// format: CopcConfig forces it true on construction, mirroring the
	// original's LasHeader(header, /*is_copc=*/true) copy constructor.
	isCopc bool
}

// NewLasHeader builds a header for pointRecordLen-byte point records
// (base format size plus any extra bytes) with the given scale/offset.
// isCopc marks whether this header belongs to a COPC file.
func NewLasHeader(pointFormatID int8, pointRecordLen int, scale, offset Vector3, isCopc bool) (LasHeader, error) {
	if _, err := PointBaseByteSize(pointFormatID); err != nil {
		return LasHeader{}, err
	}
	return LasHeader{
		VersionMajor:       1,
		VersionMinor:       4,
		HeaderSize:         lasHeaderSize,
		PointFormatID:      pointFormatID,
		PointRecordLength:  uint16(pointRecordLen),
		Scale:              scale,
		Offset:             offset,
		GlobalEncoding:     1 << 4, // bit 4: WKT CRS in use, required for formats >= 6
		isCopc:             isCopc,
	}, nil
}

// IsCopc reports whether this header was constructed for a COPC file.
func (h LasHeader) IsCopc() bool { return h.isCopc }

// WithCopc returns a copy of h with the COPC marker forced true, used
// when copying any LasHeader into a CopcConfig (spec.md §4.B).
func (h LasHeader) WithCopc() LasHeader {
	h.isCopc = true
	return h
}

// ToBytes serializes the header into a 375-byte LAS 1.4 public header
// block.
func (h LasHeader) ToBytes() ([]byte, error) {
	buf := make([]byte, lasHeaderSize)
	off := 0

	copy(buf[off:off+4], lasFileSignature[:])
	off += 4

	binary.LittleEndian.PutUint16(buf[off:], h.FileSourceID)
	off += 2
	binary.LittleEndian.PutUint16(buf[off:], h.GlobalEncoding)
	off += 2

	copy(buf[off:off+16], h.ProjectID[:])
	off += 16

	buf[off] = h.VersionMajor
	off++
	buf[off] = h.VersionMinor
	off++

	off += copyFixedString(buf[off:off+32], h.SystemIdentifier)
	off += copyFixedString(buf[off:off+32], h.GeneratingSoftware)

	binary.LittleEndian.PutUint16(buf[off:], h.FileCreationDayOfYear)
	off += 2
	binary.LittleEndian.PutUint16(buf[off:], h.FileCreationYear)
	off += 2
	binary.LittleEndian.PutUint16(buf[off:], h.HeaderSize)
	off += 2
	binary.LittleEndian.PutUint32(buf[off:], h.OffsetToPointData)
	off += 4
	binary.LittleEndian.PutUint32(buf[off:], h.NumberOfVlrs)
	off += 4

	buf[off] = byte(h.PointFormatID)
	off++
	binary.LittleEndian.PutUint16(buf[off:], h.PointRecordLength)
	off += 2

	// Legacy (LAS <=1.3) point count / points-by-return: 0 when the
	// real counts overflow uint32, per LAS 1.4 §2.3.
	legacyCount := uint32(0)
	if h.PointCount <= 0xFFFFFFFF {
		legacyCount = uint32(h.PointCount)
	}
	binary.LittleEndian.PutUint32(buf[off:], legacyCount)
	off += 4
	for i := 0; i < 5; i++ {
		legacy := uint32(0)
		if h.NumberOfPointsByReturn[i] <= 0xFFFFFFFF {
			legacy = uint32(h.NumberOfPointsByReturn[i])
		}
		binary.LittleEndian.PutUint32(buf[off:], legacy)
		off += 4
	}

	putFloat64(buf[off:], h.Scale.X)
	off += 8
	putFloat64(buf[off:], h.Scale.Y)
	off += 8
	putFloat64(buf[off:], h.Scale.Z)
	off += 8
	putFloat64(buf[off:], h.Offset.X)
	off += 8
	putFloat64(buf[off:], h.Offset.Y)
	off += 8
	putFloat64(buf[off:], h.Offset.Z)
	off += 8

	putFloat64(buf[off:], h.Max.X)
	off += 8
	putFloat64(buf[off:], h.Min.X)
	off += 8
	putFloat64(buf[off:], h.Max.Y)
	off += 8
	putFloat64(buf[off:], h.Min.Y)
	off += 8
	putFloat64(buf[off:], h.Max.Z)
	off += 8
	putFloat64(buf[off:], h.Min.Z)
	off += 8

	binary.LittleEndian.PutUint64(buf[off:], h.StartOfWaveformDataPacket)
	off += 8
	binary.LittleEndian.PutUint64(buf[off:], h.StartOfFirstEvlr)
	off += 8
	binary.LittleEndian.PutUint32(buf[off:], h.NumberOfEvlrs)
	off += 4
	binary.LittleEndian.PutUint64(buf[off:], h.PointCount)
	off += 8
	for i := 0; i < 15; i++ {
		binary.LittleEndian.PutUint64(buf[off:], h.NumberOfPointsByReturn[i])
		off += 8
	}

	if off != lasHeaderSize {
		return nil, &ErrFormat{Reason: fmt.Sprintf("internal error: wrote %d bytes, want %d", off, lasHeaderSize)}
	}
	return buf, nil
}

// LasHeaderFromBytes parses a 375-byte LAS 1.4 public header block.
func LasHeaderFromBytes(data []byte) (LasHeader, error) {
	if len(data) < lasHeaderSize {
		return LasHeader{}, &ErrFormat{Reason: fmt.Sprintf("header too short: %d bytes, want %d", len(data), lasHeaderSize)}
	}

	var sig [4]byte
	copy(sig[:], data[0:4])
	if sig != lasFileSignature {
		return LasHeader{}, &ErrFormat{Reason: "missing LASF file signature"}
	}

	var h LasHeader
	off := 4

	h.FileSourceID = binary.LittleEndian.Uint16(data[off:])
	off += 2
	h.GlobalEncoding = binary.LittleEndian.Uint16(data[off:])
	off += 2

	copy(h.ProjectID[:], data[off:off+16])
	off += 16

	h.VersionMajor = data[off]
	off++
	h.VersionMinor = data[off]
	off++
	if h.VersionMajor != 1 || h.VersionMinor != 4 {
		return LasHeader{}, &ErrFormat{Reason: fmt.Sprintf("not a LAS 1.4 file (version %d.%d)", h.VersionMajor, h.VersionMinor)}
	}

	h.SystemIdentifier = readFixedString(data[off : off+32])
	off += 32
	h.GeneratingSoftware = readFixedString(data[off : off+32])
	off += 32

	h.FileCreationDayOfYear = binary.LittleEndian.Uint16(data[off:])
	off += 2
	h.FileCreationYear = binary.LittleEndian.Uint16(data[off:])
	off += 2
	h.HeaderSize = binary.LittleEndian.Uint16(data[off:])
	off += 2
	h.OffsetToPointData = binary.LittleEndian.Uint32(data[off:])
	off += 4
	h.NumberOfVlrs = binary.LittleEndian.Uint32(data[off:])
	off += 4

	h.PointFormatID = int8(data[off])
	off++
	h.PointRecordLength = binary.LittleEndian.Uint16(data[off:])
	off += 2

	// Skip legacy point count + 5 legacy points-by-return (24 bytes);
	// the authoritative LAS 1.4 fields are read below.
	off += 4 + 5*4

	h.Scale.X = getFloat64(data[off:])
	off += 8
	h.Scale.Y = getFloat64(data[off:])
	off += 8
	h.Scale.Z = getFloat64(data[off:])
	off += 8
	h.Offset.X = getFloat64(data[off:])
	off += 8
	h.Offset.Y = getFloat64(data[off:])
	off += 8
	h.Offset.Z = getFloat64(data[off:])
	off += 8

	h.Max.X = getFloat64(data[off:])
	off += 8
	h.Min.X = getFloat64(data[off:])
	off += 8
	h.Max.Y = getFloat64(data[off:])
	off += 8
	h.Min.Y = getFloat64(data[off:])
	off += 8
	h.Max.Z = getFloat64(data[off:])
	off += 8
	h.Min.Z = getFloat64(data[off:])
	off += 8

	h.StartOfWaveformDataPacket = binary.LittleEndian.Uint64(data[off:])
	off += 8
	h.StartOfFirstEvlr = binary.LittleEndian.Uint64(data[off:])
	off += 8
	h.NumberOfEvlrs = binary.LittleEndian.Uint32(data[off:])
	off += 4
	h.PointCount = binary.LittleEndian.Uint64(data[off:])
	off += 8
	for i := 0; i < 15; i++ {
		h.NumberOfPointsByReturn[i] = binary.LittleEndian.Uint64(data[off:])
		off += 8
	}

	return h, nil
}

func copyFixedString(dst []byte, s string) int {
	copy(dst, s)
	return len(dst)
}

func readFixedString(data []byte) string {
	n := 0
	for n < len(data) && data[n] != 0 {
		n++
	}
	return string(data[:n])
}

func putFloat64(dst []byte, v float64) {
	binary.LittleEndian.PutUint64(dst, math.Float64bits(v))
}

func getFloat64(src []byte) float64 {
	return math.Float64frombits(binary.LittleEndian.Uint64(src))
}
