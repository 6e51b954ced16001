package copc

import "fmt"

// VlrHeaderSize and EvlrHeaderSize are the on-disk sizes of the short
// (pre point-data) and extended (post point-data) VLR header forms.
const (
	VlrHeaderSize  = 54
	EvlrHeaderSize = 60
)

// VlrHeader carries both the short and extended VLR header layouts,
// with EvlrFlag selecting which byte layout ToBytes produces.
type VlrHeader struct {
	UserID      string // max 16 bytes
	RecordID    uint16
	DataLength  uint64 // VLRs: uint16 on the wire; EVLRs: uint64
	Description string // max 32 bytes
	EvlrFlag    bool
}

// Size returns the on-disk header size for this record (VlrHeaderSize
// or EvlrHeaderSize depending on EvlrFlag).
func (h VlrHeader) Size() int {
	if h.EvlrFlag {
		return EvlrHeaderSize
	}
	return VlrHeaderSize
}

// copcUserID is the VLR/EVLR user_id field COPC records use.
const copcUserID = "copc"

// Record IDs for the two COPC-defined records (spec.md §6).
const (
	CopcInfoRecordID      = 1
	CopcHierarchyRecordID = 1000
)

// CopcInfoVlr is the fixed-layout payload of the COPC-info VLR
// (user_id "copc", record_id 1).
type CopcInfoVlr struct {
	Center         Vector3
	Halfsize       float64
	Spacing        float64
	RootHierOffset uint64
	RootHierSize   uint64
	GpstimeMinimum float64
	GpstimeMaximum float64
}

// copcInfoVlrSize is the fixed payload size of the COPC-info VLR.
const copcInfoVlrSize = 160

// ToBytes serializes the COPC-info payload.
func (c CopcInfoVlr) ToBytes() []byte {
	buf := make([]byte, copcInfoVlrSize)
	off := 0
	for _, v := range []float64{c.Center.X, c.Center.Y, c.Center.Z, c.Halfsize, c.Spacing} {
		putFloat64(buf[off:], v)
		off += 8
	}
	putUint64(buf[off:], c.RootHierOffset)
	off += 8
	putUint64(buf[off:], c.RootHierSize)
	off += 8
	putFloat64(buf[off:], c.GpstimeMinimum)
	off += 8
	putFloat64(buf[off:], c.GpstimeMaximum)
	off += 8
	// Remaining bytes are reserved padding to match the 160-byte COPC
	// 1.0 info VLR layout (the spec reserves the tail for future use).
	return buf
}

// CopcInfoVlrFromBytes parses a COPC-info VLR payload.
func CopcInfoVlrFromBytes(data []byte) (CopcInfoVlr, error) {
	if len(data) < copcInfoVlrSize {
		return CopcInfoVlr{}, &ErrFormat{Reason: fmt.Sprintf("copc-info VLR too short: %d bytes, want %d", len(data), copcInfoVlrSize)}
	}
	var c CopcInfoVlr
	off := 0
	c.Center.X = getFloat64(data[off:])
	off += 8
	c.Center.Y = getFloat64(data[off:])
	off += 8
	c.Center.Z = getFloat64(data[off:])
	off += 8
	c.Halfsize = getFloat64(data[off:])
	off += 8
	c.Spacing = getFloat64(data[off:])
	off += 8
	c.RootHierOffset = getUint64(data[off:])
	off += 8
	c.RootHierSize = getUint64(data[off:])
	off += 8
	c.GpstimeMinimum = getFloat64(data[off:])
	off += 8
	c.GpstimeMaximum = getFloat64(data[off:])
	return c, nil
}

// WktVlr is the WKT coordinate-reference-system VLR payload: a plain
// string (no trailing NUL is implied; callers add one if required by
// the consuming tool, matching lazperf's wkt_vlr which stores the raw
// WKT text as given).
type WktVlr struct {
	Wkt string
}

// ebDataTypeByteLength maps an EbVlr field's data_type to its fixed
// byte length (index 0 is the "undocumented blob" sentinel, whose
// length instead comes from the field's Options byte — see
// FieldToByteLength). Values per spec.md §3 / copc-lib's
// EXTRA_BYTE_DATA_TYPE table.
var ebDataTypeByteLength = [31]uint8{
	0, 1, 1, 2, 2, 4, 4, 8, 8, 4, 8, 2, 2, 4, 4, 8,
	8, 16, 16, 8, 16, 3, 3, 6, 6, 12, 12, 24, 24, 12, 24,
}

// EbField describes one extra-bytes field descriptor.
type EbField struct {
	Reserved    [2]byte
	DataType    uint8
	Options     uint8
	Name        string // max 32 bytes
	NoData      [3]float64
	Min         [3]float64
	Max         [3]float64
	Scale       [3]float64
	Offset      [3]float64
	Description string // max 32 bytes
}

// Equal compares two EbFields by all ten subfields, strictly
// (spec.md §4.C: "Equality ... is defined strictly").
func (f EbField) Equal(o EbField) bool {
	if f.Reserved != o.Reserved || f.DataType != o.DataType || f.Options != o.Options ||
		f.Name != o.Name || f.Description != o.Description {
		return false
	}
	for i := 0; i < 3; i++ {
		if f.NoData[i] != o.NoData[i] || f.Min[i] != o.Min[i] || f.Max[i] != o.Max[i] ||
			f.Scale[i] != o.Scale[i] || f.Offset[i] != o.Offset[i] {
			return false
		}
	}
	return true
}

// ebFieldWireSize is the fixed on-disk size of one extra-bytes item
// record in the LAS 1.4 "Extra Bytes" VLR.
const ebFieldWireSize = 192

// ToBytes serializes one extra-bytes item record.
func (f EbField) ToBytes() []byte {
	buf := make([]byte, ebFieldWireSize)
	off := 0
	copy(buf[off:off+2], f.Reserved[:])
	off += 2
	buf[off] = f.DataType
	off++
	buf[off] = f.Options
	off++
	off += copyFixedString(buf[off:off+32], f.Name)
	off += 4 // unused
	for _, v := range f.NoData {
		putFloat64(buf[off:], v)
		off += 8
	}
	for _, v := range f.Min {
		putFloat64(buf[off:], v)
		off += 8
	}
	for _, v := range f.Max {
		putFloat64(buf[off:], v)
		off += 8
	}
	for _, v := range f.Scale {
		putFloat64(buf[off:], v)
		off += 8
	}
	for _, v := range f.Offset {
		putFloat64(buf[off:], v)
		off += 8
	}
	copyFixedString(buf[off:off+32], f.Description)
	return buf
}

// EbFieldFromBytes parses one 192-byte extra-bytes item record.
func EbFieldFromBytes(data []byte) (EbField, error) {
	if len(data) < ebFieldWireSize {
		return EbField{}, &ErrFormat{Reason: "extra bytes item record shorter than 192 bytes"}
	}
	var f EbField
	off := 0
	copy(f.Reserved[:], data[off:off+2])
	off += 2
	f.DataType = data[off]
	off++
	f.Options = data[off]
	off++
	f.Name = readFixedString(data[off : off+32])
	off += 32
	off += 4
	for i := range f.NoData {
		f.NoData[i] = getFloat64(data[off:])
		off += 8
	}
	for i := range f.Min {
		f.Min[i] = getFloat64(data[off:])
		off += 8
	}
	for i := range f.Max {
		f.Max[i] = getFloat64(data[off:])
		off += 8
	}
	for i := range f.Scale {
		f.Scale[i] = getFloat64(data[off:])
		off += 8
	}
	for i := range f.Offset {
		f.Offset[i] = getFloat64(data[off:])
		off += 8
	}
	f.Description = readFixedString(data[off : off+32])
	return f, nil
}

// FieldToByteLength returns the byte length a field contributes to the
// point record: Options itself when DataType == 0 (undocumented blob),
// otherwise a lookup in ebDataTypeByteLength.
func FieldToByteLength(f EbField) (uint8, error) {
	if f.DataType == 0 {
		return f.Options, nil
	}
	if int(f.DataType) >= len(ebDataTypeByteLength) {
		return 0, &ErrFormat{Reason: fmt.Sprintf("extra bytes data_type %d out of range", f.DataType)}
	}
	return ebDataTypeByteLength[f.DataType], nil
}

// EbVlr is the ordered list of extra-bytes field descriptors
// (user_id "LASF_Spec", record_id 4 in the real LAS 1.4 VLR table;
// COPC only cares about the field layout, not the VLR addressing).
type EbVlr struct {
	Items []EbField
}

// AddField appends a field descriptor.
func (v *EbVlr) AddField(f EbField) {
	v.Items = append(v.Items, f)
}

// Size returns the total byte contribution of all fields to the point
// record (spec.md §3: "Total extra-byte contribution... is the sum of
// field lengths").
func (v EbVlr) Size() (int, error) {
	total := 0
	for _, f := range v.Items {
		n, err := FieldToByteLength(f)
		if err != nil {
			return 0, err
		}
		total += int(n)
	}
	return total, nil
}

// ItemsToPosition returns the byte offset within the extra-bytes
// region at which the named field begins, or ErrNotFound.
func (v EbVlr) ItemsToPosition(name string) (int, error) {
	pos := 0
	for _, f := range v.Items {
		if f.Name == name {
			return pos, nil
		}
		n, err := FieldToByteLength(f)
		if err != nil {
			return 0, err
		}
		pos += int(n)
	}
	return 0, &ErrNotFound{What: fmt.Sprintf("extra bytes field %q", name)}
}

// ToBytes serializes all items back to back (the EbVlr payload).
func (v EbVlr) ToBytes() []byte {
	buf := make([]byte, 0, len(v.Items)*ebFieldWireSize)
	for _, f := range v.Items {
		buf = append(buf, f.ToBytes()...)
	}
	return buf
}

// EbVlrFromBytes parses a payload of back-to-back 192-byte item records.
func EbVlrFromBytes(data []byte) (EbVlr, error) {
	if len(data)%ebFieldWireSize != 0 {
		return EbVlr{}, &ErrFormat{Reason: "extra bytes VLR payload not a multiple of 192"}
	}
	var v EbVlr
	for off := 0; off < len(data); off += ebFieldWireSize {
		f, err := EbFieldFromBytes(data[off : off+ebFieldWireSize])
		if err != nil {
			return EbVlr{}, err
		}
		v.Items = append(v.Items, f)
	}
	return v, nil
}

// ToBytes serializes the VLR header: the short (54-byte) form when
// EvlrFlag is false, the extended (60-byte) EVLR form otherwise.
func (h VlrHeader) ToBytes() []byte {
	buf := make([]byte, h.Size())
	off := 0
	off += 2 // reserved
	off += copyFixedString(buf[off:off+16], h.UserID)
	binary16(buf[off:], h.RecordID)
	off += 2
	if h.EvlrFlag {
		putFloat64Bits(buf[off:], h.DataLength)
		off += 8
	} else {
		binary16(buf[off:], uint16(h.DataLength))
		off += 2
	}
	copyFixedString(buf[off:off+32], h.Description)
	return buf
}

// VlrHeaderFromBytes parses a VLR (54 bytes) or EVLR (60 bytes)
// header, selected by evlrFlag.
func VlrHeaderFromBytes(data []byte, evlrFlag bool) (VlrHeader, error) {
	size := VlrHeaderSize
	if evlrFlag {
		size = EvlrHeaderSize
	}
	if len(data) < size {
		return VlrHeader{}, &ErrFormat{Reason: "vlr header too short"}
	}
	h := VlrHeader{EvlrFlag: evlrFlag}
	off := 2 // reserved
	h.UserID = readFixedString(data[off : off+16])
	off += 16
	h.RecordID = getUint16(data[off:])
	off += 2
	if evlrFlag {
		h.DataLength = getUint64(data[off:])
		off += 8
	} else {
		h.DataLength = uint64(getUint16(data[off:]))
		off += 2
	}
	h.Description = readFixedString(data[off : off+32])
	return h, nil
}

func binary16(dst []byte, v uint16) {
	dst[0] = byte(v)
	dst[1] = byte(v >> 8)
}

func getUint16(src []byte) uint16 {
	return uint16(src[0]) | uint16(src[1])<<8
}

func putUint64(dst []byte, v uint64) { putFloat64Bits(dst, v) }

func putFloat64Bits(dst []byte, v uint64) {
	for i := 0; i < 8; i++ {
		dst[i] = byte(v >> (8 * i))
	}
}

func getUint64(src []byte) uint64 {
	var v uint64
	for i := 0; i < 8; i++ {
		v |= uint64(src[i]) << (8 * i)
	}
	return v
}
