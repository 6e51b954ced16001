package copc

import (
	"bytes"
	"testing"
)

func TestLasHeaderRoundTrip(t *testing.T) {
	h, err := NewLasHeader(7, 36, Vector3{X: 0.01, Y: 0.01, Z: 0.01}, Vector3{X: 100, Y: 200, Z: 0}, true)
	if err != nil {
		t.Fatalf("NewLasHeader: %v", err)
	}
	h.PointCount = 42
	h.Max = Vector3{X: 1000, Y: 2000, Z: 300}
	h.Min = Vector3{X: -1000, Y: -2000, Z: -300}
	h.SystemIdentifier = "copc-writer"
	h.GeneratingSoftware = "copc-test"

	buf, err := h.ToBytes()
	if err != nil {
		t.Fatalf("ToBytes: %v", err)
	}
	if len(buf) != lasHeaderSize {
		t.Fatalf("ToBytes produced %d bytes, want %d", len(buf), lasHeaderSize)
	}

	got, err := LasHeaderFromBytes(buf)
	if err != nil {
		t.Fatalf("LasHeaderFromBytes: %v", err)
	}

	if got.PointFormatID != h.PointFormatID {
		t.Errorf("PointFormatID = %d, want %d", got.PointFormatID, h.PointFormatID)
	}
	if got.PointCount != h.PointCount {
		t.Errorf("PointCount = %d, want %d", got.PointCount, h.PointCount)
	}
	if got.Max != h.Max || got.Min != h.Min {
		t.Errorf("bounds = %v/%v, want %v/%v", got.Max, got.Min, h.Max, h.Min)
	}
	if got.SystemIdentifier != h.SystemIdentifier {
		t.Errorf("SystemIdentifier = %q, want %q", got.SystemIdentifier, h.SystemIdentifier)
	}
	if got.VersionMajor != 1 || got.VersionMinor != 4 {
		t.Errorf("version = %d.%d, want 1.4", got.VersionMajor, got.VersionMinor)
	}
}

func TestLasHeaderFromBytesRejectsBadSignature(t *testing.T) {
	buf := make([]byte, lasHeaderSize)
	copy(buf, "XXXX")
	if _, err := LasHeaderFromBytes(buf); err == nil {
		t.Errorf("expected error for bad signature")
	}
}

func TestLasHeaderFromBytesRejectsShortBuffer(t *testing.T) {
	if _, err := LasHeaderFromBytes(make([]byte, 10)); err == nil {
		t.Errorf("expected error for short buffer")
	}
}

func TestPointBaseByteSize(t *testing.T) {
	tests := []struct {
		format int8
		want   int
	}{
		{0, 20}, {6, 30}, {7, 36}, {8, 38},
	}
	for _, tt := range tests {
		got, err := PointBaseByteSize(tt.format)
		if err != nil {
			t.Fatalf("PointBaseByteSize(%d): %v", tt.format, err)
		}
		if got != tt.want {
			t.Errorf("PointBaseByteSize(%d) = %d, want %d", tt.format, got, tt.want)
		}
	}
	if _, err := PointBaseByteSize(99); err == nil {
		t.Errorf("expected error for unknown point format")
	}
}

func TestIsCopcLegalPointFormat(t *testing.T) {
	legal := map[int8]bool{6: true, 7: true, 8: true, 9: true, 10: true}
	for f := int8(0); f <= 10; f++ {
		if IsCopcLegalPointFormat(f) != legal[f] {
			t.Errorf("IsCopcLegalPointFormat(%d) = %v, want %v", f, IsCopcLegalPointFormat(f), legal[f])
		}
	}
}

func TestReadFixedStringStopsAtNull(t *testing.T) {
	data := append([]byte("hello"), 0, 'X', 'X')
	if got := readFixedString(data); got != "hello" {
		t.Errorf("readFixedString = %q, want %q", got, "hello")
	}
}

func TestPutFloat64GetFloat64(t *testing.T) {
	buf := make([]byte, 8)
	putFloat64(buf, -3.25)
	if got := getFloat64(buf); got != -3.25 {
		t.Errorf("getFloat64(putFloat64(-3.25)) = %v, want -3.25", got)
	}
}

func TestLasHeaderToBytesSignature(t *testing.T) {
	h, err := NewLasHeader(6, 30, DefaultScale(), DefaultOffset(), true)
	if err != nil {
		t.Fatalf("NewLasHeader: %v", err)
	}
	buf, err := h.ToBytes()
	if err != nil {
		t.Fatalf("ToBytes: %v", err)
	}
	if !bytes.Equal(buf[0:4], []byte("LASF")) {
		t.Errorf("missing LASF signature")
	}
}
