package serializer_test

import (
	"testing"

	"github.com/lattice8583/iso8583/pkg/serializer"
	"github.com/lattice8583/iso8583/pkg/spec"
)

func testSpec(t *testing.T) spec.MessageSpec {
	t.Helper()
	fields := make([]spec.FieldSpec, 45)
	for i := range fields {
		fields[i] = spec.FieldSpec{Label: "unused", CharClass: spec.Numeric, MaxLength: 0, SizeDiscipline: spec.Fixed}
	}
	fields[0] = spec.FieldSpec{Label: "MTI", CharClass: spec.Numeric, MaxLength: 4, SizeDiscipline: spec.Fixed}
	fields[1] = spec.FieldSpec{Label: "Bitmap", CharClass: spec.BitmapBinary, MaxLength: 8, SizeDiscipline: spec.BitMap}
	fields[2] = spec.FieldSpec{Label: "PAN", CharClass: spec.Numeric, MaxLength: 19, SizeDiscipline: spec.LlVar}
	fields[3] = spec.FieldSpec{Label: "Processing Code", CharClass: spec.Numeric, MaxLength: 6, SizeDiscipline: spec.Fixed}
	fields[44] = spec.FieldSpec{Label: "Additional Response Data", CharClass: spec.Alphanumeric, MaxLength: 99, SizeDiscipline: spec.LlVar}

	ts, err := spec.NewTableSpec(fields)
	if err != nil {
		t.Fatalf("NewTableSpec: %v", err)
	}
	return ts
}

func TestSerializeFixedAndVariable(t *testing.T) {
	s := testSpec(t)
	fields := make([]serializer.Field, s.FieldCount())
	fields[0] = serializer.Field{Present: true, Payload: []byte("0200")}
	fields[2] = serializer.Field{Present: true, Payload: []byte("4111111111111111")}
	fields[3] = serializer.Field{Present: true, Payload: []byte("000000")}

	dst := make([]byte, 64)
	n, err := serializer.Serialize(s, fields, dst)
	if err != nil {
		t.Fatalf("Serialize() error = %v", err)
	}

	if string(dst[0:4]) != "0200" {
		t.Errorf("MTI = %q, want 0200", dst[0:4])
	}
	// bit 2 and bit 3 set: 0b01100000 = 0x60 as the bitmap's first byte
	if dst[4] != 0x60 {
		t.Errorf("bitmap first byte = %#x, want 0x60", dst[4])
	}
	for _, b := range dst[5:12] {
		if b != 0 {
			t.Errorf("expected remaining primary bitmap bytes to be zero, got %#x", b)
		}
	}
	if string(dst[12:14]) != "16" {
		t.Errorf("field 2 length prefix = %q, want 16", dst[12:14])
	}
	if string(dst[14:30]) != "4111111111111111" {
		t.Errorf("field 2 payload = %q", dst[14:30])
	}
	if string(dst[30:36]) != "000000" {
		t.Errorf("field 3 payload = %q", dst[30:36])
	}
	if n != 36 {
		t.Errorf("Serialize() wrote %d bytes, want 36", n)
	}
}

func TestSerializeAnnouncesSecondaryBitmap(t *testing.T) {
	fields := make([]spec.FieldSpec, 70)
	for i := range fields {
		fields[i] = spec.FieldSpec{Label: "unused", CharClass: spec.Numeric, MaxLength: 0, SizeDiscipline: spec.Fixed}
	}
	fields[0] = spec.FieldSpec{Label: "MTI", CharClass: spec.Numeric, MaxLength: 4, SizeDiscipline: spec.Fixed}
	fields[1] = spec.FieldSpec{Label: "Bitmap", CharClass: spec.BitmapBinary, MaxLength: 8, SizeDiscipline: spec.BitMap}
	fields[69] = spec.FieldSpec{Label: "Reserved", CharClass: spec.Numeric, MaxLength: 2, SizeDiscipline: spec.Fixed}
	ts, err := spec.NewTableSpec(fields)
	if err != nil {
		t.Fatalf("NewTableSpec: %v", err)
	}

	sf := make([]serializer.Field, ts.FieldCount())
	sf[0] = serializer.Field{Present: true, Payload: []byte("0200")}
	sf[69] = serializer.Field{Present: true, Payload: []byte("42")}

	dst := make([]byte, 32)
	n, err := serializer.Serialize(ts, sf, dst)
	if err != nil {
		t.Fatalf("Serialize() error = %v", err)
	}
	if n != 4+16+2 {
		t.Fatalf("Serialize() wrote %d bytes, want %d", n, 4+16+2)
	}
	if dst[4]&0x80 == 0 {
		t.Error("expected bit 1 set to announce secondary bitmap")
	}
	if string(dst[n-2:n]) != "42" {
		t.Errorf("trailing payload = %q, want 42", dst[n-2:n])
	}
}

func TestSerializeMissingMTIFails(t *testing.T) {
	s := testSpec(t)
	fields := make([]serializer.Field, s.FieldCount())
	dst := make([]byte, 64)
	if _, err := serializer.Serialize(s, fields, dst); err == nil {
		t.Error("expected error when MTI is not present")
	}
}

func TestSerializeBufferTooSmall(t *testing.T) {
	s := testSpec(t)
	fields := make([]serializer.Field, s.FieldCount())
	fields[0] = serializer.Field{Present: true, Payload: []byte("0200")}
	fields[2] = serializer.Field{Present: true, Payload: []byte("4111111111111111")}

	dst := make([]byte, 8) // not enough room even for MTI+bitmap
	if _, err := serializer.Serialize(s, fields, dst); err == nil {
		t.Error("expected error for undersized destination buffer")
	}
}

func TestSerializePayloadExceedsMaxLength(t *testing.T) {
	s := testSpec(t)
	fields := make([]serializer.Field, s.FieldCount())
	fields[0] = serializer.Field{Present: true, Payload: []byte("0200")}
	fields[3] = serializer.Field{Present: true, Payload: []byte("0000000")} // 7 bytes, field 3 wants exactly 6

	dst := make([]byte, 64)
	if _, err := serializer.Serialize(s, fields, dst); err == nil {
		t.Error("expected error for fixed field payload of wrong length")
	}
}
