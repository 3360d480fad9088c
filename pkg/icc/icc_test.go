package icc_test

import (
	"bytes"
	"testing"

	"github.com/lattice8583/iso8583/pkg/icc"
)

func TestDecodeTwoRecords(t *testing.T) {
	// 0x9F33 (two-byte tag), length 3, value 01 02 03
	// 0x95   (one-byte tag), length 2, value AA BB
	data := []byte{0x9F, 0x33, 0x03, 0x01, 0x02, 0x03, 0x95, 0x02, 0xAA, 0xBB}

	records, err := icc.Decode(data)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("Decode() returned %d records, want 2", len(records))
	}

	if !bytes.Equal(records[0].Tag(), []byte{0x9F, 0x33}) {
		t.Errorf("records[0].Tag() = % X, want 9F 33", records[0].Tag())
	}
	if !bytes.Equal(records[0].Value(), []byte{0x01, 0x02, 0x03}) {
		t.Errorf("records[0].Value() = % X, want 01 02 03", records[0].Value())
	}

	if !bytes.Equal(records[1].Tag(), []byte{0x95}) {
		t.Errorf("records[1].Tag() = % X, want 95", records[1].Tag())
	}
	if !bytes.Equal(records[1].Value(), []byte{0xAA, 0xBB}) {
		t.Errorf("records[1].Value() = % X, want AA BB", records[1].Value())
	}
}

func TestDecodeEmpty(t *testing.T) {
	records, err := icc.Decode(nil)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if len(records) != 0 {
		t.Errorf("Decode(nil) = %v, want empty", records)
	}
}

func TestDecodeTruncated(t *testing.T) {
	data := []byte{0x9F, 0x33, 0x05, 0x01, 0x02} // claims length 5, only 2 bytes present
	if _, err := icc.Decode(data); err == nil {
		t.Error("expected error for truncated TLV record")
	}
}
