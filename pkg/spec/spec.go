// Package spec defines the ISO8583 field table: the per-position metadata a
// Parser/Serializer consults to size and classify a field, and the
// MessageSpec capability that exposes it. The core never parses config
// files or hardcodes a dialect itself — it depends only on MessageSpec, so
// hand-coded tables (TableSpec below), generated code, and document-driven
// loaders (see pkg/specyaml) all satisfy it equally.
package spec

import (
	"errors"
	"fmt"
)

// CharClass constrains a field's payload alphabet.
//
// Design Note: CharClass is an enum (int) with methods rather than an
// interface with polymorphic implementations. The set of alphabets an
// ISO8583 dialect needs is small and stable, so the enum keeps FieldSpec
// comparable, cheap to copy, and usable as a map value without indirection.
type CharClass int

// CharClass enum values.
const (
	Numeric             CharClass = iota // ASCII digits only
	Alphanumeric                         // ASCII letters and digits
	AlphanumericSpecial                  // Alphanumeric plus punctuation/space
	Binary                               // Opaque octets (PIN blocks, MACs, ICC data)
	TrackData                            // Magnetic-stripe track contents
	BitmapBinary                         // 8/16-octet binary bitmap
	BitmapASCIIHex                       // 16/32-char ASCII-hex bitmap
)

// String returns the string representation of CharClass.
func (c CharClass) String() string {
	switch c {
	case Numeric:
		return "Numeric"
	case Alphanumeric:
		return "Alphanumeric"
	case AlphanumericSpecial:
		return "AlphanumericSpecial"
	case Binary:
		return "Binary"
	case TrackData:
		return "TrackData"
	case BitmapBinary:
		return "BitmapBinary"
	case BitmapASCIIHex:
		return "BitmapASCIIHex"
	default:
		return "UnknownCharClass"
	}
}

// IsBitmap reports whether this class marks its field as a bitmap.
func (c CharClass) IsBitmap() bool {
	return c == BitmapBinary || c == BitmapASCIIHex
}

// SizeDiscipline determines how the parser computes a field's on-wire
// length.
type SizeDiscipline int

// SizeDiscipline enum values.
const (
	Fixed   SizeDiscipline = iota // exact MaxLength bytes, no prefix
	LlVar                         // 2-digit ASCII decimal length prefix
	LllVar                        // 3-digit ASCII decimal length prefix
	LlllVar                       // 4-digit ASCII decimal length prefix
	BitMap                        // the one position carrying the bitmap
)

// String returns the string representation of SizeDiscipline.
func (s SizeDiscipline) String() string {
	switch s {
	case Fixed:
		return "Fixed"
	case LlVar:
		return "LlVar"
	case LllVar:
		return "LllVar"
	case LlllVar:
		return "LlllVar"
	case BitMap:
		return "BitMap"
	default:
		return "UnknownSizeDiscipline"
	}
}

// PrefixWidth returns the number of ASCII-decimal length-prefix digits for
// this discipline (0 for Fixed and BitMap).
//
//nolint:exhaustive,mnd // only the LL/LLL/LLLL disciplines carry a prefix
func (s SizeDiscipline) PrefixWidth() int {
	switch s {
	case LlVar:
		return 2
	case LllVar:
		return 3
	case LlllVar:
		return 4
	default:
		return 0
	}
}

// IsVariable returns true if the discipline reads an ASCII length prefix.
func (s SizeDiscipline) IsVariable() bool {
	return s == LlVar || s == LllVar || s == LlllVar
}

// FieldSpec is immutable per-position metadata for one ISO8583 field.
type FieldSpec struct {
	// Label is a free-form, diagnostic-only descriptor, e.g. "PAN".
	Label string
	// CharClass constrains the payload alphabet.
	CharClass CharClass
	// MaxLength is the upper bound on payload bytes, excluding any
	// length prefix. For Fixed fields it is the exact payload width. For
	// the BitMap field it conventionally records the primary segment's
	// wire width (8 for BitmapBinary, 16 for BitmapASCIIHex), but
	// Parser/Serializer do not read it: they size the bitmap from its
	// CharClass and bit 1 alone.
	MaxLength int
	// SizeDiscipline determines how on-wire length is computed.
	SizeDiscipline SizeDiscipline
}

var (
	// ErrNoBitmapField is returned when a table declares no BitMap
	// position.
	ErrNoBitmapField = errors.New("spec: message spec has no bitmap field")
	// ErrMultipleBitmapFields is returned when more than one position
	// declares SizeDiscipline BitMap.
	ErrMultipleBitmapFields = errors.New("spec: message spec has more than one bitmap field")
	// ErrPositionOutOfRange is returned by FieldAt for a position outside
	// [0, FieldCount()).
	ErrPositionOutOfRange = errors.New("spec: position out of range")
)

// MessageSpec is the read-only capability the core consumes: a dense,
// ordered sequence of FieldSpec indexed 0..FieldCount()-1. Position 0 is
// conventionally the MTI; exactly one position carries SizeDiscipline
// BitMap. Implementations may be hand-coded tables (TableSpec), generated
// code, or a runtime description (pkg/specyaml).
type MessageSpec interface {
	// FieldCount returns the number of positions in the table.
	FieldCount() int
	// FieldAt returns the FieldSpec at position i, or
	// ErrPositionOutOfRange if i is outside [0, FieldCount()).
	FieldAt(i int) (FieldSpec, error)
	// BitmapPosition returns the position whose SizeDiscipline is BitMap.
	BitmapPosition() int
}

// TableSpec is a MessageSpec backed by an in-memory, position-indexed
// slice — the hand-coded table case.
type TableSpec struct {
	fields  []FieldSpec
	bitmapN int
}

var _ MessageSpec = (*TableSpec)(nil)

// NewTableSpec builds a TableSpec from a dense, position-indexed field
// list, validating that exactly one position declares SizeDiscipline
// BitMap.
func NewTableSpec(fields []FieldSpec) (*TableSpec, error) {
	bitmapN := -1
	for i, f := range fields {
		if f.SizeDiscipline != BitMap {
			continue
		}
		if bitmapN != -1 {
			return nil, fmt.Errorf("%w: positions %d and %d", ErrMultipleBitmapFields, bitmapN, i)
		}
		bitmapN = i
	}
	if bitmapN == -1 {
		return nil, ErrNoBitmapField
	}
	return &TableSpec{fields: fields, bitmapN: bitmapN}, nil
}

// FieldCount returns the number of positions in the table.
func (t *TableSpec) FieldCount() int {
	return len(t.fields)
}

// FieldAt returns the FieldSpec at position i.
func (t *TableSpec) FieldAt(i int) (FieldSpec, error) {
	if i < 0 || i >= len(t.fields) {
		return FieldSpec{}, fmt.Errorf("%w: %d", ErrPositionOutOfRange, i)
	}
	return t.fields[i], nil
}

// BitmapPosition returns the position holding the bitmap field.
func (t *TableSpec) BitmapPosition() int {
	return t.bitmapN
}

// StandardSpec builds the classic 0-128 ISO8583:1987/1993 field table as a
// TableSpec: position 0 is the 4-digit numeric MTI, position 1 is the
// binary primary/secondary bitmap, and positions 2-128 follow the common
// field assignments a processor dialect typically carries, unused
// positions defaulting to a conservative LllVar/AlphanumericSpecial slot
// (never referenced unless a caller's bitmap sets that bit).
func StandardSpec() (*TableSpec, error) {
	fields := make([]FieldSpec, 129)
	for i := range fields {
		fields[i] = FieldSpec{Label: "Reserved Private", CharClass: AlphanumericSpecial, MaxLength: 999, SizeDiscipline: LllVar}
	}

	fields[0] = FieldSpec{Label: "Message Type Indicator", CharClass: Numeric, MaxLength: 4, SizeDiscipline: Fixed}
	fields[1] = FieldSpec{Label: "Bitmap", CharClass: BitmapBinary, MaxLength: 8, SizeDiscipline: BitMap}
	fields[2] = FieldSpec{Label: "Primary Account Number", CharClass: Numeric, MaxLength: 19, SizeDiscipline: LlVar}
	fields[3] = FieldSpec{Label: "Processing Code", CharClass: Numeric, MaxLength: 6, SizeDiscipline: Fixed}
	fields[4] = FieldSpec{Label: "Transaction Amount", CharClass: Numeric, MaxLength: 12, SizeDiscipline: Fixed}
	fields[5] = FieldSpec{Label: "Settlement Amount", CharClass: Numeric, MaxLength: 12, SizeDiscipline: Fixed}
	fields[6] = FieldSpec{Label: "Cardholder Billing Amount", CharClass: Numeric, MaxLength: 12, SizeDiscipline: Fixed}
	fields[7] = FieldSpec{Label: "Transmission Date/Time", CharClass: Numeric, MaxLength: 10, SizeDiscipline: Fixed}
	fields[8] = FieldSpec{Label: "Cardholder Billing Fee", CharClass: Numeric, MaxLength: 8, SizeDiscipline: Fixed}
	fields[9] = FieldSpec{Label: "Settlement Conversion Rate", CharClass: Numeric, MaxLength: 8, SizeDiscipline: Fixed}
	fields[10] = FieldSpec{Label: "Cardholder Billing Conversion Rate", CharClass: Numeric, MaxLength: 8, SizeDiscipline: Fixed}
	fields[11] = FieldSpec{Label: "System Trace Audit Number", CharClass: Numeric, MaxLength: 6, SizeDiscipline: Fixed}
	fields[12] = FieldSpec{Label: "Local Transaction Time", CharClass: Numeric, MaxLength: 6, SizeDiscipline: Fixed}
	fields[13] = FieldSpec{Label: "Local Transaction Date", CharClass: Numeric, MaxLength: 4, SizeDiscipline: Fixed}
	fields[14] = FieldSpec{Label: "Expiration Date", CharClass: Numeric, MaxLength: 4, SizeDiscipline: Fixed}
	fields[15] = FieldSpec{Label: "Settlement Date", CharClass: Numeric, MaxLength: 4, SizeDiscipline: Fixed}
	fields[18] = FieldSpec{Label: "Merchant Category Code", CharClass: Numeric, MaxLength: 4, SizeDiscipline: Fixed}
	fields[19] = FieldSpec{Label: "Acquiring Institution Country Code", CharClass: Numeric, MaxLength: 3, SizeDiscipline: Fixed}
	fields[22] = FieldSpec{Label: "Point of Service Entry Mode", CharClass: Numeric, MaxLength: 3, SizeDiscipline: Fixed}
	fields[23] = FieldSpec{Label: "Application PAN Sequence Number", CharClass: Numeric, MaxLength: 3, SizeDiscipline: Fixed}
	fields[25] = FieldSpec{Label: "Point of Service Condition Code", CharClass: Numeric, MaxLength: 2, SizeDiscipline: Fixed}
	fields[26] = FieldSpec{Label: "Point of Service Capture Code", CharClass: Numeric, MaxLength: 2, SizeDiscipline: Fixed}
	fields[28] = FieldSpec{Label: "Transaction Fee Amount", CharClass: Numeric, MaxLength: 8, SizeDiscipline: Fixed}
	fields[30] = FieldSpec{Label: "Settlement Fee Amount", CharClass: Numeric, MaxLength: 8, SizeDiscipline: Fixed}
	fields[32] = FieldSpec{Label: "Acquiring Institution ID", CharClass: Numeric, MaxLength: 11, SizeDiscipline: LlVar}
	fields[33] = FieldSpec{Label: "Forwarding Institution ID", CharClass: Numeric, MaxLength: 11, SizeDiscipline: LlVar}
	fields[35] = FieldSpec{Label: "Track 2 Data", CharClass: TrackData, MaxLength: 37, SizeDiscipline: LlVar}
	fields[37] = FieldSpec{Label: "Retrieval Reference Number", CharClass: Alphanumeric, MaxLength: 12, SizeDiscipline: Fixed}
	fields[38] = FieldSpec{Label: "Authorization ID Response", CharClass: Alphanumeric, MaxLength: 6, SizeDiscipline: Fixed}
	fields[39] = FieldSpec{Label: "Response Code", CharClass: Alphanumeric, MaxLength: 2, SizeDiscipline: Fixed}
	fields[40] = FieldSpec{Label: "Service Restriction Code", CharClass: Alphanumeric, MaxLength: 3, SizeDiscipline: Fixed}
	fields[41] = FieldSpec{Label: "Card Acceptor Terminal ID", CharClass: Alphanumeric, MaxLength: 8, SizeDiscipline: Fixed}
	fields[42] = FieldSpec{Label: "Card Acceptor ID Code", CharClass: Alphanumeric, MaxLength: 15, SizeDiscipline: Fixed}
	fields[43] = FieldSpec{Label: "Card Acceptor Name/Location", CharClass: AlphanumericSpecial, MaxLength: 40, SizeDiscipline: Fixed}
	fields[44] = FieldSpec{Label: "Additional Response Data", CharClass: Alphanumeric, MaxLength: 25, SizeDiscipline: LlVar}
	fields[45] = FieldSpec{Label: "Track 1 Data", CharClass: TrackData, MaxLength: 76, SizeDiscipline: LlVar}
	fields[48] = FieldSpec{Label: "Additional Data", CharClass: AlphanumericSpecial, MaxLength: 999, SizeDiscipline: LllVar}
	fields[49] = FieldSpec{Label: "Transaction Currency Code", CharClass: Numeric, MaxLength: 3, SizeDiscipline: Fixed}
	fields[50] = FieldSpec{Label: "Settlement Currency Code", CharClass: Numeric, MaxLength: 3, SizeDiscipline: Fixed}
	fields[51] = FieldSpec{Label: "Cardholder Billing Currency Code", CharClass: Numeric, MaxLength: 3, SizeDiscipline: Fixed}
	fields[52] = FieldSpec{Label: "Personal ID Number Data", CharClass: Binary, MaxLength: 8, SizeDiscipline: Fixed}
	fields[53] = FieldSpec{Label: "Security Related Control Information", CharClass: Binary, MaxLength: 16, SizeDiscipline: Fixed}
	fields[54] = FieldSpec{Label: "Additional Amounts", CharClass: AlphanumericSpecial, MaxLength: 120, SizeDiscipline: LllVar}
	fields[55] = FieldSpec{Label: "ICC Data", CharClass: Binary, MaxLength: 999, SizeDiscipline: LllVar}
	fields[56] = FieldSpec{Label: "Original Data Elements", CharClass: Alphanumeric, MaxLength: 999, SizeDiscipline: LllVar}
	fields[90] = FieldSpec{Label: "Original Data Elements", CharClass: Numeric, MaxLength: 42, SizeDiscipline: Fixed}
	fields[95] = FieldSpec{Label: "Replacement Amounts", CharClass: Alphanumeric, MaxLength: 42, SizeDiscipline: Fixed}
	fields[102] = FieldSpec{Label: "Account ID 1", CharClass: Alphanumeric, MaxLength: 28, SizeDiscipline: LlVar}
	fields[103] = FieldSpec{Label: "Account ID 2", CharClass: Alphanumeric, MaxLength: 28, SizeDiscipline: LlVar}
	fields[128] = FieldSpec{Label: "Message Authentication Code", CharClass: Binary, MaxLength: 8, SizeDiscipline: Fixed}

	return NewTableSpec(fields)
}
