// Package parser implements the specification-driven field walk: given a
// spec.MessageSpec and a raw message buffer, it locates every present
// field without copying payload bytes, producing zero-copy Cursors into
// the source buffer.
package parser

import (
	"errors"
	"fmt"

	"github.com/lattice8583/iso8583/pkg/bitmap"
	"github.com/lattice8583/iso8583/pkg/spec"
)

var (
	// ErrOffsetExceedsBufferLen is returned when a field's cursor would
	// read past the end of the buffer.
	ErrOffsetExceedsBufferLen = errors.New("parser: offset exceeds buffer length")
	// ErrUnsupportedCharClass is returned for a CharClass the parser does
	// not know how to size.
	ErrUnsupportedCharClass = errors.New("parser: unsupported char class")
	// ErrMalformedLengthPrefix is returned when an LL/LLL/LLLL length
	// prefix is not all ASCII digits.
	ErrMalformedLengthPrefix = errors.New("parser: malformed length prefix")
	// ErrFieldLengthExceedsMax is returned when a decoded length prefix
	// exceeds the field's declared MaxLength.
	ErrFieldLengthExceedsMax = errors.New("parser: field length exceeds max length")
	// ErrTruncatedMessage is returned when the buffer ends before a
	// field's declared length is satisfied.
	ErrTruncatedMessage = errors.New("parser: truncated message")
)

// FieldSlot is one parsed position: whether it was present in the source
// message, and — if present — the zero-copy Cursor into the source buffer.
type FieldSlot struct {
	Position int
	Present  bool
	Cursor   Cursor
}

// Parser is a stateless field-location calculator driven by a
// spec.MessageSpec. It holds no per-message state; all state lives in the
// FieldSlot table it returns.
type Parser struct {
	spec spec.MessageSpec
}

// NewParser creates a Parser for the given MessageSpec.
func NewParser(s spec.MessageSpec) *Parser {
	return &Parser{spec: s}
}

// ParseMessage walks every position in the spec in ascending order and
// returns a dense FieldSlot table plus the decoded bitmap. Position 0 (the
// MTI) and the bitmap position are always parsed; every other position's
// presence is determined by the decoded bitmap before its cursor is
// computed, so positions that are absent never consume buffer bytes.
func (p *Parser) ParseMessage(buf []byte) ([]FieldSlot, *bitmap.BitArray128, error) {
	count := p.spec.FieldCount()
	bitmapPos := p.spec.BitmapPosition()
	slots := make([]FieldSlot, count)
	offset := 0

	mtiSpec, err := p.spec.FieldAt(0)
	if err != nil {
		return nil, nil, err
	}
	mtiCur, err := p.cursorFor(buf, 0, mtiSpec, offset)
	if err != nil {
		return nil, nil, err
	}
	slots[0] = FieldSlot{Position: 0, Present: true, Cursor: mtiCur}
	offset = mtiCur.NextOffset()

	bmSpec, err := p.spec.FieldAt(bitmapPos)
	if err != nil {
		return nil, nil, err
	}
	bm, consumed, err := p.decodeBitmapField(buf, bitmapPos, bmSpec, offset)
	if err != nil {
		return nil, nil, err
	}
	slots[bitmapPos] = FieldSlot{Position: bitmapPos, Present: true, Cursor: Cursor{Start: offset, End: offset + consumed}}
	offset += consumed

	for i := 0; i < count; i++ {
		if i == 0 || i == bitmapPos {
			continue
		}
		if !bm.Get(i) {
			slots[i] = FieldSlot{Position: i, Present: false}
			continue
		}

		fs, err := p.spec.FieldAt(i)
		if err != nil {
			return nil, nil, err
		}
		cur, err := p.cursorFor(buf, i, fs, offset)
		if err != nil {
			return nil, nil, err
		}
		slots[i] = FieldSlot{Position: i, Present: true, Cursor: cur}
		offset = cur.NextOffset()
	}

	return slots, bm, nil
}

// decodeBitmapField decodes the bitmap field at position i starting at
// offset, dispatching on the field's declared CharClass.
func (p *Parser) decodeBitmapField(buf []byte, i int, fs spec.FieldSpec, offset int) (*bitmap.BitArray128, int, error) {
	if offset > len(buf) {
		return nil, 0, fmt.Errorf("field %d: %w (offset %d, buffer length %d)", i, ErrOffsetExceedsBufferLen, offset, len(buf))
	}

	var class bitmap.Class
	switch fs.CharClass {
	case spec.BitmapBinary:
		class = bitmap.Binary
	case spec.BitmapASCIIHex:
		class = bitmap.ASCIIHex
	default:
		return nil, 0, fmt.Errorf("field %d: %w: %v", i, ErrUnsupportedCharClass, fs.CharClass)
	}

	bm, n, err := bitmap.Decode(buf[offset:], class)
	if err != nil {
		return nil, 0, fmt.Errorf("field %d: %w: %v", i, ErrTruncatedMessage, err)
	}
	return bm, n, nil
}

// cursorFor computes the Cursor for position i's payload, dispatching on
// the field's SizeDiscipline.
func (p *Parser) cursorFor(buf []byte, i int, fs spec.FieldSpec, offset int) (Cursor, error) {
	if offset > len(buf) {
		return Cursor{}, fmt.Errorf("field %d: %w (offset %d, buffer length %d)", i, ErrOffsetExceedsBufferLen, offset, len(buf))
	}

	switch fs.SizeDiscipline {
	case spec.Fixed:
		return p.parseFixed(buf, i, fs, offset)
	case spec.LlVar, spec.LllVar, spec.LlllVar:
		return p.parseVariable(buf, i, fs, offset)
	default:
		return Cursor{}, fmt.Errorf("field %d: %w: discipline %v", i, ErrUnsupportedCharClass, fs.SizeDiscipline)
	}
}

func (p *Parser) parseFixed(buf []byte, i int, fs spec.FieldSpec, offset int) (Cursor, error) {
	end := offset + fs.MaxLength
	if end > len(buf) {
		return Cursor{}, fmt.Errorf(
			"field %d (%s): expected %d bytes at offset %d, buffer has %d bytes: %w",
			i, fs.Label, fs.MaxLength, offset, len(buf), ErrTruncatedMessage)
	}
	return Cursor{Start: offset, End: end}, nil
}

func (p *Parser) parseVariable(buf []byte, i int, fs spec.FieldSpec, offset int) (Cursor, error) {
	prefixWidth := fs.SizeDiscipline.PrefixWidth()

	if offset+prefixWidth > len(buf) {
		return Cursor{}, fmt.Errorf(
			"field %d (%s): expected %d-digit length prefix at offset %d, buffer has %d bytes: %w",
			i, fs.Label, prefixWidth, offset, len(buf), ErrTruncatedMessage)
	}

	prefix := buf[offset : offset+prefixWidth]
	fieldLen, err := parseDecimal(prefix)
	if err != nil {
		return Cursor{}, fmt.Errorf("field %d (%s): invalid length prefix %q: %w",
			i, fs.Label, string(prefix), ErrMalformedLengthPrefix)
	}
	if fieldLen > fs.MaxLength {
		return Cursor{}, fmt.Errorf(
			"field %d (%s): length %d exceeds max length %d: %w",
			i, fs.Label, fieldLen, fs.MaxLength, ErrFieldLengthExceedsMax)
	}

	dataStart := offset + prefixWidth
	dataEnd := dataStart + fieldLen
	if dataEnd > len(buf) {
		return Cursor{}, fmt.Errorf(
			"field %d (%s): expected %d bytes of data at offset %d, buffer has %d bytes: %w",
			i, fs.Label, fieldLen, dataStart, len(buf), ErrTruncatedMessage)
	}

	return Cursor{Start: dataStart, End: dataEnd}, nil
}

const decimalBase = 10

func parseDecimal(b []byte) (int, error) {
	result := 0
	for _, c := range b {
		if c < '0' || c > '9' {
			return 0, fmt.Errorf("invalid digit %q", c)
		}
		result = result*decimalBase + int(c-'0')
	}
	return result, nil
}
