// Package icc decodes the composite, binary-opaque ICC (EMV) data field —
// conventionally field 55 — into a flat list of BER-TLV records. The core
// package treats field 55 as an opaque octet run; icc is the thin layer
// above it that gives callers structured access without the core knowing
// about EMV semantics.
package icc

import (
	"errors"
	"fmt"

	"github.com/lattice8583/iso8583/pkg/encoding"
)

// ErrTruncatedRecord is returned when a BER-TLV tag or length field is cut
// off mid-record.
var ErrTruncatedRecord = errors.New("icc: truncated BER-TLV record")

// Record is one decoded BER-TLV unit: its full canonical encoding (tag,
// length, and value octets), plus the tag and value split out for
// convenience.
type Record struct {
	Raw []byte
}

// tagWidth returns the width of the tag prefix at the start of b, per the
// BER tag-encoding rule: the low 5 bits of the first octet select a
// single-byte tag unless they are all set (0x1F), in which case the tag
// continues through every subsequent octet whose high bit is set.
func tagWidth(b []byte) int {
	if len(b) == 0 {
		return 0
	}
	if b[0]&0x1F != 0x1F {
		return 1
	}
	end := 1
	for end < len(b) && b[end]&0x80 != 0 {
		end++
	}
	if end < len(b) {
		end++ // include the final tag octet (high bit clear)
	}
	return end
}

// lengthField reports the width of the BER length octets at the start of b
// and the value length they encode.
func lengthField(b []byte) (width, value int, err error) {
	if len(b) == 0 {
		return 0, 0, fmt.Errorf("%w: missing length octet", ErrTruncatedRecord)
	}
	if b[0]&0x80 == 0 {
		return 1, int(b[0]), nil
	}
	n := int(b[0] & 0x7F)
	if n == 0 || 1+n > len(b) {
		return 0, 0, fmt.Errorf("%w: indefinite or truncated length form", ErrTruncatedRecord)
	}
	for _, c := range b[1 : 1+n] {
		value = value<<8 | int(c)
	}
	return 1 + n, value, nil
}

// Tag returns the record's tag octets.
func (r Record) Tag() []byte {
	tw := tagWidth(r.Raw)
	if tw == 0 {
		return nil
	}
	return r.Raw[0:tw]
}

// Value returns the record's value octets, skipping the tag and length
// prefix.
func (r Record) Value() []byte {
	tw := tagWidth(r.Raw)
	if tw >= len(r.Raw) {
		return nil
	}
	lw, vl, err := lengthField(r.Raw[tw:])
	if err != nil || tw+lw+vl > len(r.Raw) {
		return nil
	}
	return r.Raw[tw+lw : tw+lw+vl]
}

// recordWidth returns the total tag+length+value octet width of the record
// starting at b[0].
func recordWidth(b []byte) (int, error) {
	tw := tagWidth(b)
	if tw == 0 || tw > len(b) {
		return 0, fmt.Errorf("%w: missing tag octet", ErrTruncatedRecord)
	}
	lw, vl, err := lengthField(b[tw:])
	if err != nil {
		return 0, err
	}
	total := tw + lw + vl
	if total > len(b) {
		return 0, fmt.Errorf("%w: value runs past end of record", ErrTruncatedRecord)
	}
	return total, nil
}

// Decode splits a BER-TLV encoded byte run (a field 55 payload) into its
// constituent Records. encoding.TLV validates and canonicalizes the whole
// run first; Decode then walks the canonical bytes to slice out each
// record's own Raw span.
func Decode(data []byte) ([]Record, error) {
	raw, _, err := encoding.TLV.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTruncatedRecord, err)
	}
	var out []Record
	read := 0
	for read < len(raw) {
		n, err := recordWidth(raw[read:])
		if err != nil {
			return nil, err
		}
		out = append(out, Record{Raw: raw[read : read+n]})
		read += n
	}
	return out, nil
}
