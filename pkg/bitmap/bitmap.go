// Package bitmap implements the ISO8583 primary/secondary bitmap: a
// 128-bit, bit-addressable presence vector with both binary and
// ASCII-hex wire representations.
package bitmap

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/lattice8583/iso8583/pkg/encoding"
)

const (
	primaryBits   = 64
	totalBits     = 128
	primaryBytes  = 8
	extendedBytes = 16
	primaryHex    = 16
	extendedHex   = 32
)

// Class selects the wire representation of a bitmap field.
type Class int

const (
	// Binary is an 8- or 16-octet big-endian bitmap.
	Binary Class = iota
	// ASCIIHex is a 16- or 32-character uppercase hex bitmap.
	ASCIIHex
)

func (c Class) String() string {
	switch c {
	case Binary:
		return "Binary"
	case ASCIIHex:
		return "ASCIIHex"
	default:
		return "UnknownClass"
	}
}

var (
	// ErrInvalidBitmap is returned when the wire bytes cannot be decoded
	// as a bitmap of the requested class.
	ErrInvalidBitmap = errors.New("bitmap: invalid wire data")
	// ErrInvalidBitNumber is returned for a bit index outside [1,128].
	ErrInvalidBitNumber = errors.New("bitmap: bit number out of range")
)

// BitArray128 is a fixed 128-bit bit-addressable array. Bit 1 is the most
// significant bit of the first octet (the ISO8583 convention) and doubles
// as the secondary-bitmap announcement flag, which Encode manages; there is
// no bit 0 (Get(0) reports false, Set(0) and Unset(0) return an error).
type BitArray128 struct {
	primary   uint64
	secondary uint64
}

// Get returns whether bit n (1-128) is set.
func (b *BitArray128) Get(n int) bool {
	if n < 1 || n > totalBits {
		return false
	}
	if n <= primaryBits {
		return b.primary&(uint64(1)<<(primaryBits-n)) != 0
	}
	return b.secondary&(uint64(1)<<(totalBits-n)) != 0
}

// Set marks bit n (1-128) present.
func (b *BitArray128) Set(n int) error {
	if n < 1 || n > totalBits {
		return fmt.Errorf("%w: %d", ErrInvalidBitNumber, n)
	}
	if n <= primaryBits {
		b.primary |= uint64(1) << (primaryBits - n)
	} else {
		b.secondary |= uint64(1) << (totalBits - n)
	}
	return nil
}

// Unset clears bit n (1-128).
func (b *BitArray128) Unset(n int) error {
	if n < 1 || n > totalBits {
		return fmt.Errorf("%w: %d", ErrInvalidBitNumber, n)
	}
	if n <= primaryBits {
		b.primary &^= uint64(1) << (primaryBits - n)
	} else {
		b.secondary &^= uint64(1) << (totalBits - n)
	}
	return nil
}

// HasSecondary reports whether any bit in 65..128 is set — the condition
// under which the serializer must announce and emit the secondary segment.
func (b *BitArray128) HasSecondary() bool {
	return b.secondary != 0
}

// PresentBits returns the ascending list of set bit numbers in [2,128],
// excluding bit 1 (which only ever announces the secondary segment).
func (b *BitArray128) PresentBits() []int {
	out := make([]int, 0, primaryBits)
	for i := 2; i <= primaryBits; i++ {
		if b.Get(i) {
			out = append(out, i)
		}
	}
	if b.HasSecondary() {
		for i := primaryBits + 1; i <= totalBits; i++ {
			if b.Get(i) {
				out = append(out, i)
			}
		}
	}
	return out
}

// WireWidth returns how many octets (Binary) or characters (ASCIIHex) this
// bitmap would occupy on the wire for the given class, given its current
// HasSecondary state.
func (b *BitArray128) WireWidth(class Class) int {
	extended := b.HasSecondary()
	switch class {
	case Binary:
		if extended {
			return extendedBytes
		}
		return primaryBytes
	case ASCIIHex:
		if extended {
			return extendedHex
		}
		return primaryHex
	default:
		return 0
	}
}

// Decode parses wire bytes of the given class into a BitArray128, returning
// the number of bytes consumed. If bit 1 is set, the secondary segment is
// read even when all of its bits are zero (it must still be consumed from
// the wire).
func Decode(data []byte, class Class) (*BitArray128, int, error) {
	switch class {
	case Binary:
		return decodeBinary(data)
	case ASCIIHex:
		return decodeASCIIHex(data)
	default:
		return nil, 0, fmt.Errorf("%w: class %v", ErrInvalidBitmap, class)
	}
}

// decodeWord runs an 8-octet wire segment through encoding.Binary (a
// pass-through Encoder that copies the segment out of the source buffer),
// checks that 8 octets came back, and interprets them as a big-endian
// uint64.
func decodeWord(data []byte) (uint64, error) {
	raw, n, err := encoding.Binary.Decode(data)
	if err != nil {
		return 0, err
	}
	if n != primaryBytes || len(raw) != primaryBytes {
		return 0, fmt.Errorf("expected %d bytes, got %d", primaryBytes, n)
	}
	return binary.BigEndian.Uint64(raw), nil
}

func decodeBinary(data []byte) (*BitArray128, int, error) {
	if len(data) < primaryBytes {
		return nil, 0, fmt.Errorf("%w: need %d bytes, have %d", ErrInvalidBitmap, primaryBytes, len(data))
	}
	primary, err := decodeWord(data[0:primaryBytes])
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrInvalidBitmap, err)
	}
	b := &BitArray128{primary: primary}
	if !b.Get(1) {
		return b, primaryBytes, nil
	}
	if len(data) < extendedBytes {
		return nil, 0, fmt.Errorf("%w: need %d bytes for secondary, have %d", ErrInvalidBitmap, extendedBytes, len(data))
	}
	secondary, err := decodeWord(data[primaryBytes:extendedBytes])
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrInvalidBitmap, err)
	}
	b.secondary = secondary
	return b, extendedBytes, nil
}

func decodeASCIIHex(data []byte) (*BitArray128, int, error) {
	if len(data) < primaryHex {
		return nil, 0, fmt.Errorf("%w: need %d hex chars, have %d", ErrInvalidBitmap, primaryHex, len(data))
	}
	primary, err := parseHex64(data[0:primaryHex])
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrInvalidBitmap, err)
	}
	b := &BitArray128{primary: primary}
	if !b.Get(1) {
		return b, primaryHex, nil
	}
	if len(data) < extendedHex {
		return nil, 0, fmt.Errorf("%w: need %d hex chars for secondary, have %d", ErrInvalidBitmap, extendedHex, len(data))
	}
	secondary, err := parseHex64(data[primaryHex:extendedHex])
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrInvalidBitmap, err)
	}
	b.secondary = secondary
	return b, extendedHex, nil
}

// Encode serializes the bitmap for the given class. The secondary segment
// is emitted, and bit 1 forced set, iff HasSecondary() is true — callers
// must call Set/Unset for positions 65-128 before encoding, not touch bit 1
// directly.
func Encode(b *BitArray128, class Class) ([]byte, error) {
	extended := b.HasSecondary()
	primary := b.primary
	if extended {
		primary |= uint64(1) << (primaryBits - 1)
	} else {
		primary &^= uint64(1) << (primaryBits - 1)
	}

	switch class {
	case Binary:
		word := make([]byte, primaryBytes)
		binary.BigEndian.PutUint64(word, primary)
		out, err := encoding.Binary.Encode(word)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidBitmap, err)
		}
		if extended {
			extWord := make([]byte, extendedBytes-primaryBytes)
			binary.BigEndian.PutUint64(extWord, b.secondary)
			extOut, err := encoding.Binary.Encode(extWord)
			if err != nil {
				return nil, fmt.Errorf("%w: %v", ErrInvalidBitmap, err)
			}
			out = append(out, extOut...)
		}
		return out, nil
	case ASCIIHex:
		out := make([]byte, 0, extendedHex)
		out = append(out, formatHex64(primary)...)
		if extended {
			out = append(out, formatHex64(b.secondary)...)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%w: class %v", ErrInvalidBitmap, class)
	}
}

// formatHex64 renders v through encoding.Hex, which emits lowercase digits,
// then upshifts the result — ISO8583 ASCII-hex bitmaps are conventionally
// uppercase on the wire.
func formatHex64(v uint64) []byte {
	word := make([]byte, primaryBytes)
	binary.BigEndian.PutUint64(word, v)
	out, _ := encoding.Hex.Encode(word) // encoding.Hex never errors on a fixed-width buffer
	return bytes.ToUpper(out)
}

func parseHex64(data []byte) (uint64, error) {
	if len(data) != primaryHex {
		return 0, fmt.Errorf("expected %d hex chars, got %d", primaryHex, len(data))
	}
	raw, n, err := encoding.Hex.Decode(data)
	if err != nil {
		return 0, err
	}
	if n != primaryHex || len(raw) != primaryBytes {
		return 0, fmt.Errorf("expected %d hex chars, got %d", primaryHex, n)
	}
	return binary.BigEndian.Uint64(raw), nil
}
