// Package serializer implements the bitmap-recomputing emit algorithm: it
// walks a spec.MessageSpec in ascending position order and writes each
// present field into a destination buffer, recomputing and emitting the
// bitmap (including the secondary segment, only when a field at or above
// position 65 is present) rather than trusting any bitmap a caller might
// have cached.
package serializer

import (
	"errors"
	"fmt"

	"github.com/lattice8583/iso8583/pkg/bitmap"
	"github.com/lattice8583/iso8583/pkg/spec"
)

var (
	// ErrBufferTooSmall is returned when dst cannot hold the serialized
	// message.
	ErrBufferTooSmall = errors.New("serializer: destination buffer too small")
	// ErrPayloadTooLong is returned when a field's payload exceeds its
	// FieldSpec.MaxLength.
	ErrPayloadTooLong = errors.New("serializer: payload exceeds max length")
	// ErrMissingField is returned when position 0 (MTI) is not marked
	// Present. The bitmap position's Present flag is not consulted.
	ErrMissingField = errors.New("serializer: mandatory field missing")
)

// Field is the minimal per-position input the serializer needs: whether
// the position is present in the outgoing message, and its payload bytes
// (length-prefix-free; the serializer computes and writes prefixes
// itself).
type Field struct {
	Present bool
	Payload []byte
}

// Serialize writes a full message — MTI, recomputed bitmap, and every
// present field in ascending position order — into dst, returning the
// number of bytes written. Position 0 must be Present; the bitmap is always
// emitted, whatever its own Field says; all other positions are optional
// and are skipped entirely when not Present (no zero-fill, no placeholder
// bytes).
func Serialize(ms spec.MessageSpec, fields []Field, dst []byte) (int, error) {
	bitmapPos := ms.BitmapPosition()
	if len(fields) != ms.FieldCount() {
		return 0, fmt.Errorf("serializer: fields slice length %d does not match spec field count %d", len(fields), ms.FieldCount())
	}
	if !fields[0].Present {
		return 0, fmt.Errorf("%w: position 0 (MTI)", ErrMissingField)
	}

	bm := &bitmap.BitArray128{}
	for i, f := range fields {
		if i == 0 || i == bitmapPos || !f.Present {
			continue
		}
		if err := bm.Set(i); err != nil {
			return 0, fmt.Errorf("serializer: position %d: %w", i, err)
		}
	}

	bmSpec, err := ms.FieldAt(bitmapPos)
	if err != nil {
		return 0, err
	}
	class, err := bitmapClassOf(bmSpec)
	if err != nil {
		return 0, err
	}
	bmBytes, err := bitmap.Encode(bm, class)
	if err != nil {
		return 0, fmt.Errorf("serializer: encoding bitmap: %w", err)
	}

	offset := 0

	mtiSpec, err := ms.FieldAt(0)
	if err != nil {
		return 0, err
	}
	n, err := writeFixed(dst, offset, mtiSpec, fields[0].Payload, 0)
	if err != nil {
		return 0, err
	}
	offset = n

	if offset+len(bmBytes) > len(dst) {
		return 0, fmt.Errorf("%w: need %d bytes for bitmap at offset %d, have %d", ErrBufferTooSmall, len(bmBytes), offset, len(dst))
	}
	copy(dst[offset:], bmBytes)
	offset += len(bmBytes)

	for i := 1; i < ms.FieldCount(); i++ {
		if i == bitmapPos || !fields[i].Present {
			continue
		}
		fs, err := ms.FieldAt(i)
		if err != nil {
			return 0, err
		}
		payload := fields[i].Payload
		if len(payload) > fs.MaxLength {
			return 0, fmt.Errorf("%w: position %d: length %d exceeds max length %d", ErrPayloadTooLong, i, len(payload), fs.MaxLength)
		}

		switch {
		case fs.SizeDiscipline.IsVariable():
			offset, err = writeVariable(dst, offset, fs, payload, i)
		default:
			offset, err = writeFixed(dst, offset, fs, payload, i)
		}
		if err != nil {
			return 0, err
		}
	}

	return offset, nil
}

func bitmapClassOf(fs spec.FieldSpec) (bitmap.Class, error) {
	switch fs.CharClass {
	case spec.BitmapBinary:
		return bitmap.Binary, nil
	case spec.BitmapASCIIHex:
		return bitmap.ASCIIHex, nil
	default:
		return 0, fmt.Errorf("serializer: unsupported bitmap char class %v", fs.CharClass)
	}
}

func writeFixed(dst []byte, offset int, fs spec.FieldSpec, payload []byte, position int) (int, error) {
	if len(payload) != fs.MaxLength {
		return 0, fmt.Errorf("%w: position %d: fixed field requires exactly %d bytes, got %d", ErrPayloadTooLong, position, fs.MaxLength, len(payload))
	}
	end := offset + len(payload)
	if end > len(dst) {
		return 0, fmt.Errorf("%w: need %d bytes at offset %d, have %d", ErrBufferTooSmall, len(payload), offset, len(dst))
	}
	copy(dst[offset:end], payload)
	return end, nil
}

func writeVariable(dst []byte, offset int, fs spec.FieldSpec, payload []byte, position int) (int, error) {
	prefixWidth := fs.SizeDiscipline.PrefixWidth()
	end := offset + prefixWidth + len(payload)
	if end > len(dst) {
		return 0, fmt.Errorf("%w: need %d bytes at offset %d, have %d", ErrBufferTooSmall, prefixWidth+len(payload), offset, len(dst))
	}
	formatDecimal(dst[offset:offset+prefixWidth], len(payload))
	copy(dst[offset+prefixWidth:end], payload)
	return end, nil
}

func formatDecimal(dst []byte, v int) {
	for i := len(dst) - 1; i >= 0; i-- {
		dst[i] = byte('0' + v%10)
		v /= 10
	}
}
