// Package core implements the caller-facing ISO8583 message contract: a
// Message wraps a raw source buffer and a spec.MessageSpec, parses it into
// a dense FieldSlot table, and lets callers read, override, and remove
// fields before re-serializing. The package performs no I/O.
package core

import (
	"log/slog"

	"github.com/lattice8583/iso8583/pkg/bitmap"
	"github.com/lattice8583/iso8583/pkg/parser"
	"github.com/lattice8583/iso8583/pkg/serializer"
	"github.com/lattice8583/iso8583/pkg/spec"
)

// MessageReader is the read-only view of a Message that Validators and
// ValidationRules consume.
type MessageReader interface {
	MTI() (string, error)
	IsPresent(position int) bool
	GetField(position int) ([]byte, error)
	PresentFields() []int
}

// Message is a parsed ISO8583 message: a source buffer plus a dense
// FieldSlot table computed by Parse. Field access before Parse returns an
// error; Message is not safe for concurrent mutation.
type Message struct {
	spec   spec.MessageSpec
	source []byte
	slots  []FieldSlot
	bm     *bitmap.BitArray128
	parsed bool
}

var _ MessageReader = (*Message)(nil)

// NewMessage creates an unparsed Message over source using ms. Call Parse
// before reading or mutating fields.
func NewMessage(source []byte, ms spec.MessageSpec) *Message {
	return &Message{spec: ms, source: source}
}

// Parse walks source with a parser.Parser and populates the FieldSlot
// table. It is idempotent: calling it again re-parses from scratch,
// discarding any overrides made since the last Parse.
func (m *Message) Parse() error {
	p := parser.NewParser(m.spec)
	cursors, bm, err := p.ParseMessage(m.source)
	if err != nil {
		return err
	}

	slots := make([]FieldSlot, len(cursors))
	for i, c := range cursors {
		slots[i] = FieldSlot{Exists: c.Present, Offset: c.Cursor.Start, OnWireLen: c.Cursor.Length()}
	}

	m.slots = slots
	m.bm = bm
	m.parsed = true
	return nil
}

func (m *Message) checkParsed() error {
	if !m.parsed {
		return newUnparsedMessage()
	}
	return nil
}

// MTI returns the message type indicator, position 0's payload.
func (m *Message) MTI() (string, error) {
	if err := m.checkParsed(); err != nil {
		return "", err
	}
	b, err := m.GetField(0)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// IsPresent reports whether position is present, either on the wire or
// via a subsequent SetField. Returns false for an out-of-range position.
func (m *Message) IsPresent(position int) bool {
	if !m.parsed || position < 0 || position >= len(m.slots) {
		return false
	}
	return m.slots[position].Exists
}

// GetField returns position's payload bytes. The returned slice aliases
// the source buffer unless the field has been overridden by SetField;
// callers must not mutate it.
func (m *Message) GetField(position int) ([]byte, error) {
	if err := m.checkParsed(); err != nil {
		return nil, err
	}
	if position < 0 || position >= len(m.slots) {
		return nil, newPositionOutOfRange(position, spec.ErrPositionOutOfRange)
	}
	slot := m.slots[position]
	if !slot.Exists {
		return nil, newFieldNotSet(position)
	}
	return slot.Bytes(m.source), nil
}

// SetField sets position's payload to payload, marking it present. The
// bytes are copied; Message owns the copy from this point. Returns an
// error if payload exceeds the field's MaxLength.
func (m *Message) SetField(position int, payload []byte) error {
	if err := m.checkParsed(); err != nil {
		return err
	}
	if position < 0 || position >= len(m.slots) {
		return newPositionOutOfRange(position, spec.ErrPositionOutOfRange)
	}
	if position == m.spec.BitmapPosition() {
		return &MessageError{Kind: UnsupportedCharClass, Position: position, Message: "bitmap field is managed internally and cannot be set directly", Cause: ErrUnsupportedCharClass}
	}
	fs, err := m.spec.FieldAt(position)
	if err != nil {
		return newPositionOutOfRange(position, err)
	}
	if fs.SizeDiscipline == spec.Fixed && len(payload) != fs.MaxLength {
		return newPayloadTooLong(position, len(payload), fs.MaxLength)
	}
	if len(payload) > fs.MaxLength {
		return newPayloadTooLong(position, len(payload), fs.MaxLength)
	}

	owned := make([]byte, len(payload))
	copy(owned, payload)
	m.slots[position] = FieldSlot{Exists: true, Override: owned}
	return nil
}

// RemoveField clears position, marking it absent. No-op if already
// absent.
func (m *Message) RemoveField(position int) error {
	if err := m.checkParsed(); err != nil {
		return err
	}
	if position < 0 || position >= len(m.slots) {
		return newPositionOutOfRange(position, spec.ErrPositionOutOfRange)
	}
	if position == 0 || position == m.spec.BitmapPosition() {
		return &MessageError{Kind: UnsupportedCharClass, Position: position, Message: "MTI and bitmap positions cannot be removed", Cause: ErrUnsupportedCharClass}
	}
	m.slots[position] = FieldSlot{}
	return nil
}

// PresentFields returns the ascending list of present positions, position
// 0 and the bitmap position excluded (mirroring bitmap.PresentBits: those
// two are structural, not data fields).
func (m *Message) PresentFields() []int {
	if !m.parsed {
		return nil
	}
	bitmapPos := m.spec.BitmapPosition()
	out := make([]int, 0, len(m.slots))
	for i, s := range m.slots {
		if i == 0 || i == bitmapPos || !s.Exists {
			continue
		}
		out = append(out, i)
	}
	return out
}

// FieldPrefixWidth returns the number of ASCII length-prefix digits
// position's SizeDiscipline uses (0 for Fixed and the bitmap position),
// letting a caller separate prefix bytes from payload bytes without
// re-parsing.
func (m *Message) FieldPrefixWidth(position int) (int, error) {
	fs, err := m.spec.FieldAt(position)
	if err != nil {
		return 0, newPositionOutOfRange(position, err)
	}
	return fs.SizeDiscipline.PrefixWidth(), nil
}

// ToBytes serializes the message — MTI, a freshly recomputed bitmap, and
// every present field — into dst, returning the number of bytes written.
func (m *Message) ToBytes(dst []byte) (int, error) {
	if err := m.checkParsed(); err != nil {
		return 0, err
	}
	fields := make([]serializer.Field, len(m.slots))
	for i, s := range m.slots {
		fields[i] = serializer.Field{Present: s.Exists, Payload: s.Bytes(m.source)}
	}
	return serializer.Serialize(m.spec, fields, dst)
}

// Validate runs v against this message. A nil Validator is a no-op.
func (m *Message) Validate(v Validator) error {
	if err := m.checkParsed(); err != nil {
		return err
	}
	if v == nil {
		return nil
	}
	return v.Validate(m)
}

// LogValue implements slog.LogValuer, letting an embedding application log
// a parsed message's shape without the core package doing any logging
// itself.
func (m *Message) LogValue() slog.Value {
	if !m.parsed {
		return slog.StringValue("unparsed message")
	}
	mti, _ := m.MTI()
	attrs := []slog.Attr{
		slog.String("mti", mti),
		slog.Bool("extended_bitmap", m.bm != nil && m.bm.HasSecondary()),
		slog.Any("present_fields", m.PresentFields()),
	}
	return slog.GroupValue(attrs...)
}
