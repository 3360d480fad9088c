package core

// FieldSlot is the caller-facing record of one field position after
// Message.Parse: whether it was present on the wire, where its payload
// lives in the source buffer, how long that payload is, and — once a
// caller has called SetField — the owned override payload that now takes
// precedence over the original wire bytes.
type FieldSlot struct {
	// Exists reports whether the field is present, either because it was
	// present on the wire or because a caller has since called SetField.
	Exists bool
	// Offset is the byte offset of the payload within the original
	// source buffer. Meaningless when Override is non-nil.
	Offset int
	// OnWireLen is the payload length as it appeared on the wire, before
	// any override. Meaningless when Override is non-nil.
	OnWireLen int
	// Override holds caller-supplied bytes once SetField has been called
	// for this position, taking precedence over Offset/OnWireLen. A
	// non-nil empty slice is a valid, zero-length override.
	Override []byte
}

// Bytes returns the slot's payload, using source for zero-copy positions
// and the owned Override slice otherwise. Returns nil if the slot is not
// present.
func (s FieldSlot) Bytes(source []byte) []byte {
	if !s.Exists {
		return nil
	}
	if s.Override != nil {
		return s.Override
	}
	return source[s.Offset : s.Offset+s.OnWireLen]
}
