package slotcodec

import "github.com/statebridge/core/internal/wire"

// EncodeString carries a string entirely in the payload; the
// sub-header window is unused since the generic frame header already
// conveys the payload length.
func EncodeString(s string) (sub [wire.SubHeaderSize]byte, payload []byte) {
	if s == "" {
		return sub, nil
	}
	return sub, []byte(s)
}

// DecodeString is the inverse of EncodeString.
func DecodeString(payload []byte) string {
	return string(payload)
}

// EncodeBytes and DecodeBytes share the string wire shape for slots
// that hold raw byte buffers rather than text.
func EncodeBytes(b []byte) (sub [wire.SubHeaderSize]byte, payload []byte) {
	return sub, b
}

func DecodeBytes(payload []byte) []byte {
	return payload
}
