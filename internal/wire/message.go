package wire

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
)

// Message is the generic, kind-agnostic decoding of one frame. Slot
// codecs (internal/slotcodec) interpret Sub/Payload for non-command
// kinds; command.go interprets CommandTag/Params/Payload for COMMAND
// frames.
type Message struct {
	Kind Kind

	// Valid when Kind.IsSlotKind().
	SlotID uint32
	Flag   bool
	Sub    [SubHeaderSize]byte

	// Valid when Kind == KindCommand.
	CommandTag CommandTag
	Params     [ParamsSize]byte

	// Payload is nil when the frame carries no variable-length data.
	Payload []byte
}

// NewSlotMessage builds a Message for one of the slot-addressing
// kinds (everything except COMMAND).
func NewSlotMessage(kind Kind, slotID uint32, flag bool, sub [SubHeaderSize]byte, payload []byte) Message {
	return Message{Kind: kind, SlotID: slotID, Flag: flag, Sub: sub, Payload: payload}
}

// NewCommandMessage builds a Message carrying a COMMAND frame.
func NewCommandMessage(tag CommandTag, params [ParamsSize]byte, payload []byte) Message {
	return Message{Kind: KindCommand, CommandTag: tag, Params: params, Payload: payload}
}

// Equal compares two messages for semantic equality: a nil payload and
// an empty payload are treated as equivalent, matching the round-trip
// property in SPEC_FULL.md/spec.md §8 ("modulo payload-size/sign
// re-derivation").
func (m Message) Equal(other Message) bool {
	if m.Kind != other.Kind {
		return false
	}
	if m.Kind.IsSlotKind() {
		if m.SlotID != other.SlotID || m.Flag != other.Flag || m.Sub != other.Sub {
			return false
		}
	} else {
		if m.CommandTag != other.CommandTag || m.Params != other.Params {
			return false
		}
	}
	return bytes.Equal(m.Payload, other.Payload)
}

// Encode renders m to its wire representation: a 32-byte header
// followed by the payload, if any.
func (m Message) Encode() ([]byte, error) {
	if len(m.Payload) > 0xFFFFFFFF {
		return nil, fmt.Errorf("wire: payload too large (%d bytes)", len(m.Payload))
	}

	h := header{
		Kind:        m.Kind,
		HasPayload:  len(m.Payload) > 0,
		PayloadSize: uint32(len(m.Payload)),
		SlotID:      m.SlotID,
		Flag:        m.Flag,
		Sub:         m.Sub,
		CommandTag:  m.CommandTag,
		Params:      m.Params,
	}

	hdr, err := encodeHeader(h)
	if err != nil {
		return nil, err
	}

	out := make([]byte, 0, HeaderSize+len(m.Payload))
	out = append(out, hdr[:]...)
	out = append(out, m.Payload...)
	return out, nil
}

// WriteMessage encodes and writes m to w in one call.
func WriteMessage(w io.Writer, m Message) error {
	buf, err := m.Encode()
	if err != nil {
		return err
	}
	_, err = w.Write(buf)
	return err
}

// ReadMessage reads exactly one frame from r: the fixed header, and
// — when the header's sign bit indicates it — the payload.
func ReadMessage(r io.Reader) (Message, error) {
	var hdrBuf [HeaderSize]byte
	if _, err := io.ReadFull(r, hdrBuf[:]); err != nil {
		return Message{}, err
	}

	h, err := decodeHeader(hdrBuf)
	if err != nil {
		return Message{}, err
	}

	var payload []byte
	if h.HasPayload {
		payload = make([]byte, h.PayloadSize)
		if _, err := io.ReadFull(r, payload); err != nil {
			return Message{}, fmt.Errorf("wire: short payload read: %w", err)
		}
	}

	return Message{
		Kind:       h.Kind,
		SlotID:     h.SlotID,
		Flag:       h.Flag,
		Sub:        h.Sub,
		CommandTag: h.CommandTag,
		Params:     h.Params,
		Payload:    payload,
	}, nil
}

// PutUint16/32/64 and GetUint16/32/64 are small helpers shared by slotcodec for
// filling sub-header windows; exported so slot codecs never need their
// own copy of the little-endian convention.
func PutUint32(b []byte, v uint32) { binary.LittleEndian.PutUint32(b, v) }
func GetUint32(b []byte) uint32    { return binary.LittleEndian.Uint32(b) }
func PutUint64(b []byte, v uint64) { binary.LittleEndian.PutUint64(b, v) }
func GetUint64(b []byte) uint64    { return binary.LittleEndian.Uint64(b) }
func PutUint16(b []byte, v uint16) { binary.LittleEndian.PutUint16(b, v) }
func GetUint16(b []byte) uint16    { return binary.LittleEndian.Uint16(b) }
