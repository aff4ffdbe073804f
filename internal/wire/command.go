package wire

import (
	"encoding/binary"
	"fmt"
	"math"
)

// CommandTag discriminates the small sub-protocol carried by COMMAND
// frames (SPEC_FULL.md/spec.md §4.2). Values are internal to this
// protocol; the only constraint the wire format places on them is that
// they fit in one byte.
type CommandTag byte

const (
	CommandHandshake CommandTag = 1
	CommandAck       CommandTag = 2
	CommandUpdate    CommandTag = 3
	CommandError     CommandTag = 4
)

func (t CommandTag) String() string {
	switch t {
	case CommandHandshake:
		return "HANDSHAKE"
	case CommandAck:
		return "ACK"
	case CommandUpdate:
		return "UPDATE"
	case CommandError:
		return "ERROR"
	default:
		return fmt.Sprintf("UNKNOWN_COMMAND(%d)", byte(t))
	}
}

// Handshake is sent by the client as the opening frame of a
// connection: COMMAND/Handshake(version, token). Only Handshake may
// appear before a connection is established.
type Handshake struct {
	Version uint64
	Token   uint64
}

// EncodeHandshake builds the Message for a Handshake command.
func EncodeHandshake(h Handshake) Message {
	var params [ParamsSize]byte
	binary.LittleEndian.PutUint64(params[0:8], h.Version)
	binary.LittleEndian.PutUint64(params[8:16], h.Token)
	return NewCommandMessage(CommandHandshake, params, nil)
}

// DecodeHandshake extracts a Handshake from a decoded COMMAND message.
func DecodeHandshake(m Message) (Handshake, error) {
	if m.Kind != KindCommand || m.CommandTag != CommandHandshake {
		return Handshake{}, fmt.Errorf("wire: not a handshake command")
	}
	return Handshake{
		Version: binary.LittleEndian.Uint64(m.Params[0:8]),
		Token:   binary.LittleEndian.Uint64(m.Params[8:16]),
	}, nil
}

// Ack is sent by the server: it acknowledges a client-originated value
// write and decrements that slot's pending-write counter on the client.
type Ack struct {
	SlotID uint32
}

func EncodeAck(a Ack) Message {
	var params [ParamsSize]byte
	binary.LittleEndian.PutUint32(params[0:4], a.SlotID)
	return NewCommandMessage(CommandAck, params, nil)
}

func DecodeAck(m Message) (Ack, error) {
	if m.Kind != KindCommand || m.CommandTag != CommandAck {
		return Ack{}, fmt.Errorf("wire: not an ack command")
	}
	return Ack{SlotID: binary.LittleEndian.Uint32(m.Params[0:4])}, nil
}

// Update is client-bound: a UI repaint hint carrying a delta time in
// seconds.
type Update struct {
	Delta float32
}

func EncodeUpdate(u Update) Message {
	var params [ParamsSize]byte
	binary.LittleEndian.PutUint32(params[0:4], math.Float32bits(u.Delta))
	return NewCommandMessage(CommandUpdate, params, nil)
}

func DecodeUpdate(m Message) (Update, error) {
	if m.Kind != KindCommand || m.CommandTag != CommandUpdate {
		return Update{}, fmt.Errorf("wire: not an update command")
	}
	return Update{Delta: math.Float32frombits(binary.LittleEndian.Uint32(m.Params[0:4]))}, nil
}

// Error travels in either direction, carrying a human-readable
// message as its payload.
type Error struct {
	Text string
}

func EncodeError(e Error) Message {
	return NewCommandMessage(CommandError, [ParamsSize]byte{}, []byte(e.Text))
}

func DecodeError(m Message) (Error, error) {
	if m.Kind != KindCommand || m.CommandTag != CommandError {
		return Error{}, fmt.Errorf("wire: not an error command")
	}
	return Error{Text: string(m.Payload)}, nil
}
