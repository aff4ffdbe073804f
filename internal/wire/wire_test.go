package wire

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeaderDiscipline(t *testing.T) {
	var sub [SubHeaderSize]byte
	PutUint32(sub[0:4], 0xDEADBEEF)

	withPayload := NewSlotMessage(KindValue, 11, true, sub, []byte{0x2A, 0, 0, 0, 0, 0, 0, 0})
	buf, err := withPayload.Encode()
	require.NoError(t, err)
	require.Len(t, buf, HeaderSize+8)

	assert.True(t, int8(buf[0]) < 0, "byte 0 must be negative when a payload is produced")
	assert.Equal(t, byte(KindValue), byte(-int8(buf[0])))
	gotSize := GetUint32(buf[sizeOffset:HeaderSize])
	assert.Equal(t, uint32(len(withPayload.Payload)), gotSize)

	noPayload := NewSlotMessage(KindSignal, 12, true, [SubHeaderSize]byte{}, nil)
	buf2, err := noPayload.Encode()
	require.NoError(t, err)
	require.Len(t, buf2, HeaderSize)
	assert.True(t, int8(buf2[0]) >= 0, "byte 0 must be non-negative without a payload")
}

func TestSlotMessageRoundTrip(t *testing.T) {
	var sub [SubHeaderSize]byte
	PutUint64(sub[0:8], 42)

	cases := []Message{
		NewSlotMessage(KindValue, 11, true, sub, []byte{1, 2, 3, 4, 5, 6, 7, 8}),
		NewSlotMessage(KindStatic, 20, false, sub, nil),
		NewSlotMessage(KindSignal, 30, true, [SubHeaderSize]byte{}, nil),
		NewSlotMessage(KindImage, 40, true, sub, make([]byte, 1024)),
		NewSlotMessage(KindHistogram, 41, true, sub, nil),
		NewSlotMessage(KindDict, 50, false, sub, []byte("packed-dict-payload")),
		NewSlotMessage(KindList, 60, true, sub, []byte("packed-list-payload")),
		NewSlotMessage(KindGraph, 70, true, sub, []byte("series-bytes")),
	}

	for _, want := range cases {
		buf, err := want.Encode()
		require.NoError(t, err)

		got, err := ReadMessage(bytes.NewReader(buf))
		require.NoError(t, err)
		assert.True(t, want.Equal(got), "round-trip mismatch for kind %s", want.Kind)
	}
}

func TestCommandRoundTrip(t *testing.T) {
	hs := EncodeHandshake(Handshake{Version: 7, Token: 0xAB})
	buf, err := hs.Encode()
	require.NoError(t, err)
	got, err := ReadMessage(bytes.NewReader(buf))
	require.NoError(t, err)
	decoded, err := DecodeHandshake(got)
	require.NoError(t, err)
	assert.Equal(t, uint64(7), decoded.Version)
	assert.Equal(t, uint64(0xAB), decoded.Token)

	ack := EncodeAck(Ack{SlotID: 11})
	buf, err = ack.Encode()
	require.NoError(t, err)
	got, err = ReadMessage(bytes.NewReader(buf))
	require.NoError(t, err)
	decodedAck, err := DecodeAck(got)
	require.NoError(t, err)
	assert.Equal(t, uint32(11), decodedAck.SlotID)

	upd := EncodeUpdate(Update{Delta: 0.016})
	buf, err = upd.Encode()
	require.NoError(t, err)
	got, err = ReadMessage(bytes.NewReader(buf))
	require.NoError(t, err)
	decodedUpd, err := DecodeUpdate(got)
	require.NoError(t, err)
	assert.InDelta(t, float32(0.016), decodedUpd.Delta, 1e-6)

	errMsg := EncodeError(Error{Text: "different version"})
	buf, err = errMsg.Encode()
	require.NoError(t, err)
	got, err = ReadMessage(bytes.NewReader(buf))
	require.NoError(t, err)
	decodedErr, err := DecodeError(got)
	require.NoError(t, err)
	assert.Equal(t, "different version", decodedErr.Text)
}

func TestReadMessageRejectsUnknownKind(t *testing.T) {
	var buf [HeaderSize]byte
	buf[0] = 0x7F // not any known kind
	_, err := ReadMessage(bytes.NewReader(buf[:]))
	assert.Error(t, err)
}

func TestReadMessageShortPayload(t *testing.T) {
	msg := NewSlotMessage(KindValue, 1, true, [SubHeaderSize]byte{}, []byte("0123456789"))
	buf, err := msg.Encode()
	require.NoError(t, err)

	truncated := buf[:len(buf)-5]
	_, err = ReadMessage(bytes.NewReader(truncated))
	assert.Error(t, err)
}
