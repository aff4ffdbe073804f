package slotcodec

import (
	"fmt"

	"github.com/statebridge/core/internal/wire"
)

// ListOp discriminates the four list update shapes a LIST frame may
// carry, held in Sub[0].
type ListOp byte

const (
	ListOpAll    ListOp = 1
	ListOpSet    ListOp = 2
	ListOpAdd    ListOp = 3
	ListOpRemove ListOp = 4
)

const listInlineFlagOffset = 5
const listInlineDataOffset = 6

// EncodeListAll lays out the full list contents: fixed-width elements
// pack tightly, variable-width elements are prefixed by a u64 count
// and a u16 size table.
func EncodeListAll[T any](values []T, vc ElemCodec[T]) []byte {
	n := len(values)
	elems := make([][]byte, n)
	for i, v := range values {
		elems[i] = vc.Encode(v)
	}

	if vc.IsFixed() {
		out := make([]byte, 0, n*vc.FixedSize)
		for _, e := range elems {
			out = append(out, e...)
		}
		return out
	}

	head := make([]byte, 8+n*2)
	wire.PutUint64(head[0:8], uint64(n))
	for i, e := range elems {
		wire.PutUint16(head[8+i*2:8+i*2+2], uint16(len(e)))
	}
	out := head
	for _, e := range elems {
		out = append(out, e...)
	}
	return out
}

// DecodeListAll is the inverse of EncodeListAll.
func DecodeListAll[T any](payload []byte, vc ElemCodec[T]) ([]T, error) {
	if len(payload) == 0 {
		return nil, nil
	}

	if vc.IsFixed() {
		if len(payload)%vc.FixedSize != 0 {
			return nil, fmt.Errorf("slotcodec: list All payload length %d not a multiple of element size %d", len(payload), vc.FixedSize)
		}
		n := len(payload) / vc.FixedSize
		out := make([]T, n)
		for i := 0; i < n; i++ {
			v, err := vc.Decode(payload[i*vc.FixedSize : (i+1)*vc.FixedSize])
			if err != nil {
				return nil, err
			}
			out[i] = v
		}
		return out, nil
	}

	if len(payload) < 8 {
		return nil, fmt.Errorf("slotcodec: list All payload too short for count field")
	}
	n := int(wire.GetUint64(payload[0:8]))
	sizesEnd := 8 + n*2
	if len(payload) < sizesEnd {
		return nil, fmt.Errorf("slotcodec: list All size table truncated")
	}
	sizes := make([]uint16, n)
	for i := 0; i < n; i++ {
		sizes[i] = wire.GetUint16(payload[8+i*2 : 8+i*2+2])
	}

	out := make([]T, n)
	cur := payload[sizesEnd:]
	for i, sz := range sizes {
		if len(cur) < int(sz) {
			return nil, fmt.Errorf("slotcodec: list All element region truncated")
		}
		v, err := vc.Decode(cur[:sz])
		if err != nil {
			return nil, err
		}
		out[i] = v
		cur = cur[sz:]
	}
	return out, nil
}

// EncodeListSet builds a Set(index, value) frame, inlining the value
// when its codec is fixed-width and index (u32) plus the encoded value
// fit the sub-header window. A dynamic-width codec always spills to
// the payload, regardless of how small the encoded bytes turn out to
// be, so the decoder can recover its length.
func EncodeListSet[T any](index uint32, v T, vc ElemCodec[T]) (sub [wire.SubHeaderSize]byte, payload []byte) {
	sub[0] = byte(ListOpSet)
	wire.PutUint32(sub[1:5], index)
	vb := vc.Encode(v)

	if vc.IsFixed() && len(vb) <= wire.SubHeaderSize-listInlineDataOffset {
		sub[listInlineFlagOffset] = 1
		copy(sub[listInlineDataOffset:], vb)
		return sub, nil
	}
	payload = vb
	return sub, payload
}

// DecodeListSet is the inverse of EncodeListSet.
func DecodeListSet[T any](sub [wire.SubHeaderSize]byte, payload []byte, vc ElemCodec[T]) (uint32, T, error) {
	var zero T
	index := wire.GetUint32(sub[1:5])
	if sub[listInlineFlagOffset] != 0 {
		if !vc.IsFixed() {
			return 0, zero, fmt.Errorf("slotcodec: inline list Set requires a fixed-width element codec")
		}
		v, err := vc.Decode(sub[listInlineDataOffset : listInlineDataOffset+vc.FixedSize])
		return index, v, err
	}
	v, err := vc.Decode(payload)
	return index, v, err
}

// EncodeListAdd builds an Add(value) append frame, appending at the
// end of the list (the receiver has exclusive authority over the
// resulting index). The value is only inlined when its codec is
// fixed-width; a dynamic-width codec always spills to the payload.
func EncodeListAdd[T any](v T, vc ElemCodec[T]) (sub [wire.SubHeaderSize]byte, payload []byte) {
	sub[0] = byte(ListOpAdd)
	vb := vc.Encode(v)
	if vc.IsFixed() && len(vb) <= wire.SubHeaderSize-listInlineDataOffset {
		sub[listInlineFlagOffset] = 1
		copy(sub[listInlineDataOffset:], vb)
		return sub, nil
	}
	payload = vb
	return sub, payload
}

// DecodeListAdd is the inverse of EncodeListAdd.
func DecodeListAdd[T any](sub [wire.SubHeaderSize]byte, payload []byte, vc ElemCodec[T]) (T, error) {
	var zero T
	if sub[listInlineFlagOffset] != 0 {
		if !vc.IsFixed() {
			return zero, fmt.Errorf("slotcodec: inline list Add requires a fixed-width element codec")
		}
		return vc.Decode(sub[listInlineDataOffset : listInlineDataOffset+vc.FixedSize])
	}
	return vc.Decode(payload)
}

// EncodeListRemove builds a Remove(index) frame; the index always fits
// inline.
func EncodeListRemove(index uint32) [wire.SubHeaderSize]byte {
	var sub [wire.SubHeaderSize]byte
	sub[0] = byte(ListOpRemove)
	wire.PutUint32(sub[1:5], index)
	return sub
}

// DecodeListRemove is the inverse of EncodeListRemove.
func DecodeListRemove(sub [wire.SubHeaderSize]byte) uint32 {
	return wire.GetUint32(sub[1:5])
}
