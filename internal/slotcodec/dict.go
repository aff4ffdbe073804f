package slotcodec

import (
	"fmt"

	"github.com/statebridge/core/internal/wire"
)

// DictOp discriminates the three dict update shapes a DICT frame may
// carry, held in Sub[0].
type DictOp byte

const (
	DictOpAll    DictOp = 1
	DictOpSet    DictOp = 2
	DictOpRemove DictOp = 3
)

// dictInlineFlagOffset marks, in Sub[1], whether a Set/Remove frame's
// key (and value) are carried inline in the remaining sub-header bytes
// rather than in the payload.
const dictInlineFlagOffset = 1
const dictInlineDataOffset = 2

// EncodeDictAll lays out the full dict contents according to whichever
// of the four layouts fits the key/value codecs:
//
//   - both fixed:    repeated [key|value], count derived from length
//   - both dynamic:  count u64 | keySizes[count]u16 | valSizes[count]u16 | keys | values
//   - key fixed only: count u64 | keys(count*keySize) | valSizes[count]u16 | values
//   - val fixed only: count u64 | keySizes[count]u16 | keys | values(count*valSize)
func EncodeDictAll[K comparable, V any](keys []K, values []V, kc ElemCodec[K], vc ElemCodec[V]) ([]byte, error) {
	if len(keys) != len(values) {
		return nil, fmt.Errorf("slotcodec: dict All keys/values length mismatch (%d vs %d)", len(keys), len(values))
	}
	n := len(keys)

	keyBytes := make([][]byte, n)
	valBytes := make([][]byte, n)
	for i := 0; i < n; i++ {
		keyBytes[i] = kc.Encode(keys[i])
		valBytes[i] = vc.Encode(values[i])
	}

	if kc.IsFixed() && vc.IsFixed() {
		out := make([]byte, 0, n*(kc.FixedSize+vc.FixedSize))
		for i := 0; i < n; i++ {
			out = append(out, keyBytes[i]...)
			out = append(out, valBytes[i]...)
		}
		return out, nil
	}

	head := make([]byte, 8)
	wire.PutUint64(head, uint64(n))

	switch {
	case !kc.IsFixed() && !vc.IsFixed():
		sizes := make([]byte, n*4)
		for i := 0; i < n; i++ {
			wire.PutUint16(sizes[i*2:i*2+2], uint16(len(keyBytes[i])))
		}
		valSizesOff := n * 2
		for i := 0; i < n; i++ {
			wire.PutUint16(sizes[valSizesOff+i*2:valSizesOff+i*2+2], uint16(len(valBytes[i])))
		}
		out := append(head, sizes...)
		for i := 0; i < n; i++ {
			out = append(out, keyBytes[i]...)
		}
		for i := 0; i < n; i++ {
			out = append(out, valBytes[i]...)
		}
		return out, nil

	case kc.IsFixed() && !vc.IsFixed():
		sizes := make([]byte, n*2)
		for i := 0; i < n; i++ {
			wire.PutUint16(sizes[i*2:i*2+2], uint16(len(valBytes[i])))
		}
		out := head
		for i := 0; i < n; i++ {
			out = append(out, keyBytes[i]...)
		}
		out = append(out, sizes...)
		for i := 0; i < n; i++ {
			out = append(out, valBytes[i]...)
		}
		return out, nil

	default: // !kc.IsFixed() && vc.IsFixed()
		sizes := make([]byte, n*2)
		for i := 0; i < n; i++ {
			wire.PutUint16(sizes[i*2:i*2+2], uint16(len(keyBytes[i])))
		}
		out := append(head, sizes...)
		for i := 0; i < n; i++ {
			out = append(out, keyBytes[i]...)
		}
		for i := 0; i < n; i++ {
			out = append(out, valBytes[i]...)
		}
		return out, nil
	}
}

// DecodeDictAll is the inverse of EncodeDictAll.
func DecodeDictAll[K comparable, V any](payload []byte, kc ElemCodec[K], vc ElemCodec[V]) (map[K]V, error) {
	out := map[K]V{}
	if len(payload) == 0 {
		return out, nil
	}

	if kc.IsFixed() && vc.IsFixed() {
		pairSize := kc.FixedSize + vc.FixedSize
		if len(payload)%pairSize != 0 {
			return nil, fmt.Errorf("slotcodec: dict All payload length %d not a multiple of pair size %d", len(payload), pairSize)
		}
		n := len(payload) / pairSize
		for i := 0; i < n; i++ {
			off := i * pairSize
			k, err := kc.Decode(payload[off : off+kc.FixedSize])
			if err != nil {
				return nil, err
			}
			v, err := vc.Decode(payload[off+kc.FixedSize : off+pairSize])
			if err != nil {
				return nil, err
			}
			out[k] = v
		}
		return out, nil
	}

	if len(payload) < 8 {
		return nil, fmt.Errorf("slotcodec: dict All payload too short for count field")
	}
	n := int(wire.GetUint64(payload[0:8]))
	cur := payload[8:]

	readSizes := func(buf []byte, n int) ([]uint16, []byte, error) {
		if len(buf) < n*2 {
			return nil, nil, fmt.Errorf("slotcodec: dict All size table truncated")
		}
		sizes := make([]uint16, n)
		for i := 0; i < n; i++ {
			sizes[i] = wire.GetUint16(buf[i*2 : i*2+2])
		}
		return sizes, buf[n*2:], nil
	}

	readConcat := func(buf []byte, sizes []uint16) ([][]byte, []byte, error) {
		elems := make([][]byte, len(sizes))
		for i, sz := range sizes {
			if len(buf) < int(sz) {
				return nil, nil, fmt.Errorf("slotcodec: dict All concatenated region truncated")
			}
			elems[i] = buf[:sz]
			buf = buf[sz:]
		}
		return elems, buf, nil
	}

	readFixedConcat := func(buf []byte, n, size int) ([][]byte, []byte, error) {
		if len(buf) < n*size {
			return nil, nil, fmt.Errorf("slotcodec: dict All fixed-width region truncated")
		}
		elems := make([][]byte, n)
		for i := 0; i < n; i++ {
			elems[i] = buf[i*size : i*size+size]
		}
		return elems, buf[n*size:], nil
	}

	var keyElems, valElems [][]byte
	var err error
	switch {
	case !kc.IsFixed() && !vc.IsFixed():
		var keySizes, valSizes []uint16
		keySizes, cur, err = readSizes(cur, n)
		if err != nil {
			return nil, err
		}
		valSizes, cur, err = readSizes(cur, n)
		if err != nil {
			return nil, err
		}
		keyElems, cur, err = readConcat(cur, keySizes)
		if err != nil {
			return nil, err
		}
		valElems, _, err = readConcat(cur, valSizes)
		if err != nil {
			return nil, err
		}
	case kc.IsFixed() && !vc.IsFixed():
		keyElems, cur, err = readFixedConcat(cur, n, kc.FixedSize)
		if err != nil {
			return nil, err
		}
		var valSizes []uint16
		valSizes, cur, err = readSizes(cur, n)
		if err != nil {
			return nil, err
		}
		valElems, _, err = readConcat(cur, valSizes)
		if err != nil {
			return nil, err
		}
	default:
		var keySizes []uint16
		keySizes, cur, err = readSizes(cur, n)
		if err != nil {
			return nil, err
		}
		keyElems, cur, err = readConcat(cur, keySizes)
		if err != nil {
			return nil, err
		}
		valElems, _, err = readFixedConcat(cur, n, vc.FixedSize)
		if err != nil {
			return nil, err
		}
	}

	for i := 0; i < n; i++ {
		k, err := kc.Decode(keyElems[i])
		if err != nil {
			return nil, err
		}
		v, err := vc.Decode(valElems[i])
		if err != nil {
			return nil, err
		}
		out[k] = v
	}
	return out, nil
}

// EncodeDictSet builds a Set(k, v) frame. When both codecs are
// fixed-width and the encoded key and value together fit inside the
// sub-header window they are carried inline; otherwise (including any
// dynamic-width codec, regardless of how small the encoded bytes turn
// out to be) they spill into the payload, each length-prefixed by a
// u16 so the dynamic case stays self-describing.
func EncodeDictSet[K comparable, V any](k K, v V, kc ElemCodec[K], vc ElemCodec[V]) (sub [wire.SubHeaderSize]byte, payload []byte) {
	sub[0] = byte(DictOpSet)
	kb := kc.Encode(k)
	vb := vc.Encode(v)

	if kc.IsFixed() && vc.IsFixed() && len(kb)+len(vb) <= wire.SubHeaderSize-dictInlineDataOffset {
		sub[dictInlineFlagOffset] = 1
		copy(sub[dictInlineDataOffset:], kb)
		copy(sub[dictInlineDataOffset+len(kb):], vb)
		return sub, nil
	}

	payload = make([]byte, 4+len(kb)+len(vb))
	wire.PutUint16(payload[0:2], uint16(len(kb)))
	wire.PutUint16(payload[2:4], uint16(len(vb)))
	copy(payload[4:], kb)
	copy(payload[4+len(kb):], vb)
	return sub, payload
}

// DecodeDictSet is the inverse of EncodeDictSet. The inline path reads
// kc.FixedSize and vc.FixedSize bytes from the sub-header window and
// returns an error if either codec is variable-length, since dynamic
// element sizes can't be recovered from that window.
func DecodeDictSet[K comparable, V any](sub [wire.SubHeaderSize]byte, payload []byte, kc ElemCodec[K], vc ElemCodec[V]) (K, V, error) {
	var zeroK K
	var zeroV V

	if sub[dictInlineFlagOffset] != 0 {
		if !kc.IsFixed() || !vc.IsFixed() {
			return zeroK, zeroV, fmt.Errorf("slotcodec: inline dict Set requires fixed-width key and value codecs")
		}
		kb := sub[dictInlineDataOffset : dictInlineDataOffset+kc.FixedSize]
		vb := sub[dictInlineDataOffset+kc.FixedSize : dictInlineDataOffset+kc.FixedSize+vc.FixedSize]
		k, err := kc.Decode(kb)
		if err != nil {
			return zeroK, zeroV, err
		}
		v, err := vc.Decode(vb)
		if err != nil {
			return zeroK, zeroV, err
		}
		return k, v, nil
	}

	if len(payload) < 4 {
		return zeroK, zeroV, fmt.Errorf("slotcodec: dict Set payload too short")
	}
	kLen := int(wire.GetUint16(payload[0:2]))
	vLen := int(wire.GetUint16(payload[2:4]))
	if len(payload) < 4+kLen+vLen {
		return zeroK, zeroV, fmt.Errorf("slotcodec: dict Set payload truncated")
	}
	k, err := kc.Decode(payload[4 : 4+kLen])
	if err != nil {
		return zeroK, zeroV, err
	}
	v, err := vc.Decode(payload[4+kLen : 4+kLen+vLen])
	if err != nil {
		return zeroK, zeroV, err
	}
	return k, v, nil
}

// EncodeDictRemove builds a Remove(k) frame, inlining the key only when
// its codec is fixed-width and it fits the sub-header window; a
// dynamic-width key always spills to the payload so the decoder can
// recover its length.
func EncodeDictRemove[K comparable](k K, kc ElemCodec[K]) (sub [wire.SubHeaderSize]byte, payload []byte) {
	sub[0] = byte(DictOpRemove)
	kb := kc.Encode(k)
	if kc.IsFixed() && len(kb) <= wire.SubHeaderSize-dictInlineDataOffset {
		sub[dictInlineFlagOffset] = 1
		copy(sub[dictInlineDataOffset:], kb)
		return sub, nil
	}
	payload = kb
	return sub, payload
}

// DecodeDictRemove is the inverse of EncodeDictRemove.
func DecodeDictRemove[K comparable](sub [wire.SubHeaderSize]byte, payload []byte, kc ElemCodec[K]) (K, error) {
	var zero K
	if sub[dictInlineFlagOffset] != 0 {
		if !kc.IsFixed() {
			return zero, fmt.Errorf("slotcodec: inline dict Remove requires a fixed-width key codec")
		}
		return kc.Decode(sub[dictInlineDataOffset : dictInlineDataOffset+kc.FixedSize])
	}
	return kc.Decode(payload)
}
