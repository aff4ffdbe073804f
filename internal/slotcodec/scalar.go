// Package slotcodec implements the per-shape wire encoders and
// decoders used by internal/slot: scalar, enum, string, image,
// histogram, dict, list and graph (SPEC_FULL.md §4.3).
package slotcodec

import (
	"fmt"
	"math"

	"github.com/statebridge/core/internal/wire"
)

// Numeric is the set of scalar element types a ScalarSlot/StaticSlot
// may hold; each is fixed-width little-endian on the wire.
type Numeric interface {
	~int8 | ~int16 | ~int32 | ~int64 |
		~uint8 | ~uint16 | ~uint32 | ~uint64 |
		~float32 | ~float64
}

// EncodeScalar packs v into the leading bytes of a sub-header window;
// trailing bytes are left zero.
func EncodeScalar[T Numeric](v T) [wire.SubHeaderSize]byte {
	var sub [wire.SubHeaderSize]byte
	switch x := any(v).(type) {
	case int8:
		sub[0] = byte(x)
	case uint8:
		sub[0] = x
	case int16:
		wire.PutUint16(sub[0:2], uint16(x))
	case uint16:
		wire.PutUint16(sub[0:2], x)
	case int32:
		wire.PutUint32(sub[0:4], uint32(x))
	case uint32:
		wire.PutUint32(sub[0:4], x)
	case int64:
		wire.PutUint64(sub[0:8], uint64(x))
	case uint64:
		wire.PutUint64(sub[0:8], x)
	case float32:
		wire.PutUint32(sub[0:4], math.Float32bits(x))
	case float64:
		wire.PutUint64(sub[0:8], math.Float64bits(x))
	default:
		panic(fmt.Sprintf("slotcodec: unsupported scalar type %T", v))
	}
	return sub
}

// DecodeScalar is the inverse of EncodeScalar.
func DecodeScalar[T Numeric](sub [wire.SubHeaderSize]byte) T {
	var zero T
	switch any(zero).(type) {
	case int8:
		return T(int8(sub[0]))
	case uint8:
		return T(sub[0])
	case int16:
		return T(int16(wire.GetUint16(sub[0:2])))
	case uint16:
		return T(wire.GetUint16(sub[0:2]))
	case int32:
		return T(int32(wire.GetUint32(sub[0:4])))
	case uint32:
		return T(wire.GetUint32(sub[0:4]))
	case int64:
		return T(int64(wire.GetUint64(sub[0:8])))
	case uint64:
		return T(wire.GetUint64(sub[0:8]))
	case float32:
		return T(math.Float32frombits(wire.GetUint32(sub[0:4])))
	case float64:
		return T(math.Float64frombits(wire.GetUint64(sub[0:8])))
	default:
		panic(fmt.Sprintf("slotcodec: unsupported scalar type %T", zero))
	}
}

// EncodeEnumOrdinal packs an enum's ordinal (its position in the
// slot's value mapping) as a u64, per spec.md §4.3 "enum marshalled as
// u64 via a small mapping".
func EncodeEnumOrdinal(ordinal uint64) [wire.SubHeaderSize]byte {
	var sub [wire.SubHeaderSize]byte
	wire.PutUint64(sub[0:8], ordinal)
	return sub
}

// DecodeEnumOrdinal is the inverse of EncodeEnumOrdinal.
func DecodeEnumOrdinal(sub [wire.SubHeaderSize]byte) uint64 {
	return wire.GetUint64(sub[0:8])
}
