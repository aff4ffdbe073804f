package slotcodec

import (
	"math"

	"github.com/statebridge/core/internal/wire"
)

// ElemCodec describes how to turn one dict key, dict value, or list
// element into wire bytes. FixedSize is 0 for variable-length elements
// (e.g. strings); otherwise every encoded element is exactly
// FixedSize bytes, which lets Dict/List "All" frames omit a
// per-element length table.
type ElemCodec[T any] struct {
	FixedSize int
	Encode    func(T) []byte
	Decode    func([]byte) (T, error)
}

func (c ElemCodec[T]) IsFixed() bool { return c.FixedSize > 0 }

// Uint32Codec, Int64Codec, Float64Codec and StringCodec are ready-made
// ElemCodec instances for primitive key/value element types; callers
// pass them to registry.AddDict/AddList.
func Uint32Codec() ElemCodec[uint32] {
	return ElemCodec[uint32]{
		FixedSize: 4,
		Encode: func(v uint32) []byte {
			b := make([]byte, 4)
			wire.PutUint32(b, v)
			return b
		},
		Decode: func(b []byte) (uint32, error) { return wire.GetUint32(b), nil },
	}
}

func Int64Codec() ElemCodec[int64] {
	return ElemCodec[int64]{
		FixedSize: 8,
		Encode: func(v int64) []byte {
			b := make([]byte, 8)
			wire.PutUint64(b, uint64(v))
			return b
		},
		Decode: func(b []byte) (int64, error) { return int64(wire.GetUint64(b)), nil },
	}
}

func Float64Codec() ElemCodec[float64] {
	return ElemCodec[float64]{
		FixedSize: 8,
		Encode: func(v float64) []byte {
			b := make([]byte, 8)
			wire.PutUint64(b, math.Float64bits(v))
			return b
		},
		Decode: func(b []byte) (float64, error) { return math.Float64frombits(wire.GetUint64(b)), nil },
	}
}

func StringCodec() ElemCodec[string] {
	return ElemCodec[string]{
		FixedSize: 0,
		Encode:    func(v string) []byte { return []byte(v) },
		Decode:    func(b []byte) (string, error) { return string(b), nil },
	}
}
