package slotcodec

import (
	"fmt"
	"math"

	"github.com/statebridge/core/internal/wire"
)

// HistogramSubKind is the sub-kind byte standalone HISTOGRAM frames
// carry in Sub[0], per spec.md §4.3.
const HistogramSubKind = 51

// EncodeHistogram packs a bucket-count array as little-endian f32
// values. An empty slice encodes the "clear" update.
func EncodeHistogram(counts []float32) (sub [wire.SubHeaderSize]byte, payload []byte) {
	sub[0] = HistogramSubKind
	if len(counts) == 0 {
		return sub, nil
	}
	payload = make([]byte, len(counts)*4)
	for i, c := range counts {
		wire.PutUint32(payload[i*4:i*4+4], math.Float32bits(c))
	}
	return sub, payload
}

// DecodeHistogram is the inverse of EncodeHistogram. A nil/empty
// payload decodes to a nil slice (the clear update).
func DecodeHistogram(payload []byte) ([]float32, error) {
	if len(payload) == 0 {
		return nil, nil
	}
	if len(payload)%4 != 0 {
		return nil, fmt.Errorf("slotcodec: histogram payload length %d not a multiple of 4", len(payload))
	}
	counts := make([]float32, len(payload)/4)
	for i := range counts {
		counts[i] = math.Float32frombits(wire.GetUint32(payload[i*4 : i*4+4]))
	}
	return counts, nil
}
