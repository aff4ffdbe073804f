package slotcodec

import (
	"fmt"
	"math"

	"github.com/statebridge/core/internal/wire"
)

// GraphOp discriminates the four per-series operations a GRAPH frame
// may carry, held in Sub[0].
type GraphOp byte

const (
	GraphOpSet       GraphOp = 1
	GraphOpAddPoints GraphOp = 2
	GraphOpRemove    GraphOp = 3
	GraphOpReset     GraphOp = 4
)

// GraphPrecision selects the element width of a series' samples.
type GraphPrecision byte

const (
	GraphPrecisionF32 GraphPrecision = 0
	GraphPrecisionF64 GraphPrecision = 1
)

// GraphAxisMode distinguishes a series with an explicit, paired x/y
// sample set from one whose x-axis is an implicit linear range.
type GraphAxisMode byte

const (
	GraphAxisPaired GraphAxisMode = 0
	GraphAxisLinear GraphAxisMode = 1
)

// Sub-header layout for GRAPH frames (20 bytes):
//
//	[0]    op
//	[1]    precision (f32/f64)
//	[2]    axis mode (paired/linear)
//	[3:5]  series id (u16)
//	[5:9]  point count (u32)
const (
	graphPrecisionOffset = 1
	graphAxisModeOffset  = 2
	graphSeriesIDOffset  = 3
	graphPointCountOff   = 5
)

func elemWidth(p GraphPrecision) int {
	if p == GraphPrecisionF64 {
		return 8
	}
	return 4
}

func encodeFloats(vals []float64, prec GraphPrecision) []byte {
	w := elemWidth(prec)
	out := make([]byte, len(vals)*w)
	for i, v := range vals {
		switch prec {
		case GraphPrecisionF32:
			wire.PutUint32(out[i*w:i*w+w], math.Float32bits(float32(v)))
		case GraphPrecisionF64:
			wire.PutUint64(out[i*w:i*w+w], math.Float64bits(v))
		}
	}
	return out
}

func decodeFloats(buf []byte, prec GraphPrecision) ([]float64, error) {
	w := elemWidth(prec)
	if len(buf)%w != 0 {
		return nil, fmt.Errorf("slotcodec: graph sample buffer length %d not a multiple of element width %d", len(buf), w)
	}
	n := len(buf) / w
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		switch prec {
		case GraphPrecisionF32:
			out[i] = float64(math.Float32frombits(wire.GetUint32(buf[i*w : i*w+w])))
		case GraphPrecisionF64:
			out[i] = math.Float64frombits(wire.GetUint64(buf[i*w : i*w+w]))
		}
	}
	return out, nil
}

// GraphSeriesUpdate is the decoded content of a Set/AddPoints GRAPH
// frame. For a paired-axis series X has one entry per Y; for a
// linear-axis series X is empty and the axis is implicit (sample index).
type GraphSeriesUpdate struct {
	SeriesID  uint16
	Precision GraphPrecision
	AxisMode  GraphAxisMode
	X         []float64 // set only when AxisMode == GraphAxisPaired
	Y         []float64
}

// EncodeGraphSet builds a Set(seriesID, data) frame that (re)defines a
// series' axis mode, precision and full contents. Paired mode writes x
// then y, each N elements; linear mode writes y only.
func EncodeGraphSet(u GraphSeriesUpdate) (sub [wire.SubHeaderSize]byte, payload []byte, err error) {
	return encodeGraphSeries(GraphOpSet, u)
}

// DecodeGraphSet is the inverse of EncodeGraphSet.
func DecodeGraphSet(sub [wire.SubHeaderSize]byte, payload []byte) (GraphSeriesUpdate, error) {
	return decodeGraphSeries(sub, payload)
}

// EncodeGraphAddPoints builds an AddPoints(seriesID, data) frame that
// appends new samples to an existing series; the axis mode must match
// the series' declared mode (enforced by the caller holding the slot).
func EncodeGraphAddPoints(u GraphSeriesUpdate) (sub [wire.SubHeaderSize]byte, payload []byte, err error) {
	return encodeGraphSeries(GraphOpAddPoints, u)
}

// DecodeGraphAddPoints is the inverse of EncodeGraphAddPoints.
func DecodeGraphAddPoints(sub [wire.SubHeaderSize]byte, payload []byte) (GraphSeriesUpdate, error) {
	return decodeGraphSeries(sub, payload)
}

func encodeGraphSeries(op GraphOp, u GraphSeriesUpdate) (sub [wire.SubHeaderSize]byte, payload []byte, err error) {
	if u.AxisMode == GraphAxisPaired && len(u.X) != len(u.Y) {
		return sub, nil, fmt.Errorf("slotcodec: graph paired series needs len(X) == len(Y), got %d and %d", len(u.X), len(u.Y))
	}
	sub[0] = byte(op)
	sub[graphPrecisionOffset] = byte(u.Precision)
	sub[graphAxisModeOffset] = byte(u.AxisMode)
	wire.PutUint16(sub[graphSeriesIDOffset:graphSeriesIDOffset+2], u.SeriesID)
	wire.PutUint32(sub[graphPointCountOff:graphPointCountOff+4], uint32(len(u.Y)))

	if u.AxisMode == GraphAxisPaired {
		payload = append(encodeFloats(u.X, u.Precision), encodeFloats(u.Y, u.Precision)...)
	} else {
		payload = encodeFloats(u.Y, u.Precision)
	}
	return sub, payload, nil
}

func decodeGraphSeries(sub [wire.SubHeaderSize]byte, payload []byte) (GraphSeriesUpdate, error) {
	var u GraphSeriesUpdate
	u.Precision = GraphPrecision(sub[graphPrecisionOffset])
	u.AxisMode = GraphAxisMode(sub[graphAxisModeOffset])
	u.SeriesID = wire.GetUint16(sub[graphSeriesIDOffset : graphSeriesIDOffset+2])
	n := int(wire.GetUint32(sub[graphPointCountOff : graphPointCountOff+4]))

	w := elemWidth(u.Precision)
	if u.AxisMode == GraphAxisPaired {
		want := 2 * n * w
		if len(payload) != want {
			return u, fmt.Errorf("slotcodec: graph paired payload length %d, want %d", len(payload), want)
		}
		xs, err := decodeFloats(payload[:n*w], u.Precision)
		if err != nil {
			return u, err
		}
		ys, err := decodeFloats(payload[n*w:], u.Precision)
		if err != nil {
			return u, err
		}
		u.X, u.Y = xs, ys
		return u, nil
	}

	want := n * w
	if len(payload) != want {
		return u, fmt.Errorf("slotcodec: graph linear payload length %d, want %d", len(payload), want)
	}
	ys, err := decodeFloats(payload, u.Precision)
	if err != nil {
		return u, err
	}
	u.Y = ys
	return u, nil
}

// EncodeGraphRemove builds a Remove(seriesID) frame.
func EncodeGraphRemove(seriesID uint16) [wire.SubHeaderSize]byte {
	var sub [wire.SubHeaderSize]byte
	sub[0] = byte(GraphOpRemove)
	wire.PutUint16(sub[graphSeriesIDOffset:graphSeriesIDOffset+2], seriesID)
	return sub
}

// DecodeGraphRemove is the inverse of EncodeGraphRemove.
func DecodeGraphRemove(sub [wire.SubHeaderSize]byte) uint16 {
	return wire.GetUint16(sub[graphSeriesIDOffset : graphSeriesIDOffset+2])
}

// EncodeGraphReset builds a Reset frame, clearing every series.
func EncodeGraphReset() [wire.SubHeaderSize]byte {
	var sub [wire.SubHeaderSize]byte
	sub[0] = byte(GraphOpReset)
	return sub
}
