package slotcodec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScalarRoundTrip(t *testing.T) {
	assert.Equal(t, int32(-42), DecodeScalar[int32](EncodeScalar(int32(-42))))
	assert.Equal(t, uint64(1<<40), DecodeScalar[uint64](EncodeScalar(uint64(1<<40))))
	assert.InDelta(t, float64(3.5), DecodeScalar[float64](EncodeScalar(float64(3.5))), 1e-12)
	assert.InDelta(t, float32(1.5), DecodeScalar[float32](EncodeScalar(float32(1.5))), 1e-6)
}

func TestEnumOrdinalRoundTrip(t *testing.T) {
	assert.Equal(t, uint64(3), DecodeEnumOrdinal(EncodeEnumOrdinal(3)))
}

func TestStringRoundTrip(t *testing.T) {
	_, payload := EncodeString("hello")
	assert.Equal(t, "hello", DecodeString(payload))

	_, empty := EncodeString("")
	assert.Equal(t, "", DecodeString(empty))
}

func TestHistogramRoundTrip(t *testing.T) {
	sub, payload := EncodeHistogram([]float32{1, 2, 3.5})
	assert.Equal(t, byte(HistogramSubKind), sub[0])
	got, err := DecodeHistogram(payload)
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 2, 3.5}, got)

	_, clearPayload := EncodeHistogram(nil)
	gotClear, err := DecodeHistogram(clearPayload)
	require.NoError(t, err)
	assert.Nil(t, gotClear)
}

func TestImageRoundTrip(t *testing.T) {
	update := ImageUpdate{
		Format:    ColorFormatColorAlpha,
		Height:    4,
		Width:     8,
		Rect:      &Rect{X: 1, Y: 2, W: 3, H: 4},
		Pixels:    []byte{1, 2, 3, 4, 5, 6, 7, 8},
		Histogram: []float32{0.1, 0.2, 0.3},
	}
	sub, payload := EncodeImage(update)
	got, err := DecodeImage(sub, payload)
	require.NoError(t, err)
	assert.Equal(t, update.Format, got.Format)
	assert.Equal(t, update.Height, got.Height)
	assert.Equal(t, update.Width, got.Width)
	require.NotNil(t, got.Rect)
	assert.Equal(t, *update.Rect, *got.Rect)
	assert.Equal(t, update.Pixels, got.Pixels)
	assert.Equal(t, update.Histogram, got.Histogram)
}

func TestImageWithoutRectOrHistogram(t *testing.T) {
	update := ImageUpdate{Format: ColorFormatGray, Height: 2, Width: 2, Pixels: []byte{9, 9, 9, 9}}
	sub, payload := EncodeImage(update)
	got, err := DecodeImage(sub, payload)
	require.NoError(t, err)
	assert.Nil(t, got.Rect)
	assert.Empty(t, got.Histogram)
	assert.Equal(t, update.Pixels, got.Pixels)
}

func TestDictAllBothFixed(t *testing.T) {
	keys := []uint32{1, 2, 3}
	values := []int64{10, 20, 30}
	payload, err := EncodeDictAll(keys, values, Uint32Codec(), Int64Codec())
	require.NoError(t, err)
	got, err := DecodeDictAll(payload, Uint32Codec(), Int64Codec())
	require.NoError(t, err)
	assert.Equal(t, map[uint32]int64{1: 10, 2: 20, 3: 30}, got)
}

func TestDictAllBothDynamic(t *testing.T) {
	keys := []string{"alpha", "b", "gamma-long-key"}
	values := []string{"x", "yy", "zzz"}
	payload, err := EncodeDictAll(keys, values, StringCodec(), StringCodec())
	require.NoError(t, err)
	got, err := DecodeDictAll(payload, StringCodec(), StringCodec())
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"alpha": "x", "b": "yy", "gamma-long-key": "zzz"}, got)
}

func TestDictAllKeyFixedValueDynamic(t *testing.T) {
	keys := []uint32{7, 8}
	values := []string{"seven", "eight-eight"}
	payload, err := EncodeDictAll(keys, values, Uint32Codec(), StringCodec())
	require.NoError(t, err)
	got, err := DecodeDictAll(payload, Uint32Codec(), StringCodec())
	require.NoError(t, err)
	assert.Equal(t, map[uint32]string{7: "seven", 8: "eight-eight"}, got)
}

func TestDictAllKeyDynamicValueFixed(t *testing.T) {
	keys := []string{"seven", "eight-eight"}
	values := []uint32{7, 8}
	payload, err := EncodeDictAll(keys, values, StringCodec(), Uint32Codec())
	require.NoError(t, err)
	got, err := DecodeDictAll(payload, StringCodec(), Uint32Codec())
	require.NoError(t, err)
	assert.Equal(t, map[string]uint32{"seven": 7, "eight-eight": 8}, got)
}

func TestDictSetInline(t *testing.T) {
	sub, payload := EncodeDictSet(uint32(5), int64(99), Uint32Codec(), Int64Codec())
	assert.Nil(t, payload)
	k, v, err := DecodeDictSet(sub, payload, Uint32Codec(), Int64Codec())
	require.NoError(t, err)
	assert.Equal(t, uint32(5), k)
	assert.Equal(t, int64(99), v)
}

func TestDictSetOutOfLine(t *testing.T) {
	longKey := "a-rather-long-dictionary-key-that-does-not-fit-inline"
	sub, payload := EncodeDictSet(longKey, "value", StringCodec(), StringCodec())
	require.NotNil(t, payload)
	k, v, err := DecodeDictSet(sub, payload, StringCodec(), StringCodec())
	require.NoError(t, err)
	assert.Equal(t, longKey, k)
	assert.Equal(t, "value", v)
}

func TestDictSetDynamicCodecStaysOutOfLineEvenWhenSmall(t *testing.T) {
	sub, payload := EncodeDictSet("k", "v", StringCodec(), StringCodec())
	require.NotNil(t, payload)
	assert.Equal(t, byte(0), sub[dictInlineFlagOffset])
	k, v, err := DecodeDictSet(sub, payload, StringCodec(), StringCodec())
	require.NoError(t, err)
	assert.Equal(t, "k", k)
	assert.Equal(t, "v", v)
}

func TestDictRemoveInlineAndOutOfLine(t *testing.T) {
	sub, payload := EncodeDictRemove(uint32(12), Uint32Codec())
	assert.Nil(t, payload)
	k, err := DecodeDictRemove(sub, payload, Uint32Codec())
	require.NoError(t, err)
	assert.Equal(t, uint32(12), k)

	longKey := "a-rather-long-dictionary-key-that-does-not-fit-inline"
	sub2, payload2 := EncodeDictRemove(longKey, StringCodec())
	require.NotNil(t, payload2)
	k2, err := DecodeDictRemove(sub2, payload2, StringCodec())
	require.NoError(t, err)
	assert.Equal(t, longKey, k2)

	sub3, payload3 := EncodeDictRemove("k", StringCodec())
	require.NotNil(t, payload3, "a dynamic-width key codec must never inline, even for a short key")
	k3, err := DecodeDictRemove(sub3, payload3, StringCodec())
	require.NoError(t, err)
	assert.Equal(t, "k", k3)
}

func TestListAllFixedAndDynamic(t *testing.T) {
	payload := EncodeListAll([]uint32{1, 2, 3, 4}, Uint32Codec())
	got, err := DecodeListAll(payload, Uint32Codec())
	require.NoError(t, err)
	assert.Equal(t, []uint32{1, 2, 3, 4}, got)

	strPayload := EncodeListAll([]string{"a", "bb", "ccc"}, StringCodec())
	gotStr, err := DecodeListAll(strPayload, StringCodec())
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "bb", "ccc"}, gotStr)
}

func TestListSetInlineAndOutOfLine(t *testing.T) {
	sub, payload := EncodeListSet(uint32(2), uint32(777), Uint32Codec())
	assert.Nil(t, payload)
	idx, v, err := DecodeListSet(sub, payload, Uint32Codec())
	require.NoError(t, err)
	assert.Equal(t, uint32(2), idx)
	assert.Equal(t, uint32(777), v)

	longVal := "a-rather-long-list-element-value-that-does-not-fit-inline"
	sub2, payload2 := EncodeListSet(uint32(0), longVal, StringCodec())
	require.NotNil(t, payload2)
	idx2, v2, err := DecodeListSet(sub2, payload2, StringCodec())
	require.NoError(t, err)
	assert.Equal(t, uint32(0), idx2)
	assert.Equal(t, longVal, v2)

	sub3, payload3 := EncodeListSet(uint32(1), "v", StringCodec())
	require.NotNil(t, payload3, "a dynamic-width element codec must never inline, even for a short value")
	assert.Equal(t, byte(0), sub3[listInlineFlagOffset])
	idx3, v3, err := DecodeListSet(sub3, payload3, StringCodec())
	require.NoError(t, err)
	assert.Equal(t, uint32(1), idx3)
	assert.Equal(t, "v", v3)
}

func TestListAddAndRemove(t *testing.T) {
	sub, payload := EncodeListAdd(uint32(55), Uint32Codec())
	v, err := DecodeListAdd(sub, payload, Uint32Codec())
	require.NoError(t, err)
	assert.Equal(t, uint32(55), v)

	sub2, payload2 := EncodeListAdd("v", StringCodec())
	require.NotNil(t, payload2, "a dynamic-width element codec must never inline, even for a short value")
	v2, err := DecodeListAdd(sub2, payload2, StringCodec())
	require.NoError(t, err)
	assert.Equal(t, "v", v2)

	rm := EncodeListRemove(9)
	assert.Equal(t, uint32(9), DecodeListRemove(rm))
}

func TestGraphSetPairedRoundTrip(t *testing.T) {
	u := GraphSeriesUpdate{
		SeriesID:  3,
		Precision: GraphPrecisionF32,
		AxisMode:  GraphAxisPaired,
		X:         []float64{0, 1, 2},
		Y:         []float64{10, 11, 12},
	}
	sub, payload, err := EncodeGraphSet(u)
	require.NoError(t, err)
	got, err := DecodeGraphSet(sub, payload)
	require.NoError(t, err)
	assert.Equal(t, u.SeriesID, got.SeriesID)
	assert.Equal(t, u.AxisMode, got.AxisMode)
	require.Len(t, got.X, 3)
	for i := range u.X {
		assert.InDelta(t, u.X[i], got.X[i], 1e-5)
		assert.InDelta(t, u.Y[i], got.Y[i], 1e-5)
	}
}

func TestGraphSetLinearRoundTrip(t *testing.T) {
	u := GraphSeriesUpdate{
		SeriesID:  1,
		Precision: GraphPrecisionF64,
		AxisMode:  GraphAxisLinear,
		Y:         []float64{1, 2, 3, 4},
	}
	sub, payload, err := EncodeGraphSet(u)
	require.NoError(t, err)
	got, err := DecodeGraphSet(sub, payload)
	require.NoError(t, err)
	assert.Empty(t, got.X)
	assert.Equal(t, u.Y, got.Y)
}

func TestGraphAddPointsRoundTrip(t *testing.T) {
	u := GraphSeriesUpdate{
		SeriesID:  2,
		Precision: GraphPrecisionF32,
		AxisMode:  GraphAxisPaired,
		X:         []float64{2},
		Y:         []float64{3},
	}
	sub, payload, err := EncodeGraphAddPoints(u)
	require.NoError(t, err)
	got, err := DecodeGraphAddPoints(sub, payload)
	require.NoError(t, err)
	assert.Equal(t, GraphAxisPaired, got.AxisMode)
	assert.InDelta(t, 2.0, got.X[0], 1e-5)
	assert.InDelta(t, 3.0, got.Y[0], 1e-5)
}

func TestGraphSetRejectsMismatchedPairedLengths(t *testing.T) {
	u := GraphSeriesUpdate{
		AxisMode: GraphAxisPaired,
		X:        []float64{1, 2},
		Y:        []float64{1},
	}
	_, _, err := EncodeGraphSet(u)
	assert.Error(t, err)
}

func TestGraphRemoveAndReset(t *testing.T) {
	sub := EncodeGraphRemove(42)
	assert.Equal(t, byte(GraphOpRemove), sub[0])
	assert.Equal(t, uint16(42), DecodeGraphRemove(sub))

	reset := EncodeGraphReset()
	assert.Equal(t, byte(GraphOpReset), reset[0])
}
