package slot

import (
	"testing"

	"github.com/statebridge/core/internal/slotcodec"
	"github.com/statebridge/core/internal/wire"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestScalarEcho reproduces spec.md §8 scenario 2: client sets a
// scalar to 42, the server applies it (pendingWrites==0 on that side)
// and notifies, then sends an Ack that brings the client's own counter
// back to zero.
func TestScalarEcho(t *testing.T) {
	serverSlot := NewScalarSlot[int64](11, 0, CapReadable|CapWritable|CapSyncOnConnect|CapAcknowledgeable)
	var notified int64
	serverSlot.Observe(func(id uint32, v any) { notified = v.(int64) })

	clientSlot := NewScalarSlot[int64](11, 0, CapReadable|CapWritable|CapSyncOnConnect|CapAcknowledgeable)

	msg, enqueue := clientSlot.Set(42, true)
	assert.True(t, enqueue)
	assert.EqualValues(t, 1, clientSlot.PendingWrites())

	v, applied, err := serverSlot.ApplyRemote(msg.Sub, msg.Payload)
	require.NoError(t, err)
	assert.True(t, applied)
	assert.EqualValues(t, 42, v)
	assert.EqualValues(t, 42, notified)
	assert.EqualValues(t, 42, serverSlot.Get())

	clientSlot.Ack()
	assert.EqualValues(t, 0, clientSlot.PendingWrites())
	assert.EqualValues(t, 42, clientSlot.Get())
}

// TestConcurrentSetReceive reproduces spec.md §8 scenario 6: a local
// write in flight shields the mirror from a conflicting inbound value
// until the write is acked, after which new inbound values apply.
func TestConcurrentSetReceive(t *testing.T) {
	client := NewScalarSlot[int64](20, 0, CapReadable|CapWritable)

	setMsg, enqueue := client.Set(1 /* A */, true)
	assert.True(t, enqueue)

	bSub := slotcodec.EncodeScalar(int64(2))
	_, applied, err := client.ApplyRemote(bSub, nil)
	require.NoError(t, err)
	assert.False(t, applied, "inbound value must not override a pending local write")
	assert.EqualValues(t, 1, client.Get())

	_ = setMsg
	client.Ack()
	assert.EqualValues(t, 0, client.PendingWrites())

	cSub := slotcodec.EncodeScalar(int64(3))
	_, applied, err = client.ApplyRemote(cSub, nil)
	require.NoError(t, err)
	assert.True(t, applied)
	assert.EqualValues(t, 3, client.Get())
}

func TestPendingWritesNeverNegative(t *testing.T) {
	s := NewScalarSlot[int32](1, 0, CapReadable)
	s.Ack()
	s.Ack()
	assert.EqualValues(t, 0, s.PendingWrites())
}

func TestStaticSlotRejectsRemoteWrites(t *testing.T) {
	s := NewStaticSlot[int32](12, 5, CapReadable|CapSyncOnConnect)
	sub := slotcodec.EncodeScalar(int32(9))
	_, applied, err := s.ApplyRemote(sub, nil)
	assert.Error(t, err)
	assert.False(t, applied)
	assert.EqualValues(t, 5, s.Get())
}

func TestEnumRoundTrip(t *testing.T) {
	values := []string{"idle", "running", "stopped"}
	s, err := NewEnumSlot[string](13, "idle", values, CapReadable|CapWritable)
	require.NoError(t, err)

	msg, enqueue, err := s.Set("running", true)
	require.NoError(t, err)
	assert.True(t, enqueue)

	peer, err := NewEnumSlot[string](13, "idle", values, CapReadable|CapWritable)
	require.NoError(t, err)
	v, applied, err := peer.ApplyRemote(msg.Sub, msg.Payload)
	require.NoError(t, err)
	assert.True(t, applied)
	assert.Equal(t, "running", v)
	assert.Equal(t, "running", peer.Get())
}

// TestDictReplaceSync reproduces spec.md §8 scenario 3.
func TestDictReplaceSync(t *testing.T) {
	server := NewDictSlot[int64, int64](14, map[int64]int64{1: 2, 3: 4}, slotcodec.Int64Codec(), slotcodec.Int64Codec(), CapReadable|CapSyncOnConnect)
	msgs := server.Sync()
	require.Len(t, msgs, 1)
	assert.Equal(t, wire.KindDict, msgs[0].Kind)

	client := NewDictSlot[int64, int64](14, nil, slotcodec.Int64Codec(), slotcodec.Int64Codec(), CapReadable|CapSyncOnConnect)
	v, applied, err := client.ApplyRemote(msgs[0].Sub, msgs[0].Payload)
	require.NoError(t, err)
	assert.True(t, applied)
	assert.Equal(t, map[int64]int64{1: 2, 3: 4}, v)
	assert.Equal(t, map[int64]int64{1: 2, 3: 4}, client.All())
}

func TestListAllRoundTrip(t *testing.T) {
	server := NewListSlot[uint32](15, []uint32{1, 2, 3}, slotcodec.Uint32Codec(), CapReadable|CapSyncOnConnect)
	msgs := server.Sync()
	require.Len(t, msgs, 1)

	client := NewListSlot[uint32](15, nil, slotcodec.Uint32Codec(), CapReadable|CapSyncOnConnect)
	v, applied, err := client.ApplyRemote(msgs[0].Sub, msgs[0].Payload)
	require.NoError(t, err)
	assert.True(t, applied)
	assert.Equal(t, []uint32{1, 2, 3}, v)
	assert.Equal(t, []uint32{1, 2, 3}, client.All())
}

// TestGraphAddPoints reproduces spec.md §8 scenario 4.
func TestGraphAddPoints(t *testing.T) {
	server := NewGraphSlot(16, CapReadable|CapSyncOnConnect)
	_, _, err := server.SetSeries(slotcodec.GraphSeriesUpdate{
		SeriesID: 0, Precision: slotcodec.GraphPrecisionF32, AxisMode: slotcodec.GraphAxisPaired,
		X: []float64{0, 1}, Y: []float64{1, 2},
	}, false)
	require.NoError(t, err)

	addMsg, _, err := server.AddPoints(slotcodec.GraphSeriesUpdate{
		SeriesID: 0, Precision: slotcodec.GraphPrecisionF32, AxisMode: slotcodec.GraphAxisPaired,
		X: []float64{2}, Y: []float64{3},
	}, false)
	require.NoError(t, err)

	client := NewGraphSlot(16, CapReadable|CapSyncOnConnect)
	_, _, err = client.SetSeries(slotcodec.GraphSeriesUpdate{
		SeriesID: 0, Precision: slotcodec.GraphPrecisionF32, AxisMode: slotcodec.GraphAxisPaired,
		X: []float64{0, 1}, Y: []float64{1, 2},
	}, false)
	require.NoError(t, err)

	_, applied, err := client.ApplyRemote(addMsg.Sub, addMsg.Payload)
	require.NoError(t, err)
	assert.True(t, applied)

	snap, ok := client.Series(0)
	require.True(t, ok)
	assert.Equal(t, []float64{0, 1, 2}, snap.X)
	assert.Equal(t, []float64{1, 2, 3}, snap.Y)
}

func TestGraphAddPointsAxisMismatchRejected(t *testing.T) {
	s := NewGraphSlot(17, CapReadable)
	_, _, err := s.SetSeries(slotcodec.GraphSeriesUpdate{
		SeriesID: 0, Precision: slotcodec.GraphPrecisionF32, AxisMode: slotcodec.GraphAxisPaired,
		X: []float64{0}, Y: []float64{1},
	}, false)
	require.NoError(t, err)

	_, _, err = s.AddPoints(slotcodec.GraphSeriesUpdate{
		SeriesID: 0, Precision: slotcodec.GraphPrecisionF32, AxisMode: slotcodec.GraphAxisLinear,
		Y: []float64{2},
	}, false)
	assert.Error(t, err)

	snap, ok := s.Series(0)
	require.True(t, ok)
	assert.Equal(t, []float64{1}, snap.Y, "mismatched AddPoints must not mutate the series")
}

func TestGraphSyncResetThenSet(t *testing.T) {
	s := NewGraphSlot(18, CapReadable|CapSyncOnConnect)
	_, _, err := s.SetSeries(slotcodec.GraphSeriesUpdate{
		SeriesID: 5, Precision: slotcodec.GraphPrecisionF64, AxisMode: slotcodec.GraphAxisLinear,
		Y: []float64{1, 2, 3},
	}, false)
	require.NoError(t, err)

	msgs := s.Sync()
	require.Len(t, msgs, 2)
	assert.Equal(t, byte(slotcodec.GraphOpReset), msgs[0].Sub[0])
	assert.Equal(t, byte(slotcodec.GraphOpSet), msgs[1].Sub[0])
}

func TestSignalFireAndForget(t *testing.T) {
	var fired bool
	s := NewSignalSlot(19, CapReadable)
	s.Observe(func(id uint32, v any) { fired = true })
	msg := s.Fire()
	assert.Equal(t, wire.KindSignal, msg.Kind)
	assert.True(t, fired)
	assert.Nil(t, s.Sync())
}
