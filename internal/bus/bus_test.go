package bus

import (
	"testing"
	"time"

	"github.com/statebridge/core/internal/wire"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueueOrdersInFIFO(t *testing.T) {
	q := NewQueue(4)
	q.Enqueue(wire.Message{Kind: wire.KindValue, SlotID: 1})
	q.Enqueue(wire.Message{Kind: wire.KindValue, SlotID: 2})

	item1, ok := q.Receive()
	require.True(t, ok)
	assert.EqualValues(t, 1, item1.Message.SlotID)

	item2, ok := q.Receive()
	require.True(t, ok)
	assert.EqualValues(t, 2, item2.Message.SlotID)
}

func TestQueueTerminateUnblocksReceiver(t *testing.T) {
	q := NewQueue(1)
	done := make(chan Item, 1)
	go func() {
		item, ok := q.Receive()
		require.True(t, ok)
		done <- item
	}()

	q.EnqueueTerminate()

	select {
	case item := <-done:
		assert.True(t, item.Terminate)
	case <-time.After(time.Second):
		t.Fatal("receiver was not unblocked by Terminate")
	}
}

func TestQueueDrainEmptiesWithoutSending(t *testing.T) {
	q := NewQueue(8)
	q.Enqueue(wire.Message{Kind: wire.KindValue, SlotID: 1})
	q.Enqueue(wire.Message{Kind: wire.KindValue, SlotID: 2})
	q.Enqueue(wire.Message{Kind: wire.KindValue, SlotID: 3})

	drained := q.Drain()
	assert.Len(t, drained, 3)

	select {
	case <-q.items:
		t.Fatal("queue still had items after Drain")
	default:
	}
}

func TestQueueDrainIgnoresTerminateTokens(t *testing.T) {
	q := NewQueue(4)
	q.Enqueue(wire.Message{Kind: wire.KindValue, SlotID: 1})
	q.EnqueueTerminate()

	drained := q.Drain()
	require.Len(t, drained, 1)
	assert.EqualValues(t, 1, drained[0].SlotID)
}

func TestNotifierFanOutToMultipleSubscribers(t *testing.T) {
	n := NewNotifier(4)
	a := n.Subscribe()
	b := n.Subscribe()
	defer n.Unsubscribe(a)
	defer n.Unsubscribe(b)

	n.Emit(42, "hello")

	evA := <-a
	evB := <-b
	assert.Equal(t, Event{SlotID: 42, Value: "hello"}, evA)
	assert.Equal(t, Event{SlotID: 42, Value: "hello"}, evB)
}

func TestNotifierPublishDoesNotBlockOnFullSubscriber(t *testing.T) {
	n := NewNotifier(1)
	slow := n.Subscribe()
	defer n.Unsubscribe(slow)

	done := make(chan struct{})
	go func() {
		n.Publish(Event{SlotID: 1, Value: 1})
		n.Publish(Event{SlotID: 2, Value: 2}) // slow's buffer is already full
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Publish blocked on a full subscriber channel")
	}

	first := <-slow
	assert.EqualValues(t, 1, first.SlotID)
}

func TestNotifierUnsubscribeStopsDelivery(t *testing.T) {
	n := NewNotifier(2)
	ch := n.Subscribe()
	n.Unsubscribe(ch)

	assert.Equal(t, 0, n.SubscriberCount())
	n.Emit(1, "x") // must not panic sending on the closed channel

	_, ok := <-ch
	assert.False(t, ok, "channel should be closed after Unsubscribe")
}
