// Package bus implements the engine-wide outbound message queue
// and the process-wide change notifier (spec.md §2 "Signal bus" /
// "Change notifier"), grounded on the teacher's in-process
// buffered-channel pub/sub (internal/events/bus.go) and generalized
// from a fan-out CloudEvents bus to this protocol's single-consumer
// outbound queue plus a fan-out notifier.
package bus

import "github.com/statebridge/core/internal/wire"

// Item is one entry in an outbound Queue: either a frame to write, or
// the Terminate control token that tells the writer goroutine to
// shut down (spec.md §4.5 "enqueueing Terminate in the outbound queue
// to unblock the writer on its receive").
type Item struct {
	Message   wire.Message
	Terminate bool
}

// Queue is the single ordered channel from any number of producer
// goroutines to the current connection's writer goroutine (spec.md §2
// "outbound queue from producers to the writer thread; a single
// ordered channel of framed messages plus control tokens").
type Queue struct {
	items chan Item
}

// NewQueue returns a queue buffered to capacity.
func NewQueue(capacity int) *Queue {
	return &Queue{items: make(chan Item, capacity)}
}

// Enqueue submits a frame for the writer goroutine to send.
func (q *Queue) Enqueue(m wire.Message) {
	q.items <- Item{Message: m}
}

// EnqueueTerminate submits the Terminate control token.
func (q *Queue) EnqueueTerminate() {
	q.items <- Item{Terminate: true}
}

// Receive blocks until an item is available; ok is false once the
// queue's channel has been closed.
func (q *Queue) Receive() (Item, bool) {
	item, ok := <-q.items
	return item, ok
}

// Close closes the underlying channel. Only the queue's owner
// (the engine that created it) may call this, and only after no
// producer can still be enqueueing.
func (q *Queue) Close() {
	close(q.items)
}

// Drain empties the queue of any items buffered from a previous
// session without sending them, per spec.md §8 scenario 5 ("any
// outbound frames pending in the server's queue from the previous
// session are drained"). It does not block: only items already
// buffered are removed.
func (q *Queue) Drain() []wire.Message {
	var drained []wire.Message
	for {
		select {
		case item := <-q.items:
			if !item.Terminate {
				drained = append(drained, item.Message)
			}
		default:
			return drained
		}
	}
}
