package slot

import (
	"fmt"

	"github.com/statebridge/core/internal/slotcodec"
	"github.com/statebridge/core/internal/wire"
)

// StaticSlot shares its wire shape with ScalarSlot but can only be
// written by the host; the client is read-only (spec.md §4.3 "Static
// ... differs only in that the client cannot originate a write").
// A peer-originated write is rejected by ApplyRemote itself, which
// always returns an error; the server engine surfaces that error to
// the notifier.
type StaticSlot[T slotcodec.Numeric] struct {
	base
	value T
}

func NewStaticSlot[T slotcodec.Numeric](id uint32, initial T, caps Capability) *StaticSlot[T] {
	return &StaticSlot[T]{base: base{id: id, caps: caps}, value: initial}
}

func (s *StaticSlot[T]) Kind() wire.Kind { return wire.KindStatic }

func (s *StaticSlot[T]) Get() T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.value
}

// Set is host-only; there is no pending-write bookkeeping since a
// static slot never has an in-flight peer write to reconcile against.
func (s *StaticSlot[T]) Set(v T) wire.Message {
	s.mu.Lock()
	s.value = v
	s.mu.Unlock()
	s.notify(v)

	sub := slotcodec.EncodeScalar(v)
	return wire.NewSlotMessage(wire.KindStatic, s.id, true, sub, nil)
}

// ApplyRemote rejects inbound writes outright; a peer has no business
// sending one unless it is misbehaving or stale.
func (s *StaticSlot[T]) ApplyRemote(_ [wire.SubHeaderSize]byte, _ []byte) (any, bool, error) {
	return nil, false, fmt.Errorf("slot %d: static slots reject peer-originated writes", s.id)
}

func (s *StaticSlot[T]) Sync() []wire.Message {
	v := s.Get()
	sub := slotcodec.EncodeScalar(v)
	return []wire.Message{wire.NewSlotMessage(wire.KindStatic, s.id, true, sub, nil)}
}
