package slot

import (
	"github.com/statebridge/core/internal/slotcodec"
	"github.com/statebridge/core/internal/wire"
)

// ScalarSlot holds one fixed-width numeric value, writable by either
// side and reconciled via the pending-write/ack protocol (spec.md
// §4.3).
type ScalarSlot[T slotcodec.Numeric] struct {
	base
	value T
}

// NewScalarSlot constructs a scalar slot with the given id, initial
// value and capability set.
func NewScalarSlot[T slotcodec.Numeric](id uint32, initial T, caps Capability) *ScalarSlot[T] {
	return &ScalarSlot[T]{base: base{id: id, caps: caps}, value: initial}
}

func (s *ScalarSlot[T]) Kind() wire.Kind { return wire.KindValue }

// Get returns the current mirror value.
func (s *ScalarSlot[T]) Get() T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.value
}

// Set performs a locally originated write: it always updates the
// mirror and, when connected, arms the pending-write counter and
// returns the frame to enqueue.
func (s *ScalarSlot[T]) Set(v T, connected bool) (msg wire.Message, enqueue bool) {
	s.mu.Lock()
	s.value = v
	if connected {
		s.pendingWrites++
		enqueue = true
	}
	s.mu.Unlock()
	s.notify(v)

	sub := slotcodec.EncodeScalar(v)
	return wire.NewSlotMessage(wire.KindValue, s.id, true, sub, nil), enqueue
}

// ApplyRemote implements Slot.
func (s *ScalarSlot[T]) ApplyRemote(sub [wire.SubHeaderSize]byte, _ []byte) (any, bool, error) {
	v := slotcodec.DecodeScalar[T](sub)

	s.mu.Lock()
	applied := s.pendingWrites == 0
	if applied {
		s.value = v
	}
	s.mu.Unlock()

	if applied {
		s.notify(v)
	}
	return v, applied, nil
}

// Sync implements Slot. The current value is pushed as-is; the
// pending-write counter is left untouched since a sync push expects no
// ack (see DESIGN.md).
func (s *ScalarSlot[T]) Sync() []wire.Message {
	v := s.Get()
	sub := slotcodec.EncodeScalar(v)
	return []wire.Message{wire.NewSlotMessage(wire.KindValue, s.id, true, sub, nil)}
}
