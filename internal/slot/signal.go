package slot

import "github.com/statebridge/core/internal/wire"

// SignalSlot is fire-and-forget: it carries no mirrored value, only a
// flag byte, and is never sync-pushed on connect since there is
// nothing to converge (spec.md §2 "fire-and-forget signals").
type SignalSlot struct {
	base
}

func NewSignalSlot(id uint32, caps Capability) *SignalSlot {
	return &SignalSlot{base: base{id: id, caps: caps}}
}

func (s *SignalSlot) Kind() wire.Kind { return wire.KindSignal }

// Fire emits the signal; there is no pending-write bookkeeping since a
// signal has no mirror to reconcile.
func (s *SignalSlot) Fire() wire.Message {
	s.notify(true)
	return wire.NewSlotMessage(wire.KindSignal, s.id, true, [wire.SubHeaderSize]byte{}, nil)
}

func (s *SignalSlot) ApplyRemote(_ [wire.SubHeaderSize]byte, _ []byte) (any, bool, error) {
	s.notify(true)
	return true, true, nil
}

// Sync is a no-op: signals are not sync-capable.
func (s *SignalSlot) Sync() []wire.Message { return nil }
