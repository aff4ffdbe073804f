package slot

import (
	"fmt"

	"github.com/statebridge/core/internal/slotcodec"
	"github.com/statebridge/core/internal/wire"
)

// EnumSlot holds one value drawn from a fixed, ordered set of
// permitted values, marshalled on the wire as its ordinal (spec.md
// §4.3 "enum marshalled as u64 via a small mapping").
type EnumSlot[E comparable] struct {
	base
	value   E
	values  []E
	ordinal map[E]uint64
}

func NewEnumSlot[E comparable](id uint32, initial E, values []E, caps Capability) (*EnumSlot[E], error) {
	ordinal := make(map[E]uint64, len(values))
	for i, v := range values {
		ordinal[v] = uint64(i)
	}
	if _, ok := ordinal[initial]; !ok {
		return nil, fmt.Errorf("slot %d: initial enum value not in permitted set", id)
	}
	return &EnumSlot[E]{base: base{id: id, caps: caps}, value: initial, values: values, ordinal: ordinal}, nil
}

func (s *EnumSlot[E]) Kind() wire.Kind { return wire.KindValue }

func (s *EnumSlot[E]) Get() E {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.value
}

func (s *EnumSlot[E]) Set(v E, connected bool) (msg wire.Message, enqueue bool, err error) {
	ord, ok := s.ordinal[v]
	if !ok {
		return wire.Message{}, false, fmt.Errorf("slot %d: value not in permitted enum set", s.id)
	}

	s.mu.Lock()
	s.value = v
	if connected {
		s.pendingWrites++
		enqueue = true
	}
	s.mu.Unlock()
	s.notify(v)

	sub := slotcodec.EncodeEnumOrdinal(ord)
	return wire.NewSlotMessage(wire.KindValue, s.id, true, sub, nil), enqueue, nil
}

func (s *EnumSlot[E]) ApplyRemote(sub [wire.SubHeaderSize]byte, _ []byte) (any, bool, error) {
	ord := slotcodec.DecodeEnumOrdinal(sub)
	if ord >= uint64(len(s.values)) {
		return nil, false, fmt.Errorf("slot %d: enum ordinal %d out of range", s.id, ord)
	}
	v := s.values[ord]

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

func (s *EnumSlot[E]) Sync() []wire.Message {
	s.mu.RLock()
	ord := s.ordinal[s.value]
	s.mu.RUnlock()

	sub := slotcodec.EncodeEnumOrdinal(ord)
	return []wire.Message{wire.NewSlotMessage(wire.KindValue, s.id, true, sub, nil)}
}
