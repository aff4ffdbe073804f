package slot

import (
	"github.com/statebridge/core/internal/slotcodec"
	"github.com/statebridge/core/internal/wire"
)

// StringSlot holds one UTF-8 string, payload-carrying on the wire
// (spec.md §4.3 "String/bytes: payload-carrying; length via header
// size field").
type StringSlot struct {
	base
	value string
}

func NewStringSlot(id uint32, initial string, caps Capability) *StringSlot {
	return &StringSlot{base: base{id: id, caps: caps}, value: initial}
}

func (s *StringSlot) Kind() wire.Kind { return wire.KindValue }

func (s *StringSlot) Get() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.value
}

func (s *StringSlot) Set(v string, connected bool) (msg wire.Message, enqueue bool) {
	s.mu.Lock()
	s.value = v
	if connected {
		s.pendingWrites++
		enqueue = true
	}
	s.mu.Unlock()
	s.notify(v)

	sub, payload := slotcodec.EncodeString(v)
	return wire.NewSlotMessage(wire.KindValue, s.id, true, sub, payload), enqueue
}

func (s *StringSlot) ApplyRemote(_ [wire.SubHeaderSize]byte, payload []byte) (any, bool, error) {
	v := slotcodec.DecodeString(payload)

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

func (s *StringSlot) Sync() []wire.Message {
	v := s.Get()
	sub, payload := slotcodec.EncodeString(v)
	return []wire.Message{wire.NewSlotMessage(wire.KindValue, s.id, true, sub, payload)}
}
