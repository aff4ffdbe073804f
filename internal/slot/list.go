package slot

import (
	"fmt"

	"github.com/statebridge/core/internal/slotcodec"
	"github.com/statebridge/core/internal/wire"
)

// ListSlot holds a homogeneous, ordered sequence addressed on the wire
// by the LIST sub-protocol (All | Set | Add | Remove, spec.md §4.3).
type ListSlot[T any] struct {
	base
	vc     slotcodec.ElemCodec[T]
	values []T
}

func NewListSlot[T any](id uint32, initial []T, vc slotcodec.ElemCodec[T], caps Capability) *ListSlot[T] {
	values := make([]T, len(initial))
	copy(values, initial)
	return &ListSlot[T]{base: base{id: id, caps: caps}, vc: vc, values: values}
}

func (s *ListSlot[T]) Kind() wire.Kind { return wire.KindList }

func (s *ListSlot[T]) All() []T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]T, len(s.values))
	copy(out, s.values)
	return out
}

func (s *ListSlot[T]) SetAt(index uint32, v T, connected bool) (msg wire.Message, enqueue bool, err error) {
	s.mu.Lock()
	if int(index) >= len(s.values) {
		s.mu.Unlock()
		return wire.Message{}, false, fmt.Errorf("slot %d: index %d out of range (len %d)", s.id, index, len(s.values))
	}
	s.values[index] = v
	if connected {
		s.pendingWrites++
		enqueue = true
	}
	s.mu.Unlock()
	s.notify(s.All())

	sub, payload := slotcodec.EncodeListSet(index, v, s.vc)
	return wire.NewSlotMessage(wire.KindList, s.id, true, sub, payload), enqueue, nil
}

func (s *ListSlot[T]) Add(v T, connected bool) (msg wire.Message, enqueue bool) {
	s.mu.Lock()
	s.values = append(s.values, v)
	if connected {
		s.pendingWrites++
		enqueue = true
	}
	s.mu.Unlock()
	s.notify(s.All())

	sub, payload := slotcodec.EncodeListAdd(v, s.vc)
	return wire.NewSlotMessage(wire.KindList, s.id, true, sub, payload), enqueue
}

func (s *ListSlot[T]) RemoveAt(index uint32, connected bool) (msg wire.Message, enqueue bool, err error) {
	s.mu.Lock()
	if int(index) >= len(s.values) {
		s.mu.Unlock()
		return wire.Message{}, false, fmt.Errorf("slot %d: index %d out of range (len %d)", s.id, index, len(s.values))
	}
	s.values = append(s.values[:index], s.values[index+1:]...)
	if connected {
		s.pendingWrites++
		enqueue = true
	}
	s.mu.Unlock()
	s.notify(s.All())

	sub := slotcodec.EncodeListRemove(index)
	return wire.NewSlotMessage(wire.KindList, s.id, true, sub, nil), enqueue, nil
}

func (s *ListSlot[T]) ApplyRemote(sub [wire.SubHeaderSize]byte, payload []byte) (any, bool, error) {
	op := slotcodec.ListOp(sub[0])

	s.mu.Lock()
	shouldApply := s.pendingWrites == 0
	s.mu.Unlock()

	switch op {
	case slotcodec.ListOpAll:
		values, err := slotcodec.DecodeListAll(payload, s.vc)
		if err != nil {
			return nil, false, err
		}
		if shouldApply {
			s.mu.Lock()
			s.values = values
			s.mu.Unlock()
			s.notify(s.All())
		}
		return values, shouldApply, nil

	case slotcodec.ListOpSet:
		index, v, err := slotcodec.DecodeListSet(sub, payload, s.vc)
		if err != nil {
			return nil, false, err
		}
		if shouldApply {
			s.mu.Lock()
			if int(index) < len(s.values) {
				s.values[index] = v
			}
			s.mu.Unlock()
			s.notify(s.All())
		}
		return v, shouldApply, nil

	case slotcodec.ListOpAdd:
		v, err := slotcodec.DecodeListAdd(sub, payload, s.vc)
		if err != nil {
			return nil, false, err
		}
		if shouldApply {
			s.mu.Lock()
			s.values = append(s.values, v)
			s.mu.Unlock()
			s.notify(s.All())
		}
		return v, shouldApply, nil

	case slotcodec.ListOpRemove:
		index := slotcodec.DecodeListRemove(sub)
		if shouldApply {
			s.mu.Lock()
			if int(index) < len(s.values) {
				s.values = append(s.values[:index], s.values[index+1:]...)
			}
			s.mu.Unlock()
			s.notify(s.All())
		}
		return index, shouldApply, nil

	default:
		return nil, false, fmt.Errorf("slot %d: unknown list op %d", s.id, op)
	}
}

// Sync emits a LIST/All frame carrying the full sequence.
func (s *ListSlot[T]) Sync() []wire.Message {
	values := s.All()
	var sub [wire.SubHeaderSize]byte
	sub[0] = byte(slotcodec.ListOpAll)
	payload := slotcodec.EncodeListAll(values, s.vc)
	return []wire.Message{wire.NewSlotMessage(wire.KindList, s.id, true, sub, payload)}
}
