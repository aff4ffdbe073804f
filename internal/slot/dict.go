package slot

import (
	"fmt"

	"github.com/statebridge/core/internal/slotcodec"
	"github.com/statebridge/core/internal/wire"
)

// DictSlot holds a homogeneous key/value mapping, addressed on the
// wire by the DICT sub-protocol (All | Set | Remove, spec.md §4.3).
type DictSlot[K comparable, V any] struct {
	base
	kc      slotcodec.ElemCodec[K]
	vc      slotcodec.ElemCodec[V]
	entries map[K]V
}

func NewDictSlot[K comparable, V any](id uint32, initial map[K]V, kc slotcodec.ElemCodec[K], vc slotcodec.ElemCodec[V], caps Capability) *DictSlot[K, V] {
	entries := make(map[K]V, len(initial))
	for k, v := range initial {
		entries[k] = v
	}
	return &DictSlot[K, V]{base: base{id: id, caps: caps}, kc: kc, vc: vc, entries: entries}
}

func (s *DictSlot[K, V]) Kind() wire.Kind { return wire.KindDict }

// All returns a defensive copy of the current mapping.
func (s *DictSlot[K, V]) All() map[K]V {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[K]V, len(s.entries))
	for k, v := range s.entries {
		out[k] = v
	}
	return out
}

// SetEntry performs a local Set(k, v) write.
func (s *DictSlot[K, V]) SetEntry(k K, v V, connected bool) (msg wire.Message, enqueue bool) {
	s.mu.Lock()
	s.entries[k] = v
	if connected {
		s.pendingWrites++
		enqueue = true
	}
	s.mu.Unlock()
	s.notify(s.All())

	sub, payload := slotcodec.EncodeDictSet(k, v, s.kc, s.vc)
	return wire.NewSlotMessage(wire.KindDict, s.id, true, sub, payload), enqueue
}

// RemoveEntry performs a local Remove(k) write.
func (s *DictSlot[K, V]) RemoveEntry(k K, connected bool) (msg wire.Message, enqueue bool) {
	s.mu.Lock()
	delete(s.entries, k)
	if connected {
		s.pendingWrites++
		enqueue = true
	}
	s.mu.Unlock()
	s.notify(s.All())

	sub, payload := slotcodec.EncodeDictRemove(k, s.kc)
	return wire.NewSlotMessage(wire.KindDict, s.id, true, sub, payload), enqueue
}

// ApplyRemote dispatches on the DICT sub-op carried in Sub[0].
func (s *DictSlot[K, V]) ApplyRemote(sub [wire.SubHeaderSize]byte, payload []byte) (any, bool, error) {
	op := slotcodec.DictOp(sub[0])

	s.mu.Lock()
	shouldApply := s.pendingWrites == 0
	s.mu.Unlock()

	switch op {
	case slotcodec.DictOpAll:
		entries, err := slotcodec.DecodeDictAll(payload, s.kc, s.vc)
		if err != nil {
			return nil, false, err
		}
		if shouldApply {
			s.mu.Lock()
			s.entries = entries
			s.mu.Unlock()
			s.notify(s.All())
		}
		return entries, shouldApply, nil

	case slotcodec.DictOpSet:
		k, v, err := slotcodec.DecodeDictSet(sub, payload, s.kc, s.vc)
		if err != nil {
			return nil, false, err
		}
		if shouldApply {
			s.mu.Lock()
			s.entries[k] = v
			s.mu.Unlock()
			s.notify(s.All())
		}
		return map[K]V{k: v}, shouldApply, nil

	case slotcodec.DictOpRemove:
		k, err := slotcodec.DecodeDictRemove(sub, payload, s.kc)
		if err != nil {
			return nil, false, err
		}
		if shouldApply {
			s.mu.Lock()
			delete(s.entries, k)
			s.mu.Unlock()
			s.notify(s.All())
		}
		return k, shouldApply, nil

	default:
		return nil, false, fmt.Errorf("slot %d: unknown dict op %d", s.id, op)
	}
}

// Sync emits a DICT/All frame carrying the full mapping.
func (s *DictSlot[K, V]) Sync() []wire.Message {
	s.mu.RLock()
	keys := make([]K, 0, len(s.entries))
	values := make([]V, 0, len(s.entries))
	for k, v := range s.entries {
		keys = append(keys, k)
		values = append(values, v)
	}
	s.mu.RUnlock()

	var sub [wire.SubHeaderSize]byte
	sub[0] = byte(slotcodec.DictOpAll)
	payload, err := slotcodec.EncodeDictAll(keys, values, s.kc, s.vc)
	if err != nil {
		// keys/values are built from the same map above and can never
		// diverge in length; this branch is unreachable.
		panic(fmt.Sprintf("slot %d: dict sync encode: %v", s.id, err))
	}
	return []wire.Message{wire.NewSlotMessage(wire.KindDict, s.id, true, sub, payload)}
}
