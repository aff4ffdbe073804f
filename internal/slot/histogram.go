package slot

import (
	"github.com/statebridge/core/internal/slotcodec"
	"github.com/statebridge/core/internal/wire"
)

// HistogramSlot holds a standalone bucket-count array, independent of
// any image (spec.md §4.3 "standalone update (sub-kind 51)").
type HistogramSlot struct {
	base
	counts []float32
}

func NewHistogramSlot(id uint32, initial []float32, caps Capability) *HistogramSlot {
	return &HistogramSlot{base: base{id: id, caps: caps}, counts: initial}
}

func (s *HistogramSlot) Kind() wire.Kind { return wire.KindHistogram }

func (s *HistogramSlot) Get() []float32 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]float32, len(s.counts))
	copy(out, s.counts)
	return out
}

func (s *HistogramSlot) Set(v []float32, connected bool) (msg wire.Message, enqueue bool) {
	s.mu.Lock()
	s.counts = v
	if connected {
		s.pendingWrites++
		enqueue = true
	}
	s.mu.Unlock()
	s.notify(v)

	sub, payload := slotcodec.EncodeHistogram(v)
	return wire.NewSlotMessage(wire.KindHistogram, s.id, true, sub, payload), enqueue
}

// Clear sends the empty-payload "clear" update.
func (s *HistogramSlot) Clear(connected bool) (msg wire.Message, enqueue bool) {
	return s.Set(nil, connected)
}

func (s *HistogramSlot) ApplyRemote(_ [wire.SubHeaderSize]byte, payload []byte) (any, bool, error) {
	v, err := slotcodec.DecodeHistogram(payload)
	if err != nil {
		return nil, false, err
	}

	s.mu.Lock()
	applied := s.pendingWrites == 0
	if applied {
		s.counts = v
	}
	s.mu.Unlock()

	if applied {
		s.notify(v)
	}
	return v, applied, nil
}

func (s *HistogramSlot) Sync() []wire.Message {
	v := s.Get()
	sub, payload := slotcodec.EncodeHistogram(v)
	return []wire.Message{wire.NewSlotMessage(wire.KindHistogram, s.id, true, sub, payload)}
}
