package slot

import (
	"github.com/statebridge/core/internal/slotcodec"
	"github.com/statebridge/core/internal/wire"
)

// ImageSlot holds a full pixel buffer plus its paired histogram. Images
// are push-heavy (server-authoritative) rather than client-writable in
// the common case, but still track a pending-write counter so a host
// that does accept client image edits (CapWritable set) gets the same
// reconciliation discipline as scalars.
type ImageSlot struct {
	base
	value slotcodec.ImageUpdate
}

func NewImageSlot(id uint32, initial slotcodec.ImageUpdate, caps Capability) *ImageSlot {
	return &ImageSlot{base: base{id: id, caps: caps}, value: initial}
}

func (s *ImageSlot) Kind() wire.Kind { return wire.KindImage }

func (s *ImageSlot) Get() slotcodec.ImageUpdate {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.value
}

func (s *ImageSlot) Set(v slotcodec.ImageUpdate, connected bool) (msg wire.Message, enqueue bool) {
	s.mu.Lock()
	s.value = v
	if connected {
		s.pendingWrites++
		enqueue = true
	}
	s.mu.Unlock()
	s.notify(v)

	sub, payload := slotcodec.EncodeImage(v)
	return wire.NewSlotMessage(wire.KindImage, s.id, true, sub, payload), enqueue
}

func (s *ImageSlot) ApplyRemote(sub [wire.SubHeaderSize]byte, payload []byte) (any, bool, error) {
	v, err := slotcodec.DecodeImage(sub, payload)
	if err != nil {
		return nil, false, err
	}

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

func (s *ImageSlot) Sync() []wire.Message {
	v := s.Get()
	sub, payload := slotcodec.EncodeImage(v)
	return []wire.Message{wire.NewSlotMessage(wire.KindImage, s.id, true, sub, payload)}
}
