// Package slot implements the generic, shape-parameterised state
// holders synchronised by the sync engines (SPEC_FULL.md §4.3/§4.4):
// one mutex-guarded struct per slot shape, each exposing the uniform
// Slot interface the registry and engines dispatch through.
package slot

import (
	"sync"

	"github.com/statebridge/core/internal/wire"
)

// Capability is a bitmask describing what a slot permits, assigned at
// registry build time per spec.md §3 ("id, shape, capabilities").
type Capability uint8

const (
	CapReadable Capability = 1 << iota
	CapWritable
	CapSyncOnConnect
	CapAcknowledgeable
)

func (c Capability) Has(f Capability) bool { return c&f != 0 }

// Observer is invoked after a slot's mirror actually changes, either
// from a local Set or from an applied remote update. It backs both the
// per-handle "observer-register" API and the shared change notifier.
type Observer func(slotID uint32, value any)

// Slot is the uniform, shape-erased interface the registry's per-kind
// dispatch maps and the sync engines operate on.
type Slot interface {
	ID() uint32
	Kind() wire.Kind
	Capabilities() Capability

	// ApplyRemote applies an inbound frame's sub-header and payload,
	// honouring the local-write/remote-echo reconciliation rule for
	// writable slots. It returns the value carried by the frame (not
	// necessarily the resulting mirror value, when the update was
	// absorbed-but-not-applied) and whether the mirror changed.
	ApplyRemote(sub [wire.SubHeaderSize]byte, payload []byte) (value any, applied bool, err error)

	// Sync returns the frames a server sends a freshly (re)connected
	// client to bring this slot up to date.
	Sync() []wire.Message

	// Ack decrements the pending-write counter tracking this slot's
	// in-flight, not-yet-echoed local writes.
	Ack()

	// PendingWrites reports the slot's current pending-write counter;
	// always 0 for shapes that do not originate local writes.
	PendingWrites() int64
}

// base holds the fields and locking discipline every concrete slot
// shares: identity, capabilities, the pending-write counter, and the
// registered observer. Concrete shapes embed base and guard their own
// value under base.mu alongside it.
type base struct {
	mu            sync.RWMutex
	id            uint32
	caps          Capability
	pendingWrites int64
	observer      Observer
}

func (b *base) ID() uint32                 { return b.id }
func (b *base) Capabilities() Capability   { return b.caps }
func (b *base) PendingWrites() int64       { b.mu.RLock(); defer b.mu.RUnlock(); return b.pendingWrites }
func (b *base) Observe(obs Observer)       { b.mu.Lock(); b.observer = obs; b.mu.Unlock() }

// Ack decrements the pending-write counter; it never goes negative
// (spec.md §8 "Counter non-negativity").
func (b *base) Ack() {
	b.mu.Lock()
	if b.pendingWrites > 0 {
		b.pendingWrites--
	}
	b.mu.Unlock()
}

func (b *base) notify(value any) {
	b.mu.RLock()
	obs := b.observer
	id := b.id
	b.mu.RUnlock()
	if obs != nil {
		obs(id, value)
	}
}
