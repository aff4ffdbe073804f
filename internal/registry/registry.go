// Package registry builds the id→slot mapping shared by the sync
// engines and the embedding API (spec.md §4.4).
package registry

import (
	"fmt"

	"github.com/statebridge/core/internal/slot"
	"github.com/statebridge/core/internal/wire"
)

// firstUserSlotID is the first id handed to a host-declared slot; ids
// below this are reserved for protocol use (spec.md §3 "ids < 10 are
// reserved for protocol use").
const firstUserSlotID = 10

// Builder assigns slot ids monotonically from firstUserSlotID and
// records every slot in per-id and per-kind maps. It is not safe for
// concurrent use; a host builds its registry once at startup, on one
// goroutine, before handing it to the engines.
type Builder struct {
	nextID uint32
	byID   map[uint32]slot.Slot
	byKind map[wire.Kind][]slot.Slot
}

// NewBuilder returns an empty builder ready to accept slots.
func NewBuilder() *Builder {
	return &Builder{
		nextID: firstUserSlotID,
		byID:   make(map[uint32]slot.Slot),
		byKind: make(map[wire.Kind][]slot.Slot),
	}
}

func (b *Builder) allocID() uint32 {
	id := b.nextID
	b.nextID++
	return id
}

func (b *Builder) register(s slot.Slot) {
	b.byID[s.ID()] = s
	b.byKind[s.Kind()] = append(b.byKind[s.Kind()], s)
}

// Build freezes the builder into a read-only Registry: its per-id and
// per-kind maps are copied into exactly-sized maps/slices and shared
// with the worker threads from that point on (spec.md §4.4 "mappings
// are frozen ... shrunk to fit").
func (b *Builder) Build() *Registry {
	byID := make(map[uint32]slot.Slot, len(b.byID))
	for id, s := range b.byID {
		byID[id] = s
	}

	byKind := make(map[wire.Kind][]slot.Slot, len(b.byKind))
	for k, slots := range b.byKind {
		cp := make([]slot.Slot, len(slots))
		copy(cp, slots)
		byKind[k] = cp
	}

	return &Registry{byID: byID, byKind: byKind}
}

// Registry is the frozen, read-only view of every slot a host
// declared, dispatched by id for protocol handling and by kind for
// bulk operations like the sync sweep.
type Registry struct {
	byID   map[uint32]slot.Slot
	byKind map[wire.Kind][]slot.Slot
}

// Lookup finds a slot by id. A miss is a schema-mismatch error per
// spec.md §7 ("unknown slot id").
func (r *Registry) Lookup(id uint32) (slot.Slot, error) {
	s, ok := r.byID[id]
	if !ok {
		return nil, fmt.Errorf("registry: unknown slot id %d", id)
	}
	return s, nil
}

// ByKind returns every slot of a given wire kind, in no particular
// order.
func (r *Registry) ByKind(k wire.Kind) []slot.Slot {
	return r.byKind[k]
}

// All returns every registered slot, in no particular order.
func (r *Registry) All() []slot.Slot {
	out := make([]slot.Slot, 0, len(r.byID))
	for _, s := range r.byID {
		out = append(out, s)
	}
	return out
}

// SyncCapable returns every slot whose capabilities include
// CapSyncOnConnect, the set the server's sync sweep pushes to a
// freshly (re)connected client.
func (r *Registry) SyncCapable() []slot.Slot {
	out := make([]slot.Slot, 0, len(r.byID))
	for _, s := range r.byID {
		if s.Capabilities().Has(slot.CapSyncOnConnect) {
			out = append(out, s)
		}
	}
	return out
}
