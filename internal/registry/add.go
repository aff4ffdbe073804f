package registry

import (
	"github.com/statebridge/core/internal/slot"
	"github.com/statebridge/core/internal/slotcodec"
)

// Go methods cannot declare their own type parameters, so each slot
// shape gets a package-level generic constructor taking the builder as
// its first argument rather than a generic Builder method.

// AddScalar declares a new scalar slot and returns its typed handle.
func AddScalar[T slotcodec.Numeric](b *Builder, initial T, caps slot.Capability) *slot.ScalarSlot[T] {
	s := slot.NewScalarSlot(b.allocID(), initial, caps)
	b.register(s)
	return s
}

// AddStatic declares a new static (host-write-only) slot.
func AddStatic[T slotcodec.Numeric](b *Builder, initial T, caps slot.Capability) *slot.StaticSlot[T] {
	s := slot.NewStaticSlot(b.allocID(), initial, caps)
	b.register(s)
	return s
}

// AddEnum declares a new enum slot over a fixed value set.
func AddEnum[E comparable](b *Builder, initial E, values []E, caps slot.Capability) (*slot.EnumSlot[E], error) {
	s, err := slot.NewEnumSlot(b.allocID(), initial, values, caps)
	if err != nil {
		return nil, err
	}
	b.register(s)
	return s, nil
}

// AddString declares a new string/bytes slot.
func AddString(b *Builder, initial string, caps slot.Capability) *slot.StringSlot {
	s := slot.NewStringSlot(b.allocID(), initial, caps)
	b.register(s)
	return s
}

// AddSignal declares a new fire-and-forget signal slot.
func AddSignal(b *Builder, caps slot.Capability) *slot.SignalSlot {
	s := slot.NewSignalSlot(b.allocID(), caps)
	b.register(s)
	return s
}

// AddImage declares a new image slot.
func AddImage(b *Builder, initial slotcodec.ImageUpdate, caps slot.Capability) *slot.ImageSlot {
	s := slot.NewImageSlot(b.allocID(), initial, caps)
	b.register(s)
	return s
}

// AddHistogram declares a new standalone histogram slot.
func AddHistogram(b *Builder, initial []float32, caps slot.Capability) *slot.HistogramSlot {
	s := slot.NewHistogramSlot(b.allocID(), initial, caps)
	b.register(s)
	return s
}

// AddDict declares a new homogeneous dictionary slot.
func AddDict[K comparable, V any](b *Builder, initial map[K]V, kc slotcodec.ElemCodec[K], vc slotcodec.ElemCodec[V], caps slot.Capability) *slot.DictSlot[K, V] {
	s := slot.NewDictSlot(b.allocID(), initial, kc, vc, caps)
	b.register(s)
	return s
}

// AddList declares a new homogeneous list slot.
func AddList[T any](b *Builder, initial []T, vc slotcodec.ElemCodec[T], caps slot.Capability) *slot.ListSlot[T] {
	s := slot.NewListSlot(b.allocID(), initial, vc, caps)
	b.register(s)
	return s
}

// AddGraph declares a new multi-series numeric graph slot.
func AddGraph(b *Builder, caps slot.Capability) *slot.GraphSlot {
	s := slot.NewGraphSlot(b.allocID(), caps)
	b.register(s)
	return s
}
