package slot

import (
	"fmt"

	"github.com/statebridge/core/internal/slotcodec"
	"github.com/statebridge/core/internal/wire"
)

// graphSeries is one named time series within a GraphSlot: either
// paired x/y samples or y samples against an implicit linear axis.
type graphSeries struct {
	precision slotcodec.GraphPrecision
	axisMode  slotcodec.GraphAxisMode
	x         []float64
	y         []float64
}

// GraphSlot holds a set of numeric time series addressed by a u16
// series id, updated via Set | AddPoints | Remove | Reset (spec.md
// §4.3).
type GraphSlot struct {
	base
	series map[uint16]*graphSeries
}

func NewGraphSlot(id uint32, caps Capability) *GraphSlot {
	return &GraphSlot{base: base{id: id, caps: caps}, series: map[uint16]*graphSeries{}}
}

// SeriesSnapshot is the observer/host-facing view of one series.
type SeriesSnapshot struct {
	SeriesID  uint16
	AxisMode  slotcodec.GraphAxisMode
	Precision slotcodec.GraphPrecision
	X         []float64
	Y         []float64
}

func (s *GraphSlot) Kind() wire.Kind { return wire.KindGraph }

func (s *GraphSlot) snapshotLocked(seriesID uint16, ser *graphSeries) SeriesSnapshot {
	snap := SeriesSnapshot{SeriesID: seriesID, AxisMode: ser.axisMode, Precision: ser.precision, Y: append([]float64(nil), ser.y...)}
	if ser.axisMode == slotcodec.GraphAxisPaired {
		snap.X = append([]float64(nil), ser.x...)
	}
	return snap
}

// Series returns a snapshot of one series, or false if it does not
// exist.
func (s *GraphSlot) Series(seriesID uint16) (SeriesSnapshot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ser, ok := s.series[seriesID]
	if !ok {
		return SeriesSnapshot{}, false
	}
	return s.snapshotLocked(seriesID, ser), true
}

// All returns a snapshot of every series.
func (s *GraphSlot) All() []SeriesSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]SeriesSnapshot, 0, len(s.series))
	for id, ser := range s.series {
		out = append(out, s.snapshotLocked(id, ser))
	}
	return out
}

// SetSeries (re)defines a series' axis mode, precision and full
// contents, performing a local write.
func (s *GraphSlot) SetSeries(u slotcodec.GraphSeriesUpdate, connected bool) (msg wire.Message, enqueue bool, err error) {
	if u.AxisMode == slotcodec.GraphAxisPaired && len(u.X) != len(u.Y) {
		return wire.Message{}, false, fmt.Errorf("slot %d: paired series needs len(X) == len(Y)", s.id)
	}

	s.mu.Lock()
	s.series[u.SeriesID] = &graphSeries{precision: u.Precision, axisMode: u.AxisMode, x: u.X, y: u.Y}
	if connected {
		s.pendingWrites++
		enqueue = true
	}
	s.mu.Unlock()
	s.notify(s.All())

	sub, payload, err := slotcodec.EncodeGraphSet(u)
	if err != nil {
		return wire.Message{}, false, err
	}
	return wire.NewSlotMessage(wire.KindGraph, s.id, true, sub, payload), enqueue, nil
}

// AddPoints appends samples to an existing series. The update's axis
// mode must match the series' declared mode (spec.md §8); a mismatch
// is rejected without mutating the series.
func (s *GraphSlot) AddPoints(u slotcodec.GraphSeriesUpdate, connected bool) (msg wire.Message, enqueue bool, err error) {
	s.mu.Lock()
	ser, ok := s.series[u.SeriesID]
	if !ok {
		s.mu.Unlock()
		return wire.Message{}, false, fmt.Errorf("slot %d: series %d does not exist", s.id, u.SeriesID)
	}
	if ser.axisMode != u.AxisMode {
		s.mu.Unlock()
		return wire.Message{}, false, fmt.Errorf("slot %d: series %d axis mode mismatch (series is %v, update is %v)", s.id, u.SeriesID, ser.axisMode, u.AxisMode)
	}
	if u.AxisMode == slotcodec.GraphAxisPaired && len(u.X) != len(u.Y) {
		s.mu.Unlock()
		return wire.Message{}, false, fmt.Errorf("slot %d: paired AddPoints needs len(X) == len(Y)", s.id)
	}

	ser.y = append(ser.y, u.Y...)
	if ser.axisMode == slotcodec.GraphAxisPaired {
		ser.x = append(ser.x, u.X...)
	}
	if connected {
		s.pendingWrites++
		enqueue = true
	}
	s.mu.Unlock()
	s.notify(s.All())

	sub, payload, encErr := slotcodec.EncodeGraphAddPoints(u)
	if encErr != nil {
		return wire.Message{}, false, encErr
	}
	return wire.NewSlotMessage(wire.KindGraph, s.id, true, sub, payload), enqueue, nil
}

// RemoveSeries drops a series entirely.
func (s *GraphSlot) RemoveSeries(seriesID uint16, connected bool) (msg wire.Message, enqueue bool) {
	s.mu.Lock()
	delete(s.series, seriesID)
	if connected {
		s.pendingWrites++
		enqueue = true
	}
	s.mu.Unlock()
	s.notify(s.All())

	sub := slotcodec.EncodeGraphRemove(seriesID)
	return wire.NewSlotMessage(wire.KindGraph, s.id, true, sub, nil), enqueue
}

// Reset clears every series.
func (s *GraphSlot) Reset(connected bool) (msg wire.Message, enqueue bool) {
	s.mu.Lock()
	s.series = map[uint16]*graphSeries{}
	if connected {
		s.pendingWrites++
		enqueue = true
	}
	s.mu.Unlock()
	s.notify(s.All())

	sub := slotcodec.EncodeGraphReset()
	return wire.NewSlotMessage(wire.KindGraph, s.id, true, sub, nil), enqueue
}

// ApplyRemote dispatches on the GRAPH op carried in Sub[0].
func (s *GraphSlot) ApplyRemote(sub [wire.SubHeaderSize]byte, payload []byte) (any, bool, error) {
	op := slotcodec.GraphOp(sub[0])

	s.mu.Lock()
	shouldApply := s.pendingWrites == 0
	s.mu.Unlock()

	switch op {
	case slotcodec.GraphOpSet:
		u, err := slotcodec.DecodeGraphSet(sub, payload)
		if err != nil {
			return nil, false, err
		}
		if shouldApply {
			s.mu.Lock()
			s.series[u.SeriesID] = &graphSeries{precision: u.Precision, axisMode: u.AxisMode, x: u.X, y: u.Y}
			s.mu.Unlock()
			s.notify(s.All())
		}
		return u, shouldApply, nil

	case slotcodec.GraphOpAddPoints:
		u, err := slotcodec.DecodeGraphAddPoints(sub, payload)
		if err != nil {
			return nil, false, err
		}
		s.mu.Lock()
		ser, ok := s.series[u.SeriesID]
		if !ok {
			s.mu.Unlock()
			return nil, false, fmt.Errorf("slot %d: AddPoints for unknown series %d", s.id, u.SeriesID)
		}
		if ser.axisMode != u.AxisMode {
			s.mu.Unlock()
			return nil, false, fmt.Errorf("slot %d: series %d axis mode mismatch", s.id, u.SeriesID)
		}
		if shouldApply {
			ser.y = append(ser.y, u.Y...)
			if ser.axisMode == slotcodec.GraphAxisPaired {
				ser.x = append(ser.x, u.X...)
			}
		}
		s.mu.Unlock()
		if shouldApply {
			s.notify(s.All())
		}
		return u, shouldApply, nil

	case slotcodec.GraphOpRemove:
		seriesID := slotcodec.DecodeGraphRemove(sub)
		if shouldApply {
			s.mu.Lock()
			delete(s.series, seriesID)
			s.mu.Unlock()
			s.notify(s.All())
		}
		return seriesID, shouldApply, nil

	case slotcodec.GraphOpReset:
		if shouldApply {
			s.mu.Lock()
			s.series = map[uint16]*graphSeries{}
			s.mu.Unlock()
			s.notify(s.All())
		}
		return nil, shouldApply, nil

	default:
		return nil, false, fmt.Errorf("slot %d: unknown graph op %d", s.id, op)
	}
}

// Sync emits Reset followed by a per-series Set, per spec.md §4.3
// ("Dicts, lists, graphs sync as All/Reset + per-series Set").
func (s *GraphSlot) Sync() []wire.Message {
	var sub [wire.SubHeaderSize]byte
	sub[0] = byte(slotcodec.GraphOpReset)
	msgs := []wire.Message{wire.NewSlotMessage(wire.KindGraph, s.id, true, sub, nil)}

	for _, snap := range s.All() {
		u := slotcodec.GraphSeriesUpdate{SeriesID: snap.SeriesID, Precision: snap.Precision, AxisMode: snap.AxisMode, X: snap.X, Y: snap.Y}
		setSub, payload, err := slotcodec.EncodeGraphSet(u)
		if err != nil {
			// snapshots are always internally consistent (paired
			// X/Y are kept equal-length by SetSeries/AddPoints).
			panic(fmt.Sprintf("slot %d: graph sync encode: %v", s.id, err))
		}
		msgs = append(msgs, wire.NewSlotMessage(wire.KindGraph, s.id, true, setSub, payload))
	}
	return msgs
}
