// Package metrics exposes the Prometheus counters and gauges the sync
// engines report through, grounded on the teacher's go.mod dependency
// on prometheus/client_golang (present there but never wired into any
// retrieved file) and wired here for real (SPEC_FULL.md §4.9).
package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

// Recorder is the subset of Registry the sync engines depend on; kept
// as an interface so internal/syncserver and internal/syncclient never
// need to import prometheus types directly, and so tests can supply a
// no-op or spying implementation.
type Recorder interface {
	ConnectionOpened(role string)
	ConnectionClosed(role string)
	FrameObserved(role, kind, direction string, bytes int)
	HandshakeRejected(reason string)
	PendingWritesSet(slotID uint32, n int64)
}

// Registry wraps a private prometheus.Registerer with the metric set
// SPEC_FULL.md §4.9 names.
type Registry struct {
	reg *prometheus.Registry

	connectionsTotal     *prometheus.CounterVec
	connected            *prometheus.GaugeVec
	framesTotal          *prometheus.CounterVec
	bytesTotal           *prometheus.CounterVec
	pendingWrites        *prometheus.GaugeVec
	handshakeRejections  *prometheus.CounterVec
}

// New constructs a Registry with a fresh, private prometheus.Registry
// (never the global DefaultRegisterer, so multiple Registries in one
// process — e.g. across tests — never collide).
func New() *Registry {
	reg := prometheus.NewRegistry()

	r := &Registry{
		reg: reg,
		connectionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "statebridge_connections_total",
			Help: "Connections accepted or dialed, by role.",
		}, []string{"role"}),
		connected: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "statebridge_connected",
			Help: "1 while a role has a live connection, else 0.",
		}, []string{"role"}),
		framesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "statebridge_frames_total",
			Help: "Frames sent or received, by role, kind and direction.",
		}, []string{"role", "kind", "direction"}),
		bytesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "statebridge_bytes_total",
			Help: "Bytes sent or received, by role and direction.",
		}, []string{"role", "direction"}),
		pendingWrites: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "statebridge_pending_writes",
			Help: "Current pending-write counter, by slot id.",
		}, []string{"slot_id"}),
		handshakeRejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "statebridge_handshake_rejections_total",
			Help: "Handshakes rejected, by reason.",
		}, []string{"reason"}),
	}

	reg.MustRegister(
		r.connectionsTotal,
		r.connected,
		r.framesTotal,
		r.bytesTotal,
		r.pendingWrites,
		r.handshakeRejections,
	)

	return r
}

// Gatherer exposes the underlying prometheus.Gatherer for promhttp.
func (r *Registry) Gatherer() prometheus.Gatherer { return r.reg }

func (r *Registry) ConnectionOpened(role string) {
	r.connectionsTotal.WithLabelValues(role).Inc()
	r.connected.WithLabelValues(role).Set(1)
}

func (r *Registry) ConnectionClosed(role string) {
	r.connected.WithLabelValues(role).Set(0)
}

func (r *Registry) FrameObserved(role, kind, direction string, bytes int) {
	r.framesTotal.WithLabelValues(role, kind, direction).Inc()
	r.bytesTotal.WithLabelValues(role, direction).Add(float64(bytes))
}

func (r *Registry) HandshakeRejected(reason string) {
	r.handshakeRejections.WithLabelValues(reason).Inc()
}

func (r *Registry) PendingWritesSet(slotID uint32, n int64) {
	r.pendingWrites.WithLabelValues(strconv.FormatUint(uint64(slotID), 10)).Set(float64(n))
}
