// Package syncserver implements the server-side connection engine
// (spec.md §4.5): it owns a TCP listener, admits at most one live
// client connection at a time, runs the handshake gate, and keeps the
// registry's slots synchronised over the wire while they change.
//
// The state-enum-guarded-by-a-mutex shape and the reader/writer
// goroutine pair with a done-channel teardown are grounded on the
// teacher's internal/protocol/session.go (SessionState/Session) and
// internal/fabric/websocket.go (handleSpokeConnection), adapted from
// session bookkeeping and WebSocket framing to this protocol's raw
// net.Conn plus the custom wire codec.
package syncserver

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"

	"github.com/google/uuid"

	"github.com/statebridge/core/internal/bus"
	"github.com/statebridge/core/internal/metrics"
	"github.com/statebridge/core/internal/registry"
	"github.com/statebridge/core/internal/slot"
	"github.com/statebridge/core/internal/wire"
)

// State is the server engine's lifecycle state (spec.md §4.5).
type State int

const (
	StateIdle State = iota
	StateListening
	StateAccepting
	StateHandshake
	StateConnected
	StateDraining
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "IDLE"
	case StateListening:
		return "LISTENING"
	case StateAccepting:
		return "ACCEPTING"
	case StateHandshake:
		return "HANDSHAKE"
	case StateConnected:
		return "CONNECTED"
	case StateDraining:
		return "DRAINING"
	default:
		return "UNKNOWN"
	}
}

// Config configures one Server.
type Config struct {
	ListenAddr      string
	ProtocolVersion uint64
	AllowedTokens   map[uint64]struct{} // nil means accept any token
}

// connection wraps one admitted net.Conn with its liveness flag and
// writer-teardown signal.
type connection struct {
	conn       net.Conn
	id         string // correlation id for log lines, grounded on the teacher's uuid.New().String() session-id pattern
	connected  bool   // guarded by Server.mu
	writerDone chan struct{}
	readerDone chan struct{}
}

// Server is the single-client TCP sync engine. Its outbound queue is
// created once and lives for the Server's entire lifetime: a fresh
// connection drains whatever the previous connection's generation left
// behind rather than starting from a brand new queue, which is what
// makes reconnect handoff (spec.md §8 "Reconnect drain") meaningful —
// a queue recreated per-connection would have nothing to drain.
type Server struct {
	cfg      Config
	registry *registry.Registry
	notifier *bus.Notifier
	metrics  metrics.Recorder
	logger   *slog.Logger

	queue *bus.Queue

	mu       sync.Mutex
	state    State
	enabled  bool
	listener net.Listener
	conn     *connection
	wg       sync.WaitGroup
}

// New constructs a Server around a frozen registry and shared
// notifier. queueCapacity bounds the outbound queue's buffer.
func New(cfg Config, reg *registry.Registry, notifier *bus.Notifier, rec metrics.Recorder, logger *slog.Logger, queueCapacity int) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		cfg:      cfg,
		registry: reg,
		notifier: notifier,
		metrics:  rec,
		logger:   logger,
		queue:    bus.NewQueue(queueCapacity),
		state:    StateIdle,
	}
}

func (s *Server) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// IsRunning reports whether the server has an open listener, per the
// embedding API's start/stop/disconnect/is_running surface (spec.md
// §6).
func (s *Server) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.enabled
}

// Connected reports whether a client is currently attached. Slot
// handles read this before calling Set so the local-write/remote-echo
// bookkeeping only engages while there's a peer to echo to (spec.md
// §4.3 "on local set while connected").
func (s *Server) Connected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn != nil && s.conn.connected
}

// Send enqueues a locally-originated frame for delivery to the
// connected client. With no connected client the frame stays in the
// queue and is discarded by the Drain that promote runs before the next
// client's sync sweep; the next client receives the slot's current
// value through that sweep instead.
func (s *Server) Send(m wire.Message) {
	s.queue.Enqueue(m)
}

// Disconnect tears down the current client connection without
// stopping the listener; the engine returns to Listening and accepts
// a new connection.
func (s *Server) Disconnect() {
	s.mu.Lock()
	current := s.conn
	s.mu.Unlock()
	if current == nil {
		return
	}
	s.terminateConnection(current)
	s.mu.Lock()
	s.conn = nil
	s.mu.Unlock()
	s.backToListening()
}

// Start opens the listener and begins accepting connections. Calling
// Start on an already-enabled Server is a no-op.
func (s *Server) Start() error {
	s.mu.Lock()
	if s.enabled {
		s.mu.Unlock()
		return nil
	}
	ln, err := net.Listen("tcp", s.cfg.ListenAddr)
	if err != nil {
		s.mu.Unlock()
		return fmt.Errorf("syncserver: listen: %w", err)
	}
	s.listener = ln
	s.enabled = true
	s.state = StateListening
	s.mu.Unlock()

	s.logger.Info("syncserver: listening", "addr", ln.Addr().String())

	s.wg.Add(1)
	go s.acceptLoop()
	return nil
}

// Stop disables the server, disconnects any current client, and
// unblocks a pending Accept. Go's net.Listener.Close already makes a
// concurrent blocked Accept return with an error — the same class of
// OS-level "shutdown the fd" primitive spec.md §9 sanctions in place of
// interruption-at-a-distance — so Stop closes the listener directly
// rather than literally dialing a self-connection the way the
// original source's stop() does.
func (s *Server) Stop() {
	s.mu.Lock()
	if !s.enabled {
		s.mu.Unlock()
		return
	}
	s.enabled = false
	ln := s.listener
	current := s.conn
	s.mu.Unlock()

	if current != nil {
		s.terminateConnection(current)
	}
	if ln != nil {
		ln.Close()
	}
	s.wg.Wait()

	s.mu.Lock()
	s.state = StateIdle
	s.listener = nil
	s.mu.Unlock()
}

func (s *Server) acceptLoop() {
	defer s.wg.Done()
	for {
		s.mu.Lock()
		ln := s.listener
		enabled := s.enabled
		if enabled {
			s.state = StateAccepting
		}
		s.mu.Unlock()
		if !enabled || ln == nil {
			return
		}

		conn, err := ln.Accept()
		if err != nil {
			s.mu.Lock()
			stillEnabled := s.enabled
			s.mu.Unlock()
			if !stillEnabled {
				return
			}
			s.logger.Warn("syncserver: accept error", "error", err)
			continue
		}
		s.handleConnection(conn)
	}
}

func (s *Server) handleConnection(netConn net.Conn) {
	s.mu.Lock()
	s.state = StateHandshake
	s.mu.Unlock()

	msg, err := wire.ReadMessage(netConn)
	if err != nil {
		s.logger.Warn("syncserver: handshake read failed", "error", err)
		netConn.Close()
		s.backToListening()
		return
	}

	if msg.Kind != wire.KindCommand || msg.CommandTag != wire.CommandHandshake {
		s.rejectHandshake(netConn, "expected handshake")
		return
	}

	hs, err := wire.DecodeHandshake(msg)
	if err != nil {
		s.rejectHandshake(netConn, "malformed handshake")
		return
	}

	if hs.Version != s.cfg.ProtocolVersion {
		s.rejectHandshake(netConn, "different version")
		return
	}

	if s.cfg.AllowedTokens != nil {
		if _, ok := s.cfg.AllowedTokens[hs.Token]; !ok {
			s.rejectHandshake(netConn, "unrecognized token")
			return
		}
	}

	s.promote(netConn)
}

func (s *Server) rejectHandshake(netConn net.Conn, reason string) {
	s.logger.Warn("syncserver: handshake rejected", "reason", reason)
	if s.metrics != nil {
		s.metrics.HandshakeRejected(reason)
	}
	wire.WriteMessage(netConn, wire.EncodeError(wire.Error{Text: reason}))
	netConn.Close()
	if s.notifier != nil {
		s.notifier.Emit(0, errors.New(reason))
	}
	s.backToListening()
}

func (s *Server) backToListening() {
	s.mu.Lock()
	if s.enabled {
		s.state = StateListening
	}
	s.mu.Unlock()
}

// promote hands the queue's receiver end to a freshly handshaken
// connection, first tearing down any previous one and draining
// whatever it left behind (spec.md §4.7, §8 "Reconnect drain").
func (s *Server) promote(netConn net.Conn) {
	s.mu.Lock()
	previous := s.conn
	s.mu.Unlock()

	if previous != nil {
		s.terminateConnection(previous)
	}
	s.queue.Drain()

	c := &connection{conn: netConn, id: uuid.New().String(), connected: true, writerDone: make(chan struct{}), readerDone: make(chan struct{})}

	s.mu.Lock()
	s.conn = c
	s.state = StateConnected
	s.mu.Unlock()

	if s.metrics != nil {
		s.metrics.ConnectionOpened("server")
	}
	s.logger.Info("syncserver: client connected", "conn_id", c.id, "remote", netConn.RemoteAddr().String())

	for _, sl := range s.registry.SyncCapable() {
		for _, m := range sl.Sync() {
			s.queue.Enqueue(m)
		}
	}

	s.wg.Add(2)
	go s.writerLoop(c)
	go s.readerLoop(c)
}

// terminateConnection stops a connection's writer/reader pair and
// waits for both to finish before returning, without touching the
// shared queue's contents (those survive for the next connection to
// drain). Closing the conn here (rather than only after the writer
// exits) is what unblocks a reader parked in a blocking ReadMessage
// call; joining readerDone in addition to writerDone ensures the old
// reader goroutine cannot still be running — and cannot still enqueue
// a stray Terminate or flip the state machine back to Listening — by
// the time promote() drains the queue for the next connection.
func (s *Server) terminateConnection(c *connection) {
	s.mu.Lock()
	c.connected = false
	s.mu.Unlock()

	s.queue.EnqueueTerminate()
	c.conn.Close()
	<-c.writerDone
	<-c.readerDone

	if s.metrics != nil {
		s.metrics.ConnectionClosed("server")
	}
}

func (s *Server) writerLoop(c *connection) {
	defer s.wg.Done()
	defer close(c.writerDone)

	for {
		item, ok := s.queue.Receive()
		if !ok || item.Terminate {
			return
		}

		s.mu.Lock()
		live := c.connected
		s.mu.Unlock()
		if !live {
			return
		}

		if err := wire.WriteMessage(c.conn, item.Message); err != nil {
			s.logger.Warn("syncserver: write failed", "conn_id", c.id, "error", err)
			s.mu.Lock()
			c.connected = false
			s.mu.Unlock()
			return
		}
		if s.metrics != nil {
			buf, _ := item.Message.Encode()
			s.metrics.FrameObserved("server", item.Message.Kind.String(), "outbound", len(buf))
		}
	}
}

func (s *Server) readerLoop(c *connection) {
	defer s.wg.Done()
	defer close(c.readerDone)

	for {
		s.mu.Lock()
		live := c.connected
		s.mu.Unlock()
		if !live {
			return
		}

		msg, err := wire.ReadMessage(c.conn)
		if err != nil {
			s.mu.Lock()
			wasLive := c.connected
			c.connected = false
			s.mu.Unlock()
			// wasLive is false when terminateConnection already retired
			// this connection (the reconnect-replace path): the stray
			// read error is just conn.Close() unblocking us, and the
			// Terminate token / state transition belong to whoever
			// called terminateConnection, not to this exit.
			if !wasLive {
				return
			}
			s.queue.EnqueueTerminate()
			s.logger.Info("syncserver: client disconnected", "conn_id", c.id, "error", err)
			s.backToListening()
			return
		}

		if s.metrics != nil {
			buf, _ := msg.Encode()
			s.metrics.FrameObserved("server", msg.Kind.String(), "inbound", len(buf))
		}

		s.dispatch(msg)
	}
}

func (s *Server) dispatch(msg wire.Message) {
	if msg.Kind.IsSlotKind() {
		sl, err := s.registry.Lookup(msg.SlotID)
		if err != nil {
			s.logger.Warn("syncserver: unknown slot", "slot_id", msg.SlotID, "error", err)
			s.emitError(err)
			return
		}

		value, applied, err := sl.ApplyRemote(msg.Sub, msg.Payload)
		if err != nil {
			s.logger.Warn("syncserver: apply remote failed", "slot_id", msg.SlotID, "error", err)
			s.emitError(err)
			return
		}
		if applied && s.notifier != nil {
			s.notifier.Emit(msg.SlotID, value)
		}
		if sl.Capabilities().Has(slot.CapAcknowledgeable) {
			s.queue.Enqueue(wire.EncodeAck(wire.Ack{SlotID: msg.SlotID}))
		}
		if s.metrics != nil {
			s.metrics.PendingWritesSet(msg.SlotID, sl.PendingWrites())
		}
		return
	}

	switch msg.CommandTag {
	case wire.CommandAck:
		ack, err := wire.DecodeAck(msg)
		if err != nil {
			s.emitError(err)
			return
		}
		if sl, err := s.registry.Lookup(ack.SlotID); err == nil {
			sl.Ack()
			if s.metrics != nil {
				s.metrics.PendingWritesSet(ack.SlotID, sl.PendingWrites())
			}
		}
	case wire.CommandError:
		wireErr, err := wire.DecodeError(msg)
		if err != nil {
			s.emitError(err)
			return
		}
		if s.notifier != nil {
			s.notifier.Emit(0, errors.New(wireErr.Text))
		}
	default:
		s.logger.Warn("syncserver: unexpected command after handshake", "tag", msg.CommandTag.String())
		s.emitError(fmt.Errorf("syncserver: unexpected command %s", msg.CommandTag))
	}
}

func (s *Server) emitError(err error) {
	if s.notifier != nil {
		s.notifier.Emit(0, err)
	}
}
