// Package syncclient implements the client-side connection engine
// (spec.md §4.6): it waits for a connect signal, dials the server,
// performs the handshake, and keeps the registry's slots synchronised
// while connected, backing off reconnect attempts through
// internal/breaker.
//
// Grounded on the same reader/writer-goroutine-with-done-channel
// teardown shape as internal/syncserver (itself adapted from the
// teacher's internal/fabric/websocket.go), mirrored here for the
// dialing side of the same wire protocol.
package syncclient

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/statebridge/core/internal/breaker"
	"github.com/statebridge/core/internal/bus"
	"github.com/statebridge/core/internal/metrics"
	"github.com/statebridge/core/internal/registry"
	"github.com/statebridge/core/internal/wire"
)

// State is the client engine's lifecycle state (spec.md §4.6).
type State int

const (
	StateWaitSignal State = iota
	StateConnecting
	StateHandshaking
	StateConnected
	StateDisconnected
)

func (s State) String() string {
	switch s {
	case StateWaitSignal:
		return "WAIT_SIGNAL"
	case StateConnecting:
		return "CONNECTING"
	case StateHandshaking:
		return "HANDSHAKING"
	case StateConnected:
		return "CONNECTED"
	case StateDisconnected:
		return "DISCONNECTED"
	default:
		return "UNKNOWN"
	}
}

// ConnState is the UI-facing connection status a host reads to drive
// its own presentation (spec.md §4.6 "NotConnected | Connected |
// Disconnected").
type ConnState int

const (
	ConnNotConnected ConnState = iota
	ConnConnected
	ConnDisconnected
)

func (c ConnState) String() string {
	switch c {
	case ConnNotConnected:
		return "NOT_CONNECTED"
	case ConnConnected:
		return "CONNECTED"
	case ConnDisconnected:
		return "DISCONNECTED"
	default:
		return "UNKNOWN"
	}
}

// Config configures one Client.
type Config struct {
	ServerAddr      string
	ProtocolVersion uint64
	Token           uint64

	// DialTimeout bounds a single connect attempt. Defaults to 5s.
	DialTimeout time.Duration
	// RetryDelay is how long the client waits before re-raising its
	// own connect signal after a failed dial or a disconnect. Defaults
	// to 1s; the breaker governs whether that re-raised attempt is
	// actually allowed through.
	RetryDelay time.Duration
}

func (c Config) withDefaults() Config {
	if c.DialTimeout <= 0 {
		c.DialTimeout = 5 * time.Second
	}
	if c.RetryDelay <= 0 {
		c.RetryDelay = time.Second
	}
	return c
}

type connection struct {
	conn       net.Conn
	id         string // correlation id for log lines, grounded on the teacher's uuid.New().String() session-id pattern
	connected  bool   // guarded by Client.mu
	writerDone chan struct{}
	readerDone chan struct{}
}

// Client is the single-server TCP sync engine run by an embedding
// host. Like Server, its outbound queue is created once and lives for
// the Client's entire lifetime so a reconnect drains whatever the
// previous connection's generation left behind.
type Client struct {
	cfg      Config
	registry *registry.Registry
	notifier *bus.Notifier
	metrics  metrics.Recorder
	logger   *slog.Logger
	breaker  *breaker.Breaker

	queue *bus.Queue

	mu            sync.Mutex
	state         State
	uiState       ConnState
	enabled       bool
	conn          *connection
	onRepaint     func(delta float32)
	onStateChange func(ConnState)

	connectSignal chan struct{}
	stopCh        chan struct{}
	wg            sync.WaitGroup
}

// New constructs a Client around a frozen registry and shared
// notifier. queueCapacity bounds the outbound queue's buffer.
func New(cfg Config, reg *registry.Registry, notifier *bus.Notifier, rec metrics.Recorder, logger *slog.Logger, br *breaker.Breaker, queueCapacity int) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	if br == nil {
		br = breaker.New(breaker.DefaultConfig())
	}
	return &Client{
		cfg:           cfg.withDefaults(),
		registry:      reg,
		notifier:      notifier,
		metrics:       rec,
		logger:        logger,
		breaker:       br,
		queue:         bus.NewQueue(queueCapacity),
		state:         StateWaitSignal,
		uiState:       ConnNotConnected,
		connectSignal: make(chan struct{}, 1),
		stopCh:        make(chan struct{}),
	}
}

func (c *Client) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// ConnectionState is the UI-facing NotConnected/Connected/Disconnected
// status (spec.md §4.6).
func (c *Client) ConnectionState() ConnState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.uiState
}

// IsRunning reports whether the client's control loop is active, per
// the embedding API's start/stop/disconnect/is_running surface
// (spec.md §6).
func (c *Client) IsRunning() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.enabled
}

// Connected reports whether the client currently has a live server
// connection. Slot handles read this before calling Set so local
// writes only engage the pending-write bookkeeping while there is a
// peer to echo to.
func (c *Client) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn != nil && c.conn.connected
}

// OnRepaint registers the callback driven by inbound COMMAND/Update
// frames (spec.md §4.6 "drives a repaint tick on the UI state").
func (c *Client) OnRepaint(fn func(delta float32)) {
	c.mu.Lock()
	c.onRepaint = fn
	c.mu.Unlock()
}

// OnConnectionStateChange registers a callback invoked whenever the
// UI-facing connection state changes.
func (c *Client) OnConnectionStateChange(fn func(ConnState)) {
	c.mu.Lock()
	c.onStateChange = fn
	c.mu.Unlock()
}

// Send enqueues a locally-originated frame for delivery to the
// server. It is safe to call whether or not a connection is currently
// live; frames queued while disconnected are delivered (or drained)
// on the next connection.
func (c *Client) Send(m wire.Message) {
	c.queue.Enqueue(m)
}

// Start launches the control loop. It does not itself attempt to
// connect — the host calls Connect to raise the first connect signal
// (spec.md §4.6 "waits on a user-driven connect event").
func (c *Client) Start() {
	c.mu.Lock()
	if c.enabled {
		c.mu.Unlock()
		return
	}
	c.enabled = true
	c.mu.Unlock()

	c.wg.Add(1)
	go c.run()
}

// Connect raises the connect signal, moving the engine out of
// WaitSignal on its next loop iteration. Redundant signals while one
// is already pending are coalesced.
func (c *Client) Connect() {
	select {
	case c.connectSignal <- struct{}{}:
	default:
	}
}

// Stop tears down any live connection and halts the control loop.
func (c *Client) Stop() {
	c.mu.Lock()
	if !c.enabled {
		c.mu.Unlock()
		return
	}
	c.enabled = false
	current := c.conn
	c.mu.Unlock()

	close(c.stopCh)
	if current != nil {
		current.conn.Close()
	}
	c.wg.Wait()
}

// Disconnect tears down the current server connection without
// stopping the control loop; the engine falls back to WaitSignal and
// (per its own retry policy) will attempt to reconnect.
func (c *Client) Disconnect() {
	c.mu.Lock()
	current := c.conn
	c.mu.Unlock()
	if current != nil {
		current.conn.Close()
	}
}

func (c *Client) run() {
	defer c.wg.Done()

	for {
		c.setState(StateWaitSignal)
		c.setUIState(ConnNotConnected)

		select {
		case <-c.stopCh:
			return
		case <-c.connectSignal:
		}

		if err := c.breaker.Allow(); err != nil {
			c.logger.Debug("syncclient: reconnect suppressed by breaker", "error", err)
			c.scheduleRetry()
			continue
		}

		c.setState(StateConnecting)
		netConn, err := net.DialTimeout("tcp", c.cfg.ServerAddr, c.cfg.DialTimeout)
		c.breaker.RecordResult(err)
		if err != nil {
			c.logger.Warn("syncclient: dial failed", "error", err)
			c.scheduleRetry()
			continue
		}

		c.setState(StateHandshaking)
		c.queue.Drain()

		conn := &connection{
			conn:       netConn,
			id:         uuid.New().String(),
			connected:  true,
			writerDone: make(chan struct{}),
			readerDone: make(chan struct{}),
		}
		c.mu.Lock()
		c.conn = conn
		c.mu.Unlock()

		go c.writerLoop(conn)
		go c.readerLoop(conn)

		c.setState(StateConnected)
		c.setUIState(ConnConnected)
		if c.metrics != nil {
			c.metrics.ConnectionOpened("client")
		}
		c.logger.Info("syncclient: connected", "conn_id", conn.id, "addr", c.cfg.ServerAddr)

		<-conn.readerDone

		c.markDisconnected(conn)
		c.queue.EnqueueTerminate()
		<-conn.writerDone
		netConn.Close()

		if c.metrics != nil {
			c.metrics.ConnectionClosed("client")
		}
		c.setState(StateDisconnected)
		c.setUIState(ConnDisconnected)
		c.logger.Info("syncclient: disconnected", "conn_id", conn.id)

		c.scheduleRetry()
	}
}

func (c *Client) scheduleRetry() {
	select {
	case <-c.stopCh:
		return
	default:
	}
	time.AfterFunc(c.cfg.RetryDelay, func() {
		select {
		case c.connectSignal <- struct{}{}:
		default:
		}
	})
}

func (c *Client) setState(s State) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}

func (c *Client) setUIState(s ConnState) {
	c.mu.Lock()
	c.uiState = s
	fn := c.onStateChange
	c.mu.Unlock()
	if fn != nil {
		fn(s)
	}
}

func (c *Client) markDisconnected(conn *connection) {
	c.mu.Lock()
	conn.connected = false
	c.mu.Unlock()
}

func (c *Client) connectionLive(conn *connection) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return conn.connected
}

// writerLoop sends the opening Handshake, then relays the outbound
// queue until Terminate or the connection drops (spec.md §4.6
// "writer first sends Handshake(version,token)").
func (c *Client) writerLoop(conn *connection) {
	defer close(conn.writerDone)

	hs := wire.EncodeHandshake(wire.Handshake{Version: c.cfg.ProtocolVersion, Token: c.cfg.Token})
	if err := wire.WriteMessage(conn.conn, hs); err != nil {
		c.logger.Warn("syncclient: handshake write failed", "error", err)
		c.markDisconnected(conn)
		return
	}
	if c.metrics != nil {
		buf, _ := hs.Encode()
		c.metrics.FrameObserved("client", hs.Kind.String(), "outbound", len(buf))
	}

	for {
		item, ok := c.queue.Receive()
		if !ok || item.Terminate {
			return
		}
		if !c.connectionLive(conn) {
			return
		}
		if err := wire.WriteMessage(conn.conn, item.Message); err != nil {
			c.logger.Warn("syncclient: write failed", "error", err)
			c.markDisconnected(conn)
			return
		}
		if c.metrics != nil {
			buf, _ := item.Message.Encode()
			c.metrics.FrameObserved("client", item.Message.Kind.String(), "outbound", len(buf))
		}
	}
}

// readerLoop dispatches inbound frames into slot update functions; on
// a protocol error it forwards an Error via the outbound queue and
// exits, and on an I/O error it exits directly (spec.md §4.6).
func (c *Client) readerLoop(conn *connection) {
	defer close(conn.readerDone)

	for {
		if !c.connectionLive(conn) {
			return
		}

		msg, err := wire.ReadMessage(conn.conn)
		if err != nil {
			c.markDisconnected(conn)
			if c.notifier != nil {
				c.notifier.Emit(0, err)
			}
			return
		}

		if c.metrics != nil {
			buf, _ := msg.Encode()
			c.metrics.FrameObserved("client", msg.Kind.String(), "inbound", len(buf))
		}

		if protoErr := c.dispatch(msg); protoErr != nil {
			c.logger.Warn("syncclient: protocol error", "error", protoErr)
			c.queue.Enqueue(wire.EncodeError(wire.Error{Text: protoErr.Error()}))
			c.markDisconnected(conn)
			return
		}
	}
}

// dispatch applies one inbound frame, returning a non-nil error only
// for protocol-level problems (spec.md §7 "Protocol parse"/"Schema
// mismatch") that should terminate the connection.
func (c *Client) dispatch(msg wire.Message) error {
	if msg.Kind.IsSlotKind() {
		sl, err := c.registry.Lookup(msg.SlotID)
		if err != nil {
			return err
		}
		value, applied, err := sl.ApplyRemote(msg.Sub, msg.Payload)
		if err != nil {
			return err
		}
		if applied && c.notifier != nil {
			c.notifier.Emit(msg.SlotID, value)
		}
		return nil
	}

	switch msg.CommandTag {
	case wire.CommandAck:
		ack, err := wire.DecodeAck(msg)
		if err != nil {
			return err
		}
		if sl, err := c.registry.Lookup(ack.SlotID); err == nil {
			sl.Ack()
		}
		return nil
	case wire.CommandUpdate:
		upd, err := wire.DecodeUpdate(msg)
		if err != nil {
			return err
		}
		c.mu.Lock()
		fn := c.onRepaint
		c.mu.Unlock()
		if fn != nil {
			fn(upd.Delta)
		}
		return nil
	case wire.CommandError:
		wireErr, err := wire.DecodeError(msg)
		if err != nil {
			return err
		}
		if c.notifier != nil {
			c.notifier.Emit(0, errors.New(wireErr.Text))
		}
		return nil
	default:
		return fmt.Errorf("syncclient: unexpected command %s", msg.CommandTag)
	}
}
