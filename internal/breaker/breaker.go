// Package breaker adapts the teacher's circuit breaker
// (internal/circuitbreaker) into a single-purpose reconnect governor:
// the client engine's WaitSignal -> Connecting transition is gated by
// a Breaker so repeated failed dials back off instead of busy-looping
// (SPEC_FULL.md §4.11).
package breaker

import (
	"errors"
	"sync"
	"time"
)

// State is one of the three circuit breaker states.
type State int

const (
	StateClosed State = iota
	StateOpen
	StateHalfOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "CLOSED"
	case StateOpen:
		return "OPEN"
	case StateHalfOpen:
		return "HALF_OPEN"
	default:
		return "UNKNOWN"
	}
}

// ErrOpen is returned by Allow while the breaker is open.
var ErrOpen = errors.New("breaker: reconnect circuit is open")

// Counts tracks consecutive failures and consecutive successes within
// the current generation, the minimal subset of the teacher's Counts
// this single-purpose governor needs.
type Counts struct {
	ConsecutiveFailures  uint32
	ConsecutiveSuccesses uint32
}

func (c *Counts) clear() { *c = Counts{} }

func (c *Counts) onSuccess() {
	c.ConsecutiveSuccesses++
	c.ConsecutiveFailures = 0
}

func (c *Counts) onFailure() {
	c.ConsecutiveFailures++
	c.ConsecutiveSuccesses = 0
}

// Config configures a Breaker. Unlike the teacher's general-purpose
// breaker, this one has a single caller (the client's dial loop) so
// there is no Interval (closed-state counts are never reset on a
// timer) and no MaxRequests (the half-open state always admits exactly
// one probe); only the trip threshold and open-state timeout are
// configurable.
type Config struct {
	// ReadyToTrip is called after each failure in the closed state; the
	// breaker opens once it returns true.
	ReadyToTrip func(c Counts) bool

	// Timeout is how long the breaker stays open before allowing a
	// half-open probe.
	Timeout time.Duration

	// OnStateChange, if set, is invoked whenever the state changes.
	OnStateChange func(from, to State)
}

// DefaultConfig trips after 3 consecutive failures and stays open for
// 5 seconds.
func DefaultConfig() Config {
	return Config{
		ReadyToTrip: func(c Counts) bool { return c.ConsecutiveFailures >= 3 },
		Timeout:     5 * time.Second,
	}
}

// Breaker gates a client's reconnect attempts. Closed allows dials
// through; Open rejects them until Timeout elapses; Half-Open allows
// exactly one probe dial, returning to Closed on success or back to
// Open on failure.
type Breaker struct {
	cfg Config

	mu     sync.Mutex
	state  State
	counts Counts
	expiry time.Time
	probed bool
}

// New constructs a Breaker. A zero-value cfg.ReadyToTrip falls back
// to DefaultConfig's threshold.
func New(cfg Config) *Breaker {
	if cfg.ReadyToTrip == nil {
		def := DefaultConfig()
		cfg.ReadyToTrip = def.ReadyToTrip
		if cfg.Timeout == 0 {
			cfg.Timeout = def.Timeout
		}
	}
	return &Breaker{cfg: cfg, state: StateClosed}
}

// State reports the breaker's current state, first advancing it out
// of Open into HalfOpen if its timeout has elapsed.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.currentState(time.Now())
}

// currentState must be called with b.mu held.
func (b *Breaker) currentState(now time.Time) State {
	if b.state == StateOpen && !b.expiry.After(now) {
		b.setState(StateHalfOpen, now)
	}
	return b.state
}

func (b *Breaker) setState(s State, now time.Time) {
	if b.state == s {
		return
	}
	prev := b.state
	b.state = s
	b.counts.clear()
	b.probed = false
	switch s {
	case StateOpen:
		b.expiry = now.Add(b.cfg.Timeout)
	case StateHalfOpen, StateClosed:
		b.expiry = time.Time{}
	}
	if b.cfg.OnStateChange != nil {
		b.cfg.OnStateChange(prev, s)
	}
}

// Allow reports whether a dial attempt may proceed right now. It
// returns ErrOpen while open, and admits exactly one caller per
// half-open generation.
func (b *Breaker) Allow() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := time.Now()
	state := b.currentState(now)

	switch state {
	case StateOpen:
		return ErrOpen
	case StateHalfOpen:
		if b.probed {
			return ErrOpen
		}
		b.probed = true
		return nil
	default:
		return nil
	}
}

// RecordResult reports the outcome of a dial admitted by Allow,
// advancing the breaker's state: a half-open success closes the
// breaker, a half-open failure reopens it, and a closed-state failure
// trips it open once ReadyToTrip reports true.
func (b *Breaker) RecordResult(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := time.Now()
	state := b.currentState(now)

	if err == nil {
		b.counts.onSuccess()
		if state == StateHalfOpen {
			b.setState(StateClosed, now)
		}
		return
	}

	b.counts.onFailure()
	switch state {
	case StateClosed:
		if b.cfg.ReadyToTrip(b.counts) {
			b.setState(StateOpen, now)
		}
	case StateHalfOpen:
		b.setState(StateOpen, now)
	}
}
