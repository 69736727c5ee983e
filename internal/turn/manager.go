// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package turn

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jeranaias/rigstream/internal/stream"
	"github.com/jeranaias/rigstream/internal/transport"
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrTurnNotFound indicates an unknown or already-ended turn ID.
	ErrTurnNotFound = errors.New("turn not found")

	// ErrTooManyTurns indicates the active-turn limit has been reached.
	ErrTooManyTurns = errors.New("too many active turns")
)

// =============================================================================
// TURN
// =============================================================================

// Turn is one logical output stream: an agent turn with its own coalescer
// and bridge.
type Turn struct {
	// ID is the unique turn identifier
	ID string

	// StartedAt is when the turn began
	StartedAt time.Time

	bridge *transport.Bridge

	mu           sync.Mutex
	lastActivity time.Time
	seq          uint64
}

// Write forwards one incremental event into the turn's stream, stamping it
// with the turn ID and a producer sequence number. Returns false once the
// turn's sink has closed or the turn has ended.
func (t *Turn) Write(ev stream.Event) bool {
	t.mu.Lock()
	t.lastActivity = time.Now()
	t.seq++
	ev.TurnID = t.ID
	ev.Seq = t.seq
	t.mu.Unlock()

	return t.bridge.Write(ev)
}

// Flush forces out any pending accumulated content.
func (t *Turn) Flush() {
	t.bridge.Flush()
}

// IdleTime returns how long since the turn last saw an event.
func (t *Turn) IdleTime() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	return time.Since(t.lastActivity)
}

// Done reports whether the turn's bridge has shut down.
func (t *Turn) Done() bool {
	return t.bridge.Done()
}

// =============================================================================
// MANAGER
// =============================================================================

// Config holds configuration for the turn manager.
type Config struct {
	// MaxActive limits concurrent turns (0 = unlimited)
	MaxActive int

	// IdleTimeout ends turns that stop producing events (0 = never)
	IdleTimeout time.Duration

	// FlushInterval overrides the coalescer flush deadline (0 = default)
	FlushInterval time.Duration
}

// DefaultConfig returns the default turn manager configuration.
func DefaultConfig() Config {
	return Config{
		MaxActive:   8,
		IdleTimeout: 5 * time.Minute,
	}
}

// Notification reports a turn lifecycle change to observers.
type Notification struct {
	TurnID   string
	Reason   string // "ended", "idle_timeout", "sink_closed"
	Duration time.Duration
}

// Manager tracks active turns and their stream lifecycles.
type Manager struct {
	mu     sync.Mutex
	cfg    Config
	active map[string]*Turn

	notifyChan chan Notification
}

// NewManager creates a turn manager.
func NewManager(cfg Config) *Manager {
	return &Manager{
		cfg:        cfg,
		active:     make(map[string]*Turn),
		notifyChan: make(chan Notification, 16),
	}
}

// Notifications returns the channel of turn lifecycle notifications.
// Notifications are dropped, not blocked on, when nobody is listening.
func (m *Manager) Notifications() <-chan Notification {
	return m.notifyChan
}

// Begin starts a new turn streaming into sink.
func (m *Manager) Begin(sink transport.Sink) (*Turn, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.cfg.MaxActive > 0 && len(m.active) >= m.cfg.MaxActive {
		return nil, ErrTooManyTurns
	}

	var opts []stream.Option
	if m.cfg.FlushInterval > 0 {
		opts = append(opts, stream.WithFlushInterval(m.cfg.FlushInterval))
	}

	now := time.Now()
	t := &Turn{
		ID:           uuid.NewString(),
		StartedAt:    now,
		lastActivity: now,
		bridge:       transport.NewBridge(sink, opts...),
	}
	m.active[t.ID] = t
	return t, nil
}

// Get returns an active turn by ID.
func (m *Manager) Get(id string) (*Turn, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, ok := m.active[id]
	if !ok {
		return nil, ErrTurnNotFound
	}
	return t, nil
}

// Active returns the number of live turns.
func (m *Manager) Active() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.active)
}

// End shuts down a turn's stream, draining any buffered content. Ending an
// unknown turn returns ErrTurnNotFound; ending a turn twice does not.
func (m *Manager) End(id string) error {
	m.mu.Lock()
	t, ok := m.active[id]
	if ok {
		delete(m.active, id)
	}
	m.mu.Unlock()

	if !ok {
		return ErrTurnNotFound
	}

	t.bridge.Shutdown()
	m.notify(Notification{
		TurnID:   id,
		Reason:   "ended",
		Duration: time.Since(t.StartedAt),
	})
	return nil
}

// Reap ends turns that have shut down on their own (sink closure) or sat
// idle past the configured timeout. Returns how many turns were reaped.
// Call it periodically; the embedding process drives the schedule.
func (m *Manager) Reap() int {
	m.mu.Lock()
	var victims []*Turn
	var reasons []string
	for id, t := range m.active {
		switch {
		case t.Done():
			victims = append(victims, t)
			reasons = append(reasons, "sink_closed")
			delete(m.active, id)
		case m.cfg.IdleTimeout > 0 && t.IdleTime() >= m.cfg.IdleTimeout:
			victims = append(victims, t)
			reasons = append(reasons, "idle_timeout")
			delete(m.active, id)
		}
	}
	m.mu.Unlock()

	for i, t := range victims {
		t.bridge.Shutdown()
		m.notify(Notification{
			TurnID:   t.ID,
			Reason:   reasons[i],
			Duration: time.Since(t.StartedAt),
		})
	}
	return len(victims)
}

// Shutdown ends every active turn.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	turns := make([]*Turn, 0, len(m.active))
	for id, t := range m.active {
		turns = append(turns, t)
		delete(m.active, id)
	}
	m.mu.Unlock()

	for _, t := range turns {
		t.bridge.Shutdown()
	}
}

// notify sends without blocking; a full channel drops the notification.
func (m *Manager) notify(n Notification) {
	select {
	case m.notifyChan <- n:
	default:
	}
}
