// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package stream

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

// =============================================================================
// COALESCER
// =============================================================================

// DefaultFlushInterval bounds the worst-case latency a buffered fragment
// can accrue before being emitted.
const DefaultFlushInterval = 50 * time.Millisecond

// EmitFunc delivers one complete event to the downstream sink. It must
// process the event synchronously and return true while the sink accepts
// events; false means the sink has been closed or detached.
type EmitFunc func(Event) bool

// Coalescer batches rapid same-stream delta events into single merged
// events before they cross the transport boundary.
//
// At most one accumulator is live at a time. Contiguous events sharing the
// same kind and stream key are merged into it; any kind or key switch, any
// critical event, and the flush deadline all force an emit first, so the
// output is an order-preserving reduction of the input.
//
// The flush timer fires on its own goroutine, so all state is guarded by a
// mutex even though callers drive the coalescer from a single loop. The
// emit callback runs with the lock held; sinks must not call back into the
// coalescer.
//
// Use one instance per logical stream (one agent turn). Sharing an
// instance across unrelated streams would interleave their accumulators.
type Coalescer struct {
	mu sync.Mutex

	emit     EmitFunc
	interval time.Duration

	// Pending accumulator; kind and key are fixed at creation
	pending  bool
	kind     EventKind
	key      string
	turnID   string
	seq      uint64
	buf      strings.Builder
	deadline *time.Timer
	gen      uint64

	disposed bool
}

// Option configures a Coalescer.
type Option func(*Coalescer)

// WithFlushInterval overrides the flush deadline. Non-positive values keep
// the default.
func WithFlushInterval(d time.Duration) Option {
	return func(c *Coalescer) {
		if d > 0 {
			c.interval = d
		}
	}
}

// NewCoalescer creates a coalescer that delivers batched events through emit.
func NewCoalescer(emit EmitFunc, opts ...Option) *Coalescer {
	c := &Coalescer{
		emit:     emit,
		interval: DefaultFlushInterval,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// =============================================================================
// WRITE
// =============================================================================

// Write accepts one incremental event in arrival order.
//
// Coalescable events are buffered and Write returns true unless admitting
// the event forced a flush whose emit reported a closed sink. Critical and
// unrecognized events flush any pending accumulator, are emitted directly,
// and Write returns the emit result. After Dispose, Write is a no-op
// returning false.
//
// Write panics on a malformed coalescable event (missing stream key):
// silently absorbing one would corrupt the user-visible stream.
func (c *Coalescer) Write(ev Event) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.disposed {
		return false
	}

	if !ev.Kind.Coalescable() {
		// Critical and pass-through kinds: drain first, then deliver.
		c.flushLocked()
		return c.emit(ev)
	}

	if err := ev.Validate(); err != nil {
		panic(fmt.Sprintf("stream: %v", err))
	}

	ok := true
	if c.pending && (c.kind != ev.Kind || c.key != ev.StreamKey()) {
		ok = c.flushLocked()
	}

	if !c.pending {
		c.pending = true
		c.kind = ev.Kind
		c.key = ev.StreamKey()
		c.turnID = ev.TurnID
		c.seq = ev.Seq
		c.buf.Reset()
		// Single-shot deadline, not re-armed by later merges: bounds the
		// added latency to one interval no matter how long the run is.
		c.gen++
		gen := c.gen
		c.deadline = time.AfterFunc(c.interval, func() { c.deadlineFlush(gen) })
	}
	c.buf.WriteString(ev.Fragment)
	return ok
}

// =============================================================================
// FLUSH / DISPOSE
// =============================================================================

// Flush cancels the deadline timer and emits the pending accumulator as one
// merged event. Calling with nothing pending is a safe no-op.
func (c *Coalescer) Flush() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.flushLocked()
}

// Dispose drains any pending content and permanently silences the
// coalescer. The owning transport must call it exactly once when the
// logical stream ends so no buffered fragment is lost.
func (c *Coalescer) Dispose() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.flushLocked()
	c.disposed = true
}

// deadlineFlush runs on the timer goroutine. Stop cannot cancel a callback
// that has already fired and is waiting on the mutex, so the generation
// check drops wakeups whose accumulator was flushed for another reason
// while they waited. Without it a stale wakeup would split the run that
// replaced its accumulator into two emissions.
func (c *Coalescer) deadlineFlush(gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.gen {
		return
	}
	c.flushLocked()
}

// flushLocked emits the accumulator if one is pending and returns the emit
// result (true when nothing was pending). Caller must hold mu.
func (c *Coalescer) flushLocked() bool {
	if c.deadline != nil {
		c.deadline.Stop()
		c.deadline = nil
	}
	if !c.pending || c.disposed {
		return true
	}

	merged := Event{
		Kind:     c.kind,
		TurnID:   c.turnID,
		Seq:      c.seq,
		Fragment: c.buf.String(),
	}
	switch c.kind {
	case KindToolInputDelta:
		merged.ToolCallID = c.key
	default:
		merged.BlockID = c.key
	}

	c.pending = false
	c.buf.Reset()

	// The result is reported, not latched: sink closure policy belongs to
	// the embedding transport, which observes it from Write and disposes.
	return c.emit(merged)
}
