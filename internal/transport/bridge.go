// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package transport

import (
	"sync"

	"github.com/jeranaias/rigstream/internal/stream"
)

// =============================================================================
// BRIDGE
// =============================================================================

// Bridge owns one coalescer and its sink for the lifetime of a logical
// stream. The coalescer itself stays permissive when a sink refuses an
// event; the bridge is the component that acts on that signal, disposing
// the coalescer exactly once and closing the sink.
type Bridge struct {
	mu        sync.Mutex
	coalescer *stream.Coalescer
	sink      Sink
	done      bool
}

// NewBridge wires a fresh coalescer to sink. Options are passed through to
// the coalescer.
func NewBridge(sink Sink, opts ...stream.Option) *Bridge {
	return &Bridge{
		coalescer: stream.NewCoalescer(sink.Accept, opts...),
		sink:      sink,
	}
}

// Write forwards one producer event. When a flush reveals the sink has
// closed, the bridge shuts down and every later Write returns false.
func (b *Bridge) Write(ev stream.Event) bool {
	b.mu.Lock()
	if b.done {
		b.mu.Unlock()
		return false
	}
	c := b.coalescer
	b.mu.Unlock()

	if !c.Write(ev) {
		b.Shutdown()
		return false
	}
	return true
}

// Flush forces out any pending accumulator.
func (b *Bridge) Flush() {
	b.mu.Lock()
	c, done := b.coalescer, b.done
	b.mu.Unlock()
	if !done {
		c.Flush()
	}
}

// Shutdown drains and disposes the coalescer and closes the sink. Safe to
// call more than once; only the first call has any effect.
func (b *Bridge) Shutdown() {
	b.mu.Lock()
	if b.done {
		b.mu.Unlock()
		return
	}
	b.done = true
	c, s := b.coalescer, b.sink
	b.mu.Unlock()

	c.Dispose()
	_ = s.Close()
}

// Done reports whether the bridge has shut down.
func (b *Bridge) Done() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.done
}
