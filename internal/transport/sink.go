// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package transport

import (
	"github.com/jeranaias/rigstream/internal/stream"
)

// =============================================================================
// SINK CONTRACT
// =============================================================================

// Sink consumes complete, coalesced stream events. Accept must process the
// event synchronously and return true while the sink can take more; false
// signals it is closed or detached. Implementations must not call back
// into the coalescer from Accept.
type Sink interface {
	// Accept delivers one event. Returns false once the sink is closed.
	Accept(ev stream.Event) bool

	// Close releases the sink. Accept returns false afterwards.
	Close() error
}

// SinkFunc adapts a plain function to the Sink interface.
type SinkFunc func(stream.Event) bool

// Accept calls f.
func (f SinkFunc) Accept(ev stream.Event) bool { return f(ev) }

// Close is a no-op for function sinks.
func (f SinkFunc) Close() error { return nil }

// Emit returns a stream.EmitFunc backed by the sink, for wiring a sink
// directly into a coalescer.
func Emit(s Sink) stream.EmitFunc {
	return s.Accept
}
