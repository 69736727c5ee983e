// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package transport

import (
	"sync"

	"github.com/jeranaias/rigstream/internal/stream"
)

// =============================================================================
// CHANNEL SINK
// =============================================================================

// DefaultChannelCapacity is the buffer size for channel sinks. Coalesced
// events are far less frequent than raw deltas, so a modest buffer absorbs
// consumer jitter without hiding a stalled consumer.
const DefaultChannelCapacity = 64

// ChannelSink bridges coalesced events onto a bounded channel with
// try-send semantics: Accept never blocks. A full channel counts as a
// refusal, same as a closed one, so a stalled consumer surfaces as
// backpressure instead of silently wedging the producer loop.
type ChannelSink struct {
	mu     sync.Mutex
	ch     chan stream.Event
	closed bool

	dropped int
}

// NewChannelSink creates a channel sink. capacity <= 0 uses the default.
func NewChannelSink(capacity int) *ChannelSink {
	if capacity <= 0 {
		capacity = DefaultChannelCapacity
	}
	return &ChannelSink{
		ch: make(chan stream.Event, capacity),
	}
}

// Events returns the receive side for the consumer. The channel is closed
// by Close.
func (s *ChannelSink) Events() <-chan stream.Event {
	return s.ch
}

// Accept tries to enqueue the event without blocking. Returns false when
// the sink is closed or the consumer has fallen behind the buffer.
func (s *ChannelSink) Accept(ev stream.Event) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return false
	}
	select {
	case s.ch <- ev:
		return true
	default:
		s.dropped++
		return false
	}
}

// Close closes the sink and its channel. Safe to call more than once.
func (s *ChannelSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.closed {
		s.closed = true
		close(s.ch)
	}
	return nil
}

// Dropped returns how many events were refused for a full buffer.
func (s *ChannelSink) Dropped() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dropped
}
