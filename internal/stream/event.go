// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package stream

import (
	"errors"
	"fmt"
)

// =============================================================================
// EVENT KINDS
// =============================================================================

// EventKind identifies the type of an incremental event.
type EventKind string

const (
	// KindTextDelta is an incremental chunk of assistant text, keyed by BlockID.
	KindTextDelta EventKind = "text_delta"

	// KindToolInputDelta is an incremental chunk of tool-call input JSON,
	// keyed by ToolCallID.
	KindToolInputDelta EventKind = "tool_input_delta"

	// KindThinkingDelta is an incremental chunk of reasoning text, keyed by BlockID.
	KindThinkingDelta EventKind = "thinking_delta"

	// KindError reports a stream-level error. Never delayed or merged.
	KindError EventKind = "error"

	// KindAuthError reports an authentication failure. Never delayed or merged.
	KindAuthError EventKind = "auth_error"

	// KindStreamDone signals the end of the stream. Never delayed or merged.
	KindStreamDone EventKind = "stream_done"

	// KindUserQuestion signals that the agent raised a question requiring
	// user input. Never delayed or merged.
	KindUserQuestion EventKind = "user_question"
)

// String returns the string representation of the event kind.
func (k EventKind) String() string {
	return string(k)
}

// Coalescable reports whether events of this kind may be merged with
// contiguous same-stream events of the same kind.
func (k EventKind) Coalescable() bool {
	switch k {
	case KindTextDelta, KindToolInputDelta, KindThinkingDelta:
		return true
	}
	return false
}

// Critical reports whether events of this kind must bypass buffering
// entirely. Kinds that are neither coalescable nor critical are passed
// through directly but do not carry the critical contract.
func (k EventKind) Critical() bool {
	switch k {
	case KindError, KindAuthError, KindStreamDone, KindUserQuestion:
		return true
	}
	return false
}

// =============================================================================
// EVENT
// =============================================================================

// Event is one unit of incremental agent output crossing the transport
// boundary. Delta kinds carry a Fragment scoped by their stream key;
// control kinds carry an opaque Payload.
type Event struct {
	// Kind is the event type
	Kind EventKind `json:"kind"`

	// TurnID identifies the agent turn this event belongs to
	TurnID string `json:"turn_id,omitempty"`

	// Seq is a monotonic sequence number assigned by the producer
	Seq uint64 `json:"seq,omitempty"`

	// BlockID keys text and thinking deltas to their content block
	BlockID string `json:"block_id,omitempty"`

	// ToolCallID keys tool-input deltas to their tool invocation
	ToolCallID string `json:"tool_call_id,omitempty"`

	// Fragment is the delta payload for coalescable kinds
	Fragment string `json:"fragment,omitempty"`

	// Payload carries arbitrary content for control and pass-through kinds
	Payload string `json:"payload,omitempty"`
}

// StreamKey returns the identifier scoping which fragments may merge with
// this event. Empty for non-coalescable kinds.
func (e Event) StreamKey() string {
	switch e.Kind {
	case KindTextDelta, KindThinkingDelta:
		return e.BlockID
	case KindToolInputDelta:
		return e.ToolCallID
	}
	return ""
}

// =============================================================================
// VALIDATION
// =============================================================================

// ErrMalformedEvent indicates a coalescable event missing its required
// stream key. Such events are a programming error in the producer.
var ErrMalformedEvent = errors.New("malformed incremental event")

// Validate checks that the event satisfies its kind's field contract.
// Coalescable kinds must carry their stream key; an empty fragment is
// legal (providers emit them).
func (e Event) Validate() error {
	if !e.Kind.Coalescable() {
		return nil
	}
	if e.StreamKey() == "" {
		return fmt.Errorf("%w: %s event without stream key", ErrMalformedEvent, e.Kind)
	}
	return nil
}
