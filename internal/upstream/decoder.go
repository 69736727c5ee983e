// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package upstream

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/jeranaias/rigstream/internal/stream"
)

// =============================================================================
// PROVIDER WIRE TYPES
// =============================================================================

// wireEvent is the provider's streaming event envelope.
type wireEvent struct {
	Type  string `json:"type"`
	Index int    `json:"index"`

	ContentBlock struct {
		Type string `json:"type"`
		ID   string `json:"id"`
	} `json:"content_block"`

	Delta struct {
		Type        string `json:"type"`
		Text        string `json:"text"`
		PartialJSON string `json:"partial_json"`
		Thinking    string `json:"thinking"`
		StopReason  string `json:"stop_reason"`
	} `json:"delta"`

	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`

	Question string `json:"question"`
}

// =============================================================================
// DECODER
// =============================================================================

// Decoder maps provider streaming JSON onto stream events. It tracks which
// content block lives at each index so tool-input deltas can be keyed by
// their tool-call ID rather than the positional index.
type Decoder struct {
	// index -> block identity established by content_block_start
	blocks map[int]blockRef
}

type blockRef struct {
	kind   string // "text", "tool_use", "thinking"
	toolID string
}

// NewDecoder creates a decoder for one provider stream.
func NewDecoder() *Decoder {
	return &Decoder{
		blocks: make(map[int]blockRef),
	}
}

// Decode converts one provider event payload. The ok result is false for
// bookkeeping events (block start/stop, pings) that produce no stream event.
func (d *Decoder) Decode(data []byte) (stream.Event, bool, error) {
	var we wireEvent
	if err := json.Unmarshal(data, &we); err != nil {
		return stream.Event{}, false, fmt.Errorf("decode provider event: %w", err)
	}

	switch we.Type {
	case "content_block_start":
		d.blocks[we.Index] = blockRef{
			kind:   we.ContentBlock.Type,
			toolID: we.ContentBlock.ID,
		}
		return stream.Event{}, false, nil

	case "content_block_delta":
		return d.decodeDelta(we)

	case "content_block_stop", "message_start", "message_delta", "ping":
		return stream.Event{}, false, nil

	case "message_stop":
		return stream.Event{
			Kind:    stream.KindStreamDone,
			Payload: we.Delta.StopReason,
		}, true, nil

	case "error":
		kind := stream.KindError
		if we.Error.Type == "authentication_error" {
			kind = stream.KindAuthError
		}
		return stream.Event{Kind: kind, Payload: we.Error.Message}, true, nil

	case "user_question":
		return stream.Event{
			Kind:    stream.KindUserQuestion,
			Payload: we.Question,
		}, true, nil
	}

	// Unknown provider events pass through untouched so the UI can decide
	return stream.Event{
		Kind:    stream.EventKind(we.Type),
		Payload: string(data),
	}, true, nil
}

// decodeDelta maps the three fragment kinds.
func (d *Decoder) decodeDelta(we wireEvent) (stream.Event, bool, error) {
	blockID := "block-" + strconv.Itoa(we.Index)

	switch we.Delta.Type {
	case "text_delta":
		return stream.Event{
			Kind:     stream.KindTextDelta,
			BlockID:  blockID,
			Fragment: we.Delta.Text,
		}, true, nil

	case "thinking_delta":
		return stream.Event{
			Kind:     stream.KindThinkingDelta,
			BlockID:  blockID,
			Fragment: we.Delta.Thinking,
		}, true, nil

	case "input_json_delta":
		ref, ok := d.blocks[we.Index]
		if !ok || ref.toolID == "" {
			return stream.Event{}, false, fmt.Errorf(
				"input_json_delta for index %d without content_block_start", we.Index)
		}
		return stream.Event{
			Kind:       stream.KindToolInputDelta,
			ToolCallID: ref.toolID,
			Fragment:   we.Delta.PartialJSON,
		}, true, nil
	}

	return stream.Event{}, false, fmt.Errorf("unknown delta type %q", we.Delta.Type)
}
