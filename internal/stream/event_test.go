// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package stream

import (
	"errors"
	"testing"
)

func TestEventKindCoalescable(t *testing.T) {
	coalescable := []EventKind{KindTextDelta, KindToolInputDelta, KindThinkingDelta}
	for _, k := range coalescable {
		if !k.Coalescable() {
			t.Errorf("%s should be coalescable", k)
		}
		if k.Critical() {
			t.Errorf("%s should not be critical", k)
		}
	}

	critical := []EventKind{KindError, KindAuthError, KindStreamDone, KindUserQuestion}
	for _, k := range critical {
		if k.Coalescable() {
			t.Errorf("%s should not be coalescable", k)
		}
		if !k.Critical() {
			t.Errorf("%s should be critical", k)
		}
	}

	// Unknown kinds are pass-through: neither coalescable nor critical
	unknown := EventKind("usage_update")
	if unknown.Coalescable() || unknown.Critical() {
		t.Error("unknown kinds should be plain pass-through")
	}
}

func TestEventStreamKey(t *testing.T) {
	tests := []struct {
		name string
		ev   Event
		want string
	}{
		{"text keyed by block", Event{Kind: KindTextDelta, BlockID: "b1"}, "b1"},
		{"thinking keyed by block", Event{Kind: KindThinkingDelta, BlockID: "b2"}, "b2"},
		{"tool keyed by call", Event{Kind: KindToolInputDelta, ToolCallID: "t1"}, "t1"},
		{"critical has no key", Event{Kind: KindError, Payload: "boom"}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.ev.StreamKey(); got != tt.want {
				t.Errorf("StreamKey() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestEventValidate(t *testing.T) {
	valid := Event{Kind: KindTextDelta, BlockID: "b1", Fragment: "hi"}
	if err := valid.Validate(); err != nil {
		t.Errorf("valid event should pass validation: %v", err)
	}

	// Empty fragments are legal; providers emit them
	empty := Event{Kind: KindTextDelta, BlockID: "b1"}
	if err := empty.Validate(); err != nil {
		t.Errorf("empty fragment should be legal: %v", err)
	}

	missing := Event{Kind: KindToolInputDelta, Fragment: "{"}
	err := missing.Validate()
	if err == nil {
		t.Fatal("coalescable event without stream key should fail validation")
	}
	if !errors.Is(err, ErrMalformedEvent) {
		t.Errorf("expected ErrMalformedEvent, got %v", err)
	}

	// Control events carry no stream key and always validate
	done := Event{Kind: KindStreamDone}
	if err := done.Validate(); err != nil {
		t.Errorf("control event should validate: %v", err)
	}
}
