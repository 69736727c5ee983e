// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package uistream

import (
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/rigstream/internal/stream"
)

// =============================================================================
// MESSAGES
// =============================================================================

// EventMsg carries one coalesced stream event into the program loop.
type EventMsg struct {
	Event stream.Event
}

// TurnDoneMsg indicates a turn's stream has ended.
type TurnDoneMsg struct {
	TurnID string
	Reason string
}

// TickMsg drives frame-limited re-rendering while a turn streams.
type TickMsg struct {
	Time time.Time
}

// =============================================================================
// PROGRAM SINK
// =============================================================================

// SendFunc delivers a message to the running program, typically
// (*tea.Program).Send.
type SendFunc func(tea.Msg)

// ProgramSink forwards coalesced events to a Bubble Tea program as
// EventMsgs. Detach flips it closed; Accept then returns false so the
// transport can dispose its coalescer.
type ProgramSink struct {
	mu       sync.Mutex
	send     SendFunc
	detached bool
}

// NewProgramSink creates a sink sending into the program via send.
func NewProgramSink(send SendFunc) *ProgramSink {
	return &ProgramSink{send: send}
}

// Accept forwards the event. Returns false once detached.
func (s *ProgramSink) Accept(ev stream.Event) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.detached {
		return false
	}
	s.send(EventMsg{Event: ev})
	return true
}

// Close detaches the sink from the program.
func (s *ProgramSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.detached = true
	return nil
}

// =============================================================================
// FRAME TICK
// =============================================================================

// FrameInterval caps streaming re-renders at roughly 30fps.
const FrameInterval = 33 * time.Millisecond

// TickCmd returns a command that ticks at the streaming frame rate.
func TickCmd() tea.Cmd {
	return tea.Tick(FrameInterval, func(t time.Time) tea.Msg {
		return TickMsg{Time: t}
	})
}
