// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package uistream wires coalesced events into a Bubble Tea program.
//
// No views live here. This package only converts transport-side events
// into tea.Msg values and provides the frame-limited tick that keeps
// rendering smooth while a turn streams. The chat view consumes the
// messages; this package never renders.
package uistream
