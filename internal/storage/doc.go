// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage provides transcript recording and replay for coalesced
// streams.
//
// A TranscriptStore is itself a transport sink: wire it downstream of a
// coalescer (directly or teed next to the IPC writer) and it records every
// emitted event to a local SQLite database. Recorded turns can then be
// replayed in order, paced to resemble the live stream, which is what the
// session-visualization view consumes.
//
// The chat/task/project database belongs to the client's persistence
// layer and is not touched here; this package stores only the event-level
// transcript of each turn.
//
// # Key Types
//
//   - TranscriptStore: SQLite-backed event log implementing transport.Sink
//   - ReplayOptions: Pacing and filtering for turn replay
//
// # Usage
//
// Record a turn while it streams:
//
//	store, err := storage.OpenTranscriptStore(path)
//	sink := transport.Tee(ipcWriter, store.Sink())
//
// Replay it later:
//
//	err := store.Replay(ctx, turnID, func(ev stream.Event) bool {
//	    return ui.Accept(ev)
//	}, storage.ReplayOptions{EventsPerSecond: 20})
package storage
