// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package transport carries coalesced stream events to their consumers.
//
// The coalescer in internal/stream reduces event volume; this package owns
// what happens on the other side of its emit callback: bounded in-process
// channels, the NDJSON IPC framing to the UI process, and the Bridge that
// ties a producer, a coalescer, and a sink into one disposable stream.
//
// # Key Types
//
//   - Sink: Accept/Close contract shared by all event consumers
//   - ChannelSink: Bounded channel with non-blocking try-send semantics
//   - IPCWriter: Newline-delimited JSON frames over any io.Writer
//   - Bridge: Per-stream lifecycle owner; disposes the coalescer exactly once
package transport
