// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package upstream decodes provider streaming output into incremental
// events.
//
// Agent runtimes deliver token-level output as Server-Sent Events. This
// package parses the SSE framing, maps provider event JSON onto the
// stream.Event model, and pumps the result into a turn's coalescer in
// arrival order.
//
// # Key Types
//
//   - SSEReader: Incremental SSE frame parser
//   - Decoder: Provider JSON to stream.Event mapping with block tracking
//   - Pump: Context-aware read/decode/write loop
package upstream
