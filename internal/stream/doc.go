// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package stream provides the incremental event model and delta coalescer
// for agent output streaming.
//
// An agent turn produces a high-frequency sequence of small incremental
// events: text tokens, tool-input fragments, and thinking tokens. Forwarding
// each one across the IPC boundary to the UI process is wasteful, so the
// Coalescer batches contiguous same-stream fragments into single merged
// events while passing control events (errors, completion, user questions)
// through immediately.
//
// # Key Types
//
//   - Event: Tagged incremental event (text/tool/thinking delta or control)
//   - EventKind: Event kind enumeration with coalescability rules
//   - Coalescer: Batches same-stream deltas, bounded-latency flush
//   - EmitFunc: Downstream emit contract; false signals a closed sink
//
// # Usage
//
// Create one coalescer per logical stream (agent turn) and write events
// in arrival order:
//
//	c := stream.NewCoalescer(func(ev stream.Event) bool {
//	    return sink.Accept(ev)
//	})
//	defer c.Dispose()
//	for ev := range events {
//	    if !c.Write(ev) {
//	        break // sink closed
//	    }
//	}
//
// # Ordering
//
// At most one accumulator is live at a time, and every transition out of
// the buffered state emits before anything newer is admitted, so emitted
// events are a reordering-free reduction of the input sequence.
package stream
