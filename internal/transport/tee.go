// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package transport

import (
	"github.com/jeranaias/rigstream/internal/stream"
)

// =============================================================================
// TEE SINK
// =============================================================================

// teeSink fans events out to a primary and a secondary sink, e.g. the IPC
// writer plus the transcript recorder.
type teeSink struct {
	primary   Sink
	secondary Sink
}

// Tee returns a sink delivering every event to both sinks. The primary
// drives the accept result: a refusal from the secondary (a full
// transcript disk, say) must not kill the live stream, so it is ignored.
// Close closes both and returns the primary's error.
func Tee(primary, secondary Sink) Sink {
	return &teeSink{primary: primary, secondary: secondary}
}

func (t *teeSink) Accept(ev stream.Event) bool {
	ok := t.primary.Accept(ev)
	t.secondary.Accept(ev)
	return ok
}

func (t *teeSink) Close() error {
	err := t.primary.Close()
	_ = t.secondary.Close()
	return err
}
