// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package upstream

import (
	"context"
	"errors"
	"io"

	"github.com/jeranaias/rigstream/internal/stream"
)

// =============================================================================
// PUMP
// =============================================================================

// ErrSinkClosed indicates the downstream transport stopped accepting
// events before the provider stream finished.
var ErrSinkClosed = errors.New("downstream sink closed")

// Writer is the downstream a pump feeds, typically a *turn.Turn or a
// transport bridge. False from Write means stop pumping.
type Writer interface {
	Write(ev stream.Event) bool
	Flush()
}

// Pump reads provider SSE from r, decodes each event, and writes it
// downstream in arrival order. It returns nil when the provider stream
// ends (EOF or message_stop), ErrSinkClosed when the transport refuses an
// event, ctx.Err() on cancellation, and decode errors otherwise.
//
// Malformed provider frames abort the pump rather than being skipped: a
// silently dropped fragment would corrupt the user-visible stream.
func Pump(ctx context.Context, r io.Reader, w Writer) error {
	sse := NewSSEReader(r)
	dec := NewDecoder()

	for {
		select {
		case <-ctx.Done():
			w.Flush()
			return ctx.Err()
		default:
		}

		_, data, err := sse.ReadEvent()
		if err != nil {
			if err == io.EOF {
				w.Flush()
				return nil
			}
			return err
		}

		ev, ok, err := dec.Decode(data)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}

		if !w.Write(ev) {
			return ErrSinkClosed
		}
		if ev.Kind == stream.KindStreamDone {
			return nil
		}
	}
}
