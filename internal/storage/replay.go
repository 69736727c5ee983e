// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"context"

	"golang.org/x/time/rate"

	"github.com/jeranaias/rigstream/internal/stream"
)

// =============================================================================
// REPLAY
// =============================================================================

// DefaultReplayRate is the default replay pace in events per second.
// Coalesced turns rarely exceed 20 events/s live, so this reads naturally.
const DefaultReplayRate = 20

// ReplayOptions controls pacing and filtering of a turn replay.
type ReplayOptions struct {
	// EventsPerSecond paces the replay (0 = DefaultReplayRate, < 0 = unpaced)
	EventsPerSecond float64

	// SkipThinking drops thinking deltas from the replay
	SkipThinking bool
}

// Replay re-emits a recorded turn in its original order. Pacing uses a
// rate limiter so the session-visualization view sees something shaped
// like the live stream instead of one burst. Replay stops early when emit
// returns false or the context is cancelled.
func (s *TranscriptStore) Replay(ctx context.Context, turnID string, emit stream.EmitFunc, opts ReplayOptions) error {
	events, err := s.Events(turnID)
	if err != nil {
		return err
	}

	perSec := opts.EventsPerSecond
	if perSec == 0 {
		perSec = DefaultReplayRate
	}

	var limiter *rate.Limiter
	if perSec > 0 {
		limiter = rate.NewLimiter(rate.Limit(perSec), 1)
	}

	for _, ev := range events {
		if opts.SkipThinking && ev.Kind == stream.KindThinkingDelta {
			continue
		}
		if limiter != nil {
			if err := limiter.Wait(ctx); err != nil {
				return err
			}
		} else if err := ctx.Err(); err != nil {
			return err
		}
		if !emit(ev) {
			return nil
		}
	}
	return nil
}
