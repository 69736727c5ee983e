// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package turn

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/rigstream/internal/stream"
	"github.com/jeranaias/rigstream/internal/transport"
	"github.com/jeranaias/rigstream/internal/upstream"
)

// End-to-end: provider SSE -> pump -> turn -> coalescer -> channel sink.
const pipelineSSE = `data: {"type":"message_start"}

data: {"type":"content_block_start","index":0,"content_block":{"type":"text"}}

data: {"type":"content_block_delta","index":0,"delta":{"type":"text_delta","text":"Hel"}}

data: {"type":"content_block_delta","index":0,"delta":{"type":"text_delta","text":"lo, "}}

data: {"type":"content_block_start","index":1,"content_block":{"type":"tool_use","id":"toolu_9"}}

data: {"type":"content_block_delta","index":1,"delta":{"type":"input_json_delta","partial_json":"{\"cmd\":\"ls\"}"}}

data: {"type":"content_block_delta","index":0,"delta":{"type":"text_delta","text":"wor"}}

data: {"type":"content_block_delta","index":0,"delta":{"type":"text_delta","text":"ld"}}

data: {"type":"message_stop","delta":{"stop_reason":"end_turn"}}

`

func TestPipelineCoalescesProviderStream(t *testing.T) {
	sink := transport.NewChannelSink(32)
	m := NewManager(Config{FlushInterval: 25 * time.Millisecond})

	turn, err := m.Begin(sink)
	require.NoError(t, err)

	err = upstream.Pump(context.Background(), strings.NewReader(pipelineSSE), turn)
	require.NoError(t, err)
	require.NoError(t, m.End(turn.ID))

	var got []stream.Event
	for ev := range sink.Events() {
		got = append(got, ev)
	}

	// Tool delta splits the text run; done event closes the stream.
	require.Len(t, got, 4)
	assert.Equal(t, stream.KindTextDelta, got[0].Kind)
	assert.Equal(t, "Hello, ", got[0].Fragment)
	assert.Equal(t, stream.KindToolInputDelta, got[1].Kind)
	assert.Equal(t, "toolu_9", got[1].ToolCallID)
	assert.Equal(t, stream.KindTextDelta, got[2].Kind)
	assert.Equal(t, "world", got[2].Fragment)
	assert.Equal(t, stream.KindStreamDone, got[3].Kind)

	for _, ev := range got {
		assert.Equal(t, turn.ID, ev.TurnID, "every emission carries the turn id")
	}
}
