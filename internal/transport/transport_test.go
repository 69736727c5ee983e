// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package transport

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/jeranaias/rigstream/internal/stream"
)

func TestChannelSinkTrySend(t *testing.T) {
	sink := NewChannelSink(2)

	if !sink.Accept(stream.Event{Kind: stream.KindTextDelta, BlockID: "b1", Fragment: "a"}) {
		t.Fatal("accept into empty buffer should succeed")
	}
	if !sink.Accept(stream.Event{Kind: stream.KindTextDelta, BlockID: "b1", Fragment: "b"}) {
		t.Fatal("accept into non-full buffer should succeed")
	}

	// Buffer full, nobody receiving: try-send must refuse, not block
	if sink.Accept(stream.Event{Kind: stream.KindTextDelta, BlockID: "b1", Fragment: "c"}) {
		t.Error("accept into full buffer should return false")
	}
	if sink.Dropped() != 1 {
		t.Errorf("expected 1 dropped event, got %d", sink.Dropped())
	}

	// Drain and the sink recovers
	<-sink.Events()
	if !sink.Accept(stream.Event{Kind: stream.KindTextDelta, BlockID: "b1", Fragment: "d"}) {
		t.Error("accept after drain should succeed")
	}
}

func TestChannelSinkClose(t *testing.T) {
	sink := NewChannelSink(4)
	sink.Accept(stream.Event{Kind: stream.KindStreamDone})

	if err := sink.Close(); err != nil {
		t.Fatalf("close failed: %v", err)
	}
	if sink.Accept(stream.Event{Kind: stream.KindTextDelta, BlockID: "b", Fragment: "x"}) {
		t.Error("accept after close should return false")
	}
	// Double close must not panic
	if err := sink.Close(); err != nil {
		t.Errorf("second close failed: %v", err)
	}

	// Buffered event remains readable, then the channel ends
	ev, ok := <-sink.Events()
	if !ok || ev.Kind != stream.KindStreamDone {
		t.Errorf("expected buffered event before close, got %+v ok=%v", ev, ok)
	}
	if _, ok := <-sink.Events(); ok {
		t.Error("channel should be closed after drain")
	}
}

func TestIPCRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	w := NewIPCWriter(&buf)

	events := []stream.Event{
		{Kind: stream.KindTextDelta, TurnID: "turn-1", BlockID: "b1", Fragment: "Hello, world"},
		{Kind: stream.KindToolInputDelta, ToolCallID: "t1", Fragment: `{"path":"main.go"}`},
		{Kind: stream.KindStreamDone, TurnID: "turn-1", Payload: "end_turn"},
	}
	for _, ev := range events {
		if !w.Accept(ev) {
			t.Fatalf("accept failed for %+v", ev)
		}
	}

	r := NewIPCReader(&buf)
	for i, want := range events {
		got, err := r.Next()
		if err != nil {
			t.Fatalf("frame %d: %v", i, err)
		}
		if got != want {
			t.Errorf("frame %d: got %+v, want %+v", i, got, want)
		}
	}
	if _, err := r.Next(); err != io.EOF {
		t.Errorf("expected EOF after last frame, got %v", err)
	}
}

// failWriter errors after n successful writes.
type failWriter struct {
	n int
}

func (f *failWriter) Write(p []byte) (int, error) {
	if f.n <= 0 {
		return 0, errors.New("connection reset")
	}
	f.n--
	return len(p), nil
}

func TestIPCWriterLatchesOnError(t *testing.T) {
	w := NewIPCWriter(&failWriter{n: 0})

	if w.Accept(stream.Event{Kind: stream.KindTextDelta, BlockID: "b", Fragment: "x"}) {
		t.Fatal("accept over a dead connection should return false")
	}
	if w.Err() == nil {
		t.Error("writer should expose the connection error")
	}
	// Latched: no further writes attempted
	if w.Accept(stream.Event{Kind: stream.KindStreamDone}) {
		t.Error("accept after latch should return false")
	}
}

// failCloser fails every write and counts closes.
type failCloser struct {
	failWriter
	closes int
}

func (f *failCloser) Close() error {
	f.closes++
	return nil
}

func TestIPCWriterCloseReleasesConnOnFlushError(t *testing.T) {
	fc := &failCloser{}
	w := NewIPCWriter(fc)

	// Leave bytes in the buffer so Close's final flush hits the dead
	// connection.
	w.w.WriteString("pending")

	if err := w.Close(); err == nil {
		t.Error("close should surface the flush error")
	}
	if fc.closes != 1 {
		t.Errorf("connection must be closed despite the flush error, got %d closes", fc.closes)
	}
}

func TestIPCReaderRejectsGarbage(t *testing.T) {
	r := NewIPCReader(strings.NewReader("not json\n"))
	if _, err := r.Next(); err == nil {
		t.Error("garbage frame should fail to decode")
	}
}

func TestBridgeLifecycle(t *testing.T) {
	sink := NewChannelSink(16)
	b := NewBridge(sink, stream.WithFlushInterval(10*time.Millisecond))

	b.Write(stream.Event{Kind: stream.KindTextDelta, BlockID: "b1", Fragment: "Hel"})
	b.Write(stream.Event{Kind: stream.KindTextDelta, BlockID: "b1", Fragment: "lo"})
	b.Write(stream.Event{Kind: stream.KindStreamDone})
	b.Shutdown()

	if !b.Done() {
		t.Fatal("bridge should report done after shutdown")
	}
	if b.Write(stream.Event{Kind: stream.KindTextDelta, BlockID: "b1", Fragment: "late"}) {
		t.Error("write after shutdown should return false")
	}

	var got []stream.Event
	for ev := range sink.Events() {
		got = append(got, ev)
	}
	if len(got) != 2 {
		t.Fatalf("expected merged text + done, got %+v", got)
	}
	if got[0].Fragment != "Hello" || got[1].Kind != stream.KindStreamDone {
		t.Errorf("unexpected event sequence: %+v", got)
	}
}

func TestBridgeShutsDownOnSinkClosure(t *testing.T) {
	refusals := 0
	sink := SinkFunc(func(stream.Event) bool {
		refusals++
		return false
	})
	b := NewBridge(sink)

	// Buffered write succeeds; the done event's emit reveals closure.
	if !b.Write(stream.Event{Kind: stream.KindTextDelta, BlockID: "b1", Fragment: "x"}) {
		t.Fatal("buffered write should succeed")
	}
	if b.Write(stream.Event{Kind: stream.KindStreamDone}) {
		t.Error("write through a closed sink should return false")
	}
	if !b.Done() {
		t.Error("bridge must dispose once closure is observed")
	}
	if refusals == 0 {
		t.Error("sink should have been offered at least one event")
	}
}
