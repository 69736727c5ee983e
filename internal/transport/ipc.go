// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package transport

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"github.com/jeranaias/rigstream/internal/stream"
)

// =============================================================================
// IPC WRITER
// =============================================================================

// MaxFrameSize is the largest encoded frame the writer will send (64KB),
// matching the read limit on the UI side.
const MaxFrameSize = 64 * 1024

// IPCWriter forwards coalesced events to the UI process as
// newline-delimited JSON frames over any io.Writer, typically a local
// socket or pipe. Each Accept encodes and writes one frame synchronously.
// The first write error latches the sink closed; every later Accept
// returns false without touching the writer.
type IPCWriter struct {
	mu  sync.Mutex
	w   *bufio.Writer
	c   io.Closer
	err error
}

// NewIPCWriter creates an IPC writer over w. If w is also an io.Closer
// (a net.Conn, an os.File), Close closes it.
func NewIPCWriter(w io.Writer) *IPCWriter {
	ipc := &IPCWriter{
		w: bufio.NewWriter(w),
	}
	if c, ok := w.(io.Closer); ok {
		ipc.c = c
	}
	return ipc
}

// Accept encodes the event as one JSON line and flushes it. Returns false
// once the connection has failed or the writer is closed.
func (ipc *IPCWriter) Accept(ev stream.Event) bool {
	ipc.mu.Lock()
	defer ipc.mu.Unlock()

	if ipc.err != nil {
		return false
	}

	frame, err := json.Marshal(ev)
	if err != nil {
		// Event structs always marshal; treat failure as a dead sink
		// rather than dropping one event from an otherwise live stream.
		ipc.err = fmt.Errorf("encode frame: %w", err)
		return false
	}
	if len(frame) > MaxFrameSize {
		ipc.err = fmt.Errorf("frame too large: %d bytes", len(frame))
		return false
	}

	if _, err := ipc.w.Write(frame); err != nil {
		ipc.err = err
		return false
	}
	if err := ipc.w.WriteByte('\n'); err != nil {
		ipc.err = err
		return false
	}
	if err := ipc.w.Flush(); err != nil {
		ipc.err = err
		return false
	}
	return true
}

// Close flushes any buffered frame and closes the underlying connection.
func (ipc *IPCWriter) Close() error {
	ipc.mu.Lock()
	defer ipc.mu.Unlock()

	var first error
	if ipc.err == nil {
		ipc.err = io.ErrClosedPipe
		first = ipc.w.Flush()
	}
	// The connection is released even when the final flush failed.
	if ipc.c != nil {
		if err := ipc.c.Close(); first == nil {
			first = err
		}
	}
	return first
}

// Err returns the error that closed the writer, if any.
func (ipc *IPCWriter) Err() error {
	ipc.mu.Lock()
	defer ipc.mu.Unlock()
	if ipc.err == io.ErrClosedPipe {
		return nil
	}
	return ipc.err
}

// =============================================================================
// IPC READER
// =============================================================================

// IPCReader decodes newline-delimited JSON frames produced by IPCWriter.
// The UI process uses it to consume the coalesced stream.
type IPCReader struct {
	s *bufio.Scanner
}

// NewIPCReader creates a frame reader over r.
func NewIPCReader(r io.Reader) *IPCReader {
	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 0, 4096), MaxFrameSize)
	return &IPCReader{s: s}
}

// Next reads the next event frame. Returns io.EOF at end of stream.
func (r *IPCReader) Next() (stream.Event, error) {
	if !r.s.Scan() {
		if err := r.s.Err(); err != nil {
			return stream.Event{}, err
		}
		return stream.Event{}, io.EOF
	}
	var ev stream.Event
	if err := json.Unmarshal(r.s.Bytes(), &ev); err != nil {
		return stream.Event{}, fmt.Errorf("decode frame: %w", err)
	}
	return ev, nil
}
