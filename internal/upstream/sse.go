// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package upstream

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
)

// MaxEventSize is the maximum allowed size for a single SSE event (64KB).
const MaxEventSize = 64 * 1024

// SSEReader parses Server-Sent Events from a provider stream.
type SSEReader struct {
	r *bufio.Reader
}

// NewSSEReader creates an SSE reader over r.
func NewSSEReader(r io.Reader) *SSEReader {
	return &SSEReader{r: bufio.NewReader(r)}
}

// fieldValue strips "<name>:" and the single optional space the protocol
// allows after the colon. Any further whitespace belongs to the payload.
func fieldValue(line []byte, name string) []byte {
	return bytes.TrimPrefix(line[len(name)+1:], []byte(" "))
}

// ReadEvent returns the next event's type and data payload, with
// multi-line data fields joined by newlines. A partial event still
// buffered when the stream ends is returned before io.EOF.
func (s *SSEReader) ReadEvent() (string, []byte, error) {
	var (
		eventType string
		data      [][]byte
		size      int
	)

	for {
		line, err := s.r.ReadBytes('\n')
		if err != nil && err != io.EOF {
			return "", nil, err
		}

		size += len(line)
		if size > MaxEventSize {
			return "", nil, fmt.Errorf("sse event too large: %d bytes", size)
		}

		line = bytes.TrimRight(line, "\r\n")
		switch {
		case len(line) == 0:
			// Blank line ends the event; separators with no data are skipped.
			if len(data) > 0 {
				return eventType, bytes.Join(data, []byte("\n")), nil
			}
		case line[0] == ':':
			// comment
		case bytes.HasPrefix(line, []byte("event:")):
			eventType = string(fieldValue(line, "event"))
		case bytes.HasPrefix(line, []byte("data:")):
			data = append(data, fieldValue(line, "data"))
		}
		// id: and retry: have no meaning on this transport

		if err == io.EOF {
			if len(data) > 0 {
				return eventType, bytes.Join(data, []byte("\n")), nil
			}
			return "", nil, io.EOF
		}
	}
}
