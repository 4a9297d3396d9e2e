// Copyright 2025 Kadir Pekel
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package sse decodes server-sent event streams. The decoder is a lazy
// single-pass producer: records are yielded strictly in stream order.
package sse

import (
	"bufio"
	"bytes"
	"io"
	"strings"
)

// doneSentinel terminates a stream cleanly when it appears as a full
// record payload.
const doneSentinel = "[DONE]"

// maxLineSize bounds a single SSE line; generate responses can carry
// base64 media parts.
const maxLineSize = 16 * 1024 * 1024

// Event is one decoded SSE record.
type Event struct {
	Type string
	Data []byte
}

// Decoder reads events off an SSE byte stream. It is not safe for
// concurrent use.
type Decoder struct {
	scanner *bufio.Scanner
	done    bool
}

// NewDecoder wraps r. The caller retains ownership of r and closes it.
func NewDecoder(r io.Reader) *Decoder {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	return &Decoder{scanner: scanner}
}

// Next returns the next event. It returns io.EOF on a clean end of
// stream, which includes the [DONE] sentinel record.
func (d *Decoder) Next() (Event, error) {
	if d.done {
		return Event{}, io.EOF
	}

	var (
		eventType string
		data      bytes.Buffer
		sawData   bool
	)

	flush := func() (Event, bool) {
		if !sawData {
			return Event{}, false
		}
		if data.String() == doneSentinel {
			d.done = true
			return Event{}, false
		}
		return Event{Type: eventType, Data: data.Bytes()}, true
	}

	for d.scanner.Scan() {
		line := d.scanner.Text()

		if line == "" {
			// Record separator.
			if ev, ok := flush(); ok {
				return ev, nil
			}
			if d.done {
				return Event{}, io.EOF
			}
			eventType = ""
			data.Reset()
			sawData = false
			continue
		}

		switch {
		case strings.HasPrefix(line, "data:"):
			payload := strings.TrimPrefix(line, "data:")
			payload = strings.TrimPrefix(payload, " ")
			if sawData {
				data.WriteByte('\n')
			}
			data.WriteString(payload)
			sawData = true
		case strings.HasPrefix(line, "event:"):
			eventType = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
		default:
			// Comments and unknown fields are ignored.
		}
	}

	if err := d.scanner.Err(); err != nil {
		return Event{}, err
	}

	// Stream ended without a trailing separator; emit what was buffered.
	d.done = true
	if ev, ok := flush(); ok {
		return ev, nil
	}
	return Event{}, io.EOF
}
