// ABOUTME: Line-framed event decoder for streaming chat responses
// ABOUTME: Turns a chunked response body into ordered content/done/error frames

package sse

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"
)

// dataPrefix marks a line that carries an event payload. Lines without it
// (blank separators, comments) are not frames and are skipped.
const dataPrefix = "data: "

// Frame is one decoded event from the stream. Exactly one field is
// meaningful per frame: Content carries an incremental text fragment,
// Done signals terminal success, Error signals a terminal in-band failure.
type Frame struct {
	Content string `json:"content,omitempty"`
	Done    bool   `json:"done,omitempty"`
	Error   string `json:"error,omitempty"`
}

// IsTerminal reports whether the frame ends the stream.
func (f Frame) IsTerminal() bool {
	return f.Done || f.Error != ""
}

// Decoder reads frames from a line-oriented event stream in arrival order.
// It is single-pass: once Next returns io.EOF or a read error the decoder
// is exhausted, and a fresh decoder over a fresh response body is required
// for the next request.
type Decoder struct {
	reader    *bufio.Reader
	logger    *slog.Logger
	exhausted bool
}

// NewDecoder creates a decoder over a raw response body.
func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{
		reader: bufio.NewReader(r),
		logger: slog.Default().With("component", "sse"),
	}
}

// Next returns the next frame from the stream. It returns io.EOF when the
// underlying stream completes, and the read error when the transport fails
// mid-stream. A trailing fragment without a newline at stream end cannot be
// a complete frame and is discarded.
func (d *Decoder) Next() (Frame, error) {
	if d.exhausted {
		return Frame{}, io.EOF
	}

	for {
		line, err := d.reader.ReadString('\n')
		if err != nil {
			d.exhausted = true
			if err == io.EOF {
				return Frame{}, io.EOF
			}
			return Frame{}, fmt.Errorf("reading stream: %w", err)
		}

		frame, ok := d.parseLine(strings.TrimRight(line, "\r\n"))
		if ok {
			return frame, nil
		}
	}
}

// parseLine decodes a single complete line. A malformed JSON payload on an
// otherwise well-formed data line is logged and skipped; it does not abort
// the stream.
func (d *Decoder) parseLine(line string) (Frame, bool) {
	if !strings.HasPrefix(line, dataPrefix) {
		return Frame{}, false
	}

	payload := line[len(dataPrefix):]
	var frame Frame
	if err := json.Unmarshal([]byte(payload), &frame); err != nil {
		d.logger.Warn("discarding malformed event payload", "payload", payload, "error", err)
		return Frame{}, false
	}

	return frame, true
}
