package jsonrpc

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// headerTerminator separates the header block from the message body
var headerTerminator = []byte("\r\n\r\n")

// Encode serializes a message as a Content-Length framed byte stream.
// The length is the byte count of the UTF-8 encoded body, not the
// character count.
func Encode(msg *Message) ([]byte, error) {
	body, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal message: %w", err)
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "Content-Length: %d\r\n\r\n", len(body))
	buf.Write(body)
	return buf.Bytes(), nil
}

// Framer incrementally decodes Content-Length framed messages from a
// byte stream. It tolerates arbitrary fragmentation: bytes are buffered
// across Feed calls until a complete header block and body are present.
// A header block without a valid Content-Length is discarded and the
// framer resynchronizes on the next terminator, so malformed input never
// kills the connection.
type Framer struct {
	buf bytes.Buffer
}

// Feed appends raw bytes from the transport to the framer's buffer
func (f *Framer) Feed(p []byte) {
	f.buf.Write(p)
}

// Next extracts the next complete message from the buffer. It returns
// (nil, nil) when no complete message is buffered yet. A complete but
// undecodable body is consumed and reported as an error; the framer
// remains usable for subsequent messages. Pipelined messages are
// drained one per call.
func (f *Framer) Next() (*Message, error) {
	for {
		data := f.buf.Bytes()

		idx := bytes.Index(data, headerTerminator)
		if idx < 0 {
			// Incomplete header block; wait for more bytes.
			return nil, nil
		}

		header := data[:idx]
		contentLength, ok := parseContentLength(header)
		if !ok {
			// Discard the bad header block and resynchronize on the
			// next terminator.
			f.buf.Next(idx + len(headerTerminator))
			continue
		}

		bodyStart := idx + len(headerTerminator)
		if len(data) < bodyStart+contentLength {
			// Body not fully delivered yet.
			return nil, nil
		}

		body := make([]byte, contentLength)
		copy(body, data[bodyStart:bodyStart+contentLength])
		f.buf.Next(bodyStart + contentLength)

		var msg Message
		if err := json.Unmarshal(body, &msg); err != nil {
			return nil, fmt.Errorf("failed to unmarshal message body: %w", err)
		}

		return &msg, nil
	}
}

// parseContentLength scans a header block for a Content-Length field.
// The field name matches case-insensitively.
func parseContentLength(header []byte) (int, bool) {
	for _, line := range strings.Split(string(header), "\r\n") {
		name, value, found := strings.Cut(line, ":")
		if !found {
			continue
		}
		if !strings.EqualFold(strings.TrimSpace(name), "Content-Length") {
			continue
		}

		n, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil || n < 0 {
			return 0, false
		}
		return n, true
	}

	return 0, false
}
