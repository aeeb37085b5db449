package utils

import (
	"bufio"
	"fmt"
	"io"
)

// JSONFrameScanner reads a stream of concatenated JSON objects from an
// io.Reader and returns them one complete object at a time. This is the wire
// framing used by content-generation APIs that stream a JSON array of
// response objects over a chunked HTTP body: transport chunk boundaries can
// fall anywhere, including mid-object, so the scanner tracks brace depth and
// string state byte by byte instead of relying on line framing.
//
// Whitespace, commas, and the enclosing array brackets between top-level
// objects are skipped.
type JSONFrameScanner struct {
	reader *bufio.Reader
	frame  []byte
}

// NewJSONFrameScanner creates a JSONFrameScanner reading from the given reader.
func NewJSONFrameScanner(reader io.Reader) *JSONFrameScanner {
	return &JSONFrameScanner{
		reader: bufio.NewReader(reader),
	}
}

// Next returns the next complete top-level JSON object from the stream.
// Returns io.EOF when the stream ends cleanly between objects. If the stream
// ends in the middle of an object the truncation is reported as an error,
// since it means the transport dropped mid-frame.
func (frameScanner *JSONFrameScanner) Next() ([]byte, error) {
	frameScanner.frame = frameScanner.frame[:0]

	depth := 0
	inString := false
	escaped := false

	for {
		b, err := frameScanner.reader.ReadByte()
		if err == io.EOF {
			if depth > 0 {
				return nil, fmt.Errorf("stream ended mid-object after %d bytes", len(frameScanner.frame))
			}
			return nil, io.EOF
		}
		if err != nil {
			return nil, fmt.Errorf("JSON frame read error: %w", err)
		}

		// Between objects: skip array punctuation and whitespace until the
		// next object opens.
		if depth == 0 {
			switch b {
			case '{':
				depth = 1
				frameScanner.frame = append(frameScanner.frame, b)
			case '[', ']', ',', ' ', '\t', '\r', '\n':
				// skip
			default:
				return nil, fmt.Errorf("unexpected byte %q between JSON frames", b)
			}
			continue
		}

		frameScanner.frame = append(frameScanner.frame, b)
		if int64(len(frameScanner.frame)) > maxResponseBodySize {
			return nil, fmt.Errorf("JSON frame exceeds %d bytes", maxResponseBodySize)
		}

		if inString {
			switch {
			case escaped:
				escaped = false
			case b == '\\':
				escaped = true
			case b == '"':
				inString = false
			}
			continue
		}

		switch b {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				out := make([]byte, len(frameScanner.frame))
				copy(out, frameScanner.frame)
				return out, nil
			}
		}
	}
}
