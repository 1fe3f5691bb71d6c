package codec

import (
	"bytes"
	"fmt"
)

// frameTerminator ends every protocol line.
const frameTerminator = "\r\n"

// RawFrame is one protocol line split into its type character and payload.
// By convention the terminator is re-appended to the payload; decoders strip
// it again before interpreting the fields.
type RawFrame struct {
	Type    byte
	Payload string
}

// String returns a debug representation of the frame.
func (f RawFrame) String() string {
	return fmt.Sprintf("RawFrame{type=%c, payload=%d bytes}", f.Type, len(f.Payload))
}

// FrameReader reassembles the cube's TCP byte stream into complete frames.
// TCP reads may end mid-line or carry several lines at once; the reader
// buffers incomplete tails and never emits a partial frame, so short reads
// cannot produce corrupt decodes.
//
// A FrameReader must not be used from more than one goroutine.
type FrameReader struct {
	buf []byte
}

// Feed appends data to the internal buffer and returns every complete frame
// now available, in arrival order. A call that ends mid-frame returns only
// the frames completed so far; the tail is prepended to the next call.
func (r *FrameReader) Feed(data []byte) []RawFrame {
	r.buf = append(r.buf, data...)

	var frames []RawFrame
	for {
		idx := bytes.Index(r.buf, []byte(frameTerminator))
		if idx < 0 {
			break
		}
		line := r.buf[:idx]
		r.buf = r.buf[idx+len(frameTerminator):]

		if len(line) == 0 {
			continue
		}

		frame := RawFrame{Type: line[0]}
		// Everything after the "<type>:" prefix, with the terminator
		// re-appended for decoder compatibility.
		if len(line) > 2 {
			frame.Payload = string(line[2:]) + frameTerminator
		} else {
			frame.Payload = frameTerminator
		}
		frames = append(frames, frame)
	}

	// Drop the backing array when drained so a long-lived connection does
	// not pin old read buffers.
	if len(r.buf) == 0 {
		r.buf = nil
	}

	return frames
}

// Pending returns the number of buffered bytes that do not yet form a
// complete frame.
func (r *FrameReader) Pending() int {
	return len(r.buf)
}

// Reset discards any buffered partial frame. Call it after a reconnect, when
// buffered bytes from the previous connection would corrupt the next frame.
func (r *FrameReader) Reset() {
	r.buf = nil
}

// stripTerminator removes the conventionally re-appended terminator from a
// frame payload before field interpretation.
func stripTerminator(payload string) string {
	if len(payload) >= len(frameTerminator) && payload[len(payload)-2:] == frameTerminator {
		return payload[:len(payload)-2]
	}
	return payload
}
