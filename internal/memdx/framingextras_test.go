package memdx

import (
	"bytes"
	"testing"
)

func TestEncodeDecodeFramesRoundTrip(t *testing.T) {
	frames := []Frame{
		{Code: FrameCodeReqDurability, Payload: []byte{0x01}},
		{Code: FrameCodeReqOnBehalfOf, Payload: []byte("alice")},
		{Code: FrameCodeReqPreserveTTL, Payload: nil},
	}

	raw := EncodeFrames(frames)
	got, err := DecodeFrames(raw)
	if err != nil {
		t.Fatalf("DecodeFrames: %v", err)
	}
	if len(got) != len(frames) {
		t.Fatalf("decoded %d frames, want %d", len(got), len(frames))
	}
	for i := range frames {
		if got[i].Code != frames[i].Code {
			t.Errorf("frame %d code = %v, want %v", i, got[i].Code, frames[i].Code)
		}
		if !bytes.Equal(got[i].Payload, frames[i].Payload) {
			t.Errorf("frame %d payload = %v, want %v", i, got[i].Payload, frames[i].Payload)
		}
	}
}

// A length nibble of 0xF followed by a single escape byte of 0xFF encodes a
// payload length of 270 (15 + 255). This is the boundary case a chained,
// multi-byte escape scheme would compute differently.
func TestEncodeDecodeFramesLengthEscapeBoundary(t *testing.T) {
	payload := bytes.Repeat([]byte{0xAB}, 270)
	frame := Frame{Code: FrameCodeReqOnBehalfOf, Payload: payload}

	raw := EncodeFrames([]Frame{frame})

	lead := raw[0]
	if lenNibble := lead & 0x0F; lenNibble != 0xF {
		t.Fatalf("length nibble = %#x, want 0xF", lenNibble)
	}
	// code 0x04 fits in a nibble, so no code-escape byte precedes the
	// length-escape byte.
	if raw[1] != 0xFF {
		t.Fatalf("length escape byte = %#x, want 0xff", raw[1])
	}

	frames, err := DecodeFrames(raw)
	if err != nil {
		t.Fatalf("DecodeFrames: %v", err)
	}
	if len(frames) != 1 {
		t.Fatalf("decoded %d frames, want 1", len(frames))
	}
	if len(frames[0].Payload) != 270 {
		t.Fatalf("decoded payload length = %d, want 270", len(frames[0].Payload))
	}
	if !bytes.Equal(frames[0].Payload, payload) {
		t.Error("decoded payload does not match original")
	}
}

// A code nibble of 0xF followed by a single escape byte covers codes above
// 14, exercising the same single-byte escape rule the length nibble uses.
func TestEncodeDecodeFramesCodeEscape(t *testing.T) {
	frame := Frame{Code: FrameCode(20), Payload: []byte{0x01, 0x02}}

	raw := EncodeFrames([]Frame{frame})

	lead := raw[0]
	if codeNibble := lead >> 4; codeNibble != 0xF {
		t.Fatalf("code nibble = %#x, want 0xF", codeNibble)
	}
	if raw[1] != byte(20-15) {
		t.Fatalf("code escape byte = %#x, want %#x", raw[1], byte(20-15))
	}

	frames, err := DecodeFrames(raw)
	if err != nil {
		t.Fatalf("DecodeFrames: %v", err)
	}
	if frames[0].Code != FrameCode(20) {
		t.Errorf("decoded code = %v, want 20", frames[0].Code)
	}
}

func TestDecodeFramesTruncated(t *testing.T) {
	// Length nibble says 0xF (escape) but the escape byte is missing.
	if _, err := DecodeFrames([]byte{0x0F}); err == nil {
		t.Error("expected error decoding truncated length escape")
	}
	// Declared payload length overruns the remaining buffer.
	if _, err := DecodeFrames([]byte{0x02, 0x01}); err == nil {
		t.Error("expected error decoding payload overrun")
	}
}

func TestDecodeServerDuration(t *testing.T) {
	got, err := DecodeServerDuration([]byte{0x01, 0x00})
	if err != nil {
		t.Fatalf("DecodeServerDuration: %v", err)
	}
	if got == 0 {
		t.Error("expected a non-zero decoded duration")
	}

	if _, err := DecodeServerDuration([]byte{0x01}); err == nil {
		t.Error("expected error for wrong-length payload")
	}
}
