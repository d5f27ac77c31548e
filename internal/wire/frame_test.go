package wire

import (
	"bytes"
	"encoding/binary"
	"testing"
)

func TestWriteFrameReadFrameRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	payload := []byte("hello world")
	if err := WriteFrame(&buf, 42, payload); err != nil {
		t.Fatalf("WriteFrame: %v", err)
	}
	f, err := ReadFrame(&buf)
	if err != nil {
		t.Fatalf("ReadFrame: %v", err)
	}
	if f.Type != 42 || string(f.Payload) != "hello world" {
		t.Fatalf("ReadFrame = %+v, want type 42 and payload %q", f, "hello world")
	}
}

func TestReadFrameAcceptsZeroDigest(t *testing.T) {
	var buf bytes.Buffer
	WriteFrame(&buf, 1, []byte("payload"))
	raw := buf.Bytes()
	for i := digestOffset; i < digestOffset+16; i++ {
		raw[i] = 0
	}
	if _, err := ReadFrame(bytes.NewReader(raw)); err != nil {
		t.Fatalf("ReadFrame should accept an all-zero digest, got: %v", err)
	}
}

func TestReadFrameRejectsCorruptDigest(t *testing.T) {
	var buf bytes.Buffer
	WriteFrame(&buf, 1, []byte("payload"))
	raw := buf.Bytes()
	raw[digestOffset] ^= 0xFF
	if _, err := ReadFrame(bytes.NewReader(raw)); err == nil {
		t.Fatalf("ReadFrame should reject a corrupted non-zero digest")
	}
}

func TestReadFrameRejectsBadMagic(t *testing.T) {
	var buf bytes.Buffer
	WriteFrame(&buf, 1, nil)
	raw := buf.Bytes()
	raw[4] = 'X'
	if _, err := ReadFrame(bytes.NewReader(raw)); err == nil {
		t.Fatalf("ReadFrame should reject a bad magic")
	}
}

func TestReadFrameRejectsOversizedLength(t *testing.T) {
	var hdr [HeaderSize]byte
	binary.LittleEndian.PutUint32(hdr[0:4], MaxFrameLen+1)
	copy(hdr[4:8], magic[:])
	if _, err := ReadFrame(bytes.NewReader(hdr[:])); err == nil {
		t.Fatalf("ReadFrame should reject a length over MaxFrameLen")
	}
}

func TestReadFrameRejectsLengthShorterThanHeader(t *testing.T) {
	var hdr [HeaderSize]byte
	binary.LittleEndian.PutUint32(hdr[0:4], HeaderSize-1)
	copy(hdr[4:8], magic[:])
	if _, err := ReadFrame(bytes.NewReader(hdr[:])); err == nil {
		t.Fatalf("ReadFrame should reject a length shorter than the header itself")
	}
}

func TestWriteFrameRejectsOversizedPayload(t *testing.T) {
	var buf bytes.Buffer
	err := WriteFrame(&buf, 1, make([]byte, MaxFrameLen))
	if err == nil {
		t.Fatalf("WriteFrame should reject a payload that pushes the frame over MaxFrameLen")
	}
}
