// Package wire implements the view-port frame format: a fixed magic,
// length-prefixed frame carrying a type and an MD5 integrity digest.
// Grounded on the teacher's ReadFrame/WriteFrame shape (internal/net/codec.go)
// and on the original implementation's FFXILoginPacket header layout.
package wire

import (
	"crypto/md5"
	"encoding/binary"
	"fmt"
	"io"
)

const (
	HeaderSize  = 28
	MaxFrameLen = 1 << 20 // 1 MiB, including the header

	digestOffset = 8 // offset of the 16-byte md5 field within the header
)

var magic = [4]byte{'I', 'X', 'F', 'F'}

// Frame is one decoded view-port packet.
type Frame struct {
	Type    uint32
	Payload []byte
}

// ReadFrame reads one frame from r, validating magic, length bound and the
// MD5 digest. A zero digest is accepted on receive per spec — some client
// builds are observed to send an all-zero digest instead of computing one.
func ReadFrame(r io.Reader) (*Frame, error) {
	var hdr [HeaderSize]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return nil, fmt.Errorf("read frame header: %w", err)
	}

	length := binary.LittleEndian.Uint32(hdr[0:4])
	if length > MaxFrameLen {
		return nil, fmt.Errorf("frame too large: %d bytes", length)
	}
	if length < HeaderSize {
		return nil, fmt.Errorf("frame shorter than header: %d bytes", length)
	}
	var gotMagic [4]byte
	copy(gotMagic[:], hdr[4:8])
	if gotMagic != magic {
		return nil, fmt.Errorf("bad magic %q", gotMagic)
	}

	pktType := binary.LittleEndian.Uint32(hdr[24:28])

	payload := make([]byte, length-HeaderSize)
	if len(payload) > 0 {
		if _, err := io.ReadFull(r, payload); err != nil {
			return nil, fmt.Errorf("read frame payload (%d bytes): %w", len(payload), err)
		}
	}

	digest := hdr[digestOffset : digestOffset+16]
	if !isZero(digest) {
		full := make([]byte, length)
		copy(full, hdr[:])
		copy(full[HeaderSize:], payload)
		zeroDigest(full)
		sum := md5.Sum(full)
		if string(sum[:]) != string(digest) {
			return nil, fmt.Errorf("md5 digest mismatch")
		}
	}

	return &Frame{Type: pktType, Payload: payload}, nil
}

// WriteFrame writes one frame to w, always populating the MD5 digest.
func WriteFrame(w io.Writer, pktType uint32, payload []byte) error {
	length := HeaderSize + len(payload)
	if length > MaxFrameLen {
		return fmt.Errorf("frame too large: %d bytes", length)
	}
	buf := make([]byte, length)
	binary.LittleEndian.PutUint32(buf[0:4], uint32(length))
	copy(buf[4:8], magic[:])
	binary.LittleEndian.PutUint32(buf[24:28], pktType)
	copy(buf[HeaderSize:], payload)

	sum := md5.Sum(buf)
	copy(buf[digestOffset:digestOffset+16], sum[:])

	_, err := w.Write(buf)
	return err
}

func isZero(b []byte) bool {
	for _, v := range b {
		if v != 0 {
			return false
		}
	}
	return true
}

func zeroDigest(buf []byte) {
	for i := digestOffset; i < digestOffset+16; i++ {
		buf[i] = 0
	}
}
