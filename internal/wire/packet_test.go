package wire

import "testing"

func TestWriterReaderRoundTrip(t *testing.T) {
	w := NewWriter()
	w.WriteU8(7)
	w.WriteU16(1234)
	w.WriteU32(0xdeadbeef)
	w.WriteFixedString("alice", 16)
	w.WriteCString("hello")
	w.WriteZero(3)

	r := NewReader(w.Bytes())
	if got := r.ReadU8(); got != 7 {
		t.Fatalf("ReadU8 = %d, want 7", got)
	}
	if got := r.ReadU16(); got != 1234 {
		t.Fatalf("ReadU16 = %d, want 1234", got)
	}
	if got := r.ReadU32(); got != 0xdeadbeef {
		t.Fatalf("ReadU32 = %#x, want 0xdeadbeef", got)
	}
	name, ok := r.ReadFixedString(16)
	if !ok || name != "alice" {
		t.Fatalf("ReadFixedString = %q, %v, want %q, true", name, ok, "alice")
	}
	if got := r.ReadCString(); got != "hello" {
		t.Fatalf("ReadCString = %q, want %q", got, "hello")
	}
}

func TestReadFixedStringUnterminated(t *testing.T) {
	raw := []byte{'a', 'b', 'c', 'd'}
	r := NewReader(raw)
	if _, ok := r.ReadFixedString(4); ok {
		t.Fatalf("expected ReadFixedString to report unterminated when no NUL fits in the field")
	}
}

func TestReadFixedStringTrimsAtFirstNUL(t *testing.T) {
	raw := []byte{'b', 'o', 'b', 0, 'x', 'x', 'x', 'x'}
	r := NewReader(raw)
	s, ok := r.ReadFixedString(8)
	if !ok || s != "bob" {
		t.Fatalf("ReadFixedString = %q, %v, want %q, true", s, ok, "bob")
	}
}

func TestReaderPastEndReturnsZeroValues(t *testing.T) {
	r := NewReader([]byte{1})
	if got := r.ReadU32(); got != 0 {
		t.Fatalf("ReadU32 past end = %d, want 0", got)
	}
	if r.Remaining() != 1 {
		t.Fatalf("Remaining = %d, want 1 (short read must not advance offset)", r.Remaining())
	}
}

func TestWriteFixedStringTruncatesLongInput(t *testing.T) {
	w := NewWriter()
	w.WriteFixedString("this name is far too long for the field", 8)
	if w.Len() != 8 {
		t.Fatalf("Len = %d, want 8", w.Len())
	}
}

func TestSkipClampsToLength(t *testing.T) {
	r := NewReader([]byte{1, 2, 3})
	r.Skip(100)
	if r.Remaining() != 0 {
		t.Fatalf("Remaining after over-skip = %d, want 0", r.Remaining())
	}
}
