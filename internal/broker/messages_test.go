package broker

import "testing"

func TestHeaderEncodeDecodeRoundTrip(t *testing.T) {
	h := Header{Type: MsgCharLogin, ContentID: 1, CharacterID: 2, AccountID: 3}
	decoded, rest, ok := DecodeHeader(h.Encode())
	if !ok {
		t.Fatalf("DecodeHeader failed on a freshly encoded header")
	}
	if decoded != h {
		t.Fatalf("DecodeHeader = %+v, want %+v", decoded, h)
	}
	if len(rest) != 0 {
		t.Fatalf("rest = %d bytes, want 0 for a header-only message", len(rest))
	}
}

func TestDecodeHeaderRejectsShortInput(t *testing.T) {
	if _, _, ok := DecodeHeader(make([]byte, headerSize-1)); ok {
		t.Fatalf("DecodeHeader should reject a body shorter than the header")
	}
}

func TestMsgCharCreateAckDoesNotCollideWithCharZone(t *testing.T) {
	if MsgCharCreateAck == MsgCharZone {
		t.Fatalf("MsgCharCreateAck must not share a value with MsgCharZone")
	}
}

func TestInDispatchRange(t *testing.T) {
	cases := []struct {
		t    MessageType
		want bool
	}{
		{MsgGetAccountChars, true},
		{MsgCharReserveAck, true},
		{MsgCharUpdate, true},
		{MsgCharCreateAck, false}, // outside the claimed [low, high] range
		{MessageType(9999), false},
	}
	for _, c := range cases {
		if got := c.t.InDispatchRange(); got != c.want {
			t.Errorf("InDispatchRange(%d) = %v, want %v", c.t, got, c.want)
		}
	}
}

func TestCharacterEntryEncodeDecodeRoundTrip(t *testing.T) {
	e := CharacterEntry{
		ContentID: 10, Enabled: true, CharacterID: 20, Name: "bob", WorldID: 1,
		MainJob: 3, MainJobLevel: 1, Zone: 42, Race: 2, Face: 5, Hair: 6, Size: 1,
		Nation: 0, Head: 100, Body: 101, Hands: 102, Legs: 103, Feet: 104, Main: 200, Sub: 201,
	}
	got, ok := DecodeCharacterEntry(EncodeCharacterEntry(e))
	if !ok {
		t.Fatalf("DecodeCharacterEntry failed on a freshly encoded entry")
	}
	if got != e {
		t.Fatalf("DecodeCharacterEntry = %+v, want %+v", got, e)
	}
}

func TestDecodeCharacterEntryTrimsNameAtNUL(t *testing.T) {
	e := CharacterEntry{Name: "a"}
	encoded := EncodeCharacterEntry(e)
	got, ok := DecodeCharacterEntry(encoded)
	if !ok || got.Name != "a" {
		t.Fatalf("DecodeCharacterEntry.Name = %q, %v, want %q, true", got.Name, ok, "a")
	}
}

func TestDecodeCharacterEntryRejectsShortInput(t *testing.T) {
	if _, ok := DecodeCharacterEntry(make([]byte, characterEntrySize-1)); ok {
		t.Fatalf("DecodeCharacterEntry should reject a payload shorter than one entry")
	}
}
