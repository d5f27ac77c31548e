package broker

import "testing"

func TestEncodeLoginRequestLength(t *testing.T) {
	body := EncodeLoginRequest(Header{}, [16]byte{}, 0, 0, 0)
	want := headerSize + 16 + 12
	if len(body) != want {
		t.Fatalf("EncodeLoginRequest length = %d, want %d", len(body), want)
	}
}

func TestEncodeCreateRequestPadsName(t *testing.T) {
	body := EncodeCreateRequest(Header{}, "al")
	want := headerSize + 16
	if len(body) != want {
		t.Fatalf("EncodeCreateRequest length = %d, want %d", len(body), want)
	}
	nameField := body[headerSize:]
	if nameField[0] != 'a' || nameField[1] != 'l' || nameField[2] != 0 {
		t.Fatalf("EncodeCreateRequest name field = %v, want NUL-padded \"al\"", nameField)
	}
}

func TestEncodeConfirmCreateRequestLength(t *testing.T) {
	body := EncodeConfirmCreateRequest(Header{}, CharacterEntry{Name: "bob"})
	want := headerSize + characterEntrySize
	if len(body) != want {
		t.Fatalf("EncodeConfirmCreateRequest length = %d, want %d", len(body), want)
	}
	decodedHeader, rest, ok := DecodeHeader(body)
	if !ok || decodedHeader != (Header{}) {
		t.Fatalf("DecodeHeader on an encoded confirm-create request failed: %+v, %v", decodedHeader, ok)
	}
	entry, ok := DecodeCharacterEntry(rest)
	if !ok || entry.Name != "bob" {
		t.Fatalf("DecodeCharacterEntry on the confirm-create tail = %+v, %v", entry, ok)
	}
}
