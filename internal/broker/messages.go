// messages.go defines the wire shape of broker (AMQP) payloads exchanged
// between the login tier and a world. Grounded on
// _examples/original_source/src/new-common/CommonMessages.h and
// MQConnection.h's MQ_MESSAGE_TYPES enum.
package broker

import "encoding/binary"

// MessageType is the u32 message type prefixing every broker payload
// (spec §6 "Message types (u32)").
type MessageType uint32

const (
	MsgGetAccountChars     MessageType = 1
	MsgCharUpdate          MessageType = 2
	MsgCharLogin           MessageType = 3
	MsgCharLoginAck        MessageType = 4
	MsgCharZone            MessageType = 5
	MsgCharGear            MessageType = 6
	MsgCharCreate          MessageType = 7
	MsgCharDelete          MessageType = 8
	MsgCharDeleteAck       MessageType = 9
	MsgCharReserve         MessageType = 10
	MsgCharReserveAck      MessageType = 11
	MsgLoginFullSync       MessageType = 12
	MsgUniversalAnnouncement MessageType = 13

	// MsgCharCreateAck is given a value distinct from MsgCharZone. The
	// original C++ header (new-common/MQConnection.h) declares
	// MQ_MESSAGE_CHAR_CREATE_ACK with the same literal value (5) as
	// MQ_MESSAGE_CHAR_ZONE — almost certainly an authoring mistake in the
	// upstream enum, since C++ silently allows duplicate enum values. A
	// Go router dispatching on this value cannot honor both meanings at
	// once, so this implementation assigns CHAR_CREATE_ACK the next
	// unused value after the documented range instead of reproducing the
	// collision. See DESIGN.md "Open Question decisions".
	MsgCharCreateAck MessageType = 14
)

// dispatchRangeLow/High bound the message types this login-side router
// claims; anything outside is passed to subsequent handlers (spec §4.8).
const (
	dispatchRangeLow  = MsgGetAccountChars
	dispatchRangeHigh = MsgCharReserveAck
)

// InDispatchRange reports whether t falls in [GET_ACCOUNT_CHARS, CHAR_RESERVE_ACK].
func (t MessageType) InDispatchRange() bool {
	return t >= dispatchRangeLow && t <= dispatchRangeHigh
}

// headerSize is the encoded size of Header: type, content_id, character_id,
// account_id, all u32 (CHAR_MQ_MESSAGE_HEADER).
const headerSize = 16

// Header is the CHAR_MQ_MESSAGE_HEADER prefix present on every message.
type Header struct {
	Type        MessageType
	ContentID   uint32
	CharacterID uint32
	AccountID   uint32
}

func DecodeHeader(b []byte) (Header, []byte, bool) {
	if len(b) < headerSize {
		return Header{}, nil, false
	}
	h := Header{
		Type:        MessageType(binary.LittleEndian.Uint32(b[0:4])),
		ContentID:   binary.LittleEndian.Uint32(b[4:8]),
		CharacterID: binary.LittleEndian.Uint32(b[8:12]),
		AccountID:   binary.LittleEndian.Uint32(b[12:16]),
	}
	return h, b[headerSize:], true
}

func (h Header) Encode() []byte {
	b := make([]byte, headerSize)
	binary.LittleEndian.PutUint32(b[0:4], uint32(h.Type))
	binary.LittleEndian.PutUint32(b[4:8], h.ContentID)
	binary.LittleEndian.PutUint32(b[8:12], h.CharacterID)
	binary.LittleEndian.PutUint32(b[12:16], h.AccountID)
	return b
}

// CharacterEntry mirrors CHARACTER_ENTRY: full details of a single
// character as exchanged in CHAR_UPDATE / CHAR_CREATE / CHAR_CREATE_ACK
// payloads.
type CharacterEntry struct {
	ContentID     uint32
	Enabled       bool
	CharacterID   uint32
	Name          string // ≤15 bytes + NUL, per spec §3
	WorldID       uint8
	MainJob       uint8
	MainJobLevel  uint8
	Zone          uint16
	Race          uint8
	Face          uint8
	Hair          uint8
	Size          uint8
	Nation        uint8
	Head, Body    uint16
	Hands, Legs   uint16
	Feet          uint16
	Main, Sub     uint16
}

const characterEntrySize = 4 + 1 + 4 + 16 + 1 + 1 + 1 + 2 + 1 + 1 + 1 + 1 + 1 + 2 + 2 + 2 + 2 + 2 + 2 + 2

func EncodeCharacterEntry(e CharacterEntry) []byte {
	b := make([]byte, 0, characterEntrySize)
	put32 := func(v uint32) { var t [4]byte; binary.LittleEndian.PutUint32(t[:], v); b = append(b, t[:]...) }
	put16 := func(v uint16) { var t [2]byte; binary.LittleEndian.PutUint16(t[:], v); b = append(b, t[:]...) }
	put8 := func(v uint8) { b = append(b, v) }

	put32(e.ContentID)
	if e.Enabled {
		put8(1)
	} else {
		put8(0)
	}
	put32(e.CharacterID)
	name := make([]byte, 16)
	copy(name, e.Name)
	b = append(b, name...)
	put8(e.WorldID)
	put8(e.MainJob)
	put8(e.MainJobLevel)
	put16(e.Zone)
	put8(e.Race)
	put8(e.Face)
	put8(e.Hair)
	put8(e.Size)
	put8(e.Nation)
	put16(e.Head)
	put16(e.Body)
	put16(e.Hands)
	put16(e.Legs)
	put16(e.Feet)
	put16(e.Main)
	put16(e.Sub)
	return b
}

func DecodeCharacterEntry(b []byte) (CharacterEntry, bool) {
	if len(b) < characterEntrySize {
		return CharacterEntry{}, false
	}
	r := byteReader{b: b}
	e := CharacterEntry{}
	e.ContentID = r.u32()
	e.Enabled = r.u8() != 0
	e.CharacterID = r.u32()
	name := r.bytes(16)
	for i, c := range name {
		if c == 0 {
			name = name[:i]
			break
		}
	}
	e.Name = string(name)
	e.WorldID = r.u8()
	e.MainJob = r.u8()
	e.MainJobLevel = r.u8()
	e.Zone = r.u16()
	e.Race = r.u8()
	e.Face = r.u8()
	e.Hair = r.u8()
	e.Size = r.u8()
	e.Nation = r.u8()
	e.Head = r.u16()
	e.Body = r.u16()
	e.Hands = r.u16()
	e.Legs = r.u16()
	e.Feet = r.u16()
	e.Main = r.u16()
	e.Sub = r.u16()
	return e, true
}

type byteReader struct {
	b   []byte
	off int
}

func (r *byteReader) u8() uint8 {
	v := r.b[r.off]
	r.off++
	return v
}
func (r *byteReader) u16() uint16 {
	v := binary.LittleEndian.Uint16(r.b[r.off:])
	r.off += 2
	return v
}
func (r *byteReader) u32() uint32 {
	v := binary.LittleEndian.Uint32(r.b[r.off:])
	r.off += 4
	return v
}
func (r *byteReader) bytes(n int) []byte {
	v := r.b[r.off : r.off+n]
	r.off += n
	return v
}
