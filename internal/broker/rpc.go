// rpc.go encodes the broker payload shapes login sends to a world beyond
// the bare header: MESSAGE_LOGIN_REQUEST, MESSAGE_CREATE_REQUEST and
// MESSAGE_CONFIRM_CREATE_REQUEST. Replies travel back through the
// generic Header+response_code(+payload) shape that charrouter.Router
// already decodes into session.MQReply, so there is no paired decoder
// here. Grounded on
// _examples/original_source/src/new-common/CommonMessages.h.
package broker

import "encoding/binary"

// EncodeLoginRequest builds MESSAGE_LOGIN_REQUEST: header, a 16-byte
// initial key (the first 16 bytes of the session's 24-byte key), the
// client's IP as a packed u32, and expansions/features bitmasks.
func EncodeLoginRequest(header Header, initialKey [16]byte, ipv4 uint32, expansions, features uint32) []byte {
	b := header.Encode()
	b = append(b, initialKey[:]...)
	var tail [12]byte
	binary.LittleEndian.PutUint32(tail[0:4], ipv4)
	binary.LittleEndian.PutUint32(tail[4:8], expansions)
	binary.LittleEndian.PutUint32(tail[8:12], features)
	return append(b, tail[:]...)
}

// EncodeCreateRequest builds MESSAGE_CREATE_REQUEST: header plus a
// 16-byte fixed character name, for the reserve phase of creation.
func EncodeCreateRequest(header Header, name string) []byte {
	b := header.Encode()
	nameBuf := make([]byte, 16)
	copy(nameBuf, name)
	return append(b, nameBuf...)
}

// EncodeConfirmCreateRequest builds MESSAGE_CONFIRM_CREATE_REQUEST: header
// plus a full CHARACTER_ENTRY, for the commit phase of creation.
func EncodeConfirmCreateRequest(header Header, entry CharacterEntry) []byte {
	b := header.Encode()
	return append(b, EncodeCharacterEntry(entry)...)
}
