package view

import (
	"encoding/binary"
	"net"

	"github.com/ixfflogin/server/internal/broker"
	"github.com/ixfflogin/server/internal/session"
	"github.com/ixfflogin/server/internal/wire"
)

// handleLoginRequest recovers the full character id by scanning the
// session's cached character list, emits CHAR_LOGIN to the owning world,
// and arms the 10s operation timeout (spec §4.7 "Login request").
func (c *conn) handleLoginRequest(payload []byte) bool {
	r := wire.NewReader(payload)
	contentID := r.ReadU32()
	wireCharID := r.ReadU16()
	name, _ := r.ReadFixedString(16)

	key, installed := c.sess.KeyMaterial()
	if !installed {
		c.sendError(wire.ErrMapConnectFailed)
		return true
	}

	slots, _ := c.sess.CharactersSnapshot()
	var matched *session.CharacterSlot
	for i := range slots {
		s := &slots[i]
		if uint16(s.CharacterID) == wireCharID && s.ContentID == contentID && s.Name == name {
			matched = s
			break
		}
	}
	if matched == nil || !matched.Enabled {
		c.sendError(wire.ErrMapConnectFailed)
		return true
	}

	header := broker.Header{Type: broker.MsgCharLogin, ContentID: contentID, CharacterID: matched.CharacterID, AccountID: c.sess.AccountID}
	var initialKey [16]byte
	copy(initialKey[:], key[:16])

	body := broker.EncodeLoginRequest(header, initialKey, ipv4Of(c.sess.ClientIP), c.sess.Expansions, c.sess.Features)

	world, ok := c.deps.Worlds.ByID(matched.WorldID)
	if !ok || world.Send(body) != nil {
		c.sendError(wire.ErrMapConnectFailed)
		return true
	}

	c.sess.ArmOperationTimeout(&session.LoginRequest{ContentID: contentID, CharacterID: matched.CharacterID, Name: name}, operationTimeout)
	return true
}

// onLoginAck completes a pending login request once the world replies
// (spec §4.7 "On reply CHAR_LOGIN_ACK").
func (c *conn) onLoginAck(reply session.MQReply) {
	pending := c.sess.PendingLogin()
	if pending == nil {
		return
	}
	if reply.ContentID != pending.ContentID || reply.CharacterID != pending.CharacterID {
		c.sendError(wire.ErrMapConnectFailed)
		c.sess.DisarmOperationTimeout()
		return
	}

	slots, _ := c.sess.CharactersSnapshot()
	var row *session.CharacterSlot
	for i := range slots {
		if slots[i].ContentID == pending.ContentID {
			row = &slots[i]
			break
		}
	}
	if row == nil || row.WorldID != reply.WorldID {
		c.sendError(wire.ErrMapConnectFailed)
		c.sess.DisarmOperationTimeout()
		return
	}

	c.sess.DisarmOperationTimeout()

	if reply.ResponseCode != 0 {
		c.sendError(wire.ErrMapConnectFailed)
		return
	}
	if len(reply.Payload) < 16 {
		c.sendError(wire.ErrMapConnectFailed)
		return
	}
	zoneIP := binary.LittleEndian.Uint32(reply.Payload[4:8])
	zonePort := binary.LittleEndian.Uint16(reply.Payload[8:10])
	searchIP := binary.LittleEndian.Uint32(reply.Payload[10:14])
	searchPort := binary.LittleEndian.Uint16(reply.Payload[14:16])

	w := wire.NewWriter()
	w.WriteU32(pending.ContentID)
	w.WriteU32(pending.CharacterID)
	w.WriteFixedString(pending.Name, 16)
	w.WriteU32(wire.LoginResponseUnknownField)
	w.WriteU32(zoneIP)
	w.WriteU16(zonePort)
	w.WriteU32(0)
	w.WriteU32(searchIP)
	w.WriteU16(searchPort)
	w.WriteU32(0)
	wire.WriteFrame(c.nc, wire.PktLoginResponse, w.Bytes())

	c.finish()
	c.shouldClose = true
}

func ipv4Of(ip string) uint32 {
	addr := net.ParseIP(ip)
	if addr == nil {
		return 0
	}
	v4 := addr.To4()
	if v4 == nil {
		return 0
	}
	return binary.BigEndian.Uint32(v4)
}
