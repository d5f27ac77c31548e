package view

import (
	"context"

	"github.com/ixfflogin/server/internal/broker"
	"github.com/ixfflogin/server/internal/session"
	"github.com/ixfflogin/server/internal/wire"
)

// handleDeleteCharacter verifies the character belongs to the session's
// account, sends header-only CHAR_DELETE, and arms the timeout (spec
// §4.7 "Delete").
func (c *conn) handleDeleteCharacter(payload []byte) bool {
	r := wire.NewReader(payload)
	contentID := r.ReadU32()
	characterID := r.ReadU32()

	slots, _ := c.sess.CharactersSnapshot()
	var matched *session.CharacterSlot
	for i := range slots {
		if slots[i].ContentID == contentID && slots[i].CharacterID == characterID {
			matched = &slots[i]
			break
		}
	}
	if matched == nil {
		c.sendError(wire.ErrMapConnectFailed)
		return true
	}

	header := broker.Header{Type: broker.MsgCharDelete, ContentID: contentID, CharacterID: characterID, AccountID: c.sess.AccountID}
	world, ok := c.deps.Worlds.ByID(matched.WorldID)
	if !ok || world.Send(header.Encode()) != nil {
		c.sendError(wire.ErrMapConnectFailed)
		return true
	}

	c.pendingDelete = &pendingDelete{contentID: contentID, characterID: characterID}
	c.sess.ArmOperationTimeout(nil, operationTimeout)
	return true
}

func (c *conn) onDeleteAck(reply session.MQReply) {
	pending := c.pendingDelete
	if pending == nil || reply.ContentID != pending.contentID {
		return
	}
	c.sess.DisarmOperationTimeout()
	c.pendingDelete = nil

	if reply.ResponseCode != 0 {
		c.sendError(wire.ErrMapConnectFailed)
		return
	}

	ctx := context.Background()
	if err := c.deps.Characters.Delete(ctx, pending.characterID); err != nil {
		c.log.Warn("delete character row failed")
		c.sendError(wire.ErrMapConnectFailed)
		return
	}

	c.sess.UpdateSlot(pending.contentID, func(slot *session.CharacterSlot) {
		*slot = session.CharacterSlot{ContentID: pending.contentID, Enabled: slot.Enabled, Name: " "}
	})

	c.sendDone()
}
