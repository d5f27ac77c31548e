package view

import (
	"context"

	"github.com/ixfflogin/server/internal/broker"
	"github.com/ixfflogin/server/internal/session"
	"github.com/ixfflogin/server/internal/store"
	"github.com/ixfflogin/server/internal/wire"
)

// minBasicJob/maxBasicJob bound the six basic jobs characters may start with (spec
// §4.7 "Confirm" clamp rule; §3 "must be one of six basic jobs").
const (
	minBasicJob uint8 = 1
	maxBasicJob uint8 = 6
)

// handleCreateCharacter is the reserve phase: map world name to id,
// enforce test-world privilege, compute a suggested character id, stamp
// the in-memory slot and send CHAR_RESERVE (spec §4.7 "Create (reserve)").
func (c *conn) handleCreateCharacter(payload []byte) bool {
	r := wire.NewReader(payload)
	contentID := r.ReadU32()
	name, _ := r.ReadFixedString(16)
	worldName, _ := r.ReadFixedString(16)

	worldID, ok := c.deps.Worlds.IDByName(worldName)
	if !ok {
		c.sendError(wire.ErrMapConnectFailed)
		c.cleanHalfCreated()
		return true
	}

	c.sess.Lock()
	hasTestAccess := c.sess.Privileges&wire.PrivHasTestAccess != 0
	c.sess.Unlock()
	if c.deps.Worlds.IsTest(worldID) && !hasTestAccess {
		c.sendError(wire.ErrCreateDenied)
		c.cleanHalfCreated()
		return true
	}

	ctx := context.Background()
	maxLow, err := c.deps.Characters.MaxLowIDInWorld(ctx, worldID)
	if err != nil {
		c.sendError(wire.ErrMapConnectFailed)
		c.cleanHalfCreated()
		return true
	}
	suggestedID := (worldID << 16) | (maxLow + 1)

	c.sess.UpdateSlot(contentID, func(slot *session.CharacterSlot) {
		*slot = session.CharacterSlot{ContentID: contentID, Enabled: true, WorldID: worldID, CharacterID: suggestedID}
	})

	header := broker.Header{Type: broker.MsgCharReserve, ContentID: contentID, CharacterID: suggestedID, AccountID: c.sess.AccountID}
	body := broker.EncodeCreateRequest(header, name)

	world, ok := c.deps.Worlds.ByID(worldID)
	if !ok || world.Send(body) != nil {
		c.sendError(wire.ErrMapConnectFailed)
		c.cleanHalfCreated()
		return true
	}

	c.pendingReserve = &pendingReserve{contentID: contentID, suggestedID: suggestedID, worldID: worldID, name: name}
	c.sess.ArmOperationTimeout(nil, operationTimeout)
	return true
}

func (c *conn) onReserveAck(reply session.MQReply) {
	pending := c.pendingReserve
	if pending == nil || reply.ContentID != pending.contentID {
		return
	}
	c.sess.DisarmOperationTimeout()
	c.pendingReserve = nil

	if reply.ResponseCode != 0 {
		c.sendError(wire.ErrMapConnectFailed)
		c.cleanHalfCreated()
		return
	}
	c.sendDone()
}

// handleCreateCharConfirm is the commit phase: validate the slot is
// reserved-but-not-committed, clamp the main job to the basic jobs, force
// level 1 and zone 0, and send CHAR_CREATE (spec §4.7 "Confirm").
func (c *conn) handleCreateCharConfirm(payload []byte) bool {
	r := wire.NewReader(payload)
	contentID := r.ReadU32()

	entry, ok := broker.DecodeCharacterEntry(payload[4:])
	if !ok {
		c.sendError(wire.ErrMapConnectFailed)
		return true
	}

	slots, _ := c.sess.CharactersSnapshot()
	var slot *session.CharacterSlot
	for i := range slots {
		if slots[i].ContentID == contentID {
			slot = &slots[i]
			break
		}
	}
	if slot == nil || !slot.Enabled || slot.Nation != 0 {
		c.sendError(wire.ErrMapConnectFailed)
		c.cleanHalfCreated()
		return true
	}

	if entry.MainJob < minBasicJob || entry.MainJob > maxBasicJob {
		entry.MainJob = minBasicJob
	}
	entry.MainJobLevel = 1
	entry.Zone = 0
	entry.ContentID = contentID
	entry.CharacterID = slot.CharacterID
	entry.WorldID = uint8(slot.WorldID)
	entry.Enabled = true

	header := broker.Header{Type: broker.MsgCharCreate, ContentID: contentID, CharacterID: slot.CharacterID, AccountID: c.sess.AccountID}
	body := broker.EncodeConfirmCreateRequest(header, entry)

	world, ok := c.deps.Worlds.ByID(slot.WorldID)
	if !ok || world.Send(body) != nil {
		c.sendError(wire.ErrMapConnectFailed)
		c.cleanHalfCreated()
		return true
	}

	c.pendingConfirm = &pendingConfirm{contentID: contentID, worldID: slot.WorldID, entry: entry}
	c.sess.ArmOperationTimeout(nil, operationTimeout)
	return true
}

func (c *conn) onCreateAck(reply session.MQReply) {
	pending := c.pendingConfirm
	if pending == nil || reply.ContentID != pending.contentID {
		return
	}
	c.sess.DisarmOperationTimeout()
	c.pendingConfirm = nil

	if reply.ResponseCode != 0 {
		c.sendError(wire.ErrMapConnectFailed)
		c.cleanHalfCreated()
		return
	}

	entry := pending.entry
	if reply.CharacterID != 0 {
		entry.CharacterID = reply.CharacterID
	}

	ctx := context.Background()
	row := store.CharacterRow{
		CharacterID: entry.CharacterID, ContentID: entry.ContentID, WorldID: pending.worldID,
		Name: entry.Name, Nation: entry.Nation, Race: entry.Race,
		Face: entry.Face, Hair: entry.Hair, Size: entry.Size,
		Head: entry.Head, Body: entry.Body, Hands: entry.Hands, Legs: entry.Legs, Feet: entry.Feet,
		Main: entry.Main, Sub: entry.Sub, MainJob: entry.MainJob, MainJobLevel: entry.MainJobLevel, Zone: entry.Zone,
	}
	if err := c.deps.Characters.Insert(ctx, row); err != nil {
		c.log.Warn("commit created character failed")
		c.sendError(wire.ErrMapConnectFailed)
		c.cleanHalfCreated()
		return
	}

	c.sess.UpdateSlot(entry.ContentID, func(slot *session.CharacterSlot) {
		slot.CharacterID = row.CharacterID
		slot.Name = row.Name
		slot.Nation = row.Nation
		slot.Zone = row.Zone
	})

	c.sendDone()
}

func (c *conn) cleanHalfCreated() {
	c.deps.Characters.CleanHalfCreated(context.Background(), c.sess.AccountID)
}
