package view

import (
	"context"

	"github.com/ixfflogin/server/internal/session"
	"github.com/ixfflogin/server/internal/wire"
)

// handleGetCharacterList records the client's request; the actual send is
// deferred to sendCharacterList, fired either immediately (if the data
// handler has already signaled readiness) or once it does (spec §4.7
// "Character list" rendezvous).
func (c *conn) handleGetCharacterList() bool {
	c.requestedList = true
	if c.dataReady {
		c.sendCharacterList()
	}
	return true
}

// sendCharacterList purges half-created characters, loads the fresh list,
// and composes the fixed 16-slot payload (spec §4.7).
func (c *conn) sendCharacterList() {
	ctx := context.Background()

	if err := c.deps.Characters.CleanHalfCreated(ctx, c.sess.AccountID); err != nil {
		c.log.Warn("clean_half_created_characters failed")
	}

	contents, err := c.deps.Contents.ListByAccount(ctx, c.sess.AccountID)
	if err != nil {
		c.sendError(wire.ErrMapConnectFailed)
		return
	}
	rows, err := c.deps.Characters.ListByAccount(ctx, c.sess.AccountID)
	if err != nil {
		c.sendError(wire.ErrMapConnectFailed)
		return
	}
	byContent := make(map[uint32]int, len(rows))
	for i, r := range rows {
		byContent[r.ContentID] = i
	}

	slots := make([]session.CharacterSlot, 0, len(contents))
	w := wire.NewWriter()
	for i, ct := range contents {
		if i >= wire.CharacterSlotCount {
			break
		}
		slot := session.CharacterSlot{ContentID: ct.ContentID, Enabled: ct.Enabled}
		w.WriteU32(ct.ContentID)
		if ct.Enabled {
			w.WriteU8(1)
		} else {
			w.WriteU8(0)
		}

		if idx, ok := byContent[ct.ContentID]; ok {
			row := rows[idx]
			worldName := ""
			if world, ok := c.deps.Worlds.ByID(row.WorldID); ok {
				worldName = world.Name
			}
			slot.CharacterID = row.CharacterID
			slot.Name = row.Name
			slot.WorldID = row.WorldID
			slot.WorldName = worldName
			slot.Race = row.Race
			slot.MainJob = row.MainJob
			slot.MainJobLevel = row.MainJobLevel
			slot.Zone = row.Zone
			slot.Nation = row.Nation
			slot.Face, slot.Hair, slot.Size = row.Face, row.Hair, row.Size
			slot.Head, slot.Body, slot.Hands, slot.Legs, slot.Feet = row.Head, row.Body, row.Hands, row.Legs, row.Feet
			slot.Main, slot.Sub = row.Main, row.Sub

			w.WriteU32(row.CharacterID)
			w.WriteFixedString(row.Name, 16)
			w.WriteFixedString(worldName, 16)
			w.WriteU8(row.Race)
			w.WriteU8(row.MainJob)
			w.WriteU8(row.MainJobLevel)
			w.WriteU16(row.Zone)
			w.WriteU8(row.Nation)
			w.WriteU8(row.Face)
			w.WriteU8(row.Hair)
			w.WriteU8(row.Size)
			w.WriteU16(row.Head)
			w.WriteU16(row.Body)
			w.WriteU16(row.Hands)
			w.WriteU16(row.Legs)
			w.WriteU16(row.Feet)
			w.WriteU16(row.Main)
			w.WriteU16(row.Sub)
		} else {
			w.WriteU32(0)
			w.WriteFixedString(" ", 16)
			w.WriteFixedString("", 16)
			w.WriteZero(1 + 1 + 1 + 2 + 1 + 1 + 1 + 1 + 2 + 2 + 2 + 2 + 2 + 2 + 2)
		}
		slots = append(slots, slot)
	}
	// Slots past the account's content ids are sent zeroed (disabled).
	for i := len(slots); i < wire.CharacterSlotCount; i++ {
		w.WriteZero(4 + 1 + 4 + 16 + 16 + 1 + 1 + 1 + 2 + 1 + 1 + 1 + 1 + 2 + 2 + 2 + 2 + 2 + 2 + 2)
	}

	c.sess.SetCharacters(slots)
	wire.WriteFrame(c.nc, wire.PktCharacterList, w.Bytes())
}
