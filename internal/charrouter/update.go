// update.go implements the character update/query routines of spec §4.9,
// the login-side mirror of a world's authoritative character data.
// Grounded on original_source/src/new-login/CharMessageHnd.cpp's
// UpdateCharacter/QueryCharacter.
package charrouter

import (
	"context"
	"fmt"

	"github.com/ixfflogin/server/internal/broker"
	"github.com/ixfflogin/server/internal/store"
)

// UpdateCharacter looks up by (character_id, world_id); if present, the
// entry's content id, world id and name must all match the stored row —
// updating a different content id or renaming is rejected. If absent, the
// content id must be free and the name must be unused within the world.
func UpdateCharacter(ctx context.Context, repo *store.CharacterRepo, entry broker.CharacterEntry) error {
	existing, err := repo.LoadByCharacterID(ctx, entry.CharacterID)
	if err != nil {
		return fmt.Errorf("load character: %w", err)
	}

	row := toRow(entry)

	if existing != nil {
		if existing.ContentID != entry.ContentID || existing.WorldID != uint32(entry.WorldID) || existing.Name != entry.Name {
			return fmt.Errorf("update_character: identity mismatch for character %d", entry.CharacterID)
		}
		return repo.Update(ctx, row)
	}

	byContent, err := repo.LoadByContentID(ctx, entry.ContentID)
	if err != nil {
		return fmt.Errorf("load by content id: %w", err)
	}
	if byContent != nil {
		return fmt.Errorf("update_character: content id %d already owns a character", entry.ContentID)
	}

	taken, err := repo.NameTakenInWorld(ctx, uint32(entry.WorldID), entry.Name)
	if err != nil {
		return fmt.Errorf("check name taken: %w", err)
	}
	if taken {
		return fmt.Errorf("update_character: name %q already taken in world %d", entry.Name, entry.WorldID)
	}

	return repo.Insert(ctx, row)
}

// QueryCharacterByContentID loads a full entry by content id.
func QueryCharacterByContentID(ctx context.Context, repo *store.CharacterRepo, contentID uint32) (*broker.CharacterEntry, error) {
	row, err := repo.LoadByContentID(ctx, contentID)
	if err != nil || row == nil {
		return nil, err
	}
	e := fromRow(*row)
	return &e, nil
}

// QueryCharacterByWorld loads a full entry by (character_id, world_id).
func QueryCharacterByWorld(ctx context.Context, repo *store.CharacterRepo, characterID, worldID uint32) (*broker.CharacterEntry, error) {
	row, err := repo.LoadByCharacterID(ctx, characterID)
	if err != nil || row == nil {
		return nil, err
	}
	if row.WorldID != worldID {
		return nil, nil
	}
	e := fromRow(*row)
	return &e, nil
}

func toRow(e broker.CharacterEntry) store.CharacterRow {
	return store.CharacterRow{
		CharacterID:  e.CharacterID,
		ContentID:    e.ContentID,
		WorldID:      uint32(e.WorldID),
		Name:         e.Name,
		Nation:       e.Nation,
		Race:         e.Race,
		Face:         e.Face,
		Hair:         e.Hair,
		Size:         e.Size,
		Head:         e.Head,
		Body:         e.Body,
		Hands:        e.Hands,
		Legs:         e.Legs,
		Feet:         e.Feet,
		Main:         e.Main,
		Sub:          e.Sub,
		MainJob:      e.MainJob,
		MainJobLevel: e.MainJobLevel,
		Zone:         e.Zone,
	}
}

func fromRow(row store.CharacterRow) broker.CharacterEntry {
	return broker.CharacterEntry{
		ContentID:    row.ContentID,
		Enabled:      true,
		CharacterID:  row.CharacterID,
		Name:         row.Name,
		WorldID:      uint8(row.WorldID),
		MainJob:      row.MainJob,
		MainJobLevel: row.MainJobLevel,
		Zone:         row.Zone,
		Race:         row.Race,
		Face:         row.Face,
		Hair:         row.Hair,
		Size:         row.Size,
		Nation:       row.Nation,
		Head:         row.Head,
		Body:         row.Body,
		Hands:        row.Hands,
		Legs:         row.Legs,
		Feet:         row.Feet,
		Main:         row.Main,
		Sub:          row.Sub,
	}
}
