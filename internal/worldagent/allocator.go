// Package worldagent implements the world-side character allocator (spec
// §4.10): reservation list with TTL, reserve/create/delete against the
// store, starting-zone assignment by nation. Grounded on
// original_source/src/new-login/CharMessageHnd.cpp's reservation handling
// and the teacher's sync.Mutex-guarded in-memory table idiom.
package worldagent

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"sync"
	"time"

	"github.com/ixfflogin/server/internal/broker"
	"github.com/ixfflogin/server/internal/store"
)

// San d'Oria, Bastok and Windurst starting zones (spec §4.10); 0xEF is
// explicitly excluded from Windurst's set.
var startingZones = map[uint8][]uint16{
	0: {0xE6, 0xE7, 0xE8},
	1: {0xEA, 0xEB, 0xEC},
	2: {0xEE, 0xF0, 0xF1},
}

type reservation struct {
	charID    uint32
	contentID uint32
	accountID uint32
	expiresAt time.Time
}

// Allocator holds the in-memory reservation table for one world.
type Allocator struct {
	mu           sync.Mutex
	reservations []reservation

	worldID uint32
	ttl     time.Duration
	chars   *store.CharacterRepo
}

func New(worldID uint32, ttl time.Duration, chars *store.CharacterRepo) *Allocator {
	return &Allocator{worldID: worldID, ttl: ttl, chars: chars}
}

func (a *Allocator) evictExpiredLocked(now time.Time) {
	kept := a.reservations[:0]
	for _, r := range a.reservations {
		if r.expiresAt.After(now) {
			kept = append(kept, r)
		}
	}
	a.reservations = kept
}

// Reserve rejects if the content id or character id already exist in the
// store; otherwise appends a reservation with the configured TTL.
func (a *Allocator) Reserve(ctx context.Context, accountID, contentID, characterID uint32) error {
	if existing, err := a.chars.LoadByContentID(ctx, contentID); err != nil {
		return fmt.Errorf("check content id: %w", err)
	} else if existing != nil {
		return fmt.Errorf("reserve: content id %d already has a character", contentID)
	}
	if existing, err := a.chars.LoadByCharacterID(ctx, characterID); err != nil {
		return fmt.Errorf("check character id: %w", err)
	} else if existing != nil {
		return fmt.Errorf("reserve: character id %d already exists", characterID)
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	now := time.Now()
	a.evictExpiredLocked(now)
	a.reservations = append(a.reservations, reservation{
		charID:    characterID,
		contentID: contentID,
		accountID: accountID,
		expiresAt: now.Add(a.ttl),
	})
	return nil
}

// Create matches suggestedCharID & 0xFFFF against the reservation table,
// replaces a colliding or zero suggested id with max(existing)+1, assigns
// a random starting zone for the entry's nation, and commits the three
// character rows. Returns the assigned character id.
func (a *Allocator) Create(ctx context.Context, suggestedCharID uint32, entry broker.CharacterEntry) (uint32, error) {
	a.mu.Lock()
	now := time.Now()
	a.evictExpiredLocked(now)

	idx := -1
	for i, r := range a.reservations {
		if r.charID&0xFFFF == suggestedCharID&0xFFFF {
			idx = i
			break
		}
	}
	if idx == -1 {
		a.mu.Unlock()
		return 0, fmt.Errorf("create: no matching reservation for suggested id %d", suggestedCharID)
	}
	a.reservations = append(a.reservations[:idx], a.reservations[idx+1:]...)
	a.mu.Unlock()

	if entry.MainJob < 1 || entry.MainJob > 6 {
		return 0, fmt.Errorf("create: main_job %d out of range [1,6]", entry.MainJob)
	}

	assignedID := suggestedCharID
	var taken *store.CharacterRow
	if assignedID != 0 {
		var err error
		taken, err = a.chars.LoadByCharacterID(ctx, assignedID)
		if err != nil {
			return 0, fmt.Errorf("check suggested id: %w", err)
		}
	}
	if assignedID == 0 || taken != nil {
		next, err := a.nextCharacterID(ctx)
		if err != nil {
			return 0, err
		}
		assignedID = next
	}

	zone, err := randomStartingZone(entry.Nation)
	if err != nil {
		return 0, err
	}

	row := toRow(entry)
	row.CharacterID = assignedID
	row.WorldID = a.worldID
	row.Zone = zone

	if err := a.chars.Insert(ctx, row); err != nil {
		return 0, fmt.Errorf("insert character: %w", err)
	}
	return assignedID, nil
}

// Delete removes the row at world scope.
func (a *Allocator) Delete(ctx context.Context, characterID uint32) error {
	return a.chars.Delete(ctx, characterID)
}

// nextCharacterID computes (world_id<<16) + max_existing_low16 + 1, or
// (world_id<<16)+1 if this world has no characters yet (spec §4.7/§4.10).
func (a *Allocator) nextCharacterID(ctx context.Context) (uint32, error) {
	max, err := a.chars.MaxLowIDInWorld(ctx, a.worldID)
	if err != nil {
		return 0, fmt.Errorf("max low id: %w", err)
	}
	return (a.worldID << 16) | (max + 1), nil
}

func randomStartingZone(nation uint8) (uint16, error) {
	zones, ok := startingZones[nation]
	if !ok || len(zones) == 0 {
		return 0, fmt.Errorf("randomStartingZone: no starting zones for nation %d", nation)
	}
	var b [2]byte
	if _, err := rand.Read(b[:]); err != nil {
		return 0, fmt.Errorf("random zone: %w", err)
	}
	idx := int(binary.LittleEndian.Uint16(b[:])) % len(zones)
	return zones[idx], nil
}

func toRow(e broker.CharacterEntry) store.CharacterRow {
	return store.CharacterRow{
		CharacterID:  e.CharacterID,
		ContentID:    e.ContentID,
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
	}
}
