// character_repo.go persists the Character data model of spec §3, split
// across chars/char_look/char_stats the way spec §6 names them. Grounded
// on the teacher's internal/persist/character_repo.go row/repo shape and
// on original_source/src/new-login/CharMessageHnd.cpp's UpdateCharacter/
// QueryCharacter mismatch-and-insert-or-update logic (spec §4.9).
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// CharacterRow is a full character entry, joined across chars/char_look/char_stats.
type CharacterRow struct {
	CharacterID  uint32
	ContentID    uint32
	WorldID      uint32
	Name         string
	Nation       uint8
	Race         uint8
	Face, Hair, Size uint8
	Head, Body, Hands, Legs, Feet uint16
	Main, Sub    uint16
	MainJob      uint8
	MainJobLevel uint8
	Zone         uint16
}

type CharacterRepo struct {
	db *DB
}

func NewCharacterRepo(db *DB) *CharacterRepo {
	return &CharacterRepo{db: db}
}

func (r *CharacterRepo) LoadByCharacterID(ctx context.Context, characterID uint32) (*CharacterRow, error) {
	return r.scanOne(ctx, `WHERE c.character_id = $1`, characterID)
}

func (r *CharacterRepo) LoadByContentID(ctx context.Context, contentID uint32) (*CharacterRow, error) {
	return r.scanOne(ctx, `WHERE c.content_id = $1`, contentID)
}

func (r *CharacterRepo) scanOne(ctx context.Context, where string, arg any) (*CharacterRow, error) {
	row := &CharacterRow{}
	err := r.db.Pool.QueryRow(ctx, fmt.Sprintf(`
		SELECT c.character_id, c.content_id, c.world_id, c.name, c.nation, c.race,
		       l.face, l.hair, l.size, l.head, l.body, l.hands, l.legs, l.feet, l.main, l.sub,
		       s.main_job, s.main_job_level, s.zone
		FROM chars c
		JOIN char_look l ON l.character_id = c.character_id
		JOIN char_stats s ON s.character_id = c.character_id
		%s`, where), arg,
	).Scan(
		&row.CharacterID, &row.ContentID, &row.WorldID, &row.Name, &row.Nation, &row.Race,
		&row.Face, &row.Hair, &row.Size, &row.Head, &row.Body, &row.Hands, &row.Legs, &row.Feet, &row.Main, &row.Sub,
		&row.MainJob, &row.MainJobLevel, &row.Zone,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return row, nil
}

// ListByAccount loads every character owned by accountID's content ids, used to
// build the CHARACTER_LIST payload (spec §4.7).
func (r *CharacterRepo) ListByAccount(ctx context.Context, accountID uint32) ([]CharacterRow, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT c.character_id, c.content_id, c.world_id, c.name, c.nation, c.race,
		       l.face, l.hair, l.size, l.head, l.body, l.hands, l.legs, l.feet, l.main, l.sub,
		       s.main_job, s.main_job_level, s.zone
		FROM chars c
		JOIN contents k ON k.content_id = c.content_id
		JOIN char_look l ON l.character_id = c.character_id
		JOIN char_stats s ON s.character_id = c.character_id
		WHERE k.account_id = $1`, accountID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []CharacterRow
	for rows.Next() {
		var row CharacterRow
		if err := rows.Scan(
			&row.CharacterID, &row.ContentID, &row.WorldID, &row.Name, &row.Nation, &row.Race,
			&row.Face, &row.Hair, &row.Size, &row.Head, &row.Body, &row.Hands, &row.Legs, &row.Feet, &row.Main, &row.Sub,
			&row.MainJob, &row.MainJobLevel, &row.Zone,
		); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// MaxLowIDInWorld returns the highest character_id & 0xFFFF currently in
// use within worldID, or 0 if the world has no characters yet — used to
// compute the next suggested character id (spec §4.7/§4.10).
func (r *CharacterRepo) MaxLowIDInWorld(ctx context.Context, worldID uint32) (uint32, error) {
	var max uint32
	err := r.db.Pool.QueryRow(ctx,
		`SELECT COALESCE(MAX(character_id & 65535), 0) FROM chars WHERE world_id = $1`, worldID,
	).Scan(&max)
	return max, err
}

func (r *CharacterRepo) NameTakenInWorld(ctx context.Context, worldID uint32, name string) (bool, error) {
	var exists bool
	err := r.db.Pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM chars WHERE world_id = $1 AND name = $2)`, worldID, name,
	).Scan(&exists)
	return exists, err
}

// Insert creates a new character row plus its look/stats rows in one
// transaction (login-side mirror of the world's authoritative insert).
func (r *CharacterRepo) Insert(ctx context.Context, row CharacterRow) error {
	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx,
		`INSERT INTO chars (character_id, content_id, world_id, name, nation, race)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		row.CharacterID, row.ContentID, row.WorldID, row.Name, row.Nation, row.Race,
	); err != nil {
		return fmt.Errorf("insert chars: %w", err)
	}
	if _, err := tx.Exec(ctx,
		`INSERT INTO char_look (character_id, face, hair, size, head, body, hands, legs, feet, main, sub)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
		row.CharacterID, row.Face, row.Hair, row.Size, row.Head, row.Body, row.Hands, row.Legs, row.Feet, row.Main, row.Sub,
	); err != nil {
		return fmt.Errorf("insert char_look: %w", err)
	}
	if _, err := tx.Exec(ctx,
		`INSERT INTO char_stats (character_id, main_job, main_job_level, zone) VALUES ($1,$2,$3,$4)`,
		row.CharacterID, row.MainJob, row.MainJobLevel, row.Zone,
	); err != nil {
		return fmt.Errorf("insert char_stats: %w", err)
	}

	return tx.Commit(ctx)
}

// Update overwrites the look/stats of an existing character (CHAR_UPDATE, spec §4.9).
func (r *CharacterRepo) Update(ctx context.Context, row CharacterRow) error {
	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx,
		`UPDATE char_look SET face=$2, hair=$3, size=$4, head=$5, body=$6, hands=$7, legs=$8, feet=$9, main=$10, sub=$11
		 WHERE character_id = $1`,
		row.CharacterID, row.Face, row.Hair, row.Size, row.Head, row.Body, row.Hands, row.Legs, row.Feet, row.Main, row.Sub,
	); err != nil {
		return fmt.Errorf("update char_look: %w", err)
	}
	if _, err := tx.Exec(ctx,
		`UPDATE char_stats SET main_job=$2, main_job_level=$3, zone=$4 WHERE character_id = $1`,
		row.CharacterID, row.MainJob, row.MainJobLevel, row.Zone,
	); err != nil {
		return fmt.Errorf("update char_stats: %w", err)
	}

	return tx.Commit(ctx)
}

func (r *CharacterRepo) Delete(ctx context.Context, characterID uint32) error {
	_, err := r.db.Pool.Exec(ctx, `DELETE FROM chars WHERE character_id = $1`, characterID)
	return err
}

// CleanHalfCreated purges characters stuck in the reserved-but-never-
// confirmed state (nation = 0) for the given account, per spec §4.7
// clean_half_created_characters().
func (r *CharacterRepo) CleanHalfCreated(ctx context.Context, accountID uint32) error {
	_, err := r.db.Pool.Exec(ctx, `
		DELETE FROM chars c
		USING contents k
		WHERE c.content_id = k.content_id AND k.account_id = $1 AND c.nation = 0`,
		accountID,
	)
	return err
}
