package store

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
)

// ContentRow is one of an account's pre-allocated content ids (spec §3).
type ContentRow struct {
	ContentID uint32
	AccountID uint32
	SlotIndex int16
	Enabled   bool
}

type ContentRepo struct {
	db *DB
}

func NewContentRepo(db *DB) *ContentRepo {
	return &ContentRepo{db: db}
}

// ListByAccount returns content rows for accountID ordered by slot index —
// the ordering the session's character-list slots must match (spec §3 invariant).
func (r *ContentRepo) ListByAccount(ctx context.Context, accountID uint32) ([]ContentRow, error) {
	rows, err := r.db.Pool.Query(ctx,
		`SELECT content_id, account_id, slot_index, enabled FROM contents WHERE account_id = $1 ORDER BY slot_index`,
		accountID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ContentRow
	for rows.Next() {
		var c ContentRow
		if err := rows.Scan(&c.ContentID, &c.AccountID, &c.SlotIndex, &c.Enabled); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *ContentRepo) Load(ctx context.Context, contentID uint32) (*ContentRow, error) {
	c := &ContentRow{}
	err := r.db.Pool.QueryRow(ctx,
		`SELECT content_id, account_id, slot_index, enabled FROM contents WHERE content_id = $1`, contentID,
	).Scan(&c.ContentID, &c.AccountID, &c.SlotIndex, &c.Enabled)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}
