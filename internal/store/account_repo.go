// account_repo.go persists the Account data model of spec §3. Grounded on
// the teacher's internal/persist/account_repo.go (Load/Create/ValidatePassword/
// UpdateLastActive/SetOnline shape), generalized from the teacher's
// self-salting bcrypt to an explicit password-hash-plus-salt pair since
// spec §3 names both fields independently — see SPEC_FULL.md §4.5.
package store

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"golang.org/x/crypto/pbkdf2"
)

const pbkdf2Iterations = 100_000
const pbkdf2KeyLen = 32
const saltLen = 16

type Account struct {
	AccountID    uint32
	Username     string
	PasswordHash string
	Salt         string
	Privileges   uint32
	Expansions   uint32
	Features     uint32
	ContentSlots int16
	Online       bool
}

func (a Account) Enabled() bool       { return a.Privileges&1 != 0 }
func (a Account) HasTestAccess() bool { return a.Privileges&2 != 0 }

type AccountRepo struct {
	db *DB
}

func NewAccountRepo(db *DB) *AccountRepo {
	return &AccountRepo{db: db}
}

func (r *AccountRepo) Load(ctx context.Context, username string) (*Account, error) {
	a := &Account{}
	err := r.db.Pool.QueryRow(ctx,
		`SELECT account_id, username, password_hash, salt, privileges, expansions, features, content_slots, online
		 FROM accounts WHERE username = $1`, username,
	).Scan(&a.AccountID, &a.Username, &a.PasswordHash, &a.Salt, &a.Privileges, &a.Expansions, &a.Features, &a.ContentSlots, &a.Online)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return a, nil
}

func (r *AccountRepo) LoadByID(ctx context.Context, accountID uint32) (*Account, error) {
	a := &Account{}
	err := r.db.Pool.QueryRow(ctx,
		`SELECT account_id, username, password_hash, salt, privileges, expansions, features, content_slots, online
		 FROM accounts WHERE account_id = $1`, accountID,
	).Scan(&a.AccountID, &a.Username, &a.PasswordHash, &a.Salt, &a.Privileges, &a.Expansions, &a.Features, &a.ContentSlots, &a.Online)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return a, nil
}

// Create hashes rawPassword with a freshly generated salt and inserts a
// new account with contentSlots pre-allocated content ids.
func (r *AccountRepo) Create(ctx context.Context, username, rawPassword string, contentSlots int16) (*Account, error) {
	salt, err := newSalt()
	if err != nil {
		return nil, err
	}
	hash := hashPassword(rawPassword, salt)

	var accountID uint32
	err = r.db.Pool.QueryRow(ctx,
		`INSERT INTO accounts (username, password_hash, salt, content_slots)
		 VALUES ($1, $2, $3, $4) RETURNING account_id`,
		username, hash, salt, contentSlots,
	).Scan(&accountID)
	if err != nil {
		return nil, err
	}

	for i := int16(0); i < contentSlots; i++ {
		if _, err := r.db.Pool.Exec(ctx,
			`INSERT INTO contents (account_id, slot_index, enabled) VALUES ($1, $2, TRUE)`,
			accountID, i,
		); err != nil {
			return nil, err
		}
	}

	return &Account{
		AccountID:    accountID,
		Username:     username,
		PasswordHash: hash,
		Salt:         salt,
		Privileges:   1,
		ContentSlots: contentSlots,
	}, nil
}

func (r *AccountRepo) ValidatePassword(a *Account, rawPassword string) bool {
	return hashPassword(rawPassword, a.Salt) == a.PasswordHash
}

// SetPassword regenerates the salt and rehashes, per spec §4.5 CHANGE_PASSWORD.
func (r *AccountRepo) SetPassword(ctx context.Context, accountID uint32, rawPassword string) error {
	salt, err := newSalt()
	if err != nil {
		return err
	}
	hash := hashPassword(rawPassword, salt)
	_, err = r.db.Pool.Exec(ctx,
		`UPDATE accounts SET password_hash = $2, salt = $3 WHERE account_id = $1`,
		accountID, hash, salt,
	)
	return err
}

func (r *AccountRepo) SetOnline(ctx context.Context, accountID uint32, online bool) error {
	_, err := r.db.Pool.Exec(ctx, `UPDATE accounts SET online = $2 WHERE account_id = $1`, accountID, online)
	return err
}

func (r *AccountRepo) UpdateLastActive(ctx context.Context, accountID uint32, ip string) error {
	_, err := r.db.Pool.Exec(ctx,
		`UPDATE accounts SET last_active_at = now(), last_ip = $2 WHERE account_id = $1`,
		accountID, ip,
	)
	return err
}

func (r *AccountRepo) UsernameTaken(ctx context.Context, username string) (bool, error) {
	var exists bool
	err := r.db.Pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM accounts WHERE username = $1)`, username).Scan(&exists)
	return exists, err
}

func newSalt() (string, error) {
	b := make([]byte, saltLen)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}
	return fmt.Sprintf("%x", b), nil
}

func hashPassword(rawPassword, salt string) string {
	derived := pbkdf2.Key([]byte(rawPassword), []byte(salt), pbkdf2Iterations, pbkdf2KeyLen, sha256.New)
	return fmt.Sprintf("%x", derived)
}
