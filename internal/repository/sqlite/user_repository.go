package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"raidbot/internal/domain"
	"raidbot/internal/repository"
)

const createUsersTable = `
CREATE TABLE IF NOT EXISTS users (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	tg_id INTEGER NOT NULL UNIQUE,
	display_name TEXT NOT NULL DEFAULT '',
	profile_uid TEXT NOT NULL DEFAULT '',
	crystals INTEGER NOT NULL DEFAULT 0,
	last_bonus_at DATETIME,
	created_at DATETIME NOT NULL
);
`

type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) repository.UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Init(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, createUsersTable); err != nil {
		return fmt.Errorf("create users table: %w", err)
	}
	return nil
}

func (r *UserRepository) Upsert(ctx context.Context, telegramID int64, displayName string) (*domain.User, error) {
	now := time.Now().UTC()
	_, err := r.db.ExecContext(ctx, `
INSERT INTO users (tg_id, display_name, created_at)
VALUES (?, ?, ?)
ON CONFLICT(tg_id) DO UPDATE SET
	display_name = CASE WHEN excluded.display_name != '' THEN excluded.display_name ELSE users.display_name END`,
		telegramID,
		displayName,
		now,
	)
	if err != nil {
		return nil, fmt.Errorf("upsert user: %w", err)
	}
	return r.GetByTelegramID(ctx, telegramID)
}

func (r *UserRepository) GetByTelegramID(ctx context.Context, telegramID int64) (*domain.User, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT id, tg_id, display_name, profile_uid, crystals, last_bonus_at, created_at
FROM users
WHERE tg_id = ?`,
		telegramID,
	)
	return scanUser(row)
}

func (r *UserRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT id, tg_id, display_name, profile_uid, crystals, last_bonus_at, created_at
FROM users
WHERE id = ?`,
		id,
	)
	return scanUser(row)
}

// ClaimBonus wraps the cooldown check and the balance update in a single
// transaction, the same shape as RaidRepository.Join: concurrent claims
// serialize on the tx, so at most one of them observes an elapsed window.
func (r *UserRepository) ClaimBonus(ctx context.Context, id int64, reward int64, cooldown time.Duration, now time.Time) (*domain.User, bool, error) {
	now = now.UTC()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, false, fmt.Errorf("begin claim tx: %w", err)
	}
	defer tx.Rollback()

	user, err := scanUser(tx.QueryRowContext(ctx, `
SELECT id, tg_id, display_name, profile_uid, crystals, last_bonus_at, created_at
FROM users
WHERE id = ?`,
		id,
	))
	if err != nil {
		return nil, false, err
	}

	if user.LastBonusAt != nil && now.Sub(user.LastBonusAt.UTC()) < cooldown {
		return user, false, nil
	}

	user.Crystals += reward
	user.LastBonusAt = &now
	if _, err := tx.ExecContext(ctx, `
UPDATE users SET crystals = ?, last_bonus_at = ? WHERE id = ?`,
		user.Crystals,
		now,
		id,
	); err != nil {
		return nil, false, fmt.Errorf("update bonus: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, false, fmt.Errorf("commit claim: %w", err)
	}
	return user, true, nil
}

func (r *UserRepository) UpdateProfileUID(ctx context.Context, id int64, uid string) error {
	res, err := r.db.ExecContext(ctx, `
UPDATE users SET profile_uid = ? WHERE id = ?`,
		uid,
		id,
	)
	if err != nil {
		return fmt.Errorf("update profile uid: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return repository.ErrUserNotFound
	}
	return nil
}

func scanUser(row interface {
	Scan(dest ...any) error
}) (*domain.User, error) {
	var (
		user        domain.User
		lastBonusAt sql.NullTime
	)
	if err := row.Scan(
		&user.ID,
		&user.TelegramID,
		&user.DisplayName,
		&user.ProfileUID,
		&user.Crystals,
		&lastBonusAt,
		&user.CreatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrUserNotFound
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}
	if lastBonusAt.Valid {
		// values stored without a zone are treated as UTC
		t := lastBonusAt.Time.UTC()
		user.LastBonusAt = &t
	}
	user.CreatedAt = user.CreatedAt.UTC()
	return &user, nil
}
