package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"raidbot/internal/domain"
	"raidbot/internal/repository"
)

const createRaidsTable = `
CREATE TABLE IF NOT EXISTS raids (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	boss TEXT NOT NULL,
	start_time DATETIME NOT NULL,
	capacity INTEGER NOT NULL,
	creator_id INTEGER NOT NULL REFERENCES users(id),
	created_at DATETIME NOT NULL
);
`

const createParticipantsTable = `
CREATE TABLE IF NOT EXISTS raid_participants (
	raid_id INTEGER NOT NULL REFERENCES raids(id),
	user_id INTEGER NOT NULL REFERENCES users(id),
	joined_at DATETIME NOT NULL,
	UNIQUE(raid_id, user_id)
);
`

type RaidRepository struct {
	db *sql.DB
}

func NewRaidRepository(db *sql.DB) repository.RaidRepository {
	return &RaidRepository{db: db}
}

func (r *RaidRepository) Init(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, createRaidsTable); err != nil {
		return fmt.Errorf("create raids table: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, createParticipantsTable); err != nil {
		return fmt.Errorf("create raid participants table: %w", err)
	}
	return nil
}

func (r *RaidRepository) Create(ctx context.Context, raid *domain.Raid) (int64, error) {
	raid.StartTime = raid.StartTime.UTC()
	raid.CreatedAt = time.Now().UTC()

	res, err := r.db.ExecContext(ctx, `
INSERT INTO raids (boss, start_time, capacity, creator_id, created_at)
VALUES (?, ?, ?, ?, ?)`,
		raid.Boss,
		raid.StartTime,
		raid.Capacity,
		raid.CreatorID,
		raid.CreatedAt,
	)
	if err != nil {
		return 0, fmt.Errorf("insert raid: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("raid last insert id: %w", err)
	}
	raid.ID = id
	return id, nil
}

func (r *RaidRepository) Get(ctx context.Context, id int64) (*domain.Raid, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT id, boss, start_time, capacity, creator_id, created_at
FROM raids
WHERE id = ?`,
		id,
	)
	return scanRaid(row)
}

// Join performs the capacity check and the participation insert as one
// transaction. Running both inside a single tx (on the single pooled
// connection) closes the count-then-insert race on the last free slot.
func (r *RaidRepository) Join(ctx context.Context, raidID, userID int64, joinedAt time.Time) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin join tx: %w", err)
	}
	defer tx.Rollback()

	var capacity int
	err = tx.QueryRowContext(ctx, `SELECT capacity FROM raids WHERE id = ?`, raidID).Scan(&capacity)
	if errors.Is(err, sql.ErrNoRows) {
		return repository.ErrRaidNotFound
	}
	if err != nil {
		return fmt.Errorf("load raid capacity: %w", err)
	}

	var joined bool
	err = tx.QueryRowContext(ctx, `
SELECT EXISTS(SELECT 1 FROM raid_participants WHERE raid_id = ? AND user_id = ?)`,
		raidID, userID,
	).Scan(&joined)
	if err != nil {
		return fmt.Errorf("check participation: %w", err)
	}
	if joined {
		return repository.ErrAlreadyJoined
	}

	var count int
	err = tx.QueryRowContext(ctx, `
SELECT COUNT(*) FROM raid_participants WHERE raid_id = ?`, raidID).Scan(&count)
	if err != nil {
		return fmt.Errorf("count participants: %w", err)
	}
	if count >= capacity {
		return repository.ErrRaidFull
	}

	_, err = tx.ExecContext(ctx, `
INSERT INTO raid_participants (raid_id, user_id, joined_at)
VALUES (?, ?, ?)`,
		raidID, userID, joinedAt.UTC(),
	)
	if err != nil {
		// unique index backs up the in-tx existence check
		if strings.Contains(strings.ToLower(err.Error()), "unique") {
			return repository.ErrAlreadyJoined
		}
		return fmt.Errorf("insert participation: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit join: %w", err)
	}
	return nil
}

func (r *RaidRepository) ListUpcoming(ctx context.Context, after time.Time) ([]domain.Raid, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT id, boss, start_time, capacity, creator_id, created_at
FROM raids
WHERE start_time > ?
ORDER BY start_time ASC`,
		after.UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("list upcoming raids: %w", err)
	}
	defer rows.Close()

	var raids []domain.Raid
	for rows.Next() {
		raid, err := scanRaid(rows)
		if err != nil {
			return nil, err
		}
		raids = append(raids, *raid)
	}
	return raids, rows.Err()
}

func (r *RaidRepository) ParticipantIDs(ctx context.Context, raidID int64) ([]int64, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT user_id FROM raid_participants WHERE raid_id = ? ORDER BY joined_at ASC`,
		raidID,
	)
	if err != nil {
		return nil, fmt.Errorf("list participants: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan participant id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *RaidRepository) ParticipantCount(ctx context.Context, raidID int64) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `
SELECT COUNT(*) FROM raid_participants WHERE raid_id = ?`, raidID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count participants: %w", err)
	}
	return count, nil
}

func (r *RaidRepository) ListSummaries(ctx context.Context) ([]domain.RaidSummary, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT r.id, r.boss, r.start_time, r.capacity, COUNT(p.user_id)
FROM raids r
LEFT JOIN raid_participants p ON p.raid_id = r.id
GROUP BY r.id
ORDER BY r.id ASC`)
	if err != nil {
		return nil, fmt.Errorf("list raid summaries: %w", err)
	}
	defer rows.Close()

	var summaries []domain.RaidSummary
	for rows.Next() {
		var s domain.RaidSummary
		if err := rows.Scan(&s.ID, &s.Boss, &s.StartTime, &s.Capacity, &s.Participants); err != nil {
			return nil, fmt.Errorf("scan raid summary: %w", err)
		}
		s.StartTime = s.StartTime.UTC()
		summaries = append(summaries, s)
	}
	return summaries, rows.Err()
}

func scanRaid(row interface {
	Scan(dest ...any) error
}) (*domain.Raid, error) {
	var raid domain.Raid
	if err := row.Scan(
		&raid.ID,
		&raid.Boss,
		&raid.StartTime,
		&raid.Capacity,
		&raid.CreatorID,
		&raid.CreatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrRaidNotFound
		}
		return nil, fmt.Errorf("scan raid: %w", err)
	}
	raid.StartTime = raid.StartTime.UTC()
	raid.CreatedAt = raid.CreatedAt.UTC()
	return &raid, nil
}
