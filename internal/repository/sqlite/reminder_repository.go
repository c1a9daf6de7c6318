package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"raidbot/internal/repository"
)

const createRemindersTable = `
CREATE TABLE IF NOT EXISTS raid_reminders (
	raid_id INTEGER NOT NULL REFERENCES raids(id),
	threshold_minutes INTEGER NOT NULL,
	fired_at DATETIME NOT NULL,
	PRIMARY KEY (raid_id, threshold_minutes)
);
`

type ReminderRepository struct {
	db *sql.DB
}

func NewReminderRepository(db *sql.DB) repository.ReminderRepository {
	return &ReminderRepository{db: db}
}

func (r *ReminderRepository) Init(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, createRemindersTable); err != nil {
		return fmt.Errorf("create raid reminders table: %w", err)
	}
	return nil
}

// MarkFired claims the (raid, threshold) pair. INSERT OR IGNORE against the
// primary key makes the claim atomic: exactly one caller ever observes
// claimed == true, including after a process restart.
func (r *ReminderRepository) MarkFired(ctx context.Context, raidID int64, thresholdMinutes int, firedAt time.Time) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
INSERT OR IGNORE INTO raid_reminders (raid_id, threshold_minutes, fired_at)
VALUES (?, ?, ?)`,
		raidID, thresholdMinutes, firedAt.UTC(),
	)
	if err != nil {
		return false, fmt.Errorf("mark reminder fired: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("reminder rows affected: %w", err)
	}
	return n > 0, nil
}
