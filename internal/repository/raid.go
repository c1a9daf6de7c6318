package repository

import (
	"context"
	"errors"
	"time"

	"raidbot/internal/domain"
)

var (
	// ErrRaidNotFound is returned when a raid id does not exist.
	ErrRaidNotFound = errors.New("raid not found")
	// ErrRaidFull is returned when the participant count already equals capacity.
	ErrRaidFull = errors.New("raid is full")
	// ErrAlreadyJoined is returned on a duplicate (raid, user) join.
	ErrAlreadyJoined = errors.New("already joined raid")
)

// RaidRepository exposes persistence operations for Raid aggregates.
type RaidRepository interface {
	Init(ctx context.Context) error
	Create(ctx context.Context, raid *domain.Raid) (int64, error)
	Get(ctx context.Context, id int64) (*domain.Raid, error)
	// Join inserts a participation for (raidID, userID). The capacity check
	// and the insert run inside a single transaction so that concurrent
	// joins on the last free slot yield exactly one success.
	Join(ctx context.Context, raidID, userID int64, joinedAt time.Time) error
	ListUpcoming(ctx context.Context, after time.Time) ([]domain.Raid, error)
	ParticipantIDs(ctx context.Context, raidID int64) ([]int64, error)
	ParticipantCount(ctx context.Context, raidID int64) (int, error)
	ListSummaries(ctx context.Context) ([]domain.RaidSummary, error)
}

// ReminderRepository tracks which (raid, threshold) reminders already fired,
// making the scheduler idempotent across ticks and process restarts.
type ReminderRepository interface {
	Init(ctx context.Context) error
	// MarkFired records the (raidID, thresholdMinutes) pair and reports
	// whether this call was the one that claimed it.
	MarkFired(ctx context.Context, raidID int64, thresholdMinutes int, firedAt time.Time) (bool, error)
}
