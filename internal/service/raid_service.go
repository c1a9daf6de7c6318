package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"raidbot/internal/clock"
	"raidbot/internal/domain"
	"raidbot/internal/repository"
)

var (
	// ErrEmptyBossName rejects raids without a boss.
	ErrEmptyBossName = errors.New("boss name is required")
	// ErrInvalidCapacity rejects non-positive slot counts.
	ErrInvalidCapacity = errors.New("capacity must be at least 1")
	// ErrInvalidStartTime rejects an unparsable start time.
	ErrInvalidStartTime = errors.New("invalid start time")
)

// RaidService coordinates raid creation, joining, and reporting.
type RaidService interface {
	// CreateRaid validates and stores a raid. A past start time is legal;
	// such a raid simply never triggers reminders.
	CreateRaid(ctx context.Context, boss string, startTime time.Time, capacity int, creatorID int64) (*domain.Raid, error)
	// Join adds the user to the raid. Expected outcomes surface as
	// repository.ErrRaidNotFound, repository.ErrRaidFull, and
	// repository.ErrAlreadyJoined.
	Join(ctx context.Context, raidID, userID int64) error
	Get(ctx context.Context, raidID int64) (*domain.Raid, error)
	ListUpcoming(ctx context.Context) ([]domain.Raid, error)
	ParticipantCount(ctx context.Context, raidID int64) (int, error)
	// ExportSummary returns one row per raid, ordered by id.
	ExportSummary(ctx context.Context) ([]domain.RaidSummary, error)
}

type raidService struct {
	raids repository.RaidRepository
	clock clock.Clock
}

func NewRaidService(raids repository.RaidRepository, clk clock.Clock) RaidService {
	return &raidService{raids: raids, clock: clk}
}

func (s *raidService) CreateRaid(ctx context.Context, boss string, startTime time.Time, capacity int, creatorID int64) (*domain.Raid, error) {
	boss = strings.TrimSpace(boss)
	if boss == "" {
		return nil, ErrEmptyBossName
	}
	if capacity < 1 {
		return nil, ErrInvalidCapacity
	}
	if startTime.IsZero() {
		return nil, ErrInvalidStartTime
	}

	raid := &domain.Raid{
		Boss:      boss,
		StartTime: startTime.UTC(),
		Capacity:  capacity,
		CreatorID: creatorID,
	}
	if _, err := s.raids.Create(ctx, raid); err != nil {
		return nil, err
	}
	return raid, nil
}

func (s *raidService) Join(ctx context.Context, raidID, userID int64) error {
	return s.raids.Join(ctx, raidID, userID, s.clock.Now())
}

func (s *raidService) Get(ctx context.Context, raidID int64) (*domain.Raid, error) {
	return s.raids.Get(ctx, raidID)
}

func (s *raidService) ListUpcoming(ctx context.Context) ([]domain.Raid, error) {
	return s.raids.ListUpcoming(ctx, s.clock.Now())
}

func (s *raidService) ParticipantCount(ctx context.Context, raidID int64) (int, error) {
	return s.raids.ParticipantCount(ctx, raidID)
}

func (s *raidService) ExportSummary(ctx context.Context) ([]domain.RaidSummary, error) {
	return s.raids.ListSummaries(ctx)
}
