package service

import (
	"context"
	"fmt"
	"time"

	"raidbot/internal/clock"
	"raidbot/internal/domain"
	"raidbot/internal/repository"
)

const (
	// DailyReward is the crystal amount granted per successful claim.
	DailyReward = 50
	// BonusCooldown is the rolling window measured from the previous
	// successful claim.
	BonusCooldown = 24 * time.Hour
)

// CooldownActiveError reports a denied claim along with the exact time left
// until the next one is allowed.
type CooldownActiveError struct {
	Remaining time.Duration
}

func (e *CooldownActiveError) Error() string {
	return fmt.Sprintf("daily bonus on cooldown for %s", e.Remaining)
}

// BonusService implements the daily-bonus claim state machine.
type BonusService interface {
	// Claim grants the daily reward to the user with the given telegram id,
	// creating the user if missing. Returns the user with the updated
	// balance, or a *CooldownActiveError when the window has not elapsed.
	Claim(ctx context.Context, telegramID int64, displayName string) (*domain.User, error)
}

type bonusService struct {
	users repository.UserRepository
	clock clock.Clock
}

func NewBonusService(users repository.UserRepository, clk clock.Clock) BonusService {
	return &bonusService{users: users, clock: clk}
}

func (s *bonusService) Claim(ctx context.Context, telegramID int64, displayName string) (*domain.User, error) {
	user, err := s.users.Upsert(ctx, telegramID, displayName)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now().UTC()
	// the repository runs check-and-set atomically; the comparison inside is
	// strict less-than, so exactly 24h elapsed grants
	user, granted, err := s.users.ClaimBonus(ctx, user.ID, DailyReward, BonusCooldown, now)
	if err != nil {
		return nil, err
	}
	if !granted {
		return nil, &CooldownActiveError{Remaining: BonusCooldown - now.Sub(user.LastBonusAt.UTC())}
	}
	return user, nil
}
