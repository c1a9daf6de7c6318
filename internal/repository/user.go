package repository

import (
	"context"
	"errors"
	"time"

	"raidbot/internal/domain"
)

// ErrUserNotFound is returned when a lookup matches no user row.
var ErrUserNotFound = errors.New("user not found")

// UserRepository defines persistence operations for User entities.
type UserRepository interface {
	Init(ctx context.Context) error
	// Upsert returns the user with the given telegram id, creating it if
	// missing. DisplayName is refreshed on every call when non-empty.
	Upsert(ctx context.Context, telegramID int64, displayName string) (*domain.User, error)
	GetByTelegramID(ctx context.Context, telegramID int64) (*domain.User, error)
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	// ClaimBonus grants reward crystals if the previous claim is at least
	// cooldown old, running the check and the update as one atomic unit so
	// concurrent claims inside the window grant at most once. Returns the
	// user as of the attempt and whether this call granted.
	ClaimBonus(ctx context.Context, id int64, reward int64, cooldown time.Duration, now time.Time) (*domain.User, bool, error)
	UpdateProfileUID(ctx context.Context, id int64, uid string) error
}
