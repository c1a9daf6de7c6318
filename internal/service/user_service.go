package service

import (
	"context"
	"errors"
	"strings"

	"raidbot/internal/domain"
	"raidbot/internal/repository"
)

// ErrEmptyProfileUID rejects linking a blank profile id.
var ErrEmptyProfileUID = errors.New("profile uid is required")

// UserService describes user lifecycle operations.
type UserService interface {
	// EnsureUser upserts the user for a telegram id, creating it on first
	// interaction.
	EnsureUser(ctx context.Context, telegramID int64, displayName string) (*domain.User, error)
	// LinkProfile stores the external game-profile uid on the user.
	LinkProfile(ctx context.Context, telegramID int64, uid string) (*domain.User, error)
	GetByID(ctx context.Context, id int64) (*domain.User, error)
}

type userService struct {
	users repository.UserRepository
}

func NewUserService(users repository.UserRepository) UserService {
	return &userService{users: users}
}

func (s *userService) EnsureUser(ctx context.Context, telegramID int64, displayName string) (*domain.User, error) {
	return s.users.Upsert(ctx, telegramID, displayName)
}

func (s *userService) LinkProfile(ctx context.Context, telegramID int64, uid string) (*domain.User, error) {
	uid = strings.TrimSpace(uid)
	if uid == "" {
		return nil, ErrEmptyProfileUID
	}

	user, err := s.users.Upsert(ctx, telegramID, "")
	if err != nil {
		return nil, err
	}
	if err := s.users.UpdateProfileUID(ctx, user.ID, uid); err != nil {
		return nil, err
	}
	user.ProfileUID = uid
	return user, nil
}

func (s *userService) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	return s.users.GetByID(ctx, id)
}
