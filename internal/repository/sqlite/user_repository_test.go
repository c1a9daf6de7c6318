package sqlite_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"raidbot/internal/repository"
	"raidbot/internal/repository/sqlite"
)

func newUserRepo(t *testing.T) repository.UserRepository {
	t.Helper()

	db, err := sqlite.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	repo := sqlite.NewUserRepository(db)
	if err := repo.Init(context.Background()); err != nil {
		t.Fatalf("init users: %v", err)
	}
	return repo
}

func TestUpsertCreatesLazily(t *testing.T) {
	repo := newUserRepo(t)
	ctx := context.Background()

	if _, err := repo.GetByTelegramID(ctx, 42); !errors.Is(err, repository.ErrUserNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	user, err := repo.Upsert(ctx, 42, "first")
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if user.ID == 0 || user.DisplayName != "first" || user.Crystals != 0 {
		t.Fatalf("unexpected user %+v", user)
	}
	if user.LastBonusAt != nil {
		t.Fatalf("fresh user should have no bonus claim")
	}
}

func TestUpsertIsIdempotentAndRefreshesName(t *testing.T) {
	repo := newUserRepo(t)
	ctx := context.Background()

	first, err := repo.Upsert(ctx, 42, "first")
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}

	again, err := repo.Upsert(ctx, 42, "renamed")
	if err != nil {
		t.Fatalf("second upsert: %v", err)
	}
	if again.ID != first.ID {
		t.Fatalf("upsert created a second row: %d vs %d", again.ID, first.ID)
	}
	if again.DisplayName != "renamed" {
		t.Fatalf("display name not refreshed: %q", again.DisplayName)
	}

	// a blank name must not erase the stored one
	kept, err := repo.Upsert(ctx, 42, "")
	if err != nil {
		t.Fatalf("third upsert: %v", err)
	}
	if kept.DisplayName != "renamed" {
		t.Fatalf("blank name erased stored name: %q", kept.DisplayName)
	}
}

func TestClaimBonusRoundTripsUTC(t *testing.T) {
	repo := newUserRepo(t)
	ctx := context.Background()

	user, err := repo.Upsert(ctx, 42, "tester")
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}

	claimedAt := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	granted, ok, err := repo.ClaimBonus(ctx, user.ID, 50, 24*time.Hour, claimedAt)
	if err != nil {
		t.Fatalf("claim bonus: %v", err)
	}
	if !ok {
		t.Fatal("expected first claim to grant")
	}
	if granted.Crystals != 50 {
		t.Fatalf("expected 50 crystals, got %d", granted.Crystals)
	}

	got, err := repo.GetByID(ctx, user.ID)
	if err != nil {
		t.Fatalf("get by id: %v", err)
	}
	if got.LastBonusAt == nil || !got.LastBonusAt.Equal(claimedAt) {
		t.Fatalf("expected last bonus %v, got %v", claimedAt, got.LastBonusAt)
	}

	if _, _, err := repo.ClaimBonus(ctx, 9999, 50, 24*time.Hour, claimedAt); !errors.Is(err, repository.ErrUserNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestClaimBonusDeniesWithinWindowWithoutMutation(t *testing.T) {
	repo := newUserRepo(t)
	ctx := context.Background()

	user, err := repo.Upsert(ctx, 42, "tester")
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}

	t0 := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	if _, ok, err := repo.ClaimBonus(ctx, user.ID, 50, 24*time.Hour, t0); err != nil || !ok {
		t.Fatalf("first claim: ok=%v err=%v", ok, err)
	}

	denied, ok, err := repo.ClaimBonus(ctx, user.ID, 50, 24*time.Hour, t0.Add(time.Hour))
	if err != nil {
		t.Fatalf("second claim: %v", err)
	}
	if ok {
		t.Fatal("claim inside the window granted")
	}
	if denied.Crystals != 50 || denied.LastBonusAt == nil || !denied.LastBonusAt.Equal(t0) {
		t.Fatalf("denied claim mutated the row: %+v", denied)
	}
}

func TestUpdateProfileUID(t *testing.T) {
	repo := newUserRepo(t)
	ctx := context.Background()

	user, err := repo.Upsert(ctx, 42, "tester")
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if err := repo.UpdateProfileUID(ctx, user.ID, "uid-7"); err != nil {
		t.Fatalf("update profile uid: %v", err)
	}

	got, err := repo.GetByTelegramID(ctx, 42)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.ProfileUID != "uid-7" {
		t.Fatalf("expected uid-7, got %q", got.ProfileUID)
	}
}
