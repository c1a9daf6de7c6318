package service_test

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"raidbot/internal/repository"
	"raidbot/internal/repository/sqlite"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	return c.now
}

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sqlite.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func newTestRepos(t *testing.T) (repository.UserRepository, repository.RaidRepository) {
	t.Helper()

	db := openTestDB(t)
	users := sqlite.NewUserRepository(db)
	raids := sqlite.NewRaidRepository(db)
	ctx := context.Background()
	if err := users.Init(ctx); err != nil {
		t.Fatalf("init users: %v", err)
	}
	if err := raids.Init(ctx); err != nil {
		t.Fatalf("init raids: %v", err)
	}
	return users, raids
}
