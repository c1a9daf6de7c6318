package transport_test

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"raidbot/internal/bot"
	"raidbot/internal/clock"
	"raidbot/internal/profile"
	"raidbot/internal/repository/sqlite"
	"raidbot/internal/service"
	"raidbot/internal/transport"
)

func TestConsoleRunsCommandsUntilEOF(t *testing.T) {
	db, err := sqlite.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	userRepo := sqlite.NewUserRepository(db)
	raidRepo := sqlite.NewRaidRepository(db)
	ctx := context.Background()
	if err := userRepo.Init(ctx); err != nil {
		t.Fatalf("init users: %v", err)
	}
	if err := raidRepo.Init(ctx); err != nil {
		t.Fatalf("init raids: %v", err)
	}

	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	clk := clock.System{}

	handler := bot.NewHandler(
		service.NewUserService(userRepo),
		service.NewBonusService(userRepo, clk),
		service.NewRaidService(raidRepo, clk),
		profile.NewGateway(profile.Config{Logger: logger}),
		12345,
		10,
		logger,
	)

	in := strings.NewReader("/start\n\n/daily\n/export_raids\n")
	var out bytes.Buffer
	console := transport.NewConsole(handler, in, &out, 12345, logger)

	runCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := console.Run(runCtx); err != nil {
		t.Fatalf("run: %v", err)
	}

	replies := out.String()
	if !strings.Contains(replies, "Welcome, console") {
		t.Fatalf("start reply missing: %q", replies)
	}
	if !strings.Contains(replies, "Balance: 50") {
		t.Fatalf("daily reply missing: %q", replies)
	}
	// the console identity is the owner, so the export header must appear
	if !strings.Contains(replies, "ID\tBoss\tStart\tSlots\tParticipants") {
		t.Fatalf("export reply missing: %q", replies)
	}
}
