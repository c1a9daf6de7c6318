package http_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"raidbot/internal/clock"
	apphttp "raidbot/internal/http"
	"raidbot/internal/repository/sqlite"
	"raidbot/internal/service"
)

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()

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

	user, err := userRepo.Upsert(ctx, 1, "creator")
	if err != nil {
		t.Fatalf("upsert user: %v", err)
	}
	raids := service.NewRaidService(raidRepo, clock.System{})
	start := time.Date(2026, 3, 1, 20, 0, 0, 0, time.UTC)
	if _, err := raids.CreateRaid(ctx, "Boss", start, 5, user.ID); err != nil {
		t.Fatalf("create raid: %v", err)
	}

	gin.SetMode(gin.TestMode)
	router := gin.New()
	handler := apphttp.NewHandler(raids, "hunter2", "test-secret", time.Hour)
	handler.RegisterRoutes(router)
	return router
}

func login(t *testing.T, router *gin.Engine, password string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(`{"password":"`+password+`"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"status":"ok"`) {
		t.Fatalf("unexpected health body: %q", rec.Body.String())
	}
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	router := newTestRouter(t)

	if rec := login(t, router, "wrong"); rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestRaidsRequireToken(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/raids", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", rec.Code)
	}
}

func TestLoginAndExport(t *testing.T) {
	router := newTestRouter(t)

	rec := login(t, router, "hunter2")
	if rec.Code != http.StatusOK {
		t.Fatalf("login failed: %d %s", rec.Code, rec.Body.String())
	}
	var body struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode login body: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/raids", nil)
	req.Header.Set("Authorization", "Bearer "+body.Token)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("list raids: %d %s", rec.Code, rec.Body.String())
	}
	var raids []struct {
		ID        int64  `json:"id"`
		Boss      string `json:"boss"`
		StartTime string `json:"start_time"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &raids); err != nil {
		t.Fatalf("decode raids: %v", err)
	}
	if len(raids) != 1 {
		t.Fatalf("expected 1 raid, got %d", len(raids))
	}
	if raids[0].Boss != "Boss" || raids[0].StartTime != "2026-03-01T20:00:00Z" {
		t.Fatalf("unexpected raid row: %+v", raids[0])
	}

	req = httptest.NewRequest(http.MethodGet, "/api/raids/export", nil)
	req.Header.Set("Authorization", "Bearer "+body.Token)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("export: %d", rec.Code)
	}
	if !strings.HasPrefix(rec.Body.String(), "ID\tBoss\tStart\tSlots\tParticipants") {
		t.Fatalf("unexpected export body: %q", rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "2026-03-01T20:00:00Z") {
		t.Fatalf("export start time missing: %q", rec.Body.String())
	}
}
