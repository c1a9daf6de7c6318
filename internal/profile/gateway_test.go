package profile_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"raidbot/internal/profile"
)

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

func TestFetchSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/profile" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.URL.Query().Get("uid") != "uid-1" {
			t.Errorf("unexpected uid %q", r.URL.Query().Get("uid"))
		}
		if got := r.Header.Get("Authorization"); got != "Bearer secret" {
			t.Errorf("unexpected auth header %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"uid":"uid-1","nickname":"Phaethon","level":60}`))
	}))
	defer srv.Close()

	gw := profile.NewGateway(profile.Config{BaseURL: srv.URL, APIKey: "secret", Logger: quietLogger()})
	p, err := gw.Fetch(context.Background(), "uid-1")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if p.Nickname != "Phaethon" || p.Level != 60 {
		t.Fatalf("unexpected profile %+v", p)
	}
}

func TestFetchNon2xxIsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	gw := profile.NewGateway(profile.Config{BaseURL: srv.URL, Logger: quietLogger()})
	if _, err := gw.Fetch(context.Background(), "uid-1"); !errors.Is(err, profile.ErrUnavailable) {
		t.Fatalf("expected unavailable, got %v", err)
	}
}

func TestFetchMalformedPayloadIsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("<html>not json</html>"))
	}))
	defer srv.Close()

	gw := profile.NewGateway(profile.Config{BaseURL: srv.URL, Logger: quietLogger()})
	if _, err := gw.Fetch(context.Background(), "uid-1"); !errors.Is(err, profile.ErrUnavailable) {
		t.Fatalf("expected unavailable, got %v", err)
	}
}

func TestFetchTimeoutIsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	gw := profile.NewGateway(profile.Config{BaseURL: srv.URL, Timeout: 20 * time.Millisecond, Logger: quietLogger()})
	if _, err := gw.Fetch(context.Background(), "uid-1"); !errors.Is(err, profile.ErrUnavailable) {
		t.Fatalf("expected unavailable, got %v", err)
	}
}

func TestMockGatewayWhenUnconfigured(t *testing.T) {
	gw := profile.NewGateway(profile.Config{Logger: quietLogger()})

	p, err := gw.Fetch(context.Background(), "exampleUID")
	if err != nil {
		t.Fatalf("mock fetch: %v", err)
	}
	if p.Nickname != "MockPlayer_exampleUID" {
		t.Fatalf("unexpected mock nickname %q", p.Nickname)
	}
	if p.Level != 42 {
		t.Fatalf("unexpected mock level %d", p.Level)
	}

	if _, err := gw.Fetch(context.Background(), " "); !errors.Is(err, profile.ErrUnavailable) {
		t.Fatalf("expected unavailable for blank uid, got %v", err)
	}
}
