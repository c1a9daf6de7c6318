package profile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// ErrUnavailable is returned when the upstream profile service cannot
// produce a profile: timeout, non-2xx response, or a malformed payload.
// Callers degrade to a "data unavailable" message, never fail.
var ErrUnavailable = errors.New("profile service unavailable")

// Profile is a player profile fetched from the Interknot API.
type Profile struct {
	UID      string `json:"uid"`
	Nickname string `json:"nickname"`
	Level    int    `json:"level"`
	LastSeen string `json:"last_seen"`
	Notes    string `json:"notes,omitempty"`
}

// Gateway fetches external player profiles by uid.
type Gateway interface {
	Fetch(ctx context.Context, uid string) (*Profile, error)
}

// Config carries upstream connection settings.
type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
	Logger  *logrus.Logger
}

type httpGateway struct {
	cfg    Config
	client *http.Client
}

// NewGateway returns an HTTP-backed gateway when a base URL is configured,
// otherwise a mock gateway so command flows keep working offline.
func NewGateway(cfg Config) Gateway {
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}
	if strings.TrimSpace(cfg.BaseURL) == "" {
		cfg.Logger.Info("profile api url not set, using mock gateway")
		return &mockGateway{}
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 6 * time.Second
	}
	return &httpGateway{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}
}

func (g *httpGateway) Fetch(ctx context.Context, uid string) (*Profile, error) {
	if strings.TrimSpace(uid) == "" {
		return nil, ErrUnavailable
	}

	endpoint := strings.TrimRight(g.cfg.BaseURL, "/") + "/api/profile?uid=" + url.QueryEscape(uid)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build profile request: %w", err)
	}
	req.Header.Set("User-Agent", "raidbot/0.2")
	if g.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+g.cfg.APIKey)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		g.cfg.Logger.WithError(err).Warn("profile fetch failed")
		return nil, ErrUnavailable
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		g.cfg.Logger.WithField("status", resp.StatusCode).Warn("profile fetch rejected")
		return nil, ErrUnavailable
	}

	var p Profile
	if err := json.NewDecoder(resp.Body).Decode(&p); err != nil {
		g.cfg.Logger.WithError(err).Warn("profile payload malformed")
		return nil, ErrUnavailable
	}
	return &p, nil
}

type mockGateway struct{}

func (*mockGateway) Fetch(_ context.Context, uid string) (*Profile, error) {
	if strings.TrimSpace(uid) == "" {
		return nil, ErrUnavailable
	}
	return &Profile{
		UID:      uid,
		Nickname: "MockPlayer_" + uid,
		Level:    42,
		LastSeen: time.Now().UTC().Format(time.RFC3339),
		Notes:    "mock response (set the profile api url to use the real service)",
	}, nil
}
